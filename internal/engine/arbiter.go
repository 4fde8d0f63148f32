package engine

// ModeKind identifies the active analog mode. Exactly one kind is active at
// any time; ModeNone means no analog mode.
type ModeKind int

const (
	ModeNone ModeKind = iota
	ModeVolume
	ModeScroll
	ModeBrightness
)

var modeNames = [...]string{
	ModeNone:       "none",
	ModeVolume:     "volume",
	ModeScroll:     "scroll",
	ModeBrightness: "brightness",
}

func (k ModeKind) String() string {
	if k < 0 || int(k) >= len(modeNames) {
		return "unknown"
	}
	return modeNames[k]
}

// MarshalText lets modes appear by name in JSON payloads.
func (k ModeKind) MarshalText() ([]byte, error) {
	return []byte(k.String()), nil
}

// Classify applies the mode rules in priority order. Pinky, thumb and index
// decide the mode; scroll and brightness also require middle and ring down.
func Classify(f FingerVector) ModeKind {
	pinky, thumb, index := f[Pinky], f[Thumb], f[Index]
	curled := !f[Middle] && !f[Ring]

	switch {
	case pinky && thumb && !index:
		return ModeVolume
	case pinky && !thumb && !index && curled:
		return ModeScroll
	case pinky && index && !thumb && curled:
		return ModeBrightness
	default:
		return ModeNone
	}
}

// ModeSession is the state of an active analog mode. AnchorY is the wrist Y
// observed on entry and stays fixed while the mode is held.
type ModeSession struct {
	Kind    ModeKind `json:"kind"`
	AnchorY float64  `json:"anchor_y"`
}

// Active reports whether the session holds a non-None mode.
func (s ModeSession) Active() bool {
	return s.Kind != ModeNone
}

// Transition describes the arbiter's result for one frame.
type Transition struct {
	From ModeKind
	To   ModeKind
}

// Changed reports whether the frame moved the arbiter to a different mode.
func (t Transition) Changed() bool {
	return t.From != t.To
}

// ModeArbiter selects at most one analog mode per frame from the finger
// vector and owns the resulting session.
type ModeArbiter struct {
	session ModeSession
}

// NewModeArbiter returns an arbiter in ModeNone.
func NewModeArbiter() *ModeArbiter {
	return &ModeArbiter{}
}

// Update evaluates one observed frame. Entering a mode from a different one
// anchors a new session at the current wrist Y; staying in the same mode
// keeps the anchor; dropping to None clears it.
//
// Callers must not call Update for frames without an observation: absent
// frames leave the session untouched.
func (a *ModeArbiter) Update(obs HandObservation) Transition {
	from := a.session.Kind
	to := Classify(obs.Fingers)

	switch {
	case to == ModeNone:
		a.session = ModeSession{}
	case to != from:
		a.session = ModeSession{Kind: to, AnchorY: obs.Wrist.Y}
	}

	return Transition{From: from, To: to}
}

// Session returns the current session and whether it is active.
func (a *ModeArbiter) Session() (ModeSession, bool) {
	return a.session, a.session.Active()
}

// Mode returns the current mode kind.
func (a *ModeArbiter) Mode() ModeKind {
	return a.session.Kind
}
