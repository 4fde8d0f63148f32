package engine

import "time"

// Decision lists the discrete actions the gate allows for one frame.
type Decision struct {
	LeftClick  bool
	RightClick bool
	Screenshot bool
}

// Any reports whether at least one action fires.
func (d Decision) Any() bool {
	return d.LeftClick || d.RightClick || d.Screenshot
}

// DiscreteActionGate decides when clicks and screenshots fire.
//
// Clicks repeat while their pattern is held, but never more often than the
// configured interval; the limit is an earliest-next-fire timestamp shared by
// both buttons, so the frame loop never sleeps. Screenshots are
// edge-triggered: one capture per run of open-palm frames.
type DiscreteActionGate struct {
	clickInterval time.Duration
	nextClick     time.Time
	latched       bool
}

// NewDiscreteActionGate creates a gate with the given minimum click interval.
func NewDiscreteActionGate(clickInterval time.Duration) *DiscreteActionGate {
	return &DiscreteActionGate{clickInterval: clickInterval}
}

// Evaluate inspects the finger vector of an observed frame captured at now.
// It must only be called for frames with an observation; absent frames leave
// the screenshot latch as it was.
func (g *DiscreteActionGate) Evaluate(f FingerVector, now time.Time) Decision {
	var d Decision

	switch f {
	case IndexOnly:
		d.LeftClick = g.allowClick(now)
	case ThumbOnly:
		d.RightClick = g.allowClick(now)
	}

	if f == OpenPalm {
		if !g.latched {
			g.latched = true
			d.Screenshot = true
		}
	} else {
		g.latched = false
	}

	return d
}

// Latched reports whether a screenshot has fired for the current open-palm run.
func (g *DiscreteActionGate) Latched() bool {
	return g.latched
}

func (g *DiscreteActionGate) allowClick(now time.Time) bool {
	if now.Before(g.nextClick) {
		return false
	}
	g.nextClick = now.Add(g.clickInterval)
	return true
}
