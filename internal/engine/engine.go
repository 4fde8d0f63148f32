package engine

import (
	"errors"
	"fmt"
	"path/filepath"
	"time"

	"github.com/rs/zerolog"

	"github.com/ayusman/airmouse/internal/logging"
)

// ScreenshotTimeFormat names screenshot files by capture time.
const ScreenshotTimeFormat = "screenshot_20060102_150405.000.png"

// EventKind classifies engine events.
type EventKind string

const (
	EventModeEnter  EventKind = "mode_enter"
	EventModeExit   EventKind = "mode_exit"
	EventAnalogStep EventKind = "analog_step"
	EventLeftClick  EventKind = "left_click"
	EventRightClick EventKind = "right_click"
	EventScreenshot EventKind = "screenshot"
	EventSinkError  EventKind = "sink_error"
)

// Event is emitted to the listener for every mode transition, executed
// action and sink failure.
type Event struct {
	Kind    EventKind
	Mode    ModeKind
	Fingers FingerVector
	// Detail carries the screenshot path, the failing sink, or the scroll
	// direction, depending on Kind.
	Detail string
	Value  float64
	Time   time.Time
}

// FrameResult summarises what one call to Process did.
type FrameResult struct {
	Observed    bool
	Fingers     FingerVector
	Mode        ModeKind
	Transition  Transition
	Step        Step
	// CursorMoved is set only when the pointer sink accepted a move.
	CursorMoved bool
	CursorX     int
	CursorY     int
	Decision    Decision
	// Screenshot is the path written this frame, if any.
	Screenshot string
}

// State is a point-in-time snapshot of the engine for status displays.
type State struct {
	Observed          bool         `json:"observed"`
	Fingers           FingerVector `json:"fingers"`
	Session           ModeSession  `json:"session"`
	CursorX           int          `json:"cursor_x"`
	CursorY           int          `json:"cursor_y"`
	ScreenshotLatched bool         `json:"screenshot_latched"`
	Frames            uint64       `json:"frames"`
}

// Option customises an Engine.
type Option func(*Engine)

// WithClock replaces time.Now, mainly for tests of the click rate limit.
func WithClock(now func() time.Time) Option {
	return func(e *Engine) {
		e.now = now
	}
}

// WithEventListener registers fn to receive every Event. fn runs on the
// frame loop and must not block.
func WithEventListener(fn func(Event)) Option {
	return func(e *Engine) {
		e.onEvent = fn
	}
}

// WithLogger replaces the engine's logger.
func WithLogger(l zerolog.Logger) Option {
	return func(e *Engine) {
		e.logger = l
	}
}

// Engine runs the per-frame gesture-to-action logic. It is not safe for
// concurrent use: a single frame loop owns it.
type Engine struct {
	cfg     Config
	sinks   Sinks
	arbiter *ModeArbiter
	analog  *AnalogController
	cursor  *CursorFilter
	gate    *DiscreteActionGate

	now     func() time.Time
	onEvent func(Event)
	logger  zerolog.Logger
	errLog  zerolog.Logger

	state State
}

// New validates cfg and builds an engine driving sinks.
func New(cfg Config, sinks Sinks, opts ...Option) (*Engine, error) {
	if err := cfg.Validate(); err != nil {
		return nil, err
	}

	e := &Engine{
		cfg:     cfg,
		sinks:   sinks,
		arbiter: NewModeArbiter(),
		analog:  NewAnalogController(cfg, sinks),
		cursor:  NewCursorFilter(cfg),
		gate:    NewDiscreteActionGate(cfg.ClickInterval),
		now:     time.Now,
		logger:  logging.Component("engine"),
	}
	for _, opt := range opts {
		opt(e)
	}
	// A broken sink fails on every frame; keep the log readable.
	e.errLog = e.logger.Sample(&zerolog.BurstSampler{Burst: 3, Period: 5 * time.Second})

	return e, nil
}

// Config returns the configuration the engine was built with.
func (e *Engine) Config() Config {
	return e.cfg
}

// State returns a snapshot of the engine.
func (e *Engine) State() State {
	s := e.state
	s.Session, _ = e.arbiter.Session()
	s.ScreenshotLatched = e.gate.Latched()
	return s
}

// Process runs one frame. A nil obs means no hand was detected: nothing is
// evaluated and every piece of state, including an active mode session and
// the screenshot latch, is kept as it was.
func (e *Engine) Process(obs *HandObservation) FrameResult {
	e.state.Frames++
	e.state.Observed = obs != nil

	if obs == nil {
		return FrameResult{Mode: e.arbiter.Mode()}
	}

	now := e.now()
	e.state.Fingers = obs.Fingers

	res := FrameResult{Observed: true, Fingers: obs.Fingers}

	tr := e.arbiter.Update(*obs)
	res.Transition = tr
	res.Mode = tr.To
	if tr.Changed() {
		e.transition(tr, *obs, now)
	}

	if session, ok := e.arbiter.Session(); ok {
		res.Step = e.applyAnalog(session, *obs, now)
	}

	// The cursor and discrete patterns all classify as ModeNone, so none of
	// the following can act while an analog mode is held. The gate is still
	// evaluated on every observed frame so the screenshot latch re-arms.
	if obs.Fingers == Fist {
		res.CursorX, res.CursorY = e.cursor.Update(obs.Fingertip)
		e.state.CursorX, e.state.CursorY = res.CursorX, res.CursorY
		res.CursorMoved = e.moveCursor(res.CursorX, res.CursorY, obs.Fingers, now)
	}

	res.Decision = e.gate.Evaluate(obs.Fingers, now)
	if res.Decision.LeftClick {
		e.click(ButtonLeft, obs.Fingers, now)
	}
	if res.Decision.RightClick {
		e.click(ButtonRight, obs.Fingers, now)
	}
	if res.Decision.Screenshot {
		res.Screenshot = e.screenshot(obs.Fingers, now)
	}

	return res
}

func (e *Engine) transition(tr Transition, obs HandObservation, now time.Time) {
	if tr.From != ModeNone {
		e.logger.Info().Str("mode", tr.From.String()).Msg("mode off")
		e.emit(Event{Kind: EventModeExit, Mode: tr.From, Fingers: obs.Fingers, Time: now})
	}
	if tr.To != ModeNone {
		e.logger.Info().
			Str("mode", tr.To.String()).
			Float64("anchor_y", obs.Wrist.Y).
			Msg("mode on")
		e.emit(Event{Kind: EventModeEnter, Mode: tr.To, Fingers: obs.Fingers, Value: obs.Wrist.Y, Time: now})
	}
}

func (e *Engine) applyAnalog(session ModeSession, obs HandObservation, now time.Time) Step {
	step, err := e.analog.Apply(session, obs.Wrist.Y)
	if err != nil {
		e.sinkFailed(err, session.Kind, obs.Fingers, now)
		return step
	}
	if !step.Applied {
		return step
	}

	detail := "up"
	if step.Direction < 0 {
		detail = "down"
	}
	e.logger.Debug().
		Str("mode", session.Kind.String()).
		Str("direction", detail).
		Float64("value", step.Value).
		Msg("analog step")
	e.emit(Event{Kind: EventAnalogStep, Mode: session.Kind, Fingers: obs.Fingers, Detail: detail, Value: step.Value, Time: now})
	return step
}

// moveCursor reports whether the pointer sink accepted the move.
func (e *Engine) moveCursor(x, y int, fingers FingerVector, now time.Time) bool {
	if e.sinks.Pointer == nil {
		return false
	}
	if err := e.sinks.Pointer.MoveAbsolute(x, y); err != nil {
		e.sinkFailed(&SinkError{Sink: "cursor", Err: fmt.Errorf("move to (%d, %d): %w", x, y, err)}, ModeNone, fingers, now)
		return false
	}
	return true
}

func (e *Engine) click(b Button, fingers FingerVector, now time.Time) {
	if e.sinks.Pointer == nil {
		return
	}
	if err := e.sinks.Pointer.Click(b); err != nil {
		e.sinkFailed(&SinkError{Sink: "click", Err: fmt.Errorf("%s click: %w", b, err)}, ModeNone, fingers, now)
		return
	}

	kind := EventLeftClick
	if b == ButtonRight {
		kind = EventRightClick
	}
	e.logger.Debug().Str("button", b.String()).Msg("click")
	e.emit(Event{Kind: kind, Fingers: fingers, Time: now})
}

func (e *Engine) screenshot(fingers FingerVector, now time.Time) string {
	if e.sinks.Screenshots == nil {
		return ""
	}

	path := filepath.Join(e.cfg.ScreenshotDir, now.Format(ScreenshotTimeFormat))
	if err := e.sinks.Screenshots.CaptureScreenshot(path); err != nil {
		e.sinkFailed(&SinkError{Sink: "screenshot", Err: err}, ModeNone, fingers, now)
		return ""
	}

	e.logger.Info().Str("path", path).Msg("screenshot saved")
	e.emit(Event{Kind: EventScreenshot, Fingers: fingers, Detail: path, Time: now})
	return path
}

func (e *Engine) sinkFailed(err error, mode ModeKind, fingers FingerVector, now time.Time) {
	sink := "unknown"
	var se *SinkError
	if errors.As(err, &se) {
		sink = se.Sink
	}

	e.errLog.Warn().Err(err).Str("sink", sink).Msg("sink call failed")
	e.emit(Event{Kind: EventSinkError, Mode: mode, Fingers: fingers, Detail: sink, Time: now})
}

func (e *Engine) emit(ev Event) {
	if e.onEvent != nil {
		e.onEvent(ev)
	}
}
