package engine

import (
	"fmt"
	"math"
)

// Scalar bounds for the analog modes.
const (
	MinVolume     = 0.0
	MaxVolume     = 1.0
	MinBrightness = 0
	MaxBrightness = 100
)

// SinkError reports a failed call into an OS sink.
type SinkError struct {
	Sink string
	Err  error
}

func (e *SinkError) Error() string {
	return fmt.Sprintf("%s sink: %v", e.Sink, e.Err)
}

func (e *SinkError) Unwrap() error {
	return e.Err
}

// Step is the outcome of one AnalogController.Apply call.
type Step struct {
	Mode ModeKind
	// Direction is +1 for an increment, -1 for a decrement and 0 when the
	// displacement is within the threshold.
	Direction int
	// Value is the scalar written to the sink: the new volume, the new
	// brightness percent, or the scroll amount.
	Value float64
	// Applied is false when no command reached a sink, either because the
	// hand is inside the dead zone or the sink is unavailable.
	Applied bool
}

// AnalogController turns wrist displacement from the mode anchor into
// repeated steps against the mode's scalar.
type AnalogController struct {
	threshold      float64
	volumeStep     float64
	brightnessStep int
	scrollAmount   int

	volume     VolumeControl
	brightness BrightnessControl
	scroller   Scroller
}

// NewAnalogController wires the controller to the analog sinks in s.
func NewAnalogController(cfg Config, s Sinks) *AnalogController {
	return &AnalogController{
		threshold:      cfg.Threshold,
		volumeStep:     cfg.VolumeStep,
		brightnessStep: cfg.BrightnessStep,
		scrollAmount:   cfg.ScrollAmount,
		volume:         s.Volume,
		brightness:     s.Brightness,
		scroller:       s.Scroller,
	}
}

// Direction classifies the displacement of wristY from the anchor. Moving
// the hand down (larger Y) decrements; moving it up increments.
func (c *AnalogController) Direction(anchorY, wristY float64) int {
	delta := wristY - anchorY
	switch {
	case delta > c.threshold:
		return -1
	case delta < -c.threshold:
		return 1
	default:
		return 0
	}
}

// Apply performs one frame of the session's mode. Because the anchor is
// fixed for the whole session, a hand held beyond the threshold steps on
// every frame.
func (c *AnalogController) Apply(s ModeSession, wristY float64) (Step, error) {
	step := Step{Mode: s.Kind, Direction: c.Direction(s.AnchorY, wristY)}
	if step.Direction == 0 {
		return step, nil
	}

	switch s.Kind {
	case ModeVolume:
		return c.stepVolume(step)
	case ModeBrightness:
		return c.stepBrightness(step)
	case ModeScroll:
		return c.stepScroll(step)
	default:
		return Step{Mode: s.Kind}, nil
	}
}

func (c *AnalogController) stepVolume(step Step) (Step, error) {
	if c.volume == nil {
		return step, nil
	}

	current, err := c.volume.Volume()
	if err != nil {
		return step, &SinkError{Sink: "volume", Err: err}
	}

	next := clamp(clamp(current, MinVolume, MaxVolume)+float64(step.Direction)*c.volumeStep, MinVolume, MaxVolume)
	// Trim float noise so repeated steps land on 0.49 rather than 0.48999...
	next = math.Round(next*1e6) / 1e6

	if err := c.volume.SetVolume(next); err != nil {
		return step, &SinkError{Sink: "volume", Err: err}
	}

	step.Value = next
	step.Applied = true
	return step, nil
}

func (c *AnalogController) stepBrightness(step Step) (Step, error) {
	if c.brightness == nil {
		return step, nil
	}

	current, err := c.brightness.Brightness()
	if err != nil {
		return step, &SinkError{Sink: "brightness", Err: err}
	}

	next := clampInt(clampInt(current, MinBrightness, MaxBrightness)+step.Direction*c.brightnessStep,
		MinBrightness, MaxBrightness)

	if err := c.brightness.SetBrightness(next); err != nil {
		return step, &SinkError{Sink: "brightness", Err: err}
	}

	step.Value = float64(next)
	step.Applied = true
	return step, nil
}

func (c *AnalogController) stepScroll(step Step) (Step, error) {
	if c.scroller == nil {
		return step, nil
	}

	dir := ScrollUp
	if step.Direction < 0 {
		dir = ScrollDown
	}

	if err := c.scroller.Scroll(c.scrollAmount, dir); err != nil {
		return step, &SinkError{Sink: "scroll", Err: err}
	}

	step.Value = float64(c.scrollAmount)
	step.Applied = true
	return step, nil
}

func clampInt(v, lo, hi int) int {
	if v < lo {
		return lo
	}
	if v > hi {
		return hi
	}
	return v
}
