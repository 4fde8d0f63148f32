package engine

import (
	"errors"
	"fmt"
	"time"
)

// ErrInvalidConfig is returned by Config.Validate and New for unusable settings.
var ErrInvalidConfig = errors.New("invalid engine config")

// Default engine settings.
const (
	DefaultFrameWidth     = 640
	DefaultFrameHeight    = 480
	DefaultFrameMargin    = 100
	DefaultSmoothing      = 5.0
	DefaultThreshold      = 50.0
	DefaultVolumeStep     = 0.01
	DefaultBrightnessStep = 5
	DefaultScrollAmount   = 30
	DefaultClickInterval  = 100 * time.Millisecond
)

// Config holds every tunable the engine uses. It is passed in at
// construction; the engine reads no globals.
type Config struct {
	// FrameWidth and FrameHeight are the camera frame size in pixels.
	FrameWidth  int
	FrameHeight int

	// FrameMargin shrinks the camera frame on every side to form the
	// active rectangle mapped onto the screen.
	FrameMargin int

	// ScreenWidth and ScreenHeight are the target display size in pixels.
	ScreenWidth  int
	ScreenHeight int

	// Smoothing divides each step of the cursor filter toward its target.
	// 1 disables smoothing; larger values add lag and remove jitter.
	Smoothing float64

	// Threshold is the wrist displacement in pixels, relative to the mode
	// anchor, beyond which analog modes step every frame.
	Threshold float64

	VolumeStep     float64
	BrightnessStep int
	ScrollAmount   int

	// ClickInterval is the minimum delay between two clicks.
	ClickInterval time.Duration

	// ScreenshotDir receives captured screenshots.
	ScreenshotDir string
}

// DefaultConfig returns a Config with the stock tuning for a 640x480 camera.
// Screen size and screenshot directory are host specific and left empty.
func DefaultConfig() Config {
	return Config{
		FrameWidth:     DefaultFrameWidth,
		FrameHeight:    DefaultFrameHeight,
		FrameMargin:    DefaultFrameMargin,
		Smoothing:      DefaultSmoothing,
		Threshold:      DefaultThreshold,
		VolumeStep:     DefaultVolumeStep,
		BrightnessStep: DefaultBrightnessStep,
		ScrollAmount:   DefaultScrollAmount,
		ClickInterval:  DefaultClickInterval,
	}
}

// Validate reports the first unusable setting, wrapped in ErrInvalidConfig.
func (c Config) Validate() error {
	switch {
	case c.FrameWidth <= 0 || c.FrameHeight <= 0:
		return fmt.Errorf("%w: frame size %dx%d", ErrInvalidConfig, c.FrameWidth, c.FrameHeight)
	case c.FrameMargin < 0 || 2*c.FrameMargin >= c.FrameWidth || 2*c.FrameMargin >= c.FrameHeight:
		return fmt.Errorf("%w: frame margin %d leaves no active area in %dx%d",
			ErrInvalidConfig, c.FrameMargin, c.FrameWidth, c.FrameHeight)
	case c.ScreenWidth <= 0 || c.ScreenHeight <= 0:
		return fmt.Errorf("%w: screen size %dx%d", ErrInvalidConfig, c.ScreenWidth, c.ScreenHeight)
	case c.Smoothing < 1:
		return fmt.Errorf("%w: smoothing %.2f must be >= 1", ErrInvalidConfig, c.Smoothing)
	case c.Threshold < 0:
		return fmt.Errorf("%w: negative threshold %.2f", ErrInvalidConfig, c.Threshold)
	case c.VolumeStep <= 0 || c.VolumeStep > 1:
		return fmt.Errorf("%w: volume step %.3f outside (0, 1]", ErrInvalidConfig, c.VolumeStep)
	case c.BrightnessStep <= 0 || c.BrightnessStep > 100:
		return fmt.Errorf("%w: brightness step %d outside (0, 100]", ErrInvalidConfig, c.BrightnessStep)
	case c.ScrollAmount <= 0:
		return fmt.Errorf("%w: scroll amount %d must be positive", ErrInvalidConfig, c.ScrollAmount)
	case c.ClickInterval < 0:
		return fmt.Errorf("%w: negative click interval %s", ErrInvalidConfig, c.ClickInterval)
	}
	return nil
}
