package engine

// Button selects a mouse button for Pointer.Click.
type Button int

const (
	ButtonLeft Button = iota
	ButtonRight
)

func (b Button) String() string {
	if b == ButtonRight {
		return "right"
	}
	return "left"
}

// ScrollDirection is the direction of a single scroll tick.
type ScrollDirection int

const (
	ScrollUp ScrollDirection = iota
	ScrollDown
)

func (d ScrollDirection) String() string {
	if d == ScrollDown {
		return "down"
	}
	return "up"
}

// Pointer moves the cursor and clicks.
type Pointer interface {
	MoveAbsolute(x, y int) error
	Click(b Button) error
}

// Scroller emits discrete scroll ticks.
type Scroller interface {
	Scroll(amount int, dir ScrollDirection) error
}

// VolumeControl reads and writes the master volume as a scalar in [0, 1].
type VolumeControl interface {
	Volume() (float64, error)
	SetVolume(v float64) error
}

// BrightnessControl reads and writes display brightness in percent [0, 100].
type BrightnessControl interface {
	Brightness() (int, error)
	SetBrightness(percent int) error
}

// ScreenCapturer writes a screenshot of the primary display to path.
type ScreenCapturer interface {
	CaptureScreenshot(path string) error
}

// Sinks bundles the OS collaborators the engine drives. A nil field marks a
// capability that is unavailable on this host; the engine treats it as a
// permanent no-op.
type Sinks struct {
	Pointer     Pointer
	Scroller    Scroller
	Volume      VolumeControl
	Brightness  BrightnessControl
	Screenshots ScreenCapturer
}
