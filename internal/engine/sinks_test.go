package engine

import "time"

// fakeSinks records every command the engine issues. Each capability can be
// made to fail by setting the matching err field.
type fakeSinks struct {
	moves   [][2]int
	clicks  []Button
	scrolls []ScrollDirection
	shots   []string

	volume     float64
	volumeSets int
	brightness int
	brightSets int

	moveErr   error
	clickErr  error
	volumeErr error
	shotErr   error
}

func (f *fakeSinks) MoveAbsolute(x, y int) error {
	if f.moveErr != nil {
		return f.moveErr
	}
	f.moves = append(f.moves, [2]int{x, y})
	return nil
}

func (f *fakeSinks) Click(b Button) error {
	if f.clickErr != nil {
		return f.clickErr
	}
	f.clicks = append(f.clicks, b)
	return nil
}

func (f *fakeSinks) Scroll(amount int, dir ScrollDirection) error {
	f.scrolls = append(f.scrolls, dir)
	return nil
}

func (f *fakeSinks) Volume() (float64, error) {
	if f.volumeErr != nil {
		return 0, f.volumeErr
	}
	return f.volume, nil
}

func (f *fakeSinks) SetVolume(v float64) error {
	f.volume = v
	f.volumeSets++
	return nil
}

func (f *fakeSinks) Brightness() (int, error) {
	return f.brightness, nil
}

func (f *fakeSinks) SetBrightness(p int) error {
	f.brightness = p
	f.brightSets++
	return nil
}

func (f *fakeSinks) CaptureScreenshot(path string) error {
	if f.shotErr != nil {
		return f.shotErr
	}
	f.shots = append(f.shots, path)
	return nil
}

// all wires f into every sink slot.
func (f *fakeSinks) all() Sinks {
	return Sinks{
		Pointer:     f,
		Scroller:    f,
		Volume:      f,
		Brightness:  f,
		Screenshots: f,
	}
}

// fakeClock advances by step on every call.
type fakeClock struct {
	t    time.Time
	step time.Duration
}

func (c *fakeClock) Now() time.Time {
	now := c.t
	c.t = c.t.Add(c.step)
	return now
}

func testConfig() Config {
	cfg := DefaultConfig()
	cfg.ScreenWidth = 1920
	cfg.ScreenHeight = 1080
	cfg.ScreenshotDir = "/tmp/shots"
	return cfg
}

func observe(fingers FingerVector, wristY float64) *HandObservation {
	return &HandObservation{
		Fingertip: Point{X: 320, Y: 240},
		Wrist:     Point{X: 320, Y: wristY},
		Fingers:   fingers,
	}
}

var (
	volumePattern     = FingerVector{Thumb: true, Pinky: true}
	scrollPattern     = FingerVector{Pinky: true}
	brightnessPattern = FingerVector{Index: true, Pinky: true}
)
