package sink

import (
	"fmt"
	"os"
	"path/filepath"

	"github.com/ayusman/airmouse/internal/engine"
	"github.com/go-vgo/robotgo"
	"gocv.io/x/gocv"
)

// Desktop drives the pointer, the scroll wheel and screen capture of the
// primary display through robotgo.
type Desktop struct {
	width  int
	height int
}

// NewDesktop probes the primary display. It fails with ErrUnavailable when
// no display is reachable, e.g. on a headless session.
func NewDesktop() (*Desktop, error) {
	w, h := robotgo.GetScreenSize()
	if w <= 0 || h <= 0 {
		return nil, unavailable("no display (screen size %dx%d)", w, h)
	}
	return &Desktop{width: w, height: h}, nil
}

// ScreenSize returns the primary display size in pixels.
func (d *Desktop) ScreenSize() (width, height int) {
	return d.width, d.height
}

// MoveAbsolute places the pointer at (x, y).
func (d *Desktop) MoveAbsolute(x, y int) error {
	if x < 0 || y < 0 || x >= d.width || y >= d.height {
		return fmt.Errorf("pointer target (%d, %d) outside %dx%d screen", x, y, d.width, d.height)
	}
	robotgo.Move(x, y)
	return nil
}

// Click presses and releases b.
func (d *Desktop) Click(b engine.Button) error {
	switch b {
	case engine.ButtonLeft:
		robotgo.Click("left")
	case engine.ButtonRight:
		robotgo.Click("right")
	default:
		return fmt.Errorf("unknown button %d", b)
	}
	return nil
}

// Scroll turns the wheel by amount in dir.
func (d *Desktop) Scroll(amount int, dir engine.ScrollDirection) error {
	if amount <= 0 {
		return fmt.Errorf("scroll amount %d must be positive", amount)
	}
	switch dir {
	case engine.ScrollUp:
		robotgo.ScrollDir(amount, "up")
	case engine.ScrollDown:
		robotgo.ScrollDir(amount, "down")
	default:
		return fmt.Errorf("unknown scroll direction %d", dir)
	}
	return nil
}

// CaptureScreenshot grabs the full screen and writes it to path, creating
// the parent directory when needed. The format follows the extension.
func (d *Desktop) CaptureScreenshot(path string) error {
	if err := os.MkdirAll(filepath.Dir(path), 0755); err != nil {
		return fmt.Errorf("create screenshot dir: %w", err)
	}

	img, err := robotgo.CaptureImg()
	if err != nil {
		return fmt.Errorf("capture screen: %w", err)
	}

	mat, err := gocv.ImageToMatRGB(img)
	if err != nil {
		return fmt.Errorf("convert screenshot: %w", err)
	}
	defer mat.Close()

	if ok := gocv.IMWrite(path, mat); !ok {
		return fmt.Errorf("write screenshot %s", path)
	}
	return nil
}
