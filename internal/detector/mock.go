package detector

import (
	"sync"

	"github.com/ayusman/airmouse/internal/engine"
	"gocv.io/x/gocv"
)

// MockDetector is a test implementation of the Detector interface.
// It allows tests to control the detection results.
type MockDetector struct {
	mu    sync.Mutex
	hands []HandLandmarks
	err   error
	calls int
}

// NewMockDetector creates a new MockDetector instance.
func NewMockDetector() *MockDetector {
	return &MockDetector{}
}

// SetHands sets the hands that will be returned by Detect.
func (m *MockDetector) SetHands(hands []HandLandmarks) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.hands = hands
}

// SetError sets the error that will be returned by Detect.
func (m *MockDetector) SetError(err error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.err = err
}

// Calls returns how many times Detect has been called.
func (m *MockDetector) Calls() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.calls
}

// Detect returns the pre-configured hands or error.
func (m *MockDetector) Detect(frame *gocv.Mat) ([]HandLandmarks, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.calls++
	if m.err != nil {
		return nil, m.err
	}
	return m.hands, nil
}

// Close is a no-op for the mock detector.
func (m *MockDetector) Close() error {
	return nil
}

// SyntheticHand builds a right hand, palm facing the camera, whose Fingers()
// equal f. The wrist sits at (wristX, wristY) in normalized coordinates.
func SyntheticHand(f engine.FingerVector, wristX, wristY float64) HandLandmarks {
	h := HandLandmarks{
		Handedness: "Right",
		Score:      0.95,
	}

	h.Points[Wrist] = Point3D{X: wristX, Y: wristY}

	// Thumb: an extended tip reaches away from the pinky side, a folded one
	// tucks across the palm.
	h.Points[ThumbCMC] = Point3D{X: wristX + 0.05, Y: wristY - 0.03}
	h.Points[ThumbMCP] = Point3D{X: wristX + 0.09, Y: wristY - 0.06}
	h.Points[ThumbIP] = Point3D{X: wristX + 0.12, Y: wristY - 0.08}
	if f[engine.Thumb] {
		h.Points[ThumbTip] = Point3D{X: wristX + 0.16, Y: wristY - 0.10}
	} else {
		h.Points[ThumbTip] = Point3D{X: wristX + 0.02, Y: wristY - 0.08}
	}

	fingers := []struct {
		finger  int
		offsetX float64
		mcp     int
	}{
		{engine.Index, 0.05, IndexMCP},
		{engine.Middle, 0.0, MiddleMCP},
		{engine.Ring, -0.05, RingMCP},
		{engine.Pinky, -0.10, PinkyMCP},
	}
	for _, fg := range fingers {
		x := wristX + fg.offsetX
		base := wristY - 0.12
		h.Points[fg.mcp] = Point3D{X: x, Y: base}
		if f[fg.finger] {
			h.Points[fg.mcp+1] = Point3D{X: x, Y: base - 0.08}
			h.Points[fg.mcp+2] = Point3D{X: x, Y: base - 0.14}
			h.Points[fg.mcp+3] = Point3D{X: x, Y: base - 0.20}
		} else {
			h.Points[fg.mcp+1] = Point3D{X: x, Y: base - 0.04, Z: -0.03}
			h.Points[fg.mcp+2] = Point3D{X: x, Y: base - 0.02, Z: -0.04}
			h.Points[fg.mcp+3] = Point3D{X: x, Y: base + 0.01, Z: -0.02}
		}
	}

	return h
}

// OpenPalmLandmarks returns a hand with all five fingers extended.
func OpenPalmLandmarks() HandLandmarks {
	return SyntheticHand(engine.OpenPalm, 0.5, 0.8)
}

// FistLandmarks returns a hand with every finger folded.
func FistLandmarks() HandLandmarks {
	return SyntheticHand(engine.Fist, 0.5, 0.8)
}
