// Package detector provides hand detection and the conversion of landmarks
// into the finger-state observations the engine consumes.
package detector

import (
	"math"

	"github.com/ayusman/airmouse/internal/engine"
)

// Hand landmark indices following MediaPipe convention.
// See: https://developers.google.com/mediapipe/solutions/vision/hand_landmarker
const (
	Wrist        = 0
	ThumbCMC     = 1
	ThumbMCP     = 2
	ThumbIP      = 3
	ThumbTip     = 4
	IndexMCP     = 5
	IndexPIP     = 6
	IndexDIP     = 7
	IndexTip     = 8
	MiddleMCP    = 9
	MiddlePIP    = 10
	MiddleDIP    = 11
	MiddleTip    = 12
	RingMCP      = 13
	RingPIP      = 14
	RingDIP      = 15
	RingTip      = 16
	PinkyMCP     = 17
	PinkyPIP     = 18
	PinkyDIP     = 19
	PinkyTip     = 20
	NumLandmarks = 21
)

// Point3D represents a landmark in normalized image coordinates: X and Y in
// [0, 1] with Y growing downward, Z relative depth.
type Point3D struct {
	X float64 `json:"x"`
	Y float64 `json:"y"`
	Z float64 `json:"z"`
}

// HandLandmarks represents the 21 hand landmarks detected by MediaPipe.
type HandLandmarks struct {
	Points     [NumLandmarks]Point3D `json:"points"`
	Handedness string                `json:"handedness"` // "Left" or "Right"
	Score      float64               `json:"score"`
}

// tip and pip joints for the four long fingers, in engine finger order.
var fingerJoints = [...]struct{ tip, pip int }{
	engine.Index:  {IndexTip, IndexPIP},
	engine.Middle: {MiddleTip, MiddlePIP},
	engine.Ring:   {RingTip, RingPIP},
	engine.Pinky:  {PinkyTip, PinkyPIP},
}

// Fingers reports which fingers are extended.
//
// A long finger is up when its tip lies above its PIP joint. The thumb is up
// when its tip is farther from the pinky MCP than its IP joint is, which
// works for either hand and for mirrored frames.
func (h *HandLandmarks) Fingers() engine.FingerVector {
	var f engine.FingerVector

	pinkyBase := h.Points[PinkyMCP]
	f[engine.Thumb] = distance2D(h.Points[ThumbTip], pinkyBase) > distance2D(h.Points[ThumbIP], pinkyBase)

	for i := engine.Index; i < engine.NumFingers; i++ {
		j := fingerJoints[i]
		f[i] = h.Points[j.tip].Y < h.Points[j.pip].Y
	}

	return f
}

// Observe scales the index fingertip and the wrist to pixel coordinates of a
// frameW x frameH image and pairs them with the finger vector.
func (h *HandLandmarks) Observe(frameW, frameH int) engine.HandObservation {
	w, ht := float64(frameW), float64(frameH)
	return engine.HandObservation{
		Fingertip: engine.Point{X: h.Points[IndexTip].X * w, Y: h.Points[IndexTip].Y * ht},
		Wrist:     engine.Point{X: h.Points[Wrist].X * w, Y: h.Points[Wrist].Y * ht},
		Fingers:   h.Fingers(),
	}
}

// PrimaryHand returns the highest scoring hand, or nil when hands is empty.
func PrimaryHand(hands []HandLandmarks) *HandLandmarks {
	var best *HandLandmarks
	for i := range hands {
		if best == nil || hands[i].Score > best.Score {
			best = &hands[i]
		}
	}
	return best
}

func distance2D(a, b Point3D) float64 {
	return math.Hypot(a.X-b.X, a.Y-b.Y)
}
