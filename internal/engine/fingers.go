// Package engine turns per-frame hand observations into desktop control
// commands: an exclusive analog mode (volume, scroll, brightness), a smoothed
// cursor, and rate-limited or edge-triggered discrete actions.
package engine

import "strings"

// Digit indices into a FingerVector.
const (
	Thumb = iota
	Index
	Middle
	Ring
	Pinky
	NumFingers
)

// FingerVector holds the extended state of each digit, ordered
// [thumb, index, middle, ring, pinky].
type FingerVector [NumFingers]bool

// Fixed patterns recognised by the engine.
var (
	Fist      = FingerVector{}
	IndexOnly = FingerVector{Index: true}
	ThumbOnly = FingerVector{Thumb: true}
	OpenPalm  = FingerVector{true, true, true, true, true}
)

// FingerVectorFromBits builds a vector from the low five bits of b, thumb
// first: bit 4 is the thumb and bit 0 the pinky, so 0b01000 is IndexOnly.
func FingerVectorFromBits(b uint8) FingerVector {
	var f FingerVector
	for i := 0; i < NumFingers; i++ {
		f[i] = b&(1<<(NumFingers-1-i)) != 0
	}
	return f
}

// Bits is the inverse of FingerVectorFromBits.
func (f FingerVector) Bits() uint8 {
	var b uint8
	for i := 0; i < NumFingers; i++ {
		if f[i] {
			b |= 1 << (NumFingers - 1 - i)
		}
	}
	return b
}

// String renders the vector as five 0/1 characters, e.g. "01000".
func (f FingerVector) String() string {
	var sb strings.Builder
	sb.Grow(NumFingers)
	for _, up := range f {
		if up {
			sb.WriteByte('1')
		} else {
			sb.WriteByte('0')
		}
	}
	return sb.String()
}

// Point is a position in pixel space. Y grows downward.
type Point struct {
	X float64 `json:"x"`
	Y float64 `json:"y"`
}

// HandObservation is what the finger-state reader yields for a frame in
// which a hand was found. Frames without a hand are represented by a nil
// *HandObservation.
type HandObservation struct {
	Fingertip Point        `json:"fingertip"`
	Wrist     Point        `json:"wrist"`
	Fingers   FingerVector `json:"fingers"`
}
