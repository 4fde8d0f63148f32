package engine

import "math"

// CursorFilter maps fingertip positions in the camera frame to smoothed,
// mirrored, clamped screen coordinates. Its filtered state persists across
// frames and only changes when Update is called.
type CursorFilter struct {
	frameW, frameH float64
	margin         float64
	screenW        float64
	screenH        float64
	smoothing      float64

	filteredX float64
	filteredY float64
}

// NewCursorFilter creates a filter from the frame, margin, screen and
// smoothing settings in cfg. The filtered position starts at the origin.
func NewCursorFilter(cfg Config) *CursorFilter {
	return &CursorFilter{
		frameW:    float64(cfg.FrameWidth),
		frameH:    float64(cfg.FrameHeight),
		margin:    float64(cfg.FrameMargin),
		screenW:   float64(cfg.ScreenWidth),
		screenH:   float64(cfg.ScreenHeight),
		smoothing: cfg.Smoothing,
	}
}

// Update advances the filter toward the screen position of tip and returns
// the cursor coordinates to send to the pointer sink.
//
// Steps:
//  1. Map tip from the active rectangle (frame shrunk by margin) to the screen.
//  2. filtered += (target - filtered) / smoothing
//  3. Mirror X to undo the camera's mirrored view.
//  4. Clamp both axes to [0, dimension-1].
func (f *CursorFilter) Update(tip Point) (x, y int) {
	// A NaN landmark would poison the filter for good; hold position instead.
	if !math.IsNaN(tip.X) && !math.IsNaN(tip.Y) {
		targetX := interp(tip.X, f.margin, f.frameW-f.margin, 0, f.screenW)
		targetY := interp(tip.Y, f.margin, f.frameH-f.margin, 0, f.screenH)

		f.filteredX += (targetX - f.filteredX) / f.smoothing
		f.filteredY += (targetY - f.filteredY) / f.smoothing
	}

	mirroredX := clamp(f.screenW-f.filteredX, 0, f.screenW-1)
	clampedY := clamp(f.filteredY, 0, f.screenH-1)

	return int(math.Round(mirroredX)), int(math.Round(clampedY))
}

// Filtered returns the smoothed, unmirrored screen position.
func (f *CursorFilter) Filtered() (x, y float64) {
	return f.filteredX, f.filteredY
}

// interp maps v linearly from [inLo, inHi] to [outLo, outHi], holding the
// output at the nearest end for inputs outside the input range.
func interp(v, inLo, inHi, outLo, outHi float64) float64 {
	if inHi <= inLo {
		return outLo
	}
	if v <= inLo {
		return outLo
	}
	if v >= inHi {
		return outHi
	}
	return outLo + (v-inLo)*(outHi-outLo)/(inHi-inLo)
}

func clamp(v, lo, hi float64) float64 {
	return math.Max(lo, math.Min(v, hi))
}
