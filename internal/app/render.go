package app

import (
	"bytes"
	"fmt"
	"image"
	"image/color"

	"gocv.io/x/gocv"

	"github.com/ayusman/airmouse/internal/engine"
)

var (
	colorArea     = color.RGBA{R: 255, G: 0, B: 255, A: 0}
	colorCursor   = color.RGBA{R: 255, G: 0, B: 255, A: 0}
	colorText     = color.RGBA{R: 255, G: 0, B: 0, A: 0}
	colorDisabled = color.RGBA{R: 128, G: 128, B: 128, A: 0}
)

// publish draws the feedback overlay onto frame and hands the JPEG to the
// stream buffer.
func (a *App) publish(frame *gocv.Mat, obs *engine.HandObservation, res engine.FrameResult, enabled bool) {
	if a.config.Frames == nil || frame.Empty() {
		return
	}

	a.drawOverlay(frame, obs, res, enabled)

	buf, err := gocv.IMEncode(gocv.JPEGFileExt, *frame)
	if err != nil {
		a.errLog.Warn().Err(err).Msg("failed to encode feedback frame")
		return
	}
	a.config.Frames.Publish(bytes.Clone(buf.GetBytes()))
	buf.Close()
}

func (a *App) drawOverlay(frame *gocv.Mat, obs *engine.HandObservation, res engine.FrameResult, enabled bool) {
	cfg := a.config.Engine
	sx := float64(frame.Cols()) / float64(cfg.FrameWidth)
	sy := float64(frame.Rows()) / float64(cfg.FrameHeight)

	if !enabled {
		gocv.PutText(frame, "Disabled", image.Pt(20, 50), gocv.FontHersheyPlain, 3, colorDisabled, 3)
		return
	}

	area := activeArea(cfg, sx, sy)
	gocv.Rectangle(frame, area, colorArea, 2)

	if obs != nil && res.CursorMoved {
		tip := image.Pt(int(obs.Fingertip.X*sx), int(obs.Fingertip.Y*sy))
		gocv.Circle(frame, tip, 15, colorCursor, -1)
	}

	gocv.PutText(frame, "Mode: "+res.Mode.String(), image.Pt(20, 50), gocv.FontHersheyPlain, 2, colorText, 2)

	a.mu.RLock()
	fps := a.fps
	a.mu.RUnlock()
	gocv.PutText(frame, fmt.Sprintf("FPS: %d", int(fps)), image.Pt(20, 90), gocv.FontHersheyPlain, 2, colorText, 2)
}

// activeArea is the frame rectangle, shrunk by the margin, that maps onto the
// screen. sx and sy scale from engine frame space to the drawn image.
func activeArea(cfg engine.Config, sx, sy float64) image.Rectangle {
	m := float64(cfg.FrameMargin)
	return image.Rect(
		int(m*sx),
		int(m*sy),
		int((float64(cfg.FrameWidth)-m)*sx),
		int((float64(cfg.FrameHeight)-m)*sy),
	)
}
