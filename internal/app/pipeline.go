package app

import (
	"context"
	"fmt"
	"time"

	"gocv.io/x/gocv"

	"github.com/ayusman/airmouse/internal/detector"
	"github.com/ayusman/airmouse/internal/engine"
	"github.com/ayusman/airmouse/internal/metrics"
	"github.com/ayusman/airmouse/internal/store"
)

// sinkErrorStoreInterval limits how often one failing sink is written to the
// event log.
const sinkErrorStoreInterval = time.Second

// Run is the frame loop. It opens the camera, then until ctx is done reads a
// frame, detects the primary hand, runs the engine and publishes feedback.
// The camera and the detector are released when Run returns.
func (a *App) Run(ctx context.Context) error {
	cam := a.config.Camera
	if err := cam.Open(); err != nil {
		return fmt.Errorf("open camera: %w", err)
	}
	defer func() {
		if err := cam.Close(); err != nil {
			a.logger.Warn().Err(err).Msg("error closing camera")
		}
		if err := a.config.Detector.Close(); err != nil {
			a.logger.Warn().Err(err).Msg("error closing detector")
		}
		a.logger.Info().Msg("frame loop stopped")
	}()

	cam.SetFPS(a.config.FPS)
	a.pruneEvents()

	w, h := cam.Size()
	a.logger.Info().
		Int("width", w).
		Int("height", h).
		Int("fps", a.config.FPS).
		Bool("enabled", a.Enabled()).
		Msg("frame loop started")

	ticker := time.NewTicker(time.Second / time.Duration(a.config.FPS))
	defer ticker.Stop()

	l := &loop{lastSinkErr: make(map[string]time.Time)}
	a.loop = l

	for {
		// Stop is honoured before every frame acquisition.
		select {
		case <-ctx.Done():
			return ctx.Err()
		default:
		}

		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-ticker.C:
		}

		frame, err := cam.ReadFrame()
		if err != nil {
			metrics.RecordFrame(metrics.FrameError, 0)
			a.errLog.Warn().Err(err).Msg("frame read failed")

			select {
			case <-ctx.Done():
				return ctx.Err()
			case <-time.After(a.config.IdleRetry):
			}
			continue
		}

		a.processFrame(frame)
		frame.Close()
		a.tickFPS(l, time.Now())
	}
}

// loop holds state owned by the frame loop goroutine.
type loop struct {
	lastFrame   time.Time
	lastSinkErr map[string]time.Time
}

func (a *App) processFrame(frame *gocv.Mat) {
	if !a.Enabled() {
		metrics.RecordFrame(metrics.FrameDisabled, 0)
		a.publish(frame, nil, engine.FrameResult{}, false)
		return
	}

	start := time.Now()
	obs := a.observe(frame)
	res := a.engine.Process(obs)

	result := metrics.FrameAbsent
	if res.Observed {
		result = metrics.FrameObserved
	}
	metrics.RecordFrame(result, time.Since(start))
	if res.Transition.Changed() {
		metrics.RecordModeTransition(res.Transition.To.String())
	}

	state := a.engine.State()
	a.mu.Lock()
	a.state = state
	a.mu.Unlock()

	a.publish(frame, obs, res, true)
}

// observe runs the detector. Detector failures count as frames without a
// hand.
func (a *App) observe(frame *gocv.Mat) *engine.HandObservation {
	hands, err := a.config.Detector.Detect(frame)
	if err != nil {
		a.errLog.Warn().Err(err).Msg("hand detection failed")
		return nil
	}

	hand := detector.PrimaryHand(hands)
	if hand == nil {
		return nil
	}

	obs := hand.Observe(a.config.Engine.FrameWidth, a.config.Engine.FrameHeight)
	return &obs
}

func (a *App) tickFPS(l *loop, now time.Time) {
	if !l.lastFrame.IsZero() {
		if dt := now.Sub(l.lastFrame).Seconds(); dt > 0 {
			inst := 1 / dt
			a.mu.Lock()
			if a.fps == 0 {
				a.fps = inst
			} else {
				a.fps += (inst - a.fps) * fpsSmoothing
			}
			a.mu.Unlock()
		}
	}
	l.lastFrame = now
}

// handleEvent receives engine events on the frame loop.
func (a *App) handleEvent(ev engine.Event) {
	n := a.config.Notifier

	switch ev.Kind {
	case engine.EventAnalogStep:
		metrics.RecordAnalogStep(ev.Mode.String(), ev.Detail)
		return

	case engine.EventModeEnter:
		if n != nil {
			n.SetMode(ev.Mode.String())
		}

	case engine.EventModeExit:
		if n != nil {
			n.SetMode(engine.ModeNone.String())
		}

	case engine.EventLeftClick, engine.EventRightClick, engine.EventScreenshot:
		action := string(ev.Kind)
		metrics.RecordAction(action)

		a.mu.Lock()
		a.lastAction = action
		a.mu.Unlock()

		if n != nil {
			n.SetLastAction(action)
			if ev.Kind == engine.EventScreenshot {
				go n.ShowNotice(screenshotMessage, NoticeDuration)
			}
		}

	case engine.EventSinkError:
		metrics.RecordSinkError(ev.Detail)
		if l := a.loop; l != nil {
			if last, ok := l.lastSinkErr[ev.Detail]; ok && ev.Time.Sub(last) < sinkErrorStoreInterval {
				return
			}
			l.lastSinkErr[ev.Detail] = ev.Time
		}
	}

	a.record(ev)
}

func (a *App) record(ev engine.Event) {
	if a.config.Store == nil {
		return
	}

	err := a.config.Store.Events().Create(&store.Event{
		Kind:      string(ev.Kind),
		Mode:      ev.Mode.String(),
		Fingers:   ev.Fingers.String(),
		Detail:    ev.Detail,
		Value:     ev.Value,
		CreatedAt: ev.Time,
	})
	if err != nil {
		a.errLog.Warn().Err(err).Str("kind", string(ev.Kind)).Msg("failed to store event")
	}
}

func (a *App) pruneEvents() {
	if a.config.Store == nil || a.config.Retention <= 0 {
		return
	}

	n, err := a.config.Store.Events().Prune(time.Now().Add(-a.config.Retention))
	if err != nil {
		a.logger.Warn().Err(err).Msg("failed to prune events")
		return
	}
	if n > 0 {
		a.logger.Info().Int64("removed", n).Msg("pruned old events")
	}
}
