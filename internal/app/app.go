// Package app runs the airmouse frame loop: camera, detector, engine and the
// feedback, event and status side channels around them.
package app

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/rs/zerolog"

	"github.com/ayusman/airmouse/internal/capture"
	"github.com/ayusman/airmouse/internal/detector"
	"github.com/ayusman/airmouse/internal/engine"
	"github.com/ayusman/airmouse/internal/logging"
	"github.com/ayusman/airmouse/internal/server"
	"github.com/ayusman/airmouse/internal/sink"
	"github.com/ayusman/airmouse/internal/store"
)

// Loop timing defaults.
const (
	DefaultIdleRetry  = 100 * time.Millisecond
	NoticeDuration    = 2 * time.Second
	fpsSmoothing      = 0.1
	stopTimeout       = 5 * time.Second
	screenshotMessage = "Screenshot saved"
)

// ErrAlreadyRunning is returned by Start when the loop is already running.
var ErrAlreadyRunning = errors.New("app already running")

// Notifier shows loop activity to the user. The tray implements it.
type Notifier interface {
	SetMode(mode string)
	SetLastAction(name string)
	ShowNotice(text string, d time.Duration)
}

// Config holds the collaborators and settings of the frame loop.
type Config struct {
	Camera   capture.Camera
	Detector detector.Detector
	Engine   engine.Config
	Sinks    engine.Sinks
	// SinkReport describes which backend serves each sink slot.
	SinkReport sink.Report

	// Optional side channels.
	Store    *store.Store
	Frames   *server.FrameBuffer
	Notifier Notifier

	// FPS caps the loop rate. Zero uses the camera default.
	FPS int
	// IdleRetry is the pause after a failed frame read.
	IdleRetry time.Duration
	// Retention prunes stored events older than this at startup. Zero keeps
	// everything.
	Retention time.Duration

	// EngineOptions are passed to engine.New after the app's own options.
	EngineOptions []engine.Option
}

// App is the main application that turns camera frames into OS actions.
type App struct {
	config Config
	engine *engine.Engine
	logger zerolog.Logger
	errLog zerolog.Logger

	// loop is owned by the Run goroutine.
	loop *loop

	mu         sync.RWMutex
	enabled    bool
	state      engine.State
	fps        float64
	lastAction string
	cancel     context.CancelFunc
	done       chan struct{}
}

// New validates cfg, builds the engine and restores the persisted enabled
// flag.
func New(cfg Config) (*App, error) {
	if cfg.Camera == nil {
		return nil, errors.New("app: camera is required")
	}
	if cfg.Detector == nil {
		return nil, errors.New("app: detector is required")
	}
	if cfg.FPS <= 0 {
		cfg.FPS = capture.DefaultFPS
	}
	if cfg.IdleRetry <= 0 {
		cfg.IdleRetry = DefaultIdleRetry
	}

	a := &App{
		config:  cfg,
		logger:  logging.Component("app"),
		enabled: true,
	}
	a.errLog = a.logger.Sample(&zerolog.BurstSampler{Burst: 3, Period: 10 * time.Second})

	opts := append([]engine.Option{engine.WithEventListener(a.handleEvent)}, cfg.EngineOptions...)
	eng, err := engine.New(cfg.Engine, cfg.Sinks, opts...)
	if err != nil {
		return nil, err
	}
	a.engine = eng
	a.state = eng.State()

	if cfg.Store != nil {
		enabled, err := cfg.Store.Settings().GetBool(store.SettingEnabled, true)
		if err != nil {
			a.logger.Warn().Err(err).Msg("ignoring stored enabled flag")
		}
		a.enabled = enabled
	}

	return a, nil
}

// Engine returns the gesture engine. Only the frame loop may call Process.
func (a *App) Engine() *engine.Engine {
	return a.engine
}

// SetEnabled turns gesture control on or off and persists the choice.
func (a *App) SetEnabled(enabled bool) error {
	a.mu.Lock()
	a.enabled = enabled
	a.mu.Unlock()

	a.logger.Info().Bool("enabled", enabled).Msg("gesture control toggled")

	if a.config.Store == nil {
		return nil
	}
	if err := a.config.Store.Settings().SetBool(store.SettingEnabled, enabled); err != nil {
		return fmt.Errorf("persist enabled flag: %w", err)
	}
	return nil
}

// Enabled reports whether gesture control is on.
func (a *App) Enabled() bool {
	a.mu.RLock()
	defer a.mu.RUnlock()
	return a.enabled
}

// Status returns a snapshot for the HTTP status endpoints.
func (a *App) Status() server.Status {
	a.mu.RLock()
	defer a.mu.RUnlock()

	return server.Status{
		Enabled:    a.enabled,
		FPS:        a.fps,
		Engine:     a.state,
		LastAction: a.lastAction,
		Sinks:      a.config.SinkReport,
		Time:       time.Now(),
	}
}

// Start runs the frame loop in a new goroutine.
func (a *App) Start() error {
	a.mu.Lock()
	defer a.mu.Unlock()

	if a.cancel != nil {
		return ErrAlreadyRunning
	}

	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan struct{})
	a.cancel = cancel
	a.done = done

	go func() {
		defer close(done)
		if err := a.Run(ctx); err != nil && !errors.Is(err, context.Canceled) {
			a.logger.Error().Err(err).Msg("frame loop stopped")
		}
	}()

	return nil
}

// Stop cancels a loop started with Start and waits for it to release the
// camera.
func (a *App) Stop() {
	a.mu.Lock()
	cancel, done := a.cancel, a.done
	a.cancel, a.done = nil, nil
	a.mu.Unlock()

	if cancel == nil {
		return
	}
	cancel()

	select {
	case <-done:
	case <-time.After(stopTimeout):
		a.logger.Warn().Msg("frame loop did not stop in time")
	}
}
