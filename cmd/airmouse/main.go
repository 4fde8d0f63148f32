package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"os"
	"os/exec"
	"os/signal"
	"path/filepath"
	"runtime"
	"syscall"

	"github.com/rs/zerolog/log"

	"github.com/ayusman/airmouse/internal/app"
	"github.com/ayusman/airmouse/internal/capture"
	"github.com/ayusman/airmouse/internal/config"
	"github.com/ayusman/airmouse/internal/detector"
	"github.com/ayusman/airmouse/internal/logging"
	"github.com/ayusman/airmouse/internal/metrics"
	"github.com/ayusman/airmouse/internal/plugin"
	"github.com/ayusman/airmouse/internal/server"
	"github.com/ayusman/airmouse/internal/sink"
	"github.com/ayusman/airmouse/internal/store"
	"github.com/ayusman/airmouse/internal/tray"
)

// Used when no display could be probed and no override is configured.
const (
	fallbackScreenWidth  = 1920
	fallbackScreenHeight = 1080
)

func main() {
	configPath := flag.String("config", defaultConfigPath(), "path to the TOML config file")
	flag.Parse()

	if err := run(*configPath); err != nil {
		fmt.Fprintf(os.Stderr, "airmouse: %v\n", err)
		os.Exit(1)
	}
}

func run(configPath string) error {
	// Early logger so config warnings are formatted.
	if _, err := logging.Configure(logging.Options{}); err != nil {
		return err
	}

	cfg, err := config.Load(configPath)
	if err != nil {
		return err
	}
	if _, err := logging.Configure(logging.Options{Level: cfg.Log.Level, NoColor: cfg.Log.NoColor}); err != nil {
		return err
	}
	metrics.Register()

	log.Info().Str("config", configPath).Msg("airmouse starting")

	st, err := store.New(cfg.Store.Path)
	if err != nil {
		return fmt.Errorf("open store: %w", err)
	}
	defer st.Close()

	plugins := plugin.NewManager(cfg.Plugins.Dir)
	if err := plugins.Discover(); err != nil {
		log.Warn().Err(err).Str("dir", cfg.Plugins.Dir).Msg("plugin discovery failed")
	}

	probe := sink.NewProber(cfg.Sinks.BacklightDir, plugins, plugin.NewExecutor(cfg.Plugins.Timeout)).Probe()
	log.Info().Str("sinks", probe.Report.String()).Msg("sinks probed")

	screenW, screenH := probe.ScreenWidth, probe.ScreenHeight
	if screenW <= 0 || screenH <= 0 {
		log.Warn().
			Int("width", fallbackScreenWidth).
			Int("height", fallbackScreenHeight).
			Msg("no display size detected, using fallback")
		screenW, screenH = fallbackScreenWidth, fallbackScreenHeight
	}

	det, err := detector.NewMediaPipeDetector(cfg.DetectorConfig())
	if err != nil {
		log.Warn().Err(err).Msg("MediaPipe unavailable, hand detection disabled")
		det = nil
	}

	frames := server.NewFrameBuffer()
	appCfg := app.Config{
		Camera:     capture.NewCamera(cfg.CameraConfig()),
		Engine:     cfg.EngineConfig(screenW, screenH),
		Sinks:      probe.Sinks,
		SinkReport: probe.Report,
		Store:      st,
		Frames:     frames,
		FPS:        cfg.Camera.FPS,
		IdleRetry:  cfg.Camera.IdleRetry,
		Retention:  cfg.Store.Retention,
	}
	if det != nil {
		appCfg.Detector = det
	} else {
		appCfg.Detector = detector.NewMockDetector()
	}

	var t *tray.Tray
	if cfg.Tray.Enabled {
		// Created before the app so the loop can report into it.
		t = tray.New(true)
		appCfg.Notifier = t
	}

	a, err := app.New(appCfg)
	if err != nil {
		return err
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	if cfg.Server.Enabled {
		staticDir := cfg.Server.StaticDir
		if staticDir == "" {
			staticDir = findWebDir()
		}
		if staticDir != "" {
			log.Info().Str("dir", staticDir).Msg("serving static files")
		}

		var status server.StatusSource = a
		if t != nil {
			status = trayController{App: a, tray: t}
		}

		srv := server.New(server.Config{
			StaticDir: staticDir,
			Store:     st,
			Status:    status,
			Frames:    frames,
		})
		defer srv.Close()

		go func() {
			log.Info().Str("addr", cfg.Server.Addr).Msg("starting server")
			if err := srv.ListenAndServe(ctx, cfg.Server.Addr); err != nil {
				log.Error().Err(err).Msg("server failed")
				stop()
			}
		}()
	}

	if err := a.Start(); err != nil {
		return err
	}
	defer a.Stop()

	if t == nil {
		<-ctx.Done()
		log.Info().Msg("shutting down")
		return nil
	}

	t.SetEnabled(a.Enabled())
	t.OnToggle(func(enabled bool) {
		if err := a.SetEnabled(enabled); err != nil {
			log.Warn().Err(err).Msg("failed to save enabled flag")
		}
	})
	t.OnQuit(stop)
	if cfg.Server.Enabled {
		url := dashboardURL(cfg.Server.Addr)
		t.OnDashboard(func() {
			if err := openBrowser(url); err != nil {
				log.Warn().Err(err).Str("url", url).Msg("failed to open dashboard")
			}
		})
	}

	go func() {
		<-ctx.Done()
		t.Quit()
	}()

	// systray needs the main goroutine.
	t.Run()
	log.Info().Msg("shutting down")
	return nil
}

// trayController keeps the tray toggle in step with switches made over HTTP.
type trayController struct {
	*app.App
	tray *tray.Tray
}

func (c trayController) SetEnabled(enabled bool) error {
	c.tray.SetEnabled(enabled)
	return c.App.SetEnabled(enabled)
}

// defaultConfigPath returns ~/.airmouse/config.toml when it exists, otherwise
// the empty path, which means defaults and environment only.
func defaultConfigPath() string {
	p := filepath.Join(config.DataDir(), "config.toml")
	if _, err := os.Stat(p); err != nil {
		return ""
	}
	return p
}

func dashboardURL(addr string) string {
	if len(addr) > 0 && addr[0] == ':' {
		addr = "127.0.0.1" + addr
	}
	return "http://" + addr + "/"
}

func openBrowser(url string) error {
	var cmd *exec.Cmd
	switch runtime.GOOS {
	case "darwin":
		cmd = exec.Command("open", url)
	case "windows":
		cmd = exec.Command("rundll32", "url.dll,FileProtocolHandler", url)
	case "linux", "freebsd", "openbsd":
		cmd = exec.Command("xdg-open", url)
	default:
		return errors.New("unsupported platform")
	}
	return cmd.Start()
}

// findWebDir searches for the web directory in common locations.
// It checks: "web", "../web", "../../web", and ~/.airmouse/web.
// Returns the first existing directory or empty string if none found.
func findWebDir() string {
	relativePaths := []string{"web", "../web", "../../web"}
	for _, p := range relativePaths {
		if info, err := os.Stat(p); err == nil && info.IsDir() {
			absPath, err := filepath.Abs(p)
			if err == nil {
				return absPath
			}
			return p
		}
	}

	homeWebDir := filepath.Join(config.DataDir(), "web")
	if info, err := os.Stat(homeWebDir); err == nil && info.IsDir() {
		return homeWebDir
	}

	return ""
}
