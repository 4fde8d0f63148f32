// Package config loads airmouse settings from an optional TOML file and
// AIRMOUSE_* environment variables.
package config

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/BurntSushi/toml"
	"github.com/caarlos0/env/v11"
	"github.com/rs/zerolog/log"

	"github.com/ayusman/airmouse/internal/capture"
	"github.com/ayusman/airmouse/internal/detector"
	"github.com/ayusman/airmouse/internal/engine"
	"github.com/ayusman/airmouse/internal/plugin"
)

// EnvPrefix is prepended to every environment variable name.
const EnvPrefix = "AIRMOUSE_"

// ErrInvalid wraps every validation failure.
var ErrInvalid = errors.New("invalid config")

type Camera struct {
	Device    int           `toml:"device" env:"DEVICE"`
	Width     int           `toml:"width" env:"WIDTH"`
	Height    int           `toml:"height" env:"HEIGHT"`
	FPS       int           `toml:"fps" env:"FPS"`
	IdleRetry time.Duration `toml:"idle_retry" env:"IDLE_RETRY"`
}

type Detector struct {
	Script          string        `toml:"script" env:"SCRIPT"`
	MinConfidence   float64       `toml:"min_confidence" env:"MIN_CONFIDENCE"`
	MinTrackingConf float64       `toml:"min_tracking_confidence" env:"MIN_TRACKING_CONFIDENCE"`
	IdleTimeout     time.Duration `toml:"idle_timeout" env:"IDLE_TIMEOUT"`
}

type Engine struct {
	Margin         int           `toml:"margin" env:"MARGIN"`
	Smoothing      float64       `toml:"smoothing" env:"SMOOTHING"`
	Threshold      float64       `toml:"threshold" env:"THRESHOLD"`
	VolumeStep     float64       `toml:"volume_step" env:"VOLUME_STEP"`
	BrightnessStep int           `toml:"brightness_step" env:"BRIGHTNESS_STEP"`
	ScrollAmount   int           `toml:"scroll_amount" env:"SCROLL_AMOUNT"`
	ClickInterval  time.Duration `toml:"click_interval" env:"CLICK_INTERVAL"`
	ScreenshotDir  string        `toml:"screenshot_dir" env:"SCREENSHOT_DIR"`
	// ScreenWidth and ScreenHeight override the probed display size. Zero
	// means use the probe.
	ScreenWidth  int `toml:"screen_width" env:"SCREEN_WIDTH"`
	ScreenHeight int `toml:"screen_height" env:"SCREEN_HEIGHT"`
}

type Server struct {
	Enabled   bool   `toml:"enabled" env:"ENABLED"`
	Addr      string `toml:"addr" env:"ADDR"`
	StaticDir string `toml:"static_dir" env:"STATIC_DIR"`
}

type Store struct {
	Path      string        `toml:"path" env:"PATH"`
	Retention time.Duration `toml:"retention" env:"RETENTION"`
}

type Log struct {
	Level   string `toml:"level" env:"LEVEL"`
	NoColor bool   `toml:"no_color" env:"NO_COLOR"`
}

type Tray struct {
	Enabled bool `toml:"enabled" env:"ENABLED"`
}

type Plugins struct {
	Dir     string        `toml:"dir" env:"DIR"`
	Timeout time.Duration `toml:"timeout" env:"TIMEOUT"`
}

type Sinks struct {
	BacklightDir string `toml:"backlight_dir" env:"BACKLIGHT_DIR"`
}

// Config is the full application configuration.
type Config struct {
	Camera   Camera   `toml:"camera" envPrefix:"CAMERA_"`
	Detector Detector `toml:"detector" envPrefix:"DETECTOR_"`
	Engine   Engine   `toml:"engine" envPrefix:"ENGINE_"`
	Server   Server   `toml:"server" envPrefix:"SERVER_"`
	Store    Store    `toml:"store" envPrefix:"STORE_"`
	Log      Log      `toml:"log" envPrefix:"LOG_"`
	Tray     Tray     `toml:"tray" envPrefix:"TRAY_"`
	Plugins  Plugins  `toml:"plugins" envPrefix:"PLUGINS_"`
	Sinks    Sinks    `toml:"sinks" envPrefix:"SINKS_"`
}

// DataDir returns ~/.airmouse, or .airmouse when the home directory is
// unknown.
func DataDir() string {
	home, err := os.UserHomeDir()
	if err != nil {
		return ".airmouse"
	}
	return filepath.Join(home, ".airmouse")
}

// Default returns the stock configuration.
func Default() Config {
	data := DataDir()
	cam := capture.DefaultConfig()
	det := detector.DefaultConfig()
	eng := engine.DefaultConfig()

	return Config{
		Camera: Camera{
			Device:    cam.DeviceID,
			Width:     cam.Width,
			Height:    cam.Height,
			FPS:       cam.FPS,
			IdleRetry: 100 * time.Millisecond,
		},
		Detector: Detector{
			MinConfidence:   det.MinConfidence,
			MinTrackingConf: det.MinTrackingConf,
			IdleTimeout:     det.IdleTimeout,
		},
		Engine: Engine{
			Margin:         eng.FrameMargin,
			Smoothing:      eng.Smoothing,
			Threshold:      eng.Threshold,
			VolumeStep:     eng.VolumeStep,
			BrightnessStep: eng.BrightnessStep,
			ScrollAmount:   eng.ScrollAmount,
			ClickInterval:  eng.ClickInterval,
			ScreenshotDir:  filepath.Join(data, "screenshots"),
		},
		Server: Server{
			Enabled: true,
			Addr:    "127.0.0.1:8080",
		},
		Store: Store{
			Path:      filepath.Join(data, "airmouse.db"),
			Retention: 7 * 24 * time.Hour,
		},
		Log: Log{
			Level: "info",
		},
		Tray: Tray{
			Enabled: true,
		},
		Plugins: Plugins{
			Dir:     filepath.Join(data, "plugins"),
			Timeout: plugin.DefaultTimeout,
		},
		Sinks: Sinks{
			BacklightDir: "/sys/class/backlight",
		},
	}
}

// Load starts from Default, applies the TOML file at path when path is not
// empty, then applies environment overrides and validates the result.
func Load(path string) (Config, error) {
	cfg := Default()

	if path != "" {
		meta, err := toml.DecodeFile(path, &cfg)
		if err != nil {
			return Config{}, fmt.Errorf("load config %s: %w", path, err)
		}
		if undecoded := meta.Undecoded(); len(undecoded) > 0 {
			keys := make([]string, len(undecoded))
			for i, k := range undecoded {
				keys[i] = k.String()
			}
			log.Warn().Str("path", path).Strs("keys", keys).Msg("unknown config keys ignored")
		}
	}

	if err := env.ParseWithOptions(&cfg, env.Options{Prefix: EnvPrefix}); err != nil {
		return Config{}, fmt.Errorf("parse env: %w", err)
	}

	cfg.Engine.ScreenshotDir = expandHome(cfg.Engine.ScreenshotDir)
	cfg.Store.Path = expandHome(cfg.Store.Path)
	cfg.Plugins.Dir = expandHome(cfg.Plugins.Dir)

	if err := cfg.Validate(); err != nil {
		return Config{}, err
	}
	return cfg, nil
}

// Validate checks settings that are not covered by engine.Config.Validate.
func (c Config) Validate() error {
	switch {
	case c.Camera.Width <= 0 || c.Camera.Height <= 0:
		return fmt.Errorf("%w: camera size %dx%d", ErrInvalid, c.Camera.Width, c.Camera.Height)
	case c.Camera.FPS <= 0:
		return fmt.Errorf("%w: camera fps %d must be positive", ErrInvalid, c.Camera.FPS)
	case c.Camera.IdleRetry <= 0:
		return fmt.Errorf("%w: camera idle_retry %s must be positive", ErrInvalid, c.Camera.IdleRetry)
	case c.Detector.MinConfidence < 0 || c.Detector.MinConfidence > 1:
		return fmt.Errorf("%w: detector min_confidence %.2f outside [0, 1]", ErrInvalid, c.Detector.MinConfidence)
	case c.Detector.MinTrackingConf < 0 || c.Detector.MinTrackingConf > 1:
		return fmt.Errorf("%w: detector min_tracking_confidence %.2f outside [0, 1]", ErrInvalid, c.Detector.MinTrackingConf)
	case c.Engine.ScreenWidth < 0 || c.Engine.ScreenHeight < 0:
		return fmt.Errorf("%w: screen override %dx%d", ErrInvalid, c.Engine.ScreenWidth, c.Engine.ScreenHeight)
	case c.Engine.ScreenshotDir == "":
		return fmt.Errorf("%w: engine screenshot_dir is empty", ErrInvalid)
	case c.Store.Path == "":
		return fmt.Errorf("%w: store path is empty", ErrInvalid)
	case c.Store.Retention < 0:
		return fmt.Errorf("%w: store retention %s is negative", ErrInvalid, c.Store.Retention)
	case c.Server.Enabled && c.Server.Addr == "":
		return fmt.Errorf("%w: server addr is empty", ErrInvalid)
	case c.Plugins.Timeout <= 0:
		return fmt.Errorf("%w: plugins timeout %s must be positive", ErrInvalid, c.Plugins.Timeout)
	}

	// Engine tuning is checked against a placeholder screen; the real size
	// is only known after probing.
	if err := c.EngineConfig(1, 1).Validate(); err != nil {
		return fmt.Errorf("%w: %w", ErrInvalid, err)
	}
	return nil
}

// EngineConfig builds the engine configuration for a screen of the given
// size. Non-zero screen overrides win over the probed size.
func (c Config) EngineConfig(screenW, screenH int) engine.Config {
	if c.Engine.ScreenWidth > 0 {
		screenW = c.Engine.ScreenWidth
	}
	if c.Engine.ScreenHeight > 0 {
		screenH = c.Engine.ScreenHeight
	}

	return engine.Config{
		FrameWidth:     c.Camera.Width,
		FrameHeight:    c.Camera.Height,
		FrameMargin:    c.Engine.Margin,
		ScreenWidth:    screenW,
		ScreenHeight:   screenH,
		Smoothing:      c.Engine.Smoothing,
		Threshold:      c.Engine.Threshold,
		VolumeStep:     c.Engine.VolumeStep,
		BrightnessStep: c.Engine.BrightnessStep,
		ScrollAmount:   c.Engine.ScrollAmount,
		ClickInterval:  c.Engine.ClickInterval,
		ScreenshotDir:  c.Engine.ScreenshotDir,
	}
}

// CameraConfig returns the capture settings.
func (c Config) CameraConfig() capture.Config {
	return capture.Config{
		DeviceID: c.Camera.Device,
		Width:    c.Camera.Width,
		Height:   c.Camera.Height,
		FPS:      c.Camera.FPS,
	}
}

// DetectorConfig returns the detector settings.
func (c Config) DetectorConfig() detector.Config {
	cfg := detector.DefaultConfig()
	cfg.ScriptPath = expandHome(c.Detector.Script)
	cfg.MinConfidence = c.Detector.MinConfidence
	cfg.MinTrackingConf = c.Detector.MinTrackingConf
	cfg.IdleTimeout = c.Detector.IdleTimeout
	return cfg
}

func expandHome(p string) string {
	if p != "~" && !strings.HasPrefix(p, "~/") {
		return p
	}
	home, err := os.UserHomeDir()
	if err != nil {
		return p
	}
	return filepath.Join(home, strings.TrimPrefix(p, "~"))
}
