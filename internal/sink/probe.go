package sink

import (
	"github.com/rs/zerolog"

	"github.com/ayusman/airmouse/internal/engine"
	"github.com/ayusman/airmouse/internal/logging"
	"github.com/ayusman/airmouse/internal/plugin"
)

// Prober builds the engine's sinks once at startup. Each slot takes the
// first backend that answers its probe; a slot with no working backend is
// logged once and left nil.
type Prober struct {
	BacklightDir string
	Plugins      *plugin.Manager
	Executor     *plugin.Executor
	Logger       zerolog.Logger

	// Constructors, replaceable in tests.
	NewDesktop   func() (*Desktop, error)
	NewVolume    func() (engine.VolumeControl, error)
	NewBacklight func(dir string) (engine.BrightnessControl, error)
}

// Result is the outcome of Probe.
type Result struct {
	Sinks  engine.Sinks
	Report Report
	// ScreenWidth and ScreenHeight are zero when no display was found.
	ScreenWidth  int
	ScreenHeight int
}

// NewProber returns a Prober wired to the real backends.
func NewProber(backlightDir string, plugins *plugin.Manager, exec *plugin.Executor) *Prober {
	return &Prober{
		BacklightDir: backlightDir,
		Plugins:      plugins,
		Executor:     exec,
		Logger:       logging.Component("sink"),
		NewDesktop:   NewDesktop,
		NewVolume: func() (engine.VolumeControl, error) {
			return NewSystemVolume()
		},
		NewBacklight: func(dir string) (engine.BrightnessControl, error) {
			return NewBacklight(dir)
		},
	}
}

// Probe tries every backend. Interface fields of the result are only set
// from successful constructors, so an unavailable slot is a true nil.
func (p *Prober) Probe() Result {
	res := Result{Report: Report{
		SlotPointer:    "",
		SlotScroll:     "",
		SlotVolume:     "",
		SlotBrightness: "",
		SlotScreenshot: "",
	}}

	if d, err := p.NewDesktop(); err == nil {
		res.Sinks.Pointer = d
		res.Sinks.Scroller = d
		res.Sinks.Screenshots = d
		res.ScreenWidth, res.ScreenHeight = d.ScreenSize()
		res.Report[SlotPointer] = "robotgo"
		res.Report[SlotScroll] = "robotgo"
		res.Report[SlotScreenshot] = "robotgo"
	} else {
		p.Logger.Warn().Err(err).Msg("desktop sinks disabled: cursor, clicks, scroll and screenshots are no-ops")
	}

	if v, err := p.NewVolume(); err == nil {
		res.Sinks.Volume = v
		res.Report[SlotVolume] = "system"
	} else if s, perr := p.pluginScalar("volume"); perr == nil {
		res.Sinks.Volume = PluginVolume{s}
		res.Report[SlotVolume] = s.Name()
	} else {
		p.Logger.Warn().Err(err).AnErr("plugin", perr).Msg("volume sink disabled")
	}

	if b, err := p.NewBacklight(p.BacklightDir); err == nil {
		res.Sinks.Brightness = b
		res.Report[SlotBrightness] = "backlight"
	} else if s, perr := p.pluginScalar("brightness"); perr == nil {
		res.Sinks.Brightness = PluginBrightness{s}
		res.Report[SlotBrightness] = s.Name()
	} else {
		p.Logger.Warn().Err(err).AnErr("plugin", perr).Msg("brightness sink disabled")
	}

	p.Logger.Info().Str("sinks", res.Report.String()).Msg("sinks probed")
	return res
}

func (p *Prober) pluginScalar(kind string) (*PluginScalar, error) {
	if p.Plugins == nil || p.Executor == nil {
		return nil, unavailable("plugins disabled")
	}
	return NewPluginScalar(p.Plugins, p.Executor, kind)
}
