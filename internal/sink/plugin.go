package sink

import (
	"context"
	"fmt"
	"math"

	"github.com/ayusman/airmouse/internal/plugin"
)

// PluginScalar reads and writes one OS scalar through a plugin's
// "<kind>-get" and "<kind>-set" actions.
type PluginScalar struct {
	exec   *plugin.Executor
	plugin *plugin.Plugin
	kind   string
}

// NewPluginScalar finds a plugin implementing both actions for kind and
// probes it with one get.
func NewPluginScalar(mgr *plugin.Manager, exec *plugin.Executor, kind string) (*PluginScalar, error) {
	p, err := mgr.FindByAction(kind+"-get", kind+"-set")
	if err != nil {
		return nil, unavailable("no plugin for %s: %v", kind, err)
	}

	s := &PluginScalar{exec: exec, plugin: p, kind: kind}
	if _, err := s.get(); err != nil {
		return nil, unavailable("plugin %s: %v", p.Manifest.Name, err)
	}
	return s, nil
}

// Name identifies the backing plugin.
func (s *PluginScalar) Name() string {
	return "plugin:" + s.plugin.Manifest.Name
}

func (s *PluginScalar) get() (float64, error) {
	var out plugin.Level
	if err := s.exec.Call(context.Background(), s.plugin, s.kind+"-get", nil, &out); err != nil {
		return 0, err
	}
	return out.Level, nil
}

func (s *PluginScalar) set(v float64) error {
	return s.exec.Call(context.Background(), s.plugin, s.kind+"-set", plugin.Level{Level: v}, nil)
}

// PluginVolume adapts a PluginScalar to engine.VolumeControl.
type PluginVolume struct{ *PluginScalar }

func (p PluginVolume) Volume() (float64, error) {
	v, err := p.get()
	if err != nil {
		return 0, fmt.Errorf("get volume: %w", err)
	}
	return v, nil
}

func (p PluginVolume) SetVolume(v float64) error {
	if err := p.set(v); err != nil {
		return fmt.Errorf("set volume: %w", err)
	}
	return nil
}

// PluginBrightness adapts a PluginScalar to engine.BrightnessControl.
type PluginBrightness struct{ *PluginScalar }

func (p PluginBrightness) Brightness() (int, error) {
	v, err := p.get()
	if err != nil {
		return 0, fmt.Errorf("get brightness: %w", err)
	}
	return int(math.Round(v)), nil
}

func (p PluginBrightness) SetBrightness(percent int) error {
	if err := p.set(float64(percent)); err != nil {
		return fmt.Errorf("set brightness: %w", err)
	}
	return nil
}
