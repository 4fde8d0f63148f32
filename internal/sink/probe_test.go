package sink

import (
	"encoding/json"
	"errors"
	"os"
	"path/filepath"
	"runtime"
	"testing"
	"time"

	"github.com/ayusman/airmouse/internal/engine"
	"github.com/ayusman/airmouse/internal/plugin"
	"github.com/rs/zerolog"
)

type stubVolume struct{ v float64 }

func (s *stubVolume) Volume() (float64, error)  { return s.v, nil }
func (s *stubVolume) SetVolume(v float64) error { s.v = v; return nil }

// writeLevelPlugin installs a shell plugin under dir that answers
// <kind>-get with level and accepts <kind>-set.
func writeLevelPlugin(t *testing.T, dir, kind string, level float64) {
	t.Helper()
	if runtime.GOOS == "windows" {
		t.Skip("skipping test on Windows")
	}

	name := kind + "-plugin"
	pluginDir := filepath.Join(dir, name)
	if err := os.MkdirAll(pluginDir, 0755); err != nil {
		t.Fatalf("failed to create plugin dir: %v", err)
	}

	manifest, err := json.Marshal(plugin.Manifest{
		Name:       name,
		Executable: "run.sh",
		Actions:    []string{kind + "-get", kind + "-set"},
	})
	if err != nil {
		t.Fatalf("failed to marshal manifest: %v", err)
	}
	if err := os.WriteFile(filepath.Join(pluginDir, "plugin.json"), manifest, 0644); err != nil {
		t.Fatalf("failed to write manifest: %v", err)
	}

	data, _ := json.Marshal(plugin.Level{Level: level})
	script := "#!/bin/sh\ncat >/dev/null\necho '{\"success\":true,\"data\":" + string(data) + "}'\n"
	if err := os.WriteFile(filepath.Join(pluginDir, "run.sh"), []byte(script), 0755); err != nil {
		t.Fatalf("failed to write script: %v", err)
	}
}

func testProber(t *testing.T, pluginDir string) *Prober {
	t.Helper()

	mgr := plugin.NewManager(pluginDir)
	if err := mgr.Discover(); err != nil {
		t.Fatalf("Discover() error = %v", err)
	}

	return &Prober{
		Plugins:  mgr,
		Executor: plugin.NewExecutor(5 * time.Second),
		Logger:   zerolog.Nop(),
		NewDesktop: func() (*Desktop, error) {
			return &Desktop{width: 1920, height: 1080}, nil
		},
		NewVolume: func() (engine.VolumeControl, error) {
			return nil, unavailable("test")
		},
		NewBacklight: func(string) (engine.BrightnessControl, error) {
			return nil, unavailable("test")
		},
	}
}

func TestProber_NothingAvailable(t *testing.T) {
	p := testProber(t, filepath.Join(t.TempDir(), "none"))
	p.NewDesktop = func() (*Desktop, error) { return nil, unavailable("headless") }

	res := p.Probe()

	s := res.Sinks
	if s.Pointer != nil || s.Scroller != nil || s.Volume != nil || s.Brightness != nil || s.Screenshots != nil {
		t.Errorf("sinks = %+v, want all nil", s)
	}
	if res.ScreenWidth != 0 || res.ScreenHeight != 0 {
		t.Errorf("screen = %dx%d, want 0x0", res.ScreenWidth, res.ScreenHeight)
	}
	for _, slot := range []string{SlotPointer, SlotScroll, SlotVolume, SlotBrightness, SlotScreenshot} {
		if res.Report.Available(slot) {
			t.Errorf("slot %s reported available", slot)
		}
	}
}

func TestProber_NativeBackends(t *testing.T) {
	p := testProber(t, t.TempDir())
	vol := &stubVolume{v: 0.3}
	p.NewVolume = func() (engine.VolumeControl, error) { return vol, nil }

	res := p.Probe()

	if res.Sinks.Pointer == nil || res.Sinks.Scroller == nil || res.Sinks.Screenshots == nil {
		t.Error("desktop slots not wired")
	}
	if res.ScreenWidth != 1920 || res.ScreenHeight != 1080 {
		t.Errorf("screen = %dx%d, want 1920x1080", res.ScreenWidth, res.ScreenHeight)
	}
	if res.Sinks.Volume != vol {
		t.Errorf("volume sink = %v, want native stub", res.Sinks.Volume)
	}
	if res.Report[SlotVolume] != "system" {
		t.Errorf("volume backend = %q, want system", res.Report[SlotVolume])
	}
	if res.Sinks.Brightness != nil {
		t.Error("brightness sink set without a backend")
	}
}

func TestProber_PluginFallback(t *testing.T) {
	dir := t.TempDir()
	writeLevelPlugin(t, dir, "brightness", 70)

	res := testProber(t, dir).Probe()

	if res.Report[SlotBrightness] != "plugin:brightness-plugin" {
		t.Fatalf("brightness backend = %q, want plugin", res.Report[SlotBrightness])
	}
	got, err := res.Sinks.Brightness.Brightness()
	if err != nil {
		t.Fatalf("Brightness() error = %v", err)
	}
	if got != 70 {
		t.Errorf("Brightness() = %d, want 70", got)
	}
	if err := res.Sinks.Brightness.SetBrightness(40); err != nil {
		t.Errorf("SetBrightness() error = %v", err)
	}
	if res.Sinks.Volume != nil {
		t.Error("volume sink set without a backend")
	}
}

func TestNewPluginScalar_NoPlugin(t *testing.T) {
	mgr := plugin.NewManager(t.TempDir())
	_, err := NewPluginScalar(mgr, plugin.NewExecutor(time.Second), "volume")
	if !errors.Is(err, ErrUnavailable) {
		t.Errorf("NewPluginScalar() error = %v, want ErrUnavailable", err)
	}
}

func TestReport_String(t *testing.T) {
	r := Report{SlotVolume: "system", SlotBrightness: ""}
	if got, want := r.String(), "brightness=none volume=system"; got != want {
		t.Errorf("String() = %q, want %q", got, want)
	}
}
