package plugin

import (
	"encoding/json"
	"errors"
	"os"
	"path/filepath"
	"testing"
)

// writeManifest creates dir/name/plugin.json holding m, or raw when set.
func writeManifest(t *testing.T, dir, name string, m Manifest, raw string) string {
	t.Helper()
	pluginDir := filepath.Join(dir, name)
	if err := os.MkdirAll(pluginDir, 0755); err != nil {
		t.Fatalf("create plugin dir: %v", err)
	}

	data := []byte(raw)
	if raw == "" {
		var err error
		if data, err = json.Marshal(m); err != nil {
			t.Fatalf("marshal manifest: %v", err)
		}
	}
	if err := os.WriteFile(filepath.Join(pluginDir, ManifestFile), data, 0644); err != nil {
		t.Fatalf("write manifest: %v", err)
	}
	return pluginDir
}

func TestManager_Discover(t *testing.T) {
	dir := t.TempDir()
	pluginDir := writeManifest(t, dir, "system-control", Manifest{
		Name:        "system-control",
		Version:     "0.2.0",
		Description: "volume and brightness",
		Executable:  "system-control",
		Actions:     []string{"volume-get", "volume-set"},
	}, "")

	m := NewManager(dir)
	if err := m.Discover(); err != nil {
		t.Fatalf("Discover() error = %v", err)
	}

	plugins := m.List()
	if len(plugins) != 1 {
		t.Fatalf("List() returned %d plugins, want 1", len(plugins))
	}

	p := plugins[0]
	if p.Manifest.Name != "system-control" || p.Manifest.Version != "0.2.0" {
		t.Errorf("manifest = %+v", p.Manifest)
	}
	if p.Path != pluginDir {
		t.Errorf("Path = %q, want %q", p.Path, pluginDir)
	}
	if p.Executable != filepath.Join(pluginDir, "system-control") {
		t.Errorf("Executable = %q", p.Executable)
	}
	if !p.Supports("volume-set") || p.Supports("brightness-set") {
		t.Errorf("Supports() disagrees with actions %v", p.Manifest.Actions)
	}
}

func TestManager_Discover_Skips(t *testing.T) {
	tests := []struct {
		name     string
		manifest Manifest
		raw      string
	}{
		{name: "invalid json", raw: "not valid json"},
		{name: "no name", manifest: Manifest{Executable: "x", Actions: []string{"a"}}},
		{name: "no executable", manifest: Manifest{Name: "x", Actions: []string{"a"}}},
		{name: "no actions", manifest: Manifest{Name: "x", Executable: "x"}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			dir := t.TempDir()
			writeManifest(t, dir, "broken", tt.manifest, tt.raw)
			writeManifest(t, dir, "good", Manifest{Name: "good", Executable: "good", Actions: []string{"a"}}, "")

			m := NewManager(dir)
			if err := m.Discover(); err != nil {
				t.Fatalf("Discover() error = %v", err)
			}

			plugins := m.List()
			if len(plugins) != 1 || plugins[0].Manifest.Name != "good" {
				t.Errorf("List() = %v, want only the good plugin", plugins)
			}
		})
	}
}

func TestManager_Discover_Layout(t *testing.T) {
	dir := t.TempDir()

	// A loose file and a directory without a manifest are ignored.
	if err := os.WriteFile(filepath.Join(dir, "README"), []byte("x"), 0644); err != nil {
		t.Fatal(err)
	}
	if err := os.MkdirAll(filepath.Join(dir, "empty"), 0755); err != nil {
		t.Fatal(err)
	}
	// Two directories claiming one name keep the first by directory order.
	writeManifest(t, dir, "a", Manifest{Name: "dup", Executable: "a", Actions: []string{"x"}}, "")
	writeManifest(t, dir, "b", Manifest{Name: "dup", Executable: "b", Actions: []string{"x"}}, "")

	m := NewManager(dir)
	if err := m.Discover(); err != nil {
		t.Fatalf("Discover() error = %v", err)
	}

	plugins := m.List()
	if len(plugins) != 1 {
		t.Fatalf("List() returned %d plugins, want 1", len(plugins))
	}
	if plugins[0].Path != filepath.Join(dir, "a") {
		t.Errorf("kept %q, want the first directory", plugins[0].Path)
	}
}

func TestManager_Discover_MissingDir(t *testing.T) {
	m := NewManager(filepath.Join(t.TempDir(), "does-not-exist"))
	if err := m.Discover(); err != nil {
		t.Fatalf("Discover() error = %v", err)
	}
	if n := len(m.List()); n != 0 {
		t.Errorf("List() returned %d plugins, want 0", n)
	}
}

func TestManager_Discover_Rescan(t *testing.T) {
	dir := t.TempDir()
	pluginDir := writeManifest(t, dir, "p", Manifest{Name: "p", Executable: "p", Actions: []string{"a"}}, "")

	m := NewManager(dir)
	if err := m.Discover(); err != nil {
		t.Fatal(err)
	}
	if err := os.RemoveAll(pluginDir); err != nil {
		t.Fatal(err)
	}
	if err := m.Discover(); err != nil {
		t.Fatal(err)
	}
	if n := len(m.List()); n != 0 {
		t.Errorf("removed plugin still listed, got %d plugins", n)
	}
}

func TestManager_FindByAction(t *testing.T) {
	dir := t.TempDir()
	plugins := map[string][]string{
		"b-volume":     {"volume-get", "volume-set"},
		"a-brightness": {"brightness-get", "brightness-set"},
		"c-both":       {"volume-get", "volume-set", "brightness-get", "brightness-set"},
	}
	for name, actions := range plugins {
		writeManifest(t, dir, name, Manifest{Name: name, Executable: name, Actions: actions}, "")
	}

	m := NewManager(dir)
	if err := m.Discover(); err != nil {
		t.Fatalf("Discover() error = %v", err)
	}

	tests := []struct {
		name    string
		actions []string
		want    string
		wantErr error
	}{
		{name: "volume", actions: []string{"volume-get", "volume-set"}, want: "b-volume"},
		{name: "brightness", actions: []string{"brightness-get", "brightness-set"}, want: "a-brightness"},
		{name: "mixed", actions: []string{"volume-get", "brightness-set"}, want: "c-both"},
		{name: "unknown", actions: []string{"keystroke"}, wantErr: ErrPluginNotFound},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			p, err := m.FindByAction(tt.actions...)
			if tt.wantErr != nil {
				if !errors.Is(err, tt.wantErr) {
					t.Errorf("FindByAction() error = %v, want %v", err, tt.wantErr)
				}
				return
			}
			if err != nil {
				t.Fatalf("FindByAction() error = %v", err)
			}
			if p.Manifest.Name != tt.want {
				t.Errorf("FindByAction() = %q, want %q", p.Manifest.Name, tt.want)
			}
		})
	}
}
