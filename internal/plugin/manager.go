package plugin

import (
	"encoding/json"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"sort"
	"sync"

	"github.com/rs/zerolog"

	"github.com/ayusman/airmouse/internal/logging"
)

// ManifestFile is the manifest name inside each plugin directory.
const ManifestFile = "plugin.json"

// ErrPluginNotFound is returned when no plugin serves a request.
var ErrPluginNotFound = errors.New("plugin not found")

// Manager discovers plugins in one directory and looks them up by action.
type Manager struct {
	dir    string
	logger zerolog.Logger

	mu      sync.RWMutex
	plugins map[string]*Plugin
}

// NewManager returns a Manager for dir. Call Discover to load plugins.
func NewManager(dir string) *Manager {
	return &Manager{
		dir:     dir,
		logger:  logging.Component("plugin"),
		plugins: make(map[string]*Plugin),
	}
}

// Discover replaces the known plugins with the subdirectories of the plugin
// directory that hold a valid manifest. A missing plugin directory is not an
// error. Broken plugins are logged and skipped.
func (m *Manager) Discover() error {
	entries, err := os.ReadDir(m.dir)
	if errors.Is(err, fs.ErrNotExist) {
		m.replace(nil)
		return nil
	}
	if err != nil {
		return fmt.Errorf("read plugin dir: %w", err)
	}

	found := make(map[string]*Plugin)
	for _, entry := range entries {
		if !entry.IsDir() {
			continue
		}

		p, err := loadPlugin(filepath.Join(m.dir, entry.Name()))
		if errors.Is(err, fs.ErrNotExist) {
			continue
		}
		if err != nil {
			m.logger.Warn().Err(err).Str("dir", entry.Name()).Msg("skipping plugin")
			continue
		}
		if _, dup := found[p.Manifest.Name]; dup {
			m.logger.Warn().Str("plugin", p.Manifest.Name).Msg("duplicate plugin name, keeping first")
			continue
		}

		found[p.Manifest.Name] = p
		m.logger.Debug().
			Str("plugin", p.Manifest.Name).
			Strs("actions", p.Manifest.Actions).
			Msg("plugin discovered")
	}

	m.replace(found)
	return nil
}

func (m *Manager) replace(plugins map[string]*Plugin) {
	if plugins == nil {
		plugins = make(map[string]*Plugin)
	}
	m.mu.Lock()
	m.plugins = plugins
	m.mu.Unlock()
}

// loadPlugin reads and checks the manifest in dir. It returns an error
// wrapping fs.ErrNotExist when dir has no manifest.
func loadPlugin(dir string) (*Plugin, error) {
	data, err := os.ReadFile(filepath.Join(dir, ManifestFile))
	if err != nil {
		return nil, err
	}

	var manifest Manifest
	if err := json.Unmarshal(data, &manifest); err != nil {
		return nil, fmt.Errorf("parse manifest: %w", err)
	}
	switch {
	case manifest.Name == "":
		return nil, errors.New("manifest has no name")
	case manifest.Executable == "":
		return nil, errors.New("manifest has no executable")
	case len(manifest.Actions) == 0:
		return nil, errors.New("manifest lists no actions")
	}

	return &Plugin{
		Manifest:   manifest,
		Path:       dir,
		Executable: filepath.Join(dir, manifest.Executable),
	}, nil
}

// FindByAction returns the first plugin, by name, whose manifest lists every
// one of actions. Returns ErrPluginNotFound when none does.
func (m *Manager) FindByAction(actions ...string) (*Plugin, error) {
	for _, p := range m.List() {
		ok := true
		for _, a := range actions {
			if !p.Supports(a) {
				ok = false
				break
			}
		}
		if ok {
			return p, nil
		}
	}
	return nil, fmt.Errorf("%w: no plugin supports %v", ErrPluginNotFound, actions)
}

// List returns all discovered plugins sorted by name.
func (m *Manager) List() []*Plugin {
	m.mu.RLock()
	defer m.mu.RUnlock()

	plugins := make([]*Plugin, 0, len(m.plugins))
	for _, p := range m.plugins {
		plugins = append(plugins, p)
	}
	sort.Slice(plugins, func(i, j int) bool {
		return plugins[i].Manifest.Name < plugins[j].Manifest.Name
	})
	return plugins
}
