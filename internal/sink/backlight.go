package sink

import (
	"fmt"
	"math"
	"os"
	"path/filepath"
	"sort"
	"strconv"
	"strings"
)

// DefaultBacklightDir is where Linux exposes backlight devices.
const DefaultBacklightDir = "/sys/class/backlight"

// Backlight drives a sysfs backlight device as a percent of its
// max_brightness.
type Backlight struct {
	device string
	max    int
}

// NewBacklight opens the first device under dir, by name, that exposes a
// positive max_brightness and a writable brightness file.
func NewBacklight(dir string) (*Backlight, error) {
	if dir == "" {
		dir = DefaultBacklightDir
	}

	entries, err := os.ReadDir(dir)
	if err != nil {
		return nil, unavailable("backlight: %v", err)
	}

	names := make([]string, 0, len(entries))
	for _, e := range entries {
		names = append(names, e.Name())
	}
	sort.Strings(names)

	for _, name := range names {
		device := filepath.Join(dir, name)
		maxRaw, err := readInt(filepath.Join(device, "max_brightness"))
		if err != nil || maxRaw <= 0 {
			continue
		}
		f, err := os.OpenFile(filepath.Join(device, "brightness"), os.O_WRONLY, 0)
		if err != nil {
			continue
		}
		f.Close()
		return &Backlight{device: device, max: maxRaw}, nil
	}

	return nil, unavailable("no writable backlight device in %s", dir)
}

// Device returns the sysfs directory of the controlled device.
func (b *Backlight) Device() string {
	return b.device
}

func (b *Backlight) Brightness() (int, error) {
	raw, err := readInt(filepath.Join(b.device, "brightness"))
	if err != nil {
		return 0, err
	}
	return b.percent(raw), nil
}

// SetBrightness writes the raw level closest to percent. On devices with
// fewer than 100 levels a change that rounds back to the current level moves
// one level instead, so repeated steps always make progress.
func (b *Backlight) SetBrightness(percent int) error {
	if percent < 0 || percent > 100 {
		return fmt.Errorf("brightness %d%% outside [0, 100]", percent)
	}
	path := filepath.Join(b.device, "brightness")

	toRaw := func(p float64) int { return int(math.Round(p * float64(b.max) / 100)) }
	raw := toRaw(float64(percent))
	if cur, err := readInt(path); err == nil {
		raw = stepRaw(float64(percent), float64(b.percent(cur)), cur, b.max, toRaw)
	}

	if err := os.WriteFile(path, []byte(strconv.Itoa(raw)), 0); err != nil {
		return fmt.Errorf("write %s: %w", path, err)
	}
	return nil
}

func (b *Backlight) percent(raw int) int {
	return int(math.Round(float64(raw) * 100 / float64(b.max)))
}

func readInt(path string) (int, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return 0, fmt.Errorf("read %s: %w", path, err)
	}
	v, err := strconv.Atoi(strings.TrimSpace(string(data)))
	if err != nil {
		return 0, fmt.Errorf("parse %s: %w", path, err)
	}
	return v, nil
}
