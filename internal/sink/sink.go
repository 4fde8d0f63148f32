// Package sink implements the engine's OS action sinks: pointer, scroll and
// screenshots through robotgo, master volume through volume-go, display
// backlight through sysfs, and plugin-backed fallbacks for the scalars.
package sink

import (
	"errors"
	"fmt"
	"sort"
	"strings"
)

// ErrUnavailable is returned by constructors when a backend cannot serve on
// this machine.
var ErrUnavailable = errors.New("sink unavailable")

func unavailable(format string, args ...any) error {
	return fmt.Errorf("%w: %s", ErrUnavailable, fmt.Sprintf(format, args...))
}

// Report records which backend serves each sink slot. An empty backend
// means the slot is a no-op.
type Report map[string]string

// Slot names used in Report.
const (
	SlotPointer    = "pointer"
	SlotScroll     = "scroll"
	SlotVolume     = "volume"
	SlotBrightness = "brightness"
	SlotScreenshot = "screenshot"
)

// Available reports whether slot has a backend.
func (r Report) Available(slot string) bool {
	return r[slot] != ""
}

func (r Report) String() string {
	keys := make([]string, 0, len(r))
	for k := range r {
		keys = append(keys, k)
	}
	sort.Strings(keys)

	parts := make([]string, 0, len(keys))
	for _, k := range keys {
		v := r[k]
		if v == "" {
			v = "none"
		}
		parts = append(parts, k+"="+v)
	}
	return strings.Join(parts, " ")
}

// stepRaw converts a requested level to a device unit. want and current are
// in the same units as the request; toRaw maps a request to the device scale.
// When rounding would leave a requested change on the current raw value, the
// result moves one unit in the requested direction, within [0, top].
func stepRaw(want, current float64, raw, top int, toRaw func(float64) int) int {
	next := toRaw(want)
	switch {
	case want < current && next >= raw:
		next = raw - 1
	case want > current && next <= raw:
		next = raw + 1
	}
	if next < 0 {
		next = 0
	}
	if next > top {
		next = top
	}
	return next
}
