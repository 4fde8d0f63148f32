package sink

import (
	"fmt"
	"math"

	volume "github.com/itchyny/volume-go"
)

// Mixer calls, swapped in tests.
var (
	getVolume = volume.GetVolume
	setVolume = volume.SetVolume
)

// SystemVolume controls the master output volume. The OS reports an integer
// percent; the engine works on [0, 1].
type SystemVolume struct{}

// NewSystemVolume probes the mixer once.
func NewSystemVolume() (*SystemVolume, error) {
	if _, err := getVolume(); err != nil {
		return nil, unavailable("mixer: %v", err)
	}
	return &SystemVolume{}, nil
}

func (SystemVolume) Volume() (float64, error) {
	pct, err := getVolume()
	if err != nil {
		return 0, fmt.Errorf("get volume: %w", err)
	}
	return float64(pct) / 100, nil
}

// SetVolume rounds v to the nearest percent. A change smaller than one
// percent still moves the mixer by one percent in its direction.
func (SystemVolume) SetVolume(v float64) error {
	if v < 0 || v > 1 {
		return fmt.Errorf("volume %v outside [0, 1]", v)
	}
	toPct := func(f float64) int { return int(math.Round(f * 100)) }
	pct := toPct(v)
	if cur, err := getVolume(); err == nil {
		pct = stepRaw(v, float64(cur)/100, cur, 100, toPct)
	}
	if err := setVolume(pct); err != nil {
		return fmt.Errorf("set volume %d%%: %w", pct, err)
	}
	return nil
}
