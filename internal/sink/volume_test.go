package sink

import (
	"errors"
	"testing"
)

// fakeMixer replaces the volume-go calls for the duration of a test.
func fakeMixer(t *testing.T, pct int) *int {
	t.Helper()
	level := pct
	savedGet, savedSet := getVolume, setVolume
	getVolume = func() (int, error) { return level, nil }
	setVolume = func(v int) error {
		level = v
		return nil
	}
	t.Cleanup(func() { getVolume, setVolume = savedGet, savedSet })
	return &level
}

func TestSystemVolume_SmallSteps(t *testing.T) {
	tests := []struct {
		name  string
		start int
		delta float64
		want  int
	}{
		{name: "tiny step up", start: 50, delta: 0.001, want: 51},
		{name: "tiny step down", start: 50, delta: -0.004, want: 49},
		{name: "whole percent", start: 50, delta: 0.05, want: 55},
		{name: "at ceiling", start: 100, delta: 0, want: 100},
		{name: "to floor", start: 1, delta: -0.002, want: 0},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			level := fakeMixer(t, tt.start)
			var v SystemVolume

			cur, err := v.Volume()
			if err != nil {
				t.Fatalf("Volume() error = %v", err)
			}
			if err := v.SetVolume(cur + tt.delta); err != nil {
				t.Fatalf("SetVolume() error = %v", err)
			}
			if *level != tt.want {
				t.Errorf("mixer = %d%%, want %d%%", *level, tt.want)
			}
		})
	}
}

func TestSystemVolume_Errors(t *testing.T) {
	fakeMixer(t, 50)
	var v SystemVolume

	if err := v.SetVolume(1.5); err == nil {
		t.Error("SetVolume(1.5) error = nil, want range error")
	}

	setVolume = func(int) error { return errors.New("no mixer") }
	if err := v.SetVolume(0.2); err == nil {
		t.Error("SetVolume() error = nil, want mixer error")
	}

	getVolume = func() (int, error) { return 0, errors.New("no mixer") }
	if _, err := NewSystemVolume(); !errors.Is(err, ErrUnavailable) {
		t.Errorf("NewSystemVolume() error = %v, want ErrUnavailable", err)
	}
}
