package engine

import (
	"errors"
	"math"
	"testing"
)

func TestAnalogController_Direction(t *testing.T) {
	c := NewAnalogController(testConfig(), Sinks{})

	tests := []struct {
		name   string
		wristY float64
		want   int
	}{
		{name: "at anchor", wristY: 200, want: 0},
		{name: "just below threshold", wristY: 250, want: 0},
		{name: "just above threshold", wristY: 250.5, want: -1},
		{name: "hand lowered", wristY: 260, want: -1},
		{name: "hand raised within dead zone", wristY: 150, want: 0},
		{name: "hand raised", wristY: 140, want: 1},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := c.Direction(200, tt.wristY); got != tt.want {
				t.Errorf("Direction(200, %v) = %d, want %d", tt.wristY, got, tt.want)
			}
		})
	}
}

func TestAnalogController_VolumeLoweredStepsToZero(t *testing.T) {
	sinks := &fakeSinks{volume: 0.05}
	c := NewAnalogController(testConfig(), sinks.all())
	session := ModeSession{Kind: ModeVolume, AnchorY: 200}

	want := []float64{0.04, 0.03, 0.02, 0.01, 0, 0, 0}
	for i, w := range want {
		step, err := c.Apply(session, 260)
		if err != nil {
			t.Fatalf("frame %d: Apply() error = %v", i, err)
		}
		if !step.Applied || step.Direction != -1 {
			t.Fatalf("frame %d: step = %+v, want applied decrement", i, step)
		}
		if math.Abs(sinks.volume-w) > 1e-9 {
			t.Errorf("frame %d: volume = %v, want %v", i, sinks.volume, w)
		}
	}
}

func TestAnalogController_VolumeRaisedClampsAtOne(t *testing.T) {
	sinks := &fakeSinks{volume: 0.97}
	c := NewAnalogController(testConfig(), sinks.all())
	session := ModeSession{Kind: ModeVolume, AnchorY: 300}

	for i := 0; i < 20; i++ {
		if _, err := c.Apply(session, 100); err != nil {
			t.Fatalf("Apply() error = %v", err)
		}
	}
	if sinks.volume != MaxVolume {
		t.Errorf("volume = %v, want %v", sinks.volume, MaxVolume)
	}
}

func TestAnalogController_ValuesStayInBounds(t *testing.T) {
	sinks := &fakeSinks{volume: 0.5, brightness: 50}
	c := NewAnalogController(testConfig(), sinks.all())

	// Oscillate far outside the dead zone in both directions.
	ys := []float64{0, 480, 10, 470, 0, 0, 0, 480, 480, 480}
	for _, kind := range []ModeKind{ModeVolume, ModeBrightness} {
		session := ModeSession{Kind: kind, AnchorY: 240}
		for round := 0; round < 30; round++ {
			for _, y := range ys {
				if _, err := c.Apply(session, y); err != nil {
					t.Fatalf("%s: Apply() error = %v", kind, err)
				}
				if sinks.volume < MinVolume || sinks.volume > MaxVolume {
					t.Fatalf("volume %v out of bounds", sinks.volume)
				}
				if sinks.brightness < MinBrightness || sinks.brightness > MaxBrightness {
					t.Fatalf("brightness %d out of bounds", sinks.brightness)
				}
			}
		}
	}
}

func TestAnalogController_BrightnessOutOfRangeReadIsClamped(t *testing.T) {
	sinks := &fakeSinks{brightness: 140}
	c := NewAnalogController(testConfig(), sinks.all())

	step, err := c.Apply(ModeSession{Kind: ModeBrightness, AnchorY: 240}, 400)
	if err != nil {
		t.Fatalf("Apply() error = %v", err)
	}
	if step.Value != 95 || sinks.brightness != 95 {
		t.Errorf("brightness = %d (step %v), want 95", sinks.brightness, step.Value)
	}
}

func TestAnalogController_Scroll(t *testing.T) {
	sinks := &fakeSinks{}
	c := NewAnalogController(testConfig(), sinks.all())
	session := ModeSession{Kind: ModeScroll, AnchorY: 240}

	for _, y := range []float64{100, 240, 400, 260} {
		if _, err := c.Apply(session, y); err != nil {
			t.Fatalf("Apply() error = %v", err)
		}
	}

	want := []ScrollDirection{ScrollUp, ScrollDown}
	if len(sinks.scrolls) != len(want) {
		t.Fatalf("scrolls = %v, want %v", sinks.scrolls, want)
	}
	for i := range want {
		if sinks.scrolls[i] != want[i] {
			t.Errorf("scroll %d = %s, want %s", i, sinks.scrolls[i], want[i])
		}
	}
}

func TestAnalogController_DeadZoneIssuesNothing(t *testing.T) {
	sinks := &fakeSinks{volume: 0.5}
	c := NewAnalogController(testConfig(), sinks.all())

	step, err := c.Apply(ModeSession{Kind: ModeVolume, AnchorY: 240}, 270)
	if err != nil {
		t.Fatalf("Apply() error = %v", err)
	}
	if step.Applied {
		t.Error("step applied inside dead zone")
	}
	if sinks.volumeSets != 0 {
		t.Errorf("SetVolume called %d times, want 0", sinks.volumeSets)
	}
}

func TestAnalogController_MissingSinkIsNoop(t *testing.T) {
	c := NewAnalogController(testConfig(), Sinks{})

	for _, kind := range []ModeKind{ModeVolume, ModeBrightness, ModeScroll} {
		step, err := c.Apply(ModeSession{Kind: kind, AnchorY: 240}, 0)
		if err != nil {
			t.Errorf("%s: Apply() error = %v, want nil", kind, err)
		}
		if step.Applied {
			t.Errorf("%s: step applied without a sink", kind)
		}
		if step.Direction != 1 {
			t.Errorf("%s: direction = %d, want 1", kind, step.Direction)
		}
	}
}

func TestAnalogController_SinkError(t *testing.T) {
	boom := errors.New("mixer gone")
	sinks := &fakeSinks{volumeErr: boom}
	c := NewAnalogController(testConfig(), sinks.all())

	_, err := c.Apply(ModeSession{Kind: ModeVolume, AnchorY: 240}, 0)
	if !errors.Is(err, boom) {
		t.Fatalf("Apply() error = %v, want wrapping %v", err, boom)
	}

	var se *SinkError
	if !errors.As(err, &se) || se.Sink != "volume" {
		t.Errorf("error = %#v, want *SinkError for volume", err)
	}
}
