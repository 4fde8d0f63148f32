package tray

import (
	"testing"
	"time"
)

func TestTitles(t *testing.T) {
	tests := []struct {
		name string
		got  string
		want string
	}{
		{"enabled", toggleTitle(true), "● Enabled"},
		{"disabled", toggleTitle(false), "○ Disabled"},
		{"mode", modeTitle("volume"), "Mode: volume"},
		{"empty mode", modeTitle(""), "Mode: none"},
		{"last action", lastActionTitle("screenshot"), "Last: screenshot"},
		{"no last action", lastActionTitle(""), "Last: none"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if tt.got != tt.want {
				t.Errorf("got %q, want %q", tt.got, tt.want)
			}
		})
	}
}

// Before Run the menu items do not exist; setters must only record state.
func TestTray_StateBeforeRun(t *testing.T) {
	tr := New(false)

	if tr.IsEnabled() {
		t.Error("IsEnabled() = true, want false")
	}
	if tr.Mode() != "none" {
		t.Errorf("Mode() = %q, want none", tr.Mode())
	}

	tr.SetEnabled(true)
	tr.SetMode("scroll")
	tr.SetLastAction("left_click")
	tr.ShowNotice("saved", time.Millisecond)

	if !tr.IsEnabled() {
		t.Error("IsEnabled() = false after SetEnabled(true)")
	}
	if tr.Mode() != "scroll" {
		t.Errorf("Mode() = %q, want scroll", tr.Mode())
	}
	if tr.LastAction() != "left_click" {
		t.Errorf("LastAction() = %q, want left_click", tr.LastAction())
	}
}

func TestTray_Callbacks(t *testing.T) {
	tr := New(true)

	var dashboard bool
	tr.OnDashboard(func() { dashboard = true })

	tr.handleDashboard()
	if !dashboard {
		t.Error("dashboard callback not called")
	}
}
