// Package tray provides the system tray shell for airmouse.
package tray

import (
	"sync"
	"time"

	"github.com/getlantern/systray"
)

// Tray represents the system tray application.
type Tray struct {
	onToggle    func(enabled bool)
	onDashboard func()
	onQuit      func()
	enabled     bool
	mode        string
	lastAction  string
	notice      *time.Timer
	mu          sync.RWMutex

	// Menu items stored for later updates
	menuToggle     *systray.MenuItem
	menuMode       *systray.MenuItem
	menuLastAction *systray.MenuItem
	menuNotice     *systray.MenuItem
}

// New creates a new Tray instance with the given initial enabled state.
func New(enabled bool) *Tray {
	return &Tray{
		enabled: enabled,
		mode:    "none",
	}
}

// OnToggle sets the callback function to be called when the enabled state is toggled.
func (t *Tray) OnToggle(fn func(enabled bool)) {
	t.mu.Lock()
	defer t.mu.Unlock()
	t.onToggle = fn
}

// OnDashboard sets the callback for the dashboard menu item. The item is
// only shown when a callback is set before Run.
func (t *Tray) OnDashboard(fn func()) {
	t.mu.Lock()
	defer t.mu.Unlock()
	t.onDashboard = fn
}

// OnQuit sets the callback function to be called when the quit menu item is clicked.
func (t *Tray) OnQuit(fn func()) {
	t.mu.Lock()
	defer t.mu.Unlock()
	t.onQuit = fn
}

// Run starts the system tray application.
// This function blocks until Quit is called and must run on the main goroutine.
func (t *Tray) Run() {
	systray.Run(t.onReady, t.onExit)
}

// Quit closes the tray and makes Run return.
func (t *Tray) Quit() {
	systray.Quit()
}

// onReady is called when the system tray is ready.
// It sets up the menu structure.
func (t *Tray) onReady() {
	systray.SetTitle("Airmouse")
	systray.SetTooltip("Airmouse hand gesture control")

	t.mu.Lock()
	t.menuToggle = systray.AddMenuItem(toggleTitle(t.enabled), "Toggle gesture control")
	systray.AddSeparator()

	t.menuMode = systray.AddMenuItem(modeTitle(t.mode), "Active control mode")
	t.menuMode.Disable()
	t.menuLastAction = systray.AddMenuItem(lastActionTitle(t.lastAction), "Last executed action")
	t.menuLastAction.Disable()
	t.menuNotice = systray.AddMenuItem("", "")
	t.menuNotice.Disable()
	t.menuNotice.Hide()
	systray.AddSeparator()

	var dashboardCh chan struct{}
	if t.onDashboard != nil {
		menuDashboard := systray.AddMenuItem("Open Dashboard...", "Open the status page in a browser")
		dashboardCh = menuDashboard.ClickedCh
		systray.AddSeparator()
	}

	menuQuit := systray.AddMenuItem("Quit", "Quit Airmouse")
	t.mu.Unlock()

	// Handle menu item clicks in a separate goroutine
	go func() {
		for {
			select {
			case <-t.menuToggle.ClickedCh:
				t.handleToggle()
			case <-dashboardCh:
				t.handleDashboard()
			case <-menuQuit.ClickedCh:
				t.handleQuit()
				return
			}
		}
	}()
}

// onExit is called when the system tray is about to exit.
func (t *Tray) onExit() {
	t.mu.Lock()
	defer t.mu.Unlock()
	if t.notice != nil {
		t.notice.Stop()
	}
}

// handleToggle handles the toggle menu item click.
func (t *Tray) handleToggle() {
	t.mu.Lock()
	t.enabled = !t.enabled
	enabled := t.enabled
	t.menuToggle.SetTitle(toggleTitle(enabled))
	callback := t.onToggle
	t.mu.Unlock()

	// Call the callback outside the lock to prevent deadlocks
	if callback != nil {
		callback(enabled)
	}
}

// handleDashboard handles the dashboard menu item click.
func (t *Tray) handleDashboard() {
	t.mu.RLock()
	callback := t.onDashboard
	t.mu.RUnlock()

	if callback != nil {
		callback()
	}
}

// handleQuit handles the quit menu item click.
func (t *Tray) handleQuit() {
	t.mu.RLock()
	callback := t.onQuit
	t.mu.RUnlock()

	if callback != nil {
		callback()
	}

	systray.Quit()
}

// SetEnabled updates the toggle without firing the toggle callback.
func (t *Tray) SetEnabled(enabled bool) {
	t.mu.Lock()
	defer t.mu.Unlock()

	t.enabled = enabled
	if t.menuToggle != nil {
		t.menuToggle.SetTitle(toggleTitle(enabled))
	}
}

// SetMode updates the mode display in the menu.
func (t *Tray) SetMode(mode string) {
	t.mu.Lock()
	defer t.mu.Unlock()

	if mode == t.mode {
		return
	}
	t.mode = mode
	if t.menuMode != nil {
		t.menuMode.SetTitle(modeTitle(mode))
	}
}

// SetLastAction updates the last action display in the menu.
func (t *Tray) SetLastAction(name string) {
	t.mu.Lock()
	defer t.mu.Unlock()

	t.lastAction = name
	if t.menuLastAction != nil {
		t.menuLastAction.SetTitle(lastActionTitle(name))
	}
}

// ShowNotice shows text in the menu and tray title for d. A newer notice
// replaces an older one.
func (t *Tray) ShowNotice(text string, d time.Duration) {
	t.mu.Lock()
	defer t.mu.Unlock()

	if t.menuNotice == nil {
		return
	}
	if t.notice != nil {
		t.notice.Stop()
	}

	t.menuNotice.SetTitle(text)
	t.menuNotice.Show()
	systray.SetTitle("Airmouse: " + text)

	t.notice = time.AfterFunc(d, func() {
		t.mu.Lock()
		defer t.mu.Unlock()
		t.menuNotice.Hide()
		systray.SetTitle("Airmouse")
	})
}

// IsEnabled returns the current enabled state.
func (t *Tray) IsEnabled() bool {
	t.mu.RLock()
	defer t.mu.RUnlock()
	return t.enabled
}

// Mode returns the mode last passed to SetMode.
func (t *Tray) Mode() string {
	t.mu.RLock()
	defer t.mu.RUnlock()
	return t.mode
}

// LastAction returns the action last passed to SetLastAction.
func (t *Tray) LastAction() string {
	t.mu.RLock()
	defer t.mu.RUnlock()
	return t.lastAction
}

func toggleTitle(enabled bool) string {
	if enabled {
		return "● Enabled"
	}
	return "○ Disabled"
}

func modeTitle(mode string) string {
	if mode == "" {
		mode = "none"
	}
	return "Mode: " + mode
}

func lastActionTitle(name string) string {
	if name == "" {
		return "Last: none"
	}
	return "Last: " + name
}
