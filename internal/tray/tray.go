// Package tray provides the system tray menu: enable toggle, pointing mode,
// last cursor command, settings and quit.
package tray

import (
	"sync"

	"github.com/getlantern/systray"

	"github.com/ayusman/mudra/internal/control"
)

// Tray is the system tray menu. Callbacks run on the menu goroutine, outside
// the tray lock.
type Tray struct {
	mu         sync.RWMutex
	enabled    bool
	mode       control.Mode
	onToggle   func(enabled bool)
	onMode     func(m control.Mode)
	onSettings func()
	onQuit     func()

	menuToggle *systray.MenuItem
	menuModes  map[control.Mode]*systray.MenuItem
	menuLast   *systray.MenuItem
}

// New creates an enabled tray showing palm mode.
func New() *Tray {
	return &Tray{enabled: true, mode: control.ModePalm}
}

func (t *Tray) OnToggle(fn func(enabled bool)) {
	t.mu.Lock()
	defer t.mu.Unlock()
	t.onToggle = fn
}

func (t *Tray) OnMode(fn func(m control.Mode)) {
	t.mu.Lock()
	defer t.mu.Unlock()
	t.onMode = fn
}

func (t *Tray) OnSettings(fn func()) {
	t.mu.Lock()
	defer t.mu.Unlock()
	t.onSettings = fn
}

func (t *Tray) OnQuit(fn func()) {
	t.mu.Lock()
	defer t.mu.Unlock()
	t.onQuit = fn
}

// Run shows the tray and blocks until Quit.
func (t *Tray) Run() {
	systray.Run(t.onReady, func() {})
}

// Quit removes the tray, making Run return.
func (t *Tray) Quit() {
	systray.Quit()
}

func (t *Tray) onReady() {
	systray.SetTitle("Mudra")
	systray.SetTooltip("Mudra hand pointer")

	t.mu.Lock()
	t.menuToggle = systray.AddMenuItem(toggleTitle(t.enabled), "Pause or resume hand control")
	systray.AddSeparator()

	t.menuModes = make(map[control.Mode]*systray.MenuItem, len(control.Modes))
	for _, m := range control.Modes {
		t.menuModes[m] = systray.AddMenuItemCheckbox(modeTitle(m), "Pointing mode", m == t.mode)
	}
	systray.AddSeparator()

	t.menuLast = systray.AddMenuItem("Last: none", "Last cursor command")
	t.menuLast.Disable()
	systray.AddSeparator()
	t.mu.Unlock()

	menuSettings := systray.AddMenuItem("Open Settings...", "Open settings in browser")
	menuQuit := systray.AddMenuItem("Quit", "Quit Mudra")

	for _, m := range control.Modes {
		m := m
		item := t.menuModes[m]
		go func() {
			for range item.ClickedCh {
				t.handleMode(m)
			}
		}()
	}

	go func() {
		for {
			select {
			case <-t.menuToggle.ClickedCh:
				t.handleToggle()
			case <-menuSettings.ClickedCh:
				t.handleSettings()
			case <-menuQuit.ClickedCh:
				t.handleQuit()
				return
			}
		}
	}()
}

func toggleTitle(enabled bool) string {
	if enabled {
		return "● Enabled"
	}
	return "○ Disabled"
}

func modeTitle(m control.Mode) string {
	switch m {
	case control.ModeFinger:
		return "Point with finger"
	case control.ModeScroll:
		return "Scroll"
	default:
		return "Point with palm"
	}
}

func (t *Tray) handleToggle() {
	t.mu.Lock()
	t.setEnabledLocked(!t.enabled)
	enabled, callback := t.enabled, t.onToggle
	t.mu.Unlock()

	if callback != nil {
		callback(enabled)
	}
}

func (t *Tray) handleMode(m control.Mode) {
	t.mu.Lock()
	t.setModeLocked(m)
	callback := t.onMode
	t.mu.Unlock()

	if callback != nil {
		callback(m)
	}
}

func (t *Tray) handleSettings() {
	t.mu.RLock()
	callback := t.onSettings
	t.mu.RUnlock()

	if callback != nil {
		callback()
	}
}

func (t *Tray) handleQuit() {
	t.mu.RLock()
	callback := t.onQuit
	t.mu.RUnlock()

	if callback != nil {
		callback()
	}
	systray.Quit()
}

// SetEnabled reflects an enable change made elsewhere. Callbacks are not
// invoked.
func (t *Tray) SetEnabled(enabled bool) {
	t.mu.Lock()
	defer t.mu.Unlock()
	t.setEnabledLocked(enabled)
}

func (t *Tray) setEnabledLocked(enabled bool) {
	t.enabled = enabled
	if t.menuToggle != nil {
		t.menuToggle.SetTitle(toggleTitle(enabled))
	}
}

// SetMode reflects a mode change made elsewhere.
func (t *Tray) SetMode(m control.Mode) {
	t.mu.Lock()
	defer t.mu.Unlock()
	t.setModeLocked(m)
}

func (t *Tray) setModeLocked(m control.Mode) {
	t.mode = m
	for mode, item := range t.menuModes {
		if mode == m {
			item.Check()
		} else {
			item.Uncheck()
		}
	}
}

// SetLastCommand shows the most recent cursor command.
func (t *Tray) SetLastCommand(text string) {
	t.mu.RLock()
	defer t.mu.RUnlock()

	if t.menuLast == nil {
		return
	}
	if text == "" {
		text = "none"
	}
	t.menuLast.SetTitle("Last: " + text)
}

// IsEnabled returns the displayed enabled state.
func (t *Tray) IsEnabled() bool {
	t.mu.RLock()
	defer t.mu.RUnlock()
	return t.enabled
}

// Mode returns the displayed mode.
func (t *Tray) Mode() control.Mode {
	t.mu.RLock()
	defer t.mu.RUnlock()
	return t.mode
}
