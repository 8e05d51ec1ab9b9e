package tray

import (
	"testing"

	"github.com/ayusman/mudra/internal/control"
)

func TestTray_Toggle(t *testing.T) {
	tr := New()
	if !tr.IsEnabled() {
		t.Fatal("tray should start enabled")
	}

	var got []bool
	tr.OnToggle(func(enabled bool) { got = append(got, enabled) })

	tr.handleToggle()
	tr.handleToggle()

	if len(got) != 2 || got[0] || !got[1] {
		t.Errorf("toggle callbacks = %v, want [false true]", got)
	}
	if !tr.IsEnabled() {
		t.Error("two toggles should leave the tray enabled")
	}
}

func TestTray_Mode(t *testing.T) {
	tr := New()
	if tr.Mode() != control.ModePalm {
		t.Fatalf("Mode() = %q, want palm", tr.Mode())
	}

	var picked control.Mode
	tr.OnMode(func(m control.Mode) { picked = m })
	tr.handleMode(control.ModeScroll)

	if picked != control.ModeScroll || tr.Mode() != control.ModeScroll {
		t.Errorf("picked %q, displayed %q", picked, tr.Mode())
	}
}

func TestTray_ExternalUpdatesSkipCallbacks(t *testing.T) {
	tr := New()
	called := false
	tr.OnToggle(func(bool) { called = true })
	tr.OnMode(func(control.Mode) { called = true })

	tr.SetEnabled(false)
	tr.SetMode(control.ModeFinger)
	tr.SetLastCommand("move 1,2")

	if called {
		t.Error("external updates must not invoke callbacks")
	}
	if tr.IsEnabled() || tr.Mode() != control.ModeFinger {
		t.Errorf("state = %v %q", tr.IsEnabled(), tr.Mode())
	}
}

func TestTray_Settings(t *testing.T) {
	tr := New()
	opened := 0
	tr.OnSettings(func() { opened++ })
	tr.handleSettings()
	if opened != 1 {
		t.Errorf("settings opened %d times, want 1", opened)
	}
}
