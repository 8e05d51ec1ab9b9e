package app

import (
	"context"
	"encoding/json"
	"errors"
	"os"
	"path/filepath"
	"testing"
	"time"

	"gonum.org/v1/gonum/spatial/r3"

	"github.com/ayusman/mudra/internal/config"
	"github.com/ayusman/mudra/internal/cursor"
	"github.com/ayusman/mudra/internal/hand"
	"github.com/ayusman/mudra/internal/plugin"
	"github.com/ayusman/mudra/internal/sensor"
	"github.com/ayusman/mudra/internal/store"
)

func testConfig(t *testing.T) *config.Config {
	t.Helper()
	cfg := config.Default()
	cfg.DataDir = t.TempDir()
	cfg.HTTPAddr = "127.0.0.1:0"
	cfg.Tray = false
	return cfg
}

func testHand(id int, x float64, extended bool) hand.Hand {
	palm := r3.Vec{X: x, Y: 200}
	fingers := make([]hand.Finger, hand.NumFingers)
	for i := range fingers {
		fingers[i] = hand.Finger{
			ID:          id*10 + i,
			Type:        hand.FingerType(i),
			TipPosition: r3.Vec{X: x, Y: 260, Z: float64(i)},
			Extended:    extended,
		}
	}
	return hand.Hand{ID: id, PalmPosition: palm, StabilizedPalmPosition: palm, Fingers: fingers}
}

// clickFrames has a closed left hand and an open pointing right hand.
func clickFrames(n int) []*hand.Frame {
	frames := make([]*hand.Frame, n)
	for i := range frames {
		frames[i] = &hand.Frame{
			ID:        int64(i + 1),
			Timestamp: int64(i+1) * 33000,
			Hands:     []hand.Hand{testHand(1, -60, false), testHand(2, 60, true)},
			Box:       hand.DefaultInteractionBox(),
		}
	}
	return frames
}

func TestApp_ReplayDrivesCursor(t *testing.T) {
	rec := cursor.NewRecorder()
	a, err := New(testConfig(t), Options{
		Source: sensor.NewReplaySource(clickFrames(20)),
		Cursor: rec,
	})
	if err != nil {
		t.Fatalf("New() error = %v", err)
	}
	defer a.Close()

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	if err := a.Run(ctx); err != nil {
		t.Fatalf("Run() error = %v", err)
	}

	var moves, downs, ups int
	for _, cmd := range rec.Commands() {
		switch cmd.Kind {
		case cursor.KindMove:
			moves++
		case cursor.KindClickDown:
			downs++
		case cursor.KindClickUp:
			ups++
		}
	}
	if moves != 20 {
		t.Errorf("moves = %d, want 20", moves)
	}
	if downs != 1 || ups != 1 {
		t.Errorf("click-down %d, click-up %d; want one of each", downs, ups)
	}
	if rec.IsPressed() {
		t.Error("button still held after the source stopped")
	}

	last, ok := a.Events().Last()
	if !ok || last.Kind != cursor.KindClickUp {
		t.Errorf("last broadcast = %v, %v; want click-up", last, ok)
	}
	if st := a.Session().Status(); st.Frames != 20 || st.Connected {
		t.Errorf("status frames=%d connected=%v", st.Frames, st.Connected)
	}
}

func TestApp_CancelReleasesButton(t *testing.T) {
	src := sensor.NewReplaySource(clickFrames(10))
	src.Loop = true
	src.Paced = true

	rec := cursor.NewRecorder()
	a, err := New(testConfig(t), Options{Source: src, Cursor: rec})
	if err != nil {
		t.Fatalf("New() error = %v", err)
	}
	defer a.Close()

	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan error, 1)
	go func() { done <- a.Run(ctx) }()

	deadline := time.After(5 * time.Second)
	for !rec.IsPressed() {
		select {
		case <-deadline:
			t.Fatal("button never pressed")
		case <-time.After(10 * time.Millisecond):
		}
	}

	cancel()
	if err := <-done; err != nil {
		t.Fatalf("Run() error = %v", err)
	}
	if rec.IsPressed() {
		t.Error("cancel must release the held button")
	}
}

func TestApp_RecordsFrames(t *testing.T) {
	cfg := testConfig(t)
	cfg.RecordPath = t.TempDir() + "/frames.jsonl"

	a, err := New(cfg, Options{
		Source: sensor.NewReplaySource(clickFrames(7)),
		Cursor: cursor.NewRecorder(),
	})
	if err != nil {
		t.Fatalf("New() error = %v", err)
	}
	if err := a.Run(context.Background()); err != nil {
		t.Fatalf("Run() error = %v", err)
	}
	if err := a.Close(); err != nil {
		t.Fatalf("Close() error = %v", err)
	}

	replay, err := sensor.LoadReplayFile(cfg.RecordPath)
	if err != nil {
		t.Fatalf("LoadReplayFile() error = %v", err)
	}
	if replay.Len() != 7 {
		t.Errorf("recorded %d frames, want 7", replay.Len())
	}
}

func TestApp_Profiles(t *testing.T) {
	cfg := testConfig(t)

	s, err := store.New(cfg.DatabasePath())
	if err != nil {
		t.Fatalf("store.New() error = %v", err)
	}
	cc := cfg.Control()
	cc.ScreenWidth = 2560
	cc.ScreenHeight = 1440
	if err := s.Profiles().Create(config.NewProfile("desk", cc)); err != nil {
		t.Fatalf("Create() error = %v", err)
	}
	s.Close()

	t.Run("named profile", func(t *testing.T) {
		cfg := *cfg
		cfg.Profile = "desk"
		a, err := New(&cfg, Options{Source: sensor.NewReplaySource(nil), Cursor: cursor.NewRecorder()})
		if err != nil {
			t.Fatalf("New() error = %v", err)
		}
		defer a.Close()

		if got := a.Session().Config().ScreenWidth; got != 2560 {
			t.Errorf("ScreenWidth = %v, want 2560", got)
		}
		p, err := a.Store().Settings().ActiveProfile()
		if err != nil || p.Name != "desk" {
			t.Errorf("ActiveProfile() = %v, %v; want desk", p, err)
		}
	})

	t.Run("active profile", func(t *testing.T) {
		cfg := *cfg
		a, err := New(&cfg, Options{Source: sensor.NewReplaySource(nil), Cursor: cursor.NewRecorder()})
		if err != nil {
			t.Fatalf("New() error = %v", err)
		}
		defer a.Close()

		if got := a.Session().Config().ScreenHeight; got != 1440 {
			t.Errorf("ScreenHeight = %v, want 1440", got)
		}
	})

	t.Run("unknown profile", func(t *testing.T) {
		cfg := *cfg
		cfg.Profile = "couch"
		_, err := New(&cfg, Options{Source: sensor.NewReplaySource(nil), Cursor: cursor.NewRecorder()})
		if !errors.Is(err, store.ErrNotFound) {
			t.Errorf("New() error = %v, want ErrNotFound", err)
		}
	})
}

func TestApp_MissingCursorPlugin(t *testing.T) {
	cfg := testConfig(t)
	cfg.PluginDir = t.TempDir()

	_, err := New(cfg, Options{Source: sensor.NewReplaySource(nil)})
	if err == nil {
		t.Fatal("New() should fail without the cursor plugin")
	}
}

func TestApp_DryRun(t *testing.T) {
	cfg := testConfig(t)
	cfg.DryRun = true
	cfg.CursorPlugin = ""

	a, err := New(cfg, Options{Source: sensor.NewReplaySource(clickFrames(12))})
	if err != nil {
		t.Fatalf("New() error = %v", err)
	}
	defer a.Close()

	if err := a.Run(context.Background()); err != nil {
		t.Fatalf("Run() error = %v", err)
	}
	if a.Events().IsPressed() {
		t.Error("dry-run cursor still pressed after exit")
	}
}

func writeCursorPlugin(t *testing.T, dir string, actions []string) {
	t.Helper()
	manifest, err := json.Marshal(plugin.Manifest{
		Name:       "cursor-control",
		Version:    "1.0.0",
		Executable: "cursor-control",
		Actions:    actions,
		Streaming:  true,
	})
	if err != nil {
		t.Fatal(err)
	}
	pdir := filepath.Join(dir, "cursor-control")
	if err := os.MkdirAll(pdir, 0755); err != nil {
		t.Fatal(err)
	}
	if err := os.WriteFile(filepath.Join(pdir, "plugin.json"), manifest, 0644); err != nil {
		t.Fatal(err)
	}
}

func TestApp_CursorPluginActions(t *testing.T) {
	t.Run("declares every cursor action", func(t *testing.T) {
		cfg := testConfig(t)
		cfg.PluginDir = t.TempDir()
		writeCursorPlugin(t, cfg.PluginDir, cursor.Actions)

		a, err := New(cfg, Options{Source: sensor.NewReplaySource(nil)})
		if err != nil {
			t.Fatalf("New() error = %v", err)
		}
		a.Close()
	})

	t.Run("missing scroll", func(t *testing.T) {
		cfg := testConfig(t)
		cfg.PluginDir = t.TempDir()
		writeCursorPlugin(t, cfg.PluginDir, []string{"move", "click-down", "click-up"})

		_, err := New(cfg, Options{Source: sensor.NewReplaySource(nil)})
		if !errors.Is(err, plugin.ErrActionNotSupported) {
			t.Errorf("New() error = %v, want ErrActionNotSupported", err)
		}
	})
}
