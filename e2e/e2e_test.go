package e2e

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"gonum.org/v1/gonum/spatial/r3"

	"github.com/ayusman/mudra/internal/app"
	"github.com/ayusman/mudra/internal/config"
	"github.com/ayusman/mudra/internal/control"
	"github.com/ayusman/mudra/internal/hand"
	"github.com/ayusman/mudra/internal/sensor"
	"github.com/ayusman/mudra/internal/store"
)

func pointingHand(id int, x float64) hand.Hand {
	palm := r3.Vec{X: x, Y: 200}
	fingers := make([]hand.Finger, hand.NumFingers)
	for i := range fingers {
		fingers[i] = hand.Finger{
			ID:          id*10 + i,
			Type:        hand.FingerType(i),
			TipPosition: r3.Vec{X: x, Y: 260, Z: float64(i)},
			TipVelocity: r3.Vec{Y: 300},
			Extended:    true,
		}
	}
	return hand.Hand{ID: id, PalmPosition: palm, StabilizedPalmPosition: palm, Fingers: fingers}
}

// writeReplay records a short sweep of one pointing hand.
func writeReplay(t *testing.T, path string) {
	t.Helper()
	f, err := os.Create(path)
	if err != nil {
		t.Fatal(err)
	}
	defer f.Close()

	w := sensor.NewFrameWriter(f)
	for i := 0; i < 30; i++ {
		w.OnFrame(&hand.Frame{
			ID:        int64(i + 1),
			Timestamp: int64(i+1) * 10000,
			Hands:     []hand.Hand{pointingHand(1, float64(i*4-60))},
			Box:       hand.DefaultInteractionBox(),
		})
	}
	if err := w.Flush(); err != nil {
		t.Fatalf("Flush() error = %v", err)
	}
}

func TestE2E_CompleteWorkflow(t *testing.T) {
	if testing.Short() {
		t.Skip("skipping e2e test")
	}

	tmpDir := t.TempDir()
	replay := filepath.Join(tmpDir, "frames.jsonl")
	writeReplay(t, replay)

	cfg := config.Default()
	cfg.DataDir = tmpDir
	cfg.HTTPAddr = "127.0.0.1:0"
	cfg.DryRun = true
	cfg.Tray = false

	src, err := sensor.LoadReplayFile(replay)
	if err != nil {
		t.Fatalf("LoadReplayFile() error = %v", err)
	}
	src.Paced = true
	src.Loop = true

	application, err := app.New(cfg, app.Options{Source: src})
	if err != nil {
		t.Fatalf("app.New() error = %v", err)
	}
	defer application.Close()

	ts := httptest.NewServer(application.Handler())
	defer ts.Close()
	client := ts.Client()

	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan error, 1)
	go func() { done <- application.Run(ctx) }()

	status := func(t *testing.T) control.Status {
		t.Helper()
		resp, err := client.Get(ts.URL + "/api/status")
		if err != nil {
			t.Fatalf("status error = %v", err)
		}
		defer resp.Body.Close()
		var st control.Status
		if err := json.NewDecoder(resp.Body).Decode(&st); err != nil {
			t.Fatalf("decode status: %v", err)
		}
		return st
	}

	waitFor := func(t *testing.T, what string, cond func(control.Status) bool) {
		t.Helper()
		deadline := time.Now().Add(5 * time.Second)
		for time.Now().Before(deadline) {
			if cond(status(t)) {
				return
			}
			time.Sleep(20 * time.Millisecond)
		}
		t.Fatalf("timed out waiting for %s", what)
	}

	t.Run("FramesFlow", func(t *testing.T) {
		waitFor(t, "frames", func(st control.Status) bool {
			return st.Connected && st.Frames > 0 && st.Mode == control.ModePalm
		})
	})

	var profile store.Profile
	t.Run("CreateProfile", func(t *testing.T) {
		resp, err := client.Post(ts.URL+"/api/profiles", "application/json",
			strings.NewReader(`{"name": "reader", "mode": "scroll"}`))
		if err != nil {
			t.Fatalf("create profile error = %v", err)
		}
		defer resp.Body.Close()

		if resp.StatusCode != http.StatusCreated {
			t.Fatalf("status = %d, want %d", resp.StatusCode, http.StatusCreated)
		}
		if err := json.NewDecoder(resp.Body).Decode(&profile); err != nil {
			t.Fatalf("decode profile: %v", err)
		}
	})

	t.Run("ActivateProfile", func(t *testing.T) {
		resp, err := client.Post(ts.URL+"/api/profiles/"+profile.ID+"/activate", "application/json", nil)
		if err != nil {
			t.Fatalf("activate error = %v", err)
		}
		resp.Body.Close()
		if resp.StatusCode != http.StatusOK {
			t.Fatalf("status = %d, want %d", resp.StatusCode, http.StatusOK)
		}

		waitFor(t, "scroll mode", func(st control.Status) bool { return st.Mode == control.ModeScroll })

		deadline := time.Now().Add(5 * time.Second)
		for {
			if last, ok := application.Events().Last(); ok && last.Kind == "scroll" {
				break
			}
			if time.Now().After(deadline) {
				t.Fatal("no scroll command after switching to scroll mode")
			}
			time.Sleep(20 * time.Millisecond)
		}
	})

	t.Run("Disable", func(t *testing.T) {
		resp, err := client.Post(ts.URL+"/api/enabled", "application/json",
			strings.NewReader(`{"enabled": false}`))
		if err != nil {
			t.Fatalf("disable error = %v", err)
		}
		resp.Body.Close()

		before := status(t).Frames
		time.Sleep(100 * time.Millisecond)
		st := status(t)
		if st.Enabled || st.Frames != before {
			t.Errorf("disabled session still handling frames: %+v", st)
		}
	})

	cancel()
	if err := <-done; err != nil {
		t.Fatalf("Run() error = %v", err)
	}
	if application.Events().IsPressed() {
		t.Error("button held after shutdown")
	}

	active, err := application.Store().Settings().ActiveProfile()
	if err != nil || active.Name != "reader" {
		t.Errorf("ActiveProfile() = %v, %v; want reader", active, err)
	}
}
