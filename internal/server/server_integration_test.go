package server

import (
	"bufio"
	"bytes"
	"context"
	"encoding/json"
	"net"
	"net/http"
	"net/http/httptest"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/gorilla/websocket"

	"github.com/ayusman/mudra/internal/capture"
	"github.com/ayusman/mudra/internal/control"
	"github.com/ayusman/mudra/internal/cursor"
	"github.com/ayusman/mudra/internal/store"
)

func TestAPI_ProfileWorkflow(t *testing.T) {
	st, err := store.New(filepath.Join(t.TempDir(), "test.db"))
	if err != nil {
		t.Fatal(err)
	}
	defer st.Close()

	session := control.NewSession(control.DefaultConfig(), cursor.NewRecorder())
	ts := httptest.NewServer(New(Config{Store: st, Session: session}))
	defer ts.Close()

	client := ts.Client()

	resp, err := client.Post(ts.URL+"/api/profiles", "application/json",
		bytes.NewBufferString(`{"name": "couch", "mode": "scroll", "debounce_threshold": 3}`))
	if err != nil {
		t.Fatalf("POST /api/profiles error = %v", err)
	}
	if resp.StatusCode != http.StatusCreated {
		t.Fatalf("POST status = %d, want %d", resp.StatusCode, http.StatusCreated)
	}
	var created store.Profile
	json.NewDecoder(resp.Body).Decode(&created)
	resp.Body.Close()

	resp, err = client.Post(ts.URL+"/api/profiles/"+created.ID+"/activate", "application/json", nil)
	if err != nil {
		t.Fatal(err)
	}
	resp.Body.Close()
	if resp.StatusCode != http.StatusOK {
		t.Fatalf("activate status = %d", resp.StatusCode)
	}

	resp, err = client.Get(ts.URL + "/api/status")
	if err != nil {
		t.Fatal(err)
	}
	var status control.Status
	json.NewDecoder(resp.Body).Decode(&status)
	resp.Body.Close()

	if status.Mode != control.ModeScroll {
		t.Errorf("status mode = %q, want scroll", status.Mode)
	}
	if got := session.Config().DebounceThreshold; got != 3 {
		t.Errorf("DebounceThreshold = %d, want 3", got)
	}
}

func TestAPI_EventsStream(t *testing.T) {
	rec := cursor.NewRecorder()
	events := cursor.NewBroadcaster(rec)
	ts := httptest.NewServer(New(Config{Events: events}))
	defer ts.Close()

	url := "ws" + strings.TrimPrefix(ts.URL, "http") + "/api/events"
	conn, _, err := websocket.DefaultDialer.Dial(url, nil)
	if err != nil {
		t.Fatalf("dial: %v", err)
	}
	defer conn.Close()

	deadline := time.Now().Add(2 * time.Second)
	for events.Subscribers() == 0 {
		if time.Now().After(deadline) {
			t.Fatal("client never subscribed")
		}
		time.Sleep(5 * time.Millisecond)
	}

	events.Move(960, 540)
	events.ClickDown()

	conn.SetReadDeadline(time.Now().Add(2 * time.Second))
	var got []cursor.Kind
	for len(got) < 2 {
		var cmd cursor.Command
		if err := conn.ReadJSON(&cmd); err != nil {
			t.Fatalf("read: %v", err)
		}
		got = append(got, cmd.Kind)
		if cmd.Kind == cursor.KindMove && (cmd.X != 960 || cmd.Y != 540) {
			t.Errorf("move = %v,%v", cmd.X, cmd.Y)
		}
	}
	if got[0] != cursor.KindMove || got[1] != cursor.KindClickDown {
		t.Errorf("kinds = %v", got)
	}

	conn.Close()
	deadline = time.Now().Add(2 * time.Second)
	for events.Subscribers() != 0 {
		if time.Now().After(deadline) {
			t.Fatal("subscription leaked after disconnect")
		}
		time.Sleep(5 * time.Millisecond)
	}
}

func TestAPI_PreviewStream(t *testing.T) {
	preview := capture.NewPreview()
	preview.Set([]byte("jpeg-bytes"))

	ts := httptest.NewServer(New(Config{Preview: preview}))
	defer ts.Close()

	ctx, cancel := context.WithTimeout(context.Background(), 2*time.Second)
	defer cancel()
	req, _ := http.NewRequestWithContext(ctx, http.MethodGet, ts.URL+"/api/stream", nil)
	resp, err := ts.Client().Do(req)
	if err != nil {
		t.Fatal(err)
	}
	defer resp.Body.Close()

	if ct := resp.Header.Get("Content-Type"); !strings.HasPrefix(ct, "multipart/x-mixed-replace") {
		t.Errorf("Content-Type = %q", ct)
	}

	r := bufio.NewReader(resp.Body)
	var part strings.Builder
	for !strings.Contains(part.String(), "jpeg-bytes") {
		line, err := r.ReadString('\n')
		if err != nil {
			t.Fatalf("read: %v (got %q)", err, part.String())
		}
		part.WriteString(line)
	}
	if !strings.HasPrefix(part.String(), "--frame") {
		t.Errorf("part = %q", part.String())
	}
}

// runServer starts Run on a free port and waits until it answers.
func runServer(t *testing.T, cfg Config) (addr string, cancel context.CancelFunc, done <-chan error) {
	t.Helper()
	l, err := net.Listen("tcp", "127.0.0.1:0")
	if err != nil {
		t.Fatal(err)
	}
	addr = l.Addr().String()
	l.Close()

	ctx, cancel := context.WithCancel(context.Background())
	errCh := make(chan error, 1)
	go func() { errCh <- New(cfg).Run(ctx, addr) }()

	deadline := time.Now().Add(2 * time.Second)
	for {
		resp, err := http.Get("http://" + addr + "/api/health")
		if err == nil {
			resp.Body.Close()
			break
		}
		if time.Now().After(deadline) {
			cancel()
			t.Fatalf("server never came up: %v", err)
		}
		time.Sleep(10 * time.Millisecond)
	}
	return addr, cancel, errCh
}

func waitStopped(t *testing.T, done <-chan error, within time.Duration) {
	t.Helper()
	select {
	case err := <-done:
		if err != nil {
			t.Errorf("Run() = %v, want nil after cancel", err)
		}
	case <-time.After(within):
		t.Fatal("Run() did not return after cancel")
	}
}

func TestServer_Run(t *testing.T) {
	_, cancel, done := runServer(t, Config{})
	cancel()
	waitStopped(t, done, 5*time.Second)
}

func TestServer_Run_OpenPreviewStream(t *testing.T) {
	preview := capture.NewPreview()
	preview.Set([]byte{0xff, 0xd8, 0xff, 0xd9})

	addr, cancel, done := runServer(t, Config{Preview: preview})

	resp, err := http.Get("http://" + addr + "/api/stream")
	if err != nil {
		cancel()
		t.Fatalf("GET /api/stream error = %v", err)
	}
	defer resp.Body.Close()

	line, err := bufio.NewReader(resp.Body).ReadString('\n')
	if err != nil || !strings.HasPrefix(line, "--frame") {
		cancel()
		t.Fatalf("first stream line = %q, %v", line, err)
	}

	// The client stays connected; shutdown must still finish well inside
	// the graceful shutdown timeout.
	start := time.Now()
	cancel()
	waitStopped(t, done, 3*time.Second)
	if elapsed := time.Since(start); elapsed > 2*time.Second {
		t.Errorf("shutdown took %v with an open stream", elapsed)
	}
}
