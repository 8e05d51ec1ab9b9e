package cursor

import (
	"encoding/json"
	"errors"
	"testing"

	"github.com/google/go-cmp/cmp"
	"github.com/google/go-cmp/cmp/cmpopts"

	"github.com/ayusman/mudra/internal/plugin"
)

var ignoreTime = cmpopts.IgnoreFields(Command{}, "At")

func TestRecorder(t *testing.T) {
	r := NewRecorder()

	if err := r.Move(10, 20); err != nil {
		t.Fatal(err)
	}
	r.ClickDown()
	if !r.IsPressed() {
		t.Error("IsPressed() should be true after ClickDown")
	}
	r.Scroll(-1, 2.5)
	r.ClickUp()
	if r.IsPressed() {
		t.Error("IsPressed() should be false after ClickUp")
	}

	want := []Command{
		{Kind: KindMove, X: 10, Y: 20},
		{Kind: KindClickDown},
		{Kind: KindScroll, X: -1, Y: 2.5},
		{Kind: KindClickUp},
	}
	if diff := cmp.Diff(want, r.Commands(), ignoreTime); diff != "" {
		t.Errorf("Commands() mismatch (-want +got):\n%s", diff)
	}

	r.Clear()
	if len(r.Commands()) != 0 {
		t.Error("Clear() should drop commands")
	}
}

func TestRecorder_Error(t *testing.T) {
	r := NewRecorder()
	boom := errors.New("boom")
	r.SetError(boom)

	if err := r.ClickDown(); !errors.Is(err, boom) {
		t.Errorf("ClickDown() error = %v, want boom", err)
	}
	if r.IsPressed() {
		t.Error("failed ClickDown must not mark the button pressed")
	}
	if len(r.Commands()) != 0 {
		t.Error("failed commands must not be recorded")
	}

	r.SetError(nil)
	if err := r.Move(1, 1); err != nil {
		t.Errorf("Move() after clearing error = %v", err)
	}
}

func TestCommand_String(t *testing.T) {
	tests := []struct {
		cmd  Command
		want string
	}{
		{Command{Kind: KindMove, X: 960, Y: 540}, "move 960,540"},
		{Command{Kind: KindScroll, X: -1, Y: 0.5}, "scroll -1.00,0.50"},
		{Command{Kind: KindClickDown}, "click-down"},
	}
	for _, tt := range tests {
		if got := tt.cmd.String(); got != tt.want {
			t.Errorf("String() = %q, want %q", got, tt.want)
		}
	}
}

func TestBroadcaster(t *testing.T) {
	rec := NewRecorder()
	b := NewBroadcaster(rec)

	ch, unsubscribe := b.Subscribe()
	if b.Subscribers() != 1 {
		t.Fatalf("Subscribers() = %d, want 1", b.Subscribers())
	}

	b.Move(1, 2)
	b.ClickDown()
	if !b.IsPressed() {
		t.Error("IsPressed() should delegate to the wrapped cursor")
	}

	got := []Command{<-ch, <-ch}
	want := []Command{{Kind: KindMove, X: 1, Y: 2}, {Kind: KindClickDown}}
	if diff := cmp.Diff(want, got, ignoreTime); diff != "" {
		t.Errorf("published commands mismatch (-want +got):\n%s", diff)
	}

	last, ok := b.Last()
	if !ok || last.Kind != KindClickDown {
		t.Errorf("Last() = %v, %v", last, ok)
	}
	if last.At.IsZero() {
		t.Error("published commands should be timestamped")
	}

	unsubscribe()
	unsubscribe()
	if _, open := <-ch; open {
		t.Error("channel should be closed after unsubscribe")
	}
	if b.Subscribers() != 0 {
		t.Errorf("Subscribers() = %d, want 0", b.Subscribers())
	}
}

func TestBroadcaster_FailedCommandNotPublished(t *testing.T) {
	rec := NewRecorder()
	rec.SetError(errors.New("no display"))
	b := NewBroadcaster(rec)

	ch, unsubscribe := b.Subscribe()
	defer unsubscribe()

	if err := b.Scroll(1, 1); err == nil {
		t.Fatal("expected error from wrapped cursor")
	}
	select {
	case cmd := <-ch:
		t.Errorf("unexpected published command %v", cmd)
	default:
	}
	if _, ok := b.Last(); ok {
		t.Error("Last() should be unset")
	}
}

func TestBroadcaster_DropsWhenFull(t *testing.T) {
	b := NewBroadcaster(NewRecorder())
	_, unsubscribe := b.Subscribe()
	defer unsubscribe()

	for i := 0; i < DefaultSubscriberBuffer+5; i++ {
		b.Move(float64(i), 0)
	}
	if b.Dropped() != 5 {
		t.Errorf("Dropped() = %d, want 5", b.Dropped())
	}
}

type fakeSender struct {
	requests []*plugin.Request
	resp     *plugin.Response
	err      error
}

func (f *fakeSender) Send(req *plugin.Request) (*plugin.Response, error) {
	f.requests = append(f.requests, req)
	if f.err != nil {
		return nil, f.err
	}
	return f.resp, nil
}

func TestPluginCursor(t *testing.T) {
	s := &fakeSender{resp: &plugin.Response{Success: true}}
	c := NewPluginCursor(s)

	c.Move(960, 540)
	c.Scroll(-1, 3.375)
	c.ClickDown()
	if !c.IsPressed() {
		t.Error("IsPressed() should be true after acknowledged ClickDown")
	}
	c.ClickUp()
	if c.IsPressed() {
		t.Error("IsPressed() should be false after acknowledged ClickUp")
	}

	var actions []string
	for _, r := range s.requests {
		actions = append(actions, r.Action)
	}
	if diff := cmp.Diff(Actions, actions); diff != "" {
		t.Errorf("actions mismatch (-want +got):\n%s", diff)
	}

	var p Point
	if err := json.Unmarshal(s.requests[0].Params, &p); err != nil {
		t.Fatalf("move params: %v", err)
	}
	if p != (Point{X: 960, Y: 540}) {
		t.Errorf("move params = %+v", p)
	}
	if s.requests[2].Params != nil {
		t.Errorf("click-down params = %s, want none", s.requests[2].Params)
	}
}

func TestPluginCursor_Errors(t *testing.T) {
	t.Run("transport error", func(t *testing.T) {
		boom := errors.New("pipe closed")
		c := NewPluginCursor(&fakeSender{err: boom})
		if err := c.ClickDown(); !errors.Is(err, boom) {
			t.Errorf("ClickDown() error = %v, want wrapped transport error", err)
		}
		if c.IsPressed() {
			t.Error("failed ClickDown must not mark pressed")
		}
	})

	t.Run("rejected", func(t *testing.T) {
		c := NewPluginCursor(&fakeSender{resp: &plugin.Response{Error: "no display"}})
		err := c.Move(1, 1)
		if !errors.Is(err, ErrCommandRejected) {
			t.Errorf("Move() error = %v, want ErrCommandRejected", err)
		}
	})
}
