// Package cursor defines the pointer capability the controller drives, along
// with in-process implementations for recording and fan-out.
package cursor

import (
	"fmt"
	"sync"
	"time"
)

// Cursor is an absolute pointing device. Calls may block.
type Cursor interface {
	// Move places the pointer at screen coordinates x, y in pixels.
	Move(x, y float64) error

	// Scroll scrolls by dx, dy wheel units.
	Scroll(dx, dy float64) error

	// ClickDown presses the primary button.
	ClickDown() error

	// ClickUp releases the primary button.
	ClickUp() error

	// IsPressed reports whether the primary button is held.
	IsPressed() bool
}

// Kind names a cursor command.
type Kind string

// Command kinds. They double as the plugin action names.
const (
	KindMove      Kind = "move"
	KindScroll    Kind = "scroll"
	KindClickDown Kind = "click-down"
	KindClickUp   Kind = "click-up"
)

// Command is one emitted cursor command. For scrolls X and Y carry the
// deltas.
type Command struct {
	Kind Kind      `json:"kind"`
	X    float64   `json:"x,omitempty"`
	Y    float64   `json:"y,omitempty"`
	At   time.Time `json:"at"`
}

func (c Command) String() string {
	switch c.Kind {
	case KindMove:
		return fmt.Sprintf("move %.0f,%.0f", c.X, c.Y)
	case KindScroll:
		return fmt.Sprintf("scroll %.2f,%.2f", c.X, c.Y)
	default:
		return string(c.Kind)
	}
}

// Recorder is a Cursor that keeps every command in memory. It is used for
// dry runs and as a test double.
type Recorder struct {
	mu       sync.Mutex
	commands []Command
	pressed  bool
	err      error
	now      func() time.Time
}

// NewRecorder creates an empty Recorder.
func NewRecorder() *Recorder {
	return &Recorder{now: time.Now}
}

// SetError makes every following command fail with err. Pass nil to clear.
func (r *Recorder) SetError(err error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.err = err
}

func (r *Recorder) record(kind Kind, x, y float64) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	if r.err != nil {
		return r.err
	}

	switch kind {
	case KindClickDown:
		r.pressed = true
	case KindClickUp:
		r.pressed = false
	}
	r.commands = append(r.commands, Command{Kind: kind, X: x, Y: y, At: r.now()})
	return nil
}

func (r *Recorder) Move(x, y float64) error { return r.record(KindMove, x, y) }
func (r *Recorder) Scroll(dx, dy float64) error { return r.record(KindScroll, dx, dy) }
func (r *Recorder) ClickDown() error { return r.record(KindClickDown, 0, 0) }
func (r *Recorder) ClickUp() error { return r.record(KindClickUp, 0, 0) }

// IsPressed reports whether the last successful click command was a press.
func (r *Recorder) IsPressed() bool {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.pressed
}

// Commands returns a copy of the recorded commands.
func (r *Recorder) Commands() []Command {
	r.mu.Lock()
	defer r.mu.Unlock()

	out := make([]Command, len(r.commands))
	copy(out, r.commands)
	return out
}

// Clear drops the recorded commands but keeps the pressed state.
func (r *Recorder) Clear() {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.commands = nil
}
