// Package sensor delivers hand-tracking frames to a Listener. A Source owns
// the device (or recording) and calls the listener from a single goroutine,
// so listeners see strictly ordered, non-overlapping callbacks.
package sensor

import (
	"context"
	"errors"

	"github.com/ayusman/mudra/internal/hand"
)

// ErrNoFrames is returned when a replay has nothing to play.
var ErrNoFrames = errors.New("no frames to replay")

// Listener receives the lifecycle events and frames of a Source.
type Listener interface {
	OnInit()
	OnConnect()
	OnFrame(f *hand.Frame)
	OnDisconnect()
	OnExit()
}

// Source produces frames until ctx is cancelled or the input ends. Run
// returns nil on a normal stop.
type Source interface {
	Run(ctx context.Context, l Listener) error
}

// Tee forwards every callback to each listener in order.
type Tee []Listener

func (t Tee) OnInit() {
	for _, l := range t {
		l.OnInit()
	}
}

func (t Tee) OnConnect() {
	for _, l := range t {
		l.OnConnect()
	}
}

func (t Tee) OnFrame(f *hand.Frame) {
	for _, l := range t {
		l.OnFrame(f)
	}
}

func (t Tee) OnDisconnect() {
	for _, l := range t {
		l.OnDisconnect()
	}
}

func (t Tee) OnExit() {
	for _, l := range t {
		l.OnExit()
	}
}
