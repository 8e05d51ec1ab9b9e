package cursor

import (
	"sync"
	"time"
)

// DefaultSubscriberBuffer is the channel capacity given to each subscriber.
const DefaultSubscriberBuffer = 64

// Broadcaster wraps a Cursor and publishes every successful command to its
// subscribers. Slow subscribers lose commands rather than stall the cursor.
type Broadcaster struct {
	next Cursor

	mu      sync.RWMutex
	subs    map[chan Command]struct{}
	last    Command
	hasLast bool
	dropped uint64
}

// NewBroadcaster wraps next.
func NewBroadcaster(next Cursor) *Broadcaster {
	return &Broadcaster{
		next: next,
		subs: make(map[chan Command]struct{}),
	}
}

// Subscribe registers a new listener. Call the returned function to
// unsubscribe; it closes the channel.
func (b *Broadcaster) Subscribe() (<-chan Command, func()) {
	ch := make(chan Command, DefaultSubscriberBuffer)

	b.mu.Lock()
	b.subs[ch] = struct{}{}
	b.mu.Unlock()

	var once sync.Once
	return ch, func() {
		once.Do(func() {
			b.mu.Lock()
			delete(b.subs, ch)
			b.mu.Unlock()
			close(ch)
		})
	}
}

// Subscribers returns the number of active subscribers.
func (b *Broadcaster) Subscribers() int {
	b.mu.RLock()
	defer b.mu.RUnlock()
	return len(b.subs)
}

// Last returns the most recent successful command.
func (b *Broadcaster) Last() (Command, bool) {
	b.mu.RLock()
	defer b.mu.RUnlock()
	return b.last, b.hasLast
}

// Dropped returns how many deliveries were skipped because a subscriber
// was full.
func (b *Broadcaster) Dropped() uint64 {
	b.mu.RLock()
	defer b.mu.RUnlock()
	return b.dropped
}

func (b *Broadcaster) publish(cmd Command) {
	cmd.At = time.Now()

	b.mu.Lock()
	defer b.mu.Unlock()

	b.last = cmd
	b.hasLast = true
	for ch := range b.subs {
		select {
		case ch <- cmd:
		default:
			b.dropped++
		}
	}
}

func (b *Broadcaster) Move(x, y float64) error {
	if err := b.next.Move(x, y); err != nil {
		return err
	}
	b.publish(Command{Kind: KindMove, X: x, Y: y})
	return nil
}

func (b *Broadcaster) Scroll(dx, dy float64) error {
	if err := b.next.Scroll(dx, dy); err != nil {
		return err
	}
	b.publish(Command{Kind: KindScroll, X: dx, Y: dy})
	return nil
}

func (b *Broadcaster) ClickDown() error {
	if err := b.next.ClickDown(); err != nil {
		return err
	}
	b.publish(Command{Kind: KindClickDown})
	return nil
}

func (b *Broadcaster) ClickUp() error {
	if err := b.next.ClickUp(); err != nil {
		return err
	}
	b.publish(Command{Kind: KindClickUp})
	return nil
}

func (b *Broadcaster) IsPressed() bool {
	return b.next.IsPressed()
}
