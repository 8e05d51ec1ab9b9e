package control

import (
	"errors"
	"fmt"
	"log"
	"sync"
	"time"

	"github.com/google/uuid"
	"gonum.org/v1/gonum/spatial/r2"

	"github.com/ayusman/mudra/internal/cursor"
	"github.com/ayusman/mudra/internal/filter"
	"github.com/ayusman/mudra/internal/gesture"
	"github.com/ayusman/mudra/internal/hand"
)

// Status is a snapshot of a Session.
type Status struct {
	ID           string `json:"id"`
	Mode         Mode   `json:"mode"`
	Enabled      bool   `json:"enabled"`
	Connected    bool   `json:"connected"`
	Frames       uint64 `json:"frames"`
	Hands        int    `json:"hands"`
	Pressed      bool   `json:"pressed"`
	Clicking     bool   `json:"clicking"`
	ActiveFinger *int   `json:"active_finger,omitempty"`
	Errors       uint64 `json:"errors"`
}

// Session owns the filters of one controller and drives a cursor from
// sensor frames. It implements the sensor listener callbacks.
//
// With one hand in view that hand points. With two or more, the leftmost
// hand signals clicks by closing into a fist and the rightmost hand points.
// In scroll mode the pointing hand scrolls instead.
//
// Frame handling is serialized by the session lock, so the configuration
// methods may be called from any goroutine.
type Session struct {
	id     string
	cursor cursor.Cursor

	mu            sync.Mutex
	cfg           Config
	smoother      *filter.Smoother
	click         *filter.Debouncer[bool]
	selector      *gesture.Selector
	enabled       bool
	connected     bool
	frames        uint64
	errors        uint64
	lastHands     int
	lastTimestamp int64
}

// NewSession creates an enabled Session driving c.
func NewSession(cfg Config, c cursor.Cursor) *Session {
	s := &Session{
		id:      uuid.NewString(),
		cursor:  c,
		enabled: true,
	}
	s.apply(cfg)
	return s
}

func (s *Session) apply(cfg Config) {
	if cfg.Mode == "" {
		cfg.Mode = ModePalm
	}
	s.cfg = cfg
	s.smoother = filter.NewSmoother(cfg.Smoother)
	s.click = filter.NewBinaryDebouncer(cfg.DebounceThreshold)
	s.selector = gesture.NewSelector(cfg.FingerGraceFrames)
	s.lastTimestamp = 0
}

// ID returns the session id used in logs.
func (s *Session) ID() string {
	return s.id
}

// HandleFrame processes one frame and emits the resulting cursor commands.
func (s *Session) HandleFrame(f *hand.Frame) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if !s.enabled || f == nil {
		return nil
	}

	s.frames++
	s.lastHands = len(f.Hands)

	var dt time.Duration
	if s.lastTimestamp > 0 && f.Timestamp > s.lastTimestamp {
		dt = time.Duration(f.Timestamp-s.lastTimestamp) * time.Microsecond
	}
	if f.Timestamp > 0 {
		s.lastTimestamp = f.Timestamp
	}

	if len(f.Hands) == 0 {
		return nil
	}

	pointer, _ := f.Rightmost()

	if s.cfg.Mode == ModeScroll {
		return s.scroll(pointer)
	}

	if len(f.Hands) == 1 {
		return s.point(f, pointer, dt)
	}

	left, _ := f.Leftmost()
	return errors.Join(s.recognize(left), s.point(f, pointer, dt))
}

// point moves the cursor to the pointing hand's position.
func (s *Session) point(f *hand.Frame, h hand.Hand, dt time.Duration) error {
	target := h.StabilizedPalmPosition

	if s.cfg.Mode == ModeFinger {
		candidates := h.ExtendedFingers()
		if len(candidates) == 0 {
			candidates = h.Fingers
		}
		finger, ok := s.selector.Select(candidates)
		if !ok {
			return nil
		}
		target = finger.TipPosition
	}

	n := f.Box.Normalize(target, true)
	pos := r2.Vec{
		X: n.X * s.cfg.ScreenWidth,
		Y: s.cfg.ScreenHeight - n.Y*s.cfg.ScreenHeight,
	}
	if s.cfg.Smooth {
		pos = s.smoother.Smooth(pos, dt)
	}

	if err := s.cursor.Move(pos.X, pos.Y); err != nil {
		return fmt.Errorf("move cursor: %w", err)
	}
	return nil
}

// recognize feeds the gesture hand's click signal through the debouncer and
// emits a click on each debounced edge.
func (s *Session) recognize(h hand.Hand) error {
	raw, ok := gesture.ClickSignal(h)
	if !ok {
		return nil
	}
	s.click.Signal(raw)

	clicking := s.click.State()
	pressed := s.cursor.IsPressed()

	switch {
	case clicking && !pressed:
		if err := s.cursor.ClickDown(); err != nil {
			return fmt.Errorf("click down: %w", err)
		}
	case !clicking && pressed:
		if err := s.cursor.ClickUp(); err != nil {
			return fmt.Errorf("click up: %w", err)
		}
	}
	return nil
}

// scroll maps the foremost fingertip velocity to a scroll command.
func (s *Session) scroll(h hand.Hand) error {
	if len(h.Fingers) == 0 {
		return nil
	}
	front := hand.SortByDistanceFromScreen(h.Fingers)[0]
	dx, dy := gesture.ScrollDelta(front.TipVelocity)

	if err := s.cursor.Scroll(dx, dy); err != nil {
		return fmt.Errorf("scroll: %w", err)
	}
	return nil
}

// release lifts a held button and clears all filter state. Callers hold
// the lock.
func (s *Session) release(reason string) {
	if s.cursor.IsPressed() {
		if err := s.cursor.ClickUp(); err != nil {
			log.Printf("Session %s: failed to release button on %s: %v", s.id, reason, err)
		} else {
			log.Printf("Session %s: released button on %s", s.id, reason)
		}
	}
	s.smoother.Reset()
	s.click.Reset()
	s.selector.Reset()
	s.lastTimestamp = 0
}

// OnInit is called once when the sensor source starts.
func (s *Session) OnInit() {
	log.Printf("Session %s initialized", s.id)
}

// OnConnect is called when the sensor becomes available.
func (s *Session) OnConnect() {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.connected = true
	log.Printf("Session %s connected", s.id)
}

// OnFrame handles a frame, logging rather than returning failures.
func (s *Session) OnFrame(f *hand.Frame) {
	if err := s.HandleFrame(f); err != nil {
		s.mu.Lock()
		s.errors++
		s.mu.Unlock()
		log.Printf("Session %s: frame %d: %v", s.id, f.ID, err)
	}
}

// OnDisconnect is called when the sensor goes away. Any held button is
// released.
func (s *Session) OnDisconnect() {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.connected = false
	s.release("disconnect")
	log.Printf("Session %s disconnected", s.id)
}

// OnExit is called once when the sensor source stops. Any held button is
// released.
func (s *Session) OnExit() {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.connected = false
	s.release("exit")
	log.Printf("Session %s exited", s.id)
}

// SetEnabled pauses or resumes frame handling. Pausing releases any held
// button.
func (s *Session) SetEnabled(enabled bool) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.enabled && !enabled {
		s.release("pause")
	}
	s.enabled = enabled
}

// IsEnabled reports whether frames are being handled.
func (s *Session) IsEnabled() bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.enabled
}

// SetMode switches the pointing mode, releasing any held button.
func (s *Session) SetMode(m Mode) error {
	if _, err := ParseMode(string(m)); err != nil {
		return err
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	if s.cfg.Mode != m {
		s.release("mode change")
		s.cfg.Mode = m
		log.Printf("Session %s switched to %s mode", s.id, m)
	}
	return nil
}

// Mode returns the current pointing mode.
func (s *Session) Mode() Mode {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.cfg.Mode
}

// Configure replaces the tuning. Filter state is rebuilt and any held
// button is released.
func (s *Session) Configure(cfg Config) error {
	if err := cfg.Validate(); err != nil {
		return err
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	s.release("reconfigure")
	s.apply(cfg)
	return nil
}

// Config returns the current tuning.
func (s *Session) Config() Config {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.cfg
}

// Status returns a snapshot of the session.
func (s *Session) Status() Status {
	s.mu.Lock()
	defer s.mu.Unlock()

	st := Status{
		ID:        s.id,
		Mode:      s.cfg.Mode,
		Enabled:   s.enabled,
		Connected: s.connected,
		Frames:    s.frames,
		Hands:     s.lastHands,
		Pressed:   s.cursor.IsPressed(),
		Clicking:  s.click.State(),
		Errors:    s.errors,
	}
	if id, ok := s.selector.ActiveID(); ok {
		st.ActiveFinger = &id
	}
	return st
}
