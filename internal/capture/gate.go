package capture

import (
	"sync"
	"time"
)

// Sampling rates used by the gate.
const (
	DefaultIdleFPS     = 5
	DefaultActiveFPS   = 30
	DefaultIdleTimeout = 2 * time.Second
)

// GateConfig tunes a MotionGate.
type GateConfig struct {
	IdleFPS     int
	ActiveFPS   int
	IdleTimeout time.Duration
}

// DefaultGateConfig samples at 5 fps while nothing moves and at 30 fps for
// two seconds after the last activity.
func DefaultGateConfig() GateConfig {
	return GateConfig{
		IdleFPS:     DefaultIdleFPS,
		ActiveFPS:   DefaultActiveFPS,
		IdleTimeout: DefaultIdleTimeout,
	}
}

// MotionGate switches between an idle and an active sampling rate. Motion or
// a visible hand makes it active; it falls back to idle once IdleTimeout has
// passed without either.
type MotionGate struct {
	cfg GateConfig

	mu         sync.Mutex
	active     bool
	lastActive time.Time
}

// NewMotionGate creates an idle gate. Non-positive settings take defaults.
func NewMotionGate(cfg GateConfig) *MotionGate {
	def := DefaultGateConfig()
	if cfg.IdleFPS <= 0 {
		cfg.IdleFPS = def.IdleFPS
	}
	if cfg.ActiveFPS <= 0 {
		cfg.ActiveFPS = def.ActiveFPS
	}
	if cfg.IdleTimeout <= 0 {
		cfg.IdleTimeout = def.IdleTimeout
	}
	return &MotionGate{cfg: cfg}
}

// Observe records whether there was activity at now and reports whether the
// gate changed between idle and active.
func (g *MotionGate) Observe(activity bool, now time.Time) bool {
	g.mu.Lock()
	defer g.mu.Unlock()

	was := g.active
	if activity {
		g.active = true
		g.lastActive = now
	} else if g.active && now.Sub(g.lastActive) >= g.cfg.IdleTimeout {
		g.active = false
	}
	return g.active != was
}

// Active reports whether the gate is sampling at the active rate.
func (g *MotionGate) Active() bool {
	g.mu.Lock()
	defer g.mu.Unlock()
	return g.active
}

// FPS returns the current sampling rate.
func (g *MotionGate) FPS() int {
	g.mu.Lock()
	defer g.mu.Unlock()
	if g.active {
		return g.cfg.ActiveFPS
	}
	return g.cfg.IdleFPS
}

// Interval returns the delay between samples at the current rate.
func (g *MotionGate) Interval() time.Duration {
	return time.Second / time.Duration(g.FPS())
}

// Reset returns the gate to idle.
func (g *MotionGate) Reset() {
	g.mu.Lock()
	defer g.mu.Unlock()
	g.active = false
	g.lastActive = time.Time{}
}
