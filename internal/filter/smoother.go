// Package filter provides the temporal filters that turn noisy per-frame
// tracking signals into stable control signals.
package filter

import (
	"math"
	"time"

	"gonum.org/v1/gonum/spatial/r2"
)

// SmootherConfig holds the tuning of an adaptive moving average.
type SmootherConfig struct {
	// Aggressiveness sets the weight 1/Aggressiveness given to a new sample
	// when it lies close to the previous output. Values below 1 are treated
	// as 1, which disables smoothing.
	Aggressiveness float64

	// Falloff sharpens the transition from heavy to light smoothing as the
	// jump grows. Values below 1 are treated as 1.
	Falloff float64

	// Radius is the jump size, in output units, at which the blend weight is
	// half way between 1/Aggressiveness and 1.
	Radius float64

	// NominalInterval is the frame interval the weights are tuned for. When
	// set, Smooth rescales the weight by the actual frame interval.
	NominalInterval time.Duration
}

// DefaultSmootherConfig returns the tuning used for pointer control.
func DefaultSmootherConfig() SmootherConfig {
	return SmootherConfig{
		Aggressiveness: 8,
		Falloff:        1.3,
		Radius:         40,
	}
}

// SteadySmootherConfig trades latency for a calmer pointer.
func SteadySmootherConfig() SmootherConfig {
	return SmootherConfig{
		Aggressiveness: 16,
		Falloff:        1.6,
		Radius:         60,
	}
}

// ResponsiveSmootherConfig follows the hand closely at the cost of jitter.
func ResponsiveSmootherConfig() SmootherConfig {
	return SmootherConfig{
		Aggressiveness: 4,
		Falloff:        1.1,
		Radius:         25,
	}
}

// Smoother is an exponential moving average whose blend weight grows with
// the distance between the new sample and the previous output. Small jumps
// (sensor jitter) are damped heavily while large deliberate moves pass
// through almost unchanged.
//
// The output always lies on the segment between the previous output and the
// new sample, so it never overshoots.
type Smoother struct {
	cfg    SmootherConfig
	last   r2.Vec
	primed bool
}

// NewSmoother creates a Smoother with the given configuration.
func NewSmoother(cfg SmootherConfig) *Smoother {
	if cfg.Aggressiveness < 1 {
		cfg.Aggressiveness = 1
	}
	if cfg.Falloff < 1 {
		cfg.Falloff = 1
	}
	if cfg.Radius <= 0 {
		cfg.Radius = DefaultSmootherConfig().Radius
	}
	return &Smoother{cfg: cfg}
}

// Config returns the effective configuration.
func (s *Smoother) Config() SmootherConfig {
	return s.cfg
}

// Alpha returns the blend weight applied to a sample that is distance away
// from the previous output. It lies in [1/Aggressiveness, 1].
func (s *Smoother) Alpha(distance float64) float64 {
	base := 1 / s.cfg.Aggressiveness
	boost := math.Pow(math.Abs(distance)/s.cfg.Radius, s.cfg.Falloff)

	frac := 1.0
	if !math.IsInf(boost, 1) {
		frac = boost / (1 + boost)
	}
	return base + (1-base)*frac
}

// Smooth folds raw into the running average and returns the new output.
// The first sample after construction or Reset is returned unchanged. dt is
// the time since the previous sample; zero means one nominal interval.
func (s *Smoother) Smooth(raw r2.Vec, dt time.Duration) r2.Vec {
	if !s.primed {
		s.last = raw
		s.primed = true
		return raw
	}

	delta := r2.Sub(raw, s.last)
	alpha := s.Alpha(r2.Norm(delta))

	if s.cfg.NominalInterval > 0 && dt > 0 && alpha < 1 {
		steps := float64(dt) / float64(s.cfg.NominalInterval)
		alpha = 1 - math.Pow(1-alpha, steps)
	}

	s.last = r2.Add(s.last, r2.Scale(alpha, delta))
	return s.last
}

// Last returns the most recent output, if any.
func (s *Smoother) Last() (r2.Vec, bool) {
	return s.last, s.primed
}

// Reset forgets the running average.
func (s *Smoother) Reset() {
	s.last = r2.Vec{}
	s.primed = false
}
