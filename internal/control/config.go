// Package control turns hand-tracking frames into cursor commands.
package control

import (
	"errors"
	"fmt"

	"github.com/ayusman/mudra/internal/filter"
)

// Mode selects how a pointing hand drives the cursor.
type Mode string

const (
	// ModePalm points with the stabilized palm position.
	ModePalm Mode = "palm"
	// ModeFinger points with the tip of the tracked control finger.
	ModeFinger Mode = "finger"
	// ModeScroll scrolls with the velocity of the foremost fingertip.
	ModeScroll Mode = "scroll"
)

// Modes lists every mode in menu order.
var Modes = []Mode{ModePalm, ModeFinger, ModeScroll}

// ErrUnknownMode is returned by ParseMode for unrecognized names.
var ErrUnknownMode = errors.New("unknown mode")

// ParseMode converts a mode name.
func ParseMode(s string) (Mode, error) {
	for _, m := range Modes {
		if string(m) == s {
			return m, nil
		}
	}
	return "", fmt.Errorf("%w: %q", ErrUnknownMode, s)
}

// Config holds the tuning of a Session.
type Config struct {
	// ScreenWidth and ScreenHeight define the move coordinate space in
	// pixels.
	ScreenWidth  float64
	ScreenHeight float64

	// Smooth enables the adaptive position smoother.
	Smooth   bool
	Smoother filter.SmootherConfig

	// DebounceThreshold is the number of consecutive frames a click signal
	// must persist before the click state flips.
	DebounceThreshold int

	// FingerGraceFrames is how many frames the control finger may vanish
	// before another finger takes over for good.
	FingerGraceFrames int

	Mode Mode
}

// DefaultConfig returns the stock tuning for a 1920x1080 screen.
func DefaultConfig() Config {
	return Config{
		ScreenWidth:       1920,
		ScreenHeight:      1080,
		Smooth:            true,
		Smoother:          filter.DefaultSmootherConfig(),
		DebounceThreshold: 5,
		FingerGraceFrames: 0,
		Mode:              ModePalm,
	}
}

// Validate checks the configuration for values the session cannot use.
func (c Config) Validate() error {
	var errs []error
	if c.ScreenWidth <= 0 || c.ScreenHeight <= 0 {
		errs = append(errs, fmt.Errorf("screen resolution must be positive, got %vx%v", c.ScreenWidth, c.ScreenHeight))
	}
	if c.Smoother.Aggressiveness < 1 {
		errs = append(errs, fmt.Errorf("smooth aggressiveness must be at least 1, got %v", c.Smoother.Aggressiveness))
	}
	if c.Smoother.Falloff < 1 {
		errs = append(errs, fmt.Errorf("smooth falloff must be at least 1, got %v", c.Smoother.Falloff))
	}
	if c.Smoother.Radius <= 0 {
		errs = append(errs, fmt.Errorf("smooth radius must be positive, got %v", c.Smoother.Radius))
	}
	if c.DebounceThreshold < 1 {
		errs = append(errs, fmt.Errorf("debounce threshold must be at least 1, got %d", c.DebounceThreshold))
	}
	if c.FingerGraceFrames < 0 {
		errs = append(errs, fmt.Errorf("finger grace frames must not be negative, got %d", c.FingerGraceFrames))
	}
	if _, err := ParseMode(string(c.Mode)); err != nil {
		errs = append(errs, err)
	}
	return errors.Join(errs...)
}
