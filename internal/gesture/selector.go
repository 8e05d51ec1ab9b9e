// Package gesture implements the per-frame building blocks that interpret a
// tracked hand: which finger drives the pointer, how finger speed maps to
// scrolling, and whether the hand is signalling a click.
package gesture

import (
	"github.com/ayusman/mudra/internal/hand"
)

// Choose picks the control finger from candidates. The previously active
// finger wins whenever it is still present; otherwise the finger closest to
// the screen is chosen. candidates must not be empty.
func Choose(candidates []hand.Finger, previousID int, hasPrevious bool) hand.Finger {
	if hasPrevious {
		for _, f := range candidates {
			if f.ID == previousID {
				return f
			}
		}
	}
	return hand.SortByDistanceFromScreen(candidates)[0]
}

// Selector tracks the active control finger across frames.
//
// When the active finger vanishes the closest finger is used in its place,
// but the active id is only replaced once it has been missing for more than
// grace consecutive selections. With grace 0 the replacement is immediate.
type Selector struct {
	grace     int
	activeID  int
	hasActive bool
	misses    int
}

// NewSelector creates a Selector with the given grace window in frames.
func NewSelector(grace int) *Selector {
	return &Selector{grace: max(grace, 0)}
}

// Select returns the control finger for this frame. It reports false, and
// leaves its state untouched, when there are no candidates.
func (s *Selector) Select(candidates []hand.Finger) (hand.Finger, bool) {
	if len(candidates) == 0 {
		return hand.Finger{}, false
	}

	chosen := Choose(candidates, s.activeID, s.hasActive)
	if s.hasActive {
		if chosen.ID == s.activeID {
			s.misses = 0
			return chosen, true
		}
		s.misses++
		if s.misses <= s.grace {
			return chosen, true
		}
	}

	s.activeID = chosen.ID
	s.hasActive = true
	s.misses = 0
	return chosen, true
}

// ActiveID returns the remembered finger id.
func (s *Selector) ActiveID() (int, bool) {
	return s.activeID, s.hasActive
}

// Reset forgets the active finger.
func (s *Selector) Reset() {
	s.activeID = 0
	s.hasActive = false
	s.misses = 0
}
