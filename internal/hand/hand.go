// Package hand defines the frame, hand and finger records produced by a
// hand-tracking sensor.
//
// Positions are in sensor space, millimetres: x grows to the user's right,
// y grows upward and z grows toward the user. Smaller z is therefore closer
// to the screen.
package hand

import (
	"sort"

	"gonum.org/v1/gonum/spatial/r3"
)

// FingerType identifies a digit on a hand.
type FingerType int

// Finger types, thumb first.
const (
	Thumb FingerType = iota
	Index
	Middle
	Ring
	Pinky
	NumFingers
)

var fingerNames = [...]string{"thumb", "index", "middle", "ring", "pinky"}

func (t FingerType) String() string {
	if t < 0 || t >= NumFingers {
		return "unknown"
	}
	return fingerNames[t]
}

// Finger is a single tracked finger. ID is stable for as long as the sensor
// keeps tracking the same physical finger.
type Finger struct {
	ID          int        `json:"id"`
	Type        FingerType `json:"type"`
	TipPosition r3.Vec     `json:"tip_position"`
	TipVelocity r3.Vec     `json:"tip_velocity"` // mm/s
	Extended    bool       `json:"extended"`
}

// Hand is a single tracked hand.
type Hand struct {
	ID                     int      `json:"id"`
	PalmPosition           r3.Vec   `json:"palm_position"`
	StabilizedPalmPosition r3.Vec   `json:"stabilized_palm_position"`
	Fingers                []Finger `json:"fingers"`
}

// ExtendedCount returns how many of the hand's fingers are extended.
func (h Hand) ExtendedCount() int {
	n := 0
	for _, f := range h.Fingers {
		if f.Extended {
			n++
		}
	}
	return n
}

// ExtendedFingers returns the extended fingers in their original order.
func (h Hand) ExtendedFingers() []Finger {
	out := make([]Finger, 0, len(h.Fingers))
	for _, f := range h.Fingers {
		if f.Extended {
			out = append(out, f)
		}
	}
	return out
}

// Finger looks up a finger by id.
func (h Hand) Finger(id int) (Finger, bool) {
	for _, f := range h.Fingers {
		if f.ID == id {
			return f, true
		}
	}
	return Finger{}, false
}

// SortByDistanceFromScreen returns a copy of fingers ordered closest to the
// screen first. Fingers at equal depth keep their relative order.
func SortByDistanceFromScreen(fingers []Finger) []Finger {
	sorted := make([]Finger, len(fingers))
	copy(sorted, fingers)
	sort.SliceStable(sorted, func(i, j int) bool {
		return sorted[i].TipPosition.Z < sorted[j].TipPosition.Z
	})
	return sorted
}
