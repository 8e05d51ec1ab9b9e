package hand

import (
	"gonum.org/v1/gonum/spatial/r3"
)

// InteractionBox is the axis-aligned region above the sensor in which hand
// positions map onto the unit cube.
type InteractionBox struct {
	Center r3.Vec `json:"center"`
	Size   r3.Vec `json:"size"`
}

// DefaultInteractionBox returns a box roughly matching the comfortable
// working volume of a desktop hand tracker.
func DefaultInteractionBox() InteractionBox {
	return InteractionBox{
		Center: r3.Vec{X: 0, Y: 200, Z: 0},
		Size:   r3.Vec{X: 240, Y: 240, Z: 150},
	}
}

// Normalize maps a sensor-space position into [0,1] on each axis, with the
// box center at 0.5. When clamp is set, results outside the box are pinned
// to its faces. A zero-sized axis normalizes to 0.5.
func (b InteractionBox) Normalize(p r3.Vec, clamp bool) r3.Vec {
	n := r3.Vec{
		X: normalizeAxis(p.X, b.Center.X, b.Size.X),
		Y: normalizeAxis(p.Y, b.Center.Y, b.Size.Y),
		Z: normalizeAxis(p.Z, b.Center.Z, b.Size.Z),
	}
	if clamp {
		n.X = clamp01(n.X)
		n.Y = clamp01(n.Y)
		n.Z = clamp01(n.Z)
	}
	return n
}

// Denormalize is the inverse of Normalize for unclamped values.
func (b InteractionBox) Denormalize(n r3.Vec) r3.Vec {
	return r3.Vec{
		X: b.Center.X + (n.X-0.5)*b.Size.X,
		Y: b.Center.Y + (n.Y-0.5)*b.Size.Y,
		Z: b.Center.Z + (n.Z-0.5)*b.Size.Z,
	}
}

func normalizeAxis(v, center, size float64) float64 {
	if size <= 0 {
		return 0.5
	}
	return (v-center)/size + 0.5
}

func clamp01(v float64) float64 {
	switch {
	case v < 0:
		return 0
	case v > 1:
		return 1
	default:
		return v
	}
}

// Frame is one immutable snapshot from the sensor.
type Frame struct {
	ID        int64          `json:"id"`
	Timestamp int64          `json:"timestamp"` // microseconds
	Hands     []Hand         `json:"hands"`
	Box       InteractionBox `json:"interaction_box"`
}

// Leftmost returns the hand whose palm has the smallest x.
func (f *Frame) Leftmost() (Hand, bool) {
	if len(f.Hands) == 0 {
		return Hand{}, false
	}
	best := 0
	for i := 1; i < len(f.Hands); i++ {
		if f.Hands[i].PalmPosition.X < f.Hands[best].PalmPosition.X {
			best = i
		}
	}
	return f.Hands[best], true
}

// Rightmost returns the hand whose palm has the largest x. On a tie the
// later hand wins, so Leftmost and Rightmost differ whenever there are at
// least two hands.
func (f *Frame) Rightmost() (Hand, bool) {
	if len(f.Hands) == 0 {
		return Hand{}, false
	}
	best := 0
	for i := 1; i < len(f.Hands); i++ {
		if f.Hands[i].PalmPosition.X >= f.Hands[best].PalmPosition.X {
			best = i
		}
	}
	return f.Hands[best], true
}
