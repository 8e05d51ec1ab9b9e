package gesture

import (
	"math"

	"gonum.org/v1/gonum/spatial/r3"
)

// Scroll curve constants. A fingertip velocity v in mm/s maps to
// -((v + copysign(ScrollBias, v)) / ScrollDivisor)^3 / ScrollScale.
const (
	ScrollBias    = 300.0
	ScrollDivisor = 150.0
	ScrollScale   = 8.0
)

// VelocityToScroll maps a fingertip velocity component to a scroll delta.
// The cubic curve keeps slow drift small and lets fast flicks scroll far.
// The mapping is odd, including at signed zero: +0 maps to -1 and -0 to +1.
func VelocityToScroll(v float64) float64 {
	x := (v + math.Copysign(ScrollBias, v)) / ScrollDivisor
	return -(x * x * x) / ScrollScale
}

// ScrollDelta maps the horizontal and vertical components of a fingertip
// velocity to scroll deltas.
func ScrollDelta(velocity r3.Vec) (dx, dy float64) {
	return VelocityToScroll(velocity.X), VelocityToScroll(velocity.Y)
}
