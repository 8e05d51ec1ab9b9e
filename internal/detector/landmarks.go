// Package detector finds hands in camera frames and reports their 21-point
// landmark skeleton.
package detector

import (
	"gonum.org/v1/gonum/spatial/r3"
)

// Hand landmark indices following MediaPipe convention.
// See: https://developers.google.com/mediapipe/solutions/vision/hand_landmarker
const (
	Wrist        = 0
	ThumbCMC     = 1
	ThumbMCP     = 2
	ThumbIP      = 3
	ThumbTip     = 4
	IndexMCP     = 5
	IndexPIP     = 6
	IndexDIP     = 7
	IndexTip     = 8
	MiddleMCP    = 9
	MiddlePIP    = 10
	MiddleDIP    = 11
	MiddleTip    = 12
	RingMCP      = 13
	RingPIP      = 14
	RingDIP      = 15
	RingTip      = 16
	PinkyMCP     = 17
	PinkyPIP     = 18
	PinkyDIP     = 19
	PinkyTip     = 20
	NumLandmarks = 21
)

// NumFingers is the number of digits on a hand.
const NumFingers = 5

// FingerBase and FingerTip give the knuckle and tip landmark of each digit,
// thumb first.
var (
	FingerBase = [NumFingers]int{ThumbMCP, IndexMCP, MiddleMCP, RingMCP, PinkyMCP}
	FingerTip  = [NumFingers]int{ThumbTip, IndexTip, MiddleTip, RingTip, PinkyTip}
)

// ExtensionRatio is how much farther from the wrist than its knuckle a
// fingertip must be for the finger to count as extended.
const ExtensionRatio = 1.5

// Point3D is a landmark position. X and Y are normalized image coordinates
// in [0,1] with Y growing downward; Z is depth relative to the wrist, more
// negative toward the camera, on roughly the same scale as X.
type Point3D struct {
	X float64 `json:"x"`
	Y float64 `json:"y"`
	Z float64 `json:"z"`
}

// Vec converts the point to a gonum vector.
func (p Point3D) Vec() r3.Vec {
	return r3.Vec{X: p.X, Y: p.Y, Z: p.Z}
}

// Distance returns the Euclidean distance between two points.
func Distance(a, b Point3D) float64 {
	return r3.Norm(r3.Sub(a.Vec(), b.Vec()))
}

// HandLandmarks is one detected hand.
type HandLandmarks struct {
	Points     [NumLandmarks]Point3D `json:"points"`
	Handedness string                `json:"handedness"` // "Left" or "Right"
	Score      float64               `json:"score"`
}

// Palm returns the centroid of the wrist and the four finger knuckles.
func (h *HandLandmarks) Palm() Point3D {
	idx := [...]int{Wrist, IndexMCP, MiddleMCP, RingMCP, PinkyMCP}
	var sum r3.Vec
	for _, i := range idx {
		sum = r3.Add(sum, h.Points[i].Vec())
	}
	c := r3.Scale(1/float64(len(idx)), sum)
	return Point3D{X: c.X, Y: c.Y, Z: c.Z}
}

// IsExtended reports whether finger (0 = thumb .. 4 = pinky) is straight,
// judged by how far its tip reaches from the wrist compared to its knuckle.
func (h *HandLandmarks) IsExtended(finger int) bool {
	if finger < 0 || finger >= NumFingers {
		return false
	}
	wrist := h.Points[Wrist]
	base := Distance(wrist, h.Points[FingerBase[finger]])
	tip := Distance(wrist, h.Points[FingerTip[finger]])
	if base < 1e-9 {
		return false
	}
	return tip > ExtensionRatio*base
}

// ExtendedCount returns the number of extended fingers.
func (h *HandLandmarks) ExtendedCount() int {
	n := 0
	for f := 0; f < NumFingers; f++ {
		if h.IsExtended(f) {
			n++
		}
	}
	return n
}

// Translate returns a copy of the hand shifted by dx, dy in image space.
func (h *HandLandmarks) Translate(dx, dy float64) HandLandmarks {
	out := *h
	for i := range out.Points {
		out.Points[i].X += dx
		out.Points[i].Y += dy
	}
	return out
}
