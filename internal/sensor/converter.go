package sensor

import (
	"time"

	"gonum.org/v1/gonum/spatial/r3"

	"github.com/ayusman/mudra/internal/detector"
	"github.com/ayusman/mudra/internal/hand"
)

// ConverterConfig maps normalized camera landmarks into sensor space.
type ConverterConfig struct {
	// Mirror flips image x so that a webcam facing the user reports x
	// growing to the user's right.
	Mirror bool

	// Width and Height are the millimetres spanned by the full image.
	Width  float64
	Height float64

	// DepthScale converts landmark z into millimetres.
	DepthScale float64

	// Stabilize is the blend weight of the stabilized palm position, in
	// (0,1]. 1 disables stabilization.
	Stabilize float64

	Box hand.InteractionBox
}

// DefaultConverterConfig spans the default interaction box with the full
// camera image.
func DefaultConverterConfig() ConverterConfig {
	box := hand.DefaultInteractionBox()
	return ConverterConfig{
		Mirror:     true,
		Width:      box.Size.X,
		Height:     box.Size.Y,
		DepthScale: 500,
		Stabilize:  0.5,
		Box:        box,
	}
}

// Converter turns detector landmarks into hand frames. It keeps the previous
// frame to derive tip velocities and the stabilized palm, so one Converter
// serves one stream.
type Converter struct {
	cfg ConverterConfig

	nextID   int64
	prevAt   time.Time
	prevTips map[int]r3.Vec
	stable   map[int]r3.Vec
}

// NewConverter creates a converter. Invalid settings fall back to defaults.
func NewConverter(cfg ConverterConfig) *Converter {
	def := DefaultConverterConfig()
	if cfg.Width <= 0 {
		cfg.Width = def.Width
	}
	if cfg.Height <= 0 {
		cfg.Height = def.Height
	}
	if cfg.DepthScale <= 0 {
		cfg.DepthScale = def.DepthScale
	}
	if cfg.Stabilize <= 0 || cfg.Stabilize > 1 {
		cfg.Stabilize = def.Stabilize
	}
	if cfg.Box.Size == (r3.Vec{}) {
		cfg.Box = def.Box
	}
	return &Converter{
		cfg:      cfg,
		prevTips: make(map[int]r3.Vec),
		stable:   make(map[int]r3.Vec),
	}
}

// Position maps one normalized landmark into sensor space.
func (c *Converter) Position(p detector.Point3D) r3.Vec {
	x := (p.X - 0.5) * c.cfg.Width
	if c.cfg.Mirror {
		x = -x
	}
	return r3.Vec{
		X: c.cfg.Box.Center.X + x,
		Y: c.cfg.Box.Center.Y + (0.5-p.Y)*c.cfg.Height,
		Z: c.cfg.Box.Center.Z + p.Z*c.cfg.DepthScale,
	}
}

// Convert builds the frame for landmarks detected at at.
func (c *Converter) Convert(landmarks []detector.HandLandmarks, at time.Time) *hand.Frame {
	c.nextID++
	f := &hand.Frame{
		ID:        c.nextID,
		Timestamp: at.UnixMicro(),
		Hands:     make([]hand.Hand, 0, len(landmarks)),
		Box:       c.cfg.Box,
	}

	var dt float64
	if !c.prevAt.IsZero() {
		dt = at.Sub(c.prevAt).Seconds()
	}

	tips := make(map[int]r3.Vec)
	stable := make(map[int]r3.Vec)
	for i, slot := range assignSlots(landmarks) {
		lm := &landmarks[i]
		id := slot + 1
		palm := c.Position(lm.Palm())

		s := palm
		if prev, ok := c.stable[id]; ok {
			s = r3.Add(prev, r3.Scale(c.cfg.Stabilize, r3.Sub(palm, prev)))
		}
		stable[id] = s

		h := hand.Hand{
			ID:                     id,
			PalmPosition:           palm,
			StabilizedPalmPosition: s,
			Fingers:                make([]hand.Finger, 0, hand.NumFingers),
		}
		for t := hand.Thumb; t < hand.NumFingers; t++ {
			fid := id*10 + int(t)
			tip := c.Position(lm.Points[detector.FingerTip[t]])
			var vel r3.Vec
			if prev, ok := c.prevTips[fid]; ok && dt > 0 {
				vel = r3.Scale(1/dt, r3.Sub(tip, prev))
			}
			tips[fid] = tip
			h.Fingers = append(h.Fingers, hand.Finger{
				ID:          fid,
				Type:        t,
				TipPosition: tip,
				TipVelocity: vel,
				Extended:    lm.IsExtended(int(t)),
			})
		}
		f.Hands = append(f.Hands, h)
	}

	c.prevAt = at
	c.prevTips = tips
	c.stable = stable
	return f
}

// Reset forgets the previous frame. Frame ids keep increasing.
func (c *Converter) Reset() {
	c.prevAt = time.Time{}
	c.prevTips = make(map[int]r3.Vec)
	c.stable = make(map[int]r3.Vec)
}

// assignSlots gives each hand a slot: 0 for a left hand, 1 for a right hand,
// otherwise the lowest free slot. Slots keep ids stable while the detector
// reorders hands by score.
func assignSlots(landmarks []detector.HandLandmarks) []int {
	slots := make([]int, len(landmarks))
	used := make(map[int]bool)
	pending := make([]int, 0, len(landmarks))

	for i, lm := range landmarks {
		want := -1
		switch lm.Handedness {
		case "Left":
			want = 0
		case "Right":
			want = 1
		}
		if want < 0 || used[want] {
			pending = append(pending, i)
			continue
		}
		slots[i] = want
		used[want] = true
	}
	next := 0
	for _, i := range pending {
		for used[next] {
			next++
		}
		slots[i] = next
		used[next] = true
	}
	return slots
}
