package capture

import (
	"image"
	"sync"

	"gocv.io/x/gocv"
)

const (
	blurKernel    = 21
	pixelDiffCut  = 25
	defaultMotion = 1.0
)

// MotionDetector compares each frame with the previous one and reports the
// percentage of pixels that changed. It feeds the MotionGate.
type MotionDetector struct {
	mu        sync.Mutex
	threshold float64
	prev      gocv.Mat
	primed    bool
}

// NewMotionDetector creates a detector that reports motion once more than
// threshold percent of the pixels change. Non-positive thresholds use 1%.
func NewMotionDetector(threshold float64) *MotionDetector {
	if threshold <= 0 {
		threshold = defaultMotion
	}
	return &MotionDetector{threshold: threshold, prev: gocv.NewMat()}
}

// Detect returns whether frame differs enough from the last one, and the
// changed percentage. The first frame after construction or Reset only
// primes the baseline.
func (m *MotionDetector) Detect(frame *gocv.Mat) (bool, float64) {
	m.mu.Lock()
	defer m.mu.Unlock()

	if frame == nil || frame.Empty() {
		return false, 0
	}

	cur := grayBlur(frame)
	defer cur.Close()

	if !m.primed {
		cur.CopyTo(&m.prev)
		m.primed = true
		return false, 0
	}

	diff := gocv.NewMat()
	defer diff.Close()
	gocv.AbsDiff(cur, m.prev, &diff)
	gocv.Threshold(diff, &diff, pixelDiffCut, 255, gocv.ThresholdBinary)

	changed := 100 * float64(gocv.CountNonZero(diff)) / float64(diff.Rows()*diff.Cols())
	cur.CopyTo(&m.prev)
	return changed > m.threshold, changed
}

func grayBlur(frame *gocv.Mat) gocv.Mat {
	gray := gocv.NewMat()
	if frame.Channels() > 1 {
		gocv.CvtColor(*frame, &gray, gocv.ColorBGRToGray)
	} else {
		frame.CopyTo(&gray)
	}
	gocv.GaussianBlur(gray, &gray, image.Pt(blurKernel, blurKernel), 0, 0, gocv.BorderDefault)
	return gray
}

// Threshold returns the current change percentage threshold.
func (m *MotionDetector) Threshold() float64 {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.threshold
}

// SetThreshold ignores non-positive values.
func (m *MotionDetector) SetThreshold(threshold float64) {
	if threshold <= 0 {
		return
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	m.threshold = threshold
}

// Reset drops the baseline so the next frame primes it again.
func (m *MotionDetector) Reset() {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.drop()
}

// Close releases the baseline Mat. The detector stays usable.
func (m *MotionDetector) Close() {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.drop()
}

func (m *MotionDetector) drop() {
	if !m.prev.Empty() {
		m.prev.Close()
		m.prev = gocv.NewMat()
	}
	m.primed = false
}
