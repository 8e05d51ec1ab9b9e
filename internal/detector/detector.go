package detector

import (
	"time"

	"gocv.io/x/gocv"
)

// Detector finds hands in a video frame.
type Detector interface {
	// Detect returns the hands found in frame, or an empty slice.
	Detect(frame *gocv.Mat) ([]HandLandmarks, error)

	// Close releases any resources held by the detector.
	Close() error
}

// Config holds options for hand detection.
type Config struct {
	// MaxHands is the maximum number of hands to report.
	MaxHands int

	// MinConfidence drops detections scoring below it (0.0-1.0).
	MinConfidence float64

	// ScriptPath overrides the location of the MediaPipe service script.
	ScriptPath string

	// Python overrides the interpreter used to run the script.
	Python string

	// IdleTimeout stops the service process after this long without a
	// request. Zero keeps it running.
	IdleTimeout time.Duration
}

// DefaultConfig returns a Config suited to two-handed pointer control.
func DefaultConfig() Config {
	return Config{
		MaxHands:      2,
		MinConfidence: 0.5,
		IdleTimeout:   30 * time.Second,
	}
}
