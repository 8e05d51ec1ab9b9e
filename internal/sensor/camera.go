package sensor

import (
	"context"
	"errors"
	"fmt"
	"log"
	"time"

	"github.com/ayusman/mudra/internal/capture"
	"github.com/ayusman/mudra/internal/detector"
)

// DefaultMaxReadFailures is how many consecutive failed reads end a camera
// run.
const DefaultMaxReadFailures = 30

// CameraSourceConfig tunes a CameraSource.
type CameraSourceConfig struct {
	Gate            capture.GateConfig
	MotionThreshold float64
	Converter       ConverterConfig
	MaxReadFailures int
}

// DefaultCameraSourceConfig returns the defaults of every stage.
func DefaultCameraSourceConfig() CameraSourceConfig {
	return CameraSourceConfig{
		Gate:            capture.DefaultGateConfig(),
		MotionThreshold: 1.0,
		Converter:       DefaultConverterConfig(),
		MaxReadFailures: DefaultMaxReadFailures,
	}
}

// CameraSource reads a camera, runs hand detection while the motion gate is
// active and converts the landmarks into frames. While idle it samples slowly
// and only watches for motion.
type CameraSource struct {
	camera   capture.Camera
	detector detector.Detector
	motion   *capture.MotionDetector
	gate     *capture.MotionGate
	conv     *Converter
	preview  *capture.Preview

	maxFailures int
	now         func() time.Time
}

// NewCameraSource wires camera and detector together.
func NewCameraSource(cam capture.Camera, det detector.Detector, cfg CameraSourceConfig) *CameraSource {
	if cfg.MaxReadFailures <= 0 {
		cfg.MaxReadFailures = DefaultMaxReadFailures
	}
	return &CameraSource{
		camera:      cam,
		detector:    det,
		motion:      capture.NewMotionDetector(cfg.MotionThreshold),
		gate:        capture.NewMotionGate(cfg.Gate),
		conv:        NewConverter(cfg.Converter),
		maxFailures: cfg.MaxReadFailures,
		now:         time.Now,
	}
}

// SetPreview publishes every captured frame to p.
func (s *CameraSource) SetPreview(p *capture.Preview) {
	s.preview = p
}

// Run opens the camera and streams frames until ctx is cancelled or the
// camera keeps failing.
func (s *CameraSource) Run(ctx context.Context, l Listener) error {
	l.OnInit()
	defer l.OnExit()

	if err := s.camera.Open(); err != nil {
		return fmt.Errorf("open camera: %w", err)
	}
	defer s.camera.Close()
	defer s.motion.Close()

	s.gate.Reset()
	s.conv.Reset()
	s.camera.SetFPS(s.gate.FPS())

	l.OnConnect()
	defer l.OnDisconnect()

	ticker := time.NewTicker(s.gate.Interval())
	defer ticker.Stop()

	failures := 0
	for {
		select {
		case <-ctx.Done():
			return nil
		case <-ticker.C:
		}

		if err := s.step(l, ticker); err != nil {
			if errors.Is(err, errDetect) {
				log.Printf("Hand detection failed: %v", err)
				failures = 0
				continue
			}
			failures++
			log.Printf("Error reading frame: %v", err)
			if failures >= s.maxFailures {
				return fmt.Errorf("camera stopped after %d failed reads: %w", failures, err)
			}
			continue
		}
		failures = 0
	}
}

var errDetect = errors.New("detect hands")

// step processes one camera frame. Motion switches the gate to the active
// rate; visible hands keep it there.
func (s *CameraSource) step(l Listener, ticker *time.Ticker) error {
	frame, err := s.camera.ReadFrame()
	if err != nil {
		return err
	}
	defer frame.Close()

	if s.preview != nil {
		if err := s.preview.Update(frame); err != nil {
			log.Printf("Preview update failed: %v", err)
		}
	}

	moved, _ := s.motion.Detect(frame)
	if s.gate.Observe(moved, s.now()) {
		s.switchRate(ticker)
	}
	if !s.gate.Active() || s.detector == nil {
		return nil
	}

	hands, err := s.detector.Detect(frame)
	if err != nil {
		return fmt.Errorf("%w: %v", errDetect, err)
	}
	if len(hands) > 0 {
		s.gate.Observe(true, s.now())
	}

	l.OnFrame(s.conv.Convert(hands, s.now()))
	return nil
}

func (s *CameraSource) switchRate(ticker *time.Ticker) {
	s.camera.SetFPS(s.gate.FPS())
	ticker.Reset(s.gate.Interval())
	if s.gate.Active() {
		log.Println("Switched to active mode")
	} else {
		s.conv.Reset()
		log.Println("Switched to idle mode")
	}
}
