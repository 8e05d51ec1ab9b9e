package sensor

import (
	"bufio"
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"os"
	"time"

	"github.com/ayusman/mudra/internal/hand"
)

const maxLineSize = 1 << 20

// ReplaySource plays recorded frames back to a listener.
type ReplaySource struct {
	frames []*hand.Frame

	// Paced sleeps between frames according to their timestamps.
	Paced bool

	// Loop restarts from the first frame until ctx is cancelled.
	Loop bool
}

// NewReplaySource creates an unpaced, non-looping replay of frames.
func NewReplaySource(frames []*hand.Frame) *ReplaySource {
	return &ReplaySource{frames: frames}
}

// LoadReplay reads JSON-lines frames, one per line. Blank lines are skipped.
func LoadReplay(r io.Reader) ([]*hand.Frame, error) {
	scanner := bufio.NewScanner(r)
	scanner.Buffer(make([]byte, 0, 64*1024), maxLineSize)

	var frames []*hand.Frame
	line := 0
	for scanner.Scan() {
		line++
		data := bytes.TrimSpace(scanner.Bytes())
		if len(data) == 0 {
			continue
		}
		var f hand.Frame
		if err := json.Unmarshal(data, &f); err != nil {
			return nil, fmt.Errorf("line %d: %w", line, err)
		}
		frames = append(frames, &f)
	}
	if err := scanner.Err(); err != nil {
		return nil, fmt.Errorf("read replay: %w", err)
	}
	return frames, nil
}

// LoadReplayFile opens a recording written by FrameWriter.
func LoadReplayFile(path string) (*ReplaySource, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("open replay: %w", err)
	}
	defer f.Close()

	frames, err := LoadReplay(f)
	if err != nil {
		return nil, fmt.Errorf("load %s: %w", path, err)
	}
	if len(frames) == 0 {
		return nil, fmt.Errorf("load %s: %w", path, ErrNoFrames)
	}
	return NewReplaySource(frames), nil
}

// Len returns the number of frames in one pass.
func (s *ReplaySource) Len() int {
	return len(s.frames)
}

// Run delivers init, connect, every frame, disconnect and exit. Cancelling
// ctx stops between frames; disconnect and exit are still delivered.
func (s *ReplaySource) Run(ctx context.Context, l Listener) error {
	if len(s.frames) == 0 {
		return ErrNoFrames
	}

	l.OnInit()
	l.OnConnect()
	defer func() {
		l.OnDisconnect()
		l.OnExit()
	}()

	for {
		var prev int64
		for i, f := range s.frames {
			if s.Paced && i > 0 && f.Timestamp > prev {
				wait := time.Duration(f.Timestamp-prev) * time.Microsecond
				select {
				case <-ctx.Done():
					return nil
				case <-time.After(wait):
				}
			} else if ctx.Err() != nil {
				return nil
			}
			prev = f.Timestamp
			l.OnFrame(f)
		}
		if !s.Loop {
			return nil
		}
	}
}
