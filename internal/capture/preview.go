package capture

import (
	"fmt"
	"sync"

	"gocv.io/x/gocv"
)

// Preview keeps the most recent camera frame as JPEG for the MJPEG endpoint.
type Preview struct {
	mu    sync.RWMutex
	jpeg  []byte
	seq   uint64
	ready chan struct{}
}

// NewPreview creates an empty preview.
func NewPreview() *Preview {
	return &Preview{ready: make(chan struct{})}
}

// Update encodes frame and replaces the stored image.
func (p *Preview) Update(frame *gocv.Mat) error {
	if frame == nil || frame.Empty() {
		return ErrEmptyFrame
	}
	buf, err := gocv.IMEncode(gocv.JPEGFileExt, *frame)
	if err != nil {
		return fmt.Errorf("encode preview: %w", err)
	}
	defer buf.Close()

	data := make([]byte, buf.Len())
	copy(data, buf.GetBytes())
	p.Set(data)
	return nil
}

// Set stores an already encoded JPEG and wakes waiting readers.
func (p *Preview) Set(jpeg []byte) {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.jpeg = jpeg
	p.seq++
	close(p.ready)
	p.ready = make(chan struct{})
}

// Latest returns the stored JPEG, its sequence number, and a channel closed
// on the next Set.
func (p *Preview) Latest() ([]byte, uint64, <-chan struct{}) {
	p.mu.RLock()
	defer p.mu.RUnlock()
	return p.jpeg, p.seq, p.ready
}
