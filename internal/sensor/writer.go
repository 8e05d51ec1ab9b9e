package sensor

import (
	"bufio"
	"encoding/json"
	"io"
	"log"
	"sync"

	"github.com/ayusman/mudra/internal/hand"
)

// FrameWriter is a Listener that records frames as JSON lines readable by
// LoadReplay. It flushes on disconnect and exit.
type FrameWriter struct {
	mu     sync.Mutex
	buf    *bufio.Writer
	enc    *json.Encoder
	frames int
	err    error
}

// NewFrameWriter records to w.
func NewFrameWriter(w io.Writer) *FrameWriter {
	buf := bufio.NewWriter(w)
	return &FrameWriter{buf: buf, enc: json.NewEncoder(buf)}
}

func (w *FrameWriter) OnInit()    {}
func (w *FrameWriter) OnConnect() {}

func (w *FrameWriter) OnFrame(f *hand.Frame) {
	w.mu.Lock()
	defer w.mu.Unlock()

	if w.err != nil {
		return
	}
	if err := w.enc.Encode(f); err != nil {
		w.err = err
		log.Printf("Recording stopped: %v", err)
		return
	}
	w.frames++
}

func (w *FrameWriter) OnDisconnect() { w.Flush() }
func (w *FrameWriter) OnExit()       { w.Flush() }

// Flush writes buffered frames to the underlying writer.
func (w *FrameWriter) Flush() error {
	w.mu.Lock()
	defer w.mu.Unlock()

	if w.err != nil {
		return w.err
	}
	if err := w.buf.Flush(); err != nil {
		w.err = err
	}
	return w.err
}

// Frames returns how many frames were recorded.
func (w *FrameWriter) Frames() int {
	w.mu.Lock()
	defer w.mu.Unlock()
	return w.frames
}

// Err returns the first write error.
func (w *FrameWriter) Err() error {
	w.mu.Lock()
	defer w.mu.Unlock()
	return w.err
}
