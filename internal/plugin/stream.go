package plugin

import (
	"bufio"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"os"
	"os/exec"
	"sync"
	"time"
)

// ErrStreamClosed is returned by Send after Close.
var ErrStreamClosed = errors.New("plugin stream closed")

// ErrStreamTimeout is returned when a plugin does not answer in time. The
// process is killed and restarted on the next Send.
var ErrStreamTimeout = errors.New("plugin did not answer in time")

// Stream talks to a long-running plugin process, one JSON line per request
// and one JSON line per response. The process is started on first use and
// restarted after it fails.
type Stream struct {
	plugin  *Plugin
	timeout time.Duration

	mu      sync.Mutex
	cmd     *exec.Cmd
	stdin   io.WriteCloser
	stdout  *bufio.Reader
	started bool
	closed  bool
}

// NewStream creates a Stream for p without starting it. Each request must
// be answered within timeout; non-positive values select DefaultTimeout.
func NewStream(p *Plugin, timeout time.Duration) *Stream {
	if timeout <= 0 {
		timeout = DefaultTimeout
	}
	return &Stream{plugin: p, timeout: timeout}
}

// Send delivers req and waits for the matching response line.
func (s *Stream) Send(req *Request) (*Response, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.closed {
		return nil, ErrStreamClosed
	}
	if err := s.ensureStarted(); err != nil {
		return nil, err
	}

	line, err := json.Marshal(req)
	if err != nil {
		return nil, fmt.Errorf("marshal request: %w", err)
	}
	line = append(line, '\n')

	if _, err := s.stdin.Write(line); err != nil {
		s.shutdown()
		return nil, fmt.Errorf("write request: %w", err)
	}

	reply, err := s.readLine()
	if err != nil {
		return nil, err
	}

	var resp Response
	if err := json.Unmarshal(reply, &resp); err != nil {
		return nil, fmt.Errorf("parse plugin response: %w", err)
	}
	return &resp, nil
}

// Close stops the plugin process.
func (s *Stream) Close() error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.closed = true
	return s.shutdown()
}

type readResult struct {
	line []byte
	err  error
}

// readLine waits for one response line. On timeout the process is killed,
// which closes its stdout and releases the reader.
func (s *Stream) readLine() ([]byte, error) {
	ch := make(chan readResult, 1)
	stdout := s.stdout
	go func() {
		line, err := stdout.ReadBytes('\n')
		ch <- readResult{line, err}
	}()

	timer := time.NewTimer(s.timeout)
	defer timer.Stop()

	select {
	case r := <-ch:
		if r.err != nil {
			s.shutdown()
			return nil, fmt.Errorf("read response: %w", r.err)
		}
		return r.line, nil
	case <-timer.C:
		s.cmd.Process.Kill()
		s.shutdown()
		<-ch
		return nil, fmt.Errorf("%s after %v: %w", s.plugin.Manifest.Name, s.timeout, ErrStreamTimeout)
	}
}

func (s *Stream) ensureStarted() error {
	if s.started {
		return nil
	}

	cmd := exec.Command(s.plugin.Executable)
	cmd.Dir = s.plugin.Path
	cmd.Stderr = os.Stderr

	stdin, err := cmd.StdinPipe()
	if err != nil {
		return fmt.Errorf("create stdin pipe: %w", err)
	}
	stdout, err := cmd.StdoutPipe()
	if err != nil {
		return fmt.Errorf("create stdout pipe: %w", err)
	}
	if err := cmd.Start(); err != nil {
		return fmt.Errorf("start plugin %s: %w", s.plugin.Manifest.Name, err)
	}

	s.cmd = cmd
	s.stdin = stdin
	s.stdout = bufio.NewReader(stdout)
	s.started = true
	return nil
}

func (s *Stream) shutdown() error {
	if !s.started {
		return nil
	}

	s.stdin.Close()
	err := s.cmd.Wait()

	s.cmd = nil
	s.stdin = nil
	s.stdout = nil
	s.started = false
	return err
}

// Open returns a Sender for p, streaming when the manifest asks for it.
func Open(p *Plugin, e *Executor) Sender {
	if p.Manifest.Streaming {
		return NewStream(p, e.timeout)
	}
	return e.Bind(p)
}
