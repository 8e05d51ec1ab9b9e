// Package main provides the cursor-control plugin. It stays running and
// answers one JSON line per request line, driving the pointer with xdotool
// on Linux and cliclick on macOS.
package main

import (
	"bufio"
	"encoding/json"
	"fmt"
	"io"
	"log"
	"math"
	"os"
	"os/exec"
	"runtime"
	"strconv"
)

// Request represents one line from the plugin host.
type Request struct {
	Action string          `json:"action"`
	Params json.RawMessage `json:"params"`
}

// Response is written back as a single line.
type Response struct {
	Success bool   `json:"success"`
	Error   string `json:"error,omitempty"`
}

// Point carries move coordinates and scroll deltas.
type Point struct {
	X float64 `json:"x"`
	Y float64 `json:"y"`
}

// backend turns an action into the command line that performs it.
type backend interface {
	command(action string, p Point) ([]string, error)
}

type xdotool struct{}

func (xdotool) command(action string, p Point) ([]string, error) {
	switch action {
	case "move":
		return []string{"xdotool", "mousemove", itoa(p.X), itoa(p.Y)}, nil
	case "click-down":
		return []string{"xdotool", "mousedown", "1"}, nil
	case "click-up":
		return []string{"xdotool", "mouseup", "1"}, nil
	case "scroll":
		// Buttons 4/5 scroll up/down, 6/7 left/right.
		args := []string{"xdotool"}
		args = appendScroll(args, p.Y, "5", "4")
		args = appendScroll(args, p.X, "7", "6")
		if len(args) == 1 {
			return nil, nil
		}
		return args, nil
	}
	return nil, fmt.Errorf("unknown action: %s", action)
}

func appendScroll(args []string, delta float64, positive, negative string) []string {
	steps := int(math.Round(math.Abs(delta)))
	if steps == 0 {
		return args
	}
	button := positive
	if delta < 0 {
		button = negative
	}
	return append(args, "click", "--repeat", strconv.Itoa(steps), button)
}

type cliclick struct{}

func (cliclick) command(action string, p Point) ([]string, error) {
	switch action {
	case "move":
		return []string{"cliclick", "m:" + itoa(p.X) + "," + itoa(p.Y)}, nil
	case "click-down":
		return []string{"cliclick", "dd:."}, nil
	case "click-up":
		return []string{"cliclick", "du:."}, nil
	case "scroll":
		return nil, fmt.Errorf("scroll is not supported by cliclick")
	}
	return nil, fmt.Errorf("unknown action: %s", action)
}

func itoa(v float64) string {
	return strconv.Itoa(int(math.Round(v)))
}

func main() {
	var b backend = xdotool{}
	if runtime.GOOS == "darwin" {
		b = cliclick{}
	}
	if err := serve(os.Stdin, os.Stdout, b, run); err != nil {
		log.Fatalf("cursor-control: %v", err)
	}
}

func run(argv []string) error {
	out, err := exec.Command(argv[0], argv[1:]...).CombinedOutput()
	if err != nil {
		return fmt.Errorf("%s: %w: %s", argv[0], err, out)
	}
	return nil
}

// serve answers requests from r until it is closed.
func serve(r io.Reader, w io.Writer, b backend, runCmd func([]string) error) error {
	scanner := bufio.NewScanner(r)
	out := bufio.NewWriter(w)
	enc := json.NewEncoder(out)

	for scanner.Scan() {
		if len(scanner.Bytes()) == 0 {
			continue
		}
		if err := enc.Encode(handle(scanner.Bytes(), b, runCmd)); err != nil {
			return err
		}
		if err := out.Flush(); err != nil {
			return err
		}
	}
	return scanner.Err()
}

func handle(line []byte, b backend, runCmd func([]string) error) Response {
	var req Request
	if err := json.Unmarshal(line, &req); err != nil {
		return Response{Error: fmt.Sprintf("failed to decode request: %v", err)}
	}

	var p Point
	if len(req.Params) > 0 {
		if err := json.Unmarshal(req.Params, &p); err != nil {
			return Response{Error: fmt.Sprintf("failed to parse params: %v", err)}
		}
	}

	argv, err := b.command(req.Action, p)
	if err != nil {
		return Response{Error: err.Error()}
	}
	if argv != nil {
		if err := runCmd(argv); err != nil {
			return Response{Error: fmt.Sprintf("action %s failed: %v", req.Action, err)}
		}
	}
	return Response{Success: true}
}
