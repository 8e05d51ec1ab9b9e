package cursor

import (
	"encoding/json"
	"errors"
	"fmt"
	"sync"

	"github.com/ayusman/mudra/internal/plugin"
)

// ErrCommandRejected is returned when the plugin answers a command with
// success=false.
var ErrCommandRejected = errors.New("cursor command rejected")

// Actions every cursor plugin must declare.
var Actions = []string{
	string(KindMove),
	string(KindScroll),
	string(KindClickDown),
	string(KindClickUp),
}

// Point is the parameter payload of move and scroll requests.
type Point struct {
	X float64 `json:"x"`
	Y float64 `json:"y"`
}

// PluginCursor forwards commands to a cursor plugin. The pressed state only
// follows click commands the plugin acknowledged.
type PluginCursor struct {
	sender plugin.Sender

	mu      sync.Mutex
	pressed bool
}

// NewPluginCursor creates a PluginCursor sending through s.
func NewPluginCursor(s plugin.Sender) *PluginCursor {
	return &PluginCursor{sender: s}
}

func (c *PluginCursor) send(kind Kind, params any) error {
	req := &plugin.Request{Action: string(kind)}
	if params != nil {
		data, err := json.Marshal(params)
		if err != nil {
			return fmt.Errorf("%s: marshal params: %w", kind, err)
		}
		req.Params = data
	}

	resp, err := c.sender.Send(req)
	if err != nil {
		return fmt.Errorf("%s: %w", kind, err)
	}
	if !resp.Success {
		return fmt.Errorf("%s: %w: %s", kind, ErrCommandRejected, resp.Error)
	}
	return nil
}

func (c *PluginCursor) Move(x, y float64) error {
	return c.send(KindMove, Point{X: x, Y: y})
}

func (c *PluginCursor) Scroll(dx, dy float64) error {
	return c.send(KindScroll, Point{X: dx, Y: dy})
}

func (c *PluginCursor) ClickDown() error {
	if err := c.send(KindClickDown, nil); err != nil {
		return err
	}
	c.mu.Lock()
	c.pressed = true
	c.mu.Unlock()
	return nil
}

func (c *PluginCursor) ClickUp() error {
	if err := c.send(KindClickUp, nil); err != nil {
		return err
	}
	c.mu.Lock()
	c.pressed = false
	c.mu.Unlock()
	return nil
}

func (c *PluginCursor) IsPressed() bool {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.pressed
}
