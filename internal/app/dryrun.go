package app

import (
	"log"
	"sync"
)

// logCursor stands in for the cursor plugin in dry-run mode.
type logCursor struct {
	mu      sync.Mutex
	pressed bool
}

func newLogCursor() *logCursor { return &logCursor{} }

func (c *logCursor) Move(x, y float64) error {
	log.Printf("dry-run: move %.0f,%.0f", x, y)
	return nil
}

func (c *logCursor) Scroll(dx, dy float64) error {
	log.Printf("dry-run: scroll %.1f,%.1f", dx, dy)
	return nil
}

func (c *logCursor) ClickDown() error {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.pressed = true
	log.Println("dry-run: click-down")
	return nil
}

func (c *logCursor) ClickUp() error {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.pressed = false
	log.Println("dry-run: click-up")
	return nil
}

func (c *logCursor) IsPressed() bool {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.pressed
}
