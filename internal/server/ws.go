package server

import (
	"log"
	"net/http"
	"time"

	"github.com/gorilla/websocket"

	"github.com/ayusman/mudra/internal/cursor"
)

const writeWait = 2 * time.Second

var upgrader = websocket.Upgrader{
	CheckOrigin: func(r *http.Request) bool {
		return true // local UI only
	},
}

// EventsHandler streams every emitted cursor command to WebSocket clients
// as JSON text messages.
type EventsHandler struct {
	events *cursor.Broadcaster
}

// NewEventsHandler creates an EventsHandler fed by b.
func NewEventsHandler(b *cursor.Broadcaster) *EventsHandler {
	return &EventsHandler{events: b}
}

// ServeHTTP upgrades the request and forwards commands until the client goes
// away.
func (h *EventsHandler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	conn, err := upgrader.Upgrade(w, r, nil)
	if err != nil {
		log.Printf("websocket upgrade error: %v", err)
		return
	}
	defer conn.Close()

	last, hasLast := h.events.Last()
	cmds, unsubscribe := h.events.Subscribe()
	defer unsubscribe()

	// The read loop only notices the client closing.
	closed := make(chan struct{})
	go func() {
		defer close(closed)
		for {
			if _, _, err := conn.ReadMessage(); err != nil {
				return
			}
		}
	}()

	if hasLast {
		if err := h.write(conn, last); err != nil {
			return
		}
	}

	for {
		select {
		case <-closed:
			return
		case cmd, ok := <-cmds:
			if !ok {
				return
			}
			if err := h.write(conn, cmd); err != nil {
				return
			}
		}
	}
}

func (h *EventsHandler) write(conn *websocket.Conn, cmd cursor.Command) error {
	conn.SetWriteDeadline(time.Now().Add(writeWait))
	return conn.WriteJSON(cmd)
}
