package api

import (
	"encoding/json"
	"errors"
	"net/http"

	"github.com/ayusman/mudra/internal/control"
)

// ControlHandler serves /api/status, /api/mode and /api/enabled.
type ControlHandler struct {
	session Controller
}

// NewControlHandler creates a ControlHandler for session.
func NewControlHandler(session Controller) *ControlHandler {
	return &ControlHandler{session: session}
}

// Register adds the control routes to mux.
func (h *ControlHandler) Register(mux *http.ServeMux) {
	mux.HandleFunc("/api/status", h.status)
	mux.HandleFunc("/api/mode", h.mode)
	mux.HandleFunc("/api/enabled", h.enabled)
}

func (h *ControlHandler) status(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		writeError(w, http.StatusMethodNotAllowed, "Method not allowed")
		return
	}
	writeJSON(w, http.StatusOK, h.session.Status())
}

type modeRequest struct {
	Mode string `json:"mode"`
}

func (h *ControlHandler) mode(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		writeError(w, http.StatusMethodNotAllowed, "Method not allowed")
		return
	}

	var req modeRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "Invalid JSON")
		return
	}
	m, err := control.ParseMode(req.Mode)
	if err == nil {
		err = h.session.SetMode(m)
	}
	if err != nil {
		if errors.Is(err, control.ErrUnknownMode) {
			writeError(w, http.StatusBadRequest, err.Error())
			return
		}
		writeError(w, http.StatusInternalServerError, "Failed to set mode")
		return
	}

	writeJSON(w, http.StatusOK, h.session.Status())
}

type enabledRequest struct {
	Enabled *bool `json:"enabled"`
}

func (h *ControlHandler) enabled(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		writeError(w, http.StatusMethodNotAllowed, "Method not allowed")
		return
	}

	var req enabledRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "Invalid JSON")
		return
	}
	if req.Enabled == nil {
		writeError(w, http.StatusBadRequest, "enabled is required")
		return
	}

	h.session.SetEnabled(*req.Enabled)
	writeJSON(w, http.StatusOK, h.session.Status())
}
