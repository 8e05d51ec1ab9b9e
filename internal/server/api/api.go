// Package api provides the HTTP handlers for session control and tuning
// profiles.
package api

import (
	"encoding/json"
	"net/http"

	"github.com/ayusman/mudra/internal/control"
)

// Controller is the part of a session the control endpoints drive.
type Controller interface {
	Status() control.Status
	SetMode(m control.Mode) error
	SetEnabled(enabled bool)
}

// Tuner is the part of a session the profile endpoints drive.
type Tuner interface {
	Config() control.Config
	Configure(cfg control.Config) error
}

type errorResponse struct {
	Error string `json:"error"`
}

func writeJSON(w http.ResponseWriter, status int, data any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if data != nil {
		json.NewEncoder(w).Encode(data)
	}
}

func writeError(w http.ResponseWriter, status int, message string) {
	writeJSON(w, status, errorResponse{Error: message})
}
