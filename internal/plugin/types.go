// Package plugin discovers and runs out-of-process action plugins. Plugins
// are executables that read a JSON Request on stdin and answer with a JSON
// Response on stdout, either once per process or one line at a time over a
// long-lived process.
package plugin

import "encoding/json"

// Manifest describes a plugin's metadata and capabilities. It is read from
// plugin.json in the plugin's directory.
type Manifest struct {
	Name        string   `json:"name"`
	Version     string   `json:"version"`
	Description string   `json:"description"`
	Executable  string   `json:"executable"`
	Actions     []string `json:"actions"`

	// Streaming plugins keep running and answer one JSON line per request
	// line.
	Streaming bool `json:"streaming,omitempty"`
}

// Request is sent to a plugin.
type Request struct {
	Action string          `json:"action"`
	Config json.RawMessage `json:"config,omitempty"`
	Params json.RawMessage `json:"params,omitempty"`
}

// Response is returned by a plugin.
type Response struct {
	Success bool            `json:"success"`
	Error   string          `json:"error,omitempty"`
	Data    json.RawMessage `json:"data,omitempty"`
}

// Plugin is a discovered plugin with its manifest and location.
type Plugin struct {
	Manifest   Manifest
	Path       string
	Executable string
}

// Supports reports whether the plugin declares action.
func (p *Plugin) Supports(action string) bool {
	for _, a := range p.Manifest.Actions {
		if a == action {
			return true
		}
	}
	return false
}

// Sender delivers requests to a single plugin.
type Sender interface {
	Send(req *Request) (*Response, error)
}
