package api

import (
	"encoding/json"
	"errors"
	"net/http"
	"strings"

	"github.com/ayusman/mudra/internal/config"
	"github.com/ayusman/mudra/internal/store"
)

// ProfileHandler serves /api/profiles. Profiles created without tuning
// fields capture the session's current tuning.
type ProfileHandler struct {
	store *store.Store
	tuner Tuner
}

// NewProfileHandler creates a ProfileHandler.
func NewProfileHandler(s *store.Store, tuner Tuner) *ProfileHandler {
	return &ProfileHandler{store: s, tuner: tuner}
}

type listProfilesResponse struct {
	Profiles []*store.Profile `json:"profiles"`
	ActiveID string           `json:"active_id,omitempty"`
}

// ServeHTTP routes /api/profiles, /api/profiles/{id} and
// /api/profiles/{id}/activate.
func (h *ProfileHandler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	path := strings.TrimPrefix(r.URL.Path, "/api/profiles")
	path = strings.Trim(path, "/")

	if path == "" {
		switch r.Method {
		case http.MethodGet:
			h.list(w, r)
		case http.MethodPost:
			h.create(w, r)
		default:
			writeError(w, http.StatusMethodNotAllowed, "Method not allowed")
		}
		return
	}

	if id, ok := strings.CutSuffix(path, "/activate"); ok {
		if r.Method != http.MethodPost {
			writeError(w, http.StatusMethodNotAllowed, "Method not allowed")
			return
		}
		h.activate(w, r, id)
		return
	}
	if strings.Contains(path, "/") {
		writeError(w, http.StatusNotFound, "Not found")
		return
	}

	switch r.Method {
	case http.MethodGet:
		h.get(w, r, path)
	case http.MethodPut:
		h.update(w, r, path)
	case http.MethodDelete:
		h.delete(w, r, path)
	default:
		writeError(w, http.StatusMethodNotAllowed, "Method not allowed")
	}
}

// storeError maps repository errors onto HTTP statuses.
func storeError(w http.ResponseWriter, err error, action string) {
	switch {
	case errors.Is(err, store.ErrNotFound):
		writeError(w, http.StatusNotFound, "Profile not found")
	case errors.Is(err, store.ErrConflict):
		writeError(w, http.StatusConflict, "Profile name already exists")
	default:
		writeError(w, http.StatusInternalServerError, "Failed to "+action+" profile")
	}
}

func (h *ProfileHandler) activeID() string {
	id, err := h.store.Settings().ActiveProfileID()
	if err != nil {
		return ""
	}
	return id
}

func (h *ProfileHandler) list(w http.ResponseWriter, r *http.Request) {
	profiles, err := h.store.Profiles().List()
	if err != nil {
		storeError(w, err, "list")
		return
	}
	if profiles == nil {
		profiles = []*store.Profile{}
	}
	writeJSON(w, http.StatusOK, listProfilesResponse{Profiles: profiles, ActiveID: h.activeID()})
}

func (h *ProfileHandler) get(w http.ResponseWriter, r *http.Request, id string) {
	p, err := h.store.Profiles().GetByID(id)
	if err != nil {
		storeError(w, err, "get")
		return
	}
	writeJSON(w, http.StatusOK, p)
}

// decode overlays the request body on p and validates the result.
func (h *ProfileHandler) decode(w http.ResponseWriter, r *http.Request, p *store.Profile) bool {
	id, created := p.ID, p.CreatedAt
	if err := json.NewDecoder(r.Body).Decode(p); err != nil {
		writeError(w, http.StatusBadRequest, "Invalid JSON")
		return false
	}
	p.ID, p.CreatedAt = id, created

	p.Name = strings.TrimSpace(p.Name)
	if p.Name == "" {
		writeError(w, http.StatusBadRequest, "Name is required")
		return false
	}
	if _, err := config.ProfileControl(h.tuner.Config(), p); err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return false
	}
	return true
}

func (h *ProfileHandler) create(w http.ResponseWriter, r *http.Request) {
	p := config.NewProfile("", h.tuner.Config())
	if !h.decode(w, r, p) {
		return
	}
	if err := h.store.Profiles().Create(p); err != nil {
		storeError(w, err, "create")
		return
	}
	writeJSON(w, http.StatusCreated, p)
}

func (h *ProfileHandler) update(w http.ResponseWriter, r *http.Request, id string) {
	p, err := h.store.Profiles().GetByID(id)
	if err != nil {
		storeError(w, err, "get")
		return
	}
	if !h.decode(w, r, p) {
		return
	}
	if err := h.store.Profiles().Update(p); err != nil {
		storeError(w, err, "update")
		return
	}

	if h.activeID() == p.ID {
		if err := h.apply(p); err != nil {
			writeError(w, http.StatusInternalServerError, err.Error())
			return
		}
	}
	writeJSON(w, http.StatusOK, p)
}

func (h *ProfileHandler) delete(w http.ResponseWriter, r *http.Request, id string) {
	if err := h.store.Profiles().Delete(id); err != nil {
		storeError(w, err, "delete")
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

func (h *ProfileHandler) activate(w http.ResponseWriter, r *http.Request, id string) {
	p, err := h.store.Profiles().GetByID(id)
	if err != nil {
		storeError(w, err, "get")
		return
	}
	if err := h.apply(p); err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}
	if err := h.store.Settings().SetActiveProfile(p.ID); err != nil {
		storeError(w, err, "activate")
		return
	}
	writeJSON(w, http.StatusOK, p)
}

func (h *ProfileHandler) apply(p *store.Profile) error {
	cc, err := config.ProfileControl(h.tuner.Config(), p)
	if err != nil {
		return err
	}
	return h.tuner.Configure(cc)
}
