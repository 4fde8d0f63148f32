package api

import (
	"encoding/json"
	"net/http"
)

// Switch turns gesture control on and off.
type Switch interface {
	Enabled() bool
	SetEnabled(enabled bool) error
}

// EnabledHandler exposes a Switch at /api/enabled.
type EnabledHandler struct {
	sw Switch
}

// NewEnabledHandler creates a new EnabledHandler for sw.
func NewEnabledHandler(sw Switch) *EnabledHandler {
	return &EnabledHandler{sw: sw}
}

type enabledBody struct {
	Enabled *bool `json:"enabled"`
}

type enabledResponse struct {
	Enabled bool `json:"enabled"`
}

// ServeHTTP handles GET and PUT /api/enabled.
func (h *EnabledHandler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	switch r.Method {
	case http.MethodGet:
		writeJSON(w, http.StatusOK, enabledResponse{Enabled: h.sw.Enabled()})
	case http.MethodPut:
		var body enabledBody
		if err := json.NewDecoder(r.Body).Decode(&body); err != nil || body.Enabled == nil {
			writeError(w, http.StatusBadRequest, `body must be {"enabled": true|false}`)
			return
		}
		if err := h.sw.SetEnabled(*body.Enabled); err != nil {
			writeError(w, http.StatusInternalServerError, "failed to persist setting")
			return
		}
		writeJSON(w, http.StatusOK, enabledResponse{Enabled: h.sw.Enabled()})
	default:
		http.Error(w, "Method not allowed", http.StatusMethodNotAllowed)
	}
}
