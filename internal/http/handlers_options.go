package http

import (
	"net/http"
	"strings"
)

// handleOptions lists remembered labels for entry forms. kind is "time"
// (task labels) or "expense" (descriptions).
func (s *Server) handleOptions(w http.ResponseWriter, r *http.Request) {
	kind := strings.TrimSpace(r.URL.Query().Get("kind"))
	if kind == "" {
		writeError(w, http.StatusBadRequest, "kind parameter is required")
		return
	}

	options, err := s.service.Options(r.Context(), kind)
	if err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}
	if options == nil {
		options = []string{}
	}

	writeJSON(w, http.StatusOK, map[string]any{"kind": kind, "options": options})
}
