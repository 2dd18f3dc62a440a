package apihttp

import (
	"net/http"
	"strconv"

	"playbackengine/internal/domain"
)

func (s *Server) handlePreferences(w http.ResponseWriter, r *http.Request) {
	if s.preferences == nil {
		writeError(w, http.StatusServiceUnavailable, "store_unavailable", "preferences store is not configured")
		return
	}
	switch r.Method {
	case http.MethodGet:
		prefs, ok, err := s.preferences.Get(r.Context(), userID(r))
		if err != nil {
			writeError(w, http.StatusInternalServerError, "internal_error", err.Error())
			return
		}
		if !ok {
			prefs = domain.DefaultPreferences()
		}
		writeJSON(w, http.StatusOK, prefs)
	case http.MethodPut:
		var prefs domain.Preferences
		if err := decodeBody(r, &prefs); err != nil {
			writeError(w, http.StatusBadRequest, "invalid_request", err.Error())
			return
		}
		normalized := prefs.Normalize()
		if err := s.preferences.Put(r.Context(), userID(r), normalized); err != nil {
			writeError(w, http.StatusInternalServerError, "internal_error", err.Error())
			return
		}
		writeJSON(w, http.StatusOK, normalized)
	default:
		w.WriteHeader(http.StatusMethodNotAllowed)
	}
}

func (s *Server) handleProgress(w http.ResponseWriter, r *http.Request) {
	if s.progress == nil {
		writeError(w, http.StatusServiceUnavailable, "store_unavailable", "progress store is not configured")
		return
	}
	if r.Method != http.MethodGet {
		w.WriteHeader(http.StatusMethodNotAllowed)
		return
	}
	limit := 20
	if raw := r.URL.Query().Get("limit"); raw != "" {
		n, err := strconv.Atoi(raw)
		if err != nil || n < 1 || n > 200 {
			writeError(w, http.StatusBadRequest, "invalid_request", "limit must be between 1 and 200")
			return
		}
		limit = n
	}
	items, err := s.progress.ListRecent(r.Context(), userID(r), limit)
	if err != nil {
		writeError(w, http.StatusInternalServerError, "internal_error", err.Error())
		return
	}
	if items == nil {
		items = []domain.WatchProgress{}
	}
	writeJSON(w, http.StatusOK, map[string]interface{}{"items": items})
}
