package apihttp

import (
	"encoding/json"
	"errors"
	"net/http"

	"playbackengine/internal/domain"
	"playbackengine/internal/subtitle"
)

type errorEnvelope struct {
	Error errorPayload `json:"error"`
}

type errorPayload struct {
	Code    string `json:"code"`
	Message string `json:"message"`
}

func writeError(w http.ResponseWriter, status int, code, message string) {
	writeJSON(w, status, errorEnvelope{Error: errorPayload{Code: code, Message: message}})
}

func writeJSON(w http.ResponseWriter, status int, payload interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(payload)
}

// writeSubtitleError maps subtitle manager failures: validation errors are
// client errors rejected before any network call, service errors are
// upstream failures.
func writeSubtitleError(w http.ResponseWriter, err error) {
	switch {
	case errors.Is(err, subtitle.ErrNoActiveSubtitle):
		writeError(w, http.StatusBadRequest, "no_active_subtitle", "select a subtitle track first")
	case errors.Is(err, subtitle.ErrDuplicateTrack):
		writeError(w, http.StatusConflict, "duplicate_track", err.Error())
	case errors.Is(err, subtitle.ErrEmptySubtitle),
		errors.Is(err, subtitle.ErrUnorderedCues),
		errors.Is(err, subtitle.ErrInvalidSubtitle):
		writeError(w, http.StatusBadRequest, "invalid_subtitle", err.Error())
	case errors.Is(err, subtitle.ErrStaleContent):
		writeError(w, http.StatusConflict, "stale_content", "content changed during the operation")
	default:
		writeError(w, http.StatusBadGateway, "subtitle_service_error", err.Error())
	}
}

func writeDomainError(w http.ResponseWriter, err error) {
	if errors.Is(err, domain.ErrNotFound) {
		writeError(w, http.StatusNotFound, "not_found", "session not found")
		return
	}
	if errors.Is(err, domain.ErrUnsupported) {
		writeError(w, http.StatusConflict, "unsupported", err.Error())
		return
	}
	writeError(w, http.StatusInternalServerError, "internal_error", err.Error())
}
