package apihttp

import (
	"encoding/json"
	"fmt"
	"net/http"
	"strconv"
	"strings"

	"playbackengine/internal/domain"
	"playbackengine/internal/input"
	"playbackengine/internal/session"
)

const maxBodyBytes = 8 << 20

func (s *Server) handleSessions(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		w.WriteHeader(http.StatusMethodNotAllowed)
		return
	}

	var content domain.ContentDescriptor
	if err := decodeBody(r, &content); err != nil {
		writeError(w, http.StatusBadRequest, "invalid_request", err.Error())
		return
	}

	id, sess, err := s.sessions.Create(r.Context(), userID(r), content)
	if err != nil {
		writeError(w, http.StatusBadRequest, "invalid_request", err.Error())
		return
	}
	writeJSON(w, http.StatusCreated, map[string]interface{}{
		"sessionId": id,
		"state":     sess.State(),
	})
}

func (s *Server) handleSessionByID(w http.ResponseWriter, r *http.Request) {
	path := strings.TrimPrefix(r.URL.Path, "/api/v1/sessions/")
	if path == "" {
		http.NotFound(w, r)
		return
	}

	id, rest, _ := strings.Cut(path, "/")
	sess, ok := s.sessions.Get(id)
	if !ok {
		writeError(w, http.StatusNotFound, "not_found", "session not found")
		return
	}

	switch rest {
	case "":
		s.handleSessionRoot(w, r, id, sess)
	case "content":
		s.handleReplaceContent(w, r, id)
	case "actions":
		s.handleActions(w, r, sess)
	case "events":
		s.handleSurfaceEvents(w, r, sess)
	case "keyboard":
		s.handleKeyboard(w, r, sess)
	case "gesture":
		s.handleGesture(w, r, sess)
	case "retry":
		s.handleRetry(w, r, sess)
	case "quality":
		s.handleQuality(w, r, sess)
	case "audio":
		s.handleAudio(w, r, sess)
	case "subtitles":
		s.handleSubtitles(w, r, id, sess)
	case "subtitles/translate":
		s.handleTranslate(w, r, id, sess)
	case "subtitles/synchronize":
		s.handleSynchronize(w, r, id, sess)
	case "upnext/cancel":
		s.handleUpNext(w, r, sess, false)
	case "upnext/confirm":
		s.handleUpNext(w, r, sess, true)
	case "thumbnail":
		s.handleThumbnail(w, r, sess)
	default:
		if trackID, ok := strings.CutPrefix(rest, "subtitles/"); ok {
			s.handleRemoveSubtitle(w, r, sess, trackID)
			return
		}
		http.NotFound(w, r)
	}
}

func (s *Server) handleSessionRoot(w http.ResponseWriter, r *http.Request, id string, sess *session.Session) {
	switch r.Method {
	case http.MethodGet:
		writeJSON(w, http.StatusOK, sess.State())
	case http.MethodDelete:
		if err := s.sessions.Destroy(id); err != nil {
			writeDomainError(w, err)
			return
		}
		w.WriteHeader(http.StatusNoContent)
	default:
		w.WriteHeader(http.StatusMethodNotAllowed)
	}
}

func (s *Server) handleReplaceContent(w http.ResponseWriter, r *http.Request, id string) {
	if r.Method != http.MethodPut {
		w.WriteHeader(http.StatusMethodNotAllowed)
		return
	}
	var content domain.ContentDescriptor
	if err := decodeBody(r, &content); err != nil {
		writeError(w, http.StatusBadRequest, "invalid_request", err.Error())
		return
	}
	sess, err := s.sessions.Replace(r.Context(), id, userID(r), content)
	if err != nil {
		writeDomainError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, sess.State())
}

// actionRequest is the wire form of a dispatched action; Type selects the
// variant and the remaining fields carry its payload.
type actionRequest struct {
	Type       string  `json:"type"`
	Seconds    float64 `json:"seconds,omitempty"`
	Volume     float64 `json:"volume,omitempty"`
	Rate       float64 `json:"rate,omitempty"`
	Brightness float64 `json:"brightness,omitempty"`
	Value      bool    `json:"value,omitempty"`
	TrackID    string  `json:"trackId,omitempty"`
	Show       bool    `json:"show,omitempty"`
}

func (s *Server) handleActions(w http.ResponseWriter, r *http.Request, sess *session.Session) {
	if r.Method != http.MethodPost {
		w.WriteHeader(http.StatusMethodNotAllowed)
		return
	}
	var req actionRequest
	if err := decodeBody(r, &req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid_request", err.Error())
		return
	}
	action, err := decodeAction(req)
	if err != nil {
		writeError(w, http.StatusBadRequest, "invalid_action", err.Error())
		return
	}
	sess.Dispatch(action)
	writeJSON(w, http.StatusOK, sess.State())
}

func decodeAction(req actionRequest) (domain.Action, error) {
	switch req.Type {
	case "play":
		return domain.Play{}, nil
	case "pause":
		return domain.Pause{}, nil
	case "time-update":
		return domain.TimeUpdate{Seconds: req.Seconds}, nil
	case "seek":
		return domain.Seek{Seconds: req.Seconds}, nil
	case "volume":
		return domain.VolumeChange{Volume: req.Volume}, nil
	case "mute-toggle":
		return domain.MuteToggle{}, nil
	case "rate":
		return domain.RateChange{Rate: req.Rate}, nil
	case "brightness":
		return domain.BrightnessChange{Brightness: req.Brightness}, nil
	case "fullscreen":
		return domain.FullscreenChange{Fullscreen: req.Value}, nil
	case "pip":
		return domain.PiPChange{PiP: req.Value}, nil
	case "subtitle":
		return domain.SubtitleChange{TrackID: req.TrackID}, nil
	case "toggle-controls":
		return domain.ToggleControls{Show: req.Show}, nil
	case "toggle-settings":
		return domain.ToggleSettings{}, nil
	default:
		return nil, fmt.Errorf("unknown action type %q", req.Type)
	}
}

// surfaceEvent is a native media-element event reported by the surface.
type surfaceEvent struct {
	Type     string  `json:"type"`
	Duration float64 `json:"duration,omitempty"`
	Seconds  float64 `json:"seconds,omitempty"`
	Detail   string  `json:"detail,omitempty"`
	Active   bool    `json:"active,omitempty"`
}

func (s *Server) handleSurfaceEvents(w http.ResponseWriter, r *http.Request, sess *session.Session) {
	if r.Method != http.MethodPost {
		w.WriteHeader(http.StatusMethodNotAllowed)
		return
	}
	var ev surfaceEvent
	if err := decodeBody(r, &ev); err != nil {
		writeError(w, http.StatusBadRequest, "invalid_request", err.Error())
		return
	}
	switch ev.Type {
	case "ready":
		sess.OnSurfaceReady(ev.Duration)
	case "ended":
		sess.OnSurfaceEnded()
	case "error":
		sess.OnSurfaceError(ev.Detail)
	case "time-update":
		sess.Dispatch(domain.TimeUpdate{Seconds: ev.Seconds})
	case "buffering":
		if ev.Active {
			sess.Dispatch(domain.BufferingStart{})
		} else {
			sess.Dispatch(domain.BufferingEnd{})
		}
	default:
		writeError(w, http.StatusBadRequest, "invalid_event", fmt.Sprintf("unknown event type %q", ev.Type))
		return
	}
	writeJSON(w, http.StatusOK, sess.State())
}

func (s *Server) handleKeyboard(w http.ResponseWriter, r *http.Request, sess *session.Session) {
	if r.Method != http.MethodPost {
		w.WriteHeader(http.StatusMethodNotAllowed)
		return
	}
	var ev input.KeyEvent
	if err := decodeBody(r, &ev); err != nil {
		writeError(w, http.StatusBadRequest, "invalid_request", err.Error())
		return
	}
	sess.HandleKey(ev)
	writeJSON(w, http.StatusOK, sess.State())
}

type gestureEvent struct {
	Phase  string  `json:"phase"`
	X      float64 `json:"x"`
	Y      float64 `json:"y"`
	Width  float64 `json:"width,omitempty"`
	Height float64 `json:"height,omitempty"`
}

func (s *Server) handleGesture(w http.ResponseWriter, r *http.Request, sess *session.Session) {
	if r.Method != http.MethodPost {
		w.WriteHeader(http.StatusMethodNotAllowed)
		return
	}
	var ev gestureEvent
	if err := decodeBody(r, &ev); err != nil {
		writeError(w, http.StatusBadRequest, "invalid_request", err.Error())
		return
	}
	switch ev.Phase {
	case "begin":
		sess.HandleTouchBegin(ev.X, ev.Y, ev.Width, ev.Height)
	case "move":
		sess.HandleTouchMove(ev.X, ev.Y)
	case "end":
		sess.HandleTouchEnd(ev.X)
	default:
		writeError(w, http.StatusBadRequest, "invalid_gesture", fmt.Sprintf("unknown phase %q", ev.Phase))
		return
	}
	writeJSON(w, http.StatusOK, sess.State())
}

func (s *Server) handleRetry(w http.ResponseWriter, r *http.Request, sess *session.Session) {
	if r.Method != http.MethodPost {
		w.WriteHeader(http.StatusMethodNotAllowed)
		return
	}
	sess.Retry(r.Context())
	writeJSON(w, http.StatusOK, sess.State())
}

func (s *Server) handleQuality(w http.ResponseWriter, r *http.Request, sess *session.Session) {
	if r.Method != http.MethodPost {
		w.WriteHeader(http.StatusMethodNotAllowed)
		return
	}
	var req struct {
		Index int `json:"index"`
	}
	if err := decodeBody(r, &req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid_request", err.Error())
		return
	}
	if err := sess.SetQuality(req.Index); err != nil {
		writeDomainError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, sess.State())
}

func (s *Server) handleAudio(w http.ResponseWriter, r *http.Request, sess *session.Session) {
	if r.Method != http.MethodPost {
		w.WriteHeader(http.StatusMethodNotAllowed)
		return
	}
	var req struct {
		TrackID string `json:"trackId"`
	}
	if err := decodeBody(r, &req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid_request", err.Error())
		return
	}
	if err := sess.SelectAudioTrack(r.Context(), req.TrackID); err != nil {
		writeDomainError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, sess.State())
}

func (s *Server) handleSubtitles(w http.ResponseWriter, r *http.Request, id string, sess *session.Session) {
	if r.Method != http.MethodPost {
		w.WriteHeader(http.StatusMethodNotAllowed)
		return
	}
	var req struct {
		Name    string `json:"name"`
		Content string `json:"content"`
	}
	if err := decodeBody(r, &req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid_request", err.Error())
		return
	}
	track, err := sess.Subtitles().LoadLocal(req.Name, req.Content)
	if err != nil {
		writeSubtitleError(w, err)
		return
	}
	writeJSON(w, http.StatusCreated, track)
}

func (s *Server) handleRemoveSubtitle(w http.ResponseWriter, r *http.Request, sess *session.Session, trackID string) {
	if r.Method != http.MethodDelete {
		w.WriteHeader(http.StatusMethodNotAllowed)
		return
	}
	sess.Subtitles().Remove(trackID)
	w.WriteHeader(http.StatusNoContent)
}

// Translate and synchronize run in the request goroutine but never block
// playback: the session keeps applying actions while they are in flight.
func (s *Server) handleTranslate(w http.ResponseWriter, r *http.Request, id string, sess *session.Session) {
	if r.Method != http.MethodPost {
		w.WriteHeader(http.StatusMethodNotAllowed)
		return
	}
	var req struct {
		TargetLanguage string `json:"targetLanguage"`
	}
	if err := decodeBody(r, &req); err != nil || strings.TrimSpace(req.TargetLanguage) == "" {
		writeError(w, http.StatusBadRequest, "invalid_request", "targetLanguage is required")
		return
	}
	track, err := sess.Subtitles().Translate(r.Context(), req.TargetLanguage)
	if err != nil {
		s.wsHub.BroadcastNotice(id, "subtitle translation failed")
		writeSubtitleError(w, err)
		return
	}
	writeJSON(w, http.StatusCreated, track)
}

func (s *Server) handleSynchronize(w http.ResponseWriter, r *http.Request, id string, sess *session.Session) {
	if r.Method != http.MethodPost {
		w.WriteHeader(http.StatusMethodNotAllowed)
		return
	}
	track, err := sess.Subtitles().Synchronize(r.Context())
	if err != nil {
		s.wsHub.BroadcastNotice(id, "subtitle synchronization failed")
		writeSubtitleError(w, err)
		return
	}
	writeJSON(w, http.StatusCreated, track)
}

func (s *Server) handleUpNext(w http.ResponseWriter, r *http.Request, sess *session.Session, confirm bool) {
	if r.Method != http.MethodPost {
		w.WriteHeader(http.StatusMethodNotAllowed)
		return
	}
	if confirm {
		sess.UpNext().ConfirmNow()
	} else {
		sess.UpNext().Cancel()
	}
	writeJSON(w, http.StatusOK, sess.State())
}

func (s *Server) handleThumbnail(w http.ResponseWriter, r *http.Request, sess *session.Session) {
	if r.Method != http.MethodGet {
		w.WriteHeader(http.StatusMethodNotAllowed)
		return
	}
	t, err := strconv.ParseFloat(r.URL.Query().Get("t"), 64)
	if err != nil || t < 0 {
		writeError(w, http.StatusBadRequest, "invalid_request", "query parameter t must be a non-negative number")
		return
	}
	region, ok := sess.ThumbnailAt(t)
	if !ok {
		// No containing cue is "no preview", not an error.
		w.WriteHeader(http.StatusNoContent)
		return
	}
	writeJSON(w, http.StatusOK, region)
}

func decodeBody(r *http.Request, out interface{}) error {
	defer r.Body.Close()
	dec := json.NewDecoder(http.MaxBytesReader(nil, r.Body, maxBodyBytes))
	return dec.Decode(out)
}
