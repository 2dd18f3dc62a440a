package subtitle

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"

	"playbackengine/internal/domain"
	"playbackengine/internal/domain/ports"
	"playbackengine/internal/metrics"
)

var (
	ErrNoActiveSubtitle = errors.New("no active subtitle selected")
	ErrDuplicateTrack   = errors.New("subtitle track already exists")
	ErrTranslate        = errors.New("translate failed")
	ErrSynchronize      = errors.New("synchronize failed")
	ErrFetchText        = errors.New("subtitle text fetch failed")
	ErrStaleContent     = errors.New("content changed while operation was in flight")
)

// Dispatcher is the slice of the session the manager needs: serialized action
// dispatch, a state snapshot, and the content generation for staleness checks.
type Dispatcher interface {
	Dispatch(a domain.Action)
	State() domain.PlaybackSession
	Generation() uint64
}

// Manager owns the subtitle track set of one session: locally loaded files,
// AI-derived tracks, and the blob lifetimes behind the local ones.
type Manager struct {
	dispatcher   Dispatcher
	translator   ports.Translator
	synchronizer ports.Synchronizer
	fetcher      ports.TextFetcher
	arena        *blobArena
	logger       *slog.Logger
}

func NewManager(
	dispatcher Dispatcher,
	translator ports.Translator,
	synchronizer ports.Synchronizer,
	fetcher ports.TextFetcher,
	logger *slog.Logger,
) *Manager {
	if logger == nil {
		logger = slog.Default()
	}
	return &Manager{
		dispatcher:   dispatcher,
		translator:   translator,
		synchronizer: synchronizer,
		fetcher:      fetcher,
		arena:        newBlobArena(),
		logger:       logger,
	}
}

// LoadLocal registers a caption file the user provided. Duplicate display
// names are rejected before any resource is created.
func (m *Manager) LoadLocal(name, content string) (domain.SubtitleTrack, error) {
	if _, _, err := Parse(content); err != nil {
		return domain.SubtitleTrack{}, err
	}

	label := strings.TrimSpace(name)
	if label == "" {
		label = "Local subtitle"
	}
	if m.labelExists(label) {
		return domain.SubtitleTrack{}, fmt.Errorf("%w: %q", ErrDuplicateTrack, label)
	}

	trackID := "local:" + sanitizeID(label)
	track := domain.SubtitleTrack{
		TrackID:       trackID,
		LanguageLabel: label,
		DisplayLabel:  label,
		SourceURL:     m.arena.Store(trackID, content),
		Local:         true,
	}
	m.addAndActivate(track)
	metrics.SubtitleTracksAdded.WithLabelValues("local").Inc()
	return track, nil
}

// Remove drops a track, releasing its blob if locally owned. The active
// selection falls back to "off" inside the reducer.
func (m *Manager) Remove(trackID string) {
	if m.arena.Release(trackID) {
		m.logger.Debug("released local subtitle blob", slog.String("trackId", trackID))
	}
	m.dispatcher.Dispatch(domain.RemoveSubtitle{TrackID: trackID})
}

// Translate produces a new AI-translated track for the active subtitle. The
// original track is never mutated; failures leave the track set untouched.
func (m *Manager) Translate(ctx context.Context, targetLanguage string) (domain.SubtitleTrack, error) {
	active, err := m.activeTrack()
	if err != nil {
		return domain.SubtitleTrack{}, err
	}
	label := fmt.Sprintf("%s (AI)", targetLanguage)
	if m.labelExists(label) {
		return domain.SubtitleTrack{}, fmt.Errorf("%w: %q", ErrDuplicateTrack, label)
	}

	gen := m.dispatcher.Generation()
	text, err := m.resolveText(ctx, active)
	if err != nil {
		return domain.SubtitleTrack{}, err
	}

	translated, err := m.translator.Translate(ctx, text, targetLanguage)
	if err != nil {
		metrics.SubtitleOpsTotal.WithLabelValues("translate", "error").Inc()
		return domain.SubtitleTrack{}, fmt.Errorf("%w: %v", ErrTranslate, err)
	}
	if m.dispatcher.Generation() != gen {
		return domain.SubtitleTrack{}, ErrStaleContent
	}

	trackID := "ai:" + sanitizeID(label)
	track := domain.SubtitleTrack{
		TrackID:       trackID,
		LanguageLabel: targetLanguage,
		DisplayLabel:  label,
		SourceURL:     m.arena.Store(trackID, translated),
		Local:         true,
	}
	m.addAndActivate(track)
	metrics.SubtitleOpsTotal.WithLabelValues("translate", "ok").Inc()
	metrics.SubtitleTracksAdded.WithLabelValues("translated").Inc()
	return track, nil
}

// Synchronize produces a re-timed copy of the active subtitle as a new
// "(Synced)" track.
func (m *Manager) Synchronize(ctx context.Context) (domain.SubtitleTrack, error) {
	active, err := m.activeTrack()
	if err != nil {
		return domain.SubtitleTrack{}, err
	}
	label := fmt.Sprintf("%s (Synced)", active.DisplayLabel)
	if m.labelExists(label) {
		return domain.SubtitleTrack{}, fmt.Errorf("%w: %q", ErrDuplicateTrack, label)
	}

	gen := m.dispatcher.Generation()
	text, err := m.resolveText(ctx, active)
	if err != nil {
		return domain.SubtitleTrack{}, err
	}
	format := string(DetectFormat(text))

	corrected, err := m.synchronizer.Synchronize(ctx, text, format)
	if err != nil {
		metrics.SubtitleOpsTotal.WithLabelValues("synchronize", "error").Inc()
		return domain.SubtitleTrack{}, fmt.Errorf("%w: %v", ErrSynchronize, err)
	}
	if m.dispatcher.Generation() != gen {
		return domain.SubtitleTrack{}, ErrStaleContent
	}

	trackID := "ai:" + sanitizeID(label)
	track := domain.SubtitleTrack{
		TrackID:       trackID,
		LanguageLabel: active.LanguageLabel,
		DisplayLabel:  label,
		SourceURL:     m.arena.Store(trackID, corrected),
		Local:         true,
	}
	m.addAndActivate(track)
	metrics.SubtitleOpsTotal.WithLabelValues("synchronize", "ok").Inc()
	metrics.SubtitleTracksAdded.WithLabelValues("synced").Inc()
	return track, nil
}

// Text returns the locally held cue text of a track, if the manager owns it.
func (m *Manager) Text(trackID string) (string, bool) {
	return m.arena.Get(trackID)
}

// OwnedBlobs reports how many local blobs are currently alive.
func (m *Manager) OwnedBlobs() int {
	return m.arena.Len()
}

// Close releases every locally owned blob. Called once on session teardown.
func (m *Manager) Close() {
	if n := m.arena.ReleaseAll(); n > 0 {
		m.logger.Debug("released subtitle blobs on teardown", slog.Int("count", n))
	}
}

// addAndActivate adds the track and activates it only once it is confirmed
// present in state. Dispatch is serialized, so the presence check after the
// add observes the add (or its rejection).
func (m *Manager) addAndActivate(track domain.SubtitleTrack) {
	m.dispatcher.Dispatch(domain.AddSubtitle{Track: track})
	if m.dispatcher.State().HasSubtitle(track.TrackID) {
		m.dispatcher.Dispatch(domain.SubtitleChange{TrackID: track.TrackID})
	}
}

func (m *Manager) activeTrack() (domain.SubtitleTrack, error) {
	state := m.dispatcher.State()
	if state.ActiveSubtitleID == domain.SubtitleOff || state.ActiveSubtitleID == "" {
		return domain.SubtitleTrack{}, ErrNoActiveSubtitle
	}
	for _, t := range state.AvailableSubtitles {
		if t.TrackID == state.ActiveSubtitleID {
			return t, nil
		}
	}
	return domain.SubtitleTrack{}, ErrNoActiveSubtitle
}

func (m *Manager) resolveText(ctx context.Context, track domain.SubtitleTrack) (string, error) {
	if text, ok := m.arena.Get(track.TrackID); ok {
		return text, nil
	}
	if m.fetcher == nil {
		return "", fmt.Errorf("%w: no fetcher configured", ErrFetchText)
	}
	text, err := m.fetcher.FetchText(ctx, track.SourceURL)
	if err != nil {
		return "", fmt.Errorf("%w: %v", ErrFetchText, err)
	}
	return text, nil
}

func (m *Manager) labelExists(label string) bool {
	for _, t := range m.dispatcher.State().AvailableSubtitles {
		if t.DisplayLabel == label {
			return true
		}
	}
	return false
}

func sanitizeID(label string) string {
	return strings.Map(func(r rune) rune {
		switch {
		case r >= 'a' && r <= 'z', r >= '0' && r <= '9':
			return r
		case r >= 'A' && r <= 'Z':
			return r + ('a' - 'A')
		default:
			return '-'
		}
	}, label)
}
