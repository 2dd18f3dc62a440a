// Package session hosts the playback state machine: a single authoritative
// state object, a pure reducer, and the runtime that owns timers, the engine
// adapter, the subtitle manager and the up-next countdown for one mounted
// content item.
package session

import (
	"context"
	"log/slog"
	"sync"
	"sync/atomic"
	"time"

	"golang.org/x/time/rate"

	"playbackengine/internal/domain"
	"playbackengine/internal/domain/ports"
	"playbackengine/internal/engine"
	"playbackengine/internal/input"
	"playbackengine/internal/metrics"
	"playbackengine/internal/preview"
	"playbackengine/internal/subtitle"
	"playbackengine/internal/upnext"
)

const (
	controlsAutoHideDelay = 3 * time.Second
	progressSaveInterval  = 5 * time.Second
	storeTimeout          = 5 * time.Second

	// Resume positions in the last few percent restart from the top.
	resumeCutoffRatio = 0.95
)

// Config wires one session's collaborators.
type Config struct {
	UserID  string
	Content domain.ContentDescriptor
	Prefs   domain.Preferences

	Factory      ports.EngineFactory
	Surface      ports.MediaSurface
	Translator   ports.Translator
	Synchronizer ports.Synchronizer
	Fetcher      ports.TextFetcher
	Progress     ports.ProgressStore
	Navigator    ports.Navigator

	Logger *slog.Logger

	// OnChange receives a state snapshot after every applied action, in
	// application order. It runs on the dispatching goroutine and must not
	// dispatch back into the session.
	OnChange func(domain.PlaybackSession)
}

// Session owns the full lifecycle of playback for one content item. All
// actions are applied in dispatch order; async results are validated against
// the content generation they started under.
type Session struct {
	cfg    Config
	logger *slog.Logger

	// dispatchMu spans reduce and snapshot delivery so OnChange sees
	// snapshots in the order the actions applied; mu alone guards state.
	dispatchMu sync.Mutex

	mu    sync.Mutex
	state domain.PlaybackSession

	generation atomic.Uint64
	closed     atomic.Bool

	adapter   *engine.Adapter
	subtitles *subtitle.Manager
	upNext    *upnext.Controller
	gestures  *input.Recognizer

	thumbsMu sync.Mutex
	thumbs   *preview.Index

	resumeMu sync.Mutex
	resumeAt float64

	timerMu       sync.Mutex
	hideTimer     *time.Timer
	osdTimers     []*time.Timer
	tapTimer      *time.Timer
	saveLimiter   *rate.Limiter
	lastSavedPos  float64
	lastSavedDone bool
}

func New(cfg Config) *Session {
	if cfg.Logger == nil {
		cfg.Logger = slog.Default()
	}
	s := &Session{
		cfg:         cfg,
		logger:      cfg.Logger.With(slog.String("contentId", string(cfg.Content.ID))),
		gestures:    input.NewRecognizer(0, 0),
		saveLimiter: rate.NewLimiter(rate.Every(progressSaveInterval), 1),
	}
	s.adapter = engine.NewAdapter(cfg.Factory, cfg.Surface, s, cfg.Logger)
	s.subtitles = subtitle.NewManager(s, cfg.Translator, cfg.Synchronizer, cfg.Fetcher, cfg.Logger)
	s.upNext = upnext.NewController(s, navigatorFunc(cfg), cfg.Logger)

	s.state = Reduce(domain.PlaybackSession{}, domain.Reset{
		ContentID: cfg.Content.ID,
		Prefs:     cfg.Prefs,
		Subtitles: cfg.Content.Subtitles,
		Dubbed:    cfg.Content.DubbedAudioTracks,
	})
	metrics.ActiveSessions.Inc()
	return s
}

type navigatorFunc Config

func (n navigatorFunc) NavigateNext(contentID string, autoplay bool) {
	if n.Navigator != nil {
		n.Navigator.NavigateNext(contentID, autoplay)
	}
}

// Mount kicks off the async boundaries of session start: resume-position
// lookup, engine initialization, and thumbnail-index load. Playback stays
// responsive; each result dispatches when it lands.
func (s *Session) Mount(ctx context.Context) {
	gen := s.Generation()

	go s.lookupResume(ctx, gen)
	go func() {
		_ = s.adapter.Init(ctx, s.cfg.Content, "")
	}()
	if s.cfg.Content.ThumbnailIndexURL != "" && s.cfg.Fetcher != nil {
		go s.loadThumbnails(ctx, gen)
	}
}

// Dispatch applies one action and runs its side effects. It is safe for
// concurrent use; actions apply in the order the lock is acquired.
func (s *Session) Dispatch(a domain.Action) {
	if s.closed.Load() {
		return
	}

	s.dispatchMu.Lock()
	s.mu.Lock()
	s.state = Reduce(s.state, a)
	snapshot := s.state
	s.mu.Unlock()
	if s.cfg.OnChange != nil {
		s.cfg.OnChange(snapshot)
	}
	s.dispatchMu.Unlock()

	metrics.ActionsAppliedTotal.Inc()
	s.afterDispatch(a, snapshot)
}

// State returns a copy of the current session state.
func (s *Session) State() domain.PlaybackSession {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.state
}

// Generation identifies the current content identity; async results from an
// older generation must be dropped.
func (s *Session) Generation() uint64 {
	return s.generation.Load()
}

// Subtitles exposes the session's subtitle manager.
func (s *Session) Subtitles() *subtitle.Manager {
	return s.subtitles
}

// UpNext exposes the countdown controller for cancel/confirm.
func (s *Session) UpNext() *upnext.Controller {
	return s.upNext
}

// afterDispatch schedules the cooperative timers an action implies.
func (s *Session) afterDispatch(a domain.Action, state domain.PlaybackSession) {
	switch act := a.(type) {
	case domain.ShowOSD:
		s.scheduleOSDExpiry(act.At)
	case domain.TimeUpdate:
		s.maybeSaveProgress(state)
	case domain.Ended:
		s.saveProgress(state)
		if state.UpNext.Phase == domain.UpNextVisible {
			s.upNext.Start(s.cfg.Content.NextContentID, state.UpNext.RemainingSeconds)
		}
	case domain.Play, domain.ToggleControls:
		s.resetAutoHide(state)
	case domain.Pause:
		s.cancelAutoHide()
	}
}

// --- surface events -------------------------------------------------------

// OnSurfaceReady is called when the media surface has metadata. The resume
// position looked up at mount time is applied here.
func (s *Session) OnSurfaceReady(duration float64) {
	s.resumeMu.Lock()
	startAt := s.resumeAt
	s.resumeMu.Unlock()
	s.Dispatch(domain.Ready{DurationSeconds: duration, StartAt: startAt})
}

// OnSurfaceEnded translates the surface's ended event, gating the up-next
// countdown on the autoplay preference and a known next item.
func (s *Session) OnSurfaceEnded() {
	s.Dispatch(domain.Ended{
		AutoplayNext: s.cfg.Prefs.Autoplay,
		HasNext:      s.cfg.Content.NextContentID != "",
		CountdownSec: s.cfg.Prefs.UpNextCountdownSeconds,
	})
}

// OnSurfaceError maps a native element error to a generic retryable record.
func (s *Session) OnSurfaceError(detail string) {
	s.adapter.OnElementError(detail)
}

// --- input ----------------------------------------------------------------

// HandleKey maps a keyboard event onto actions and dispatches them.
func (s *Session) HandleKey(ev input.KeyEvent) {
	for _, a := range input.MapKey(ev, s.State(), s.cfg.Prefs.SeekIntervalSeconds) {
		s.Dispatch(a)
	}
}

// HandleTouchBegin starts a gesture sequence.
func (s *Session) HandleTouchBegin(x, y, width, height float64) {
	s.gestures.Resize(width, height)
	s.gestures.Begin(x, y, s.State())
}

// HandleTouchMove feeds a gesture move.
func (s *Session) HandleTouchMove(x, y float64) {
	for _, a := range s.gestures.Move(x, y, time.Now()) {
		s.Dispatch(a)
	}
}

// HandleTouchEnd finishes a gesture. Single taps are debounced against a
// second tap before toggling control visibility.
func (s *Session) HandleTouchEnd(x float64) {
	actions, tapPending := s.gestures.End(x, time.Now(), s.State(), s.cfg.Prefs.SeekIntervalSeconds)
	for _, a := range actions {
		s.Dispatch(a)
	}
	if !tapPending {
		return
	}
	s.timerMu.Lock()
	if s.tapTimer != nil {
		s.tapTimer.Stop()
	}
	s.tapTimer = time.AfterFunc(input.DoubleTapWindow, func() {
		if s.closed.Load() || !s.gestures.TapExpired(time.Now()) {
			return
		}
		s.gestures.ClearTap()
		s.Dispatch(domain.ToggleControls{Show: !s.State().ShowControls})
	})
	s.timerMu.Unlock()
}

// --- engine ---------------------------------------------------------------

// Retry reloads the current source after a retryable error, resuming from the
// last known position.
func (s *Session) Retry(ctx context.Context) {
	state := s.State()
	if state.Err == nil || !state.Err.CanRetry {
		return
	}
	s.resumeMu.Lock()
	s.resumeAt = state.ProgressSeconds
	s.resumeMu.Unlock()

	s.Dispatch(domain.Retry{})
	go func() {
		if err := s.adapter.Reload(ctx); err != nil {
			s.logger.Warn("reload failed", slog.String("error", err.Error()))
		}
	}()
}

// SetQuality forwards a manual quality selection to the live engine handle.
func (s *Session) SetQuality(index int) error {
	return s.adapter.SetQuality(index)
}

// SelectAudioTrack switches the audio track. Embedded renditions switch on
// the live handle; dubbed tracks re-initialize the engine with the dub source,
// destroying the previous handle first.
func (s *Session) SelectAudioTrack(ctx context.Context, id string) error {
	if id == domain.AudioOriginal {
		s.resumeMu.Lock()
		s.resumeAt = s.State().ProgressSeconds
		s.resumeMu.Unlock()
		if err := s.adapter.Init(ctx, s.cfg.Content, ""); err != nil {
			return err
		}
		s.Dispatch(domain.AudioTrackChange{TrackID: id})
		return nil
	}
	for _, dub := range s.cfg.Content.DubbedAudioTracks {
		if dub.Language == id {
			s.resumeMu.Lock()
			s.resumeAt = s.State().ProgressSeconds
			s.resumeMu.Unlock()
			if err := s.adapter.Init(ctx, s.cfg.Content, dub.URL); err != nil {
				return err
			}
			s.Dispatch(domain.AudioTrackChange{TrackID: id})
			return nil
		}
	}
	if err := s.adapter.SetAudioRendition(id); err != nil {
		return err
	}
	return nil
}

// --- thumbnails -----------------------------------------------------------

// ThumbnailAt maps a hovered time to a sprite region, if the index has one.
func (s *Session) ThumbnailAt(t float64) (preview.Region, bool) {
	s.thumbsMu.Lock()
	idx := s.thumbs
	s.thumbsMu.Unlock()
	return idx.At(t)
}

func (s *Session) loadThumbnails(ctx context.Context, gen uint64) {
	text, err := s.cfg.Fetcher.FetchText(ctx, s.cfg.Content.ThumbnailIndexURL)
	if err != nil {
		s.logger.Debug("thumbnail index fetch failed", slog.String("error", err.Error()))
		return
	}
	idx, err := preview.ParseIndex(text)
	if err != nil {
		s.logger.Debug("thumbnail index parse failed", slog.String("error", err.Error()))
		return
	}
	if s.Generation() != gen {
		return
	}
	s.thumbsMu.Lock()
	s.thumbs = idx
	s.thumbsMu.Unlock()
	s.logger.Debug("thumbnail index loaded", slog.Int("cues", idx.Len()))
}

// --- persistence ----------------------------------------------------------

func (s *Session) lookupResume(ctx context.Context, gen uint64) {
	if s.cfg.Progress == nil {
		return
	}
	wp, ok, err := s.cfg.Progress.Get(ctx, s.cfg.UserID, s.cfg.Content.ID)
	if err != nil {
		s.logger.Warn("resume lookup failed", slog.String("error", err.Error()))
		return
	}
	if !ok || s.Generation() != gen {
		return
	}
	if wp.Duration > 0 && wp.Position >= wp.Duration*resumeCutoffRatio {
		return
	}
	s.resumeMu.Lock()
	s.resumeAt = wp.Position
	s.resumeMu.Unlock()
}

func (s *Session) maybeSaveProgress(state domain.PlaybackSession) {
	if !s.saveLimiter.Allow() {
		return
	}
	go s.saveProgress(state)
}

func (s *Session) saveProgress(state domain.PlaybackSession) {
	if s.cfg.Progress == nil || !state.IsReady {
		return
	}
	ctx, cancel := context.WithTimeout(context.Background(), storeTimeout)
	defer cancel()
	err := s.cfg.Progress.Upsert(ctx, s.cfg.UserID, domain.WatchProgress{
		ContentID: state.ContentID,
		Position:  state.ProgressSeconds,
		Duration:  state.DurationSeconds,
	})
	if err != nil {
		metrics.ProgressSavesTotal.WithLabelValues("error").Inc()
		s.logger.Warn("progress save failed", slog.String("error", err.Error()))
		return
	}
	metrics.ProgressSavesTotal.WithLabelValues("ok").Inc()
}

// --- timers ---------------------------------------------------------------

func (s *Session) scheduleOSDExpiry(at time.Time) {
	s.timerMu.Lock()
	defer s.timerMu.Unlock()
	timer := time.AfterFunc(domain.OSDTTL, func() {
		if s.closed.Load() {
			return
		}
		s.Dispatch(domain.ExpireOSD{Cutoff: at})
	})
	s.osdTimers = append(s.osdTimers, timer)
	// Drop references to fired timers opportunistically.
	if len(s.osdTimers) > 16 {
		s.osdTimers = s.osdTimers[len(s.osdTimers)-8:]
	}
}

func (s *Session) resetAutoHide(state domain.PlaybackSession) {
	s.timerMu.Lock()
	defer s.timerMu.Unlock()
	if s.hideTimer != nil {
		s.hideTimer.Stop()
		s.hideTimer = nil
	}
	if !state.IsPlaying || !state.ShowControls || state.IsSettingsOpen {
		return
	}
	s.hideTimer = time.AfterFunc(controlsAutoHideDelay, func() {
		if s.closed.Load() {
			return
		}
		if cur := s.State(); cur.IsPlaying && !cur.IsSettingsOpen {
			s.Dispatch(domain.ToggleControls{Show: false})
		}
	})
}

func (s *Session) cancelAutoHide() {
	s.timerMu.Lock()
	defer s.timerMu.Unlock()
	if s.hideTimer != nil {
		s.hideTimer.Stop()
		s.hideTimer = nil
	}
}

// --- teardown -------------------------------------------------------------

// Close tears the session down: timers stopped, countdown cancelled, engine
// destroyed, subtitle blobs released, final position persisted best-effort.
// No timer fires after Close returns.
func (s *Session) Close() {
	if !s.closed.CompareAndSwap(false, true) {
		return
	}
	s.generation.Add(1)

	s.timerMu.Lock()
	if s.hideTimer != nil {
		s.hideTimer.Stop()
	}
	if s.tapTimer != nil {
		s.tapTimer.Stop()
	}
	for _, t := range s.osdTimers {
		t.Stop()
	}
	s.osdTimers = nil
	s.timerMu.Unlock()

	s.upNext.Stop()
	s.adapter.Destroy()
	s.subtitles.Close()
	s.saveProgress(s.stateUnlocked())

	metrics.ActiveSessions.Dec()
	s.logger.Info("session closed")
}

func (s *Session) stateUnlocked() domain.PlaybackSession {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.state
}
