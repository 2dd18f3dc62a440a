// Package engine selects and drives exactly one playback path per content
// item: a DRM-capable engine, an adaptive-bitrate engine, or a direct source
// assignment. The previous handle is always destroyed before the next one is
// created; the media surface never has two engines attached.
package engine

import (
	"context"
	"log/slog"
	"net/url"
	"path"
	"strings"
	"sync"

	"playbackengine/internal/domain"
	"playbackengine/internal/domain/ports"
	"playbackengine/internal/metrics"
)

// Dispatcher is the slice of the session the adapter dispatches into.
type Dispatcher interface {
	Dispatch(a domain.Action)
	Generation() uint64
}

// Adapter owns the engine handle attached to one media surface.
type Adapter struct {
	factory    ports.EngineFactory
	surface    ports.MediaSurface
	dispatcher Dispatcher
	logger     *slog.Logger

	mu      sync.Mutex
	handle  ports.EngineHandle
	kind    domain.EngineKind
	content domain.ContentDescriptor
}

func NewAdapter(factory ports.EngineFactory, surface ports.MediaSurface, dispatcher Dispatcher, logger *slog.Logger) *Adapter {
	if logger == nil {
		logger = slog.Default()
	}
	return &Adapter{
		factory:    factory,
		surface:    surface,
		dispatcher: dispatcher,
		logger:     logger,
		kind:       domain.EngineNone,
	}
}

// Init attaches the right playback path for the content. Re-invoking it for a
// new content (or after an audio-track re-selection) first tears the previous
// handle down, so initialization is idempotent per content.
func (a *Adapter) Init(ctx context.Context, content domain.ContentDescriptor, sourceURL string) error {
	if sourceURL == "" {
		sourceURL = content.VideoURL
	}

	a.mu.Lock()
	defer a.mu.Unlock()

	gen := a.dispatcher.Generation()
	a.destroyLocked()
	a.content = content

	switch {
	case content.DRM != nil:
		return a.initDRMLocked(ctx, gen, sourceURL, *content.DRM)
	case isManifestURL(sourceURL):
		return a.initAdaptiveLocked(ctx, gen, sourceURL)
	default:
		return a.initDirectLocked(gen, sourceURL)
	}
}

// Reload re-invokes the last content's path selection; used by retry. The
// content is recorded before the first attach attempt, so a load that failed
// straight away can still be reloaded.
func (a *Adapter) Reload(ctx context.Context) error {
	a.mu.Lock()
	content := a.content
	a.mu.Unlock()
	if content.ID == "" {
		return domain.ErrNotFound
	}
	return a.Init(ctx, content, "")
}

func (a *Adapter) initDRMLocked(ctx context.Context, gen uint64, sourceURL string, drm domain.DRMDescriptor) error {
	handle, err := a.factory.NewDRM(ctx, sourceURL, drm)
	if err != nil {
		a.failLocked(gen, err)
		return err
	}
	a.attachLocked(gen, handle, domain.EngineDRM)
	return nil
}

func (a *Adapter) initAdaptiveLocked(ctx context.Context, gen uint64, sourceURL string) error {
	handle, err := a.factory.NewAdaptive(ctx, sourceURL)
	if err != nil {
		a.failLocked(gen, err)
		return err
	}
	a.attachLocked(gen, handle, domain.EngineAdaptive)
	return nil
}

func (a *Adapter) initDirectLocked(gen uint64, sourceURL string) error {
	if err := a.surface.AttachSource(sourceURL); err != nil {
		a.failLocked(gen, err)
		return err
	}
	a.kind = domain.EngineDirect
	if a.stale(gen) {
		return nil
	}
	a.dispatcher.Dispatch(domain.EngineInit{Kind: domain.EngineDirect})
	metrics.EngineInitsTotal.WithLabelValues(string(domain.EngineDirect)).Inc()
	return nil
}

func (a *Adapter) attachLocked(gen uint64, handle ports.EngineHandle, kind domain.EngineKind) {
	a.handle = handle
	a.kind = kind
	if a.stale(gen) {
		// Content changed while the engine was initializing: tear the
		// late handle down instead of applying its events.
		a.destroyLocked()
		return
	}
	a.dispatcher.Dispatch(domain.EngineInit{Kind: kind})
	if levels := handle.QualityLevels(); len(levels) > 0 {
		a.dispatcher.Dispatch(domain.LevelsLoaded{Levels: levels})
	}
	if renditions := handle.AudioRenditions(); len(renditions) > 0 {
		a.dispatcher.Dispatch(domain.TracksLoaded{Renditions: renditions})
	}
	metrics.EngineInitsTotal.WithLabelValues(string(kind)).Inc()
	a.logger.Info("engine attached",
		slog.String("kind", string(kind)),
		slog.Int("levels", len(handle.QualityLevels())),
	)
}

func (a *Adapter) failLocked(gen uint64, err error) {
	class := domain.Classify(err)
	metrics.PlaybackErrorsTotal.WithLabelValues(string(class)).Inc()
	if a.stale(gen) {
		return
	}
	a.dispatcher.Dispatch(domain.Error{Record: domain.NewErrorRecord(class, "")})
	a.logger.Warn("engine init failed",
		slog.String("class", string(class)),
		slog.String("error", err.Error()),
	)
}

// OnElementError maps a native media-element error (as opposed to an engine
// error) to a generic retryable record.
func (a *Adapter) OnElementError(detail string) {
	metrics.PlaybackErrorsTotal.WithLabelValues(string(domain.ErrClassMedia)).Inc()
	a.dispatcher.Dispatch(domain.Error{Record: domain.NewErrorRecord(domain.ErrClassMedia, detail)})
}

// SetQuality forwards a manual quality selection to the live handle.
// domain.AutoQuality clears the override.
func (a *Adapter) SetQuality(index int) error {
	a.mu.Lock()
	handle := a.handle
	a.mu.Unlock()
	if handle == nil {
		return domain.ErrUnsupported
	}
	if err := handle.SetQuality(index); err != nil {
		return err
	}
	a.dispatcher.Dispatch(domain.SetQuality{Index: index})
	return nil
}

// SetAudioRendition selects an embedded audio track on the live handle.
func (a *Adapter) SetAudioRendition(id string) error {
	a.mu.Lock()
	handle := a.handle
	a.mu.Unlock()
	if handle == nil {
		return domain.ErrUnsupported
	}
	if err := handle.SetAudioRendition(id); err != nil {
		return err
	}
	a.dispatcher.Dispatch(domain.SetAudioTrack{ID: id})
	return nil
}

// Kind reports the currently attached playback path.
func (a *Adapter) Kind() domain.EngineKind {
	a.mu.Lock()
	defer a.mu.Unlock()
	return a.kind
}

// Destroy tears down whatever handle is alive and detaches the surface.
func (a *Adapter) Destroy() {
	a.mu.Lock()
	defer a.mu.Unlock()
	a.destroyLocked()
	a.dispatcher.Dispatch(domain.DestroyEngines{})
}

func (a *Adapter) destroyLocked() {
	if a.handle != nil {
		a.handle.Destroy()
		a.handle = nil
	}
	if a.kind != domain.EngineNone {
		a.surface.Detach()
	}
	a.kind = domain.EngineNone
}

func (a *Adapter) stale(gen uint64) bool {
	return a.dispatcher.Generation() != gen
}

// isManifestURL reports whether the URL points at an adaptive-streaming
// manifest rather than a progressive file.
func isManifestURL(raw string) bool {
	u, err := url.Parse(raw)
	if err != nil {
		return false
	}
	switch strings.ToLower(path.Ext(u.Path)) {
	case ".m3u8", ".mpd":
		return true
	}
	return false
}
