package ports

import (
	"context"

	"playbackengine/internal/domain"
)

// EngineHandle is one attached playback path. At most one handle is alive per
// media surface; the adapter destroys the previous handle before creating the
// next one.
type EngineHandle interface {
	Kind() domain.EngineKind
	QualityLevels() []domain.QualityLevel
	AudioRenditions() []domain.AudioRendition
	// SetQuality applies a manual level; domain.AutoQuality restores
	// adaptive switching.
	SetQuality(index int) error
	SetAudioRendition(id string) error
	Destroy()
}

// EngineFactory creates engine handles for the adaptive and DRM paths. The
// direct path needs no handle; the adapter assigns the URL to the surface.
type EngineFactory interface {
	NewAdaptive(ctx context.Context, manifestURL string) (EngineHandle, error)
	NewDRM(ctx context.Context, manifestURL string, drm domain.DRMDescriptor) (EngineHandle, error)
}

// MediaSurface abstracts the media element the session drives. Attach and
// Detach are only ever called by the streaming engine adapter.
type MediaSurface interface {
	AttachSource(url string) error
	Detach()
}
