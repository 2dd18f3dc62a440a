package ports

import (
	"context"

	"playbackengine/internal/domain"
)

type PreferencesStore interface {
	Get(ctx context.Context, userID string) (domain.Preferences, bool, error)
	Put(ctx context.Context, userID string, prefs domain.Preferences) error
}

type ProgressStore interface {
	Upsert(ctx context.Context, userID string, wp domain.WatchProgress) error
	// Get returns the stored position, or ok=false when the item was never
	// watched.
	Get(ctx context.Context, userID string, contentID domain.ContentID) (domain.WatchProgress, bool, error)
	ListRecent(ctx context.Context, userID string, limit int) ([]domain.WatchProgress, error)
}
