package session

import (
	"context"
	"log/slog"
	"sync"

	"github.com/google/uuid"

	"playbackengine/internal/domain"
	"playbackengine/internal/domain/ports"
	"playbackengine/internal/services/surface"
)

// ManagerConfig carries the collaborators shared by every session.
type ManagerConfig struct {
	Factory      ports.EngineFactory
	Translator   ports.Translator
	Synchronizer ports.Synchronizer
	Fetcher      ports.TextFetcher
	Preferences  ports.PreferencesStore
	Progress     ports.ProgressStore
	Navigator    ports.Navigator
	Logger       *slog.Logger

	// OnChange receives every state snapshot, keyed by session id.
	OnChange func(sessionID string, state domain.PlaybackSession)

	// OnSurfaceSource is told which URL a session's surface carries; an empty
	// URL means the source was detached. The hook is bound before the session
	// mounts, so the initial attach is always delivered.
	OnSurfaceSource func(sessionID string, url string)
}

// Manager owns all mounted sessions. Each session gets its own media surface;
// replacing a session's content closes the old session first so the previous
// engine handle is gone before the next one exists.
type Manager struct {
	cfg ManagerConfig

	mu       sync.Mutex
	sessions map[string]*Session
	surfaces map[string]*surface.Surface
}

func NewManager(cfg ManagerConfig) *Manager {
	if cfg.Logger == nil {
		cfg.Logger = slog.Default()
	}
	return &Manager{
		cfg:      cfg,
		sessions: make(map[string]*Session),
		surfaces: make(map[string]*surface.Surface),
	}
}

// Create mounts a new session for the content, loading the user's stored
// preferences first. Returns the session id.
func (m *Manager) Create(ctx context.Context, userID string, content domain.ContentDescriptor) (string, *Session, error) {
	if err := content.Validate(); err != nil {
		return "", nil, err
	}

	prefs := domain.DefaultPreferences()
	if m.cfg.Preferences != nil {
		if stored, ok, err := m.cfg.Preferences.Get(ctx, userID); err != nil {
			m.cfg.Logger.Warn("preferences load failed", slog.String("error", err.Error()))
		} else if ok {
			prefs = stored.Normalize()
		}
	}

	id := uuid.NewString()
	surf := m.newSurface(id)

	sess := New(Config{
		UserID:       userID,
		Content:      content,
		Prefs:        prefs,
		Factory:      m.cfg.Factory,
		Surface:      surf,
		Translator:   m.cfg.Translator,
		Synchronizer: m.cfg.Synchronizer,
		Fetcher:      m.cfg.Fetcher,
		Progress:     m.cfg.Progress,
		Navigator:    m.cfg.Navigator,
		Logger:       m.cfg.Logger.With(slog.String("sessionId", id)),
		OnChange: func(state domain.PlaybackSession) {
			if m.cfg.OnChange != nil {
				m.cfg.OnChange(id, state)
			}
		},
	})

	m.mu.Lock()
	m.sessions[id] = sess
	m.surfaces[id] = surf
	m.mu.Unlock()

	sess.Mount(ctx)
	return id, sess, nil
}

// Replace swaps the content of an existing session id: the old session is
// fully torn down (engine destroyed, blobs released, position saved) before
// the new one is constructed.
func (m *Manager) Replace(ctx context.Context, id, userID string, content domain.ContentDescriptor) (*Session, error) {
	if err := content.Validate(); err != nil {
		return nil, err
	}

	m.mu.Lock()
	old, ok := m.sessions[id]
	m.mu.Unlock()
	if !ok {
		return nil, domain.ErrNotFound
	}
	old.Close()

	prefs := domain.DefaultPreferences()
	if m.cfg.Preferences != nil {
		if stored, ok, err := m.cfg.Preferences.Get(ctx, userID); err == nil && ok {
			prefs = stored.Normalize()
		}
	}

	surf := m.newSurface(id)
	sess := New(Config{
		UserID:       userID,
		Content:      content,
		Prefs:        prefs,
		Factory:      m.cfg.Factory,
		Surface:      surf,
		Translator:   m.cfg.Translator,
		Synchronizer: m.cfg.Synchronizer,
		Fetcher:      m.cfg.Fetcher,
		Progress:     m.cfg.Progress,
		Navigator:    m.cfg.Navigator,
		Logger:       m.cfg.Logger.With(slog.String("sessionId", id)),
		OnChange: func(state domain.PlaybackSession) {
			if m.cfg.OnChange != nil {
				m.cfg.OnChange(id, state)
			}
		},
	})

	m.mu.Lock()
	m.sessions[id] = sess
	m.surfaces[id] = surf
	m.mu.Unlock()

	sess.Mount(ctx)
	return sess, nil
}

// newSurface builds a session's media surface with the source hook bound
// before any session goroutine can reach it.
func (m *Manager) newSurface(id string) *surface.Surface {
	surf := surface.New()
	if m.cfg.OnSurfaceSource != nil {
		surf.OnAttach = func(url string) { m.cfg.OnSurfaceSource(id, url) }
		surf.OnDetach = func() { m.cfg.OnSurfaceSource(id, "") }
	}
	return surf
}

// Get returns the session for an id.
func (m *Manager) Get(id string) (*Session, bool) {
	m.mu.Lock()
	defer m.mu.Unlock()
	sess, ok := m.sessions[id]
	return sess, ok
}

// Surface returns the media surface owned by a session.
func (m *Manager) Surface(id string) (*surface.Surface, bool) {
	m.mu.Lock()
	defer m.mu.Unlock()
	surf, ok := m.surfaces[id]
	return surf, ok
}

// Destroy unmounts a session and releases its resources.
func (m *Manager) Destroy(id string) error {
	m.mu.Lock()
	sess, ok := m.sessions[id]
	delete(m.sessions, id)
	delete(m.surfaces, id)
	m.mu.Unlock()
	if !ok {
		return domain.ErrNotFound
	}
	sess.Close()
	return nil
}

// Close tears down every mounted session; used on server shutdown.
func (m *Manager) Close() {
	m.mu.Lock()
	sessions := make([]*Session, 0, len(m.sessions))
	for _, sess := range m.sessions {
		sessions = append(sessions, sess)
	}
	m.sessions = make(map[string]*Session)
	m.surfaces = make(map[string]*surface.Surface)
	m.mu.Unlock()

	for _, sess := range sessions {
		sess.Close()
	}
}

// Count reports how many sessions are mounted.
func (m *Manager) Count() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return len(m.sessions)
}
