package engine

import (
	"context"
	"errors"
	"sync"
	"sync/atomic"
	"testing"

	"playbackengine/internal/domain"
	"playbackengine/internal/domain/ports"
)

// ---- fakes ----

type fakeDispatcher struct {
	mu      sync.Mutex
	actions []domain.Action
	gen     atomic.Uint64
}

func (d *fakeDispatcher) Dispatch(a domain.Action) {
	d.mu.Lock()
	d.actions = append(d.actions, a)
	d.mu.Unlock()
}

func (d *fakeDispatcher) Generation() uint64 { return d.gen.Load() }

func (d *fakeDispatcher) all() []domain.Action {
	d.mu.Lock()
	defer d.mu.Unlock()
	out := make([]domain.Action, len(d.actions))
	copy(out, d.actions)
	return out
}

func (d *fakeDispatcher) lastError() (domain.ErrorRecord, bool) {
	for _, a := range d.all() {
		if e, ok := a.(domain.Error); ok {
			return e.Record, true
		}
	}
	return domain.ErrorRecord{}, false
}

type fakeHandle struct {
	kind       domain.EngineKind
	levels     []domain.QualityLevel
	renditions []domain.AudioRendition
	quality    int
	audio      string
	destroyed  atomic.Int32
}

func (h *fakeHandle) Kind() domain.EngineKind                  { return h.kind }
func (h *fakeHandle) QualityLevels() []domain.QualityLevel     { return h.levels }
func (h *fakeHandle) AudioRenditions() []domain.AudioRendition { return h.renditions }
func (h *fakeHandle) SetQuality(index int) error               { h.quality = index; return nil }
func (h *fakeHandle) SetAudioRendition(id string) error        { h.audio = id; return nil }
func (h *fakeHandle) Destroy()                                 { h.destroyed.Add(1) }

type fakeFactory struct {
	mu       sync.Mutex
	handles  []*fakeHandle
	adaptErr error
	drmErr   error
	onNew    func() // runs inside NewAdaptive/NewDRM, before returning
}

func (f *fakeFactory) NewAdaptive(_ context.Context, _ string) (ports.EngineHandle, error) {
	if f.onNew != nil {
		f.onNew()
	}
	if f.adaptErr != nil {
		return nil, f.adaptErr
	}
	h := &fakeHandle{
		kind:   domain.EngineAdaptive,
		levels: []domain.QualityLevel{{Index: 0, Height: 720}},
	}
	f.mu.Lock()
	f.handles = append(f.handles, h)
	f.mu.Unlock()
	return h, nil
}

func (f *fakeFactory) NewDRM(_ context.Context, _ string, _ domain.DRMDescriptor) (ports.EngineHandle, error) {
	if f.onNew != nil {
		f.onNew()
	}
	if f.drmErr != nil {
		return nil, f.drmErr
	}
	h := &fakeHandle{kind: domain.EngineDRM}
	f.mu.Lock()
	f.handles = append(f.handles, h)
	f.mu.Unlock()
	return h, nil
}

type fakeSurface struct {
	mu       sync.Mutex
	source   string
	attaches int
	detaches int
}

func (s *fakeSurface) AttachSource(url string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.source = url
	s.attaches++
	return nil
}

func (s *fakeSurface) Detach() {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.source = ""
	s.detaches++
}

func newTestAdapter() (*Adapter, *fakeFactory, *fakeSurface, *fakeDispatcher) {
	factory := &fakeFactory{}
	surface := &fakeSurface{}
	dispatcher := &fakeDispatcher{}
	return NewAdapter(factory, surface, dispatcher, nil), factory, surface, dispatcher
}

// ---- tests ----

func TestAdapter_Init_DirectPath(t *testing.T) {
	a, factory, surface, d := newTestAdapter()

	err := a.Init(context.Background(), domain.ContentDescriptor{
		ID: "c1", VideoURL: "http://cdn/movie.mp4",
	}, "")
	if err != nil {
		t.Fatalf("init: %v", err)
	}
	if a.Kind() != domain.EngineDirect {
		t.Fatalf("kind = %q, want direct", a.Kind())
	}
	if surface.source != "http://cdn/movie.mp4" {
		t.Fatalf("surface source = %q", surface.source)
	}
	if len(factory.handles) != 0 {
		t.Fatal("direct path must not build an engine handle")
	}
	if _, ok := d.all()[0].(domain.EngineInit); !ok {
		t.Fatalf("first action = %T, want EngineInit", d.all()[0])
	}
}

func TestAdapter_Init_AdaptivePath(t *testing.T) {
	a, factory, _, d := newTestAdapter()

	err := a.Init(context.Background(), domain.ContentDescriptor{
		ID: "c1", VideoURL: "http://cdn/master.m3u8",
	}, "")
	if err != nil {
		t.Fatalf("init: %v", err)
	}
	if a.Kind() != domain.EngineAdaptive {
		t.Fatalf("kind = %q, want adaptive", a.Kind())
	}
	if len(factory.handles) != 1 {
		t.Fatalf("handles = %d, want 1", len(factory.handles))
	}

	var gotLevels bool
	for _, act := range d.all() {
		if _, ok := act.(domain.LevelsLoaded); ok {
			gotLevels = true
		}
	}
	if !gotLevels {
		t.Fatal("expected LevelsLoaded after adaptive attach")
	}
}

func TestAdapter_Init_DRMPathWinsOverManifest(t *testing.T) {
	// DRM content with an m3u8 URL must take the DRM path, not the plain
	// adaptive one.
	a, factory, _, _ := newTestAdapter()

	err := a.Init(context.Background(), domain.ContentDescriptor{
		ID:       "c1",
		VideoURL: "http://cdn/master.m3u8",
		DRM:      &domain.DRMDescriptor{LicenseURL: "http://lic"},
	}, "")
	if err != nil {
		t.Fatalf("init: %v", err)
	}
	if a.Kind() != domain.EngineDRM {
		t.Fatalf("kind = %q, want drm", a.Kind())
	}
	if factory.handles[0].kind != domain.EngineDRM {
		t.Fatalf("handle kind = %q", factory.handles[0].kind)
	}
}

func TestAdapter_Init_DestroysPreviousHandle(t *testing.T) {
	a, factory, surface, _ := newTestAdapter()
	ctx := context.Background()

	if err := a.Init(ctx, domain.ContentDescriptor{ID: "c1", VideoURL: "http://cdn/a.m3u8"}, ""); err != nil {
		t.Fatalf("first init: %v", err)
	}
	if err := a.Init(ctx, domain.ContentDescriptor{ID: "c2", VideoURL: "http://cdn/b.m3u8"}, ""); err != nil {
		t.Fatalf("second init: %v", err)
	}

	if got := factory.handles[0].destroyed.Load(); got != 1 {
		t.Fatalf("first handle destroy count = %d, want 1", got)
	}
	if got := factory.handles[1].destroyed.Load(); got != 0 {
		t.Fatalf("second handle destroy count = %d, want 0", got)
	}
	if surface.detaches != 1 {
		t.Fatalf("detaches = %d, want 1", surface.detaches)
	}
}

func TestAdapter_Init_FailureClassified(t *testing.T) {
	a, factory, _, d := newTestAdapter()
	factory.drmErr = &domain.ClassifiedError{Class: domain.ErrClassLicenseDenied, Detail: "403"}

	err := a.Init(context.Background(), domain.ContentDescriptor{
		ID: "c1", VideoURL: "http://cdn/a.m3u8",
		DRM: &domain.DRMDescriptor{LicenseURL: "http://lic"},
	}, "")
	if err == nil {
		t.Fatal("expected error")
	}

	rec, ok := d.lastError()
	if !ok {
		t.Fatal("no Error action dispatched")
	}
	if rec.CanRetry {
		t.Fatal("license-denied must not be retryable")
	}
}

func TestAdapter_Init_NetworkFailureRetryable(t *testing.T) {
	a, factory, _, d := newTestAdapter()
	factory.adaptErr = &domain.ClassifiedError{Class: domain.ErrClassNetwork, Detail: "timeout"}

	_ = a.Init(context.Background(), domain.ContentDescriptor{ID: "c1", VideoURL: "http://cdn/a.m3u8"}, "")

	rec, ok := d.lastError()
	if !ok {
		t.Fatal("no Error action dispatched")
	}
	if !rec.CanRetry {
		t.Fatal("network failure must be retryable")
	}
}

func TestAdapter_StaleInit_TearsDownLateHandle(t *testing.T) {
	a, factory, _, d := newTestAdapter()

	// Bump the generation while the factory call is in flight: the result
	// lands stale and must be destroyed without dispatching.
	factory.onNew = func() { d.gen.Add(1) }

	_ = a.Init(context.Background(), domain.ContentDescriptor{ID: "c1", VideoURL: "http://cdn/a.m3u8"}, "")

	if got := factory.handles[0].destroyed.Load(); got != 1 {
		t.Fatalf("late handle destroy count = %d, want 1", got)
	}
	for _, act := range d.all() {
		if _, ok := act.(domain.EngineInit); ok {
			t.Fatal("stale init must not dispatch EngineInit")
		}
	}
}

func TestAdapter_StaleFailure_NotDispatched(t *testing.T) {
	a, factory, _, d := newTestAdapter()
	factory.adaptErr = &domain.ClassifiedError{Class: domain.ErrClassNetwork}
	factory.onNew = func() { d.gen.Add(1) }

	_ = a.Init(context.Background(), domain.ContentDescriptor{ID: "c1", VideoURL: "http://cdn/a.m3u8"}, "")

	if _, ok := d.lastError(); ok {
		t.Fatal("stale failure must not dispatch an Error action")
	}
}

func TestAdapter_SetQuality_NoHandle(t *testing.T) {
	a, _, _, _ := newTestAdapter()
	if err := a.SetQuality(1); err != domain.ErrUnsupported {
		t.Fatalf("err = %v, want ErrUnsupported", err)
	}
}

func TestAdapter_SetQuality_Forwards(t *testing.T) {
	a, factory, _, d := newTestAdapter()
	_ = a.Init(context.Background(), domain.ContentDescriptor{ID: "c1", VideoURL: "http://cdn/a.m3u8"}, "")

	if err := a.SetQuality(0); err != nil {
		t.Fatalf("set quality: %v", err)
	}
	if factory.handles[0].quality != 0 {
		t.Fatalf("handle quality = %d", factory.handles[0].quality)
	}

	var got bool
	for _, act := range d.all() {
		if q, ok := act.(domain.SetQuality); ok && q.Index == 0 {
			got = true
		}
	}
	if !got {
		t.Fatal("SetQuality action not dispatched")
	}
}

func TestAdapter_Reload_RequiresPriorInit(t *testing.T) {
	a, _, _, _ := newTestAdapter()
	if err := a.Reload(context.Background()); err != domain.ErrNotFound {
		t.Fatalf("err = %v, want ErrNotFound", err)
	}
}

func TestAdapter_Reload_ReusesContent(t *testing.T) {
	a, factory, _, _ := newTestAdapter()
	ctx := context.Background()

	_ = a.Init(ctx, domain.ContentDescriptor{ID: "c1", VideoURL: "http://cdn/a.m3u8"}, "")
	if err := a.Reload(ctx); err != nil {
		t.Fatalf("reload: %v", err)
	}
	if len(factory.handles) != 2 {
		t.Fatalf("handles = %d, want 2 (reload builds a fresh one)", len(factory.handles))
	}
	if factory.handles[0].destroyed.Load() != 1 {
		t.Fatal("reload must destroy the previous handle first")
	}
}

func TestAdapter_Reload_AfterFailedInit(t *testing.T) {
	a, factory, _, d := newTestAdapter()
	ctx := context.Background()

	factory.adaptErr = errors.New("connection refused")
	if err := a.Init(ctx, domain.ContentDescriptor{ID: "c1", VideoURL: "http://cdn/a.m3u8"}, ""); err == nil {
		t.Fatal("expected init failure")
	}

	// The failed attempt still recorded the content, so a retry-driven reload
	// reaches the factory again.
	factory.adaptErr = nil
	if err := a.Reload(ctx); err != nil {
		t.Fatalf("reload: %v", err)
	}
	if len(factory.handles) != 1 {
		t.Fatalf("handles = %d, want 1", len(factory.handles))
	}
	var inited bool
	for _, act := range d.all() {
		if _, ok := act.(domain.EngineInit); ok {
			inited = true
		}
	}
	if !inited {
		t.Fatal("EngineInit not dispatched after reload")
	}
}

func TestAdapter_Destroy_Idempotent(t *testing.T) {
	a, factory, surface, _ := newTestAdapter()
	_ = a.Init(context.Background(), domain.ContentDescriptor{ID: "c1", VideoURL: "http://cdn/a.m3u8"}, "")

	a.Destroy()
	a.Destroy()

	if got := factory.handles[0].destroyed.Load(); got != 1 {
		t.Fatalf("destroy count = %d, want 1", got)
	}
	if a.Kind() != domain.EngineNone {
		t.Fatalf("kind = %q, want none", a.Kind())
	}
	if surface.detaches != 1 {
		t.Fatalf("detaches = %d, want 1", surface.detaches)
	}
}

func TestIsManifestURL(t *testing.T) {
	tests := []struct {
		url  string
		want bool
	}{
		{"http://cdn/master.m3u8", true},
		{"http://cdn/master.M3U8", true},
		{"http://cdn/stream.mpd", true},
		{"http://cdn/movie.mp4", false},
		{"http://cdn/master.m3u8?token=abc", true},
		{"not a url at all\x7f.m3u8", false},
	}
	for _, tt := range tests {
		if got := isManifestURL(tt.url); got != tt.want {
			t.Fatalf("isManifestURL(%q) = %v, want %v", tt.url, got, tt.want)
		}
	}
}
