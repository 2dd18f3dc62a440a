// Package engine implements the adaptive and DRM playback paths over HTTP:
// the adaptive path loads and parses the master playlist, the DRM path
// additionally probes the license server before playback is allowed to start.
package engine

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"strings"
	"time"

	"go.opentelemetry.io/contrib/instrumentation/net/http/otelhttp"

	"playbackengine/internal/domain"
	"playbackengine/internal/domain/ports"
)

const maxManifestBytes = 4 << 20

// HTTPFactory builds engine handles backed by plain HTTP fetches.
type HTTPFactory struct {
	client *http.Client
	logger *slog.Logger
}

func NewHTTPFactory(logger *slog.Logger) *HTTPFactory {
	if logger == nil {
		logger = slog.Default()
	}
	return &HTTPFactory{
		client: &http.Client{
			Timeout:   15 * time.Second,
			Transport: otelhttp.NewTransport(http.DefaultTransport),
		},
		logger: logger,
	}
}

func (f *HTTPFactory) NewAdaptive(ctx context.Context, manifestURL string) (ports.EngineHandle, error) {
	manifest, err := f.fetch(ctx, manifestURL)
	if err != nil {
		return nil, &domain.ClassifiedError{Class: domain.ErrClassNetwork, Detail: err.Error()}
	}
	if !strings.HasPrefix(strings.TrimSpace(manifest), "#EXTM3U") {
		return nil, &domain.ClassifiedError{Class: domain.ErrClassMedia, Detail: "not an m3u8 manifest"}
	}
	levels, renditions := parseMasterPlaylist(manifest)
	return &handle{
		kind:       domain.EngineAdaptive,
		levels:     levels,
		renditions: renditions,
		quality:    domain.AutoQuality,
		logger:     f.logger,
	}, nil
}

func (f *HTTPFactory) NewDRM(ctx context.Context, manifestURL string, drm domain.DRMDescriptor) (ports.EngineHandle, error) {
	if err := f.probeLicense(ctx, drm); err != nil {
		return nil, err
	}

	var levels []domain.QualityLevel
	var renditions []domain.AudioRendition
	if strings.Contains(manifestURL, ".m3u8") {
		if manifest, err := f.fetch(ctx, manifestURL); err == nil {
			levels, renditions = parseMasterPlaylist(manifest)
		}
	}
	return &handle{
		kind:       domain.EngineDRM,
		levels:     levels,
		renditions: renditions,
		quality:    domain.AutoQuality,
		logger:     f.logger,
	}, nil
}

// probeLicense issues an empty license request to surface policy failures
// before playback starts. Classification follows the server's verdict.
func (f *HTTPFactory) probeLicense(ctx context.Context, drm domain.DRMDescriptor) error {
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, drm.LicenseURL, strings.NewReader(""))
	if err != nil {
		return &domain.ClassifiedError{Class: domain.ErrClassLicenseUnreachable, Detail: err.Error()}
	}
	for k, v := range drm.Headers {
		req.Header.Set(k, v)
	}
	resp, err := f.client.Do(req)
	if err != nil {
		return &domain.ClassifiedError{Class: domain.ErrClassLicenseUnreachable, Detail: err.Error()}
	}
	defer resp.Body.Close()

	switch {
	case resp.StatusCode < 400:
		return nil
	case resp.StatusCode == http.StatusUnavailableForLegalReasons:
		return &domain.ClassifiedError{Class: domain.ErrClassPlatformRestricted, Detail: resp.Status}
	case resp.StatusCode == http.StatusUnauthorized || resp.StatusCode == http.StatusForbidden:
		return &domain.ClassifiedError{Class: domain.ErrClassLicenseDenied, Detail: resp.Status}
	case resp.StatusCode >= 500:
		return &domain.ClassifiedError{Class: domain.ErrClassLicenseUnreachable, Detail: resp.Status}
	default:
		return &domain.ClassifiedError{Class: domain.ErrClassLicenseDenied, Detail: resp.Status}
	}
}

func (f *HTTPFactory) fetch(ctx context.Context, url string) (string, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		return "", err
	}
	resp, err := f.client.Do(req)
	if err != nil {
		return "", err
	}
	defer resp.Body.Close()
	if resp.StatusCode != http.StatusOK {
		return "", fmt.Errorf("fetch %s: %s", url, resp.Status)
	}
	body, err := io.ReadAll(io.LimitReader(resp.Body, maxManifestBytes))
	if err != nil {
		return "", err
	}
	return string(body), nil
}

// handle is one live engine instance. Destroy is idempotent.
type handle struct {
	kind       domain.EngineKind
	levels     []domain.QualityLevel
	renditions []domain.AudioRendition
	quality    int
	audio      string
	destroyed  bool
	logger     *slog.Logger
}

func (h *handle) Kind() domain.EngineKind                  { return h.kind }
func (h *handle) QualityLevels() []domain.QualityLevel     { return h.levels }
func (h *handle) AudioRenditions() []domain.AudioRendition { return h.renditions }

func (h *handle) SetQuality(index int) error {
	if h.destroyed {
		return domain.ErrUnsupported
	}
	if index != domain.AutoQuality && (index < 0 || index >= len(h.levels)) {
		return fmt.Errorf("quality index %d out of range", index)
	}
	h.quality = index
	return nil
}

func (h *handle) SetAudioRendition(id string) error {
	if h.destroyed {
		return domain.ErrUnsupported
	}
	for _, r := range h.renditions {
		if r.ID == id {
			h.audio = id
			return nil
		}
	}
	return fmt.Errorf("audio rendition %q not found", id)
}

func (h *handle) Destroy() {
	if h.destroyed {
		return
	}
	h.destroyed = true
	h.logger.Debug("engine handle destroyed", slog.String("kind", string(h.kind)))
}
