// Package ai holds the HTTP clients for the external subtitle services:
// translation and timing synchronization. Both are fire-and-forget from the
// player's point of view; failures surface as messages and never touch
// existing tracks.
package ai

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"time"

	"go.opentelemetry.io/contrib/instrumentation/net/http/otelhttp"
)

const maxResponseBytes = 16 << 20

var ErrServiceFailed = errors.New("subtitle service failed")

type Client struct {
	translateURL   string
	synchronizeURL string
	client         *http.Client
	logger         *slog.Logger
}

func NewClient(translateURL, synchronizeURL string, timeout time.Duration, logger *slog.Logger) *Client {
	if timeout <= 0 {
		timeout = 60 * time.Second
	}
	if logger == nil {
		logger = slog.Default()
	}
	return &Client{
		translateURL:   translateURL,
		synchronizeURL: synchronizeURL,
		client: &http.Client{
			Timeout:   timeout,
			Transport: otelhttp.NewTransport(http.DefaultTransport),
		},
		logger: logger,
	}
}

type translateRequest struct {
	SubtitleText   string `json:"subtitleText"`
	TargetLanguage string `json:"targetLanguage"`
}

type translateResponse struct {
	Success        bool   `json:"success"`
	TranslatedText string `json:"translatedText"`
	Error          string `json:"error,omitempty"`
}

// Translate sends the subtitle text to the translation service.
func (c *Client) Translate(ctx context.Context, subtitleText, targetLanguage string) (string, error) {
	var resp translateResponse
	if err := c.post(ctx, c.translateURL, translateRequest{
		SubtitleText:   subtitleText,
		TargetLanguage: targetLanguage,
	}, &resp); err != nil {
		return "", err
	}
	if !resp.Success {
		if resp.Error == "" {
			resp.Error = "translation rejected"
		}
		return "", fmt.Errorf("%w: %s", ErrServiceFailed, resp.Error)
	}
	return resp.TranslatedText, nil
}

type synchronizeRequest struct {
	SubtitleText string `json:"subtitleText"`
	Format       string `json:"format"`
}

type synchronizeResponse struct {
	CorrectedText string `json:"correctedText"`
}

// Synchronize sends the subtitle text to the timing-correction service.
func (c *Client) Synchronize(ctx context.Context, subtitleText, format string) (string, error) {
	var resp synchronizeResponse
	if err := c.post(ctx, c.synchronizeURL, synchronizeRequest{
		SubtitleText: subtitleText,
		Format:       format,
	}, &resp); err != nil {
		return "", err
	}
	if resp.CorrectedText == "" {
		return "", fmt.Errorf("%w: empty corrected text", ErrServiceFailed)
	}
	return resp.CorrectedText, nil
}

// FetchText retrieves raw subtitle text from a remote URL.
func (c *Client) FetchText(ctx context.Context, url string) (string, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		return "", err
	}
	resp, err := c.client.Do(req)
	if err != nil {
		return "", err
	}
	defer resp.Body.Close()
	if resp.StatusCode != http.StatusOK {
		return "", fmt.Errorf("fetch %s: %s", url, resp.Status)
	}
	body, err := io.ReadAll(io.LimitReader(resp.Body, maxResponseBytes))
	if err != nil {
		return "", err
	}
	return string(body), nil
}

func (c *Client) post(ctx context.Context, url string, payload, out any) error {
	if url == "" {
		return fmt.Errorf("%w: service endpoint not configured", ErrServiceFailed)
	}
	body, err := json.Marshal(payload)
	if err != nil {
		return err
	}
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, url, bytes.NewReader(body))
	if err != nil {
		return err
	}
	req.Header.Set("Content-Type", "application/json")

	start := time.Now()
	resp, err := c.client.Do(req)
	if err != nil {
		return fmt.Errorf("%w: %v", ErrServiceFailed, err)
	}
	defer resp.Body.Close()

	c.logger.Debug("ai service call",
		slog.String("url", url),
		slog.Int("status", resp.StatusCode),
		slog.Duration("took", time.Since(start)),
	)
	if resp.StatusCode != http.StatusOK {
		return fmt.Errorf("%w: %s", ErrServiceFailed, resp.Status)
	}
	return json.NewDecoder(io.LimitReader(resp.Body, maxResponseBytes)).Decode(out)
}
