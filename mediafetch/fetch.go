// Package mediafetch downloads MediaPart URLs for adapters whose provider
// API requires inline bytes (e.g. base64 image blocks) instead of a URL.
// Only https is allowed and responses are size- and MIME-limited.
package mediafetch

import (
	"context"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
)

// DefaultMaxBodySize is the default limit for a media download (10 MiB).
const DefaultMaxBodySize = 10 << 20

var (
	// ErrUnsafeScheme is returned when the URL scheme is not https.
	ErrUnsafeScheme = errors.New("mediafetch: only https scheme is allowed")
	// ErrBodyTooLarge is returned when the response exceeds the size limit.
	ErrBodyTooLarge = errors.New("mediafetch: response body exceeds size limit")
	// ErrUnsupportedType is returned when the Content-Type is not allowed.
	ErrUnsupportedType = errors.New("mediafetch: unsupported content type")
)

// DefaultClient is the HTTP client used for fetching. Override in tests to
// use a custom client (e.g. TLS with a test certificate pool).
var DefaultClient = http.DefaultClient

// Fetcher downloads media URLs with a size limit and a Content-Type
// allowlist. The zero value fetches up to DefaultMaxBodySize and accepts
// image/* only.
type Fetcher struct {
	MaxBodySize int64
	// AllowedTypePrefixes are accepted Content-Type prefixes. Empty means
	// image/* only.
	AllowedTypePrefixes []string
}

// Fetch downloads the URL and returns the body and its media type. Only
// https is allowed; the response is limited to MaxBodySize (or
// DefaultMaxBodySize if 0).
func (f Fetcher) Fetch(ctx context.Context, rawURL string) (data []byte, mediaType string, err error) {
	maxBytes := f.MaxBodySize
	if maxBytes <= 0 {
		maxBytes = DefaultMaxBodySize
	}
	allowed := f.AllowedTypePrefixes
	if len(allowed) == 0 {
		allowed = []string{"image/"}
	}

	u, err := url.Parse(rawURL)
	if err != nil {
		return nil, "", fmt.Errorf("mediafetch: parse URL: %w", err)
	}
	if u.Scheme != "https" {
		return nil, "", ErrUnsafeScheme
	}
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, rawURL, nil)
	if err != nil {
		return nil, "", fmt.Errorf("mediafetch: new request: %w", err)
	}
	resp, err := DefaultClient.Do(req)
	if err != nil {
		return nil, "", fmt.Errorf("mediafetch: do request: %w", err)
	}
	defer func() { _ = resp.Body.Close() }()
	if resp.StatusCode != http.StatusOK {
		return nil, "", fmt.Errorf("mediafetch: status %s", resp.Status)
	}
	mediaType = resp.Header.Get("Content-Type")
	if idx := strings.Index(mediaType, ";"); idx >= 0 {
		mediaType = strings.TrimSpace(mediaType[:idx])
	}
	if mediaType != "" && !hasAllowedPrefix(mediaType, allowed) {
		return nil, "", fmt.Errorf("%w: %s", ErrUnsupportedType, mediaType)
	}
	data, err = io.ReadAll(io.LimitReader(resp.Body, maxBytes+1))
	if err != nil {
		return nil, "", fmt.Errorf("mediafetch: read body: %w", err)
	}
	if int64(len(data)) > maxBytes {
		return nil, "", ErrBodyTooLarge
	}
	return data, mediaType, nil
}

func hasAllowedPrefix(mediaType string, prefixes []string) bool {
	for _, prefix := range prefixes {
		if strings.HasPrefix(mediaType, prefix) {
			return true
		}
	}
	return false
}

// Fetch downloads a URL with a zero-value Fetcher limited to maxBytes
// (DefaultMaxBodySize when maxBytes <= 0), so only image/* types pass.
func Fetch(ctx context.Context, rawURL string, maxBytes int64) (data []byte, mediaType string, err error) {
	return Fetcher{MaxBodySize: maxBytes}.Fetch(ctx, rawURL)
}
