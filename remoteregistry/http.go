package remoteregistry

import (
	"context"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"
)

// maxBodySize limits HTTP response body size (1 MB); .prompt sources are small.
const maxBodySize = 1 << 20

// defaultUserAgent is the User-Agent header value for HTTP requests.
const defaultUserAgent = "dotprompt-remote-registry/1.0"

// Ensures HTTPFetcher implements Fetcher.
var _ Fetcher = (*HTTPFetcher)(nil)

// HTTPFetcher fetches .prompt sources over HTTP from {baseURL}/{filename}.
// A 404 maps to ErrNotFound; other non-2xx statuses return ErrHTTPStatus.
type HTTPFetcher struct {
	baseURL    string
	httpClient *http.Client
	authToken  string
}

// HTTPOption configures HTTPFetcher.
type HTTPOption func(*HTTPFetcher)

// WithHTTPClient sets the HTTP client. Default has a 30s timeout. A nil c
// leaves the default unchanged.
func WithHTTPClient(c *http.Client) HTTPOption {
	return func(h *HTTPFetcher) {
		if c != nil {
			h.httpClient = c
		}
	}
}

// WithAuthToken sets the Bearer token for the Authorization header.
func WithAuthToken(token string) HTTPOption {
	return func(h *HTTPFetcher) {
		h.authToken = token
	}
}

// NewHTTPFetcher creates an HTTPFetcher. baseURL must be a valid URL (e.g.
// https://prompts.example.com/v1).
func NewHTTPFetcher(baseURL string, opts ...HTTPOption) (*HTTPFetcher, error) {
	baseURL = strings.TrimSuffix(baseURL, "/")
	if baseURL == "" {
		return nil, fmt.Errorf("remoteregistry: base URL must not be empty")
	}
	parsed, err := url.Parse(baseURL)
	if err != nil || parsed.Scheme == "" {
		return nil, fmt.Errorf("remoteregistry: invalid base URL %q", baseURL)
	}
	h := &HTTPFetcher{
		baseURL:    baseURL,
		httpClient: &http.Client{Timeout: 30 * time.Second},
	}
	for _, opt := range opts {
		opt(h)
	}
	return h, nil
}

// Fetch downloads {baseURL}/{filename}.
func (h *HTTPFetcher) Fetch(ctx context.Context, filename string) ([]byte, error) {
	u := h.baseURL + "/" + url.PathEscape(filename)
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, u, nil)
	if err != nil {
		return nil, fmt.Errorf("%w: %w", ErrFetchFailed, err)
	}
	req.Header.Set("User-Agent", defaultUserAgent)
	if h.authToken != "" {
		req.Header.Set("Authorization", "Bearer "+h.authToken)
	}
	resp, err := h.httpClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("%w: %w", ErrFetchFailed, err)
	}
	defer func() { _ = resp.Body.Close() }()
	if resp.StatusCode == http.StatusNotFound {
		return nil, fmt.Errorf("%w: %s", ErrNotFound, filename)
	}
	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return nil, fmt.Errorf("%w: %w: %s %s", ErrFetchFailed, ErrHTTPStatus, resp.Status, u)
	}
	data, err := io.ReadAll(io.LimitReader(resp.Body, maxBodySize))
	if err != nil {
		return nil, fmt.Errorf("%w: read body: %w", ErrFetchFailed, err)
	}
	// Detect truncation: if more data is available, the body exceeded maxBodySize.
	probe := make([]byte, 1)
	if n, _ := resp.Body.Read(probe); n > 0 {
		return nil, fmt.Errorf("%w: response body exceeds %d bytes", ErrFetchFailed, maxBodySize)
	}
	return data, nil
}
