package remoteregistry

import "errors"

// Sentinel errors for remote store operations. Callers should use errors.Is.
var (
	// ErrFetchFailed indicates the Fetcher could not retrieve the source.
	ErrFetchFailed = errors.New("remoteregistry: fetch failed")
	// ErrHTTPStatus indicates an unexpected HTTP status (e.g. 500) from HTTPFetcher.
	ErrHTTPStatus = errors.New("remoteregistry: unexpected HTTP status")
	// ErrNotFound indicates no .prompt source exists for the requested name.
	ErrNotFound = errors.New("remoteregistry: prompt not found")
)
