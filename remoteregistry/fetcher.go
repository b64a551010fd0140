package remoteregistry

import "context"

// Fetcher retrieves the raw bytes of one .prompt file by filename (e.g.
// "greeter.prompt"). HTTP is the typical implementation.
//
// Return ErrNotFound when the file does not exist so the Store can try the
// next candidate; wrap other failures in ErrFetchFailed so callers can use
// errors.Is.
type Fetcher interface {
	Fetch(ctx context.Context, filename string) ([]byte, error)
}

// promptCandidates returns the filenames tried for a prompt name, in order.
func promptCandidates(name string) []string {
	return []string{name + ".prompt"}
}

// partialCandidates returns the filenames tried for a partial name: the
// plain name first, then the leading-underscore partial convention.
func partialCandidates(name string) []string {
	return []string{name + ".prompt", "_" + name + ".prompt"}
}
