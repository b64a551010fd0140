package remoteregistry

import "time"

// Option configures a Store (functional options pattern).
type Option func(*Store)

// WithTTL sets the cache TTL. Sources are refetched after this duration.
// Default is 5 minutes. TTL <= 0 means entries never expire.
func WithTTL(d time.Duration) Option {
	return func(s *Store) {
		s.ttl = d
	}
}
