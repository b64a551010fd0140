package remoteregistry

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	"golang.org/x/sync/singleflight"

	"github.com/dotprompt-go/dotprompt"
)

const defaultTTL = 5 * time.Minute

// detachCancel returns a context that is not cancelled when parent is
// cancelled but still respects parent's deadline, so one caller's
// cancellation does not fail all singleflight waiters. The caller should
// call the returned cancel when done to release the deadline timer.
func detachCancel(parent context.Context) (context.Context, context.CancelFunc) {
	ctx := context.WithoutCancel(parent)
	if dl, ok := parent.Deadline(); ok {
		return context.WithDeadline(ctx, dl)
	}
	return context.WithCancel(ctx) // no-op cancel when no deadline, but same signature
}

// Ensures Store implements dotprompt.PromptStore.
var _ dotprompt.PromptStore = (*Store)(nil)

type cacheEntry struct {
	source    string
	found     bool
	expiresAt time.Time
}

// Store loads .prompt sources via a Fetcher and caches them with a TTL.
// Negative results (not found) are cached too, so a render referencing a
// partial the server does not have does not hammer the endpoint.
type Store struct {
	fetcher Fetcher
	ttl     time.Duration
	mu      sync.RWMutex
	cache   map[string]*cacheEntry
	sf      singleflight.Group
}

// New creates a Store that uses the given Fetcher. Panics if fetcher is nil.
func New(fetcher Fetcher, opts ...Option) *Store {
	if fetcher == nil {
		panic("remoteregistry: Fetcher must not be nil")
	}
	s := &Store{
		fetcher: fetcher,
		ttl:     defaultTTL,
		cache:   make(map[string]*cacheEntry),
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

func (s *Store) entryValid(ent *cacheEntry, now time.Time) bool {
	return s.ttl <= 0 || now.Before(ent.expiresAt)
}

// Load returns the source of the named prompt, fetching on cache miss or
// expiry.
func (s *Store) Load(ctx context.Context, name string) (string, error) {
	if err := dotprompt.ValidateName(name); err != nil {
		return "", err
	}
	source, found, err := s.loadCandidates(ctx, "prompt:"+name, promptCandidates(name))
	if err != nil {
		return "", err
	}
	if !found {
		return "", fmt.Errorf("%w: %q", ErrNotFound, name)
	}
	return source, nil
}

// LoadPartial returns the named partial's source, or (nil, nil) when no
// candidate exists on the server, per the dotprompt.PromptStore contract.
func (s *Store) LoadPartial(ctx context.Context, name string) (*dotprompt.PartialSource, error) {
	if err := dotprompt.ValidateName(name); err != nil {
		return nil, err
	}
	source, found, err := s.loadCandidates(ctx, "partial:"+name, partialCandidates(name))
	if err != nil {
		return nil, err
	}
	if !found {
		return nil, nil
	}
	return &dotprompt.PartialSource{Source: source}, nil
}

func (s *Store) loadCandidates(ctx context.Context, key string, candidates []string) (string, bool, error) {
	now := time.Now()
	s.mu.RLock()
	ent, ok := s.cache[key]
	if ok && s.entryValid(ent, now) {
		source, found := ent.source, ent.found
		s.mu.RUnlock()
		return source, found, nil
	}
	s.mu.RUnlock()
	if ctx.Err() != nil {
		return "", false, ctx.Err()
	}

	// Fetch without holding the lock; singleflight deduplicates by key.
	v, err, _ := s.sf.Do(key, func() (any, error) {
		fetchCtx, cancel := detachCancel(ctx)
		defer cancel()
		for _, candidate := range candidates {
			data, err := s.fetcher.Fetch(fetchCtx, candidate)
			if err == nil {
				return &cacheEntry{source: string(data), found: true}, nil
			}
			if !errors.Is(err, ErrNotFound) {
				return nil, err
			}
		}
		return &cacheEntry{}, nil
	})
	if err != nil {
		return "", false, err
	}
	ent = v.(*cacheEntry)

	s.mu.Lock()
	ent.expiresAt = time.Now().Add(s.ttl)
	s.cache[key] = ent
	s.mu.Unlock()
	return ent.source, ent.found, nil
}

// Evict removes one prompt and its partial variant from the cache.
func (s *Store) Evict(name string) {
	if err := dotprompt.ValidateName(name); err != nil {
		return
	}
	s.mu.Lock()
	delete(s.cache, "prompt:"+name)
	delete(s.cache, "partial:"+name)
	s.mu.Unlock()
}

// EvictAll clears the entire cache.
func (s *Store) EvictAll() {
	s.mu.Lock()
	s.cache = make(map[string]*cacheEntry)
	s.mu.Unlock()
}
