package fileregistry

import (
	"context"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"slices"
	"strings"
	"sync"

	"github.com/dotprompt-go/dotprompt"
)

// promptExt is the file extension for prompt and partial sources.
const promptExt = ".prompt"

// ErrNotFound indicates no .prompt file exists for the requested name.
var ErrNotFound = errors.New("fileregistry: prompt not found")

// Ensures Store implements dotprompt.PromptStore.
var _ dotprompt.PromptStore = (*Store)(nil)

// Store serves .prompt sources from a directory (lazy, cached). A prompt
// name resolves to {dir}/{name}.prompt; a partial name resolves to
// {dir}/{name}.prompt, then {dir}/_{name}.prompt (the leading-underscore
// partial naming convention).
type Store struct {
	dir   string
	mu    sync.RWMutex
	cache map[string]string
}

// New creates a Store that reads prompt sources from dir.
func New(dir string) *Store {
	return &Store{
		dir:   dir,
		cache: make(map[string]string),
	}
}

// partialCandidates returns candidate filenames for a partial, in resolution
// order.
func partialCandidates(name string) []string {
	return []string{name + promptExt, "_" + name + promptExt}
}

// Load returns the source of the named prompt. Lazy-loads and caches.
func (s *Store) Load(ctx context.Context, name string) (string, error) {
	if err := dotprompt.ValidateName(name); err != nil {
		return "", err
	}
	source, ok, err := s.loadCached(ctx, "prompt:"+name, []string{name + promptExt})
	if err != nil {
		return "", err
	}
	if !ok {
		return "", fmt.Errorf("%w: %q", ErrNotFound, name)
	}
	return source, nil
}

// LoadPartial returns the named partial's source, or (nil, nil) when no
// candidate file exists, per the dotprompt.PromptStore contract.
func (s *Store) LoadPartial(ctx context.Context, name string) (*dotprompt.PartialSource, error) {
	if err := dotprompt.ValidateName(name); err != nil {
		return nil, err
	}
	source, ok, err := s.loadCached(ctx, "partial:"+name, partialCandidates(name))
	if err != nil {
		return nil, err
	}
	if !ok {
		return nil, nil
	}
	return &dotprompt.PartialSource{Source: source}, nil
}

// loadCached resolves candidates against the directory with a double-checked
// read-through cache.
func (s *Store) loadCached(ctx context.Context, key string, candidates []string) (string, bool, error) {
	s.mu.RLock()
	source, ok := s.cache[key]
	s.mu.RUnlock()
	if ok {
		return source, true, nil
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	source, ok = s.cache[key]
	if ok {
		return source, true, nil
	}
	if ctx.Err() != nil {
		return "", false, ctx.Err()
	}
	for _, candidate := range candidates {
		data, err := os.ReadFile(filepath.Join(s.dir, candidate))
		if err == nil {
			s.cache[key] = string(data)
			return string(data), true, nil
		}
		if !errors.Is(err, fs.ErrNotExist) {
			return "", false, fmt.Errorf("fileregistry: read %s: %w", candidate, err)
		}
	}
	return "", false, nil
}

// List returns the names of all prompts under the directory, unique and
// sorted. Files with a leading underscore are partials and are excluded.
func (s *Store) List(ctx context.Context) ([]string, error) {
	if ctx.Err() != nil {
		return nil, ctx.Err()
	}
	seen := make(map[string]bool)
	var names []string
	err := fs.WalkDir(os.DirFS(s.dir), ".", func(path string, d fs.DirEntry, err error) error {
		if err != nil {
			return err
		}
		if d.IsDir() {
			return nil
		}
		base := filepath.Base(path)
		if strings.HasPrefix(base, "_") || !strings.HasSuffix(base, promptExt) {
			return nil
		}
		name := strings.TrimSuffix(base, promptExt)
		if !seen[name] {
			seen[name] = true
			names = append(names, name)
		}
		return nil
	})
	if err != nil {
		return nil, fmt.Errorf("fileregistry: list: %w", err)
	}
	slices.Sort(names)
	return names, nil
}

// Reload clears the cache so edited files are re-read on next load.
func (s *Store) Reload() {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.cache = make(map[string]string)
}
