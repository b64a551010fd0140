package embedregistry

import (
	"context"
	"errors"
	"fmt"
	"io/fs"
	"path"
	"slices"
	"strings"

	"github.com/dotprompt-go/dotprompt"
)

const promptExt = ".prompt"

// ErrNotFound indicates no .prompt file exists for the requested name.
var ErrNotFound = errors.New("embedregistry: prompt not found")

// Ensures Store implements dotprompt.PromptStore.
var _ dotprompt.PromptStore = (*Store)(nil)

// Store serves .prompt sources from an fs.FS (typically an embed.FS),
// loaded eagerly at construction. No mutex: the source maps are built once
// and only read afterwards.
type Store struct {
	prompts  map[string]string
	partials map[string]string
	names    []string
}

// New walks fsys under root and loads every .prompt file. Files with a
// leading underscore are partials; everything else is a prompt. The name is
// the basename without the extension (and without the underscore for
// partials).
func New(fsys fs.FS, root string) (*Store, error) {
	s := &Store{
		prompts:  make(map[string]string),
		partials: make(map[string]string),
	}
	err := fs.WalkDir(fsys, root, func(p string, d fs.DirEntry, err error) error {
		if err != nil {
			return err
		}
		if d.IsDir() || !strings.HasSuffix(p, promptExt) {
			return nil
		}
		data, err := fs.ReadFile(fsys, p)
		if err != nil {
			return fmt.Errorf("%s: %w", p, err)
		}
		base := strings.TrimSuffix(path.Base(p), promptExt)
		if trimmed, ok := strings.CutPrefix(base, "_"); ok {
			s.partials[trimmed] = string(data)
			return nil
		}
		s.prompts[base] = string(data)
		s.names = append(s.names, base)
		return nil
	})
	if err != nil {
		return nil, err
	}
	slices.Sort(s.names)
	return s, nil
}

// Load returns the source of the named prompt. O(1) map lookup.
func (s *Store) Load(ctx context.Context, name string) (string, error) {
	if err := dotprompt.ValidateName(name); err != nil {
		return "", err
	}
	if ctx.Err() != nil {
		return "", ctx.Err()
	}
	source, ok := s.prompts[name]
	if !ok {
		return "", fmt.Errorf("%w: %q", ErrNotFound, name)
	}
	return source, nil
}

// LoadPartial returns the named partial's source. A plain prompt of the
// same name is tried first, then the underscore partial; (nil, nil) means
// not found.
func (s *Store) LoadPartial(ctx context.Context, name string) (*dotprompt.PartialSource, error) {
	if err := dotprompt.ValidateName(name); err != nil {
		return nil, err
	}
	if ctx.Err() != nil {
		return nil, ctx.Err()
	}
	if source, ok := s.prompts[name]; ok {
		return &dotprompt.PartialSource{Source: source}, nil
	}
	if source, ok := s.partials[name]; ok {
		return &dotprompt.PartialSource{Source: source}, nil
	}
	return nil, nil
}

// List returns all prompt names (sorted, partials excluded).
func (s *Store) List(ctx context.Context) ([]string, error) {
	if ctx.Err() != nil {
		return nil, ctx.Err()
	}
	return slices.Clone(s.names), nil
}
