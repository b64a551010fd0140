package dotprompt

import (
	"errors"
	"fmt"
	"strings"
)

// Sentinel errors for the compilation pipeline. All carry the "dotprompt:"
// prefix for identification; callers should use errors.Is/errors.As rather
// than string matching.
var (
	// ErrNotConfigured indicates a resolver was invoked but none is bound.
	ErrNotConfigured = errors.New("dotprompt: resolver not configured")
	// ErrNotCallable indicates a resolver binding is not a callable function.
	ErrNotCallable = errors.New("dotprompt: resolver is not callable")
	// ErrInvalidMarker indicates a malformed media/section marker in rendered output.
	ErrInvalidMarker = errors.New("dotprompt: invalid marker in rendered output")
	// ErrTemplateParse indicates the template engine rejected the template body.
	ErrTemplateParse = errors.New("dotprompt: template parsing failed")
	// ErrTemplateRender indicates the template engine failed during execution.
	ErrTemplateRender = errors.New("dotprompt: template rendering failed")
	// ErrInvalidName indicates a prompt or partial name contains characters
	// unsafe for paths or cache keys.
	ErrInvalidName = errors.New("dotprompt: invalid prompt name")
)

// ValidateName checks that a prompt or partial name is safe for use in
// filesystem paths, URLs, and cache keys. Rejects empty names and names
// containing path separators, "..", or ':'. Store implementations call this
// before resolving a name to a location.
func ValidateName(name string) error {
	if name == "" {
		return fmt.Errorf("%w: name must not be empty", ErrInvalidName)
	}
	for _, s := range []string{"/", "\\", "..", ":"} {
		if strings.Contains(name, s) {
			return fmt.Errorf("%w: name must not contain %q", ErrInvalidName, s)
		}
	}
	return nil
}

// ResolverKind names which of the three resolver contracts failed.
type ResolverKind string

// Resolver kinds, exposed verbatim in error messages.
const (
	KindTool    ResolverKind = "tool"
	KindSchema  ResolverKind = "schema"
	KindPartial ResolverKind = "partial"
)

// NotFoundError is raised when a resolver returns (nil, nil): the name is
// well-formed but unknown.
type NotFoundError struct {
	Name string
	Kind ResolverKind
}

func (e *NotFoundError) Error() string {
	return fmt.Sprintf("dotprompt: %s %q not found", e.Kind, e.Name)
}

// ResolverFailedError wraps a panic or error raised inside a resolver
// callable, preserving the original as a cause.
type ResolverFailedError struct {
	Name   string
	Kind   ResolverKind
	Reason error
}

func (e *ResolverFailedError) Error() string {
	return fmt.Sprintf("dotprompt: %s %q resolution failed: %v", e.Kind, e.Name, e.Reason)
}

func (e *ResolverFailedError) Unwrap() error { return e.Reason }

// PicoschemaError reports a failure compiling a Picoschema node: an unknown
// scalar type, a missing resolver, an unresolvable named schema, an invalid
// parenthetical kind, or a node that is neither string nor mapping.
type PicoschemaError struct {
	Path   string
	Reason string
}

func (e *PicoschemaError) Error() string {
	if e.Path == "" {
		return fmt.Sprintf("dotprompt: picoschema: %s", e.Reason)
	}
	return fmt.Sprintf("dotprompt: picoschema: %s: %s", e.Path, e.Reason)
}

// Compile-time interface checks.
var (
	_ error = (*NotFoundError)(nil)
	_ error = (*ResolverFailedError)(nil)
	_ error = (*PicoschemaError)(nil)
)
