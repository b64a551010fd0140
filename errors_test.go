package dotprompt

import (
	"errors"
	"fmt"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestResolverFailedError_Unwrap(t *testing.T) {
	t.Parallel()
	cause := errors.New("socket closed")
	err := &ResolverFailedError{Name: "weather", Kind: KindTool, Reason: cause}
	require.ErrorIs(t, err, cause)
	assert.Contains(t, err.Error(), "weather")
	assert.Contains(t, err.Error(), "tool")
	assert.Contains(t, err.Error(), "socket closed")
}

func TestResolverFailedError_errorsAs(t *testing.T) {
	t.Parallel()
	wrapped := fmt.Errorf("outer: %w", &ResolverFailedError{Name: "s", Kind: KindSchema, Reason: errors.New("x")})
	var failed *ResolverFailedError
	require.ErrorAs(t, wrapped, &failed)
	assert.Equal(t, KindSchema, failed.Kind)
}

func TestNotFoundError_Message(t *testing.T) {
	t.Parallel()
	err := &NotFoundError{Name: "frag", Kind: KindPartial}
	assert.Equal(t, `dotprompt: partial "frag" not found`, err.Error())
}

func TestPicoschemaError_Message(t *testing.T) {
	t.Parallel()
	withPath := &PicoschemaError{Path: "person.address", Reason: "unsupported scalar type"}
	assert.Contains(t, withPath.Error(), "person.address")
	noPath := &PicoschemaError{Reason: "bad node"}
	assert.Equal(t, "dotprompt: picoschema: bad node", noPath.Error())
}

func TestSentinelErrors_Is(t *testing.T) {
	t.Parallel()
	tests := []struct {
		name   string
		err    error
		target error
		want   bool
	}{
		{"not configured", ErrNotConfigured, ErrNotConfigured, true},
		{"not callable", ErrNotCallable, ErrNotCallable, true},
		{"invalid marker", ErrInvalidMarker, ErrInvalidMarker, true},
		{"template parse", ErrTemplateParse, ErrTemplateParse, true},
		{"template render", ErrTemplateRender, ErrTemplateRender, true},
		{"wrapped", fmt.Errorf("wrap: %w", ErrInvalidMarker), ErrInvalidMarker, true},
		{"wrong target", ErrNotConfigured, ErrNotCallable, false},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()
			assert.Equal(t, tt.want, errors.Is(tt.err, tt.target))
		})
	}
}
