package embedregistry

import (
	"context"
	"testing"
	"testing/fstest"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/dotprompt-go/dotprompt"
)

func testFS() fstest.MapFS {
	return fstest.MapFS{
		"prompts/greeter.prompt":    {Data: []byte("Hello {{name}}")},
		"prompts/closer.prompt":     {Data: []byte("Bye.\n{{> signature}}")},
		"prompts/_signature.prompt": {Data: []byte("Sincerely, Promptly")},
		"prompts/readme.md":         {Data: []byte("not a prompt")},
	}
}

func TestNew_EagerLoad(t *testing.T) {
	t.Parallel()
	s, err := New(testFS(), "prompts")
	require.NoError(t, err)

	names, err := s.List(context.Background())
	require.NoError(t, err)
	assert.Equal(t, []string{"closer", "greeter"}, names)
}

func TestStore_Load(t *testing.T) {
	t.Parallel()
	s, err := New(testFS(), "prompts")
	require.NoError(t, err)

	source, err := s.Load(context.Background(), "greeter")
	require.NoError(t, err)
	assert.Equal(t, "Hello {{name}}", source)

	_, err = s.Load(context.Background(), "ghost")
	require.ErrorIs(t, err, ErrNotFound)
}

func TestStore_LoadPartial(t *testing.T) {
	t.Parallel()
	s, err := New(testFS(), "prompts")
	require.NoError(t, err)

	partial, err := s.LoadPartial(context.Background(), "signature")
	require.NoError(t, err)
	require.NotNil(t, partial)
	assert.Equal(t, "Sincerely, Promptly", partial.Source)

	missing, err := s.LoadPartial(context.Background(), "ghost")
	require.NoError(t, err)
	assert.Nil(t, missing)
}

func TestStore_RenderWithEmbeddedPartial(t *testing.T) {
	t.Parallel()
	s, err := New(testFS(), "prompts")
	require.NoError(t, err)
	dp := dotprompt.New(dotprompt.WithStore(s))

	source, err := s.Load(context.Background(), "closer")
	require.NoError(t, err)
	out, err := dp.Render(context.Background(), source, dotprompt.DataArgument[map[string]any]{}, nil)
	require.NoError(t, err)
	assert.Contains(t, out.Messages[0].Content[0].(dotprompt.TextPart).Text, "Sincerely, Promptly")
}
