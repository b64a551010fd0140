package dotprompt

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestMergeMetadataLayer_RightBias(t *testing.T) {
	t.Parallel()
	base := PromptMetadata[map[string]any]{Name: "base", Model: "m1", Tools: []string{"a", "b"}}
	incoming := PromptMetadata[map[string]any]{Model: "m2", Tools: []string{"c"}}
	out := mergeMetadataLayer(base, incoming)
	assert.Equal(t, "base", out.Name)
	assert.Equal(t, "m2", out.Model)
	assert.Equal(t, []string{"c"}, out.Tools, "list fields are replaced, not concatenated")
}

func TestMergeMetadataLayer_ConfigDeepMergeOneLevel(t *testing.T) {
	t.Parallel()
	base := PromptMetadata[map[string]any]{Config: map[string]any{"temperature": 0.2, "topK": 10}}
	incoming := PromptMetadata[map[string]any]{Config: map[string]any{"temperature": 0.9}}
	out := mergeMetadataLayer(base, incoming)
	assert.Equal(t, 0.9, out.Config["temperature"])
	assert.Equal(t, 10, out.Config["topK"])
}

func TestMergeMetadataLayer_NullIncomingDoesNotClear(t *testing.T) {
	t.Parallel()
	base := PromptMetadata[map[string]any]{Description: "keep me", Config: map[string]any{"x": 1}}
	out := mergeMetadataLayer(base, PromptMetadata[map[string]any]{})
	assert.Equal(t, "keep me", out.Description)
	assert.Equal(t, 1, out.Config["x"])
}

func TestResolveMetadata_NullPruning(t *testing.T) {
	t.Parallel()
	parsed := PromptMetadata[map[string]any]{
		Config: map[string]any{
			"keep":   1,
			"drop":   nil,
			"nested": map[string]any{"inner": nil, "ok": "v"},
			"list":   []any{nil, "x"},
		},
	}
	out, err := ResolveMetadata(context.Background(), ResolverConfig{}, parsed, nil)
	require.NoError(t, err)
	assert.Equal(t, map[string]any{
		"keep":   1,
		"nested": map[string]any{"ok": "v"},
		"list":   []any{"x"},
	}, out.Config)
}

func TestResolveMetadata_ExtPrunedWithoutMutatingParsed(t *testing.T) {
	t.Parallel()
	parsed := PromptMetadata[map[string]any]{
		Ext: map[string]map[string]any{
			"vendor": {"keep": "v", "drop": nil},
		},
	}
	out, err := ResolveMetadata(context.Background(), ResolverConfig{}, parsed, nil)
	require.NoError(t, err)
	assert.Equal(t, map[string]any{"keep": "v"}, out.Ext["vendor"])

	// The caller's map must stay untouched: a compiled PromptFunction
	// shares it across concurrent renders.
	assert.Equal(t, map[string]any{"keep": "v", "drop": nil}, parsed.Ext["vendor"])
}

func TestResolveMetadata_PicoschemaFailureTyped(t *testing.T) {
	t.Parallel()
	parsed := PromptMetadata[map[string]any]{
		Input: &PromptInputConfig{Schema: map[string]any{"name(bogus)": "string"}},
	}
	_, err := ResolveMetadata(context.Background(), ResolverConfig{}, parsed, nil)
	var pe *PicoschemaError
	require.ErrorAs(t, err, &pe)
	assert.Contains(t, pe.Reason, "parenthetical")
}

func TestResolveMetadata_StaticToolMapping(t *testing.T) {
	t.Parallel()
	def := ToolDefinition{Name: "search", InputSchema: JSONSchema{"type": "object"}}
	cfg := ResolverConfig{Tools: map[string]ToolDefinition{"search": def}}
	out, err := ResolveMetadata(context.Background(), cfg, PromptMetadata[map[string]any]{Tools: []string{"search"}}, nil)
	require.NoError(t, err)
	require.Len(t, out.ToolDefs, 1)
	assert.Equal(t, "search", out.ToolDefs[0].Name)
	assert.Empty(t, out.Tools)
}

func TestResolveMetadata_ToolResolverFailureAborts(t *testing.T) {
	t.Parallel()
	boom := errors.New("registry offline")
	cfg := ResolverConfig{
		ToolResolver: ToolResolverFunc(func(string) (*ToolDefinition, error) { return nil, boom }),
	}
	_, err := ResolveMetadata(context.Background(), cfg, PromptMetadata[map[string]any]{Tools: []string{"x"}}, nil)
	var failed *ResolverFailedError
	require.ErrorAs(t, err, &failed)
	assert.Equal(t, KindTool, failed.Kind)
	assert.ErrorIs(t, err, boom)
}

func TestResolveMetadata_SchemaStaticMapThenResolver(t *testing.T) {
	t.Parallel()
	cfg := ResolverConfig{
		Schemas: map[string]any{
			"Person": map[string]any{"type": "object", "properties": map[string]any{"name": map[string]any{"type": "string"}}},
		},
	}
	parsed := PromptMetadata[map[string]any]{
		Input: &PromptInputConfig{Schema: "Person"},
	}
	out, err := ResolveMetadata(context.Background(), cfg, parsed, nil)
	require.NoError(t, err)
	schema, ok := out.Input.Schema.(map[string]any)
	require.True(t, ok)
	assert.Equal(t, "object", schema["type"])
}

func TestResolveMetadata_SchemaResolverConsulted(t *testing.T) {
	t.Parallel()
	cfg := ResolverConfig{
		SchemaResolver: SchemaResolverFunc(func(name string) (any, error) {
			if name == "Address" {
				return map[string]any{"type": "object"}, nil
			}
			return nil, nil
		}),
	}
	parsed := PromptMetadata[map[string]any]{
		Output: &PromptOutputConfig{Format: "json", Schema: "Address"},
	}
	out, err := ResolveMetadata(context.Background(), cfg, parsed, nil)
	require.NoError(t, err)
	schema, ok := out.Output.Schema.(map[string]any)
	require.True(t, ok)
	assert.Equal(t, "object", schema["type"])
}

func TestResolveMetadata_InputOutputCompiledInParallelAreIndependent(t *testing.T) {
	t.Parallel()
	parsed := PromptMetadata[map[string]any]{
		Input:  &PromptInputConfig{Schema: map[string]any{"name": "string"}},
		Output: &PromptOutputConfig{Schema: map[string]any{"answer": "string"}},
	}
	out, err := ResolveMetadata(context.Background(), ResolverConfig{}, parsed, nil)
	require.NoError(t, err)
	in := out.Input.Schema.(map[string]any)
	outSchema := out.Output.Schema.(map[string]any)
	assert.Contains(t, in["properties"].(map[string]any), "name")
	assert.Contains(t, outSchema["properties"].(map[string]any), "answer")

	// The caller's parsed prompt must not have been mutated.
	assert.Equal(t, map[string]any{"name": "string"}, parsed.Input.Schema)
}

func TestResolveMetadata_TemplateFieldNeverSurvives(t *testing.T) {
	t.Parallel()
	// ParsedPrompt keeps template outside PromptMetadata, so nothing to drop;
	// this guards the invariant that raw frontmatter "template" keys stay in
	// Raw only.
	p := Parse("---\ntemplate: sneaky\n---\nbody")
	out, err := ResolveMetadata(context.Background(), ResolverConfig{}, p.PromptMetadata, nil)
	require.NoError(t, err)
	assert.Equal(t, "sneaky", out.Raw["template"])
}

func TestResolveMetadata_DefaultModelFillsConfigLayer(t *testing.T) {
	t.Parallel()
	cfg := ResolverConfig{
		DefaultModel: "m-default",
		ModelConfigs: map[string]map[string]any{"m-default": {"topP": 0.95}},
	}
	out, err := ResolveMetadata(context.Background(), cfg, PromptMetadata[map[string]any]{}, nil)
	require.NoError(t, err)
	assert.Equal(t, "m-default", out.Model)
	assert.Equal(t, 0.95, out.Config["topP"])
}
