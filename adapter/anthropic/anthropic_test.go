package anthropic

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/dotprompt-go/dotprompt"
	"github.com/dotprompt-go/dotprompt/adapter"
)

func basePrompt() *dotprompt.RenderedPrompt[map[string]any] {
	return &dotprompt.RenderedPrompt[map[string]any]{
		PromptMetadata: dotprompt.PromptMetadata[map[string]any]{
			Model:  "claude-sonnet-4-5-20250929",
			Config: map[string]any{"temperature": 0.3, "maxOutputTokens": 2048},
		},
		Messages: []dotprompt.Message{
			{Role: dotprompt.RoleSystem, Content: []dotprompt.Part{dotprompt.TextPart{Text: "be terse"}}},
			{Role: dotprompt.RoleUser, Content: []dotprompt.Part{dotprompt.TextPart{Text: "hi"}}},
		},
	}
}

func TestTranslateTyped_Basic(t *testing.T) {
	t.Parallel()
	params, err := New().TranslateTyped(context.Background(), basePrompt())
	require.NoError(t, err)
	assert.Equal(t, "claude-sonnet-4-5-20250929", string(params.Model))
	assert.Equal(t, int64(2048), params.MaxTokens)
	assert.Equal(t, 0.3, params.Temperature.Value)
	require.Len(t, params.System, 1)
	assert.Equal(t, "be terse", params.System[0].Text)
	require.Len(t, params.Messages, 1, "system turns fold into params.System")
}

func TestTranslateTyped_NilPrompt(t *testing.T) {
	t.Parallel()
	_, err := New().TranslateTyped(context.Background(), nil)
	require.ErrorIs(t, err, adapter.ErrNilPrompt)
}

func TestTranslateTyped_MaxTokensDefault(t *testing.T) {
	t.Parallel()
	prompt := basePrompt()
	prompt.Config = nil
	params, err := New().TranslateTyped(context.Background(), prompt)
	require.NoError(t, err)
	assert.Equal(t, defaultMaxTokens, params.MaxTokens)
}

func TestTranslateTyped_Tools(t *testing.T) {
	t.Parallel()
	prompt := basePrompt()
	prompt.ToolDefs = []dotprompt.ToolDefinition{{
		Name:        "lookup",
		Description: "look things up",
		InputSchema: dotprompt.JSONSchema{
			"type":       "object",
			"properties": map[string]any{"q": map[string]any{"type": "string"}},
			"required":   []any{"q"},
		},
	}}
	params, err := New().TranslateTyped(context.Background(), prompt)
	require.NoError(t, err)
	require.Len(t, params.Tools, 1)
	require.NotNil(t, params.Tools[0].OfTool)
	assert.Equal(t, "lookup", params.Tools[0].OfTool.Name)
	assert.Equal(t, []string{"q"}, params.Tools[0].OfTool.InputSchema.Required)
}

func TestTranslateTyped_ToolRoundTripTurns(t *testing.T) {
	t.Parallel()
	prompt := basePrompt()
	prompt.Messages = append(prompt.Messages,
		dotprompt.Message{Role: dotprompt.RoleModel, Content: []dotprompt.Part{
			dotprompt.ToolRequestPart{Name: "lookup", Input: map[string]any{"q": "go"}, Ref: "toolu_1"},
		}},
		dotprompt.Message{Role: dotprompt.RoleTool, Content: []dotprompt.Part{
			dotprompt.ToolResponsePart{Name: "lookup", Output: "found it", Ref: "toolu_1"},
		}},
	)
	params, err := New().TranslateTyped(context.Background(), prompt)
	require.NoError(t, err)
	require.Len(t, params.Messages, 3)
}

func TestTranslateTyped_UnsupportedPart(t *testing.T) {
	t.Parallel()
	prompt := basePrompt()
	prompt.Messages = []dotprompt.Message{{
		Role:    dotprompt.RoleUser,
		Content: []dotprompt.Part{dotprompt.PendingPart{Purpose: "later"}},
	}}
	_, err := New().TranslateTyped(context.Background(), prompt)
	require.ErrorIs(t, err, adapter.ErrUnsupportedPart)
}
