package adapter

import (
	"context"
	"errors"
	"strings"

	"github.com/dotprompt-go/dotprompt"
	"github.com/dotprompt-go/dotprompt/internal/cast"
)

// Sentinel errors shared by all provider adapters.
var (
	// ErrNilPrompt indicates Translate was called with a nil rendered prompt.
	ErrNilPrompt = errors.New("adapter: rendered prompt is nil")
	// ErrUnsupportedRole indicates a message role the provider cannot express.
	ErrUnsupportedRole = errors.New("adapter: unsupported message role")
	// ErrUnsupportedPart indicates a content part the provider cannot express.
	ErrUnsupportedPart = errors.New("adapter: unsupported content part")
	// ErrInvalidResponse indicates ParseResponse received an unexpected type.
	ErrInvalidResponse = errors.New("adapter: invalid provider response type")
	// ErrEmptyResponse indicates the provider response carried no content.
	ErrEmptyResponse = errors.New("adapter: empty provider response")
)

// ProviderAdapter maps a rendered prompt to a provider-specific request type
// and parses the provider response back to canonical parts. No
// implementations live in this package; see the openai, anthropic, and
// gemini sub-packages.
type ProviderAdapter interface {
	// Translate converts a rendered prompt into the provider request payload.
	// Callers type-assert the result to the provider-specific type, or use
	// the adapter's TranslateTyped method.
	Translate(ctx context.Context, prompt *dotprompt.RenderedPrompt[map[string]any]) (any, error)
	// ParseResponse converts the raw provider response into canonical parts.
	ParseResponse(raw any) ([]dotprompt.Part, error)
}

// TextFromParts concatenates the text of every TextPart, ignoring other
// part kinds.
func TextFromParts(parts []dotprompt.Part) string {
	var b strings.Builder
	for _, p := range parts {
		if tp, ok := p.(dotprompt.TextPart); ok {
			b.WriteString(tp.Text)
		}
	}
	return b.String()
}

// ModelParams are the provider-agnostic generation parameters extracted from
// a prompt's config map. Nil pointers mean "not set".
type ModelParams struct {
	Temperature *float64
	MaxTokens   *int64
	TopP        *float64
	Stop        []string
}

// ExtractModelParams reads the common generation parameters from a config
// map, tolerating any numeric YAML/JSON representation.
func ExtractModelParams(config map[string]any) ModelParams {
	var mp ModelParams
	if config == nil {
		return mp
	}
	if v, ok := cast.ToFloat64(config["temperature"]); ok {
		mp.Temperature = &v
	}
	for _, key := range []string{"maxOutputTokens", "max_tokens", "maxTokens"} {
		if v, ok := cast.ToInt64(config[key]); ok {
			mp.MaxTokens = &v
			break
		}
	}
	if v, ok := cast.ToFloat64(config["topP"]); ok {
		mp.TopP = &v
	}
	for _, key := range []string{"stopSequences", "stop"} {
		if v, ok := cast.ToStringSlice(config[key]); ok {
			mp.Stop = v
			break
		}
	}
	return mp
}
