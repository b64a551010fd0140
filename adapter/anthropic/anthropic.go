package anthropic

import (
	"context"
	"encoding/base64"
	"encoding/json"
	"fmt"
	"strings"

	"github.com/anthropics/anthropic-sdk-go"
	"github.com/anthropics/anthropic-sdk-go/shared/constant"

	"github.com/dotprompt-go/dotprompt"
	"github.com/dotprompt-go/dotprompt/adapter"
	"github.com/dotprompt-go/dotprompt/mediafetch"
)

const defaultMaxTokens int64 = 1024

// Adapter implements adapter.ProviderAdapter for the Anthropic Messages API.
// Translate returns *anthropic.MessageNewParams; ParseResponse expects
// *anthropic.Message.
type Adapter struct {
	defaultModel anthropic.Model
}

// Option configures an Adapter (e.g. WithModel).
type Option func(*Adapter)

// WithModel sets the model used when the rendered prompt carries none.
func WithModel(m anthropic.Model) Option {
	return func(a *Adapter) { a.defaultModel = m }
}

// New returns an Adapter with a default model.
func New(opts ...Option) *Adapter {
	a := &Adapter{defaultModel: anthropic.ModelClaudeSonnet4_5_20250929}
	for _, opt := range opts {
		opt(a)
	}
	return a
}

// Translate converts a rendered prompt into *anthropic.MessageNewParams.
func (a *Adapter) Translate(ctx context.Context, prompt *dotprompt.RenderedPrompt[map[string]any]) (any, error) {
	return a.TranslateTyped(ctx, prompt)
}

// TranslateTyped returns the concrete type so callers avoid type assertion.
// MediaPart URLs are downloaded (https only) because the Messages API takes
// inline base64 blocks.
func (a *Adapter) TranslateTyped(ctx context.Context, prompt *dotprompt.RenderedPrompt[map[string]any]) (*anthropic.MessageNewParams, error) {
	if prompt == nil {
		return nil, adapter.ErrNilPrompt
	}
	params := &anthropic.MessageNewParams{
		MaxTokens: defaultMaxTokens,
		Model:     a.defaultModel,
	}
	if prompt.Model != "" {
		params.Model = anthropic.Model(prompt.Model)
	}
	mp := adapter.ExtractModelParams(prompt.Config)
	if mp.MaxTokens != nil {
		params.MaxTokens = *mp.MaxTokens
	}
	if mp.Temperature != nil {
		params.Temperature = anthropic.Float(*mp.Temperature)
	}
	if mp.TopP != nil {
		params.TopP = anthropic.Float(*mp.TopP)
	}
	if len(mp.Stop) > 0 {
		params.StopSequences = mp.Stop
	}

	var systemTexts []string
	var messages []anthropic.MessageParam
	for _, msg := range prompt.Messages {
		switch msg.Role {
		case dotprompt.RoleSystem:
			systemTexts = append(systemTexts, adapter.TextFromParts(msg.Content))
		case dotprompt.RoleUser:
			m, err := a.userMessage(ctx, msg.Content)
			if err != nil {
				return nil, err
			}
			messages = append(messages, m)
		case dotprompt.RoleModel:
			m, err := a.assistantMessage(msg.Content)
			if err != nil {
				return nil, err
			}
			messages = append(messages, m)
		case dotprompt.RoleTool:
			m, err := a.toolResultMessage(msg.Content)
			if err != nil {
				return nil, err
			}
			messages = append(messages, m)
		default:
			return nil, fmt.Errorf("%w: %q", adapter.ErrUnsupportedRole, msg.Role)
		}
	}
	if len(systemTexts) > 0 {
		params.System = []anthropic.TextBlockParam{{Text: strings.Join(systemTexts, "\n\n")}}
	}
	params.Messages = messages

	if len(prompt.ToolDefs) > 0 {
		params.Tools = make([]anthropic.ToolUnionParam, 0, len(prompt.ToolDefs))
		for _, td := range prompt.ToolDefs {
			schema := toolInputSchema(td.InputSchema)
			tool := anthropic.ToolUnionParamOfTool(schema, td.Name)
			if td.Description != "" {
				tool.OfTool.Description = anthropic.String(td.Description)
			}
			params.Tools = append(params.Tools, tool)
		}
	}
	return params, nil
}

// toolInputSchema builds ToolInputSchemaParam from a JSON Schema map,
// preserving type, properties, required.
func toolInputSchema(schema dotprompt.JSONSchema) anthropic.ToolInputSchemaParam {
	out := anthropic.ToolInputSchemaParam{
		Type: constant.Object("object"),
	}
	if schema == nil {
		return out
	}
	if p, ok := schema["properties"].(map[string]any); ok {
		out.Properties = p
	}
	if r, ok := schema["required"].([]any); ok {
		required := make([]string, 0, len(r))
		for _, x := range r {
			if s, ok := x.(string); ok {
				required = append(required, s)
			}
		}
		out.Required = required
	} else if r, ok := schema["required"].([]string); ok {
		out.Required = r
	}
	return out
}

func (a *Adapter) userMessage(ctx context.Context, parts []dotprompt.Part) (anthropic.MessageParam, error) {
	var blocks []anthropic.ContentBlockParamUnion
	for _, p := range parts {
		switch x := p.(type) {
		case dotprompt.TextPart:
			blocks = append(blocks, anthropic.NewTextBlock(x.Text))
		case dotprompt.MediaPart:
			if x.URL == "" {
				return anthropic.MessageParam{}, fmt.Errorf("%w: media part without url", adapter.ErrUnsupportedPart)
			}
			data, mediaType, err := mediafetch.Fetch(ctx, x.URL, mediafetch.DefaultMaxBodySize)
			if err != nil {
				return anthropic.MessageParam{}, fmt.Errorf("%w: fetch media URL: %w", adapter.ErrUnsupportedPart, err)
			}
			if x.ContentType != "" {
				mediaType = x.ContentType
			}
			if mediaType == "" {
				mediaType = "image/png"
			}
			blocks = append(blocks, anthropic.NewImageBlockBase64(mediaType, base64.StdEncoding.EncodeToString(data)))
		case dotprompt.DataPart:
			text, err := json.Marshal(x.Data)
			if err != nil {
				return anthropic.MessageParam{}, fmt.Errorf("%w: data part: %w", adapter.ErrUnsupportedPart, err)
			}
			blocks = append(blocks, anthropic.NewTextBlock(string(text)))
		default:
			return anthropic.MessageParam{}, adapter.ErrUnsupportedPart
		}
	}
	return anthropic.NewUserMessage(blocks...), nil
}

func (a *Adapter) assistantMessage(parts []dotprompt.Part) (anthropic.MessageParam, error) {
	var blocks []anthropic.ContentBlockParamUnion
	for _, p := range parts {
		switch x := p.(type) {
		case dotprompt.TextPart:
			blocks = append(blocks, anthropic.NewTextBlock(x.Text))
		case dotprompt.ToolRequestPart:
			input, err := json.Marshal(x.Input)
			if err != nil {
				return anthropic.MessageParam{}, fmt.Errorf("%w: tool request input: %w", adapter.ErrUnsupportedPart, err)
			}
			blocks = append(blocks, anthropic.NewToolUseBlock(x.Ref, json.RawMessage(input), x.Name))
		default:
			return anthropic.MessageParam{}, adapter.ErrUnsupportedPart
		}
	}
	return anthropic.NewAssistantMessage(blocks...), nil
}

func (a *Adapter) toolResultMessage(parts []dotprompt.Part) (anthropic.MessageParam, error) {
	for _, p := range parts {
		if tr, ok := p.(dotprompt.ToolResponsePart); ok {
			content, ok := tr.Output.(string)
			if !ok {
				data, err := json.Marshal(tr.Output)
				if err != nil {
					return anthropic.MessageParam{}, fmt.Errorf("%w: tool response output: %w", adapter.ErrUnsupportedPart, err)
				}
				content = string(data)
			}
			return anthropic.NewUserMessage(anthropic.NewToolResultBlock(tr.Ref, content, false)), nil
		}
	}
	return anthropic.MessageParam{}, fmt.Errorf("%w: tool message missing ToolResponsePart", adapter.ErrUnsupportedPart)
}

// ParseResponse converts *anthropic.Message into canonical parts.
func (a *Adapter) ParseResponse(raw any) ([]dotprompt.Part, error) {
	msg, ok := raw.(*anthropic.Message)
	if !ok {
		return nil, adapter.ErrInvalidResponse
	}
	var out []dotprompt.Part
	for _, block := range msg.Content {
		switch block.Type {
		case "text":
			if block.Text != "" {
				out = append(out, dotprompt.TextPart{Text: block.Text})
			}
		case "tool_use":
			var input any
			if len(block.Input) > 0 {
				if err := json.Unmarshal(block.Input, &input); err != nil {
					input = string(block.Input)
				}
			}
			out = append(out, dotprompt.ToolRequestPart{Name: block.Name, Input: input, Ref: block.ID})
		}
	}
	if len(out) == 0 {
		return nil, adapter.ErrEmptyResponse
	}
	return out, nil
}

// Compile-time check that Adapter implements ProviderAdapter.
var _ adapter.ProviderAdapter = (*Adapter)(nil)
