package openai

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/openai/openai-go/v3"
	"github.com/openai/openai-go/v3/shared"
	"github.com/openai/openai-go/v3/shared/constant"

	"github.com/dotprompt-go/dotprompt"
	"github.com/dotprompt-go/dotprompt/adapter"
)

// Adapter implements adapter.ProviderAdapter for the OpenAI Chat Completions
// API. Translate returns *openai.ChatCompletionNewParams; ParseResponse
// expects *openai.ChatCompletion.
type Adapter struct {
	defaultModel shared.ChatModel
}

// Option configures an Adapter (e.g. WithModel).
type Option func(*Adapter)

// WithModel sets the model used when the rendered prompt carries none.
func WithModel(m shared.ChatModel) Option {
	return func(a *Adapter) { a.defaultModel = m }
}

// New returns an Adapter with default model gpt-4o.
func New(opts ...Option) *Adapter {
	a := &Adapter{defaultModel: openai.ChatModelGPT4o}
	for _, opt := range opts {
		opt(a)
	}
	return a
}

// Translate converts a rendered prompt into *openai.ChatCompletionNewParams.
func (a *Adapter) Translate(ctx context.Context, prompt *dotprompt.RenderedPrompt[map[string]any]) (any, error) {
	return a.TranslateTyped(ctx, prompt)
}

// TranslateTyped returns the concrete type so callers avoid type assertion.
func (a *Adapter) TranslateTyped(_ context.Context, prompt *dotprompt.RenderedPrompt[map[string]any]) (*openai.ChatCompletionNewParams, error) {
	if prompt == nil {
		return nil, adapter.ErrNilPrompt
	}
	params := &openai.ChatCompletionNewParams{
		Messages: make([]openai.ChatCompletionMessageParamUnion, 0, len(prompt.Messages)),
		Model:    a.defaultModel,
	}
	if prompt.Model != "" {
		params.Model = shared.ChatModel(prompt.Model)
	}
	mp := adapter.ExtractModelParams(prompt.Config)
	if mp.Temperature != nil {
		params.Temperature = openai.Float(*mp.Temperature)
	}
	if mp.MaxTokens != nil {
		params.MaxTokens = openai.Int(*mp.MaxTokens)
	}
	if mp.TopP != nil {
		params.TopP = openai.Float(*mp.TopP)
	}
	if len(mp.Stop) > 0 {
		params.Stop = openai.ChatCompletionNewParamsStopUnion{OfStringArray: mp.Stop}
	}
	for _, msg := range prompt.Messages {
		union, err := a.messageToUnion(msg)
		if err != nil {
			return nil, err
		}
		params.Messages = append(params.Messages, union)
	}
	if len(prompt.ToolDefs) > 0 {
		params.Tools = make([]openai.ChatCompletionToolUnionParam, 0, len(prompt.ToolDefs))
		for _, td := range prompt.ToolDefs {
			params.Tools = append(params.Tools, openai.ChatCompletionFunctionTool(shared.FunctionDefinitionParam{
				Name:        td.Name,
				Description: openai.String(td.Description),
				Parameters:  shared.FunctionParameters(td.InputSchema),
			}))
		}
	}
	return params, nil
}

func (a *Adapter) messageToUnion(msg dotprompt.Message) (openai.ChatCompletionMessageParamUnion, error) {
	switch msg.Role {
	case dotprompt.RoleSystem:
		return openai.SystemMessage(adapter.TextFromParts(msg.Content)), nil
	case dotprompt.RoleUser:
		return a.userMessage(msg.Content)
	case dotprompt.RoleModel:
		return a.assistantMessage(msg.Content)
	case dotprompt.RoleTool:
		return a.toolResultMessage(msg.Content)
	default:
		return openai.ChatCompletionMessageParamUnion{}, fmt.Errorf("%w: %q", adapter.ErrUnsupportedRole, msg.Role)
	}
}

func (a *Adapter) userMessage(parts []dotprompt.Part) (openai.ChatCompletionMessageParamUnion, error) {
	var contentParts []openai.ChatCompletionContentPartUnionParam
	hasMedia := false
	for _, p := range parts {
		switch x := p.(type) {
		case dotprompt.TextPart:
			contentParts = append(contentParts, openai.TextContentPart(x.Text))
		case dotprompt.MediaPart:
			if x.URL == "" {
				return openai.ChatCompletionMessageParamUnion{}, fmt.Errorf("%w: media part without url", adapter.ErrUnsupportedPart)
			}
			hasMedia = true
			contentParts = append(contentParts, openai.ImageContentPart(openai.ChatCompletionContentPartImageImageURLParam{
				URL:    x.URL,
				Detail: "auto",
			}))
		case dotprompt.DataPart:
			text, err := json.Marshal(x.Data)
			if err != nil {
				return openai.ChatCompletionMessageParamUnion{}, fmt.Errorf("%w: data part: %w", adapter.ErrUnsupportedPart, err)
			}
			contentParts = append(contentParts, openai.TextContentPart(string(text)))
		default:
			return openai.ChatCompletionMessageParamUnion{}, adapter.ErrUnsupportedPart
		}
	}
	if !hasMedia {
		return openai.UserMessage(adapter.TextFromParts(parts)), nil
	}
	return openai.UserMessage(contentParts), nil
}

func (a *Adapter) assistantMessage(parts []dotprompt.Part) (openai.ChatCompletionMessageParamUnion, error) {
	text := ""
	var toolCalls []openai.ChatCompletionMessageToolCallUnionParam
	for _, p := range parts {
		switch x := p.(type) {
		case dotprompt.TextPart:
			text += x.Text
		case dotprompt.ToolRequestPart:
			args, err := json.Marshal(x.Input)
			if err != nil {
				return openai.ChatCompletionMessageParamUnion{}, fmt.Errorf("%w: tool request input: %w", adapter.ErrUnsupportedPart, err)
			}
			toolCalls = append(toolCalls, openai.ChatCompletionMessageToolCallUnionParam{
				OfFunction: &openai.ChatCompletionMessageFunctionToolCallParam{
					ID: x.Ref,
					Function: openai.ChatCompletionMessageFunctionToolCallFunctionParam{
						Name:      x.Name,
						Arguments: string(args),
					},
					Type: "function",
				},
			})
		default:
			return openai.ChatCompletionMessageParamUnion{}, adapter.ErrUnsupportedPart
		}
	}
	if len(toolCalls) > 0 {
		return openai.ChatCompletionMessageParamUnion{
			OfAssistant: &openai.ChatCompletionAssistantMessageParam{
				Content:   openai.ChatCompletionAssistantMessageParamContentUnion{OfString: openai.String(text)},
				ToolCalls: toolCalls,
				Role:      constant.Assistant("assistant"),
			},
		}, nil
	}
	return openai.AssistantMessage(text), nil
}

func (a *Adapter) toolResultMessage(parts []dotprompt.Part) (openai.ChatCompletionMessageParamUnion, error) {
	for _, p := range parts {
		if tr, ok := p.(dotprompt.ToolResponsePart); ok {
			content, ok := tr.Output.(string)
			if !ok {
				data, err := json.Marshal(tr.Output)
				if err != nil {
					return openai.ChatCompletionMessageParamUnion{}, fmt.Errorf("%w: tool response output: %w", adapter.ErrUnsupportedPart, err)
				}
				content = string(data)
			}
			return openai.ToolMessage(content, tr.Ref), nil
		}
	}
	return openai.ChatCompletionMessageParamUnion{}, fmt.Errorf("%w: tool message missing ToolResponsePart", adapter.ErrUnsupportedPart)
}

// ParseResponse converts *openai.ChatCompletion into canonical parts.
func (a *Adapter) ParseResponse(raw any) ([]dotprompt.Part, error) {
	completion, ok := raw.(*openai.ChatCompletion)
	if !ok {
		return nil, adapter.ErrInvalidResponse
	}
	if len(completion.Choices) == 0 {
		return nil, adapter.ErrEmptyResponse
	}
	msg := completion.Choices[0].Message
	var out []dotprompt.Part
	if msg.Content != "" {
		out = append(out, dotprompt.TextPart{Text: msg.Content})
	}
	for _, tc := range msg.ToolCalls {
		if tc.Type != "function" {
			continue
		}
		var input any
		if tc.Function.Arguments != "" {
			if err := json.Unmarshal([]byte(tc.Function.Arguments), &input); err != nil {
				input = tc.Function.Arguments
			}
		}
		out = append(out, dotprompt.ToolRequestPart{
			Name:  tc.Function.Name,
			Input: input,
			Ref:   tc.ID,
		})
	}
	if len(out) == 0 {
		return nil, adapter.ErrEmptyResponse
	}
	return out, nil
}

// Compile-time check that Adapter implements ProviderAdapter.
var _ adapter.ProviderAdapter = (*Adapter)(nil)
