package gemini

import (
	"context"
	"encoding/json"
	"fmt"
	"math"
	"strings"

	"google.golang.org/genai"

	"github.com/dotprompt-go/dotprompt"
	"github.com/dotprompt-go/dotprompt/adapter"
)

// Request wraps Contents and Config for the Gemini GenerateContent API.
type Request struct {
	Contents []*genai.Content
	Config   *genai.GenerateContentConfig
}

// Adapter implements adapter.ProviderAdapter for the Google Gemini (genai)
// API. Translate returns *Request; ParseResponse expects
// *genai.GenerateContentResponse.
type Adapter struct{}

// New returns an Adapter.
func New() *Adapter {
	return &Adapter{}
}

// Translate converts a rendered prompt into *Request (Contents + Config).
func (a *Adapter) Translate(ctx context.Context, prompt *dotprompt.RenderedPrompt[map[string]any]) (any, error) {
	return a.TranslateTyped(ctx, prompt)
}

// TranslateTyped returns the concrete type so callers avoid type assertion.
// The model id is set on the genai client, not in Config.
func (a *Adapter) TranslateTyped(_ context.Context, prompt *dotprompt.RenderedPrompt[map[string]any]) (*Request, error) {
	if prompt == nil {
		return nil, adapter.ErrNilPrompt
	}
	config := &genai.GenerateContentConfig{}
	mp := adapter.ExtractModelParams(prompt.Config)
	if mp.Temperature != nil {
		t := float32(*mp.Temperature)
		config.Temperature = &t
	}
	if mp.MaxTokens != nil {
		if *mp.MaxTokens > math.MaxInt32 {
			config.MaxOutputTokens = math.MaxInt32
		} else {
			config.MaxOutputTokens = int32(*mp.MaxTokens)
		}
	}
	if mp.TopP != nil {
		p := float32(*mp.TopP)
		config.TopP = &p
	}
	if len(mp.Stop) > 0 {
		config.StopSequences = mp.Stop
	}

	var systemParts []string
	var contents []*genai.Content
	for _, msg := range prompt.Messages {
		switch msg.Role {
		case dotprompt.RoleSystem:
			systemParts = append(systemParts, adapter.TextFromParts(msg.Content))
		case dotprompt.RoleUser:
			c, err := a.userContent(msg.Content)
			if err != nil {
				return nil, err
			}
			contents = append(contents, c)
		case dotprompt.RoleModel:
			c, err := a.modelContent(msg.Content)
			if err != nil {
				return nil, err
			}
			contents = append(contents, c)
		case dotprompt.RoleTool:
			c, err := a.toolResultContent(msg.Content)
			if err != nil {
				return nil, err
			}
			contents = append(contents, c)
		default:
			return nil, fmt.Errorf("%w: %q", adapter.ErrUnsupportedRole, msg.Role)
		}
	}
	if len(systemParts) > 0 {
		config.SystemInstruction = genai.NewContentFromText(strings.Join(systemParts, "\n\n"), genai.RoleUser)
	}
	if len(prompt.ToolDefs) > 0 {
		config.Tools = []*genai.Tool{{
			FunctionDeclarations: make([]*genai.FunctionDeclaration, 0, len(prompt.ToolDefs)),
		}}
		for _, td := range prompt.ToolDefs {
			config.Tools[0].FunctionDeclarations = append(config.Tools[0].FunctionDeclarations, &genai.FunctionDeclaration{
				Name:                 td.Name,
				Description:          td.Description,
				ParametersJsonSchema: td.InputSchema,
			})
		}
	}
	if prompt.Output != nil && prompt.Output.Format == "json" {
		config.ResponseMIMEType = "application/json"
		if m, ok := prompt.Output.Schema.(map[string]any); ok {
			schema, err := mapToGenaiSchema(m)
			if err != nil {
				return nil, fmt.Errorf("output schema: %w", err)
			}
			if schema != nil {
				config.ResponseSchema = schema
			}
		}
	}
	return &Request{Contents: contents, Config: config}, nil
}

func (a *Adapter) userContent(parts []dotprompt.Part) (*genai.Content, error) {
	genParts, err := a.commonParts(parts)
	if err != nil {
		return nil, err
	}
	if len(genParts) == 0 {
		return genai.NewContentFromText("", genai.RoleUser), nil
	}
	return genai.NewContentFromParts(genParts, genai.RoleUser), nil
}

func (a *Adapter) commonParts(parts []dotprompt.Part) ([]*genai.Part, error) {
	var genParts []*genai.Part
	for _, p := range parts {
		switch x := p.(type) {
		case dotprompt.TextPart:
			genParts = append(genParts, genai.NewPartFromText(x.Text))
		case dotprompt.MediaPart:
			if x.URL == "" {
				return nil, fmt.Errorf("%w: media part without url", adapter.ErrUnsupportedPart)
			}
			mime := x.ContentType
			if mime == "" {
				mime = "image/png"
			}
			genParts = append(genParts, genai.NewPartFromURI(x.URL, mime))
		case dotprompt.DataPart:
			text, err := json.Marshal(x.Data)
			if err != nil {
				return nil, fmt.Errorf("%w: data part: %w", adapter.ErrUnsupportedPart, err)
			}
			genParts = append(genParts, genai.NewPartFromText(string(text)))
		default:
			return nil, adapter.ErrUnsupportedPart
		}
	}
	return genParts, nil
}

func (a *Adapter) modelContent(parts []dotprompt.Part) (*genai.Content, error) {
	var genParts []*genai.Part
	for _, p := range parts {
		switch x := p.(type) {
		case dotprompt.TextPart:
			genParts = append(genParts, genai.NewPartFromText(x.Text))
		case dotprompt.ToolRequestPart:
			args, ok := x.Input.(map[string]any)
			if !ok {
				args = map[string]any{}
				if x.Input != nil {
					args["value"] = x.Input
				}
			}
			genParts = append(genParts, genai.NewPartFromFunctionCall(x.Name, args))
		default:
			return nil, adapter.ErrUnsupportedPart
		}
	}
	if len(genParts) == 0 {
		return genai.NewContentFromText("", genai.RoleModel), nil
	}
	return genai.NewContentFromParts(genParts, genai.RoleModel), nil
}

func (a *Adapter) toolResultContent(parts []dotprompt.Part) (*genai.Content, error) {
	for _, p := range parts {
		if tr, ok := p.(dotprompt.ToolResponsePart); ok {
			part := genai.NewPartFromFunctionResponse(tr.Name, map[string]any{"result": tr.Output})
			return genai.NewContentFromParts([]*genai.Part{part}, genai.RoleUser), nil
		}
	}
	return nil, fmt.Errorf("%w: tool message missing ToolResponsePart", adapter.ErrUnsupportedPart)
}

// ParseResponse converts *genai.GenerateContentResponse into canonical parts.
func (a *Adapter) ParseResponse(raw any) ([]dotprompt.Part, error) {
	resp, ok := raw.(*genai.GenerateContentResponse)
	if !ok {
		return nil, adapter.ErrInvalidResponse
	}
	var out []dotprompt.Part
	if text := resp.Text(); text != "" {
		out = append(out, dotprompt.TextPart{Text: text})
	}
	for _, fc := range resp.FunctionCalls() {
		out = append(out, dotprompt.ToolRequestPart{
			Name:  fc.Name,
			Input: map[string]any(fc.Args),
			Ref:   fc.ID,
		})
	}
	if len(out) == 0 {
		return nil, adapter.ErrEmptyResponse
	}
	return out, nil
}

// Compile-time check that Adapter implements ProviderAdapter.
var _ adapter.ProviderAdapter = (*Adapter)(nil)
