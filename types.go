package dotprompt

// JSONSchema is an untyped recursive JSON value. The compiler never attaches
// a nominal schema type to it; callers that need a typed view decode it
// themselves.
type JSONSchema = map[string]any

// Role identifies who produced a [Message].
type Role string

// Message roles recognised by the role marker grammar.
const (
	RoleUser   Role = "user"
	RoleModel  Role = "model"
	RoleSystem Role = "system"
	RoleTool   Role = "tool"
)

// Part is a tagged variant of message content. Only types in this package
// implement it, via the unexported isPart method.
type Part interface {
	isPart()
}

// TextPart holds plain rendered text.
type TextPart struct {
	Text string
}

func (TextPart) isPart() {}

// DataPart holds an arbitrary structured value. The message assembler never
// produces one; it appears only in messages supplied by the caller, such as
// conversation history.
type DataPart struct {
	Data any
}

func (DataPart) isPart() {}

// MediaPart references (or inlines) a media resource.
type MediaPart struct {
	URL         string
	ContentType string
}

func (MediaPart) isPart() {}

// ToolRequestPart represents a model's request to invoke a tool.
type ToolRequestPart struct {
	Name  string
	Input any
	Ref   string
}

func (ToolRequestPart) isPart() {}

// ToolResponsePart carries the result of a tool invocation back to the model.
type ToolResponsePart struct {
	Name   string
	Output any
	Ref    string
}

func (ToolResponsePart) isPart() {}

// PendingPart marks a placeholder left by the {{section}} helper: content
// that a later processing stage (not this compiler) is expected to fill in.
type PendingPart struct {
	Purpose  string
	Metadata map[string]any
}

func (PendingPart) isPart() {}

// Message is one turn of a conversation: a role plus an ordered, non-empty
// list of content parts.
type Message struct {
	Role     Role
	Content  []Part
	Metadata map[string]any
}

// Document is an ordered list of parts used as retrieval/context input.
type Document struct {
	Content []Part
}

// ToolDefinition describes a callable tool available to the model.
type ToolDefinition struct {
	Name         string
	Description  string
	InputSchema  JSONSchema
	OutputSchema JSONSchema
}

// PromptInputConfig describes the expected input: default variable values
// plus a schema. Schema holds raw Picoschema (a string or map, as parsed
// from frontmatter) until the metadata resolver compiles it; after
// resolution it holds a JSONSchema.
type PromptInputConfig struct {
	Default map[string]any
	Schema  any
}

// PromptOutputConfig describes the desired output shape: a format hint
// ("json", "text", ...) plus a schema with the same pre/post-compile shape
// as PromptInputConfig.Schema.
type PromptOutputConfig struct {
	Format string
	Schema any
}

// PromptMetadata is the resolved, typed view of a prompt's frontmatter. C is
// the opaque, vendor-specific model config type; the core never interprets
// its contents beyond a one-level deep-merge during metadata resolution.
type PromptMetadata[C any] struct {
	Name        string
	Variant     string
	Version     string
	Description string
	Model       string
	Tools       []string
	ToolDefs    []ToolDefinition
	Config      C
	Input       *PromptInputConfig
	Output      *PromptOutputConfig
	Raw         map[string]any
	Ext         map[string]map[string]any
	Metadata    map[string]any
}

// ParsedPrompt is the output of the document parser: the template body plus
// its typed metadata.
type ParsedPrompt[C any] struct {
	Template string
	PromptMetadata[C]
}

// DataArgument is the render-time input: the template variables, retrieval
// documents, conversation history, and ambient context exposed as
// "@"-prefixed template data.
type DataArgument[V any] struct {
	Input    V
	Docs     []Document
	Messages []Message
	Context  map[string]any
}

// RenderedPrompt is the final compiled artifact: resolved metadata plus the
// ordered list of messages produced by the message assembler.
type RenderedPrompt[C any] struct {
	PromptMetadata[C]
	Messages []Message
}
