package dotprompt

// Option configures a Dotprompt compiler (functional options pattern).
type Option func(*Dotprompt)

// WithDefaultModel sets the model used when neither the document nor the
// call-site override names one.
func WithDefaultModel(model string) Option {
	return func(dp *Dotprompt) {
		dp.defaultModel = model
	}
}

// WithModelConfigs sets per-model default configs, the lowest-precedence
// metadata layer.
func WithModelConfigs(configs map[string]map[string]any) Option {
	return func(dp *Dotprompt) {
		dp.modelConfigs = configs
	}
}

// WithHelpers sets custom template helpers. They are registered before the
// built-ins, so a custom helper may shadow a built-in name.
func WithHelpers(helpers map[string]any) Option {
	return func(dp *Dotprompt) {
		dp.helpers = helpers
	}
}

// WithPartials sets statically known partial sources, registered with the
// engine on every compile before the lexical partial scan runs.
func WithPartials(partials map[string]string) Option {
	return func(dp *Dotprompt) {
		dp.partials = partials
	}
}

// WithTools sets the static tool mapping consulted before the ToolResolver.
func WithTools(tools map[string]ToolDefinition) Option {
	return func(dp *Dotprompt) {
		dp.tools = tools
	}
}

// WithToolResolver sets the pluggable tool resolver.
func WithToolResolver(resolver ToolResolverFunc) Option {
	return func(dp *Dotprompt) {
		dp.toolResolver = resolver
	}
}

// WithSchemas sets the static named-schema mapping consulted before the
// SchemaResolver.
func WithSchemas(schemas map[string]any) Option {
	return func(dp *Dotprompt) {
		dp.schemas = schemas
	}
}

// WithSchemaResolver sets the pluggable schema resolver.
func WithSchemaResolver(resolver SchemaResolverFunc) Option {
	return func(dp *Dotprompt) {
		dp.schemaResolver = resolver
	}
}

// WithPartialResolver sets the pluggable partial resolver.
func WithPartialResolver(resolver PartialResolverFunc) Option {
	return func(dp *Dotprompt) {
		dp.partialResolver = resolver
	}
}

// WithStore binds a PromptStore used as a partial-source fallback after the
// PartialResolver.
func WithStore(store PromptStore) Option {
	return func(dp *Dotprompt) {
		dp.store = store
	}
}
