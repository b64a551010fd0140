package dotprompt

import (
	"context"
	"errors"
	"fmt"
	"maps"
	"regexp"
	"sync"

	"github.com/aymerick/raymond"
	"golang.org/x/sync/errgroup"
)

// PartialSource is a partial's template source as returned by a PromptStore.
type PartialSource struct {
	Source string
}

// PromptStore supplies partial sources when the PartialResolver has no
// match. Implementations live outside the core (see fileregistry,
// embedregistry, remoteregistry); a nil, non-error return means "not found".
type PromptStore interface {
	LoadPartial(ctx context.Context, name string) (*PartialSource, error)
}

// Dotprompt is the compiling façade: it owns the helper registry, static
// tool/schema/partial mappings, and the pluggable resolvers, and wires the
// parser, Picoschema compiler, metadata resolver, template engine, and
// message assembler together. Configure it at construction (or via the
// Define methods before the first Compile); it is read-mostly afterwards and
// safe for concurrent Compile/Render without external locking.
type Dotprompt struct {
	defaultModel    string
	modelConfigs    map[string]map[string]any
	helpers         map[string]any
	partials        map[string]string
	tools           map[string]ToolDefinition
	toolResolver    ToolResolverFunc
	schemas         map[string]any
	schemaResolver  SchemaResolverFunc
	partialResolver PartialResolverFunc
	store           PromptStore
}

// New creates a Dotprompt compiler and applies options.
func New(opts ...Option) *Dotprompt {
	dp := &Dotprompt{
		helpers:  map[string]any{},
		partials: map[string]string{},
		tools:    map[string]ToolDefinition{},
		schemas:  map[string]any{},
	}
	for _, opt := range opts {
		opt(dp)
	}
	if dp.helpers == nil {
		dp.helpers = map[string]any{}
	}
	if dp.partials == nil {
		dp.partials = map[string]string{}
	}
	if dp.tools == nil {
		dp.tools = map[string]ToolDefinition{}
	}
	if dp.schemas == nil {
		dp.schemas = map[string]any{}
	}
	return dp
}

// DefineHelper registers a custom helper. Registration is additive and
// idempotent per name; the last definition for a name wins at compile time.
func (dp *Dotprompt) DefineHelper(name string, helper any) *Dotprompt {
	dp.helpers[name] = helper
	return dp
}

// DefinePartial registers a statically known partial source.
func (dp *Dotprompt) DefinePartial(name, source string) *Dotprompt {
	dp.partials[name] = source
	return dp
}

// DefineTool registers a tool definition in the static mapping.
func (dp *Dotprompt) DefineTool(def ToolDefinition) *Dotprompt {
	dp.tools[def.Name] = def
	return dp
}

// DefineSchema registers a named schema in the static mapping.
func (dp *Dotprompt) DefineSchema(name string, schema any) *Dotprompt {
	dp.schemas[name] = schema
	return dp
}

// PromptFunction renders a compiled prompt with render-time data.
type PromptFunction func(ctx context.Context, data DataArgument[map[string]any]) (RenderedPrompt[map[string]any], error)

// Render compiles source and renders it with data in one step. override may
// be nil.
func (dp *Dotprompt) Render(
	ctx context.Context,
	source string,
	data DataArgument[map[string]any],
	override *PromptMetadata[map[string]any],
) (RenderedPrompt[map[string]any], error) {
	renderFn, err := dp.Compile(ctx, source, override)
	if err != nil {
		return RenderedPrompt[map[string]any]{}, err
	}
	return renderFn(ctx, data)
}

// Compile parses source, compiles the template body, resolves every
// referenced partial (recursively, siblings concurrently), and returns a
// PromptFunction closing over the parsed prompt and engine template.
func (dp *Dotprompt) Compile(
	ctx context.Context,
	source string,
	override *PromptMetadata[map[string]any],
) (PromptFunction, error) {
	parsed := Parse(source)
	if override != nil {
		parsed.PromptMetadata = mergeMetadataLayer(parsed.PromptMetadata, *override)
	}

	tpl, err := raymond.Parse(parsed.Template)
	if err != nil {
		return nil, fmt.Errorf("%w: %w", ErrTemplateParse, err)
	}
	registerHelpers(tpl, dp.helpers)
	if err := dp.registerPartials(ctx, tpl, parsed.Template); err != nil {
		return nil, err
	}

	return func(ctx context.Context, data DataArgument[map[string]any]) (RenderedPrompt[map[string]any], error) {
		merged, err := ResolveMetadata(ctx, dp.resolverConfig(), parsed.PromptMetadata, override)
		if err != nil {
			return RenderedPrompt[map[string]any]{}, err
		}

		evalContext := map[string]any{}
		if merged.Input != nil {
			maps.Copy(evalContext, merged.Input.Default)
		}
		maps.Copy(evalContext, data.Input)
		// Input is no longer meaningful once the defaults are bound.
		merged.Input = nil

		privData := raymond.NewDataFrame()
		privData.Set("metadata", map[string]any{
			"prompt":   metadataToMap(merged),
			"docs":     data.Docs,
			"messages": data.Messages,
		})
		for key, value := range data.Context {
			privData.Set(key, value)
		}

		rendered, err := tpl.ExecWith(evalContext, privData)
		if err != nil {
			return RenderedPrompt[map[string]any]{}, fmt.Errorf("%w: %w", ErrTemplateRender, err)
		}

		messages, err := ToMessages(rendered, data)
		if err != nil {
			return RenderedPrompt[map[string]any]{}, err
		}
		return RenderedPrompt[map[string]any]{
			PromptMetadata: merged,
			Messages:       messages,
		}, nil
	}, nil
}

func (dp *Dotprompt) resolverConfig() ResolverConfig {
	cfg := ResolverConfig{
		Tools:        dp.tools,
		Schemas:      dp.schemas,
		ModelConfigs: dp.modelConfigs,
		DefaultModel: dp.defaultModel,
	}
	// Only bind configured resolvers: a nil func stored in an `any` field
	// would not compare equal to nil.
	if dp.toolResolver != nil {
		cfg.ToolResolver = dp.toolResolver
	}
	if dp.schemaResolver != nil {
		cfg.SchemaResolver = dp.schemaResolver
	}
	return cfg
}

// partialPattern is the best-effort lexical scan for {{> name}} references.
// It may over-approximate (e.g. inside comment regions); that is safe
// because registration is idempotent.
var partialPattern = regexp.MustCompile(`\{\{\s*>\s*([a-zA-Z0-9_.-]+)[^}]*\}\}`)

// identifyPartials returns the set of partial names referenced in template.
func identifyPartials(template string) []string {
	seen := map[string]bool{}
	var names []string
	for _, m := range partialPattern.FindAllStringSubmatch(template, -1) {
		if !seen[m[1]] {
			seen[m[1]] = true
			names = append(names, m[1])
		}
	}
	return names
}

// partialRegistry serializes registration against the engine template and
// keeps it idempotent per name. claim marks a name as handled before its
// resolution starts so concurrent siblings never double-register.
type partialRegistry struct {
	mu    sync.Mutex
	tpl   *raymond.Template
	known map[string]bool
}

func (r *partialRegistry) claim(name string) bool {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.known[name] {
		return false
	}
	r.known[name] = true
	return true
}

func (r *partialRegistry) register(name, source string) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.tpl.RegisterPartial(name, source)
}

// registerPartials registers the statically configured partials, then fans
// out to resolve every partial the template (and, transitively, the partials
// themselves) reference.
func (dp *Dotprompt) registerPartials(ctx context.Context, tpl *raymond.Template, template string) error {
	reg := &partialRegistry{tpl: tpl, known: map[string]bool{}}
	for name, source := range dp.partials {
		if reg.claim(name) {
			reg.register(name, source)
		}
	}
	sources := make([]string, 0, len(dp.partials)+1)
	sources = append(sources, template)
	for _, source := range dp.partials {
		sources = append(sources, source)
	}
	for _, source := range sources {
		if err := dp.resolvePartialRefs(ctx, reg, source); err != nil {
			return err
		}
	}
	return nil
}

// resolvePartialRefs resolves the partials referenced by source that are not
// yet registered. Sibling resolutions run concurrently; each resolved source
// is recursed into, so the depth of the fan-out is bounded only by the
// partial graph. A name neither resolver nor store knows is skipped: the
// lexical scan over-approximates, and a genuinely missing partial fails at
// render time inside the engine.
func (dp *Dotprompt) resolvePartialRefs(ctx context.Context, reg *partialRegistry, source string) error {
	if dp.partialResolver == nil && dp.store == nil {
		return nil
	}
	g, ctx := errgroup.WithContext(ctx)
	for _, name := range identifyPartials(source) {
		if !reg.claim(name) {
			continue
		}
		g.Go(func() error {
			resolved, ok, err := dp.lookupPartial(ctx, name)
			if err != nil {
				return err
			}
			if !ok {
				return nil
			}
			reg.register(name, resolved)
			return dp.resolvePartialRefs(ctx, reg, resolved)
		})
	}
	return g.Wait()
}

// lookupPartial consults the PartialResolver, then the PromptStore.
func (dp *Dotprompt) lookupPartial(ctx context.Context, name string) (string, bool, error) {
	if dp.partialResolver != nil {
		source, err := resolvePartial(name, dp.partialResolver)
		if err == nil {
			return source, true, nil
		}
		var nf *NotFoundError
		if !errors.As(err, &nf) {
			return "", false, err
		}
	}
	if dp.store != nil {
		partial, err := dp.store.LoadPartial(ctx, name)
		if err != nil {
			return "", false, &ResolverFailedError{Name: name, Kind: KindPartial, Reason: err}
		}
		if partial != nil {
			return partial.Source, true, nil
		}
	}
	return "", false, nil
}

// metadataToMap converts resolved metadata into the null-pruned mapping
// exposed to templates as @metadata.prompt.
func metadataToMap(md PromptMetadata[map[string]any]) map[string]any {
	out := map[string]any{}
	if md.Name != "" {
		out["name"] = md.Name
	}
	if md.Variant != "" {
		out["variant"] = md.Variant
	}
	if md.Version != "" {
		out["version"] = md.Version
	}
	if md.Description != "" {
		out["description"] = md.Description
	}
	if md.Model != "" {
		out["model"] = md.Model
	}
	if len(md.Tools) > 0 {
		out["tools"] = md.Tools
	}
	if len(md.ToolDefs) > 0 {
		defs := make([]map[string]any, 0, len(md.ToolDefs))
		for _, td := range md.ToolDefs {
			defs = append(defs, toolDefToMap(td))
		}
		out["toolDefs"] = defs
	}
	if md.Config != nil {
		out["config"] = md.Config
	}
	if md.Output != nil {
		output := map[string]any{}
		if md.Output.Format != "" {
			output["format"] = md.Output.Format
		}
		if md.Output.Schema != nil {
			output["schema"] = md.Output.Schema
		}
		out["output"] = output
	}
	if len(md.Ext) > 0 {
		out["ext"] = md.Ext
	}
	if md.Metadata != nil {
		out["metadata"] = md.Metadata
	}
	return out
}

func toolDefToMap(td ToolDefinition) map[string]any {
	out := map[string]any{"name": td.Name}
	if td.Description != "" {
		out["description"] = td.Description
	}
	if td.InputSchema != nil {
		out["inputSchema"] = td.InputSchema
	}
	if td.OutputSchema != nil {
		out["outputSchema"] = td.OutputSchema
	}
	return out
}
