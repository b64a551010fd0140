package dotprompt

import (
	"context"
	"errors"

	"golang.org/x/sync/errgroup"

	"github.com/dotprompt-go/dotprompt/picoschema"
)

// ResolverConfig is the process-scoped, read-mostly configuration the
// metadata resolver consults: the static tool/schema mappings plus the
// pluggable resolvers that back them, and the per-model default configs
// (the lowest-precedence metadata layer). The compiling façade owns it and
// passes it in per resolution; the resolver never mutates it.
type ResolverConfig struct {
	Tools          map[string]ToolDefinition
	ToolResolver   any // ToolResolverFunc
	Schemas        map[string]any
	SchemaResolver any // SchemaResolverFunc
	ModelConfigs   map[string]map[string]any
	DefaultModel   string
}

// ResolveMetadata merges layered metadata (defaults, then document, then
// call-site override) and resolves named tools and schemas concurrently.
// override may be nil.
func ResolveMetadata(
	ctx context.Context,
	cfg ResolverConfig,
	parsed PromptMetadata[map[string]any],
	override *PromptMetadata[map[string]any],
) (PromptMetadata[map[string]any], error) {
	layers := make([]PromptMetadata[map[string]any], 0, 3)
	if defaults, ok := cfg.defaultConfigFor(parsed, override); ok {
		layers = append(layers, PromptMetadata[map[string]any]{Config: defaults})
	}
	layers = append(layers, parsed)
	if override != nil {
		layers = append(layers, *override)
	}

	merged := layers[0]
	for _, layer := range layers[1:] {
		merged = mergeMetadataLayer(merged, layer)
	}
	if merged.Model == "" {
		merged.Model = cfg.DefaultModel
	}

	if err := resolveToolsStep(&merged, cfg); err != nil {
		return PromptMetadata[map[string]any]{}, err
	}
	if err := resolveSchemasStep(ctx, &merged, cfg); err != nil {
		return PromptMetadata[map[string]any]{}, err
	}

	pruneMetadataNulls(&merged)
	return merged, nil
}

// defaultConfigFor looks up the per-model default config,
// preferring the override's model id over the parsed document's.
func (cfg ResolverConfig) defaultConfigFor(parsed PromptMetadata[map[string]any], override *PromptMetadata[map[string]any]) (map[string]any, bool) {
	if cfg.ModelConfigs == nil {
		return nil, false
	}
	model := parsed.Model
	if override != nil && override.Model != "" {
		model = override.Model
	}
	if model == "" {
		model = cfg.DefaultModel
	}
	if model == "" {
		return nil, false
	}
	defaults, ok := cfg.ModelConfigs[model]
	return defaults, ok
}

// mergeMetadataLayer applies one pair-wise merge step: incoming overrides
// base field-by-field when non-null, config deep-merges one level, and list
// fields are replaced rather than concatenated.
func mergeMetadataLayer(base, incoming PromptMetadata[map[string]any]) PromptMetadata[map[string]any] {
	out := base
	if incoming.Name != "" {
		out.Name = incoming.Name
	}
	if incoming.Variant != "" {
		out.Variant = incoming.Variant
	}
	if incoming.Version != "" {
		out.Version = incoming.Version
	}
	if incoming.Description != "" {
		out.Description = incoming.Description
	}
	if incoming.Model != "" {
		out.Model = incoming.Model
	}
	if incoming.Tools != nil {
		out.Tools = incoming.Tools
	}
	if incoming.ToolDefs != nil {
		out.ToolDefs = incoming.ToolDefs
	}
	if incoming.Config != nil {
		out.Config = deepMergeOneLevel(out.Config, incoming.Config)
	}
	if incoming.Input != nil {
		out.Input = incoming.Input
	}
	if incoming.Output != nil {
		out.Output = incoming.Output
	}
	if incoming.Raw != nil {
		out.Raw = incoming.Raw
	}
	if incoming.Ext != nil {
		out.Ext = incoming.Ext
	}
	if incoming.Metadata != nil {
		out.Metadata = incoming.Metadata
	}
	return out
}

// deepMergeOneLevel merges incoming into base at exactly one level; scalar
// collisions favor incoming.
func deepMergeOneLevel(base, incoming map[string]any) map[string]any {
	out := make(map[string]any, len(base)+len(incoming))
	for k, v := range base {
		out[k] = v
	}
	for k, v := range incoming {
		out[k] = v
	}
	return out
}

// resolveToolsStep resolves tool names: static mapping first, then a
// configured ToolResolver, then the name is left unregistered. Resolver
// invocations fan out concurrently via errgroup; each goroutine writes to
// its own result slot so no shared slice is mutated concurrently.
func resolveToolsStep(merged *PromptMetadata[map[string]any], cfg ResolverConfig) error {
	if len(merged.Tools) == 0 {
		return nil
	}

	var residual []string
	var toResolve []string
	for _, name := range merged.Tools {
		switch {
		case cfg.Tools != nil:
			if def, ok := cfg.Tools[name]; ok {
				merged.ToolDefs = append(merged.ToolDefs, def)
				continue
			}
			fallthrough
		default:
			if cfg.ToolResolver != nil {
				toResolve = append(toResolve, name)
			} else {
				residual = append(residual, name)
			}
		}
	}

	if len(toResolve) > 0 {
		resolved := make([]*ToolDefinition, len(toResolve))
		var g errgroup.Group
		for i, name := range toResolve {
			g.Go(func() error {
				def, err := resolveTool(name, cfg.ToolResolver)
				if err != nil {
					var nf *NotFoundError
					if errors.As(err, &nf) {
						// Unknown to the resolver as well: the name stays in
						// the unregistered residue rather than erroring.
						return nil
					}
					return err
				}
				resolved[i] = def
				return nil
			})
		}
		if err := g.Wait(); err != nil {
			return err
		}
		for i, def := range resolved {
			if def == nil {
				residual = append(residual, toResolve[i])
				continue
			}
			merged.ToolDefs = append(merged.ToolDefs, *def)
		}
	}

	merged.Tools = residual
	return nil
}

// resolveSchemasStep compiles merged.Input.Schema and merged.Output.Schema
// through Picoschema in parallel, each consulting the static schema map
// then the SchemaResolver.
func resolveSchemasStep(ctx context.Context, merged *PromptMetadata[map[string]any], cfg ResolverConfig) error {
	var g errgroup.Group
	_ = ctx // resolvers take no context, so nothing here observes cancellation.

	// Copy the config structs before mutating: the merge shares pointers
	// with the caller's ParsedPrompt, which must stay immutable so a
	// compiled PromptFunction can render concurrently.
	if merged.Input != nil {
		input := *merged.Input
		merged.Input = &input
	}
	if merged.Output != nil {
		output := *merged.Output
		merged.Output = &output
	}

	if merged.Input != nil && merged.Input.Schema != nil {
		g.Go(func() error {
			compiled, err := compileSchemaField(merged.Input.Schema, cfg)
			if err != nil {
				return err
			}
			merged.Input.Schema = compiled
			return nil
		})
	}
	if merged.Output != nil && merged.Output.Schema != nil {
		g.Go(func() error {
			compiled, err := compileSchemaField(merged.Output.Schema, cfg)
			if err != nil {
				return err
			}
			merged.Output.Schema = compiled
			return nil
		})
	}
	return g.Wait()
}

// compileSchemaField builds an independent resolver closure (so concurrent
// input/output compilation never shares mutable state) and delegates to
// picoschema.Compile.
func compileSchemaField(schema any, cfg ResolverConfig) (JSONSchema, error) {
	var resolveErr error
	lookup := func(name string) (picoschema.JSONSchema, bool) {
		if cfg.Schemas != nil {
			if s, ok := cfg.Schemas[name]; ok {
				if m, ok := s.(map[string]any); ok {
					return m, true
				}
			}
		}
		if cfg.SchemaResolver == nil {
			return nil, false
		}
		val, err := resolveSchema(name, cfg.SchemaResolver)
		if err != nil {
			resolveErr = err
			return nil, false
		}
		m, ok := val.(map[string]any)
		return m, ok
	}

	compiled, err := picoschema.Compile(schema, lookup)
	if resolveErr != nil {
		return nil, resolveErr
	}
	if err != nil {
		var pe *picoschema.Error
		if errors.As(err, &pe) {
			return nil, &PicoschemaError{Path: pe.Path, Reason: pe.Reason}
		}
		return nil, err
	}
	return compiled, nil
}

// pruneMetadataNulls drops null-valued map entries (recursively) from the
// merge-able free-form fields after the merge completes. Compiled
// schemas are deliberately excluded: a JSON Schema's own "null" entries
// (e.g. a ["string","null"] type array) are data, not merge artifacts.
func pruneMetadataNulls(merged *PromptMetadata[map[string]any]) {
	merged.Config = pruneNullMap(merged.Config)
	merged.Raw = pruneNullMap(merged.Raw)
	merged.Metadata = pruneNullMap(merged.Metadata)
	if merged.Ext != nil {
		// Reassign rather than prune in place: the map is shared with the
		// caller's ParsedPrompt, like the fields above.
		ext := make(map[string]map[string]any, len(merged.Ext))
		for ns, fields := range merged.Ext {
			ext[ns] = pruneNullMap(fields)
		}
		merged.Ext = ext
	}
	if merged.Input != nil && merged.Input.Default != nil {
		merged.Input.Default = pruneNullMap(merged.Input.Default)
	}
}

func pruneNullMap(m map[string]any) map[string]any {
	if m == nil {
		return nil
	}
	out := make(map[string]any, len(m))
	for k, v := range m {
		pv := pruneValue(v)
		if pv == nil {
			continue
		}
		out[k] = pv
	}
	return out
}

func pruneValue(v any) any {
	switch t := v.(type) {
	case nil:
		return nil
	case map[string]any:
		return pruneNullMap(t)
	case []any:
		out := make([]any, 0, len(t))
		for _, item := range t {
			if item == nil {
				continue
			}
			out = append(out, pruneValue(item))
		}
		return out
	default:
		return v
	}
}
