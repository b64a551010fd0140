package dotprompt

import "fmt"

// ToolResolverFunc resolves a tool name to its definition. A nil, non-error
// return means "not found".
type ToolResolverFunc func(name string) (*ToolDefinition, error)

// SchemaResolverFunc resolves a named schema reference. A nil, non-error
// return means "not found".
type SchemaResolverFunc func(name string) (any, error)

// PartialResolverFunc resolves a partial name to its template source. A
// nil, non-error return means "not found".
type PartialResolverFunc func(name string) (*string, error)

// callResolver implements the uniform resolver contract for a single
// invocation: a nil binding fails with ErrNotConfigured, a binding of the
// wrong dynamic type fails with ErrNotCallable (reachable when a resolver
// is wired through the `any`-typed configuration surface rather than the
// typed Func constructors), a panic or error
// from the callable is wrapped in a ResolverFailedError, and the typed call
// itself is left to the caller — this helper only normalizes failure modes
// common to all three resolver kinds.
func callResolver[F any](kind ResolverKind, name string, resolver any, call func(F) (bool, error)) error {
	if resolver == nil {
		return fmt.Errorf("%w: %s %q", ErrNotConfigured, kind, name)
	}
	fn, ok := resolver.(F)
	if !ok {
		return fmt.Errorf("%w: %s %q", ErrNotCallable, kind, name)
	}

	found, err := invokeSafely(fn, call)
	if err != nil {
		return &ResolverFailedError{Name: name, Kind: kind, Reason: err}
	}
	if !found {
		return &NotFoundError{Name: name, Kind: kind}
	}
	return nil
}

// invokeSafely recovers a panic raised inside call, turning it into an
// error so the caller can wrap it uniformly as a ResolverFailedError.
func invokeSafely[F any](fn F, call func(F) (bool, error)) (found bool, err error) {
	defer func() {
		if r := recover(); r != nil {
			found, err = false, fmt.Errorf("panic: %v", r)
		}
	}()
	return call(fn)
}

// resolveTool invokes resolver for name, reporting the definition on
// success. resolver is typically a ToolResolverFunc but is accepted as `any`
// per callResolver's contract.
func resolveTool(name string, resolver any) (*ToolDefinition, error) {
	var out *ToolDefinition
	err := callResolver[ToolResolverFunc](KindTool, name, resolver, func(fn ToolResolverFunc) (bool, error) {
		def, err := fn(name)
		if err != nil {
			return false, err
		}
		if def == nil {
			return false, nil
		}
		out = def
		return true, nil
	})
	return out, err
}

// resolveSchema invokes resolver for name, reporting the raw (pre-Picoschema)
// schema value on success.
func resolveSchema(name string, resolver any) (any, error) {
	var out any
	err := callResolver[SchemaResolverFunc](KindSchema, name, resolver, func(fn SchemaResolverFunc) (bool, error) {
		schema, err := fn(name)
		if err != nil {
			return false, err
		}
		if schema == nil {
			return false, nil
		}
		out = schema
		return true, nil
	})
	return out, err
}

// resolvePartial invokes resolver for name, reporting the partial's source
// text on success.
func resolvePartial(name string, resolver any) (string, error) {
	var out string
	err := callResolver[PartialResolverFunc](KindPartial, name, resolver, func(fn PartialResolverFunc) (bool, error) {
		source, err := fn(name)
		if err != nil {
			return false, err
		}
		if source == nil {
			return false, nil
		}
		out = *source
		return true, nil
	})
	return out, err
}
