// Package picoschema compiles the compact Picoschema surface syntax into
// JSON Schema, resolving named schema references through a caller-supplied
// SchemaResolver.
//
// The compiler targets an untyped map[string]any rather than a nominal
// schema struct: JSON Schema here is a structural value that round-trips
// through YAML frontmatter and encoding/json unchanged.
package picoschema

import (
	"fmt"
	"strings"
)

// JSONSchema mirrors dotprompt.JSONSchema (an untyped recursive JSON value)
// without importing the root package, to keep this package leaf-level.
type JSONSchema = map[string]any

// SchemaResolver looks up a named schema. ok is false when the name is
// unknown; it is never asked about the scalar type names (string, boolean,
// null, number, integer, any).
type SchemaResolver func(name string) (schema JSONSchema, ok bool)

// scalarTypes is the closed set of Picoschema/JSON-Schema scalar type names.
var scalarTypes = map[string]bool{
	"string":  true,
	"boolean": true,
	"null":    true,
	"number":  true,
	"integer": true,
	"any":     true,
}

// wildcardProperty is the Picoschema key that declares additionalProperties.
const wildcardProperty = "(*)"

// Error reports a Picoschema compilation failure: an unknown scalar type
// with no resolver configured, a named type the resolver could not find, an
// invalid parenthetical kind, or a node that is neither a string nor a
// mapping.
type Error struct {
	Path   string
	Reason string
}

func (e *Error) Error() string {
	if e.Path == "" {
		return fmt.Sprintf("picoschema: %s", e.Reason)
	}
	return fmt.Sprintf("picoschema: %s: %s", e.Path, e.Reason)
}

// Compile transforms schema into a JSON Schema. schema may be nil (returns
// nil), a string (scalar shorthand or named reference), or a mapping that is
// either already JSON Schema or Picoschema.
func Compile(schema any, resolver SchemaResolver) (JSONSchema, error) {
	return (&parser{resolver: resolver}).parse(schema, nil)
}

type parser struct {
	resolver SchemaResolver
}

// mustResolveSchema resolves a named type: no resolver configured fails
// with "unsupported scalar type"; a resolver miss fails with "could not
// find schema".
func (p *parser) mustResolveSchema(name string, path []string) (JSONSchema, error) {
	if p.resolver == nil {
		return nil, &Error{Path: pathString(path), Reason: fmt.Sprintf("unsupported scalar type %q", name)}
	}
	resolved, ok := p.resolver(name)
	if !ok {
		return nil, &Error{Path: pathString(path), Reason: fmt.Sprintf("could not find schema with name %q", name)}
	}
	return resolved, nil
}

// parse is the top-level entry: it detects whether schema is already JSON
// Schema (a bare `type` or a `properties` map) before falling through to
// the Picoschema object-form compiler.
func (p *parser) parse(schema any, path []string) (JSONSchema, error) {
	if schema == nil {
		return nil, nil
	}

	if s, ok := schema.(string); ok {
		if s == "" {
			return nil, nil
		}
		return p.parseScalarNode(s, path)
	}

	if m, ok := schema.(map[string]any); ok {
		if typeName, ok := m["type"].(string); ok && (scalarTypes[typeName] || typeName == "object" || typeName == "array") {
			return m, nil
		}
		if _, ok := m["properties"].(map[string]any); ok {
			out := make(JSONSchema, len(m)+1)
			for k, v := range m {
				out[k] = v
			}
			out["type"] = "object"
			return out, nil
		}
		return p.parsePico(m, path)
	}

	return nil, &Error{Path: pathString(path), Reason: fmt.Sprintf("only consists of objects and strings, got %T", schema)}
}

// parsePico compiles one Picoschema object-form node: a mapping of
// "<name>[?][(<kind>[, <description>])]" keys to nested schema values.
func (p *parser) parsePico(obj any, path []string) (JSONSchema, error) {
	if s, ok := obj.(string); ok {
		return p.parseScalarNode(s, path)
	}
	m, ok := obj.(map[string]any)
	if !ok {
		return nil, &Error{Path: pathString(path), Reason: fmt.Sprintf("only consists of objects and strings, got %T", obj)}
	}

	properties := map[string]any{}
	var required []string
	additionalProperties := any(false)

	for key, value := range m {
		if key == wildcardProperty {
			compiled, err := p.parsePico(value, append(path, key))
			if err != nil {
				return nil, err
			}
			additionalProperties = compiled
			continue
		}

		name, kind := splitKindAnnotation(key)
		optional := strings.HasSuffix(name, "?")
		propertyName := strings.TrimSuffix(name, "?")
		if !optional {
			required = append(required, propertyName)
		}

		prop, err := p.compileProperty(kind, value, optional, append(path, key))
		if err != nil {
			return nil, err
		}
		properties[propertyName] = prop
	}

	out := JSONSchema{
		"type":                 "object",
		"properties":           properties,
		"additionalProperties": additionalProperties,
	}
	if len(required) > 0 {
		out["required"] = required
	}
	return out, nil
}

// parseScalarNode handles a bare string leaf inside object-form Picoschema
// (a property value with no nested mapping, e.g. "name: string").
func (p *parser) parseScalarNode(s string, path []string) (JSONSchema, error) {
	typeName, description := extractDescription(s)
	if !scalarTypes[typeName] {
		resolved, err := p.mustResolveSchema(typeName, path)
		if err != nil {
			return nil, err
		}
		if description != "" {
			return withDescription(resolved, description), nil
		}
		return resolved, nil
	}
	if typeName == "any" {
		if description != "" {
			return JSONSchema{"description": description}, nil
		}
		return JSONSchema{}, nil
	}
	out := JSONSchema{"type": typeName}
	if description != "" {
		out["description"] = description
	}
	return out, nil
}

// compileProperty compiles one property's value given its parenthetical
// kind (possibly empty) and optionality.
func (p *parser) compileProperty(kind string, value any, optional bool, path []string) (JSONSchema, error) {
	if kind == "" {
		prop, err := p.parsePico(value, path)
		if err != nil {
			return nil, err
		}
		if optional {
			widenOptional(prop)
		}
		return prop, nil
	}

	kindName, description := extractDescription(kind)
	var prop JSONSchema
	switch kindName {
	case "array":
		items, err := p.parsePico(value, path)
		if err != nil {
			return nil, err
		}
		prop = JSONSchema{"items": items}
		if optional {
			prop["type"] = []any{"array", "null"}
		} else {
			prop["type"] = "array"
		}
	case "object":
		compiled, err := p.parsePico(value, path)
		if err != nil {
			return nil, err
		}
		prop = compiled
		if optional {
			widenOptional(prop)
		}
	case "enum":
		values := toEnumList(value)
		if optional && !containsNil(values) {
			values = append(values, nil)
		}
		prop = JSONSchema{"enum": values}
	default:
		return nil, &Error{Path: pathString(path), Reason: fmt.Sprintf("parenthetical types must be 'object' or 'array', got %q", kindName)}
	}

	if description != "" {
		prop["description"] = description
	}
	return prop, nil
}

// widenOptional turns a schema's single string "type" (scalar or "object")
// into the two-element array form [<type>, "null"] used for optional
// properties; a schema without a string "type" is left unchanged.
func widenOptional(prop JSONSchema) {
	t, ok := prop["type"].(string)
	if !ok {
		return
	}
	prop["type"] = []any{t, "null"}
}

func withDescription(schema JSONSchema, description string) JSONSchema {
	out := make(JSONSchema, len(schema)+1)
	for k, v := range schema {
		out[k] = v
	}
	out["description"] = description
	return out
}

func toEnumList(value any) []any {
	list, ok := value.([]any)
	if !ok {
		return nil
	}
	out := make([]any, len(list))
	copy(out, list)
	return out
}

func containsNil(values []any) bool {
	for _, v := range values {
		if v == nil {
			return true
		}
	}
	return false
}

// splitKindAnnotation splits "<name>(<kind info>)" on the first '('; a key
// with no '(' has no annotation.
func splitKindAnnotation(key string) (name, kind string) {
	i := strings.IndexByte(key, '(')
	if i < 0 {
		return key, ""
	}
	return key[:i], strings.TrimSuffix(key[i+1:], ")")
}

// extractDescription splits "<type>, <description>" on the first comma.
func extractDescription(s string) (typeName, description string) {
	i := strings.IndexByte(s, ',')
	if i < 0 {
		return s, ""
	}
	return strings.TrimSpace(s[:i]), strings.TrimSpace(s[i+1:])
}

func pathString(path []string) string {
	return strings.Join(path, ".")
}
