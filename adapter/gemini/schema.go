package gemini

import (
	"fmt"

	"google.golang.org/genai"
)

// mapToGenaiSchema converts a JSON Schema map to genai.Schema, handling
// type, properties, items, required, enum, and description. Recursive for
// nested objects and arrays.
func mapToGenaiSchema(m map[string]any) (*genai.Schema, error) {
	if m == nil {
		return nil, nil
	}
	s := &genai.Schema{}
	switch t := m["type"].(type) {
	case string:
		s.Type = jsonSchemaTypeToGenai(t)
	case []any:
		// Optional-property widening produces [<type>, "null"]; Gemini
		// expresses that as a nullable single type.
		for _, v := range t {
			name, ok := v.(string)
			if !ok {
				continue
			}
			if name == "null" {
				nullable := true
				s.Nullable = &nullable
				continue
			}
			s.Type = jsonSchemaTypeToGenai(name)
		}
	}
	if p, ok := m["properties"].(map[string]any); ok {
		s.Properties = make(map[string]*genai.Schema)
		for k, v := range p {
			sub, ok := v.(map[string]any)
			if !ok {
				continue
			}
			conv, err := mapToGenaiSchema(sub)
			if err != nil {
				return nil, fmt.Errorf("property %q: %w", k, err)
			}
			if conv != nil {
				s.Properties[k] = conv
			}
		}
	}
	if r, ok := m["required"].([]any); ok {
		required := make([]string, 0, len(r))
		for _, x := range r {
			if str, ok := x.(string); ok {
				required = append(required, str)
			}
		}
		s.Required = required
	} else if r, ok := m["required"].([]string); ok {
		s.Required = r
	}
	if items, ok := m["items"].(map[string]any); ok {
		conv, err := mapToGenaiSchema(items)
		if err != nil {
			return nil, fmt.Errorf("items: %w", err)
		}
		if conv != nil {
			s.Items = conv
		}
	}
	if values, ok := m["enum"].([]any); ok {
		for _, v := range values {
			if str, ok := v.(string); ok {
				s.Enum = append(s.Enum, str)
			}
		}
		if s.Type == "" || s.Type == genai.TypeUnspecified {
			s.Type = genai.TypeString
		}
	}
	if desc, ok := m["description"].(string); ok {
		s.Description = desc
	}
	return s, nil
}

func jsonSchemaTypeToGenai(t string) genai.Type {
	switch t {
	case "string":
		return genai.TypeString
	case "number":
		return genai.TypeNumber
	case "integer":
		return genai.TypeInteger
	case "boolean":
		return genai.TypeBoolean
	case "array":
		return genai.TypeArray
	case "object":
		return genai.TypeObject
	default:
		return genai.TypeUnspecified
	}
}
