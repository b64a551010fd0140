package dotprompt

import (
	"log/slog"
	"strings"

	"gopkg.in/yaml.v3"
)

// frontmatterDelim is the line that opens and closes the YAML block.
const frontmatterDelim = "---"

// Parse splits source into frontmatter and template body and normalizes the
// frontmatter into a typed PromptMetadata. Parse never fails: a
// missing or malformed frontmatter block degrades to a metadata-less
// ParsedPrompt whose template is the source (unchanged when the block is
// missing, trimmed when its YAML is malformed).
func Parse(source string) ParsedPrompt[map[string]any] {
	fm, body, ok := splitFrontmatter(source)
	if !ok {
		return ParsedPrompt[map[string]any]{
			Template: source,
			PromptMetadata: PromptMetadata[map[string]any]{
				Ext: map[string]map[string]any{},
			},
		}
	}

	var raw map[string]any
	if err := yaml.Unmarshal([]byte(fm), &raw); err != nil {
		slog.Warn("dotprompt: frontmatter parse failed, degrading to template-only", "error", err)
		return ParsedPrompt[map[string]any]{
			Template: strings.TrimSpace(source),
			PromptMetadata: PromptMetadata[map[string]any]{
				Ext: map[string]map[string]any{},
			},
		}
	}
	if raw == nil {
		raw = map[string]any{}
	}

	md := PromptMetadata[map[string]any]{
		Ext: map[string]map[string]any{},
		Raw: raw,
	}

	for key, value := range raw {
		if ns, field, dotted := splitNamespacedKey(key); dotted && !isReservedKey(key) {
			routeExtEntry(md.Ext, ns, field, value)
			continue
		}
		if !isReservedKey(key) {
			continue
		}
		applyReservedField(&md, key, value)
	}

	return ParsedPrompt[map[string]any]{
		Template:       strings.TrimSpace(body),
		PromptMetadata: md,
	}
}

// splitFrontmatter matches the leading "---\n...\n---\n" delimiter exactly.
// ok is false when the source does not open with the delimiter, in which
// case the caller treats the entire source as template.
func splitFrontmatter(source string) (frontmatter, body string, ok bool) {
	rest, hasOpen := strings.CutPrefix(source, frontmatterDelim+"\n")
	if !hasOpen {
		return "", "", false
	}
	idx := indexClosingDelim(rest)
	if idx < 0 {
		return "", "", false
	}
	return rest[:idx], rest[idx+len(frontmatterDelim)+1:], true
}

// indexClosingDelim finds the offset of a "---\n" line (preceded by "\n" or
// at the very start of rest) that closes the frontmatter block.
func indexClosingDelim(rest string) int {
	search := rest
	offset := 0
	for {
		i := strings.Index(search, frontmatterDelim+"\n")
		if i < 0 {
			return -1
		}
		abs := offset + i
		if abs == 0 || search[i-1] == '\n' {
			return abs
		}
		offset = abs + 1
		search = rest[offset:]
	}
}

// applyReservedField routes a single reserved frontmatter key into its
// typed PromptMetadata field. Values of the wrong shape are ignored rather
// than raising, consistent with the parser's total-function contract.
func applyReservedField(md *PromptMetadata[map[string]any], key string, value any) {
	switch key {
	case "name":
		if s, ok := value.(string); ok {
			md.Name = s
		}
	case "variant":
		if s, ok := value.(string); ok {
			md.Variant = s
		}
	case "version":
		if s, ok := value.(string); ok {
			md.Version = s
		}
	case "description":
		if s, ok := value.(string); ok {
			md.Description = s
		}
	case "model":
		if s, ok := value.(string); ok {
			md.Model = s
		}
	case "tools":
		md.Tools = toStringSlice(value)
	case "toolDefs":
		md.ToolDefs = toToolDefs(value)
	case "config":
		if m, ok := value.(map[string]any); ok {
			md.Config = m
		}
	case "input":
		md.Input = toInputConfig(value)
	case "output":
		md.Output = toOutputConfig(value)
	case "ext":
		// Passed through: ext as a reserved key is preserved verbatim in Raw
		// only. Namespaced routing is driven by dotted keys, not this one.
	case "raw":
		// raw is populated from the whole frontmatter, never from a literal
		// "raw:" entry inside it.
	}
}

func toStringSlice(value any) []string {
	list, ok := value.([]any)
	if !ok {
		return nil
	}
	out := make([]string, 0, len(list))
	for _, v := range list {
		if s, ok := v.(string); ok {
			out = append(out, s)
		}
	}
	return out
}

func toToolDefs(value any) []ToolDefinition {
	list, ok := value.([]any)
	if !ok {
		return nil
	}
	out := make([]ToolDefinition, 0, len(list))
	for _, v := range list {
		m, ok := v.(map[string]any)
		if !ok {
			continue
		}
		td := ToolDefinition{}
		if s, ok := m["name"].(string); ok {
			td.Name = s
		}
		if s, ok := m["description"].(string); ok {
			td.Description = s
		}
		if s, ok := m["inputSchema"].(map[string]any); ok {
			td.InputSchema = s
		}
		if s, ok := m["outputSchema"].(map[string]any); ok {
			td.OutputSchema = s
		}
		out = append(out, td)
	}
	return out
}

func toInputConfig(value any) *PromptInputConfig {
	m, ok := value.(map[string]any)
	if !ok {
		return nil
	}
	cfg := &PromptInputConfig{}
	if d, ok := m["default"].(map[string]any); ok {
		cfg.Default = d
	}
	if s, ok := m["schema"]; ok {
		cfg.Schema = s
	}
	return cfg
}

func toOutputConfig(value any) *PromptOutputConfig {
	m, ok := value.(map[string]any)
	if !ok {
		return nil
	}
	cfg := &PromptOutputConfig{}
	if s, ok := m["format"].(string); ok {
		cfg.Format = s
	}
	if s, ok := m["schema"]; ok {
		cfg.Schema = s
	}
	return cfg
}
