package dotprompt

import "strings"

// reservedKeys is the closed set of frontmatter keys that populate the typed
// fields of PromptMetadata directly. Every other key either gets routed
// to ext (if dotted) or survives only in Raw.
var reservedKeys = map[string]bool{
	"config":      true,
	"description": true,
	"ext":         true,
	"input":       true,
	"model":       true,
	"name":        true,
	"output":      true,
	"raw":         true,
	"toolDefs":    true,
	"tools":       true,
	"variant":     true,
	"version":     true,
}

// isReservedKey reports whether key is in the closed reserved-key set.
func isReservedKey(key string) bool {
	return reservedKeys[key]
}

// splitNamespacedKey splits a dotted frontmatter key on its *last* dot,
// returning (namespace, field, ok). ok is false if key contains no dot, in
// which case the key is not namespaced.
func splitNamespacedKey(key string) (ns, field string, ok bool) {
	i := strings.LastIndexByte(key, '.')
	if i < 0 {
		return "", "", false
	}
	return key[:i], key[i+1:], true
}

// routeExtEntry stores value at ext[ns][field], creating the namespace
// bucket on demand. Only one level of nesting is ever produced.
func routeExtEntry(ext map[string]map[string]any, ns, field string, value any) {
	bucket, ok := ext[ns]
	if !ok {
		bucket = map[string]any{}
		ext[ns] = bucket
	}
	bucket[field] = value
}
