package dotprompt

import (
	"regexp"
	"strings"
)

// roleHistoryRe finds role:<name> and history markers, keeping the opening
// delimiter and everything up to (but not including) the closing ">>>" as
// the captured group. Uppercase role names are deliberately not matched and
// pass through as literal text.
var roleHistoryRe = regexp.MustCompile(`(<<<dotprompt:(?:role:[a-z]+|history))>>>`)

// mediaSectionRe finds media:url and section markers the same way.
var mediaSectionRe = regexp.MustCompile(`(<<<dotprompt:(?:media:url|section).*?)>>>`)

const (
	rolePrefix     = "<<<dotprompt:role:"
	historyMarker  = "<<<dotprompt:history"
	mediaPrefix    = "<<<dotprompt:media:url"
	sectionPrefix  = "<<<dotprompt:section"
	historyPurpose = "history"
)

// splitByRegex splits source on a pattern with exactly one capturing group:
// the result alternates unmatched text and captured matches, in source
// order, with whitespace-only pieces dropped.
func splitByRegex(source string, re *regexp.Regexp) []string {
	var pieces []string
	lastEnd := 0
	for _, m := range re.FindAllStringSubmatchIndex(source, -1) {
		fullStart, fullEnd := m[0], m[1]
		capStart, capEnd := m[2], m[3]
		if fullStart > lastEnd {
			pieces = append(pieces, source[lastEnd:fullStart])
		}
		pieces = append(pieces, source[capStart:capEnd])
		lastEnd = fullEnd
	}
	if lastEnd < len(source) {
		pieces = append(pieces, source[lastEnd:])
	}
	out := pieces[:0:0]
	for _, p := range pieces {
		if strings.TrimSpace(p) != "" {
			out = append(out, p)
		}
	}
	return out
}
