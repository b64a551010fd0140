package dotprompt

import (
	"fmt"
	"strings"
)

// messageSource is the accumulator used while walking the role/history
// split: either raw, not-yet-typed source text (the common case) or an
// already-typed set of parts spliced in directly from history.
type messageSource struct {
	role     Role
	source   strings.Builder
	parts    []Part // non-nil only for spliced history entries
	metadata map[string]any
}

// ToMessages parses rendered into an ordered list of messages: a
// role/history marker pass builds a list of message sources, each is then
// typed into parts, and history is spliced in either at the {{history}}
// marker (if present) or via the post-pass. The post-pass always runs and
// is a no-op when the marker pass already spliced history in.
func ToMessages[V any](rendered string, data DataArgument[V]) ([]Message, error) {
	current := &messageSource{role: RoleUser}
	sources := []*messageSource{current}

	for _, piece := range splitByRegex(rendered, roleHistoryRe) {
		switch {
		case strings.HasPrefix(piece, rolePrefix):
			roleName := strings.TrimPrefix(piece, rolePrefix)
			if strings.TrimSpace(current.source.String()) != "" {
				current = &messageSource{role: Role(roleName)}
				sources = append(sources, current)
			} else {
				current.role = Role(roleName)
			}
		case piece == historyMarker:
			for _, h := range withHistoryPurpose(data.Messages) {
				sources = append(sources, &messageSource{role: h.Role, parts: h.Content, metadata: h.Metadata})
			}
			current = &messageSource{role: RoleModel}
			sources = append(sources, current)
		default:
			current.source.WriteString(piece)
		}
	}

	messages, err := sourcesToMessages(sources)
	if err != nil {
		return nil, err
	}
	return insertHistory(messages, data.Messages), nil
}

// sourcesToMessages types each messageSource into a Message, dropping any
// whose resulting Content is empty: a Message must have at least one Part.
func sourcesToMessages(sources []*messageSource) ([]Message, error) {
	out := make([]Message, 0, len(sources))
	for _, s := range sources {
		parts := s.parts
		if parts == nil {
			p, err := toParts(s.source.String())
			if err != nil {
				return nil, err
			}
			parts = p
		}
		if len(parts) == 0 {
			continue
		}
		out = append(out, Message{Role: s.role, Content: parts, Metadata: s.metadata})
	}
	return out, nil
}

// toParts splits source on the media/section marker pattern and types each
// resulting piece.
func toParts(source string) ([]Part, error) {
	pieces := splitByRegex(source, mediaSectionRe)
	parts := make([]Part, 0, len(pieces))
	for _, piece := range pieces {
		part, err := parsePart(piece)
		if err != nil {
			return nil, err
		}
		parts = append(parts, part)
	}
	return parts, nil
}

func parsePart(piece string) (Part, error) {
	switch {
	case strings.HasPrefix(piece, mediaPrefix):
		return parseMediaPart(piece)
	case strings.HasPrefix(piece, sectionPrefix):
		return parseSectionPart(piece)
	default:
		return TextPart{Text: piece}, nil
	}
}

func parseMediaPart(piece string) (Part, error) {
	fields := strings.Fields(piece)
	switch len(fields) {
	case 2:
		return MediaPart{URL: fields[1]}, nil
	case 3:
		return MediaPart{URL: fields[1], ContentType: fields[2]}, nil
	default:
		return nil, fmt.Errorf("%w: invalid media piece %q", ErrInvalidMarker, piece)
	}
}

func parseSectionPart(piece string) (Part, error) {
	fields := strings.Fields(piece)
	if len(fields) != 2 {
		return nil, fmt.Errorf("%w: invalid section piece %q", ErrInvalidMarker, piece)
	}
	return PendingPart{
		Purpose:  fields[1],
		Metadata: map[string]any{"pending": true, "purpose": fields[1]},
	}, nil
}

// withHistoryPurpose returns a copy of history with metadata["purpose"] =
// "history" added to each message, without mutating the originals.
func withHistoryPurpose(history []Message) []Message {
	out := make([]Message, len(history))
	for i, m := range history {
		md := make(map[string]any, len(m.Metadata)+1)
		for k, v := range m.Metadata {
			md[k] = v
		}
		md["purpose"] = historyPurpose
		out[i] = Message{Role: m.Role, Content: m.Content, Metadata: md}
	}
	return out
}

// insertHistory is the history post-pass. It is always invoked, and is a
// no-op whenever messages already carries a purpose:"history" entry (because
// the {{history}} marker already spliced it in during ToMessages) or history
// is empty.
func insertHistory(messages []Message, history []Message) []Message {
	if len(history) == 0 || hasHistoryPurpose(messages) {
		return messages
	}
	if len(messages) == 0 {
		return history
	}

	tagged := withHistoryPurpose(history)
	last := messages[len(messages)-1]
	if last.Role == RoleUser {
		out := make([]Message, 0, len(messages)+len(tagged))
		out = append(out, messages[:len(messages)-1]...)
		out = append(out, tagged...)
		out = append(out, last)
		return out
	}
	out := make([]Message, 0, len(messages)+len(tagged))
	out = append(out, messages...)
	out = append(out, tagged...)
	return out
}

func hasHistoryPurpose(messages []Message) bool {
	for _, m := range messages {
		if m.Metadata != nil && m.Metadata["purpose"] == historyPurpose {
			return true
		}
	}
	return false
}
