// Package anthropic translates a rendered prompt into Anthropic Messages
// API parameters and parses responses back into canonical parts.
package anthropic
