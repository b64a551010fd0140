// Package gemini translates a rendered prompt into Google Gemini (genai)
// request contents and config, and parses responses back into canonical
// parts.
package gemini
