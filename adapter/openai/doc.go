// Package openai translates a rendered prompt into OpenAI Chat Completions
// request parameters and parses completions back into canonical parts.
package openai
