// Package fileregistry provides a directory-backed prompt store. It serves
// .prompt sources lazily with an in-process cache and implements
// dotprompt.PromptStore so partials resolve through the leading-underscore
// naming convention (_name.prompt).
package fileregistry
