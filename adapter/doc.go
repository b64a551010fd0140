// Package adapter defines the contract for translating a rendered prompt
// into a provider-specific request, plus helpers shared by the provider
// sub-packages. The core compiler never imports this package.
package adapter
