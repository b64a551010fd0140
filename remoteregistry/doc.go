// Package remoteregistry provides a prompt store that loads .prompt sources
// via a Fetcher (HTTP is the built-in implementation). Sources are cached
// with a configurable TTL; concurrent loads of the same name are collapsed
// through singleflight.
package remoteregistry
