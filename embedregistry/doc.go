// Package embedregistry provides a prompt store backed by an fs.FS
// (typically an embed.FS), loaded eagerly at construction so binaries can
// ship their .prompt sources compiled in.
package embedregistry
