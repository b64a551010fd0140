// Package dotprompt compiles ".prompt" source documents — a YAML frontmatter
// block followed by a Handlebars-style template body — into a structured,
// model-ready request: resolved metadata (model id, model config, tool
// definitions, input/output JSON schemas) plus an ordered list of
// multi-modal conversation messages.
//
// The package covers the compilation pipeline only: document parsing
// ([Parse]), Picoschema compilation (sub-package picoschema), metadata
// resolution ([ResolveMetadata]), template rendering and message assembly
// ([Dotprompt.Compile], [ToMessages]). Model invocation, prompt storage, and
// vendor adapters are deliberately out of scope for this package; see the
// fileregistry, embedregistry, remoteregistry and adapter sub-packages for
// those concerns.
package dotprompt
