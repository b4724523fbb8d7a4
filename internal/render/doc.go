// Package render turns untrusted assistant message content into safe,
// navigable HTML.
//
// String content flows through a fixed three-stage pipeline: goldmark
// markdown parsing with a custom node renderer, bluemonday sanitization,
// then document-reference rewriting via the refs package. Sanitization is
// mandatory and always precedes reference rewriting.
//
// Non-string content (the response parser can yield any decoded JSON shape)
// is dispatched structurally: lists become nested list markup, mappings
// become collapsible blocks, scalars render textually, and anything else
// degrades to an explicit unsupported-type marker. Rendering never fails.
package render
