// ABOUTME: bluemonday sanitization policy for assistant message HTML
// ABOUTME: Allow-list covers exactly what the markdown renderer and reference extractor emit

package render

import "github.com/microcosm-cc/bluemonday"

// newPolicy builds the sanitization policy applied to every markdown-derived
// string before reference rewriting. The reference extractor only emits
// attributes this allow-list admits, so rewriting after sanitization cannot
// reintroduce anything the policy would have stripped.
func newPolicy() *bluemonday.Policy {
	p := bluemonday.UGCPolicy()
	p.AllowRelativeURLs(true)

	headings := []string{"h1", "h2", "h3", "h4", "h5", "h6"}

	p.AllowElements("div", "span")

	p.AllowAttrs("class").OnElements(append(headings,
		"pre", "code", "table", "div", "span", "a", "img", "ul", "ol", "li", "input")...)
	p.AllowAttrs("id").OnElements(append(headings, "a", "div", "span")...)
	p.AllowAttrs("target", "rel", "title").OnElements("a")

	// Reference chips
	p.AllowAttrs("data-doctype", "data-name").OnElements("a")

	// Task-list checkboxes
	p.AllowElements("input")
	p.AllowAttrs("type", "checked", "disabled").OnElements("input")

	p.AllowAttrs("start").OnElements("ol")

	return p
}
