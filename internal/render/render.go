// ABOUTME: Renders assistant message content of any shape into safe HTML
// ABOUTME: Pipeline for strings: markdown parse, sanitize, then reference rewriting

package render

import (
	"bytes"
	"encoding/json"
	"fmt"
	"html"
	"sort"

	"github.com/microcosm-cc/bluemonday"
	"github.com/yuin/goldmark"
	"github.com/yuin/goldmark/extension"
	"github.com/yuin/goldmark/renderer"
	"github.com/yuin/goldmark/util"

	"github.com/lympik/erpnext-chatgpt/internal/refs"
)

// Result is rendered HTML plus the reference bindings the caller must
// attach after insertion into the live UI tree.
type Result struct {
	HTML     string
	Bindings []refs.Binding
}

// Renderer converts untrusted message content into safe, cross-referenced
// HTML. Render is a pure function of its input: no hidden state, identical
// output for identical input.
type Renderer struct {
	md        goldmark.Markdown
	policy    *bluemonday.Policy
	extractor *refs.Extractor
}

// Option configures a Renderer.
type Option func(*chatRenderer)

// WithHighlight installs a syntax-highlight hook for fenced code blocks.
func WithHighlight(fn HighlightFunc) Option {
	return func(r *chatRenderer) { r.highlight = fn }
}

// New builds a Renderer with the assistant markdown policy.
func New(opts ...Option) *Renderer {
	cr := &chatRenderer{}
	for _, opt := range opts {
		opt(cr)
	}

	md := goldmark.New(
		goldmark.WithExtensions(
			extension.Table,
			extension.TaskList,
			extension.Strikethrough,
		),
		goldmark.WithRendererOptions(
			renderer.WithNodeRenderers(util.Prioritized(cr, 200)),
		),
	)

	return &Renderer{
		md:        md,
		policy:    newPolicy(),
		extractor: refs.NewExtractor(),
	}
}

// Render converts content into safe HTML. It is total over every shape the
// response parser can produce; unknown types degrade to an explicit marker,
// never an error.
func (r *Renderer) Render(content any) Result {
	// Fragment ordinal within this pass; salts handler ids so repeated
	// identical fragments stay distinguishable
	var seq uint32
	return r.render(content, &seq)
}

func (r *Renderer) render(content any, seq *uint32) Result {
	switch v := content.(type) {
	case nil:
		return Result{HTML: "<em>null</em>"}
	case bool:
		return Result{HTML: fmt.Sprintf("<strong>%t</strong>", v)}
	case string:
		return r.renderString(v, seq)
	case int, int8, int16, int32, int64,
		uint, uint8, uint16, uint32, uint64,
		float32, float64:
		return Result{HTML: fmt.Sprintf("<span>%v</span>", v)}
	case json.Number:
		return Result{HTML: fmt.Sprintf("<span>%s</span>", v)}
	case []any:
		return r.renderList(v, seq)
	case map[string]any:
		return r.renderObject(v, seq)
	default:
		return Result{HTML: fmt.Sprintf("<em>Unsupported type: %T</em>", v)}
	}
}

// renderString runs the three-stage string pipeline. Sanitization is
// unconditional and happens before reference rewriting, so rewriting only
// ever touches already-safe markup.
func (r *Renderer) renderString(s string, seq *uint32) Result {
	var buf bytes.Buffer
	if err := r.md.Convert([]byte(s), &buf); err != nil {
		// Parser failure degrades to escaped plain text
		buf.Reset()
		buf.WriteString("<p>" + html.EscapeString(s) + "</p>")
	}
	sanitized := r.policy.Sanitize(buf.String())
	salt := *seq
	*seq++
	res := r.extractor.ExtractSalted(sanitized, salt)
	return Result{HTML: res.HTML, Bindings: res.Bindings}
}

func (r *Renderer) renderList(items []any, seq *uint32) Result {
	var out Result
	var sb bytes.Buffer
	sb.WriteString(`<ul class="list-group">`)
	for _, item := range items {
		sub := r.render(item, seq)
		sb.WriteString(`<li class="list-group-item">`)
		sb.WriteString(sub.HTML)
		sb.WriteString("</li>")
		out.Bindings = append(out.Bindings, sub.Bindings...)
	}
	sb.WriteString("</ul>")
	out.HTML = sb.String()
	return out
}

// renderObject renders a keyed mapping as a labeled, collapsible block.
// Go maps carry no order, so keys are sorted for deterministic output.
func (r *Renderer) renderObject(m map[string]any, seq *uint32) Result {
	keys := make([]string, 0, len(m))
	for k := range m {
		keys = append(keys, k)
	}
	sort.Strings(keys)

	var out Result
	var sb bytes.Buffer
	sb.WriteString(`<div class="collapsible-object">`)
	sb.WriteString(`<button type="button" class="btn btn-sm btn-secondary object-toggle">Toggle Object</button>`)
	sb.WriteString(`<div class="object-content" style="display: none; padding-left: 15px;">`)
	for _, k := range keys {
		sub := r.render(m[k], seq)
		sb.WriteString("<div><strong>")
		sb.WriteString(html.EscapeString(k))
		sb.WriteString(":</strong> ")
		sb.WriteString(sub.HTML)
		sb.WriteString("</div>")
		out.Bindings = append(out.Bindings, sub.Bindings...)
	}
	sb.WriteString("</div></div>")
	out.HTML = sb.String()
	return out
}
