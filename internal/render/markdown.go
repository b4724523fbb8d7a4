// ABOUTME: Custom goldmark node renderer for assistant message markdown
// ABOUTME: Slugged headings, language-tagged code, responsive tables, task lists, URL cleaning

package render

import (
	"fmt"
	"html"
	"net/url"
	"regexp"
	"strings"

	"github.com/yuin/goldmark/ast"
	east "github.com/yuin/goldmark/extension/ast"
	"github.com/yuin/goldmark/renderer"
	"github.com/yuin/goldmark/util"
)

// HighlightFunc renders code block content to HTML for a given language.
// The output still passes through sanitization, so a hook cannot introduce
// unsafe markup.
type HighlightFunc func(code, lang string) string

// chatRenderer overrides the goldmark defaults for the node kinds where the
// assistant UI needs custom markup.
type chatRenderer struct {
	highlight HighlightFunc
}

func (r *chatRenderer) RegisterFuncs(reg renderer.NodeRendererFuncRegisterer) {
	reg.Register(ast.KindHeading, r.renderHeading)
	reg.Register(ast.KindFencedCodeBlock, r.renderFencedCodeBlock)
	reg.Register(ast.KindLink, r.renderLink)
	reg.Register(ast.KindImage, r.renderImage)
	reg.Register(east.KindTable, r.renderTable)
	reg.Register(east.KindTableCell, r.renderTableCell)
	reg.Register(east.KindTaskCheckBox, r.renderTaskCheckBox)
}

var nonWordRun = regexp.MustCompile(`[^a-z0-9_]+`)

// headingSlug derives a deterministic same-page anchor id: lower-cased text
// with non-word runs collapsed to single hyphens.
func headingSlug(text string) string {
	return nonWordRun.ReplaceAllString(strings.ToLower(text), "-")
}

// nodeText collects the plain text content beneath a node.
func nodeText(n ast.Node, source []byte) string {
	var sb strings.Builder
	_ = ast.Walk(n, func(c ast.Node, entering bool) (ast.WalkStatus, error) {
		if entering {
			if t, ok := c.(*ast.Text); ok {
				sb.Write(t.Segment.Value(source))
			}
		}
		return ast.WalkContinue, nil
	})
	return sb.String()
}

func (r *chatRenderer) renderHeading(w util.BufWriter, source []byte, node ast.Node, entering bool) (ast.WalkStatus, error) {
	n := node.(*ast.Heading)
	slug := headingSlug(nodeText(n, source))
	if entering {
		fmt.Fprintf(w, `<h%d class="erpnext-heading" id="%s">`, n.Level, slug)
	} else {
		fmt.Fprintf(w, `<a href="#%s" class="anchor-link">#</a></h%d>`+"\n", slug, n.Level)
	}
	return ast.WalkContinue, nil
}

func (r *chatRenderer) renderFencedCodeBlock(w util.BufWriter, source []byte, node ast.Node, entering bool) (ast.WalkStatus, error) {
	n := node.(*ast.FencedCodeBlock)
	if !entering {
		_, _ = w.WriteString("</code></pre>\n")
		return ast.WalkContinue, nil
	}

	lang := "plaintext"
	if l := n.Language(source); l != nil {
		lang = string(l)
	}
	fmt.Fprintf(w, `<pre><code class="hljs language-%s">`, html.EscapeString(lang))

	var code strings.Builder
	lines := n.Lines()
	for i := 0; i < lines.Len(); i++ {
		line := lines.At(i)
		code.Write(line.Value(source))
	}

	if r.highlight != nil {
		_, _ = w.WriteString(r.highlight(code.String(), lang))
	} else {
		_, _ = w.WriteString(html.EscapeString(code.String()))
	}
	return ast.WalkContinue, nil
}

// cleanURL returns the normalized form of a link destination, or "" when it
// does not parse as a well-formed absolute URL. Callers degrade the element
// to its plain text form on "".
func cleanURL(raw string) string {
	u, err := url.Parse(raw)
	if err != nil || !u.IsAbs() {
		return ""
	}
	return u.String()
}

func (r *chatRenderer) renderLink(w util.BufWriter, source []byte, node ast.Node, entering bool) (ast.WalkStatus, error) {
	n := node.(*ast.Link)
	dest := cleanURL(string(n.Destination))
	if dest == "" {
		// Degrade to the link text; children render as usual
		return ast.WalkContinue, nil
	}
	if entering {
		fmt.Fprintf(w, `<a href="%s" target="_blank" rel="noopener noreferrer"`, html.EscapeString(dest))
		if len(n.Title) > 0 {
			fmt.Fprintf(w, ` title="%s"`, html.EscapeString(string(n.Title)))
		}
		_, _ = w.WriteString(">")
	} else {
		_, _ = w.WriteString("</a>")
	}
	return ast.WalkContinue, nil
}

func (r *chatRenderer) renderImage(w util.BufWriter, source []byte, node ast.Node, entering bool) (ast.WalkStatus, error) {
	if !entering {
		return ast.WalkContinue, nil
	}
	n := node.(*ast.Image)
	alt := nodeText(n, source)
	src := cleanURL(string(n.Destination))
	if src == "" {
		_, _ = w.WriteString(html.EscapeString(alt))
		return ast.WalkSkipChildren, nil
	}
	fmt.Fprintf(w, `<img src="%s" alt="%s"`, html.EscapeString(src), html.EscapeString(alt))
	if len(n.Title) > 0 {
		fmt.Fprintf(w, ` title="%s"`, html.EscapeString(string(n.Title)))
	}
	_, _ = w.WriteString(` class="img-fluid rounded">`)
	return ast.WalkSkipChildren, nil
}

func (r *chatRenderer) renderTable(w util.BufWriter, source []byte, node ast.Node, entering bool) (ast.WalkStatus, error) {
	if entering {
		_, _ = w.WriteString(`<div class="table-responsive"><table class="table table-bordered table-hover">` + "\n")
	} else {
		// The row renderer closes the tbody after the last row
		_, _ = w.WriteString("</table></div>\n")
	}
	return ast.WalkContinue, nil
}

func (r *chatRenderer) renderTableCell(w util.BufWriter, source []byte, node ast.Node, entering bool) (ast.WalkStatus, error) {
	n := node.(*east.TableCell)
	tag := "td"
	if _, ok := n.Parent().(*east.TableHeader); ok {
		tag = "th"
	}
	if entering {
		_, _ = w.WriteString("<" + tag)
		if n.Alignment != east.AlignNone {
			fmt.Fprintf(w, ` class="text-%s"`, n.Alignment.String())
		}
		_, _ = w.WriteString(">")
	} else {
		_, _ = w.WriteString("</" + tag + ">\n")
	}
	return ast.WalkContinue, nil
}

func (r *chatRenderer) renderTaskCheckBox(w util.BufWriter, source []byte, node ast.Node, entering bool) (ast.WalkStatus, error) {
	if !entering {
		return ast.WalkContinue, nil
	}
	n := node.(*east.TaskCheckBox)
	if n.IsChecked {
		_, _ = w.WriteString(`<input type="checkbox" checked disabled> `)
	} else {
		_, _ = w.WriteString(`<input type="checkbox" disabled> `)
	}
	return ast.WalkContinue, nil
}
