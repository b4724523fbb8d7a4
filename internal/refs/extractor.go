// ABOUTME: Extracts ERPNext document references from rendered HTML
// ABOUTME: Rewrites them into clickable elements and reports click bindings

package refs

import (
	"encoding/binary"
	"fmt"
	"hash/fnv"
	"html"
	"net/url"
	"regexp"
	"sort"
	"strings"
)

// doctypes is the fixed set of business-object type names the extractor
// recognizes in "<DocType>: <Code>" form.
var doctypes = []string{
	"Sales Invoice",
	"Purchase Invoice",
	"Sales Order",
	"Purchase Order",
	"Delivery Note",
	"Material Request",
	"Stock Entry",
	"Payment Entry",
	"Journal Entry",
	"Customer",
	"Supplier",
	"Item",
	"Employee",
	"Lead",
	"Opportunity",
	"Quotation",
	"Purchase Receipt",
	"Work Order",
	"BOM",
	"Task",
	"Project",
	"Asset",
	"Service Protocol",
}

var (
	docRefPattern          *regexp.Regexp
	serviceProtocolPattern = regexp.MustCompile(`(?i)\b(SVP-\d{4}-\d{4})\b`)
	anchorPattern          = regexp.MustCompile(`(?is)<a[^>]*>.*?</a>`)
)

func init() {
	// Longer names first so alternation never stops at a prefix
	names := make([]string, len(doctypes))
	copy(names, doctypes)
	sort.Slice(names, func(i, j int) bool { return len(names[i]) > len(names[j]) })
	for i, n := range names {
		names[i] = regexp.QuoteMeta(n)
	}
	docRefPattern = regexp.MustCompile(
		`(?i)\b(` + strings.Join(names, "|") + `):\s*([A-Z0-9][A-Z0-9\-/\.]+)\b`)
}

// Binding ties a rewritten reference element to the document it should
// open. The pipeline only emits bindings; attaching click behavior is the
// caller's responsibility once the HTML is part of the live UI tree.
type Binding struct {
	HandlerID string `json:"id"`
	Doctype   string `json:"doctype"`
	DocName   string `json:"doc_name"`
}

// URL returns the in-app path for the referenced document.
func (b Binding) URL() string {
	return "/app/" + DoctypeSlug(b.Doctype) + "/" + url.PathEscape(b.DocName)
}

// DoctypeSlug converts a doctype display name to its URL form
// ("Sales Invoice" -> "sales-invoice").
func DoctypeSlug(doctype string) string {
	return strings.ToLower(strings.ReplaceAll(doctype, " ", "-"))
}

// Result is the outcome of one extraction pass.
type Result struct {
	HTML     string
	Bindings []Binding
}

// Extractor scans sanitized HTML for document references and rewrites them
// into clickable elements. Extraction is best-effort: malformed or unknown
// reference syntax is left as plain text, and the extractor never fails.
type Extractor struct{}

// NewExtractor returns an extractor with the fixed doctype set.
func NewExtractor() *Extractor {
	return &Extractor{}
}

// Extract rewrites document references in input and returns the new HTML
// plus the bindings for each rewritten reference. Content already inside an
// anchor element is protected: anchors are swapped for opaque placeholders
// before scanning and restored verbatim, in position, as the final step.
//
// Handler IDs are derived from a hash of the input plus a sequence counter,
// so they are collision-free within a pass and stable across repeated
// extractions of the same input.
func (e *Extractor) Extract(input string) Result {
	return e.ExtractSalted(input, 0)
}

// ExtractSalted is Extract with a caller-chosen salt mixed into the handler
// id hash. A caller rendering several fragments as one composite must give
// each fragment a distinct salt, otherwise byte-identical fragments repeat
// handler ids across the composite.
func (e *Extractor) ExtractSalted(input string, salt uint32) Result {
	var placeholders []string
	protect := func(s string) string {
		token := fmt.Sprintf("__ANCHOR_PLACEHOLDER_%d__", len(placeholders))
		placeholders = append(placeholders, s)
		return token
	}

	// Shield pre-existing anchors (genuine markdown links) from rewriting
	working := anchorPattern.ReplaceAllStringFunc(input, protect)

	h := fnv.New32a()
	h.Write([]byte(input))
	var sb [4]byte
	binary.BigEndian.PutUint32(sb[:], salt)
	h.Write(sb[:])
	base := h.Sum32()

	var bindings []Binding
	seq := 0
	wrap := func(match, doctype, name string) string {
		seq++
		b := Binding{
			HandlerID: fmt.Sprintf("ref-%08x-%d", base, seq),
			Doctype:   doctype,
			DocName:   strings.TrimSpace(name),
		}
		bindings = append(bindings, b)
		label := html.EscapeString(b.Doctype + ": " + b.DocName)
		anchor := fmt.Sprintf(
			`<a href="#" id="%s" class="erpnext-doc-link" data-doctype="%s" data-name="%s" title="Open %s">%s</a>`,
			b.HandlerID,
			html.EscapeString(b.Doctype),
			html.EscapeString(b.DocName),
			label,
			match)
		// Freshly wrapped text becomes a placeholder too, so the
		// standalone-code pass cannot rewrap it
		return protect(anchor)
	}

	working = docRefPattern.ReplaceAllStringFunc(working, func(match string) string {
		parts := docRefPattern.FindStringSubmatch(match)
		if parts == nil {
			return match
		}
		return wrap(match, normalizeDoctype(parts[1]), parts[2])
	})

	working = serviceProtocolPattern.ReplaceAllStringFunc(working, func(match string) string {
		return wrap(match, "Service Protocol", match)
	})

	// Restore all shielded spans in original position
	for i, original := range placeholders {
		token := fmt.Sprintf("__ANCHOR_PLACEHOLDER_%d__", i)
		working = strings.Replace(working, token, original, 1)
	}

	return Result{HTML: working, Bindings: bindings}
}

// normalizeDoctype maps a case-insensitive match back to the canonical
// doctype name. Unknown names pass through unchanged.
func normalizeDoctype(name string) string {
	for _, dt := range doctypes {
		if strings.EqualFold(dt, name) {
			return dt
		}
	}
	return name
}
