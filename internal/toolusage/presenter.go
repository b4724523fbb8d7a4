// ABOUTME: Presents tool invocation records as entity chips and a detail panel
// ABOUTME: Deduplicates fetched entities and formats per-invocation metadata

package toolusage

import (
	"encoding/json"
	"fmt"
	"html"
	"sort"
	"strings"
	"unicode"
	"unicode/utf8"

	"github.com/lympik/erpnext-chatgpt/internal/refs"
	"github.com/lympik/erpnext-chatgpt/internal/store"
)

// entityIcons maps doctypes to their chip icons. Unknown doctypes fall back
// to the generic document icon.
var entityIcons = map[string]string{
	"Customer":         "👤",
	"Supplier":         "🏭",
	"Item":             "📦",
	"Employee":         "👨‍💼",
	"Lead":             "🎯",
	"Contact":          "📇",
	"Delivery Note":    "🚚",
	"Sales Invoice":    "🧾",
	"Sales Order":      "📋",
	"Purchase Order":   "🛒",
	"Purchase Invoice": "📄",
	"Quotation":        "💬",
	"Service Protocol": "🔧",
	"Stock Entry":      "📥",
	"Payment Entry":    "💳",
	"Journal Entry":    "📒",
}

const defaultIcon = "📄"

// chipLabelLimit is the display budget for chip labels.
const chipLabelLimit = 25

// Output is the rendered presentation of a message's tool usage. All fields
// are empty when the message carried no invocations.
type Output struct {
	ChipsHTML   string
	DetailHTML  string
	ToggleID    string
	ToggleLabel string
}

// Empty reports whether there is anything to show.
func (o Output) Empty() bool {
	return o.ToggleID == ""
}

// Present builds the chip summary and collapsible detail panel for one
// message's tool invocations. messageID namespaces element ids so toggles
// stay independent across messages. The detail panel defaults to collapsed;
// visibility wiring belongs to the caller.
func Present(invocations []store.ToolInvocation, messageID string) Output {
	if len(invocations) == 0 {
		return Output{}
	}

	out := Output{
		ToggleID:    messageID + "-details",
		ToggleLabel: fmt.Sprintf("Show data access info (%d %s)", len(invocations), pluralize(len(invocations), "query", "queries")),
	}
	out.ChipsHTML = renderChips(collectEntities(invocations), messageID)
	out.DetailHTML = renderDetails(invocations)
	return out
}

// collectEntities gathers fetched entities across all invocations in
// encounter order, keeping the first occurrence of each (id, doctype) pair.
func collectEntities(invocations []store.ToolInvocation) []store.EntityRef {
	type key struct{ id, doctype string }
	seen := make(map[key]bool)
	var entities []store.EntityRef
	for _, inv := range invocations {
		for _, e := range inv.FetchedEntities {
			k := key{e.ID, e.Doctype}
			if seen[k] {
				continue
			}
			seen[k] = true
			entities = append(entities, e)
		}
	}
	return entities
}

func renderChips(entities []store.EntityRef, messageID string) string {
	if len(entities) == 0 {
		return ""
	}

	var sb strings.Builder
	sb.WriteString(`<div class="entity-chips">`)
	for i, e := range entities {
		b := refs.Binding{Doctype: e.Doctype, DocName: e.ID}
		label := truncateLabel(e.Label)
		icon, ok := entityIcons[e.Doctype]
		if !ok {
			icon = defaultIcon
		}
		fmt.Fprintf(&sb,
			`<a href="%s" target="_blank" class="entity-chip" id="%s-chip-%d" title="%s"><span class="entity-chip-icon">%s</span> %s</a>`,
			b.URL(),
			html.EscapeString(messageID), i,
			html.EscapeString(e.Doctype+": "+e.Label),
			icon,
			html.EscapeString(label))
	}
	sb.WriteString("</div>")
	return sb.String()
}

func truncateLabel(label string) string {
	runes := []rune(label)
	if len(runes) <= chipLabelLimit {
		return label
	}
	return string(runes[:chipLabelLimit-3]) + "..."
}

func renderDetails(invocations []store.ToolInvocation) string {
	var sb strings.Builder
	sb.WriteString(`<div class="card tool-usage-card"><div class="card-body">`)
	fmt.Fprintf(&sb, `<h6 class="card-title">🗄️ Data Accessed (%d %s)</h6>`,
		len(invocations), pluralize(len(invocations), "query", "queries"))
	sb.WriteString(`<div class="tool-usage-entries">`)

	for i, inv := range invocations {
		glyph, class := "✗", "text-danger"
		if inv.Status == store.ToolSuccess {
			glyph, class = "✓", "text-success"
		}
		sb.WriteString(`<div class="tool-usage-entry">`)
		fmt.Fprintf(&sb, `<strong>%d. %s</strong> <span class="%s">%s</span>`,
			i+1, html.EscapeString(formatToolName(inv.ToolName)), class, glyph)
		if inv.ResultSummary != "" {
			fmt.Fprintf(&sb, `<br><span class="text-muted">%s</span>`, html.EscapeString(inv.ResultSummary))
		}
		sb.WriteString(renderParameters(inv.Parameters))
		if inv.Error != "" {
			fmt.Fprintf(&sb, `<br><span class="text-danger">Error: %s</span>`, html.EscapeString(inv.Error))
		}
		sb.WriteString("</div>")
	}

	sb.WriteString("</div></div></div>")
	return sb.String()
}

// formatToolName converts a snake_case tool identifier to a readable name:
// underscores become spaces and each word is capitalized.
func formatToolName(name string) string {
	words := strings.Split(strings.ReplaceAll(name, "_", " "), " ")
	for i, w := range words {
		if w == "" {
			continue
		}
		r, size := utf8.DecodeRuneInString(w)
		words[i] = string(unicode.ToUpper(r)) + w[size:]
	}
	return strings.Join(words, " ")
}

// renderParameters lists parameters that carry a non-empty, non-null value,
// stringified as JSON. Keys are sorted: Go maps carry no encounter order.
func renderParameters(params map[string]any) string {
	if len(params) == 0 {
		return ""
	}

	keys := make([]string, 0, len(params))
	for k := range params {
		keys = append(keys, k)
	}
	sort.Strings(keys)

	var parts []string
	for _, k := range keys {
		v := params[k]
		if v == nil || v == "" {
			continue
		}
		enc, err := json.Marshal(v)
		if err != nil {
			continue
		}
		parts = append(parts, fmt.Sprintf("%s: %s", k, enc))
	}

	listing := "none"
	if len(parts) > 0 {
		listing = strings.Join(parts, ", ")
	}
	return `<br><small class="tool-usage-params">Parameters: ` + html.EscapeString(listing) + `</small>`
}

func pluralize(n int, singular, plural string) string {
	if n == 1 {
		return singular
	}
	return plural
}
