// ABOUTME: Tests for document reference extraction
// ABOUTME: Covers anchor protection, both reference shapes, and binding output

package refs

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestExtract_LabeledReference(t *testing.T) {
	e := NewExtractor()
	res := e.Extract("See Sales Invoice: SINV-2025-00001 for details")

	require.Len(t, res.Bindings, 1)
	b := res.Bindings[0]
	assert.Equal(t, "Sales Invoice", b.Doctype)
	assert.Equal(t, "SINV-2025-00001", b.DocName)
	assert.Equal(t, "/app/sales-invoice/SINV-2025-00001", b.URL())

	assert.Contains(t, res.HTML, `id="`+b.HandlerID+`"`)
	assert.Contains(t, res.HTML, `data-doctype="Sales Invoice"`)
	assert.Contains(t, res.HTML, `class="erpnext-doc-link"`)
	assert.Contains(t, res.HTML, ">Sales Invoice: SINV-2025-00001</a>")
}

func TestExtract_StandaloneServiceProtocol(t *testing.T) {
	e := NewExtractor()
	res := e.Extract("Protocol SVP-2025-0042 was closed")

	require.Len(t, res.Bindings, 1)
	assert.Equal(t, "Service Protocol", res.Bindings[0].Doctype)
	assert.Equal(t, "SVP-2025-0042", res.Bindings[0].DocName)
	assert.Equal(t, "/app/service-protocol/SVP-2025-0042", res.Bindings[0].URL())
}

func TestExtract_LabeledServiceProtocolNotDoubleWrapped(t *testing.T) {
	e := NewExtractor()
	res := e.Extract("Service Protocol: SVP-2025-0001")

	// The labeled pass wraps it; the standalone pass must not wrap again
	require.Len(t, res.Bindings, 1)
	assert.Equal(t, 1, strings.Count(res.HTML, "<a "))
}

func TestExtract_ExistingAnchorsProtected(t *testing.T) {
	e := NewExtractor()
	in := `Click <a href="https://example.com">Customer: ABC-001</a> now`
	res := e.Extract(in)

	assert.Empty(t, res.Bindings)
	assert.Equal(t, in, res.HTML)
}

func TestExtract_MixedAnchorAndPlainReference(t *testing.T) {
	e := NewExtractor()
	in := `<a href="/x">Customer: ABC-001</a> and Customer: DEF-002`
	res := e.Extract(in)

	require.Len(t, res.Bindings, 1)
	assert.Equal(t, "DEF-002", res.Bindings[0].DocName)
	// Original anchor restored verbatim
	assert.Contains(t, res.HTML, `<a href="/x">Customer: ABC-001</a>`)
}

func TestExtract_NormalizesDoctypeCase(t *testing.T) {
	e := NewExtractor()
	res := e.Extract("sales invoice: SINV-2025-00009")

	require.Len(t, res.Bindings, 1)
	assert.Equal(t, "Sales Invoice", res.Bindings[0].Doctype)
	// Matched text preserved as written
	assert.Contains(t, res.HTML, ">sales invoice: SINV-2025-00009</a>")
}

func TestExtract_UnknownTypeLeftAsPlainText(t *testing.T) {
	e := NewExtractor()
	in := "Warehouse Transfer: WT-001 is not a known doctype"
	res := e.Extract(in)

	assert.Empty(t, res.Bindings)
	assert.Equal(t, in, res.HTML)
}

func TestExtract_HandlerIDsUniqueWithinPass(t *testing.T) {
	e := NewExtractor()
	res := e.Extract("Customer: A-1 and Customer: B-2 and SVP-2025-0003")

	require.Len(t, res.Bindings, 3)
	seen := map[string]bool{}
	for _, b := range res.Bindings {
		assert.False(t, seen[b.HandlerID], "duplicate handler id %s", b.HandlerID)
		seen[b.HandlerID] = true
	}
}

func TestExtractSalted_DistinctSaltsDistinctIDs(t *testing.T) {
	e := NewExtractor()
	in := "Sales Invoice: SINV-2025-00001"

	first := e.ExtractSalted(in, 0)
	second := e.ExtractSalted(in, 1)
	require.Len(t, first.Bindings, 1)
	require.Len(t, second.Bindings, 1)
	assert.NotEqual(t, first.Bindings[0].HandlerID, second.Bindings[0].HandlerID)

	// Same salt reproduces the same id
	assert.Equal(t, first, e.ExtractSalted(in, 0))
}

func TestExtract_DeterministicAcrossCalls(t *testing.T) {
	e := NewExtractor()
	in := "Sales Order: SO-2025-0001 shipped via Delivery Note: MAT-DN-2025-00201"

	first := e.Extract(in)
	second := e.Extract(in)
	assert.Equal(t, first, second)
}

func TestExtract_CodeWithSlashesAndDots(t *testing.T) {
	e := NewExtractor()
	res := e.Extract("Item: ITM/2025.001")

	require.Len(t, res.Bindings, 1)
	assert.Equal(t, "ITM/2025.001", res.Bindings[0].DocName)
	assert.Equal(t, "/app/item/ITM%2F2025.001", res.Bindings[0].URL())
}

func TestExtract_NeverFails(t *testing.T) {
	e := NewExtractor()
	for _, in := range []string{"", "<a href=", "Sales Invoice:", ":::", "<a>x</a><a>y</a>"} {
		assert.NotPanics(t, func() { e.Extract(in) })
	}
}
