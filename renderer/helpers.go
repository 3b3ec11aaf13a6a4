package renderer

import (
	"bytes"
	"cmp"
	"io"
	"slices"

	"github.com/etnz/exposure"
)

// ConditionalBlock let you fully write a block and decide at the end to print it or not.
// If the block function returns true, the content is printed to w, otherwise it is discarded.
func ConditionalBlock(w io.Writer, block func(io.Writer) bool) {
	bw := &bytes.Buffer{}
	if block(bw) {
		io.Copy(w, bw)
	}
}

// moneyCell renders an amount for a table cell, "-" when there is none.
func moneyCell(m exposure.Money) string {
	if m.IsZero() {
		return "-"
	}
	return m.String()
}

// qtyCell renders a quantity for a table cell, "-" when there is none.
func qtyCell(q exposure.Quantity) string {
	if q.IsZero() {
		return "-"
	}
	return q.String()
}

// pctCell renders a share for a table cell, empty when the asset carries no
// meaningful share (negative positions stay out of group percentages).
func pctCell(p exposure.Percent) string {
	if p == 0 {
		return ""
	}
	return p.String()
}

// sortedKeys returns the keys of m in ascending order.
func sortedKeys[K cmp.Ordered, V any](m map[K]V) []K {
	keys := make([]K, 0, len(m))
	for k := range m {
		keys = append(keys, k)
	}
	slices.Sort(keys)
	return keys
}
