package report

import (
	"fmt"
	"strings"
)

// MetricRow is a single row in a per-track comparison table. Values are
// pre-formatted strings so rows can mix decimals, flags, and durations.
type MetricRow struct {
	Label          string   // e.g. "RMS Level"
	Values         []string // one per column (Mic, System)
	Unit           string   // suffix, e.g. "dBFS", "" for unitless
	Interpretation string   // optional note, only rendered when non-empty
}

// MetricTable renders aligned columns for track metric comparison.
type MetricTable struct {
	Headers []string
	Rows    []MetricRow
}

// String renders the table. Labels are left-aligned, values right-aligned
// within their column, units appended after the last value column.
func (t *MetricTable) String() string {
	if len(t.Rows) == 0 {
		return ""
	}

	labelWidth := 0
	for _, row := range t.Rows {
		if len(row.Label) > labelWidth {
			labelWidth = len(row.Label)
		}
	}

	colWidths := make([]int, len(t.Headers))
	for i, h := range t.Headers {
		colWidths[i] = len(h)
	}
	for _, row := range t.Rows {
		for i, v := range row.Values {
			if i < len(colWidths) && len(v) > colWidths[i] {
				colWidths[i] = len(v)
			}
		}
	}

	var b strings.Builder

	// Header row
	b.WriteString(strings.Repeat(" ", labelWidth+2))
	for i, h := range t.Headers {
		fmt.Fprintf(&b, "%*s  ", colWidths[i], h)
	}
	b.WriteString("\n")

	for _, row := range t.Rows {
		fmt.Fprintf(&b, "%-*s  ", labelWidth, row.Label)
		for i := range t.Headers {
			v := ""
			if i < len(row.Values) {
				v = row.Values[i]
			}
			fmt.Fprintf(&b, "%*s  ", colWidths[i], v)
		}
		if row.Unit != "" {
			b.WriteString(row.Unit)
		}
		if row.Interpretation != "" {
			b.WriteString("  (" + row.Interpretation + ")")
		}
		b.WriteString("\n")
	}

	return b.String()
}

// formatMS renders a millisecond offset as m:ss.t for timeline rows.
func formatMS(ms int64) string {
	tenths := (ms % 1000) / 100
	seconds := ms / 1000
	return fmt.Sprintf("%d:%02d.%d", seconds/60, seconds%60, tenths)
}
