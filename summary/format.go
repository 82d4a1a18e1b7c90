package summary

import (
	"encoding/json"
	"fmt"
	"sort"
	"strings"
)

// FormatResults renders query rows for inclusion in the summarization prompt,
// as an aligned text table followed by a JSON rendering. Column order is
// alphabetical: the rows arrive as maps, so the query's own column order is
// no longer known here.
func FormatResults(rows []map[string]any) string {
	if len(rows) == 0 {
		return "No results found."
	}

	columns := make([]string, 0, len(rows[0]))
	for name := range rows[0] {
		columns = append(columns, name)
	}
	sort.Strings(columns)

	widths := make([]int, len(columns))
	for i, name := range columns {
		widths[i] = len(name)
	}
	cells := make([][]string, len(rows))
	for r, row := range rows {
		cells[r] = make([]string, len(columns))
		for i, name := range columns {
			cell := fmt.Sprintf("%v", row[name])
			cells[r][i] = cell
			if len(cell) > widths[i] {
				widths[i] = len(cell)
			}
		}
	}

	var b strings.Builder
	b.WriteString("Tabular format:\n")
	writeRow := func(values []string) {
		for i, value := range values {
			if i > 0 {
				b.WriteString("  ")
			}
			fmt.Fprintf(&b, "%-*s", widths[i], value)
		}
		b.WriteString("\n")
	}
	writeRow(columns)
	for _, row := range cells {
		writeRow(row)
	}

	encoded, err := json.MarshalIndent(rows, "", "  ")
	if err != nil {
		return fmt.Sprintf("Error formatting results: %v", err)
	}
	b.WriteString("\nJSON format:\n")
	b.Write(encoded)

	return b.String()
}
