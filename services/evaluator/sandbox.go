package evaluator

import (
	"sort"
	"strings"

	"github.com/dunderai/auditcore/models"
)

// buildEnv assembles the restricted evaluation namespace: the dataset
// bound as `table` (columns with aggregation helpers), the raw rows, a
// couple of introspection names and a `print` capture hook. Nothing else
// is visible to a snippet; the expression engine itself has no ambient
// environment, file system or network access.
func buildEnv(rs *models.RecordSet, captured *strings.Builder) map[string]any {
	table := make(map[string]any, len(rs.Columns))
	for _, col := range rs.Columns {
		table[col] = columnEnv(rs, col)
	}

	return map[string]any{
		"table":     table,
		"rows":      rs.Rows,
		"columns":   rs.Columns,
		"row_count": rs.Len(),
		"print": func(args ...any) any {
			for i, a := range args {
				if i > 0 {
					captured.WriteString(" ")
				}
				captured.WriteString(formatValue(a))
			}
			captured.WriteString("\n")
			return nil
		},
	}
}

// columnEnv exposes one column as a map of values plus aggregation
// helpers, so snippets can write table['amount'].sum().
func columnEnv(rs *models.RecordSet, col string) map[string]any {
	return map[string]any{
		"values": rs.Column(col),
		"sum": func() float64 {
			var sum float64
			for _, v := range rs.NumericColumn(col) {
				sum += v
			}
			return sum
		},
		"mean": func() float64 {
			values := rs.NumericColumn(col)
			if len(values) == 0 {
				return 0
			}
			var sum float64
			for _, v := range values {
				sum += v
			}
			return sum / float64(len(values))
		},
		"min": func() float64 {
			values := rs.NumericColumn(col)
			if len(values) == 0 {
				return 0
			}
			m := values[0]
			for _, v := range values[1:] {
				if v < m {
					m = v
				}
			}
			return m
		},
		"max": func() float64 {
			values := rs.NumericColumn(col)
			if len(values) == 0 {
				return 0
			}
			m := values[0]
			for _, v := range values[1:] {
				if v > m {
					m = v
				}
			}
			return m
		},
		"median": func() float64 {
			values := rs.NumericColumn(col)
			if len(values) == 0 {
				return 0
			}
			sorted := make([]float64, len(values))
			copy(sorted, values)
			sort.Float64s(sorted)
			mid := len(sorted) / 2
			if len(sorted)%2 == 0 {
				return (sorted[mid-1] + sorted[mid]) / 2
			}
			return sorted[mid]
		},
		"count": func() int {
			n := 0
			for _, v := range rs.Column(col) {
				if v != nil {
					n++
				}
			}
			return n
		},
		"unique": func() []any {
			seen := make(map[string]bool)
			var out []any
			for _, v := range rs.Column(col) {
				if v == nil {
					continue
				}
				key := formatValue(v)
				if !seen[key] {
					seen[key] = true
					out = append(out, v)
				}
			}
			return out
		},
		"value_counts": func() map[string]int {
			counts := make(map[string]int)
			for _, v := range rs.Column(col) {
				if v == nil {
					continue
				}
				counts[formatValue(v)]++
			}
			return counts
		},
	}
}
