package models

import (
	"strings"
	"time"
)

// Row is a single record of a tabular dataset. Values are either
// float64 (numeric cells), string (everything else) or nil (empty cells).
type Row map[string]any

// RecordSet is the in-memory representation of a loaded tabular dataset.
// All rows share the same column set; column names are trimmed of
// surrounding whitespace at load time.
type RecordSet struct {
	Source   string    `json:"source"`
	Columns  []string  `json:"columns"`
	Rows     []Row     `json:"rows"`
	LoadedAt time.Time `json:"loaded_at"`
}

// Len returns the number of rows in the record set.
func (rs *RecordSet) Len() int {
	return len(rs.Rows)
}

// HasColumn reports whether the record set contains the exact column name.
func (rs *RecordSet) HasColumn(name string) bool {
	for _, c := range rs.Columns {
		if c == name {
			return true
		}
	}
	return false
}

// ResolveColumn returns the first column whose lowercased name matches one
// of the given aliases, or "" when none is present. Datasets come in both
// English and Portuguese headers ("amount" vs "valor"), so every consumer
// resolves columns through alias lists instead of hard-coded names.
func (rs *RecordSet) ResolveColumn(aliases ...string) string {
	for _, c := range rs.Columns {
		lc := strings.ToLower(strings.TrimSpace(c))
		for _, a := range aliases {
			if lc == a {
				return c
			}
		}
	}
	return ""
}

// Column returns all values of the named column in row order.
func (rs *RecordSet) Column(name string) []any {
	values := make([]any, 0, len(rs.Rows))
	for _, row := range rs.Rows {
		values = append(values, row[name])
	}
	return values
}

// NumericColumn returns the non-null numeric values of the named column.
// Non-numeric cells are skipped.
func (rs *RecordSet) NumericColumn(name string) []float64 {
	values := make([]float64, 0, len(rs.Rows))
	for _, row := range rs.Rows {
		if f, ok := row[name].(float64); ok {
			values = append(values, f)
		}
	}
	return values
}

// Head returns up to n leading rows without copying row contents.
func (rs *RecordSet) Head(n int) []Row {
	if n > len(rs.Rows) {
		n = len(rs.Rows)
	}
	return rs.Rows[:n]
}
