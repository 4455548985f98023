package model

import (
	"sort"
	"strings"
)

// NewRow returns an empty row for key.
func NewRow(key []byte) *Row {
	return &Row{Key: key, Cells: []Cell{}}
}

// IsEmpty reports whether the row holds no cells.
func (r *Row) IsEmpty() bool {
	return r == nil || len(r.Cells) == 0
}

// Value returns the newest non-deleted value for family:qualifier.
func (r *Row) Value(family, qualifier string) ([]byte, bool) {
	if r == nil {
		return nil, false
	}
	var (
		latest Cell
		found  bool
	)
	for _, c := range r.Cells {
		if c.Family != family || c.Qualifier != qualifier || c.Deleted {
			continue
		}
		if !found || c.Timestamp > latest.Timestamp {
			latest = c
			found = true
		}
	}
	return latest.Value, found
}

// Versions returns every cell stored for family:qualifier, newest first.
func (r *Row) Versions(family, qualifier string) []Cell {
	if r == nil {
		return nil
	}
	var out []Cell
	for _, c := range r.Cells {
		if c.Family == family && c.Qualifier == qualifier {
			out = append(out, c)
		}
	}
	sort.SliceStable(out, func(i, j int) bool {
		return out[i].Timestamp > out[j].Timestamp
	})
	return out
}

// Families returns the distinct families present in the row, in ascending order.
func (r *Row) Families() []string {
	if r == nil {
		return nil
	}
	seen := make(map[string]struct{})
	var out []string
	for _, c := range r.Cells {
		if _, ok := seen[c.Family]; ok {
			continue
		}
		seen[c.Family] = struct{}{}
		out = append(out, c.Family)
	}
	sort.Strings(out)
	return out
}

// Restrict drops every cell outside family. An empty family keeps all cells.
func (r *Row) Restrict(family string) *Row {
	if family == "" || r == nil {
		return r
	}
	out := NewRow(r.Key)
	for _, c := range r.Cells {
		if c.Family == family {
			out.Cells = append(out.Cells, c)
		}
	}
	return out
}

// SortCells orders cells by family, qualifier and descending timestamp.
func (r *Row) SortCells() {
	sort.SliceStable(r.Cells, func(i, j int) bool {
		a, b := r.Cells[i], r.Cells[j]
		if a.Family != b.Family {
			return a.Family < b.Family
		}
		if a.Qualifier != b.Qualifier {
			return a.Qualifier < b.Qualifier
		}
		return a.Timestamp > b.Timestamp
	})
}

// String renders the row the way the store shell prints results.
func (r *Row) String() string {
	if r.IsEmpty() {
		return "keyvalues=NONE"
	}
	var b strings.Builder
	b.WriteString("keyvalues={")
	for i, c := range r.Cells {
		if i > 0 {
			b.WriteString(", ")
		}
		b.WriteString(string(r.Key))
		b.WriteString("/")
		b.WriteString(c.Family)
		b.WriteString(":")
		b.WriteString(c.Qualifier)
		b.WriteString("/")
		b.WriteString(c.Timestamp.Time().UTC().Format("2006-01-02T15:04:05.000000Z"))
		b.WriteString("=")
		b.WriteString(string(c.Value))
		if c.Deleted {
			b.WriteString(" (deleted)")
		}
	}
	b.WriteString("}")
	return b.String()
}
