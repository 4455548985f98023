package storage

import (
	"bytes"
	"fmt"

	"github.com/litetable/widecolumn/pkg/model"
)

// Get returns the versions of every cell under key that opts asks for. A key without cells
// yields an empty row.
func (m *Manager) Get(name string, key []byte, opts model.ReadOptions) (*model.Row, error) {
	t, err := m.readable(name)
	if err != nil {
		return nil, err
	}
	return t.materialize(key, "", opts), nil
}

// readable returns t if it can serve reads right now.
func (m *Manager) readable(name string) (*table, error) {
	t, err := m.lookup(name)
	if err != nil {
		return nil, err
	}
	t.mutex.RLock()
	defer t.mutex.RUnlock()
	switch t.state {
	case StateAbsent:
		return nil, notFound(name)
	case StateDisabled:
		return nil, fmt.Errorf("%w: %s", model.ErrTableDisabled, name)
	}
	return t, nil
}

// materialize builds the row snapshot for key, restricted to family when it is set.
func (t *table) materialize(key []byte, family string, opts model.ReadOptions) *model.Row {
	s := t.shardFor(key)
	s.mutex.RLock()
	defer s.mutex.RUnlock()

	out := model.NewRow(key)
	r, exists := s.rows[string(key)]
	if !exists {
		return out
	}
	for fam, quals := range r {
		if family != "" && fam != family {
			continue
		}
		for q, versions := range quals {
			out.Cells = append(out.Cells, visible(fam, q, versions, opts)...)
		}
	}
	out.SortCells()
	return out
}

// visible applies the delete marker rule to a newest-first version list: the newest marker hides
// every value at or before its timestamp. At most opts.Versions() cells are returned; hidden
// values are only returned, flagged, when opts.IncludeDeleted is set.
func visible(family, qualifier string, versions []version, opts model.ReadOptions) []model.Cell {
	var (
		marker    model.Timestamp
		hasMarker bool
	)
	for _, v := range versions {
		if v.Tombstone {
			// versions are newest first, so the first marker is the newest one
			marker = v.Timestamp
			hasMarker = true
			break
		}
	}

	limit := opts.Versions()
	var out []model.Cell
	for _, v := range versions {
		if len(out) == limit {
			break
		}
		if v.Tombstone {
			continue
		}
		hidden := hasMarker && v.Timestamp <= marker
		if hidden && !opts.IncludeDeleted {
			continue
		}
		out = append(out, model.Cell{
			Family:    family,
			Qualifier: qualifier,
			Value:     bytes.Clone(v.Value),
			Timestamp: v.Timestamp,
			Deleted:   hidden,
		})
	}
	return out
}
