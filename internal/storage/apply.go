package storage

import (
	"bytes"
	"fmt"

	"github.com/litetable/widecolumn/internal/storage/reaper"
	"github.com/litetable/widecolumn/internal/wal"
	"github.com/litetable/widecolumn/pkg/model"
	"github.com/rs/zerolog/log"
)

// Apply writes every mutation under (key, family) as one atomic step. Mutations without a
// timestamp share a single fresh store timestamp, which is returned.
func (m *Manager) Apply(name string, key []byte, family string, muts []model.Mutation) (model.Timestamp, error) {
	if len(muts) == 0 {
		return 0, model.ErrNoColumns
	}

	m.persistMu.RLock()
	defer m.persistMu.RUnlock()

	ts := m.now()
	resolved := make([]model.Mutation, len(muts))
	for i, mut := range muts {
		resolved[i] = mut
		if mut.Timestamp == 0 {
			resolved[i].Timestamp = ts
		} else {
			m.observe(mut.Timestamp)
		}
	}

	err := m.apply(&wal.Entry{
		Operation: wal.OperationPut,
		Table:     name,
		RowKey:    key,
		Family:    family,
		Mutations: resolved,
	}, true)
	if err != nil {
		return 0, err
	}
	return ts, nil
}

func (m *Manager) apply(e *wal.Entry, durable bool) error {
	t, err := m.writable(e.Table, e.Family)
	if err != nil {
		return err
	}
	defer t.mutex.RUnlock()

	if durable {
		if err = m.record(e); err != nil {
			return err
		}
	}

	s := t.shardFor(e.RowKey)
	s.mutex.Lock()
	defer s.mutex.Unlock()

	r, exists := s.rows[string(e.RowKey)]
	if !exists {
		r = make(row)
		s.rows[string(e.RowKey)] = r
	}
	quals, exists := r[e.Family]
	if !exists {
		quals = make(qualifiers)
		r[e.Family] = quals
	}

	for _, mut := range e.Mutations {
		v := version{Value: bytes.Clone(mut.Value), Timestamp: mut.Timestamp}
		quals[mut.Qualifier] = retain(insert(quals[mut.Qualifier], v), t.maxVersions)
	}
	return nil
}

// Delete writes a delete marker for each qualifier under (key, family). Every version at or before
// the returned timestamp is hidden from regular reads. A marker is written even when nothing is
// stored at the coordinate yet.
func (m *Manager) Delete(name string, key []byte, family string, quals []string) (model.Timestamp, error) {
	if len(quals) == 0 {
		return 0, model.ErrNoColumns
	}

	m.persistMu.RLock()
	defer m.persistMu.RUnlock()

	ts := m.now()
	err := m.delete(&wal.Entry{
		Operation:  wal.OperationDelete,
		Table:      name,
		RowKey:     key,
		Family:     family,
		Qualifiers: quals,
		Timestamp:  ts,
	}, true)
	if err != nil {
		return 0, err
	}

	m.reaper.Reap(&reaper.GCParams{
		Table:      name,
		RowKey:     key,
		Family:     family,
		Qualifiers: quals,
		Timestamp:  int64(ts),
		ExpiresAt:  ts.Time().Add(m.tombstoneTTL),
	})
	return ts, nil
}

func (m *Manager) delete(e *wal.Entry, durable bool) error {
	t, err := m.writable(e.Table, e.Family)
	if err != nil {
		return err
	}
	defer t.mutex.RUnlock()

	if durable {
		if err = m.record(e); err != nil {
			return err
		}
	}

	s := t.shardFor(e.RowKey)
	s.mutex.Lock()
	defer s.mutex.Unlock()

	r, exists := s.rows[string(e.RowKey)]
	if !exists {
		r = make(row)
		s.rows[string(e.RowKey)] = r
	}
	quals, exists := r[e.Family]
	if !exists {
		quals = make(qualifiers)
		r[e.Family] = quals
	}
	for _, q := range e.Qualifiers {
		quals[q] = insert(quals[q], version{Timestamp: e.Timestamp, Tombstone: true})
	}
	return nil
}

// Purge physically removes every version at or before p.Timestamp, delete markers included, and
// drops columns, families and rows left empty.
func (m *Manager) Purge(p *reaper.GCParams) bool {
	m.persistMu.RLock()
	defer m.persistMu.RUnlock()

	t, ok := m.tables.Load(p.Table)
	if !ok {
		return false
	}

	s := t.shardFor(p.RowKey)
	s.mutex.Lock()
	defer s.mutex.Unlock()

	r, exists := s.rows[string(p.RowKey)]
	if !exists {
		return false
	}
	quals, exists := r[p.Family]
	if !exists {
		return false
	}

	changed := false
	for _, q := range p.Qualifiers {
		versions, exists := quals[q]
		if !exists {
			continue
		}
		kept := versions[:0]
		for _, v := range versions {
			if v.Timestamp > model.Timestamp(p.Timestamp) {
				kept = append(kept, v)
			} else {
				changed = true
			}
		}
		if len(kept) == 0 {
			delete(quals, q)
		} else {
			quals[q] = kept
		}
	}

	// Clean up empty structures
	if len(quals) == 0 {
		delete(r, p.Family)
	}
	if len(r) == 0 {
		delete(s.rows, string(p.RowKey))
	}

	if changed {
		log.Debug().Msgf("purged %d columns of %s/%s in %s", len(p.Qualifiers), p.RowKey,
			p.Family, p.Table)
	}
	return changed
}

// writable returns t read-locked when it is enabled and owns family. The caller unlocks.
func (m *Manager) writable(name, family string) (*table, error) {
	t, err := m.lookup(name)
	if err != nil {
		return nil, err
	}
	t.mutex.RLock()
	switch {
	case t.state == StateAbsent:
		err = notFound(name)
	case t.state == StateDisabled:
		err = fmt.Errorf("%w: %s", model.ErrTableDisabled, name)
	case !t.hasFamily(family):
		err = fmt.Errorf("%w: %s:%s", model.ErrFamilyNotFound, name, family)
	}
	if err != nil {
		t.mutex.RUnlock()
		return nil, err
	}
	return t, nil
}

// rescheduleTombstones hands every delete marker found in memory to the reaper. It runs once on
// start, after persisted state is restored.
func (m *Manager) rescheduleTombstones() {
	var scheduled int
	m.tables.Range(func(name string, t *table) bool {
		for _, s := range t.shards {
			s.mutex.RLock()
			for key, r := range s.rows {
				for family, quals := range r {
					for q, versions := range quals {
						for _, v := range versions {
							if !v.Tombstone {
								continue
							}
							m.reaper.Reap(&reaper.GCParams{
								Table:      name,
								RowKey:     []byte(key),
								Family:     family,
								Qualifiers: []string{q},
								Timestamp:  int64(v.Timestamp),
								ExpiresAt:  v.Timestamp.Time().Add(m.tombstoneTTL),
							})
							scheduled++
						}
					}
				}
			}
			s.mutex.RUnlock()
		}
		return true
	})
	if scheduled > 0 {
		log.Debug().Msgf("rescheduled %d delete markers", scheduled)
	}
}
