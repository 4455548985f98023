package storage

import (
	"fmt"
	"sort"

	"github.com/litetable/widecolumn/internal/wal"
	"github.com/litetable/widecolumn/pkg/model"
)

// Tables returns every table name in ascending order.
func (m *Manager) Tables() []string {
	var names []string
	m.tables.Range(func(name string, _ *table) bool {
		names = append(names, name)
		return true
	})
	sort.Strings(names)
	return names
}

// TableState returns the lifecycle state of name.
func (m *Manager) TableState(name string) State {
	t, ok := m.tables.Load(name)
	if !ok {
		return StateAbsent
	}
	t.mutex.RLock()
	defer t.mutex.RUnlock()
	return t.state
}

// Families returns the families of name in ascending order.
func (m *Manager) Families(name string) ([]string, error) {
	t, err := m.lookup(name)
	if err != nil {
		return nil, err
	}
	t.mutex.RLock()
	defer t.mutex.RUnlock()
	if t.state == StateAbsent {
		return nil, notFound(name)
	}
	return t.familyNames(), nil
}

// CreateTable creates an enabled table with the given families.
func (m *Manager) CreateTable(name string, families []string) error {
	m.persistMu.RLock()
	defer m.persistMu.RUnlock()
	return m.createTable(&wal.Entry{
		Operation:   wal.OperationCreateTable,
		Table:       name,
		Families:    families,
		MaxVersions: m.maxVersions,
	}, true)
}

func (m *Manager) createTable(e *wal.Entry, durable bool) error {
	if e.Table == "" {
		return fmt.Errorf("%w: table name is empty", model.ErrInvalidName)
	}
	if len(e.Families) == 0 {
		return fmt.Errorf("%w: table %s", model.ErrNoFamilies, e.Table)
	}
	seen := make(map[string]struct{}, len(e.Families))
	for _, f := range e.Families {
		if f == "" {
			return fmt.Errorf("%w: family name is empty", model.ErrInvalidName)
		}
		if _, dup := seen[f]; dup {
			return fmt.Errorf("%w: %s", model.ErrDuplicateFamily, f)
		}
		seen[f] = struct{}{}
	}

	m.schemaMu.Lock()
	defer m.schemaMu.Unlock()

	if _, exists := m.tables.Load(e.Table); exists {
		return fmt.Errorf("%w: %s", model.ErrTableExists, e.Table)
	}
	if durable {
		if err := m.record(e); err != nil {
			return err
		}
	}

	maxVersions := e.MaxVersions
	if maxVersions <= 0 {
		maxVersions = m.maxVersions
	}
	m.tables.Store(e.Table, newTable(e.Table, e.Families, maxVersions, m.shardCount))
	return nil
}

// DisableTable takes an enabled table offline.
func (m *Manager) DisableTable(name string) error {
	m.persistMu.RLock()
	defer m.persistMu.RUnlock()
	return m.setState(&wal.Entry{Operation: wal.OperationDisableTable, Table: name}, true)
}

// EnableTable brings a disabled table back online.
func (m *Manager) EnableTable(name string) error {
	m.persistMu.RLock()
	defer m.persistMu.RUnlock()
	return m.setState(&wal.Entry{Operation: wal.OperationEnableTable, Table: name}, true)
}

func (m *Manager) setState(e *wal.Entry, durable bool) error {
	t, err := m.lookup(e.Table)
	if err != nil {
		return err
	}
	t.mutex.Lock()
	defer t.mutex.Unlock()

	to := StateDisabled
	if e.Operation == wal.OperationEnableTable {
		to = StateEnabled
	}
	switch {
	case t.state == StateAbsent:
		return notFound(e.Table)
	case t.state == to && to == StateDisabled:
		return fmt.Errorf("%w: %s", model.ErrTableDisabled, e.Table)
	case t.state == to:
		return fmt.Errorf("%w: %s", model.ErrTableEnabled, e.Table)
	}

	if durable {
		if err = m.record(e); err != nil {
			return err
		}
	}
	t.state = to
	return nil
}

// DropTable removes a disabled table and all of its rows.
func (m *Manager) DropTable(name string) error {
	m.persistMu.RLock()
	defer m.persistMu.RUnlock()
	return m.dropTable(&wal.Entry{Operation: wal.OperationDropTable, Table: name}, true)
}

func (m *Manager) dropTable(e *wal.Entry, durable bool) error {
	m.schemaMu.Lock()
	defer m.schemaMu.Unlock()

	t, err := m.lookup(e.Table)
	if err != nil {
		return err
	}
	t.mutex.Lock()
	defer t.mutex.Unlock()

	switch t.state {
	case StateAbsent:
		return notFound(e.Table)
	case StateEnabled:
		return fmt.Errorf("%w: %s must be disabled before it is dropped", model.ErrTableEnabled,
			e.Table)
	}

	if durable {
		if err = m.record(e); err != nil {
			return err
		}
	}
	// readers holding a stale pointer see the table as absent
	t.state = StateAbsent
	m.tables.Delete(e.Table)
	return nil
}

// AddFamily adds a family to an enabled table.
func (m *Manager) AddFamily(name, family string) error {
	m.persistMu.RLock()
	defer m.persistMu.RUnlock()
	return m.addFamily(&wal.Entry{Operation: wal.OperationAddFamily, Table: name, Family: family},
		true)
}

func (m *Manager) addFamily(e *wal.Entry, durable bool) error {
	if e.Family == "" {
		return fmt.Errorf("%w: family name is empty", model.ErrInvalidName)
	}
	t, err := m.lookup(e.Table)
	if err != nil {
		return err
	}
	t.mutex.Lock()
	defer t.mutex.Unlock()

	switch {
	case t.state == StateAbsent:
		return notFound(e.Table)
	case t.state == StateDisabled:
		return fmt.Errorf("%w: %s", model.ErrTableDisabled, e.Table)
	case t.hasFamily(e.Family):
		return fmt.Errorf("%w: %s:%s", model.ErrFamilyExists, e.Table, e.Family)
	}

	if durable {
		if err = m.record(e); err != nil {
			return err
		}
	}
	t.families[e.Family] = struct{}{}
	return nil
}

// DeleteFamily removes a family and every cell stored under it. When the manager is configured
// with FamilyDropRequiresDisable the table must be disabled, otherwise it must be enabled.
func (m *Manager) DeleteFamily(name, family string) error {
	m.persistMu.RLock()
	defer m.persistMu.RUnlock()
	return m.deleteFamily(&wal.Entry{Operation: wal.OperationDeleteFamily, Table: name,
		Family: family}, true)
}

func (m *Manager) deleteFamily(e *wal.Entry, durable bool) error {
	t, err := m.lookup(e.Table)
	if err != nil {
		return err
	}
	t.mutex.Lock()
	defer t.mutex.Unlock()

	switch {
	case t.state == StateAbsent:
		return notFound(e.Table)
	case m.familyDropRequiresDisable && t.state == StateEnabled:
		return fmt.Errorf("%w: %s must be disabled before a family is removed",
			model.ErrTableEnabled, e.Table)
	case !m.familyDropRequiresDisable && t.state == StateDisabled:
		return fmt.Errorf("%w: %s", model.ErrTableDisabled, e.Table)
	case !t.hasFamily(e.Family):
		return fmt.Errorf("%w: %s:%s", model.ErrFamilyNotFound, e.Table, e.Family)
	case len(t.families) == 1:
		return fmt.Errorf("%w: %s:%s", model.ErrLastFamily, e.Table, e.Family)
	}

	if durable {
		if err = m.record(e); err != nil {
			return err
		}
	}
	delete(t.families, e.Family)
	for _, s := range t.shards {
		s.mutex.Lock()
		for key, r := range s.rows {
			delete(r, e.Family)
			if len(r) == 0 {
				delete(s.rows, key)
			}
		}
		s.mutex.Unlock()
	}
	return nil
}

func (m *Manager) lookup(name string) (*table, error) {
	t, ok := m.tables.Load(name)
	if !ok {
		return nil, notFound(name)
	}
	return t, nil
}

func notFound(name string) error {
	return fmt.Errorf("%w: %s", model.ErrTableNotFound, name)
}
