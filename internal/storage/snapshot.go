package storage

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"time"

	"github.com/litetable/widecolumn/internal/wal"
	"github.com/litetable/widecolumn/pkg/model"
	"github.com/rs/zerolog/log"
)

const snapshotGlob = "snapshot-*.db"

type snapshotData struct {
	Version   int             `json:"version"`
	CreatedAt time.Time       `json:"createdAt"`
	Clock     model.Timestamp `json:"clock"`
	Tables    []tableSnapshot `json:"tables"`
}

type tableSnapshot struct {
	Name        string        `json:"name"`
	Families    []string      `json:"families"`
	Enabled     bool          `json:"enabled"`
	MaxVersions int           `json:"maxVersions"`
	Rows        []rowSnapshot `json:"rows"`
}

// rowSnapshot keeps the key as bytes: row keys are not guaranteed to be valid UTF-8, which JSON
// object keys would require.
type rowSnapshot struct {
	Key      []byte `json:"key"`
	Families row    `json:"families"`
}

// Snapshot writes every table to a new snapshot file and truncates the WAL. Mutations wait for
// the snapshot to finish.
func (m *Manager) Snapshot() error {
	if m.snapshotDir == "" {
		return nil
	}

	m.persistMu.Lock()
	defer m.persistMu.Unlock()

	start := time.Now()
	data := m.createSnapshotData()

	dataBytes, err := json.Marshal(data)
	if err != nil {
		return fmt.Errorf("failed to serialize snapshot: %w", err)
	}

	filename := filepath.Join(m.snapshotDir, fmt.Sprintf("snapshot-%d.db", time.Now().UnixNano()))
	tmp := filename + ".tmp"
	if err = os.WriteFile(tmp, dataBytes, 0640); err != nil {
		return fmt.Errorf("failed to write snapshot file: %w", err)
	}
	if err = os.Rename(tmp, filename); err != nil {
		return fmt.Errorf("failed to publish snapshot file: %w", err)
	}

	if m.wal != nil {
		if err = m.wal.Reset(); err != nil {
			return err
		}
	}

	log.Debug().Str("duration", time.Since(start).String()).Str("file", filename).
		Msgf("snapshot saved with %d tables", len(data.Tables))
	return nil
}

// createSnapshotData copies every table. Callers hold persistMu for writing.
func (m *Manager) createSnapshotData() *snapshotData {
	data := &snapshotData{
		Version:   1,
		CreatedAt: time.Now(),
		Clock:     model.Timestamp(m.clock.Load()),
	}

	m.tables.Range(func(name string, t *table) bool {
		t.mutex.RLock()
		ts := tableSnapshot{
			Name:        name,
			Families:    t.familyNames(),
			Enabled:     t.state == StateEnabled,
			MaxVersions: t.maxVersions,
		}
		t.mutex.RUnlock()

		for _, s := range t.shards {
			s.mutex.RLock()
			for key, r := range s.rows {
				ts.Rows = append(ts.Rows, rowSnapshot{Key: []byte(key), Families: r})
			}
			s.mutex.RUnlock()
		}
		data.Tables = append(data.Tables, ts)
		return true
	})

	sort.Slice(data.Tables, func(i, j int) bool {
		return data.Tables[i].Name < data.Tables[j].Name
	})
	return data
}

// loadFromLatestSnapshot restores every table from the newest snapshot file, if any.
func (m *Manager) loadFromLatestSnapshot() error {
	latest, err := m.getLatestSnapshot()
	if err != nil {
		return fmt.Errorf("failed to get latest snapshot: %w", err)
	}
	if latest == "" {
		return nil
	}

	dataBytes, err := os.ReadFile(latest)
	if err != nil {
		return fmt.Errorf("failed to read snapshot %s: %w", latest, err)
	}

	var loaded snapshotData
	if err = json.Unmarshal(dataBytes, &loaded); err != nil {
		return fmt.Errorf("failed to parse snapshot %s: %w", latest, err)
	}

	for _, ts := range loaded.Tables {
		maxVersions := ts.MaxVersions
		if maxVersions <= 0 {
			maxVersions = m.maxVersions
		}
		t := newTable(ts.Name, ts.Families, maxVersions, m.shardCount)
		if !ts.Enabled {
			t.state = StateDisabled
		}
		for _, r := range ts.Rows {
			s := t.shardFor(r.Key)
			s.rows[string(r.Key)] = r.Families
		}
		m.tables.Store(ts.Name, t)
	}
	m.observe(loaded.Clock)

	log.Info().Str("file", latest).Msgf("restored %d tables from snapshot", len(loaded.Tables))
	return nil
}

// getLatestSnapshot returns the newest snapshot file in the snapshot directory.
func (m *Manager) getLatestSnapshot() (string, error) {
	files, err := filepath.Glob(filepath.Join(m.snapshotDir, snapshotGlob))
	if err != nil {
		return "", err
	}
	if len(files) == 0 {
		// No snapshots yet, nothing to load
		return "", nil
	}

	// file names embed a fixed-width nanosecond timestamp, so the lexicographic max is the newest
	latest := files[0]
	for _, file := range files {
		if file > latest {
			latest = file
		}
	}
	return latest, nil
}

// maintainSnapshotLimit prunes the oldest snapshot files above the configured limit.
func (m *Manager) maintainSnapshotLimit() {
	files, err := filepath.Glob(filepath.Join(m.snapshotDir, snapshotGlob))
	if err != nil {
		log.Error().Err(err).Msg("failed to list snapshot files")
		return
	}
	if len(files) <= m.maxSnapshotLimit {
		return
	}

	sort.Strings(files)
	for i := 0; i < len(files)-m.maxSnapshotLimit; i++ {
		if err := os.Remove(files[i]); err != nil {
			log.Error().Err(err).Str("file", files[i]).Msg("failed to remove old snapshot")
		}
	}
}

// replay re-applies a WAL entry recorded after the latest snapshot.
func (m *Manager) replay(e *wal.Entry) error {
	var err error
	switch e.Operation {
	case wal.OperationCreateTable:
		err = m.createTable(e, false)
	case wal.OperationDropTable:
		err = m.dropTable(e, false)
	case wal.OperationDisableTable, wal.OperationEnableTable:
		err = m.setState(e, false)
	case wal.OperationAddFamily:
		err = m.addFamily(e, false)
	case wal.OperationDeleteFamily:
		err = m.deleteFamily(e, false)
	case wal.OperationPut:
		for _, mut := range e.Mutations {
			m.observe(mut.Timestamp)
		}
		err = m.apply(e, false)
	case wal.OperationDelete:
		m.observe(e.Timestamp)
		err = m.delete(e, false)
	default:
		log.Warn().Msgf("unknown WAL operation %d, skipping", e.Operation)
		return nil
	}

	// entries were validated before they were logged; a failure here means the snapshot already
	// covers the entry
	if err != nil {
		log.Debug().Err(err).Str("operation", e.Operation.String()).Msg("WAL entry not replayed")
	}
	return nil
}
