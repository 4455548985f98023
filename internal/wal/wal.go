package wal

import (
	"bufio"
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"sync"

	"github.com/litetable/widecolumn/pkg/model"
	"github.com/rs/zerolog/log"
)

const (
	defaultWalDirectory = "wal"
	defaultWALFile      = "wal.log"
)

// Operation identifies the mutation recorded by an Entry.
type Operation int

const (
	OperationPut Operation = iota + 1
	OperationDelete
	OperationCreateTable
	OperationDropTable
	OperationDisableTable
	OperationEnableTable
	OperationAddFamily
	OperationDeleteFamily
)

func (o Operation) String() string {
	switch o {
	case OperationPut:
		return "put"
	case OperationDelete:
		return "delete"
	case OperationCreateTable:
		return "create_table"
	case OperationDropTable:
		return "drop_table"
	case OperationDisableTable:
		return "disable_table"
	case OperationEnableTable:
		return "enable_table"
	case OperationAddFamily:
		return "add_family"
	case OperationDeleteFamily:
		return "delete_family"
	default:
		return "unknown"
	}
}

// Entry represents a Write-Ahead Log entry for a store mutation. Timestamps are always resolved
// before the entry is written so a replay reproduces the exact cell versions.
type Entry struct {
	Operation   Operation        `json:"operation"`
	Table       string           `json:"table"`
	RowKey      []byte           `json:"rowKey,omitempty"`
	Family      string           `json:"family,omitempty"`
	Families    []string         `json:"families,omitempty"`
	Mutations   []model.Mutation `json:"mutations,omitempty"`
	Qualifiers  []string         `json:"qualifiers,omitempty"`
	Timestamp   model.Timestamp  `json:"timestamp,omitempty"`
	MaxVersions int              `json:"maxVersions,omitempty"`
}

type Manager struct {
	mu      sync.RWMutex
	walFile *os.File
	path    string
}

type Config struct {
	// Path where the WAL directory will be saved
	Path string
}

func (c *Config) validate() error {
	var errGrp []error
	if c.Path == "" {
		errGrp = append(errGrp, errors.New("wal path cannot be empty"))
	}
	return errors.Join(errGrp...)
}

func New(cfg *Config) (*Manager, error) {
	if err := cfg.validate(); err != nil {
		return nil, err
	}
	walPath := filepath.Join(cfg.Path, defaultWalDirectory, defaultWALFile)
	walDir := filepath.Dir(walPath)
	if err := os.MkdirAll(walDir, 0750); err != nil {
		return nil, errors.New("failed to create WAL directory: " + err.Error())
	}

	// Open WAL file with appropriate permissions
	file, err := os.OpenFile(walPath, os.O_RDWR|os.O_CREATE|os.O_APPEND, 0640)
	if err != nil {
		return nil, errors.New("failed to open WAL file: " + err.Error())
	}

	return &Manager{
		walFile: file,
		path:    walPath,
	}, nil
}

// Apply appends the entry to the WAL file as a single JSON line:
//
// ex: {"operation":1,"table":"Customers","rowKey":"dTE=","family":"orders","mutations":[...]}
//
// The entry is written before the mutation is applied in memory, so a crash between the two
// is repaired by replaying the log on the next start.
func (m *Manager) Apply(e *Entry) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	// Convert the entry to JSON for storage
	jsonData, err := json.Marshal(e)
	if err != nil {
		return fmt.Errorf("failed to marshal entry: %w", err)
	}

	// Write the JSON data to the WAL file, followed by a newline
	if _, err = m.walFile.Write(append(jsonData, '\n')); err != nil {
		return fmt.Errorf("failed to write to WAL: %w", err)
	}

	return nil
}

// Replay calls fn with every entry of the log in write order. Malformed lines are skipped.
func (m *Manager) Replay(fn func(e *Entry) error) error {
	m.mu.RLock()
	defer m.mu.RUnlock()

	file, err := os.Open(m.path)
	if err != nil {
		if os.IsNotExist(err) {
			// No WAL file exists yet, not an error
			return nil
		}
		return err
	}
	defer func(file *os.File) {
		_ = file.Close()
	}(file)

	var replayed int
	scanner := bufio.NewScanner(file)
	scanner.Buffer(make([]byte, 64*1024), 16*1024*1024)
	for scanner.Scan() {
		var entry Entry
		if err := json.Unmarshal(scanner.Bytes(), &entry); err != nil {
			log.Warn().Err(err).Msg("skipping malformed WAL entry")
			continue
		}
		if err := fn(&entry); err != nil {
			return fmt.Errorf("failed to replay %s entry for table %s: %w", entry.Operation,
				entry.Table, err)
		}
		replayed++
	}

	log.Debug().Msgf("replayed %d WAL entries", replayed)
	return scanner.Err()
}

// Reset truncates the log. It is called once a snapshot covers every logged entry.
func (m *Manager) Reset() error {
	m.mu.Lock()
	defer m.mu.Unlock()

	if err := m.walFile.Truncate(0); err != nil {
		return fmt.Errorf("failed to truncate WAL: %w", err)
	}
	if _, err := m.walFile.Seek(0, 0); err != nil {
		return fmt.Errorf("failed to rewind WAL: %w", err)
	}
	return nil
}

// Close flushes and closes the WAL file.
func (m *Manager) Close() error {
	m.mu.Lock()
	defer m.mu.Unlock()

	if err := m.walFile.Sync(); err != nil {
		return err
	}
	return m.walFile.Close()
}

// FilePath returns the location of the WAL file.
func (m *Manager) FilePath() string {
	return m.path
}
