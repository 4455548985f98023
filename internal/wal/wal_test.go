package wal

import (
	"encoding/json"
	"os"
	"path/filepath"
	"testing"

	"github.com/litetable/widecolumn/pkg/model"
	"github.com/stretchr/testify/require"
)

func TestNew(t *testing.T) {
	t.Parallel()
	t.Run("Invalid config", func(t *testing.T) {
		t.Parallel()
		cfg := &Config{}

		got, err := New(cfg)
		require.Error(t, err)
		require.Nil(t, got)
	})

	t.Run("Valid config", func(t *testing.T) {
		t.Parallel()
		cfg := &Config{
			Path: t.TempDir(),
		}
		got, err := New(cfg)
		require.NoError(t, err)
		require.NotNil(t, got)
		require.Equal(t, filepath.Join(cfg.Path, defaultWalDirectory, defaultWALFile), got.FilePath())
		require.NoError(t, got.Close())
	})
}

func TestManager_Apply(t *testing.T) {
	t.Parallel()
	req := require.New(t)

	m, err := New(&Config{Path: t.TempDir()})
	req.NoError(err)
	defer func() {
		_ = m.Close()
	}()

	entry := &Entry{
		Operation: OperationPut,
		Table:     "Customers",
		RowKey:    []byte("u1"),
		Family:    "orders",
		Mutations: []model.Mutation{{Qualifier: "x1", Value: []byte("x1Data"), Timestamp: 42}},
	}
	req.NoError(m.Apply(entry))

	content, err := os.ReadFile(m.FilePath())
	req.NoError(err)
	req.NotEmpty(content)

	// one line per entry
	var entryRead Entry
	req.NoError(json.Unmarshal(content[:len(content)-1], &entryRead))
	req.Equal(entry.Operation, entryRead.Operation)
	req.Equal(entry.Table, entryRead.Table)
	req.Equal(entry.RowKey, entryRead.RowKey)
	req.Equal(entry.Mutations, entryRead.Mutations)
}

func TestManager_ReplayAndReset(t *testing.T) {
	t.Parallel()
	req := require.New(t)

	m, err := New(&Config{Path: t.TempDir()})
	req.NoError(err)
	defer func() {
		_ = m.Close()
	}()

	entries := []*Entry{
		{Operation: OperationCreateTable, Table: "Customers", Families: []string{"profile", "orders"}},
		{Operation: OperationPut, Table: "Customers", RowKey: []byte("u1"), Family: "profile",
			Mutations: []model.Mutation{{Qualifier: "name", Value: []byte("pippo"), Timestamp: 1}}},
		{Operation: OperationDelete, Table: "Customers", RowKey: []byte("u1"), Family: "profile",
			Qualifiers: []string{"name"}, Timestamp: 2},
	}
	for _, e := range entries {
		req.NoError(m.Apply(e))
	}

	// a malformed line must not stop the replay
	f, err := os.OpenFile(m.FilePath(), os.O_WRONLY|os.O_APPEND, 0640)
	req.NoError(err)
	_, err = f.WriteString("not json\n")
	req.NoError(err)
	req.NoError(f.Close())

	var ops []Operation
	req.NoError(m.Replay(func(e *Entry) error {
		ops = append(ops, e.Operation)
		return nil
	}))
	req.Equal([]Operation{OperationCreateTable, OperationPut, OperationDelete}, ops)

	req.NoError(m.Reset())
	ops = nil
	req.NoError(m.Replay(func(e *Entry) error {
		ops = append(ops, e.Operation)
		return nil
	}))
	req.Empty(ops)

	// the log keeps working after a reset
	req.NoError(m.Apply(entries[0]))
	req.NoError(m.Replay(func(e *Entry) error {
		ops = append(ops, e.Operation)
		return nil
	}))
	req.Equal([]Operation{OperationCreateTable}, ops)
}

func TestOperation_String(t *testing.T) {
	t.Parallel()
	require.Equal(t, "put", OperationPut.String())
	require.Equal(t, "delete_family", OperationDeleteFamily.String())
	require.Equal(t, "unknown", Operation(99).String())
}
