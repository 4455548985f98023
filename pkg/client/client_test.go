package client

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/litetable/widecolumn/internal/driver/memory"
	"github.com/litetable/widecolumn/internal/storage"
	"github.com/litetable/widecolumn/pkg/model"
	"github.com/stretchr/testify/require"
)

func testSettings() Settings {
	return Settings{
		Driver:        DriverMemory,
		QuorumHost:    "localhost",
		QuorumPort:    2181,
		MasterAddress: "localhost:16000",
	}
}

// openMemory returns a handle over a private in-process store and checks on cleanup that no
// store handle leaked.
func openMemory(t *testing.T, s Settings) (*Handle, *memory.Driver) {
	t.Helper()
	h, err := Open(context.Background(), s)
	require.NoError(t, err)
	d := h.driver.(*memory.Driver)
	t.Cleanup(func() {
		require.Zero(t, d.OpenHandles(), "every operation releases its store handles")
		require.NoError(t, h.Close())
	})
	return h, d
}

func rowKeys(t *testing.T, rows *Rows, err error) []string {
	t.Helper()
	require.NoError(t, err)
	all, err := rows.Collect()
	require.NoError(t, err)
	keys := make([]string, 0, len(all))
	for _, r := range all {
		keys = append(keys, string(r.Key))
	}
	return keys
}

func value(t *testing.T, r *model.Row, family, qualifier string) string {
	t.Helper()
	v, ok := r.Value(family, qualifier)
	require.True(t, ok, "%s:%s missing", family, qualifier)
	return string(v)
}

func TestHandle_SchemaLifecycle(t *testing.T) {
	t.Parallel()
	req := require.New(t)
	ctx := context.Background()
	h, _ := openMemory(t, testSettings())

	req.NoError(h.CreateTable(ctx, "DemoTable", "family1", "family2", "familyToBeDeleted"))
	families, err := h.DescribeSchema(ctx, "DemoTable")
	req.NoError(err)
	req.Equal([]string{"family1", "family2", "familyToBeDeleted"}, families)

	err = h.CreateTable(ctx, "DemoTable", "family1")
	var schemaErr *SchemaError
	req.ErrorAs(err, &schemaErr)
	req.ErrorIs(err, ErrTableExists)
	req.Equal("create table", schemaErr.Op)
	req.Equal("DemoTable", schemaErr.Table)
	families, err = h.DescribeSchema(ctx, "DemoTable")
	req.NoError(err)
	req.Equal([]string{"family1", "family2", "familyToBeDeleted"}, families)

	req.ErrorIs(h.CreateTable(ctx, "Empty"), ErrNoFamilies)
	req.ErrorIs(h.CreateTable(ctx, "Dup", "cf", "cf"), ErrDuplicateFamily)

	req.NoError(h.AddColumnFamily(ctx, "DemoTable", "family3"))
	req.ErrorIs(h.AddColumnFamily(ctx, "DemoTable", "family3"), ErrFamilyExists)
	req.ErrorIs(h.AddColumnFamily(ctx, "Missing", "family3"), ErrTableNotFound)

	req.NoError(h.DeleteColumnFamily(ctx, "DemoTable", "familyToBeDeleted"))
	req.ErrorIs(h.DeleteColumnFamily(ctx, "DemoTable", "familyToBeDeleted"), ErrFamilyNotFound)

	families, err = h.DescribeSchema(ctx, "DemoTable")
	req.NoError(err)
	req.Equal([]string{"family1", "family2", "family3"}, families)

	tables, err := h.ListTables(ctx)
	req.NoError(err)
	req.Equal([]string{"DemoTable"}, tables)

	outcome, err := h.DeleteTable(ctx, "DemoTable")
	req.NoError(err)
	req.Equal(DeleteCompleted, outcome)

	_, err = h.DescribeSchema(ctx, "DemoTable")
	req.ErrorIs(err, ErrTableNotFound)
	tables, err = h.ListTables(ctx)
	req.NoError(err)
	req.Empty(tables)
}

func TestHandle_DeleteTable(t *testing.T) {
	t.Parallel()
	ctx := context.Background()

	tests := map[string]struct {
		setup       func(req *require.Assertions, h *Handle)
		wantOutcome DeleteOutcome
		wantErr     error
		wantStep    Step
	}{
		"enabled table": {
			setup: func(req *require.Assertions, h *Handle) {
				req.NoError(h.CreateTable(ctx, "t", "cf"))
			},
			wantOutcome: DeleteCompleted,
		},
		"already disabled table": {
			setup: func(req *require.Assertions, h *Handle) {
				req.NoError(h.CreateTable(ctx, "t", "cf"))
				req.NoError(h.DisableTable(ctx, "t"))
			},
			wantOutcome: DeleteCompleted,
		},
		"absent table": {
			setup:       func(req *require.Assertions, h *Handle) {},
			wantOutcome: DeleteNotStarted,
			wantErr:     ErrTableNotFound,
			wantStep:    StepDisable,
		},
	}

	for name, tc := range tests {
		t.Run(name, func(t *testing.T) {
			t.Parallel()
			req := require.New(t)
			h, _ := openMemory(t, testSettings())
			tc.setup(req, h)

			outcome, err := h.DeleteTable(ctx, "t")
			req.Equal(tc.wantOutcome, outcome)
			if tc.wantErr == nil {
				req.NoError(err)
				return
			}
			req.ErrorIs(err, tc.wantErr)
			var schemaErr *SchemaError
			req.ErrorAs(err, &schemaErr)
			req.Equal(tc.wantStep, schemaErr.Step)
		})
	}
}

func TestHandle_DeleteColumnFamilyOffline(t *testing.T) {
	t.Parallel()
	req := require.New(t)
	ctx := context.Background()

	s := testSettings()
	s.FamilyDropRequiresDisable = true
	h, d := openMemory(t, s)
	req.True(h.Capabilities().FamilyDropRequiresDisable)

	req.NoError(h.CreateTable(ctx, "Customers", "profile", "orders"))
	req.NoError(h.DeleteColumnFamily(ctx, "Customers", "orders"))

	// the table is back online once the family is gone
	req.NoError(h.PutColumns(ctx, "Customers", []byte("u1"), "profile", []string{"name"},
		[][]byte{[]byte("pippo")}))
	req.ErrorIs(h.PutColumns(ctx, "Customers", []byte("u1"), "orders", []string{"x1"},
		[][]byte{[]byte("x1Data")}), ErrFamilyNotFound)

	// refused before the table is taken offline
	req.ErrorIs(h.DeleteColumnFamily(ctx, "Customers", "orders"), ErrFamilyNotFound)
	req.ErrorIs(h.DeleteColumnFamily(ctx, "Customers", "profile"), ErrLastFamily)
	req.Equal(storage.StateEnabled, d.Store().TableState("Customers"))

	// a disabled table stays disabled
	req.NoError(h.AddColumnFamily(ctx, "Customers", "orders"))
	req.NoError(h.DisableTable(ctx, "Customers"))
	req.NoError(h.DeleteColumnFamily(ctx, "Customers", "orders"))
	req.Equal(storage.StateDisabled, d.Store().TableState("Customers"))
	req.NoError(h.EnableTable(ctx, "Customers"))
}

func TestHandle_PutGet(t *testing.T) {
	t.Parallel()
	req := require.New(t)
	ctx := context.Background()
	h, _ := openMemory(t, testSettings())
	req.NoError(h.CreateTable(ctx, "Customers", "profile", "orders"))

	columns := []string{"name", "billingAddress", "payment"}
	req.NoError(h.PutColumns(ctx, "Customers", []byte("u1"), "profile", columns,
		[][]byte{[]byte("pippo"), []byte("Parco della Vittoria, 3"), []byte("VISA")}))

	row, err := h.GetRow(ctx, "Customers", []byte("u1"))
	req.NoError(err)
	req.Len(row.Cells, 3)
	req.Equal("pippo", value(t, row, "profile", "name"))
	req.Equal("VISA", value(t, row, "profile", "payment"))
	for _, c := range row.Cells {
		req.Equal(row.Cells[0].Timestamp, c.Timestamp, "one write, one timestamp")
	}

	// a rewrite adds a newer version
	req.NoError(h.PutColumns(ctx, "Customers", []byte("u1"), "profile", []string{"payment"},
		[][]byte{[]byte("Mastercard")}))
	row, err = h.GetRow(ctx, "Customers", []byte("u1"))
	req.NoError(err)
	req.Equal("Mastercard", value(t, row, "profile", "payment"))

	versions, err := h.GetRowVersions(ctx, "Customers", []byte("u1"), model.ReadOptions{MaxVersions: 5})
	req.NoError(err)
	payments := versions.Versions("profile", "payment")
	req.Len(payments, 2)
	req.Equal("Mastercard", string(payments[0].Value))
	req.Equal("VISA", string(payments[1].Value))
	req.Greater(payments[0].Timestamp, payments[1].Timestamp)

	empty, err := h.GetRow(ctx, "Customers", []byte("nobody"))
	req.NoError(err)
	req.NotNil(empty)
	req.True(empty.IsEmpty())
}

func TestHandle_DataValidation(t *testing.T) {
	t.Parallel()
	ctx := context.Background()
	h, _ := openMemory(t, testSettings())
	require.NoError(t, h.CreateTable(ctx, "Customers", "profile"))
	require.NoError(t, h.CreateTable(ctx, "Offline", "profile"))
	require.NoError(t, h.DisableTable(ctx, "Offline"))

	tests := map[string]struct {
		call       func() error
		wantErr    error
		wantSchema bool
	}{
		"length mismatch": {
			call: func() error {
				return h.PutColumns(ctx, "Customers", []byte("u1"), "profile",
					[]string{"name", "payment"}, [][]byte{[]byte("pippo")})
			},
			wantErr: ErrLengthMismatch,
		},
		"no columns": {
			call: func() error {
				return h.PutColumns(ctx, "Customers", []byte("u1"), "profile", nil, nil)
			},
			wantErr: ErrNoColumns,
		},
		"no columns to delete": {
			call: func() error {
				return h.DeleteColumns(ctx, "Customers", []byte("u1"), "profile", nil)
			},
			wantErr: ErrNoColumns,
		},
		"missing table": {
			call: func() error {
				return h.PutColumns(ctx, "Missing", []byte("u1"), "profile",
					[]string{"name"}, [][]byte{[]byte("pippo")})
			},
			wantErr: ErrTableNotFound,
		},
		"get missing table": {
			call: func() error {
				_, err := h.GetRow(ctx, "Missing", []byte("u1"))
				return err
			},
			wantErr: ErrTableNotFound,
		},
		"drop family of missing table": {
			call: func() error {
				return h.DeleteColumnFamily(ctx, "Missing", "profile")
			},
			wantErr:    ErrTableNotFound,
			wantSchema: true,
		},
		"missing family": {
			call: func() error {
				return h.PutColumns(ctx, "Customers", []byte("u1"), "orders",
					[]string{"x1"}, [][]byte{[]byte("x1Data")})
			},
			wantErr: ErrFamilyNotFound,
		},
		"disabled table": {
			call: func() error {
				_, err := h.GetRow(ctx, "Offline", []byte("u1"))
				return err
			},
			wantErr: ErrTableDisabled,
		},
		"scan missing table": {
			call: func() error {
				_, err := h.ScanTable(ctx, "Missing")
				return err
			},
			wantErr: ErrTableNotFound,
		},
		"prefix scan missing table": {
			call: func() error {
				_, err := h.ScanByPrefix(ctx, "Missing", []byte("u"))
				return err
			},
			wantErr: ErrTableNotFound,
		},
		"column value scan missing table": {
			call: func() error {
				_, err := h.ScanByColumnValue(ctx, "Missing", []byte("a"), "profile", "born",
					[]byte("1993"))
				return err
			},
			wantErr: ErrTableNotFound,
		},
		"scan missing family": {
			call: func() error {
				_, err := h.ScanFamily(ctx, "Customers", "orders")
				return err
			},
			wantErr: ErrFamilyNotFound,
		},
	}

	for name, tc := range tests {
		t.Run(name, func(t *testing.T) {
			req := require.New(t)
			err := tc.call()
			req.ErrorIs(err, tc.wantErr)
			if tc.wantSchema {
				var schemaErr *SchemaError
				req.ErrorAs(err, &schemaErr)
				return
			}
			var dataErr *DataError
			req.ErrorAs(err, &dataErr)
		})
	}
}

func TestHandle_DeleteColumns(t *testing.T) {
	t.Parallel()
	req := require.New(t)
	ctx := context.Background()
	h, d := openMemory(t, testSettings())
	req.True(h.Capabilities().RetainsDeletedVersions)
	req.NoError(h.CreateTable(ctx, "Customers", "orders"))

	put := func(key, column, v string) {
		req.NoError(h.PutColumns(ctx, "Customers", []byte(key), "orders", []string{column},
			[][]byte{[]byte(v)}))
	}
	put("u1", "x1", "x1Data")
	put("u1", "x1", "x1NewData")
	put("u1", "x2", "x2Data")
	put("u2", "y1", "y1Data")

	req.NoError(h.DeleteColumns(ctx, "Customers", []byte("u1"), "orders", []string{"x1"}))

	row, err := h.GetRow(ctx, "Customers", []byte("u1"))
	req.NoError(err)
	_, ok := row.Value("orders", "x1")
	req.False(ok, "the marker hides every earlier version")
	req.Equal("x2Data", value(t, row, "orders", "x2"))

	hidden, err := h.GetRowVersions(ctx, "Customers", []byte("u1"),
		model.ReadOptions{MaxVersions: 3, IncludeDeleted: true})
	req.NoError(err)
	x1 := hidden.Versions("orders", "x1")
	req.Len(x1, 2)
	for _, c := range x1 {
		req.True(c.Deleted)
	}

	// writes after the marker are visible again
	put("u1", "x1", "x1Revived")
	row, err = h.GetRow(ctx, "Customers", []byte("u1"))
	req.NoError(err)
	req.Equal("x1Revived", value(t, row, "orders", "x1"))

	// once the marker expires, compaction reclaims what it hid
	req.NoError(h.DeleteColumns(ctx, "Customers", []byte("u2"), "orders", []string{"y1"}))
	req.Positive(d.Store().CollectGarbage(time.Now().Add(2 * time.Hour)))
	hidden, err = h.GetRowVersions(ctx, "Customers", []byte("u2"),
		model.ReadOptions{IncludeDeleted: true})
	req.NoError(err)
	req.True(hidden.IsEmpty())

	rows, err := h.ScanTable(ctx, "Customers")
	req.Equal([]string{"u1"}, rowKeys(t, rows, err))
}

func TestHandle_Scans(t *testing.T) {
	t.Parallel()
	ctx := context.Background()
	h, _ := openMemory(t, testSettings())
	require.NoError(t, h.CreateTable(ctx, "Customers", "profile", "orders"))

	put := func(key, family string, kv ...string) {
		var columns []string
		var values [][]byte
		for i := 0; i+1 < len(kv); i += 2 {
			columns = append(columns, kv[i])
			values = append(values, []byte(kv[i+1]))
		}
		require.NoError(t, h.PutColumns(ctx, "Customers", []byte(key), family, columns, values))
	}
	put("u1", "profile", "name", "pippo", "born", "1993")
	put("u2", "profile", "name", "pluto", "born", "1990")
	put("a1", "profile", "name", "paperino", "born", "1993")
	put("a2", "profile", "name", "minnie")
	put("u1", "orders", "x1", "x1Data", "x2", "x2Data")
	put("u2", "orders", "y1", "y1Data")
	// the newest value decides the match
	put("a3", "profile", "born", "1993")
	put("a3", "profile", "born", "1994")

	tests := map[string]struct {
		open func() (*Rows, error)
		want []string
	}{
		"table": {
			open: func() (*Rows, error) { return h.ScanTable(ctx, "Customers") },
			want: []string{"a1", "a2", "a3", "u1", "u2"},
		},
		"family": {
			open: func() (*Rows, error) { return h.ScanFamily(ctx, "Customers", "orders") },
			want: []string{"u1", "u2"},
		},
		"prefix": {
			open: func() (*Rows, error) { return h.ScanByPrefix(ctx, "Customers", []byte("u")) },
			want: []string{"u1", "u2"},
		},
		"prefix without matches": {
			open: func() (*Rows, error) { return h.ScanByPrefix(ctx, "Customers", []byte("z")) },
			want: []string{},
		},
		"column value": {
			open: func() (*Rows, error) {
				return h.ScanByColumnValue(ctx, "Customers", []byte("a"), "profile", "born",
					[]byte("1993"))
			},
			want: []string{"a1"},
		},
		"column value without prefix": {
			open: func() (*Rows, error) {
				return h.ScanByColumnValue(ctx, "Customers", nil, "profile", "born",
					[]byte("1993"))
			},
			want: []string{"a1", "u1"},
		},
	}

	for name, tc := range tests {
		t.Run(name, func(t *testing.T) {
			rows, err := tc.open()
			require.Equal(t, tc.want, rowKeys(t, rows, err))
		})
	}

	t.Run("family scans only return that family", func(t *testing.T) {
		req := require.New(t)
		rows, err := h.ScanFamily(ctx, "Customers", "orders")
		req.NoError(err)
		all, err := rows.Collect()
		req.NoError(err)
		for _, r := range all {
			req.Equal([]string{"orders"}, r.Families())
		}
	})

	t.Run("closing early releases the scan", func(t *testing.T) {
		req := require.New(t)
		rows, err := h.ScanTable(ctx, "Customers")
		req.NoError(err)
		req.True(rows.Next())
		req.Equal("a1", string(rows.Row().Key))
		req.NoError(rows.Close())
		req.NoError(rows.Close())
		req.False(rows.Next())
		req.NoError(rows.Err())
	})
}

func TestHandle_Closed(t *testing.T) {
	t.Parallel()
	req := require.New(t)
	ctx := context.Background()

	h, err := Open(ctx, testSettings())
	req.NoError(err)
	req.NoError(h.Close())

	err = h.CreateTable(ctx, "t", "cf")
	req.ErrorIs(err, ErrHandleClosed)
	var schemaErr *SchemaError
	req.True(errors.As(err, &schemaErr))

	_, err = h.GetRow(ctx, "t", []byte("r"))
	req.ErrorIs(err, ErrHandleClosed)
}
