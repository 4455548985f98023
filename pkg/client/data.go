package client

import (
	"context"
	"fmt"

	"github.com/litetable/widecolumn/internal/driver"
	"github.com/litetable/widecolumn/pkg/model"
)

// withTable runs fn on a fresh table handle and closes it. A close failure is the call's error
// when fn succeeded.
func (h *Handle) withTable(ctx context.Context, op, table string, fn func(driver.Table) error) error {
	t, err := h.driver.Table(ctx, table)
	if err != nil {
		return h.dataFailed(op, table, err)
	}
	err = fn(t)
	if closeErr := t.Close(); closeErr != nil && err == nil {
		err = closeErr
	}
	if err != nil {
		return h.dataFailed(op, table, err)
	}
	return nil
}

func (h *Handle) dataFailed(op, table string, err error) error {
	h.log.Debug().Err(err).Str("op", op).Str("table", table).Msg("data operation failed")
	return &DataError{Op: op, Table: table, Err: err}
}

// PutColumns writes columns[i] = values[i] under (rowKey, family) as one atomic write. Every
// cell gets the same new timestamp.
func (h *Handle) PutColumns(ctx context.Context, table string, rowKey []byte, family string,
	columns []string, values [][]byte) error {
	const op = "put columns"
	if len(columns) == 0 {
		return h.dataFailed(op, table, ErrNoColumns)
	}
	if len(columns) != len(values) {
		return h.dataFailed(op, table, fmt.Errorf("%w: %d columns, %d values", ErrLengthMismatch,
			len(columns), len(values)))
	}

	muts := make([]model.Mutation, len(columns))
	for i, c := range columns {
		muts[i] = model.Mutation{Qualifier: c, Value: values[i]}
	}
	return h.withTable(ctx, op, table, func(t driver.Table) error {
		return t.Put(ctx, rowKey, family, muts)
	})
}

// GetRow returns the latest visible version of every cell of the row. A row without cells is
// returned empty, not as an error.
func (h *Handle) GetRow(ctx context.Context, table string, rowKey []byte) (*model.Row, error) {
	return h.getRow(ctx, "get row", table, rowKey, model.ReadOptions{})
}

// GetRowVersions returns up to opts.MaxVersions versions per column. With opts.IncludeDeleted
// it also returns versions hidden by delete markers the store still retains, flagged
// Cell.Deleted.
func (h *Handle) GetRowVersions(ctx context.Context, table string, rowKey []byte,
	opts model.ReadOptions) (*model.Row, error) {
	return h.getRow(ctx, "get row versions", table, rowKey, opts)
}

func (h *Handle) getRow(ctx context.Context, op, table string, rowKey []byte,
	opts model.ReadOptions) (*model.Row, error) {
	var row *model.Row
	err := h.withTable(ctx, op, table, func(t driver.Table) error {
		var err error
		row, err = t.Get(ctx, rowKey, opts)
		return err
	})
	if err != nil {
		return nil, err
	}
	if row == nil {
		row = model.NewRow(rowKey)
	}
	return row, nil
}

// DeleteColumns writes a delete marker at the current time for each column, hiding every
// version written before it.
func (h *Handle) DeleteColumns(ctx context.Context, table string, rowKey []byte, family string,
	columns []string) error {
	const op = "delete columns"
	if len(columns) == 0 {
		return h.dataFailed(op, table, ErrNoColumns)
	}
	return h.withTable(ctx, op, table, func(t driver.Table) error {
		return t.Delete(ctx, rowKey, family, columns)
	})
}

// ScanTable iterates every row of the table in ascending key order.
func (h *Handle) ScanTable(ctx context.Context, table string) (*Rows, error) {
	return h.scan(ctx, "scan table", table, model.Scan{})
}

// ScanFamily iterates every row holding cells in family, restricted to that family.
func (h *Handle) ScanFamily(ctx context.Context, table, family string) (*Rows, error) {
	return h.scan(ctx, "scan family", table, model.Scan{Family: family})
}

// ScanByPrefix iterates the rows whose key starts with prefix.
func (h *Handle) ScanByPrefix(ctx context.Context, table string, prefix []byte) (*Rows, error) {
	return h.scan(ctx, "scan by prefix", table, model.Scan{Prefix: prefix})
}

// ScanByColumnValue iterates the rows whose key starts with prefix and whose latest visible
// family:column value equals expected. Rows lacking the column are skipped.
func (h *Handle) ScanByColumnValue(ctx context.Context, table string, prefix []byte,
	family, column string, expected []byte) (*Rows, error) {
	return h.scan(ctx, "scan by column value", table, model.Scan{
		Prefix: prefix,
		Filter: &model.ColumnValueFilter{Family: family, Qualifier: column, Value: expected},
	})
}

func (h *Handle) scan(ctx context.Context, op, table string, scan model.Scan) (*Rows, error) {
	t, err := h.driver.Table(ctx, table)
	if err != nil {
		return nil, h.dataFailed(op, table, err)
	}
	s, err := t.Scan(ctx, scan)
	if err != nil {
		_ = t.Close()
		return nil, h.dataFailed(op, table, err)
	}
	h.log.Debug().Str("op", op).Str("table", table).Msg("scan opened")
	return &Rows{h: h, op: op, table: table, tbl: t, scanner: s}, nil
}
