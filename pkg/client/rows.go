package client

import (
	"errors"
	"io"

	"github.com/litetable/widecolumn/internal/driver"
	"github.com/litetable/widecolumn/pkg/model"
)

// Rows is a lazy cursor over scan results. It holds store resources until Next returns false
// or Close is called. Rows is not safe for concurrent use.
//
//	rows, err := h.ScanByPrefix(ctx, "Customers", []byte("u"))
//	if err != nil {
//		return err
//	}
//	defer rows.Close()
//	for rows.Next() {
//		fmt.Println(rows.Row())
//	}
//	return rows.Err()
type Rows struct {
	h       *Handle
	op      string
	table   string
	tbl     driver.Table
	scanner driver.Scanner

	row    *model.Row
	err    error
	closed bool
}

// Next advances to the next row. It returns false when the scan is exhausted or failed, after
// releasing the scan's resources; Err tells which.
func (r *Rows) Next() bool {
	if r.closed {
		return false
	}
	row, err := r.scanner.Next()
	if err != nil {
		r.row = nil
		if !errors.Is(err, io.EOF) {
			r.err = r.h.dataFailed(r.op, r.table, err)
		}
		if closeErr := r.Close(); closeErr != nil && r.err == nil {
			r.err = closeErr
		}
		return false
	}
	r.row = row
	return true
}

// Row returns the row Next advanced to.
func (r *Rows) Row() *model.Row {
	return r.row
}

// Err returns the error that ended the iteration, if any.
func (r *Rows) Err() error {
	return r.err
}

// Close releases the scan. It is safe to call more than once.
func (r *Rows) Close() error {
	if r.closed {
		return nil
	}
	r.closed = true
	if err := errors.Join(r.scanner.Close(), r.tbl.Close()); err != nil {
		return r.h.dataFailed(r.op, r.table, err)
	}
	return nil
}

// Collect drains the remaining rows and closes the cursor.
func (r *Rows) Collect() ([]*model.Row, error) {
	var out []*model.Row
	for r.Next() {
		out = append(out, r.Row())
	}
	return out, r.Err()
}
