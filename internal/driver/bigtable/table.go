package bigtable

import (
	"context"
	"io"
	"regexp"
	"strings"

	"cloud.google.com/go/bigtable"
	"github.com/litetable/widecolumn/internal/driver"
	"github.com/litetable/widecolumn/pkg/model"
)

type table struct {
	*driver.Handle
	d    *Driver
	name string
	tbl  *bigtable.Table
}

// Put writes every mutation in one atomic row mutation. Bigtable stores timestamps at
// millisecond granularity, so store-assigned and explicit timestamps are truncated.
func (t *table) Put(ctx context.Context, key []byte, family string, muts []model.Mutation) error {
	if err := t.Check(ctx); err != nil {
		return err
	}
	if len(muts) == 0 {
		return model.ErrNoColumns
	}
	if err := t.d.requireFamily(ctx, t.name, family); err != nil {
		return err
	}

	now := bigtable.Now()
	mut := bigtable.NewMutation()
	for _, m := range muts {
		ts := now
		if m.Timestamp != 0 {
			ts = bigtable.Timestamp(m.Timestamp).TruncateToMilliseconds()
		}
		mut.Set(family, m.Qualifier, ts, m.Value)
	}
	return translate(t.tbl.Apply(ctx, string(key), mut), t.name)
}

func (t *table) Get(ctx context.Context, key []byte, opts model.ReadOptions) (*model.Row, error) {
	if err := t.Check(ctx); err != nil {
		return nil, err
	}
	r, err := t.tbl.ReadRow(ctx, string(key),
		bigtable.RowFilter(bigtable.LatestNFilter(opts.Versions())))
	if err != nil {
		return nil, translate(err, t.name)
	}
	return toRow(key, r), nil
}

// Delete removes every version of the given columns.
func (t *table) Delete(ctx context.Context, key []byte, family string, qualifiers []string) error {
	if err := t.Check(ctx); err != nil {
		return err
	}
	if len(qualifiers) == 0 {
		return model.ErrNoColumns
	}
	if err := t.d.requireFamily(ctx, t.name, family); err != nil {
		return err
	}

	mut := bigtable.NewMutation()
	for _, q := range qualifiers {
		mut.DeleteCellsInColumn(family, q)
	}
	return translate(t.tbl.Apply(ctx, string(key), mut), t.name)
}

// Scan checks the table and family before streaming, then reads rows on a goroutine that
// stops when the scanner is closed.
func (t *table) Scan(ctx context.Context, scan model.Scan) (driver.Scanner, error) {
	if err := t.Check(ctx); err != nil {
		return nil, err
	}
	if scan.Family != "" {
		if err := t.d.requireFamily(ctx, t.name, scan.Family); err != nil {
			return nil, err
		}
	} else if _, err := t.d.families(ctx, t.name); err != nil {
		return nil, err
	}

	h, err := t.d.handles.Acquire(ctx)
	if err != nil {
		return nil, err
	}

	var rowSet bigtable.RowSet = bigtable.InfiniteRange("")
	if len(scan.Prefix) > 0 {
		rowSet = bigtable.PrefixRange(string(scan.Prefix))
	}

	sctx, cancel := context.WithCancel(ctx)
	s := &scanner{
		Handle: h,
		ctx:    sctx,
		cancel: cancel,
		table:  t.name,
		rows:   make(chan *model.Row),
		errc:   make(chan error, 1),
	}
	go func() {
		defer close(s.rows)
		s.errc <- t.tbl.ReadRows(sctx, rowSet, func(r bigtable.Row) bool {
			select {
			case s.rows <- toRow([]byte(r.Key()), r):
				return true
			case <-sctx.Done():
				return false
			}
		}, bigtable.RowFilter(scanFilter(scan)))
	}()
	return s, nil
}

func (t *table) Close() error {
	return t.Release()
}

// scanFilter keeps rows matching the column value filter, then restricts families and
// versions.
func scanFilter(scan model.Scan) bigtable.Filter {
	var chain []bigtable.Filter
	if f := scan.Filter; f != nil {
		predicate := bigtable.ChainFilters(
			bigtable.FamilyFilter(regexp.QuoteMeta(f.Family)),
			bigtable.ColumnFilter(regexp.QuoteMeta(f.Qualifier)),
			bigtable.LatestNFilter(1),
			bigtable.ValueFilter(regexp.QuoteMeta(string(f.Value))),
		)
		chain = append(chain,
			bigtable.ConditionFilter(predicate, bigtable.PassAllFilter(), bigtable.BlockAllFilter()))
	}
	if scan.Family != "" {
		chain = append(chain, bigtable.FamilyFilter(regexp.QuoteMeta(scan.Family)))
	}
	chain = append(chain, bigtable.LatestNFilter(scan.Versions()))
	if len(chain) == 1 {
		return chain[0]
	}
	return bigtable.ChainFilters(chain...)
}

func toRow(key []byte, r bigtable.Row) *model.Row {
	row := model.NewRow(key)
	for family, items := range r {
		for _, it := range items {
			row.Cells = append(row.Cells, model.Cell{
				Family:    family,
				Qualifier: strings.TrimPrefix(it.Column, family+":"),
				Value:     it.Value,
				Timestamp: model.Timestamp(it.Timestamp),
			})
		}
	}
	row.SortCells()
	return row
}

type scanner struct {
	*driver.Handle
	ctx    context.Context
	cancel context.CancelFunc
	table  string

	rows chan *model.Row
	errc chan error
	done bool
}

func (s *scanner) Next() (*model.Row, error) {
	if s.Released() || s.done {
		return nil, io.EOF
	}
	if r, ok := <-s.rows; ok {
		return r, nil
	}

	s.done = true
	readErr := <-s.errc
	if err := s.ctx.Err(); err != nil {
		return nil, err
	}
	if readErr != nil {
		return nil, translate(readErr, s.table)
	}
	return nil, io.EOF
}

func (s *scanner) Close() error {
	if err := s.Release(); err != nil {
		return err
	}
	s.cancel()
	return nil
}
