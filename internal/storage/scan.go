package storage

import (
	"bytes"
	"context"
	"fmt"
	"io"
	"sort"
	"sync"

	"github.com/litetable/widecolumn/pkg/model"
	"golang.org/x/sync/errgroup"
)

// Scanner walks a snapshot of row keys in ascending byte order and materializes each row on
// demand. Rows written after the scan opened are not visited; rows deleted since are skipped.
type Scanner struct {
	t    *table
	scan model.Scan
	keys [][]byte
	pos  int

	mutex  sync.Mutex
	closed bool
}

// Scan opens a scanner over name. Matching keys of every shard are collected in parallel.
func (m *Manager) Scan(ctx context.Context, name string, scan model.Scan) (*Scanner, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	t, err := m.readable(name)
	if err != nil {
		return nil, err
	}
	if scan.Family != "" {
		t.mutex.RLock()
		ok := t.hasFamily(scan.Family)
		t.mutex.RUnlock()
		if !ok {
			return nil, fmt.Errorf("%w: %s:%s", model.ErrFamilyNotFound, name, scan.Family)
		}
	}

	perShard := make([][][]byte, len(t.shards))
	g, gctx := errgroup.WithContext(ctx)
	for i, s := range t.shards {
		g.Go(func() error {
			s.mutex.RLock()
			defer s.mutex.RUnlock()

			local := make([][]byte, 0, len(s.rows))
			for key := range s.rows {
				if err := gctx.Err(); err != nil {
					return err
				}
				if bytes.HasPrefix([]byte(key), scan.Prefix) {
					local = append(local, []byte(key))
				}
			}
			perShard[i] = local
			return nil
		})
	}
	if err = g.Wait(); err != nil {
		return nil, err
	}

	var keys [][]byte
	for _, local := range perShard {
		keys = append(keys, local...)
	}
	sort.Slice(keys, func(i, j int) bool {
		return bytes.Compare(keys[i], keys[j]) < 0
	})

	return &Scanner{t: t, scan: scan, keys: keys}, nil
}

// Next returns the next non-empty row that passes the scan's filter, or io.EOF.
func (s *Scanner) Next() (*model.Row, error) {
	s.mutex.Lock()
	defer s.mutex.Unlock()

	if s.closed {
		return nil, io.EOF
	}
	for s.pos < len(s.keys) {
		if err := s.check(); err != nil {
			return nil, err
		}

		key := s.keys[s.pos]
		s.pos++

		// the filter sees the whole row so it can test a column outside the scanned family
		full := s.t.materialize(key, "", s.scan.ReadOptions)
		if full.IsEmpty() {
			continue
		}
		if s.scan.Filter != nil && !s.scan.Filter.Matches(full) {
			continue
		}
		out := full.Restrict(s.scan.Family)
		if out.IsEmpty() {
			continue
		}
		return out, nil
	}
	return nil, io.EOF
}

// Close releases the key snapshot. It is safe to call more than once.
func (s *Scanner) Close() error {
	s.mutex.Lock()
	defer s.mutex.Unlock()
	s.closed = true
	s.keys = nil
	return nil
}

func (s *Scanner) check() error {
	s.t.mutex.RLock()
	defer s.t.mutex.RUnlock()
	switch s.t.state {
	case StateAbsent:
		return notFound(s.t.name)
	case StateDisabled:
		return fmt.Errorf("%w: %s", model.ErrTableDisabled, s.t.name)
	}
	return nil
}
