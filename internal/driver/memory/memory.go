// Package memory is the in-process driver. It runs the storage engine inside the caller's
// process and is what tests and the demo use when no cluster is configured.
package memory

import (
	"context"
	"fmt"
	"io"

	"github.com/litetable/widecolumn/internal/driver"
	"github.com/litetable/widecolumn/internal/storage"
	"github.com/litetable/widecolumn/pkg/model"
)

// Driver serves the driver contract from a storage.Manager.
type Driver struct {
	store *storage.Manager
	// owned is true when the driver started the store and must stop it.
	owned bool

	handles driver.Tracker
}

type Config struct {
	// Store is an already running engine to share. When nil, a private engine is created from
	// Storage and started.
	Store   *storage.Manager
	Storage storage.Config
}

// New returns a driver over cfg.Store, or over a new private engine.
func New(cfg *Config) (*Driver, error) {
	if cfg.Store != nil {
		return &Driver{store: cfg.Store}, nil
	}

	store, err := storage.New(&cfg.Storage)
	if err != nil {
		return nil, err
	}
	if err = store.Start(); err != nil {
		return nil, err
	}
	return &Driver{store: store, owned: true}, nil
}

// OpenHandles returns the number of acquired handles and scanners not yet closed.
func (d *Driver) OpenHandles() int64 {
	return d.handles.Open()
}

// Store exposes the engine behind the driver.
func (d *Driver) Store() *storage.Manager {
	return d.store
}

func (d *Driver) Admin(ctx context.Context) (driver.Admin, error) {
	h, err := d.handles.Acquire(ctx)
	if err != nil {
		return nil, err
	}
	return &admin{Handle: h, store: d.store}, nil
}

func (d *Driver) Table(ctx context.Context, name string) (driver.Table, error) {
	h, err := d.handles.Acquire(ctx)
	if err != nil {
		return nil, err
	}
	return &table{Handle: h, d: d, name: name}, nil
}

func (d *Driver) Capabilities() model.Capabilities {
	return d.store.Capabilities()
}

func (d *Driver) Close() error {
	if !d.handles.Shutdown() {
		return nil
	}
	if d.owned {
		return d.store.Stop()
	}
	return nil
}

type admin struct {
	*driver.Handle
	store *storage.Manager
}

func (a *admin) Tables(ctx context.Context) ([]string, error) {
	if err := a.Check(ctx); err != nil {
		return nil, err
	}
	return a.store.Tables(), nil
}

func (a *admin) CreateTable(ctx context.Context, name string, families []string) error {
	if err := a.Check(ctx); err != nil {
		return err
	}
	return a.store.CreateTable(name, families)
}

func (a *admin) DisableTable(ctx context.Context, name string) error {
	if err := a.Check(ctx); err != nil {
		return err
	}
	return a.store.DisableTable(name)
}

func (a *admin) EnableTable(ctx context.Context, name string) error {
	if err := a.Check(ctx); err != nil {
		return err
	}
	return a.store.EnableTable(name)
}

func (a *admin) IsTableEnabled(ctx context.Context, name string) (bool, error) {
	if err := a.Check(ctx); err != nil {
		return false, err
	}
	switch a.store.TableState(name) {
	case storage.StateEnabled:
		return true, nil
	case storage.StateDisabled:
		return false, nil
	default:
		return false, fmt.Errorf("%w: %s", model.ErrTableNotFound, name)
	}
}

func (a *admin) DeleteTable(ctx context.Context, name string) error {
	if err := a.Check(ctx); err != nil {
		return err
	}
	return a.store.DropTable(name)
}

func (a *admin) AddFamily(ctx context.Context, table, family string) error {
	if err := a.Check(ctx); err != nil {
		return err
	}
	return a.store.AddFamily(table, family)
}

func (a *admin) DeleteFamily(ctx context.Context, table, family string) error {
	if err := a.Check(ctx); err != nil {
		return err
	}
	return a.store.DeleteFamily(table, family)
}

func (a *admin) Families(ctx context.Context, table string) ([]string, error) {
	if err := a.Check(ctx); err != nil {
		return nil, err
	}
	return a.store.Families(table)
}

func (a *admin) Close() error {
	return a.Release()
}

type table struct {
	*driver.Handle
	d    *Driver
	name string
}

func (t *table) Put(ctx context.Context, key []byte, family string, muts []model.Mutation) error {
	if err := t.Check(ctx); err != nil {
		return err
	}
	_, err := t.d.store.Apply(t.name, key, family, muts)
	return err
}

func (t *table) Get(ctx context.Context, key []byte, opts model.ReadOptions) (*model.Row, error) {
	if err := t.Check(ctx); err != nil {
		return nil, err
	}
	return t.d.store.Get(t.name, key, opts)
}

func (t *table) Delete(ctx context.Context, key []byte, family string, qualifiers []string) error {
	if err := t.Check(ctx); err != nil {
		return err
	}
	_, err := t.d.store.Delete(t.name, key, family, qualifiers)
	return err
}

func (t *table) Scan(ctx context.Context, scan model.Scan) (driver.Scanner, error) {
	if err := t.Check(ctx); err != nil {
		return nil, err
	}
	s, err := t.d.store.Scan(ctx, t.name, scan)
	if err != nil {
		return nil, err
	}
	h, err := t.d.handles.Acquire(ctx)
	if err != nil {
		_ = s.Close()
		return nil, err
	}
	return &scanner{Handle: h, ctx: ctx, s: s}, nil
}

func (t *table) Close() error {
	return t.Release()
}

type scanner struct {
	*driver.Handle
	ctx context.Context
	s   *storage.Scanner
}

func (s *scanner) Next() (*model.Row, error) {
	if s.Released() {
		return nil, io.EOF
	}
	if err := s.ctx.Err(); err != nil {
		return nil, err
	}
	return s.s.Next()
}

func (s *scanner) Close() error {
	if err := s.Release(); err != nil {
		return err
	}
	return s.s.Close()
}
