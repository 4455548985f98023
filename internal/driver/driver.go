// Package driver defines the contract every backing store implements for the client facade.
//
// A Driver is long-lived and shared. Admin and Table handles are acquired per call and must be
// closed by the caller on every path; a Scanner holds its table handle's resources until it is
// closed. Drivers translate their own transport failures into the model sentinels when the
// condition is recognizable and return the transport error unchanged otherwise.
package driver

import (
	"context"

	"github.com/litetable/widecolumn/pkg/model"
)

//go:generate mockgen -destination=./driver_mock.go -package=driver -source=driver.go

// Driver is a connection to a backing store.
type Driver interface {
	// Admin acquires a handle for schema operations.
	Admin(ctx context.Context) (Admin, error)
	// Table acquires a handle for data operations on one table.
	Table(ctx context.Context, name string) (Table, error)
	// Capabilities reports behavior that differs between stores.
	Capabilities() model.Capabilities
	// Close releases the connection.
	Close() error
}

// Admin performs schema operations.
type Admin interface {
	Tables(ctx context.Context) ([]string, error)
	CreateTable(ctx context.Context, name string, families []string) error
	DisableTable(ctx context.Context, name string) error
	EnableTable(ctx context.Context, name string) error
	IsTableEnabled(ctx context.Context, name string) (bool, error)
	DeleteTable(ctx context.Context, name string) error
	AddFamily(ctx context.Context, table, family string) error
	DeleteFamily(ctx context.Context, table, family string) error
	// Families returns the table's families in ascending order.
	Families(ctx context.Context, table string) ([]string, error)
	Close() error
}

// Table performs data operations on one table.
type Table interface {
	// Put writes every mutation under (key, family) atomically.
	Put(ctx context.Context, key []byte, family string, muts []model.Mutation) error
	// Get returns the row for key; a key without cells yields an empty row.
	Get(ctx context.Context, key []byte, opts model.ReadOptions) (*model.Row, error)
	// Delete writes a delete marker for each qualifier at the current time.
	Delete(ctx context.Context, key []byte, family string, qualifiers []string) error
	// Scan opens a cursor. Errors about the table surface here, not on the first Next.
	Scan(ctx context.Context, scan model.Scan) (Scanner, error)
	Close() error
}

// Scanner is a pull cursor over rows in ascending key order.
type Scanner interface {
	// Next returns the next row or io.EOF when the scan is exhausted.
	Next() (*model.Row, error)
	Close() error
}
