// Package client is the facade over a sparse, versioned, column-family store.
//
// A Handle is opened once and shared; every schema and data operation acquires the store
// resources it needs and releases them before returning, except scans, which hold them until
// the returned Rows is closed or exhausted. Failures are reported as *ConfigurationError,
// *SchemaError or *DataError wrapping the store's cause, which can be matched with errors.Is
// against the sentinels of this package.
package client

import (
	"context"
	"fmt"
	"net"
	"strconv"

	"github.com/litetable/widecolumn/internal/driver"
	"github.com/litetable/widecolumn/internal/driver/bigtable"
	"github.com/litetable/widecolumn/internal/driver/memory"
	"github.com/litetable/widecolumn/internal/driver/remote"
	"github.com/litetable/widecolumn/internal/storage"
	"github.com/litetable/widecolumn/pkg/model"
	"github.com/rs/zerolog"
)

// Handle is a connection to a store. It is safe for concurrent use.
type Handle struct {
	driver driver.Driver
	log    zerolog.Logger
}

// Option customizes a Handle.
type Option func(*Handle)

// WithLogger makes the handle log its operations at debug level. Handles log nothing by
// default.
func WithLogger(l zerolog.Logger) Option {
	return func(h *Handle) {
		h.log = l
	}
}

// Open validates settings and connects to the store they describe.
func Open(ctx context.Context, s Settings, opts ...Option) (*Handle, error) {
	if err := s.validate(); err != nil {
		return nil, err
	}

	d, err := openDriver(ctx, &s)
	if err != nil {
		return nil, &ConfigurationError{Setting: "connection", Err: err}
	}

	h := newHandle(d, opts...)
	h.log.Debug().
		Str("driver", string(s.driver())).
		Str("quorum", net.JoinHostPort(s.QuorumHost, strconv.Itoa(s.QuorumPort))).
		Str("master", s.MasterAddress).
		Msg("store handle opened")
	return h, nil
}

func newHandle(d driver.Driver, opts ...Option) *Handle {
	h := &Handle{
		driver: d,
		log:    zerolog.Nop(),
	}
	for _, opt := range opts {
		opt(h)
	}
	return h
}

func openDriver(ctx context.Context, s *Settings) (driver.Driver, error) {
	switch s.driver() {
	case DriverMemory:
		return memory.New(&memory.Config{
			Storage: storage.Config{
				MaxVersions:               s.MaxVersions,
				FamilyDropRequiresDisable: s.FamilyDropRequiresDisable,
			},
		})
	case DriverRemote:
		return remote.New(ctx, &remote.Config{
			Host:          s.QuorumHost,
			Port:          s.QuorumPort,
			MasterAddress: s.MasterAddress,
			Plaintext:     s.Plaintext,
			DialTimeout:   s.DialTimeout,
		})
	case DriverBigtable:
		d, err := bigtable.New(ctx, &bigtable.Config{
			MasterAddress: s.MasterAddress,
			Endpoint:      net.JoinHostPort(s.QuorumHost, strconv.Itoa(s.QuorumPort)),
			Plaintext:     s.Plaintext,
			MaxVersions:   s.MaxVersions,
		})
		if err != nil {
			return nil, err
		}
		// the clients dial lazily; list tables once so an unreachable instance fails here
		if err = ping(ctx, d, s); err != nil {
			_ = d.Close()
			return nil, err
		}
		return d, nil
	}
	return nil, fmt.Errorf("%w: %q", model.ErrUnsupportedStore, s.Driver)
}

func ping(ctx context.Context, d driver.Driver, s *Settings) error {
	if s.DialTimeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, s.DialTimeout)
		defer cancel()
	}
	a, err := d.Admin(ctx)
	if err != nil {
		return err
	}
	_, err = a.Tables(ctx)
	if closeErr := a.Close(); err == nil {
		err = closeErr
	}
	return err
}

// Capabilities reports how the connected store differs from the full table lifecycle.
func (h *Handle) Capabilities() model.Capabilities {
	return h.driver.Capabilities()
}

// Close releases the connection. Operations on a closed handle fail with ErrHandleClosed.
func (h *Handle) Close() error {
	return h.driver.Close()
}
