// Package remote is the driver for a store served by `widecolumn serve`. Every call is a
// gRPC request on one shared client connection; scans are server streams read lazily.
package remote

import (
	"context"
	"crypto/tls"
	"errors"
	"fmt"
	"io"
	"net"
	"strconv"
	"time"

	"github.com/litetable/widecolumn/internal/driver"
	"github.com/litetable/widecolumn/internal/wire"
	"github.com/litetable/widecolumn/pkg/model"
	"github.com/rs/zerolog/log"
	"google.golang.org/grpc"
	"google.golang.org/grpc/credentials"
	"google.golang.org/grpc/credentials/insecure"
)

const defaultDialTimeout = 10 * time.Second

// Driver talks to a remote store.
type Driver struct {
	conn   *grpc.ClientConn
	client *wire.StoreClient
	caps   model.Capabilities

	handles driver.Tracker
}

type Config struct {
	Host string
	Port int
	// MasterAddress must match the address announced by the server.
	MasterAddress string
	// Plaintext disables TLS.
	Plaintext   bool
	DialTimeout time.Duration
}

func (c *Config) validate() error {
	var errGrp []error
	if c.Host == "" {
		errGrp = append(errGrp, fmt.Errorf("host required"))
	}
	if c.Port <= 0 || c.Port > 65535 {
		errGrp = append(errGrp, fmt.Errorf("port out of range: %d", c.Port))
	}
	if c.MasterAddress == "" {
		errGrp = append(errGrp, fmt.Errorf("master address required"))
	}
	return errors.Join(errGrp...)
}

// New connects to the server and checks that it serves the configured master.
func New(ctx context.Context, cfg *Config) (*Driver, error) {
	if err := cfg.validate(); err != nil {
		return nil, err
	}
	timeout := cfg.DialTimeout
	if timeout == 0 {
		timeout = defaultDialTimeout
	}

	creds := credentials.NewTLS(&tls.Config{MinVersion: tls.VersionTLS12})
	if cfg.Plaintext {
		creds = insecure.NewCredentials()
	}

	target := net.JoinHostPort(cfg.Host, strconv.Itoa(cfg.Port))
	conn, err := grpc.NewClient(target, grpc.WithTransportCredentials(creds))
	if err != nil {
		return nil, fmt.Errorf("failed to create client for %s: %w", target, err)
	}

	client := wire.NewStoreClient(conn)

	infoCtx, cancel := context.WithTimeout(ctx, timeout)
	defer cancel()
	info, err := client.ClusterInfo(infoCtx, &wire.ClusterInfoRequest{})
	if err != nil {
		_ = conn.Close()
		return nil, fmt.Errorf("failed to reach %s: %w", target, wire.FromStatus(err))
	}
	if info.MasterAddress != cfg.MasterAddress {
		_ = conn.Close()
		return nil, fmt.Errorf("%w: configured %s, cluster reports %s", model.ErrMasterMismatch,
			cfg.MasterAddress, info.MasterAddress)
	}

	log.Debug().Msgf("connected to %s (master %s)", target, info.MasterAddress)
	return &Driver{
		conn:   conn,
		client: client,
		caps:   info.Capabilities,
	}, nil
}

// OpenHandles returns the number of acquired handles and scanners not yet closed.
func (d *Driver) OpenHandles() int64 {
	return d.handles.Open()
}

func (d *Driver) Admin(ctx context.Context) (driver.Admin, error) {
	h, err := d.handles.Acquire(ctx)
	if err != nil {
		return nil, err
	}
	return &admin{Handle: h, client: d.client}, nil
}

func (d *Driver) Table(ctx context.Context, name string) (driver.Table, error) {
	h, err := d.handles.Acquire(ctx)
	if err != nil {
		return nil, err
	}
	return &table{Handle: h, d: d, name: name}, nil
}

// Capabilities are the ones announced by the server at connect time.
func (d *Driver) Capabilities() model.Capabilities {
	return d.caps
}

func (d *Driver) Close() error {
	if !d.handles.Shutdown() {
		return nil
	}
	return d.conn.Close()
}

type admin struct {
	*driver.Handle
	client *wire.StoreClient
}

func (a *admin) Tables(ctx context.Context) ([]string, error) {
	if err := a.Check(ctx); err != nil {
		return nil, err
	}
	resp, err := a.client.ListTables(ctx, &wire.ListTablesRequest{})
	if err != nil {
		return nil, wire.FromStatus(err)
	}
	return resp.Tables, nil
}

func (a *admin) CreateTable(ctx context.Context, name string, families []string) error {
	if err := a.Check(ctx); err != nil {
		return err
	}
	return wire.FromStatus(a.client.CreateTable(ctx,
		&wire.CreateTableRequest{Table: name, Families: families}))
}

func (a *admin) DisableTable(ctx context.Context, name string) error {
	if err := a.Check(ctx); err != nil {
		return err
	}
	return wire.FromStatus(a.client.DisableTable(ctx, &wire.TableRequest{Table: name}))
}

func (a *admin) EnableTable(ctx context.Context, name string) error {
	if err := a.Check(ctx); err != nil {
		return err
	}
	return wire.FromStatus(a.client.EnableTable(ctx, &wire.TableRequest{Table: name}))
}

func (a *admin) IsTableEnabled(ctx context.Context, name string) (bool, error) {
	if err := a.Check(ctx); err != nil {
		return false, err
	}
	resp, err := a.client.IsTableEnabled(ctx, &wire.TableRequest{Table: name})
	if err != nil {
		return false, wire.FromStatus(err)
	}
	return resp.Enabled, nil
}

func (a *admin) DeleteTable(ctx context.Context, name string) error {
	if err := a.Check(ctx); err != nil {
		return err
	}
	return wire.FromStatus(a.client.DeleteTable(ctx, &wire.TableRequest{Table: name}))
}

func (a *admin) AddFamily(ctx context.Context, table, family string) error {
	if err := a.Check(ctx); err != nil {
		return err
	}
	return wire.FromStatus(a.client.AddFamily(ctx,
		&wire.FamilyRequest{Table: table, Family: family}))
}

func (a *admin) DeleteFamily(ctx context.Context, table, family string) error {
	if err := a.Check(ctx); err != nil {
		return err
	}
	return wire.FromStatus(a.client.DeleteFamily(ctx,
		&wire.FamilyRequest{Table: table, Family: family}))
}

func (a *admin) Families(ctx context.Context, table string) ([]string, error) {
	if err := a.Check(ctx); err != nil {
		return nil, err
	}
	resp, err := a.client.ListFamilies(ctx, &wire.TableRequest{Table: table})
	if err != nil {
		return nil, wire.FromStatus(err)
	}
	return resp.Families, nil
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
	return wire.FromStatus(t.d.client.Put(ctx, &wire.PutRequest{
		Table:     t.name,
		RowKey:    key,
		Family:    family,
		Mutations: muts,
	}))
}

func (t *table) Get(ctx context.Context, key []byte, opts model.ReadOptions) (*model.Row, error) {
	if err := t.Check(ctx); err != nil {
		return nil, err
	}
	resp, err := t.d.client.Get(ctx, &wire.GetRequest{Table: t.name, RowKey: key, Options: opts})
	if err != nil {
		return nil, wire.FromStatus(err)
	}
	if resp.Row == nil {
		return model.NewRow(key), nil
	}
	return resp.Row, nil
}

func (t *table) Delete(ctx context.Context, key []byte, family string, qualifiers []string) error {
	if err := t.Check(ctx); err != nil {
		return err
	}
	return wire.FromStatus(t.d.client.Delete(ctx, &wire.DeleteRequest{
		Table:      t.name,
		RowKey:     key,
		Family:     family,
		Qualifiers: qualifiers,
	}))
}

// Scan opens the stream and reads the first row, so a scan over a missing or disabled table
// fails here rather than on the first Next.
func (t *table) Scan(ctx context.Context, scan model.Scan) (driver.Scanner, error) {
	if err := t.Check(ctx); err != nil {
		return nil, err
	}

	streamCtx, cancel := context.WithCancel(ctx)
	stream, err := t.d.client.Scan(streamCtx, &wire.ScanRequest{Table: t.name, Scan: scan})
	if err != nil {
		cancel()
		return nil, wire.FromStatus(err)
	}

	first, err := stream.Recv()
	eof := errors.Is(err, io.EOF)
	if err != nil && !eof {
		cancel()
		return nil, wire.FromStatus(err)
	}

	h, err := t.d.handles.Acquire(ctx)
	if err != nil {
		cancel()
		return nil, err
	}
	return &scanner{
		Handle: h,
		stream: stream,
		cancel: cancel,
		next:   first,
		eof:    eof,
	}, nil
}

func (t *table) Close() error {
	return t.Release()
}

type scanner struct {
	*driver.Handle
	stream *wire.ScanClient
	cancel context.CancelFunc

	// next is the row read ahead of the caller.
	next *model.Row
	eof  bool
}

func (s *scanner) Next() (*model.Row, error) {
	if s.Released() || s.eof {
		return nil, io.EOF
	}
	if s.next != nil {
		r := s.next
		s.next = nil
		return r, nil
	}

	r, err := s.stream.Recv()
	if errors.Is(err, io.EOF) {
		s.eof = true
		return nil, io.EOF
	}
	if err != nil {
		return nil, wire.FromStatus(err)
	}
	return r, nil
}

func (s *scanner) Close() error {
	if err := s.Release(); err != nil {
		return err
	}
	s.cancel()
	return nil
}
