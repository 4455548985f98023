// Package bigtable is the driver for Cloud Bigtable and its emulator.
//
// Bigtable has no enabled/disabled table states and applies deletes physically, so the driver
// reports neither capability. Disable and enable only check that the table exists.
package bigtable

import (
	"context"
	"errors"
	"fmt"
	"slices"
	"strings"

	"cloud.google.com/go/bigtable"
	"github.com/litetable/widecolumn/internal/driver"
	"github.com/litetable/widecolumn/pkg/model"
	"github.com/rs/zerolog/log"
	"google.golang.org/api/option"
	"google.golang.org/grpc"
	"google.golang.org/grpc/codes"
	"google.golang.org/grpc/credentials/insecure"
	"google.golang.org/grpc/status"
)

const defaultMaxVersions = 3

// Driver serves the driver contract from a Bigtable instance.
type Driver struct {
	client      *bigtable.Client
	admin       *bigtable.AdminClient
	maxVersions int

	handles driver.Tracker
}

type Config struct {
	// MasterAddress names the instance as projects/<project>/instances/<instance>.
	MasterAddress string
	// Endpoint is the data and admin host:port. Empty uses the production endpoints.
	Endpoint string
	// Plaintext connects without TLS and credentials, as the emulator expects.
	Plaintext bool
	// MaxVersions is the GC policy applied to families the driver creates.
	MaxVersions int
	// ClientOptions are appended to the options derived from the fields above. Both clients
	// receive them, so an injected connection is closed once by each.
	ClientOptions []option.ClientOption
}

func (c *Config) validate() error {
	var errGrp []error
	if _, _, err := ParseMasterAddress(c.MasterAddress); err != nil {
		errGrp = append(errGrp, err)
	}
	if c.MaxVersions < 0 {
		errGrp = append(errGrp, fmt.Errorf("max versions cannot be negative"))
	}
	return errors.Join(errGrp...)
}

// ParseMasterAddress splits projects/<project>/instances/<instance>.
func ParseMasterAddress(addr string) (project, instance string, err error) {
	parts := strings.Split(addr, "/")
	if len(parts) != 4 || parts[0] != "projects" || parts[2] != "instances" ||
		parts[1] == "" || parts[3] == "" {
		return "", "", fmt.Errorf("master address %q must look like "+
			"projects/<project>/instances/<instance>", addr)
	}
	return parts[1], parts[3], nil
}

// New creates the data and admin clients.
func New(ctx context.Context, cfg *Config) (*Driver, error) {
	if err := cfg.validate(); err != nil {
		return nil, err
	}
	project, instance, _ := ParseMasterAddress(cfg.MasterAddress)

	var opts []option.ClientOption
	if cfg.Endpoint != "" {
		opts = append(opts, option.WithEndpoint(cfg.Endpoint))
	}
	if cfg.Plaintext {
		opts = append(opts,
			option.WithoutAuthentication(),
			option.WithGRPCDialOption(grpc.WithTransportCredentials(insecure.NewCredentials())))
	}
	opts = append(opts, cfg.ClientOptions...)

	var clientCfg bigtable.ClientConfig
	if cfg.Plaintext {
		// the emulator has no monitoring endpoint to export client metrics to
		clientCfg.MetricsProvider = bigtable.NoopMetricsProvider{}
	}

	adminClient, err := bigtable.NewAdminClient(ctx, project, instance, opts...)
	if err != nil {
		return nil, fmt.Errorf("could not create admin client: %w", err)
	}
	client, err := bigtable.NewClientWithConfig(ctx, project, instance, clientCfg,
		opts...)
	if err != nil {
		_ = adminClient.Close()
		return nil, fmt.Errorf("could not create data operations client: %w", err)
	}

	maxVersions := cfg.MaxVersions
	if maxVersions == 0 {
		maxVersions = defaultMaxVersions
	}

	log.Debug().Msgf("bigtable driver ready for %s/%s", project, instance)
	return &Driver{
		client:      client,
		admin:       adminClient,
		maxVersions: maxVersions,
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
	return &admin{Handle: h, d: d}, nil
}

func (d *Driver) Table(ctx context.Context, name string) (driver.Table, error) {
	h, err := d.handles.Acquire(ctx)
	if err != nil {
		return nil, err
	}
	return &table{Handle: h, d: d, name: name, tbl: d.client.Open(name)}, nil
}

func (d *Driver) Capabilities() model.Capabilities {
	return model.Capabilities{}
}

func (d *Driver) Close() error {
	if !d.handles.Shutdown() {
		return nil
	}
	return errors.Join(closeClient(d.client.Close()), closeClient(d.admin.Close()))
}

// closeClient drops the error of a connection the other client already closed.
func closeClient(err error) error {
	if status.Code(err) == codes.Canceled {
		return nil
	}
	return err
}

// families returns the sorted families of a table, or model.ErrTableNotFound.
func (d *Driver) families(ctx context.Context, name string) ([]string, error) {
	info, err := d.admin.TableInfo(ctx, name)
	if err != nil {
		return nil, translate(err, name)
	}
	families := slices.Clone(info.Families)
	slices.Sort(families)
	return families, nil
}

// requireFamily fails unless the table exists and owns family.
func (d *Driver) requireFamily(ctx context.Context, name, family string) error {
	families, err := d.families(ctx, name)
	if err != nil {
		return err
	}
	if !slices.Contains(families, family) {
		return fmt.Errorf("%w: %s in table %s", model.ErrFamilyNotFound, family, name)
	}
	return nil
}

// translate maps Bigtable status codes onto model sentinels, keeping the original error.
func translate(err error, name string) error {
	if err == nil {
		return nil
	}
	switch status.Code(err) {
	case codes.NotFound:
		return fmt.Errorf("%w: %s: %w", model.ErrTableNotFound, name, err)
	case codes.AlreadyExists:
		return fmt.Errorf("%w: %s: %w", model.ErrTableExists, name, err)
	case codes.Canceled:
		return fmt.Errorf("%w: %w", context.Canceled, err)
	case codes.DeadlineExceeded:
		return fmt.Errorf("%w: %w", context.DeadlineExceeded, err)
	}
	return err
}
