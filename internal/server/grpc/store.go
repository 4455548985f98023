package grpc

import (
	"context"
	"errors"
	"fmt"
	"io"
	"time"

	"github.com/litetable/widecolumn/internal/metrics"
	"github.com/litetable/widecolumn/internal/storage"
	"github.com/litetable/widecolumn/internal/wire"
	"github.com/litetable/widecolumn/pkg/model"
	"github.com/rs/zerolog/log"
	"google.golang.org/grpc/codes"
	"google.golang.org/grpc/status"
)

// store serves wire.StoreServer from the storage engine.
type store struct {
	masterAddress string
	operations    operations
}

func requireTable(table string) error {
	if table == "" {
		return status.Errorf(codes.InvalidArgument, "table required")
	}
	return nil
}

func validateFamilyRequest(msg *wire.FamilyRequest) error {
	var errGrp []error
	if msg.Table == "" {
		errGrp = append(errGrp, status.Errorf(codes.InvalidArgument, "table required"))
	}
	if msg.Family == "" {
		errGrp = append(errGrp, status.Errorf(codes.InvalidArgument, "family required"))
	}
	return errors.Join(errGrp...)
}

func validateRowRequest(table string, key []byte, family string) error {
	var errGrp []error
	if table == "" {
		errGrp = append(errGrp, status.Errorf(codes.InvalidArgument, "table required"))
	}
	if len(key) == 0 {
		errGrp = append(errGrp, status.Errorf(codes.InvalidArgument, "rowKey required"))
	}
	if family == "" {
		errGrp = append(errGrp, status.Errorf(codes.InvalidArgument, "family required"))
	}
	return errors.Join(errGrp...)
}

func (s *store) ClusterInfo(_ context.Context, _ *wire.ClusterInfoRequest) (*wire.
	ClusterInfoResponse, error) {
	return &wire.ClusterInfoResponse{
		MasterAddress: s.masterAddress,
		Capabilities:  s.operations.Capabilities(),
	}, nil
}

func (s *store) ListTables(_ context.Context, _ *wire.ListTablesRequest) (*wire.
	ListTablesResponse, error) {
	return &wire.ListTablesResponse{Tables: s.operations.Tables()}, nil
}

func (s *store) CreateTable(_ context.Context, msg *wire.CreateTableRequest) (*wire.Empty,
	error) {
	if err := requireTable(msg.Table); err != nil {
		return nil, err
	}
	if err := s.operations.CreateTable(msg.Table, msg.Families); err != nil {
		return nil, wire.ToStatus(err)
	}
	log.Debug().Msgf("created table %s with families %v", msg.Table, msg.Families)
	return &wire.Empty{}, nil
}

func (s *store) DisableTable(_ context.Context, msg *wire.TableRequest) (*wire.Empty, error) {
	if err := requireTable(msg.Table); err != nil {
		return nil, err
	}
	if err := s.operations.DisableTable(msg.Table); err != nil {
		return nil, wire.ToStatus(err)
	}
	return &wire.Empty{}, nil
}

func (s *store) EnableTable(_ context.Context, msg *wire.TableRequest) (*wire.Empty, error) {
	if err := requireTable(msg.Table); err != nil {
		return nil, err
	}
	if err := s.operations.EnableTable(msg.Table); err != nil {
		return nil, wire.ToStatus(err)
	}
	return &wire.Empty{}, nil
}

func (s *store) IsTableEnabled(_ context.Context, msg *wire.TableRequest) (*wire.
	IsTableEnabledResponse, error) {
	if err := requireTable(msg.Table); err != nil {
		return nil, err
	}
	switch s.operations.TableState(msg.Table) {
	case storage.StateEnabled:
		return &wire.IsTableEnabledResponse{Enabled: true}, nil
	case storage.StateDisabled:
		return &wire.IsTableEnabledResponse{Enabled: false}, nil
	default:
		return nil, wire.ToStatus(fmt.Errorf("%w: %s", model.ErrTableNotFound, msg.Table))
	}
}

func (s *store) DeleteTable(_ context.Context, msg *wire.TableRequest) (*wire.Empty, error) {
	if err := requireTable(msg.Table); err != nil {
		return nil, err
	}
	if err := s.operations.DropTable(msg.Table); err != nil {
		return nil, wire.ToStatus(err)
	}
	log.Debug().Msgf("dropped table %s", msg.Table)
	return &wire.Empty{}, nil
}

func (s *store) AddFamily(_ context.Context, msg *wire.FamilyRequest) (*wire.Empty, error) {
	if err := validateFamilyRequest(msg); err != nil {
		return nil, err
	}
	if err := s.operations.AddFamily(msg.Table, msg.Family); err != nil {
		return nil, wire.ToStatus(err)
	}
	return &wire.Empty{}, nil
}

func (s *store) DeleteFamily(_ context.Context, msg *wire.FamilyRequest) (*wire.Empty, error) {
	if err := validateFamilyRequest(msg); err != nil {
		return nil, err
	}
	if err := s.operations.DeleteFamily(msg.Table, msg.Family); err != nil {
		return nil, wire.ToStatus(err)
	}
	return &wire.Empty{}, nil
}

func (s *store) ListFamilies(_ context.Context, msg *wire.TableRequest) (*wire.
	ListFamiliesResponse, error) {
	if err := requireTable(msg.Table); err != nil {
		return nil, err
	}
	families, err := s.operations.Families(msg.Table)
	if err != nil {
		return nil, wire.ToStatus(err)
	}
	return &wire.ListFamiliesResponse{Families: families}, nil
}

func (s *store) Put(_ context.Context, msg *wire.PutRequest) (*wire.Empty, error) {
	start := time.Now()
	if err := validateRowRequest(msg.Table, msg.RowKey, msg.Family); err != nil {
		return nil, err
	}
	ts, err := s.operations.Apply(msg.Table, msg.RowKey, msg.Family, msg.Mutations)
	if err != nil {
		return nil, wire.ToStatus(err)
	}
	log.Debug().Msgf("put %d cells at %d: %v", len(msg.Mutations), ts, time.Since(start))
	return &wire.Empty{}, nil
}

func (s *store) Get(_ context.Context, msg *wire.GetRequest) (*wire.RowResponse, error) {
	var errGrp []error
	if msg.Table == "" {
		errGrp = append(errGrp, status.Errorf(codes.InvalidArgument, "table required"))
	}
	if len(msg.RowKey) == 0 {
		errGrp = append(errGrp, status.Errorf(codes.InvalidArgument, "rowKey required"))
	}
	if err := errors.Join(errGrp...); err != nil {
		return nil, err
	}

	row, err := s.operations.Get(msg.Table, msg.RowKey, msg.Options)
	if err != nil {
		return nil, wire.ToStatus(err)
	}
	return &wire.RowResponse{Row: row}, nil
}

func (s *store) Delete(_ context.Context, msg *wire.DeleteRequest) (*wire.Empty, error) {
	if err := validateRowRequest(msg.Table, msg.RowKey, msg.Family); err != nil {
		return nil, err
	}
	if _, err := s.operations.Delete(msg.Table, msg.RowKey, msg.Family,
		msg.Qualifiers); err != nil {
		return nil, wire.ToStatus(err)
	}
	return &wire.Empty{}, nil
}

// Scan streams rows in key order until the scanner is exhausted or the client goes away.
func (s *store) Scan(msg *wire.ScanRequest, stream wire.ScanServer) error {
	if err := requireTable(msg.Table); err != nil {
		return err
	}
	ctx := stream.Context()

	scanner, err := s.operations.Scan(ctx, msg.Table, msg.Scan)
	if err != nil {
		return wire.ToStatus(err)
	}
	defer func() {
		if closeErr := scanner.Close(); closeErr != nil {
			log.Warn().Err(closeErr).Msg("failed to close scanner")
		}
	}()

	sent := metrics.ScannedRowsTotal.WithLabelValues(msg.Table)
	for {
		if err = ctx.Err(); err != nil {
			return wire.ToStatus(err)
		}
		var row *model.Row
		row, err = scanner.Next()
		if errors.Is(err, io.EOF) {
			return nil
		}
		if err != nil {
			return wire.ToStatus(err)
		}
		if err = stream.Send(row); err != nil {
			return err
		}
		sent.Inc()
	}
}
