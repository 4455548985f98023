package grpc

import (
	"context"
	"errors"
	"io"
	"net"
	"testing"
	"time"

	"github.com/litetable/widecolumn/internal/storage"
	"github.com/litetable/widecolumn/internal/wire"
	"github.com/litetable/widecolumn/pkg/model"
	"github.com/stretchr/testify/require"
	"go.uber.org/mock/gomock"
	"google.golang.org/grpc"
	"google.golang.org/grpc/credentials/insecure"
	"google.golang.org/grpc/health/grpc_health_v1"
)

func TestNewServer(t *testing.T) {
	ctrl := gomock.NewController(t)
	defer ctrl.Finish()
	tests := map[string]struct {
		cfg   *Config
		error error
	}{
		"invalid config": {
			cfg:   &Config{Port: -1},
			error: errors.New("address required\nport out of range: -1\nmaster address required\noperations required"),
		},
		"valid config": {
			cfg: &Config{
				Address:       "127.0.0.1",
				MasterAddress: "master:16000",
				Operations:    NewMockoperations(ctrl),
			},
		},
	}

	for name, test := range tests {
		t.Run(name, func(t *testing.T) {
			got, err := NewServer(test.cfg)
			req := require.New(t)
			if test.error != nil {
				req.Error(err)
				req.Nil(got)

				req.Equal(test.error.Error(), err.Error())
				return
			}

			req.NoError(err)
			req.NotNil(got)
			req.NotZero(got.port)
			req.NoError(got.listener.Close())
		})
	}
}

func TestServer_Name(t *testing.T) {
	s := &Server{}
	require.Equal(t, "gRPC Server", s.Name())
}

func TestServer_Start(t *testing.T) {
	t.Run("successful start", func(t *testing.T) {
		ctrl := gomock.NewController(t)
		defer ctrl.Finish()

		mockServer := NewMockgrpcServer(ctrl)
		ml := &mockListener{}

		mockServer.EXPECT().
			Serve(ml).
			DoAndReturn(func(net.Listener) error {
				// Simulate blocking serve
				time.Sleep(600 * time.Millisecond)
				return nil
			})

		s := &Server{
			address:  "127.0.0.1",
			port:     12345,
			server:   mockServer,
			listener: ml,
		}

		err := s.Start()
		require.NoError(t, err)
		time.Sleep(200 * time.Millisecond)
	})

	t.Run("serve error on start", func(t *testing.T) {
		ctrl := gomock.NewController(t)
		defer ctrl.Finish()

		mockServer := NewMockgrpcServer(ctrl)
		ml := &mockListener{}

		mockServer.EXPECT().
			Serve(ml).
			Return(errors.New("bind error"))

		s := &Server{
			address:  "127.0.0.1",
			port:     12345,
			server:   mockServer,
			listener: ml,
		}

		err := s.Start()
		require.Error(t, err)
		require.Contains(t, err.Error(), "bind error")
	})
}

func TestServer_Stop(t *testing.T) {
	ctrl := gomock.NewController(t)
	defer ctrl.Finish()

	mockServer := NewMockgrpcServer(ctrl)
	mockServer.EXPECT().GracefulStop().Times(1)

	s := &Server{
		server: mockServer,
	}

	require.NoError(t, s.Stop())
}

func TestGRPCServer_Real(t *testing.T) {
	req := require.New(t)
	ctx := context.Background()

	engine, err := storage.New(&storage.Config{})
	req.NoError(err)
	req.NoError(engine.Start())
	defer func() {
		req.NoError(engine.Stop())
	}()

	srv, err := NewServer(&Config{
		Address:       "127.0.0.1",
		MasterAddress: "master:16000",
		Operations:    engine,
	})
	req.NoError(err)
	req.NoError(srv.Start())
	defer func() {
		req.NoError(srv.Stop())
	}()

	conn, err := grpc.NewClient(srv.Addr(),
		grpc.WithTransportCredentials(insecure.NewCredentials()))
	req.NoError(err)
	defer conn.Close()

	hc, err := grpc_health_v1.NewHealthClient(conn).Check(ctx,
		&grpc_health_v1.HealthCheckRequest{Service: wire.ServiceName})
	req.NoError(err)
	req.Equal(grpc_health_v1.HealthCheckResponse_SERVING, hc.GetStatus())

	client := wire.NewStoreClient(conn)

	info, err := client.ClusterInfo(ctx, &wire.ClusterInfoRequest{})
	req.NoError(err)
	req.Equal("master:16000", info.MasterAddress)
	req.True(info.Capabilities.TableStates)

	req.NoError(client.CreateTable(ctx, &wire.CreateTableRequest{
		Table:    "Customers",
		Families: []string{"profile", "orders"},
	}))

	// sentinels survive the round trip
	err = client.CreateTable(ctx, &wire.CreateTableRequest{
		Table:    "Customers",
		Families: []string{"profile"},
	})
	req.ErrorIs(wire.FromStatus(err), model.ErrTableExists)

	for _, key := range []string{"u2", "a1", "u1"} {
		req.NoError(client.Put(ctx, &wire.PutRequest{
			Table:     "Customers",
			RowKey:    []byte(key),
			Family:    "profile",
			Mutations: []model.Mutation{{Qualifier: "name", Value: []byte("name-" + key)}},
		}))
	}

	got, err := client.Get(ctx, &wire.GetRequest{Table: "Customers", RowKey: []byte("u1")})
	req.NoError(err)
	v, ok := got.Row.Value("profile", "name")
	req.True(ok)
	req.Equal("name-u1", string(v))

	stream, err := client.Scan(ctx, &wire.ScanRequest{
		Table: "Customers",
		Scan:  model.Scan{Prefix: []byte("u")},
	})
	req.NoError(err)
	var keys []string
	for {
		row, err := stream.Recv()
		if errors.Is(err, io.EOF) {
			break
		}
		req.NoError(err)
		keys = append(keys, string(row.Key))
	}
	req.Equal([]string{"u1", "u2"}, keys)

	// scanning a missing table fails on the first receive
	stream, err = client.Scan(ctx, &wire.ScanRequest{Table: "Missing"})
	req.NoError(err)
	_, err = stream.Recv()
	req.ErrorIs(wire.FromStatus(err), model.ErrTableNotFound)

	req.NoError(client.DisableTable(ctx, &wire.TableRequest{Table: "Customers"}))
	enabled, err := client.IsTableEnabled(ctx, &wire.TableRequest{Table: "Customers"})
	req.NoError(err)
	req.False(enabled.Enabled)
	req.NoError(client.DeleteTable(ctx, &wire.TableRequest{Table: "Customers"}))

	tables, err := client.ListTables(ctx, &wire.ListTablesRequest{})
	req.NoError(err)
	req.Empty(tables.Tables)
}

type mockListener struct {
	net.Listener
}

func (m *mockListener) Accept() (net.Conn, error) { return nil, nil }
func (m *mockListener) Close() error              { return nil }
func (m *mockListener) Addr() net.Addr            { return &net.TCPAddr{Port: 12345} }
