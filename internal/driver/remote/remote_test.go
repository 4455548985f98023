package remote

import (
	"context"
	"errors"
	"io"
	"net"
	"strconv"
	"testing"
	"time"

	"github.com/litetable/widecolumn/internal/server/grpc"
	"github.com/litetable/widecolumn/internal/storage"
	"github.com/litetable/widecolumn/pkg/model"
	"github.com/stretchr/testify/require"
)

const testMaster = "master.test:16000"

func startServer(t *testing.T, cfg *storage.Config) (string, int) {
	t.Helper()
	req := require.New(t)

	engine, err := storage.New(cfg)
	req.NoError(err)
	req.NoError(engine.Start())

	srv, err := grpc.NewServer(&grpc.Config{
		Address:       "127.0.0.1",
		MasterAddress: testMaster,
		Operations:    engine,
	})
	req.NoError(err)
	req.NoError(srv.Start())

	t.Cleanup(func() {
		require.NoError(t, srv.Stop())
		require.NoError(t, engine.Stop())
	})

	host, port, err := net.SplitHostPort(srv.Addr())
	req.NoError(err)
	p, err := strconv.Atoi(port)
	req.NoError(err)
	return host, p
}

func TestNew(t *testing.T) {
	host, port := startServer(t, &storage.Config{FamilyDropRequiresDisable: true})

	tests := map[string]struct {
		cfg     *Config
		wantErr error
		errText string
	}{
		"invalid config": {
			cfg:     &Config{},
			errText: "host required\nport out of range: 0\nmaster address required",
		},
		"master mismatch": {
			cfg: &Config{Host: host, Port: port, MasterAddress: "other:16000",
				Plaintext: true},
			wantErr: model.ErrMasterMismatch,
		},
		"connected": {
			cfg: &Config{Host: host, Port: port, MasterAddress: testMaster, Plaintext: true},
		},
	}

	for name, tc := range tests {
		t.Run(name, func(t *testing.T) {
			req := require.New(t)
			d, err := New(context.Background(), tc.cfg)
			switch {
			case tc.errText != "":
				req.EqualError(err, tc.errText)
			case tc.wantErr != nil:
				req.ErrorIs(err, tc.wantErr)
			default:
				req.NoError(err)
				req.True(d.Capabilities().FamilyDropRequiresDisable)
				req.NoError(d.Close())
			}
		})
	}
}

func TestNew_Unreachable(t *testing.T) {
	req := require.New(t)

	lis, err := net.Listen("tcp", "127.0.0.1:0")
	req.NoError(err)
	port := lis.Addr().(*net.TCPAddr).Port
	req.NoError(lis.Close())

	_, err = New(context.Background(), &Config{
		Host:          "127.0.0.1",
		Port:          port,
		MasterAddress: testMaster,
		Plaintext:     true,
		DialTimeout:   time.Second,
	})
	req.Error(err)
}

func TestDriver_RoundTrip(t *testing.T) {
	req := require.New(t)
	ctx := context.Background()
	host, port := startServer(t, &storage.Config{})

	d, err := New(ctx, &Config{Host: host, Port: port, MasterAddress: testMaster,
		Plaintext: true})
	req.NoError(err)
	defer func() {
		req.NoError(d.Close())
	}()

	a, err := d.Admin(ctx)
	req.NoError(err)
	req.NoError(a.CreateTable(ctx, "Customers", []string{"profile", "orders"}))
	req.ErrorIs(a.CreateTable(ctx, "Customers", []string{"profile"}), model.ErrTableExists)
	families, err := a.Families(ctx, "Customers")
	req.NoError(err)
	req.Equal([]string{"orders", "profile"}, families)
	req.NoError(a.Close())

	tbl, err := d.Table(ctx, "Customers")
	req.NoError(err)
	req.NoError(tbl.Put(ctx, []byte("u1"), "profile", []model.Mutation{
		{Qualifier: "name", Value: []byte("pippo")},
		{Qualifier: "born", Value: []byte("1993")},
	}))
	req.NoError(tbl.Put(ctx, []byte("u2"), "profile", []model.Mutation{
		{Qualifier: "name", Value: []byte("pluto")},
	}))
	req.ErrorIs(tbl.Put(ctx, []byte("u3"), "missing", []model.Mutation{
		{Qualifier: "q", Value: []byte("v")},
	}), model.ErrFamilyNotFound)

	row, err := tbl.Get(ctx, []byte("u1"), model.ReadOptions{})
	req.NoError(err)
	v, ok := row.Value("profile", "born")
	req.True(ok)
	req.Equal("1993", string(v))

	req.NoError(tbl.Delete(ctx, []byte("u1"), "profile", []string{"born"}))
	row, err = tbl.Get(ctx, []byte("u1"), model.ReadOptions{})
	req.NoError(err)
	_, ok = row.Value("profile", "born")
	req.False(ok)

	empty, err := tbl.Get(ctx, []byte("nobody"), model.ReadOptions{})
	req.NoError(err)
	req.True(empty.IsEmpty())

	s, err := tbl.Scan(ctx, model.Scan{Prefix: []byte("u")})
	req.NoError(err)
	req.Equal(int64(2), d.OpenHandles())
	var keys []string
	for {
		r, err := s.Next()
		if errors.Is(err, io.EOF) {
			break
		}
		req.NoError(err)
		keys = append(keys, string(r.Key))
	}
	req.Equal([]string{"u1", "u2"}, keys)
	req.NoError(s.Close())

	// an empty scan is not an error
	s, err = tbl.Scan(ctx, model.Scan{Prefix: []byte("zz")})
	req.NoError(err)
	_, err = s.Next()
	req.ErrorIs(err, io.EOF)
	req.NoError(s.Close())
	req.NoError(tbl.Close())

	missing, err := d.Table(ctx, "Missing")
	req.NoError(err)
	_, err = missing.Scan(ctx, model.Scan{})
	req.ErrorIs(err, model.ErrTableNotFound)
	req.NoError(missing.Close())
	req.Equal(int64(0), d.OpenHandles())
}

func TestDriver_Closed(t *testing.T) {
	req := require.New(t)
	ctx := context.Background()
	host, port := startServer(t, &storage.Config{})

	d, err := New(ctx, &Config{Host: host, Port: port, MasterAddress: testMaster,
		Plaintext: true})
	req.NoError(err)
	req.NoError(d.Close())
	req.NoError(d.Close())

	_, err = d.Admin(ctx)
	req.ErrorIs(err, model.ErrHandleClosed)
	_, err = d.Table(ctx, "Customers")
	req.ErrorIs(err, model.ErrHandleClosed)
}
