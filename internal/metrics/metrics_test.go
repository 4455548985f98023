package metrics

import (
	"context"
	"errors"
	"io"
	"net/http"
	"testing"

	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/require"
	"google.golang.org/grpc"
	"google.golang.org/grpc/codes"
	"google.golang.org/grpc/status"
)

func TestUnaryInterceptor(t *testing.T) {
	req := require.New(t)
	info := &grpc.UnaryServerInfo{FullMethod: "/test.Service/Unary"}

	before := testutil.ToFloat64(RPCRequestsTotal.WithLabelValues(info.FullMethod, "NotFound"))
	_, err := UnaryInterceptor(context.Background(), nil, info,
		func(ctx context.Context, req any) (any, error) {
			return nil, status.Error(codes.NotFound, "missing")
		})
	req.Equal(codes.NotFound, status.Code(err))
	req.Equal(before+1,
		testutil.ToFloat64(RPCRequestsTotal.WithLabelValues(info.FullMethod, "NotFound")))
	req.Zero(testutil.ToFloat64(RPCRequestsInFlight.WithLabelValues(info.FullMethod)))
}

func TestStreamInterceptor(t *testing.T) {
	req := require.New(t)
	info := &grpc.StreamServerInfo{FullMethod: "/test.Service/Stream"}

	before := testutil.ToFloat64(RPCRequestsTotal.WithLabelValues(info.FullMethod, "Unknown"))
	err := StreamInterceptor(nil, nil, info, func(srv any, stream grpc.ServerStream) error {
		return errors.New("boom")
	})
	req.Error(err)
	req.Equal(before+1,
		testutil.ToFloat64(RPCRequestsTotal.WithLabelValues(info.FullMethod, "Unknown")))
}

func TestNewServer(t *testing.T) {
	tests := map[string]struct {
		cfg     *Config
		wantErr bool
	}{
		"valid": {
			cfg: &Config{Address: "127.0.0.1"},
		},
		"missing address": {
			cfg:     &Config{},
			wantErr: true,
		},
		"bad port": {
			cfg:     &Config{Address: "127.0.0.1", Port: 70000},
			wantErr: true,
		},
	}

	for name, tc := range tests {
		t.Run(name, func(t *testing.T) {
			req := require.New(t)
			srv, err := NewServer(tc.cfg)
			if tc.wantErr {
				req.Error(err)
				return
			}
			req.NoError(err)
			req.NoError(srv.Stop())
		})
	}
}

func TestServer_ServesMetrics(t *testing.T) {
	req := require.New(t)

	srv, err := NewServer(&Config{Address: "127.0.0.1"})
	req.NoError(err)
	req.NoError(srv.Start())
	defer func() {
		req.NoError(srv.Stop())
	}()

	ScannedRowsTotal.WithLabelValues("metrics-test").Inc()

	resp, err := http.Get("http://" + srv.Addr() + "/metrics")
	req.NoError(err)
	defer resp.Body.Close()
	req.Equal(http.StatusOK, resp.StatusCode)

	body, err := io.ReadAll(resp.Body)
	req.NoError(err)
	req.Contains(string(body), `widecolumn_scanned_rows_total{table="metrics-test"}`)
}
