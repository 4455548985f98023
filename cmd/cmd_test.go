package cmd

import (
	"bytes"
	"context"
	"testing"
	"time"

	"github.com/litetable/widecolumn/internal/config"
	"github.com/litetable/widecolumn/pkg/client"
	"github.com/stretchr/testify/require"
)

func execute(t *testing.T, args ...string) (string, error) {
	t.Helper()
	var out bytes.Buffer
	RootCmd.SetOut(&out)
	RootCmd.SetArgs(args)
	t.Cleanup(func() {
		RootCmd.SetOut(nil)
		RootCmd.SetArgs(nil)
	})
	err := RootCmd.Execute()
	return out.String(), err
}

func TestDemo(t *testing.T) {
	_, err := execute(t, "demo", "--log-level=warn")
	require.NoError(t, err)
}

func TestDemo_FamilyDropRequiresDisable(t *testing.T) {
	_, err := execute(t, "demo", "--log-level=warn", "--family-drop-requires-disable")
	require.NoError(t, err)
}

func TestSchema(t *testing.T) {
	req := require.New(t)

	out, err := execute(t, "schema", "list", "--log-level=warn")
	req.NoError(err)
	req.Empty(out)

	_, err = execute(t, "schema", "describe", "Customers", "--log-level=warn")
	req.ErrorIs(err, client.ErrTableNotFound)

	_, err = execute(t, "schema", "describe", "--log-level=warn")
	req.Error(err)
}

func TestInitialize(t *testing.T) {
	req := require.New(t)
	cfg, err := config.New().Load()
	req.NoError(err)
	cfg.Server.ListenPort = 0
	cfg.Server.MetricsPort = 0
	cfg.Server.DataDir = t.TempDir()

	application, err := initialize(cfg)
	req.NoError(err)

	// past the server start-up wait, so every dependency is running when it stops
	ctx, cancel := context.WithTimeout(context.Background(), 700*time.Millisecond)
	defer cancel()
	req.NoError(application.Run(ctx))
}
