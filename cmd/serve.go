package cmd

import (
	"github.com/litetable/widecolumn/internal/app"
	"github.com/litetable/widecolumn/internal/config"
	"github.com/litetable/widecolumn/internal/metrics"
	grpcserver "github.com/litetable/widecolumn/internal/server/grpc"
	"github.com/litetable/widecolumn/internal/storage"
	"github.com/spf13/cobra"
)

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Serve a store over gRPC",
	Long: `Run the store engine and serve it to remote clients (driver "remote").
Clients must be configured with the same master address as the server.
Prometheus metrics are exposed on /metrics.`,
	RunE: runServe,
}

func init() {
	config.ServerFlags(serveCmd.Flags())
}

func runServe(cmd *cobra.Command, _ []string) error {
	application, err := initialize(settings)
	if err != nil {
		return err
	}
	return application.Run(cmd.Context())
}

// initialize wires the store, its servers and their lifecycle.
func initialize(cfg *config.Config) (*app.App, error) {
	var deps []app.Dependency

	store, err := storage.New(&storage.Config{
		Dir:                       cfg.Server.DataDir,
		ShardCount:                cfg.Server.ShardCount,
		MaxVersions:               cfg.Client.MaxVersions,
		FamilyDropRequiresDisable: cfg.Client.FamilyDropRequiresDisable,
		TombstoneTTL:              cfg.Server.TombstoneTTL,
		GCInterval:                cfg.Server.GCInterval,
		SnapshotInterval:          cfg.Server.SnapshotInterval,
		MaxSnapshotLimit:          cfg.Server.MaxSnapshotLimit,
	})
	if err != nil {
		return nil, err
	}
	deps = append(deps, store)

	srv, err := grpcserver.NewServer(&grpcserver.Config{
		Address:       cfg.Server.ListenAddress,
		Port:          cfg.Server.ListenPort,
		MasterAddress: cfg.Client.MasterAddress,
		Operations:    store,
	})
	if err != nil {
		return nil, err
	}
	deps = append(deps, srv)

	metricsSrv, err := metrics.NewServer(&metrics.Config{
		Address: cfg.Server.MetricsAddress,
		Port:    cfg.Server.MetricsPort,
	})
	if err != nil {
		_ = srv.Stop()
		return nil, err
	}
	deps = append(deps, metricsSrv)

	return app.CreateApp(&app.Config{
		ServiceName: "widecolumn",
		StopTimeout: cfg.Server.StopTimeout,
	}, deps...)
}
