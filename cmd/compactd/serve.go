package main

import (
	"context"
	"fmt"
	"log/slog"
	"os/signal"
	"syscall"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/spf13/cobra"

	"compactd/internal/http"
	"compactd/pkg/config"
	"compactd/pkg/metrics"
	"compactd/pkg/planstore"
	"compactd/pkg/selection"
)

func newServeCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "serve",
		Short: "Serve compaction selection and pending plans over HTTP",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			path, _ := cmd.Flags().GetString(ConfigFlag)
			return serve(path)
		},
	}
}

func serve(configPath string) error {
	ctx, cancel := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer cancel()

	cfg, err := initConfig(configPath)
	if err != nil {
		return fmt.Errorf("load config: %w", err)
	}
	initLogger(&cfg)

	plans, err := openPlanStore(&cfg.PlanStore)
	if err != nil {
		return err
	}
	defer func() {
		if cerr := plans.Close(); cerr != nil {
			slog.Warn("failed to close plan store", "error", cerr)
		}
	}()

	svc, err := selection.New(cfg.Compaction, plans, metrics.NewPrometheus(prometheus.DefaultRegisterer))
	if err != nil {
		return err
	}

	server := http.NewServer(svc, plans, http.Options{
		Port:              cfg.Server.Port,
		ReadHeaderTimeout: cfg.Server.ReadHeaderTimeout,
		ShutdownTimeout:   cfg.Server.ShutdownTimeout,
		Gatherer:          prometheus.DefaultGatherer,
	})
	if err := server.Start(); err != nil {
		return err
	}
	slog.Info("compactd started",
		"strategy", svc.StrategyName(),
		"target_partitions_per_run", cfg.Compaction.TargetPartitionsPerRun,
		"plan_store", cfg.PlanStore.Kind)

	<-ctx.Done()

	if err := server.Stop(); err != nil {
		slog.Error("error stopping server", "error", err)
	}
	slog.Info("compactd stopped")
	return nil
}

func openPlanStore(cfg *config.PlanStoreConfig) (planstore.Store, error) {
	switch cfg.Kind {
	case config.PlanStoreZooKeeper:
		s, err := planstore.NewZooKeeper(cfg.ZKServers, cfg.ZKRoot, cfg.SessionTimeout, cfg.ConnectTimeout)
		if err != nil {
			return nil, fmt.Errorf("open zookeeper plan store: %w", err)
		}
		return s, nil
	default:
		return planstore.NewMemory(), nil
	}
}
