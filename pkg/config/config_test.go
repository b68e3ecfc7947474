package config

import (
	"errors"
	"os"
	"path/filepath"
	"testing"
	"time"

	"compactd/pkg/compaction"
	"compactd/pkg/dberrors"
)

func writeConfig(t *testing.T, body string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "config.yaml")
	if err := os.WriteFile(path, []byte(body), 0o600); err != nil {
		t.Fatalf("write config: %v", err)
	}
	return path
}

func TestDefault_IsValid(t *testing.T) {
	cfg := Default()
	if err := cfg.Validate(); err != nil {
		t.Fatalf("default config is invalid: %v", err)
	}
}

func TestLoad_MissingFileUsesDefault(t *testing.T) {
	cfg, found, err := Load(filepath.Join(t.TempDir(), "absent.yaml"))
	if err != nil {
		t.Fatalf("Load failed: %v", err)
	}
	if found {
		t.Fatal("expected found=false for missing file")
	}
	if cfg.Compaction.Strategy != compaction.NameDayBased {
		t.Fatalf("expected default strategy, got %q", cfg.Compaction.Strategy)
	}
}

func TestLoad_OverridesDefaults(t *testing.T) {
	path := writeConfig(t, `
logger:
  level: info
  json: true
http-server:
  port: 9090
compaction:
  strategy: bounded_io
  target_partitions_per_run: 3
  target_io_per_run_mb: 2048
  exclude_pending: true
plan_store:
  kind: zookeeper
  zk_servers: ["zk1:2181", "zk2:2181"]
  session_timeout: 3s
`)

	cfg, found, err := Load(path)
	if err != nil {
		t.Fatalf("Load failed: %v", err)
	}
	if !found {
		t.Fatal("expected found=true")
	}
	if !cfg.Logger.JSON || cfg.Logger.Level != "info" {
		t.Fatalf("unexpected logger config: %+v", cfg.Logger)
	}
	if cfg.Server.Port != 9090 || cfg.Server.ReadHeaderTimeout != time.Second {
		t.Fatalf("unexpected server config: %+v", cfg.Server)
	}
	if cfg.Compaction.Strategy != compaction.NameBoundedIO || cfg.Compaction.TargetPartitionsPerRun != 3 ||
		cfg.Compaction.TargetIOPerRunMB != 2048 || !cfg.Compaction.ExcludePending {
		t.Fatalf("unexpected compaction config: %+v", cfg.Compaction)
	}
	if cfg.Compaction.PartitionLayout != compaction.DefaultPartitionLayout {
		t.Fatalf("expected default layout to survive, got %q", cfg.Compaction.PartitionLayout)
	}
	if cfg.PlanStore.Kind != PlanStoreZooKeeper || len(cfg.PlanStore.ZKServers) != 2 ||
		cfg.PlanStore.SessionTimeout != 3*time.Second || cfg.PlanStore.ZKRoot != "/compactd" {
		t.Fatalf("unexpected plan store config: %+v", cfg.PlanStore)
	}
}

func TestLoad_Invalid(t *testing.T) {
	tests := []struct {
		name string
		body string
	}{
		{"unknown strategy", "compaction:\n  strategy: biggest_first\n"},
		{"negative budget", "compaction:\n  target_partitions_per_run: -1\n"},
		{"bad location", "compaction:\n  partition_location: Mars/Olympus\n"},
		{"bad level", "logger:\n  level: loud\n"},
		{"zookeeper without servers", "plan_store:\n  kind: zookeeper\n"},
		{"unknown store", "plan_store:\n  kind: etcd\n"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, _, err := Load(writeConfig(t, tt.body))
			if err == nil {
				t.Fatal("expected error")
			}
			if !errors.Is(err, dberrors.ErrInvalidArgument) && !errors.Is(err, dberrors.ErrUnknownStrategy) {
				t.Fatalf("unexpected error: %v", err)
			}
		})
	}
}

func TestLoad_Malformed(t *testing.T) {
	if _, _, err := Load(writeConfig(t, "compaction: [unclosed\n")); err == nil {
		t.Fatal("expected parse error")
	}
}

func TestCompactionConfig_NewStrategy(t *testing.T) {
	cfg := Default().Compaction

	s, err := cfg.NewStrategy()
	if err != nil {
		t.Fatalf("NewStrategy failed: %v", err)
	}
	if _, ok := s.(*compaction.DayBasedStrategy); !ok {
		t.Fatalf("expected *DayBasedStrategy, got %T", s)
	}

	cfg.ExcludePending = true
	s, err = cfg.NewStrategy()
	if err != nil {
		t.Fatalf("NewStrategy failed: %v", err)
	}
	if _, ok := s.(*compaction.PendingAwareStrategy); !ok {
		t.Fatalf("expected *PendingAwareStrategy, got %T", s)
	}

	cfg.PartitionLayout = "2006-01-02"
	cfg.ExcludePending = false
	s, err = cfg.NewStrategy()
	if err != nil {
		t.Fatalf("NewStrategy failed: %v", err)
	}
	got, err := s.OrderAndFilter(cfg.StrategyConfig(), []compaction.Operation{{PartitionPath: "2023-01-01"}}, nil)
	if err != nil {
		t.Fatalf("OrderAndFilter with custom layout failed: %v", err)
	}
	if len(got) != 1 {
		t.Fatalf("expected 1 operation, got %d", len(got))
	}
}
