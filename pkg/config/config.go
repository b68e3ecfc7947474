package config

import (
	"fmt"
	"os"
	"strings"
	"time"

	"github.com/goccy/go-yaml"

	"compactd/pkg/compaction"
	"compactd/pkg/dberrors"
)

const (
	PlanStoreMemory    = "memory"
	PlanStoreZooKeeper = "zookeeper"
)

// Config - root application configuration.
// validate tags document the rules Validate enforces.
type Config struct {
	Logger     LoggerConfig     `yaml:"logger" validate:"required"`
	Server     ServerConfig     `yaml:"http-server" validate:"required"`
	Compaction CompactionConfig `yaml:"compaction" validate:"required"`
	PlanStore  PlanStoreConfig  `yaml:"plan_store" validate:"required"`
}

type LoggerConfig struct {
	Level string `yaml:"level" validate:"required,oneof=DEBUG INFO WARN ERROR debug info warn error"`
	JSON  bool   `yaml:"json"`
}

type ServerConfig struct {
	Port              int           `yaml:"port" validate:"required,min=1,max=65535"`
	ReadHeaderTimeout time.Duration `yaml:"read_header_timeout" validate:"required"`
	ShutdownTimeout   time.Duration `yaml:"shutdown_timeout"`
}

type CompactionConfig struct {
	Strategy               string `yaml:"strategy" validate:"required"`
	TargetPartitionsPerRun int    `yaml:"target_partitions_per_run" validate:"min=0"`
	TargetIOPerRunMB       int64  `yaml:"target_io_per_run_mb" validate:"min=0"`
	// PartitionLayout is a Go time layout; 2006/01/02 is yyyy/MM/dd.
	PartitionLayout   string `yaml:"partition_layout" validate:"required"`
	PartitionLocation string `yaml:"partition_location" validate:"required"`
	ExcludePending    bool   `yaml:"exclude_pending"`
}

type PlanStoreConfig struct {
	Kind           string        `yaml:"kind" validate:"required,oneof=memory zookeeper"`
	ZKServers      []string      `yaml:"zk_servers"`
	ZKRoot         string        `yaml:"zk_root"`
	SessionTimeout time.Duration `yaml:"session_timeout"`
	ConnectTimeout time.Duration `yaml:"connect_timeout"`
}

// Default returns a baseline development config.
func Default() Config {
	return Config{
		Logger: LoggerConfig{
			Level: "DEBUG",
			JSON:  false,
		},
		Server: ServerConfig{
			Port:              8080,
			ReadHeaderTimeout: time.Second,
			ShutdownTimeout:   5 * time.Second,
		},
		Compaction: CompactionConfig{
			Strategy:               compaction.NameDayBased,
			TargetPartitionsPerRun: 10,
			TargetIOPerRunMB:       500 * 1024,
			PartitionLayout:        compaction.DefaultPartitionLayout,
			PartitionLocation:      "UTC",
		},
		PlanStore: PlanStoreConfig{
			Kind:           PlanStoreMemory,
			ZKRoot:         "/compactd",
			SessionTimeout: 5 * time.Second,
			ConnectTimeout: 10 * time.Second,
		},
	}
}

// Load reads a YAML config from path on top of Default. A missing file yields
// Default unchanged; found reports whether the file existed.
func Load(path string) (cfg Config, found bool, err error) {
	cfg = Default()

	data, err := os.ReadFile(path)
	if err != nil {
		if os.IsNotExist(err) {
			return cfg, false, nil
		}
		return cfg, false, err
	}

	if err := yaml.Unmarshal(data, &cfg); err != nil {
		return cfg, true, fmt.Errorf("parse config %s: %w", path, err)
	}
	if err := cfg.Validate(); err != nil {
		return cfg, true, err
	}
	return cfg, true, nil
}

// Validate checks the rules spelled out in the validate tags.
func (c *Config) Validate() error {
	switch strings.ToUpper(c.Logger.Level) {
	case "DEBUG", "INFO", "WARN", "ERROR":
	default:
		return invalid("logger.level %q", c.Logger.Level)
	}

	if c.Server.Port < 1 || c.Server.Port > 65535 {
		return invalid("http-server.port %d", c.Server.Port)
	}
	if c.Server.ReadHeaderTimeout <= 0 {
		return invalid("http-server.read_header_timeout %s", c.Server.ReadHeaderTimeout)
	}

	if _, err := compaction.New(c.Compaction.Strategy); err != nil {
		return err
	}
	if c.Compaction.TargetPartitionsPerRun < 0 {
		return invalid("compaction.target_partitions_per_run %d", c.Compaction.TargetPartitionsPerRun)
	}
	if c.Compaction.TargetIOPerRunMB < 0 {
		return invalid("compaction.target_io_per_run_mb %d", c.Compaction.TargetIOPerRunMB)
	}
	if c.Compaction.PartitionLayout == "" {
		return invalid("compaction.partition_layout is empty")
	}
	if _, err := c.Compaction.Location(); err != nil {
		return err
	}

	switch c.PlanStore.Kind {
	case PlanStoreMemory:
	case PlanStoreZooKeeper:
		if len(c.PlanStore.ZKServers) == 0 {
			return invalid("plan_store.zk_servers is empty")
		}
		if c.PlanStore.ZKRoot == "" {
			return invalid("plan_store.zk_root is empty")
		}
	default:
		return invalid("plan_store.kind %q", c.PlanStore.Kind)
	}
	return nil
}

// Location resolves PartitionLocation.
func (c CompactionConfig) Location() (*time.Location, error) {
	loc, err := time.LoadLocation(c.PartitionLocation)
	if err != nil {
		return nil, invalid("compaction.partition_location %q: %v", c.PartitionLocation, err)
	}
	return loc, nil
}

// StrategyConfig returns the values strategies consult on every run.
func (c CompactionConfig) StrategyConfig() compaction.Config {
	return compaction.Config{
		TargetPartitionsPerRun: c.TargetPartitionsPerRun,
		TargetIOPerRunMB:       c.TargetIOPerRunMB,
	}
}

// NewStrategy builds the configured strategy, wrapped with
// compaction.PendingAware when ExcludePending is set.
func (c CompactionConfig) NewStrategy() (compaction.Strategy, error) {
	loc, err := c.Location()
	if err != nil {
		return nil, err
	}

	s, err := compaction.New(c.Strategy,
		compaction.WithPartitionLayout(c.PartitionLayout),
		compaction.WithLocation(loc),
	)
	if err != nil {
		return nil, err
	}
	if c.ExcludePending {
		return compaction.PendingAware(s), nil
	}
	return s, nil
}

func invalid(format string, args ...any) error {
	return fmt.Errorf("%w: config: %s", dberrors.ErrInvalidArgument, fmt.Sprintf(format, args...))
}
