package main

import (
	"log/slog"
	"os"
	"strings"

	"compactd/pkg/config"
)

// initConfig loads the YAML config. A missing file yields config.Default().
func initConfig(path string) (config.Config, error) {
	cfg, found, err := config.Load(path)
	if err != nil {
		return cfg, err
	}
	if !found {
		slog.Info("config file not found, using default config", "path", path)
	}
	return cfg, nil
}

// initLogger installs the global slog.Logger (JSON or text).
func initLogger(cfg *config.Config) {
	opts := &slog.HandlerOptions{AddSource: true, Level: parseLevel(cfg.Logger.Level)}

	var handler slog.Handler
	if cfg.Logger.JSON {
		handler = slog.NewJSONHandler(os.Stdout, opts)
	} else {
		handler = slog.NewTextHandler(os.Stdout, opts)
	}
	logger := slog.New(handler)
	slog.SetDefault(logger)
	slog.Info("logger initialized", "level", cfg.Logger.Level, "json", cfg.Logger.JSON)
}

func parseLevel(level string) slog.Level {
	switch strings.ToUpper(level) {
	case "DEBUG":
		return slog.LevelDebug
	case "WARN":
		return slog.LevelWarn
	case "ERROR":
		return slog.LevelError
	default:
		return slog.LevelInfo
	}
}
