package main

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"
)

const (
	ConfigFlag      = "config"
	ConfigFlagShort = "c"
	InputFlag       = "input"
	InputFlagShort  = "i"
	StrategyFlag    = "strategy"
	BudgetFlag      = "target-partitions"
)

func newRootCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:           "compactd",
		Short:         "Pick which partitions enter the next compaction run",
		SilenceUsage:  true,
		SilenceErrors: true,
	}
	cmd.PersistentFlags().StringP(ConfigFlag, ConfigFlagShort, "config.yaml", "path to the YAML config file")
	cmd.AddCommand(newServeCmd(), newSelectCmd())
	return cmd
}

func main() {
	if err := newRootCmd().Execute(); err != nil {
		fmt.Fprintln(os.Stderr, "compactd:", err)
		os.Exit(1)
	}
}
