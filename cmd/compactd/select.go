package main

import (
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
	"os"

	"github.com/spf13/cobra"

	"compactd/pkg/compaction"
	"compactd/pkg/metrics"
	"compactd/pkg/selection"
)

type selectOutput struct {
	Operations []compaction.Operation `json:"operations"`
	Admitted   []string               `json:"admitted"`
	Rejected   []string               `json:"rejected"`
}

func newSelectCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "select",
		Short: "Run one selection over a JSON list of operations and print the result",
		Args:  cobra.NoArgs,
		RunE:  runSelect,
	}
	cmd.Flags().StringP(InputFlag, InputFlagShort, "-", "JSON file with the candidate operations, - for stdin")
	cmd.Flags().String(StrategyFlag, "", "strategy to use instead of the configured one")
	cmd.Flags().Int(BudgetFlag, 0, "override compaction.target_partitions_per_run")
	return cmd
}

func runSelect(cmd *cobra.Command, _ []string) error {
	configPath, _ := cmd.Flags().GetString(ConfigFlag)
	input, _ := cmd.Flags().GetString(InputFlag)
	strategy, _ := cmd.Flags().GetString(StrategyFlag)

	cfg, err := initConfig(configPath)
	if err != nil {
		return fmt.Errorf("load config: %w", err)
	}
	// keep stdout for the result
	slog.SetDefault(slog.New(slog.NewTextHandler(cmd.ErrOrStderr(), &slog.HandlerOptions{Level: parseLevel(cfg.Logger.Level)})))

	ops, err := readOperations(cmd.InOrStdin(), input)
	if err != nil {
		return err
	}

	plans, err := openPlanStore(&cfg.PlanStore)
	if err != nil {
		return err
	}
	defer plans.Close()

	svc, err := selection.New(cfg.Compaction, plans, metrics.Nop{})
	if err != nil {
		return err
	}

	req := selection.Request{Strategy: strategy, Operations: ops}
	if cmd.Flags().Changed(BudgetFlag) {
		budget, _ := cmd.Flags().GetInt(BudgetFlag)
		req.TargetPartitionsPerRun = &budget
	}

	sel, err := svc.Select(cmd.Context(), req)
	if err != nil {
		return err
	}

	enc := json.NewEncoder(cmd.OutOrStdout())
	enc.SetIndent("", "  ")
	return enc.Encode(selectOutput{
		Operations: sel.Operations,
		Admitted:   sel.Admitted,
		Rejected:   sel.Rejected,
	})
}

func readOperations(stdin io.Reader, path string) ([]compaction.Operation, error) {
	r := stdin
	if path != "-" {
		f, err := os.Open(path)
		if err != nil {
			return nil, fmt.Errorf("open input: %w", err)
		}
		defer f.Close()
		r = f
	}

	var ops []compaction.Operation
	if err := json.NewDecoder(r).Decode(&ops); err != nil {
		return nil, fmt.Errorf("decode operations: %w", err)
	}
	return ops, nil
}
