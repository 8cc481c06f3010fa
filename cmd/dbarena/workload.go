package main

import (
	"fmt"
	"strings"
	"time"

	"github.com/spf13/cobra"

	"github.com/cuemby/dbarena/pkg/dbconn"
	"github.com/cuemby/dbarena/pkg/workload"
)

var workloadCmd = &cobra.Command{
	Use:   "workload",
	Short: "Drive a synthetic workload against a managed container",
}

var workloadRunCmd = &cobra.Command{
	Use:   "run",
	Short: "Run a workload until its duration/transaction bound or Ctrl+C",
	RunE:  runWorkloadRun,
}

func init() {
	workloadCmd.AddCommand(workloadRunCmd)

	workloadRunCmd.Flags().String("container", "", "Target container name")
	workloadRunCmd.Flags().String("config", "", "Workload config file (custom mix / custom SQL)")
	workloadRunCmd.Flags().String("pattern", "balanced", "Named operation mix (ignored if --config sets weights)")
	workloadRunCmd.Flags().StringSlice("tables", nil, "Tables to drive the workload against")
	workloadRunCmd.Flags().Float64("tps", 0, "Target transactions per second (0 = unbounded)")
	workloadRunCmd.Flags().Duration("duration", 0, "Run duration (0 = unbounded, governed by --transactions)")
	workloadRunCmd.Flags().Int64("transactions", 0, "Max transactions (0 = unbounded, governed by --duration)")
	workloadRunCmd.Flags().Int("connections", 4, "Number of concurrent worker connections")
	workloadRunCmd.Flags().Bool("allow-destructive-deletes", false, "Let DELETE target real, previously-seeded rows")
	workloadRunCmd.Flags().String("password", "", "Override the reconnection password")
	workloadRunCmd.MarkFlagRequired("container")
	workloadRunCmd.MarkFlagRequired("tables")
}

func runWorkloadRun(cmd *cobra.Command, args []string) error {
	ctx := cmd.Context()

	containerName, _ := cmd.Flags().GetString("container")
	configPath, _ := cmd.Flags().GetString("config")
	pattern, _ := cmd.Flags().GetString("pattern")
	tables, _ := cmd.Flags().GetStringSlice("tables")
	tps, _ := cmd.Flags().GetFloat64("tps")
	duration, _ := cmd.Flags().GetDuration("duration")
	transactions, _ := cmd.Flags().GetInt64("transactions")
	connections, _ := cmd.Flags().GetInt("connections")
	allowDestructive, _ := cmd.Flags().GetBool("allow-destructive-deletes")
	password, _ := cmd.Flags().GetString("password")

	var weights *workload.Weights
	var queries []workload.CustomQuery
	if configPath != "" {
		var err error
		weights, queries, err = loadWorkloadExtras(configPath)
		if err != nil {
			return err
		}
	}

	mgr, eng, err := newManager()
	if err != nil {
		return err
	}
	defer eng.Close()

	c, err := mgr.Find(ctx, containerName)
	if err != nil {
		return err
	}

	target, err := connectTarget(ctx, c, password)
	if err != nil {
		return err
	}
	db, err := dbconn.Open(ctx, target)
	if err != nil {
		return err
	}
	defer db.Close()

	cfg := workload.Config{
		Name:                    fmt.Sprintf("%s-%s", containerName, pattern),
		Pattern:                 pattern,
		Tables:                  tables,
		Workers:                 connections,
		TargetTPS:               tps,
		Duration:                duration,
		MaxTransactions:         transactions,
		CustomWeights:           weights,
		CustomQueries:           queries,
		AllowDestructiveDeletes: allowDestructive,
	}

	wl, err := workload.New(ctx, db, c.Kind, cfg)
	if err != nil {
		return err
	}

	summary, err := wl.Run(ctx)
	if err != nil {
		return err
	}

	printWorkloadSummary(summary)

	if !summary.TargetMet {
		return withExitCode(exitTargetNotMet, fmt.Errorf("target TPS not met (saturated=%t)", summary.Saturated))
	}
	return nil
}

func printWorkloadSummary(s workload.Summary) {
	elapsed := s.Snapshot.Elapsed
	fmt.Printf("✓ ran %d operations in %s\n", s.Snapshot.Total, elapsed.Round(time.Millisecond))
	fmt.Printf("  success: %d  errors: %d\n", s.Snapshot.Successful, s.Snapshot.Failed)
	fmt.Printf("  target met: %t", s.TargetMet)
	if !s.TargetMet {
		fmt.Printf("  saturated: %t", s.Saturated)
	}
	fmt.Println()
	fmt.Printf("  by op: %s\n", summarizeOps(s.Snapshot))
}

func summarizeOps(s workload.Snapshot) string {
	var parts []string
	for _, op := range []workload.OperationKind{workload.OpSelect, workload.OpInsert, workload.OpUpdate, workload.OpDelete} {
		if n, ok := s.ByKind[op]; ok {
			parts = append(parts, fmt.Sprintf("%s=%d", op, n.Total))
		}
	}
	return strings.Join(parts, " ")
}
