package main

import (
	"context"
	"encoding/json"
	"fmt"
	"os"
	"time"

	"github.com/spf13/cobra"

	"github.com/cuemby/dbarena/pkg/container"
	"github.com/cuemby/dbarena/pkg/metrics"
	"github.com/cuemby/dbarena/pkg/tui"
)

var statsCmd = &cobra.Command{
	Use:   "stats [name]",
	Short: "Show or stream resource/database metrics for managed containers",
	Args:  cobra.MaximumNArgs(1),
	RunE:  runStats,
}

func init() {
	statsCmd.Flags().Bool("all", false, "Include stopped containers")
	statsCmd.Flags().Bool("follow", false, "Keep sampling until interrupted")
	statsCmd.Flags().Bool("tui", false, "Open the interactive dashboard")
	statsCmd.Flags().Bool("multipane", false, "Alias for --tui")
	statsCmd.Flags().Bool("json", false, "Print snapshots as JSON instead of a table")
	statsCmd.Flags().Duration("interval", time.Second, "Sampling interval for --follow/--tui")
}

func runStats(cmd *cobra.Command, args []string) error {
	ctx := cmd.Context()

	all, _ := cmd.Flags().GetBool("all")
	follow, _ := cmd.Flags().GetBool("follow")
	wantTUI, _ := cmd.Flags().GetBool("tui")
	multipane, _ := cmd.Flags().GetBool("multipane")
	asJSON, _ := cmd.Flags().GetBool("json")
	interval, _ := cmd.Flags().GetDuration("interval")

	mgr, eng, err := newManager()
	if err != nil {
		return err
	}
	defer eng.Close()

	if wantTUI || multipane {
		app := tui.NewApp(mgr, metrics.NewCollector(eng))
		return app.Run(ctx)
	}

	collector := metrics.NewCollector(eng)

	targets := func() ([]metrics.Target, error) {
		return statsTargets(ctx, mgr, args, all)
	}

	if !follow {
		list, err := targets()
		if err != nil {
			return err
		}
		return sampleAndPrint(ctx, collector, list, asJSON)
	}

	ticker := time.NewTicker(interval)
	defer ticker.Stop()
	for {
		list, err := targets()
		if err != nil {
			return err
		}
		if err := sampleAndPrint(ctx, collector, list, asJSON); err != nil {
			return err
		}
		select {
		case <-ticker.C:
		case <-ctx.Done():
			return nil
		}
	}
}

func statsTargets(ctx context.Context, mgr *container.Manager, args []string, all bool) ([]metrics.Target, error) {
	var containers []container.Container
	if len(args) == 1 {
		c, err := mgr.Find(ctx, args[0])
		if err != nil {
			return nil, err
		}
		containers = []container.Container{c}
	} else {
		list, err := mgr.List(ctx, all)
		if err != nil {
			return nil, err
		}
		containers = list
	}

	out := make([]metrics.Target, 0, len(containers))
	for _, c := range containers {
		user := c.Labels[container.UserLabel]
		database := c.Labels[container.DatabaseLabel]
		_, password := container.AdminCredentials(c.Kind, nil)
		out = append(out, metrics.Target{
			ContainerID: c.ID,
			Kind:        c.Kind,
			User:        user,
			Password:    password,
			Database:    database,
		})
	}
	return out, nil
}

func sampleAndPrint(ctx context.Context, collector *metrics.Collector, targets []metrics.Target, asJSON bool) error {
	snapshots := make([]metrics.Snapshot, 0, len(targets))
	for _, t := range targets {
		snap, err := collector.Sample(ctx, t)
		if err != nil {
			continue
		}
		snapshots = append(snapshots, snap)
	}

	if asJSON {
		enc := json.NewEncoder(os.Stdout)
		enc.SetIndent("", "  ")
		return enc.Encode(snapshots)
	}

	for _, s := range snapshots {
		if !s.Ready() {
			fmt.Printf("%s  sampling...\n", s.ContainerID)
			continue
		}
		fmt.Printf("%s  cpu=%.1f%%  mem=%d/%d  qps=%.1f  conns=%d/%d\n",
			s.ContainerID, s.Resource.CPUPercent, s.Resource.MemoryUsage, s.Resource.MemoryLimit,
			s.Database.QPS, s.Database.ActiveConnections, s.Database.MaxConnections)
	}
	return nil
}
