package main

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/cuemby/dbarena/pkg/dbconn"
	"github.com/cuemby/dbarena/pkg/seed"
)

var seedCmd = &cobra.Command{
	Use:   "seed",
	Short: "Populate a managed container's tables with generated data",
	RunE:  runSeed,
}

func init() {
	seedCmd.Flags().String("config", "", "Seed config file (TOML or YAML)")
	seedCmd.Flags().String("container", "", "Target container name")
	seedCmd.Flags().String("size", "medium", "Row-count scale: small, medium, or large")
	seedCmd.Flags().Uint64("seed", 0, "Override the config's global_seed")
	seedCmd.Flags().StringArray("rows", nil, "Per-table row-count override TABLE=N (repeatable or comma-separated)")
	seedCmd.Flags().Bool("truncate", false, "Truncate each table before inserting")
	seedCmd.Flags().Bool("incremental", false, "Never truncate, even if the config requests it")
	seedCmd.Flags().String("password", "", "Override the reconnection password")
	seedCmd.MarkFlagRequired("container")
}

func runSeed(cmd *cobra.Command, args []string) error {
	ctx := cmd.Context()

	configPath, _ := cmd.Flags().GetString("config")
	containerName, _ := cmd.Flags().GetString("container")
	sizeFlag, _ := cmd.Flags().GetString("size")
	seedOverride, _ := cmd.Flags().GetUint64("seed")
	rowFlags, _ := cmd.Flags().GetStringArray("rows")
	truncate, _ := cmd.Flags().GetBool("truncate")
	incremental, _ := cmd.Flags().GetBool("incremental")
	password, _ := cmd.Flags().GetString("password")

	if configPath == "" {
		return fmt.Errorf("--config is required")
	}
	rs, err := loadRuleSet(configPath)
	if err != nil {
		return err
	}
	if cmd.Flags().Changed("seed") {
		rs.GlobalSeed = &seedOverride
	}

	overrides, err := parseRowOverrides(rowFlags)
	if err != nil {
		return err
	}

	scale := seed.SizeScale(sizeFlag)
	switch scale {
	case seed.SizeSmall, seed.SizeMedium, seed.SizeLarge:
	default:
		return fmt.Errorf("--size must be small, medium, or large, got %q", sizeFlag)
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

	seeder, err := seed.New(db, c.Kind)
	if err != nil {
		return err
	}

	summary, err := seeder.Run(ctx, rs, seed.Options{
		Scale:     scale,
		Overrides: overrides,
		Truncate:  truncate && !incremental,
	})
	if err != nil {
		return err
	}

	for _, t := range summary.Tables {
		fmt.Printf("✓ %s: %d rows in %d batches\n", t.Table, t.RowsInserted, t.Batches)
	}
	fmt.Printf("✓ seeded %d total rows\n", summary.TotalRows)
	return nil
}
