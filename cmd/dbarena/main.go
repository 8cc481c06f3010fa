package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"

	"github.com/cuemby/dbarena/pkg/dberrors"
	"github.com/cuemby/dbarena/pkg/engine"
	"github.com/cuemby/dbarena/pkg/log"
)

var (
	// Version information (set via ldflags during build)
	Version   = "dev"
	Commit    = "unknown"
	BuildTime = "unknown"
)

// exitTargetNotMet is the (ADD) exit code for "workload completed but
// target TPS not met", returned only by `workload run`.
const exitTargetNotMet = 3

func main() {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	err := rootCmd.ExecuteContext(ctx)
	if err == nil {
		return
	}

	if ctx.Err() != nil {
		fmt.Fprintln(os.Stderr, "\ninterrupted")
		os.Exit(130)
	}

	dberrors.Print(os.Stderr, err)
	if exitErr, ok := err.(interface{ ExitCode() int }); ok {
		os.Exit(exitErr.ExitCode())
	}
	os.Exit(1)
}

var rootCmd = &cobra.Command{
	Use:   "dbarena",
	Short: "dbarena - ephemeral database containers for testing",
	Long: `dbarena creates, seeds, and load-tests throwaway PostgreSQL, MySQL,
and SQL Server containers for integration testing, load testing, and
local development.

A single binary, no external orchestrator required.`,
	Version: Version,
	// Errors get dberrors.Print's structured, colored rendering instead
	// of cobra's default "Error: ..." plus a usage dump.
	SilenceUsage:  true,
	SilenceErrors: true,
}

func init() {
	rootCmd.SetVersionTemplate(fmt.Sprintf(
		"dbarena version %s\nCommit: %s\nBuilt: %s\n",
		Version, Commit, BuildTime,
	))

	rootCmd.PersistentFlags().String("log-level", "info", "Log level (debug, info, warn, error)")
	rootCmd.PersistentFlags().Bool("log-json", false, "Output logs in JSON format")

	cobra.OnInitialize(initLogging)

	rootCmd.AddCommand(createCmd)
	rootCmd.AddCommand(listCmd)
	rootCmd.AddCommand(startCmd)
	rootCmd.AddCommand(stopCmd)
	rootCmd.AddCommand(restartCmd)
	rootCmd.AddCommand(destroyCmd)
	rootCmd.AddCommand(inspectCmd)
	rootCmd.AddCommand(logsCmd)
	rootCmd.AddCommand(execCmd)
	rootCmd.AddCommand(queryCmd)
	rootCmd.AddCommand(seedCmd)
	rootCmd.AddCommand(workloadCmd)
	rootCmd.AddCommand(statsCmd)
	rootCmd.AddCommand(configCmd)
}

func initLogging() {
	logLevel, _ := rootCmd.PersistentFlags().GetString("log-level")
	logJSON, _ := rootCmd.PersistentFlags().GetBool("log-json")

	log.Init(log.Config{
		Level:      log.Level(logLevel),
		JSONOutput: logJSON,
	})
}

// newEngine connects to the local container engine. Every leaf command
// that touches a container goes through this one constructor so the
// "engine unavailable" error kind is raised in exactly one place.
func newEngine() (engine.Engine, error) {
	eng, err := engine.NewDockerEngine()
	if err != nil {
		return nil, dberrors.New(dberrors.KindEngineUnavailable, "cli", "connect", err)
	}
	return eng, nil
}
