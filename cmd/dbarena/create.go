package main

import (
	"context"
	"fmt"

	"github.com/spf13/cobra"

	"github.com/cuemby/dbarena/pkg/config"
	"github.com/cuemby/dbarena/pkg/container"
	"github.com/cuemby/dbarena/pkg/dbkind"
	"github.com/cuemby/dbarena/pkg/initexec"
)

var createCmd = &cobra.Command{
	Use:   "create <kind>...",
	Short: "Create & start one or more managed database containers",
	Long: `Create <kind>... starts one managed container per kind given
(postgres, mysql, sqlserver), waits for each to become healthy, and runs
any --init-script against it in order.`,
	Args: cobra.MinimumNArgs(1),
	RunE: runCreate,
}

func init() {
	createCmd.Flags().String("name", "", "Container name (only valid with a single kind)")
	createCmd.Flags().String("version", "", "Image version/tag")
	createCmd.Flags().Int("port", 0, "Host port (0 = auto-assign)")
	createCmd.Flags().Int64("memory", 0, "Memory limit in bytes (0 = unbounded)")
	createCmd.Flags().Int64("cpu-shares", 0, "CPU shares (0 = unbounded)")
	createCmd.Flags().Bool("persistent", false, "Attach a named managed volume instead of an ephemeral one")
	createCmd.Flags().StringArray("env", nil, "Env var override KEY=VALUE (repeatable)")
	createCmd.Flags().String("env-file", "", "Dotenv-style file of env var overrides")
	createCmd.Flags().StringArray("init-script", nil, "SQL script to run after boot (repeatable, in order)")
	createCmd.Flags().String("profile", "", "Named env profile from the config file")
	createCmd.Flags().String("config", "", "Config file path (overrides discovery)")
	createCmd.Flags().Bool("continue-on-error", false, "Keep running remaining init scripts after a failure")
	createCmd.Flags().Bool("keep-on-error", false, "Do not destroy the container if an init script fails")
}

func runCreate(cmd *cobra.Command, args []string) error {
	ctx := cmd.Context()

	name, _ := cmd.Flags().GetString("name")
	version, _ := cmd.Flags().GetString("version")
	port, _ := cmd.Flags().GetInt("port")
	memory, _ := cmd.Flags().GetInt64("memory")
	cpuShares, _ := cmd.Flags().GetInt64("cpu-shares")
	persistent, _ := cmd.Flags().GetBool("persistent")
	envFlags, _ := cmd.Flags().GetStringArray("env")
	envFilePath, _ := cmd.Flags().GetString("env-file")
	initScripts, _ := cmd.Flags().GetStringArray("init-script")
	profile, _ := cmd.Flags().GetString("profile")
	configPath, _ := cmd.Flags().GetString("config")
	continueOnError, _ := cmd.Flags().GetBool("continue-on-error")
	keepOnError, _ := cmd.Flags().GetBool("keep-on-error")

	if name != "" && len(args) > 1 {
		return fmt.Errorf("--name can only be used when creating a single container")
	}

	cliEnv, err := config.ParseEnvFlags(envFlags)
	if err != nil {
		return err
	}
	envFile, err := config.ParseEnvFile(envFilePath)
	if err != nil {
		return err
	}

	cfgFilePath, err := config.Discover(configPath)
	if err != nil {
		return err
	}
	cfgFile, err := config.Load(cfgFilePath)
	if err != nil {
		return err
	}

	mgr, eng, err := newManager()
	if err != nil {
		return err
	}
	defer eng.Close()

	scripts := make([]initexec.Script, len(initScripts))
	for i, p := range initScripts {
		scripts[i] = initexec.Script{Path: p, ContinueOnError: continueOnError}
	}

	for i, kindArg := range args {
		kind, err := dbkind.Parse(kindArg)
		if err != nil {
			return err
		}

		env, err := config.ResolveEnv(cfgFile, string(kind), profile, envFile, cliEnv)
		if err != nil {
			return err
		}

		containerName := name
		if containerName != "" && len(args) > 1 {
			containerName = fmt.Sprintf("%s-%d", name, i+1)
		}

		created, err := mgr.Create(ctx, container.Config{
			Kind:        kind,
			Version:     version,
			Name:        containerName,
			HostPort:    port,
			MemoryBytes: memory,
			CPUShares:   cpuShares,
			Env:         env,
			Persistent:  persistent,
		})
		if err != nil {
			return err
		}

		fmt.Printf("✓ created %s (%s) on port %d\n", created.Name, created.Kind, created.Port)

		if len(scripts) > 0 {
			logDir, err := logDirFor(created.ID)
			if err != nil {
				return err
			}
			user, password := container.AdminCredentials(created.Kind, env)
			x := initexec.New(eng)
			if _, err := x.Run(ctx, created.ID, created.Kind, user, password, scripts, logDir); err != nil {
				if !keepOnError {
					_ = mgr.Destroy(context.Background(), created.ID, true)
				}
				return err
			}
			fmt.Printf("✓ ran %d init script(s) against %s (logs: %s)\n", len(scripts), created.Name, logDir)
		}
	}
	return nil
}
