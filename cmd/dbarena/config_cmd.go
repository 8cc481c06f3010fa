package main

import (
	"fmt"
	"os"

	"github.com/BurntSushi/toml"
	"github.com/spf13/cobra"

	"github.com/cuemby/dbarena/pkg/config"
)

var configCmd = &cobra.Command{
	Use:   "config",
	Short: "Config file utilities",
}

var configValidateCmd = &cobra.Command{
	Use:   "validate",
	Short: "Parse the discovered config file and report any error",
	RunE: func(cmd *cobra.Command, args []string) error {
		path, _ := cmd.Flags().GetString("config")
		resolved, err := config.Discover(path)
		if err != nil {
			return err
		}
		if resolved == "" {
			fmt.Println("✓ no config file found, built-in defaults apply")
			return nil
		}
		if _, err := config.Load(resolved); err != nil {
			return err
		}
		fmt.Printf("✓ %s is valid\n", resolved)
		return nil
	},
}

var configShowCmd = &cobra.Command{
	Use:   "show",
	Short: "Print the discovered config file, normalized to TOML",
	RunE: func(cmd *cobra.Command, args []string) error {
		path, _ := cmd.Flags().GetString("config")
		resolved, err := config.Discover(path)
		if err != nil {
			return err
		}
		f, err := config.Load(resolved)
		if err != nil {
			return err
		}
		enc := toml.NewEncoder(os.Stdout)
		return enc.Encode(f)
	},
}

var configInitCmd = &cobra.Command{
	Use:   "init",
	Short: "Write a starter dbarena.toml in the current directory",
	RunE: func(cmd *cobra.Command, args []string) error {
		const path = "dbarena.toml"
		if _, err := os.Stat(path); err == nil {
			return fmt.Errorf("%s already exists", path)
		}
		if err := os.WriteFile(path, []byte(starterConfig), 0o644); err != nil {
			return err
		}
		fmt.Printf("✓ wrote %s\n", path)
		return nil
	},
}

const starterConfig = `# dbarena config — see "dbarena config show" for the resolved result.

[databases.postgres.env]
POSTGRES_PASSWORD = "dbarena"

[databases.mysql.env]
MYSQL_ROOT_PASSWORD = "dbarena"

[databases.sqlserver.env]
MSSQL_SA_PASSWORD = "dbarena!Arena1"

[profiles.ci.env]
`

func init() {
	for _, c := range []*cobra.Command{configValidateCmd, configShowCmd} {
		c.Flags().String("config", "", "Config file path (overrides discovery)")
	}
	configCmd.AddCommand(configValidateCmd, configShowCmd, configInitCmd)
}
