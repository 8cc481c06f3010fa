package main

import (
	"fmt"
	"os"
	"strings"

	"github.com/spf13/cobra"

	"github.com/cuemby/dbarena/pkg/dbconn"
)

var execCmd = &cobra.Command{
	Use:   "exec <name> [sql]",
	Short: "Run SQL inside one managed container",
	Args:  cobra.MinimumNArgs(1),
	RunE:  runExec,
}

var queryCmd = &cobra.Command{
	Use:   "query <name>",
	Short: "Run SQL inside one managed container (synonym of exec)",
	Args:  cobra.ExactArgs(1),
	RunE:  runExec,
}

func init() {
	for _, c := range []*cobra.Command{execCmd, queryCmd} {
		c.Flags().String("file", "", "Path to a .sql file to run instead of an inline statement")
		c.Flags().String("script", "", "Path to a .sql file to run (query's spelling of --file)")
		c.Flags().String("password", "", "Override the reconnection password")
	}
}

func runExec(cmd *cobra.Command, args []string) error {
	ctx := cmd.Context()

	file, _ := cmd.Flags().GetString("file")
	script, _ := cmd.Flags().GetString("script")
	password, _ := cmd.Flags().GetString("password")
	if script != "" {
		file = script
	}

	var sqlText string
	switch {
	case file != "":
		data, err := os.ReadFile(file)
		if err != nil {
			return fmt.Errorf("reading %s: %w", file, err)
		}
		sqlText = string(data)
	case len(args) > 1:
		sqlText = strings.Join(args[1:], " ")
	default:
		return fmt.Errorf("nothing to run: pass --file/--script or an inline statement")
	}

	mgr, eng, err := newManager()
	if err != nil {
		return err
	}
	defer eng.Close()

	c, err := mgr.Find(ctx, args[0])
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

	for _, stmt := range splitStatements(sqlText) {
		rows, err := db.QueryContext(ctx, stmt)
		if err != nil {
			if _, execErr := db.ExecContext(ctx, stmt); execErr != nil {
				return fmt.Errorf("executing statement: %w", execErr)
			}
			continue
		}
		if err := printRows(rows); err != nil {
			return err
		}
	}
	return nil
}

func splitStatements(s string) []string {
	var out []string
	for _, stmt := range strings.Split(s, ";") {
		stmt = strings.TrimSpace(stmt)
		if stmt != "" {
			out = append(out, stmt)
		}
	}
	return out
}
