package main

import (
	"encoding/json"
	"fmt"
	"os"
	"text/tabwriter"

	"github.com/spf13/cobra"
)

var listCmd = &cobra.Command{
	Use:   "list",
	Short: "List managed database containers",
	RunE:  runList,
}

func init() {
	listCmd.Flags().Bool("all", false, "Include stopped containers")
	listCmd.Flags().Bool("json", false, "Print as JSON")
}

func runList(cmd *cobra.Command, args []string) error {
	ctx := cmd.Context()
	all, _ := cmd.Flags().GetBool("all")
	asJSON, _ := cmd.Flags().GetBool("json")

	mgr, eng, err := newManager()
	if err != nil {
		return err
	}
	defer eng.Close()

	containers, err := mgr.List(ctx, all)
	if err != nil {
		return err
	}

	if asJSON {
		enc := json.NewEncoder(os.Stdout)
		enc.SetIndent("", "  ")
		return enc.Encode(containers)
	}

	tw := tabwriter.NewWriter(os.Stdout, 0, 2, 2, ' ', 0)
	fmt.Fprintln(tw, "NAME\tKIND\tVERSION\tPORT\tSTATUS")
	for _, c := range containers {
		fmt.Fprintf(tw, "%s\t%s\t%s\t%d\t%s\n", c.Name, c.Kind, c.Version, c.Port, c.Status)
	}
	return tw.Flush()
}
