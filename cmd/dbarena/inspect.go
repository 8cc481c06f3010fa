package main

import (
	"encoding/json"
	"io"
	"os"

	"github.com/spf13/cobra"
)

var inspectCmd = &cobra.Command{
	Use:   "inspect <name>",
	Short: "Show full detail for one managed container",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		mgr, eng, err := newManager()
		if err != nil {
			return err
		}
		defer eng.Close()

		details, err := findOne(cmd.Context(), mgr, args[0])
		if err != nil {
			return err
		}

		enc := json.NewEncoder(os.Stdout)
		enc.SetIndent("", "  ")
		return enc.Encode(details)
	},
}

var logsCmd = &cobra.Command{
	Use:   "logs <name>",
	Short: "Print or follow a managed container's logs",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		tail, _ := cmd.Flags().GetInt("tail")
		follow, _ := cmd.Flags().GetBool("follow")

		mgr, eng, err := newManager()
		if err != nil {
			return err
		}
		defer eng.Close()

		c, err := mgr.Find(cmd.Context(), args[0])
		if err != nil {
			return err
		}

		rc, err := mgr.Logs(cmd.Context(), c.ID, tail, follow)
		if err != nil {
			return err
		}
		defer rc.Close()

		_, err = io.Copy(os.Stdout, rc)
		return err
	},
}

func init() {
	logsCmd.Flags().Int("tail", 0, "Number of trailing lines to show (0 = all)")
	logsCmd.Flags().BoolP("follow", "i", false, "Stream new log lines as they arrive")
}
