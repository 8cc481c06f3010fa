package main

import (
	"fmt"
	"time"

	"github.com/spf13/cobra"
)

const defaultLifecycleTimeout = 10 * time.Second

var startCmd = &cobra.Command{
	Use:   "start <name>",
	Short: "Start a stopped managed container",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		mgr, eng, err := newManager()
		if err != nil {
			return err
		}
		defer eng.Close()

		c, err := mgr.Find(cmd.Context(), args[0])
		if err != nil {
			return err
		}
		if err := mgr.Start(cmd.Context(), c.ID); err != nil {
			return err
		}
		fmt.Printf("✓ started %s\n", c.Name)
		return nil
	},
}

var stopCmd = &cobra.Command{
	Use:   "stop <name>",
	Short: "Stop a managed container",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		timeout, _ := cmd.Flags().GetDuration("timeout")
		mgr, eng, err := newManager()
		if err != nil {
			return err
		}
		defer eng.Close()

		c, err := mgr.Find(cmd.Context(), args[0])
		if err != nil {
			return err
		}
		if err := mgr.Stop(cmd.Context(), c.ID, timeout); err != nil {
			return err
		}
		fmt.Printf("✓ stopped %s\n", c.Name)
		return nil
	},
}

var restartCmd = &cobra.Command{
	Use:   "restart <name>",
	Short: "Restart a managed container",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		timeout, _ := cmd.Flags().GetDuration("timeout")
		mgr, eng, err := newManager()
		if err != nil {
			return err
		}
		defer eng.Close()

		c, err := mgr.Find(cmd.Context(), args[0])
		if err != nil {
			return err
		}
		if err := mgr.Restart(cmd.Context(), c.ID, timeout); err != nil {
			return err
		}
		fmt.Printf("✓ restarted %s\n", c.Name)
		return nil
	},
}

func init() {
	for _, c := range []*cobra.Command{stopCmd, restartCmd} {
		c.Flags().DurationP("timeout", "i", defaultLifecycleTimeout, "Graceful stop timeout before SIGKILL")
	}
}

var destroyCmd = &cobra.Command{
	Use:   "destroy <name>...",
	Short: "Remove one or more managed containers",
	Args:  cobra.MinimumNArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		yes, _ := cmd.Flags().GetBool("yes")
		removeVolumes, _ := cmd.Flags().GetBool("volumes")

		if !yes {
			fmt.Printf("this will permanently remove %d container(s); pass -y to confirm\n", len(args))
			return nil
		}

		mgr, eng, err := newManager()
		if err != nil {
			return err
		}
		defer eng.Close()

		var failed error
		for _, name := range args {
			c, err := mgr.Find(cmd.Context(), name)
			if err != nil {
				failed = err
				continue
			}
			if err := mgr.Destroy(cmd.Context(), c.ID, removeVolumes); err != nil {
				failed = err
				continue
			}
			fmt.Printf("✓ destroyed %s\n", name)
		}
		return failed
	},
}

func init() {
	destroyCmd.Flags().BoolP("yes", "y", false, "Skip the confirmation prompt")
	destroyCmd.Flags().BoolP("volumes", "v", false, "Also remove the managed volume, if any")
}
