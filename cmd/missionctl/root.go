package main

import (
	"github.com/spf13/cobra"
)

const version = "0.1.0"

// newRootCmd creates the root missionctl command with all subcommands attached.
func newRootCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:           "missionctl",
		Short:         "Mission control delegation and escalation engine",
		Long:          "missionctl runs the mission control API and offers offline checks\nagainst the agent hierarchy, routing and escalation rules.",
		Version:       version,
		SilenceUsage:  true,
		SilenceErrors: true,
	}

	cmd.SetVersionTemplate("missionctl {{.Version}}\n")

	cmd.AddCommand(
		newServeCmd(),
		newWatchCmd(),
		newCheckCmd(),
	)

	return cmd
}
