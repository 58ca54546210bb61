package cli

import (
	"fmt"

	"github.com/spf13/cobra"
)

var (
	appVersion = "dev"
	appCommit  = "none"
	appDate    = "unknown"
)

// SetVersionInfo sets the version information injected via ldflags.
func SetVersionInfo(version, commit, date string) {
	appVersion = version
	appCommit = commit
	appDate = date
}

var rootCmd = &cobra.Command{
	Use:   "abl",
	Short: "Agent Backlog - task dependency and scheduling engine for AI coding agents",
	Long: `Agent Backlog (abl) manages the work backlog of autonomous coding agents:
projects, tasks with dependency relationships, status lifecycle, and
parallel execution planning.

Tasks become ready automatically as their dependencies complete, and epics
can be partitioned into batches of tasks that are safe to run concurrently.`,
}

var versionCmd = &cobra.Command{
	Use:   "version",
	Short: "Print version information",
	Run: func(cmd *cobra.Command, args []string) {
		fmt.Printf("abl %s\ncommit: %s\nbuilt:  %s\n", appVersion, appCommit, appDate)
	},
}

func init() {
	rootCmd.AddCommand(versionCmd)
}

// Execute runs the root command.
func Execute() error {
	return rootCmd.Execute()
}
