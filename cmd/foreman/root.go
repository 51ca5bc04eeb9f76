package main

import (
	"os"

	"github.com/spf13/cobra"
)

var rootCmd = &cobra.Command{
	Use:   "foreman",
	Short: "Manager/worker agent orchestration for project goals",
	Long: `Foreman turns a project goal into reviewed deliverables using a
manager/worker agent pipeline.

Given a goal, the manager agent analyzes it, forms a team of specialized
worker agents, and decomposes the goal into tasks with acceptance criteria.
Workers execute tasks in parallel; every output goes back to the manager
for review and up to three revision rounds before it is approved or
rejected. All state and token spend is recorded in a local SQLite database.`,
}

// Execute runs the root command
func Execute() {
	if err := rootCmd.Execute(); err != nil {
		os.Exit(1)
	}
}

func init() {
	rootCmd.AddCommand(runCmd)
	rootCmd.AddCommand(costsCmd)
	rootCmd.AddCommand(tasksCmd)
	rootCmd.AddCommand(configCmd)
	rootCmd.AddCommand(stopCmd)
	rootCmd.AddCommand(versionCmd)
}
