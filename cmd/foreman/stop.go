package main

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/strataga/foreman/internal/orchestrator"
)

var stopCmd = &cobra.Command{
	Use:   "stop <team-id>",
	Short: "Stop a running pipeline",
	Long: `Signal a running 'foreman run' for the given team to stop.

The pipeline finishes its in-flight execute/review cycles and exits
without assigning further tasks.`,
	Args: cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		teamID := args[0]

		sm, err := orchestrator.NewSignalManager(teamRunDir(teamID))
		if err != nil {
			return fmt.Errorf("open signal dir: %w", err)
		}
		defer sm.Close()

		if err := sm.SendStop(); err != nil {
			return fmt.Errorf("send stop signal: %w", err)
		}

		fmt.Printf("Stop signal sent to team %s\n", teamID)
		return nil
	},
}
