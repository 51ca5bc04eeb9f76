package main

import (
	"fmt"
	"os"

	"github.com/fatih/color"
	"github.com/jedib0t/go-pretty/v6/table"
	"github.com/spf13/cobra"

	"github.com/strataga/foreman/internal/config"
	"github.com/strataga/foreman/pkg/models"
)

var tasksDBPath string

var tasksCmd = &cobra.Command{
	Use:   "tasks <goal-id>",
	Short: "List the tasks for a goal",
	Long: `List every task decomposed from a goal, with its current status,
review round, and assigned worker.`,
	Args: cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		goalID := args[0]

		cfg, err := config.Load()
		if err != nil {
			return fmt.Errorf("load config: %w", err)
		}
		if tasksDBPath != "" {
			cfg.Database.Path = tasksDBPath
		}
		db, err := openStore(cfg)
		if err != nil {
			return err
		}
		defer db.Close()
		if err := db.Migrate(); err != nil {
			return fmt.Errorf("migrate database: %w", err)
		}

		goal, err := db.GetGoal(goalID)
		if err != nil {
			return fmt.Errorf("load goal: %w", err)
		}
		if goal == nil {
			return fmt.Errorf("goal %s not found", goalID)
		}

		tasks, err := db.ListTasksByGoal(goalID)
		if err != nil {
			return fmt.Errorf("load tasks: %w", err)
		}
		if len(tasks) == 0 {
			fmt.Printf("No tasks recorded for goal %s\n", goalID)
			return nil
		}

		fmt.Printf("Goal: %s\n\n", goal.Text)

		t := table.NewWriter()
		t.SetOutputMirror(os.Stdout)
		t.SetStyle(table.StyleLight)
		t.AppendHeader(table.Row{"#", "Title", "Status", "Round", "Worker"})
		for _, task := range tasks {
			t.AppendRow(table.Row{
				task.Ordinal + 1, task.Title, colorStatus(task.Status),
				task.Round, shortID(task.AssignedWorkerID),
			})
		}
		t.Render()

		return nil
	},
}

func colorStatus(status models.TaskStatus) string {
	switch status {
	case models.TaskStatusApproved:
		return color.GreenString(string(status))
	case models.TaskStatusRejected:
		return color.RedString(string(status))
	case models.TaskStatusInProgress, models.TaskStatusUnderReview, models.TaskStatusRevising:
		return color.YellowString(string(status))
	default:
		return string(status)
	}
}

func init() {
	tasksCmd.Flags().StringVar(&tasksDBPath, "db", "", "Override the state database path")
}
