package main

import (
	"fmt"
	"os"

	"github.com/jedib0t/go-pretty/v6/table"
	"github.com/spf13/cobra"

	"github.com/strataga/foreman/internal/config"
)

var (
	costsTeamID string
	costsDBPath string
)

var costsCmd = &cobra.Command{
	Use:   "costs",
	Short: "Show token spend for a team",
	Long: `Show per-agent token usage and cost for a team, totaled from the
usage ledger. Every gateway call is recorded, including failed runs.`,
	RunE: func(cmd *cobra.Command, args []string) error {
		if costsTeamID == "" {
			return fmt.Errorf("--team is required")
		}

		cfg, err := config.Load()
		if err != nil {
			return fmt.Errorf("load config: %w", err)
		}
		if costsDBPath != "" {
			cfg.Database.Path = costsDBPath
		}
		db, err := openStore(cfg)
		if err != nil {
			return err
		}
		defer db.Close()
		if err := db.Migrate(); err != nil {
			return fmt.Errorf("migrate database: %w", err)
		}

		usage, err := db.UsageByAgent(costsTeamID)
		if err != nil {
			return fmt.Errorf("load usage: %w", err)
		}
		if len(usage) == 0 {
			fmt.Printf("No recorded usage for team %s\n", costsTeamID)
			return nil
		}

		t := table.NewWriter()
		t.SetOutputMirror(os.Stdout)
		t.SetStyle(table.StyleLight)
		t.AppendHeader(table.Row{"Agent", "Type", "Model", "Calls", "Input", "Output", "Cached", "Cost"})
		for _, u := range usage {
			t.AppendRow(table.Row{
				shortID(u.AgentID), u.AgentType, u.Model, u.Calls,
				u.InputTokens, u.OutputTokens, u.CachedTokens,
				fmt.Sprintf("$%.4f", u.Cost),
			})
		}

		total, err := db.TotalCost(costsTeamID)
		if err != nil {
			return fmt.Errorf("total cost: %w", err)
		}
		t.AppendFooter(table.Row{"", "", "", "", "", "", "Total", fmt.Sprintf("$%.4f", total)})
		t.Render()

		return nil
	},
}

func init() {
	costsCmd.Flags().StringVar(&costsTeamID, "team", "", "Team ID to report on")
	costsCmd.Flags().StringVar(&costsDBPath, "db", "", "Override the state database path")
}
