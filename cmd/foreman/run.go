package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"strings"
	"syscall"

	"github.com/anthropics/anthropic-sdk-go"
	"github.com/charmbracelet/lipgloss"
	"github.com/fatih/color"
	"github.com/google/uuid"
	"github.com/spf13/cobra"

	"github.com/strataga/foreman/internal/config"
	"github.com/strataga/foreman/internal/gateway"
	"github.com/strataga/foreman/internal/orchestrator"
	"github.com/strataga/foreman/internal/prompt"
	"github.com/strataga/foreman/internal/state"
)

var (
	runTeamID       string
	runManagerModel string
	runWorkerModel  string
	runDBPath       string
)

var runCmd = &cobra.Command{
	Use:   "run <goal>",
	Short: "Run a goal through the manager/worker pipeline",
	Long: `Run a goal end to end: analyze it, form a worker team, decompose it
into tasks, then execute and review every task until it is approved or
rejected.

The manager agent handles analysis, team formation, decomposition, and
review. Worker agents execute tasks in parallel, one task per worker at a
time. Rejected outputs get up to three revision rounds.

Progress events stream to stdout. Press Ctrl-C or run 'foreman stop <team-id>'
from another terminal to stop after the in-flight tasks finish.`,
	Args: cobra.MinimumNArgs(1),
	RunE: runGoal,
}

func init() {
	runCmd.Flags().StringVar(&runTeamID, "team", "", "Team ID to run under (generated when empty)")
	runCmd.Flags().StringVar(&runManagerModel, "manager-model", "", "Override the manager model from config")
	runCmd.Flags().StringVar(&runWorkerModel, "worker-model", "", "Override the worker model from config")
	runCmd.Flags().StringVar(&runDBPath, "db", "", "Override the state database path")
}

func runGoal(cmd *cobra.Command, args []string) error {
	goalText := strings.Join(args, " ")

	cfg, err := config.Load()
	if err != nil {
		return fmt.Errorf("load config: %w", err)
	}
	if runManagerModel != "" {
		cfg.Models.Manager = runManagerModel
	}
	if runWorkerModel != "" {
		cfg.Models.Worker = runWorkerModel
	}
	if runDBPath != "" {
		cfg.Database.Path = runDBPath
	}
	if err := cfg.Validate(); err != nil {
		return fmt.Errorf("invalid config: %w", err)
	}

	apiKey, err := config.GetAPIKey(cfg)
	if err != nil {
		return fmt.Errorf("%w\n\nSet ANTHROPIC_API_KEY or run 'foreman config anthropic.api_key <key>'", err)
	}

	client, err := gateway.NewClient(gateway.ClientConfig{
		Model:         anthropic.Model(cfg.Models.Manager),
		APIKey:        apiKey,
		UseAWSBedrock: cfg.Anthropic.UseBedrock,
		AWSRegion:     cfg.Anthropic.AWSRegion,
		AWSProfile:    cfg.Anthropic.AWSProfile,
	})
	if err != nil {
		return fmt.Errorf("create API client: %w", err)
	}

	db, err := openStore(cfg)
	if err != nil {
		return err
	}
	defer db.Close()
	if err := db.Migrate(); err != nil {
		return fmt.Errorf("migrate database: %w", err)
	}

	catalog := prompt.NewCatalog()
	if cfg.Prompts.OverridesPath != "" {
		if err := catalog.LoadOverrides(cfg.Prompts.OverridesPath); err != nil {
			return fmt.Errorf("load prompt overrides: %w", err)
		}
	}

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, syscall.SIGINT, syscall.SIGTERM)
	go func() {
		<-sigCh
		fmt.Println("\nReceived interrupt, shutting down...")
		cancel()
	}()

	gw := gateway.New(client, db)

	teamID := runTeamID
	if teamID == "" {
		teamID = uuid.New().String()
	}

	orchCfg := orchestrator.Config{
		TeamID:             teamID,
		ManagerModel:       cfg.Models.Manager,
		WorkerModel:        cfg.Models.Worker,
		ManagerMaxTokens:   cfg.Generation.ManagerMaxTokens,
		WorkerMaxTokens:    cfg.Generation.WorkerMaxTokens,
		ManagerTemperature: cfg.Generation.ManagerTemperature,
		WorkerTemperature:  cfg.Generation.WorkerTemperature,
	}

	events := make(chan orchestrator.Event, 64)
	done := make(chan struct{})
	go func() {
		defer close(done)
		consumeEvents(events)
	}()

	opts := []orchestrator.Option{
		orchestrator.WithStore(db),
		orchestrator.WithEvents(events),
	}

	// The signal dir lets 'foreman stop <team-id>' reach a running pipeline.
	sm, err := orchestrator.NewSignalManager(teamRunDir(teamID))
	if err != nil {
		fmt.Fprintf(os.Stderr, "Warning: stop signals unavailable: %v\n", err)
	} else {
		defer sm.Close()
		sm.ClearSignals()
		opts = append(opts, orchestrator.WithSignals(sm))
	}

	orch := orchestrator.New(gw, catalog, orchCfg, opts...)

	fmt.Printf("Starting goal: %s\n", goalText)
	fmt.Printf("  Team:          %s\n", orch.TeamID())
	fmt.Printf("  Manager model: %s\n", cfg.Models.Manager)
	fmt.Printf("  Worker model:  %s\n", cfg.Models.Worker)
	fmt.Println()

	result, err := orch.Run(ctx, goalText)
	close(events)
	<-done
	if err != nil {
		return fmt.Errorf("orchestration failed: %w", err)
	}

	printRunSummary(db, orch.TeamID(), result)
	return nil
}

// consumeEvents prints pipeline events as they arrive.
func consumeEvents(events <-chan orchestrator.Event) {
	for event := range events {
		switch event.Type {
		case orchestrator.EventGoalAnalyzed:
			fmt.Printf("%s %s\n", color.CyanString("[ANALYZED]"), event.Message)
		case orchestrator.EventTeamFormed:
			fmt.Printf("%s %s\n", color.CyanString("[TEAM]"), event.Message)
		case orchestrator.EventTasksDecomposed:
			fmt.Printf("%s %s\n", color.CyanString("[TASKS]"), event.Message)
		case orchestrator.EventTaskAssigned:
			fmt.Printf("%s %s -> %s\n", color.BlueString("[ASSIGNED]"), event.TaskTitle, shortID(event.WorkerID))
		case orchestrator.EventTaskExecuted:
			fmt.Printf("%s %s (round %d)\n", color.BlueString("[EXECUTED]"), event.TaskTitle, event.Round)
		case orchestrator.EventTaskReviewed:
			fmt.Printf("%s %s: %s\n", color.YellowString("[REVIEWED]"), event.TaskTitle, event.Decision)
		case orchestrator.EventTaskApproved:
			fmt.Printf("%s %s\n", color.GreenString("[APPROVED]"), event.TaskTitle)
		case orchestrator.EventTaskRejected:
			fmt.Printf("%s %s: %s\n", color.RedString("[REJECTED]"), event.TaskTitle, event.Message)
		case orchestrator.EventRunCompleted:
			fmt.Printf("%s %s\n", color.GreenString("[COMPLETED]"), event.Message)
		case orchestrator.EventRunStopped:
			fmt.Printf("%s %s\n", color.YellowString("[STOPPED]"), event.Message)
		}
	}
}

var (
	summaryHeaderStyle  = lipgloss.NewStyle().Bold(true).Foreground(lipgloss.Color("12"))
	summarySuccessStyle = lipgloss.NewStyle().Foreground(lipgloss.Color("10"))
	summaryWarnStyle    = lipgloss.NewStyle().Foreground(lipgloss.Color("11"))
	summaryFailStyle    = lipgloss.NewStyle().Foreground(lipgloss.Color("9"))
)

// printRunSummary reports task outcomes and total spend for the run.
func printRunSummary(db *state.DB, teamID string, result *orchestrator.RunResult) {
	fmt.Println()
	fmt.Println(summaryHeaderStyle.Render("Run summary"))
	if result.Stopped {
		fmt.Println(summaryWarnStyle.Render("Stopped before all tasks finished."))
	}
	fmt.Printf("  %s  %s\n",
		summarySuccessStyle.Render(fmt.Sprintf("%d approved", result.Approved)),
		summaryFailStyle.Render(fmt.Sprintf("%d rejected", result.Rejected)))
	fmt.Printf("  %d tasks, %d outputs, %d reviews\n", len(result.Tasks), len(result.Outputs), len(result.Reviews))

	cost, err := db.TotalCost(teamID)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Warning: cost lookup failed: %v\n", err)
		return
	}
	fmt.Printf("  Total cost: $%.4f\n", cost)
	fmt.Printf("\nDetails: foreman tasks %s | foreman costs --team %s\n", result.Goal.ID, teamID)
}

func shortID(id string) string {
	if len(id) > 8 {
		return id[:8]
	}
	return id
}
