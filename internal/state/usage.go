package state

import (
	"context"
	"fmt"
	"time"

	"github.com/strataga/foreman/pkg/models"
)

// RecordUsage appends one token usage record. Implements the gateway's
// UsageRecorder so every successful completion lands here.
func (db *DB) RecordUsage(_ context.Context, rec models.TokenUsageRecord) error {
	_, err := db.Exec(`
		INSERT INTO token_usage (id, team_id, agent_id, agent_type, model,
			input_tokens, output_tokens, cached_tokens, cost, request_id, created_at)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)
	`, rec.ID, rec.TeamID, rec.AgentID, string(rec.AgentType), rec.Model,
		rec.InputTokens, rec.OutputTokens, rec.CachedTokens, rec.Cost, rec.RequestID,
		formatTime(rec.CreatedAt))
	if err != nil {
		return fmt.Errorf("record usage: %w", err)
	}
	return nil
}

// TotalCost returns the summed cost of all recorded calls for a team.
func (db *DB) TotalCost(teamID string) (float64, error) {
	var total float64
	row := db.QueryRow(`
		SELECT COALESCE(SUM(cost), 0) FROM token_usage WHERE team_id = ?
	`, teamID)
	if err := row.Scan(&total); err != nil {
		return 0, fmt.Errorf("total cost: %w", err)
	}
	return total, nil
}

// AgentUsage is one row of the per-agent usage summary.
type AgentUsage struct {
	AgentID      string
	AgentType    models.AgentType
	Model        string
	Calls        int
	InputTokens  int64
	OutputTokens int64
	CachedTokens int64
	Cost         float64
}

// UsageByAgent summarizes a team's usage grouped by agent.
func (db *DB) UsageByAgent(teamID string) ([]AgentUsage, error) {
	rows, err := db.Query(`
		SELECT agent_id, agent_type, model, COUNT(*),
			SUM(input_tokens), SUM(output_tokens), SUM(cached_tokens), SUM(cost)
		FROM token_usage WHERE team_id = ?
		GROUP BY agent_id, agent_type, model
		ORDER BY SUM(cost) DESC
	`, teamID)
	if err != nil {
		return nil, fmt.Errorf("usage by agent: %w", err)
	}
	defer rows.Close()

	var summary []AgentUsage
	for rows.Next() {
		var u AgentUsage
		if err := rows.Scan(&u.AgentID, &u.AgentType, &u.Model, &u.Calls,
			&u.InputTokens, &u.OutputTokens, &u.CachedTokens, &u.Cost); err != nil {
			return nil, fmt.Errorf("scan agent usage: %w", err)
		}
		summary = append(summary, u)
	}
	return summary, nil
}

// UsageBetween lists usage records in a time window, newest first.
func (db *DB) UsageBetween(teamID string, from, to time.Time) ([]models.TokenUsageRecord, error) {
	rows, err := db.Query(`
		SELECT id, team_id, agent_id, agent_type, model,
			input_tokens, output_tokens, cached_tokens, cost, request_id, created_at
		FROM token_usage
		WHERE team_id = ? AND created_at >= ? AND created_at < ?
		ORDER BY created_at DESC
	`, teamID, formatTime(from), formatTime(to))
	if err != nil {
		return nil, fmt.Errorf("usage between: %w", err)
	}
	defer rows.Close()

	var records []models.TokenUsageRecord
	for rows.Next() {
		var rec models.TokenUsageRecord
		var requestID string
		var createdAt string
		if err := rows.Scan(&rec.ID, &rec.TeamID, &rec.AgentID, &rec.AgentType, &rec.Model,
			&rec.InputTokens, &rec.OutputTokens, &rec.CachedTokens, &rec.Cost, &requestID, &createdAt); err != nil {
			return nil, fmt.Errorf("scan usage record: %w", err)
		}
		rec.RequestID = requestID
		rec.CreatedAt, _ = parseTime(createdAt)
		records = append(records, rec)
	}
	return records, nil
}
