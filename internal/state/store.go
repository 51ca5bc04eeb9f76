package state

import (
	"database/sql"
	"encoding/json"
	"fmt"

	"github.com/strataga/foreman/pkg/models"
)

// Goal CRUD operations

// CreateGoal persists a goal.
func (db *DB) CreateGoal(g models.Goal) error {
	_, err := db.Exec(`
		INSERT INTO goals (id, team_id, text, created_at)
		VALUES (?, ?, ?, ?)
	`, g.ID, g.TeamID, g.Text, formatTime(g.CreatedAt))
	if err != nil {
		return fmt.Errorf("create goal: %w", err)
	}
	return nil
}

// GetGoal retrieves a goal by ID. Returns nil when not found.
func (db *DB) GetGoal(id string) (*models.Goal, error) {
	row := db.QueryRow(`
		SELECT id, team_id, text, created_at
		FROM goals WHERE id = ?
	`, id)

	var g models.Goal
	var createdAt string
	err := row.Scan(&g.ID, &g.TeamID, &g.Text, &createdAt)
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("get goal: %w", err)
	}

	g.CreatedAt, _ = parseTime(createdAt)
	return &g, nil
}

// Analysis CRUD operations

// CreateAnalysis persists a goal analysis.
func (db *DB) CreateAnalysis(a *models.GoalAnalysis) error {
	subtasks, _ := json.Marshal(a.Subtasks)
	specializations, _ := json.Marshal(a.RequiredSpecializations)
	blockers, _ := json.Marshal(a.PotentialBlockers)
	criteria, _ := json.Marshal(a.SuccessCriteria)

	_, err := db.Exec(`
		INSERT INTO goal_analyses (id, goal_id, team_id, core_objective, subtasks,
			required_specializations, estimated_timeline_hours, potential_blockers,
			success_criteria, prompt_version, created_at)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)
	`, a.ID, a.GoalID, a.TeamID, a.CoreObjective, string(subtasks),
		string(specializations), a.EstimatedTimelineHours, string(blockers),
		string(criteria), a.PromptVersion, formatTime(a.CreatedAt))
	if err != nil {
		return fmt.Errorf("create analysis: %w", err)
	}
	return nil
}

// LatestAnalysis returns the most recent analysis for a team, if any.
func (db *DB) LatestAnalysis(teamID string) (*models.GoalAnalysis, error) {
	row := db.QueryRow(`
		SELECT id, goal_id, team_id, core_objective, subtasks,
			required_specializations, estimated_timeline_hours, potential_blockers,
			success_criteria, prompt_version, created_at
		FROM goal_analyses WHERE team_id = ?
		ORDER BY created_at DESC, id DESC LIMIT 1
	`, teamID)

	var a models.GoalAnalysis
	var subtasks, specializations, criteria string
	var blockers, promptVersion sql.NullString
	var createdAt string
	err := row.Scan(&a.ID, &a.GoalID, &a.TeamID, &a.CoreObjective, &subtasks,
		&specializations, &a.EstimatedTimelineHours, &blockers,
		&criteria, &promptVersion, &createdAt)
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("latest analysis: %w", err)
	}

	json.Unmarshal([]byte(subtasks), &a.Subtasks)
	json.Unmarshal([]byte(specializations), &a.RequiredSpecializations)
	json.Unmarshal([]byte(criteria), &a.SuccessCriteria)
	if blockers.Valid {
		json.Unmarshal([]byte(blockers.String), &a.PotentialBlockers)
	}
	if promptVersion.Valid {
		a.PromptVersion = promptVersion.String
	}
	a.CreatedAt, _ = parseTime(createdAt)
	return &a, nil
}

// Worker specification CRUD operations

// CreateWorkerSpec persists a worker specification.
func (db *DB) CreateWorkerSpec(s models.WorkerSpecification) error {
	skills, _ := json.Marshal(s.Skills)
	responsibilities, _ := json.Marshal(s.Responsibilities)
	tools, _ := json.Marshal(s.RequiredTools)

	_, err := db.Exec(`
		INSERT INTO worker_specs (id, team_id, specialization, skills,
			responsibilities, required_tools, assigned_worker_id, created_at)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?)
	`, s.ID, s.TeamID, s.Specialization, string(skills),
		string(responsibilities), string(tools), s.AssignedWorkerID, formatTime(s.CreatedAt))
	if err != nil {
		return fmt.Errorf("create worker spec: %w", err)
	}
	return nil
}

// ListWorkerSpecs lists the worker specifications for a team in creation order.
func (db *DB) ListWorkerSpecs(teamID string) ([]models.WorkerSpecification, error) {
	rows, err := db.Query(`
		SELECT id, team_id, specialization, skills, responsibilities,
			required_tools, assigned_worker_id, created_at
		FROM worker_specs WHERE team_id = ? ORDER BY created_at, id
	`, teamID)
	if err != nil {
		return nil, fmt.Errorf("list worker specs: %w", err)
	}
	defer rows.Close()

	var specs []models.WorkerSpecification
	for rows.Next() {
		var s models.WorkerSpecification
		var skills, responsibilities string
		var tools, assignedWorkerID sql.NullString
		var createdAt string
		if err := rows.Scan(&s.ID, &s.TeamID, &s.Specialization, &skills,
			&responsibilities, &tools, &assignedWorkerID, &createdAt); err != nil {
			return nil, fmt.Errorf("scan worker spec: %w", err)
		}
		json.Unmarshal([]byte(skills), &s.Skills)
		json.Unmarshal([]byte(responsibilities), &s.Responsibilities)
		if tools.Valid {
			json.Unmarshal([]byte(tools.String), &s.RequiredTools)
		}
		if assignedWorkerID.Valid {
			s.AssignedWorkerID = assignedWorkerID.String
		}
		s.CreatedAt, _ = parseTime(createdAt)
		specs = append(specs, s)
	}
	return specs, nil
}

// Task CRUD operations

// CreateTask persists a task.
func (db *DB) CreateTask(t *models.Task) error {
	criteria, _ := json.Marshal(t.AcceptanceCriteria)
	skills, _ := json.Marshal(t.RequiredSkills)

	_, err := db.Exec(`
		INSERT INTO tasks (id, goal_id, team_id, title, description,
			acceptance_criteria, required_skills, complexity, status, ordinal,
			assigned_worker_id, round, execution_failures, created_at, completed_at)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)
	`, t.ID, t.GoalID, t.TeamID, t.Title, t.Description,
		string(criteria), string(skills), string(t.Complexity), string(t.Status), t.Ordinal,
		t.AssignedWorkerID, t.Round, t.ExecutionFailures, formatTime(t.CreatedAt), nil)
	if err != nil {
		return fmt.Errorf("create task: %w", err)
	}
	return nil
}

// GetTask retrieves a task by ID. Returns nil when not found.
func (db *DB) GetTask(id string) (*models.Task, error) {
	row := db.QueryRow(taskSelect+` WHERE id = ?`, id)

	t, err := scanTask(row)
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("get task: %w", err)
	}
	return t, nil
}

// UpdateTask updates a task's mutable fields.
func (db *DB) UpdateTask(t *models.Task) error {
	var completedAt *string
	if t.CompletedAt != nil {
		s := formatTime(*t.CompletedAt)
		completedAt = &s
	}

	_, err := db.Exec(`
		UPDATE tasks SET status = ?, assigned_worker_id = ?, round = ?,
			execution_failures = ?, completed_at = ?
		WHERE id = ?
	`, string(t.Status), t.AssignedWorkerID, t.Round, t.ExecutionFailures, completedAt, t.ID)
	if err != nil {
		return fmt.Errorf("update task: %w", err)
	}
	return nil
}

// ListTasksByGoal lists all tasks for a goal in decomposition order.
func (db *DB) ListTasksByGoal(goalID string) ([]*models.Task, error) {
	rows, err := db.Query(taskSelect+` WHERE goal_id = ? ORDER BY ordinal`, goalID)
	if err != nil {
		return nil, fmt.Errorf("list tasks by goal: %w", err)
	}
	defer rows.Close()

	var tasks []*models.Task
	for rows.Next() {
		t, err := scanTask(rows)
		if err != nil {
			return nil, fmt.Errorf("scan task: %w", err)
		}
		tasks = append(tasks, t)
	}
	return tasks, nil
}

const taskSelect = `
	SELECT id, goal_id, team_id, title, description, acceptance_criteria,
		required_skills, complexity, status, ordinal, assigned_worker_id,
		round, execution_failures, created_at, completed_at
	FROM tasks`

// scanner covers both *sql.Row and *sql.Rows.
type scanner interface {
	Scan(dest ...any) error
}

func scanTask(row scanner) (*models.Task, error) {
	var t models.Task
	var criteria string
	var description, skills, assignedWorkerID sql.NullString
	var createdAt string
	var completedAt sql.NullString
	err := row.Scan(&t.ID, &t.GoalID, &t.TeamID, &t.Title, &description, &criteria,
		&skills, &t.Complexity, &t.Status, &t.Ordinal, &assignedWorkerID,
		&t.Round, &t.ExecutionFailures, &createdAt, &completedAt)
	if err != nil {
		return nil, err
	}

	if description.Valid {
		t.Description = description.String
	}
	json.Unmarshal([]byte(criteria), &t.AcceptanceCriteria)
	if skills.Valid {
		json.Unmarshal([]byte(skills.String), &t.RequiredSkills)
	}
	if assignedWorkerID.Valid {
		t.AssignedWorkerID = assignedWorkerID.String
	}
	t.CreatedAt, _ = parseTime(createdAt)
	t.CompletedAt = parseNullableTime(completedAt)
	return &t, nil
}

// Output and review operations. Both tables are append-only.

// CreateOutput persists a task output.
func (db *DB) CreateOutput(o *models.TaskOutput) error {
	artifacts, _ := json.Marshal(o.Artifacts)

	_, err := db.Exec(`
		INSERT INTO task_outputs (id, task_id, worker_id, content, artifacts, round, produced_at)
		VALUES (?, ?, ?, ?, ?, ?, ?)
	`, o.ID, o.TaskID, o.WorkerID, o.Content, string(artifacts), o.Round, formatTime(o.ProducedAt))
	if err != nil {
		return fmt.Errorf("create output: %w", err)
	}
	return nil
}

// CreateReview persists a task review.
func (db *DB) CreateReview(r *models.TaskReview) error {
	_, err := db.Exec(`
		INSERT INTO task_reviews (id, task_id, output_id, round, decision, feedback, forced, prompt_version, created_at)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?)
	`, r.ID, r.TaskID, r.OutputID, r.Round, string(r.Decision), r.Feedback, r.Forced, r.PromptVersion, formatTime(r.CreatedAt))
	if err != nil {
		return fmt.Errorf("create review: %w", err)
	}
	return nil
}

// ListReviews lists a task's review history in round order.
func (db *DB) ListReviews(taskID string) ([]models.TaskReview, error) {
	rows, err := db.Query(`
		SELECT id, task_id, output_id, round, decision, feedback, forced, prompt_version, created_at
		FROM task_reviews WHERE task_id = ? ORDER BY round, created_at
	`, taskID)
	if err != nil {
		return nil, fmt.Errorf("list reviews: %w", err)
	}
	defer rows.Close()

	var reviews []models.TaskReview
	for rows.Next() {
		var r models.TaskReview
		var outputID, feedback, promptVersion sql.NullString
		var createdAt string
		if err := rows.Scan(&r.ID, &r.TaskID, &outputID, &r.Round, &r.Decision,
			&feedback, &r.Forced, &promptVersion, &createdAt); err != nil {
			return nil, fmt.Errorf("scan review: %w", err)
		}
		if outputID.Valid {
			r.OutputID = outputID.String
		}
		if feedback.Valid {
			r.Feedback = feedback.String
		}
		if promptVersion.Valid {
			r.PromptVersion = promptVersion.String
		}
		r.CreatedAt, _ = parseTime(createdAt)
		reviews = append(reviews, r)
	}
	return reviews, nil
}
