package state

import (
	"io"

	"github.com/strataga/foreman/internal/gateway"
	"github.com/strataga/foreman/pkg/models"
)

// GoalStore handles goal and analysis persistence.
type GoalStore interface {
	CreateGoal(g models.Goal) error
	GetGoal(id string) (*models.Goal, error)
	CreateAnalysis(a *models.GoalAnalysis) error
	LatestAnalysis(teamID string) (*models.GoalAnalysis, error)
}

// TeamStore handles worker specification persistence.
type TeamStore interface {
	CreateWorkerSpec(s models.WorkerSpecification) error
	ListWorkerSpecs(teamID string) ([]models.WorkerSpecification, error)
}

// TaskStore handles task, output, and review persistence.
type TaskStore interface {
	CreateTask(t *models.Task) error
	GetTask(id string) (*models.Task, error)
	UpdateTask(t *models.Task) error
	ListTasksByGoal(goalID string) ([]*models.Task, error)
	CreateOutput(o *models.TaskOutput) error
	CreateReview(r *models.TaskReview) error
	ListReviews(taskID string) ([]models.TaskReview, error)
}

// Migrator handles database schema migrations.
// Separating this allows clients to depend only on migration functionality.
type Migrator interface {
	// Migrate applies all pending schema migrations.
	Migrate() error
}

// Store defines the interface for orchestration persistence.
// This interface allows the orchestrator to work with any backend without
// depending on the concrete SQLite implementation.
type Store interface {
	io.Closer
	Migrator
	GoalStore
	TeamStore
	TaskStore
	gateway.UsageRecorder
}

// Compile-time verification that DB implements all interfaces.
var (
	_ Store                 = (*DB)(nil)
	_ Migrator              = (*DB)(nil)
	_ GoalStore             = (*DB)(nil)
	_ TeamStore             = (*DB)(nil)
	_ TaskStore             = (*DB)(nil)
	_ gateway.UsageRecorder = (*DB)(nil)
)
