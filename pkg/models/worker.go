package models

import (
	"regexp"
	"strings"
	"time"

	"github.com/google/uuid"
)

// TeamSize bounds enforced at team formation time. The worker cap is a hard
// resource limit; assignment-time pool exhaustion should never occur because
// formation rejects oversized teams before any worker exists.
const (
	MinTeamSize = 3
	MaxTeamSize = 5
)

// specializationPattern matches lowercase-hyphenated specialization tokens
// such as "backend-developer" or "qa".
var specializationPattern = regexp.MustCompile(`^[a-z][a-z0-9]*(-[a-z0-9]+)*$`)

// ValidSpecialization reports whether s is a well-formed specialization token.
func ValidSpecialization(s string) bool {
	return specializationPattern.MatchString(s)
}

// WorkerSpecification describes one specialized worker in a formed team.
// The set of specifications for a team is owned exclusively by the manager.
type WorkerSpecification struct {
	// ID is the unique identifier for this specification.
	ID string `json:"id"`
	// TeamID is the team this specification belongs to.
	TeamID string `json:"team_id"`
	// Specialization is the lowercase-hyphenated capability label.
	Specialization string `json:"specialization" validate:"required"`
	// Skills lists the concrete skills this worker carries.
	Skills []string `json:"skills" validate:"required,min=1,dive,required"`
	// Responsibilities lists what this worker is accountable for.
	Responsibilities []string `json:"responsibilities" validate:"required,min=1,dive,required"`
	// RequiredTools lists tools the worker needs to do its job.
	RequiredTools []string `json:"required_tools,omitempty"`
	// AssignedWorkerID references the instantiated worker, once spawned.
	AssignedWorkerID string `json:"assigned_worker_id,omitempty"`
	// CreatedAt orders specifications for deterministic tie-breaking.
	CreatedAt time.Time `json:"created_at"`
}

// WorkerStatus represents the lifecycle state of a worker agent.
type WorkerStatus string

const (
	// WorkerStatusIdle indicates the worker has no assigned task.
	WorkerStatusIdle WorkerStatus = "idle"
	// WorkerStatusWorking indicates the worker is executing a task.
	// Working blocks new assignment: one task per worker at a time.
	WorkerStatusWorking WorkerStatus = "working"
	// WorkerStatusBlocked indicates the worker cannot proceed.
	WorkerStatusBlocked WorkerStatus = "blocked"
)

// Valid returns true if the status is a known value.
func (s WorkerStatus) Valid() bool {
	switch s {
	case WorkerStatusIdle, WorkerStatusWorking, WorkerStatusBlocked:
		return true
	default:
		return false
	}
}

// WorkerAgent is a specialized executor instantiated from a WorkerSpecification.
type WorkerAgent struct {
	// ID is the unique identifier for this worker.
	ID string `json:"id"`
	// TeamID is the team this worker belongs to.
	TeamID string `json:"team_id"`
	// SpecID references the specification this worker was spawned from.
	SpecID string `json:"spec_id"`
	// Specialization mirrors the specification's capability label.
	Specialization string `json:"specialization"`
	// Skills mirrors the specification's skill set.
	Skills []string `json:"skills"`
	// Status is the current lifecycle state.
	Status WorkerStatus `json:"status"`
	// AssignedTaskID is the task currently held by this worker, if any.
	AssignedTaskID string `json:"assigned_task_id,omitempty"`
	// TasksCompleted counts tasks this worker has finished, for load balancing.
	TasksCompleted int `json:"tasks_completed"`
	// CreatedAt orders workers for deterministic selection.
	CreatedAt time.Time `json:"created_at"`
}

// NewWorkerAgent instantiates an idle worker from a specification.
func NewWorkerAgent(spec WorkerSpecification) *WorkerAgent {
	return &WorkerAgent{
		ID:             uuid.New().String(),
		TeamID:         spec.TeamID,
		SpecID:         spec.ID,
		Specialization: spec.Specialization,
		Skills:         append([]string(nil), spec.Skills...),
		Status:         WorkerStatusIdle,
		CreatedAt:      time.Now(),
	}
}

// CanHandle reports whether the worker's skills intersect the required set.
// Matching is case-insensitive substring containment in either direction,
// so "rust" matches a worker skilled in "Rust programming".
func (w *WorkerAgent) CanHandle(requiredSkills []string) bool {
	if len(requiredSkills) == 0 {
		return true
	}
	for _, req := range requiredSkills {
		for _, skill := range w.Skills {
			if skillsMatch(skill, req) {
				return true
			}
		}
	}
	return false
}

// skillsMatch compares two skill labels case-insensitively, accepting
// containment in either direction.
func skillsMatch(a, b string) bool {
	la, lb := strings.ToLower(a), strings.ToLower(b)
	return strings.Contains(la, lb) || strings.Contains(lb, la)
}
