// Package worker implements task execution by specialized worker agents:
// deterministic worker selection, assignment bookkeeping, and the LLM-backed
// execution of individual tasks.
package worker

import (
	"errors"
	"fmt"
	"log"
	"strings"

	"github.com/strataga/foreman/pkg/models"
)

// ErrNoEligibleWorker is returned when no idle worker's skills intersect a
// task's required skills. Selection fails closed rather than assigning a
// mismatched worker.
var ErrNoEligibleWorker = errors.New("no eligible worker for task")

// Select picks the worker for a task. Selection is a pure function of the
// worker set and the task: among idle workers whose skills intersect the
// task's required skills, prefer the largest skill overlap, then the fewest
// completed tasks, then the earliest creation time.
func Select(workers []*models.WorkerAgent, task *models.Task) (*models.WorkerAgent, error) {
	var best *models.WorkerAgent
	bestOverlap := -1

	for _, w := range workers {
		if w.Status != models.WorkerStatusIdle {
			continue
		}
		if !w.CanHandle(task.RequiredSkills) {
			continue
		}

		overlap := skillOverlap(w, task.RequiredSkills)
		if best == nil || better(w, overlap, best, bestOverlap) {
			best = w
			bestOverlap = overlap
		}
	}

	if best == nil {
		return nil, fmt.Errorf("%w: task %s requires %s", ErrNoEligibleWorker, task.ID, strings.Join(task.RequiredSkills, ", "))
	}
	return best, nil
}

// better reports whether candidate a (with overlap oa) outranks b (with ob).
func better(a *models.WorkerAgent, oa int, b *models.WorkerAgent, ob int) bool {
	if oa != ob {
		return oa > ob
	}
	if a.TasksCompleted != b.TasksCompleted {
		return a.TasksCompleted < b.TasksCompleted
	}
	return a.CreatedAt.Before(b.CreatedAt)
}

// skillOverlap counts how many required skills the worker covers.
func skillOverlap(w *models.WorkerAgent, required []string) int {
	count := 0
	for _, req := range required {
		for _, skill := range w.Skills {
			la, lb := strings.ToLower(skill), strings.ToLower(req)
			if strings.Contains(la, lb) || strings.Contains(lb, la) {
				count++
				break
			}
		}
	}
	return count
}

// Assign binds a pending task to a worker: the task moves to Assigned and the
// worker moves to Working. One task per worker at a time.
func Assign(task *models.Task, w *models.WorkerAgent) error {
	if w.Status != models.WorkerStatusIdle {
		return fmt.Errorf("worker %s is %s, cannot take task %s", w.ID, w.Status, task.ID)
	}
	if err := task.Transition(models.TaskStatusAssigned); err != nil {
		return err
	}
	task.AssignedWorkerID = w.ID
	w.Status = models.WorkerStatusWorking
	w.AssignedTaskID = task.ID
	log.Printf("[worker] assigned task %s to %s (%s)", task.ID, w.ID, w.Specialization)
	return nil
}

// Release returns a worker to idle after its task left its hands, crediting
// the completion counter when the task terminated.
func Release(task *models.Task, w *models.WorkerAgent) {
	if task.Status.Terminal() {
		w.TasksCompleted++
	}
	w.Status = models.WorkerStatusIdle
	w.AssignedTaskID = ""
}
