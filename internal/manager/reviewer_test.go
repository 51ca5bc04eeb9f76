package manager

import (
	"context"
	"errors"
	"strings"
	"testing"
	"time"

	"github.com/strataga/foreman/internal/prompt"
	"github.com/strataga/foreman/pkg/models"
)

func taskUnderReview(round int) *models.Task {
	return &models.Task{
		ID:                 "task-1",
		GoalID:             "goal-1",
		TeamID:             "team-1",
		Title:              "Implement endpoint",
		Description:        "Add the create endpoint",
		AcceptanceCriteria: []string{"returns 201", "validates input", "has tests"},
		Status:             models.TaskStatusUnderReview,
		Round:              round,
		CreatedAt:          time.Now(),
	}
}

func testOutput(round int) *models.TaskOutput {
	return &models.TaskOutput{
		ID:         "output-1",
		TaskID:     "task-1",
		WorkerID:   "worker-1",
		Content:    "the implementation",
		Round:      round,
		ProducedAt: time.Now(),
	}
}

func newTestReviewer(responses ...fakeCompletion) (*Reviewer, *fakeCompleter) {
	fake := &fakeCompleter{responses: responses}
	return NewReviewer(fake, prompt.NewCatalog(), testAgentConfig()), fake
}

func TestReviewApprove(t *testing.T) {
	reviewer, _ := newTestReviewer(fakeCompletion{content: `{"decision": "approve", "feedback": ""}`})
	task := taskUnderReview(1)

	review, err := reviewer.Review(context.Background(), task, testOutput(1))
	if err != nil {
		t.Fatalf("Review() error = %v", err)
	}
	if review.Decision != models.DecisionApprove {
		t.Errorf("Decision = %s, want %s", review.Decision, models.DecisionApprove)
	}
	if review.Round != 1 {
		t.Errorf("Round = %d, want 1", review.Round)
	}
	if task.Status != models.TaskStatusApproved {
		t.Errorf("task.Status = %s, want %s", task.Status, models.TaskStatusApproved)
	}
	if task.CompletedAt == nil {
		t.Error("task.CompletedAt = nil, want set on terminal state")
	}
	if review.Forced {
		t.Error("Forced = true on a plain approval")
	}
}

func TestReviewRequestRevisionIncrementsRound(t *testing.T) {
	reviewer, _ := newTestReviewer(fakeCompletion{
		content: `{"decision": "request_revision", "feedback": "missing input validation"}`,
	})
	task := taskUnderReview(1)

	review, err := reviewer.Review(context.Background(), task, testOutput(1))
	if err != nil {
		t.Fatalf("Review() error = %v", err)
	}
	if review.Decision != models.DecisionRequestRevision {
		t.Errorf("Decision = %s, want %s", review.Decision, models.DecisionRequestRevision)
	}
	if review.Round != 1 {
		t.Errorf("review.Round = %d, want 1", review.Round)
	}
	if task.Status != models.TaskStatusRevising {
		t.Errorf("task.Status = %s, want %s", task.Status, models.TaskStatusRevising)
	}
	if task.Round != 2 {
		t.Errorf("task.Round = %d, want 2", task.Round)
	}
}

func TestReviewMissingFeedbackLeavesTaskUntouched(t *testing.T) {
	for _, decision := range []string{"request_revision", "reject"} {
		reviewer, _ := newTestReviewer(fakeCompletion{
			content: `{"decision": "` + decision + `", "feedback": ""}`,
		})
		task := taskUnderReview(1)

		_, err := reviewer.Review(context.Background(), task, testOutput(1))
		if !errors.Is(err, ErrMissingFeedback) {
			t.Errorf("Review() with %s: error = %v, want ErrMissingFeedback", decision, err)
		}
		if task.Status != models.TaskStatusUnderReview {
			t.Errorf("task.Status = %s after failed review, want %s", task.Status, models.TaskStatusUnderReview)
		}
		if task.Round != 1 {
			t.Errorf("task.Round = %d after failed review, want 1", task.Round)
		}
	}
}

func TestReviewForcesRejectPastRevisionBound(t *testing.T) {
	reviewer, _ := newTestReviewer(fakeCompletion{
		content: `{"decision": "request_revision", "feedback": "still missing tests"}`,
	})
	task := taskUnderReview(models.MaxRevisionRounds + 1)

	review, err := reviewer.Review(context.Background(), task, testOutput(task.Round))
	if err != nil {
		t.Fatalf("Review() error = %v", err)
	}
	if review.Decision != models.DecisionReject {
		t.Errorf("Decision = %s, want %s", review.Decision, models.DecisionReject)
	}
	if !review.Forced {
		t.Error("Forced = false, want true on bound-forced rejection")
	}
	if review.Feedback == "" {
		t.Error("Feedback empty on forced rejection")
	}
	if !strings.Contains(review.Feedback, "still missing tests") {
		t.Errorf("Feedback = %q, want original feedback preserved", review.Feedback)
	}
	if task.Status != models.TaskStatusRejected {
		t.Errorf("task.Status = %s, want %s", task.Status, models.TaskStatusRejected)
	}
}

func TestReviewApproveAllowedPastRevisionBound(t *testing.T) {
	reviewer, _ := newTestReviewer(fakeCompletion{content: `{"decision": "approve"}`})
	task := taskUnderReview(models.MaxRevisionRounds + 1)

	review, err := reviewer.Review(context.Background(), task, testOutput(task.Round))
	if err != nil {
		t.Fatalf("Review() error = %v", err)
	}
	if review.Decision != models.DecisionApprove {
		t.Errorf("Decision = %s, want %s", review.Decision, models.DecisionApprove)
	}
	if review.Forced {
		t.Error("Forced = true on approval past the bound")
	}
}

func TestReviewRejectsUnknownDecision(t *testing.T) {
	reviewer, _ := newTestReviewer(fakeCompletion{
		content: `{"decision": "maybe", "feedback": "unsure"}`,
	})
	task := taskUnderReview(1)

	_, err := reviewer.Review(context.Background(), task, testOutput(1))
	if err == nil {
		t.Fatal("Review() error = nil, want unknown decision error")
	}
	if task.Status != models.TaskStatusUnderReview {
		t.Errorf("task.Status = %s after failed review, want %s", task.Status, models.TaskStatusUnderReview)
	}
}

func TestReviewRequiresUnderReviewStatus(t *testing.T) {
	reviewer, fake := newTestReviewer()
	task := taskUnderReview(1)
	task.Status = models.TaskStatusInProgress

	_, err := reviewer.Review(context.Background(), task, testOutput(1))
	if err == nil {
		t.Fatal("Review() error = nil, want precondition error")
	}
	if fake.calls() != 0 {
		t.Errorf("completions = %d, want 0 when precondition fails", fake.calls())
	}
}

func TestRejectSystemic(t *testing.T) {
	reviewer, fake := newTestReviewer()
	task := taskUnderReview(2)
	task.Status = models.TaskStatusInProgress

	review, err := reviewer.RejectSystemic(task, "execution retries exhausted")
	if err != nil {
		t.Fatalf("RejectSystemic() error = %v", err)
	}
	if review.Decision != models.DecisionReject {
		t.Errorf("Decision = %s, want %s", review.Decision, models.DecisionReject)
	}
	if !review.Forced {
		t.Error("Forced = false, want true")
	}
	if !strings.Contains(review.Feedback, "execution retries exhausted") {
		t.Errorf("Feedback = %q, want reason included", review.Feedback)
	}
	if task.Status != models.TaskStatusRejected {
		t.Errorf("task.Status = %s, want %s", task.Status, models.TaskStatusRejected)
	}
	if fake.calls() != 0 {
		t.Errorf("completions = %d, want 0 for systemic rejection", fake.calls())
	}
}

func TestRejectSystemicRefusesTerminalTasks(t *testing.T) {
	reviewer, _ := newTestReviewer()
	task := taskUnderReview(1)
	task.Status = models.TaskStatusApproved

	if _, err := reviewer.RejectSystemic(task, "late failure"); err == nil {
		t.Fatal("RejectSystemic() error = nil, want terminal state error")
	}
	if task.Status != models.TaskStatusApproved {
		t.Errorf("task.Status = %s, want unchanged %s", task.Status, models.TaskStatusApproved)
	}
}
