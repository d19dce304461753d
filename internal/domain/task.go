package domain

import (
	"strings"
	"time"

	"github.com/google/uuid"
)

// Status is the task lifecycle state.
type Status string

const (
	StatusTodo       Status = "todo"
	StatusInProgress Status = "in_progress"
	StatusBlocked    Status = "blocked"
	StatusDone       Status = "done"
	StatusCancelled  Status = "cancelled"
)

// Statuses is the authoritative status set, in display order.
var Statuses = []Status{StatusTodo, StatusInProgress, StatusBlocked, StatusDone, StatusCancelled}

// ParseStatus validates a status string.
func ParseStatus(s string) (Status, error) {
	st := Status(strings.ToLower(strings.TrimSpace(s)))
	for _, known := range Statuses {
		if st == known {
			return st, nil
		}
	}
	return "", Validationf("invalid status %q", s).WithDetail("accepted", statusStrings())
}

// Terminal reports whether the status satisfies dependents: done and
// cancelled both unblock successor tasks.
func (s Status) Terminal() bool {
	return s == StatusDone || s == StatusCancelled
}

func statusStrings() []string {
	out := make([]string, len(Statuses))
	for i, s := range Statuses {
		out[i] = string(s)
	}
	return out
}

// Priority orders work within a branch.
type Priority string

const (
	PriorityLow      Priority = "low"
	PriorityMedium   Priority = "medium"
	PriorityHigh     Priority = "high"
	PriorityCritical Priority = "critical"
)

// Priorities is the accepted priority set.
var Priorities = []Priority{PriorityLow, PriorityMedium, PriorityHigh, PriorityCritical}

// ParsePriority validates a priority string; empty defaults to medium.
func ParsePriority(s string) (Priority, error) {
	if strings.TrimSpace(s) == "" {
		return PriorityMedium, nil
	}
	p := Priority(strings.ToLower(strings.TrimSpace(s)))
	for _, known := range Priorities {
		if p == known {
			return p, nil
		}
	}
	accepted := make([]string, len(Priorities))
	for i, pr := range Priorities {
		accepted[i] = string(pr)
	}
	return "", Validationf("invalid priority %q", s).WithDetail("accepted", accepted)
}

// ProgressEntry is one numbered, append-only progress note.
type ProgressEntry struct {
	Seq        int       `json:"seq"`
	Note       string    `json:"note"`
	Percentage int       `json:"percentage"`
	RecordedAt time.Time `json:"recorded_at"`
}

// Task is an aggregate root owning its subtasks and task context.
type Task struct {
	ID                 uuid.UUID       `json:"id"`
	BranchID           uuid.UUID       `json:"git_branch_id"`
	UserID             string          `json:"-"`
	Title              string          `json:"title"`
	Description        string          `json:"description,omitempty"`
	Status             Status          `json:"status"`
	Priority           Priority        `json:"priority"`
	Assignees          []string        `json:"assignees"`
	Labels             []string        `json:"labels,omitempty"`
	EstimatedEffort    string          `json:"estimated_effort,omitempty"`
	DueDate            *time.Time      `json:"due_date,omitempty"`
	ProgressPercentage int             `json:"progress_percentage"`
	ProgressHistory    []ProgressEntry `json:"progress_history,omitempty"`
	ContextID          *uuid.UUID      `json:"context_id,omitempty"`
	CreatedAt          time.Time       `json:"created_at"`
	UpdatedAt          time.Time       `json:"updated_at"`

	// Annotations from the dependency engine, never persisted.
	CanStart      *bool       `json:"can_start,omitempty"`
	IsBlocked     *bool       `json:"is_blocked,omitempty"`
	BlockingTasks []uuid.UUID `json:"blocking_task_ids,omitempty"`
}

// Validate enforces the creation invariants: non-empty title, at least one
// assignee, progress within bounds.
func (t *Task) Validate() error {
	if strings.TrimSpace(t.Title) == "" {
		return Validationf("task title must not be empty")
	}
	if len(t.Assignees) == 0 {
		return Validationf("task requires at least one assignee")
	}
	if t.ProgressPercentage < 0 || t.ProgressPercentage > 100 {
		return Validationf("progress_percentage must be within [0,100], got %d", t.ProgressPercentage)
	}
	return nil
}

// ClampProgress bounds a requested percentage to [0,100].
func ClampProgress(p int) int {
	if p < 0 {
		return 0
	}
	if p > 100 {
		return 100
	}
	return p
}

// AppendProgress adds the next numbered history entry and moves the task's
// progress to the entry's percentage. Sequence numbers are 1..N with no gaps.
func (t *Task) AppendProgress(note string, percentage int, at time.Time) ProgressEntry {
	entry := ProgressEntry{
		Seq:        len(t.ProgressHistory) + 1,
		Note:       note,
		Percentage: ClampProgress(percentage),
		RecordedAt: at,
	}
	t.ProgressHistory = append(t.ProgressHistory, entry)
	t.ProgressPercentage = entry.Percentage
	return entry
}

// Subtask belongs to exactly one task.
type Subtask struct {
	ID                 uuid.UUID `json:"id"`
	TaskID             uuid.UUID `json:"task_id"`
	UserID             string    `json:"-"`
	Title              string    `json:"title"`
	Description        string    `json:"description,omitempty"`
	Status             Status    `json:"status"`
	Priority           Priority  `json:"priority"`
	Assignees          []string  `json:"assignees,omitempty"`
	ProgressPercentage int       `json:"progress_percentage"`
	CreatedAt          time.Time `json:"created_at"`
	UpdatedAt          time.Time `json:"updated_at"`
}

// Validate enforces subtask creation invariants.
func (s *Subtask) Validate() error {
	if strings.TrimSpace(s.Title) == "" {
		return Validationf("subtask title must not be empty")
	}
	if s.ProgressPercentage < 0 || s.ProgressPercentage > 100 {
		return Validationf("progress_percentage must be within [0,100], got %d", s.ProgressPercentage)
	}
	return nil
}
