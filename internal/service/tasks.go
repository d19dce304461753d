package service

import (
	"context"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/rs/zerolog/log"

	"github.com/agenthub/agenthub-api/internal/domain"
	"github.com/agenthub/agenthub-api/internal/notify"
	"github.com/agenthub/agenthub-api/internal/repository"
)

// TaskService implements the task use cases.
type TaskService struct {
	base
	deps *DependencyService
}

// NewTaskService wires the service.
func NewTaskService(store repository.Store, sink notify.Sink, deps *DependencyService) *TaskService {
	return &TaskService{base{store: store, sink: sink}, deps}
}

// CreateTaskInput carries the create parameters after coercion.
type CreateTaskInput struct {
	BranchID        uuid.UUID
	Title           string
	Description     string
	Priority        string
	Assignees       []string
	Labels          []string
	EstimatedEffort string
	DueDate         *time.Time
	Dependencies    []uuid.UUID
}

// Create adds a task under a branch and records its initial dependency
// edges. A new task cannot close a cycle through its own out-edges, but a
// self-reference is rejected as one.
func (s *TaskService) Create(ctx context.Context, userID string, in CreateTaskInput) (*domain.Task, error) {
	store, err := s.user(userID)
	if err != nil {
		return nil, err
	}
	if _, err := store.Branches().Get(ctx, in.BranchID); err != nil {
		return nil, err
	}

	priority, err := domain.ParsePriority(in.Priority)
	if err != nil {
		return nil, err
	}

	t := &domain.Task{
		ID:              uuid.New(),
		BranchID:        in.BranchID,
		UserID:          userID,
		Title:           strings.TrimSpace(in.Title),
		Description:     in.Description,
		Status:          domain.StatusTodo,
		Priority:        priority,
		Assignees:       normalizeAssignees(in.Assignees),
		Labels:          in.Labels,
		EstimatedEffort: in.EstimatedEffort,
		DueDate:         in.DueDate,
	}
	if err := t.Validate(); err != nil {
		return nil, err
	}

	seen := map[uuid.UUID]bool{}
	for _, dep := range in.Dependencies {
		if dep == t.ID {
			return nil, domain.Conflict("task cannot depend on itself")
		}
		if seen[dep] {
			continue
		}
		seen[dep] = true
		if _, err := store.Tasks().Get(ctx, dep); err != nil {
			return nil, err
		}
	}

	err = store.WithinTx(ctx, func(tx repository.Store) error {
		if err := tx.Tasks().Create(ctx, t); err != nil {
			return err
		}
		for dep := range seen {
			if err := tx.Dependencies().Add(ctx, t.ID, dep); err != nil {
				return err
			}
		}
		return nil
	})
	if err != nil {
		return nil, err
	}

	created, err := s.Get(ctx, userID, t.ID)
	if err != nil {
		return nil, err
	}
	s.emit(ctx, domain.EventTaskCreated, "task", t.ID, userID, map[string]any{"branch_id": in.BranchID})
	return created, nil
}

func normalizeAssignees(in []string) []string {
	out := make([]string, 0, len(in))
	seen := map[string]bool{}
	for _, a := range in {
		name := domain.NormalizeAgentName(a)
		if name == "" || seen[name] {
			continue
		}
		seen[name] = true
		out = append(out, name)
	}
	return out
}

// Get returns one owned task annotated with blocking state.
func (s *TaskService) Get(ctx context.Context, userID string, id uuid.UUID) (*domain.Task, error) {
	store, err := s.user(userID)
	if err != nil {
		return nil, err
	}
	t, err := store.Tasks().Get(ctx, id)
	if err != nil {
		return nil, err
	}
	if err := s.deps.Annotate(ctx, userID, t); err != nil {
		return nil, err
	}
	return t, nil
}

// List returns the branch's tasks (or all the user's tasks when branchID
// is nil), each annotated with blocking state.
func (s *TaskService) List(ctx context.Context, userID string, branchID *uuid.UUID) ([]domain.Task, error) {
	store, err := s.user(userID)
	if err != nil {
		return nil, err
	}

	var tasks []domain.Task
	if branchID != nil {
		if _, err := store.Branches().Get(ctx, *branchID); err != nil {
			return nil, err
		}
		tasks, err = store.Tasks().GetTasksByBranch(ctx, *branchID)
	} else {
		tasks, err = store.Tasks().List(ctx)
	}
	if err != nil {
		return nil, err
	}

	for i := range tasks {
		if err := s.deps.Annotate(ctx, userID, &tasks[i]); err != nil {
			return nil, err
		}
	}
	return tasks, nil
}

// UpdateTaskInput carries optional field updates; nil means unchanged.
type UpdateTaskInput struct {
	Title           *string
	Description     *string
	Status          *string
	Priority        *string
	Assignees       []string
	Labels          []string
	EstimatedEffort *string
	DueDate         *time.Time
	Progress        *int
}

// Update applies field updates. Moving a task to in_progress while its
// predecessors are open fails the precondition; moving it to done forces
// progress to 100.
func (s *TaskService) Update(ctx context.Context, userID string, id uuid.UUID, in UpdateTaskInput) (*domain.Task, error) {
	store, err := s.user(userID)
	if err != nil {
		return nil, err
	}
	t, err := store.Tasks().Get(ctx, id)
	if err != nil {
		return nil, err
	}

	if in.Title != nil {
		t.Title = strings.TrimSpace(*in.Title)
	}
	if in.Description != nil {
		t.Description = *in.Description
	}
	if in.Priority != nil {
		p, err := domain.ParsePriority(*in.Priority)
		if err != nil {
			return nil, err
		}
		t.Priority = p
	}
	if in.Assignees != nil {
		t.Assignees = normalizeAssignees(in.Assignees)
	}
	if in.Labels != nil {
		t.Labels = in.Labels
	}
	if in.EstimatedEffort != nil {
		t.EstimatedEffort = *in.EstimatedEffort
	}
	if in.DueDate != nil {
		t.DueDate = in.DueDate
	}
	if in.Progress != nil {
		t.ProgressPercentage = domain.ClampProgress(*in.Progress)
	}
	if in.Status != nil {
		st, err := domain.ParseStatus(*in.Status)
		if err != nil {
			return nil, err
		}
		if st == domain.StatusInProgress && t.Status != domain.StatusInProgress {
			blocking, err := s.deps.GetBlockingTasks(ctx, userID, id)
			if err != nil {
				return nil, err
			}
			if len(blocking) > 0 {
				ids := make([]string, len(blocking))
				for i, b := range blocking {
					ids[i] = b.ID.String()
				}
				return nil, domain.PreconditionFailed("task is blocked by incomplete dependencies").
					WithDetail("blocking_task_ids", ids)
			}
		}
		t.Status = st
		if st == domain.StatusDone {
			t.ProgressPercentage = 100
		}
	}
	if err := t.Validate(); err != nil {
		return nil, err
	}

	err = store.WithinTx(ctx, func(tx repository.Store) error {
		return tx.Tasks().Update(ctx, t)
	})
	if err != nil {
		return nil, err
	}

	updated, err := s.Get(ctx, userID, id)
	if err != nil {
		return nil, err
	}
	s.emit(ctx, domain.EventTaskUpdated, "task", id, userID, nil)
	return updated, nil
}

// CompletionResult reports a completion plus any subtasks still open at
// the time. Completion with open subtasks is allowed; the summary lets the
// caller surface a warning.
type CompletionResult struct {
	Task         *domain.Task     `json:"task"`
	OpenSubtasks []domain.Subtask `json:"open_subtasks,omitempty"`
}

// Complete marks the task done, forces progress to 100, and appends the
// closing history entry.
func (s *TaskService) Complete(ctx context.Context, userID string, id uuid.UUID, summary string) (*CompletionResult, error) {
	store, err := s.user(userID)
	if err != nil {
		return nil, err
	}
	t, err := store.Tasks().Get(ctx, id)
	if err != nil {
		return nil, err
	}
	if t.Status == domain.StatusDone {
		return nil, domain.PreconditionFailed("task is already done")
	}

	open, err := store.Subtasks().ListByTask(ctx, id)
	if err != nil {
		return nil, err
	}
	stillOpen := []domain.Subtask{}
	for _, st := range open {
		if !st.Status.Terminal() {
			stillOpen = append(stillOpen, st)
		}
	}

	note := summary
	if note == "" {
		note = "task completed"
	}
	t.Status = domain.StatusDone
	t.AppendProgress(note, 100, time.Now().UTC())

	err = store.WithinTx(ctx, func(tx repository.Store) error {
		return tx.Tasks().Update(ctx, t)
	})
	if err != nil {
		return nil, err
	}

	done, err := s.Get(ctx, userID, id)
	if err != nil {
		return nil, err
	}
	s.emit(ctx, domain.EventTaskCompleted, "task", id, userID, nil)
	if len(stillOpen) > 0 {
		log.Ctx(ctx).Warn().Str("task_id", id.String()).Int("open_subtasks", len(stillOpen)).
			Msg("task completed with open subtasks")
	}
	return &CompletionResult{Task: done, OpenSubtasks: stillOpen}, nil
}

// AppendProgress records the next numbered history entry and moves the
// task's progress percentage.
func (s *TaskService) AppendProgress(ctx context.Context, userID string, id uuid.UUID, note string, percentage int) (*domain.Task, error) {
	store, err := s.user(userID)
	if err != nil {
		return nil, err
	}
	if strings.TrimSpace(note) == "" {
		return nil, domain.MissingField("note")
	}

	t, err := store.Tasks().Get(ctx, id)
	if err != nil {
		return nil, err
	}
	t.AppendProgress(note, percentage, time.Now().UTC())
	if t.ProgressPercentage > 0 && t.Status == domain.StatusTodo {
		t.Status = domain.StatusInProgress
	}

	err = store.WithinTx(ctx, func(tx repository.Store) error {
		return tx.Tasks().Update(ctx, t)
	})
	if err != nil {
		return nil, err
	}
	s.emit(ctx, domain.EventTaskUpdated, "task", id, userID, map[string]any{"progress": t.ProgressPercentage})
	return s.Get(ctx, userID, id)
}

// Delete removes a task; subtasks, dependency edges, and the task context
// go with it in the same transaction.
func (s *TaskService) Delete(ctx context.Context, userID string, id uuid.UUID) error {
	store, err := s.user(userID)
	if err != nil {
		return err
	}

	err = store.WithinTx(ctx, func(tx repository.Store) error {
		if err := tx.Contexts().DeleteTree(ctx, domain.LevelTask, id); err != nil {
			return err
		}
		return tx.Tasks().Delete(ctx, id)
	})
	if err != nil {
		return err
	}
	s.emit(ctx, domain.EventTaskDeleted, "task", id, userID, nil)
	return nil
}
