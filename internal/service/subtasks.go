package service

import (
	"context"
	"strings"

	"github.com/google/uuid"

	"github.com/agenthub/agenthub-api/internal/domain"
	"github.com/agenthub/agenthub-api/internal/notify"
	"github.com/agenthub/agenthub-api/internal/repository"
)

// SubtaskService implements the subtask use cases.
type SubtaskService struct {
	base
}

// NewSubtaskService wires the service.
func NewSubtaskService(store repository.Store, sink notify.Sink) *SubtaskService {
	return &SubtaskService{base{store: store, sink: sink}}
}

// CreateSubtaskInput carries the create parameters.
type CreateSubtaskInput struct {
	TaskID      uuid.UUID
	Title       string
	Description string
	Priority    string
	Assignees   []string
}

// Create adds a subtask under an owned task.
func (s *SubtaskService) Create(ctx context.Context, userID string, in CreateSubtaskInput) (*domain.Subtask, error) {
	store, err := s.user(userID)
	if err != nil {
		return nil, err
	}
	if _, err := store.Tasks().Get(ctx, in.TaskID); err != nil {
		return nil, err
	}

	priority, err := domain.ParsePriority(in.Priority)
	if err != nil {
		return nil, err
	}

	st := &domain.Subtask{
		ID:          uuid.New(),
		TaskID:      in.TaskID,
		UserID:      userID,
		Title:       strings.TrimSpace(in.Title),
		Description: in.Description,
		Status:      domain.StatusTodo,
		Priority:    priority,
		Assignees:   normalizeAssignees(in.Assignees),
	}
	if err := st.Validate(); err != nil {
		return nil, err
	}

	err = store.WithinTx(ctx, func(tx repository.Store) error {
		return tx.Subtasks().Create(ctx, st)
	})
	if err != nil {
		return nil, err
	}

	created, err := store.Subtasks().Get(ctx, st.ID)
	if err != nil {
		return nil, err
	}
	s.emit(ctx, domain.EventSubtaskCreated, "subtask", st.ID, userID, map[string]any{"task_id": in.TaskID})
	return created, nil
}

// Get returns one owned subtask.
func (s *SubtaskService) Get(ctx context.Context, userID string, id uuid.UUID) (*domain.Subtask, error) {
	store, err := s.user(userID)
	if err != nil {
		return nil, err
	}
	return store.Subtasks().Get(ctx, id)
}

// List returns a task's subtasks.
func (s *SubtaskService) List(ctx context.Context, userID string, taskID uuid.UUID) ([]domain.Subtask, error) {
	store, err := s.user(userID)
	if err != nil {
		return nil, err
	}
	if _, err := store.Tasks().Get(ctx, taskID); err != nil {
		return nil, err
	}
	return store.Subtasks().ListByTask(ctx, taskID)
}

// UpdateSubtaskInput carries optional field updates; nil means unchanged.
type UpdateSubtaskInput struct {
	Title       *string
	Description *string
	Status      *string
	Priority    *string
	Assignees   []string
	Progress    *int
}

// Update applies field updates to a subtask.
func (s *SubtaskService) Update(ctx context.Context, userID string, id uuid.UUID, in UpdateSubtaskInput) (*domain.Subtask, error) {
	store, err := s.user(userID)
	if err != nil {
		return nil, err
	}
	st, err := store.Subtasks().Get(ctx, id)
	if err != nil {
		return nil, err
	}

	if in.Title != nil {
		st.Title = strings.TrimSpace(*in.Title)
	}
	if in.Description != nil {
		st.Description = *in.Description
	}
	if in.Status != nil {
		status, err := domain.ParseStatus(*in.Status)
		if err != nil {
			return nil, err
		}
		st.Status = status
		if status == domain.StatusDone {
			st.ProgressPercentage = 100
		}
	}
	if in.Priority != nil {
		p, err := domain.ParsePriority(*in.Priority)
		if err != nil {
			return nil, err
		}
		st.Priority = p
	}
	if in.Assignees != nil {
		st.Assignees = normalizeAssignees(in.Assignees)
	}
	if in.Progress != nil {
		st.ProgressPercentage = domain.ClampProgress(*in.Progress)
	}
	if err := st.Validate(); err != nil {
		return nil, err
	}

	err = store.WithinTx(ctx, func(tx repository.Store) error {
		return tx.Subtasks().Update(ctx, st)
	})
	if err != nil {
		return nil, err
	}
	updated, err := store.Subtasks().Get(ctx, id)
	if err != nil {
		return nil, err
	}
	s.emit(ctx, domain.EventSubtaskUpdated, "subtask", id, userID, nil)
	return updated, nil
}

// Delete removes one subtask.
func (s *SubtaskService) Delete(ctx context.Context, userID string, id uuid.UUID) error {
	store, err := s.user(userID)
	if err != nil {
		return err
	}
	err = store.WithinTx(ctx, func(tx repository.Store) error {
		return tx.Subtasks().Delete(ctx, id)
	})
	if err != nil {
		return err
	}
	s.emit(ctx, domain.EventSubtaskDeleted, "subtask", id, userID, nil)
	return nil
}
