package postgres

import (
	"context"
	"encoding/json"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"

	"github.com/agenthub/agenthub-api/internal/domain"
)

type taskRepo struct {
	s *Store
}

const taskColumns = `id, branch_id, user_id, title, description, status, priority,
	assignees, labels, estimated_effort, due_date, progress_percentage,
	progress_history, context_id, created_at, updated_at`

func (r *taskRepo) Create(ctx context.Context, t *domain.Task) error {
	userID, err := r.s.requireUser()
	if err != nil {
		return err
	}
	assignees, history, labels, err := marshalTaskBlobs(t)
	if err != nil {
		return err
	}
	_, err = r.s.q.Exec(ctx, `
		INSERT INTO tasks (id, branch_id, user_id, title, description, status, priority,
			assignees, labels, estimated_effort, due_date, progress_percentage,
			progress_history, context_id)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13, $14)
	`, t.ID, t.BranchID, userID, t.Title, t.Description, t.Status, t.Priority,
		assignees, labels, t.EstimatedEffort, t.DueDate, t.ProgressPercentage,
		history, t.ContextID)
	return mapWriteError(err, "task already exists: "+t.ID.String())
}

func marshalTaskBlobs(t *domain.Task) (assignees, history, labels []byte, err error) {
	if assignees, err = json.Marshal(t.Assignees); err != nil {
		return nil, nil, nil, domain.Internalf("failed to encode assignees").WithCause(err)
	}
	if t.Labels == nil {
		t.Labels = []string{}
	}
	if labels, err = json.Marshal(t.Labels); err != nil {
		return nil, nil, nil, domain.Internalf("failed to encode labels").WithCause(err)
	}
	if t.ProgressHistory == nil {
		t.ProgressHistory = []domain.ProgressEntry{}
	}
	if history, err = json.Marshal(t.ProgressHistory); err != nil {
		return nil, nil, nil, domain.Internalf("failed to encode progress history").WithCause(err)
	}
	return assignees, history, labels, nil
}

func (r *taskRepo) Get(ctx context.Context, id uuid.UUID) (*domain.Task, error) {
	userID, err := r.s.requireUser()
	if err != nil {
		return nil, err
	}
	return scanTask(r.s.q.QueryRow(ctx, `
		SELECT `+taskColumns+` FROM tasks
		WHERE user_id = $1 AND id = $2
	`, userID, id), id)
}

func scanTask(row pgx.Row, ref any) (*domain.Task, error) {
	var t domain.Task
	var assignees, labels, history []byte
	err := row.Scan(&t.ID, &t.BranchID, &t.UserID, &t.Title, &t.Description, &t.Status,
		&t.Priority, &assignees, &labels, &t.EstimatedEffort, &t.DueDate,
		&t.ProgressPercentage, &history, &t.ContextID, &t.CreatedAt, &t.UpdatedAt)
	if err == pgx.ErrNoRows {
		return nil, domain.NotFound("task", ref)
	}
	if err != nil {
		return nil, domain.Internalf("storage read failed").WithCause(err)
	}
	if err := unmarshalTaskBlobs(&t, assignees, labels, history); err != nil {
		return nil, err
	}
	return &t, nil
}

func unmarshalTaskBlobs(t *domain.Task, assignees, labels, history []byte) error {
	if err := json.Unmarshal(assignees, &t.Assignees); err != nil {
		return domain.Internalf("failed to decode assignees").WithCause(err)
	}
	if err := json.Unmarshal(labels, &t.Labels); err != nil {
		return domain.Internalf("failed to decode labels").WithCause(err)
	}
	if err := json.Unmarshal(history, &t.ProgressHistory); err != nil {
		return domain.Internalf("failed to decode progress history").WithCause(err)
	}
	return nil
}

func (r *taskRepo) GetTasksByBranch(ctx context.Context, branchID uuid.UUID) ([]domain.Task, error) {
	userID, err := r.s.requireUser()
	if err != nil {
		return nil, err
	}
	return r.list(ctx, `
		SELECT `+taskColumns+` FROM tasks
		WHERE user_id = $1 AND branch_id = $2
		ORDER BY created_at, id
	`, userID, branchID)
}

func (r *taskRepo) List(ctx context.Context) ([]domain.Task, error) {
	userID, err := r.s.requireUser()
	if err != nil {
		return nil, err
	}
	return r.list(ctx, `
		SELECT `+taskColumns+` FROM tasks
		WHERE user_id = $1
		ORDER BY created_at, id
	`, userID)
}

func (r *taskRepo) list(ctx context.Context, sql string, args ...any) ([]domain.Task, error) {
	rows, err := r.s.q.Query(ctx, sql, args...)
	if err != nil {
		return nil, domain.Internalf("storage read failed").WithCause(err)
	}
	defer rows.Close()

	out := []domain.Task{}
	for rows.Next() {
		var t domain.Task
		var assignees, labels, history []byte
		if err := rows.Scan(&t.ID, &t.BranchID, &t.UserID, &t.Title, &t.Description, &t.Status,
			&t.Priority, &assignees, &labels, &t.EstimatedEffort, &t.DueDate,
			&t.ProgressPercentage, &history, &t.ContextID, &t.CreatedAt, &t.UpdatedAt); err != nil {
			return nil, domain.Internalf("storage read failed").WithCause(err)
		}
		if err := unmarshalTaskBlobs(&t, assignees, labels, history); err != nil {
			return nil, err
		}
		out = append(out, t)
	}
	return out, rows.Err()
}

func (r *taskRepo) Update(ctx context.Context, t *domain.Task) error {
	userID, err := r.s.requireUser()
	if err != nil {
		return err
	}
	assignees, history, labels, err := marshalTaskBlobs(t)
	if err != nil {
		return err
	}
	ct, err := r.s.q.Exec(ctx, `
		UPDATE tasks
		SET title = $3, description = $4, status = $5, priority = $6, assignees = $7,
			labels = $8, estimated_effort = $9, due_date = $10, progress_percentage = $11,
			progress_history = $12, context_id = $13, updated_at = now()
		WHERE user_id = $1 AND id = $2
	`, userID, t.ID, t.Title, t.Description, t.Status, t.Priority, assignees,
		labels, t.EstimatedEffort, t.DueDate, t.ProgressPercentage, history, t.ContextID)
	if err != nil {
		return domain.Internalf("storage write failed").WithCause(err)
	}
	if ct.RowsAffected() == 0 {
		return domain.NotFound("task", t.ID)
	}
	return nil
}

func (r *taskRepo) Delete(ctx context.Context, id uuid.UUID) error {
	userID, err := r.s.requireUser()
	if err != nil {
		return err
	}
	ct, err := r.s.q.Exec(ctx, `
		DELETE FROM tasks WHERE user_id = $1 AND id = $2
	`, userID, id)
	if err != nil {
		return domain.Internalf("storage write failed").WithCause(err)
	}
	if ct.RowsAffected() == 0 {
		return domain.NotFound("task", id)
	}
	return nil
}
