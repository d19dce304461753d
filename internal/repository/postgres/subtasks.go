package postgres

import (
	"context"
	"encoding/json"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"

	"github.com/agenthub/agenthub-api/internal/domain"
)

type subtaskRepo struct {
	s *Store
}

const subtaskColumns = `id, task_id, user_id, title, description, status, priority,
	assignees, progress_percentage, created_at, updated_at`

func (r *subtaskRepo) Create(ctx context.Context, st *domain.Subtask) error {
	userID, err := r.s.requireUser()
	if err != nil {
		return err
	}
	if st.Assignees == nil {
		st.Assignees = []string{}
	}
	assignees, err := json.Marshal(st.Assignees)
	if err != nil {
		return domain.Internalf("failed to encode assignees").WithCause(err)
	}
	_, err = r.s.q.Exec(ctx, `
		INSERT INTO subtasks (id, task_id, user_id, title, description, status, priority,
			assignees, progress_percentage)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9)
	`, st.ID, st.TaskID, userID, st.Title, st.Description, st.Status, st.Priority,
		assignees, st.ProgressPercentage)
	return mapWriteError(err, "subtask already exists: "+st.ID.String())
}

func (r *subtaskRepo) Get(ctx context.Context, id uuid.UUID) (*domain.Subtask, error) {
	userID, err := r.s.requireUser()
	if err != nil {
		return nil, err
	}
	return scanSubtask(r.s.q.QueryRow(ctx, `
		SELECT `+subtaskColumns+` FROM subtasks
		WHERE user_id = $1 AND id = $2
	`, userID, id), id)
}

func scanSubtask(row pgx.Row, ref any) (*domain.Subtask, error) {
	var st domain.Subtask
	var assignees []byte
	err := row.Scan(&st.ID, &st.TaskID, &st.UserID, &st.Title, &st.Description,
		&st.Status, &st.Priority, &assignees, &st.ProgressPercentage,
		&st.CreatedAt, &st.UpdatedAt)
	if err == pgx.ErrNoRows {
		return nil, domain.NotFound("subtask", ref)
	}
	if err != nil {
		return nil, domain.Internalf("storage read failed").WithCause(err)
	}
	if err := json.Unmarshal(assignees, &st.Assignees); err != nil {
		return nil, domain.Internalf("failed to decode assignees").WithCause(err)
	}
	return &st, nil
}

func (r *subtaskRepo) ListByTask(ctx context.Context, taskID uuid.UUID) ([]domain.Subtask, error) {
	userID, err := r.s.requireUser()
	if err != nil {
		return nil, err
	}
	rows, err := r.s.q.Query(ctx, `
		SELECT `+subtaskColumns+` FROM subtasks
		WHERE user_id = $1 AND task_id = $2
		ORDER BY created_at, id
	`, userID, taskID)
	if err != nil {
		return nil, domain.Internalf("storage read failed").WithCause(err)
	}
	defer rows.Close()

	out := []domain.Subtask{}
	for rows.Next() {
		var st domain.Subtask
		var assignees []byte
		if err := rows.Scan(&st.ID, &st.TaskID, &st.UserID, &st.Title, &st.Description,
			&st.Status, &st.Priority, &assignees, &st.ProgressPercentage,
			&st.CreatedAt, &st.UpdatedAt); err != nil {
			return nil, domain.Internalf("storage read failed").WithCause(err)
		}
		if err := json.Unmarshal(assignees, &st.Assignees); err != nil {
			return nil, domain.Internalf("failed to decode assignees").WithCause(err)
		}
		out = append(out, st)
	}
	return out, rows.Err()
}

func (r *subtaskRepo) Update(ctx context.Context, st *domain.Subtask) error {
	userID, err := r.s.requireUser()
	if err != nil {
		return err
	}
	assignees, err := json.Marshal(st.Assignees)
	if err != nil {
		return domain.Internalf("failed to encode assignees").WithCause(err)
	}
	ct, err := r.s.q.Exec(ctx, `
		UPDATE subtasks
		SET title = $3, description = $4, status = $5, priority = $6, assignees = $7,
			progress_percentage = $8, updated_at = now()
		WHERE user_id = $1 AND id = $2
	`, userID, st.ID, st.Title, st.Description, st.Status, st.Priority, assignees,
		st.ProgressPercentage)
	if err != nil {
		return domain.Internalf("storage write failed").WithCause(err)
	}
	if ct.RowsAffected() == 0 {
		return domain.NotFound("subtask", st.ID)
	}
	return nil
}

func (r *subtaskRepo) Delete(ctx context.Context, id uuid.UUID) error {
	userID, err := r.s.requireUser()
	if err != nil {
		return err
	}
	ct, err := r.s.q.Exec(ctx, `
		DELETE FROM subtasks WHERE user_id = $1 AND id = $2
	`, userID, id)
	if err != nil {
		return domain.Internalf("storage write failed").WithCause(err)
	}
	if ct.RowsAffected() == 0 {
		return domain.NotFound("subtask", id)
	}
	return nil
}

func (r *subtaskRepo) CountOpen(ctx context.Context, taskID uuid.UUID) (int, error) {
	userID, err := r.s.requireUser()
	if err != nil {
		return 0, err
	}
	var n int
	err = r.s.q.QueryRow(ctx, `
		SELECT count(*) FROM subtasks
		WHERE user_id = $1 AND task_id = $2 AND status NOT IN ('done', 'cancelled')
	`, userID, taskID).Scan(&n)
	if err != nil {
		return 0, domain.Internalf("storage read failed").WithCause(err)
	}
	return n, nil
}
