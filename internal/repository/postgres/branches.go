package postgres

import (
	"context"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"

	"github.com/agenthub/agenthub-api/internal/domain"
)

type branchRepo struct {
	s *Store
}

const branchColumns = `id, project_id, user_id, name, description, task_count, completed_task_count, created_at, updated_at`

func (r *branchRepo) Create(ctx context.Context, b *domain.Branch) error {
	userID, err := r.s.requireUser()
	if err != nil {
		return err
	}
	_, err = r.s.q.Exec(ctx, `
		INSERT INTO branches (id, project_id, user_id, name, description)
		VALUES ($1, $2, $3, $4, $5)
	`, b.ID, b.ProjectID, userID, b.Name, b.Description)
	return mapWriteError(err, "branch name already exists in project: "+b.Name)
}

func (r *branchRepo) Get(ctx context.Context, id uuid.UUID) (*domain.Branch, error) {
	userID, err := r.s.requireUser()
	if err != nil {
		return nil, err
	}
	return scanBranch(r.s.q.QueryRow(ctx, `
		SELECT `+branchColumns+` FROM branches
		WHERE user_id = $1 AND id = $2
	`, userID, id), id)
}

func (r *branchRepo) GetByName(ctx context.Context, projectID uuid.UUID, name string) (*domain.Branch, error) {
	userID, err := r.s.requireUser()
	if err != nil {
		return nil, err
	}
	return scanBranch(r.s.q.QueryRow(ctx, `
		SELECT `+branchColumns+` FROM branches
		WHERE user_id = $1 AND project_id = $2 AND name = $3
	`, userID, projectID, name), name)
}

func scanBranch(row pgx.Row, ref any) (*domain.Branch, error) {
	var b domain.Branch
	err := row.Scan(&b.ID, &b.ProjectID, &b.UserID, &b.Name, &b.Description,
		&b.TaskCount, &b.CompletedTaskCount, &b.CreatedAt, &b.UpdatedAt)
	if err == pgx.ErrNoRows {
		return nil, domain.NotFound("branch", ref)
	}
	if err != nil {
		return nil, domain.Internalf("storage read failed").WithCause(err)
	}
	return &b, nil
}

func (r *branchRepo) ListByProject(ctx context.Context, projectID uuid.UUID) ([]domain.Branch, error) {
	userID, err := r.s.requireUser()
	if err != nil {
		return nil, err
	}
	return r.list(ctx, `
		SELECT `+branchColumns+` FROM branches
		WHERE user_id = $1 AND project_id = $2
		ORDER BY created_at, id
	`, userID, projectID)
}

func (r *branchRepo) List(ctx context.Context) ([]domain.Branch, error) {
	userID, err := r.s.requireUser()
	if err != nil {
		return nil, err
	}
	return r.list(ctx, `
		SELECT `+branchColumns+` FROM branches
		WHERE user_id = $1
		ORDER BY created_at, id
	`, userID)
}

func (r *branchRepo) list(ctx context.Context, sql string, args ...any) ([]domain.Branch, error) {
	rows, err := r.s.q.Query(ctx, sql, args...)
	if err != nil {
		return nil, domain.Internalf("storage read failed").WithCause(err)
	}
	defer rows.Close()

	out := []domain.Branch{}
	for rows.Next() {
		var b domain.Branch
		if err := rows.Scan(&b.ID, &b.ProjectID, &b.UserID, &b.Name, &b.Description,
			&b.TaskCount, &b.CompletedTaskCount, &b.CreatedAt, &b.UpdatedAt); err != nil {
			return nil, domain.Internalf("storage read failed").WithCause(err)
		}
		out = append(out, b)
	}
	return out, rows.Err()
}

func (r *branchRepo) Update(ctx context.Context, b *domain.Branch) error {
	userID, err := r.s.requireUser()
	if err != nil {
		return err
	}
	ct, err := r.s.q.Exec(ctx, `
		UPDATE branches
		SET name = $3, description = $4, updated_at = now()
		WHERE user_id = $1 AND id = $2
	`, userID, b.ID, b.Name, b.Description)
	if err != nil {
		return mapWriteError(err, "branch name already exists in project: "+b.Name)
	}
	if ct.RowsAffected() == 0 {
		return domain.NotFound("branch", b.ID)
	}
	return nil
}

func (r *branchRepo) Delete(ctx context.Context, id uuid.UUID) error {
	userID, err := r.s.requireUser()
	if err != nil {
		return err
	}
	ct, err := r.s.q.Exec(ctx, `
		DELETE FROM branches WHERE user_id = $1 AND id = $2
	`, userID, id)
	if err != nil {
		return domain.Internalf("storage write failed").WithCause(err)
	}
	if ct.RowsAffected() == 0 {
		return domain.NotFound("branch", id)
	}
	return nil
}

func (r *branchRepo) CountTasks(ctx context.Context, branchID uuid.UUID) (int, int, error) {
	userID, err := r.s.requireUser()
	if err != nil {
		return 0, 0, err
	}
	var total, done int
	err = r.s.q.QueryRow(ctx, `
		SELECT count(*), count(*) FILTER (WHERE status = 'done')
		FROM tasks
		WHERE user_id = $1 AND branch_id = $2
	`, userID, branchID).Scan(&total, &done)
	if err != nil {
		return 0, 0, domain.Internalf("storage read failed").WithCause(err)
	}
	return total, done, nil
}

func (r *branchRepo) SetCounts(ctx context.Context, branchID uuid.UUID, total, done int) error {
	userID, err := r.s.requireUser()
	if err != nil {
		return err
	}
	ct, err := r.s.q.Exec(ctx, `
		UPDATE branches
		SET task_count = $3, completed_task_count = $4, updated_at = now()
		WHERE user_id = $1 AND id = $2
	`, userID, branchID, total, done)
	if err != nil {
		return domain.Internalf("storage write failed").WithCause(err)
	}
	if ct.RowsAffected() == 0 {
		return domain.NotFound("branch", branchID)
	}
	return nil
}
