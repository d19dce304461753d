package postgres

import (
	"context"

	"github.com/google/uuid"

	"github.com/agenthub/agenthub-api/internal/domain"
)

type dependencyRepo struct {
	s *Store
}

func (r *dependencyRepo) Add(ctx context.Context, taskID, dependsOn uuid.UUID) error {
	userID, err := r.s.requireUser()
	if err != nil {
		return err
	}
	_, err = r.s.q.Exec(ctx, `
		INSERT INTO task_dependencies (task_id, depends_on, user_id)
		VALUES ($1, $2, $3)
		ON CONFLICT (task_id, depends_on) DO NOTHING
	`, taskID, dependsOn, userID)
	if err != nil {
		return domain.Internalf("storage write failed").WithCause(err)
	}
	return nil
}

func (r *dependencyRepo) Remove(ctx context.Context, taskID, dependsOn uuid.UUID) error {
	userID, err := r.s.requireUser()
	if err != nil {
		return err
	}
	ct, err := r.s.q.Exec(ctx, `
		DELETE FROM task_dependencies
		WHERE user_id = $1 AND task_id = $2 AND depends_on = $3
	`, userID, taskID, dependsOn)
	if err != nil {
		return domain.Internalf("storage write failed").WithCause(err)
	}
	if ct.RowsAffected() == 0 {
		return domain.NotFound("dependency", dependsOn)
	}
	return nil
}

func (r *dependencyRepo) Clear(ctx context.Context, taskID uuid.UUID) error {
	userID, err := r.s.requireUser()
	if err != nil {
		return err
	}
	_, err = r.s.q.Exec(ctx, `
		DELETE FROM task_dependencies WHERE user_id = $1 AND task_id = $2
	`, userID, taskID)
	if err != nil {
		return domain.Internalf("storage write failed").WithCause(err)
	}
	return nil
}

func (r *dependencyRepo) ListForTask(ctx context.Context, taskID uuid.UUID) ([]uuid.UUID, error) {
	userID, err := r.s.requireUser()
	if err != nil {
		return nil, err
	}
	return r.listIDs(ctx, `
		SELECT depends_on FROM task_dependencies
		WHERE user_id = $1 AND task_id = $2
		ORDER BY created_at
	`, userID, taskID)
}

func (r *dependencyRepo) ListDependents(ctx context.Context, taskID uuid.UUID) ([]uuid.UUID, error) {
	userID, err := r.s.requireUser()
	if err != nil {
		return nil, err
	}
	return r.listIDs(ctx, `
		SELECT task_id FROM task_dependencies
		WHERE user_id = $1 AND depends_on = $2
		ORDER BY created_at
	`, userID, taskID)
}

func (r *dependencyRepo) listIDs(ctx context.Context, sql string, args ...any) ([]uuid.UUID, error) {
	rows, err := r.s.q.Query(ctx, sql, args...)
	if err != nil {
		return nil, domain.Internalf("storage read failed").WithCause(err)
	}
	defer rows.Close()

	out := []uuid.UUID{}
	for rows.Next() {
		var id uuid.UUID
		if err := rows.Scan(&id); err != nil {
			return nil, domain.Internalf("storage read failed").WithCause(err)
		}
		out = append(out, id)
	}
	return out, rows.Err()
}

func (r *dependencyRepo) ListAll(ctx context.Context) (map[uuid.UUID][]uuid.UUID, error) {
	userID, err := r.s.requireUser()
	if err != nil {
		return nil, err
	}
	rows, err := r.s.q.Query(ctx, `
		SELECT task_id, depends_on FROM task_dependencies WHERE user_id = $1
	`, userID)
	if err != nil {
		return nil, domain.Internalf("storage read failed").WithCause(err)
	}
	defer rows.Close()

	out := map[uuid.UUID][]uuid.UUID{}
	for rows.Next() {
		var task, dep uuid.UUID
		if err := rows.Scan(&task, &dep); err != nil {
			return nil, domain.Internalf("storage read failed").WithCause(err)
		}
		out[task] = append(out[task], dep)
	}
	return out, rows.Err()
}

func (r *dependencyRepo) Count(ctx context.Context) (int, error) {
	userID, err := r.s.requireUser()
	if err != nil {
		return 0, err
	}
	var n int
	if err := r.s.q.QueryRow(ctx,
		`SELECT count(*) FROM task_dependencies WHERE user_id = $1`, userID).Scan(&n); err != nil {
		return 0, domain.Internalf("storage read failed").WithCause(err)
	}
	return n, nil
}
