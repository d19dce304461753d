package postgres

import (
	"context"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/rs/zerolog/log"

	"github.com/agenthub/agenthub-api/internal/domain"
)

type projectRepo struct {
	s *Store
}

func (r *projectRepo) Create(ctx context.Context, p *domain.Project) error {
	userID, err := r.s.requireUser()
	if err != nil {
		return err
	}
	_, err = r.s.q.Exec(ctx, `
		INSERT INTO projects (id, user_id, name, description)
		VALUES ($1, $2, $3, $4)
	`, p.ID, userID, p.Name, p.Description)
	return mapWriteError(err, "project name already exists: "+p.Name)
}

func (r *projectRepo) Get(ctx context.Context, id uuid.UUID) (*domain.Project, error) {
	userID, err := r.s.requireUser()
	if err != nil {
		return nil, err
	}
	return scanProject(r.s.q.QueryRow(ctx, `
		SELECT id, user_id, name, description, created_at, updated_at
		FROM projects
		WHERE user_id = $1 AND id = $2
	`, userID, id), id)
}

func (r *projectRepo) GetByName(ctx context.Context, name string) (*domain.Project, error) {
	userID, err := r.s.requireUser()
	if err != nil {
		return nil, err
	}
	return scanProject(r.s.q.QueryRow(ctx, `
		SELECT id, user_id, name, description, created_at, updated_at
		FROM projects
		WHERE user_id = $1 AND name = $2
	`, userID, name), name)
}

func scanProject(row pgx.Row, ref any) (*domain.Project, error) {
	var p domain.Project
	err := row.Scan(&p.ID, &p.UserID, &p.Name, &p.Description, &p.CreatedAt, &p.UpdatedAt)
	if err == pgx.ErrNoRows {
		return nil, domain.NotFound("project", ref)
	}
	if err != nil {
		log.Error().Err(err).Msg("failed to scan project")
		return nil, domain.Internalf("storage read failed").WithCause(err)
	}
	return &p, nil
}

func (r *projectRepo) List(ctx context.Context) ([]domain.Project, error) {
	userID, err := r.s.requireUser()
	if err != nil {
		return nil, err
	}
	rows, err := r.s.q.Query(ctx, `
		SELECT id, user_id, name, description, created_at, updated_at
		FROM projects
		WHERE user_id = $1
		ORDER BY created_at, id
	`, userID)
	if err != nil {
		return nil, domain.Internalf("storage read failed").WithCause(err)
	}
	defer rows.Close()

	out := []domain.Project{}
	for rows.Next() {
		var p domain.Project
		if err := rows.Scan(&p.ID, &p.UserID, &p.Name, &p.Description, &p.CreatedAt, &p.UpdatedAt); err != nil {
			return nil, domain.Internalf("storage read failed").WithCause(err)
		}
		out = append(out, p)
	}
	return out, rows.Err()
}

func (r *projectRepo) Update(ctx context.Context, p *domain.Project) error {
	userID, err := r.s.requireUser()
	if err != nil {
		return err
	}
	ct, err := r.s.q.Exec(ctx, `
		UPDATE projects
		SET name = $3, description = $4, updated_at = now()
		WHERE user_id = $1 AND id = $2
	`, userID, p.ID, p.Name, p.Description)
	if err != nil {
		return mapWriteError(err, "project name already exists: "+p.Name)
	}
	if ct.RowsAffected() == 0 {
		return domain.NotFound("project", p.ID)
	}
	return nil
}

func (r *projectRepo) Delete(ctx context.Context, id uuid.UUID) error {
	userID, err := r.s.requireUser()
	if err != nil {
		return err
	}
	ct, err := r.s.q.Exec(ctx, `
		DELETE FROM projects WHERE user_id = $1 AND id = $2
	`, userID, id)
	if err != nil {
		return domain.Internalf("storage write failed").WithCause(err)
	}
	if ct.RowsAffected() == 0 {
		return domain.NotFound("project", id)
	}
	return nil
}
