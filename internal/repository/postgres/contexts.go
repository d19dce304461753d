package postgres

import (
	"context"
	"encoding/json"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"

	"github.com/agenthub/agenthub-api/internal/domain"
	"github.com/agenthub/agenthub-api/internal/repository"
)

type contextRepo struct {
	s *Store
}

func (r *contextRepo) Upsert(ctx context.Context, row *domain.ContextRow) error {
	userID, err := r.s.requireUser()
	if err != nil {
		return err
	}
	if row.Data == nil {
		row.Data = map[string]any{}
	}
	data, err := json.Marshal(row.Data)
	if err != nil {
		return domain.Internalf("failed to encode context data").WithCause(err)
	}
	_, err = r.s.q.Exec(ctx, `
		INSERT INTO contexts (user_id, level, context_id, parent_id, data)
		VALUES ($1, $2, $3, $4, $5)
		ON CONFLICT (user_id, level, context_id) DO UPDATE SET
			data = EXCLUDED.data,
			parent_id = EXCLUDED.parent_id,
			updated_at = now()
	`, userID, row.Level, row.ID, row.ParentID, data)
	if err != nil {
		return domain.Internalf("storage write failed").WithCause(err)
	}
	return nil
}

func (r *contextRepo) Get(ctx context.Context, level domain.ContextLevel, id uuid.UUID) (*domain.ContextRow, error) {
	userID, err := r.s.requireUser()
	if err != nil {
		return nil, err
	}
	return scanContext(r.s.q.QueryRow(ctx, `
		SELECT level, context_id, user_id, parent_id, data, created_at, updated_at
		FROM contexts
		WHERE user_id = $1 AND level = $2 AND context_id = $3
	`, userID, level, id), id)
}

func scanContext(row pgx.Row, ref any) (*domain.ContextRow, error) {
	var c domain.ContextRow
	var data []byte
	err := row.Scan(&c.Level, &c.ID, &c.UserID, &c.ParentID, &data, &c.CreatedAt, &c.UpdatedAt)
	if err == pgx.ErrNoRows {
		return nil, domain.NotFound("context", ref)
	}
	if err != nil {
		return nil, domain.Internalf("storage read failed").WithCause(err)
	}
	if err := json.Unmarshal(data, &c.Data); err != nil {
		return nil, domain.Internalf("failed to decode context data").WithCause(err)
	}
	return &c, nil
}

func (r *contextRepo) Delete(ctx context.Context, level domain.ContextLevel, id uuid.UUID) error {
	userID, err := r.s.requireUser()
	if err != nil {
		return err
	}
	ct, err := r.s.q.Exec(ctx, `
		DELETE FROM contexts WHERE user_id = $1 AND level = $2 AND context_id = $3
	`, userID, level, id)
	if err != nil {
		return domain.Internalf("storage write failed").WithCause(err)
	}
	if ct.RowsAffected() == 0 {
		return domain.NotFound("context", id)
	}
	return nil
}

func (r *contextRepo) Children(ctx context.Context, level domain.ContextLevel, id uuid.UUID) ([]domain.ContextRow, error) {
	userID, err := r.s.requireUser()
	if err != nil {
		return nil, err
	}
	rows, err := r.s.q.Query(ctx, `
		SELECT level, context_id, user_id, parent_id, data, created_at, updated_at
		FROM contexts
		WHERE user_id = $1 AND parent_id = $2
		ORDER BY created_at
	`, userID, id)
	if err != nil {
		return nil, domain.Internalf("storage read failed").WithCause(err)
	}
	defer rows.Close()
	return collectContexts(rows)
}

func collectContexts(rows pgx.Rows) ([]domain.ContextRow, error) {
	out := []domain.ContextRow{}
	for rows.Next() {
		var c domain.ContextRow
		var data []byte
		if err := rows.Scan(&c.Level, &c.ID, &c.UserID, &c.ParentID, &data, &c.CreatedAt, &c.UpdatedAt); err != nil {
			return nil, domain.Internalf("storage read failed").WithCause(err)
		}
		if err := json.Unmarshal(data, &c.Data); err != nil {
			return nil, domain.Internalf("failed to decode context data").WithCause(err)
		}
		out = append(out, c)
	}
	return out, rows.Err()
}

func (r *contextRepo) DeleteTree(ctx context.Context, level domain.ContextLevel, id uuid.UUID) error {
	userID, err := r.s.requireUser()
	if err != nil {
		return err
	}
	// Depth is bounded by the four tiers; the recursive walk stays cheap.
	_, err = r.s.q.Exec(ctx, `
		WITH RECURSIVE tree AS (
			SELECT level, context_id FROM contexts
			WHERE user_id = $1 AND level = $2 AND context_id = $3
			UNION ALL
			SELECT c.level, c.context_id FROM contexts c
			JOIN tree t ON c.parent_id = t.context_id
			WHERE c.user_id = $1
		)
		DELETE FROM contexts
		WHERE user_id = $1 AND (level, context_id) IN (SELECT level, context_id FROM tree)
	`, userID, level, id)
	if err != nil {
		return domain.Internalf("storage write failed").WithCause(err)
	}
	return nil
}

// AncestorChain derives the tier chain from the entity hierarchy, so it
// works even when intermediate context rows were never written.
func (r *contextRepo) AncestorChain(ctx context.Context, level domain.ContextLevel, id uuid.UUID) ([]repository.ContextRef, error) {
	userID, err := r.s.requireUser()
	if err != nil {
		return nil, err
	}

	chain := []repository.ContextRef{{Level: domain.LevelGlobal, ID: domain.GlobalSingleton}}
	switch level {
	case domain.LevelGlobal:
		return chain, nil

	case domain.LevelProject:
		var exists bool
		if err := r.s.q.QueryRow(ctx,
			`SELECT EXISTS (SELECT 1 FROM projects WHERE user_id = $1 AND id = $2)`,
			userID, id).Scan(&exists); err != nil {
			return nil, domain.Internalf("storage read failed").WithCause(err)
		}
		if !exists {
			return nil, domain.NotFound("project", id)
		}
		return append(chain, repository.ContextRef{Level: domain.LevelProject, ID: id}), nil

	case domain.LevelBranch:
		var projectID uuid.UUID
		err := r.s.q.QueryRow(ctx,
			`SELECT project_id FROM branches WHERE user_id = $1 AND id = $2`,
			userID, id).Scan(&projectID)
		if err == pgx.ErrNoRows {
			return nil, domain.NotFound("branch", id)
		}
		if err != nil {
			return nil, domain.Internalf("storage read failed").WithCause(err)
		}
		return append(chain,
			repository.ContextRef{Level: domain.LevelProject, ID: projectID},
			repository.ContextRef{Level: domain.LevelBranch, ID: id}), nil

	default: // task
		var branchID, projectID uuid.UUID
		err := r.s.q.QueryRow(ctx, `
			SELECT t.branch_id, b.project_id
			FROM tasks t JOIN branches b ON b.id = t.branch_id
			WHERE t.user_id = $1 AND t.id = $2
		`, userID, id).Scan(&branchID, &projectID)
		if err == pgx.ErrNoRows {
			return nil, domain.NotFound("task", id)
		}
		if err != nil {
			return nil, domain.Internalf("storage read failed").WithCause(err)
		}
		return append(chain,
			repository.ContextRef{Level: domain.LevelProject, ID: projectID},
			repository.ContextRef{Level: domain.LevelBranch, ID: branchID},
			repository.ContextRef{Level: domain.LevelTask, ID: id}), nil
	}
}

func (r *contextRepo) FindAncestors(ctx context.Context, level domain.ContextLevel, id uuid.UUID) ([]domain.ContextRow, error) {
	chain, err := r.AncestorChain(ctx, level, id)
	if err != nil {
		return nil, err
	}

	out := []domain.ContextRow{}
	for _, ref := range chain {
		if ref.Level == level && ref.ID == id {
			continue
		}
		row, err := r.Get(ctx, ref.Level, ref.ID)
		if err != nil {
			if de, ok := domain.AsError(err); ok && de.Code == domain.CodeNotFound {
				continue
			}
			return nil, err
		}
		out = append(out, *row)
	}
	return out, nil
}
