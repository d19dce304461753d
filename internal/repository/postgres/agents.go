package postgres

import (
	"context"
	"encoding/json"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"

	"github.com/agenthub/agenthub-api/internal/domain"
)

type agentRepo struct {
	s *Store
}

func (r *agentRepo) Upsert(ctx context.Context, a *domain.Agent) error {
	userID, err := r.s.requireUser()
	if err != nil {
		return err
	}
	if a.Capabilities == nil {
		a.Capabilities = map[string]any{}
	}
	caps, err := json.Marshal(a.Capabilities)
	if err != nil {
		return domain.Internalf("failed to encode capabilities").WithCause(err)
	}
	_, err = r.s.q.Exec(ctx, `
		INSERT INTO agents (id, user_id, name, description, capabilities)
		VALUES ($1, $2, $3, $4, $5)
		ON CONFLICT (id) DO UPDATE SET
			name = EXCLUDED.name,
			description = EXCLUDED.description,
			capabilities = EXCLUDED.capabilities,
			updated_at = now()
	`, a.ID, userID, a.Name, a.Description, caps)
	if err != nil {
		return domain.Internalf("storage write failed").WithCause(err)
	}
	return nil
}

func (r *agentRepo) Get(ctx context.Context, id uuid.UUID) (*domain.Agent, error) {
	userID, err := r.s.requireUser()
	if err != nil {
		return nil, err
	}
	var a domain.Agent
	var caps []byte
	err = r.s.q.QueryRow(ctx, `
		SELECT id, user_id, name, description, capabilities, created_at, updated_at
		FROM agents
		WHERE user_id = $1 AND id = $2
	`, userID, id).Scan(&a.ID, &a.UserID, &a.Name, &a.Description, &caps, &a.CreatedAt, &a.UpdatedAt)
	if err == pgx.ErrNoRows {
		return nil, domain.NotFound("agent", id)
	}
	if err != nil {
		return nil, domain.Internalf("storage read failed").WithCause(err)
	}
	if err := json.Unmarshal(caps, &a.Capabilities); err != nil {
		return nil, domain.Internalf("failed to decode capabilities").WithCause(err)
	}
	return &a, nil
}

func (r *agentRepo) List(ctx context.Context) ([]domain.Agent, error) {
	userID, err := r.s.requireUser()
	if err != nil {
		return nil, err
	}
	rows, err := r.s.q.Query(ctx, `
		SELECT id, user_id, name, description, capabilities, created_at, updated_at
		FROM agents
		WHERE user_id = $1
		ORDER BY created_at, id
	`, userID)
	if err != nil {
		return nil, domain.Internalf("storage read failed").WithCause(err)
	}
	defer rows.Close()

	out := []domain.Agent{}
	for rows.Next() {
		var a domain.Agent
		var caps []byte
		if err := rows.Scan(&a.ID, &a.UserID, &a.Name, &a.Description, &caps, &a.CreatedAt, &a.UpdatedAt); err != nil {
			return nil, domain.Internalf("storage read failed").WithCause(err)
		}
		if err := json.Unmarshal(caps, &a.Capabilities); err != nil {
			return nil, domain.Internalf("failed to decode capabilities").WithCause(err)
		}
		out = append(out, a)
	}
	return out, rows.Err()
}

func (r *agentRepo) Assign(ctx context.Context, branchID, agentID uuid.UUID) error {
	userID, err := r.s.requireUser()
	if err != nil {
		return err
	}
	_, err = r.s.q.Exec(ctx, `
		INSERT INTO branch_agents (branch_id, agent_id, user_id)
		VALUES ($1, $2, $3)
		ON CONFLICT (branch_id, agent_id) DO NOTHING
	`, branchID, agentID, userID)
	if err != nil {
		return domain.Internalf("storage write failed").WithCause(err)
	}
	return nil
}

func (r *agentRepo) Unassign(ctx context.Context, branchID, agentID uuid.UUID) error {
	userID, err := r.s.requireUser()
	if err != nil {
		return err
	}
	ct, err := r.s.q.Exec(ctx, `
		DELETE FROM branch_agents
		WHERE user_id = $1 AND branch_id = $2 AND agent_id = $3
	`, userID, branchID, agentID)
	if err != nil {
		return domain.Internalf("storage write failed").WithCause(err)
	}
	if ct.RowsAffected() == 0 {
		return domain.NotFound("agent assignment", agentID)
	}
	return nil
}

func (r *agentRepo) ListByBranch(ctx context.Context, branchID uuid.UUID) ([]domain.Agent, error) {
	userID, err := r.s.requireUser()
	if err != nil {
		return nil, err
	}
	rows, err := r.s.q.Query(ctx, `
		SELECT a.id, a.user_id, a.name, a.description, a.capabilities, a.created_at, a.updated_at
		FROM agents a
		JOIN branch_agents ba ON ba.agent_id = a.id
		WHERE ba.user_id = $1 AND ba.branch_id = $2
		ORDER BY ba.created_at
	`, userID, branchID)
	if err != nil {
		return nil, domain.Internalf("storage read failed").WithCause(err)
	}
	defer rows.Close()

	out := []domain.Agent{}
	for rows.Next() {
		var a domain.Agent
		var caps []byte
		if err := rows.Scan(&a.ID, &a.UserID, &a.Name, &a.Description, &caps, &a.CreatedAt, &a.UpdatedAt); err != nil {
			return nil, domain.Internalf("storage read failed").WithCause(err)
		}
		if err := json.Unmarshal(caps, &a.Capabilities); err != nil {
			return nil, domain.Internalf("failed to decode capabilities").WithCause(err)
		}
		out = append(out, a)
	}
	return out, rows.Err()
}

func (r *agentRepo) CountAssignments(ctx context.Context) (map[uuid.UUID]int, error) {
	userID, err := r.s.requireUser()
	if err != nil {
		return nil, err
	}
	rows, err := r.s.q.Query(ctx, `
		SELECT branch_id, count(*) FROM branch_agents
		WHERE user_id = $1
		GROUP BY branch_id
	`, userID)
	if err != nil {
		return nil, domain.Internalf("storage read failed").WithCause(err)
	}
	defer rows.Close()

	out := map[uuid.UUID]int{}
	for rows.Next() {
		var id uuid.UUID
		var n int
		if err := rows.Scan(&id, &n); err != nil {
			return nil, domain.Internalf("storage read failed").WithCause(err)
		}
		out[id] = n
	}
	return out, rows.Err()
}
