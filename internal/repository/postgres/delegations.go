package postgres

import (
	"context"
	"encoding/json"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"

	"github.com/agenthub/agenthub-api/internal/domain"
)

type delegationRepo struct {
	s *Store
}

func (r *delegationRepo) Enqueue(ctx context.Context, d *domain.Delegation) error {
	userID, err := r.s.requireUser()
	if err != nil {
		return err
	}
	payload, err := json.Marshal(d.Payload)
	if err != nil {
		return domain.Internalf("failed to encode delegation payload").WithCause(err)
	}
	_, err = r.s.q.Exec(ctx, `
		INSERT INTO delegations (id, user_id, source_level, source_id, target_level, payload)
		VALUES ($1, $2, $3, $4, $5, $6)
	`, d.ID, userID, d.SourceLevel, d.SourceID, d.TargetLevel, payload)
	if err != nil {
		return domain.Internalf("storage write failed").WithCause(err)
	}
	return nil
}

func (r *delegationRepo) NextPending(ctx context.Context) (*domain.Delegation, error) {
	userID, err := r.s.requireUser()
	if err != nil {
		return nil, err
	}
	var d domain.Delegation
	var payload []byte
	err = r.s.q.QueryRow(ctx, `
		SELECT id, user_id, source_level, source_id, target_level, payload,
			status, attempts, last_error, created_at, processed_at
		FROM delegations
		WHERE user_id = $1 AND status = 'pending'
		ORDER BY created_at
		LIMIT 1
	`, userID).Scan(&d.ID, &d.UserID, &d.SourceLevel, &d.SourceID, &d.TargetLevel,
		&payload, &d.Status, &d.Attempts, &d.LastError, &d.CreatedAt, &d.ProcessedAt)
	if err == pgx.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, domain.Internalf("storage read failed").WithCause(err)
	}
	if err := json.Unmarshal(payload, &d.Payload); err != nil {
		return nil, domain.Internalf("failed to decode delegation payload").WithCause(err)
	}
	return &d, nil
}

func (r *delegationRepo) MarkProcessed(ctx context.Context, id uuid.UUID) error {
	userID, err := r.s.requireUser()
	if err != nil {
		return err
	}
	_, err = r.s.q.Exec(ctx, `
		UPDATE delegations
		SET status = 'processed', processed_at = now()
		WHERE user_id = $1 AND id = $2
	`, userID, id)
	if err != nil {
		return domain.Internalf("storage write failed").WithCause(err)
	}
	return nil
}

func (r *delegationRepo) MarkFailed(ctx context.Context, id uuid.UUID, attempts int, lastError string, terminal bool) error {
	userID, err := r.s.requireUser()
	if err != nil {
		return err
	}
	status := domain.DelegationPending
	if terminal {
		status = domain.DelegationFailed
	}
	_, err = r.s.q.Exec(ctx, `
		UPDATE delegations
		SET status = $3, attempts = $4, last_error = $5
		WHERE user_id = $1 AND id = $2
	`, userID, id, status, attempts, lastError)
	if err != nil {
		return domain.Internalf("storage write failed").WithCause(err)
	}
	return nil
}

func (r *delegationRepo) DeleteProcessed(ctx context.Context) (int64, error) {
	userID, err := r.s.requireUser()
	if err != nil {
		return 0, err
	}
	ct, err := r.s.q.Exec(ctx, `
		DELETE FROM delegations WHERE user_id = $1 AND status = 'processed'
	`, userID)
	if err != nil {
		return 0, domain.Internalf("storage write failed").WithCause(err)
	}
	return ct.RowsAffected(), nil
}

func (r *delegationRepo) PendingUsers(ctx context.Context) ([]string, error) {
	rows, err := r.s.q.Query(ctx, `
		SELECT DISTINCT user_id FROM delegations WHERE status = 'pending'
	`)
	if err != nil {
		return nil, domain.Internalf("storage read failed").WithCause(err)
	}
	defer rows.Close()

	out := []string{}
	for rows.Next() {
		var id string
		if err := rows.Scan(&id); err != nil {
			return nil, domain.Internalf("storage read failed").WithCause(err)
		}
		out = append(out, id)
	}
	return out, rows.Err()
}
