package postgres

import (
	"context"
	"encoding/json"

	"github.com/agenthub/agenthub-api/internal/domain"
)

type userRepo struct {
	s *Store
}

// Upsert records an externally-authenticated identity so foreign keys can
// reference it. System path: runs unbound, stamped by the verified
// principal rather than a repository binding.
func (r *userRepo) Upsert(ctx context.Context, id, email string, roles []string) error {
	if len(roles) == 0 {
		roles = []string{"user"}
	}
	rolesJSON, err := json.Marshal(roles)
	if err != nil {
		return domain.Internalf("failed to encode roles").WithCause(err)
	}
	_, err = r.s.q.Exec(ctx, `
		INSERT INTO users (id, email, roles)
		VALUES ($1, $2, $3)
		ON CONFLICT (id) DO UPDATE SET
			email = CASE WHEN EXCLUDED.email <> '' THEN EXCLUDED.email ELSE users.email END,
			roles = EXCLUDED.roles,
			updated_at = now()
	`, id, email, rolesJSON)
	if err != nil {
		return domain.Internalf("storage write failed").WithCause(err)
	}
	return nil
}
