// Package postgres implements the repository contracts on pgx. Every
// user-scoped query filters on user_id; the Store treats a user-scoped
// call on an unbound store as a programming error rather than returning
// cross-user rows.
package postgres

import (
	"context"
	"errors"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/rs/zerolog/log"

	"github.com/agenthub/agenthub-api/internal/domain"
	"github.com/agenthub/agenthub-api/internal/repository"
)

// Querier is satisfied by both *pgxpool.Pool and pgx.Tx, so repositories
// run unchanged inside and outside transactions.
type Querier interface {
	Exec(ctx context.Context, sql string, args ...any) (pgconn.CommandTag, error)
	Query(ctx context.Context, sql string, args ...any) (pgx.Rows, error)
	QueryRow(ctx context.Context, sql string, args ...any) pgx.Row
}

// Store is the pgx-backed repository.Store.
type Store struct {
	pool   *pgxpool.Pool
	q      Querier
	userID string
	inTx   bool
}

// NewStore creates an unbound store over the pool.
func NewStore(pool *pgxpool.Pool) *Store {
	return &Store{pool: pool, q: pool}
}

// WithUser returns a copy of the store scoped to userID.
func (s *Store) WithUser(userID string) repository.Store {
	c := *s
	c.userID = userID
	return &c
}

// UserID reports the bound user.
func (s *Store) UserID() string { return s.userID }

// WithinTx runs fn against a transaction-bound copy of the store. Nested
// calls join the enclosing transaction.
func (s *Store) WithinTx(ctx context.Context, fn func(repository.Store) error) error {
	if s.inTx {
		return fn(s)
	}

	tx, err := s.pool.Begin(ctx)
	if err != nil {
		log.Error().Err(err).Msg("failed to begin transaction")
		return domain.Internalf("storage unavailable").WithCause(err)
	}
	defer tx.Rollback(ctx)

	c := *s
	c.q = tx
	c.inTx = true
	if err := fn(&c); err != nil {
		return err
	}

	if err := tx.Commit(ctx); err != nil {
		log.Error().Err(err).Msg("failed to commit transaction")
		return domain.Internalf("storage unavailable").WithCause(err)
	}
	return nil
}

func (s *Store) Projects() repository.ProjectRepo       { return &projectRepo{s} }
func (s *Store) Branches() repository.BranchRepo        { return &branchRepo{s} }
func (s *Store) Tasks() repository.TaskRepo             { return &taskRepo{s} }
func (s *Store) Subtasks() repository.SubtaskRepo       { return &subtaskRepo{s} }
func (s *Store) Contexts() repository.ContextRepo       { return &contextRepo{s} }
func (s *Store) Dependencies() repository.DependencyRepo { return &dependencyRepo{s} }
func (s *Store) Agents() repository.AgentRepo           { return &agentRepo{s} }
func (s *Store) Delegations() repository.DelegationRepo { return &delegationRepo{s} }
func (s *Store) Users() repository.UserRepo             { return &userRepo{s} }

// requireUser guards user-scoped queries. A missing binding is a bug in
// the caller, never a license to query across users.
func (s *Store) requireUser() (string, error) {
	if s.userID == "" {
		return "", domain.Internalf("repository not bound to a user")
	}
	return s.userID, nil
}

const uniqueViolation = "23505"

// mapWriteError translates storage errors: unique violations become
// conflicts, everything else an internal error with the cause retained
// for logging.
func mapWriteError(err error, conflictMsg string) error {
	if err == nil {
		return nil
	}
	var pgErr *pgconn.PgError
	if errors.As(err, &pgErr) && pgErr.Code == uniqueViolation {
		return domain.Conflict("%s", conflictMsg).WithCause(err)
	}
	return domain.Internalf("storage write failed").WithCause(err)
}
