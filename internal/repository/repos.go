// Package repository defines the persistence contracts the use cases
// depend on. Every repository obtained from a user-bound Store implicitly
// filters on user_id and stamps it on writes; unbound stores are legal
// only for system paths (migrations, the delegation worker, user upserts).
package repository

import (
	"context"

	"github.com/google/uuid"

	"github.com/agenthub/agenthub-api/internal/domain"
)

// Store aggregates the per-entity repositories and the unit-of-work
// boundary. WithinTx runs fn against a transaction-bound Store; all
// repository mutations inside commit or roll back together.
type Store interface {
	// WithUser returns a Store whose repositories are scoped to userID.
	WithUser(userID string) Store
	// UserID reports the bound user, empty when unbound.
	UserID() string

	Projects() ProjectRepo
	Branches() BranchRepo
	Tasks() TaskRepo
	Subtasks() SubtaskRepo
	Contexts() ContextRepo
	Dependencies() DependencyRepo
	Agents() AgentRepo
	Delegations() DelegationRepo
	Users() UserRepo

	WithinTx(ctx context.Context, fn func(Store) error) error
}

// ProjectRepo persists Project aggregates.
type ProjectRepo interface {
	Create(ctx context.Context, p *domain.Project) error
	Get(ctx context.Context, id uuid.UUID) (*domain.Project, error)
	GetByName(ctx context.Context, name string) (*domain.Project, error)
	List(ctx context.Context) ([]domain.Project, error)
	Update(ctx context.Context, p *domain.Project) error
	Delete(ctx context.Context, id uuid.UUID) error
}

// BranchRepo persists Branch aggregates, including the counter columns.
type BranchRepo interface {
	Create(ctx context.Context, b *domain.Branch) error
	Get(ctx context.Context, id uuid.UUID) (*domain.Branch, error)
	GetByName(ctx context.Context, projectID uuid.UUID, name string) (*domain.Branch, error)
	ListByProject(ctx context.Context, projectID uuid.UUID) ([]domain.Branch, error)
	List(ctx context.Context) ([]domain.Branch, error)
	Update(ctx context.Context, b *domain.Branch) error
	Delete(ctx context.Context, id uuid.UUID) error

	// CountTasks derives the authoritative counts from the tasks table.
	CountTasks(ctx context.Context, branchID uuid.UUID) (total, done int, err error)
	// SetCounts writes the denormalized counter columns.
	SetCounts(ctx context.Context, branchID uuid.UUID, total, done int) error
}

// TaskRepo persists Task aggregates.
type TaskRepo interface {
	Create(ctx context.Context, t *domain.Task) error
	Get(ctx context.Context, id uuid.UUID) (*domain.Task, error)
	GetTasksByBranch(ctx context.Context, branchID uuid.UUID) ([]domain.Task, error)
	List(ctx context.Context) ([]domain.Task, error)
	Update(ctx context.Context, t *domain.Task) error
	Delete(ctx context.Context, id uuid.UUID) error
}

// SubtaskRepo persists Subtasks under their owning Task.
type SubtaskRepo interface {
	Create(ctx context.Context, s *domain.Subtask) error
	Get(ctx context.Context, id uuid.UUID) (*domain.Subtask, error)
	ListByTask(ctx context.Context, taskID uuid.UUID) ([]domain.Subtask, error)
	Update(ctx context.Context, s *domain.Subtask) error
	Delete(ctx context.Context, id uuid.UUID) error
	// CountOpen counts subtasks not in a terminal status.
	CountOpen(ctx context.Context, taskID uuid.UUID) (int, error)
}

// ContextRef addresses one tier of the context hierarchy.
type ContextRef struct {
	Level domain.ContextLevel
	ID    uuid.UUID
}

// ContextRepo persists the four-tier context rows.
type ContextRepo interface {
	Upsert(ctx context.Context, row *domain.ContextRow) error
	Get(ctx context.Context, level domain.ContextLevel, id uuid.UUID) (*domain.ContextRow, error)
	Delete(ctx context.Context, level domain.ContextLevel, id uuid.UUID) error
	// Children returns the direct child rows of a context.
	Children(ctx context.Context, level domain.ContextLevel, id uuid.UUID) ([]domain.ContextRow, error)
	// DeleteTree removes the row and every descendant row; used by the
	// owning entity's cascade-aware delete path.
	DeleteTree(ctx context.Context, level domain.ContextLevel, id uuid.UUID) error
	// AncestorChain derives the ordered chain global→…→(level,id) from the
	// entity hierarchy, independent of which context rows exist.
	AncestorChain(ctx context.Context, level domain.ContextLevel, id uuid.UUID) ([]ContextRef, error)
	// FindAncestors returns the existing rows along the chain, global first,
	// excluding the target row itself.
	FindAncestors(ctx context.Context, level domain.ContextLevel, id uuid.UUID) ([]domain.ContextRow, error)
}

// DependencyRepo persists the per-user dependency DAG.
type DependencyRepo interface {
	Add(ctx context.Context, taskID, dependsOn uuid.UUID) error
	Remove(ctx context.Context, taskID, dependsOn uuid.UUID) error
	Clear(ctx context.Context, taskID uuid.UUID) error
	// ListForTask returns direct predecessors of taskID.
	ListForTask(ctx context.Context, taskID uuid.UUID) ([]uuid.UUID, error)
	// ListDependents returns direct successors of taskID.
	ListDependents(ctx context.Context, taskID uuid.UUID) ([]uuid.UUID, error)
	// ListAll returns the full user-scoped edge set, task → predecessors.
	ListAll(ctx context.Context) (map[uuid.UUID][]uuid.UUID, error)
	Count(ctx context.Context) (int, error)
}

// AgentRepo persists registered agents and their branch assignments.
type AgentRepo interface {
	Upsert(ctx context.Context, a *domain.Agent) error
	Get(ctx context.Context, id uuid.UUID) (*domain.Agent, error)
	List(ctx context.Context) ([]domain.Agent, error)
	Assign(ctx context.Context, branchID, agentID uuid.UUID) error
	Unassign(ctx context.Context, branchID, agentID uuid.UUID) error
	ListByBranch(ctx context.Context, branchID uuid.UUID) ([]domain.Agent, error)
	// CountAssignments returns branch → assigned-agent count for the user.
	CountAssignments(ctx context.Context) (map[uuid.UUID]int, error)
}

// DelegationRepo persists the asynchronous context-promotion queue.
type DelegationRepo interface {
	Enqueue(ctx context.Context, d *domain.Delegation) error
	// NextPending returns the oldest pending delegation for the bound user.
	NextPending(ctx context.Context) (*domain.Delegation, error)
	MarkProcessed(ctx context.Context, id uuid.UUID) error
	MarkFailed(ctx context.Context, id uuid.UUID, attempts int, lastError string, terminal bool) error
	// PendingUsers lists users with queued work; system path, ignores binding.
	PendingUsers(ctx context.Context) ([]string, error)
	// DeleteProcessed clears processed rows; used by cleanup paths.
	DeleteProcessed(ctx context.Context) (int64, error)
}

// UserRepo records externally-sourced identities referenced internally.
// System path: not user-bound.
type UserRepo interface {
	Upsert(ctx context.Context, id, email string, roles []string) error
}
