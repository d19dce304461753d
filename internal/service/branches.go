package service

import (
	"context"
	"strings"

	"github.com/google/uuid"

	"github.com/agenthub/agenthub-api/internal/domain"
	"github.com/agenthub/agenthub-api/internal/notify"
	"github.com/agenthub/agenthub-api/internal/repository"
)

// BranchService implements the git-branch use cases.
type BranchService struct {
	base
	agents *AgentService
}

// NewBranchService wires the service.
func NewBranchService(store repository.Store, sink notify.Sink, agents *AgentService) *BranchService {
	return &BranchService{base{store: store, sink: sink}, agents}
}

// Create adds a branch under a project. Names are unique per project.
func (s *BranchService) Create(ctx context.Context, userID string, projectID uuid.UUID, name, description string) (*domain.Branch, error) {
	store, err := s.user(userID)
	if err != nil {
		return nil, err
	}
	if _, err := store.Projects().Get(ctx, projectID); err != nil {
		return nil, err
	}

	b := &domain.Branch{
		ID:          uuid.New(),
		ProjectID:   projectID,
		UserID:      userID,
		Name:        strings.TrimSpace(name),
		Description: description,
	}
	if err := b.Validate(); err != nil {
		return nil, err
	}

	err = store.WithinTx(ctx, func(tx repository.Store) error {
		return tx.Branches().Create(ctx, b)
	})
	if err != nil {
		return nil, err
	}

	created, err := store.Branches().Get(ctx, b.ID)
	if err != nil {
		return nil, err
	}
	s.emit(ctx, domain.EventBranchCreated, "branch", b.ID, userID, map[string]any{"project_id": projectID})
	return created, nil
}

// Get returns one owned branch with its authoritative counters.
func (s *BranchService) Get(ctx context.Context, userID string, id uuid.UUID) (*domain.Branch, error) {
	store, err := s.user(userID)
	if err != nil {
		return nil, err
	}
	return store.Branches().Get(ctx, id)
}

// List returns the branches of one project.
func (s *BranchService) List(ctx context.Context, userID string, projectID uuid.UUID) ([]domain.Branch, error) {
	store, err := s.user(userID)
	if err != nil {
		return nil, err
	}
	if _, err := store.Projects().Get(ctx, projectID); err != nil {
		return nil, err
	}
	return store.Branches().ListByProject(ctx, projectID)
}

// Update renames or re-describes a branch.
func (s *BranchService) Update(ctx context.Context, userID string, id uuid.UUID, name, description *string) (*domain.Branch, error) {
	store, err := s.user(userID)
	if err != nil {
		return nil, err
	}

	b, err := store.Branches().Get(ctx, id)
	if err != nil {
		return nil, err
	}
	if name != nil {
		b.Name = strings.TrimSpace(*name)
	}
	if description != nil {
		b.Description = *description
	}
	if err := b.Validate(); err != nil {
		return nil, err
	}

	err = store.WithinTx(ctx, func(tx repository.Store) error {
		return tx.Branches().Update(ctx, b)
	})
	if err != nil {
		return nil, err
	}
	return store.Branches().Get(ctx, id)
}

// Delete removes a branch, cascading to its tasks and their contexts.
func (s *BranchService) Delete(ctx context.Context, userID string, id uuid.UUID) error {
	store, err := s.user(userID)
	if err != nil {
		return err
	}

	err = store.WithinTx(ctx, func(tx repository.Store) error {
		if err := tx.Contexts().DeleteTree(ctx, domain.LevelBranch, id); err != nil {
			return err
		}
		return tx.Branches().Delete(ctx, id)
	})
	if err != nil {
		return err
	}
	s.emit(ctx, domain.EventBranchDeleted, "branch", id, userID, nil)
	return nil
}

// AssignAgent resolves the identifier ("@name" or UUID) and assigns the
// agent to the branch. Name references register the canonical agent under
// the branch's project namespace; raw UUIDs must already be registered.
func (s *BranchService) AssignAgent(ctx context.Context, userID string, branchID uuid.UUID, identifier string) (*domain.Agent, error) {
	store, err := s.user(userID)
	if err != nil {
		return nil, err
	}

	b, err := store.Branches().Get(ctx, branchID)
	if err != nil {
		return nil, err
	}

	agent, err := s.agents.Resolve(ctx, userID, b.ProjectID, identifier)
	if err != nil {
		return nil, err
	}

	err = store.WithinTx(ctx, func(tx repository.Store) error {
		return tx.Agents().Assign(ctx, branchID, agent.ID)
	})
	if err != nil {
		return nil, err
	}
	s.emit(ctx, domain.EventAgentAssigned, "branch", branchID, userID, map[string]any{"agent_id": agent.ID})
	return agent, nil
}

// UnassignAgent removes an agent assignment from the branch.
func (s *BranchService) UnassignAgent(ctx context.Context, userID string, branchID uuid.UUID, identifier string) error {
	store, err := s.user(userID)
	if err != nil {
		return err
	}

	b, err := store.Branches().Get(ctx, branchID)
	if err != nil {
		return err
	}

	agentID, _, err := domain.ResolveAgentIdentifier(b.ProjectID, identifier)
	if err != nil {
		return err
	}
	return store.WithinTx(ctx, func(tx repository.Store) error {
		return tx.Agents().Unassign(ctx, branchID, agentID)
	})
}

// ListAgents returns the agents assigned to a branch.
func (s *BranchService) ListAgents(ctx context.Context, userID string, branchID uuid.UUID) ([]domain.Agent, error) {
	store, err := s.user(userID)
	if err != nil {
		return nil, err
	}
	if _, err := store.Branches().Get(ctx, branchID); err != nil {
		return nil, err
	}
	return store.Agents().ListByBranch(ctx, branchID)
}
