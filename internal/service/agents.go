package service

import (
	"context"

	"github.com/google/uuid"

	"github.com/agenthub/agenthub-api/internal/domain"
	"github.com/agenthub/agenthub-api/internal/notify"
	"github.com/agenthub/agenthub-api/internal/repository"
)

// agentLibrary describes the well-known agents callable by name. Names are
// canonical kebab-case; per-project ids are derived deterministically.
var agentLibrary = map[string]domain.Agent{
	"coding-agent": {
		Name:        "coding-agent",
		Description: "Implements features, fixes bugs, and refactors code.",
		Capabilities: map[string]any{
			"actions": []string{"implement", "refactor", "debug"},
		},
	},
	"review-agent": {
		Name:        "review-agent",
		Description: "Reviews changes for correctness and style.",
		Capabilities: map[string]any{
			"actions": []string{"review", "approve", "request_changes"},
		},
	},
	"testing-agent": {
		Name:        "testing-agent",
		Description: "Writes and runs test suites.",
		Capabilities: map[string]any{
			"actions": []string{"unit_test", "integration_test"},
		},
	},
	"documentation-agent": {
		Name:        "documentation-agent",
		Description: "Maintains project documentation.",
		Capabilities: map[string]any{
			"actions": []string{"document", "summarize"},
		},
	},
}

// AgentService implements agent registration, resolution, and the
// call_agent descriptor lookup.
type AgentService struct {
	base
}

// NewAgentService wires the service.
func NewAgentService(store repository.Store, sink notify.Sink) *AgentService {
	return &AgentService{base{store: store, sink: sink}}
}

// Call returns the canonical descriptor for a named agent. Unknown names
// still resolve to a minimal descriptor so ad-hoc agents can be addressed.
func (s *AgentService) Call(ctx context.Context, userID, name string) (*domain.Agent, error) {
	if _, err := s.user(userID); err != nil {
		return nil, err
	}
	canonical := domain.NormalizeAgentName(name)
	if canonical == "" {
		return nil, domain.InvalidFormat("agent_name", name)
	}

	agent, ok := agentLibrary[canonical]
	if !ok {
		agent = domain.Agent{
			Name:        canonical,
			Description: "Ad-hoc agent",
		}
	}
	// The library descriptor is user-agnostic; the id is the name's
	// derivation under the global namespace.
	agent.ID = domain.AgentID(domain.GlobalSingleton, canonical)
	return &agent, nil
}

// Register upserts an agent under the project namespace and returns it.
func (s *AgentService) Register(ctx context.Context, userID string, projectID uuid.UUID, name, description string) (*domain.Agent, error) {
	store, err := s.user(userID)
	if err != nil {
		return nil, err
	}
	canonical := domain.NormalizeAgentName(name)
	if canonical == "" {
		return nil, domain.InvalidFormat("agent_name", name)
	}
	if _, err := store.Projects().Get(ctx, projectID); err != nil {
		return nil, err
	}

	a := &domain.Agent{
		ID:          domain.AgentID(projectID, canonical),
		UserID:      userID,
		Name:        canonical,
		Description: description,
	}
	if lib, ok := agentLibrary[canonical]; ok {
		if a.Description == "" {
			a.Description = lib.Description
		}
		a.Capabilities = lib.Capabilities
	}
	err = store.WithinTx(ctx, func(tx repository.Store) error {
		return tx.Agents().Upsert(ctx, a)
	})
	if err != nil {
		return nil, err
	}
	return store.Agents().Get(ctx, a.ID)
}

// Resolve maps an identifier to a registered agent. A kebab-case name is
// the name→UUID mapping materialized: it registers the canonical agent
// under the project namespace on first use. A raw UUID must already be
// registered.
func (s *AgentService) Resolve(ctx context.Context, userID string, projectID uuid.UUID, identifier string) (*domain.Agent, error) {
	store, err := s.user(userID)
	if err != nil {
		return nil, err
	}

	id, name, err := domain.ResolveAgentIdentifier(projectID, identifier)
	if err != nil {
		return nil, err
	}

	agent, err := store.Agents().Get(ctx, id)
	if err == nil {
		return agent, nil
	}
	de, ok := domain.AsError(err)
	if !ok || de.Code != domain.CodeNotFound {
		return nil, err
	}
	if name == "" {
		// Raw UUIDs carry no name to register under.
		return nil, domain.NotFound("agent", identifier)
	}
	return s.Register(ctx, userID, projectID, name, "")
}
