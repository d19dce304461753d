package service

import (
	"context"
	"fmt"
	"strings"

	"github.com/google/uuid"
	"github.com/rs/zerolog/log"

	"github.com/agenthub/agenthub-api/internal/domain"
	"github.com/agenthub/agenthub-api/internal/notify"
	"github.com/agenthub/agenthub-api/internal/repository"
)

// ProjectService implements the project use cases.
type ProjectService struct {
	base
}

// NewProjectService wires the service.
func NewProjectService(store repository.Store, sink notify.Sink) *ProjectService {
	return &ProjectService{base{store: store, sink: sink}}
}

// Create adds a project. Names are unique per user.
func (s *ProjectService) Create(ctx context.Context, userID, name, description string) (*domain.Project, error) {
	store, err := s.user(userID)
	if err != nil {
		return nil, err
	}

	p := &domain.Project{
		ID:          uuid.New(),
		UserID:      userID,
		Name:        strings.TrimSpace(name),
		Description: description,
	}
	if err := p.Validate(); err != nil {
		return nil, err
	}

	err = store.WithinTx(ctx, func(tx repository.Store) error {
		return tx.Projects().Create(ctx, p)
	})
	if err != nil {
		return nil, err
	}

	created, err := store.Projects().Get(ctx, p.ID)
	if err != nil {
		return nil, err
	}
	s.emit(ctx, domain.EventProjectCreated, "project", p.ID, userID, nil)
	return created, nil
}

// Get returns one owned project.
func (s *ProjectService) Get(ctx context.Context, userID string, id uuid.UUID) (*domain.Project, error) {
	store, err := s.user(userID)
	if err != nil {
		return nil, err
	}
	return store.Projects().Get(ctx, id)
}

// List returns the user's projects.
func (s *ProjectService) List(ctx context.Context, userID string) ([]domain.Project, error) {
	store, err := s.user(userID)
	if err != nil {
		return nil, err
	}
	return store.Projects().List(ctx)
}

// Update renames or re-describes a project.
func (s *ProjectService) Update(ctx context.Context, userID string, id uuid.UUID, name, description *string) (*domain.Project, error) {
	store, err := s.user(userID)
	if err != nil {
		return nil, err
	}

	p, err := store.Projects().Get(ctx, id)
	if err != nil {
		return nil, err
	}
	if name != nil {
		p.Name = strings.TrimSpace(*name)
	}
	if description != nil {
		p.Description = *description
	}
	if err := p.Validate(); err != nil {
		return nil, err
	}

	err = store.WithinTx(ctx, func(tx repository.Store) error {
		return tx.Projects().Update(ctx, p)
	})
	if err != nil {
		return nil, err
	}
	return store.Projects().Get(ctx, id)
}

// Delete removes a project and cascades to branches, tasks, subtasks,
// dependency edges, agent assignments, and every context row under it.
func (s *ProjectService) Delete(ctx context.Context, userID string, id uuid.UUID) error {
	store, err := s.user(userID)
	if err != nil {
		return err
	}

	err = store.WithinTx(ctx, func(tx repository.Store) error {
		// The context tree is not foreign-keyed to the entity tables, so it
		// is cascaded here, inside the same transaction.
		if err := tx.Contexts().DeleteTree(ctx, domain.LevelProject, id); err != nil {
			return err
		}
		return tx.Projects().Delete(ctx, id)
	})
	if err != nil {
		return err
	}
	s.emit(ctx, domain.EventProjectDeleted, "project", id, userID, nil)
	return nil
}

// HealthReport is the project_health_check result.
type HealthReport struct {
	ProjectID     uuid.UUID        `json:"project_id"`
	BranchCount   int              `json:"branch_count"`
	TaskCount     int              `json:"task_count"`
	CounterDrift  []CounterDrift   `json:"counter_drift,omitempty"`
	EmptyBranches []uuid.UUID      `json:"empty_branches,omitempty"`
	Healthy       bool             `json:"healthy"`
	Issues        []string         `json:"issues,omitempty"`
}

// CounterDrift records one branch whose denormalized counters disagree
// with the task table.
type CounterDrift struct {
	BranchID      uuid.UUID `json:"branch_id"`
	StoredTotal   int       `json:"stored_task_count"`
	ActualTotal   int       `json:"actual_task_count"`
	StoredDone    int       `json:"stored_completed_count"`
	ActualDone    int       `json:"actual_completed_count"`
}

// HealthCheck inspects one project for counter drift and structural issues.
func (s *ProjectService) HealthCheck(ctx context.Context, userID string, id uuid.UUID) (*HealthReport, error) {
	store, err := s.user(userID)
	if err != nil {
		return nil, err
	}
	if _, err := store.Projects().Get(ctx, id); err != nil {
		return nil, err
	}

	branches, err := store.Branches().ListByProject(ctx, id)
	if err != nil {
		return nil, err
	}

	report := &HealthReport{ProjectID: id, BranchCount: len(branches), Healthy: true}
	for _, b := range branches {
		total, done, err := store.Branches().CountTasks(ctx, b.ID)
		if err != nil {
			return nil, err
		}
		report.TaskCount += total
		if total == 0 {
			report.EmptyBranches = append(report.EmptyBranches, b.ID)
		}
		if total != b.TaskCount || done != b.CompletedTaskCount {
			report.Healthy = false
			report.CounterDrift = append(report.CounterDrift, CounterDrift{
				BranchID:    b.ID,
				StoredTotal: b.TaskCount, ActualTotal: total,
				StoredDone: b.CompletedTaskCount, ActualDone: done,
			})
			report.Issues = append(report.Issues,
				fmt.Sprintf("branch %s counters drifted (stored %d/%d, actual %d/%d)",
					b.ID, b.TaskCount, b.CompletedTaskCount, total, done))
		}
	}
	return report, nil
}

// IntegrityReport is the validate_integrity result.
type IntegrityReport struct {
	ProjectID          uuid.UUID `json:"project_id"`
	TasksChecked       int       `json:"tasks_checked"`
	TasksWithoutOwners []uuid.UUID `json:"tasks_without_assignees,omitempty"`
	Valid              bool      `json:"valid"`
	Issues             []string  `json:"issues,omitempty"`
}

// ValidateIntegrity verifies domain invariants across one project's tasks.
func (s *ProjectService) ValidateIntegrity(ctx context.Context, userID string, id uuid.UUID) (*IntegrityReport, error) {
	store, err := s.user(userID)
	if err != nil {
		return nil, err
	}
	if _, err := store.Projects().Get(ctx, id); err != nil {
		return nil, err
	}

	branches, err := store.Branches().ListByProject(ctx, id)
	if err != nil {
		return nil, err
	}

	report := &IntegrityReport{ProjectID: id, Valid: true}
	for _, b := range branches {
		tasks, err := store.Tasks().GetTasksByBranch(ctx, b.ID)
		if err != nil {
			return nil, err
		}
		for _, t := range tasks {
			report.TasksChecked++
			if len(t.Assignees) == 0 {
				report.Valid = false
				report.TasksWithoutOwners = append(report.TasksWithoutOwners, t.ID)
				report.Issues = append(report.Issues, fmt.Sprintf("task %s has no assignees", t.ID))
			}
			if t.ProgressPercentage < 0 || t.ProgressPercentage > 100 {
				report.Valid = false
				report.Issues = append(report.Issues,
					fmt.Sprintf("task %s progress out of range: %d", t.ID, t.ProgressPercentage))
			}
		}
	}
	return report, nil
}

// CleanupObsolete clears processed delegation rows for the user.
func (s *ProjectService) CleanupObsolete(ctx context.Context, userID string) (int64, error) {
	store, err := s.user(userID)
	if err != nil {
		return 0, err
	}
	removed, err := store.Delegations().DeleteProcessed(ctx)
	if err != nil {
		return 0, err
	}
	log.Ctx(ctx).Info().Int64("removed", removed).Msg("cleared processed delegations")
	return removed, nil
}

// RebalanceResult describes assignments made by RebalanceAgents.
type RebalanceResult struct {
	ProjectID   uuid.UUID   `json:"project_id"`
	Assigned    []uuid.UUID `json:"branches_assigned,omitempty"`
	Unchanged   int         `json:"branches_unchanged"`
	AgentsInUse int         `json:"agents_in_use"`
}

// RebalanceAgents assigns registered agents round-robin, in list order, to
// every branch of the project that has none. How many branches an agent
// already serves is not taken into account.
func (s *ProjectService) RebalanceAgents(ctx context.Context, userID string, id uuid.UUID) (*RebalanceResult, error) {
	store, err := s.user(userID)
	if err != nil {
		return nil, err
	}
	if _, err := store.Projects().Get(ctx, id); err != nil {
		return nil, err
	}

	branches, err := store.Branches().ListByProject(ctx, id)
	if err != nil {
		return nil, err
	}
	agents, err := store.Agents().List(ctx)
	if err != nil {
		return nil, err
	}
	result := &RebalanceResult{ProjectID: id, AgentsInUse: len(agents)}
	if len(agents) == 0 {
		result.Unchanged = len(branches)
		return result, nil
	}

	assigned, err := store.Agents().CountAssignments(ctx)
	if err != nil {
		return nil, err
	}

	next := 0
	err = store.WithinTx(ctx, func(tx repository.Store) error {
		for _, b := range branches {
			if assigned[b.ID] > 0 {
				result.Unchanged++
				continue
			}
			// Round-robin over the fleet so uncovered branches spread evenly.
			agent := agents[next%len(agents)]
			next++
			if err := tx.Agents().Assign(ctx, b.ID, agent.ID); err != nil {
				return err
			}
			result.Assigned = append(result.Assigned, b.ID)
		}
		return nil
	})
	if err != nil {
		return nil, err
	}
	if len(result.Assigned) > 0 {
		s.emit(ctx, domain.EventAgentAssigned, "project", id, userID, map[string]any{
			"branches_assigned": len(result.Assigned),
		})
	}
	return result, nil
}
