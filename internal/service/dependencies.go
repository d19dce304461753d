package service

import (
	"context"

	"github.com/google/uuid"

	"github.com/agenthub/agenthub-api/internal/domain"
	"github.com/agenthub/agenthub-api/internal/notify"
	"github.com/agenthub/agenthub-api/internal/repository"
)

// DependencyService maintains the per-user task dependency DAG: edges are
// validated for ownership and acyclicity on write, and read paths annotate
// tasks with blocking state.
type DependencyService struct {
	base
	maxEdges int
}

// NewDependencyService wires the service. maxEdges bounds the per-user
// graph; zero disables the bound.
func NewDependencyService(store repository.Store, sink notify.Sink, maxEdges int) *DependencyService {
	return &DependencyService{base{store: store, sink: sink}, maxEdges}
}

// Add inserts the edge task→dependsOn after validating that both tasks
// exist for this user, the edge is not a self-reference, and the graph
// stays acyclic.
func (s *DependencyService) Add(ctx context.Context, userID string, taskID, dependsOn uuid.UUID) error {
	store, err := s.user(userID)
	if err != nil {
		return err
	}
	if taskID == dependsOn {
		return domain.Conflict("task cannot depend on itself")
	}
	if _, err := store.Tasks().Get(ctx, taskID); err != nil {
		return err
	}
	if _, err := store.Tasks().Get(ctx, dependsOn); err != nil {
		return err
	}

	if s.maxEdges > 0 {
		n, err := store.Dependencies().Count(ctx)
		if err != nil {
			return err
		}
		if n >= s.maxEdges {
			return domain.PreconditionFailed("dependency graph size limit reached (%d edges)", s.maxEdges)
		}
	}

	edges, err := store.Dependencies().ListAll(ctx)
	if err != nil {
		return err
	}
	// The new edge closes a cycle iff taskID is already reachable from
	// dependsOn along existing dependency edges.
	if reachable(edges, dependsOn, taskID) {
		return domain.Conflict("dependency would create a cycle").
			WithDetail("task_id", taskID.String()).
			WithDetail("depends_on", dependsOn.String())
	}

	err = store.WithinTx(ctx, func(tx repository.Store) error {
		return tx.Dependencies().Add(ctx, taskID, dependsOn)
	})
	if err != nil {
		return err
	}
	s.emit(ctx, domain.EventDependencyAdded, "task", taskID, userID, map[string]any{"depends_on": dependsOn})
	return nil
}

// reachable walks dependency edges depth-first from start looking for
// target.
func reachable(edges map[uuid.UUID][]uuid.UUID, start, target uuid.UUID) bool {
	visited := map[uuid.UUID]bool{}
	stack := []uuid.UUID{start}
	for len(stack) > 0 {
		n := stack[len(stack)-1]
		stack = stack[:len(stack)-1]
		if n == target {
			return true
		}
		if visited[n] {
			continue
		}
		visited[n] = true
		stack = append(stack, edges[n]...)
	}
	return false
}

// Remove deletes one edge.
func (s *DependencyService) Remove(ctx context.Context, userID string, taskID, dependsOn uuid.UUID) error {
	store, err := s.user(userID)
	if err != nil {
		return err
	}
	if _, err := store.Tasks().Get(ctx, taskID); err != nil {
		return err
	}
	err = store.WithinTx(ctx, func(tx repository.Store) error {
		return tx.Dependencies().Remove(ctx, taskID, dependsOn)
	})
	if err != nil {
		return err
	}
	s.emit(ctx, domain.EventDependencyRemove, "task", taskID, userID, map[string]any{"depends_on": dependsOn})
	return nil
}

// Clear drops every outgoing dependency of the task.
func (s *DependencyService) Clear(ctx context.Context, userID string, taskID uuid.UUID) error {
	store, err := s.user(userID)
	if err != nil {
		return err
	}
	if _, err := store.Tasks().Get(ctx, taskID); err != nil {
		return err
	}
	return store.WithinTx(ctx, func(tx repository.Store) error {
		return tx.Dependencies().Clear(ctx, taskID)
	})
}

// TaskSummary is the compact shape dependency listings carry.
type TaskSummary struct {
	ID     uuid.UUID     `json:"id"`
	Title  string        `json:"title"`
	Status domain.Status `json:"status"`
}

// DependencyInfo is the get_dependencies result: direct edges plus the
// chain summary the engine computes.
type DependencyInfo struct {
	TaskID        uuid.UUID     `json:"task_id"`
	DependsOn     []TaskSummary `json:"depends_on"`
	Dependents    []TaskSummary `json:"dependents"`
	CanStart      bool          `json:"can_start"`
	IsBlocked     bool          `json:"is_blocked"`
	BlockingTasks []uuid.UUID   `json:"blocking_task_ids"`
}

// GetDependencies returns direct predecessors/successors and blocking
// state for a task.
func (s *DependencyService) GetDependencies(ctx context.Context, userID string, taskID uuid.UUID) (*DependencyInfo, error) {
	store, err := s.user(userID)
	if err != nil {
		return nil, err
	}
	if _, err := store.Tasks().Get(ctx, taskID); err != nil {
		return nil, err
	}

	deps, err := store.Dependencies().ListForTask(ctx, taskID)
	if err != nil {
		return nil, err
	}
	dependents, err := store.Dependencies().ListDependents(ctx, taskID)
	if err != nil {
		return nil, err
	}
	blocking, err := s.blockingSet(ctx, store, taskID)
	if err != nil {
		return nil, err
	}

	info := &DependencyInfo{
		TaskID:        taskID,
		DependsOn:     []TaskSummary{},
		Dependents:    []TaskSummary{},
		CanStart:      len(blocking) == 0,
		IsBlocked:     len(blocking) > 0,
		BlockingTasks: blocking,
	}
	for _, id := range deps {
		sum, err := s.summary(ctx, store, id)
		if err != nil {
			return nil, err
		}
		info.DependsOn = append(info.DependsOn, sum)
	}
	for _, id := range dependents {
		sum, err := s.summary(ctx, store, id)
		if err != nil {
			return nil, err
		}
		info.Dependents = append(info.Dependents, sum)
	}
	return info, nil
}

func (s *DependencyService) summary(ctx context.Context, store repository.Store, id uuid.UUID) (TaskSummary, error) {
	t, err := store.Tasks().Get(ctx, id)
	if err != nil {
		return TaskSummary{}, err
	}
	return TaskSummary{ID: t.ID, Title: t.Title, Status: t.Status}, nil
}

// GetBlockingTasks returns the transitive closure of incomplete
// predecessors of the task.
func (s *DependencyService) GetBlockingTasks(ctx context.Context, userID string, taskID uuid.UUID) ([]TaskSummary, error) {
	store, err := s.user(userID)
	if err != nil {
		return nil, err
	}
	if _, err := store.Tasks().Get(ctx, taskID); err != nil {
		return nil, err
	}
	blocking, err := s.blockingSet(ctx, store, taskID)
	if err != nil {
		return nil, err
	}
	out := []TaskSummary{}
	for _, id := range blocking {
		sum, err := s.summary(ctx, store, id)
		if err != nil {
			return nil, err
		}
		out = append(out, sum)
	}
	return out, nil
}

// blockingSet walks the predecessor closure and keeps tasks not yet in a
// terminal status. A task is startable iff this set is empty.
func (s *DependencyService) blockingSet(ctx context.Context, store repository.Store, taskID uuid.UUID) ([]uuid.UUID, error) {
	edges, err := store.Dependencies().ListAll(ctx)
	if err != nil {
		return nil, err
	}

	statuses := map[uuid.UUID]domain.Status{}
	visited := map[uuid.UUID]bool{}
	blocking := []uuid.UUID{}
	stack := append([]uuid.UUID{}, edges[taskID]...)
	for len(stack) > 0 {
		n := stack[len(stack)-1]
		stack = stack[:len(stack)-1]
		if visited[n] {
			continue
		}
		visited[n] = true

		st, ok := statuses[n]
		if !ok {
			t, err := store.Tasks().Get(ctx, n)
			if err != nil {
				return nil, err
			}
			st = t.Status
			statuses[n] = st
		}
		if !st.Terminal() {
			blocking = append(blocking, n)
		}
		stack = append(stack, edges[n]...)
	}
	return blocking, nil
}

// Annotate fills the dependency-engine fields on a task DTO.
func (s *DependencyService) Annotate(ctx context.Context, userID string, t *domain.Task) error {
	store, err := s.user(userID)
	if err != nil {
		return err
	}
	blocking, err := s.blockingSet(ctx, store, t.ID)
	if err != nil {
		return err
	}
	canStart := len(blocking) == 0
	isBlocked := !canStart
	t.CanStart = &canStart
	t.IsBlocked = &isBlocked
	t.BlockingTasks = blocking
	return nil
}
