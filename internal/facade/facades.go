package facade

import (
	"context"

	"github.com/google/uuid"

	"github.com/agenthub/agenthub-api/internal/domain"
	"github.com/agenthub/agenthub-api/internal/service"
)

// ProjectFacade is the user-scoped project aggregate.
type ProjectFacade struct {
	userID   string
	svc      *service.ProjectService
	counters *service.CounterService
}

func (f *ProjectFacade) Create(ctx context.Context, name, description string) (*domain.Project, error) {
	return f.svc.Create(ctx, f.userID, name, description)
}

func (f *ProjectFacade) Get(ctx context.Context, id uuid.UUID) (*domain.Project, error) {
	return f.svc.Get(ctx, f.userID, id)
}

func (f *ProjectFacade) List(ctx context.Context) ([]domain.Project, error) {
	return f.svc.List(ctx, f.userID)
}

func (f *ProjectFacade) Update(ctx context.Context, id uuid.UUID, name, description *string) (*domain.Project, error) {
	return f.svc.Update(ctx, f.userID, id, name, description)
}

func (f *ProjectFacade) Delete(ctx context.Context, id uuid.UUID) error {
	return f.svc.Delete(ctx, f.userID, id)
}

func (f *ProjectFacade) HealthCheck(ctx context.Context, id uuid.UUID) (*service.HealthReport, error) {
	return f.svc.HealthCheck(ctx, f.userID, id)
}

func (f *ProjectFacade) ValidateIntegrity(ctx context.Context, id uuid.UUID) (*service.IntegrityReport, error) {
	return f.svc.ValidateIntegrity(ctx, f.userID, id)
}

func (f *ProjectFacade) CleanupObsolete(ctx context.Context) (int64, error) {
	return f.svc.CleanupObsolete(ctx, f.userID)
}

func (f *ProjectFacade) RebalanceAgents(ctx context.Context, id uuid.UUID) (*service.RebalanceResult, error) {
	return f.svc.RebalanceAgents(ctx, f.userID, id)
}

func (f *ProjectFacade) RecomputeCounters(ctx context.Context) (*service.RecomputeReport, error) {
	return f.counters.Recompute(ctx, f.userID)
}

// BranchFacade is the user-scoped branch aggregate.
type BranchFacade struct {
	userID   string
	svc      *service.BranchService
	counters *service.CounterService
}

func (f *BranchFacade) Create(ctx context.Context, projectID uuid.UUID, name, description string) (*domain.Branch, error) {
	return f.svc.Create(ctx, f.userID, projectID, name, description)
}

func (f *BranchFacade) Get(ctx context.Context, id uuid.UUID) (*domain.Branch, error) {
	return f.svc.Get(ctx, f.userID, id)
}

func (f *BranchFacade) List(ctx context.Context, projectID uuid.UUID) ([]domain.Branch, error) {
	return f.svc.List(ctx, f.userID, projectID)
}

func (f *BranchFacade) Update(ctx context.Context, id uuid.UUID, name, description *string) (*domain.Branch, error) {
	return f.svc.Update(ctx, f.userID, id, name, description)
}

func (f *BranchFacade) Delete(ctx context.Context, id uuid.UUID) error {
	return f.svc.Delete(ctx, f.userID, id)
}

func (f *BranchFacade) AssignAgent(ctx context.Context, branchID uuid.UUID, identifier string) (*domain.Agent, error) {
	return f.svc.AssignAgent(ctx, f.userID, branchID, identifier)
}

func (f *BranchFacade) UnassignAgent(ctx context.Context, branchID uuid.UUID, identifier string) error {
	return f.svc.UnassignAgent(ctx, f.userID, branchID, identifier)
}

func (f *BranchFacade) ListAgents(ctx context.Context, branchID uuid.UUID) ([]domain.Agent, error) {
	return f.svc.ListAgents(ctx, f.userID, branchID)
}

func (f *BranchFacade) Recompute(ctx context.Context, branchID uuid.UUID) (*domain.Branch, error) {
	return f.counters.RecomputeBranch(ctx, f.userID, branchID)
}

// TaskFacade is the user-scoped task aggregate.
type TaskFacade struct {
	userID   string
	svc      *service.TaskService
	deps     *service.DependencyService
	subtasks *service.SubtaskService
}

func (f *TaskFacade) Create(ctx context.Context, in service.CreateTaskInput) (*domain.Task, error) {
	return f.svc.Create(ctx, f.userID, in)
}

func (f *TaskFacade) Get(ctx context.Context, id uuid.UUID) (*domain.Task, error) {
	return f.svc.Get(ctx, f.userID, id)
}

func (f *TaskFacade) List(ctx context.Context, branchID *uuid.UUID) ([]domain.Task, error) {
	return f.svc.List(ctx, f.userID, branchID)
}

func (f *TaskFacade) Update(ctx context.Context, id uuid.UUID, in service.UpdateTaskInput) (*domain.Task, error) {
	return f.svc.Update(ctx, f.userID, id, in)
}

func (f *TaskFacade) Complete(ctx context.Context, id uuid.UUID, summary string) (*service.CompletionResult, error) {
	return f.svc.Complete(ctx, f.userID, id, summary)
}

func (f *TaskFacade) Delete(ctx context.Context, id uuid.UUID) error {
	return f.svc.Delete(ctx, f.userID, id)
}

func (f *TaskFacade) AppendProgress(ctx context.Context, id uuid.UUID, note string, percentage int) (*domain.Task, error) {
	return f.svc.AppendProgress(ctx, f.userID, id, note, percentage)
}

func (f *TaskFacade) AddDependency(ctx context.Context, taskID, dependsOn uuid.UUID) error {
	return f.deps.Add(ctx, f.userID, taskID, dependsOn)
}

func (f *TaskFacade) RemoveDependency(ctx context.Context, taskID, dependsOn uuid.UUID) error {
	return f.deps.Remove(ctx, f.userID, taskID, dependsOn)
}

func (f *TaskFacade) ListSubtasks(ctx context.Context, taskID uuid.UUID) ([]domain.Subtask, error) {
	return f.subtasks.List(ctx, f.userID, taskID)
}

// SubtaskFacade is the user-scoped subtask aggregate.
type SubtaskFacade struct {
	userID string
	svc    *service.SubtaskService
}

func (f *SubtaskFacade) Create(ctx context.Context, in service.CreateSubtaskInput) (*domain.Subtask, error) {
	return f.svc.Create(ctx, f.userID, in)
}

func (f *SubtaskFacade) Get(ctx context.Context, id uuid.UUID) (*domain.Subtask, error) {
	return f.svc.Get(ctx, f.userID, id)
}

func (f *SubtaskFacade) List(ctx context.Context, taskID uuid.UUID) ([]domain.Subtask, error) {
	return f.svc.List(ctx, f.userID, taskID)
}

func (f *SubtaskFacade) Update(ctx context.Context, id uuid.UUID, in service.UpdateSubtaskInput) (*domain.Subtask, error) {
	return f.svc.Update(ctx, f.userID, id, in)
}

func (f *SubtaskFacade) Delete(ctx context.Context, id uuid.UUID) error {
	return f.svc.Delete(ctx, f.userID, id)
}

// ContextFacade is the user-scoped context aggregate.
type ContextFacade struct {
	userID string
	svc    *service.ContextService
}

func (f *ContextFacade) Create(ctx context.Context, level domain.ContextLevel, id uuid.UUID, data map[string]any) (*domain.ContextRow, error) {
	return f.svc.Create(ctx, f.userID, level, id, data)
}

func (f *ContextFacade) Get(ctx context.Context, level domain.ContextLevel, id uuid.UUID, includeInherited bool) (*domain.ContextRow, *domain.ResolvedContext, error) {
	return f.svc.Get(ctx, f.userID, level, id, includeInherited)
}

func (f *ContextFacade) Update(ctx context.Context, level domain.ContextLevel, id uuid.UUID, data map[string]any) (*domain.ContextRow, error) {
	return f.svc.Update(ctx, f.userID, level, id, data)
}

func (f *ContextFacade) Delete(ctx context.Context, level domain.ContextLevel, id uuid.UUID) error {
	return f.svc.Delete(ctx, f.userID, level, id)
}

func (f *ContextFacade) Resolve(ctx context.Context, level domain.ContextLevel, id uuid.UUID) (*domain.ResolvedContext, error) {
	return f.svc.Resolve(ctx, f.userID, level, id)
}

func (f *ContextFacade) Delegate(ctx context.Context, sourceLevel domain.ContextLevel, sourceID uuid.UUID, targetLevel domain.ContextLevel, payload map[string]any) (*domain.Delegation, error) {
	return f.svc.Delegate(ctx, f.userID, sourceLevel, sourceID, targetLevel, payload)
}

// DependencyFacade is the user-scoped dependency aggregate.
type DependencyFacade struct {
	userID string
	svc    *service.DependencyService
}

func (f *DependencyFacade) Add(ctx context.Context, taskID, dependsOn uuid.UUID) error {
	return f.svc.Add(ctx, f.userID, taskID, dependsOn)
}

func (f *DependencyFacade) Remove(ctx context.Context, taskID, dependsOn uuid.UUID) error {
	return f.svc.Remove(ctx, f.userID, taskID, dependsOn)
}

func (f *DependencyFacade) Clear(ctx context.Context, taskID uuid.UUID) error {
	return f.svc.Clear(ctx, f.userID, taskID)
}

func (f *DependencyFacade) Get(ctx context.Context, taskID uuid.UUID) (*service.DependencyInfo, error) {
	return f.svc.GetDependencies(ctx, f.userID, taskID)
}

func (f *DependencyFacade) Blocking(ctx context.Context, taskID uuid.UUID) ([]service.TaskSummary, error) {
	return f.svc.GetBlockingTasks(ctx, f.userID, taskID)
}

// AgentFacade is the user-scoped agent aggregate.
type AgentFacade struct {
	userID   string
	svc      *service.AgentService
	branches *service.BranchService
}

func (f *AgentFacade) Call(ctx context.Context, name string) (*domain.Agent, error) {
	return f.svc.Call(ctx, f.userID, name)
}

func (f *AgentFacade) Register(ctx context.Context, projectID uuid.UUID, name, description string) (*domain.Agent, error) {
	return f.svc.Register(ctx, f.userID, projectID, name, description)
}

func (f *AgentFacade) Assign(ctx context.Context, branchID uuid.UUID, identifier string) (*domain.Agent, error) {
	return f.branches.AssignAgent(ctx, f.userID, branchID, identifier)
}

func (f *AgentFacade) Unassign(ctx context.Context, branchID uuid.UUID, identifier string) error {
	return f.branches.UnassignAgent(ctx, f.userID, branchID, identifier)
}

func (f *AgentFacade) ListByBranch(ctx context.Context, branchID uuid.UUID) ([]domain.Agent, error) {
	return f.branches.ListAgents(ctx, f.userID, branchID)
}
