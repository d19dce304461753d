package service

// In-memory repository.Store used by the service tests. It mirrors the
// storage semantics the postgres implementation provides: user scoping,
// unique-name conflicts, FK-style cascades, and the branch counter
// trigger.

import (
	"context"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/agenthub/agenthub-api/internal/domain"
	"github.com/agenthub/agenthub-api/internal/repository"
)

type memData struct {
	mu          sync.Mutex
	projects    map[uuid.UUID]domain.Project
	branches    map[uuid.UUID]domain.Branch
	tasks       map[uuid.UUID]domain.Task
	subtasks    map[uuid.UUID]domain.Subtask
	contexts    map[string]domain.ContextRow
	deps        map[uuid.UUID]map[uuid.UUID]bool // task -> depends_on (per all users; rows carry user)
	depOwner    map[uuid.UUID]string
	agents      map[uuid.UUID]domain.Agent
	assignments map[uuid.UUID]map[uuid.UUID]bool // branch -> agent set
	delegations map[uuid.UUID]domain.Delegation
}

func newMemData() *memData {
	return &memData{
		projects:    map[uuid.UUID]domain.Project{},
		branches:    map[uuid.UUID]domain.Branch{},
		tasks:       map[uuid.UUID]domain.Task{},
		subtasks:    map[uuid.UUID]domain.Subtask{},
		contexts:    map[string]domain.ContextRow{},
		deps:        map[uuid.UUID]map[uuid.UUID]bool{},
		depOwner:    map[uuid.UUID]string{},
		agents:      map[uuid.UUID]domain.Agent{},
		assignments: map[uuid.UUID]map[uuid.UUID]bool{},
		delegations: map[uuid.UUID]domain.Delegation{},
	}
}

type memStore struct {
	d      *memData
	userID string
}

func newMemStore() *memStore {
	return &memStore{d: newMemData()}
}

func (s *memStore) WithUser(userID string) repository.Store {
	return &memStore{d: s.d, userID: userID}
}

func (s *memStore) UserID() string { return s.userID }

func (s *memStore) WithinTx(_ context.Context, fn func(repository.Store) error) error {
	return fn(s)
}

func (s *memStore) Projects() repository.ProjectRepo        { return memProjects{s} }
func (s *memStore) Branches() repository.BranchRepo         { return memBranches{s} }
func (s *memStore) Tasks() repository.TaskRepo              { return memTasks{s} }
func (s *memStore) Subtasks() repository.SubtaskRepo        { return memSubtasks{s} }
func (s *memStore) Contexts() repository.ContextRepo        { return memContexts{s} }
func (s *memStore) Dependencies() repository.DependencyRepo { return memDeps{s} }
func (s *memStore) Agents() repository.AgentRepo            { return memAgents{s} }
func (s *memStore) Delegations() repository.DelegationRepo  { return memDelegations{s} }
func (s *memStore) Users() repository.UserRepo              { return memUsers{} }

func ctxKeyFor(userID string, level domain.ContextLevel, id uuid.UUID) string {
	return userID + "|" + string(level) + "|" + id.String()
}

// refreshCounts mimics the branch counter trigger.
func (d *memData) refreshCounts(branchID uuid.UUID) {
	b, ok := d.branches[branchID]
	if !ok {
		return
	}
	total, done := 0, 0
	for _, t := range d.tasks {
		if t.BranchID == branchID {
			total++
			if t.Status == domain.StatusDone {
				done++
			}
		}
	}
	b.TaskCount = total
	b.CompletedTaskCount = done
	d.branches[branchID] = b
}

// cascadeTask removes a task's subtasks and dependency edges.
func (d *memData) cascadeTask(taskID uuid.UUID) {
	for id, st := range d.subtasks {
		if st.TaskID == taskID {
			delete(d.subtasks, id)
		}
	}
	delete(d.deps, taskID)
	for _, set := range d.deps {
		delete(set, taskID)
	}
}

// cascadeBranch removes a branch's tasks and assignments.
func (d *memData) cascadeBranch(branchID uuid.UUID) {
	for id, t := range d.tasks {
		if t.BranchID == branchID {
			d.cascadeTask(id)
			delete(d.tasks, id)
		}
	}
	delete(d.assignments, branchID)
}

// --- projects ---

type memProjects struct{ s *memStore }

func (r memProjects) Create(_ context.Context, p *domain.Project) error {
	r.s.d.mu.Lock()
	defer r.s.d.mu.Unlock()
	for _, existing := range r.s.d.projects {
		if existing.UserID == r.s.userID && existing.Name == p.Name {
			return domain.Conflict("project name already exists: %s", p.Name)
		}
	}
	p.UserID = r.s.userID
	p.CreatedAt = time.Now().UTC()
	p.UpdatedAt = p.CreatedAt
	r.s.d.projects[p.ID] = *p
	return nil
}

func (r memProjects) Get(_ context.Context, id uuid.UUID) (*domain.Project, error) {
	r.s.d.mu.Lock()
	defer r.s.d.mu.Unlock()
	p, ok := r.s.d.projects[id]
	if !ok || p.UserID != r.s.userID {
		return nil, domain.NotFound("project", id)
	}
	out := p
	return &out, nil
}

func (r memProjects) GetByName(_ context.Context, name string) (*domain.Project, error) {
	r.s.d.mu.Lock()
	defer r.s.d.mu.Unlock()
	for _, p := range r.s.d.projects {
		if p.UserID == r.s.userID && p.Name == name {
			out := p
			return &out, nil
		}
	}
	return nil, domain.NotFound("project", name)
}

func (r memProjects) List(_ context.Context) ([]domain.Project, error) {
	r.s.d.mu.Lock()
	defer r.s.d.mu.Unlock()
	out := []domain.Project{}
	for _, p := range r.s.d.projects {
		if p.UserID == r.s.userID {
			out = append(out, p)
		}
	}
	return out, nil
}

func (r memProjects) Update(_ context.Context, p *domain.Project) error {
	r.s.d.mu.Lock()
	defer r.s.d.mu.Unlock()
	existing, ok := r.s.d.projects[p.ID]
	if !ok || existing.UserID != r.s.userID {
		return domain.NotFound("project", p.ID)
	}
	for id, other := range r.s.d.projects {
		if id != p.ID && other.UserID == r.s.userID && other.Name == p.Name {
			return domain.Conflict("project name already exists: %s", p.Name)
		}
	}
	p.UserID = r.s.userID
	p.CreatedAt = existing.CreatedAt
	p.UpdatedAt = time.Now().UTC()
	r.s.d.projects[p.ID] = *p
	return nil
}

func (r memProjects) Delete(_ context.Context, id uuid.UUID) error {
	r.s.d.mu.Lock()
	defer r.s.d.mu.Unlock()
	p, ok := r.s.d.projects[id]
	if !ok || p.UserID != r.s.userID {
		return domain.NotFound("project", id)
	}
	for bid, b := range r.s.d.branches {
		if b.ProjectID == id {
			r.s.d.cascadeBranch(bid)
			delete(r.s.d.branches, bid)
		}
	}
	delete(r.s.d.projects, id)
	return nil
}

// --- branches ---

type memBranches struct{ s *memStore }

func (r memBranches) Create(_ context.Context, b *domain.Branch) error {
	r.s.d.mu.Lock()
	defer r.s.d.mu.Unlock()
	for _, existing := range r.s.d.branches {
		if existing.ProjectID == b.ProjectID && existing.Name == b.Name {
			return domain.Conflict("branch name already exists in project: %s", b.Name)
		}
	}
	b.UserID = r.s.userID
	b.CreatedAt = time.Now().UTC()
	b.UpdatedAt = b.CreatedAt
	r.s.d.branches[b.ID] = *b
	return nil
}

func (r memBranches) Get(_ context.Context, id uuid.UUID) (*domain.Branch, error) {
	r.s.d.mu.Lock()
	defer r.s.d.mu.Unlock()
	b, ok := r.s.d.branches[id]
	if !ok || b.UserID != r.s.userID {
		return nil, domain.NotFound("branch", id)
	}
	out := b
	return &out, nil
}

func (r memBranches) GetByName(_ context.Context, projectID uuid.UUID, name string) (*domain.Branch, error) {
	r.s.d.mu.Lock()
	defer r.s.d.mu.Unlock()
	for _, b := range r.s.d.branches {
		if b.UserID == r.s.userID && b.ProjectID == projectID && b.Name == name {
			out := b
			return &out, nil
		}
	}
	return nil, domain.NotFound("branch", name)
}

func (r memBranches) ListByProject(_ context.Context, projectID uuid.UUID) ([]domain.Branch, error) {
	r.s.d.mu.Lock()
	defer r.s.d.mu.Unlock()
	out := []domain.Branch{}
	for _, b := range r.s.d.branches {
		if b.UserID == r.s.userID && b.ProjectID == projectID {
			out = append(out, b)
		}
	}
	return out, nil
}

func (r memBranches) List(_ context.Context) ([]domain.Branch, error) {
	r.s.d.mu.Lock()
	defer r.s.d.mu.Unlock()
	out := []domain.Branch{}
	for _, b := range r.s.d.branches {
		if b.UserID == r.s.userID {
			out = append(out, b)
		}
	}
	return out, nil
}

func (r memBranches) Update(_ context.Context, b *domain.Branch) error {
	r.s.d.mu.Lock()
	defer r.s.d.mu.Unlock()
	existing, ok := r.s.d.branches[b.ID]
	if !ok || existing.UserID != r.s.userID {
		return domain.NotFound("branch", b.ID)
	}
	b.UserID = r.s.userID
	b.TaskCount = existing.TaskCount
	b.CompletedTaskCount = existing.CompletedTaskCount
	b.UpdatedAt = time.Now().UTC()
	r.s.d.branches[b.ID] = *b
	return nil
}

func (r memBranches) Delete(_ context.Context, id uuid.UUID) error {
	r.s.d.mu.Lock()
	defer r.s.d.mu.Unlock()
	b, ok := r.s.d.branches[id]
	if !ok || b.UserID != r.s.userID {
		return domain.NotFound("branch", id)
	}
	r.s.d.cascadeBranch(id)
	delete(r.s.d.branches, id)
	return nil
}

func (r memBranches) CountTasks(_ context.Context, branchID uuid.UUID) (int, int, error) {
	r.s.d.mu.Lock()
	defer r.s.d.mu.Unlock()
	total, done := 0, 0
	for _, t := range r.s.d.tasks {
		if t.UserID == r.s.userID && t.BranchID == branchID {
			total++
			if t.Status == domain.StatusDone {
				done++
			}
		}
	}
	return total, done, nil
}

func (r memBranches) SetCounts(_ context.Context, branchID uuid.UUID, total, done int) error {
	r.s.d.mu.Lock()
	defer r.s.d.mu.Unlock()
	b, ok := r.s.d.branches[branchID]
	if !ok || b.UserID != r.s.userID {
		return domain.NotFound("branch", branchID)
	}
	b.TaskCount = total
	b.CompletedTaskCount = done
	r.s.d.branches[branchID] = b
	return nil
}

// --- tasks ---

type memTasks struct{ s *memStore }

func (r memTasks) Create(_ context.Context, t *domain.Task) error {
	r.s.d.mu.Lock()
	defer r.s.d.mu.Unlock()
	t.UserID = r.s.userID
	t.CreatedAt = time.Now().UTC()
	t.UpdatedAt = t.CreatedAt
	r.s.d.tasks[t.ID] = *t
	r.s.d.refreshCounts(t.BranchID)
	return nil
}

func (r memTasks) Get(_ context.Context, id uuid.UUID) (*domain.Task, error) {
	r.s.d.mu.Lock()
	defer r.s.d.mu.Unlock()
	t, ok := r.s.d.tasks[id]
	if !ok || t.UserID != r.s.userID {
		return nil, domain.NotFound("task", id)
	}
	out := t
	out.ProgressHistory = append([]domain.ProgressEntry{}, t.ProgressHistory...)
	return &out, nil
}

func (r memTasks) GetTasksByBranch(_ context.Context, branchID uuid.UUID) ([]domain.Task, error) {
	r.s.d.mu.Lock()
	defer r.s.d.mu.Unlock()
	out := []domain.Task{}
	for _, t := range r.s.d.tasks {
		if t.UserID == r.s.userID && t.BranchID == branchID {
			out = append(out, t)
		}
	}
	return out, nil
}

func (r memTasks) List(_ context.Context) ([]domain.Task, error) {
	r.s.d.mu.Lock()
	defer r.s.d.mu.Unlock()
	out := []domain.Task{}
	for _, t := range r.s.d.tasks {
		if t.UserID == r.s.userID {
			out = append(out, t)
		}
	}
	return out, nil
}

func (r memTasks) Update(_ context.Context, t *domain.Task) error {
	r.s.d.mu.Lock()
	defer r.s.d.mu.Unlock()
	existing, ok := r.s.d.tasks[t.ID]
	if !ok || existing.UserID != r.s.userID {
		return domain.NotFound("task", t.ID)
	}
	t.UserID = r.s.userID
	t.CreatedAt = existing.CreatedAt
	t.UpdatedAt = time.Now().UTC()
	r.s.d.tasks[t.ID] = *t
	r.s.d.refreshCounts(t.BranchID)
	if existing.BranchID != t.BranchID {
		r.s.d.refreshCounts(existing.BranchID)
	}
	return nil
}

func (r memTasks) Delete(_ context.Context, id uuid.UUID) error {
	r.s.d.mu.Lock()
	defer r.s.d.mu.Unlock()
	t, ok := r.s.d.tasks[id]
	if !ok || t.UserID != r.s.userID {
		return domain.NotFound("task", id)
	}
	r.s.d.cascadeTask(id)
	delete(r.s.d.tasks, id)
	r.s.d.refreshCounts(t.BranchID)
	return nil
}

// --- subtasks ---

type memSubtasks struct{ s *memStore }

func (r memSubtasks) Create(_ context.Context, st *domain.Subtask) error {
	r.s.d.mu.Lock()
	defer r.s.d.mu.Unlock()
	st.UserID = r.s.userID
	st.CreatedAt = time.Now().UTC()
	st.UpdatedAt = st.CreatedAt
	r.s.d.subtasks[st.ID] = *st
	return nil
}

func (r memSubtasks) Get(_ context.Context, id uuid.UUID) (*domain.Subtask, error) {
	r.s.d.mu.Lock()
	defer r.s.d.mu.Unlock()
	st, ok := r.s.d.subtasks[id]
	if !ok || st.UserID != r.s.userID {
		return nil, domain.NotFound("subtask", id)
	}
	out := st
	return &out, nil
}

func (r memSubtasks) ListByTask(_ context.Context, taskID uuid.UUID) ([]domain.Subtask, error) {
	r.s.d.mu.Lock()
	defer r.s.d.mu.Unlock()
	out := []domain.Subtask{}
	for _, st := range r.s.d.subtasks {
		if st.UserID == r.s.userID && st.TaskID == taskID {
			out = append(out, st)
		}
	}
	return out, nil
}

func (r memSubtasks) Update(_ context.Context, st *domain.Subtask) error {
	r.s.d.mu.Lock()
	defer r.s.d.mu.Unlock()
	existing, ok := r.s.d.subtasks[st.ID]
	if !ok || existing.UserID != r.s.userID {
		return domain.NotFound("subtask", st.ID)
	}
	st.UserID = r.s.userID
	st.CreatedAt = existing.CreatedAt
	st.UpdatedAt = time.Now().UTC()
	r.s.d.subtasks[st.ID] = *st
	return nil
}

func (r memSubtasks) Delete(_ context.Context, id uuid.UUID) error {
	r.s.d.mu.Lock()
	defer r.s.d.mu.Unlock()
	st, ok := r.s.d.subtasks[id]
	if !ok || st.UserID != r.s.userID {
		return domain.NotFound("subtask", id)
	}
	delete(r.s.d.subtasks, id)
	return nil
}

func (r memSubtasks) CountOpen(_ context.Context, taskID uuid.UUID) (int, error) {
	r.s.d.mu.Lock()
	defer r.s.d.mu.Unlock()
	n := 0
	for _, st := range r.s.d.subtasks {
		if st.UserID == r.s.userID && st.TaskID == taskID && !st.Status.Terminal() {
			n++
		}
	}
	return n, nil
}

// --- contexts ---

type memContexts struct{ s *memStore }

func (r memContexts) Upsert(_ context.Context, row *domain.ContextRow) error {
	r.s.d.mu.Lock()
	defer r.s.d.mu.Unlock()
	if row.Data == nil {
		row.Data = map[string]any{}
	}
	key := ctxKeyFor(r.s.userID, row.Level, row.ID)
	existing, ok := r.s.d.contexts[key]
	row.UserID = r.s.userID
	if ok {
		row.CreatedAt = existing.CreatedAt
	} else {
		row.CreatedAt = time.Now().UTC()
	}
	row.UpdatedAt = time.Now().UTC()
	r.s.d.contexts[key] = *row
	return nil
}

func (r memContexts) Get(_ context.Context, level domain.ContextLevel, id uuid.UUID) (*domain.ContextRow, error) {
	r.s.d.mu.Lock()
	defer r.s.d.mu.Unlock()
	row, ok := r.s.d.contexts[ctxKeyFor(r.s.userID, level, id)]
	if !ok {
		return nil, domain.NotFound("context", id)
	}
	out := row
	out.Data = domain.MergeData(row.Data, nil)
	return &out, nil
}

func (r memContexts) Delete(_ context.Context, level domain.ContextLevel, id uuid.UUID) error {
	r.s.d.mu.Lock()
	defer r.s.d.mu.Unlock()
	key := ctxKeyFor(r.s.userID, level, id)
	if _, ok := r.s.d.contexts[key]; !ok {
		return domain.NotFound("context", id)
	}
	delete(r.s.d.contexts, key)
	return nil
}

func (r memContexts) Children(_ context.Context, _ domain.ContextLevel, id uuid.UUID) ([]domain.ContextRow, error) {
	r.s.d.mu.Lock()
	defer r.s.d.mu.Unlock()
	out := []domain.ContextRow{}
	for _, row := range r.s.d.contexts {
		if row.UserID == r.s.userID && row.ParentID != nil && *row.ParentID == id {
			out = append(out, row)
		}
	}
	return out, nil
}

func (r memContexts) DeleteTree(ctx context.Context, level domain.ContextLevel, id uuid.UUID) error {
	children, err := r.Children(ctx, level, id)
	if err != nil {
		return err
	}
	for _, child := range children {
		if err := r.DeleteTree(ctx, child.Level, child.ID); err != nil {
			return err
		}
	}
	r.s.d.mu.Lock()
	delete(r.s.d.contexts, ctxKeyFor(r.s.userID, level, id))
	r.s.d.mu.Unlock()
	return nil
}

func (r memContexts) AncestorChain(_ context.Context, level domain.ContextLevel, id uuid.UUID) ([]repository.ContextRef, error) {
	r.s.d.mu.Lock()
	defer r.s.d.mu.Unlock()

	chain := []repository.ContextRef{{Level: domain.LevelGlobal, ID: domain.GlobalSingleton}}
	switch level {
	case domain.LevelGlobal:
		return chain, nil
	case domain.LevelProject:
		p, ok := r.s.d.projects[id]
		if !ok || p.UserID != r.s.userID {
			return nil, domain.NotFound("project", id)
		}
		return append(chain, repository.ContextRef{Level: domain.LevelProject, ID: id}), nil
	case domain.LevelBranch:
		b, ok := r.s.d.branches[id]
		if !ok || b.UserID != r.s.userID {
			return nil, domain.NotFound("branch", id)
		}
		return append(chain,
			repository.ContextRef{Level: domain.LevelProject, ID: b.ProjectID},
			repository.ContextRef{Level: domain.LevelBranch, ID: id}), nil
	default:
		t, ok := r.s.d.tasks[id]
		if !ok || t.UserID != r.s.userID {
			return nil, domain.NotFound("task", id)
		}
		b := r.s.d.branches[t.BranchID]
		return append(chain,
			repository.ContextRef{Level: domain.LevelProject, ID: b.ProjectID},
			repository.ContextRef{Level: domain.LevelBranch, ID: t.BranchID},
			repository.ContextRef{Level: domain.LevelTask, ID: id}), nil
	}
}

func (r memContexts) FindAncestors(ctx context.Context, level domain.ContextLevel, id uuid.UUID) ([]domain.ContextRow, error) {
	chain, err := r.AncestorChain(ctx, level, id)
	if err != nil {
		return nil, err
	}
	out := []domain.ContextRow{}
	for _, ref := range chain {
		if ref.Level == level && ref.ID == id {
			continue
		}
		row, err := r.Get(ctx, ref.Level, ref.ID)
		if err != nil {
			continue
		}
		out = append(out, *row)
	}
	return out, nil
}

// --- dependencies ---

type memDeps struct{ s *memStore }

func (r memDeps) Add(_ context.Context, taskID, dependsOn uuid.UUID) error {
	r.s.d.mu.Lock()
	defer r.s.d.mu.Unlock()
	if r.s.d.deps[taskID] == nil {
		r.s.d.deps[taskID] = map[uuid.UUID]bool{}
	}
	r.s.d.deps[taskID][dependsOn] = true
	r.s.d.depOwner[taskID] = r.s.userID
	return nil
}

func (r memDeps) Remove(_ context.Context, taskID, dependsOn uuid.UUID) error {
	r.s.d.mu.Lock()
	defer r.s.d.mu.Unlock()
	if !r.s.d.deps[taskID][dependsOn] {
		return domain.NotFound("dependency", dependsOn)
	}
	delete(r.s.d.deps[taskID], dependsOn)
	return nil
}

func (r memDeps) Clear(_ context.Context, taskID uuid.UUID) error {
	r.s.d.mu.Lock()
	defer r.s.d.mu.Unlock()
	delete(r.s.d.deps, taskID)
	return nil
}

func (r memDeps) ListForTask(_ context.Context, taskID uuid.UUID) ([]uuid.UUID, error) {
	r.s.d.mu.Lock()
	defer r.s.d.mu.Unlock()
	out := []uuid.UUID{}
	for dep := range r.s.d.deps[taskID] {
		out = append(out, dep)
	}
	return out, nil
}

func (r memDeps) ListDependents(_ context.Context, taskID uuid.UUID) ([]uuid.UUID, error) {
	r.s.d.mu.Lock()
	defer r.s.d.mu.Unlock()
	out := []uuid.UUID{}
	for task, set := range r.s.d.deps {
		if set[taskID] {
			out = append(out, task)
		}
	}
	return out, nil
}

func (r memDeps) ListAll(_ context.Context) (map[uuid.UUID][]uuid.UUID, error) {
	r.s.d.mu.Lock()
	defer r.s.d.mu.Unlock()
	out := map[uuid.UUID][]uuid.UUID{}
	for task, set := range r.s.d.deps {
		if t, ok := r.s.d.tasks[task]; !ok || t.UserID != r.s.userID {
			continue
		}
		for dep := range set {
			out[task] = append(out[task], dep)
		}
	}
	return out, nil
}

func (r memDeps) Count(_ context.Context) (int, error) {
	r.s.d.mu.Lock()
	defer r.s.d.mu.Unlock()
	n := 0
	for task, set := range r.s.d.deps {
		if t, ok := r.s.d.tasks[task]; ok && t.UserID == r.s.userID {
			n += len(set)
		}
	}
	return n, nil
}

// --- agents ---

type memAgents struct{ s *memStore }

func (r memAgents) Upsert(_ context.Context, a *domain.Agent) error {
	r.s.d.mu.Lock()
	defer r.s.d.mu.Unlock()
	a.UserID = r.s.userID
	if existing, ok := r.s.d.agents[a.ID]; ok {
		a.CreatedAt = existing.CreatedAt
	} else {
		a.CreatedAt = time.Now().UTC()
	}
	a.UpdatedAt = time.Now().UTC()
	r.s.d.agents[a.ID] = *a
	return nil
}

func (r memAgents) Get(_ context.Context, id uuid.UUID) (*domain.Agent, error) {
	r.s.d.mu.Lock()
	defer r.s.d.mu.Unlock()
	a, ok := r.s.d.agents[id]
	if !ok || a.UserID != r.s.userID {
		return nil, domain.NotFound("agent", id)
	}
	out := a
	return &out, nil
}

func (r memAgents) List(_ context.Context) ([]domain.Agent, error) {
	r.s.d.mu.Lock()
	defer r.s.d.mu.Unlock()
	out := []domain.Agent{}
	for _, a := range r.s.d.agents {
		if a.UserID == r.s.userID {
			out = append(out, a)
		}
	}
	return out, nil
}

func (r memAgents) Assign(_ context.Context, branchID, agentID uuid.UUID) error {
	r.s.d.mu.Lock()
	defer r.s.d.mu.Unlock()
	if r.s.d.assignments[branchID] == nil {
		r.s.d.assignments[branchID] = map[uuid.UUID]bool{}
	}
	r.s.d.assignments[branchID][agentID] = true
	return nil
}

func (r memAgents) Unassign(_ context.Context, branchID, agentID uuid.UUID) error {
	r.s.d.mu.Lock()
	defer r.s.d.mu.Unlock()
	if !r.s.d.assignments[branchID][agentID] {
		return domain.NotFound("agent assignment", agentID)
	}
	delete(r.s.d.assignments[branchID], agentID)
	return nil
}

func (r memAgents) ListByBranch(_ context.Context, branchID uuid.UUID) ([]domain.Agent, error) {
	r.s.d.mu.Lock()
	defer r.s.d.mu.Unlock()
	out := []domain.Agent{}
	for agentID := range r.s.d.assignments[branchID] {
		if a, ok := r.s.d.agents[agentID]; ok && a.UserID == r.s.userID {
			out = append(out, a)
		}
	}
	return out, nil
}

func (r memAgents) CountAssignments(_ context.Context) (map[uuid.UUID]int, error) {
	r.s.d.mu.Lock()
	defer r.s.d.mu.Unlock()
	out := map[uuid.UUID]int{}
	for branchID, set := range r.s.d.assignments {
		if b, ok := r.s.d.branches[branchID]; ok && b.UserID == r.s.userID {
			out[branchID] = len(set)
		}
	}
	return out, nil
}

// --- delegations ---

type memDelegations struct{ s *memStore }

func (r memDelegations) Enqueue(_ context.Context, d *domain.Delegation) error {
	r.s.d.mu.Lock()
	defer r.s.d.mu.Unlock()
	d.UserID = r.s.userID
	d.Status = domain.DelegationPending
	d.CreatedAt = time.Now().UTC()
	r.s.d.delegations[d.ID] = *d
	return nil
}

func (r memDelegations) NextPending(_ context.Context) (*domain.Delegation, error) {
	r.s.d.mu.Lock()
	defer r.s.d.mu.Unlock()
	var oldest *domain.Delegation
	for id := range r.s.d.delegations {
		d := r.s.d.delegations[id]
		if d.UserID != r.s.userID || d.Status != domain.DelegationPending {
			continue
		}
		if oldest == nil || d.CreatedAt.Before(oldest.CreatedAt) {
			copy := d
			oldest = &copy
		}
	}
	return oldest, nil
}

func (r memDelegations) MarkProcessed(_ context.Context, id uuid.UUID) error {
	r.s.d.mu.Lock()
	defer r.s.d.mu.Unlock()
	d, ok := r.s.d.delegations[id]
	if !ok {
		return domain.NotFound("delegation", id)
	}
	now := time.Now().UTC()
	d.Status = domain.DelegationProcessed
	d.ProcessedAt = &now
	r.s.d.delegations[id] = d
	return nil
}

func (r memDelegations) MarkFailed(_ context.Context, id uuid.UUID, attempts int, lastError string, terminal bool) error {
	r.s.d.mu.Lock()
	defer r.s.d.mu.Unlock()
	d, ok := r.s.d.delegations[id]
	if !ok {
		return domain.NotFound("delegation", id)
	}
	d.Attempts = attempts
	d.LastError = lastError
	if terminal {
		d.Status = domain.DelegationFailed
	}
	r.s.d.delegations[id] = d
	return nil
}

func (r memDelegations) PendingUsers(_ context.Context) ([]string, error) {
	r.s.d.mu.Lock()
	defer r.s.d.mu.Unlock()
	seen := map[string]bool{}
	out := []string{}
	for _, d := range r.s.d.delegations {
		if d.Status == domain.DelegationPending && !seen[d.UserID] {
			seen[d.UserID] = true
			out = append(out, d.UserID)
		}
	}
	return out, nil
}

func (r memDelegations) DeleteProcessed(_ context.Context) (int64, error) {
	r.s.d.mu.Lock()
	defer r.s.d.mu.Unlock()
	var n int64
	for id, d := range r.s.d.delegations {
		if d.UserID == r.s.userID && d.Status == domain.DelegationProcessed {
			delete(r.s.d.delegations, id)
			n++
		}
	}
	return n, nil
}

// --- users ---

type memUsers struct{}

func (memUsers) Upsert(context.Context, string, string, []string) error { return nil }
