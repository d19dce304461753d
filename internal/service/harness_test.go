package service

import (
	"context"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/require"

	"github.com/agenthub/agenthub-api/internal/domain"
	"github.com/agenthub/agenthub-api/internal/notify"
)

type fixture struct {
	store    *memStore
	projects *ProjectService
	branches *BranchService
	tasks    *TaskService
	subtasks *SubtaskService
	deps     *DependencyService
	contexts *ContextService
	agents   *AgentService
	counters *CounterService
}

func newFixture() *fixture {
	store := newMemStore()
	sink := notify.Discard{}
	agents := NewAgentService(store, sink)
	deps := NewDependencyService(store, sink, 0)
	return &fixture{
		store:    store,
		projects: NewProjectService(store, sink),
		branches: NewBranchService(store, sink, agents),
		tasks:    NewTaskService(store, sink, deps),
		subtasks: NewSubtaskService(store, sink),
		deps:     deps,
		contexts: NewContextService(store, sink, time.Minute, 3),
		agents:   agents,
		counters: NewCounterService(store, sink),
	}
}

func (f *fixture) project(t *testing.T, user, name string) *domain.Project {
	t.Helper()
	p, err := f.projects.Create(context.Background(), user, name, "")
	require.NoError(t, err)
	return p
}

func (f *fixture) branch(t *testing.T, user string, projectID uuid.UUID, name string) *domain.Branch {
	t.Helper()
	b, err := f.branches.Create(context.Background(), user, projectID, name, "")
	require.NoError(t, err)
	return b
}

func (f *fixture) task(t *testing.T, user string, branchID uuid.UUID, title string) *domain.Task {
	t.Helper()
	task, err := f.tasks.Create(context.Background(), user, CreateTaskInput{
		BranchID:  branchID,
		Title:     title,
		Assignees: []string{"coding-agent"},
	})
	require.NoError(t, err)
	return task
}

func discardSink() notify.Discard { return notify.Discard{} }

func codeOf(t *testing.T, err error) domain.ErrorCode {
	t.Helper()
	require.Error(t, err)
	de, ok := domain.AsError(err)
	require.True(t, ok, "expected a domain error, got %T: %v", err, err)
	return de.Code
}
