package service

import (
	"context"
	"testing"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/agenthub/agenthub-api/internal/domain"
)

const user1 = "user-1"
const user2 = "user-2"

func TestCreateTaskRequiresAssignee(t *testing.T) {
	f := newFixture()
	p := f.project(t, user1, "P1")
	b := f.branch(t, user1, p.ID, "main")

	_, err := f.tasks.Create(context.Background(), user1, CreateTaskInput{
		BranchID: b.ID,
		Title:    "T1",
	})
	assert.Equal(t, domain.CodeValidation, codeOf(t, err))
}

func TestCreateTaskRejectsUnknownDependency(t *testing.T) {
	f := newFixture()
	p := f.project(t, user1, "P1")
	b := f.branch(t, user1, p.ID, "main")

	_, err := f.tasks.Create(context.Background(), user1, CreateTaskInput{
		BranchID:     b.ID,
		Title:        "T1",
		Assignees:    []string{"coding-agent"},
		Dependencies: []uuid.UUID{uuid.New()},
	})
	assert.Equal(t, domain.CodeNotFound, codeOf(t, err))
}

func TestAddSelfDependencyConflict(t *testing.T) {
	f := newFixture()
	ctx := context.Background()

	p := f.project(t, user1, "P1")
	b := f.branch(t, user1, p.ID, "main")
	existing := f.task(t, user1, b.ID, "T1")

	// Self-dependency through the dependency engine is a conflict.
	err := f.deps.Add(ctx, user1, existing.ID, existing.ID)
	assert.Equal(t, domain.CodeConflict, codeOf(t, err))
}

func TestTaskLifecycleUpdatesCounters(t *testing.T) {
	f := newFixture()
	ctx := context.Background()

	p := f.project(t, user1, "P1")
	b := f.branch(t, user1, p.ID, "main")
	assert.Equal(t, 0, b.TaskCount)

	task := f.task(t, user1, b.ID, "T1")

	// Counter reflects the insert after the commit.
	b2, err := f.branches.Get(ctx, user1, b.ID)
	require.NoError(t, err)
	assert.Equal(t, 1, b2.TaskCount)
	assert.Equal(t, 0, b2.CompletedTaskCount)

	result, err := f.tasks.Complete(ctx, user1, task.ID, "shipped")
	require.NoError(t, err)
	assert.Equal(t, domain.StatusDone, result.Task.Status)
	assert.Equal(t, 100, result.Task.ProgressPercentage)

	b3, err := f.branches.Get(ctx, user1, b.ID)
	require.NoError(t, err)
	assert.Equal(t, 1, b3.TaskCount)
	assert.Equal(t, 1, b3.CompletedTaskCount)

	// Deleting the task pulls both counters back down.
	require.NoError(t, f.tasks.Delete(ctx, user1, task.ID))
	b4, err := f.branches.Get(ctx, user1, b.ID)
	require.NoError(t, err)
	assert.Equal(t, 0, b4.TaskCount)
	assert.Equal(t, 0, b4.CompletedTaskCount)
}

func TestCompleteRecordsHistoryEntry(t *testing.T) {
	f := newFixture()
	ctx := context.Background()

	p := f.project(t, user1, "P1")
	b := f.branch(t, user1, p.ID, "main")
	task := f.task(t, user1, b.ID, "T1")

	result, err := f.tasks.Complete(ctx, user1, task.ID, "all done")
	require.NoError(t, err)
	require.Len(t, result.Task.ProgressHistory, 1)
	assert.Equal(t, 1, result.Task.ProgressHistory[0].Seq)
	assert.Equal(t, "all done", result.Task.ProgressHistory[0].Note)
	assert.Equal(t, 100, result.Task.ProgressHistory[0].Percentage)

	// Completing twice fails the precondition.
	_, err = f.tasks.Complete(ctx, user1, task.ID, "")
	assert.Equal(t, domain.CodePreconditionFailed, codeOf(t, err))
}

func TestCompleteWithOpenSubtasksWarns(t *testing.T) {
	f := newFixture()
	ctx := context.Background()

	p := f.project(t, user1, "P1")
	b := f.branch(t, user1, p.ID, "main")
	task := f.task(t, user1, b.ID, "T1")

	st, err := f.subtasks.Create(ctx, user1, CreateSubtaskInput{TaskID: task.ID, Title: "S1"})
	require.NoError(t, err)
	done := "done"
	_, err = f.subtasks.Update(ctx, user1, st.ID, UpdateSubtaskInput{Status: &done})
	require.NoError(t, err)

	open, err := f.subtasks.Create(ctx, user1, CreateSubtaskInput{TaskID: task.ID, Title: "S2"})
	require.NoError(t, err)

	result, err := f.tasks.Complete(ctx, user1, task.ID, "")
	require.NoError(t, err)
	require.Len(t, result.OpenSubtasks, 1)
	assert.Equal(t, open.ID, result.OpenSubtasks[0].ID)
	assert.Equal(t, domain.StatusDone, result.Task.Status)
}

func TestAppendProgress(t *testing.T) {
	f := newFixture()
	ctx := context.Background()

	p := f.project(t, user1, "P1")
	b := f.branch(t, user1, p.ID, "main")
	task := f.task(t, user1, b.ID, "T1")

	updated, err := f.tasks.AppendProgress(ctx, user1, task.ID, "kicked off", 25)
	require.NoError(t, err)
	assert.Equal(t, 25, updated.ProgressPercentage)
	assert.Equal(t, domain.StatusInProgress, updated.Status)

	updated, err = f.tasks.AppendProgress(ctx, user1, task.ID, "halfway", 50)
	require.NoError(t, err)
	require.Len(t, updated.ProgressHistory, 2)
	assert.Equal(t, []int{1, 2}, []int{
		updated.ProgressHistory[0].Seq, updated.ProgressHistory[1].Seq})

	_, err = f.tasks.AppendProgress(ctx, user1, task.ID, "", 75)
	assert.Equal(t, domain.CodeMissingField, codeOf(t, err))
}

func TestDeleteTaskCascades(t *testing.T) {
	f := newFixture()
	ctx := context.Background()

	p := f.project(t, user1, "P1")
	b := f.branch(t, user1, p.ID, "main")
	task := f.task(t, user1, b.ID, "T1")
	other := f.task(t, user1, b.ID, "T2")

	st, err := f.subtasks.Create(ctx, user1, CreateSubtaskInput{TaskID: task.ID, Title: "S1"})
	require.NoError(t, err)
	require.NoError(t, f.deps.Add(ctx, user1, other.ID, task.ID))
	_, err = f.contexts.Create(ctx, user1, domain.LevelTask, task.ID, map[string]any{"k": "v"})
	require.NoError(t, err)

	require.NoError(t, f.tasks.Delete(ctx, user1, task.ID))

	// The task, its subtasks, its context, and edges touching it are gone.
	_, err = f.tasks.Get(ctx, user1, task.ID)
	assert.Equal(t, domain.CodeNotFound, codeOf(t, err))
	_, err = f.subtasks.Get(ctx, user1, st.ID)
	assert.Equal(t, domain.CodeNotFound, codeOf(t, err))
	_, _, err = f.contexts.Get(ctx, user1, domain.LevelTask, task.ID, false)
	assert.Equal(t, domain.CodeNotFound, codeOf(t, err))

	info, err := f.deps.GetDependencies(ctx, user1, other.ID)
	require.NoError(t, err)
	assert.Empty(t, info.DependsOn)
}

func TestStartBlockedTaskFailsPrecondition(t *testing.T) {
	f := newFixture()
	ctx := context.Background()

	p := f.project(t, user1, "P1")
	b := f.branch(t, user1, p.ID, "main")
	blocked := f.task(t, user1, b.ID, "blocked")
	prereq := f.task(t, user1, b.ID, "prereq")

	require.NoError(t, f.deps.Add(ctx, user1, blocked.ID, prereq.ID))

	inProgress := "in_progress"
	_, err := f.tasks.Update(ctx, user1, blocked.ID, UpdateTaskInput{Status: &inProgress})
	assert.Equal(t, domain.CodePreconditionFailed, codeOf(t, err))

	// A cancelled predecessor satisfies the dependency like done does.
	cancelled := "cancelled"
	_, err = f.tasks.Update(ctx, user1, prereq.ID, UpdateTaskInput{Status: &cancelled})
	require.NoError(t, err)

	updated, err := f.tasks.Update(ctx, user1, blocked.ID, UpdateTaskInput{Status: &inProgress})
	require.NoError(t, err)
	assert.Equal(t, domain.StatusInProgress, updated.Status)
}

func TestTaskAnnotations(t *testing.T) {
	f := newFixture()
	ctx := context.Background()

	p := f.project(t, user1, "P1")
	b := f.branch(t, user1, p.ID, "main")
	a := f.task(t, user1, b.ID, "A")
	d := f.task(t, user1, b.ID, "D")

	require.NoError(t, f.deps.Add(ctx, user1, a.ID, d.ID))

	got, err := f.tasks.Get(ctx, user1, a.ID)
	require.NoError(t, err)
	require.NotNil(t, got.CanStart)
	assert.False(t, *got.CanStart)
	assert.True(t, *got.IsBlocked)
	assert.Equal(t, []uuid.UUID{d.ID}, got.BlockingTasks)
}
