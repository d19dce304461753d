package service

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestRecomputeRepairsDrift(t *testing.T) {
	f := newFixture()
	ctx := context.Background()

	p := f.project(t, user1, "P1")
	b := f.branch(t, user1, p.ID, "main")
	task := f.task(t, user1, b.ID, "T1")
	f.task(t, user1, b.ID, "T2")
	_, err := f.tasks.Complete(ctx, user1, task.ID, "")
	require.NoError(t, err)

	// Corrupt the stored counters, then self-heal.
	require.NoError(t, f.store.WithUser(user1).Branches().SetCounts(ctx, b.ID, 0, 0))

	report, err := f.counters.Recompute(ctx, user1)
	require.NoError(t, err)
	assert.Equal(t, 1, report.BranchesChecked)
	require.Len(t, report.Repaired, 1)
	assert.Equal(t, 2, report.Repaired[0].ActualTotal)
	assert.Equal(t, 1, report.Repaired[0].ActualDone)

	fixed, err := f.branches.Get(ctx, user1, b.ID)
	require.NoError(t, err)
	assert.Equal(t, 2, fixed.TaskCount)
	assert.Equal(t, 1, fixed.CompletedTaskCount)

	// A clean state reports nothing to repair.
	report, err = f.counters.Recompute(ctx, user1)
	require.NoError(t, err)
	assert.Empty(t, report.Repaired)
}

func TestRecomputeBranch(t *testing.T) {
	f := newFixture()
	ctx := context.Background()

	p := f.project(t, user1, "P1")
	b := f.branch(t, user1, p.ID, "main")
	f.task(t, user1, b.ID, "T1")

	require.NoError(t, f.store.WithUser(user1).Branches().SetCounts(ctx, b.ID, 5, 5))

	fixed, err := f.counters.RecomputeBranch(ctx, user1, b.ID)
	require.NoError(t, err)
	assert.Equal(t, 1, fixed.TaskCount)
	assert.Equal(t, 0, fixed.CompletedTaskCount)
}
