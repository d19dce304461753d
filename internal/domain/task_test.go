package domain

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestParseStatus(t *testing.T) {
	for _, s := range []string{"todo", "in_progress", "blocked", "done", "cancelled"} {
		st, err := ParseStatus(s)
		require.NoError(t, err)
		assert.Equal(t, Status(s), st)
	}

	st, err := ParseStatus("  DONE ")
	require.NoError(t, err)
	assert.Equal(t, StatusDone, st)

	_, err = ParseStatus("archived")
	require.Error(t, err)
	de, ok := AsError(err)
	require.True(t, ok)
	assert.Equal(t, CodeValidation, de.Code)
}

func TestStatusTerminal(t *testing.T) {
	assert.True(t, StatusDone.Terminal())
	assert.True(t, StatusCancelled.Terminal())
	assert.False(t, StatusTodo.Terminal())
	assert.False(t, StatusInProgress.Terminal())
	assert.False(t, StatusBlocked.Terminal())
}

func TestParsePriority(t *testing.T) {
	p, err := ParsePriority("")
	require.NoError(t, err)
	assert.Equal(t, PriorityMedium, p)

	p, err = ParsePriority("CRITICAL")
	require.NoError(t, err)
	assert.Equal(t, PriorityCritical, p)

	_, err = ParsePriority("urgent")
	require.Error(t, err)
}

func TestTaskValidate(t *testing.T) {
	task := Task{Title: "Implement login", Assignees: []string{"coding-agent"}}
	require.NoError(t, task.Validate())

	// No assignees at creation is a validation error.
	task = Task{Title: "Implement login"}
	err := task.Validate()
	require.Error(t, err)
	de, _ := AsError(err)
	assert.Equal(t, CodeValidation, de.Code)

	task = Task{Title: "   ", Assignees: []string{"coding-agent"}}
	require.Error(t, task.Validate())

	task = Task{Title: "x", Assignees: []string{"a"}, ProgressPercentage: 101}
	require.Error(t, task.Validate())
}

func TestAppendProgressNumbering(t *testing.T) {
	task := Task{Title: "x", Assignees: []string{"a"}}
	now := time.Now().UTC()

	e1 := task.AppendProgress("started", 10, now)
	e2 := task.AppendProgress("halfway", 50, now)
	e3 := task.AppendProgress("overshoot", 150, now)

	// Entries are numbered 1..N without gaps.
	assert.Equal(t, 1, e1.Seq)
	assert.Equal(t, 2, e2.Seq)
	assert.Equal(t, 3, e3.Seq)
	require.Len(t, task.ProgressHistory, 3)

	// Progress tracks the latest entry, clamped to [0,100].
	assert.Equal(t, 100, task.ProgressPercentage)
	assert.Equal(t, 100, e3.Percentage)
}

func TestClampProgress(t *testing.T) {
	assert.Equal(t, 0, ClampProgress(-5))
	assert.Equal(t, 0, ClampProgress(0))
	assert.Equal(t, 42, ClampProgress(42))
	assert.Equal(t, 100, ClampProgress(100))
	assert.Equal(t, 100, ClampProgress(250))
}
