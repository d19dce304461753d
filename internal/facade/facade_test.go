package facade

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/agenthub/agenthub-api/internal/domain"
	"github.com/agenthub/agenthub-api/internal/notify"
	"github.com/agenthub/agenthub-api/internal/repository/postgres"
)

func testService() *Service {
	// A nil pool is fine: these tests exercise wiring and caching only.
	return New(postgres.NewStore(nil), notify.Discard{}, Options{})
}

func TestFacadeRequiresUserID(t *testing.T) {
	s := testService()

	_, err := s.ProjectFacade("")
	require.Error(t, err)
	de, ok := domain.AsError(err)
	require.True(t, ok)
	assert.Equal(t, domain.CodeUnauthenticated, de.Code)

	for _, build := range []func(string) (any, error){
		func(u string) (any, error) { return s.BranchFacade(u) },
		func(u string) (any, error) { return s.TaskFacade(u) },
		func(u string) (any, error) { return s.SubtaskFacade(u) },
		func(u string) (any, error) { return s.ContextFacade(u) },
		func(u string) (any, error) { return s.DependencyFacade(u) },
		func(u string) (any, error) { return s.AgentFacade(u) },
	} {
		_, err := build("")
		assert.Error(t, err)
	}
}

func TestFacadeCachedPerUserAndAggregate(t *testing.T) {
	s := testService()

	f1, err := s.TaskFacade("user-1")
	require.NoError(t, err)
	f2, err := s.TaskFacade("user-1")
	require.NoError(t, err)
	assert.Same(t, f1, f2)

	// Different users get different facades.
	f3, err := s.TaskFacade("user-2")
	require.NoError(t, err)
	assert.NotSame(t, f1, f3)
}

func TestFacadeInvalidateDropsUserEntries(t *testing.T) {
	s := testService()

	f1, err := s.TaskFacade("user-1")
	require.NoError(t, err)
	other, err := s.TaskFacade("user-2")
	require.NoError(t, err)

	s.Invalidate("user-1")

	f2, err := s.TaskFacade("user-1")
	require.NoError(t, err)
	assert.NotSame(t, f1, f2)

	// Another user's entry survives a sign-out.
	still, err := s.TaskFacade("user-2")
	require.NoError(t, err)
	assert.Same(t, other, still)
}

func TestFacadeResetDropsEverything(t *testing.T) {
	s := testService()

	f1, err := s.ProjectFacade("user-1")
	require.NoError(t, err)

	s.Reset()

	f2, err := s.ProjectFacade("user-1")
	require.NoError(t, err)
	assert.NotSame(t, f1, f2)
}
