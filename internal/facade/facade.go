// Package facade exposes user-scoped aggregates of the application
// services. A facade is the only object request handlers talk to; every
// factory requires the user id — there is no default user, and an
// unauthenticated call is an error, never a silent substitution.
package facade

import (
	"time"

	gocache "github.com/patrickmn/go-cache"

	"github.com/agenthub/agenthub-api/internal/domain"
	"github.com/agenthub/agenthub-api/internal/notify"
	"github.com/agenthub/agenthub-api/internal/repository"
	"github.com/agenthub/agenthub-api/internal/service"
)

// Service builds and caches facades per (user, aggregate) to amortize
// wiring cost. Entries are immutable after creation; a user's entries are
// dropped on sign-out, and the whole cache on schema migration.
type Service struct {
	cache *gocache.Cache

	projects  *service.ProjectService
	branches  *service.BranchService
	tasks     *service.TaskService
	subtasks  *service.SubtaskService
	contexts  *service.ContextService
	deps      *service.DependencyService
	agents    *service.AgentService
	counters  *service.CounterService
}

// Options bounds facade construction.
type Options struct {
	CacheTTL        time.Duration
	ContextCacheTTL time.Duration
	MaxDependencyEdges int
	DelegationAttempts int
}

// New wires the full service graph over the store and sink.
func New(store repository.Store, sink notify.Sink, opts Options) *Service {
	if opts.CacheTTL <= 0 {
		opts.CacheTTL = 30 * time.Minute
	}
	if opts.ContextCacheTTL <= 0 {
		opts.ContextCacheTTL = 5 * time.Minute
	}

	agents := service.NewAgentService(store, sink)
	deps := service.NewDependencyService(store, sink, opts.MaxDependencyEdges)

	return &Service{
		cache:    gocache.New(opts.CacheTTL, 2*opts.CacheTTL),
		projects: service.NewProjectService(store, sink),
		branches: service.NewBranchService(store, sink, agents),
		tasks:    service.NewTaskService(store, sink, deps),
		subtasks: service.NewSubtaskService(store, sink),
		contexts: service.NewContextService(store, sink, opts.ContextCacheTTL, opts.DelegationAttempts),
		deps:     deps,
		agents:   agents,
		counters: service.NewCounterService(store, sink),
	}
}

// Contexts exposes the context service for worker bootstrap.
func (s *Service) Contexts() *service.ContextService { return s.contexts }

// Invalidate drops a user's cached facades (sign-out path).
func (s *Service) Invalidate(userID string) {
	for _, aggregate := range []string{"project", "branch", "task", "subtask", "context", "dependency", "agent"} {
		s.cache.Delete(userID + "|" + aggregate)
	}
}

// Reset drops every cached facade (schema migration path).
func (s *Service) Reset() {
	s.cache.Flush()
}

func facadeFor[T any](s *Service, userID, aggregate string, build func() *T) (*T, error) {
	if userID == "" {
		return nil, domain.Unauthenticated("facade requires a user id")
	}
	key := userID + "|" + aggregate
	if hit, ok := s.cache.Get(key); ok {
		return hit.(*T), nil
	}
	f := build()
	s.cache.SetDefault(key, f)
	return f, nil
}

// ProjectFacade returns the project aggregate for the user.
func (s *Service) ProjectFacade(userID string) (*ProjectFacade, error) {
	return facadeFor(s, userID, "project", func() *ProjectFacade {
		return &ProjectFacade{userID: userID, svc: s.projects, counters: s.counters}
	})
}

// BranchFacade returns the branch aggregate for the user.
func (s *Service) BranchFacade(userID string) (*BranchFacade, error) {
	return facadeFor(s, userID, "branch", func() *BranchFacade {
		return &BranchFacade{userID: userID, svc: s.branches, counters: s.counters}
	})
}

// TaskFacade returns the task aggregate for the user.
func (s *Service) TaskFacade(userID string) (*TaskFacade, error) {
	return facadeFor(s, userID, "task", func() *TaskFacade {
		return &TaskFacade{userID: userID, svc: s.tasks, deps: s.deps, subtasks: s.subtasks}
	})
}

// SubtaskFacade returns the subtask aggregate for the user.
func (s *Service) SubtaskFacade(userID string) (*SubtaskFacade, error) {
	return facadeFor(s, userID, "subtask", func() *SubtaskFacade {
		return &SubtaskFacade{userID: userID, svc: s.subtasks}
	})
}

// ContextFacade returns the context aggregate for the user.
func (s *Service) ContextFacade(userID string) (*ContextFacade, error) {
	return facadeFor(s, userID, "context", func() *ContextFacade {
		return &ContextFacade{userID: userID, svc: s.contexts}
	})
}

// DependencyFacade returns the dependency aggregate for the user.
func (s *Service) DependencyFacade(userID string) (*DependencyFacade, error) {
	return facadeFor(s, userID, "dependency", func() *DependencyFacade {
		return &DependencyFacade{userID: userID, svc: s.deps}
	})
}

// AgentFacade returns the agent aggregate for the user.
func (s *Service) AgentFacade(userID string) (*AgentFacade, error) {
	return facadeFor(s, userID, "agent", func() *AgentFacade {
		return &AgentFacade{userID: userID, svc: s.agents, branches: s.branches}
	})
}
