package service

import (
	"context"
	"sync"

	"github.com/google/uuid"
	"github.com/rs/zerolog/log"
	"golang.org/x/sync/errgroup"

	"github.com/agenthub/agenthub-api/internal/domain"
	"github.com/agenthub/agenthub-api/internal/notify"
	"github.com/agenthub/agenthub-api/internal/repository"
)

// CounterService is the self-heal path for the branch counter projection.
// The database triggers keep counts exact on every task write; this
// service recomputes from the task table and repairs any drift.
type CounterService struct {
	base
}

// NewCounterService wires the service.
func NewCounterService(store repository.Store, sink notify.Sink) *CounterService {
	return &CounterService{base{store: store, sink: sink}}
}

// RecomputeReport lists the branches whose counters were repaired.
type RecomputeReport struct {
	BranchesChecked int            `json:"branches_checked"`
	Repaired        []CounterDrift `json:"repaired,omitempty"`
}

// Recompute derives counts for all the user's branches and repairs
// discrepancies. Reads fan out; repairs run in one transaction.
func (s *CounterService) Recompute(ctx context.Context, userID string) (*RecomputeReport, error) {
	store, err := s.user(userID)
	if err != nil {
		return nil, err
	}
	branches, err := store.Branches().List(ctx)
	if err != nil {
		return nil, err
	}

	report := &RecomputeReport{BranchesChecked: len(branches)}
	var mu sync.Mutex

	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(8)
	for _, b := range branches {
		branch := b
		g.Go(func() error {
			total, done, err := store.Branches().CountTasks(gctx, branch.ID)
			if err != nil {
				return err
			}
			if total == branch.TaskCount && done == branch.CompletedTaskCount {
				return nil
			}
			mu.Lock()
			report.Repaired = append(report.Repaired, CounterDrift{
				BranchID:    branch.ID,
				StoredTotal: branch.TaskCount, ActualTotal: total,
				StoredDone: branch.CompletedTaskCount, ActualDone: done,
			})
			mu.Unlock()
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return nil, err
	}

	if len(report.Repaired) == 0 {
		return report, nil
	}

	err = store.WithinTx(ctx, func(tx repository.Store) error {
		for _, d := range report.Repaired {
			if err := tx.Branches().SetCounts(ctx, d.BranchID, d.ActualTotal, d.ActualDone); err != nil {
				return err
			}
		}
		return nil
	})
	if err != nil {
		return nil, err
	}

	for _, d := range report.Repaired {
		log.Ctx(ctx).Warn().
			Str("branch_id", d.BranchID.String()).
			Int("stored_total", d.StoredTotal).Int("actual_total", d.ActualTotal).
			Msg("repaired branch counter drift")
		s.emit(ctx, domain.EventCounterChanged, "branch", d.BranchID, userID, map[string]any{
			"task_count":           d.ActualTotal,
			"completed_task_count": d.ActualDone,
		})
	}
	return report, nil
}

// RecomputeBranch repairs a single branch's counters.
func (s *CounterService) RecomputeBranch(ctx context.Context, userID string, branchID uuid.UUID) (*domain.Branch, error) {
	store, err := s.user(userID)
	if err != nil {
		return nil, err
	}
	if _, err := store.Branches().Get(ctx, branchID); err != nil {
		return nil, err
	}

	err = store.WithinTx(ctx, func(tx repository.Store) error {
		total, done, err := tx.Branches().CountTasks(ctx, branchID)
		if err != nil {
			return err
		}
		return tx.Branches().SetCounts(ctx, branchID, total, done)
	})
	if err != nil {
		return nil, err
	}
	return store.Branches().Get(ctx, branchID)
}
