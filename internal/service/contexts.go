package service

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/cenkalti/backoff/v4"
	"github.com/google/uuid"
	gocache "github.com/patrickmn/go-cache"
	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"

	"github.com/agenthub/agenthub-api/internal/domain"
	"github.com/agenthub/agenthub-api/internal/notify"
	"github.com/agenthub/agenthub-api/internal/repository"
)

// ContextService implements the four-tier hierarchical context: create
// with transparent ancestor materialization, last-writer-wins updates,
// deep-merge resolution with provenance, a version-vector inheritance
// cache, and an asynchronous per-user delegation worker.
type ContextService struct {
	base

	// Resolved-context cache keyed by (user, level, id, version). Any
	// context write bumps the user's version, so stale keys are never
	// read again and simply age out of the TTL cache.
	cache *gocache.Cache

	verMu    sync.Mutex
	versions map[string]uint64

	workerMu    sync.Mutex
	workers     map[string]chan struct{}
	workerCtx   context.Context
	maxAttempts int
}

// NewContextService wires the service. cacheTTL bounds how long resolved
// entries may live; maxAttempts bounds delegation retries.
func NewContextService(store repository.Store, sink notify.Sink, cacheTTL time.Duration, maxAttempts int) *ContextService {
	if maxAttempts <= 0 {
		maxAttempts = 5
	}
	return &ContextService{
		base:        base{store: store, sink: sink},
		cache:       gocache.New(cacheTTL, 2*cacheTTL),
		versions:    map[string]uint64{},
		workers:     map[string]chan struct{}{},
		maxAttempts: maxAttempts,
	}
}

// NormalizeContextID resolves the caller-facing context id for a level.
// "global" (and an empty id at the global level) name the user's
// singleton global context.
func NormalizeContextID(level domain.ContextLevel, raw string) (uuid.UUID, error) {
	if level == domain.LevelGlobal && (raw == "" || raw == "global" || raw == domain.GlobalSingleton.String()) {
		return domain.GlobalSingleton, nil
	}
	return domain.NormalizeID(raw)
}

func (s *ContextService) version(userID string) uint64 {
	s.verMu.Lock()
	defer s.verMu.Unlock()
	return s.versions[userID]
}

// bumpVersion invalidates every cached resolution for the user; the write
// guard keeps the vector monotone under concurrent writers.
func (s *ContextService) bumpVersion(userID string) {
	s.verMu.Lock()
	s.versions[userID]++
	s.verMu.Unlock()
}

func cacheKey(userID string, level domain.ContextLevel, id uuid.UUID, version uint64) string {
	return fmt.Sprintf("%s|%s|%s|%d", userID, level, id, version)
}

// ensureParents materializes any missing ancestor rows so the invariant
// "a lower tier exists only under existing ancestors" holds after every
// write. Returns the full chain including the target ref.
func (s *ContextService) ensureParents(ctx context.Context, tx repository.Store, level domain.ContextLevel, id uuid.UUID) ([]repository.ContextRef, error) {
	chain, err := tx.Contexts().AncestorChain(ctx, level, id)
	if err != nil {
		return nil, err
	}
	var parent *uuid.UUID
	for _, ref := range chain {
		if ref.Level == level && ref.ID == id {
			break
		}
		if _, err := tx.Contexts().Get(ctx, ref.Level, ref.ID); err != nil {
			if de, ok := domain.AsError(err); ok && de.Code == domain.CodeNotFound {
				row := &domain.ContextRow{Level: ref.Level, ID: ref.ID, ParentID: parent, Data: map[string]any{}}
				if err := tx.Contexts().Upsert(ctx, row); err != nil {
					return nil, err
				}
			} else {
				return nil, err
			}
		}
		p := ref.ID
		parent = &p
	}
	return chain, nil
}

func parentOf(chain []repository.ContextRef, level domain.ContextLevel, id uuid.UUID) *uuid.UUID {
	var parent *uuid.UUID
	for _, ref := range chain {
		if ref.Level == level && ref.ID == id {
			return parent
		}
		p := ref.ID
		parent = &p
	}
	return parent
}

// Create writes a context row, transparently creating missing ancestors.
// nil data is treated as an empty map.
func (s *ContextService) Create(ctx context.Context, userID string, level domain.ContextLevel, id uuid.UUID, data map[string]any) (*domain.ContextRow, error) {
	store, err := s.user(userID)
	if err != nil {
		return nil, err
	}
	if data == nil {
		data = map[string]any{}
	}

	err = store.WithinTx(ctx, func(tx repository.Store) error {
		chain, err := s.ensureParents(ctx, tx, level, id)
		if err != nil {
			return err
		}
		return tx.Contexts().Upsert(ctx, &domain.ContextRow{
			Level:    level,
			ID:       id,
			ParentID: parentOf(chain, level, id),
			Data:     data,
		})
	})
	if err != nil {
		return nil, err
	}

	s.bumpVersion(userID)
	row, err := store.Contexts().Get(ctx, level, id)
	if err != nil {
		return nil, err
	}
	s.emit(ctx, domain.EventContextUpdated, "context", id, userID, map[string]any{"level": level})
	return row, nil
}

// Get returns the row as stored; with includeInherited the resolved
// overlay is attached as well.
func (s *ContextService) Get(ctx context.Context, userID string, level domain.ContextLevel, id uuid.UUID, includeInherited bool) (*domain.ContextRow, *domain.ResolvedContext, error) {
	store, err := s.user(userID)
	if err != nil {
		return nil, nil, err
	}
	row, err := store.Contexts().Get(ctx, level, id)
	if err != nil {
		return nil, nil, err
	}
	if !includeInherited {
		return row, nil, nil
	}
	resolved, err := s.Resolve(ctx, userID, level, id)
	if err != nil {
		return nil, nil, err
	}
	return row, resolved, nil
}

// Update merges data into the stored blob last-writer-wins per top-level
// key; an explicit null removes the key. Missing rows are created (the
// hierarchy is lazily materialized on first write).
func (s *ContextService) Update(ctx context.Context, userID string, level domain.ContextLevel, id uuid.UUID, data map[string]any) (*domain.ContextRow, error) {
	store, err := s.user(userID)
	if err != nil {
		return nil, err
	}
	if data == nil {
		data = map[string]any{}
	}

	err = store.WithinTx(ctx, func(tx repository.Store) error {
		chain, err := s.ensureParents(ctx, tx, level, id)
		if err != nil {
			return err
		}

		merged := map[string]any{}
		existing, err := tx.Contexts().Get(ctx, level, id)
		if err != nil {
			if de, ok := domain.AsError(err); !ok || de.Code != domain.CodeNotFound {
				return err
			}
		} else {
			merged = existing.Data
		}
		for k, v := range data {
			if v == nil {
				delete(merged, k)
				continue
			}
			merged[k] = v
		}

		return tx.Contexts().Upsert(ctx, &domain.ContextRow{
			Level:    level,
			ID:       id,
			ParentID: parentOf(chain, level, id),
			Data:     merged,
		})
	})
	if err != nil {
		return nil, err
	}

	s.bumpVersion(userID)
	row, err := store.Contexts().Get(ctx, level, id)
	if err != nil {
		return nil, err
	}
	s.emit(ctx, domain.EventContextUpdated, "context", id, userID, map[string]any{"level": level})
	return row, nil
}

// Delete removes a context row. A row with children must be deleted
// bottom-up or through the owning entity's delete path.
func (s *ContextService) Delete(ctx context.Context, userID string, level domain.ContextLevel, id uuid.UUID) error {
	store, err := s.user(userID)
	if err != nil {
		return err
	}

	err = store.WithinTx(ctx, func(tx repository.Store) error {
		children, err := tx.Contexts().Children(ctx, level, id)
		if err != nil {
			return err
		}
		if len(children) > 0 {
			return domain.Conflict("context has %d child contexts; delete bottom-up", len(children))
		}
		return tx.Contexts().Delete(ctx, level, id)
	})
	if err != nil {
		return err
	}

	s.bumpVersion(userID)
	s.emit(ctx, domain.EventContextDeleted, "context", id, userID, map[string]any{"level": level})
	return nil
}

// Resolve computes the effective context: the ancestor chain is folded
// global-first with deep-merge semantics and per-key provenance, memoized
// under the user's current version.
func (s *ContextService) Resolve(ctx context.Context, userID string, level domain.ContextLevel, id uuid.UUID) (*domain.ResolvedContext, error) {
	store, err := s.user(userID)
	if err != nil {
		return nil, err
	}

	version := s.version(userID)
	key := cacheKey(userID, level, id, version)
	if hit, ok := s.cache.Get(key); ok {
		return hit.(*domain.ResolvedContext), nil
	}

	chain, err := store.Contexts().AncestorChain(ctx, level, id)
	if err != nil {
		return nil, err
	}

	rows := []domain.ContextRow{}
	for _, ref := range chain {
		row, err := store.Contexts().Get(ctx, ref.Level, ref.ID)
		if err != nil {
			if de, ok := domain.AsError(err); ok && de.Code == domain.CodeNotFound {
				continue
			}
			return nil, err
		}
		rows = append(rows, *row)
	}

	data, provenance := domain.FoldContexts(rows)
	resolved := &domain.ResolvedContext{Level: level, ID: id, Data: data, Provenance: provenance}
	s.cache.SetDefault(key, resolved)
	return resolved, nil
}

// Delegate queues a payload for promotion to a higher tier; the per-user
// worker applies it asynchronously so delegation effects stay ordered.
func (s *ContextService) Delegate(ctx context.Context, userID string, sourceLevel domain.ContextLevel, sourceID uuid.UUID, targetLevel domain.ContextLevel, payload map[string]any) (*domain.Delegation, error) {
	store, err := s.user(userID)
	if err != nil {
		return nil, err
	}

	d := &domain.Delegation{
		ID:          uuid.New(),
		UserID:      userID,
		SourceLevel: sourceLevel,
		SourceID:    sourceID,
		TargetLevel: targetLevel,
		Payload:     payload,
		Status:      domain.DelegationPending,
	}
	if err := d.Validate(); err != nil {
		return nil, err
	}
	// The source must exist in the entity hierarchy for the target to be
	// derivable at processing time.
	if _, err := store.Contexts().AncestorChain(ctx, sourceLevel, sourceID); err != nil {
		return nil, err
	}

	if err := store.Delegations().Enqueue(ctx, d); err != nil {
		return nil, err
	}
	s.signalWorker(userID)
	return d, nil
}

// Start launches delegation workers for users with queued work and
// retains the context under which future workers run.
func (s *ContextService) Start(ctx context.Context) {
	s.workerMu.Lock()
	s.workerCtx = ctx
	s.workerMu.Unlock()

	users, err := s.store.Delegations().PendingUsers(ctx)
	if err != nil {
		log.Error().Err(err).Msg("failed to list pending delegation users")
		return
	}
	for _, userID := range users {
		s.signalWorker(userID)
	}
}

// signalWorker wakes (or spawns) the single worker serializing one user's
// delegations.
func (s *ContextService) signalWorker(userID string) {
	s.workerMu.Lock()
	defer s.workerMu.Unlock()

	if ch, ok := s.workers[userID]; ok {
		select {
		case ch <- struct{}{}:
		default:
		}
		return
	}

	ctx := s.workerCtx
	if ctx == nil {
		ctx = context.Background()
	}
	ch := make(chan struct{}, 1)
	ch <- struct{}{}
	s.workers[userID] = ch
	go s.runWorker(ctx, userID, ch)
}

func (s *ContextService) runWorker(ctx context.Context, userID string, ch chan struct{}) {
	logger := log.With().Str("user_id", userID).Logger()
	for {
		select {
		case <-ctx.Done():
			return
		case <-ch:
		}
		for {
			d, err := s.store.WithUser(userID).Delegations().NextPending(ctx)
			if err != nil {
				logger.Error().Err(err).Msg("failed to fetch pending delegation")
				break
			}
			if d == nil {
				break
			}
			s.process(ctx, userID, d, &logger)
		}
	}
}

// process applies one delegation with exponential backoff; exhausting the
// attempt budget marks the row failed and reports a health event.
func (s *ContextService) process(ctx context.Context, userID string, d *domain.Delegation, logger *zerolog.Logger) {
	store := s.store.WithUser(userID)

	apply := func() error {
		chain, err := store.Contexts().AncestorChain(ctx, d.SourceLevel, d.SourceID)
		if err != nil {
			return err
		}
		var targetID *uuid.UUID
		for _, ref := range chain {
			if ref.Level == d.TargetLevel {
				id := ref.ID
				targetID = &id
				break
			}
		}
		if targetID == nil {
			return domain.NotFound("delegation target", d.TargetLevel)
		}
		_, err = s.Update(ctx, userID, d.TargetLevel, *targetID, d.Payload)
		return err
	}

	bo := backoff.WithContext(
		backoff.WithMaxRetries(backoff.NewExponentialBackOff(), uint64(s.maxAttempts-1)), ctx)
	attempts := 0
	err := backoff.Retry(func() error {
		attempts++
		return apply()
	}, bo)

	if err == nil {
		if mErr := store.Delegations().MarkProcessed(ctx, d.ID); mErr != nil {
			logger.Error().Err(mErr).Str("delegation_id", d.ID.String()).Msg("failed to mark delegation processed")
		}
		return
	}

	logger.Error().Err(err).Str("delegation_id", d.ID.String()).Int("attempts", attempts).
		Msg("delegation failed after retries")
	if mErr := store.Delegations().MarkFailed(ctx, d.ID, d.Attempts+attempts, err.Error(), true); mErr != nil {
		logger.Error().Err(mErr).Str("delegation_id", d.ID.String()).Msg("failed to mark delegation failed")
	}
	s.emit(ctx, domain.EventDelegationFailed, "delegation", d.ID, userID, map[string]any{
		"target_level": d.TargetLevel,
		"attempts":     d.Attempts + attempts,
	})
}
