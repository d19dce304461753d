// Package service holds the application use cases. Each public method is a
// single unit of work: repository mutations inside it commit or roll back
// together, and domain events are emitted only after the commit.
package service

import (
	"context"
	"time"

	"github.com/google/uuid"

	"github.com/agenthub/agenthub-api/internal/domain"
	"github.com/agenthub/agenthub-api/internal/notify"
	"github.com/agenthub/agenthub-api/internal/repository"
)

// base carries the dependencies every service shares.
type base struct {
	store repository.Store
	sink  notify.Sink
}

func (b base) user(userID string) (repository.Store, error) {
	if userID == "" {
		return nil, domain.Unauthenticated("missing user")
	}
	return b.store.WithUser(userID), nil
}

func (b base) emit(ctx context.Context, name domain.EventName, entityType string, entityID uuid.UUID, userID string, payload map[string]any) {
	b.sink.Notify(ctx, domain.Event{
		Name:        name,
		EntityType:  entityType,
		EntityID:    entityID,
		OwnerUserID: userID,
		Payload:     payload,
		At:          time.Now().UTC(),
	})
}
