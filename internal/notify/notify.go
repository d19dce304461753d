// Package notify is the broadcast sink boundary. The core treats delivery
// as fire-and-forget: events are filtered by ownership and handed to
// whatever transport is plugged in.
package notify

import (
	"context"

	"github.com/rs/zerolog/log"

	"github.com/agenthub/agenthub-api/internal/domain"
)

// Sink receives change notifications. An event for entity E is only
// delivered to subscriptions whose authenticated principal owns E;
// implementations must honor Event.OwnerUserID.
type Sink interface {
	Notify(ctx context.Context, ev domain.Event)
}

// LogSink writes events to the structured log; the default transport when
// no streaming subscriber is attached.
type LogSink struct{}

func (LogSink) Notify(_ context.Context, ev domain.Event) {
	log.Debug().
		Str("event", string(ev.Name)).
		Str("entity_type", ev.EntityType).
		Str("entity_id", ev.EntityID.String()).
		Str("owner", ev.OwnerUserID).
		Msg("domain event")
}

// Multi fans one event out to several sinks.
type Multi []Sink

func (m Multi) Notify(ctx context.Context, ev domain.Event) {
	for _, s := range m {
		s.Notify(ctx, ev)
	}
}

// Discard drops every event; used in tests.
type Discard struct{}

func (Discard) Notify(context.Context, domain.Event) {}
