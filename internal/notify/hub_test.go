package notify

import (
	"context"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/agenthub/agenthub-api/internal/domain"
)

func TestHubDeliversToOwnerOnly(t *testing.T) {
	hub := NewHub()

	ch1, cancel1 := hub.Subscribe("user-1")
	defer cancel1()
	ch2, cancel2 := hub.Subscribe("user-2")
	defer cancel2()

	ev := domain.Event{
		Name:        domain.EventTaskCreated,
		EntityType:  "task",
		EntityID:    uuid.New(),
		OwnerUserID: "user-1",
		At:          time.Now().UTC(),
	}
	hub.Notify(context.Background(), ev)

	select {
	case got := <-ch1:
		assert.Equal(t, ev.EntityID, got.EntityID)
	case <-time.After(time.Second):
		t.Fatal("owner did not receive event")
	}

	select {
	case <-ch2:
		t.Fatal("event leaked to another user's subscription")
	case <-time.After(50 * time.Millisecond):
	}
}

func TestHubCancelClosesChannel(t *testing.T) {
	hub := NewHub()
	ch, cancel := hub.Subscribe("user-1")
	cancel()

	_, open := <-ch
	assert.False(t, open)

	// Cancel is idempotent and notifying after cancel is a no-op.
	cancel()
	hub.Notify(context.Background(), domain.Event{OwnerUserID: "user-1"})
}

func TestHubDropsWhenBufferFull(t *testing.T) {
	hub := NewHub()
	ch, cancel := hub.Subscribe("user-1")
	defer cancel()

	// Fill the buffer beyond capacity without reading; Notify must not block.
	done := make(chan struct{})
	go func() {
		for i := 0; i < 100; i++ {
			hub.Notify(context.Background(), domain.Event{OwnerUserID: "user-1"})
		}
		close(done)
	}()

	select {
	case <-done:
	case <-time.After(time.Second):
		t.Fatal("Notify blocked on a slow consumer")
	}
	require.NotEmpty(t, ch)
}
