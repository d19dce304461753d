package domain

import (
	"time"

	"github.com/google/uuid"
)

// EventName identifies a domain event emitted by a use case.
type EventName string

const (
	EventProjectCreated   EventName = "project.created"
	EventProjectDeleted   EventName = "project.deleted"
	EventBranchCreated    EventName = "branch.created"
	EventBranchDeleted    EventName = "branch.deleted"
	EventTaskCreated      EventName = "task.created"
	EventTaskUpdated      EventName = "task.updated"
	EventTaskCompleted    EventName = "task.completed"
	EventTaskDeleted      EventName = "task.deleted"
	EventSubtaskCreated   EventName = "subtask.created"
	EventSubtaskUpdated   EventName = "subtask.updated"
	EventSubtaskDeleted   EventName = "subtask.deleted"
	EventDependencyAdded  EventName = "dependency.added"
	EventDependencyRemove EventName = "dependency.removed"
	EventContextUpdated   EventName = "context.updated"
	EventContextDeleted   EventName = "context.deleted"
	EventCounterChanged   EventName = "counter.changed"
	EventAgentAssigned    EventName = "agent.assigned"
	EventDelegationFailed EventName = "delegation.failed"
)

// Event is a fire-and-forget change notification. Delivery is filtered so
// only subscriptions owned by OwnerUserID observe it.
type Event struct {
	Name        EventName      `json:"event"`
	EntityType  string         `json:"entity_type"`
	EntityID    uuid.UUID      `json:"entity_id"`
	OwnerUserID string         `json:"-"`
	Payload     map[string]any `json:"payload,omitempty"`
	At          time.Time      `json:"at"`
}
