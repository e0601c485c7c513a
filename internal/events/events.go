package events

import (
	"context"
	"time"

	"github.com/google/uuid"
	"github.com/phrazzld/taskhive-api/internal/domain"
)

// NotificationCommittedEvent announces that one domain mutation's fan-out has
// been durably committed. It is emitted strictly after the enclosing
// transaction commits; handlers may therefore act on the notifications
// without ever observing state a concurrent read would not also see.
type NotificationCommittedEvent struct {
	// ID is a unique identifier for this event
	ID uuid.UUID `json:"id"`

	// Notifications are the records committed by the mutation, one per recipient.
	Notifications []*domain.Notification `json:"notifications"`

	// CreatedAt is the timestamp when the event was created
	CreatedAt time.Time `json:"created_at"`
}

// NewNotificationCommittedEvent creates an event carrying the given committed
// notifications.
func NewNotificationCommittedEvent(
	notifications []*domain.Notification,
) *NotificationCommittedEvent {
	return &NotificationCommittedEvent{
		ID:            uuid.New(),
		Notifications: notifications,
		CreatedAt:     time.Now().UTC(),
	}
}

// EventHandler defines an interface for components that can handle events.
// Handlers are responsible for processing events and taking appropriate actions.
type EventHandler interface {
	// HandleEvent processes the given event within the provided context.
	// Returns an error if the event cannot be handled successfully.
	HandleEvent(ctx context.Context, event *NotificationCommittedEvent) error
}

// EventEmitter defines an interface for components that can emit events.
// This allows services to publish events without direct knowledge of handlers.
type EventEmitter interface {
	// EmitEvent publishes the given event to all registered handlers.
	// Returns an error if the event cannot be emitted.
	EmitEvent(ctx context.Context, event *NotificationCommittedEvent) error
}
