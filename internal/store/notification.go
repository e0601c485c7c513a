package store

import (
	"context"
	"database/sql"
	"time"

	"github.com/google/uuid"
	"github.com/phrazzld/taskhive-api/internal/domain"
)

// NotificationFilter narrows notification list queries.
type NotificationFilter struct {
	// IsRead, when non-nil, restricts results to the given read state.
	IsRead *bool
}

// NotificationStore defines the interface for notification persistence.
//
// Create is the only operation invoked during a domain mutation; it is always
// handed a store bound to the mutation's transaction (via WithTx) so that the
// notification writes commit or roll back atomically with the mutation that
// caused them. The remaining operations back the recipient-facing read and
// state-transition endpoints.
type NotificationStore interface {
	// Create saves a new notification to the store.
	// It handles domain validation internally; a notification anchored to
	// neither a task nor a subtask is rejected with ErrInvalidEntity wrapping
	// domain.ErrNotificationUnanchored.
	Create(ctx context.Context, notification *domain.Notification) error

	// ListForRecipient retrieves the recipient's notifications matching the
	// filter, newest first, paginated by limit/offset, along with the total
	// match count.
	ListForRecipient(
		ctx context.Context,
		recipientID uuid.UUID,
		filter NotificationFilter,
		limit, offset int,
	) ([]*domain.Notification, int, error)

	// CountUnseenSince returns the number of the recipient's unseen
	// notifications created after the given instant.
	CountUnseenSince(ctx context.Context, recipientID uuid.UUID, since time.Time) (int, error)

	// SetRead updates the read flag of a single notification.
	// Returns ErrNotificationNotFound if the notification does not exist.
	SetRead(ctx context.Context, id uuid.UUID, read bool) (*domain.Notification, error)

	// MarkAllRead marks every notification of the recipient as read.
	// Calling it again is a no-op. Returns the number of rows affected.
	MarkAllRead(ctx context.Context, recipientID uuid.UUID) (int, error)

	// MarkAllSeen marks every notification of the recipient as seen.
	// Calling it again is a no-op. Returns the number of rows affected.
	MarkAllSeen(ctx context.Context, recipientID uuid.UUID) (int, error)

	// Delete removes a notification.
	// Returns ErrNotificationNotFound if the notification does not exist.
	Delete(ctx context.Context, id uuid.UUID) error

	// GetByID retrieves a notification by its unique ID.
	// Returns ErrNotificationNotFound if the notification does not exist.
	GetByID(ctx context.Context, id uuid.UUID) (*domain.Notification, error)

	// WithTx returns a new NotificationStore instance that uses the provided
	// transaction. Fan-out writes always go through a store obtained here.
	WithTx(tx *sql.Tx) NotificationStore
}
