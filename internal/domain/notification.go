package domain

import (
	"errors"
	"time"

	"github.com/google/uuid"
)

// Common validation errors for Notification
var (
	ErrEmptyNotificationID        = errors.New("notification ID cannot be empty")
	ErrEmptyNotificationOrigin    = errors.New("notification originator cannot be empty")
	ErrEmptyNotificationRecipient = errors.New("notification recipient cannot be empty")
	ErrEmptyNotificationMessage   = errors.New("notification message cannot be empty")
	ErrSelfNotification           = errors.New("notification originator and recipient cannot be the same user")

	// ErrNotificationUnanchored is returned when a notification references
	// neither a task nor a subtask. A notification is never free-floating.
	ErrNotificationUnanchored = errors.New(
		"notification must be linked to either a task or a subtask")
)

// Notification records that one user's action must be brought to another
// user's attention. The message and the task/subtask anchor are immutable
// after creation; only the read and seen flags change afterwards.
//
// IsSeen and IsRead are distinct: "seen" tracks exposure to a badge or
// summary view, "read" tracks an explicit open by the recipient.
type Notification struct {
	ID           uuid.UUID  `json:"id"`
	OriginatorID uuid.UUID  `json:"originator_id"`
	RecipientID  uuid.UUID  `json:"recipient_id"`
	Message      string     `json:"message"`
	TaskID       *uuid.UUID `json:"task_id,omitempty"`
	SubtaskID    *uuid.UUID `json:"subtask_id,omitempty"`
	IsRead       bool       `json:"is_read"`
	IsSeen       bool       `json:"is_seen"`
	CreatedAt    time.Time  `json:"created_at"`
}

// NewNotification creates a new unread, unseen Notification. At least one of
// taskID and subtaskID must be non-nil. Returns an error if validation fails.
func NewNotification(
	originatorID, recipientID uuid.UUID,
	message string,
	taskID, subtaskID *uuid.UUID,
) (*Notification, error) {
	n := &Notification{
		ID:           uuid.New(),
		OriginatorID: originatorID,
		RecipientID:  recipientID,
		Message:      message,
		TaskID:       taskID,
		SubtaskID:    subtaskID,
		CreatedAt:    time.Now().UTC(),
	}

	if err := n.Validate(); err != nil {
		return nil, err
	}

	return n, nil
}

// Validate checks if the Notification has valid data.
// Returns an error if any field fails validation.
func (n *Notification) Validate() error {
	if n.ID == uuid.Nil {
		return ErrEmptyNotificationID
	}

	if n.OriginatorID == uuid.Nil {
		return ErrEmptyNotificationOrigin
	}

	if n.RecipientID == uuid.Nil {
		return ErrEmptyNotificationRecipient
	}

	if n.OriginatorID == n.RecipientID {
		return ErrSelfNotification
	}

	if n.Message == "" {
		return ErrEmptyNotificationMessage
	}

	if (n.TaskID == nil || *n.TaskID == uuid.Nil) &&
		(n.SubtaskID == nil || *n.SubtaskID == uuid.Nil) {
		return ErrNotificationUnanchored
	}

	return nil
}

// TaskRef returns the referenced task id, or uuid.Nil when the notification
// is anchored to a subtask only.
func (n *Notification) TaskRef() uuid.UUID {
	if n.TaskID == nil {
		return uuid.Nil
	}
	return *n.TaskID
}

// SubtaskRef returns the referenced subtask id, or uuid.Nil when the
// notification is anchored to a task only.
func (n *Notification) SubtaskRef() uuid.UUID {
	if n.SubtaskID == nil {
		return uuid.Nil
	}
	return *n.SubtaskID
}
