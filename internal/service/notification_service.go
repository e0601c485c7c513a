package service

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/google/uuid"
	"github.com/phrazzld/taskhive-api/internal/domain"
	"github.com/phrazzld/taskhive-api/internal/store"
)

// NotificationService exposes the recipient-facing notification operations.
// Creation is not here: notifications are written exclusively by the fan-out
// engine inside domain-mutation transactions. Every mutating operation
// checks the caller is the notification's recipient.
type NotificationService interface {
	// ListNotifications retrieves the actor's notifications, newest first,
	// optionally filtered by read state, along with the total match count.
	ListNotifications(
		ctx context.Context,
		actorID uuid.UUID,
		filter store.NotificationFilter,
		page, limit int,
	) ([]*domain.Notification, int, error)

	// CountUnseen returns the number of the actor's unseen notifications
	// created after the given instant. A zero since counts all unseen.
	CountUnseen(ctx context.Context, actorID uuid.UUID, since time.Time) (int, error)

	// SetRead flips a single notification's read flag. Returns
	// ErrNotRecipient when the notification belongs to someone else.
	SetRead(ctx context.Context, actorID, notificationID uuid.UUID, read bool) (*domain.Notification, error)

	// MarkAllRead marks every notification of the actor as read and returns
	// the number of notifications affected. Idempotent.
	MarkAllRead(ctx context.Context, actorID uuid.UUID) (int, error)

	// MarkAllSeen marks every notification of the actor as seen and returns
	// the number of notifications affected. Idempotent.
	MarkAllSeen(ctx context.Context, actorID uuid.UUID) (int, error)

	// DeleteNotification removes a single notification of the actor.
	DeleteNotification(ctx context.Context, actorID, notificationID uuid.UUID) error
}

// NotificationServiceImpl implements the NotificationService interface
type NotificationServiceImpl struct {
	notificationStore store.NotificationStore
	logger            *slog.Logger
}

// NewNotificationService creates a new NotificationService
func NewNotificationService(
	notificationStore store.NotificationStore,
	logger *slog.Logger,
) NotificationService {
	return &NotificationServiceImpl{
		notificationStore: notificationStore,
		logger:            logger.With("component", "notification_service"),
	}
}

// ListNotifications retrieves the actor's notifications, newest first.
func (s *NotificationServiceImpl) ListNotifications(
	ctx context.Context,
	actorID uuid.UUID,
	filter store.NotificationFilter,
	page, limit int,
) ([]*domain.Notification, int, error) {
	limit, offset := pageToOffset(page, limit)

	notifications, total, err := s.notificationStore.ListForRecipient(
		ctx, actorID, filter, limit, offset)
	if err != nil {
		s.logger.Error("failed to list notifications",
			"error", err,
			"recipient_id", actorID)
		return nil, 0, fmt.Errorf("failed to list notifications: %w", err)
	}

	return notifications, total, nil
}

// CountUnseen returns the actor's unseen notification count.
func (s *NotificationServiceImpl) CountUnseen(
	ctx context.Context,
	actorID uuid.UUID,
	since time.Time,
) (int, error) {
	count, err := s.notificationStore.CountUnseenSince(ctx, actorID, since)
	if err != nil {
		s.logger.Error("failed to count unseen notifications",
			"error", err,
			"recipient_id", actorID)
		return 0, fmt.Errorf("failed to count unseen notifications: %w", err)
	}

	return count, nil
}

// SetRead flips one notification's read flag after verifying ownership.
func (s *NotificationServiceImpl) SetRead(
	ctx context.Context,
	actorID, notificationID uuid.UUID,
	read bool,
) (*domain.Notification, error) {
	notification, err := s.notificationStore.GetByID(ctx, notificationID)
	if err != nil {
		return nil, fmt.Errorf("failed to retrieve notification: %w", err)
	}

	if notification.RecipientID != actorID {
		s.logger.Debug("rejected read-state change on foreign notification",
			"notification_id", notificationID,
			"recipient_id", notification.RecipientID,
			"actor_id", actorID)
		return nil, ErrNotRecipient
	}

	updated, err := s.notificationStore.SetRead(ctx, notificationID, read)
	if err != nil {
		s.logger.Error("failed to update notification read state",
			"error", err,
			"notification_id", notificationID)
		return nil, fmt.Errorf("failed to update notification: %w", err)
	}

	return updated, nil
}

// MarkAllRead marks all of the actor's notifications as read.
func (s *NotificationServiceImpl) MarkAllRead(ctx context.Context, actorID uuid.UUID) (int, error) {
	affected, err := s.notificationStore.MarkAllRead(ctx, actorID)
	if err != nil {
		s.logger.Error("failed to mark all notifications read",
			"error", err,
			"recipient_id", actorID)
		return 0, fmt.Errorf("failed to mark all notifications read: %w", err)
	}

	s.logger.Debug("marked all notifications read",
		"recipient_id", actorID,
		"affected", affected)

	return affected, nil
}

// MarkAllSeen marks all of the actor's notifications as seen.
func (s *NotificationServiceImpl) MarkAllSeen(ctx context.Context, actorID uuid.UUID) (int, error) {
	affected, err := s.notificationStore.MarkAllSeen(ctx, actorID)
	if err != nil {
		s.logger.Error("failed to mark all notifications seen",
			"error", err,
			"recipient_id", actorID)
		return 0, fmt.Errorf("failed to mark all notifications seen: %w", err)
	}

	s.logger.Debug("marked all notifications seen",
		"recipient_id", actorID,
		"affected", affected)

	return affected, nil
}

// DeleteNotification removes one notification after verifying ownership.
func (s *NotificationServiceImpl) DeleteNotification(
	ctx context.Context,
	actorID, notificationID uuid.UUID,
) error {
	notification, err := s.notificationStore.GetByID(ctx, notificationID)
	if err != nil {
		return fmt.Errorf("failed to retrieve notification: %w", err)
	}

	if notification.RecipientID != actorID {
		s.logger.Debug("rejected delete of foreign notification",
			"notification_id", notificationID,
			"recipient_id", notification.RecipientID,
			"actor_id", actorID)
		return ErrNotRecipient
	}

	if err := s.notificationStore.Delete(ctx, notificationID); err != nil {
		s.logger.Error("failed to delete notification",
			"error", err,
			"notification_id", notificationID)
		return fmt.Errorf("failed to delete notification: %w", err)
	}

	s.logger.Info("notification deleted",
		"notification_id", notificationID,
		"recipient_id", actorID)

	return nil
}
