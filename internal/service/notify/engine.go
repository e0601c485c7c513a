package notify

import (
	"context"
	"database/sql"
	"fmt"
	"log/slog"

	"github.com/phrazzld/taskhive-api/internal/domain"
	"github.com/phrazzld/taskhive-api/internal/platform/logger"
	"github.com/phrazzld/taskhive-api/internal/store"
)

// Engine is the notification fan-out engine. One instance is shared by all
// domain services; it is stateless apart from its dependencies.
type Engine struct {
	notifications store.NotificationStore
	logger        *slog.Logger
}

// NewEngine creates a fan-out engine writing through the given store.
func NewEngine(notifications store.NotificationStore, logger *slog.Logger) *Engine {
	if notifications == nil {
		panic("notifications store cannot be nil")
	}
	if logger == nil {
		logger = slog.Default()
	}

	return &Engine{
		notifications: notifications,
		logger:        logger.With(slog.String("component", "fanout_engine")),
	}
}

// Notify resolves the mutation's recipient set and writes one notification
// per recipient within the caller's transaction. If any single write fails
// the error is returned unwritten-down: the caller must let its transaction
// roll back, so a partial fan-out is never committed.
//
// The returned notifications are the records that will exist once the caller
// commits. Delivering them over the real-time channel is the caller's job
// and must happen strictly after commit.
func (e *Engine) Notify(
	ctx context.Context,
	tx *sql.Tx,
	m Mutation,
) ([]*domain.Notification, error) {
	log := logger.FromContextOrDefault(ctx, e.logger)

	if err := m.Validate(); err != nil {
		return nil, fmt.Errorf("invalid mutation: %w", err)
	}

	recipients := resolveRecipients(&m)
	if len(recipients) == 0 {
		log.Debug("fan-out resolved no recipients",
			slog.String("kind", string(m.Kind)),
			slog.String("actor_id", m.ActorID.String()))
		return nil, nil
	}

	txStore := e.notifications.WithTx(tx)

	notifications := make([]*domain.Notification, 0, len(recipients))
	for _, p := range recipients {
		n, err := domain.NewNotification(m.ActorID, p.recipientID, p.message, m.TaskID, m.SubtaskID)
		if err != nil {
			return nil, fmt.Errorf("failed to build notification for recipient %s: %w",
				p.recipientID, err)
		}

		if err := txStore.Create(ctx, n); err != nil {
			log.Error("fan-out write failed, aborting mutation",
				slog.String("error", err.Error()),
				slog.String("kind", string(m.Kind)),
				slog.String("recipient_id", p.recipientID.String()))
			return nil, fmt.Errorf("failed to create notification for recipient %s: %w",
				p.recipientID, err)
		}

		notifications = append(notifications, n)
	}

	log.Debug("fan-out complete",
		slog.String("kind", string(m.Kind)),
		slog.String("actor_id", m.ActorID.String()),
		slog.Int("recipient_count", len(notifications)))

	return notifications, nil
}
