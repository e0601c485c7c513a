package postgres

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/google/uuid"
	"github.com/phrazzld/taskhive-api/internal/domain"
	"github.com/phrazzld/taskhive-api/internal/platform/logger"
	"github.com/phrazzld/taskhive-api/internal/store"
)

// PostgresNotificationStore implements the store.NotificationStore interface
// using a PostgreSQL database as the storage backend.
type PostgresNotificationStore struct {
	db     store.DBTX
	logger *slog.Logger
}

// NewPostgresNotificationStore creates a new PostgreSQL implementation of the
// NotificationStore interface. It accepts a database connection or
// transaction that should be initialized and managed by the caller.
func NewPostgresNotificationStore(db store.DBTX, logger *slog.Logger) *PostgresNotificationStore {
	if db == nil {
		panic("db cannot be nil")
	}
	if logger == nil {
		logger = slog.Default()
	}

	return &PostgresNotificationStore{
		db:     db,
		logger: logger.With(slog.String("component", "notification_store")),
	}
}

// Ensure PostgresNotificationStore implements store.NotificationStore interface
var _ store.NotificationStore = (*PostgresNotificationStore)(nil)

// WithTx implements store.NotificationStore.WithTx
func (s *PostgresNotificationStore) WithTx(tx *sql.Tx) store.NotificationStore {
	return &PostgresNotificationStore{
		db:     tx,
		logger: s.logger,
	}
}

// Create implements store.NotificationStore.Create
// A notification anchored to neither a task nor a subtask is rejected with
// store.ErrInvalidEntity wrapping domain.ErrNotificationUnanchored; the
// notifications_anchor_check constraint backs the same invariant in the schema.
func (s *PostgresNotificationStore) Create(
	ctx context.Context,
	notification *domain.Notification,
) error {
	log := logger.FromContextOrDefault(ctx, s.logger)

	if err := notification.Validate(); err != nil {
		log.Warn("notification validation failed during create",
			slog.String("error", err.Error()),
			slog.String("notification_id", notification.ID.String()))
		if errors.Is(err, domain.ErrNotificationUnanchored) {
			return fmt.Errorf("%w: %v", store.ErrInvalidEntity, err)
		}
		return err
	}

	query := `
		INSERT INTO notifications
			(id, originator_id, recipient_id, message, task_id, subtask_id, is_read, is_seen, created_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9)
	`
	_, err := s.db.ExecContext(
		ctx,
		query,
		notification.ID,
		notification.OriginatorID,
		notification.RecipientID,
		notification.Message,
		notification.TaskID,
		notification.SubtaskID,
		notification.IsRead,
		notification.IsSeen,
		notification.CreatedAt,
	)
	if err != nil {
		log.Error("failed to create notification",
			slog.String("error", err.Error()),
			slog.String("notification_id", notification.ID.String()),
			slog.String("recipient_id", notification.RecipientID.String()))
		return MapError(err)
	}

	log.Debug("notification created",
		slog.String("notification_id", notification.ID.String()),
		slog.String("originator_id", notification.OriginatorID.String()),
		slog.String("recipient_id", notification.RecipientID.String()))
	return nil
}

// ListForRecipient implements store.NotificationStore.ListForRecipient
// Results are ordered newest first.
func (s *PostgresNotificationStore) ListForRecipient(
	ctx context.Context,
	recipientID uuid.UUID,
	filter store.NotificationFilter,
	limit, offset int,
) ([]*domain.Notification, int, error) {
	where := "WHERE recipient_id = $1"
	args := []any{recipientID}

	if filter.IsRead != nil {
		args = append(args, *filter.IsRead)
		where += fmt.Sprintf(" AND is_read = $%d", len(args))
	}

	var total int
	countQuery := "SELECT count(*) FROM notifications " + where
	if err := s.db.QueryRowContext(ctx, countQuery, args...).Scan(&total); err != nil {
		return nil, 0, MapError(err)
	}

	args = append(args, limit, offset)
	listQuery := fmt.Sprintf(`
		SELECT id, originator_id, recipient_id, message, task_id, subtask_id, is_read, is_seen, created_at
		FROM notifications
		%s
		ORDER BY created_at DESC
		LIMIT $%d OFFSET $%d
	`, where, len(args)-1, len(args))

	rows, err := s.db.QueryContext(ctx, listQuery, args...)
	if err != nil {
		return nil, 0, MapError(err)
	}
	defer func() { _ = rows.Close() }()

	var notifications []*domain.Notification
	for rows.Next() {
		n, err := scanNotification(rows)
		if err != nil {
			return nil, 0, err
		}
		notifications = append(notifications, n)
	}
	if err := rows.Err(); err != nil {
		return nil, 0, MapError(err)
	}

	return notifications, total, nil
}

// CountUnseenSince implements store.NotificationStore.CountUnseenSince
func (s *PostgresNotificationStore) CountUnseenSince(
	ctx context.Context,
	recipientID uuid.UUID,
	since time.Time,
) (int, error) {
	query := `
		SELECT count(*)
		FROM notifications
		WHERE recipient_id = $1 AND is_seen = false AND created_at > $2
	`
	var count int
	if err := s.db.QueryRowContext(ctx, query, recipientID, since).Scan(&count); err != nil {
		return 0, MapError(err)
	}
	return count, nil
}

// SetRead implements store.NotificationStore.SetRead
// Returns store.ErrNotificationNotFound if the notification does not exist.
func (s *PostgresNotificationStore) SetRead(
	ctx context.Context,
	id uuid.UUID,
	read bool,
) (*domain.Notification, error) {
	query := `
		UPDATE notifications
		SET is_read = $2
		WHERE id = $1
		RETURNING id, originator_id, recipient_id, message, task_id, subtask_id, is_read, is_seen, created_at
	`
	row := s.db.QueryRowContext(ctx, query, id, read)
	n, err := scanNotification(row)
	if err != nil {
		if errors.Is(err, store.ErrNotFound) {
			return nil, store.ErrNotificationNotFound
		}
		return nil, err
	}
	return n, nil
}

// MarkAllRead implements store.NotificationStore.MarkAllRead
// Idempotent: repeating the call affects zero rows and reports no error.
func (s *PostgresNotificationStore) MarkAllRead(
	ctx context.Context,
	recipientID uuid.UUID,
) (int, error) {
	return s.markAll(ctx, recipientID, "is_read")
}

// MarkAllSeen implements store.NotificationStore.MarkAllSeen
// Idempotent: repeating the call affects zero rows and reports no error.
func (s *PostgresNotificationStore) MarkAllSeen(
	ctx context.Context,
	recipientID uuid.UUID,
) (int, error) {
	return s.markAll(ctx, recipientID, "is_seen")
}

// markAll flips the given flag column to true for all of the recipient's
// notifications that do not have it set yet. column is "is_read" or "is_seen".
func (s *PostgresNotificationStore) markAll(
	ctx context.Context,
	recipientID uuid.UUID,
	column string,
) (int, error) {
	query := fmt.Sprintf(`
		UPDATE notifications
		SET %s = true
		WHERE recipient_id = $1 AND %s = false
	`, column, column)

	result, err := s.db.ExecContext(ctx, query, recipientID)
	if err != nil {
		return 0, MapError(err)
	}
	affected, err := result.RowsAffected()
	if err != nil {
		return 0, fmt.Errorf("failed to get rows affected: %w", err)
	}
	return int(affected), nil
}

// Delete implements store.NotificationStore.Delete
// Returns store.ErrNotificationNotFound if the notification does not exist.
func (s *PostgresNotificationStore) Delete(ctx context.Context, id uuid.UUID) error {
	result, err := s.db.ExecContext(ctx, `DELETE FROM notifications WHERE id = $1`, id)
	if err != nil {
		return MapError(err)
	}
	if err := CheckRowsAffected(result, "notification"); err != nil {
		return fmt.Errorf("%w: %v", store.ErrNotificationNotFound, err)
	}
	return nil
}

// GetByID implements store.NotificationStore.GetByID
// Returns store.ErrNotificationNotFound if the notification does not exist.
func (s *PostgresNotificationStore) GetByID(
	ctx context.Context,
	id uuid.UUID,
) (*domain.Notification, error) {
	query := `
		SELECT id, originator_id, recipient_id, message, task_id, subtask_id, is_read, is_seen, created_at
		FROM notifications
		WHERE id = $1
	`
	n, err := scanNotification(s.db.QueryRowContext(ctx, query, id))
	if err != nil {
		if errors.Is(err, store.ErrNotFound) {
			return nil, store.ErrNotificationNotFound
		}
		return nil, err
	}
	return n, nil
}

// rowScanner abstracts *sql.Row and *sql.Rows for shared scan logic.
type rowScanner interface {
	Scan(dest ...any) error
}

// scanNotification reads one notification from the scanner, mapping the
// nullable task/subtask anchors.
func scanNotification(row rowScanner) (*domain.Notification, error) {
	var n domain.Notification
	var taskID, subtaskID uuid.NullUUID
	err := row.Scan(
		&n.ID,
		&n.OriginatorID,
		&n.RecipientID,
		&n.Message,
		&taskID,
		&subtaskID,
		&n.IsRead,
		&n.IsSeen,
		&n.CreatedAt,
	)
	if err != nil {
		return nil, MapError(err)
	}
	if taskID.Valid {
		n.TaskID = &taskID.UUID
	}
	if subtaskID.Valid {
		n.SubtaskID = &subtaskID.UUID
	}
	return &n, nil
}
