package postgres

import (
	"context"
	"database/sql"
	"fmt"
	"log/slog"
	"strings"

	"github.com/google/uuid"
	"github.com/phrazzld/taskhive-api/internal/domain"
	"github.com/phrazzld/taskhive-api/internal/platform/logger"
	"github.com/phrazzld/taskhive-api/internal/store"
)

// PostgresSubtaskStore implements the store.SubtaskStore interface
// using a PostgreSQL database as the storage backend.
type PostgresSubtaskStore struct {
	db     store.DBTX
	logger *slog.Logger
}

// NewPostgresSubtaskStore creates a new PostgreSQL implementation of the
// SubtaskStore interface. It accepts a database connection or transaction
// that should be initialized and managed by the caller.
func NewPostgresSubtaskStore(db store.DBTX, logger *slog.Logger) *PostgresSubtaskStore {
	if db == nil {
		panic("db cannot be nil")
	}
	if logger == nil {
		logger = slog.Default()
	}

	return &PostgresSubtaskStore{
		db:     db,
		logger: logger.With(slog.String("component", "subtask_store")),
	}
}

// Ensure PostgresSubtaskStore implements store.SubtaskStore interface
var _ store.SubtaskStore = (*PostgresSubtaskStore)(nil)

// WithTx implements store.SubtaskStore.WithTx
func (s *PostgresSubtaskStore) WithTx(tx *sql.Tx) store.SubtaskStore {
	return &PostgresSubtaskStore{
		db:     tx,
		logger: s.logger,
	}
}

// Create implements store.SubtaskStore.Create
// Returns store.ErrInvalidEntity if the parent task does not exist
// (foreign key violation).
func (s *PostgresSubtaskStore) Create(ctx context.Context, subtask *domain.Subtask) error {
	log := logger.FromContextOrDefault(ctx, s.logger)

	if err := subtask.Validate(); err != nil {
		log.Warn("subtask validation failed during create",
			slog.String("error", err.Error()),
			slog.String("subtask_id", subtask.ID.String()))
		return err
	}

	query := `
		INSERT INTO subtasks (id, task_id, title, description, status, priority, creator_id, created_at, updated_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9)
	`
	_, err := s.db.ExecContext(
		ctx,
		query,
		subtask.ID,
		subtask.TaskID,
		subtask.Title,
		subtask.Description,
		subtask.Status,
		subtask.Priority,
		subtask.CreatorID,
		subtask.CreatedAt,
		subtask.UpdatedAt,
	)
	if err != nil {
		if IsForeignKeyViolation(err) {
			return fmt.Errorf("%w: task with ID %s not found",
				store.ErrInvalidEntity, subtask.TaskID)
		}
		log.Error("failed to create subtask",
			slog.String("error", err.Error()),
			slog.String("subtask_id", subtask.ID.String()),
			slog.String("task_id", subtask.TaskID.String()))
		return MapError(err)
	}

	if err := s.replaceAssignees(ctx, subtask.ID, subtask.AssignedTo); err != nil {
		return err
	}

	log.Info("subtask created successfully",
		slog.String("subtask_id", subtask.ID.String()),
		slog.String("task_id", subtask.TaskID.String()),
		slog.Int("assignee_count", len(subtask.AssignedTo)))
	return nil
}

// GetByID implements store.SubtaskStore.GetByID
// Returns store.ErrSubtaskNotFound if the subtask does not exist.
func (s *PostgresSubtaskStore) GetByID(ctx context.Context, id uuid.UUID) (*domain.Subtask, error) {
	query := `
		SELECT id, task_id, title, description, status, priority, creator_id, created_at, updated_at
		FROM subtasks
		WHERE id = $1
	`
	var st domain.Subtask
	err := s.db.QueryRowContext(ctx, query, id).Scan(
		&st.ID,
		&st.TaskID,
		&st.Title,
		&st.Description,
		&st.Status,
		&st.Priority,
		&st.CreatorID,
		&st.CreatedAt,
		&st.UpdatedAt,
	)
	if err != nil {
		if err == sql.ErrNoRows {
			return nil, store.ErrSubtaskNotFound
		}
		return nil, MapError(err)
	}

	assignees, err := s.loadAssignees(ctx, []uuid.UUID{st.ID})
	if err != nil {
		return nil, err
	}
	st.AssignedTo = assignees[st.ID]

	comments, err := loadComments(ctx, s.db, "subtask_id", st.ID)
	if err != nil {
		return nil, err
	}
	st.Comments = comments

	return &st, nil
}

// Update implements store.SubtaskStore.Update
// It saves title, description, priority and the assignee set.
// Returns store.ErrSubtaskNotFound if the subtask does not exist.
func (s *PostgresSubtaskStore) Update(ctx context.Context, subtask *domain.Subtask) error {
	if err := subtask.Validate(); err != nil {
		return err
	}

	query := `
		UPDATE subtasks
		SET title = $2, description = $3, priority = $4, updated_at = $5
		WHERE id = $1
	`
	result, err := s.db.ExecContext(
		ctx,
		query,
		subtask.ID,
		subtask.Title,
		subtask.Description,
		subtask.Priority,
		subtask.UpdatedAt,
	)
	if err != nil {
		return MapError(err)
	}
	if err := CheckRowsAffected(result, "subtask"); err != nil {
		return fmt.Errorf("%w: %v", store.ErrSubtaskNotFound, err)
	}

	return s.replaceAssignees(ctx, subtask.ID, subtask.AssignedTo)
}

// UpdateStatus implements store.SubtaskStore.UpdateStatus
// Returns store.ErrSubtaskNotFound if the subtask does not exist.
func (s *PostgresSubtaskStore) UpdateStatus(
	ctx context.Context,
	id uuid.UUID,
	status domain.TaskStatus,
) error {
	result, err := s.db.ExecContext(
		ctx,
		`UPDATE subtasks SET status = $2, updated_at = now() WHERE id = $1`,
		id,
		status,
	)
	if err != nil {
		return MapError(err)
	}
	if err := CheckRowsAffected(result, "subtask"); err != nil {
		return fmt.Errorf("%w: %v", store.ErrSubtaskNotFound, err)
	}
	return nil
}

// AddComment implements store.SubtaskStore.AddComment
// Returns store.ErrSubtaskNotFound if the subtask does not exist.
func (s *PostgresSubtaskStore) AddComment(
	ctx context.Context,
	subtaskID uuid.UUID,
	comment *domain.Comment,
) error {
	query := `
		INSERT INTO comments (id, subtask_id, user_id, text, created_at, updated_at)
		VALUES ($1, $2, $3, $4, $5, $6)
	`
	_, err := s.db.ExecContext(
		ctx,
		query,
		comment.ID,
		subtaskID,
		comment.UserID,
		comment.Text,
		comment.CreatedAt,
		comment.UpdatedAt,
	)
	if err != nil {
		if IsForeignKeyViolation(err) {
			return fmt.Errorf("%w: %v", store.ErrSubtaskNotFound, err)
		}
		return MapError(err)
	}
	return nil
}

// Delete implements store.SubtaskStore.Delete
// Returns store.ErrSubtaskNotFound if the subtask does not exist.
func (s *PostgresSubtaskStore) Delete(ctx context.Context, id uuid.UUID) error {
	result, err := s.db.ExecContext(ctx, `DELETE FROM subtasks WHERE id = $1`, id)
	if err != nil {
		return MapError(err)
	}
	if err := CheckRowsAffected(result, "subtask"); err != nil {
		return fmt.Errorf("%w: %v", store.ErrSubtaskNotFound, err)
	}
	return nil
}

// DeleteByTask implements store.SubtaskStore.DeleteByTask
func (s *PostgresSubtaskStore) DeleteByTask(ctx context.Context, taskID uuid.UUID) (int, error) {
	result, err := s.db.ExecContext(ctx, `DELETE FROM subtasks WHERE task_id = $1`, taskID)
	if err != nil {
		return 0, MapError(err)
	}
	affected, err := result.RowsAffected()
	if err != nil {
		return 0, fmt.Errorf("failed to get rows affected: %w", err)
	}
	return int(affected), nil
}

// ListByTask implements store.SubtaskStore.ListByTask
// Comments are not loaded for list results.
func (s *PostgresSubtaskStore) ListByTask(
	ctx context.Context,
	taskID uuid.UUID,
	filter store.SubtaskFilter,
	limit, offset int,
) ([]*domain.Subtask, int, error) {
	conds := []string{"st.task_id = $1"}
	args := []any{taskID}

	if filter.Status != "" {
		args = append(args, filter.Status)
		conds = append(conds, fmt.Sprintf("st.status = $%d", len(args)))
	}
	if filter.Priority != "" {
		args = append(args, filter.Priority)
		conds = append(conds, fmt.Sprintf("st.priority = $%d", len(args)))
	}
	if filter.CreatorID != uuid.Nil {
		args = append(args, filter.CreatorID)
		conds = append(conds, fmt.Sprintf("st.creator_id = $%d", len(args)))
	}
	if filter.AssigneeID != uuid.Nil {
		args = append(args, filter.AssigneeID)
		conds = append(conds, fmt.Sprintf(
			"EXISTS (SELECT 1 FROM subtask_assignees sa WHERE sa.subtask_id = st.id AND sa.user_id = $%d)",
			len(args)))
	}

	where := "WHERE " + strings.Join(conds, " AND ")

	var total int
	countQuery := "SELECT count(*) FROM subtasks st " + where
	if err := s.db.QueryRowContext(ctx, countQuery, args...).Scan(&total); err != nil {
		return nil, 0, MapError(err)
	}

	args = append(args, limit, offset)
	listQuery := fmt.Sprintf(`
		SELECT st.id, st.task_id, st.title, st.description, st.status, st.priority, st.creator_id, st.created_at, st.updated_at
		FROM subtasks st
		%s
		ORDER BY st.created_at DESC
		LIMIT $%d OFFSET $%d
	`, where, len(args)-1, len(args))

	rows, err := s.db.QueryContext(ctx, listQuery, args...)
	if err != nil {
		return nil, 0, MapError(err)
	}
	defer func() { _ = rows.Close() }()

	var subtasks []*domain.Subtask
	var ids []uuid.UUID
	for rows.Next() {
		var st domain.Subtask
		if err := rows.Scan(
			&st.ID,
			&st.TaskID,
			&st.Title,
			&st.Description,
			&st.Status,
			&st.Priority,
			&st.CreatorID,
			&st.CreatedAt,
			&st.UpdatedAt,
		); err != nil {
			return nil, 0, MapError(err)
		}
		subtasks = append(subtasks, &st)
		ids = append(ids, st.ID)
	}
	if err := rows.Err(); err != nil {
		return nil, 0, MapError(err)
	}

	if len(ids) > 0 {
		assignees, err := s.loadAssignees(ctx, ids)
		if err != nil {
			return nil, 0, err
		}
		for _, st := range subtasks {
			st.AssignedTo = assignees[st.ID]
		}
	}

	return subtasks, total, nil
}

// replaceAssignees swaps the subtask's assignee set for the given one.
func (s *PostgresSubtaskStore) replaceAssignees(
	ctx context.Context,
	subtaskID uuid.UUID,
	assignees []uuid.UUID,
) error {
	if _, err := s.db.ExecContext(
		ctx,
		`DELETE FROM subtask_assignees WHERE subtask_id = $1`,
		subtaskID,
	); err != nil {
		return MapError(err)
	}

	for _, userID := range assignees {
		if _, err := s.db.ExecContext(
			ctx,
			`INSERT INTO subtask_assignees (subtask_id, user_id) VALUES ($1, $2)`,
			subtaskID,
			userID,
		); err != nil {
			return MapError(err)
		}
	}
	return nil
}

// loadAssignees fetches the assignee sets for the given subtask ids.
func (s *PostgresSubtaskStore) loadAssignees(
	ctx context.Context,
	subtaskIDs []uuid.UUID,
) (map[uuid.UUID][]uuid.UUID, error) {
	query := `
		SELECT subtask_id, user_id
		FROM subtask_assignees
		WHERE subtask_id = ANY($1::uuid[])
	`
	rows, err := s.db.QueryContext(ctx, query, uuidStrings(subtaskIDs))
	if err != nil {
		return nil, MapError(err)
	}
	defer func() { _ = rows.Close() }()

	out := make(map[uuid.UUID][]uuid.UUID, len(subtaskIDs))
	for rows.Next() {
		var subtaskID, userID uuid.UUID
		if err := rows.Scan(&subtaskID, &userID); err != nil {
			return nil, MapError(err)
		}
		out[subtaskID] = append(out[subtaskID], userID)
	}
	if err := rows.Err(); err != nil {
		return nil, MapError(err)
	}

	return out, nil
}
