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

// PostgresTaskStore implements the store.TaskStore interface
// using a PostgreSQL database as the storage backend. Assignees live in the
// task_assignees join table; comments in the shared comments table.
type PostgresTaskStore struct {
	db     store.DBTX
	logger *slog.Logger
}

// NewPostgresTaskStore creates a new PostgreSQL implementation of the
// TaskStore interface. It accepts a database connection or transaction that
// should be initialized and managed by the caller.
func NewPostgresTaskStore(db store.DBTX, logger *slog.Logger) *PostgresTaskStore {
	if db == nil {
		panic("db cannot be nil")
	}
	if logger == nil {
		logger = slog.Default()
	}

	return &PostgresTaskStore{
		db:     db,
		logger: logger.With(slog.String("component", "task_store")),
	}
}

// Ensure PostgresTaskStore implements store.TaskStore interface
var _ store.TaskStore = (*PostgresTaskStore)(nil)

// WithTx implements store.TaskStore.WithTx
func (s *PostgresTaskStore) WithTx(tx *sql.Tx) store.TaskStore {
	return &PostgresTaskStore{
		db:     tx,
		logger: s.logger,
	}
}

// Create implements store.TaskStore.Create
// Returns store.ErrInvalidEntity if the creator or an assignee does not exist
// (foreign key violation).
func (s *PostgresTaskStore) Create(ctx context.Context, task *domain.Task) error {
	log := logger.FromContextOrDefault(ctx, s.logger)

	if err := task.Validate(); err != nil {
		log.Warn("task validation failed during create",
			slog.String("error", err.Error()),
			slog.String("task_id", task.ID.String()))
		return err
	}

	query := `
		INSERT INTO tasks (id, title, description, status, priority, creator_id, created_at, updated_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8)
	`
	_, err := s.db.ExecContext(
		ctx,
		query,
		task.ID,
		task.Title,
		task.Description,
		task.Status,
		task.Priority,
		task.CreatorID,
		task.CreatedAt,
		task.UpdatedAt,
	)
	if err != nil {
		log.Error("failed to create task",
			slog.String("error", err.Error()),
			slog.String("task_id", task.ID.String()),
			slog.String("creator_id", task.CreatorID.String()))
		return MapError(err)
	}

	if err := s.replaceAssignees(ctx, task.ID, task.AssignedTo); err != nil {
		return err
	}

	log.Info("task created successfully",
		slog.String("task_id", task.ID.String()),
		slog.String("creator_id", task.CreatorID.String()),
		slog.Int("assignee_count", len(task.AssignedTo)))
	return nil
}

// GetByID implements store.TaskStore.GetByID
// Returns store.ErrTaskNotFound if the task does not exist.
func (s *PostgresTaskStore) GetByID(ctx context.Context, id uuid.UUID) (*domain.Task, error) {
	query := `
		SELECT id, title, description, status, priority, creator_id, created_at, updated_at
		FROM tasks
		WHERE id = $1
	`
	var t domain.Task
	err := s.db.QueryRowContext(ctx, query, id).Scan(
		&t.ID,
		&t.Title,
		&t.Description,
		&t.Status,
		&t.Priority,
		&t.CreatorID,
		&t.CreatedAt,
		&t.UpdatedAt,
	)
	if err != nil {
		if err == sql.ErrNoRows {
			return nil, store.ErrTaskNotFound
		}
		return nil, MapError(err)
	}

	assignees, err := s.loadAssignees(ctx, []uuid.UUID{t.ID})
	if err != nil {
		return nil, err
	}
	t.AssignedTo = assignees[t.ID]

	comments, err := loadComments(ctx, s.db, "task_id", t.ID)
	if err != nil {
		return nil, err
	}
	t.Comments = comments

	return &t, nil
}

// Update implements store.TaskStore.Update
// It saves title, description, priority and the assignee set.
// Returns store.ErrTaskNotFound if the task does not exist.
func (s *PostgresTaskStore) Update(ctx context.Context, task *domain.Task) error {
	if err := task.Validate(); err != nil {
		return err
	}

	query := `
		UPDATE tasks
		SET title = $2, description = $3, priority = $4, updated_at = $5
		WHERE id = $1
	`
	result, err := s.db.ExecContext(
		ctx,
		query,
		task.ID,
		task.Title,
		task.Description,
		task.Priority,
		task.UpdatedAt,
	)
	if err != nil {
		return MapError(err)
	}
	if err := CheckRowsAffected(result, "task"); err != nil {
		return fmt.Errorf("%w: %v", store.ErrTaskNotFound, err)
	}

	return s.replaceAssignees(ctx, task.ID, task.AssignedTo)
}

// UpdateStatus implements store.TaskStore.UpdateStatus
// Returns store.ErrTaskNotFound if the task does not exist.
func (s *PostgresTaskStore) UpdateStatus(
	ctx context.Context,
	id uuid.UUID,
	status domain.TaskStatus,
) error {
	result, err := s.db.ExecContext(
		ctx,
		`UPDATE tasks SET status = $2, updated_at = now() WHERE id = $1`,
		id,
		status,
	)
	if err != nil {
		return MapError(err)
	}
	if err := CheckRowsAffected(result, "task"); err != nil {
		return fmt.Errorf("%w: %v", store.ErrTaskNotFound, err)
	}
	return nil
}

// AddComment implements store.TaskStore.AddComment
// Returns store.ErrTaskNotFound if the task does not exist.
func (s *PostgresTaskStore) AddComment(
	ctx context.Context,
	taskID uuid.UUID,
	comment *domain.Comment,
) error {
	query := `
		INSERT INTO comments (id, task_id, user_id, text, created_at, updated_at)
		VALUES ($1, $2, $3, $4, $5, $6)
	`
	_, err := s.db.ExecContext(
		ctx,
		query,
		comment.ID,
		taskID,
		comment.UserID,
		comment.Text,
		comment.CreatedAt,
		comment.UpdatedAt,
	)
	if err != nil {
		if IsForeignKeyViolation(err) {
			return fmt.Errorf("%w: %v", store.ErrTaskNotFound, err)
		}
		return MapError(err)
	}
	return nil
}

// Delete implements store.TaskStore.Delete
// Assignee and comment rows are removed by ON DELETE CASCADE.
// Returns store.ErrTaskNotFound if the task does not exist.
func (s *PostgresTaskStore) Delete(ctx context.Context, id uuid.UUID) error {
	result, err := s.db.ExecContext(ctx, `DELETE FROM tasks WHERE id = $1`, id)
	if err != nil {
		return MapError(err)
	}
	if err := CheckRowsAffected(result, "task"); err != nil {
		return fmt.Errorf("%w: %v", store.ErrTaskNotFound, err)
	}
	return nil
}

// List implements store.TaskStore.List
// Comments are not loaded for list results.
func (s *PostgresTaskStore) List(
	ctx context.Context,
	userID uuid.UUID,
	filter store.TaskFilter,
	limit, offset int,
) ([]*domain.Task, int, error) {
	conds := make([]string, 0, 4)
	args := make([]any, 0, 4)

	args = append(args, userID)
	switch filter.Role {
	case store.TaskRoleCreator:
		conds = append(conds, "t.creator_id = $1")
	case store.TaskRoleAssignee:
		conds = append(conds,
			"EXISTS (SELECT 1 FROM task_assignees ta WHERE ta.task_id = t.id AND ta.user_id = $1)")
	default:
		conds = append(conds,
			"(t.creator_id = $1 OR EXISTS (SELECT 1 FROM task_assignees ta WHERE ta.task_id = t.id AND ta.user_id = $1))")
	}

	if filter.Status != "" {
		args = append(args, filter.Status)
		conds = append(conds, fmt.Sprintf("t.status = $%d", len(args)))
	}
	if filter.Priority != "" {
		args = append(args, filter.Priority)
		conds = append(conds, fmt.Sprintf("t.priority = $%d", len(args)))
	}

	where := "WHERE " + strings.Join(conds, " AND ")

	var total int
	countQuery := "SELECT count(*) FROM tasks t " + where
	if err := s.db.QueryRowContext(ctx, countQuery, args...).Scan(&total); err != nil {
		return nil, 0, MapError(err)
	}

	args = append(args, limit, offset)
	listQuery := fmt.Sprintf(`
		SELECT t.id, t.title, t.description, t.status, t.priority, t.creator_id, t.created_at, t.updated_at
		FROM tasks t
		%s
		ORDER BY t.created_at DESC
		LIMIT $%d OFFSET $%d
	`, where, len(args)-1, len(args))

	rows, err := s.db.QueryContext(ctx, listQuery, args...)
	if err != nil {
		return nil, 0, MapError(err)
	}
	defer func() { _ = rows.Close() }()

	var tasks []*domain.Task
	var ids []uuid.UUID
	for rows.Next() {
		var t domain.Task
		if err := rows.Scan(
			&t.ID,
			&t.Title,
			&t.Description,
			&t.Status,
			&t.Priority,
			&t.CreatorID,
			&t.CreatedAt,
			&t.UpdatedAt,
		); err != nil {
			return nil, 0, MapError(err)
		}
		tasks = append(tasks, &t)
		ids = append(ids, t.ID)
	}
	if err := rows.Err(); err != nil {
		return nil, 0, MapError(err)
	}

	if len(ids) > 0 {
		assignees, err := s.loadAssignees(ctx, ids)
		if err != nil {
			return nil, 0, err
		}
		for _, t := range tasks {
			t.AssignedTo = assignees[t.ID]
		}
	}

	return tasks, total, nil
}

// replaceAssignees swaps the task's assignee set for the given one.
func (s *PostgresTaskStore) replaceAssignees(
	ctx context.Context,
	taskID uuid.UUID,
	assignees []uuid.UUID,
) error {
	if _, err := s.db.ExecContext(
		ctx,
		`DELETE FROM task_assignees WHERE task_id = $1`,
		taskID,
	); err != nil {
		return MapError(err)
	}

	for _, userID := range assignees {
		if _, err := s.db.ExecContext(
			ctx,
			`INSERT INTO task_assignees (task_id, user_id) VALUES ($1, $2)`,
			taskID,
			userID,
		); err != nil {
			return MapError(err)
		}
	}
	return nil
}

// loadAssignees fetches the assignee sets for the given task ids.
func (s *PostgresTaskStore) loadAssignees(
	ctx context.Context,
	taskIDs []uuid.UUID,
) (map[uuid.UUID][]uuid.UUID, error) {
	query := `
		SELECT task_id, user_id
		FROM task_assignees
		WHERE task_id = ANY($1::uuid[])
	`
	rows, err := s.db.QueryContext(ctx, query, uuidStrings(taskIDs))
	if err != nil {
		return nil, MapError(err)
	}
	defer func() { _ = rows.Close() }()

	out := make(map[uuid.UUID][]uuid.UUID, len(taskIDs))
	for rows.Next() {
		var taskID, userID uuid.UUID
		if err := rows.Scan(&taskID, &userID); err != nil {
			return nil, MapError(err)
		}
		out[taskID] = append(out[taskID], userID)
	}
	if err := rows.Err(); err != nil {
		return nil, MapError(err)
	}

	return out, nil
}

// loadComments fetches the comments anchored to a task or subtask,
// oldest first. anchorColumn is either "task_id" or "subtask_id".
func loadComments(
	ctx context.Context,
	db store.DBTX,
	anchorColumn string,
	anchorID uuid.UUID,
) ([]domain.Comment, error) {
	query := fmt.Sprintf(`
		SELECT id, user_id, text, created_at, updated_at
		FROM comments
		WHERE %s = $1
		ORDER BY created_at
	`, anchorColumn)

	rows, err := db.QueryContext(ctx, query, anchorID)
	if err != nil {
		return nil, MapError(err)
	}
	defer func() { _ = rows.Close() }()

	var comments []domain.Comment
	for rows.Next() {
		var c domain.Comment
		if err := rows.Scan(&c.ID, &c.UserID, &c.Text, &c.CreatedAt, &c.UpdatedAt); err != nil {
			return nil, MapError(err)
		}
		comments = append(comments, c)
	}
	if err := rows.Err(); err != nil {
		return nil, MapError(err)
	}

	return comments, nil
}
