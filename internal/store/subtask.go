package store

import (
	"context"
	"database/sql"

	"github.com/google/uuid"
	"github.com/phrazzld/taskhive-api/internal/domain"
)

// SubtaskFilter narrows subtask list queries. Zero values mean "no constraint".
type SubtaskFilter struct {
	Status   domain.TaskStatus
	Priority domain.TaskPriority
	// CreatorID, when set, restricts results to subtasks created by that user.
	CreatorID uuid.UUID
	// AssigneeID, when set, restricts results to subtasks assigned to that user.
	AssigneeID uuid.UUID
}

// SubtaskStore defines the interface for subtask data persistence.
type SubtaskStore interface {
	// Create saves a new subtask to the store.
	// It handles domain validation internally.
	// Returns ErrInvalidEntity if the parent task does not exist.
	Create(ctx context.Context, subtask *domain.Subtask) error

	// GetByID retrieves a subtask by its unique ID, including its comments.
	// Returns ErrSubtaskNotFound if the subtask does not exist.
	GetByID(ctx context.Context, id uuid.UUID) (*domain.Subtask, error)

	// Update saves changes to an existing subtask's content and assignees.
	// Returns ErrSubtaskNotFound if the subtask does not exist.
	Update(ctx context.Context, subtask *domain.Subtask) error

	// UpdateStatus updates the status of an existing subtask.
	// Returns ErrSubtaskNotFound if the subtask does not exist.
	UpdateStatus(ctx context.Context, id uuid.UUID, status domain.TaskStatus) error

	// AddComment appends a comment to an existing subtask.
	// Returns ErrSubtaskNotFound if the subtask does not exist.
	AddComment(ctx context.Context, subtaskID uuid.UUID, comment *domain.Comment) error

	// Delete removes a subtask.
	// Returns ErrSubtaskNotFound if the subtask does not exist.
	Delete(ctx context.Context, id uuid.UUID) error

	// DeleteByTask removes every subtask belonging to the given task and
	// returns the number of subtasks removed.
	DeleteByTask(ctx context.Context, taskID uuid.UUID) (int, error)

	// ListByTask retrieves the subtasks of a task matching the filter,
	// paginated by limit/offset, along with the total match count.
	ListByTask(
		ctx context.Context,
		taskID uuid.UUID,
		filter SubtaskFilter,
		limit, offset int,
	) ([]*domain.Subtask, int, error)

	// WithTx returns a new SubtaskStore instance that uses the provided transaction.
	WithTx(tx *sql.Tx) SubtaskStore
}
