package store

import (
	"context"
	"database/sql"

	"github.com/google/uuid"
	"github.com/phrazzld/taskhive-api/internal/domain"
)

// TaskRole selects which relationship to the requesting user a task list
// query is scoped by.
type TaskRole string

// Task list scopes
const (
	// TaskRoleAny matches tasks the user either created or is assigned to.
	TaskRoleAny TaskRole = "any"
	// TaskRoleCreator matches tasks the user created.
	TaskRoleCreator TaskRole = "creator"
	// TaskRoleAssignee matches tasks the user is assigned to.
	TaskRoleAssignee TaskRole = "assignee"
)

// TaskFilter narrows task list queries. Zero values mean "no constraint".
type TaskFilter struct {
	Status   domain.TaskStatus
	Priority domain.TaskPriority
	Role     TaskRole
}

// TaskStore defines the interface for task data persistence.
type TaskStore interface {
	// Create saves a new task to the store.
	// It handles domain validation internally.
	Create(ctx context.Context, task *domain.Task) error

	// GetByID retrieves a task by its unique ID, including its comments.
	// Returns ErrTaskNotFound if the task does not exist.
	GetByID(ctx context.Context, id uuid.UUID) (*domain.Task, error)

	// Update saves changes to an existing task's content and assignees.
	// Returns ErrTaskNotFound if the task does not exist.
	Update(ctx context.Context, task *domain.Task) error

	// UpdateStatus updates the status of an existing task.
	// Returns ErrTaskNotFound if the task does not exist.
	UpdateStatus(ctx context.Context, id uuid.UUID, status domain.TaskStatus) error

	// AddComment appends a comment to an existing task.
	// Returns ErrTaskNotFound if the task does not exist.
	AddComment(ctx context.Context, taskID uuid.UUID, comment *domain.Comment) error

	// Delete removes a task. Subtask cleanup is the caller's concern.
	// Returns ErrTaskNotFound if the task does not exist.
	Delete(ctx context.Context, id uuid.UUID) error

	// List retrieves the tasks matching the filter for the given user,
	// paginated by limit/offset, along with the total match count.
	List(
		ctx context.Context,
		userID uuid.UUID,
		filter TaskFilter,
		limit, offset int,
	) ([]*domain.Task, int, error)

	// WithTx returns a new TaskStore instance that uses the provided transaction.
	// This allows for multiple operations to be executed within a single transaction.
	WithTx(tx *sql.Tx) TaskStore
}
