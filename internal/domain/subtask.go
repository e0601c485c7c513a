package domain

import (
	"errors"
	"time"

	"github.com/google/uuid"
)

// Common validation errors for Subtask
var (
	ErrEmptySubtaskID      = errors.New("subtask ID cannot be empty")
	ErrEmptySubtaskTitle   = errors.New("subtask title cannot be empty")
	ErrEmptySubtaskCreator = errors.New("subtask creator cannot be empty")
	ErrEmptyParentTaskID   = errors.New("subtask parent task ID cannot be empty")
)

// Subtask is a unit of work nested under a Task. Structurally it mirrors its
// parent; TaskID is the back-reference. A subtask's assignees must stay a
// subset of the parent task's participants (assignees plus the task creator);
// the service layer enforces that on every write.
type Subtask struct {
	ID          uuid.UUID    `json:"id"`
	TaskID      uuid.UUID    `json:"task_id"`
	Title       string       `json:"title"`
	Description string       `json:"description"`
	Status      TaskStatus   `json:"status"`
	Priority    TaskPriority `json:"priority"`
	CreatorID   uuid.UUID    `json:"creator_id"`
	AssignedTo  []uuid.UUID  `json:"assigned_to"`
	Comments    []Comment    `json:"comments"`
	CreatedAt   time.Time    `json:"created_at"`
	UpdatedAt   time.Time    `json:"updated_at"`
}

// NewSubtask creates a new Subtask under the given parent task.
// Status defaults to pending; priority defaults to medium when empty.
// Returns an error if validation fails.
func NewSubtask(
	taskID, creatorID uuid.UUID,
	title, description string,
	priority TaskPriority,
	assignedTo []uuid.UUID,
) (*Subtask, error) {
	if priority == "" {
		priority = TaskPriorityMedium
	}
	now := time.Now().UTC()
	subtask := &Subtask{
		ID:          uuid.New(),
		TaskID:      taskID,
		Title:       title,
		Description: description,
		Status:      TaskStatusPending,
		Priority:    priority,
		CreatorID:   creatorID,
		AssignedTo:  dedupeIDs(assignedTo),
		CreatedAt:   now,
		UpdatedAt:   now,
	}

	if err := subtask.Validate(); err != nil {
		return nil, err
	}

	return subtask, nil
}

// Validate checks if the Subtask has valid data.
// Returns an error if any field fails validation.
func (s *Subtask) Validate() error {
	if s.ID == uuid.Nil {
		return ErrEmptySubtaskID
	}

	if s.TaskID == uuid.Nil {
		return ErrEmptyParentTaskID
	}

	if s.Title == "" {
		return ErrEmptySubtaskTitle
	}

	if s.CreatorID == uuid.Nil {
		return ErrEmptySubtaskCreator
	}

	if !isValidTaskStatus(s.Status) {
		return ErrInvalidTaskStatus
	}

	if !isValidTaskPriority(s.Priority) {
		return ErrInvalidTaskPriority
	}

	return nil
}

// UpdateStatus updates the subtask's status and the UpdatedAt timestamp.
// Returns an error if the new status is invalid.
func (s *Subtask) UpdateStatus(status TaskStatus) error {
	if !isValidTaskStatus(status) {
		return ErrInvalidTaskStatus
	}
	s.Status = status
	s.UpdatedAt = time.Now().UTC()
	return nil
}

// IsAssignee reports whether the given user is currently assigned to the subtask.
func (s *Subtask) IsAssignee(userID uuid.UUID) bool {
	return containsID(s.AssignedTo, userID)
}
