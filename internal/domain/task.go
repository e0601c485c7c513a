package domain

import (
	"errors"
	"time"

	"github.com/google/uuid"
)

// TaskStatus represents the completion state of a task or subtask.
type TaskStatus string

// Possible task status values
const (
	TaskStatusPending   TaskStatus = "pending"
	TaskStatusCompleted TaskStatus = "completed"
)

// TaskPriority represents the urgency of a task or subtask.
type TaskPriority string

// Possible task priority values
const (
	TaskPriorityLow    TaskPriority = "low"
	TaskPriorityMedium TaskPriority = "medium"
	TaskPriorityHigh   TaskPriority = "high"
)

// Common validation errors for Task
var (
	ErrEmptyTaskID      = errors.New("task ID cannot be empty")
	ErrEmptyTaskTitle   = errors.New("task title cannot be empty")
	ErrEmptyTaskCreator = errors.New("task creator cannot be empty")
	ErrEmptyCommentText = errors.New("comment text cannot be empty")
	ErrEmptyCommentUser = errors.New("comment user cannot be empty")
)

// Comment is a timestamped remark left on a task or subtask by a participant.
type Comment struct {
	ID        uuid.UUID `json:"id"`
	UserID    uuid.UUID `json:"user_id"`
	Text      string    `json:"text"`
	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
}

// NewComment creates a validated Comment authored by the given user.
func NewComment(userID uuid.UUID, text string) (*Comment, error) {
	if userID == uuid.Nil {
		return nil, ErrEmptyCommentUser
	}
	if text == "" {
		return nil, ErrEmptyCommentText
	}
	now := time.Now().UTC()
	return &Comment{
		ID:        uuid.New(),
		UserID:    userID,
		Text:      text,
		CreatedAt: now,
		UpdatedAt: now,
	}, nil
}

// Task is the top-level unit of work. The creator administers the task's
// structure; AssignedTo holds the participants responsible for carrying it
// out. AssignedTo has set semantics: order is irrelevant and ids never repeat.
type Task struct {
	ID          uuid.UUID    `json:"id"`
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

// NewTask creates a new Task owned by the given creator.
// Status defaults to pending; priority defaults to medium when empty.
// Returns an error if validation fails.
func NewTask(
	creatorID uuid.UUID,
	title, description string,
	priority TaskPriority,
	assignedTo []uuid.UUID,
) (*Task, error) {
	if priority == "" {
		priority = TaskPriorityMedium
	}
	now := time.Now().UTC()
	task := &Task{
		ID:          uuid.New(),
		Title:       title,
		Description: description,
		Status:      TaskStatusPending,
		Priority:    priority,
		CreatorID:   creatorID,
		AssignedTo:  dedupeIDs(assignedTo),
		CreatedAt:   now,
		UpdatedAt:   now,
	}

	if err := task.Validate(); err != nil {
		return nil, err
	}

	return task, nil
}

// Validate checks if the Task has valid data.
// Returns an error if any field fails validation.
func (t *Task) Validate() error {
	if t.ID == uuid.Nil {
		return ErrEmptyTaskID
	}

	if t.Title == "" {
		return ErrEmptyTaskTitle
	}

	if t.CreatorID == uuid.Nil {
		return ErrEmptyTaskCreator
	}

	if !isValidTaskStatus(t.Status) {
		return ErrInvalidTaskStatus
	}

	if !isValidTaskPriority(t.Priority) {
		return ErrInvalidTaskPriority
	}

	return nil
}

// UpdateStatus updates the task's status and the UpdatedAt timestamp.
// Returns an error if the new status is invalid.
func (t *Task) UpdateStatus(status TaskStatus) error {
	if !isValidTaskStatus(status) {
		return ErrInvalidTaskStatus
	}
	t.Status = status
	t.UpdatedAt = time.Now().UTC()
	return nil
}

// IsAssignee reports whether the given user is currently assigned to the task.
func (t *Task) IsAssignee(userID uuid.UUID) bool {
	return containsID(t.AssignedTo, userID)
}

// isValidTaskStatus checks if the given status is a valid TaskStatus.
func isValidTaskStatus(status TaskStatus) bool {
	switch status {
	case TaskStatusPending, TaskStatusCompleted:
		return true
	default:
		return false
	}
}

// isValidTaskPriority checks if the given priority is a valid TaskPriority.
func isValidTaskPriority(priority TaskPriority) bool {
	switch priority {
	case TaskPriorityLow, TaskPriorityMedium, TaskPriorityHigh:
		return true
	default:
		return false
	}
}

// containsID reports whether ids contains id.
func containsID(ids []uuid.UUID, id uuid.UUID) bool {
	for _, v := range ids {
		if v == id {
			return true
		}
	}
	return false
}

// dedupeIDs returns ids with duplicates removed, preserving first-seen order.
func dedupeIDs(ids []uuid.UUID) []uuid.UUID {
	if len(ids) == 0 {
		return nil
	}
	seen := make(map[uuid.UUID]struct{}, len(ids))
	out := make([]uuid.UUID, 0, len(ids))
	for _, id := range ids {
		if _, ok := seen[id]; ok {
			continue
		}
		seen[id] = struct{}{}
		out = append(out, id)
	}
	return out
}
