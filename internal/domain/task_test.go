package domain

import (
	"testing"

	"github.com/google/uuid"
)

func TestNewTask(t *testing.T) {
	creator := uuid.New()
	assignee := uuid.New()

	task, err := NewTask(creator, "write report", "quarterly numbers", TaskPriorityHigh,
		[]uuid.UUID{assignee, assignee})
	if err != nil {
		t.Fatalf("Expected no error, got %v", err)
	}

	if task.ID == uuid.Nil {
		t.Error("Expected non-nil UUID, got nil UUID")
	}

	if task.Status != TaskStatusPending {
		t.Errorf("Expected status %s, got %s", TaskStatusPending, task.Status)
	}

	if task.Priority != TaskPriorityHigh {
		t.Errorf("Expected priority %s, got %s", TaskPriorityHigh, task.Priority)
	}

	// Duplicate assignees collapse to one
	if len(task.AssignedTo) != 1 {
		t.Errorf("Expected 1 assignee after dedupe, got %d", len(task.AssignedTo))
	}

	if task.CreatedAt.IsZero() || task.UpdatedAt.IsZero() {
		t.Error("Expected non-zero timestamps")
	}

	// Empty priority defaults to medium
	task, err = NewTask(creator, "write report", "", "", nil)
	if err != nil {
		t.Fatalf("Expected no error, got %v", err)
	}
	if task.Priority != TaskPriorityMedium {
		t.Errorf("Expected priority %s, got %s", TaskPriorityMedium, task.Priority)
	}

	// Test empty title
	_, err = NewTask(creator, "", "", "", nil)
	if err != ErrEmptyTaskTitle {
		t.Errorf("Expected error %v, got %v", ErrEmptyTaskTitle, err)
	}

	// Test missing creator
	_, err = NewTask(uuid.Nil, "write report", "", "", nil)
	if err != ErrEmptyTaskCreator {
		t.Errorf("Expected error %v, got %v", ErrEmptyTaskCreator, err)
	}

	// Test invalid priority
	_, err = NewTask(creator, "write report", "", TaskPriority("urgent"), nil)
	if err != ErrInvalidTaskPriority {
		t.Errorf("Expected error %v, got %v", ErrInvalidTaskPriority, err)
	}
}

func TestTaskUpdateStatus(t *testing.T) {
	task, err := NewTask(uuid.New(), "write report", "", "", nil)
	if err != nil {
		t.Fatalf("Expected no error, got %v", err)
	}

	if err := task.UpdateStatus(TaskStatusCompleted); err != nil {
		t.Errorf("Expected no error, got %v", err)
	}
	if task.Status != TaskStatusCompleted {
		t.Errorf("Expected status %s, got %s", TaskStatusCompleted, task.Status)
	}

	if err := task.UpdateStatus(TaskStatus("archived")); err != ErrInvalidTaskStatus {
		t.Errorf("Expected error %v, got %v", ErrInvalidTaskStatus, err)
	}
}

func TestTaskIsAssignee(t *testing.T) {
	assignee := uuid.New()
	task, err := NewTask(uuid.New(), "write report", "", "", []uuid.UUID{assignee})
	if err != nil {
		t.Fatalf("Expected no error, got %v", err)
	}

	if !task.IsAssignee(assignee) {
		t.Error("Expected assignee to be recognized")
	}
	if task.IsAssignee(uuid.New()) {
		t.Error("Expected unknown user to not be an assignee")
	}
}

func TestNewSubtask(t *testing.T) {
	taskID := uuid.New()
	creator := uuid.New()

	subtask, err := NewSubtask(taskID, creator, "draft outline", "", TaskPriorityLow, nil)
	if err != nil {
		t.Fatalf("Expected no error, got %v", err)
	}

	if subtask.TaskID != taskID {
		t.Errorf("Expected task ID %s, got %s", taskID, subtask.TaskID)
	}

	if subtask.Status != TaskStatusPending {
		t.Errorf("Expected status %s, got %s", TaskStatusPending, subtask.Status)
	}

	// Test missing parent task
	_, err = NewSubtask(uuid.Nil, creator, "draft outline", "", "", nil)
	if err != ErrEmptyParentTaskID {
		t.Errorf("Expected error %v, got %v", ErrEmptyParentTaskID, err)
	}
}

func TestNewComment(t *testing.T) {
	author := uuid.New()

	comment, err := NewComment(author, "looks good")
	if err != nil {
		t.Fatalf("Expected no error, got %v", err)
	}
	if comment.UserID != author {
		t.Errorf("Expected user ID %s, got %s", author, comment.UserID)
	}

	_, err = NewComment(author, "")
	if err != ErrEmptyCommentText {
		t.Errorf("Expected error %v, got %v", ErrEmptyCommentText, err)
	}

	_, err = NewComment(uuid.Nil, "looks good")
	if err != ErrEmptyCommentUser {
		t.Errorf("Expected error %v, got %v", ErrEmptyCommentUser, err)
	}
}
