package service

import (
	"context"
	"database/sql"
	"fmt"
	"log/slog"

	"github.com/google/uuid"
	"github.com/phrazzld/taskhive-api/internal/domain"
	"github.com/phrazzld/taskhive-api/internal/events"
	"github.com/phrazzld/taskhive-api/internal/service/notify"
	"github.com/phrazzld/taskhive-api/internal/store"
)

// TaskUpdate carries the editable fields of a task for an update operation.
// All fields are applied; this mirrors a full PUT of the task's structure.
type TaskUpdate struct {
	Title       string
	Description string
	Priority    domain.TaskPriority
	AssignedTo  []uuid.UUID
}

// TaskService provides task CRUD, status transitions and comments. Every
// mutation runs in a single transaction together with its notification
// fan-out; committed notifications are handed to the event emitter strictly
// after commit.
type TaskService interface {
	// CreateTask creates a task owned by the actor and notifies the
	// initial assignees.
	CreateTask(
		ctx context.Context,
		actorID uuid.UUID,
		title, description string,
		priority domain.TaskPriority,
		assignedTo []uuid.UUID,
	) (*domain.Task, error)

	// GetTask retrieves a task. Only the creator or an assignee may view it;
	// others get ErrNotParticipant.
	GetTask(ctx context.Context, actorID, taskID uuid.UUID) (*domain.Task, error)

	// ListTasks retrieves the actor's tasks matching the filter, along with
	// the total match count.
	ListTasks(
		ctx context.Context,
		actorID uuid.UUID,
		filter store.TaskFilter,
		page, limit int,
	) ([]*domain.Task, int, error)

	// UpdateTask replaces the task's content and assignee set. Creator only;
	// others get ErrNotOwned. Content edits and assignment changes fan out
	// their own notifications.
	UpdateTask(ctx context.Context, actorID, taskID uuid.UUID, update TaskUpdate) (*domain.Task, error)

	// UpdateTaskStatus transitions the task's status. Creator or assignee;
	// others get ErrNotParticipant.
	UpdateTaskStatus(
		ctx context.Context,
		actorID, taskID uuid.UUID,
		status domain.TaskStatus,
	) (*domain.Task, error)

	// AddComment appends a comment authored by the actor. Creator or
	// assignee; others get ErrNotParticipant.
	AddComment(ctx context.Context, actorID, taskID uuid.UUID, text string) (*domain.Task, error)

	// DeleteTask removes the task and all its subtasks. Creator only.
	DeleteTask(ctx context.Context, actorID, taskID uuid.UUID) error
}

// TaskServiceImpl implements the TaskService interface
type TaskServiceImpl struct {
	taskStore    store.TaskStore
	subtaskStore store.SubtaskStore
	userStore    store.UserStore
	engine       *notify.Engine
	emitter      events.EventEmitter
	db           *sql.DB
	logger       *slog.Logger
}

// NewTaskService creates a new TaskService
func NewTaskService(
	taskStore store.TaskStore,
	subtaskStore store.SubtaskStore,
	userStore store.UserStore,
	engine *notify.Engine,
	emitter events.EventEmitter,
	db *sql.DB,
	logger *slog.Logger,
) TaskService {
	return &TaskServiceImpl{
		taskStore:    taskStore,
		subtaskStore: subtaskStore,
		userStore:    userStore,
		engine:       engine,
		emitter:      emitter,
		db:           db,
		logger:       logger.With("component", "task_service"),
	}
}

// CreateTask creates a new task and fans out "assigned" notifications to the
// initial assignees inside the same transaction.
func (s *TaskServiceImpl) CreateTask(
	ctx context.Context,
	actorID uuid.UUID,
	title, description string,
	priority domain.TaskPriority,
	assignedTo []uuid.UUID,
) (*domain.Task, error) {
	task, err := domain.NewTask(actorID, title, description, priority, assignedTo)
	if err != nil {
		return nil, fmt.Errorf("failed to create task: %w", err)
	}

	actorName, err := s.actorName(ctx, actorID)
	if err != nil {
		return nil, err
	}

	var committed []*domain.Notification
	err = store.RunInTransaction(ctx, s.db, func(ctx context.Context, tx *sql.Tx) error {
		if err := s.taskStore.WithTx(tx).Create(ctx, task); err != nil {
			return fmt.Errorf("failed to save task: %w", err)
		}

		committed, err = s.engine.Notify(ctx, tx, notify.Mutation{
			Kind:          notify.KindCreated,
			ActorID:       actorID,
			ActorName:     actorName,
			TaskID:        &task.ID,
			EntityTitle:   task.Title,
			TaskCreatorID: task.CreatorID,
			Assignees:     task.AssignedTo,
		})
		return err
	})
	if err != nil {
		s.logger.Error("failed to create task",
			"error", err,
			"actor_id", actorID)
		return nil, err
	}

	s.logger.Info("task created",
		"task_id", task.ID,
		"actor_id", actorID,
		"notification_count", len(committed))

	s.emitCommitted(ctx, committed)
	return task, nil
}

// GetTask retrieves a task for a participant.
func (s *TaskServiceImpl) GetTask(
	ctx context.Context,
	actorID, taskID uuid.UUID,
) (*domain.Task, error) {
	task, err := s.taskStore.GetByID(ctx, taskID)
	if err != nil {
		return nil, fmt.Errorf("failed to retrieve task: %w", err)
	}

	if task.CreatorID != actorID && !task.IsAssignee(actorID) {
		return nil, ErrNotParticipant
	}

	return task, nil
}

// ListTasks retrieves the actor's tasks matching the filter.
func (s *TaskServiceImpl) ListTasks(
	ctx context.Context,
	actorID uuid.UUID,
	filter store.TaskFilter,
	page, limit int,
) ([]*domain.Task, int, error) {
	limit, offset := pageToOffset(page, limit)

	tasks, total, err := s.taskStore.List(ctx, actorID, filter, limit, offset)
	if err != nil {
		s.logger.Error("failed to list tasks",
			"error", err,
			"actor_id", actorID)
		return nil, 0, fmt.Errorf("failed to list tasks: %w", err)
	}

	return tasks, total, nil
}

// UpdateTask replaces the task's content and assignee set. Content edits and
// assignment deltas produce separate notification batches, both committed
// atomically with the update itself.
func (s *TaskServiceImpl) UpdateTask(
	ctx context.Context,
	actorID, taskID uuid.UUID,
	update TaskUpdate,
) (*domain.Task, error) {
	actorName, err := s.actorName(ctx, actorID)
	if err != nil {
		return nil, err
	}

	var task *domain.Task
	var committed []*domain.Notification
	err = store.RunInTransaction(ctx, s.db, func(ctx context.Context, tx *sql.Tx) error {
		txTasks := s.taskStore.WithTx(tx)

		task, err = txTasks.GetByID(ctx, taskID)
		if err != nil {
			return fmt.Errorf("failed to retrieve task: %w", err)
		}

		if task.CreatorID != actorID {
			return ErrNotOwned
		}

		before := task.AssignedTo
		contentChanged := task.Title != update.Title ||
			task.Description != update.Description ||
			task.Priority != update.Priority

		task.Title = update.Title
		task.Description = update.Description
		task.Priority = update.Priority
		task.AssignedTo = update.AssignedTo
		if err := task.Validate(); err != nil {
			return fmt.Errorf("failed to update task: %w", err)
		}

		if err := txTasks.Update(ctx, task); err != nil {
			return fmt.Errorf("failed to update task: %w", err)
		}

		added, removed := notify.DiffAssignees(before, task.AssignedTo)

		if contentChanged {
			batch, err := s.engine.Notify(ctx, tx, notify.Mutation{
				Kind:          notify.KindContentUpdated,
				ActorID:       actorID,
				ActorName:     actorName,
				TaskID:        &task.ID,
				EntityTitle:   task.Title,
				TaskCreatorID: task.CreatorID,
				Assignees:     task.AssignedTo,
			})
			if err != nil {
				return err
			}
			committed = append(committed, batch...)
		}

		if len(added) > 0 || len(removed) > 0 {
			batch, err := s.engine.Notify(ctx, tx, notify.Mutation{
				Kind:             notify.KindAssigneesChanged,
				ActorID:          actorID,
				ActorName:        actorName,
				TaskID:           &task.ID,
				EntityTitle:      task.Title,
				TaskCreatorID:    task.CreatorID,
				Assignees:        task.AssignedTo,
				AddedAssignees:   added,
				RemovedAssignees: removed,
			})
			if err != nil {
				return err
			}
			committed = append(committed, batch...)
		}

		return nil
	})
	if err != nil {
		return nil, err
	}

	s.logger.Info("task updated",
		"task_id", taskID,
		"actor_id", actorID,
		"notification_count", len(committed))

	s.emitCommitted(ctx, committed)
	return task, nil
}

// UpdateTaskStatus transitions the task's status and notifies the other
// participants.
func (s *TaskServiceImpl) UpdateTaskStatus(
	ctx context.Context,
	actorID, taskID uuid.UUID,
	status domain.TaskStatus,
) (*domain.Task, error) {
	actorName, err := s.actorName(ctx, actorID)
	if err != nil {
		return nil, err
	}

	var task *domain.Task
	var committed []*domain.Notification
	err = store.RunInTransaction(ctx, s.db, func(ctx context.Context, tx *sql.Tx) error {
		txTasks := s.taskStore.WithTx(tx)

		task, err = txTasks.GetByID(ctx, taskID)
		if err != nil {
			return fmt.Errorf("failed to retrieve task: %w", err)
		}

		if task.CreatorID != actorID && !task.IsAssignee(actorID) {
			return ErrNotParticipant
		}

		if err := task.UpdateStatus(status); err != nil {
			return fmt.Errorf("failed to update task status: %w", err)
		}

		if err := txTasks.UpdateStatus(ctx, task.ID, task.Status); err != nil {
			return fmt.Errorf("failed to update task status: %w", err)
		}

		committed, err = s.engine.Notify(ctx, tx, notify.Mutation{
			Kind:          notify.KindStatusChanged,
			ActorID:       actorID,
			ActorName:     actorName,
			TaskID:        &task.ID,
			EntityTitle:   task.Title,
			TaskCreatorID: task.CreatorID,
			Assignees:     task.AssignedTo,
			NewStatus:     task.Status,
		})
		return err
	})
	if err != nil {
		return nil, err
	}

	s.logger.Info("task status updated",
		"task_id", taskID,
		"actor_id", actorID,
		"status", task.Status)

	s.emitCommitted(ctx, committed)
	return task, nil
}

// AddComment appends a comment and notifies the other participants, echoing
// the comment text into the message.
func (s *TaskServiceImpl) AddComment(
	ctx context.Context,
	actorID, taskID uuid.UUID,
	text string,
) (*domain.Task, error) {
	comment, err := domain.NewComment(actorID, text)
	if err != nil {
		return nil, fmt.Errorf("failed to create comment: %w", err)
	}

	actorName, err := s.actorName(ctx, actorID)
	if err != nil {
		return nil, err
	}

	var task *domain.Task
	var committed []*domain.Notification
	err = store.RunInTransaction(ctx, s.db, func(ctx context.Context, tx *sql.Tx) error {
		txTasks := s.taskStore.WithTx(tx)

		task, err = txTasks.GetByID(ctx, taskID)
		if err != nil {
			return fmt.Errorf("failed to retrieve task: %w", err)
		}

		if task.CreatorID != actorID && !task.IsAssignee(actorID) {
			return ErrNotParticipant
		}

		if err := txTasks.AddComment(ctx, task.ID, comment); err != nil {
			return fmt.Errorf("failed to add comment: %w", err)
		}
		task.Comments = append(task.Comments, *comment)

		committed, err = s.engine.Notify(ctx, tx, notify.Mutation{
			Kind:          notify.KindCommentAdded,
			ActorID:       actorID,
			ActorName:     actorName,
			TaskID:        &task.ID,
			EntityTitle:   task.Title,
			TaskCreatorID: task.CreatorID,
			Assignees:     task.AssignedTo,
			CommentText:   comment.Text,
		})
		return err
	})
	if err != nil {
		return nil, err
	}

	s.logger.Info("comment added to task",
		"task_id", taskID,
		"actor_id", actorID)

	s.emitCommitted(ctx, committed)
	return task, nil
}

// DeleteTask removes the task along with its subtasks and notifies the
// remaining participants. Deletion notifications outlive the task itself.
func (s *TaskServiceImpl) DeleteTask(ctx context.Context, actorID, taskID uuid.UUID) error {
	actorName, err := s.actorName(ctx, actorID)
	if err != nil {
		return err
	}

	var committed []*domain.Notification
	err = store.RunInTransaction(ctx, s.db, func(ctx context.Context, tx *sql.Tx) error {
		txTasks := s.taskStore.WithTx(tx)

		task, err := txTasks.GetByID(ctx, taskID)
		if err != nil {
			return fmt.Errorf("failed to retrieve task: %w", err)
		}

		if task.CreatorID != actorID {
			return ErrNotOwned
		}

		// Notification anchors carry no foreign keys, so these records
		// survive the task's deletion and stay retrievable afterwards.
		committed, err = s.engine.Notify(ctx, tx, notify.Mutation{
			Kind:          notify.KindDeleted,
			ActorID:       actorID,
			ActorName:     actorName,
			TaskID:        &task.ID,
			EntityTitle:   task.Title,
			TaskCreatorID: task.CreatorID,
			Assignees:     task.AssignedTo,
		})
		if err != nil {
			return err
		}

		removed, err := s.subtaskStore.WithTx(tx).DeleteByTask(ctx, taskID)
		if err != nil {
			return fmt.Errorf("failed to delete subtasks: %w", err)
		}
		if removed > 0 {
			s.logger.Debug("deleted subtasks with parent task",
				"task_id", taskID,
				"subtask_count", removed)
		}

		if err := txTasks.Delete(ctx, taskID); err != nil {
			return fmt.Errorf("failed to delete task: %w", err)
		}

		return nil
	})
	if err != nil {
		return err
	}

	s.logger.Info("task deleted",
		"task_id", taskID,
		"actor_id", actorID)

	s.emitCommitted(ctx, committed)
	return nil
}

// actorName resolves the acting user's display name for message templating.
func (s *TaskServiceImpl) actorName(ctx context.Context, actorID uuid.UUID) (string, error) {
	actor, err := s.userStore.GetByID(ctx, actorID)
	if err != nil {
		return "", fmt.Errorf("failed to retrieve acting user: %w", err)
	}
	return actor.Username, nil
}

// emitCommitted hands committed notifications to the real-time layer. Runs
// strictly after the producing transaction; a failed emit is logged and
// swallowed since the durable records already exist.
func (s *TaskServiceImpl) emitCommitted(ctx context.Context, committed []*domain.Notification) {
	if len(committed) == 0 || s.emitter == nil {
		return
	}
	if err := s.emitter.EmitEvent(ctx, events.NewNotificationCommittedEvent(committed)); err != nil {
		s.logger.Warn("failed to emit committed notifications",
			"error", err,
			"notification_count", len(committed))
	}
}

// pageToOffset converts 1-based page/limit into limit/offset, applying the
// defaults the API documents (page 1, 10 items).
func pageToOffset(page, limit int) (int, int) {
	if page < 1 {
		page = 1
	}
	if limit < 1 {
		limit = 10
	}
	return limit, (page - 1) * limit
}
