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

// SubtaskUpdate carries the editable fields of a subtask for an update
// operation.
type SubtaskUpdate struct {
	Title       string
	Description string
	Priority    domain.TaskPriority
	AssignedTo  []uuid.UUID
}

// SubtaskService provides subtask CRUD, status transitions and comments
// under a parent task. Authorization spans both levels: the parent task's
// creator retains admin rights over every subtask, and subtask assignees
// must be drawn from the parent task's participants.
type SubtaskService interface {
	// CreateSubtask creates a subtask under the given task. The actor must
	// be a participant of the parent task; every assignee must be a parent
	// task participant too, otherwise ErrAssigneeOutsideTask.
	CreateSubtask(
		ctx context.Context,
		actorID, taskID uuid.UUID,
		title, description string,
		priority domain.TaskPriority,
		assignedTo []uuid.UUID,
	) (*domain.Subtask, error)

	// GetSubtask retrieves a subtask. The task creator, the subtask creator
	// or a subtask assignee may view it; others get ErrNotParticipant.
	GetSubtask(ctx context.Context, actorID, subtaskID uuid.UUID) (*domain.Subtask, error)

	// ListSubtasks retrieves the subtasks of a task matching the filter.
	// The actor must be a participant of the parent task.
	ListSubtasks(
		ctx context.Context,
		actorID, taskID uuid.UUID,
		filter store.SubtaskFilter,
		page, limit int,
	) ([]*domain.Subtask, int, error)

	// UpdateSubtask replaces the subtask's content and assignee set. Task
	// creator or subtask creator only; others get ErrNotOwned.
	UpdateSubtask(
		ctx context.Context,
		actorID, subtaskID uuid.UUID,
		update SubtaskUpdate,
	) (*domain.Subtask, error)

	// UpdateSubtaskStatus transitions the subtask's status. Task creator,
	// subtask creator or subtask assignee; others get ErrNotParticipant.
	UpdateSubtaskStatus(
		ctx context.Context,
		actorID, subtaskID uuid.UUID,
		status domain.TaskStatus,
	) (*domain.Subtask, error)

	// AddComment appends a comment authored by the actor. Task creator,
	// subtask creator or subtask assignee; others get ErrNotParticipant.
	AddComment(ctx context.Context, actorID, subtaskID uuid.UUID, text string) (*domain.Subtask, error)

	// DeleteSubtask removes the subtask. Task creator or subtask creator only.
	DeleteSubtask(ctx context.Context, actorID, subtaskID uuid.UUID) error
}

// SubtaskServiceImpl implements the SubtaskService interface
type SubtaskServiceImpl struct {
	subtaskStore store.SubtaskStore
	taskStore    store.TaskStore
	userStore    store.UserStore
	engine       *notify.Engine
	emitter      events.EventEmitter
	db           *sql.DB
	logger       *slog.Logger
}

// NewSubtaskService creates a new SubtaskService
func NewSubtaskService(
	subtaskStore store.SubtaskStore,
	taskStore store.TaskStore,
	userStore store.UserStore,
	engine *notify.Engine,
	emitter events.EventEmitter,
	db *sql.DB,
	logger *slog.Logger,
) SubtaskService {
	return &SubtaskServiceImpl{
		subtaskStore: subtaskStore,
		taskStore:    taskStore,
		userStore:    userStore,
		engine:       engine,
		emitter:      emitter,
		db:           db,
		logger:       logger.With("component", "subtask_service"),
	}
}

// CreateSubtask creates a subtask under the parent task. The parent task's
// creator learns about the new subtask and the initial assignees get
// "assigned" messages, all in the subtask's transaction.
func (s *SubtaskServiceImpl) CreateSubtask(
	ctx context.Context,
	actorID, taskID uuid.UUID,
	title, description string,
	priority domain.TaskPriority,
	assignedTo []uuid.UUID,
) (*domain.Subtask, error) {
	subtask, err := domain.NewSubtask(taskID, actorID, title, description, priority, assignedTo)
	if err != nil {
		return nil, fmt.Errorf("failed to create subtask: %w", err)
	}

	actorName, err := s.actorName(ctx, actorID)
	if err != nil {
		return nil, err
	}

	var committed []*domain.Notification
	err = store.RunInTransaction(ctx, s.db, func(ctx context.Context, tx *sql.Tx) error {
		task, err := s.taskStore.WithTx(tx).GetByID(ctx, taskID)
		if err != nil {
			return fmt.Errorf("failed to retrieve parent task: %w", err)
		}

		if task.CreatorID != actorID && !task.IsAssignee(actorID) {
			return ErrNotParticipant
		}

		if err := checkAssigneesWithinTask(task, subtask.AssignedTo); err != nil {
			return err
		}

		if err := s.subtaskStore.WithTx(tx).Create(ctx, subtask); err != nil {
			return fmt.Errorf("failed to save subtask: %w", err)
		}

		committed, err = s.engine.Notify(ctx, tx, notify.Mutation{
			Kind:             notify.KindCreated,
			ActorID:          actorID,
			ActorName:        actorName,
			TaskID:           &task.ID,
			SubtaskID:        &subtask.ID,
			EntityTitle:      subtask.Title,
			TaskCreatorID:    task.CreatorID,
			SubtaskCreatorID: subtask.CreatorID,
			Assignees:        subtask.AssignedTo,
		})
		return err
	})
	if err != nil {
		s.logger.Error("failed to create subtask",
			"error", err,
			"task_id", taskID,
			"actor_id", actorID)
		return nil, err
	}

	s.logger.Info("subtask created",
		"subtask_id", subtask.ID,
		"task_id", taskID,
		"actor_id", actorID,
		"notification_count", len(committed))

	s.emitCommitted(ctx, committed)
	return subtask, nil
}

// GetSubtask retrieves a subtask for a participant.
func (s *SubtaskServiceImpl) GetSubtask(
	ctx context.Context,
	actorID, subtaskID uuid.UUID,
) (*domain.Subtask, error) {
	subtask, err := s.subtaskStore.GetByID(ctx, subtaskID)
	if err != nil {
		return nil, fmt.Errorf("failed to retrieve subtask: %w", err)
	}

	task, err := s.taskStore.GetByID(ctx, subtask.TaskID)
	if err != nil {
		return nil, fmt.Errorf("failed to retrieve parent task: %w", err)
	}

	if task.CreatorID != actorID && subtask.CreatorID != actorID && !subtask.IsAssignee(actorID) {
		return nil, ErrNotParticipant
	}

	return subtask, nil
}

// ListSubtasks retrieves the subtasks of the parent task matching the filter.
func (s *SubtaskServiceImpl) ListSubtasks(
	ctx context.Context,
	actorID, taskID uuid.UUID,
	filter store.SubtaskFilter,
	page, limit int,
) ([]*domain.Subtask, int, error) {
	task, err := s.taskStore.GetByID(ctx, taskID)
	if err != nil {
		return nil, 0, fmt.Errorf("failed to retrieve parent task: %w", err)
	}

	if task.CreatorID != actorID && !task.IsAssignee(actorID) {
		return nil, 0, ErrNotParticipant
	}

	limit, offset := pageToOffset(page, limit)

	subtasks, total, err := s.subtaskStore.ListByTask(ctx, taskID, filter, limit, offset)
	if err != nil {
		s.logger.Error("failed to list subtasks",
			"error", err,
			"task_id", taskID)
		return nil, 0, fmt.Errorf("failed to list subtasks: %w", err)
	}

	return subtasks, total, nil
}

// UpdateSubtask replaces the subtask's content and assignee set, fanning out
// content and assignment notifications separately.
func (s *SubtaskServiceImpl) UpdateSubtask(
	ctx context.Context,
	actorID, subtaskID uuid.UUID,
	update SubtaskUpdate,
) (*domain.Subtask, error) {
	actorName, err := s.actorName(ctx, actorID)
	if err != nil {
		return nil, err
	}

	var subtask *domain.Subtask
	var committed []*domain.Notification
	err = store.RunInTransaction(ctx, s.db, func(ctx context.Context, tx *sql.Tx) error {
		txSubtasks := s.subtaskStore.WithTx(tx)

		subtask, err = txSubtasks.GetByID(ctx, subtaskID)
		if err != nil {
			return fmt.Errorf("failed to retrieve subtask: %w", err)
		}

		task, err := s.taskStore.WithTx(tx).GetByID(ctx, subtask.TaskID)
		if err != nil {
			return fmt.Errorf("failed to retrieve parent task: %w", err)
		}

		if task.CreatorID != actorID && subtask.CreatorID != actorID {
			return ErrNotOwned
		}

		if err := checkAssigneesWithinTask(task, update.AssignedTo); err != nil {
			return err
		}

		before := subtask.AssignedTo
		contentChanged := subtask.Title != update.Title ||
			subtask.Description != update.Description ||
			subtask.Priority != update.Priority

		subtask.Title = update.Title
		subtask.Description = update.Description
		subtask.Priority = update.Priority
		subtask.AssignedTo = update.AssignedTo
		if err := subtask.Validate(); err != nil {
			return fmt.Errorf("failed to update subtask: %w", err)
		}

		if err := txSubtasks.Update(ctx, subtask); err != nil {
			return fmt.Errorf("failed to update subtask: %w", err)
		}

		added, removed := notify.DiffAssignees(before, subtask.AssignedTo)

		if contentChanged {
			batch, err := s.engine.Notify(ctx, tx, notify.Mutation{
				Kind:             notify.KindContentUpdated,
				ActorID:          actorID,
				ActorName:        actorName,
				TaskID:           &task.ID,
				SubtaskID:        &subtask.ID,
				EntityTitle:      subtask.Title,
				TaskCreatorID:    task.CreatorID,
				SubtaskCreatorID: subtask.CreatorID,
				Assignees:        subtask.AssignedTo,
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
				SubtaskID:        &subtask.ID,
				EntityTitle:      subtask.Title,
				TaskCreatorID:    task.CreatorID,
				SubtaskCreatorID: subtask.CreatorID,
				Assignees:        subtask.AssignedTo,
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

	s.logger.Info("subtask updated",
		"subtask_id", subtaskID,
		"actor_id", actorID,
		"notification_count", len(committed))

	s.emitCommitted(ctx, committed)
	return subtask, nil
}

// UpdateSubtaskStatus transitions the subtask's status and notifies the
// other participants.
func (s *SubtaskServiceImpl) UpdateSubtaskStatus(
	ctx context.Context,
	actorID, subtaskID uuid.UUID,
	status domain.TaskStatus,
) (*domain.Subtask, error) {
	actorName, err := s.actorName(ctx, actorID)
	if err != nil {
		return nil, err
	}

	var subtask *domain.Subtask
	var committed []*domain.Notification
	err = store.RunInTransaction(ctx, s.db, func(ctx context.Context, tx *sql.Tx) error {
		txSubtasks := s.subtaskStore.WithTx(tx)

		subtask, err = txSubtasks.GetByID(ctx, subtaskID)
		if err != nil {
			return fmt.Errorf("failed to retrieve subtask: %w", err)
		}

		task, err := s.taskStore.WithTx(tx).GetByID(ctx, subtask.TaskID)
		if err != nil {
			return fmt.Errorf("failed to retrieve parent task: %w", err)
		}

		if task.CreatorID != actorID && subtask.CreatorID != actorID &&
			!subtask.IsAssignee(actorID) {
			return ErrNotParticipant
		}

		if err := subtask.UpdateStatus(status); err != nil {
			return fmt.Errorf("failed to update subtask status: %w", err)
		}

		if err := txSubtasks.UpdateStatus(ctx, subtask.ID, subtask.Status); err != nil {
			return fmt.Errorf("failed to update subtask status: %w", err)
		}

		committed, err = s.engine.Notify(ctx, tx, notify.Mutation{
			Kind:             notify.KindStatusChanged,
			ActorID:          actorID,
			ActorName:        actorName,
			TaskID:           &task.ID,
			SubtaskID:        &subtask.ID,
			EntityTitle:      subtask.Title,
			TaskCreatorID:    task.CreatorID,
			SubtaskCreatorID: subtask.CreatorID,
			Assignees:        subtask.AssignedTo,
			NewStatus:        subtask.Status,
		})
		return err
	})
	if err != nil {
		return nil, err
	}

	s.logger.Info("subtask status updated",
		"subtask_id", subtaskID,
		"actor_id", actorID,
		"status", subtask.Status)

	s.emitCommitted(ctx, committed)
	return subtask, nil
}

// AddComment appends a comment and notifies the other participants.
func (s *SubtaskServiceImpl) AddComment(
	ctx context.Context,
	actorID, subtaskID uuid.UUID,
	text string,
) (*domain.Subtask, error) {
	comment, err := domain.NewComment(actorID, text)
	if err != nil {
		return nil, fmt.Errorf("failed to create comment: %w", err)
	}

	actorName, err := s.actorName(ctx, actorID)
	if err != nil {
		return nil, err
	}

	var subtask *domain.Subtask
	var committed []*domain.Notification
	err = store.RunInTransaction(ctx, s.db, func(ctx context.Context, tx *sql.Tx) error {
		txSubtasks := s.subtaskStore.WithTx(tx)

		subtask, err = txSubtasks.GetByID(ctx, subtaskID)
		if err != nil {
			return fmt.Errorf("failed to retrieve subtask: %w", err)
		}

		task, err := s.taskStore.WithTx(tx).GetByID(ctx, subtask.TaskID)
		if err != nil {
			return fmt.Errorf("failed to retrieve parent task: %w", err)
		}

		if task.CreatorID != actorID && subtask.CreatorID != actorID &&
			!subtask.IsAssignee(actorID) {
			return ErrNotParticipant
		}

		if err := txSubtasks.AddComment(ctx, subtask.ID, comment); err != nil {
			return fmt.Errorf("failed to add comment: %w", err)
		}
		subtask.Comments = append(subtask.Comments, *comment)

		committed, err = s.engine.Notify(ctx, tx, notify.Mutation{
			Kind:             notify.KindCommentAdded,
			ActorID:          actorID,
			ActorName:        actorName,
			TaskID:           &task.ID,
			SubtaskID:        &subtask.ID,
			EntityTitle:      subtask.Title,
			TaskCreatorID:    task.CreatorID,
			SubtaskCreatorID: subtask.CreatorID,
			Assignees:        subtask.AssignedTo,
			CommentText:      comment.Text,
		})
		return err
	})
	if err != nil {
		return nil, err
	}

	s.logger.Info("comment added to subtask",
		"subtask_id", subtaskID,
		"actor_id", actorID)

	s.emitCommitted(ctx, committed)
	return subtask, nil
}

// DeleteSubtask removes the subtask and notifies the remaining participants.
func (s *SubtaskServiceImpl) DeleteSubtask(ctx context.Context, actorID, subtaskID uuid.UUID) error {
	actorName, err := s.actorName(ctx, actorID)
	if err != nil {
		return err
	}

	var committed []*domain.Notification
	err = store.RunInTransaction(ctx, s.db, func(ctx context.Context, tx *sql.Tx) error {
		txSubtasks := s.subtaskStore.WithTx(tx)

		subtask, err := txSubtasks.GetByID(ctx, subtaskID)
		if err != nil {
			return fmt.Errorf("failed to retrieve subtask: %w", err)
		}

		task, err := s.taskStore.WithTx(tx).GetByID(ctx, subtask.TaskID)
		if err != nil {
			return fmt.Errorf("failed to retrieve parent task: %w", err)
		}

		if task.CreatorID != actorID && subtask.CreatorID != actorID {
			return ErrNotOwned
		}

		committed, err = s.engine.Notify(ctx, tx, notify.Mutation{
			Kind:             notify.KindDeleted,
			ActorID:          actorID,
			ActorName:        actorName,
			TaskID:           &task.ID,
			SubtaskID:        &subtask.ID,
			EntityTitle:      subtask.Title,
			TaskCreatorID:    task.CreatorID,
			SubtaskCreatorID: subtask.CreatorID,
			Assignees:        subtask.AssignedTo,
		})
		if err != nil {
			return err
		}

		if err := txSubtasks.Delete(ctx, subtaskID); err != nil {
			return fmt.Errorf("failed to delete subtask: %w", err)
		}

		return nil
	})
	if err != nil {
		return err
	}

	s.logger.Info("subtask deleted",
		"subtask_id", subtaskID,
		"actor_id", actorID)

	s.emitCommitted(ctx, committed)
	return nil
}

// actorName resolves the acting user's display name for message templating.
func (s *SubtaskServiceImpl) actorName(ctx context.Context, actorID uuid.UUID) (string, error) {
	actor, err := s.userStore.GetByID(ctx, actorID)
	if err != nil {
		return "", fmt.Errorf("failed to retrieve acting user: %w", err)
	}
	return actor.Username, nil
}

// emitCommitted hands committed notifications to the real-time layer after
// the producing transaction has committed.
func (s *SubtaskServiceImpl) emitCommitted(ctx context.Context, committed []*domain.Notification) {
	if len(committed) == 0 || s.emitter == nil {
		return
	}
	if err := s.emitter.EmitEvent(ctx, events.NewNotificationCommittedEvent(committed)); err != nil {
		s.logger.Warn("failed to emit committed notifications",
			"error", err,
			"notification_count", len(committed))
	}
}

// checkAssigneesWithinTask verifies every candidate assignee participates in
// the parent task (is its creator or one of its assignees).
func checkAssigneesWithinTask(task *domain.Task, assignees []uuid.UUID) error {
	for _, id := range assignees {
		if id != task.CreatorID && !task.IsAssignee(id) {
			return ErrAssigneeOutsideTask
		}
	}
	return nil
}
