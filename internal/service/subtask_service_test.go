package service

import (
	"context"
	"errors"
	"testing"

	"github.com/google/uuid"
	"github.com/phrazzld/taskhive-api/internal/domain"
	"github.com/phrazzld/taskhive-api/internal/store"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type subtaskServiceFixture struct {
	users         *fakeUserStore
	tasks         *fakeTaskStore
	subtasks      *fakeSubtaskStore
	notifications *fakeNotificationStore
	emitter       *fakeEmitter
	service       SubtaskService
}

func newSubtaskServiceFixture(t *testing.T, users ...*domain.User) *subtaskServiceFixture {
	t.Helper()
	f := &subtaskServiceFixture{
		users:         newFakeUserStore(users...),
		tasks:         newFakeTaskStore(),
		subtasks:      newFakeSubtaskStore(),
		notifications: newFakeNotificationStore(),
		emitter:       &fakeEmitter{},
	}
	f.service = NewSubtaskService(
		f.subtasks, f.tasks, f.users,
		testEngine(f.notifications), f.emitter,
		mockDB(t), testLogger(),
	)
	return f
}

func (f *subtaskServiceFixture) resetFanOut() {
	f.notifications.notifications = make(map[uuid.UUID]*domain.Notification)
	f.emitter.events = nil
}

// seedTask puts a task into the fixture directly, bypassing the task service.
func (f *subtaskServiceFixture) seedTask(
	t *testing.T,
	creatorID uuid.UUID,
	title string,
	assignees ...uuid.UUID,
) *domain.Task {
	t.Helper()
	task, err := domain.NewTask(creatorID, title, "", "", assignees)
	require.NoError(t, err)
	require.NoError(t, f.tasks.Create(context.Background(), task))
	return task
}

func TestCreateSubtaskNotifiesOwnerAndAssignees(t *testing.T) {
	owner := mustUser(t, "alice")
	actor := mustUser(t, "bob")
	assignee := mustUser(t, "carol")
	f := newSubtaskServiceFixture(t, owner, actor, assignee)

	// bob, an assignee of alice's task, creates a subtask and assigns carol.
	task := f.seedTask(t, owner.ID, "launch prep", actor.ID, assignee.ID)

	subtask, err := f.service.CreateSubtask(context.Background(), actor.ID, task.ID,
		"book venue", "", "", []uuid.UUID{assignee.ID})
	require.NoError(t, err)
	require.NotNil(t, subtask)

	// The task owner learns a subtask appeared; the assignee learns they are
	// on it; the actor hears nothing.
	assert.Equal(t, []string{`bob created subtask "book venue"`},
		messagesFor(f.notifications, owner.ID))
	assert.Equal(t, []string{`bob assigned you to subtask "book venue"`},
		messagesFor(f.notifications, assignee.ID))
	assert.Empty(t, messagesFor(f.notifications, actor.ID))

	// Both anchors are set on every record.
	for _, n := range f.notifications.forRecipient(owner.ID) {
		assert.Equal(t, task.ID, n.TaskRef())
		assert.Equal(t, subtask.ID, n.SubtaskRef())
	}
}

func TestCreateSubtaskRequiresParticipation(t *testing.T) {
	owner := mustUser(t, "alice")
	outsider := mustUser(t, "mallory")
	f := newSubtaskServiceFixture(t, owner, outsider)

	task := f.seedTask(t, owner.ID, "launch prep")

	_, err := f.service.CreateSubtask(context.Background(), outsider.ID, task.ID,
		"sneaky subtask", "", "", nil)
	assert.ErrorIs(t, err, ErrNotParticipant)
}

func TestCreateSubtaskRejectsAssigneeOutsideTask(t *testing.T) {
	owner := mustUser(t, "alice")
	stranger := mustUser(t, "zed")
	f := newSubtaskServiceFixture(t, owner, stranger)

	task := f.seedTask(t, owner.ID, "launch prep")

	// zed participates in nothing; assigning them to a subtask must fail.
	_, err := f.service.CreateSubtask(context.Background(), owner.ID, task.ID,
		"book venue", "", "", []uuid.UUID{stranger.ID})
	assert.ErrorIs(t, err, ErrAssigneeOutsideTask)

	// Nothing was persisted or notified.
	assert.Empty(t, f.subtasks.subtasks)
	assert.Empty(t, f.notifications.notifications)
}

func TestGetSubtaskAuthorization(t *testing.T) {
	owner := mustUser(t, "alice")
	subCreator := mustUser(t, "bob")
	subAssignee := mustUser(t, "carol")
	taskAssignee := mustUser(t, "dave")
	f := newSubtaskServiceFixture(t, owner, subCreator, subAssignee, taskAssignee)

	task := f.seedTask(t, owner.ID, "launch prep", subCreator.ID, subAssignee.ID, taskAssignee.ID)
	subtask, err := f.service.CreateSubtask(context.Background(), subCreator.ID, task.ID,
		"book venue", "", "", []uuid.UUID{subAssignee.ID})
	require.NoError(t, err)

	// Task creator, subtask creator and subtask assignee may view.
	for _, id := range []uuid.UUID{owner.ID, subCreator.ID, subAssignee.ID} {
		_, err := f.service.GetSubtask(context.Background(), id, subtask.ID)
		assert.NoError(t, err)
	}

	// A parent-task assignee with no role on the subtask may not.
	_, err = f.service.GetSubtask(context.Background(), taskAssignee.ID, subtask.ID)
	assert.ErrorIs(t, err, ErrNotParticipant)
}

func TestUpdateSubtaskOwnership(t *testing.T) {
	owner := mustUser(t, "alice")
	subCreator := mustUser(t, "bob")
	subAssignee := mustUser(t, "carol")
	f := newSubtaskServiceFixture(t, owner, subCreator, subAssignee)

	task := f.seedTask(t, owner.ID, "launch prep", subCreator.ID, subAssignee.ID)
	subtask, err := f.service.CreateSubtask(context.Background(), subCreator.ID, task.ID,
		"book venue", "", "", []uuid.UUID{subAssignee.ID})
	require.NoError(t, err)
	f.resetFanOut()

	update := SubtaskUpdate{
		Title:      "book larger venue",
		Priority:   subtask.Priority,
		AssignedTo: subtask.AssignedTo,
	}

	// A subtask assignee may not restructure it.
	_, err = f.service.UpdateSubtask(context.Background(), subAssignee.ID, subtask.ID, update)
	assert.ErrorIs(t, err, ErrNotOwned)

	// The parent task's creator may, even though they did not create it.
	updated, err := f.service.UpdateSubtask(context.Background(), owner.ID, subtask.ID, update)
	require.NoError(t, err)
	assert.Equal(t, "book larger venue", updated.Title)

	// The subtask creator and the assignee hear about the edit.
	assert.Equal(t, []string{`alice updated subtask "book larger venue"`},
		messagesFor(f.notifications, subCreator.ID))
	assert.Equal(t, []string{`alice updated subtask "book larger venue"`},
		messagesFor(f.notifications, subAssignee.ID))
}

func TestUpdateSubtaskRejectsAssigneeOutsideTask(t *testing.T) {
	owner := mustUser(t, "alice")
	member := mustUser(t, "bob")
	stranger := mustUser(t, "zed")
	f := newSubtaskServiceFixture(t, owner, member, stranger)

	task := f.seedTask(t, owner.ID, "launch prep", member.ID)
	subtask, err := f.service.CreateSubtask(context.Background(), owner.ID, task.ID,
		"book venue", "", "", []uuid.UUID{member.ID})
	require.NoError(t, err)

	_, err = f.service.UpdateSubtask(context.Background(), owner.ID, subtask.ID, SubtaskUpdate{
		Title:      subtask.Title,
		Priority:   subtask.Priority,
		AssignedTo: []uuid.UUID{stranger.ID},
	})
	assert.ErrorIs(t, err, ErrAssigneeOutsideTask)
}

func TestUpdateSubtaskStatusByAssignee(t *testing.T) {
	owner := mustUser(t, "alice")
	subAssignee := mustUser(t, "carol")
	f := newSubtaskServiceFixture(t, owner, subAssignee)

	task := f.seedTask(t, owner.ID, "launch prep", subAssignee.ID)
	subtask, err := f.service.CreateSubtask(context.Background(), owner.ID, task.ID,
		"book venue", "", "", []uuid.UUID{subAssignee.ID})
	require.NoError(t, err)
	f.resetFanOut()

	updated, err := f.service.UpdateSubtaskStatus(context.Background(), subAssignee.ID,
		subtask.ID, domain.TaskStatusCompleted)
	require.NoError(t, err)
	assert.Equal(t, domain.TaskStatusCompleted, updated.Status)

	// Both creators hear about it. Here the task and subtask creator are the
	// same user, so exactly one notification results.
	assert.Equal(t, []string{`carol marked subtask "book venue" as completed`},
		messagesFor(f.notifications, owner.ID))
}

func TestAddCommentToSubtask(t *testing.T) {
	owner := mustUser(t, "alice")
	subAssignee := mustUser(t, "carol")
	outsider := mustUser(t, "mallory")
	f := newSubtaskServiceFixture(t, owner, subAssignee, outsider)

	task := f.seedTask(t, owner.ID, "launch prep", subAssignee.ID)
	subtask, err := f.service.CreateSubtask(context.Background(), owner.ID, task.ID,
		"book venue", "", "", []uuid.UUID{subAssignee.ID})
	require.NoError(t, err)
	f.resetFanOut()

	_, err = f.service.AddComment(context.Background(), outsider.ID, subtask.ID, "hello")
	assert.ErrorIs(t, err, ErrNotParticipant)

	updated, err := f.service.AddComment(context.Background(), subAssignee.ID, subtask.ID,
		"venue confirmed")
	require.NoError(t, err)
	require.Len(t, updated.Comments, 1)

	assert.Equal(t, []string{`carol commented on subtask "book venue": venue confirmed`},
		messagesFor(f.notifications, owner.ID))
}

func TestDeleteSubtask(t *testing.T) {
	owner := mustUser(t, "alice")
	subCreator := mustUser(t, "bob")
	subAssignee := mustUser(t, "carol")
	f := newSubtaskServiceFixture(t, owner, subCreator, subAssignee)

	task := f.seedTask(t, owner.ID, "launch prep", subCreator.ID, subAssignee.ID)
	subtask, err := f.service.CreateSubtask(context.Background(), subCreator.ID, task.ID,
		"book venue", "", "", []uuid.UUID{subAssignee.ID})
	require.NoError(t, err)
	f.resetFanOut()

	// An assignee may not delete; the subtask creator may.
	err = f.service.DeleteSubtask(context.Background(), subAssignee.ID, subtask.ID)
	assert.ErrorIs(t, err, ErrNotOwned)

	err = f.service.DeleteSubtask(context.Background(), subCreator.ID, subtask.ID)
	require.NoError(t, err)

	_, err = f.subtasks.GetByID(context.Background(), subtask.ID)
	assert.ErrorIs(t, err, store.ErrSubtaskNotFound)

	// Deletion notifications survive the subtask.
	assert.Equal(t, []string{`bob deleted subtask "book venue"`},
		messagesFor(f.notifications, owner.ID))
	assert.Equal(t, []string{`bob deleted subtask "book venue"`},
		messagesFor(f.notifications, subAssignee.ID))
}

// A failed notification write aborts the whole mutation. With tx-isolated
// stores the staged writes vanish on rollback, so the base stores must read
// back exactly as they did before the update: old subtask content, no
// notifications, nothing emitted.
func TestUpdateSubtaskRevertsWhenFanOutFails(t *testing.T) {
	owner := mustUser(t, "alice")
	subCreator := mustUser(t, "bob")
	subAssignee := mustUser(t, "carol")

	users := newFakeUserStore(owner, subCreator, subAssignee)
	tasks := newFakeTaskStore()
	subtasks := &txIsolatedSubtaskStore{fakeSubtaskStore: newFakeSubtaskStore()}
	notifications := &txIsolatedNotificationStore{fakeNotificationStore: newFakeNotificationStore()}
	emitter := &fakeEmitter{}
	svc := NewSubtaskService(subtasks, tasks, users,
		testEngine(notifications), emitter, mockDB(t), testLogger())

	task, err := domain.NewTask(owner.ID, "launch prep", "", "",
		[]uuid.UUID{subCreator.ID, subAssignee.ID})
	require.NoError(t, err)
	require.NoError(t, tasks.Create(context.Background(), task))

	subtask, err := domain.NewSubtask(task.ID, subCreator.ID, "book venue", "", "",
		[]uuid.UUID{subAssignee.ID})
	require.NoError(t, err)
	require.NoError(t, subtasks.fakeSubtaskStore.Create(context.Background(), subtask))

	// The content-update fan-out reaches the subtask creator first, then the
	// assignee. Let the first write land and the second fail.
	writeErr := errors.New("notification insert failed")
	notifications.createErr = writeErr
	notifications.failOn = 2

	_, err = svc.UpdateSubtask(context.Background(), owner.ID, subtask.ID, SubtaskUpdate{
		Title:       "book larger venue",
		Description: subtask.Description,
		Priority:    subtask.Priority,
		AssignedTo:  subtask.AssignedTo,
	})
	require.ErrorIs(t, err, writeErr)

	// The subtask shows its pre-update state.
	current, err := subtasks.fakeSubtaskStore.GetByID(context.Background(), subtask.ID)
	require.NoError(t, err)
	assert.Equal(t, "book venue", current.Title)
	assert.Equal(t, []uuid.UUID{subAssignee.ID}, current.AssignedTo)

	// The partial fan-out never surfaces: no stored notifications for anyone,
	// no post-commit push events.
	assert.Empty(t, notifications.fakeNotificationStore.notifications)
	assert.Empty(t, emitter.emitted())
}

func TestListSubtasksScoping(t *testing.T) {
	owner := mustUser(t, "alice")
	member := mustUser(t, "bob")
	outsider := mustUser(t, "mallory")
	f := newSubtaskServiceFixture(t, owner, member, outsider)

	task := f.seedTask(t, owner.ID, "launch prep", member.ID)

	_, err := f.service.CreateSubtask(context.Background(), owner.ID, task.ID,
		"owner subtask", "", "", nil)
	require.NoError(t, err)
	_, err = f.service.CreateSubtask(context.Background(), member.ID, task.ID,
		"member subtask", "", "", []uuid.UUID{member.ID})
	require.NoError(t, err)

	_, _, err = f.service.ListSubtasks(context.Background(), outsider.ID, task.ID,
		store.SubtaskFilter{}, 1, 10)
	assert.ErrorIs(t, err, ErrNotParticipant)

	all, total, err := f.service.ListSubtasks(context.Background(), owner.ID, task.ID,
		store.SubtaskFilter{}, 1, 10)
	require.NoError(t, err)
	assert.Equal(t, 2, total)
	assert.Len(t, all, 2)

	mine, total, err := f.service.ListSubtasks(context.Background(), member.ID, task.ID,
		store.SubtaskFilter{CreatorID: member.ID}, 1, 10)
	require.NoError(t, err)
	assert.Equal(t, 1, total)
	require.Len(t, mine, 1)
	assert.Equal(t, "member subtask", mine[0].Title)

	assigned, total, err := f.service.ListSubtasks(context.Background(), member.ID, task.ID,
		store.SubtaskFilter{AssigneeID: member.ID}, 1, 10)
	require.NoError(t, err)
	assert.Equal(t, 1, total)
	require.Len(t, assigned, 1)
	assert.Equal(t, "member subtask", assigned[0].Title)
}
