package service

import (
	"context"
	"testing"

	"github.com/google/uuid"
	"github.com/phrazzld/taskhive-api/internal/domain"
	"github.com/phrazzld/taskhive-api/internal/store"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func mustUser(t *testing.T, username string) *domain.User {
	t.Helper()
	user, err := domain.NewUser(username, username+"@example.com", "averylongpassword")
	require.NoError(t, err)
	return user
}

// messagesFor collects the notification messages a user has received, in no
// particular order.
func messagesFor(f *fakeNotificationStore, recipientID uuid.UUID) []string {
	var out []string
	for _, n := range f.forRecipient(recipientID) {
		out = append(out, n.Message)
	}
	return out
}

type taskServiceFixture struct {
	users         *fakeUserStore
	tasks         *fakeTaskStore
	subtasks      *fakeSubtaskStore
	notifications *fakeNotificationStore
	emitter       *fakeEmitter
	service       TaskService
}

func newTaskServiceFixture(t *testing.T, users ...*domain.User) *taskServiceFixture {
	t.Helper()
	f := &taskServiceFixture{
		users:         newFakeUserStore(users...),
		tasks:         newFakeTaskStore(),
		subtasks:      newFakeSubtaskStore(),
		notifications: newFakeNotificationStore(),
		emitter:       &fakeEmitter{},
	}
	f.service = NewTaskService(
		f.tasks, f.subtasks, f.users,
		testEngine(f.notifications), f.emitter,
		mockDB(t), testLogger(),
	)
	return f
}

// resetFanOut drops notifications and events accumulated while arranging the
// fixture, so assertions see only the operation under test.
func (f *taskServiceFixture) resetFanOut() {
	f.notifications.notifications = make(map[uuid.UUID]*domain.Notification)
	f.emitter.events = nil
}

func TestCreateTaskNotifiesAssignees(t *testing.T) {
	creator := mustUser(t, "alice")
	assignee := mustUser(t, "bob")
	f := newTaskServiceFixture(t, creator, assignee)

	task, err := f.service.CreateTask(context.Background(), creator.ID,
		"write report", "quarterly numbers", domain.TaskPriorityHigh,
		[]uuid.UUID{assignee.ID})
	require.NoError(t, err)
	require.NotNil(t, task)

	// The assignee is notified; the creator, being the actor, is not.
	assert.Equal(t, []string{`alice assigned you to task "write report"`},
		messagesFor(f.notifications, assignee.ID))
	assert.Empty(t, messagesFor(f.notifications, creator.ID))

	// The committed notifications were handed to the real-time layer.
	assert.Len(t, f.emitter.emitted(), 1)
}

func TestCreateTaskSelfAssignmentIsSilent(t *testing.T) {
	creator := mustUser(t, "alice")
	f := newTaskServiceFixture(t, creator)

	_, err := f.service.CreateTask(context.Background(), creator.ID,
		"solo work", "", "", []uuid.UUID{creator.ID})
	require.NoError(t, err)

	assert.Empty(t, messagesFor(f.notifications, creator.ID))
	assert.Empty(t, f.emitter.events)
}

func TestGetTaskAuthorization(t *testing.T) {
	creator := mustUser(t, "alice")
	assignee := mustUser(t, "bob")
	outsider := mustUser(t, "mallory")
	f := newTaskServiceFixture(t, creator, assignee, outsider)

	task, err := f.service.CreateTask(context.Background(), creator.ID,
		"write report", "", "", []uuid.UUID{assignee.ID})
	require.NoError(t, err)

	_, err = f.service.GetTask(context.Background(), creator.ID, task.ID)
	assert.NoError(t, err)

	_, err = f.service.GetTask(context.Background(), assignee.ID, task.ID)
	assert.NoError(t, err)

	_, err = f.service.GetTask(context.Background(), outsider.ID, task.ID)
	assert.ErrorIs(t, err, ErrNotParticipant)

	_, err = f.service.GetTask(context.Background(), creator.ID, uuid.New())
	assert.ErrorIs(t, err, store.ErrTaskNotFound)
}

func TestUpdateTaskCreatorOnly(t *testing.T) {
	creator := mustUser(t, "alice")
	assignee := mustUser(t, "bob")
	f := newTaskServiceFixture(t, creator, assignee)

	task, err := f.service.CreateTask(context.Background(), creator.ID,
		"write report", "", "", []uuid.UUID{assignee.ID})
	require.NoError(t, err)

	update := TaskUpdate{
		Title:      task.Title,
		Priority:   task.Priority,
		AssignedTo: task.AssignedTo,
	}

	// An assignee may not restructure the task.
	_, err = f.service.UpdateTask(context.Background(), assignee.ID, task.ID, update)
	assert.ErrorIs(t, err, ErrNotOwned)
}

func TestUpdateTaskFansOutContentAndAssignmentSeparately(t *testing.T) {
	creator := mustUser(t, "alice")
	kept := mustUser(t, "bob")
	dropped := mustUser(t, "carol")
	added := mustUser(t, "dave")
	f := newTaskServiceFixture(t, creator, kept, dropped, added)

	task, err := f.service.CreateTask(context.Background(), creator.ID,
		"write report", "", "", []uuid.UUID{kept.ID, dropped.ID})
	require.NoError(t, err)
	f.resetFanOut()

	updated, err := f.service.UpdateTask(context.Background(), creator.ID, task.ID, TaskUpdate{
		Title:      "write summary",
		Priority:   task.Priority,
		AssignedTo: []uuid.UUID{kept.ID, added.ID},
	})
	require.NoError(t, err)
	assert.Equal(t, "write summary", updated.Title)

	// kept: one content-update notification (already assigned, not re-added)
	assert.Equal(t, []string{`alice updated task "write summary"`},
		messagesFor(f.notifications, kept.ID))

	// added: the content update covers the new assignee set, plus the
	// assignment notice itself
	assert.ElementsMatch(t, []string{
		`alice updated task "write summary"`,
		`alice assigned you to task "write summary"`,
	}, messagesFor(f.notifications, added.ID))

	// dropped: removal notice only
	assert.Equal(t, []string{`alice removed you from task "write summary"`},
		messagesFor(f.notifications, dropped.ID))

	// One event carries the whole batch.
	require.Len(t, f.emitter.events, 1)
	assert.Len(t, f.emitter.events[0].Notifications, 4)
}

func TestUpdateTaskStatusByAssignee(t *testing.T) {
	creator := mustUser(t, "alice")
	assignee := mustUser(t, "bob")
	outsider := mustUser(t, "mallory")
	f := newTaskServiceFixture(t, creator, assignee, outsider)

	task, err := f.service.CreateTask(context.Background(), creator.ID,
		"write report", "", "", []uuid.UUID{assignee.ID})
	require.NoError(t, err)
	f.resetFanOut()

	_, err = f.service.UpdateTaskStatus(context.Background(), outsider.ID, task.ID,
		domain.TaskStatusCompleted)
	assert.ErrorIs(t, err, ErrNotParticipant)

	updated, err := f.service.UpdateTaskStatus(context.Background(), assignee.ID, task.ID,
		domain.TaskStatusCompleted)
	require.NoError(t, err)
	assert.Equal(t, domain.TaskStatusCompleted, updated.Status)

	// The creator hears about the transition; the acting assignee does not.
	assert.Equal(t, []string{`bob marked task "write report" as completed`},
		messagesFor(f.notifications, creator.ID))
	assert.Empty(t, messagesFor(f.notifications, assignee.ID))
}

func TestAddCommentEchoesText(t *testing.T) {
	creator := mustUser(t, "alice")
	assignee := mustUser(t, "bob")
	f := newTaskServiceFixture(t, creator, assignee)

	task, err := f.service.CreateTask(context.Background(), creator.ID,
		"write report", "", "", []uuid.UUID{assignee.ID})
	require.NoError(t, err)
	f.resetFanOut()

	updated, err := f.service.AddComment(context.Background(), creator.ID, task.ID, "first draft done")
	require.NoError(t, err)
	require.Len(t, updated.Comments, 1)
	assert.Equal(t, "first draft done", updated.Comments[0].Text)

	assert.Equal(t, []string{`alice commented on task "write report": first draft done`},
		messagesFor(f.notifications, assignee.ID))
}

func TestDeleteTaskRemovesSubtasksButKeepsNotifications(t *testing.T) {
	creator := mustUser(t, "alice")
	assignee := mustUser(t, "bob")
	f := newTaskServiceFixture(t, creator, assignee)

	task, err := f.service.CreateTask(context.Background(), creator.ID,
		"write report", "", "", []uuid.UUID{assignee.ID})
	require.NoError(t, err)

	subtask, err := domain.NewSubtask(task.ID, creator.ID, "outline", "", "", nil)
	require.NoError(t, err)
	require.NoError(t, f.subtasks.Create(context.Background(), subtask))
	f.resetFanOut()

	err = f.service.DeleteTask(context.Background(), assignee.ID, task.ID)
	assert.ErrorIs(t, err, ErrNotOwned)

	err = f.service.DeleteTask(context.Background(), creator.ID, task.ID)
	require.NoError(t, err)

	_, err = f.tasks.GetByID(context.Background(), task.ID)
	assert.ErrorIs(t, err, store.ErrTaskNotFound)
	_, err = f.subtasks.GetByID(context.Background(), subtask.ID)
	assert.ErrorIs(t, err, store.ErrSubtaskNotFound)

	// The deletion notification refers to the now-gone task and survives it.
	got := f.notifications.forRecipient(assignee.ID)
	require.Len(t, got, 1)
	assert.Equal(t, `alice deleted task "write report"`, got[0].Message)
	assert.Equal(t, task.ID, got[0].TaskRef())
}

func TestListTasksPagination(t *testing.T) {
	creator := mustUser(t, "alice")
	f := newTaskServiceFixture(t, creator)

	for i := 0; i < 12; i++ {
		_, err := f.service.CreateTask(context.Background(), creator.ID,
			"task", "", "", nil)
		require.NoError(t, err)
	}

	// Defaults: page 1, 10 per page.
	tasks, total, err := f.service.ListTasks(context.Background(), creator.ID,
		store.TaskFilter{}, 0, 0)
	require.NoError(t, err)
	assert.Equal(t, 12, total)
	assert.Len(t, tasks, 10)

	tasks, total, err = f.service.ListTasks(context.Background(), creator.ID,
		store.TaskFilter{}, 2, 10)
	require.NoError(t, err)
	assert.Equal(t, 12, total)
	assert.Len(t, tasks, 2)
}
