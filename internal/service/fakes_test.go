package service

import (
	"context"
	"database/sql"
	"io"
	"log/slog"
	"testing"
	"time"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/google/uuid"
	"github.com/phrazzld/taskhive-api/internal/domain"
	"github.com/phrazzld/taskhive-api/internal/events"
	"github.com/phrazzld/taskhive-api/internal/service/notify"
	"github.com/phrazzld/taskhive-api/internal/store"
	"github.com/stretchr/testify/require"
)

// In-memory store fakes. WithTx returns the fake itself: the services only
// care that reads and writes inside a transaction observe each other, which
// a single shared map trivially provides. The transaction lifecycle itself
// is exercised against sqlmock.

func testLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

// mockDB returns a database whose transactions always begin and commit (or
// roll back) successfully, without caring how many of either occur.
func mockDB(t *testing.T) *sql.DB {
	t.Helper()
	db, mock, err := sqlmock.New()
	require.NoError(t, err)
	t.Cleanup(func() { _ = db.Close() })

	mock.MatchExpectationsInOrder(false)
	for i := 0; i < 16; i++ {
		mock.ExpectBegin()
		mock.ExpectCommit()
		mock.ExpectRollback()
	}
	return db
}

type fakeUserStore struct {
	users map[uuid.UUID]*domain.User
}

func newFakeUserStore(users ...*domain.User) *fakeUserStore {
	f := &fakeUserStore{users: make(map[uuid.UUID]*domain.User)}
	for _, u := range users {
		f.users[u.ID] = u
	}
	return f
}

func (f *fakeUserStore) Create(ctx context.Context, user *domain.User) error {
	for _, u := range f.users {
		if u.Email == user.Email {
			return store.ErrEmailExists
		}
		if u.Username == user.Username {
			return store.ErrUsernameExists
		}
	}
	f.users[user.ID] = user
	return nil
}

func (f *fakeUserStore) GetByID(ctx context.Context, id uuid.UUID) (*domain.User, error) {
	u, ok := f.users[id]
	if !ok {
		return nil, store.ErrUserNotFound
	}
	return u, nil
}

func (f *fakeUserStore) GetByEmail(ctx context.Context, email string) (*domain.User, error) {
	for _, u := range f.users {
		if u.Email == email {
			return u, nil
		}
	}
	return nil, store.ErrUserNotFound
}

func (f *fakeUserStore) GetByUsername(ctx context.Context, username string) (*domain.User, error) {
	for _, u := range f.users {
		if u.Username == username {
			return u, nil
		}
	}
	return nil, store.ErrUserNotFound
}

func (f *fakeUserStore) UpdateConnections(
	ctx context.Context,
	id uuid.UUID,
	connections []uuid.UUID,
) error {
	u, ok := f.users[id]
	if !ok {
		return store.ErrUserNotFound
	}
	u.Connections = connections
	return nil
}

func (f *fakeUserStore) ListByIDs(ctx context.Context, ids []uuid.UUID) ([]*domain.User, error) {
	out := make([]*domain.User, 0, len(ids))
	for _, id := range ids {
		if u, ok := f.users[id]; ok {
			out = append(out, u)
		}
	}
	return out, nil
}

func (f *fakeUserStore) WithTx(tx *sql.Tx) store.UserStore { return f }

type fakeTaskStore struct {
	tasks map[uuid.UUID]*domain.Task
}

func newFakeTaskStore(tasks ...*domain.Task) *fakeTaskStore {
	f := &fakeTaskStore{tasks: make(map[uuid.UUID]*domain.Task)}
	for _, task := range tasks {
		f.tasks[task.ID] = task
	}
	return f
}

func (f *fakeTaskStore) Create(ctx context.Context, task *domain.Task) error {
	f.tasks[task.ID] = task
	return nil
}

func (f *fakeTaskStore) GetByID(ctx context.Context, id uuid.UUID) (*domain.Task, error) {
	task, ok := f.tasks[id]
	if !ok {
		return nil, store.ErrTaskNotFound
	}
	return task, nil
}

func (f *fakeTaskStore) Update(ctx context.Context, task *domain.Task) error {
	if _, ok := f.tasks[task.ID]; !ok {
		return store.ErrTaskNotFound
	}
	f.tasks[task.ID] = task
	return nil
}

func (f *fakeTaskStore) UpdateStatus(
	ctx context.Context,
	id uuid.UUID,
	status domain.TaskStatus,
) error {
	task, ok := f.tasks[id]
	if !ok {
		return store.ErrTaskNotFound
	}
	task.Status = status
	return nil
}

func (f *fakeTaskStore) AddComment(
	ctx context.Context,
	taskID uuid.UUID,
	comment *domain.Comment,
) error {
	if _, ok := f.tasks[taskID]; !ok {
		return store.ErrTaskNotFound
	}
	return nil
}

func (f *fakeTaskStore) Delete(ctx context.Context, id uuid.UUID) error {
	if _, ok := f.tasks[id]; !ok {
		return store.ErrTaskNotFound
	}
	delete(f.tasks, id)
	return nil
}

func (f *fakeTaskStore) List(
	ctx context.Context,
	userID uuid.UUID,
	filter store.TaskFilter,
	limit, offset int,
) ([]*domain.Task, int, error) {
	var matched []*domain.Task
	for _, task := range f.tasks {
		if task.CreatorID != userID && !task.IsAssignee(userID) {
			continue
		}
		if filter.Status != "" && task.Status != filter.Status {
			continue
		}
		matched = append(matched, task)
	}
	total := len(matched)
	if offset >= len(matched) {
		return nil, total, nil
	}
	matched = matched[offset:]
	if len(matched) > limit {
		matched = matched[:limit]
	}
	return matched, total, nil
}

func (f *fakeTaskStore) WithTx(tx *sql.Tx) store.TaskStore { return f }

type fakeSubtaskStore struct {
	subtasks map[uuid.UUID]*domain.Subtask
}

func newFakeSubtaskStore(subtasks ...*domain.Subtask) *fakeSubtaskStore {
	f := &fakeSubtaskStore{subtasks: make(map[uuid.UUID]*domain.Subtask)}
	for _, st := range subtasks {
		f.subtasks[st.ID] = st
	}
	return f
}

func (f *fakeSubtaskStore) Create(ctx context.Context, subtask *domain.Subtask) error {
	f.subtasks[subtask.ID] = subtask
	return nil
}

func (f *fakeSubtaskStore) GetByID(ctx context.Context, id uuid.UUID) (*domain.Subtask, error) {
	st, ok := f.subtasks[id]
	if !ok {
		return nil, store.ErrSubtaskNotFound
	}
	return st, nil
}

func (f *fakeSubtaskStore) Update(ctx context.Context, subtask *domain.Subtask) error {
	if _, ok := f.subtasks[subtask.ID]; !ok {
		return store.ErrSubtaskNotFound
	}
	f.subtasks[subtask.ID] = subtask
	return nil
}

func (f *fakeSubtaskStore) UpdateStatus(
	ctx context.Context,
	id uuid.UUID,
	status domain.TaskStatus,
) error {
	st, ok := f.subtasks[id]
	if !ok {
		return store.ErrSubtaskNotFound
	}
	st.Status = status
	return nil
}

func (f *fakeSubtaskStore) AddComment(
	ctx context.Context,
	subtaskID uuid.UUID,
	comment *domain.Comment,
) error {
	if _, ok := f.subtasks[subtaskID]; !ok {
		return store.ErrSubtaskNotFound
	}
	return nil
}

func (f *fakeSubtaskStore) Delete(ctx context.Context, id uuid.UUID) error {
	if _, ok := f.subtasks[id]; !ok {
		return store.ErrSubtaskNotFound
	}
	delete(f.subtasks, id)
	return nil
}

func (f *fakeSubtaskStore) DeleteByTask(ctx context.Context, taskID uuid.UUID) (int, error) {
	removed := 0
	for id, st := range f.subtasks {
		if st.TaskID == taskID {
			delete(f.subtasks, id)
			removed++
		}
	}
	return removed, nil
}

func (f *fakeSubtaskStore) ListByTask(
	ctx context.Context,
	taskID uuid.UUID,
	filter store.SubtaskFilter,
	limit, offset int,
) ([]*domain.Subtask, int, error) {
	var matched []*domain.Subtask
	for _, st := range f.subtasks {
		if st.TaskID != taskID {
			continue
		}
		if filter.CreatorID != uuid.Nil && st.CreatorID != filter.CreatorID {
			continue
		}
		if filter.AssigneeID != uuid.Nil && !st.IsAssignee(filter.AssigneeID) {
			continue
		}
		matched = append(matched, st)
	}
	total := len(matched)
	if offset >= len(matched) {
		return nil, total, nil
	}
	matched = matched[offset:]
	if len(matched) > limit {
		matched = matched[:limit]
	}
	return matched, total, nil
}

func (f *fakeSubtaskStore) WithTx(tx *sql.Tx) store.SubtaskStore { return f }

// txIsolatedSubtaskStore hands each transaction a deep copy of the base
// state. Staged writes never merge back, which is what a rolled-back
// transaction looks like from outside: tests use it to check that the base
// store still shows pre-mutation state after a failure inside
// RunInTransaction.
type txIsolatedSubtaskStore struct {
	*fakeSubtaskStore
}

func (s *txIsolatedSubtaskStore) WithTx(tx *sql.Tx) store.SubtaskStore {
	clone := newFakeSubtaskStore()
	for id, st := range s.subtasks {
		copied := *st
		copied.AssignedTo = append([]uuid.UUID(nil), st.AssignedTo...)
		copied.Comments = append([]domain.Comment(nil), st.Comments...)
		clone.subtasks[id] = &copied
	}
	return clone
}

type fakeNotificationStore struct {
	notifications map[uuid.UUID]*domain.Notification
	createErr     error
	failOn        int // when set, only the Nth Create fails; otherwise every one
	creates       int
}

func newFakeNotificationStore(notifications ...*domain.Notification) *fakeNotificationStore {
	f := &fakeNotificationStore{notifications: make(map[uuid.UUID]*domain.Notification)}
	for _, n := range notifications {
		f.notifications[n.ID] = n
	}
	return f
}

func (f *fakeNotificationStore) Create(ctx context.Context, n *domain.Notification) error {
	f.creates++
	if f.createErr != nil && (f.failOn == 0 || f.creates == f.failOn) {
		return f.createErr
	}
	f.notifications[n.ID] = n
	return nil
}

func (f *fakeNotificationStore) ListForRecipient(
	ctx context.Context,
	recipientID uuid.UUID,
	filter store.NotificationFilter,
	limit, offset int,
) ([]*domain.Notification, int, error) {
	var matched []*domain.Notification
	for _, n := range f.notifications {
		if n.RecipientID != recipientID {
			continue
		}
		if filter.IsRead != nil && n.IsRead != *filter.IsRead {
			continue
		}
		matched = append(matched, n)
	}
	total := len(matched)
	if offset >= len(matched) {
		return nil, total, nil
	}
	matched = matched[offset:]
	if len(matched) > limit {
		matched = matched[:limit]
	}
	return matched, total, nil
}

func (f *fakeNotificationStore) CountUnseenSince(
	ctx context.Context,
	recipientID uuid.UUID,
	since time.Time,
) (int, error) {
	count := 0
	for _, n := range f.notifications {
		if n.RecipientID == recipientID && !n.IsSeen && n.CreatedAt.After(since) {
			count++
		}
	}
	return count, nil
}

func (f *fakeNotificationStore) SetRead(
	ctx context.Context,
	id uuid.UUID,
	read bool,
) (*domain.Notification, error) {
	n, ok := f.notifications[id]
	if !ok {
		return nil, store.ErrNotificationNotFound
	}
	n.IsRead = read
	return n, nil
}

func (f *fakeNotificationStore) MarkAllRead(ctx context.Context, recipientID uuid.UUID) (int, error) {
	affected := 0
	for _, n := range f.notifications {
		if n.RecipientID == recipientID && !n.IsRead {
			n.IsRead = true
			affected++
		}
	}
	return affected, nil
}

func (f *fakeNotificationStore) MarkAllSeen(ctx context.Context, recipientID uuid.UUID) (int, error) {
	affected := 0
	for _, n := range f.notifications {
		if n.RecipientID == recipientID && !n.IsSeen {
			n.IsSeen = true
			affected++
		}
	}
	return affected, nil
}

func (f *fakeNotificationStore) Delete(ctx context.Context, id uuid.UUID) error {
	if _, ok := f.notifications[id]; !ok {
		return store.ErrNotificationNotFound
	}
	delete(f.notifications, id)
	return nil
}

func (f *fakeNotificationStore) GetByID(
	ctx context.Context,
	id uuid.UUID,
) (*domain.Notification, error) {
	n, ok := f.notifications[id]
	if !ok {
		return nil, store.ErrNotificationNotFound
	}
	return n, nil
}

func (f *fakeNotificationStore) WithTx(tx *sql.Tx) store.NotificationStore { return f }

// txIsolatedNotificationStore is the notification-side counterpart of
// txIsolatedSubtaskStore: each transaction writes into a discardable staging
// copy, carrying over the configured failure injection.
type txIsolatedNotificationStore struct {
	*fakeNotificationStore
}

func (s *txIsolatedNotificationStore) WithTx(tx *sql.Tx) store.NotificationStore {
	staged := newFakeNotificationStore()
	for id, n := range s.notifications {
		copied := *n
		staged.notifications[id] = &copied
	}
	staged.createErr = s.createErr
	staged.failOn = s.failOn
	return staged
}

func (f *fakeNotificationStore) forRecipient(recipientID uuid.UUID) []*domain.Notification {
	var out []*domain.Notification
	for _, n := range f.notifications {
		if n.RecipientID == recipientID {
			out = append(out, n)
		}
	}
	return out
}

// fakeEmitter records emitted events for assertions.
type fakeEmitter struct {
	events []*events.NotificationCommittedEvent
}

func (f *fakeEmitter) EmitEvent(
	ctx context.Context,
	event *events.NotificationCommittedEvent,
) error {
	f.events = append(f.events, event)
	return nil
}

func (f *fakeEmitter) emitted() []*domain.Notification {
	var out []*domain.Notification
	for _, e := range f.events {
		out = append(out, e.Notifications...)
	}
	return out
}

// testEngine wires a fan-out engine over the given notification fake.
func testEngine(notifications store.NotificationStore) *notify.Engine {
	return notify.NewEngine(notifications, testLogger())
}
