package api

import (
	"context"
	"encoding/json"
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"
	"github.com/phrazzld/taskhive-api/internal/api/shared"
	"github.com/phrazzld/taskhive-api/internal/domain"
	"github.com/phrazzld/taskhive-api/internal/store"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func testLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

// stubNotificationService backs the handler tests with canned pages and
// records which bulk operations ran.
type stubNotificationService struct {
	notifications  []*domain.Notification
	markAllReadN   int
	markAllSeenN   int
	deletedIDs     []uuid.UUID
	listCallsAfter int
}

func (s *stubNotificationService) ListNotifications(
	ctx context.Context,
	actorID uuid.UUID,
	filter store.NotificationFilter,
	page, limit int,
) ([]*domain.Notification, int, error) {
	s.listCallsAfter++
	return s.notifications, len(s.notifications), nil
}

func (s *stubNotificationService) CountUnseen(
	ctx context.Context,
	actorID uuid.UUID,
	since time.Time,
) (int, error) {
	return 0, nil
}

func (s *stubNotificationService) SetRead(
	ctx context.Context,
	actorID, notificationID uuid.UUID,
	read bool,
) (*domain.Notification, error) {
	for _, n := range s.notifications {
		if n.ID == notificationID {
			n.IsRead = read
			return n, nil
		}
	}
	return nil, store.ErrNotificationNotFound
}

func (s *stubNotificationService) MarkAllRead(ctx context.Context, actorID uuid.UUID) (int, error) {
	s.markAllReadN++
	for _, n := range s.notifications {
		n.IsRead = true
	}
	return len(s.notifications), nil
}

func (s *stubNotificationService) MarkAllSeen(ctx context.Context, actorID uuid.UUID) (int, error) {
	s.markAllSeenN++
	for _, n := range s.notifications {
		n.IsSeen = true
	}
	return len(s.notifications), nil
}

func (s *stubNotificationService) DeleteNotification(
	ctx context.Context,
	actorID, notificationID uuid.UUID,
) error {
	s.deletedIDs = append(s.deletedIDs, notificationID)
	return nil
}

func notificationFixtures(recipientID uuid.UUID, count int) []*domain.Notification {
	taskID := uuid.New()
	out := make([]*domain.Notification, 0, count)
	for i := 0; i < count; i++ {
		out = append(out, &domain.Notification{
			ID:           uuid.New(),
			OriginatorID: uuid.New(),
			RecipientID:  recipientID,
			Message:      "alice updated task Roadmap",
			TaskID:       &taskID,
			CreatedAt:    time.Now().UTC(),
		})
	}
	return out
}

func authedRequest(t *testing.T, method, target string, userID uuid.UUID) *http.Request {
	t.Helper()
	r := httptest.NewRequest(method, target, nil)
	ctx := context.WithValue(r.Context(), shared.UserIDContextKey, userID)
	return r.WithContext(ctx)
}

// The bulk mark endpoints respond with the recipient's refreshed notification
// page in the standard envelope, not a bare affected count.
func TestMarkAllEndpointsReturnNotificationPage(t *testing.T) {
	testCases := []struct {
		name   string
		serve  func(h *NotificationHandler, w http.ResponseWriter, r *http.Request)
		called func(s *stubNotificationService) int
	}{
		{
			name:   "markAllRead",
			serve:  func(h *NotificationHandler, w http.ResponseWriter, r *http.Request) { h.MarkAllRead(w, r) },
			called: func(s *stubNotificationService) int { return s.markAllReadN },
		},
		{
			name:   "markAllSeen",
			serve:  func(h *NotificationHandler, w http.ResponseWriter, r *http.Request) { h.MarkAllSeen(w, r) },
			called: func(s *stubNotificationService) int { return s.markAllSeenN },
		},
	}

	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			userID := uuid.New()
			svc := &stubNotificationService{
				notifications: notificationFixtures(userID, 3),
			}
			h := NewNotificationHandler(svc, testLogger())

			w := httptest.NewRecorder()
			tc.serve(h, w, authedRequest(t, http.MethodPut, "/api/notifications/x", userID))

			require.Equal(t, http.StatusOK, w.Code)
			assert.Equal(t, 1, tc.called(svc), "bulk operation should run once")
			assert.Equal(t, 1, svc.listCallsAfter, "handler should refetch the page")

			var resp struct {
				Items      []*domain.Notification `json:"items"`
				TotalCount int                    `json:"totalCount"`
				Page       int                    `json:"page"`
				TotalPages int                    `json:"totalPages"`
			}
			require.NoError(t, json.Unmarshal(w.Body.Bytes(), &resp))
			assert.Len(t, resp.Items, 3)
			assert.Equal(t, 3, resp.TotalCount)
			assert.Equal(t, 1, resp.Page)
			assert.Equal(t, 1, resp.TotalPages)
		})
	}
}

func TestMarkAllRequiresAuthenticatedUser(t *testing.T) {
	svc := &stubNotificationService{}
	h := NewNotificationHandler(svc, testLogger())

	w := httptest.NewRecorder()
	h.MarkAllRead(w, httptest.NewRequest(http.MethodPut, "/api/notifications/markAllRead", nil))

	assert.Equal(t, http.StatusUnauthorized, w.Code)
	assert.Zero(t, svc.markAllReadN)
}

// Deleting a notification echoes the deleted id back to the client.
func TestDeleteNotificationReturnsDeletedID(t *testing.T) {
	userID := uuid.New()
	notificationID := uuid.New()
	svc := &stubNotificationService{}
	h := NewNotificationHandler(svc, testLogger())

	r := authedRequest(t, http.MethodDelete, "/api/notifications/"+notificationID.String(), userID)
	rctx := chi.NewRouteContext()
	rctx.URLParams.Add("notificationID", notificationID.String())
	r = r.WithContext(context.WithValue(r.Context(), chi.RouteCtxKey, rctx))

	w := httptest.NewRecorder()
	h.DeleteNotification(w, r)

	require.Equal(t, http.StatusOK, w.Code)
	require.Equal(t, []uuid.UUID{notificationID}, svc.deletedIDs)

	var resp struct {
		ID uuid.UUID `json:"id"`
	}
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &resp))
	assert.Equal(t, notificationID, resp.ID)
}
