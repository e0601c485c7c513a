package api

import (
	"context"
	"log/slog"
	"net/http"
	"time"

	"github.com/google/uuid"
	"github.com/phrazzld/taskhive-api/internal/api/shared"
	"github.com/phrazzld/taskhive-api/internal/service"
	"github.com/phrazzld/taskhive-api/internal/store"
)

// NotificationHandler handles the recipient-facing notification endpoints.
// There is deliberately no create endpoint: notifications are produced only
// by the fan-out engine inside domain mutations.
type NotificationHandler struct {
	notificationService service.NotificationService
	logger              *slog.Logger
}

// NewNotificationHandler creates a new NotificationHandler with the given
// dependencies.
func NewNotificationHandler(
	notificationService service.NotificationService,
	logger *slog.Logger,
) *NotificationHandler {
	return &NotificationHandler{
		notificationService: notificationService,
		logger:              logger.With(slog.String("component", "notification_handler")),
	}
}

// ListNotifications handles GET /api/notifications. Supports the optional
// is_read filter ("true"/"false") plus the standard pagination parameters.
func (h *NotificationHandler) ListNotifications(w http.ResponseWriter, r *http.Request) {
	userID, ok := getUserIDFromContext(r)
	if !ok {
		shared.RespondWithError(w, r, http.StatusUnauthorized, "User ID not found or invalid")
		return
	}

	filter := store.NotificationFilter{}
	switch r.URL.Query().Get("is_read") {
	case "true":
		v := true
		filter.IsRead = &v
	case "false":
		v := false
		filter.IsRead = &v
	}

	page, limit := getPagination(r)

	notifications, total, err := h.notificationService.ListNotifications(
		r.Context(), userID, filter, page, limit)
	if err != nil {
		HandleAPIError(w, r, err, "")
		return
	}

	shared.RespondWithJSON(w, r, http.StatusOK,
		NewPaginatedResponse(notifications, total, page, limit))
}

// CountUnseen handles GET /api/notifications/unseen. An optional RFC 3339
// "since" parameter restricts the count to newer notifications.
func (h *NotificationHandler) CountUnseen(w http.ResponseWriter, r *http.Request) {
	userID, ok := getUserIDFromContext(r)
	if !ok {
		shared.RespondWithError(w, r, http.StatusUnauthorized, "User ID not found or invalid")
		return
	}

	var since time.Time
	if v := r.URL.Query().Get("since"); v != "" {
		parsed, err := time.Parse(time.RFC3339, v)
		if err != nil {
			shared.RespondWithError(w, r, http.StatusBadRequest,
				"Invalid since parameter, expected RFC 3339 timestamp")
			return
		}
		since = parsed
	}

	count, err := h.notificationService.CountUnseen(r.Context(), userID, since)
	if err != nil {
		HandleAPIError(w, r, err, "")
		return
	}

	shared.RespondWithJSON(w, r, http.StatusOK, UnseenCountResponse{
		Count: count,
		Since: since,
	})
}

// MarkRead handles PATCH /api/notifications/{notificationID}/read.
func (h *NotificationHandler) MarkRead(w http.ResponseWriter, r *http.Request) {
	h.setRead(w, r, true)
}

// MarkUnread handles PATCH /api/notifications/{notificationID}/unread.
func (h *NotificationHandler) MarkUnread(w http.ResponseWriter, r *http.Request) {
	h.setRead(w, r, false)
}

func (h *NotificationHandler) setRead(w http.ResponseWriter, r *http.Request, read bool) {
	userID, notificationID, ok := handleUserIDAndPathUUID(w, r, "notificationID", h.logger)
	if !ok {
		return
	}

	notification, err := h.notificationService.SetRead(r.Context(), userID, notificationID, read)
	if err != nil {
		HandleAPIError(w, r, err, "")
		return
	}

	shared.RespondWithJSON(w, r, http.StatusOK, notification)
}

// MarkAllRead handles PUT /api/notifications/markAllRead. Responds with the
// recipient's refreshed notification page so clients can re-render their list
// without a follow-up fetch.
func (h *NotificationHandler) MarkAllRead(w http.ResponseWriter, r *http.Request) {
	h.markAll(w, r, h.notificationService.MarkAllRead)
}

// MarkAllSeen handles PUT /api/notifications/markAllSeen. Responds with the
// recipient's refreshed notification page, like MarkAllRead.
func (h *NotificationHandler) MarkAllSeen(w http.ResponseWriter, r *http.Request) {
	h.markAll(w, r, h.notificationService.MarkAllSeen)
}

func (h *NotificationHandler) markAll(
	w http.ResponseWriter,
	r *http.Request,
	bulk func(context.Context, uuid.UUID) (int, error),
) {
	userID, ok := getUserIDFromContext(r)
	if !ok {
		shared.RespondWithError(w, r, http.StatusUnauthorized, "User ID not found or invalid")
		return
	}

	// The affected-row count stays internal; the contract is the updated page.
	if _, err := bulk(r.Context(), userID); err != nil {
		HandleAPIError(w, r, err, "")
		return
	}

	page, limit := getPagination(r)
	notifications, total, err := h.notificationService.ListNotifications(
		r.Context(), userID, store.NotificationFilter{}, page, limit)
	if err != nil {
		HandleAPIError(w, r, err, "")
		return
	}

	shared.RespondWithJSON(w, r, http.StatusOK,
		NewPaginatedResponse(notifications, total, page, limit))
}

// DeleteNotification handles DELETE /api/notifications/{notificationID}.
func (h *NotificationHandler) DeleteNotification(w http.ResponseWriter, r *http.Request) {
	userID, notificationID, ok := handleUserIDAndPathUUID(w, r, "notificationID", h.logger)
	if !ok {
		return
	}

	if err := h.notificationService.DeleteNotification(r.Context(), userID, notificationID); err != nil {
		HandleAPIError(w, r, err, "")
		return
	}

	shared.RespondWithJSON(w, r, http.StatusOK, DeletedResponse{ID: notificationID})
}
