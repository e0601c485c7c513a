package api

import (
	"log/slog"
	"net/http"

	"github.com/go-playground/validator/v10"

	"github.com/phrazzld/taskhive-api/internal/api/shared"
	"github.com/phrazzld/taskhive-api/internal/domain"
	"github.com/phrazzld/taskhive-api/internal/service"
	"github.com/phrazzld/taskhive-api/internal/store"
)

// SubtaskHandler handles subtask-related API requests. Creation and listing
// are nested under the parent task route; single-subtask operations address
// the subtask directly.
type SubtaskHandler struct {
	subtaskService service.SubtaskService
	validator      *validator.Validate
	logger         *slog.Logger
}

// NewSubtaskHandler creates a new SubtaskHandler with the given dependencies.
func NewSubtaskHandler(subtaskService service.SubtaskService, logger *slog.Logger) *SubtaskHandler {
	return &SubtaskHandler{
		subtaskService: subtaskService,
		validator:      validator.New(),
		logger:         logger.With(slog.String("component", "subtask_handler")),
	}
}

// CreateSubtask handles POST /api/tasks/{taskID}/subtasks.
func (h *SubtaskHandler) CreateSubtask(w http.ResponseWriter, r *http.Request) {
	userID, taskID, ok := handleUserIDAndPathUUID(w, r, "taskID", h.logger)
	if !ok {
		return
	}

	var req CreateSubtaskRequest
	if err := shared.DecodeJSON(r, &req); err != nil {
		shared.RespondWithError(w, r, http.StatusBadRequest, "Invalid request format")
		return
	}
	if err := h.validator.Struct(req); err != nil {
		shared.RespondWithError(w, r, http.StatusBadRequest, SanitizeValidationError(err))
		return
	}

	subtask, err := h.subtaskService.CreateSubtask(
		r.Context(),
		userID,
		taskID,
		req.Title,
		req.Description,
		domain.TaskPriority(req.Priority),
		req.AssignedTo,
	)
	if err != nil {
		HandleAPIError(w, r, err, "")
		return
	}

	shared.RespondWithJSON(w, r, http.StatusCreated, subtask)
}

// GetSubtask handles GET /api/subtasks/{subtaskID}.
func (h *SubtaskHandler) GetSubtask(w http.ResponseWriter, r *http.Request) {
	userID, subtaskID, ok := handleUserIDAndPathUUID(w, r, "subtaskID", h.logger)
	if !ok {
		return
	}

	subtask, err := h.subtaskService.GetSubtask(r.Context(), userID, subtaskID)
	if err != nil {
		HandleAPIError(w, r, err, "")
		return
	}

	shared.RespondWithJSON(w, r, http.StatusOK, subtask)
}

// ListSubtasks handles GET /api/tasks/{taskID}/subtasks. The scope parameter
// restricts results to subtasks the caller created (my-subtasks routes) or
// is assigned to (assigned-subtasks routes); scopeAll applies no restriction.
func (h *SubtaskHandler) ListSubtasks(scope SubtaskScope) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		userID, taskID, ok := handleUserIDAndPathUUID(w, r, "taskID", h.logger)
		if !ok {
			return
		}

		filter := store.SubtaskFilter{}
		if status := r.URL.Query().Get("status"); status != "" {
			filter.Status = domain.TaskStatus(status)
		}
		if priority := r.URL.Query().Get("priority"); priority != "" {
			filter.Priority = domain.TaskPriority(priority)
		}
		switch scope {
		case SubtaskScopeCreator:
			filter.CreatorID = userID
		case SubtaskScopeAssignee:
			filter.AssigneeID = userID
		}

		page, limit := getPagination(r)

		subtasks, total, err := h.subtaskService.ListSubtasks(
			r.Context(), userID, taskID, filter, page, limit)
		if err != nil {
			HandleAPIError(w, r, err, "")
			return
		}

		shared.RespondWithJSON(w, r, http.StatusOK,
			NewPaginatedResponse(subtasks, total, page, limit))
	}
}

// UpdateSubtask handles PUT /api/subtasks/{subtaskID}.
func (h *SubtaskHandler) UpdateSubtask(w http.ResponseWriter, r *http.Request) {
	userID, subtaskID, ok := handleUserIDAndPathUUID(w, r, "subtaskID", h.logger)
	if !ok {
		return
	}

	var req UpdateSubtaskRequest
	if err := shared.DecodeJSON(r, &req); err != nil {
		shared.RespondWithError(w, r, http.StatusBadRequest, "Invalid request format")
		return
	}
	if err := h.validator.Struct(req); err != nil {
		shared.RespondWithError(w, r, http.StatusBadRequest, SanitizeValidationError(err))
		return
	}

	subtask, err := h.subtaskService.UpdateSubtask(r.Context(), userID, subtaskID,
		service.SubtaskUpdate{
			Title:       req.Title,
			Description: req.Description,
			Priority:    domain.TaskPriority(req.Priority),
			AssignedTo:  req.AssignedTo,
		})
	if err != nil {
		HandleAPIError(w, r, err, "")
		return
	}

	shared.RespondWithJSON(w, r, http.StatusOK, subtask)
}

// UpdateSubtaskStatus handles PATCH /api/subtasks/{subtaskID}/status.
func (h *SubtaskHandler) UpdateSubtaskStatus(w http.ResponseWriter, r *http.Request) {
	userID, subtaskID, ok := handleUserIDAndPathUUID(w, r, "subtaskID", h.logger)
	if !ok {
		return
	}

	var req UpdateStatusRequest
	if err := shared.DecodeJSON(r, &req); err != nil {
		shared.RespondWithError(w, r, http.StatusBadRequest, "Invalid request format")
		return
	}
	if err := h.validator.Struct(req); err != nil {
		shared.RespondWithError(w, r, http.StatusBadRequest, SanitizeValidationError(err))
		return
	}

	subtask, err := h.subtaskService.UpdateSubtaskStatus(
		r.Context(), userID, subtaskID, domain.TaskStatus(req.Status))
	if err != nil {
		HandleAPIError(w, r, err, "")
		return
	}

	shared.RespondWithJSON(w, r, http.StatusOK, subtask)
}

// AddComment handles POST /api/subtasks/{subtaskID}/comments.
func (h *SubtaskHandler) AddComment(w http.ResponseWriter, r *http.Request) {
	userID, subtaskID, ok := handleUserIDAndPathUUID(w, r, "subtaskID", h.logger)
	if !ok {
		return
	}

	var req AddCommentRequest
	if err := shared.DecodeJSON(r, &req); err != nil {
		shared.RespondWithError(w, r, http.StatusBadRequest, "Invalid request format")
		return
	}
	if err := h.validator.Struct(req); err != nil {
		shared.RespondWithError(w, r, http.StatusBadRequest, SanitizeValidationError(err))
		return
	}

	subtask, err := h.subtaskService.AddComment(r.Context(), userID, subtaskID, req.Text)
	if err != nil {
		HandleAPIError(w, r, err, "")
		return
	}

	shared.RespondWithJSON(w, r, http.StatusOK, subtask)
}

// DeleteSubtask handles DELETE /api/subtasks/{subtaskID}.
func (h *SubtaskHandler) DeleteSubtask(w http.ResponseWriter, r *http.Request) {
	userID, subtaskID, ok := handleUserIDAndPathUUID(w, r, "subtaskID", h.logger)
	if !ok {
		return
	}

	if err := h.subtaskService.DeleteSubtask(r.Context(), userID, subtaskID); err != nil {
		HandleAPIError(w, r, err, "")
		return
	}

	shared.RespondWithJSON(w, r, http.StatusOK, map[string]string{
		"message": "Subtask deleted successfully",
	})
}

// SubtaskScope selects which relationship restricts a subtask listing.
type SubtaskScope int

// Subtask listing scopes
const (
	SubtaskScopeAll SubtaskScope = iota
	SubtaskScopeCreator
	SubtaskScopeAssignee
)
