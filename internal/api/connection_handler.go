package api

import (
	"log/slog"
	"net/http"

	"github.com/go-playground/validator/v10"

	"github.com/phrazzld/taskhive-api/internal/api/shared"
	"github.com/phrazzld/taskhive-api/internal/service"
)

// ConnectionHandler handles the user contact list endpoints.
type ConnectionHandler struct {
	userService service.UserService
	validator   *validator.Validate
	logger      *slog.Logger
}

// NewConnectionHandler creates a new ConnectionHandler with the given
// dependencies.
func NewConnectionHandler(userService service.UserService, logger *slog.Logger) *ConnectionHandler {
	return &ConnectionHandler{
		userService: userService,
		validator:   validator.New(),
		logger:      logger.With(slog.String("component", "connection_handler")),
	}
}

// ListConnections handles GET /api/connections.
func (h *ConnectionHandler) ListConnections(w http.ResponseWriter, r *http.Request) {
	userID, ok := getUserIDFromContext(r)
	if !ok {
		shared.RespondWithError(w, r, http.StatusUnauthorized, "User ID not found or invalid")
		return
	}

	connections, err := h.userService.ListConnections(r.Context(), userID)
	if err != nil {
		HandleAPIError(w, r, err, "")
		return
	}

	users := make([]UserResponse, 0, len(connections))
	for _, u := range connections {
		users = append(users, NewUserResponse(u))
	}

	shared.RespondWithJSON(w, r, http.StatusOK, users)
}

// AddConnection handles POST /api/connections.
func (h *ConnectionHandler) AddConnection(w http.ResponseWriter, r *http.Request) {
	userID, ok := getUserIDFromContext(r)
	if !ok {
		shared.RespondWithError(w, r, http.StatusUnauthorized, "User ID not found or invalid")
		return
	}

	var req AddConnectionRequest
	if err := shared.DecodeJSON(r, &req); err != nil {
		shared.RespondWithError(w, r, http.StatusBadRequest, "Invalid request format")
		return
	}
	if err := h.validator.Struct(req); err != nil {
		shared.RespondWithError(w, r, http.StatusBadRequest, SanitizeValidationError(err))
		return
	}

	if err := h.userService.AddConnection(r.Context(), userID, req.UserID); err != nil {
		HandleAPIError(w, r, err, "")
		return
	}

	shared.RespondWithJSON(w, r, http.StatusCreated, map[string]string{
		"message": "Connection added successfully",
	})
}

// RemoveConnection handles DELETE /api/connections/{userID}.
func (h *ConnectionHandler) RemoveConnection(w http.ResponseWriter, r *http.Request) {
	userID, otherID, ok := handleUserIDAndPathUUID(w, r, "userID", h.logger)
	if !ok {
		return
	}

	if err := h.userService.RemoveConnection(r.Context(), userID, otherID); err != nil {
		HandleAPIError(w, r, err, "")
		return
	}

	shared.RespondWithJSON(w, r, http.StatusOK, map[string]string{
		"message": "Connection removed successfully",
	})
}
