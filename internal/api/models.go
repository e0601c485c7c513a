package api

import (
	"time"

	"github.com/google/uuid"
	"github.com/phrazzld/taskhive-api/internal/domain"
)

// Common request/response structures

// RegisterRequest defines the payload for the user registration endpoint.
type RegisterRequest struct {
	Username string `json:"username" validate:"required,min=3,max=30"`
	Email    string `json:"email"    validate:"required,email"`
	Password string `json:"password" validate:"required,min=12,max=72"`
}

// LoginRequest defines the payload for the user login endpoint.
type LoginRequest struct {
	Email    string `json:"email"    validate:"required,email"`
	Password string `json:"password" validate:"required,min=1"`
}

// AuthResponse defines the successful response for authentication endpoints.
type AuthResponse struct {
	// UserID is the unique identifier for the authenticated user
	UserID uuid.UUID `json:"user_id"`

	// Username is the authenticated user's display name
	Username string `json:"username"`

	// AccessToken is the JWT token used for API authorization
	AccessToken string `json:"token"`

	// RefreshToken is the JWT token used to obtain new access tokens
	RefreshToken string `json:"refresh_token,omitempty"`
}

// RefreshTokenRequest defines the payload for the token refresh endpoint.
type RefreshTokenRequest struct {
	RefreshToken string `json:"refresh_token" validate:"required"`
}

// RefreshTokenResponse defines the successful response for the token refresh endpoint.
type RefreshTokenResponse struct {
	AccessToken  string `json:"access_token"`
	RefreshToken string `json:"refresh_token"`
}

// CreateTaskRequest defines the payload for creating a task.
type CreateTaskRequest struct {
	Title       string      `json:"title"       validate:"required,min=1,max=200"`
	Description string      `json:"description" validate:"max=2000"`
	Priority    string      `json:"priority"    validate:"omitempty,oneof=low medium high"`
	AssignedTo  []uuid.UUID `json:"assigned_to"`
}

// UpdateTaskRequest defines the payload for replacing a task's content and
// assignee set.
type UpdateTaskRequest struct {
	Title       string      `json:"title"       validate:"required,min=1,max=200"`
	Description string      `json:"description" validate:"max=2000"`
	Priority    string      `json:"priority"    validate:"required,oneof=low medium high"`
	AssignedTo  []uuid.UUID `json:"assigned_to"`
}

// UpdateStatusRequest defines the payload for task and subtask status
// transitions.
type UpdateStatusRequest struct {
	Status string `json:"status" validate:"required,oneof=pending completed"`
}

// AddCommentRequest defines the payload for commenting on a task or subtask.
type AddCommentRequest struct {
	Text string `json:"text" validate:"required,min=1,max=2000"`
}

// CreateSubtaskRequest defines the payload for creating a subtask under a task.
type CreateSubtaskRequest struct {
	Title       string      `json:"title"       validate:"required,min=1,max=200"`
	Description string      `json:"description" validate:"max=2000"`
	Priority    string      `json:"priority"    validate:"omitempty,oneof=low medium high"`
	AssignedTo  []uuid.UUID `json:"assigned_to"`
}

// UpdateSubtaskRequest defines the payload for replacing a subtask's content
// and assignee set.
type UpdateSubtaskRequest = UpdateTaskRequest

// AddConnectionRequest defines the payload for adding a user connection.
type AddConnectionRequest struct {
	UserID uuid.UUID `json:"user_id" validate:"required"`
}

// UserResponse is the public projection of a user record.
type UserResponse struct {
	ID       uuid.UUID `json:"id"`
	Username string    `json:"username"`
	Email    string    `json:"email"`
}

// NewUserResponse projects a domain user for client consumption.
func NewUserResponse(u *domain.User) UserResponse {
	return UserResponse{
		ID:       u.ID,
		Username: u.Username,
		Email:    u.Email,
	}
}

// PaginatedResponse is the standard list envelope: the page items plus the
// totals needed for client-side pagination.
type PaginatedResponse struct {
	Items      interface{} `json:"items"`
	TotalCount int         `json:"totalCount"`
	Page       int         `json:"page"`
	TotalPages int         `json:"totalPages"`
}

// NewPaginatedResponse assembles the envelope, computing totalPages as the
// ceiling of totalCount/limit. An empty result still reports page 1 of 0.
func NewPaginatedResponse(items interface{}, totalCount, page, limit int) PaginatedResponse {
	if page < 1 {
		page = 1
	}
	if limit < 1 {
		limit = 10
	}
	totalPages := (totalCount + limit - 1) / limit
	return PaginatedResponse{
		Items:      items,
		TotalCount: totalCount,
		Page:       page,
		TotalPages: totalPages,
	}
}

// UnseenCountResponse is the badge-count payload.
type UnseenCountResponse struct {
	Count int       `json:"count"`
	Since time.Time `json:"since,omitempty"`
}

// DeletedResponse echoes the identifier of a removed record.
type DeletedResponse struct {
	ID uuid.UUID `json:"id"`
}
