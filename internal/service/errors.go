package service

import "errors"

// Common service errors - sentinel errors used across service implementations.
// These errors represent expected conditions that callers check for with
// errors.Is(); the API layer maps them to HTTP status codes.
var (
	// ErrNotOwned indicates a resource is owned by a different user than the
	// one making the request. Only a task's or subtask's creator may edit its
	// structure or delete it. API layer should map this to HTTP 403 Forbidden.
	ErrNotOwned = errors.New("resource is owned by another user")

	// ErrNotParticipant indicates the requesting user is neither the creator
	// of nor assigned to the task or subtask they are trying to act on.
	// Viewing, status changes and comments require participation.
	// API layer should map this to HTTP 403 Forbidden.
	ErrNotParticipant = errors.New("user is not a participant of this resource")

	// ErrNotRecipient indicates the requesting user is not the recipient of
	// the notification they are trying to act on.
	// API layer should map this to HTTP 403 Forbidden.
	ErrNotRecipient = errors.New("notification belongs to another user")

	// ErrAssigneeOutsideTask indicates a subtask write named an assignee who
	// is neither assigned to the parent task nor its creator. Subtask
	// assignees must come from the parent task's participants.
	// API layer should map this to HTTP 422 Unprocessable Entity.
	ErrAssigneeOutsideTask = errors.New(
		"subtask assignee is not a participant of the parent task")

	// ErrInvalidCredentials indicates a login attempt with an unknown email
	// or a wrong password. The two cases are deliberately indistinguishable.
	// API layer should map this to HTTP 401 Unauthorized.
	ErrInvalidCredentials = errors.New("invalid email or password")
)
