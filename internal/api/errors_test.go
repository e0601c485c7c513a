package api

import (
	"errors"
	"fmt"
	"net/http"
	"testing"

	"github.com/phrazzld/taskhive-api/internal/domain"
	"github.com/phrazzld/taskhive-api/internal/service"
	"github.com/phrazzld/taskhive-api/internal/service/auth"
	"github.com/phrazzld/taskhive-api/internal/store"
	"github.com/stretchr/testify/assert"
)

func TestMapErrorToStatusCode(t *testing.T) {
	testCases := []struct {
		name string
		err  error
		want int
	}{
		{"invalid token", auth.ErrInvalidToken, http.StatusUnauthorized},
		{"expired token", auth.ErrExpiredToken, http.StatusUnauthorized},
		{"bad credentials", service.ErrInvalidCredentials, http.StatusUnauthorized},
		{"not owned", service.ErrNotOwned, http.StatusForbidden},
		{"not participant", service.ErrNotParticipant, http.StatusForbidden},
		{"not recipient", service.ErrNotRecipient, http.StatusForbidden},
		{"user not found", store.ErrUserNotFound, http.StatusNotFound},
		{"task not found", store.ErrTaskNotFound, http.StatusNotFound},
		{"subtask not found", store.ErrSubtaskNotFound, http.StatusNotFound},
		{"notification not found", store.ErrNotificationNotFound, http.StatusNotFound},
		{"email exists", store.ErrEmailExists, http.StatusConflict},
		{"username exists", store.ErrUsernameExists, http.StatusConflict},
		{"connection exists", domain.ErrConnectionExists, http.StatusConflict},
		{"assignee outside task", service.ErrAssigneeOutsideTask, http.StatusUnprocessableEntity},
		{"invalid entity", store.ErrInvalidEntity, http.StatusBadRequest},
		{"invalid status", domain.ErrInvalidTaskStatus, http.StatusBadRequest},
		{"self connection", domain.ErrSelfConnection, http.StatusBadRequest},
		{"unknown error", errors.New("database on fire"), http.StatusInternalServerError},
	}

	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			assert.Equal(t, tc.want, MapErrorToStatusCode(tc.err))
		})
	}
}

func TestMapErrorToStatusCodeUnwrapsChains(t *testing.T) {
	// Services wrap store errors with context; the mapping must see through.
	wrapped := fmt.Errorf("failed to retrieve task: %w", store.ErrTaskNotFound)
	assert.Equal(t, http.StatusNotFound, MapErrorToStatusCode(wrapped))

	wrapped = fmt.Errorf("failed to create user: %w", store.ErrEmailExists)
	assert.Equal(t, http.StatusConflict, MapErrorToStatusCode(wrapped))
}

func TestGetSafeErrorMessage(t *testing.T) {
	// Internal detail never reaches the client.
	internal := errors.New("pq: connection refused host=10.0.0.5 password=hunter2")
	assert.Equal(t, "An unexpected error occurred", GetSafeErrorMessage(internal))
	assert.NotContains(t, GetSafeErrorMessage(internal), "hunter2")

	assert.Equal(t, "Invalid credentials", GetSafeErrorMessage(service.ErrInvalidCredentials))
	assert.Equal(t, "Task not found",
		GetSafeErrorMessage(fmt.Errorf("wrap: %w", store.ErrTaskNotFound)))
	assert.Equal(t, "Assignee is not a participant of the parent task",
		GetSafeErrorMessage(service.ErrAssigneeOutsideTask))
	assert.Equal(t, "An unexpected error occurred", GetSafeErrorMessage(nil))
}

func TestSanitizeValidationError(t *testing.T) {
	validationErr := errors.New(
		"Key: 'LoginRequest.Email' Error:Field validation for 'Email' failed on the 'required' tag")
	assert.Equal(t, "Invalid Email: required field", SanitizeValidationError(validationErr))

	assert.Equal(t, "Validation error",
		SanitizeValidationError(errors.New("something else entirely")))
}
