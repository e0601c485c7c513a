package domain

import (
	"testing"

	"github.com/google/uuid"
)

func TestNewUser(t *testing.T) {
	validUsername := "testuser"
	validEmail := "test@example.com"
	validPassword := "averylongpassword"

	user, err := NewUser(validUsername, validEmail, validPassword)
	if err != nil {
		t.Fatalf("Expected no error, got %v", err)
	}

	if user.ID == uuid.Nil {
		t.Error("Expected non-nil UUID, got nil UUID")
	}

	if user.Username != validUsername {
		t.Errorf("Expected username %s, got %s", validUsername, user.Username)
	}

	if user.Email != validEmail {
		t.Errorf("Expected email %s, got %s", validEmail, user.Email)
	}

	if user.CreatedAt.IsZero() || user.UpdatedAt.IsZero() {
		t.Error("Expected non-zero timestamps")
	}

	// Test empty username
	_, err = NewUser("", validEmail, validPassword)
	if err != ErrEmptyUsername {
		t.Errorf("Expected error %v, got %v", ErrEmptyUsername, err)
	}

	// Test invalid email
	_, err = NewUser(validUsername, "invalidemail", validPassword)
	if err != ErrInvalidEmail {
		t.Errorf("Expected error %v, got %v", ErrInvalidEmail, err)
	}

	// Test short password
	_, err = NewUser(validUsername, validEmail, "short")
	if err != ErrPasswordTooShort {
		t.Errorf("Expected error %v, got %v", ErrPasswordTooShort, err)
	}
}

func TestUserConnections(t *testing.T) {
	user, err := NewUser("testuser", "test@example.com", "averylongpassword")
	if err != nil {
		t.Fatalf("Expected no error, got %v", err)
	}

	other := uuid.New()

	if err := user.AddConnection(other); err != nil {
		t.Fatalf("Expected no error, got %v", err)
	}
	if len(user.Connections) != 1 || user.Connections[0] != other {
		t.Errorf("Expected connections to contain %s, got %v", other, user.Connections)
	}

	// Adding the same connection twice fails
	if err := user.AddConnection(other); err != ErrConnectionExists {
		t.Errorf("Expected error %v, got %v", ErrConnectionExists, err)
	}

	// Connecting to yourself fails
	if err := user.AddConnection(user.ID); err != ErrSelfConnection {
		t.Errorf("Expected error %v, got %v", ErrSelfConnection, err)
	}

	// Removing an existing connection succeeds
	if !user.RemoveConnection(other) {
		t.Error("Expected RemoveConnection to report true for existing connection")
	}
	if len(user.Connections) != 0 {
		t.Errorf("Expected empty connections, got %v", user.Connections)
	}

	// Removing an absent connection is a reported no-op
	if user.RemoveConnection(other) {
		t.Error("Expected RemoveConnection to report false for absent connection")
	}
}
