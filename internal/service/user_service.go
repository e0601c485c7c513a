package service

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"log/slog"

	"github.com/google/uuid"
	"github.com/phrazzld/taskhive-api/internal/domain"
	"github.com/phrazzld/taskhive-api/internal/service/auth"
	"github.com/phrazzld/taskhive-api/internal/store"
)

// UserService provides registration, authentication support and contact
// list management.
type UserService interface {
	// Register creates a new user with the given username, email and
	// plaintext password. The password is hashed before storage.
	// Returns store.ErrEmailExists or store.ErrUsernameExists on conflicts.
	Register(ctx context.Context, username, email, password string) (*domain.User, error)

	// Authenticate verifies the email/password pair and returns the user.
	// Returns ErrInvalidCredentials when either is wrong; an unknown email
	// and a bad password are indistinguishable to the caller.
	Authenticate(ctx context.Context, email, password string) (*domain.User, error)

	// GetUser retrieves a user by their ID.
	GetUser(ctx context.Context, userID uuid.UUID) (*domain.User, error)

	// AddConnection adds another user to the requesting user's contact list.
	// Returns domain.ErrSelfConnection, domain.ErrConnectionExists, or
	// store.ErrUserNotFound when the target does not exist.
	AddConnection(ctx context.Context, userID, otherID uuid.UUID) error

	// RemoveConnection drops another user from the requesting user's contact
	// list. Removing an absent connection is a no-op.
	RemoveConnection(ctx context.Context, userID, otherID uuid.UUID) error

	// ListConnections resolves the requesting user's contact list to users.
	ListConnections(ctx context.Context, userID uuid.UUID) ([]*domain.User, error)
}

// UserServiceImpl implements the UserService interface
type UserServiceImpl struct {
	userStore store.UserStore
	hasher    auth.PasswordHasher
	verifier  auth.PasswordVerifier
	db        *sql.DB
	logger    *slog.Logger
}

// NewUserService creates a new UserService
func NewUserService(
	userStore store.UserStore,
	hasher auth.PasswordHasher,
	verifier auth.PasswordVerifier,
	db *sql.DB,
	logger *slog.Logger,
) UserService {
	return &UserServiceImpl{
		userStore: userStore,
		hasher:    hasher,
		verifier:  verifier,
		db:        db,
		logger:    logger.With("component", "user_service"),
	}
}

// Register creates a new user with the specified username, email and password.
// Uses a transaction to ensure atomicity of the operation.
func (s *UserServiceImpl) Register(
	ctx context.Context,
	username, email, password string,
) (*domain.User, error) {
	user, err := domain.NewUser(username, email, password)
	if err != nil {
		s.logger.Debug("rejected invalid registration",
			"error", err,
			"email", email)
		return nil, fmt.Errorf("failed to create user: %w", err)
	}

	hashed, err := s.hasher.Hash(password)
	if err != nil {
		s.logger.Error("failed to hash password",
			"error", err)
		return nil, fmt.Errorf("failed to hash password: %w", err)
	}
	user.HashedPassword = hashed
	user.Password = ""

	err = store.RunInTransaction(ctx, s.db, func(ctx context.Context, tx *sql.Tx) error {
		return s.userStore.WithTx(tx).Create(ctx, user)
	})
	if err != nil {
		if errors.Is(err, store.ErrEmailExists) || errors.Is(err, store.ErrUsernameExists) {
			s.logger.Debug("attempted to register with existing identity",
				"email", email,
				"username", username)
		} else {
			s.logger.Error("failed to save user to database",
				"error", err,
				"email", email)
		}
		return nil, fmt.Errorf("failed to create user: %w", err)
	}

	s.logger.Info("user registered",
		"user_id", user.ID,
		"username", user.Username)

	return user, nil
}

// Authenticate verifies the email/password pair and returns the user on success.
func (s *UserServiceImpl) Authenticate(
	ctx context.Context,
	email, password string,
) (*domain.User, error) {
	user, err := s.userStore.GetByEmail(ctx, email)
	if err != nil {
		if errors.Is(err, store.ErrUserNotFound) {
			s.logger.Debug("login attempt for unknown email",
				"email", email)
			return nil, ErrInvalidCredentials
		}
		s.logger.Error("failed to retrieve user for authentication",
			"error", err,
			"email", email)
		return nil, fmt.Errorf("failed to authenticate: %w", err)
	}

	if err := s.verifier.Compare(user.HashedPassword, password); err != nil {
		s.logger.Debug("login attempt with wrong password",
			"user_id", user.ID)
		return nil, ErrInvalidCredentials
	}

	return user, nil
}

// GetUser retrieves a user by their ID
func (s *UserServiceImpl) GetUser(ctx context.Context, userID uuid.UUID) (*domain.User, error) {
	user, err := s.userStore.GetByID(ctx, userID)
	if err != nil {
		s.logger.Error("failed to retrieve user",
			"error", err,
			"user_id", userID)
		return nil, fmt.Errorf("failed to retrieve user: %w", err)
	}

	return user, nil
}

// AddConnection adds otherID to userID's contact list.
// Uses a transaction so the read-modify-write of the contact list is atomic.
func (s *UserServiceImpl) AddConnection(ctx context.Context, userID, otherID uuid.UUID) error {
	return store.RunInTransaction(ctx, s.db, func(ctx context.Context, tx *sql.Tx) error {
		txStore := s.userStore.WithTx(tx)

		user, err := txStore.GetByID(ctx, userID)
		if err != nil {
			return fmt.Errorf("failed to retrieve user for connection update: %w", err)
		}

		// The target must exist; a dangling contact list entry would make
		// later ListConnections calls silently shrink.
		if _, err := txStore.GetByID(ctx, otherID); err != nil {
			if errors.Is(err, store.ErrUserNotFound) {
				s.logger.Debug("attempted to connect to non-existent user",
					"user_id", userID,
					"other_id", otherID)
			}
			return fmt.Errorf("failed to retrieve connection target: %w", err)
		}

		if err := user.AddConnection(otherID); err != nil {
			return err
		}

		if err := txStore.UpdateConnections(ctx, userID, user.Connections); err != nil {
			s.logger.Error("failed to update connections",
				"error", err,
				"user_id", userID)
			return fmt.Errorf("failed to update connections: %w", err)
		}

		s.logger.Info("connection added",
			"user_id", userID,
			"other_id", otherID)

		return nil
	})
}

// RemoveConnection drops otherID from userID's contact list.
func (s *UserServiceImpl) RemoveConnection(ctx context.Context, userID, otherID uuid.UUID) error {
	return store.RunInTransaction(ctx, s.db, func(ctx context.Context, tx *sql.Tx) error {
		txStore := s.userStore.WithTx(tx)

		user, err := txStore.GetByID(ctx, userID)
		if err != nil {
			return fmt.Errorf("failed to retrieve user for connection update: %w", err)
		}

		if !user.RemoveConnection(otherID) {
			// Absent connection: nothing to persist.
			return nil
		}

		if err := txStore.UpdateConnections(ctx, userID, user.Connections); err != nil {
			s.logger.Error("failed to update connections",
				"error", err,
				"user_id", userID)
			return fmt.Errorf("failed to update connections: %w", err)
		}

		s.logger.Info("connection removed",
			"user_id", userID,
			"other_id", otherID)

		return nil
	})
}

// ListConnections resolves the user's contact list to full user records.
func (s *UserServiceImpl) ListConnections(
	ctx context.Context,
	userID uuid.UUID,
) ([]*domain.User, error) {
	user, err := s.userStore.GetByID(ctx, userID)
	if err != nil {
		return nil, fmt.Errorf("failed to retrieve user: %w", err)
	}

	if len(user.Connections) == 0 {
		return []*domain.User{}, nil
	}

	connections, err := s.userStore.ListByIDs(ctx, user.Connections)
	if err != nil {
		s.logger.Error("failed to resolve connections",
			"error", err,
			"user_id", userID)
		return nil, fmt.Errorf("failed to resolve connections: %w", err)
	}

	return connections, nil
}
