package postgres

import (
	"context"
	"database/sql"
	"fmt"
	"log/slog"

	"github.com/google/uuid"
	"github.com/phrazzld/taskhive-api/internal/domain"
	"github.com/phrazzld/taskhive-api/internal/platform/logger"
	"github.com/phrazzld/taskhive-api/internal/store"
)

// PostgresUserStore implements the store.UserStore interface
// using a PostgreSQL database as the storage backend.
type PostgresUserStore struct {
	db     store.DBTX
	logger *slog.Logger
}

// NewPostgresUserStore creates a new PostgreSQL implementation of the
// UserStore interface. It accepts a database connection or transaction that
// should be initialized and managed by the caller.
func NewPostgresUserStore(db store.DBTX, logger *slog.Logger) *PostgresUserStore {
	if db == nil {
		panic("db cannot be nil")
	}
	if logger == nil {
		logger = slog.Default()
	}

	return &PostgresUserStore{
		db:     db,
		logger: logger.With(slog.String("component", "user_store")),
	}
}

// Ensure PostgresUserStore implements store.UserStore interface
var _ store.UserStore = (*PostgresUserStore)(nil)

// WithTx implements store.UserStore.WithTx
func (s *PostgresUserStore) WithTx(tx *sql.Tx) store.UserStore {
	return &PostgresUserStore{
		db:     tx,
		logger: s.logger,
	}
}

// Create implements store.UserStore.Create
// Returns store.ErrEmailExists or store.ErrUsernameExists when the
// corresponding unique constraint is violated.
func (s *PostgresUserStore) Create(ctx context.Context, user *domain.User) error {
	log := logger.FromContextOrDefault(ctx, s.logger)

	if err := user.Validate(); err != nil {
		log.Warn("user validation failed during create",
			slog.String("error", err.Error()),
			slog.String("user_id", user.ID.String()))
		return err
	}

	query := `
		INSERT INTO users (id, username, email, hashed_password, created_at, updated_at)
		VALUES ($1, $2, $3, $4, $5, $6)
	`
	_, err := s.db.ExecContext(
		ctx,
		query,
		user.ID,
		user.Username,
		user.Email,
		user.HashedPassword,
		user.CreatedAt,
		user.UpdatedAt,
	)

	if err != nil {
		switch {
		case IsUniqueViolation(err, "users_email_key"):
			return fmt.Errorf("%w: %v", store.ErrEmailExists, err)
		case IsUniqueViolation(err, "users_username_key"):
			return fmt.Errorf("%w: %v", store.ErrUsernameExists, err)
		}
		log.Error("failed to create user",
			slog.String("error", err.Error()),
			slog.String("user_id", user.ID.String()))
		return MapError(err)
	}

	log.Info("user created successfully",
		slog.String("user_id", user.ID.String()),
		slog.String("username", user.Username))
	return nil
}

// GetByID implements store.UserStore.GetByID
// Returns store.ErrUserNotFound if the user does not exist.
func (s *PostgresUserStore) GetByID(ctx context.Context, id uuid.UUID) (*domain.User, error) {
	query := `
		SELECT id, username, email, hashed_password, created_at, updated_at
		FROM users
		WHERE id = $1
	`
	return s.scanUser(ctx, s.db.QueryRowContext(ctx, query, id))
}

// GetByEmail implements store.UserStore.GetByEmail
// Returns store.ErrUserNotFound if the user does not exist.
func (s *PostgresUserStore) GetByEmail(ctx context.Context, email string) (*domain.User, error) {
	query := `
		SELECT id, username, email, hashed_password, created_at, updated_at
		FROM users
		WHERE email = $1
	`
	return s.scanUser(ctx, s.db.QueryRowContext(ctx, query, email))
}

// GetByUsername implements store.UserStore.GetByUsername
// Returns store.ErrUserNotFound if the user does not exist.
func (s *PostgresUserStore) GetByUsername(
	ctx context.Context,
	username string,
) (*domain.User, error) {
	query := `
		SELECT id, username, email, hashed_password, created_at, updated_at
		FROM users
		WHERE username = $1
	`
	return s.scanUser(ctx, s.db.QueryRowContext(ctx, query, username))
}

// UpdateConnections implements store.UserStore.UpdateConnections
// It replaces the user's contact list with the given set.
func (s *PostgresUserStore) UpdateConnections(
	ctx context.Context,
	id uuid.UUID,
	connections []uuid.UUID,
) error {
	log := logger.FromContextOrDefault(ctx, s.logger)

	// Ensure the user exists before touching the join table.
	result, err := s.db.ExecContext(
		ctx,
		`UPDATE users SET updated_at = now() WHERE id = $1`,
		id,
	)
	if err != nil {
		return MapError(err)
	}
	if err := CheckRowsAffected(result, "user"); err != nil {
		return fmt.Errorf("%w: %v", store.ErrUserNotFound, err)
	}

	if _, err := s.db.ExecContext(
		ctx,
		`DELETE FROM user_connections WHERE user_id = $1`,
		id,
	); err != nil {
		return MapError(err)
	}

	for _, conn := range connections {
		if _, err := s.db.ExecContext(
			ctx,
			`INSERT INTO user_connections (user_id, connection_id) VALUES ($1, $2)`,
			id,
			conn,
		); err != nil {
			log.Error("failed to store user connection",
				slog.String("error", err.Error()),
				slog.String("user_id", id.String()),
				slog.String("connection_id", conn.String()))
			return MapError(err)
		}
	}

	return nil
}

// ListByIDs implements store.UserStore.ListByIDs
func (s *PostgresUserStore) ListByIDs(
	ctx context.Context,
	ids []uuid.UUID,
) ([]*domain.User, error) {
	if len(ids) == 0 {
		return nil, nil
	}

	query := `
		SELECT id, username, email, hashed_password, created_at, updated_at
		FROM users
		WHERE id = ANY($1::uuid[])
	`
	rows, err := s.db.QueryContext(ctx, query, uuidStrings(ids))
	if err != nil {
		return nil, MapError(err)
	}
	defer func() { _ = rows.Close() }()

	var users []*domain.User
	for rows.Next() {
		var u domain.User
		if err := rows.Scan(
			&u.ID,
			&u.Username,
			&u.Email,
			&u.HashedPassword,
			&u.CreatedAt,
			&u.UpdatedAt,
		); err != nil {
			return nil, MapError(err)
		}
		users = append(users, &u)
	}
	if err := rows.Err(); err != nil {
		return nil, MapError(err)
	}

	return users, nil
}

// scanUser reads one user row plus their connections.
func (s *PostgresUserStore) scanUser(ctx context.Context, row *sql.Row) (*domain.User, error) {
	var u domain.User
	err := row.Scan(
		&u.ID,
		&u.Username,
		&u.Email,
		&u.HashedPassword,
		&u.CreatedAt,
		&u.UpdatedAt,
	)
	if err != nil {
		if err == sql.ErrNoRows {
			return nil, store.ErrUserNotFound
		}
		return nil, MapError(err)
	}

	rows, err := s.db.QueryContext(
		ctx,
		`SELECT connection_id FROM user_connections WHERE user_id = $1 ORDER BY created_at`,
		u.ID,
	)
	if err != nil {
		return nil, MapError(err)
	}
	defer func() { _ = rows.Close() }()

	for rows.Next() {
		var conn uuid.UUID
		if err := rows.Scan(&conn); err != nil {
			return nil, MapError(err)
		}
		u.Connections = append(u.Connections, conn)
	}
	if err := rows.Err(); err != nil {
		return nil, MapError(err)
	}

	return &u, nil
}
