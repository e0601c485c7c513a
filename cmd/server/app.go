package main

import (
	"context"
	"database/sql"
	"fmt"
	"log/slog"

	"github.com/phrazzld/taskhive-api/internal/config"
	"github.com/phrazzld/taskhive-api/internal/events"
	"github.com/phrazzld/taskhive-api/internal/platform/postgres"
	"github.com/phrazzld/taskhive-api/internal/realtime"
	"github.com/phrazzld/taskhive-api/internal/service"
	"github.com/phrazzld/taskhive-api/internal/service/auth"
	"github.com/phrazzld/taskhive-api/internal/service/notify"
	"github.com/phrazzld/taskhive-api/internal/store"
)

// application holds all the shared application dependencies to simplify
// management and ensure proper cleanup on shutdown.
type application struct {
	// Configuration
	config *config.Config

	// Core services
	logger *slog.Logger
	db     *sql.DB

	// Stores (using interfaces for proper abstraction)
	userStore         store.UserStore
	taskStore         store.TaskStore
	subtaskStore      store.SubtaskStore
	notificationStore store.NotificationStore

	// Service interfaces
	jwtService          auth.JWTService
	userService         service.UserService
	taskService         service.TaskService
	subtaskService      service.SubtaskService
	notificationService service.NotificationService

	// Notification fan-out and real-time delivery
	engine       *notify.Engine
	eventEmitter events.EventEmitter
	registry     *realtime.Registry
	bridge       *realtime.Bridge
	wsHandler    *realtime.Handler
}

// newApplication creates a new application instance with all dependencies
// initialized. The wiring order matters only at the end: the push bridge is
// registered on the event emitter so services created before it can already
// hold the emitter.
func newApplication(cfg *config.Config, logger *slog.Logger, db *sql.DB) (*application, error) {
	app := &application{
		config: cfg,
		logger: logger,
		db:     db,
	}

	var err error
	app.jwtService, err = auth.NewJWTService(cfg.Auth)
	if err != nil {
		return nil, fmt.Errorf("failed to initialize JWT service: %w", err)
	}
	logger.Info("JWT authentication service initialized",
		"token_lifetime_minutes", cfg.Auth.TokenLifetimeMinutes)

	hasher := auth.NewBcryptHasher(cfg.Auth.BCryptCost)
	verifier := auth.NewBcryptVerifier()

	// Stores
	app.userStore = postgres.NewPostgresUserStore(db, logger)
	app.taskStore = postgres.NewPostgresTaskStore(db, logger)
	app.subtaskStore = postgres.NewPostgresSubtaskStore(db, logger)
	app.notificationStore = postgres.NewPostgresNotificationStore(db, logger)

	// Fan-out engine and event system
	app.engine = notify.NewEngine(app.notificationStore, logger)
	app.eventEmitter = events.NewInMemoryEventEmitter(logger)

	// Services
	app.userService = service.NewUserService(app.userStore, hasher, verifier, db, logger)
	app.taskService = service.NewTaskService(
		app.taskStore,
		app.subtaskStore,
		app.userStore,
		app.engine,
		app.eventEmitter,
		db,
		logger,
	)
	app.subtaskService = service.NewSubtaskService(
		app.subtaskStore,
		app.taskStore,
		app.userStore,
		app.engine,
		app.eventEmitter,
		db,
		logger,
	)
	app.notificationService = service.NewNotificationService(app.notificationStore, logger)

	// Real-time layer: the bridge consumes committed-notification events and
	// pushes to sessions bound by the WebSocket handler.
	app.registry = realtime.NewRegistry()
	app.bridge = realtime.NewBridge(app.registry, logger)
	app.wsHandler = realtime.NewHandler(app.registry, app.jwtService, logger)

	if emitter, ok := app.eventEmitter.(*events.InMemoryEventEmitter); ok {
		emitter.RegisterHandler(app.bridge)
	} else {
		return nil, fmt.Errorf("unexpected event emitter type, cannot register push bridge")
	}

	logger.Info("Application initialized successfully")
	return app, nil
}

// Run starts the application server, handling lifecycle and cleanup.
// It returns an error if the server fails to start or encounters problems.
func (app *application) Run(ctx context.Context) error {
	router := app.setupRouter()

	if err := app.startHTTPServer(ctx, router); err != nil {
		return fmt.Errorf("server error: %w", err)
	}

	return nil
}

// cleanup handles graceful shutdown of application resources.
func (app *application) cleanup() {
	if app.db != nil {
		if err := app.db.Close(); err != nil {
			app.logger.Error("Error closing database connection", "error", err)
		}
	}

	app.logger.Info("Application shutdown completed")
}
