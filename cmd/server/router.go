package main

import (
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/phrazzld/taskhive-api/internal/api"
	apiMiddleware "github.com/phrazzld/taskhive-api/internal/api/middleware"
	"github.com/phrazzld/taskhive-api/internal/store"
)

// setupRouter creates and configures the application router with all routes
// and middleware.
func (app *application) setupRouter() http.Handler {
	r := chi.NewRouter()

	// Apply standard middleware
	r.Use(middleware.RequestID)
	r.Use(middleware.RealIP)
	r.Use(middleware.Logger)
	r.Use(middleware.Recoverer)
	r.Use(apiMiddleware.NewTraceMiddleware(app.logger))

	// Create API handlers using the application's services
	authHandler := api.NewAuthHandler(app.userService, app.jwtService, app.logger)
	taskHandler := api.NewTaskHandler(app.taskService, app.logger)
	subtaskHandler := api.NewSubtaskHandler(app.subtaskService, app.logger)
	notificationHandler := api.NewNotificationHandler(app.notificationService, app.logger)
	connectionHandler := api.NewConnectionHandler(app.userService, app.logger)
	authMiddleware := apiMiddleware.NewAuthMiddleware(app.jwtService)

	// Register routes
	r.Route("/api", func(r chi.Router) {
		// Authentication endpoints (public)
		r.Post("/auth/register", authHandler.Register)
		r.Post("/auth/login", authHandler.Login)
		r.Post("/auth/refresh", authHandler.RefreshToken)

		// Protected routes
		r.Group(func(r chi.Router) {
			r.Use(authMiddleware.Authenticate)

			// Task endpoints
			r.Get("/tasks", taskHandler.ListTasks(store.TaskRoleAny))
			r.Get("/tasks/my-tasks", taskHandler.ListTasks(store.TaskRoleCreator))
			r.Get("/tasks/assigned-tasks", taskHandler.ListTasks(store.TaskRoleAssignee))
			r.Post("/tasks", taskHandler.CreateTask)
			r.Get("/tasks/{taskID}", taskHandler.GetTask)
			r.Put("/tasks/{taskID}", taskHandler.UpdateTask)
			r.Delete("/tasks/{taskID}", taskHandler.DeleteTask)
			r.Patch("/tasks/{taskID}/status", taskHandler.UpdateTaskStatus)
			r.Post("/tasks/{taskID}/comments", taskHandler.AddComment)

			// Subtask endpoints
			r.Get("/tasks/{taskID}/subtasks",
				subtaskHandler.ListSubtasks(api.SubtaskScopeAll))
			r.Get("/tasks/{taskID}/subtasks/my-subtasks",
				subtaskHandler.ListSubtasks(api.SubtaskScopeCreator))
			r.Get("/tasks/{taskID}/subtasks/assigned-subtasks",
				subtaskHandler.ListSubtasks(api.SubtaskScopeAssignee))
			r.Post("/tasks/{taskID}/subtasks", subtaskHandler.CreateSubtask)
			r.Get("/subtasks/{subtaskID}", subtaskHandler.GetSubtask)
			r.Put("/subtasks/{subtaskID}", subtaskHandler.UpdateSubtask)
			r.Delete("/subtasks/{subtaskID}", subtaskHandler.DeleteSubtask)
			r.Patch("/subtasks/{subtaskID}/status", subtaskHandler.UpdateSubtaskStatus)
			r.Post("/subtasks/{subtaskID}/comments", subtaskHandler.AddComment)

			// Notification endpoints
			r.Get("/notifications", notificationHandler.ListNotifications)
			r.Get("/notifications/unseen", notificationHandler.CountUnseen)
			r.Patch("/notifications/{notificationID}/read", notificationHandler.MarkRead)
			r.Patch("/notifications/{notificationID}/unread", notificationHandler.MarkUnread)
			r.Put("/notifications/markAllRead", notificationHandler.MarkAllRead)
			r.Put("/notifications/markAllSeen", notificationHandler.MarkAllSeen)
			r.Delete("/notifications/{notificationID}", notificationHandler.DeleteNotification)

			// Connection endpoints
			r.Get("/connections", connectionHandler.ListConnections)
			r.Post("/connections", connectionHandler.AddConnection)
			r.Delete("/connections/{userID}", connectionHandler.RemoveConnection)
		})
	})

	// WebSocket endpoint authenticates inside the handler, before upgrade.
	r.Get("/ws", app.wsHandler.Serve)

	// Health check endpoint
	r.Get("/health", func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusOK)
		if _, err := w.Write([]byte("OK")); err != nil {
			app.logger.Error("Failed to write health check response", "error", err)
		}
	})

	return r
}
