// Package logger provides structured logging functionality for the
// application, built on log/slog. It owns logger setup from configuration
// and the context plumbing that carries a request-scoped logger through
// services and stores.
package logger
