// Package store provides abstractions for data persistence. It defines the
// interfaces the service layer depends on, the shared DBTX/transaction
// primitives, and the sentinel errors implementations must return. Concrete
// implementations live in internal/platform/postgres.
package store
