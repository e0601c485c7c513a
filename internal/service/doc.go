// Package service contains the application-specific use cases and business
// logic. It orchestrates interactions between domain objects and repositories
// (defined in internal/store) to fulfill application features.
//
// Each service receives its dependencies through constructor injection and
// owns the transactional boundary of its operations: a mutation, its
// authorization checks, and its notification fan-out (internal/service/notify)
// all run inside one transaction via store.RunInTransaction. Real-time
// delivery happens strictly after commit, through the events emitter.
//
// The service layer depends on domain entities and repository interfaces
// (from store), but never on specific infrastructure implementations.
package service
