// Package events provides types and interfaces for an event-driven architecture.
//
// This package defines event types and handler interfaces that allow for loose
// coupling between components in the system. Services emit events without
// knowing which handlers will process them; here the domain services announce
// committed notifications and the real-time bridge reacts to them, without the
// services depending on the connection layer.
//
// The primary components are:
// - NotificationCommittedEvent: notifications durably committed by one mutation
// - EventHandler: Interface for components that can handle events
// - EventEmitter: Interface for components that can emit events
package events
