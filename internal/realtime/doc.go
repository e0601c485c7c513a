// Package realtime owns the live-connection side of notification delivery:
// the session registry mapping a user to their active WebSocket connection,
// the push bridge that sends committed notifications to connected recipients,
// and the HTTP handler that authenticates and upgrades connections.
//
// Delivery is best-effort and at-most-once. A recipient without a bound
// session is not an error; a failed send is logged and swallowed. Durable
// storage of the notification has already happened by the time this package
// is involved.
package realtime
