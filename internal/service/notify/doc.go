// Package notify implements the notification fan-out engine: given a domain
// mutation and its role-tagged participants, it decides who must be told,
// renders one message per recipient, and writes the notification records
// inside the mutation's own transaction so the mutation and its fan-out
// commit or roll back as one unit.
//
// The engine never pushes anything over the wire itself. It returns the
// committed-to-be records so the caller can hand them to the real-time
// bridge strictly after the transaction commits.
package notify
