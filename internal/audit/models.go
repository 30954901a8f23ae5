package audit

import "time"

// Event is an immutable, append-only record of an authentication event.
//
// Invariants:
// - Events are never updated or deleted.
// - subject and ip capture are best-effort; do not block login or logout on audit failures.
//
// Storage (Postgres): table auth_events, INSERT-only, see schema.go.
type Event struct {
	ID   string    `json:"id" db:"id"`
	Type EventType `json:"type" db:"type"`

	// Subject is the identity provider subject (e.g. auth0|abc). Empty when the
	// session could not be resolved.
	Subject string `json:"subject,omitempty" db:"subject"`

	// IPAddress is the resolved client IP as seen by the proxy.
	IPAddress string `json:"ip_address,omitempty" db:"ip_address"`

	// Message is a short human-readable description for internal ops.
	Message string `json:"message,omitempty" db:"message"`

	CreatedAt time.Time `json:"created_at" db:"created_at"`
}

type EventType string

const (
	EventTypeLogin           EventType = "login"
	EventTypeLogout          EventType = "logout"
	EventTypeSessionRejected EventType = "session_rejected"
)
