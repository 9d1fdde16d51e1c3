package domain

import "github.com/google/uuid"

// UserProfile represents a registered Fleetdeck user.
type UserProfile struct {
	ID          uuid.UUID `json:"id"`
	Email       string    `json:"email"`
	DisplayName string    `json:"displayName"`
	Role        string    `json:"role"`
}

// Persistence names the storage tier a credential is written to.
type Persistence string

const (
	// PersistenceDurable survives process restarts ("remember me").
	PersistenceDurable Persistence = "durable"
	// PersistenceEphemeral lives only as long as the current process.
	PersistenceEphemeral Persistence = "ephemeral"
)

// Credential is the authenticated session: the bearer token plus the cached
// profile of its owner. Exactly one credential is active at a time; it is
// owned by the session manager and handed out as read-only snapshots.
type Credential struct {
	Token       string
	Profile     UserProfile
	Persistence Persistence
}
