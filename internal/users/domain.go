package users

import "time"

// User represents an account as seen by administration and by the
// policy engine's snapshots.
type User struct {
	ID        string
	Email     string
	Name      string
	Role      string
	IsActive  bool
	CreatedAt time.Time
	UpdatedAt time.Time
}
