package policy

// RoleAdmin is the role whose members bypass policy inspection
// entirely.
const RoleAdmin = "admin"

// Actor is the minimal read-only view of the acting user the
// evaluator needs. Callers own the value; the evaluator never writes.
type Actor struct {
	ID       string
	Role     string
	IsActive bool
}

// IsAdmin reports whether the actor carries the administrative role.
func (a Actor) IsAdmin() bool { return a.Role == RoleAdmin }

// Resource is the minimal read-only view of the target resource.
type Resource struct {
	ID        string
	OwnerID   string
	Kind      ResourceKind
	IsDeleted bool
}
