package user

// Role enum, trusted as given by the identity provider.
type Role string

const (
	RoleAdmin    Role = "admin"
	RoleEmployee Role = "employee"
)

// Actor is the authenticated caller of a state-changing operation.
// Lead-assignee standing is not a role: it is derived per project from the
// project's lead assignees at check time.
type Actor struct {
	UserID     string
	EmployeeID string
	Role       Role
}

func (a Actor) IsAdmin() bool {
	return a.Role == RoleAdmin
}
