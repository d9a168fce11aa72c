package user

type Role string

const (
	RoleOwner    Role = "owner"    // Company owner - full access
	RoleManager  Role = "manager"  // Can assign and approve shifts
	RoleEmployee Role = "employee" // Regular employee
	RolePending  Role = "pending"  // Still in onboarding
)

// Actor is the authenticated caller, read from access token claims.
type Actor struct {
	UserID     string
	CompanyID  string
	EmployeeID *string
	Role       Role
}

// Can checks the role's permission set.
func (a Actor) Can(permission Permission) bool {
	return HasPermission(a.Role, permission)
}

// IsSelf reports whether employeeID is the actor's own employee record.
func (a Actor) IsSelf(employeeID string) bool {
	return a.EmployeeID != nil && *a.EmployeeID == employeeID
}

// IsManager checks if actor is manager or owner
func (a Actor) IsManager() bool {
	return a.Role == RoleManager || a.Role == RoleOwner
}
