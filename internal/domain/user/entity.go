package user

type Role string

const (
	RoleOwner    Role = "owner"    // Company owner - full access
	RoleManager  Role = "manager"  // Runs payroll batches
	RoleEmployee Role = "employee" // Regular employee
)

func (r Role) IsValid() bool {
	switch r {
	case RoleOwner, RoleManager, RoleEmployee:
		return true
	}
	return false
}

// Principal is the caller identity carried in an access token.
type Principal struct {
	UserID     string
	CompanyID  string
	EmployeeID *string
	Role       Role
}

// IsOwner checks if user is company owner
func (p Principal) IsOwner() bool {
	return p.Role == RoleOwner
}
