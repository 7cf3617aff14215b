package employee

import "context"

// EmployeeRepository is the directory the payroll engine reads from.
// Every lookup is scoped by companyID.
type EmployeeRepository interface {
	GetByID(ctx context.Context, companyID string, id string) (Employee, error)
	GetActiveByCompanyID(ctx context.Context, companyID string) ([]Employee, error)
}
