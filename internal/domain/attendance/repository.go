package attendance

import (
	"context"

	"github.com/cmlabs-hris/jamaica-payroll/internal/domain/period"
	"github.com/shopspring/decimal"
)

// HoursResolver totals the hours an employee worked in a period.
// All methods include companyID to prevent cross-company data access.
type HoursResolver interface {
	HoursWorked(ctx context.Context, companyID string, employeeID string, p period.Period) (decimal.Decimal, error)
}
