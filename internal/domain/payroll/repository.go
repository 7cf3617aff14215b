package payroll

import (
	"context"
	"time"

	"github.com/cmlabs-hris/jamaica-payroll/internal/domain/period"
)

// PayrollRepository persists payroll records keyed by (company, employee, period).
// All methods include companyID to prevent cross-company data access.
type PayrollRepository interface {
	// CreatePendingIfAbsent inserts a zeroed Pending record unless one
	// already exists. created reports which case happened.
	CreatePendingIfAbsent(ctx context.Context, companyID string, employeeID string, p period.Period) (created bool, err error)

	GetByID(ctx context.Context, companyID string, id string) (PayrollRecord, error)
	GetByEmployeePeriod(ctx context.Context, companyID string, employeeID string, p period.Period) (PayrollRecord, error)
	ListByBatch(ctx context.Context, companyID string, p period.Period) ([]PayrollRecord, error)
	List(ctx context.Context, companyID string, filter PayrollFilter) ([]PayrollRecord, int64, error)
	ListByEmployeeYear(ctx context.Context, companyID string, employeeID string, year int) ([]PayrollRecord, error)

	// SaveCalculated overwrites every figure of a non-finalized record and
	// marks it Calculated. It returns ErrPayrollRecordFinalized when the
	// record has been finalized in the meantime.
	SaveCalculated(ctx context.Context, record PayrollRecord) (PayrollRecord, error)

	// FinalizeBatch moves every Calculated record of the batch to Finalized
	// in one transaction, or changes nothing.
	FinalizeBatch(ctx context.Context, companyID string, p period.Period, finalizedBy string, at time.Time) (FinalizeResult, error)

	DeletePending(ctx context.Context, companyID string, id string) error

	// HasFinalizedFrom reports whether any company has a finalized record at or after p.
	HasFinalizedFrom(ctx context.Context, p period.Period) (bool, error)
	// IsFinalized reports whether the employee's record for p is finalized.
	IsFinalized(ctx context.Context, companyID string, employeeID string, p period.Period) (bool, error)
}
