package payroll

import (
	"context"

	"github.com/cmlabs-hris/jamaica-payroll/internal/domain/period"
)

// PayrollService drives a (company, period) batch through
// sync -> calculate -> audit -> finalize and serves read access.
type PayrollService interface {
	Sync(ctx context.Context, companyID string, p period.Period) (SyncResult, error)
	Calculate(ctx context.Context, companyID string, p period.Period) (CalculateResult, error)
	CalculateEmployee(ctx context.Context, companyID string, employeeID string, p period.Period) (CalculateResult, error)
	Audit(ctx context.Context, companyID string, p period.Period) (AuditResult, error)
	Finalize(ctx context.Context, companyID string, p period.Period, finalizedBy string) (FinalizeResult, error)

	GetBatch(ctx context.Context, companyID string, p period.Period) (BatchResponse, error)
	StatutoryExtract(ctx context.Context, companyID string, p period.Period) (StatutoryExtract, error)
	YearToDate(ctx context.Context, companyID string, employeeID string, through period.Period) (YearToDate, error)

	GetRecord(ctx context.Context, companyID string, id string) (PayrollRecordResponse, error)
	ListRecords(ctx context.Context, companyID string, filter PayrollFilter) (ListPayrollRecordResponse, error)
	DeleteRecord(ctx context.Context, companyID string, id string) error
}
