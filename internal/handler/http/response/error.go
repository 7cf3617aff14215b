package response

import (
	"errors"
	"log/slog"
	"net/http"
	"strconv"

	"github.com/cmlabs-hris/jamaica-payroll/internal/domain/employee"
	"github.com/cmlabs-hris/jamaica-payroll/internal/domain/payroll"
	"github.com/cmlabs-hris/jamaica-payroll/internal/domain/period"
	"github.com/cmlabs-hris/jamaica-payroll/internal/domain/statutory"
	"github.com/cmlabs-hris/jamaica-payroll/internal/domain/transaction"
	"github.com/cmlabs-hris/jamaica-payroll/internal/domain/user"
	"github.com/cmlabs-hris/jamaica-payroll/internal/pkg/validator"
)

// HandleError maps domain errors to HTTP responses
func HandleError(w http.ResponseWriter, err error) {
	// Check if it's a validation error
	var validationErrs validator.ValidationErrors
	if errors.As(err, &validationErrs) {
		ValidationError(w, validationErrs.ToMap())
		return
	}

	var incomplete *payroll.IncompleteBatchError
	if errors.As(err, &incomplete) {
		ConflictWithDetails(w, "Payroll batch still has pending records", map[string]string{
			"period":        incomplete.Period.Key(),
			"pending_count": strconv.Itoa(incomplete.PendingCount),
		})
		return
	}

	var negativeNet *payroll.NegativeNetPayError
	if errors.As(err, &negativeNet) {
		UnprocessableEntity(w, "Net pay is negative", map[string]string{
			"employee_id": negativeNet.EmployeeID,
			"net":         negativeNet.Net.StringFixed(2),
		})
		return
	}

	switch {
	// Auth errors
	case errors.Is(err, user.ErrInvalidToken):
		Unauthorized(w, "Invalid token")
	case errors.Is(err, user.ErrCompanyIDRequired):
		Forbidden(w, "No company associated with this user")
	case errors.Is(err, user.ErrOwnerAccessRequired):
		Forbidden(w, "Owner access required")
	case errors.Is(err, user.ErrInsufficientPermissions):
		Forbidden(w, "Insufficient permissions")

	case errors.Is(err, period.ErrInvalidPeriod):
		ValidationError(w, map[string]string{"period": "must be a YYYY-MM period"})

	// Statutory domain errors
	case errors.Is(err, statutory.ErrRateNotFound):
		UnprocessableEntity(w, err.Error(), nil)
	case errors.Is(err, statutory.ErrNegativeIncome):
		UnprocessableEntity(w, err.Error(), nil)
	case errors.Is(err, statutory.ErrInvalidRateSet):
		UnprocessableEntity(w, err.Error(), nil)
	case errors.Is(err, statutory.ErrRateSetOverlap):
		Conflict(w, err.Error())
	case errors.Is(err, statutory.ErrRateSetVersionExists):
		Conflict(w, err.Error())
	case errors.Is(err, statutory.ErrRateSetConflictsWithFinalized):
		Conflict(w, err.Error())

	// Ledger errors
	case errors.Is(err, transaction.ErrInvalidTransaction):
		UnprocessableEntity(w, err.Error(), nil)
	case errors.Is(err, transaction.ErrTransactionNotFound):
		NotFound(w, "Transaction not found")
	case errors.Is(err, transaction.ErrTransactionCodeNotFound):
		NotFound(w, "Transaction code not found")
	case errors.Is(err, transaction.ErrTransactionCodeExists):
		Conflict(w, "Transaction code already exists")
	case errors.Is(err, transaction.ErrTransactionCodeInactive):
		UnprocessableEntity(w, "Transaction code is inactive", nil)
	case errors.Is(err, transaction.ErrTransactionAlreadyVoid):
		Conflict(w, "Transaction is already void")
	case errors.Is(err, transaction.ErrPeriodFinalized):
		Conflict(w, "Payroll for this employee and period is already finalized")

	// Payroll domain errors
	case errors.Is(err, payroll.ErrPayrollRecordNotFound):
		NotFound(w, "Payroll record not found")
	case errors.Is(err, payroll.ErrEmployeeNotInBatch):
		NotFound(w, "Employee has no payroll record for this period")
	case errors.Is(err, payroll.ErrPayrollRecordFinalized):
		Conflict(w, "Payroll record is finalized")
	case errors.Is(err, payroll.ErrRecordNotPending):
		Conflict(w, "Only pending payroll records can be deleted")
	case errors.Is(err, payroll.ErrEmptyBatch):
		Conflict(w, "Payroll batch has no records")
	case errors.Is(err, payroll.ErrConcurrentFinalize):
		Conflict(w, "Payroll batch is already being finalized")
	case errors.Is(err, payroll.ErrNegativeHours):
		UnprocessableEntity(w, err.Error(), nil)

	// Employee domain errors
	case errors.Is(err, employee.ErrEmployeeNotFound):
		NotFound(w, "Employee not found")
	case errors.Is(err, employee.ErrEmployeeNotActive):
		UnprocessableEntity(w, "Employee is not active", nil)
	case errors.Is(err, employee.ErrInvalidSalaryType):
		UnprocessableEntity(w, err.Error(), nil)

	// Default
	default:
		slog.Error("unhandled error", "error", err)
		InternalServerError(w, "An unexpected error occurred")
	}
}
