package payroll

import (
	"errors"
	"fmt"

	"github.com/cmlabs-hris/jamaica-payroll/internal/domain/period"
	"github.com/shopspring/decimal"
)

var (
	ErrPayrollRecordNotFound  = errors.New("payroll record not found")
	ErrPayrollRecordFinalized = errors.New("payroll record is finalized and cannot be modified")
	ErrRecordNotPending       = errors.New("only pending payroll records can be deleted")
	ErrEmptyBatch             = errors.New("payroll batch has no records")
	ErrNegativeNetPay         = errors.New("net pay is negative")
	ErrIncompleteBatch        = errors.New("payroll batch still has pending records")
	ErrConcurrentFinalize     = errors.New("payroll batch is already being finalized")
	ErrEmployeeNotInBatch     = errors.New("employee has no payroll record for this period")
	ErrNegativeHours          = errors.New("hours worked is negative")
)

// NegativeNetPayError is surfaced for manual review instead of clamping to zero.
type NegativeNetPayError struct {
	EmployeeID string
	Period     period.Period
	Net        decimal.Decimal
}

func (e *NegativeNetPayError) Error() string {
	return fmt.Sprintf("%s: employee %s period %s net=%s", ErrNegativeNetPay.Error(), e.EmployeeID, e.Period.Key(), e.Net.StringFixed(2))
}

func (e *NegativeNetPayError) Unwrap() error {
	return ErrNegativeNetPay
}

// IncompleteBatchError is the finalize guard's refusal.
type IncompleteBatchError struct {
	CompanyID    string
	Period       period.Period
	PendingCount int
}

func (e *IncompleteBatchError) Error() string {
	return fmt.Sprintf("%s: %d pending in %s", ErrIncompleteBatch.Error(), e.PendingCount, e.Period.Key())
}

func (e *IncompleteBatchError) Unwrap() error {
	return ErrIncompleteBatch
}

type ConcurrentFinalizeError struct {
	CompanyID string
	Period    period.Period
}

func (e *ConcurrentFinalizeError) Error() string {
	return fmt.Sprintf("%s: %s", ErrConcurrentFinalize.Error(), e.Period.Key())
}

func (e *ConcurrentFinalizeError) Unwrap() error {
	return ErrConcurrentFinalize
}
