package statutory

import (
	"errors"
	"fmt"

	"github.com/cmlabs-hris/jamaica-payroll/internal/domain/period"
	"github.com/shopspring/decimal"
)

var (
	ErrRateNotFound                  = errors.New("no statutory rate set covers period")
	ErrNegativeIncome                = errors.New("gross income is negative")
	ErrRateSetOverlap                = errors.New("rate set must start after the latest published rate set")
	ErrRateSetConflictsWithFinalized = errors.New("finalized payroll exists inside the new rate set's range")
	ErrRateSetVersionExists          = errors.New("rate set version already published")
	ErrInvalidRateSet                = errors.New("invalid statutory rate set")
)

// RateNotFoundError names the period that had no applicable rate set.
type RateNotFoundError struct {
	Period period.Period
}

func (e *RateNotFoundError) Error() string {
	return fmt.Sprintf("%s: %s", ErrRateNotFound.Error(), e.Period.Key())
}

func (e *RateNotFoundError) Unwrap() error {
	return ErrRateNotFound
}

// NegativeIncomeError carries the offending gross figure.
type NegativeIncomeError struct {
	Gross decimal.Decimal
}

func (e *NegativeIncomeError) Error() string {
	return fmt.Sprintf("%s: gross=%s", ErrNegativeIncome.Error(), e.Gross.StringFixed(2))
}

func (e *NegativeIncomeError) Unwrap() error {
	return ErrNegativeIncome
}
