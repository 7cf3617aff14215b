package transaction

import (
	"errors"
	"fmt"
)

var (
	ErrInvalidTransaction      = errors.New("invalid transaction")
	ErrTransactionNotFound     = errors.New("transaction not found")
	ErrTransactionAlreadyVoid  = errors.New("transaction is already void")
	ErrTransactionCodeNotFound = errors.New("transaction code not found")
	ErrTransactionCodeExists   = errors.New("transaction code already exists")
	ErrTransactionCodeInactive = errors.New("transaction code is inactive")
	ErrPeriodFinalized         = errors.New("payroll for this employee and period is already finalized")
)

// InvalidTransactionError rejects malformed or negative ledger input.
type InvalidTransactionError struct {
	TransactionID string
	EmployeeID    string
	Reason        string
}

func (e *InvalidTransactionError) Error() string {
	return fmt.Sprintf("%s %s (employee %s): %s", ErrInvalidTransaction.Error(), e.TransactionID, e.EmployeeID, e.Reason)
}

func (e *InvalidTransactionError) Unwrap() error {
	return ErrInvalidTransaction
}
