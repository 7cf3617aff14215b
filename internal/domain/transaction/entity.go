package transaction

import (
	"time"

	"github.com/cmlabs-hris/jamaica-payroll/internal/domain/period"
	"github.com/shopspring/decimal"
)

// TransactionType enum
type TransactionType string

const (
	TypeEarning   TransactionType = "EARNING"
	TypeDeduction TransactionType = "DEDUCTION"
	TypeAllowance TransactionType = "ALLOWANCE"
)

func (t TransactionType) IsValid() bool {
	switch t {
	case TypeEarning, TypeDeduction, TypeAllowance:
		return true
	}
	return false
}

// TransactionStatus enum
type TransactionStatus string

const (
	StatusEntered TransactionStatus = "ENTERED"
	StatusPosted  TransactionStatus = "POSTED"
	StatusVoid    TransactionStatus = "VOID"
)

// TransactionCode - Company catalogue entry every transaction references
type TransactionCode struct {
	ID          string
	CompanyID   string
	Code        string
	Name        string
	Type        TransactionType
	Description *string
	IsTaxable   bool
	IsActive    bool
	CreatedAt   time.Time
	UpdatedAt   time.Time
}

// Transaction - Earning, deduction or allowance posted against one employee for one period
type Transaction struct {
	ID         string
	CompanyID  string
	EmployeeID string
	Period     period.Period
	Type       TransactionType
	Code       string
	Amount     decimal.Decimal
	Units      *decimal.Decimal
	Rate       *decimal.Decimal
	Status     TransactionStatus
	Notes      *string
	CreatedAt  time.Time
	UpdatedAt  time.Time
	VoidedAt   *time.Time

	// Joined from transaction_codes
	IsTaxable bool
	CodeName  *string
}

// ResolvedAmount validates the money fields and returns the amount to apply.
// When units and rate are both present the amount must equal their product
// to the cent, zero included.
func (t Transaction) ResolvedAmount() (decimal.Decimal, error) {
	invalid := func(reason string) error {
		return &InvalidTransactionError{TransactionID: t.ID, EmployeeID: t.EmployeeID, Reason: reason}
	}

	if t.Amount.IsNegative() {
		return decimal.Zero, invalid("amount is negative")
	}
	if t.Units != nil && t.Units.IsNegative() {
		return decimal.Zero, invalid("units is negative")
	}
	if t.Rate != nil && t.Rate.IsNegative() {
		return decimal.Zero, invalid("rate is negative")
	}

	if t.Units == nil || t.Rate == nil {
		return t.Amount, nil
	}

	product := t.Units.Mul(*t.Rate).Round(2)
	if !t.Amount.Equal(product) {
		return decimal.Zero, invalid("amount " + t.Amount.StringFixed(2) + " does not equal units x rate " + product.StringFixed(2))
	}
	return t.Amount, nil
}
