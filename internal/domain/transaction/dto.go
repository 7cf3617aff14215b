package transaction

import (
	"github.com/cmlabs-hris/jamaica-payroll/internal/domain/period"
	"github.com/cmlabs-hris/jamaica-payroll/internal/pkg/validator"
	"github.com/shopspring/decimal"
)

// ========== TRANSACTION CODE DTOs ==========

type CreateTransactionCodeRequest struct {
	Code        string  `json:"code"`
	Name        string  `json:"name"`
	Type        string  `json:"type"` // EARNING, DEDUCTION or ALLOWANCE
	Description *string `json:"description,omitempty"`
	IsTaxable   *bool   `json:"is_taxable,omitempty"`
}

func (r *CreateTransactionCodeRequest) Validate() error {
	var errs validator.ValidationErrors

	if !validator.IsValidCode(r.Code) {
		errs = append(errs, validator.ValidationError{Field: "code", Message: "must be 2-32 uppercase letters, digits or underscores"})
	}
	if validator.IsEmpty(r.Name) {
		errs = append(errs, validator.ValidationError{Field: "name", Message: "is required"})
	}
	if !TransactionType(r.Type).IsValid() {
		errs = append(errs, validator.ValidationError{Field: "type", Message: "must be EARNING, DEDUCTION or ALLOWANCE"})
	}

	if len(errs) > 0 {
		return errs
	}
	return nil
}

type TransactionCodeResponse struct {
	ID          string  `json:"id"`
	Code        string  `json:"code"`
	Name        string  `json:"name"`
	Type        string  `json:"type"`
	Description *string `json:"description,omitempty"`
	IsTaxable   bool    `json:"is_taxable"`
	IsActive    bool    `json:"is_active"`
}

// ========== TRANSACTION DTOs ==========

type PostTransactionRequest struct {
	EmployeeID string           `json:"employee_id"`
	Period     string           `json:"period"`
	Code       string           `json:"code"`
	Amount     *decimal.Decimal `json:"amount,omitempty"`
	Units      *decimal.Decimal `json:"units,omitempty"`
	Rate       *decimal.Decimal `json:"rate,omitempty"`
	Status     string           `json:"status,omitempty"` // ENTERED or POSTED, defaults to POSTED
	Notes      *string          `json:"notes,omitempty"`
}

func (r *PostTransactionRequest) Validate() error {
	var errs validator.ValidationErrors

	if !validator.IsValidUUID(r.EmployeeID) {
		errs = append(errs, validator.ValidationError{Field: "employee_id", Message: "must be a valid UUID"})
	}
	if !validator.IsValidPeriodKey(r.Period) {
		errs = append(errs, validator.ValidationError{Field: "period", Message: "must be a YYYY-MM period"})
	}
	if validator.IsEmpty(r.Code) {
		errs = append(errs, validator.ValidationError{Field: "code", Message: "is required"})
	}
	if r.Amount == nil && (r.Units == nil || r.Rate == nil) {
		errs = append(errs, validator.ValidationError{Field: "amount", Message: "amount or units and rate are required"})
	}
	for _, f := range []struct {
		field string
		value *decimal.Decimal
	}{{"amount", r.Amount}, {"units", r.Units}, {"rate", r.Rate}} {
		if f.value != nil && !validator.IsNonNegative(*f.value) {
			errs = append(errs, validator.ValidationError{Field: f.field, Message: "must not be negative"})
		}
	}
	if r.Status != "" && !validator.IsInSlice(r.Status, []string{string(StatusEntered), string(StatusPosted)}) {
		errs = append(errs, validator.ValidationError{Field: "status", Message: "must be ENTERED or POSTED"})
	}

	if len(errs) > 0 {
		return errs
	}
	return nil
}

type TransactionResponse struct {
	ID         string           `json:"id"`
	EmployeeID string           `json:"employee_id"`
	Period     string           `json:"period"`
	Type       string           `json:"type"`
	Code       string           `json:"code"`
	CodeName   *string          `json:"code_name,omitempty"`
	Amount     decimal.Decimal  `json:"amount"`
	Units      *decimal.Decimal `json:"units,omitempty"`
	Rate       *decimal.Decimal `json:"rate,omitempty"`
	Status     string           `json:"status"`
	IsTaxable  bool             `json:"is_taxable"`
	Notes      *string          `json:"notes,omitempty"`
	CreatedAt  string           `json:"created_at"`
	VoidedAt   *string          `json:"voided_at,omitempty"`
}

type TransactionFilter struct {
	EmployeeID *string
	Period     *period.Period
	Status     *TransactionStatus
}
