package payroll

import (
	"fmt"

	"github.com/cmlabs-hris/jamaica-payroll/internal/domain/employee"
	"github.com/cmlabs-hris/jamaica-payroll/internal/domain/payroll"
	"github.com/cmlabs-hris/jamaica-payroll/internal/domain/period"
	"github.com/cmlabs-hris/jamaica-payroll/internal/domain/transaction"
	statutorysvc "github.com/cmlabs-hris/jamaica-payroll/internal/service/statutory"
	"github.com/shopspring/decimal"
)

// GrossAssembler combines base pay with the period's ledger entries.
type GrossAssembler struct {
	acceptEntered bool
}

// NewGrossAssembler reads POSTED transactions, and ENTERED ones too when
// acceptEntered is set.
func NewGrossAssembler(acceptEntered bool) *GrossAssembler {
	return &GrossAssembler{acceptEntered: acceptEntered}
}

func (a *GrossAssembler) accepts(status transaction.TransactionStatus) bool {
	switch status {
	case transaction.StatusPosted:
		return true
	case transaction.StatusEntered:
		return a.acceptEntered
	}
	return false
}

// Assemble builds the gross breakdown. hours is only read for hourly staff.
// DEDUCTION entries never enter gross; they are carried in OtherDeductions.
// Amounts on non-taxable codes, of any type, make up the PAYE exemption.
func (a *GrossAssembler) Assemble(emp employee.Employee, p period.Period, hours decimal.Decimal, txns []transaction.Transaction) (payroll.GrossBreakdown, error) {
	out := payroll.GrossBreakdown{
		Allowances:       decimal.Zero,
		Earnings:         decimal.Zero,
		OtherDeductions:  decimal.Zero,
		Exemption:        decimal.Zero,
		AllowancesDetail: map[string]decimal.Decimal{},
		EarningsDetail:   map[string]decimal.Decimal{},
		DeductionsDetail: map[string]decimal.Decimal{},
	}

	if emp.IsHourly() {
		if hours.IsNegative() {
			return payroll.GrossBreakdown{}, fmt.Errorf("%w: %s", payroll.ErrNegativeHours, hours.String())
		}
		h := hours
		out.HoursWorked = &h
		out.Base = statutorysvc.Round(hours.Mul(emp.PayRate()))
	} else {
		out.Base = emp.PayRate()
	}
	if out.Base.IsNegative() {
		return payroll.GrossBreakdown{}, fmt.Errorf("employee %s has a negative pay rate", emp.ID)
	}

	for _, txn := range txns {
		if txn.EmployeeID != emp.ID || txn.Period != p {
			continue
		}
		if txn.Status == transaction.StatusVoid || !a.accepts(txn.Status) {
			continue
		}

		amount, err := txn.ResolvedAmount()
		if err != nil {
			return payroll.GrossBreakdown{}, err
		}

		switch txn.Type {
		case transaction.TypeAllowance:
			out.Allowances = out.Allowances.Add(amount)
			out.AllowancesDetail[txn.Code] = out.AllowancesDetail[txn.Code].Add(amount)
		case transaction.TypeEarning:
			out.Earnings = out.Earnings.Add(amount)
			out.EarningsDetail[txn.Code] = out.EarningsDetail[txn.Code].Add(amount)
		case transaction.TypeDeduction:
			out.OtherDeductions = out.OtherDeductions.Add(amount)
			out.DeductionsDetail[txn.Code] = out.DeductionsDetail[txn.Code].Add(amount)
		default:
			return payroll.GrossBreakdown{}, &transaction.InvalidTransactionError{
				TransactionID: txn.ID,
				EmployeeID:    txn.EmployeeID,
				Reason:        fmt.Sprintf("unknown type %q", txn.Type),
			}
		}

		if !txn.IsTaxable {
			out.Exemption = out.Exemption.Add(amount)
		}
	}

	out.Total = out.Base.Add(out.Allowances).Add(out.Earnings)
	return out, nil
}
