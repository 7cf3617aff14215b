package payroll

import (
	"time"

	"github.com/cmlabs-hris/jamaica-payroll/internal/domain/period"
	"github.com/shopspring/decimal"
)

// RecordStatus enum. Records only move forward: Pending -> Calculated -> Finalized.
type RecordStatus string

const (
	StatusPending    RecordStatus = "Pending"
	StatusCalculated RecordStatus = "Calculated"
	StatusFinalized  RecordStatus = "Finalized"
)

func (s RecordStatus) IsValid() bool {
	switch s {
	case StatusPending, StatusCalculated, StatusFinalized:
		return true
	}
	return false
}

// BatchStatus is derived from the member records and never stored.
type BatchStatus string

const (
	BatchEmpty      BatchStatus = "Empty"
	BatchPending    BatchStatus = "Pending"
	BatchCalculated BatchStatus = "Calculated"
	BatchFinalized  BatchStatus = "Finalized"
)

// DeriveBatchStatus folds the member statuses: any Pending wins, then any
// Calculated; a batch is Finalized only when every record is.
func DeriveBatchStatus(records []PayrollRecord) BatchStatus {
	if len(records) == 0 {
		return BatchEmpty
	}

	calculated := false
	for _, r := range records {
		switch r.Status {
		case StatusPending:
			return BatchPending
		case StatusCalculated:
			calculated = true
		}
	}
	if calculated {
		return BatchCalculated
	}
	return BatchFinalized
}

// GrossBreakdown - Output of gross pay assembly
type GrossBreakdown struct {
	Base            decimal.Decimal
	Allowances      decimal.Decimal
	Earnings        decimal.Decimal
	Total           decimal.Decimal
	OtherDeductions decimal.Decimal
	Exemption       decimal.Decimal
	HoursWorked     *decimal.Decimal

	AllowancesDetail map[string]decimal.Decimal
	EarningsDetail   map[string]decimal.Decimal
	DeductionsDetail map[string]decimal.Decimal
}

// PayrollRecord - One employee's gross-to-net result for one period
type PayrollRecord struct {
	ID         string
	CompanyID  string
	EmployeeID string
	Period     period.Period

	BaseSalary      decimal.Decimal
	HoursWorked     *decimal.Decimal
	TotalAllowances decimal.Decimal
	TotalEarnings   decimal.Decimal
	GrossSalary     decimal.Decimal

	NISEmployee   decimal.Decimal
	NISEmployer   decimal.Decimal
	NHTEmployee   decimal.Decimal
	NHTEmployer   decimal.Decimal
	EdTaxEmployee decimal.Decimal
	EdTaxEmployer decimal.Decimal
	HEART         decimal.Decimal
	PAYE          decimal.Decimal
	TaxableIncome decimal.Decimal
	PAYEExemption decimal.Decimal

	OtherDeductions decimal.Decimal
	NetSalary       decimal.Decimal

	AllowancesDetail map[string]decimal.Decimal // {"TRAVEL": 5000}
	EarningsDetail   map[string]decimal.Decimal // {"OVERTIME": 12505}
	DeductionsDetail map[string]decimal.Decimal // {"LOAN": 10000}

	RateSetVersion *string
	Status         RecordStatus
	CalculatedAt   *time.Time
	FinalizedAt    *time.Time
	FinalizedBy    *string
	CreatedAt      time.Time
	UpdatedAt      time.Time

	// Joined fields
	EmployeeCode *string
	EmployeeName *string
	Department   *string
}

// EmployeeStatutory is the employee-side statutory withholding.
func (r PayrollRecord) EmployeeStatutory() decimal.Decimal {
	return r.NISEmployee.Add(r.NHTEmployee).Add(r.EdTaxEmployee).Add(r.PAYE)
}

// EmployerContributions is the employer-side cost above gross.
func (r PayrollRecord) EmployerContributions() decimal.Decimal {
	return r.NISEmployer.Add(r.NHTEmployer).Add(r.EdTaxEmployer).Add(r.HEART)
}

// Balances reports whether gross = employee statutory + other deductions + net.
func (r PayrollRecord) Balances() bool {
	return r.GrossSalary.Equal(r.EmployeeStatutory().Add(r.OtherDeductions).Add(r.NetSalary))
}

// SameFigures reports whether o carries the same computed amounts, detail
// breakdowns and rate set version as r. Identity, status and timestamps are ignored.
func (r PayrollRecord) SameFigures(o PayrollRecord) bool {
	amounts := [][2]decimal.Decimal{
		{r.BaseSalary, o.BaseSalary},
		{r.TotalAllowances, o.TotalAllowances},
		{r.TotalEarnings, o.TotalEarnings},
		{r.GrossSalary, o.GrossSalary},
		{r.NISEmployee, o.NISEmployee},
		{r.NISEmployer, o.NISEmployer},
		{r.NHTEmployee, o.NHTEmployee},
		{r.NHTEmployer, o.NHTEmployer},
		{r.EdTaxEmployee, o.EdTaxEmployee},
		{r.EdTaxEmployer, o.EdTaxEmployer},
		{r.HEART, o.HEART},
		{r.PAYE, o.PAYE},
		{r.TaxableIncome, o.TaxableIncome},
		{r.PAYEExemption, o.PAYEExemption},
		{r.OtherDeductions, o.OtherDeductions},
		{r.NetSalary, o.NetSalary},
	}
	for _, pair := range amounts {
		if !pair[0].Equal(pair[1]) {
			return false
		}
	}

	if (r.HoursWorked == nil) != (o.HoursWorked == nil) {
		return false
	}
	if r.HoursWorked != nil && !r.HoursWorked.Equal(*o.HoursWorked) {
		return false
	}
	if (r.RateSetVersion == nil) != (o.RateSetVersion == nil) {
		return false
	}
	if r.RateSetVersion != nil && *r.RateSetVersion != *o.RateSetVersion {
		return false
	}

	return sameDetail(r.AllowancesDetail, o.AllowancesDetail) &&
		sameDetail(r.EarningsDetail, o.EarningsDetail) &&
		sameDetail(r.DeductionsDetail, o.DeductionsDetail)
}

// nil and empty detail maps compare equal
func sameDetail(a, b map[string]decimal.Decimal) bool {
	if len(a) != len(b) {
		return false
	}
	for code, amount := range a {
		other, ok := b[code]
		if !ok || !amount.Equal(other) {
			return false
		}
	}
	return true
}

// GuardFinalize decides whether a batch may be finalized. It returns how
// many Calculated records would move and how many are already Finalized.
func GuardFinalize(companyID string, p period.Period, records []PayrollRecord) (FinalizeResult, error) {
	if len(records) == 0 {
		return FinalizeResult{}, ErrEmptyBatch
	}

	res := FinalizeResult{Period: p.Key()}
	pending := 0
	for _, r := range records {
		switch r.Status {
		case StatusPending:
			pending++
		case StatusCalculated:
			res.Finalized++
		case StatusFinalized:
			res.AlreadyFinalized++
		}
	}
	if pending > 0 {
		return FinalizeResult{}, &IncompleteBatchError{CompanyID: companyID, Period: p, PendingCount: pending}
	}
	return res, nil
}
