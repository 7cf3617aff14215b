package payroll

import (
	"github.com/cmlabs-hris/jamaica-payroll/internal/domain/period"
	"github.com/cmlabs-hris/jamaica-payroll/internal/pkg/validator"
	"github.com/shopspring/decimal"
)

// ========== BATCH RESULT DTOs ==========

// Stage names the step a per-employee failure happened in.
type Stage string

const (
	StageLookup    Stage = "lookup"
	StageGross     Stage = "gross"
	StageStatutory Stage = "statutory"
	StageBuild     Stage = "build"
	StagePersist   Stage = "persist"
)

// EmployeeError is one employee's failure inside a batch operation. The
// rest of the batch is unaffected.
type EmployeeError struct {
	EmployeeID   string `json:"employee_id"`
	EmployeeCode string `json:"employee_code,omitempty"`
	Stage        Stage  `json:"stage"`
	Message      string `json:"message"`
	Err          error  `json:"-"`
}

func (e EmployeeError) Error() string {
	return string(e.Stage) + ": employee " + e.EmployeeID + ": " + e.Message
}

func (e EmployeeError) Unwrap() error {
	return e.Err
}

func NewEmployeeError(employeeID, employeeCode string, stage Stage, err error) EmployeeError {
	return EmployeeError{
		EmployeeID:   employeeID,
		EmployeeCode: employeeCode,
		Stage:        stage,
		Message:      err.Error(),
		Err:          err,
	}
}

type SyncResult struct {
	Period   string          `json:"period"`
	Created  int             `json:"created"`
	Existing int             `json:"existing"`
	Failed   []EmployeeError `json:"failed"`
}

type CalculateResult struct {
	Period     string          `json:"period"`
	Calculated int             `json:"calculated"`
	Skipped    []string        `json:"skipped"` // finalized record IDs
	Failed     []EmployeeError `json:"failed"`
}

type FinalizeResult struct {
	Period           string `json:"period"`
	Finalized        int    `json:"finalized"`
	AlreadyFinalized int    `json:"already_finalized"`
}

// BatchTotals is the rollup of a record set. An empty set yields zeros.
type BatchTotals struct {
	Employees             int             `json:"employees"`
	PendingCount          int             `json:"pending_count"`
	CalculatedCount       int             `json:"calculated_count"`
	FinalizedCount        int             `json:"finalized_count"`
	BaseSalary            decimal.Decimal `json:"base_salary"`
	Allowances            decimal.Decimal `json:"allowances"`
	Earnings              decimal.Decimal `json:"earnings"`
	GrossSalary           decimal.Decimal `json:"gross_salary"`
	NISEmployee           decimal.Decimal `json:"nis_employee"`
	NISEmployer           decimal.Decimal `json:"nis_employer"`
	NHTEmployee           decimal.Decimal `json:"nht_employee"`
	NHTEmployer           decimal.Decimal `json:"nht_employer"`
	EdTaxEmployee         decimal.Decimal `json:"education_tax_employee"`
	EdTaxEmployer         decimal.Decimal `json:"education_tax_employer"`
	HEART                 decimal.Decimal `json:"heart"`
	PAYE                  decimal.Decimal `json:"paye"`
	EmployeeStatutory     decimal.Decimal `json:"employee_statutory"`
	OtherDeductions       decimal.Decimal `json:"other_deductions"`
	TotalDeductions       decimal.Decimal `json:"total_deductions"`
	NetSalary             decimal.Decimal `json:"net_salary"`
	EmployerContributions decimal.Decimal `json:"employer_contributions"`
}

// Discrepancy flags a record whose figures do not conserve gross.
type Discrepancy struct {
	RecordID   string          `json:"record_id"`
	EmployeeID string          `json:"employee_id"`
	Expected   decimal.Decimal `json:"expected_net"`
	Actual     decimal.Decimal `json:"actual_net"`
}

type AuditResult struct {
	Period           string        `json:"period"`
	Status           BatchStatus   `json:"status"`
	Totals           BatchTotals   `json:"totals"`
	PendingEmployees []string      `json:"pending_employees"`
	Discrepancies    []Discrepancy `json:"discrepancies"`
	RateSetVersions  []string      `json:"rate_set_versions"`
}

type BatchResponse struct {
	Period string      `json:"period"`
	Status BatchStatus `json:"status"`
	Totals BatchTotals `json:"totals"`
}

// ========== STATUTORY EXTRACT DTOs ==========

type StatutoryExtractLine struct {
	EmployeeID    string          `json:"employee_id"`
	EmployeeCode  string          `json:"employee_code"`
	EmployeeName  string          `json:"employee_name"`
	GrossSalary   decimal.Decimal `json:"gross_salary"`
	NISEmployee   decimal.Decimal `json:"nis_employee"`
	NISEmployer   decimal.Decimal `json:"nis_employer"`
	NHTEmployee   decimal.Decimal `json:"nht_employee"`
	NHTEmployer   decimal.Decimal `json:"nht_employer"`
	EdTaxEmployee decimal.Decimal `json:"education_tax_employee"`
	EdTaxEmployer decimal.Decimal `json:"education_tax_employer"`
	HEART         decimal.Decimal `json:"heart"`
	PAYE          decimal.Decimal `json:"paye"`
	Status        RecordStatus    `json:"status"`
}

type StatutoryExtract struct {
	Period string                 `json:"period"`
	Lines  []StatutoryExtractLine `json:"lines"`
	Totals BatchTotals            `json:"totals"`
}

// YearToDate is the cumulative position used on termination certificates.
type YearToDate struct {
	EmployeeID    string          `json:"employee_id"`
	Year          int             `json:"year"`
	Through       string          `json:"through"`
	Periods       int             `json:"periods"`
	GrossSalary   decimal.Decimal `json:"gross_salary"`
	TaxableIncome decimal.Decimal `json:"taxable_income"`
	NISEmployee   decimal.Decimal `json:"nis_employee"`
	NHTEmployee   decimal.Decimal `json:"nht_employee"`
	EdTaxEmployee decimal.Decimal `json:"education_tax_employee"`
	PAYE          decimal.Decimal `json:"paye"`
	NetSalary     decimal.Decimal `json:"net_salary"`
}

// ========== PAYROLL RECORD DTOs ==========

type PayrollRecordResponse struct {
	ID               string                     `json:"id"`
	EmployeeID       string                     `json:"employee_id"`
	EmployeeCode     *string                    `json:"employee_code,omitempty"`
	EmployeeName     *string                    `json:"employee_name,omitempty"`
	Department       *string                    `json:"department,omitempty"`
	Period           string                     `json:"period"`
	BaseSalary       decimal.Decimal            `json:"base_salary"`
	HoursWorked      *decimal.Decimal           `json:"hours_worked,omitempty"`
	TotalAllowances  decimal.Decimal            `json:"total_allowances"`
	TotalEarnings    decimal.Decimal            `json:"total_earnings"`
	GrossSalary      decimal.Decimal            `json:"gross_salary"`
	NISEmployee      decimal.Decimal            `json:"nis_employee"`
	NISEmployer      decimal.Decimal            `json:"nis_employer"`
	NHTEmployee      decimal.Decimal            `json:"nht_employee"`
	NHTEmployer      decimal.Decimal            `json:"nht_employer"`
	EdTaxEmployee    decimal.Decimal            `json:"education_tax_employee"`
	EdTaxEmployer    decimal.Decimal            `json:"education_tax_employer"`
	HEART            decimal.Decimal            `json:"heart"`
	PAYE             decimal.Decimal            `json:"paye"`
	TaxableIncome    decimal.Decimal            `json:"taxable_income"`
	PAYEExemption    decimal.Decimal            `json:"paye_exemption"`
	OtherDeductions  decimal.Decimal            `json:"other_deductions"`
	NetSalary        decimal.Decimal            `json:"net_salary"`
	AllowancesDetail map[string]decimal.Decimal `json:"allowances_detail,omitempty"`
	EarningsDetail   map[string]decimal.Decimal `json:"earnings_detail,omitempty"`
	DeductionsDetail map[string]decimal.Decimal `json:"deductions_detail,omitempty"`
	RateSetVersion   *string                    `json:"rate_set_version,omitempty"`
	Status           string                     `json:"status"`
	CalculatedAt     *string                    `json:"calculated_at,omitempty"`
	FinalizedAt      *string                    `json:"finalized_at,omitempty"`
	FinalizedBy      *string                    `json:"finalized_by,omitempty"`
}

type PayrollFilter struct {
	Period     *string `json:"period,omitempty"`
	Status     *string `json:"status,omitempty"`
	EmployeeID *string `json:"employee_id,omitempty"`
	Page       int     `json:"page"`
	Limit      int     `json:"limit"`
	SortBy     string  `json:"sort_by"`
	SortOrder  string  `json:"sort_order"`
}

func (f *PayrollFilter) Validate() error {
	var errs validator.ValidationErrors

	if f.Period != nil {
		if _, err := period.Parse(*f.Period); err != nil {
			errs = append(errs, validator.ValidationError{Field: "period", Message: "must be a YYYY-MM period"})
		}
	}
	if f.Status != nil && !RecordStatus(*f.Status).IsValid() {
		errs = append(errs, validator.ValidationError{Field: "status", Message: "must be Pending, Calculated or Finalized"})
	}
	if f.EmployeeID != nil && !validator.IsValidUUID(*f.EmployeeID) {
		errs = append(errs, validator.ValidationError{Field: "employee_id", Message: "must be a valid UUID"})
	}
	if f.SortBy != "" && !validator.IsInSlice(f.SortBy, []string{"period", "employee_code", "gross_salary", "net_salary", "status"}) {
		errs = append(errs, validator.ValidationError{Field: "sort_by", Message: "is not a sortable column"})
	}
	if f.SortOrder != "" && !validator.IsInSlice(f.SortOrder, []string{"asc", "desc"}) {
		errs = append(errs, validator.ValidationError{Field: "sort_order", Message: "must be asc or desc"})
	}

	if len(errs) > 0 {
		return errs
	}
	return nil
}

type ListPayrollRecordResponse struct {
	Data       []PayrollRecordResponse `json:"data"`
	TotalCount int64                   `json:"total_count"`
	Page       int                     `json:"page"`
	Limit      int                     `json:"limit"`
}
