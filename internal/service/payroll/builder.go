package payroll

import (
	"github.com/cmlabs-hris/jamaica-payroll/internal/domain/employee"
	"github.com/cmlabs-hris/jamaica-payroll/internal/domain/payroll"
	"github.com/cmlabs-hris/jamaica-payroll/internal/domain/period"
	"github.com/cmlabs-hris/jamaica-payroll/internal/domain/statutory"
	"github.com/shopspring/decimal"
)

// Builder turns assembler and calculator output into a Calculated record.
// It is pure: the same inputs always give the same record.
type Builder struct {
	allowNegativeNet bool
}

func NewBuilder(allowNegativeNet bool) *Builder {
	return &Builder{allowNegativeNet: allowNegativeNet}
}

// Build overwrites every figure on existing while keeping its identity.
func (b *Builder) Build(
	existing payroll.PayrollRecord,
	emp employee.Employee,
	p period.Period,
	gross payroll.GrossBreakdown,
	stat statutory.StatutoryBreakdown,
	otherDeductions decimal.Decimal,
) (payroll.PayrollRecord, error) {
	net := gross.Total.Sub(stat.EmployeeTotal()).Sub(otherDeductions)
	if net.IsNegative() && !b.allowNegativeNet {
		return payroll.PayrollRecord{}, &payroll.NegativeNetPayError{EmployeeID: emp.ID, Period: p, Net: net}
	}

	version := stat.RateVersion
	code := emp.EmployeeCode
	name := emp.FullName

	return payroll.PayrollRecord{
		ID:         existing.ID,
		CompanyID:  emp.CompanyID,
		EmployeeID: emp.ID,
		Period:     p,

		BaseSalary:      gross.Base,
		HoursWorked:     gross.HoursWorked,
		TotalAllowances: gross.Allowances,
		TotalEarnings:   gross.Earnings,
		GrossSalary:     gross.Total,

		NISEmployee:   stat.NISEmployee,
		NISEmployer:   stat.NISEmployer,
		NHTEmployee:   stat.NHTEmployee,
		NHTEmployer:   stat.NHTEmployer,
		EdTaxEmployee: stat.EdTaxEmployee,
		EdTaxEmployer: stat.EdTaxEmployer,
		HEART:         stat.HEART,
		PAYE:          stat.PAYE,
		TaxableIncome: stat.TaxableIncome,
		PAYEExemption: stat.Exemption,

		OtherDeductions: otherDeductions,
		NetSalary:       net,

		AllowancesDetail: gross.AllowancesDetail,
		EarningsDetail:   gross.EarningsDetail,
		DeductionsDetail: gross.DeductionsDetail,

		RateSetVersion: &version,
		Status:         payroll.StatusCalculated,
		CreatedAt:      existing.CreatedAt,

		EmployeeCode: &code,
		EmployeeName: &name,
		Department:   emp.Department,
	}, nil
}
