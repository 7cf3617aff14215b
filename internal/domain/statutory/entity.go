package statutory

import (
	"time"

	"github.com/cmlabs-hris/jamaica-payroll/internal/domain/period"
	"github.com/shopspring/decimal"
)

// PAYEBand is one rung of the income tax ladder. Threshold is the annual
// lower bound of the band; the band ends where the next one starts.
type PAYEBand struct {
	Threshold decimal.Decimal `json:"threshold" yaml:"threshold"`
	Rate      decimal.Decimal `json:"rate" yaml:"rate"`
}

// RateSet is a published, immutable set of statutory rates. Its effective
// range runs from EffectiveFrom up to the next published version.
type RateSet struct {
	Version           string
	EffectiveFrom     period.Period
	PayPeriodsPerYear int

	NISEmployeeRate  decimal.Decimal
	NISEmployerRate  decimal.Decimal
	NISAnnualCeiling decimal.Decimal

	NHTEmployeeRate decimal.Decimal
	NHTEmployerRate decimal.Decimal

	EducationTaxEmployeeRate decimal.Decimal
	EducationTaxEmployerRate decimal.Decimal

	HEARTRate decimal.Decimal

	PAYEBands []PAYEBand

	PublishedAt time.Time
}

// StatutoryBreakdown is the result of applying a RateSet to one gross figure.
type StatutoryBreakdown struct {
	NISEmployee   decimal.Decimal
	NISEmployer   decimal.Decimal
	NHTEmployee   decimal.Decimal
	NHTEmployer   decimal.Decimal
	EdTaxEmployee decimal.Decimal
	EdTaxEmployer decimal.Decimal
	HEART         decimal.Decimal
	PAYE          decimal.Decimal

	EdTaxBase     decimal.Decimal
	TaxableIncome decimal.Decimal
	Exemption     decimal.Decimal
	RateVersion   string
}

// EmployeeTotal is the sum withheld from the employee.
func (b StatutoryBreakdown) EmployeeTotal() decimal.Decimal {
	return b.NISEmployee.Add(b.NHTEmployee).Add(b.EdTaxEmployee).Add(b.PAYE)
}

// EmployerTotal is the sum of employer-side contributions.
func (b StatutoryBreakdown) EmployerTotal() decimal.Decimal {
	return b.NISEmployer.Add(b.NHTEmployer).Add(b.EdTaxEmployer).Add(b.HEART)
}
