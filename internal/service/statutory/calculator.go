package statutory

import (
	"github.com/cmlabs-hris/jamaica-payroll/internal/domain/statutory"
	"github.com/shopspring/decimal"
)

const moneyPlaces = 2

// Calculator applies a RateSet to one period's gross pay. It holds no state
// and is safe for concurrent use.
type Calculator struct {
}

func NewCalculator() *Calculator {
	return &Calculator{}
}

// Round applies half-up rounding to cents. Every sub-calculation is rounded
// exactly once, at its end.
func Round(d decimal.Decimal) decimal.Decimal {
	return d.Round(moneyPlaces)
}

// Calculate derives every employee and employer statutory figure. exemption
// is the approved pension/allowance amount that reduces PAYE taxable income;
// anything below zero is treated as zero.
func (c *Calculator) Calculate(gross decimal.Decimal, rates statutory.RateSet, exemption decimal.Decimal) (statutory.StatutoryBreakdown, error) {
	if gross.IsNegative() {
		return statutory.StatutoryBreakdown{}, &statutory.NegativeIncomeError{Gross: gross}
	}
	if exemption.IsNegative() {
		exemption = decimal.Zero
	}

	periods := periodsPerYear(rates)

	// NIS: the ceiling caps the contributory base, not the rate.
	ceiling := rates.NISAnnualCeiling.Div(periods)
	nisBase := decimal.Min(gross, ceiling)
	nisEmployee := Round(nisBase.Mul(rates.NISEmployeeRate))
	nisEmployer := Round(nisBase.Mul(rates.NISEmployerRate))

	nhtEmployee := Round(gross.Mul(rates.NHTEmployeeRate))
	nhtEmployer := Round(gross.Mul(rates.NHTEmployerRate))

	// Education Tax is levied on gross net of the employee NIS actually withheld.
	edTaxBase := decimal.Max(gross.Sub(nisEmployee), decimal.Zero)
	edTaxEmployee := Round(edTaxBase.Mul(rates.EducationTaxEmployeeRate))
	edTaxEmployer := Round(edTaxBase.Mul(rates.EducationTaxEmployerRate))

	heart := Round(gross.Mul(rates.HEARTRate))

	taxable := decimal.Max(gross.Sub(nisEmployee).Sub(exemption), decimal.Zero)
	paye := Round(c.PAYE(taxable, rates))

	return statutory.StatutoryBreakdown{
		NISEmployee:   nisEmployee,
		NISEmployer:   nisEmployer,
		NHTEmployee:   nhtEmployee,
		NHTEmployer:   nhtEmployer,
		EdTaxEmployee: edTaxEmployee,
		EdTaxEmployer: edTaxEmployer,
		HEART:         heart,
		PAYE:          paye,
		EdTaxBase:     edTaxBase,
		TaxableIncome: taxable,
		Exemption:     exemption,
		RateVersion:   rates.Version,
	}, nil
}

// PAYE runs the marginal ladder over one period's taxable income. Each band
// taxes only the slice of income between its threshold and the next band's.
// The result is unrounded.
func (c *Calculator) PAYE(taxable decimal.Decimal, rates statutory.RateSet) decimal.Decimal {
	if !taxable.IsPositive() {
		return decimal.Zero
	}

	periods := periodsPerYear(rates)
	tax := decimal.Zero

	for i, band := range rates.PAYEBands {
		lower := band.Threshold.Div(periods)
		if taxable.LessThanOrEqual(lower) {
			break
		}

		upper := taxable
		if i+1 < len(rates.PAYEBands) {
			next := rates.PAYEBands[i+1].Threshold.Div(periods)
			upper = decimal.Min(upper, next)
		}

		tax = tax.Add(upper.Sub(lower).Mul(band.Rate))
	}

	if tax.IsNegative() {
		return decimal.Zero
	}
	return tax
}

func periodsPerYear(rates statutory.RateSet) decimal.Decimal {
	if rates.PayPeriodsPerYear <= 0 {
		return decimal.NewFromInt(12)
	}
	return decimal.NewFromInt(int64(rates.PayPeriodsPerYear))
}
