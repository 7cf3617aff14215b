package statutory

import (
	"github.com/cmlabs-hris/jamaica-payroll/internal/domain/period"
	"github.com/cmlabs-hris/jamaica-payroll/internal/pkg/validator"
	"github.com/shopspring/decimal"
)

// ========== RATE SET DTOs ==========

type PublishRateSetRequest struct {
	Version                  string          `json:"version" yaml:"version"`
	EffectiveFrom            string          `json:"effective_from" yaml:"effective_from"`
	PayPeriodsPerYear        int             `json:"pay_periods_per_year" yaml:"pay_periods_per_year"`
	NISEmployeeRate          decimal.Decimal `json:"nis_employee_rate" yaml:"nis_employee_rate"`
	NISEmployerRate          decimal.Decimal `json:"nis_employer_rate" yaml:"nis_employer_rate"`
	NISAnnualCeiling         decimal.Decimal `json:"nis_annual_ceiling" yaml:"nis_annual_ceiling"`
	NHTEmployeeRate          decimal.Decimal `json:"nht_employee_rate" yaml:"nht_employee_rate"`
	NHTEmployerRate          decimal.Decimal `json:"nht_employer_rate" yaml:"nht_employer_rate"`
	EducationTaxEmployeeRate decimal.Decimal `json:"education_tax_employee_rate" yaml:"education_tax_employee_rate"`
	EducationTaxEmployerRate decimal.Decimal `json:"education_tax_employer_rate" yaml:"education_tax_employer_rate"`
	HEARTRate                decimal.Decimal `json:"heart_rate" yaml:"heart_rate"`
	PAYEBands                []PAYEBand      `json:"paye_bands" yaml:"paye_bands"`
}

func (r *PublishRateSetRequest) Validate() error {
	var errs validator.ValidationErrors

	if validator.IsEmpty(r.Version) {
		errs = append(errs, validator.ValidationError{Field: "version", Message: "is required"})
	}
	if _, err := period.Parse(r.EffectiveFrom); err != nil {
		errs = append(errs, validator.ValidationError{Field: "effective_from", Message: "must be a YYYY-MM period"})
	}
	if r.PayPeriodsPerYear <= 0 {
		errs = append(errs, validator.ValidationError{Field: "pay_periods_per_year", Message: "must be positive"})
	}

	rates := []struct {
		field string
		value decimal.Decimal
	}{
		{"nis_employee_rate", r.NISEmployeeRate},
		{"nis_employer_rate", r.NISEmployerRate},
		{"nht_employee_rate", r.NHTEmployeeRate},
		{"nht_employer_rate", r.NHTEmployerRate},
		{"education_tax_employee_rate", r.EducationTaxEmployeeRate},
		{"education_tax_employer_rate", r.EducationTaxEmployerRate},
		{"heart_rate", r.HEARTRate},
	}
	for _, rate := range rates {
		if !validator.IsRate(rate.value) {
			errs = append(errs, validator.ValidationError{Field: rate.field, Message: "must be between 0 and 1"})
		}
	}

	if !r.NISAnnualCeiling.IsPositive() {
		errs = append(errs, validator.ValidationError{Field: "nis_annual_ceiling", Message: "must be positive"})
	}

	if len(r.PAYEBands) == 0 {
		errs = append(errs, validator.ValidationError{Field: "paye_bands", Message: "at least one band is required"})
	} else {
		if !r.PAYEBands[0].Threshold.IsZero() {
			errs = append(errs, validator.ValidationError{Field: "paye_bands", Message: "first band must start at 0"})
		}
		for i, band := range r.PAYEBands {
			if !validator.IsRate(band.Rate) {
				errs = append(errs, validator.ValidationError{Field: "paye_bands", Message: "band rates must be between 0 and 1"})
				break
			}
			if i > 0 && !band.Threshold.GreaterThan(r.PAYEBands[i-1].Threshold) {
				errs = append(errs, validator.ValidationError{Field: "paye_bands", Message: "band thresholds must strictly increase"})
				break
			}
		}
	}

	if len(errs) > 0 {
		return errs
	}
	return nil
}

// ToRateSet assumes Validate has passed.
func (r *PublishRateSetRequest) ToRateSet() RateSet {
	from, _ := period.Parse(r.EffectiveFrom)
	bands := make([]PAYEBand, len(r.PAYEBands))
	copy(bands, r.PAYEBands)

	return RateSet{
		Version:                  r.Version,
		EffectiveFrom:            from,
		PayPeriodsPerYear:        r.PayPeriodsPerYear,
		NISEmployeeRate:          r.NISEmployeeRate,
		NISEmployerRate:          r.NISEmployerRate,
		NISAnnualCeiling:         r.NISAnnualCeiling,
		NHTEmployeeRate:          r.NHTEmployeeRate,
		NHTEmployerRate:          r.NHTEmployerRate,
		EducationTaxEmployeeRate: r.EducationTaxEmployeeRate,
		EducationTaxEmployerRate: r.EducationTaxEmployerRate,
		HEARTRate:                r.HEARTRate,
		PAYEBands:                bands,
	}
}

type RateSetResponse struct {
	Version                  string          `json:"version"`
	EffectiveFrom            string          `json:"effective_from"`
	EffectiveTo              *string         `json:"effective_to,omitempty"`
	PayPeriodsPerYear        int             `json:"pay_periods_per_year"`
	NISEmployeeRate          decimal.Decimal `json:"nis_employee_rate"`
	NISEmployerRate          decimal.Decimal `json:"nis_employer_rate"`
	NISAnnualCeiling         decimal.Decimal `json:"nis_annual_ceiling"`
	NHTEmployeeRate          decimal.Decimal `json:"nht_employee_rate"`
	NHTEmployerRate          decimal.Decimal `json:"nht_employer_rate"`
	EducationTaxEmployeeRate decimal.Decimal `json:"education_tax_employee_rate"`
	EducationTaxEmployerRate decimal.Decimal `json:"education_tax_employer_rate"`
	HEARTRate                decimal.Decimal `json:"heart_rate"`
	PAYEBands                []PAYEBand      `json:"paye_bands"`
	PublishedAt              string          `json:"published_at,omitempty"`
}
