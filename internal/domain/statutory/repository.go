package statutory

import (
	"context"

	"github.com/cmlabs-hris/jamaica-payroll/internal/domain/period"
)

// RateSetRepository persists published rate sets. Rows are insert-only.
type RateSetRepository interface {
	Create(ctx context.Context, set RateSet) (RateSet, error)
	List(ctx context.Context) ([]RateSet, error)
}

// RateTable resolves the rate set in force for a period.
type RateTable interface {
	RatesFor(p period.Period) (RateSet, error)
}
