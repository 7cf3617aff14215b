package statutory

import (
	"context"

	"github.com/cmlabs-hris/jamaica-payroll/internal/domain/period"
)

type StatutoryService interface {
	RateTable

	Publish(ctx context.Context, req PublishRateSetRequest) (RateSetResponse, error)
	ListRateSets(ctx context.Context) ([]RateSetResponse, error)
	GetRateSet(ctx context.Context, p period.Period) (RateSetResponse, error)
}
