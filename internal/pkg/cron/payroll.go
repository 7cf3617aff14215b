package cron

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/cmlabs-hris/jamaica-payroll/internal/domain/payroll"
	"github.com/cmlabs-hris/jamaica-payroll/internal/domain/period"
)

// PayrollJobs keeps the open period of each configured company calculated.
// It never finalizes.
type PayrollJobs struct {
	payrollService payroll.PayrollService
	companies      []string
	now            func() time.Time
}

func NewPayrollJobs(payrollService payroll.PayrollService, companies []string) *PayrollJobs {
	return &PayrollJobs{
		payrollService: payrollService,
		companies:      companies,
		now:            time.Now,
	}
}

func (j *PayrollJobs) RegisterJobs(scheduler *Scheduler, interval time.Duration) {
	scheduler.AddJob("payroll_auto_calculate", interval, j.AutoCalculate)
}

// AutoCalculate syncs and calculates the current period for every company.
// One company failing does not stop the others.
func (j *PayrollJobs) AutoCalculate(ctx context.Context) error {
	p := period.Of(j.now().UTC())
	slog.Info("Cron: Starting payroll auto-calculate job", "period", p.Key(), "companies", len(j.companies))

	var errs []error
	for _, companyID := range j.companies {
		if err := ctx.Err(); err != nil {
			return err
		}

		synced, err := j.payrollService.Sync(ctx, companyID, p)
		if err != nil {
			slog.Error("Cron: Failed to sync payroll batch", "company_id", companyID, "period", p.Key(), "error", err)
			errs = append(errs, fmt.Errorf("company %s: %w", companyID, err))
			continue
		}

		calculated, err := j.payrollService.Calculate(ctx, companyID, p)
		if err != nil {
			slog.Error("Cron: Failed to calculate payroll batch", "company_id", companyID, "period", p.Key(), "error", err)
			errs = append(errs, fmt.Errorf("company %s: %w", companyID, err))
			continue
		}

		slog.Info("Cron: Payroll batch calculated",
			"company_id", companyID,
			"period", p.Key(),
			"created", synced.Created,
			"calculated", calculated.Calculated,
			"skipped", len(calculated.Skipped),
			"failed", len(calculated.Failed))
	}

	return errors.Join(errs...)
}
