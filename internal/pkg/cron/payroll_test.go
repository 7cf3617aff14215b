package cron

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/cmlabs-hris/jamaica-payroll/internal/domain/payroll"
	"github.com/cmlabs-hris/jamaica-payroll/internal/domain/period"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type recordingService struct {
	payroll.PayrollService
	calls   []string
	failFor string
}

func (s *recordingService) Sync(ctx context.Context, companyID string, p period.Period) (payroll.SyncResult, error) {
	s.calls = append(s.calls, "sync:"+companyID+":"+p.Key())
	if companyID == s.failFor {
		return payroll.SyncResult{}, errors.New("boom")
	}
	return payroll.SyncResult{Period: p.Key(), Created: 1}, nil
}

func (s *recordingService) Calculate(ctx context.Context, companyID string, p period.Period) (payroll.CalculateResult, error) {
	s.calls = append(s.calls, "calculate:"+companyID+":"+p.Key())
	return payroll.CalculateResult{Period: p.Key(), Calculated: 1}, nil
}

func TestPayrollJobs_AutoCalculate(t *testing.T) {
	svc := &recordingService{}
	jobs := NewPayrollJobs(svc, []string{"a", "b"})
	jobs.now = func() time.Time { return time.Date(2025, 6, 15, 10, 0, 0, 0, time.UTC) }

	require.NoError(t, jobs.AutoCalculate(context.Background()))
	assert.Equal(t, []string{
		"sync:a:2025-06", "calculate:a:2025-06",
		"sync:b:2025-06", "calculate:b:2025-06",
	}, svc.calls)
}

func TestPayrollJobs_ContinuesPastFailingCompany(t *testing.T) {
	svc := &recordingService{failFor: "a"}
	jobs := NewPayrollJobs(svc, []string{"a", "b"})
	jobs.now = func() time.Time { return time.Date(2025, 1, 1, 0, 0, 0, 0, time.UTC) }

	err := jobs.AutoCalculate(context.Background())
	assert.ErrorContains(t, err, "company a")
	assert.Equal(t, []string{"sync:a:2025-01", "sync:b:2025-01", "calculate:b:2025-01"}, svc.calls)
}

func TestScheduler_RunOnce(t *testing.T) {
	svc := &recordingService{}
	scheduler := NewScheduler()
	NewPayrollJobs(svc, []string{"a"}).RegisterJobs(scheduler, time.Hour)

	scheduler.RunOnce(context.Background())
	assert.Len(t, svc.calls, 2)
}
