package payroll

import (
	"testing"

	"github.com/cmlabs-hris/jamaica-payroll/internal/domain/period"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestDeriveBatchStatus(t *testing.T) {
	rec := func(statuses ...RecordStatus) []PayrollRecord {
		out := make([]PayrollRecord, 0, len(statuses))
		for _, s := range statuses {
			out = append(out, PayrollRecord{Status: s})
		}
		return out
	}

	tests := []struct {
		name    string
		records []PayrollRecord
		want    BatchStatus
	}{
		{"empty", nil, BatchEmpty},
		{"all pending", rec(StatusPending, StatusPending), BatchPending},
		{"any pending wins", rec(StatusFinalized, StatusCalculated, StatusPending), BatchPending},
		{"calculated", rec(StatusCalculated, StatusCalculated), BatchCalculated},
		{"calculated and finalized", rec(StatusFinalized, StatusCalculated), BatchCalculated},
		{"all finalized", rec(StatusFinalized, StatusFinalized), BatchFinalized},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, DeriveBatchStatus(tt.records))
		})
	}
}

func TestPayrollRecord_Balances(t *testing.T) {
	d := decimal.RequireFromString
	r := PayrollRecord{
		GrossSalary:     d("100000"),
		NISEmployee:     d("3000"),
		NHTEmployee:     d("2000"),
		EdTaxEmployee:   d("2182.50"),
		PAYE:            d("0"),
		OtherDeductions: d("0"),
		NetSalary:       d("92817.50"),
	}
	assert.True(t, r.Balances())
	assert.Equal(t, "7182.50", r.EmployeeStatutory().StringFixed(2))

	r.NetSalary = d("92817.49")
	assert.False(t, r.Balances())
}

func TestGuardFinalize(t *testing.T) {
	p := period.MustParse("2025-06")

	_, err := GuardFinalize("c1", p, nil)
	assert.ErrorIs(t, err, ErrEmptyBatch)

	_, err = GuardFinalize("c1", p, []PayrollRecord{
		{Status: StatusCalculated}, {Status: StatusPending}, {Status: StatusPending},
	})
	var incomplete *IncompleteBatchError
	require.ErrorAs(t, err, &incomplete)
	assert.Equal(t, 2, incomplete.PendingCount)
	assert.ErrorIs(t, err, ErrIncompleteBatch)

	res, err := GuardFinalize("c1", p, []PayrollRecord{
		{Status: StatusCalculated}, {Status: StatusFinalized}, {Status: StatusCalculated},
	})
	require.NoError(t, err)
	assert.Equal(t, 2, res.Finalized)
	assert.Equal(t, 1, res.AlreadyFinalized)
	assert.Equal(t, "2025-06", res.Period)
}

func TestPayrollRecord_SameFigures(t *testing.T) {
	version := "JM-2025-04"
	base := func() PayrollRecord {
		return PayrollRecord{
			ID:               "rec-1",
			GrossSalary:      decimal.RequireFromString("100000"),
			NISEmployee:      decimal.RequireFromString("3000"),
			NetSalary:        decimal.RequireFromString("97000"),
			AllowancesDetail: map[string]decimal.Decimal{"TRAVEL": decimal.RequireFromString("5000")},
			RateSetVersion:   &version,
			Status:           StatusCalculated,
		}
	}

	tests := []struct {
		name   string
		mutate func(r *PayrollRecord)
		want   bool
	}{
		{"identical", func(r *PayrollRecord) {}, true},
		{"status and identity ignored", func(r *PayrollRecord) { r.ID = ""; r.Status = StatusPending }, true},
		{"equal decimals with other scale", func(r *PayrollRecord) { r.GrossSalary = decimal.RequireFromString("100000.00") }, true},
		{"nil and empty detail", func(r *PayrollRecord) { r.EarningsDetail = map[string]decimal.Decimal{} }, true},
		{"amount differs", func(r *PayrollRecord) { r.NetSalary = decimal.RequireFromString("96999.99") }, false},
		{"detail differs", func(r *PayrollRecord) { r.AllowancesDetail = map[string]decimal.Decimal{"MEAL": decimal.RequireFromString("5000")} }, false},
		{"hours added", func(r *PayrollRecord) { h := decimal.RequireFromString("160"); r.HoursWorked = &h }, false},
		{"rate set differs", func(r *PayrollRecord) { other := "JM-2026-04"; r.RateSetVersion = &other }, false},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			other := base()
			tt.mutate(&other)
			assert.Equal(t, tt.want, base().SameFigures(other))
		})
	}
}
