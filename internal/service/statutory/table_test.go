package statutory

import (
	"testing"

	"github.com/cmlabs-hris/jamaica-payroll/internal/domain/period"
	"github.com/cmlabs-hris/jamaica-payroll/internal/domain/statutory"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func rateSetFrom(version, from string) statutory.RateSet {
	set := exampleRates()
	set.Version = version
	set.EffectiveFrom = period.MustParse(from)
	return set
}

func TestTable_RatesFor(t *testing.T) {
	table, err := NewTable(
		rateSetFrom("B", "2024-04"),
		rateSetFrom("A", "2023-04"),
		rateSetFrom("C", "2025-04"),
	)
	require.NoError(t, err)

	tests := []struct {
		period  string
		version string
	}{
		{"2023-04", "A"},
		{"2024-03", "A"},
		{"2024-04", "B"},
		{"2025-03", "B"},
		{"2025-04", "C"},
		{"2031-12", "C"},
	}
	for _, tt := range tests {
		t.Run(tt.period, func(t *testing.T) {
			set, err := table.RatesFor(period.MustParse(tt.period))
			require.NoError(t, err)
			assert.Equal(t, tt.version, set.Version)
		})
	}
}

func TestTable_RatesForBeforeFirstVersion(t *testing.T) {
	table, err := NewTable(rateSetFrom("A", "2023-04"))
	require.NoError(t, err)

	_, err = table.RatesFor(period.MustParse("2023-03"))

	var notFound *statutory.RateNotFoundError
	require.ErrorAs(t, err, &notFound)
	assert.ErrorIs(t, err, statutory.ErrRateNotFound)
	assert.Equal(t, "2023-03", notFound.Period.Key())
}

func TestTable_EmptyTable(t *testing.T) {
	table, err := NewTable()
	require.NoError(t, err)

	_, err = table.RatesFor(period.MustParse("2025-01"))
	assert.ErrorIs(t, err, statutory.ErrRateNotFound)
}

func TestNewTable_RejectsDuplicates(t *testing.T) {
	_, err := NewTable(rateSetFrom("A", "2023-04"), rateSetFrom("A", "2024-04"))
	assert.ErrorIs(t, err, statutory.ErrRateSetVersionExists)

	_, err = NewTable(rateSetFrom("A", "2023-04"), rateSetFrom("B", "2023-04"))
	assert.ErrorIs(t, err, statutory.ErrRateSetOverlap)
}

func TestTable_Append(t *testing.T) {
	table, err := NewTable(rateSetFrom("A", "2023-04"), rateSetFrom("B", "2024-04"))
	require.NoError(t, err)

	assert.ErrorIs(t, table.Append(rateSetFrom("X", "2024-04")), statutory.ErrRateSetOverlap)
	assert.ErrorIs(t, table.Append(rateSetFrom("X", "2023-10")), statutory.ErrRateSetOverlap)
	assert.ErrorIs(t, table.Append(rateSetFrom("A", "2026-01")), statutory.ErrRateSetVersionExists)
	assert.Equal(t, 2, table.Len())

	require.NoError(t, table.Append(rateSetFrom("C", "2025-04")))
	assert.Equal(t, 3, table.Len())

	// Periods already covered by B keep resolving to B.
	set, err := table.RatesFor(period.MustParse("2025-03"))
	require.NoError(t, err)
	assert.Equal(t, "B", set.Version)
}

func TestTable_VersionsDeriveRanges(t *testing.T) {
	table, err := NewTable(
		rateSetFrom("A", "2023-04"),
		rateSetFrom("B", "2024-04"),
		rateSetFrom("C", "2025-04"),
	)
	require.NoError(t, err)

	sets, ends := table.Versions()
	require.Len(t, sets, 3)
	require.Len(t, ends, 3)

	require.NotNil(t, ends[0])
	assert.Equal(t, "2024-03", ends[0].Key())
	require.NotNil(t, ends[1])
	assert.Equal(t, "2025-03", ends[1].Key())
	assert.Nil(t, ends[2])
}

func TestTable_ReturnsCopies(t *testing.T) {
	table, err := NewTable(rateSetFrom("A", "2023-04"))
	require.NoError(t, err)

	set, err := table.RatesFor(period.MustParse("2024-01"))
	require.NoError(t, err)
	set.PAYEBands[1].Rate = d("0.99")
	set.NISEmployeeRate = d("0.50")

	again, err := table.RatesFor(period.MustParse("2024-01"))
	require.NoError(t, err)
	assert.Equal(t, "0.25", again.PAYEBands[1].Rate.String())
	assert.Equal(t, "0.03", again.NISEmployeeRate.String())
}

func TestTable_Reset(t *testing.T) {
	table, err := NewTable(rateSetFrom("A", "2023-04"))
	require.NoError(t, err)

	require.NoError(t, table.Reset(rateSetFrom("B", "2024-04"), rateSetFrom("A", "2023-04")))
	assert.Equal(t, 2, table.Len())

	err = table.Reset(rateSetFrom("C", "2024-04"), rateSetFrom("D", "2024-04"))
	assert.ErrorIs(t, err, statutory.ErrRateSetOverlap)
	assert.Equal(t, 2, table.Len())
}
