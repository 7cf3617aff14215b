package statutory

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/cmlabs-hris/jamaica-payroll/internal/domain/period"
	"github.com/cmlabs-hris/jamaica-payroll/internal/domain/statutory"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type fakeRateSetRepo struct {
	mu        sync.Mutex
	sets      []statutory.RateSet
	createErr error
	// entered and release, when set, hold the first Create open until released.
	entered chan struct{}
	release chan struct{}
}

func (f *fakeRateSetRepo) Create(ctx context.Context, set statutory.RateSet) (statutory.RateSet, error) {
	if f.release != nil {
		gate := f.release
		f.release = nil
		close(f.entered)
		<-gate
	}

	f.mu.Lock()
	defer f.mu.Unlock()
	if f.createErr != nil {
		return statutory.RateSet{}, f.createErr
	}
	set.PublishedAt = time.Date(2025, 1, 1, 0, 0, 0, 0, time.UTC)
	f.sets = append(f.sets, set)
	return set, nil
}

func (f *fakeRateSetRepo) List(ctx context.Context) ([]statutory.RateSet, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	return append([]statutory.RateSet(nil), f.sets...), nil
}

type fakeFinalizedChecker struct {
	from *period.Period
}

func (f *fakeFinalizedChecker) HasFinalizedFrom(ctx context.Context, p period.Period) (bool, error) {
	if f.from == nil {
		return false, nil
	}
	return !f.from.Before(p), nil
}

func publishRequest(version, from string) statutory.PublishRateSetRequest {
	set := exampleRates()
	return statutory.PublishRateSetRequest{
		Version:                  version,
		EffectiveFrom:            from,
		PayPeriodsPerYear:        set.PayPeriodsPerYear,
		NISEmployeeRate:          set.NISEmployeeRate,
		NISEmployerRate:          set.NISEmployerRate,
		NISAnnualCeiling:         set.NISAnnualCeiling,
		NHTEmployeeRate:          set.NHTEmployeeRate,
		NHTEmployerRate:          set.NHTEmployerRate,
		EducationTaxEmployeeRate: set.EducationTaxEmployeeRate,
		EducationTaxEmployerRate: set.EducationTaxEmployerRate,
		HEARTRate:                set.HEARTRate,
		PAYEBands:                set.PAYEBands,
	}
}

func TestStatutoryService_BootstrapSeedsEmptyRepository(t *testing.T) {
	ctx := context.Background()
	repo := &fakeRateSetRepo{}
	svc := NewStatutoryService(repo, &fakeFinalizedChecker{})

	err := svc.Bootstrap(ctx, []statutory.PublishRateSetRequest{
		publishRequest("A", "2023-04"),
		publishRequest("B", "2024-04"),
	})
	require.NoError(t, err)
	assert.Len(t, repo.sets, 2)
	assert.Equal(t, 2, svc.Table().Len())

	set, err := svc.RatesFor(period.MustParse("2024-05"))
	require.NoError(t, err)
	assert.Equal(t, "B", set.Version)
}

func TestStatutoryService_BootstrapPrefersPersistedSets(t *testing.T) {
	ctx := context.Background()
	repo := &fakeRateSetRepo{sets: []statutory.RateSet{rateSetFrom("DB", "2022-01")}}
	svc := NewStatutoryService(repo, nil)

	require.NoError(t, svc.Bootstrap(ctx, []statutory.PublishRateSetRequest{publishRequest("SEED", "2023-04")}))
	assert.Len(t, repo.sets, 1)

	set, err := svc.RatesFor(period.MustParse("2025-01"))
	require.NoError(t, err)
	assert.Equal(t, "DB", set.Version)
}

func TestStatutoryService_Publish(t *testing.T) {
	ctx := context.Background()
	repo := &fakeRateSetRepo{}
	checker := &fakeFinalizedChecker{}
	svc := NewStatutoryService(repo, checker)
	require.NoError(t, svc.Bootstrap(ctx, []statutory.PublishRateSetRequest{publishRequest("A", "2023-04")}))

	t.Run("overlapping start is rejected", func(t *testing.T) {
		_, err := svc.Publish(ctx, publishRequest("X", "2023-04"))
		assert.ErrorIs(t, err, statutory.ErrRateSetOverlap)
	})

	t.Run("duplicate version is rejected", func(t *testing.T) {
		_, err := svc.Publish(ctx, publishRequest("A", "2026-01"))
		assert.ErrorIs(t, err, statutory.ErrRateSetVersionExists)
	})

	t.Run("finalized payroll inside range is rejected", func(t *testing.T) {
		finalized := period.MustParse("2024-06")
		checker.from = &finalized
		defer func() { checker.from = nil }()

		_, err := svc.Publish(ctx, publishRequest("B", "2024-04"))
		assert.ErrorIs(t, err, statutory.ErrRateSetConflictsWithFinalized)
		assert.Equal(t, 1, svc.Table().Len())
	})

	t.Run("invalid request is rejected", func(t *testing.T) {
		req := publishRequest("B", "2024-04")
		req.PAYEBands = nil
		_, err := svc.Publish(ctx, req)
		assert.Error(t, err)
	})

	t.Run("new version closes the previous range", func(t *testing.T) {
		resp, err := svc.Publish(ctx, publishRequest("B", "2024-04"))
		require.NoError(t, err)
		assert.Equal(t, "B", resp.Version)
		assert.Nil(t, resp.EffectiveTo)
		assert.NotEmpty(t, resp.PublishedAt)

		list, err := svc.ListRateSets(ctx)
		require.NoError(t, err)
		require.Len(t, list, 2)
		require.NotNil(t, list[0].EffectiveTo)
		assert.Equal(t, "2024-03", *list[0].EffectiveTo)

		got, err := svc.GetRateSet(ctx, period.MustParse("2023-12"))
		require.NoError(t, err)
		assert.Equal(t, "A", got.Version)
	})
}

func TestStatutoryService_PublishRepositoryFailure(t *testing.T) {
	ctx := context.Background()
	repo := &fakeRateSetRepo{}
	svc := NewStatutoryService(repo, nil)
	require.NoError(t, svc.Bootstrap(ctx, []statutory.PublishRateSetRequest{publishRequest("A", "2023-04")}))

	repo.createErr = errors.New("connection refused")
	_, err := svc.Publish(ctx, publishRequest("B", "2024-04"))
	require.Error(t, err)
	assert.Equal(t, 1, svc.Table().Len())
}

func TestStatutoryService_ConcurrentPublishKeepsTableAndStoreInStep(t *testing.T) {
	ctx := context.Background()
	repo := &fakeRateSetRepo{}
	svc := NewStatutoryService(repo, &fakeFinalizedChecker{})
	require.NoError(t, svc.Bootstrap(ctx, []statutory.PublishRateSetRequest{publishRequest("A", "2023-04")}))

	repo.entered = make(chan struct{})
	repo.release = make(chan struct{})

	var wg sync.WaitGroup
	var laterErr, earlierErr error
	wg.Add(1)
	go func() {
		defer wg.Done()
		_, laterErr = svc.Publish(ctx, publishRequest("FEB", "2026-02"))
	}()
	<-repo.entered

	wg.Add(1)
	go func() {
		defer wg.Done()
		_, earlierErr = svc.Publish(ctx, publishRequest("JAN", "2026-01"))
	}()

	// give the second publish time to reach the service before the first completes
	time.Sleep(50 * time.Millisecond)
	close(repo.release)
	wg.Wait()

	require.NoError(t, laterErr)
	assert.ErrorIs(t, earlierErr, statutory.ErrRateSetOverlap)

	persisted, err := repo.List(ctx)
	require.NoError(t, err)
	assert.Len(t, persisted, 2)
	assert.Equal(t, len(persisted), svc.Table().Len())

	set, err := svc.RatesFor(period.MustParse("2026-01"))
	require.NoError(t, err)
	assert.Equal(t, "A", set.Version)
}

func TestStatutoryService_PublishSeesSetsPublishedElsewhere(t *testing.T) {
	ctx := context.Background()
	repo := &fakeRateSetRepo{}
	svc := NewStatutoryService(repo, nil)
	require.NoError(t, svc.Bootstrap(ctx, []statutory.PublishRateSetRequest{publishRequest("A", "2023-04")}))

	// another instance publishes directly to the store
	repo.sets = append(repo.sets, rateSetFrom("OTHER", "2025-04"))

	_, err := svc.Publish(ctx, publishRequest("B", "2024-04"))
	assert.ErrorIs(t, err, statutory.ErrRateSetOverlap)
	assert.Equal(t, 2, svc.Table().Len())
}
