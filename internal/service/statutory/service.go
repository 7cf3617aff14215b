package statutory

import (
	"context"
	"fmt"
	"log/slog"
	"sync"
	"time"

	"github.com/cmlabs-hris/jamaica-payroll/internal/domain/period"
	"github.com/cmlabs-hris/jamaica-payroll/internal/domain/statutory"
)

// FinalizedChecker reports whether any finalized payroll exists at or after a period.
type FinalizedChecker interface {
	HasFinalizedFrom(ctx context.Context, p period.Period) (bool, error)
}

type StatutoryServiceImpl struct {
	// mu serializes Publish so check, create and append happen as one step.
	mu        sync.Mutex
	repo      statutory.RateSetRepository
	finalized FinalizedChecker
	table     *Table
}

func NewStatutoryService(repo statutory.RateSetRepository, finalized FinalizedChecker) *StatutoryServiceImpl {
	table, _ := NewTable()
	return &StatutoryServiceImpl{
		repo:      repo,
		finalized: finalized,
		table:     table,
	}
}

// Bootstrap loads every persisted rate set into memory. When nothing has been
// published yet, the seed sets are published first.
func (s *StatutoryServiceImpl) Bootstrap(ctx context.Context, seed []statutory.PublishRateSetRequest) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	sets, err := s.repo.List(ctx)
	if err != nil {
		return fmt.Errorf("failed to list rate sets: %w", err)
	}

	if len(sets) == 0 {
		for i := range seed {
			set := seed[i].ToRateSet()
			created, err := s.repo.Create(ctx, set)
			if err != nil {
				return fmt.Errorf("failed to seed rate set %s: %w", set.Version, err)
			}
			sets = append(sets, created)
		}
		slog.Info("Statutory rate sets seeded", "count", len(sets))
	}

	if err := s.table.Reset(sets...); err != nil {
		return err
	}

	slog.Info("Statutory rate table loaded", "versions", s.table.Len())
	return nil
}

// Table exposes the in-memory lookup used by the payroll engine.
func (s *StatutoryServiceImpl) Table() *Table {
	return s.table
}

func (s *StatutoryServiceImpl) RatesFor(p period.Period) (statutory.RateSet, error) {
	return s.table.RatesFor(p)
}

func (s *StatutoryServiceImpl) Publish(ctx context.Context, req statutory.PublishRateSetRequest) (statutory.RateSetResponse, error) {
	if err := req.Validate(); err != nil {
		return statutory.RateSetResponse{}, err
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	// Another instance may have published since this one loaded.
	persisted, err := s.repo.List(ctx)
	if err != nil {
		return statutory.RateSetResponse{}, fmt.Errorf("failed to list rate sets: %w", err)
	}
	if err := s.table.Reset(persisted...); err != nil {
		return statutory.RateSetResponse{}, err
	}

	set := req.ToRateSet()
	if err := s.table.CanAppend(set); err != nil {
		return statutory.RateSetResponse{}, err
	}

	if s.finalized != nil {
		exists, err := s.finalized.HasFinalizedFrom(ctx, set.EffectiveFrom)
		if err != nil {
			return statutory.RateSetResponse{}, fmt.Errorf("failed to check finalized payroll: %w", err)
		}
		if exists {
			return statutory.RateSetResponse{}, fmt.Errorf("%w: from %s", statutory.ErrRateSetConflictsWithFinalized, set.EffectiveFrom)
		}
	}

	created, err := s.repo.Create(ctx, set)
	if err != nil {
		return statutory.RateSetResponse{}, err
	}
	if err := s.table.Append(created); err != nil {
		return statutory.RateSetResponse{}, err
	}

	slog.Info("Statutory rate set published", "version", created.Version, "effective_from", created.EffectiveFrom.Key())
	return mapToRateSetResponse(created, nil), nil
}

func (s *StatutoryServiceImpl) ListRateSets(ctx context.Context) ([]statutory.RateSetResponse, error) {
	sets, ends := s.table.Versions()

	result := make([]statutory.RateSetResponse, 0, len(sets))
	for i, set := range sets {
		result = append(result, mapToRateSetResponse(set, ends[i]))
	}
	return result, nil
}

func (s *StatutoryServiceImpl) GetRateSet(ctx context.Context, p period.Period) (statutory.RateSetResponse, error) {
	set, err := s.table.RatesFor(p)
	if err != nil {
		return statutory.RateSetResponse{}, err
	}

	sets, ends := s.table.Versions()
	for i := range sets {
		if sets[i].Version == set.Version {
			return mapToRateSetResponse(set, ends[i]), nil
		}
	}
	return mapToRateSetResponse(set, nil), nil
}

// ========== HELPERS ==========

func mapToRateSetResponse(set statutory.RateSet, end *period.Period) statutory.RateSetResponse {
	var endStr *string
	if end != nil {
		str := end.Key()
		endStr = &str
	}

	publishedAt := ""
	if !set.PublishedAt.IsZero() {
		publishedAt = set.PublishedAt.Format(time.RFC3339)
	}

	return statutory.RateSetResponse{
		Version:                  set.Version,
		EffectiveFrom:            set.EffectiveFrom.Key(),
		EffectiveTo:              endStr,
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
		PublishedAt:              publishedAt,
	}
}
