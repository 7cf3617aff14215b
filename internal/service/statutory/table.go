package statutory

import (
	"fmt"
	"sort"
	"sync"

	"github.com/cmlabs-hris/jamaica-payroll/internal/domain/period"
	"github.com/cmlabs-hris/jamaica-payroll/internal/domain/statutory"
)

// Table is the in-memory versioned rate table. Versions are ordered by
// EffectiveFrom; version i covers [From_i, From_i+1) and the newest version
// is open-ended, so ranges can neither overlap nor leave gaps.
type Table struct {
	mu   sync.RWMutex
	sets []statutory.RateSet
}

func NewTable(sets ...statutory.RateSet) (*Table, error) {
	sorted, err := orderRateSets(sets)
	if err != nil {
		return nil, err
	}
	return &Table{sets: sorted}, nil
}

// Reset replaces the table contents with sets. On error the table is left unchanged.
func (t *Table) Reset(sets ...statutory.RateSet) error {
	sorted, err := orderRateSets(sets)
	if err != nil {
		return err
	}

	t.mu.Lock()
	defer t.mu.Unlock()
	t.sets = sorted
	return nil
}

func orderRateSets(sets []statutory.RateSet) ([]statutory.RateSet, error) {
	sorted := make([]statutory.RateSet, len(sets))
	for i, set := range sets {
		sorted[i] = cloneRateSet(set)
	}
	sort.Slice(sorted, func(i, j int) bool {
		return sorted[i].EffectiveFrom.Before(sorted[j].EffectiveFrom)
	})

	seen := make(map[string]bool, len(sorted))
	for i, set := range sorted {
		if seen[set.Version] {
			return nil, fmt.Errorf("%w: %s", statutory.ErrRateSetVersionExists, set.Version)
		}
		seen[set.Version] = true
		if i > 0 && !set.EffectiveFrom.After(sorted[i-1].EffectiveFrom) {
			return nil, fmt.Errorf("%w: %s and %s both start %s",
				statutory.ErrRateSetOverlap, sorted[i-1].Version, set.Version, set.EffectiveFrom)
		}
	}
	return sorted, nil
}

// RatesFor returns the rate set in force for p.
func (t *Table) RatesFor(p period.Period) (statutory.RateSet, error) {
	t.mu.RLock()
	defer t.mu.RUnlock()

	for i := len(t.sets) - 1; i >= 0; i-- {
		if !t.sets[i].EffectiveFrom.After(p) {
			return cloneRateSet(t.sets[i]), nil
		}
	}
	return statutory.RateSet{}, &statutory.RateNotFoundError{Period: p}
}

// CanAppend reports whether set could be published after the current newest version.
func (t *Table) CanAppend(set statutory.RateSet) error {
	t.mu.RLock()
	defer t.mu.RUnlock()
	return t.canAppendLocked(set)
}

func (t *Table) canAppendLocked(set statutory.RateSet) error {
	for _, existing := range t.sets {
		if existing.Version == set.Version {
			return fmt.Errorf("%w: %s", statutory.ErrRateSetVersionExists, set.Version)
		}
	}
	if n := len(t.sets); n > 0 && !set.EffectiveFrom.After(t.sets[n-1].EffectiveFrom) {
		return fmt.Errorf("%w: latest starts %s", statutory.ErrRateSetOverlap, t.sets[n-1].EffectiveFrom)
	}
	return nil
}

// Append adds a new newest version. History is never rewritten.
func (t *Table) Append(set statutory.RateSet) error {
	t.mu.Lock()
	defer t.mu.Unlock()

	if err := t.canAppendLocked(set); err != nil {
		return err
	}
	t.sets = append(t.sets, cloneRateSet(set))
	return nil
}

// Versions returns every published set in effective order, with the period
// each one stops applying (nil for the open-ended newest version).
func (t *Table) Versions() ([]statutory.RateSet, []*period.Period) {
	t.mu.RLock()
	defer t.mu.RUnlock()

	sets := make([]statutory.RateSet, len(t.sets))
	ends := make([]*period.Period, len(t.sets))
	for i, set := range t.sets {
		sets[i] = cloneRateSet(set)
		if i+1 < len(t.sets) {
			end := t.sets[i+1].EffectiveFrom.Prev()
			ends[i] = &end
		}
	}
	return sets, ends
}

func (t *Table) Len() int {
	t.mu.RLock()
	defer t.mu.RUnlock()
	return len(t.sets)
}

func cloneRateSet(set statutory.RateSet) statutory.RateSet {
	bands := make([]statutory.PAYEBand, len(set.PAYEBands))
	copy(bands, set.PAYEBands)
	set.PAYEBands = bands
	return set
}
