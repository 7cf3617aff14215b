package postgresql

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"

	"github.com/cmlabs-hris/jamaica-payroll/internal/domain/payroll"
	"github.com/cmlabs-hris/jamaica-payroll/internal/domain/period"
	"github.com/cmlabs-hris/jamaica-payroll/internal/domain/statutory"
	"github.com/cmlabs-hris/jamaica-payroll/internal/pkg/database"
	"github.com/jackc/pgx/v5"
)

type rateSetRepository struct {
	db *database.DB
}

func NewRateSetRepository(db *database.DB) statutory.RateSetRepository {
	return &rateSetRepository{db: db}
}

const rateSetColumns = `
	version, effective_from, pay_periods_per_year,
	nis_employee_rate, nis_employer_rate, nis_annual_ceiling,
	nht_employee_rate, nht_employer_rate,
	education_tax_employee_rate, education_tax_employer_rate,
	heart_rate, paye_bands, published_at`

func scanRateSet(row pgx.Row) (statutory.RateSet, error) {
	var set statutory.RateSet
	var from string
	var bands []byte

	err := row.Scan(
		&set.Version, &from, &set.PayPeriodsPerYear,
		&set.NISEmployeeRate, &set.NISEmployerRate, &set.NISAnnualCeiling,
		&set.NHTEmployeeRate, &set.NHTEmployerRate,
		&set.EducationTaxEmployeeRate, &set.EducationTaxEmployerRate,
		&set.HEARTRate, &bands, &set.PublishedAt,
	)
	if err != nil {
		return statutory.RateSet{}, err
	}

	p, err := period.Parse(from)
	if err != nil {
		return statutory.RateSet{}, fmt.Errorf("rate set %s: %w", set.Version, err)
	}
	set.EffectiveFrom = p

	if err := json.Unmarshal(bands, &set.PAYEBands); err != nil {
		return statutory.RateSet{}, fmt.Errorf("rate set %s: failed to decode paye bands: %w", set.Version, err)
	}

	return set, nil
}

// rateSetLockKey serializes publishing against every finalize. Publish takes
// it exclusively, FinalizeBatch shares it.
const rateSetLockKey = "statutory-rate-sets"

// Create inserts a new newest rate set. Published rows are never updated.
// Under the rate-set lock it refuses a set that does not start after the
// latest one, or whose range already holds finalized payroll.
func (r *rateSetRepository) Create(ctx context.Context, set statutory.RateSet) (statutory.RateSet, error) {
	bands, err := json.Marshal(set.PAYEBands)
	if err != nil {
		return statutory.RateSet{}, fmt.Errorf("failed to encode paye bands: %w", err)
	}

	var created statutory.RateSet
	err = WithTransaction(ctx, r.db, func(ctx context.Context, tx pgx.Tx) error {
		if _, err := tx.Exec(ctx, `SELECT pg_advisory_xact_lock(hashtextextended($1, 0))`, rateSetLockKey); err != nil {
			return fmt.Errorf("failed to lock rate sets: %w", err)
		}

		var latest *string
		if err := tx.QueryRow(ctx, `SELECT MAX(effective_from) FROM statutory_rate_sets`).Scan(&latest); err != nil {
			return fmt.Errorf("failed to read latest rate set: %w", err)
		}
		if latest != nil && *latest >= set.EffectiveFrom.Key() {
			return fmt.Errorf("%w: latest starts %s", statutory.ErrRateSetOverlap, *latest)
		}

		var finalized bool
		if err := tx.QueryRow(ctx, `
			SELECT EXISTS (SELECT 1 FROM payroll_records WHERE status = $1 AND period >= $2)
		`, payroll.StatusFinalized, set.EffectiveFrom.Key()).Scan(&finalized); err != nil {
			return fmt.Errorf("failed to check finalized payroll: %w", err)
		}
		if finalized {
			return fmt.Errorf("%w: from %s", statutory.ErrRateSetConflictsWithFinalized, set.EffectiveFrom)
		}

		query := fmt.Sprintf(`
			INSERT INTO statutory_rate_sets (
				version, effective_from, pay_periods_per_year,
				nis_employee_rate, nis_employer_rate, nis_annual_ceiling,
				nht_employee_rate, nht_employer_rate,
				education_tax_employee_rate, education_tax_employer_rate,
				heart_rate, paye_bands
			) VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12)
			RETURNING %s
		`, rateSetColumns)

		created, err = scanRateSet(tx.QueryRow(ctx, query,
			set.Version, set.EffectiveFrom.Key(), set.PayPeriodsPerYear,
			set.NISEmployeeRate, set.NISEmployerRate, set.NISAnnualCeiling,
			set.NHTEmployeeRate, set.NHTEmployerRate,
			set.EducationTaxEmployeeRate, set.EducationTaxEmployerRate,
			set.HEARTRate, bands,
		))
		if err != nil {
			if strings.Contains(err.Error(), "statutory_rate_sets_pkey") {
				return fmt.Errorf("%w: %s", statutory.ErrRateSetVersionExists, set.Version)
			}
			if strings.Contains(err.Error(), "uk_statutory_rate_sets_effective_from") {
				return fmt.Errorf("%w: %s", statutory.ErrRateSetOverlap, set.EffectiveFrom)
			}
			return fmt.Errorf("failed to create rate set: %w", err)
		}
		return nil
	})
	if err != nil {
		return statutory.RateSet{}, err
	}

	return created, nil
}

func (r *rateSetRepository) List(ctx context.Context) ([]statutory.RateSet, error) {
	q := GetQuerier(ctx, r.db)

	query := fmt.Sprintf(`
		SELECT %s
		FROM statutory_rate_sets
		ORDER BY effective_from
	`, rateSetColumns)

	rows, err := q.Query(ctx, query)
	if err != nil {
		return nil, fmt.Errorf("failed to list rate sets: %w", err)
	}
	defer rows.Close()

	var sets []statutory.RateSet
	for rows.Next() {
		set, err := scanRateSet(rows)
		if err != nil {
			return nil, fmt.Errorf("failed to scan rate set: %w", err)
		}
		sets = append(sets, set)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("failed to iterate rate sets: %w", err)
	}

	return sets, nil
}
