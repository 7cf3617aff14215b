package postgresql

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/cmlabs-hris/jamaica-payroll/internal/domain/payroll"
	"github.com/cmlabs-hris/jamaica-payroll/internal/domain/period"
	"github.com/cmlabs-hris/jamaica-payroll/internal/pkg/database"
	"github.com/jackc/pgx/v5"
	"github.com/shopspring/decimal"
)

type payrollRepository struct {
	db *database.DB
}

func NewPayrollRepository(db *database.DB) payroll.PayrollRepository {
	return &payrollRepository{db: db}
}

const payrollRecordColumns = `
	pr.id, pr.company_id, pr.employee_id, pr.period,
	pr.base_salary, pr.hours_worked, pr.total_allowances, pr.total_earnings, pr.gross_salary,
	pr.nis_employee, pr.nis_employer, pr.nht_employee, pr.nht_employer,
	pr.edtax_employee, pr.edtax_employer, pr.heart, pr.paye, pr.taxable_income, pr.paye_exemption,
	pr.other_deductions, pr.net_salary,
	pr.allowances_detail, pr.earnings_detail, pr.deductions_detail,
	pr.rate_set_version, pr.status, pr.calculated_at, pr.finalized_at, pr.finalized_by,
	pr.created_at, pr.updated_at,
	e.employee_code, e.full_name, e.department`

func scanPayrollRecord(row pgx.Row) (payroll.PayrollRecord, error) {
	var rec payroll.PayrollRecord
	var periodKey string
	var allowancesBytes, earningsBytes, deductionsBytes []byte

	err := row.Scan(
		&rec.ID, &rec.CompanyID, &rec.EmployeeID, &periodKey,
		&rec.BaseSalary, &rec.HoursWorked, &rec.TotalAllowances, &rec.TotalEarnings, &rec.GrossSalary,
		&rec.NISEmployee, &rec.NISEmployer, &rec.NHTEmployee, &rec.NHTEmployer,
		&rec.EdTaxEmployee, &rec.EdTaxEmployer, &rec.HEART, &rec.PAYE, &rec.TaxableIncome, &rec.PAYEExemption,
		&rec.OtherDeductions, &rec.NetSalary,
		&allowancesBytes, &earningsBytes, &deductionsBytes,
		&rec.RateSetVersion, &rec.Status, &rec.CalculatedAt, &rec.FinalizedAt, &rec.FinalizedBy,
		&rec.CreatedAt, &rec.UpdatedAt,
		&rec.EmployeeCode, &rec.EmployeeName, &rec.Department,
	)
	if err != nil {
		return payroll.PayrollRecord{}, err
	}

	p, err := period.Parse(periodKey)
	if err != nil {
		return payroll.PayrollRecord{}, fmt.Errorf("payroll record %s: %w", rec.ID, err)
	}
	rec.Period = p

	if err := unmarshalDetail(allowancesBytes, &rec.AllowancesDetail); err != nil {
		return payroll.PayrollRecord{}, err
	}
	if err := unmarshalDetail(earningsBytes, &rec.EarningsDetail); err != nil {
		return payroll.PayrollRecord{}, err
	}
	if err := unmarshalDetail(deductionsBytes, &rec.DeductionsDetail); err != nil {
		return payroll.PayrollRecord{}, err
	}

	return rec, nil
}

func unmarshalDetail(b []byte, dst *map[string]decimal.Decimal) error {
	if len(b) == 0 {
		*dst = map[string]decimal.Decimal{}
		return nil
	}
	if err := json.Unmarshal(b, dst); err != nil {
		return fmt.Errorf("failed to decode payroll detail: %w", err)
	}
	return nil
}

func marshalDetail(m map[string]decimal.Decimal) ([]byte, error) {
	if m == nil {
		return []byte("{}"), nil
	}
	return json.Marshal(m)
}

func (r *payrollRepository) queryRecords(ctx context.Context, query string, args ...interface{}) ([]payroll.PayrollRecord, error) {
	q := GetQuerier(ctx, r.db)

	rows, err := q.Query(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("failed to list payroll records: %w", err)
	}
	defer rows.Close()

	var records []payroll.PayrollRecord
	for rows.Next() {
		rec, err := scanPayrollRecord(rows)
		if err != nil {
			return nil, fmt.Errorf("failed to scan payroll record: %w", err)
		}
		records = append(records, rec)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("failed to iterate payroll records: %w", err)
	}

	return records, nil
}

// ========== BATCH LIFECYCLE ==========

func (r *payrollRepository) CreatePendingIfAbsent(ctx context.Context, companyID string, employeeID string, p period.Period) (bool, error) {
	q := GetQuerier(ctx, r.db)

	query := `
		INSERT INTO payroll_records (company_id, employee_id, period, status)
		VALUES ($1, $2, $3, $4)
		ON CONFLICT ON CONSTRAINT uk_payroll_records_company_employee_period DO NOTHING
	`

	tag, err := q.Exec(ctx, query, companyID, employeeID, p.Key(), payroll.StatusPending)
	if err != nil {
		return false, fmt.Errorf("failed to create pending payroll record: %w", err)
	}

	return tag.RowsAffected() == 1, nil
}

func (r *payrollRepository) SaveCalculated(ctx context.Context, record payroll.PayrollRecord) (payroll.PayrollRecord, error) {
	q := GetQuerier(ctx, r.db)

	allowancesJSON, err := marshalDetail(record.AllowancesDetail)
	if err != nil {
		return payroll.PayrollRecord{}, err
	}
	earningsJSON, err := marshalDetail(record.EarningsDetail)
	if err != nil {
		return payroll.PayrollRecord{}, err
	}
	deductionsJSON, err := marshalDetail(record.DeductionsDetail)
	if err != nil {
		return payroll.PayrollRecord{}, err
	}

	query := fmt.Sprintf(`
		WITH pr AS (
			UPDATE payroll_records SET
				base_salary = $3, hours_worked = $4, total_allowances = $5, total_earnings = $6, gross_salary = $7,
				nis_employee = $8, nis_employer = $9, nht_employee = $10, nht_employer = $11,
				edtax_employee = $12, edtax_employer = $13, heart = $14, paye = $15,
				taxable_income = $16, paye_exemption = $17,
				other_deductions = $18, net_salary = $19,
				allowances_detail = $20, earnings_detail = $21, deductions_detail = $22,
				rate_set_version = $23, status = '%s', calculated_at = NOW(), updated_at = NOW()
			WHERE id = $1 AND company_id = $2 AND status <> '%s'
			RETURNING *
		)
		SELECT %s
		FROM pr
		JOIN employees e ON pr.employee_id = e.id
	`, payroll.StatusCalculated, payroll.StatusFinalized, payrollRecordColumns)

	rec, err := scanPayrollRecord(q.QueryRow(ctx, query,
		record.ID, record.CompanyID,
		record.BaseSalary, record.HoursWorked, record.TotalAllowances, record.TotalEarnings, record.GrossSalary,
		record.NISEmployee, record.NISEmployer, record.NHTEmployee, record.NHTEmployer,
		record.EdTaxEmployee, record.EdTaxEmployer, record.HEART, record.PAYE,
		record.TaxableIncome, record.PAYEExemption,
		record.OtherDeductions, record.NetSalary,
		allowancesJSON, earningsJSON, deductionsJSON,
		record.RateSetVersion,
	))
	if err == nil {
		return rec, nil
	}
	if err != pgx.ErrNoRows {
		return payroll.PayrollRecord{}, fmt.Errorf("failed to save calculated payroll record: %w", err)
	}

	// Nothing updated: either the record is gone or it was finalized first.
	var status string
	err = q.QueryRow(ctx, `SELECT status FROM payroll_records WHERE id = $1 AND company_id = $2`, record.ID, record.CompanyID).Scan(&status)
	if err != nil {
		if err == pgx.ErrNoRows {
			return payroll.PayrollRecord{}, payroll.ErrPayrollRecordNotFound
		}
		return payroll.PayrollRecord{}, fmt.Errorf("failed to check payroll record status: %w", err)
	}
	return payroll.PayrollRecord{}, payroll.ErrPayrollRecordFinalized
}

// FinalizeBatch takes a transaction-scoped advisory lock on the batch so a
// second finalizer on another instance fails fast instead of queueing.
func (r *payrollRepository) FinalizeBatch(ctx context.Context, companyID string, p period.Period, finalizedBy string, at time.Time) (payroll.FinalizeResult, error) {
	var result payroll.FinalizeResult

	err := WithTransaction(ctx, r.db, func(ctx context.Context, tx pgx.Tx) error {
		var locked bool
		lockKey := fmt.Sprintf("payroll-batch:%s:%s", companyID, p.Key())
		if err := tx.QueryRow(ctx, `SELECT pg_try_advisory_xact_lock(hashtextextended($1, 0))`, lockKey).Scan(&locked); err != nil {
			return fmt.Errorf("failed to lock payroll batch: %w", err)
		}
		if !locked {
			return &payroll.ConcurrentFinalizeError{CompanyID: companyID, Period: p}
		}
		if _, err := tx.Exec(ctx, `SELECT pg_advisory_xact_lock_shared(hashtextextended($1, 0))`, rateSetLockKey); err != nil {
			return fmt.Errorf("failed to lock rate sets: %w", err)
		}

		rows, err := tx.Query(ctx, `
			SELECT id, status FROM payroll_records
			WHERE company_id = $1 AND period = $2
			FOR UPDATE
		`, companyID, p.Key())
		if err != nil {
			return fmt.Errorf("failed to read payroll batch: %w", err)
		}
		var records []payroll.PayrollRecord
		for rows.Next() {
			var rec payroll.PayrollRecord
			if err := rows.Scan(&rec.ID, &rec.Status); err != nil {
				rows.Close()
				return fmt.Errorf("failed to scan payroll batch: %w", err)
			}
			records = append(records, rec)
		}
		rows.Close()
		if err := rows.Err(); err != nil {
			return fmt.Errorf("failed to read payroll batch: %w", err)
		}

		result, err = payroll.GuardFinalize(companyID, p, records)
		if err != nil {
			return err
		}

		tag, err := tx.Exec(ctx, `
			UPDATE payroll_records
			SET status = $3, finalized_at = $4, finalized_by = $5, updated_at = NOW()
			WHERE company_id = $1 AND period = $2 AND status = $6
		`, companyID, p.Key(), payroll.StatusFinalized, at, finalizedBy, payroll.StatusCalculated)
		if err != nil {
			return fmt.Errorf("failed to finalize payroll batch: %w", err)
		}
		if int(tag.RowsAffected()) != result.Finalized {
			return fmt.Errorf("finalize touched %d records, expected %d", tag.RowsAffected(), result.Finalized)
		}
		return nil
	})
	if err != nil {
		return payroll.FinalizeResult{}, err
	}

	return result, nil
}

func (r *payrollRepository) DeletePending(ctx context.Context, companyID string, id string) error {
	q := GetQuerier(ctx, r.db)

	query := `
		DELETE FROM payroll_records
		WHERE id = $1 AND company_id = $2 AND status = $3
		RETURNING id
	`

	var deletedID string
	err := q.QueryRow(ctx, query, id, companyID, payroll.StatusPending).Scan(&deletedID)
	if err != nil {
		if err == pgx.ErrNoRows {
			return payroll.ErrRecordNotPending
		}
		return fmt.Errorf("failed to delete payroll record: %w", err)
	}

	return nil
}

// ========== READS ==========

func (r *payrollRepository) GetByID(ctx context.Context, companyID string, id string) (payroll.PayrollRecord, error) {
	q := GetQuerier(ctx, r.db)

	query := fmt.Sprintf(`
		SELECT %s
		FROM payroll_records pr
		JOIN employees e ON pr.employee_id = e.id
		WHERE pr.id = $1 AND pr.company_id = $2
	`, payrollRecordColumns)

	rec, err := scanPayrollRecord(q.QueryRow(ctx, query, id, companyID))
	if err != nil {
		if err == pgx.ErrNoRows {
			return payroll.PayrollRecord{}, payroll.ErrPayrollRecordNotFound
		}
		return payroll.PayrollRecord{}, fmt.Errorf("failed to get payroll record: %w", err)
	}

	return rec, nil
}

func (r *payrollRepository) GetByEmployeePeriod(ctx context.Context, companyID string, employeeID string, p period.Period) (payroll.PayrollRecord, error) {
	q := GetQuerier(ctx, r.db)

	query := fmt.Sprintf(`
		SELECT %s
		FROM payroll_records pr
		JOIN employees e ON pr.employee_id = e.id
		WHERE pr.company_id = $1 AND pr.employee_id = $2 AND pr.period = $3
	`, payrollRecordColumns)

	rec, err := scanPayrollRecord(q.QueryRow(ctx, query, companyID, employeeID, p.Key()))
	if err != nil {
		if err == pgx.ErrNoRows {
			return payroll.PayrollRecord{}, payroll.ErrPayrollRecordNotFound
		}
		return payroll.PayrollRecord{}, fmt.Errorf("failed to get payroll record: %w", err)
	}

	return rec, nil
}

func (r *payrollRepository) ListByBatch(ctx context.Context, companyID string, p period.Period) ([]payroll.PayrollRecord, error) {
	query := fmt.Sprintf(`
		SELECT %s
		FROM payroll_records pr
		JOIN employees e ON pr.employee_id = e.id
		WHERE pr.company_id = $1 AND pr.period = $2
		ORDER BY e.employee_code, pr.id
	`, payrollRecordColumns)

	return r.queryRecords(ctx, query, companyID, p.Key())
}

func (r *payrollRepository) ListByEmployeeYear(ctx context.Context, companyID string, employeeID string, year int) ([]payroll.PayrollRecord, error) {
	query := fmt.Sprintf(`
		SELECT %s
		FROM payroll_records pr
		JOIN employees e ON pr.employee_id = e.id
		WHERE pr.company_id = $1 AND pr.employee_id = $2 AND pr.period LIKE $3
		ORDER BY pr.period
	`, payrollRecordColumns)

	return r.queryRecords(ctx, query, companyID, employeeID, fmt.Sprintf("%04d-%%", year))
}

func (r *payrollRepository) List(ctx context.Context, companyID string, filter payroll.PayrollFilter) ([]payroll.PayrollRecord, int64, error) {
	q := GetQuerier(ctx, r.db)

	baseQuery := `
		FROM payroll_records pr
		JOIN employees e ON pr.employee_id = e.id
		WHERE pr.company_id = $1
	`
	args := []interface{}{companyID}
	argIdx := 2

	if filter.Period != nil {
		baseQuery += fmt.Sprintf(" AND pr.period = $%d", argIdx)
		args = append(args, *filter.Period)
		argIdx++
	}
	if filter.Status != nil {
		baseQuery += fmt.Sprintf(" AND pr.status = $%d", argIdx)
		args = append(args, *filter.Status)
		argIdx++
	}
	if filter.EmployeeID != nil {
		baseQuery += fmt.Sprintf(" AND pr.employee_id = $%d", argIdx)
		args = append(args, *filter.EmployeeID)
		argIdx++
	}

	// Count query
	var totalCount int64
	if err := q.QueryRow(ctx, "SELECT COUNT(*) "+baseQuery, args...).Scan(&totalCount); err != nil {
		return nil, 0, fmt.Errorf("failed to count payroll records: %w", err)
	}

	// Sort
	sortColumn := "pr.period"
	allowedColumns := map[string]string{
		"period":        "pr.period",
		"employee_code": "e.employee_code",
		"gross_salary":  "pr.gross_salary",
		"net_salary":    "pr.net_salary",
		"status":        "pr.status",
	}
	if col, ok := allowedColumns[filter.SortBy]; ok {
		sortColumn = col
	}
	sortOrder := "DESC"
	if filter.SortOrder == "asc" {
		sortOrder = "ASC"
	}

	// Pagination
	if filter.Limit <= 0 {
		filter.Limit = 20
	}
	if filter.Page <= 0 {
		filter.Page = 1
	}
	offset := (filter.Page - 1) * filter.Limit

	selectQuery := fmt.Sprintf(`
		SELECT %s
		%s
		ORDER BY %s %s, pr.id
		LIMIT $%d OFFSET $%d
	`, payrollRecordColumns, baseQuery, sortColumn, sortOrder, argIdx, argIdx+1)
	args = append(args, filter.Limit, offset)

	records, err := r.queryRecords(ctx, selectQuery, args...)
	if err != nil {
		return nil, 0, err
	}

	return records, totalCount, nil
}

func (r *payrollRepository) HasFinalizedFrom(ctx context.Context, p period.Period) (bool, error) {
	q := GetQuerier(ctx, r.db)

	var exists bool
	err := q.QueryRow(ctx, `
		SELECT EXISTS (SELECT 1 FROM payroll_records WHERE period >= $1 AND status = $2)
	`, p.Key(), payroll.StatusFinalized).Scan(&exists)
	if err != nil {
		return false, fmt.Errorf("failed to check finalized payroll: %w", err)
	}

	return exists, nil
}

func (r *payrollRepository) IsFinalized(ctx context.Context, companyID string, employeeID string, p period.Period) (bool, error) {
	q := GetQuerier(ctx, r.db)

	var exists bool
	err := q.QueryRow(ctx, `
		SELECT EXISTS (
			SELECT 1 FROM payroll_records
			WHERE company_id = $1 AND employee_id = $2 AND period = $3 AND status = $4
		)
	`, companyID, employeeID, p.Key(), payroll.StatusFinalized).Scan(&exists)
	if err != nil {
		return false, fmt.Errorf("failed to check finalized payroll record: %w", err)
	}

	return exists, nil
}
