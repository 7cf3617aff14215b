package postgresql

import (
	"context"
	"fmt"
	"strings"

	"github.com/cmlabs-hris/jamaica-payroll/internal/domain/period"
	"github.com/cmlabs-hris/jamaica-payroll/internal/domain/transaction"
	"github.com/cmlabs-hris/jamaica-payroll/internal/pkg/database"
	"github.com/jackc/pgx/v5"
)

type transactionRepository struct {
	db *database.DB
}

func NewTransactionRepository(db *database.DB) transaction.TransactionRepository {
	return &transactionRepository{db: db}
}

// ========== CODES ==========

func (r *transactionRepository) CreateCode(ctx context.Context, code transaction.TransactionCode) (transaction.TransactionCode, error) {
	q := GetQuerier(ctx, r.db)

	query := `
		INSERT INTO transaction_codes (company_id, code, name, type, description, is_taxable, is_active)
		VALUES ($1, $2, $3, $4, $5, $6, $7)
		RETURNING id, company_id, code, name, type, description, is_taxable, is_active, created_at, updated_at
	`

	var c transaction.TransactionCode
	err := q.QueryRow(ctx, query,
		code.CompanyID, code.Code, code.Name, code.Type, code.Description, code.IsTaxable, code.IsActive,
	).Scan(
		&c.ID, &c.CompanyID, &c.Code, &c.Name, &c.Type, &c.Description, &c.IsTaxable, &c.IsActive, &c.CreatedAt, &c.UpdatedAt,
	)
	if err != nil {
		if strings.Contains(err.Error(), "uk_transaction_codes_company_code") {
			return transaction.TransactionCode{}, transaction.ErrTransactionCodeExists
		}
		return transaction.TransactionCode{}, fmt.Errorf("failed to create transaction code: %w", err)
	}

	return c, nil
}

func (r *transactionRepository) GetCode(ctx context.Context, companyID string, code string) (transaction.TransactionCode, error) {
	q := GetQuerier(ctx, r.db)

	query := `
		SELECT id, company_id, code, name, type, description, is_taxable, is_active, created_at, updated_at
		FROM transaction_codes
		WHERE company_id = $1 AND code = $2
	`

	var c transaction.TransactionCode
	err := q.QueryRow(ctx, query, companyID, code).Scan(
		&c.ID, &c.CompanyID, &c.Code, &c.Name, &c.Type, &c.Description, &c.IsTaxable, &c.IsActive, &c.CreatedAt, &c.UpdatedAt,
	)
	if err != nil {
		if err == pgx.ErrNoRows {
			return transaction.TransactionCode{}, transaction.ErrTransactionCodeNotFound
		}
		return transaction.TransactionCode{}, fmt.Errorf("failed to get transaction code: %w", err)
	}

	return c, nil
}

func (r *transactionRepository) ListCodes(ctx context.Context, companyID string) ([]transaction.TransactionCode, error) {
	q := GetQuerier(ctx, r.db)

	query := `
		SELECT id, company_id, code, name, type, description, is_taxable, is_active, created_at, updated_at
		FROM transaction_codes
		WHERE company_id = $1
		ORDER BY type, code
	`

	rows, err := q.Query(ctx, query, companyID)
	if err != nil {
		return nil, fmt.Errorf("failed to list transaction codes: %w", err)
	}
	defer rows.Close()

	var codes []transaction.TransactionCode
	for rows.Next() {
		var c transaction.TransactionCode
		if err := rows.Scan(
			&c.ID, &c.CompanyID, &c.Code, &c.Name, &c.Type, &c.Description, &c.IsTaxable, &c.IsActive, &c.CreatedAt, &c.UpdatedAt,
		); err != nil {
			return nil, fmt.Errorf("failed to scan transaction code: %w", err)
		}
		codes = append(codes, c)
	}

	return codes, rows.Err()
}

// ========== TRANSACTIONS ==========

const transactionColumns = `
	t.id, t.company_id, t.employee_id, t.period, t.type, t.code,
	t.amount, t.units, t.rate, t.status, t.notes, t.created_at, t.updated_at, t.voided_at,
	tc.is_taxable, tc.name`

const transactionFrom = `
	FROM payroll_transactions t
	JOIN transaction_codes tc ON tc.company_id = t.company_id AND tc.code = t.code`

func scanTransaction(row pgx.Row) (transaction.Transaction, error) {
	var t transaction.Transaction
	var periodKey string

	err := row.Scan(
		&t.ID, &t.CompanyID, &t.EmployeeID, &periodKey, &t.Type, &t.Code,
		&t.Amount, &t.Units, &t.Rate, &t.Status, &t.Notes, &t.CreatedAt, &t.UpdatedAt, &t.VoidedAt,
		&t.IsTaxable, &t.CodeName,
	)
	if err != nil {
		return transaction.Transaction{}, err
	}

	p, err := period.Parse(periodKey)
	if err != nil {
		return transaction.Transaction{}, fmt.Errorf("transaction %s: %w", t.ID, err)
	}
	t.Period = p

	return t, nil
}

func (r *transactionRepository) queryTransactions(ctx context.Context, query string, args ...interface{}) ([]transaction.Transaction, error) {
	q := GetQuerier(ctx, r.db)

	rows, err := q.Query(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("failed to list transactions: %w", err)
	}
	defer rows.Close()

	var txns []transaction.Transaction
	for rows.Next() {
		t, err := scanTransaction(rows)
		if err != nil {
			return nil, fmt.Errorf("failed to scan transaction: %w", err)
		}
		txns = append(txns, t)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("failed to iterate transactions: %w", err)
	}

	return txns, nil
}

func (r *transactionRepository) Create(ctx context.Context, txn transaction.Transaction) (transaction.Transaction, error) {
	q := GetQuerier(ctx, r.db)

	query := fmt.Sprintf(`
		WITH t AS (
			INSERT INTO payroll_transactions (company_id, employee_id, period, type, code, amount, units, rate, status, notes)
			VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10)
			RETURNING *
		)
		SELECT %s
		FROM t
		JOIN transaction_codes tc ON tc.company_id = t.company_id AND tc.code = t.code
	`, transactionColumns)

	created, err := scanTransaction(q.QueryRow(ctx, query,
		txn.CompanyID, txn.EmployeeID, txn.Period.Key(), txn.Type, txn.Code,
		txn.Amount, txn.Units, txn.Rate, txn.Status, txn.Notes,
	))
	if err != nil {
		if strings.Contains(err.Error(), "fk_payroll_transactions_code") {
			return transaction.Transaction{}, transaction.ErrTransactionCodeNotFound
		}
		return transaction.Transaction{}, fmt.Errorf("failed to create transaction: %w", err)
	}

	return created, nil
}

func (r *transactionRepository) GetByID(ctx context.Context, companyID string, id string) (transaction.Transaction, error) {
	q := GetQuerier(ctx, r.db)

	query := fmt.Sprintf(`
		SELECT %s
		%s
		WHERE t.id = $1 AND t.company_id = $2
	`, transactionColumns, transactionFrom)

	t, err := scanTransaction(q.QueryRow(ctx, query, id, companyID))
	if err != nil {
		if err == pgx.ErrNoRows {
			return transaction.Transaction{}, transaction.ErrTransactionNotFound
		}
		return transaction.Transaction{}, fmt.Errorf("failed to get transaction: %w", err)
	}

	return t, nil
}

func (r *transactionRepository) List(ctx context.Context, companyID string, filter transaction.TransactionFilter) ([]transaction.Transaction, error) {
	query := fmt.Sprintf("SELECT %s %s WHERE t.company_id = $1", transactionColumns, transactionFrom)
	args := []interface{}{companyID}
	argIdx := 2

	if filter.EmployeeID != nil {
		query += fmt.Sprintf(" AND t.employee_id = $%d", argIdx)
		args = append(args, *filter.EmployeeID)
		argIdx++
	}
	if filter.Period != nil {
		query += fmt.Sprintf(" AND t.period = $%d", argIdx)
		args = append(args, filter.Period.Key())
		argIdx++
	}
	if filter.Status != nil {
		query += fmt.Sprintf(" AND t.status = $%d", argIdx)
		args = append(args, *filter.Status)
	}
	query += " ORDER BY t.period DESC, t.created_at, t.id"

	return r.queryTransactions(ctx, query, args...)
}

func (r *transactionRepository) Void(ctx context.Context, companyID string, id string) (transaction.Transaction, error) {
	q := GetQuerier(ctx, r.db)

	query := fmt.Sprintf(`
		WITH t AS (
			UPDATE payroll_transactions
			SET status = $3, voided_at = NOW(), updated_at = NOW()
			WHERE id = $1 AND company_id = $2 AND status <> $3
			RETURNING *
		)
		SELECT %s
		FROM t
		JOIN transaction_codes tc ON tc.company_id = t.company_id AND tc.code = t.code
	`, transactionColumns)

	voided, err := scanTransaction(q.QueryRow(ctx, query, id, companyID, transaction.StatusVoid))
	if err == nil {
		return voided, nil
	}
	if err != pgx.ErrNoRows {
		return transaction.Transaction{}, fmt.Errorf("failed to void transaction: %w", err)
	}

	if _, err := r.GetByID(ctx, companyID, id); err != nil {
		return transaction.Transaction{}, err
	}
	return transaction.Transaction{}, transaction.ErrTransactionAlreadyVoid
}

func (r *transactionRepository) ListByEmployeePeriod(ctx context.Context, companyID string, employeeID string, p period.Period) ([]transaction.Transaction, error) {
	query := fmt.Sprintf(`
		SELECT %s
		%s
		WHERE t.company_id = $1 AND t.employee_id = $2 AND t.period = $3
		ORDER BY t.created_at, t.id
	`, transactionColumns, transactionFrom)

	return r.queryTransactions(ctx, query, companyID, employeeID, p.Key())
}
