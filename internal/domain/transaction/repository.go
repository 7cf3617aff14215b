package transaction

import (
	"context"

	"github.com/cmlabs-hris/jamaica-payroll/internal/domain/period"
)

// TransactionRepository is the ledger. All methods include companyID to
// prevent cross-company data access.
type TransactionRepository interface {
	// Codes
	CreateCode(ctx context.Context, code TransactionCode) (TransactionCode, error)
	GetCode(ctx context.Context, companyID string, code string) (TransactionCode, error)
	ListCodes(ctx context.Context, companyID string) ([]TransactionCode, error)

	// Transactions
	Create(ctx context.Context, txn Transaction) (Transaction, error)
	GetByID(ctx context.Context, companyID string, id string) (Transaction, error)
	List(ctx context.Context, companyID string, filter TransactionFilter) ([]Transaction, error)
	Void(ctx context.Context, companyID string, id string) (Transaction, error)

	// ListByEmployeePeriod returns every transaction for the employee and
	// period, VOID included, joined with its code's taxability.
	ListByEmployeePeriod(ctx context.Context, companyID string, employeeID string, p period.Period) ([]Transaction, error)
}
