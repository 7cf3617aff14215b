package transaction

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/cmlabs-hris/jamaica-payroll/internal/domain/employee"
	"github.com/cmlabs-hris/jamaica-payroll/internal/domain/period"
	"github.com/cmlabs-hris/jamaica-payroll/internal/domain/transaction"
	"github.com/shopspring/decimal"
)

// FinalizedChecker reports whether an employee's payroll for a period is closed.
type FinalizedChecker interface {
	IsFinalized(ctx context.Context, companyID string, employeeID string, p period.Period) (bool, error)
}

type TransactionServiceImpl struct {
	repo         transaction.TransactionRepository
	employeeRepo employee.EmployeeRepository
	finalized    FinalizedChecker
}

func NewTransactionService(repo transaction.TransactionRepository, employeeRepo employee.EmployeeRepository, finalized FinalizedChecker) transaction.TransactionService {
	return &TransactionServiceImpl{
		repo:         repo,
		employeeRepo: employeeRepo,
		finalized:    finalized,
	}
}

// ========== CODES ==========

func (s *TransactionServiceImpl) CreateCode(ctx context.Context, companyID string, req transaction.CreateTransactionCodeRequest) (transaction.TransactionCodeResponse, error) {
	if err := req.Validate(); err != nil {
		return transaction.TransactionCodeResponse{}, err
	}

	isTaxable := true
	if req.IsTaxable != nil {
		isTaxable = *req.IsTaxable
	}

	created, err := s.repo.CreateCode(ctx, transaction.TransactionCode{
		CompanyID:   companyID,
		Code:        req.Code,
		Name:        req.Name,
		Type:        transaction.TransactionType(req.Type),
		Description: req.Description,
		IsTaxable:   isTaxable,
		IsActive:    true,
	})
	if err != nil {
		return transaction.TransactionCodeResponse{}, err
	}

	return mapToCodeResponse(created), nil
}

func (s *TransactionServiceImpl) ListCodes(ctx context.Context, companyID string) ([]transaction.TransactionCodeResponse, error) {
	codes, err := s.repo.ListCodes(ctx, companyID)
	if err != nil {
		return nil, err
	}

	result := make([]transaction.TransactionCodeResponse, 0, len(codes))
	for _, c := range codes {
		result = append(result, mapToCodeResponse(c))
	}
	return result, nil
}

// ========== TRANSACTIONS ==========

// Post records a ledger entry. The type always comes from the code so an
// entry cannot be filed under the wrong bucket.
func (s *TransactionServiceImpl) Post(ctx context.Context, companyID string, req transaction.PostTransactionRequest) (transaction.TransactionResponse, error) {
	if err := req.Validate(); err != nil {
		return transaction.TransactionResponse{}, err
	}
	p, err := period.Parse(req.Period)
	if err != nil {
		return transaction.TransactionResponse{}, err
	}

	if _, err := s.employeeRepo.GetByID(ctx, companyID, req.EmployeeID); err != nil {
		return transaction.TransactionResponse{}, err
	}

	code, err := s.repo.GetCode(ctx, companyID, req.Code)
	if err != nil {
		return transaction.TransactionResponse{}, err
	}
	if !code.IsActive {
		return transaction.TransactionResponse{}, transaction.ErrTransactionCodeInactive
	}

	if err := s.ensureOpen(ctx, companyID, req.EmployeeID, p); err != nil {
		return transaction.TransactionResponse{}, err
	}

	status := transaction.StatusPosted
	if req.Status != "" {
		status = transaction.TransactionStatus(req.Status)
	}

	txn := transaction.Transaction{
		CompanyID:  companyID,
		EmployeeID: req.EmployeeID,
		Period:     p,
		Type:       code.Type,
		Code:       code.Code,
		Amount:     decimal.Zero,
		Units:      req.Units,
		Rate:       req.Rate,
		Status:     status,
		Notes:      req.Notes,
	}
	switch {
	case req.Amount != nil:
		txn.Amount = *req.Amount
	case req.Units != nil && req.Rate != nil:
		txn.Amount = req.Units.Mul(*req.Rate).Round(2)
	}

	amount, err := txn.ResolvedAmount()
	if err != nil {
		return transaction.TransactionResponse{}, err
	}
	txn.Amount = amount

	created, err := s.repo.Create(ctx, txn)
	if err != nil {
		return transaction.TransactionResponse{}, err
	}

	slog.Info("Payroll transaction posted",
		"company_id", companyID,
		"employee_id", created.EmployeeID,
		"period", p.Key(),
		"code", created.Code,
		"amount", created.Amount.StringFixed(2),
	)
	return mapToTransactionResponse(created), nil
}

func (s *TransactionServiceImpl) Void(ctx context.Context, companyID string, id string) (transaction.TransactionResponse, error) {
	existing, err := s.repo.GetByID(ctx, companyID, id)
	if err != nil {
		return transaction.TransactionResponse{}, err
	}
	if existing.Status == transaction.StatusVoid {
		return transaction.TransactionResponse{}, transaction.ErrTransactionAlreadyVoid
	}
	if err := s.ensureOpen(ctx, companyID, existing.EmployeeID, existing.Period); err != nil {
		return transaction.TransactionResponse{}, err
	}

	voided, err := s.repo.Void(ctx, companyID, id)
	if err != nil {
		return transaction.TransactionResponse{}, err
	}

	slog.Info("Payroll transaction voided", "company_id", companyID, "transaction_id", id)
	return mapToTransactionResponse(voided), nil
}

func (s *TransactionServiceImpl) List(ctx context.Context, companyID string, filter transaction.TransactionFilter) ([]transaction.TransactionResponse, error) {
	txns, err := s.repo.List(ctx, companyID, filter)
	if err != nil {
		return nil, err
	}

	result := make([]transaction.TransactionResponse, 0, len(txns))
	for _, t := range txns {
		result = append(result, mapToTransactionResponse(t))
	}
	return result, nil
}

func (s *TransactionServiceImpl) ensureOpen(ctx context.Context, companyID, employeeID string, p period.Period) error {
	if s.finalized == nil {
		return nil
	}
	closed, err := s.finalized.IsFinalized(ctx, companyID, employeeID, p)
	if err != nil {
		return fmt.Errorf("failed to check payroll status: %w", err)
	}
	if closed {
		return transaction.ErrPeriodFinalized
	}
	return nil
}

// ========== HELPERS ==========

func mapToCodeResponse(c transaction.TransactionCode) transaction.TransactionCodeResponse {
	return transaction.TransactionCodeResponse{
		ID:          c.ID,
		Code:        c.Code,
		Name:        c.Name,
		Type:        string(c.Type),
		Description: c.Description,
		IsTaxable:   c.IsTaxable,
		IsActive:    c.IsActive,
	}
}

func mapToTransactionResponse(t transaction.Transaction) transaction.TransactionResponse {
	var voidedAt *string
	if t.VoidedAt != nil {
		str := t.VoidedAt.Format(time.RFC3339)
		voidedAt = &str
	}

	return transaction.TransactionResponse{
		ID:         t.ID,
		EmployeeID: t.EmployeeID,
		Period:     t.Period.Key(),
		Type:       string(t.Type),
		Code:       t.Code,
		CodeName:   t.CodeName,
		Amount:     t.Amount,
		Units:      t.Units,
		Rate:       t.Rate,
		Status:     string(t.Status),
		IsTaxable:  t.IsTaxable,
		Notes:      t.Notes,
		CreatedAt:  t.CreatedAt.Format(time.RFC3339),
		VoidedAt:   voidedAt,
	}
}
