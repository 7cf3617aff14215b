package transaction

import "context"

type TransactionService interface {
	CreateCode(ctx context.Context, companyID string, req CreateTransactionCodeRequest) (TransactionCodeResponse, error)
	ListCodes(ctx context.Context, companyID string) ([]TransactionCodeResponse, error)

	Post(ctx context.Context, companyID string, req PostTransactionRequest) (TransactionResponse, error)
	Void(ctx context.Context, companyID string, id string) (TransactionResponse, error)
	List(ctx context.Context, companyID string, filter TransactionFilter) ([]TransactionResponse, error)
}
