package http

import (
	"encoding/json"
	"net/http"

	"github.com/cmlabs-hris/jamaica-payroll/internal/domain/period"
	"github.com/cmlabs-hris/jamaica-payroll/internal/domain/transaction"
	"github.com/cmlabs-hris/jamaica-payroll/internal/handler/http/middleware"
	"github.com/cmlabs-hris/jamaica-payroll/internal/handler/http/response"
	"github.com/cmlabs-hris/jamaica-payroll/internal/pkg/validator"
	"github.com/go-chi/chi/v5"
)

type TransactionHandler interface {
	// Codes
	CreateCode(w http.ResponseWriter, r *http.Request)
	ListCodes(w http.ResponseWriter, r *http.Request)

	// Ledger
	Post(w http.ResponseWriter, r *http.Request)
	List(w http.ResponseWriter, r *http.Request)
	Void(w http.ResponseWriter, r *http.Request)
}

type transactionHandlerImpl struct {
	transactionService transaction.TransactionService
}

func NewTransactionHandler(transactionService transaction.TransactionService) TransactionHandler {
	return &transactionHandlerImpl{transactionService: transactionService}
}

// ========== CODES ==========

func (h *transactionHandlerImpl) CreateCode(w http.ResponseWriter, r *http.Request) {
	companyID, err := middleware.CompanyID(r.Context())
	if err != nil {
		response.HandleError(w, err)
		return
	}

	var req transaction.CreateTransactionCodeRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		response.BadRequest(w, "Invalid request body", nil)
		return
	}

	result, err := h.transactionService.CreateCode(r.Context(), companyID, req)
	if err != nil {
		response.HandleError(w, err)
		return
	}

	response.Created(w, "Transaction code created", result)
}

func (h *transactionHandlerImpl) ListCodes(w http.ResponseWriter, r *http.Request) {
	companyID, err := middleware.CompanyID(r.Context())
	if err != nil {
		response.HandleError(w, err)
		return
	}

	result, err := h.transactionService.ListCodes(r.Context(), companyID)
	if err != nil {
		response.HandleError(w, err)
		return
	}

	response.Success(w, result)
}

// ========== LEDGER ==========

func (h *transactionHandlerImpl) Post(w http.ResponseWriter, r *http.Request) {
	companyID, err := middleware.CompanyID(r.Context())
	if err != nil {
		response.HandleError(w, err)
		return
	}

	var req transaction.PostTransactionRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		response.BadRequest(w, "Invalid request body", nil)
		return
	}

	result, err := h.transactionService.Post(r.Context(), companyID, req)
	if err != nil {
		response.HandleError(w, err)
		return
	}

	response.Created(w, "Transaction posted", result)
}

func (h *transactionHandlerImpl) List(w http.ResponseWriter, r *http.Request) {
	companyID, err := middleware.CompanyID(r.Context())
	if err != nil {
		response.HandleError(w, err)
		return
	}

	var filter transaction.TransactionFilter
	var errs validator.ValidationErrors

	if employeeID := optionalQueryParam(r, "employee_id"); employeeID != nil {
		if !validator.IsValidUUID(*employeeID) {
			errs = append(errs, validator.ValidationError{Field: "employee_id", Message: "must be a valid UUID"})
		}
		filter.EmployeeID = employeeID
	}
	if key := optionalQueryParam(r, "period"); key != nil {
		p, err := period.Parse(*key)
		if err != nil {
			errs = append(errs, validator.ValidationError{Field: "period", Message: "must be a YYYY-MM period"})
		}
		filter.Period = &p
	}
	if status := optionalQueryParam(r, "status"); status != nil {
		if !validator.IsInSlice(*status, []string{string(transaction.StatusEntered), string(transaction.StatusPosted), string(transaction.StatusVoid)}) {
			errs = append(errs, validator.ValidationError{Field: "status", Message: "must be ENTERED, POSTED or VOID"})
		}
		s := transaction.TransactionStatus(*status)
		filter.Status = &s
	}
	if len(errs) > 0 {
		response.HandleError(w, errs)
		return
	}

	result, err := h.transactionService.List(r.Context(), companyID, filter)
	if err != nil {
		response.HandleError(w, err)
		return
	}

	response.Success(w, result)
}

func (h *transactionHandlerImpl) Void(w http.ResponseWriter, r *http.Request) {
	companyID, err := middleware.CompanyID(r.Context())
	if err != nil {
		response.HandleError(w, err)
		return
	}

	id := chi.URLParam(r, "id")
	if id == "" {
		response.BadRequest(w, "Transaction ID is required", nil)
		return
	}

	result, err := h.transactionService.Void(r.Context(), companyID, id)
	if err != nil {
		response.HandleError(w, err)
		return
	}

	response.SuccessWithMessage(w, "Transaction voided", result)
}
