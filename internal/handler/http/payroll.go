package http

import (
	"net/http"
	"strconv"
	"time"

	"github.com/cmlabs-hris/jamaica-payroll/internal/domain/payroll"
	"github.com/cmlabs-hris/jamaica-payroll/internal/domain/period"
	"github.com/cmlabs-hris/jamaica-payroll/internal/handler/http/middleware"
	"github.com/cmlabs-hris/jamaica-payroll/internal/handler/http/response"
	"github.com/go-chi/chi/v5"
)

type PayrollHandler interface {
	// Batch lifecycle
	Sync(w http.ResponseWriter, r *http.Request)
	Calculate(w http.ResponseWriter, r *http.Request)
	CalculateEmployee(w http.ResponseWriter, r *http.Request)
	Finalize(w http.ResponseWriter, r *http.Request)

	// Batch reads
	GetBatch(w http.ResponseWriter, r *http.Request)
	Audit(w http.ResponseWriter, r *http.Request)
	StatutoryExtract(w http.ResponseWriter, r *http.Request)
	YearToDate(w http.ResponseWriter, r *http.Request)

	// Records
	GetRecord(w http.ResponseWriter, r *http.Request)
	ListRecords(w http.ResponseWriter, r *http.Request)
	DeleteRecord(w http.ResponseWriter, r *http.Request)
}

type payrollHandlerImpl struct {
	payrollService payroll.PayrollService
}

func NewPayrollHandler(payrollService payroll.PayrollService) PayrollHandler {
	return &payrollHandlerImpl{payrollService: payrollService}
}

// getIntQueryParam gets an int query parameter with a default value
func getIntQueryParam(r *http.Request, key string, defaultVal int) int {
	val := r.URL.Query().Get(key)
	if val == "" {
		return defaultVal
	}
	intVal, err := strconv.Atoi(val)
	if err != nil {
		return defaultVal
	}
	return intVal
}

// optionalQueryParam returns nil for an absent or empty parameter.
func optionalQueryParam(r *http.Request, key string) *string {
	val := r.URL.Query().Get(key)
	if val == "" {
		return nil
	}
	return &val
}

// batchScope resolves the caller's company and the {period} path parameter.
func batchScope(r *http.Request) (string, period.Period, error) {
	companyID, err := middleware.CompanyID(r.Context())
	if err != nil {
		return "", period.Period{}, err
	}
	p, err := period.Parse(chi.URLParam(r, "period"))
	if err != nil {
		return "", period.Period{}, err
	}
	return companyID, p, nil
}

// ========== BATCH LIFECYCLE ==========

func (h *payrollHandlerImpl) Sync(w http.ResponseWriter, r *http.Request) {
	companyID, p, err := batchScope(r)
	if err != nil {
		response.HandleError(w, err)
		return
	}

	result, err := h.payrollService.Sync(r.Context(), companyID, p)
	if err != nil {
		response.HandleError(w, err)
		return
	}

	response.SuccessWithMessage(w, "Payroll batch synced", result)
}

func (h *payrollHandlerImpl) Calculate(w http.ResponseWriter, r *http.Request) {
	companyID, p, err := batchScope(r)
	if err != nil {
		response.HandleError(w, err)
		return
	}

	result, err := h.payrollService.Calculate(r.Context(), companyID, p)
	if err != nil {
		response.HandleError(w, err)
		return
	}

	response.SuccessWithMessage(w, "Payroll batch calculated", result)
}

func (h *payrollHandlerImpl) CalculateEmployee(w http.ResponseWriter, r *http.Request) {
	companyID, p, err := batchScope(r)
	if err != nil {
		response.HandleError(w, err)
		return
	}
	employeeID := chi.URLParam(r, "employeeID")

	result, err := h.payrollService.CalculateEmployee(r.Context(), companyID, employeeID, p)
	if err != nil {
		response.HandleError(w, err)
		return
	}

	response.SuccessWithMessage(w, "Employee payroll calculated", result)
}

func (h *payrollHandlerImpl) Finalize(w http.ResponseWriter, r *http.Request) {
	companyID, p, err := batchScope(r)
	if err != nil {
		response.HandleError(w, err)
		return
	}
	principal, _ := middleware.PrincipalFromContext(r.Context())

	result, err := h.payrollService.Finalize(r.Context(), companyID, p, principal.UserID)
	if err != nil {
		response.HandleError(w, err)
		return
	}

	response.SuccessWithMessage(w, "Payroll batch finalized", result)
}

// ========== BATCH READS ==========

func (h *payrollHandlerImpl) GetBatch(w http.ResponseWriter, r *http.Request) {
	companyID, p, err := batchScope(r)
	if err != nil {
		response.HandleError(w, err)
		return
	}

	result, err := h.payrollService.GetBatch(r.Context(), companyID, p)
	if err != nil {
		response.HandleError(w, err)
		return
	}

	response.Success(w, result)
}

func (h *payrollHandlerImpl) Audit(w http.ResponseWriter, r *http.Request) {
	companyID, p, err := batchScope(r)
	if err != nil {
		response.HandleError(w, err)
		return
	}

	result, err := h.payrollService.Audit(r.Context(), companyID, p)
	if err != nil {
		response.HandleError(w, err)
		return
	}

	response.Success(w, result)
}

func (h *payrollHandlerImpl) StatutoryExtract(w http.ResponseWriter, r *http.Request) {
	companyID, p, err := batchScope(r)
	if err != nil {
		response.HandleError(w, err)
		return
	}

	result, err := h.payrollService.StatutoryExtract(r.Context(), companyID, p)
	if err != nil {
		response.HandleError(w, err)
		return
	}

	response.Success(w, result)
}

func (h *payrollHandlerImpl) YearToDate(w http.ResponseWriter, r *http.Request) {
	companyID, err := middleware.CompanyID(r.Context())
	if err != nil {
		response.HandleError(w, err)
		return
	}

	through := period.Of(time.Now())
	if key := r.URL.Query().Get("through"); key != "" {
		through, err = period.Parse(key)
		if err != nil {
			response.HandleError(w, err)
			return
		}
	}

	result, err := h.payrollService.YearToDate(r.Context(), companyID, chi.URLParam(r, "employeeID"), through)
	if err != nil {
		response.HandleError(w, err)
		return
	}

	response.Success(w, result)
}

// ========== RECORDS ==========

func (h *payrollHandlerImpl) GetRecord(w http.ResponseWriter, r *http.Request) {
	companyID, err := middleware.CompanyID(r.Context())
	if err != nil {
		response.HandleError(w, err)
		return
	}

	id := chi.URLParam(r, "id")
	if id == "" {
		response.BadRequest(w, "Payroll record ID is required", nil)
		return
	}

	result, err := h.payrollService.GetRecord(r.Context(), companyID, id)
	if err != nil {
		response.HandleError(w, err)
		return
	}

	response.Success(w, result)
}

func (h *payrollHandlerImpl) ListRecords(w http.ResponseWriter, r *http.Request) {
	companyID, err := middleware.CompanyID(r.Context())
	if err != nil {
		response.HandleError(w, err)
		return
	}

	filter := payroll.PayrollFilter{
		Period:     optionalQueryParam(r, "period"),
		Status:     optionalQueryParam(r, "status"),
		EmployeeID: optionalQueryParam(r, "employee_id"),
		Page:       getIntQueryParam(r, "page", 1),
		Limit:      getIntQueryParam(r, "limit", 20),
		SortBy:     r.URL.Query().Get("sort_by"),
		SortOrder:  r.URL.Query().Get("sort_order"),
	}

	result, err := h.payrollService.ListRecords(r.Context(), companyID, filter)
	if err != nil {
		response.HandleError(w, err)
		return
	}

	totalPages := 0
	if result.Limit > 0 {
		totalPages = int((result.TotalCount + int64(result.Limit) - 1) / int64(result.Limit))
	}
	response.SuccessWithMeta(w, result.Data, &response.Meta{
		Page:       result.Page,
		Limit:      result.Limit,
		TotalItems: result.TotalCount,
		TotalPages: totalPages,
	})
}

func (h *payrollHandlerImpl) DeleteRecord(w http.ResponseWriter, r *http.Request) {
	companyID, err := middleware.CompanyID(r.Context())
	if err != nil {
		response.HandleError(w, err)
		return
	}

	id := chi.URLParam(r, "id")
	if id == "" {
		response.BadRequest(w, "Payroll record ID is required", nil)
		return
	}

	if err := h.payrollService.DeleteRecord(r.Context(), companyID, id); err != nil {
		response.HandleError(w, err)
		return
	}

	response.SuccessWithMessage(w, "Payroll record deleted", nil)
}
