package http

import (
	"encoding/json"
	"net/http"

	"github.com/cmlabs-hris/jamaica-payroll/internal/domain/period"
	"github.com/cmlabs-hris/jamaica-payroll/internal/domain/statutory"
	"github.com/cmlabs-hris/jamaica-payroll/internal/handler/http/response"
	"github.com/go-chi/chi/v5"
)

type StatutoryHandler interface {
	ListRateSets(w http.ResponseWriter, r *http.Request)
	GetRateSet(w http.ResponseWriter, r *http.Request)
	Publish(w http.ResponseWriter, r *http.Request)
}

type statutoryHandlerImpl struct {
	statutoryService statutory.StatutoryService
}

func NewStatutoryHandler(statutoryService statutory.StatutoryService) StatutoryHandler {
	return &statutoryHandlerImpl{statutoryService: statutoryService}
}

func (h *statutoryHandlerImpl) ListRateSets(w http.ResponseWriter, r *http.Request) {
	result, err := h.statutoryService.ListRateSets(r.Context())
	if err != nil {
		response.HandleError(w, err)
		return
	}

	response.Success(w, result)
}

// GetRateSet returns the rate set in force for {period}.
func (h *statutoryHandlerImpl) GetRateSet(w http.ResponseWriter, r *http.Request) {
	p, err := period.Parse(chi.URLParam(r, "period"))
	if err != nil {
		response.HandleError(w, err)
		return
	}

	result, err := h.statutoryService.GetRateSet(r.Context(), p)
	if err != nil {
		response.HandleError(w, err)
		return
	}

	response.Success(w, result)
}

func (h *statutoryHandlerImpl) Publish(w http.ResponseWriter, r *http.Request) {
	var req statutory.PublishRateSetRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		response.BadRequest(w, "Invalid request body", nil)
		return
	}

	result, err := h.statutoryService.Publish(r.Context(), req)
	if err != nil {
		response.HandleError(w, err)
		return
	}

	response.Created(w, "Statutory rate set published", result)
}
