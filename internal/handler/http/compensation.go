package http

import (
	"encoding/json"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"

	"github.com/workforcehq/workforce-backend-go/internal/domain/compensation"
	"github.com/workforcehq/workforce-backend-go/internal/handler/http/response"
	"github.com/workforcehq/workforce-backend-go/internal/pkg/validator"
)

type CompensationHandler interface {
	Compute(w http.ResponseWriter, r *http.Request)
	ComputeAll(w http.ResponseWriter, r *http.Request)
	SetOverrides(w http.ResponseWriter, r *http.Request)
	ApproveNoPayment(w http.ResponseWriter, r *http.Request)
	AddLedgerEntry(w http.ResponseWriter, r *http.Request)
	ListLedger(w http.ResponseWriter, r *http.Request)
}

type compensationHandlerImpl struct {
	compensationService compensation.CompensationService
}

func NewCompensationHandler(compensationService compensation.CompensationService) CompensationHandler {
	return &compensationHandlerImpl{compensationService: compensationService}
}

// Compute implements CompensationHandler.
func (h *compensationHandlerImpl) Compute(w http.ResponseWriter, r *http.Request) {
	req := compensation.ComputeRequest{
		EmployeeID: chi.URLParam(r, "employeeID"),
		Period:     r.URL.Query().Get("period"),
	}
	if req.Period == "" {
		req.Period = string(compensation.PeriodMonthly)
	}

	result, err := h.compensationService.Compute(r.Context(), req, time.Now())
	if err != nil {
		response.HandleError(w, err)
		return
	}

	response.Success(w, result)
}

// ComputeAll implements CompensationHandler.
func (h *compensationHandlerImpl) ComputeAll(w http.ResponseWriter, r *http.Request) {
	period := compensation.Period(r.URL.Query().Get("period"))
	if period == "" {
		period = compensation.PeriodMonthly
	}
	if period != compensation.PeriodMonthly && period != compensation.PeriodWeekly {
		response.HandleError(w, compensation.ErrInvalidPeriod)
		return
	}

	results, err := h.compensationService.ComputeAll(r.Context(), period, time.Now())
	if err != nil {
		response.HandleError(w, err)
		return
	}

	response.Success(w, results)
}

// SetOverrides implements CompensationHandler.
func (h *compensationHandlerImpl) SetOverrides(w http.ResponseWriter, r *http.Request) {
	var req compensation.SetOverridesRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		response.BadRequest(w, "Invalid request format", nil)
		return
	}
	req.EmployeeID = chi.URLParam(r, "employeeID")

	result, err := h.compensationService.SetOverrides(r.Context(), req, time.Now())
	if err != nil {
		response.HandleError(w, err)
		return
	}

	response.Success(w, result)
}

// ApproveNoPayment implements CompensationHandler.
func (h *compensationHandlerImpl) ApproveNoPayment(w http.ResponseWriter, r *http.Request) {
	var req struct {
		Period   string `json:"period"`
		Approved bool   `json:"approved"`
	}
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		response.BadRequest(w, "Invalid request format", nil)
		return
	}

	err := h.compensationService.SetNoPaymentApproved(
		r.Context(), chi.URLParam(r, "employeeID"), compensation.Period(req.Period), req.Approved, time.Now(),
	)
	if err != nil {
		response.HandleError(w, err)
		return
	}

	response.SuccessWithMessage(w, "No-payment approval updated", nil)
}

// AddLedgerEntry implements CompensationHandler.
func (h *compensationHandlerImpl) AddLedgerEntry(w http.ResponseWriter, r *http.Request) {
	var req compensation.CreateLedgerEntryRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		response.BadRequest(w, "Invalid request format", nil)
		return
	}
	req.EmployeeID = chi.URLParam(r, "employeeID")

	result, err := h.compensationService.AddLedgerEntry(r.Context(), req)
	if err != nil {
		response.HandleError(w, err)
		return
	}

	response.Created(w, "Ledger entry added", result)
}

// ListLedger implements CompensationHandler. Defaults to the current month
// when no window is given.
func (h *compensationHandlerImpl) ListLedger(w http.ResponseWriter, r *http.Request) {
	now := time.Now()
	from := time.Date(now.Year(), now.Month(), 1, 0, 0, 0, 0, now.Location())
	to := now

	if v := r.URL.Query().Get("from"); v != "" {
		parsed, ok := validator.IsValidDate(v)
		if !ok {
			response.BadRequest(w, "Query parameter 'from' must be a YYYY-MM-DD date", nil)
			return
		}
		from = parsed
	}
	if v := r.URL.Query().Get("to"); v != "" {
		parsed, ok := validator.IsValidDate(v)
		if !ok {
			response.BadRequest(w, "Query parameter 'to' must be a YYYY-MM-DD date", nil)
			return
		}
		to = parsed
	}

	results, err := h.compensationService.ListLedger(r.Context(), chi.URLParam(r, "employeeID"), from, to)
	if err != nil {
		response.HandleError(w, err)
		return
	}

	response.Success(w, results)
}
