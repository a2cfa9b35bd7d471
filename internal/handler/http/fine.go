package http

import (
	"encoding/json"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"

	"github.com/workforcehq/workforce-backend-go/internal/domain/fine"
	"github.com/workforcehq/workforce-backend-go/internal/handler/http/response"
)

type FineHandler interface {
	Create(w http.ResponseWriter, r *http.Request)
	Get(w http.ResponseWriter, r *http.Request)
	List(w http.ResponseWriter, r *http.Request)
	Update(w http.ResponseWriter, r *http.Request)
	Deactivate(w http.ResponseWriter, r *http.Request)
	ListRecords(w http.ResponseWriter, r *http.Request)
	DeleteRecord(w http.ResponseWriter, r *http.Request)
	Apply(w http.ResponseWriter, r *http.Request)
}

type fineHandlerImpl struct {
	fineService fine.FineService
}

func NewFineHandler(fineService fine.FineService) FineHandler {
	return &fineHandlerImpl{fineService: fineService}
}

// Create implements FineHandler.
func (h *fineHandlerImpl) Create(w http.ResponseWriter, r *http.Request) {
	var req fine.CreateCustomFineRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		response.BadRequest(w, "Invalid request format", nil)
		return
	}

	result, err := h.fineService.CreateFine(r.Context(), req)
	if err != nil {
		response.HandleError(w, err)
		return
	}

	response.Created(w, "Custom fine created", result)
}

// Get implements FineHandler.
func (h *fineHandlerImpl) Get(w http.ResponseWriter, r *http.Request) {
	result, err := h.fineService.GetFine(r.Context(), chi.URLParam(r, "id"))
	if err != nil {
		response.HandleError(w, err)
		return
	}

	response.Success(w, result)
}

// List implements FineHandler.
func (h *fineHandlerImpl) List(w http.ResponseWriter, r *http.Request) {
	activeOnly := r.URL.Query().Get("active") == "true"

	results, err := h.fineService.ListFines(r.Context(), activeOnly)
	if err != nil {
		response.HandleError(w, err)
		return
	}

	response.Success(w, results)
}

// Update implements FineHandler.
func (h *fineHandlerImpl) Update(w http.ResponseWriter, r *http.Request) {
	var req fine.UpdateCustomFineRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		response.BadRequest(w, "Invalid request format", nil)
		return
	}
	req.ID = chi.URLParam(r, "id")

	result, err := h.fineService.UpdateFine(r.Context(), req)
	if err != nil {
		response.HandleError(w, err)
		return
	}

	response.Success(w, result)
}

// Deactivate implements FineHandler.
func (h *fineHandlerImpl) Deactivate(w http.ResponseWriter, r *http.Request) {
	if err := h.fineService.DeactivateFine(r.Context(), chi.URLParam(r, "id")); err != nil {
		response.HandleError(w, err)
		return
	}

	response.SuccessWithMessage(w, "Custom fine deactivated", nil)
}

// ListRecords implements FineHandler.
func (h *fineHandlerImpl) ListRecords(w http.ResponseWriter, r *http.Request) {
	results, err := h.fineService.ListRecords(r.Context(), chi.URLParam(r, "id"))
	if err != nil {
		response.HandleError(w, err)
		return
	}

	response.Success(w, results)
}

// DeleteRecord implements FineHandler.
func (h *fineHandlerImpl) DeleteRecord(w http.ResponseWriter, r *http.Request) {
	if err := h.fineService.DeleteRecord(r.Context(), chi.URLParam(r, "recordID")); err != nil {
		response.HandleError(w, err)
		return
	}

	response.SuccessWithMessage(w, "Fine record deleted", nil)
}

// Apply implements FineHandler. Manual admin trigger for the same pass the
// scheduler runs.
func (h *fineHandlerImpl) Apply(w http.ResponseWriter, r *http.Request) {
	report, err := h.fineService.ApplyCustomFines(r.Context(), time.Now())
	if err != nil {
		response.HandleError(w, err)
		return
	}

	response.SuccessWithMessage(w, "Fine scheduler pass finished", report)
}
