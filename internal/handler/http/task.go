package http

import (
	"encoding/json"
	"net/http"
	"strconv"
	"time"

	"github.com/go-chi/chi/v5"

	"github.com/workforcehq/workforce-backend-go/internal/domain/task"
	"github.com/workforcehq/workforce-backend-go/internal/handler/http/middleware"
	"github.com/workforcehq/workforce-backend-go/internal/handler/http/response"
)

type TaskHandler interface {
	Create(w http.ResponseWriter, r *http.Request)
	Get(w http.ResponseWriter, r *http.Request)
	List(w http.ResponseWriter, r *http.Request)
	Update(w http.ResponseWriter, r *http.Request)
	Transition(w http.ResponseWriter, r *http.Request)
	ListCompletions(w http.ResponseWriter, r *http.Request)
	ListSubtasks(w http.ResponseWriter, r *http.Request)
	SweepDeadlines(w http.ResponseWriter, r *http.Request)
	RunArchive(w http.ResponseWriter, r *http.Request)
}

type taskHandlerImpl struct {
	taskService task.TaskService
}

func NewTaskHandler(taskService task.TaskService) TaskHandler {
	return &taskHandlerImpl{taskService: taskService}
}

// Create implements TaskHandler.
func (h *taskHandlerImpl) Create(w http.ResponseWriter, r *http.Request) {
	actor, err := middleware.ActorFromRequest(r)
	if err != nil {
		response.HandleError(w, err)
		return
	}

	var req task.CreateTaskRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		response.BadRequest(w, "Invalid request format", nil)
		return
	}

	result, err := h.taskService.Create(r.Context(), actor, req)
	if err != nil {
		response.HandleError(w, err)
		return
	}

	response.Created(w, "Task created", result)
}

// Get implements TaskHandler.
func (h *taskHandlerImpl) Get(w http.ResponseWriter, r *http.Request) {
	result, err := h.taskService.Get(r.Context(), chi.URLParam(r, "id"))
	if err != nil {
		response.HandleError(w, err)
		return
	}

	response.Success(w, result)
}

// List implements TaskHandler.
func (h *taskHandlerImpl) List(w http.ResponseWriter, r *http.Request) {
	filter := task.TaskFilter{
		Page:  queryInt(r, "page", 1),
		Limit: queryInt(r, "limit", 20),
	}
	if v := r.URL.Query().Get("assignee_id"); v != "" {
		filter.AssigneeID = &v
	}
	if v := r.URL.Query().Get("project_id"); v != "" {
		filter.ProjectID = &v
	}
	if v := r.URL.Query().Get("kind"); v != "" {
		kind := task.TaskKind(v)
		filter.Kind = &kind
	}
	if v := r.URL.Query().Get("status"); v != "" {
		status := task.TaskStatus(v)
		filter.Status = &status
	}

	results, total, err := h.taskService.List(r.Context(), filter)
	if err != nil {
		response.HandleError(w, err)
		return
	}

	response.SuccessWithMeta(w, results, response.NewPageMeta(filter.Page, filter.Limit, total))
}

// Update implements TaskHandler.
func (h *taskHandlerImpl) Update(w http.ResponseWriter, r *http.Request) {
	actor, err := middleware.ActorFromRequest(r)
	if err != nil {
		response.HandleError(w, err)
		return
	}

	var req task.UpdateTaskRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		response.BadRequest(w, "Invalid request format", nil)
		return
	}
	req.ID = chi.URLParam(r, "id")

	result, err := h.taskService.Update(r.Context(), actor, req)
	if err != nil {
		response.HandleError(w, err)
		return
	}

	response.Success(w, result)
}

// Transition implements TaskHandler.
func (h *taskHandlerImpl) Transition(w http.ResponseWriter, r *http.Request) {
	actor, err := middleware.ActorFromRequest(r)
	if err != nil {
		response.HandleError(w, err)
		return
	}

	var req task.TransitionTaskRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		response.BadRequest(w, "Invalid request format", nil)
		return
	}
	if err := req.Validate(); err != nil {
		response.HandleError(w, err)
		return
	}

	result, err := h.taskService.Transition(
		r.Context(), actor, chi.URLParam(r, "id"), task.TransitionAction(req.Action), time.Now(),
	)
	if err != nil {
		response.HandleError(w, err)
		return
	}

	response.Success(w, result)
}

// ListCompletions implements TaskHandler.
func (h *taskHandlerImpl) ListCompletions(w http.ResponseWriter, r *http.Request) {
	results, err := h.taskService.ListCompletions(r.Context(), chi.URLParam(r, "id"))
	if err != nil {
		response.HandleError(w, err)
		return
	}

	response.Success(w, results)
}

// ListSubtasks implements TaskHandler.
func (h *taskHandlerImpl) ListSubtasks(w http.ResponseWriter, r *http.Request) {
	results, err := h.taskService.ListSubtasks(r.Context(), chi.URLParam(r, "id"))
	if err != nil {
		response.HandleError(w, err)
		return
	}

	response.Success(w, results)
}

// SweepDeadlines implements TaskHandler. Manual admin trigger for the same
// pass the scheduler runs.
func (h *taskHandlerImpl) SweepDeadlines(w http.ResponseWriter, r *http.Request) {
	swept, err := h.taskService.SweepDeadlines(r.Context(), time.Now())
	if err != nil {
		response.HandleError(w, err)
		return
	}

	response.SuccessWithMessage(w, "Deadline sweep finished", map[string]int{"swept": swept})
}

// RunArchive implements TaskHandler. Manual admin trigger for one archive
// kind.
func (h *taskHandlerImpl) RunArchive(w http.ResponseWriter, r *http.Request) {
	kind := task.TaskKind(r.URL.Query().Get("kind"))
	switch kind {
	case task.KindDaily, task.KindWeekly, task.KindMonthly, task.KindCustom:
	default:
		response.BadRequest(w, "Query parameter 'kind' must be daily, weekly, monthly or custom", nil)
		return
	}

	archived, err := h.taskService.ArchiveClosedCycles(r.Context(), kind, time.Now())
	if err != nil {
		response.HandleError(w, err)
		return
	}

	response.SuccessWithMessage(w, "Archive pass finished", map[string]int{"archived": archived})
}

func queryInt(r *http.Request, key string, fallback int) int {
	v := r.URL.Query().Get(key)
	if v == "" {
		return fallback
	}
	n, err := strconv.Atoi(v)
	if err != nil || n <= 0 {
		return fallback
	}
	return n
}
