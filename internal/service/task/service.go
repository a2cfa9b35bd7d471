package task

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/workforcehq/workforce-backend-go/internal/domain/project"
	"github.com/workforcehq/workforce-backend-go/internal/domain/task"
	"github.com/workforcehq/workforce-backend-go/internal/domain/user"
	"github.com/workforcehq/workforce-backend-go/internal/service/deadline"
)

// saveRetries bounds optimistic-save retries before surfacing the conflict.
const saveRetries = 3

type TaskServiceImpl struct {
	taskRepo    task.TaskRepository
	complRepo   task.TaskCompletionRepository
	subtaskRepo task.SubtaskRepository
	projectRepo project.ProjectRepository
	evaluator   *deadline.Evaluator
}

func NewTaskService(
	taskRepo task.TaskRepository,
	complRepo task.TaskCompletionRepository,
	subtaskRepo task.SubtaskRepository,
	projectRepo project.ProjectRepository,
	evaluator *deadline.Evaluator,
) task.TaskService {
	return &TaskServiceImpl{
		taskRepo:    taskRepo,
		complRepo:   complRepo,
		subtaskRepo: subtaskRepo,
		projectRepo: projectRepo,
		evaluator:   evaluator,
	}
}

// ========== CRUD ==========

func (s *TaskServiceImpl) Create(ctx context.Context, actor user.Actor, req task.CreateTaskRequest) (task.TaskResponse, error) {
	if err := req.Validate(); err != nil {
		return task.TaskResponse{}, err
	}

	t := task.Task{
		Title:          req.Title,
		Description:    req.Description,
		Kind:           task.TaskKind(req.Kind),
		Status:         task.StatusPending,
		AssigneeID:     req.AssigneeID,
		ProjectID:      req.ProjectID,
		CreatedBy:      actor.EmployeeID,
		AssignedDate:   parseDate(req.AssignedDate),
		AssignedTime:   req.AssignedTime,
		DueDate:        parseDate(req.DueDate),
		DueTime:        req.DueTime,
		DeadlineDate:   parseDate(req.DeadlineDate),
		DeadlineTime:   req.DeadlineTime,
		BonusPoints:    req.BonusPoints,
		PenaltyPoints:  req.PenaltyPoints,
		RecurrenceSpec: req.RecurrenceSpec,
		ApprovalStatus: task.ApprovalPending,
	}
	if req.BonusCurrency != nil {
		t.BonusCurrency = *req.BonusCurrency
	}
	if req.PenaltyCurrency != nil {
		t.PenaltyCurrency = *req.PenaltyCurrency
	}

	created, err := s.taskRepo.Create(ctx, t)
	if err != nil {
		return task.TaskResponse{}, err
	}

	return task.ToResponse(created), nil
}

func (s *TaskServiceImpl) Get(ctx context.Context, id string) (task.TaskResponse, error) {
	t, err := s.taskRepo.GetByID(ctx, id)
	if err != nil {
		return task.TaskResponse{}, err
	}
	return task.ToResponse(t), nil
}

func (s *TaskServiceImpl) List(ctx context.Context, filter task.TaskFilter) ([]task.TaskResponse, int64, error) {
	tasks, total, err := s.taskRepo.List(ctx, filter)
	if err != nil {
		return nil, 0, err
	}

	result := make([]task.TaskResponse, 0, len(tasks))
	for _, t := range tasks {
		result = append(result, task.ToResponse(t))
	}
	return result, total, nil
}

func (s *TaskServiceImpl) Update(ctx context.Context, actor user.Actor, req task.UpdateTaskRequest) (task.TaskResponse, error) {
	if err := req.Validate(); err != nil {
		return task.TaskResponse{}, err
	}

	current, err := s.taskRepo.GetByID(ctx, req.ID)
	if err != nil {
		return task.TaskResponse{}, err
	}

	if err := s.authorizeEdit(ctx, actor, current, &req); err != nil {
		return task.TaskResponse{}, err
	}

	saved, err := s.saveWithRetry(ctx, req.ID, func(t *task.Task) error {
		applyUpdate(t, req)
		return nil
	})
	if err != nil {
		return task.TaskResponse{}, err
	}

	return task.ToResponse(saved), nil
}

// authorizeEdit: admins edit everything; a lead assignee
// of the task's project edits anything except the bonus/penalty numeric
// fields; a creator or assignee edits their own task. Bonus/penalty fields
// stay admin-only regardless of any other standing.
func (s *TaskServiceImpl) authorizeEdit(ctx context.Context, actor user.Actor, t task.Task, req *task.UpdateTaskRequest) error {
	if actor.IsAdmin() {
		return nil
	}

	if req.TouchesRewardFields() {
		field := "bonus_points"
		switch {
		case req.BonusCurrency != nil:
			field = "bonus_currency"
		case req.PenaltyPoints != nil:
			field = "penalty_points"
		case req.PenaltyCurrency != nil:
			field = "penalty_currency"
		case req.BonusPoints != nil:
			field = "bonus_points"
		}
		return task.FieldAuthorizationError{Field: field}
	}

	if t.CreatedBy == actor.EmployeeID || t.AssigneeID == actor.EmployeeID {
		return nil
	}

	if t.ProjectID != nil {
		isLead, err := s.projectRepo.IsLeadAssignee(ctx, actor.EmployeeID, *t.ProjectID)
		if err != nil {
			return err
		}
		if isLead {
			return nil
		}
	}

	return task.ErrEditNotAllowed
}

// ========== STATE MACHINE ==========

func (s *TaskServiceImpl) Transition(ctx context.Context, actor user.Actor, taskID string, action task.TransitionAction, now time.Time) (task.TaskResponse, error) {
	current, err := s.taskRepo.GetByID(ctx, taskID)
	if err != nil {
		return task.TaskResponse{}, err
	}

	var saved task.Task
	switch action {
	case task.ActionTick:
		saved, err = s.tick(ctx, actor, current, now)
	case task.ActionUntick:
		saved, err = s.untick(ctx, actor, current)
	case task.ActionApprove:
		saved, err = s.approve(ctx, actor, current, now)
	case task.ActionReject:
		saved, err = s.reject(ctx, actor, current, now)
	default:
		return task.TaskResponse{}, task.ErrUnknownAction
	}
	if err != nil {
		return task.TaskResponse{}, err
	}

	return task.ToResponse(saved), nil
}

func (s *TaskServiceImpl) tick(ctx context.Context, actor user.Actor, t task.Task, now time.Time) (task.Task, error) {
	if err := s.authorizeTick(ctx, actor, t); err != nil {
		return task.Task{}, err
	}

	done, err := s.subtaskRepo.AllCompleted(ctx, t.ID)
	if err != nil {
		return task.Task{}, err
	}
	if !done {
		return task.Task{}, task.ErrSubtasksIncomplete
	}

	return s.saveWithRetry(ctx, t.ID, func(t *task.Task) error {
		t.Status = task.StatusCompleted
		t.CompletedAt = &now
		t.TickedAt = &now
		completedBy := actor.EmployeeID
		t.CompletedBy = &completedBy
		// A fresh completion reopens the approval cycle.
		t.ApprovalStatus = task.ApprovalPending
		t.ApprovedBy = nil
		t.ApprovedAt = nil
		return nil
	})
}

func (s *TaskServiceImpl) authorizeTick(ctx context.Context, actor user.Actor, t task.Task) error {
	if actor.IsAdmin() || t.AssigneeID == actor.EmployeeID || t.CreatedBy == actor.EmployeeID {
		return nil
	}
	if t.ProjectID != nil {
		isLead, err := s.projectRepo.IsLeadAssignee(ctx, actor.EmployeeID, *t.ProjectID)
		if err != nil {
			return err
		}
		if isLead {
			return nil
		}
	}
	return task.ErrEditNotAllowed
}

func (s *TaskServiceImpl) untick(ctx context.Context, actor user.Actor, t task.Task) (task.Task, error) {
	if !actor.IsAdmin() {
		return task.Task{}, user.ErrAdminPrivilegeRequired
	}

	return s.saveWithRetry(ctx, t.ID, func(t *task.Task) error {
		t.Status = task.StatusPending
		t.CompletedAt = nil
		t.CompletedBy = nil
		t.TickedAt = nil
		t.ApprovalStatus = task.ApprovalPending
		t.ApprovedBy = nil
		t.ApprovedAt = nil
		return nil
	})
}

func (s *TaskServiceImpl) approve(ctx context.Context, actor user.Actor, t task.Task, now time.Time) (task.Task, error) {
	if !actor.IsAdmin() {
		return task.Task{}, user.ErrAdminPrivilegeRequired
	}

	saved, err := s.saveWithRetry(ctx, t.ID, func(t *task.Task) error {
		if t.ApprovalStatus == task.ApprovalDeadlinePassed {
			return task.ErrApprovalAlreadyResolved
		}
		if t.ApprovalStatus != task.ApprovalPending {
			return task.ErrApprovalNotPending
		}
		t.ApprovalStatus = task.ApprovalApproved
		approver := actor.EmployeeID
		t.ApprovedBy = &approver
		t.ApprovedAt = &now
		return nil
	})
	if err != nil {
		return task.Task{}, err
	}

	outcome := DetermineOutcome(saved, s.evaluator.Evaluate(saved, now), now)
	slog.Info("Task approved",
		"task_id", saved.ID,
		"approved_by", actor.EmployeeID,
		"outcome", string(outcome.Kind),
		"points", outcome.Points,
		"currency", outcome.Currency.String())

	return saved, nil
}

func (s *TaskServiceImpl) reject(ctx context.Context, actor user.Actor, t task.Task, now time.Time) (task.Task, error) {
	if !actor.IsAdmin() {
		return task.Task{}, user.ErrAdminPrivilegeRequired
	}

	return s.saveWithRetry(ctx, t.ID, func(t *task.Task) error {
		if t.ApprovalStatus != task.ApprovalPending {
			return task.ErrApprovalNotPending
		}
		t.ApprovalStatus = task.ApprovalRejected
		approver := actor.EmployeeID
		t.ApprovedBy = &approver
		t.ApprovedAt = &now
		return nil
	})
}

// ========== DEADLINE SWEEP ==========

// SweepDeadlines auto-marks pending tasks whose effective deadline has
// strictly passed. A task completed before (or exactly at) its deadline is
// left for the normal approval path; resolved approvals are never touched.
func (s *TaskServiceImpl) SweepDeadlines(ctx context.Context, now time.Time) (int, error) {
	pending, err := s.taskRepo.ListPendingApproval(ctx)
	if err != nil {
		return 0, fmt.Errorf("failed to list pending tasks: %w", err)
	}

	marked := 0
	for _, t := range pending {
		res := s.evaluator.Evaluate(t, now)
		if !res.Past {
			continue
		}
		if t.IsCompleted() && !completedAfter(t, res) {
			continue
		}

		_, err := s.saveWithRetry(ctx, t.ID, func(t *task.Task) error {
			// Re-check after reload: a racing approve/reject wins.
			if t.ApprovalStatus != task.ApprovalPending {
				return errAlreadyResolved
			}
			t.ApprovalStatus = task.ApprovalDeadlinePassed
			if !t.IsCompleted() {
				t.Status = task.StatusOverdue
			}
			return nil
		})
		if err != nil {
			if errors.Is(err, errAlreadyResolved) {
				continue
			}
			return marked, err
		}
		marked++
	}

	return marked, nil
}

// errAlreadyResolved is an internal sentinel for sweep races; never surfaced.
var errAlreadyResolved = errors.New("approval already resolved")

func completedAfter(t task.Task, res deadline.Result) bool {
	if res.EffectiveDeadline == nil {
		return false
	}
	instant := t.TickedAt
	if instant == nil {
		instant = t.CompletedAt
	}
	if instant == nil {
		return false
	}
	return instant.After(*res.EffectiveDeadline)
}

func (s *TaskServiceImpl) ListCompletions(ctx context.Context, taskID string) ([]task.TaskCompletion, error) {
	if _, err := s.taskRepo.GetByID(ctx, taskID); err != nil {
		return nil, err
	}
	return s.complRepo.ListByTask(ctx, taskID)
}

func (s *TaskServiceImpl) ListSubtasks(ctx context.Context, taskID string) ([]task.Subtask, error) {
	if _, err := s.taskRepo.GetByID(ctx, taskID); err != nil {
		return nil, err
	}
	return s.subtaskRepo.ListByTask(ctx, taskID)
}

// ========== HELPERS ==========

// saveWithRetry loads, mutates and saves a task under optimistic versioning.
// On a version conflict the task is reloaded and the intent reapplied, a
// bounded number of times; exhaustion surfaces ErrVersionConflict.
func (s *TaskServiceImpl) saveWithRetry(ctx context.Context, taskID string, mutate func(*task.Task) error) (task.Task, error) {
	var lastErr error
	for attempt := 0; attempt < saveRetries; attempt++ {
		t, err := s.taskRepo.GetByID(ctx, taskID)
		if err != nil {
			return task.Task{}, err
		}

		if err := mutate(&t); err != nil {
			return task.Task{}, err
		}

		saved, err := s.taskRepo.UpdateVersioned(ctx, t)
		if err == nil {
			return saved, nil
		}
		if !errors.Is(err, task.ErrVersionConflict) {
			return task.Task{}, err
		}
		lastErr = err
	}
	return task.Task{}, lastErr
}

func applyUpdate(t *task.Task, req task.UpdateTaskRequest) {
	if req.Title != nil {
		t.Title = *req.Title
	}
	if req.Description != nil {
		t.Description = req.Description
	}
	if req.AssigneeID != nil {
		t.AssigneeID = *req.AssigneeID
	}
	if req.AssignedDate != nil {
		t.AssignedDate = parseDate(req.AssignedDate)
	}
	if req.AssignedTime != nil {
		t.AssignedTime = req.AssignedTime
	}
	if req.DueDate != nil {
		t.DueDate = parseDate(req.DueDate)
	}
	if req.DueTime != nil {
		t.DueTime = req.DueTime
	}
	if req.DeadlineDate != nil {
		t.DeadlineDate = parseDate(req.DeadlineDate)
	}
	if req.DeadlineTime != nil {
		t.DeadlineTime = req.DeadlineTime
	}
	if req.BonusPoints != nil {
		t.BonusPoints = *req.BonusPoints
	}
	if req.BonusCurrency != nil {
		t.BonusCurrency = *req.BonusCurrency
	}
	if req.PenaltyPoints != nil {
		t.PenaltyPoints = *req.PenaltyPoints
	}
	if req.PenaltyCurrency != nil {
		t.PenaltyCurrency = *req.PenaltyCurrency
	}
	if req.Status != nil {
		t.Status = task.TaskStatus(*req.Status)
	}
}

func parseDate(s *string) *time.Time {
	if s == nil {
		return nil
	}
	parsed, err := time.Parse("2006-01-02", *s)
	if err != nil {
		return nil
	}
	return &parsed
}
