package task

import (
	"time"

	"github.com/robfig/cron/v3"
	"github.com/shopspring/decimal"

	"github.com/workforcehq/workforce-backend-go/internal/pkg/validator"
)

var validKinds = []string{
	string(KindOneTime), string(KindDaily), string(KindWeekly),
	string(KindMonthly), string(KindCustom),
}

type CreateTaskRequest struct {
	Title       string  `json:"title"`
	Description *string `json:"description,omitempty"`
	Kind        string  `json:"kind"`
	AssigneeID  string  `json:"assignee_id"`
	ProjectID   *string `json:"project_id,omitempty"`

	AssignedDate *string `json:"assigned_date,omitempty"`
	AssignedTime *string `json:"assigned_time,omitempty"`
	DueDate      *string `json:"due_date,omitempty"`
	DueTime      *string `json:"due_time,omitempty"`
	DeadlineDate *string `json:"deadline_date,omitempty"`
	DeadlineTime *string `json:"deadline_time,omitempty"`

	BonusPoints     int              `json:"bonus_points"`
	BonusCurrency   *decimal.Decimal `json:"bonus_currency,omitempty"`
	PenaltyPoints   int              `json:"penalty_points"`
	PenaltyCurrency *decimal.Decimal `json:"penalty_currency,omitempty"`

	RecurrenceSpec *string `json:"recurrence_spec,omitempty"`
}

func (r *CreateTaskRequest) Validate() error {
	var errs validator.ValidationErrors

	if validator.IsEmpty(r.Title) {
		errs = append(errs, validator.ValidationError{Field: "title", Message: "is required"})
	}
	if validator.IsEmpty(r.AssigneeID) {
		errs = append(errs, validator.ValidationError{Field: "assignee_id", Message: "is required"})
	}
	if !validator.IsInSlice(r.Kind, validKinds) {
		errs = append(errs, validator.ValidationError{Field: "kind", Message: "must be one of one_time, daily, weekly, monthly, custom"})
	}
	if r.Kind == string(KindCustom) {
		if r.RecurrenceSpec == nil || validator.IsEmpty(*r.RecurrenceSpec) {
			errs = append(errs, validator.ValidationError{Field: "recurrence_spec", Message: "is required for custom tasks"})
		} else if _, err := cron.ParseStandard(*r.RecurrenceSpec); err != nil {
			errs = append(errs, validator.ValidationError{Field: "recurrence_spec", Message: "must be a valid cron expression"})
		}
	}

	errs = append(errs, validateDateField("assigned_date", r.AssignedDate)...)
	errs = append(errs, validateDateField("due_date", r.DueDate)...)
	errs = append(errs, validateDateField("deadline_date", r.DeadlineDate)...)
	errs = append(errs, validateTimeField("assigned_time", r.AssignedTime)...)
	errs = append(errs, validateTimeField("due_time", r.DueTime)...)
	errs = append(errs, validateTimeField("deadline_time", r.DeadlineTime)...)

	if r.BonusPoints < 0 {
		errs = append(errs, validator.ValidationError{Field: "bonus_points", Message: "must be non-negative"})
	}
	if r.PenaltyPoints < 0 {
		errs = append(errs, validator.ValidationError{Field: "penalty_points", Message: "must be non-negative"})
	}
	if r.BonusCurrency != nil && r.BonusCurrency.IsNegative() {
		errs = append(errs, validator.ValidationError{Field: "bonus_currency", Message: "must be non-negative"})
	}
	if r.PenaltyCurrency != nil && r.PenaltyCurrency.IsNegative() {
		errs = append(errs, validator.ValidationError{Field: "penalty_currency", Message: "must be non-negative"})
	}

	if len(errs) > 0 {
		return errs
	}
	return nil
}

// UpdateTaskRequest carries intent: only non-nil fields are applied. The
// bonus/penalty fields are subject to the field-level authorization check.
type UpdateTaskRequest struct {
	ID          string  `json:"-"`
	Title       *string `json:"title,omitempty"`
	Description *string `json:"description,omitempty"`
	AssigneeID  *string `json:"assignee_id,omitempty"`

	AssignedDate *string `json:"assigned_date,omitempty"`
	AssignedTime *string `json:"assigned_time,omitempty"`
	DueDate      *string `json:"due_date,omitempty"`
	DueTime      *string `json:"due_time,omitempty"`
	DeadlineDate *string `json:"deadline_date,omitempty"`
	DeadlineTime *string `json:"deadline_time,omitempty"`

	BonusPoints     *int             `json:"bonus_points,omitempty"`
	BonusCurrency   *decimal.Decimal `json:"bonus_currency,omitempty"`
	PenaltyPoints   *int             `json:"penalty_points,omitempty"`
	PenaltyCurrency *decimal.Decimal `json:"penalty_currency,omitempty"`

	Status *string `json:"status,omitempty"`
}

// TouchesRewardFields reports whether the update edits any bonus/penalty
// numeric field, which only admins may do.
func (r *UpdateTaskRequest) TouchesRewardFields() bool {
	return r.BonusPoints != nil || r.BonusCurrency != nil ||
		r.PenaltyPoints != nil || r.PenaltyCurrency != nil
}

func (r *UpdateTaskRequest) Validate() error {
	var errs validator.ValidationErrors

	if validator.IsEmpty(r.ID) {
		errs = append(errs, validator.ValidationError{Field: "id", Message: "is required"})
	}
	if r.Title != nil && validator.IsEmpty(*r.Title) {
		errs = append(errs, validator.ValidationError{Field: "title", Message: "must not be empty"})
	}
	if r.Status != nil {
		valid := []string{
			string(StatusPending), string(StatusInProgress), string(StatusCompleted),
			string(StatusOverdue), string(StatusCancelled),
		}
		if !validator.IsInSlice(*r.Status, valid) {
			errs = append(errs, validator.ValidationError{Field: "status", Message: "is not a valid status"})
		}
	}

	errs = append(errs, validateDateField("assigned_date", r.AssignedDate)...)
	errs = append(errs, validateDateField("due_date", r.DueDate)...)
	errs = append(errs, validateDateField("deadline_date", r.DeadlineDate)...)
	errs = append(errs, validateTimeField("assigned_time", r.AssignedTime)...)
	errs = append(errs, validateTimeField("due_time", r.DueTime)...)
	errs = append(errs, validateTimeField("deadline_time", r.DeadlineTime)...)

	if r.BonusPoints != nil && *r.BonusPoints < 0 {
		errs = append(errs, validator.ValidationError{Field: "bonus_points", Message: "must be non-negative"})
	}
	if r.PenaltyPoints != nil && *r.PenaltyPoints < 0 {
		errs = append(errs, validator.ValidationError{Field: "penalty_points", Message: "must be non-negative"})
	}
	if r.BonusCurrency != nil && r.BonusCurrency.IsNegative() {
		errs = append(errs, validator.ValidationError{Field: "bonus_currency", Message: "must be non-negative"})
	}
	if r.PenaltyCurrency != nil && r.PenaltyCurrency.IsNegative() {
		errs = append(errs, validator.ValidationError{Field: "penalty_currency", Message: "must be non-negative"})
	}

	if len(errs) > 0 {
		return errs
	}
	return nil
}

type TransitionTaskRequest struct {
	Action string `json:"action"`
}

func (r *TransitionTaskRequest) Validate() error {
	valid := []string{
		string(ActionTick), string(ActionUntick),
		string(ActionApprove), string(ActionReject),
	}
	if !validator.IsInSlice(r.Action, valid) {
		return validator.ValidationErrors{
			{Field: "action", Message: "must be one of tick, untick, approve, reject"},
		}
	}
	return nil
}

type TaskResponse struct {
	ID          string  `json:"id"`
	Title       string  `json:"title"`
	Description *string `json:"description,omitempty"`
	Kind        string  `json:"kind"`
	Status      string  `json:"status"`
	AssigneeID  string  `json:"assignee_id"`
	ProjectID   *string `json:"project_id,omitempty"`

	AssignedDate *string `json:"assigned_date,omitempty"`
	AssignedTime *string `json:"assigned_time,omitempty"`
	DueDate      *string `json:"due_date,omitempty"`
	DueTime      *string `json:"due_time,omitempty"`
	DeadlineDate *string `json:"deadline_date,omitempty"`
	DeadlineTime *string `json:"deadline_time,omitempty"`

	BonusPoints     int             `json:"bonus_points"`
	BonusCurrency   decimal.Decimal `json:"bonus_currency"`
	PenaltyPoints   int             `json:"penalty_points"`
	PenaltyCurrency decimal.Decimal `json:"penalty_currency"`

	ApprovalStatus string  `json:"approval_status"`
	CompletedAt    *string `json:"completed_at,omitempty"`
	CompletedBy    *string `json:"completed_by,omitempty"`
	TickedAt       *string `json:"ticked_at,omitempty"`
	ApprovedBy     *string `json:"approved_by,omitempty"`
	ApprovedAt     *string `json:"approved_at,omitempty"`

	Version int `json:"version"`
}

func ToResponse(t Task) TaskResponse {
	return TaskResponse{
		ID:              t.ID,
		Title:           t.Title,
		Description:     t.Description,
		Kind:            string(t.Kind),
		Status:          string(t.Status),
		AssigneeID:      t.AssigneeID,
		ProjectID:       t.ProjectID,
		AssignedDate:    formatDate(t.AssignedDate),
		AssignedTime:    t.AssignedTime,
		DueDate:         formatDate(t.DueDate),
		DueTime:         t.DueTime,
		DeadlineDate:    formatDate(t.DeadlineDate),
		DeadlineTime:    t.DeadlineTime,
		BonusPoints:     t.BonusPoints,
		BonusCurrency:   t.BonusCurrency,
		PenaltyPoints:   t.PenaltyPoints,
		PenaltyCurrency: t.PenaltyCurrency,
		ApprovalStatus:  string(t.ApprovalStatus),
		CompletedAt:     formatDateTime(t.CompletedAt),
		CompletedBy:     t.CompletedBy,
		TickedAt:        formatDateTime(t.TickedAt),
		ApprovedBy:      t.ApprovedBy,
		ApprovedAt:      formatDateTime(t.ApprovedAt),
		Version:         t.Version,
	}
}

func validateDateField(field string, value *string) validator.ValidationErrors {
	if value == nil {
		return nil
	}
	if _, ok := validator.IsValidDate(*value); !ok {
		return validator.ValidationErrors{{Field: field, Message: "must be a YYYY-MM-DD date"}}
	}
	return nil
}

func validateTimeField(field string, value *string) validator.ValidationErrors {
	if value == nil {
		return nil
	}
	if _, ok := validator.IsValidTimeOfDay(*value); !ok {
		return validator.ValidationErrors{{Field: field, Message: "must be a HH:MM time"}}
	}
	return nil
}

func formatDate(t *time.Time) *string {
	if t == nil {
		return nil
	}
	s := t.Format("2006-01-02")
	return &s
}

func formatDateTime(t *time.Time) *string {
	if t == nil {
		return nil
	}
	s := t.Format(time.RFC3339)
	return &s
}
