package fine

import (
	"time"

	"github.com/shopspring/decimal"

	"github.com/workforcehq/workforce-backend-go/internal/pkg/validator"
)

type CreateCustomFineRequest struct {
	Name        string           `json:"name"`
	Criteria    string           `json:"criteria"`
	FineType    string           `json:"fine_type"`
	Points      int              `json:"points"`
	Currency    *decimal.Decimal `json:"currency,omitempty"`
	TriggerTime *string          `json:"trigger_time,omitempty"`
	EmployeeIDs []string         `json:"employee_ids,omitempty"`
	ProjectIDs  []string         `json:"project_ids,omitempty"`
}

func (r *CreateCustomFineRequest) Validate() error {
	var errs validator.ValidationErrors

	if validator.IsEmpty(r.Name) {
		errs = append(errs, validator.ValidationError{Field: "name", Message: "is required"})
	}
	if r.Criteria != string(CriteriaDefault) && r.Criteria != string(CriteriaLeadNoTask) {
		errs = append(errs, validator.ValidationError{Field: "criteria", Message: "must be 'default_fine' or 'lead_assignee_no_task_created'"})
	}
	if r.FineType != string(TypeOneTime) && r.FineType != string(TypeDaily) {
		errs = append(errs, validator.ValidationError{Field: "fine_type", Message: "must be 'one_time' or 'daily'"})
	}
	if r.Points < 0 {
		errs = append(errs, validator.ValidationError{Field: "points", Message: "must be non-negative"})
	}
	if r.Currency != nil && r.Currency.IsNegative() {
		errs = append(errs, validator.ValidationError{Field: "currency", Message: "must be non-negative"})
	}
	if r.Criteria == string(CriteriaLeadNoTask) {
		if r.TriggerTime == nil {
			errs = append(errs, validator.ValidationError{Field: "trigger_time", Message: "is required for lead_assignee_no_task_created"})
		} else if _, ok := validator.IsValidTimeOfDay(*r.TriggerTime); !ok {
			errs = append(errs, validator.ValidationError{Field: "trigger_time", Message: "must be a HH:MM time"})
		}
	}

	if len(errs) > 0 {
		return errs
	}
	return nil
}

type UpdateCustomFineRequest struct {
	ID          string           `json:"-"`
	Name        *string          `json:"name,omitempty"`
	Points      *int             `json:"points,omitempty"`
	Currency    *decimal.Decimal `json:"currency,omitempty"`
	TriggerTime *string          `json:"trigger_time,omitempty"`
	EmployeeIDs []string         `json:"employee_ids,omitempty"`
	ProjectIDs  []string         `json:"project_ids,omitempty"`
	IsActive    *bool            `json:"is_active,omitempty"`
}

func (r *UpdateCustomFineRequest) Validate() error {
	var errs validator.ValidationErrors

	if validator.IsEmpty(r.ID) {
		errs = append(errs, validator.ValidationError{Field: "id", Message: "is required"})
	}
	if r.Name != nil && validator.IsEmpty(*r.Name) {
		errs = append(errs, validator.ValidationError{Field: "name", Message: "must not be empty"})
	}
	if r.Points != nil && *r.Points < 0 {
		errs = append(errs, validator.ValidationError{Field: "points", Message: "must be non-negative"})
	}
	if r.Currency != nil && r.Currency.IsNegative() {
		errs = append(errs, validator.ValidationError{Field: "currency", Message: "must be non-negative"})
	}
	if r.TriggerTime != nil {
		if _, ok := validator.IsValidTimeOfDay(*r.TriggerTime); !ok {
			errs = append(errs, validator.ValidationError{Field: "trigger_time", Message: "must be a HH:MM time"})
		}
	}

	if len(errs) > 0 {
		return errs
	}
	return nil
}

type CustomFineResponse struct {
	ID          string          `json:"id"`
	Name        string          `json:"name"`
	Criteria    string          `json:"criteria"`
	FineType    string          `json:"fine_type"`
	Points      int             `json:"points"`
	Currency    decimal.Decimal `json:"currency"`
	TriggerTime *string         `json:"trigger_time,omitempty"`
	EmployeeIDs []string        `json:"employee_ids,omitempty"`
	ProjectIDs  []string        `json:"project_ids,omitempty"`
	IsActive    bool            `json:"is_active"`
}

type CustomFineRecordResponse struct {
	ID              string          `json:"id"`
	FineID          string          `json:"fine_id"`
	EmployeeID      string          `json:"employee_id"`
	ProjectID       *string         `json:"project_id,omitempty"`
	Date            string          `json:"date"`
	Points          int             `json:"points"`
	Currency        decimal.Decimal `json:"currency"`
	ManuallyDeleted bool            `json:"manually_deleted"`
}

// AppliedFine is one record created by a scheduler pass.
type AppliedFine struct {
	RecordID   string  `json:"record_id"`
	FineID     string  `json:"fine_id"`
	EmployeeID string  `json:"employee_id"`
	ProjectID  *string `json:"project_id,omitempty"`
	Date       string  `json:"date"`
}

// SkippedFine is one (fine, employee[, project]) pair the scheduler passed
// over, with the reason, so repeated invocations are auditable.
type SkippedFine struct {
	FineID     string  `json:"fine_id"`
	EmployeeID string  `json:"employee_id"`
	ProjectID  *string `json:"project_id,omitempty"`
	Reason     string  `json:"reason"`
}

// ApplyReport is the outcome of one ApplyCustomFines invocation.
type ApplyReport struct {
	Applied []AppliedFine `json:"applied"`
	Skipped []SkippedFine `json:"skipped"`
}

func ToResponse(f CustomFine) CustomFineResponse {
	var trigger *string
	if f.Criteria == CriteriaLeadNoTask {
		s := formatTrigger(f.TriggerHour, f.TriggerMinute)
		trigger = &s
	}
	return CustomFineResponse{
		ID:          f.ID,
		Name:        f.Name,
		Criteria:    string(f.Criteria),
		FineType:    string(f.FineType),
		Points:      f.Points,
		Currency:    f.Currency,
		TriggerTime: trigger,
		EmployeeIDs: f.EmployeeIDs,
		ProjectIDs:  f.ProjectIDs,
		IsActive:    f.IsActive,
	}
}

func ToRecordResponse(rec CustomFineRecord) CustomFineRecordResponse {
	return CustomFineRecordResponse{
		ID:              rec.ID,
		FineID:          rec.FineID,
		EmployeeID:      rec.EmployeeID,
		ProjectID:       rec.ProjectID,
		Date:            rec.Date.Format("2006-01-02"),
		Points:          rec.Points,
		Currency:        rec.Currency,
		ManuallyDeleted: rec.ManuallyDeleted,
	}
}

func formatTrigger(hour, minute int) string {
	return time.Date(0, 1, 1, hour, minute, 0, 0, time.UTC).Format("15:04")
}
