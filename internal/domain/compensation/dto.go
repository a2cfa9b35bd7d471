package compensation

import (
	"time"

	"github.com/shopspring/decimal"

	"github.com/workforcehq/workforce-backend-go/internal/pkg/validator"
)

// BonusBreakdown itemizes the additive bonus components. Base is excluded
// from all multipliers and from Total.
type BonusBreakdown struct {
	Products          decimal.Decimal `json:"products_bonus"`
	Attendance        decimal.Decimal `json:"attendance_bonus"`
	DailyLoomGForm    decimal.Decimal `json:"daily_loom_gform_bonus"`
	Loyalty           decimal.Decimal `json:"loyalty_bonus"`
	CompletedProjects decimal.Decimal `json:"completed_projects_bonus"`
	Total             decimal.Decimal `json:"total"`
}

// FineBreakdown itemizes the grace-gated fines. MissingDailyTasks carries
// only lead-no-task records; one-off default fines get their own row. Sum is
// the raw sum of the components; Total is what remains after the overrides,
// the leadership multiplier and the clamp.
type FineBreakdown struct {
	MissingDailyUpdates     decimal.Decimal `json:"missing_daily_updates_fine"`
	MissingTeamMeetings     decimal.Decimal `json:"missing_team_meetings_fine"`
	MissingInternalMeetings decimal.Decimal `json:"missing_internal_meetings_fine"`
	MissingClientMeetings   decimal.Decimal `json:"missing_client_meetings_fine"`
	Absence                 decimal.Decimal `json:"absence_fine"`
	MissingDailyTasks       decimal.Decimal `json:"missing_daily_tasks_fine"`
	DefaultFines            decimal.Decimal `json:"default_fines"`
	Sum                     decimal.Decimal `json:"sum"`
	Total                   decimal.Decimal `json:"total"`
}

// Breakdown is the deterministic result of one compensation computation:
// same inputs and same `now` always reproduce it.
type Breakdown struct {
	EmployeeID  string    `json:"employee_id"`
	Period      Period    `json:"period"`
	PeriodStart time.Time `json:"period_start"`
	PeriodEnd   time.Time `json:"period_end"`

	Base decimal.Decimal `json:"base"`

	ProductsCount          int     `json:"products_count"`
	ApprovedClientProjects int     `json:"approved_client_projects"`
	AttendanceHours        float64 `json:"attendance_hours"`
	AbsentDays             int     `json:"absent_days"`
	DailyUpdatesCount      int     `json:"daily_updates_count"`
	MissingDailyUpdates    int     `json:"missing_daily_updates"`
	MonthsWorked           int     `json:"months_worked"`
	IsProjectLead          bool    `json:"is_project_lead"`
	HasCompletedAsLead     bool    `json:"has_completed_as_lead"`
	IsInTraining           bool    `json:"is_in_training"`

	Bonus BonusBreakdown `json:"bonus"`
	Fine  FineBreakdown  `json:"fine"`

	CustomFinesCurrency decimal.Decimal `json:"custom_fines_currency"`

	ManualBonus *decimal.Decimal `json:"manual_bonus,omitempty"`
	ManualFine  *decimal.Decimal `json:"manual_fine,omitempty"`

	TotalBonus decimal.Decimal `json:"total_bonus"`
	TotalFine  decimal.Decimal `json:"total_fine"`

	NoPaymentFlags    []string        `json:"no_payment_flags,omitempty"`
	NoPaymentApproved bool            `json:"no_payment_approved"`
	NetAmount         decimal.Decimal `json:"net_amount"`
}

type ComputeRequest struct {
	EmployeeID string
	Period     string
}

func (r *ComputeRequest) Validate() error {
	var errs validator.ValidationErrors

	if validator.IsEmpty(r.EmployeeID) {
		errs = append(errs, validator.ValidationError{Field: "employee_id", Message: "is required"})
	}
	if r.Period != string(PeriodMonthly) && r.Period != string(PeriodWeekly) {
		errs = append(errs, validator.ValidationError{Field: "period", Message: "must be 'monthly' or 'weekly'"})
	}

	if len(errs) > 0 {
		return errs
	}
	return nil
}

type SetOverridesRequest struct {
	EmployeeID  string           `json:"-"`
	Period      string           `json:"period"`
	ManualBonus *decimal.Decimal `json:"manual_bonus,omitempty"`
	ManualFine  *decimal.Decimal `json:"manual_fine,omitempty"`
}

func (r *SetOverridesRequest) Validate() error {
	var errs validator.ValidationErrors

	if validator.IsEmpty(r.EmployeeID) {
		errs = append(errs, validator.ValidationError{Field: "employee_id", Message: "is required"})
	}
	if r.Period != string(PeriodMonthly) && r.Period != string(PeriodWeekly) {
		errs = append(errs, validator.ValidationError{Field: "period", Message: "must be 'monthly' or 'weekly'"})
	}
	if r.ManualBonus != nil && r.ManualBonus.IsNegative() {
		errs = append(errs, validator.ValidationError{Field: "manual_bonus", Message: "must be non-negative"})
	}
	if r.ManualFine != nil && r.ManualFine.IsNegative() {
		errs = append(errs, validator.ValidationError{Field: "manual_fine", Message: "must be non-negative"})
	}

	if len(errs) > 0 {
		return errs
	}
	return nil
}

type CreateLedgerEntryRequest struct {
	EmployeeID  string          `json:"-"`
	Date        string          `json:"date"`
	Kind        string          `json:"kind"`
	ValueType   string          `json:"value_type"`
	Value       decimal.Decimal `json:"value"`
	Description string          `json:"description"`
}

func (r *CreateLedgerEntryRequest) Validate() error {
	var errs validator.ValidationErrors

	if validator.IsEmpty(r.EmployeeID) {
		errs = append(errs, validator.ValidationError{Field: "employee_id", Message: "is required"})
	}
	if _, ok := validator.IsValidDate(r.Date); !ok {
		errs = append(errs, validator.ValidationError{Field: "date", Message: "must be a YYYY-MM-DD date"})
	}
	if r.Kind != string(LedgerBonus) && r.Kind != string(LedgerFine) {
		errs = append(errs, validator.ValidationError{Field: "kind", Message: "must be 'bonus' or 'fine'"})
	}
	if r.ValueType != string(ValuePoints) && r.ValueType != string(ValueCurrency) {
		errs = append(errs, validator.ValidationError{Field: "value_type", Message: "must be 'points' or 'currency'"})
	}
	if r.Value.IsNegative() {
		errs = append(errs, validator.ValidationError{Field: "value", Message: "must be non-negative"})
	}

	if len(errs) > 0 {
		return errs
	}
	return nil
}
