package compensation

import (
	"time"

	"github.com/shopspring/decimal"
)

// Period enum
type Period string

const (
	PeriodMonthly Period = "monthly"
	PeriodWeekly  Period = "weekly"
)

// BonusFineRecord is the stored compensation result, one per employee per
// period, keyed by (EmployeeID, Period, PeriodStart). Computed totals are
// overwritten on recompute; manual overrides and the approval flag survive.
type BonusFineRecord struct {
	ID          string
	EmployeeID  string
	Period      Period
	PeriodStart time.Time
	Month       int
	Year        int

	Base       decimal.Decimal
	TotalBonus decimal.Decimal
	TotalFine  decimal.Decimal
	NetAmount  decimal.Decimal

	// Administrator overrides replace (not add to) the computed totals.
	ManualBonus *decimal.Decimal
	ManualFine  *decimal.Decimal

	// Core-team approval lifts the no-payment gate.
	NoPaymentApproved bool

	ComputedAt time.Time
	CreatedAt  time.Time
	UpdatedAt  time.Time
}

// LedgerSource enum
type LedgerSource string

const (
	SourceManual        LedgerSource = "manual"
	SourceFineScheduler LedgerSource = "fine_scheduler"
)

// LedgerKind enum
type LedgerKind string

const (
	LedgerBonus LedgerKind = "bonus"
	LedgerFine  LedgerKind = "fine"
)

// LedgerValueType enum
type LedgerValueType string

const (
	ValuePoints   LedgerValueType = "points"
	ValueCurrency LedgerValueType = "currency"
)

// LedgerEntry is an ad hoc bonus or fine outside the rule engine, plus the
// mirror entries the fine scheduler appends for auditability. Only manual
// fine entries enter the compensation total; scheduler entries are already
// counted through their CustomFineRecord.
type LedgerEntry struct {
	ID          string
	EmployeeID  string
	Date        time.Time
	Kind        LedgerKind
	ValueType   LedgerValueType
	Value       decimal.Decimal
	Description string
	Source      LedgerSource
	ReferenceID *string
	CreatedAt   time.Time
}

// DailyUpdate is one submitted daily status update, with the loom/gform
// completeness flags feeding the dailyLoomGFormBonus.
type DailyUpdate struct {
	EmployeeID string
	Date       time.Time
	HasLoom    bool
	HasGForm   bool
}

// EngagementCounts are externally supplied shortfall counts for a window.
type EngagementCounts struct {
	MissedDailyUpdates     int
	MissedTeamMeetings     int
	MissedInternalMeetings int
	MissedClientMeetings   int
}
