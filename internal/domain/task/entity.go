package task

import (
	"time"

	"github.com/shopspring/decimal"
)

// TaskKind enum
type TaskKind string

const (
	KindOneTime TaskKind = "one_time"
	KindDaily   TaskKind = "daily"
	KindWeekly  TaskKind = "weekly"
	KindMonthly TaskKind = "monthly"
	KindCustom  TaskKind = "custom"
)

// TaskStatus enum
type TaskStatus string

const (
	StatusPending    TaskStatus = "pending"
	StatusInProgress TaskStatus = "in_progress"
	StatusCompleted  TaskStatus = "completed"
	StatusOverdue    TaskStatus = "overdue"
	StatusCancelled  TaskStatus = "cancelled"
)

// ApprovalStatus enum. Transitions only pending -> {approved, rejected,
// deadline_passed}; a fresh tick resets it back to pending.
type ApprovalStatus string

const (
	ApprovalPending        ApprovalStatus = "pending"
	ApprovalApproved       ApprovalStatus = "approved"
	ApprovalRejected       ApprovalStatus = "rejected"
	ApprovalDeadlinePassed ApprovalStatus = "deadline_passed"
)

// TransitionAction enum for the transition endpoint.
type TransitionAction string

const (
	ActionTick    TransitionAction = "tick"
	ActionUntick  TransitionAction = "untick"
	ActionApprove TransitionAction = "approve"
	ActionReject  TransitionAction = "reject"
)

// Task is the live document for a task. For recurring kinds the same row is
// reused across cycles; closed cycles are snapshotted into TaskCompletion.
// Times of day are wall-clock "15:04" strings, dates are date-only values.
type Task struct {
	ID          string
	Title       string
	Description *string
	Kind        TaskKind
	Status      TaskStatus

	AssigneeID string
	ProjectID  *string
	CreatedBy  string

	AssignedDate *time.Time
	AssignedTime *string
	DueDate      *time.Time
	DueTime      *string
	DeadlineDate *time.Time
	DeadlineTime *string

	BonusPoints     int
	BonusCurrency   decimal.Decimal
	PenaltyPoints   int
	PenaltyCurrency decimal.Decimal

	// Standard 5-field cron expression, only for KindCustom. The archiver
	// closes a cycle once the first occurrence after AssignedDate has passed.
	RecurrenceSpec *string

	ApprovalStatus ApprovalStatus
	CompletedAt    *time.Time
	CompletedBy    *string
	TickedAt       *time.Time
	ApprovedBy     *string
	ApprovedAt     *time.Time

	Version   int
	CreatedAt time.Time
	UpdatedAt time.Time
}

func (t Task) IsRecurring() bool {
	return t.Kind != KindOneTime
}

func (t Task) IsCompleted() bool {
	return t.Status == StatusCompleted
}

// HasBonus reports whether any reward is configured.
func (t Task) HasBonus() bool {
	return t.BonusPoints > 0 || t.BonusCurrency.IsPositive()
}

// HasPenalty reports whether any penalty is configured.
func (t Task) HasPenalty() bool {
	return t.PenaltyPoints > 0 || t.PenaltyCurrency.IsPositive()
}

// OutcomeKind enum for the reward/penalty decision recorded on approval.
type OutcomeKind string

const (
	OutcomeReward  OutcomeKind = "reward"
	OutcomePenalty OutcomeKind = "penalty"
	OutcomeNeutral OutcomeKind = "neutral"
)

// Outcome is the reward/penalty decision for one closed task or cycle.
type Outcome struct {
	Kind     OutcomeKind
	Points   int
	Currency decimal.Decimal
}

// TaskCompletion is the immutable archive of one closed recurrence cycle,
// keyed by (TaskID, CycleDate). Never mutated after insert.
type TaskCompletion struct {
	ID        string
	TaskID    string
	CycleDate time.Time

	Title          string
	AssigneeID     string
	Status         TaskStatus
	ApprovalStatus ApprovalStatus
	CompletedAt    *time.Time
	CompletedBy    *string
	TickedAt       *time.Time
	ApprovedBy     *string
	ApprovedAt     *time.Time

	BonusPoints     int
	BonusCurrency   decimal.Decimal
	PenaltyPoints   int
	PenaltyCurrency decimal.Decimal

	OutcomeKind     OutcomeKind
	OutcomePoints   int
	OutcomeCurrency decimal.Decimal

	ArchivedAt time.Time
}

// Subtask gates completion of its parent task.
type Subtask struct {
	ID          string
	TaskID      string
	Title       string
	IsCompleted bool
	CreatedAt   time.Time
}
