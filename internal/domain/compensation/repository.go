package compensation

import (
	"context"
	"time"

	"github.com/shopspring/decimal"
)

type BonusFineRecordRepository interface {
	GetForPeriod(ctx context.Context, employeeID string, period Period, periodStart time.Time) (BonusFineRecord, error)

	// Upsert writes the computed totals for the period, preserving any manual
	// overrides and the approval flag already stored on the row.
	Upsert(ctx context.Context, rec BonusFineRecord) (BonusFineRecord, error)

	SetOverrides(ctx context.Context, employeeID string, period Period, periodStart time.Time, manualBonus, manualFine *decimal.Decimal) error
	SetNoPaymentApproved(ctx context.Context, employeeID string, period Period, periodStart time.Time, approved bool) error
	ListForPeriod(ctx context.Context, period Period, periodStart time.Time) ([]BonusFineRecord, error)

	// IncrementAppliedFines nudges the stored monthly total when the fine
	// scheduler applies a record, so the row stays current between full
	// recomputes. The period is anchored in day's location, matching the
	// compute path.
	IncrementAppliedFines(ctx context.Context, employeeID string, day time.Time, amount decimal.Decimal) error
}

type LedgerRepository interface {
	Insert(ctx context.Context, entry LedgerEntry) (LedgerEntry, error)
	ListForWindow(ctx context.Context, employeeID string, from, to time.Time) ([]LedgerEntry, error)

	// SumManualFines totals admin-entered currency fines in [from, to].
	// Scheduler-sourced entries are excluded to avoid double counting.
	SumManualFines(ctx context.Context, employeeID string, from, to time.Time) (decimal.Decimal, error)
}

// EngagementRepository surfaces externally supplied activity signals:
// daily updates with their completeness flags and meeting shortfall counts.
type EngagementRepository interface {
	DailyUpdates(ctx context.Context, employeeID string, from, to time.Time) ([]DailyUpdate, error)
	Counts(ctx context.Context, employeeID string, from, to time.Time) (EngagementCounts, error)
}
