package compensation

import (
	"context"
	"time"
)

// CompensationService computes and persists monthly and weekly pay records.
type CompensationService interface {
	// Compute evaluates the full breakdown for the employee's current period
	// at the injected instant and upserts the stored record. Manual overrides
	// and the no-payment approval already on the record survive the upsert.
	Compute(ctx context.Context, req ComputeRequest, now time.Time) (Breakdown, error)

	// ComputeAll recomputes every active employee for the period. Failures are
	// logged per employee; the pass continues.
	ComputeAll(ctx context.Context, period Period, now time.Time) ([]Breakdown, error)

	SetOverrides(ctx context.Context, req SetOverridesRequest, now time.Time) (Breakdown, error)

	// SetNoPaymentApproved marks the period record as payable despite active
	// no-payment flags.
	SetNoPaymentApproved(ctx context.Context, employeeID string, period Period, approved bool, now time.Time) error

	AddLedgerEntry(ctx context.Context, req CreateLedgerEntryRequest) (LedgerEntry, error)
	ListLedger(ctx context.Context, employeeID string, from, to time.Time) ([]LedgerEntry, error)
}
