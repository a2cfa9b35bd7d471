package fine

import (
	"context"
	"time"

	"github.com/shopspring/decimal"
)

// FineService manages fine rule definitions and runs the scheduler pass.
type FineService interface {
	CreateFine(ctx context.Context, req CreateCustomFineRequest) (CustomFineResponse, error)
	GetFine(ctx context.Context, id string) (CustomFineResponse, error)
	ListFines(ctx context.Context, activeOnly bool) ([]CustomFineResponse, error)
	UpdateFine(ctx context.Context, req UpdateCustomFineRequest) (CustomFineResponse, error)
	DeactivateFine(ctx context.Context, id string) error

	ListRecords(ctx context.Context, fineID string) ([]CustomFineRecordResponse, error)
	// DeleteRecord marks the record manually deleted, which also releases the
	// natural-key slot so the rule may apply again.
	DeleteRecord(ctx context.Context, recordID string) error

	// ApplyCustomFines runs one scheduler pass at the injected instant.
	// Re-running without intervening state changes persists nothing new.
	ApplyCustomFines(ctx context.Context, now time.Time) (ApplyReport, error)

	// ProvisionalDailyFine returns the currency amount of daily fines the
	// employee is already eligible for today that have not materialized yet.
	ProvisionalDailyFine(ctx context.Context, employeeID string, now time.Time) (decimal.Decimal, error)
}
