package fine

import (
	"context"
	"time"

	"github.com/shopspring/decimal"
)

type CustomFineRepository interface {
	Create(ctx context.Context, f CustomFine) (CustomFine, error)
	GetByID(ctx context.Context, id string) (CustomFine, error)
	List(ctx context.Context, activeOnly bool) ([]CustomFine, error)
	Update(ctx context.Context, f CustomFine) (CustomFine, error)
	Deactivate(ctx context.Context, id string) error
}

type CustomFineRecordRepository interface {
	// ActiveExists checks the natural key: (fineID, employeeID), narrowed by
	// projectID and calendar day when given. Manually deleted records are
	// excluded, so a deleted record allows re-application.
	ActiveExists(ctx context.Context, fineID, employeeID string, projectID *string, day *time.Time) (bool, error)

	Create(ctx context.Context, rec CustomFineRecord) (CustomFineRecord, error)
	GetByID(ctx context.Context, id string) (CustomFineRecord, error)
	ListByFine(ctx context.Context, fineID string) ([]CustomFineRecord, error)
	ListForEmployeeWindow(ctx context.Context, employeeID string, from, to time.Time) ([]CustomFineRecord, error)

	// SumForWindow totals active records for the employee inside [from, to],
	// restricted to records whose rule matches the given criteria.
	SumForWindow(ctx context.Context, employeeID string, criteria Criteria, from, to time.Time) (points int, currency decimal.Decimal, err error)

	// MarkManuallyDeleted flags the record out of the natural-key check
	// without losing its history.
	MarkManuallyDeleted(ctx context.Context, id string) error

	// HasNAMark reports an admin "not applicable" exemption for the
	// (fine, employee, project) triple on the given day.
	HasNAMark(ctx context.Context, fineID, employeeID, projectID string, day time.Time) (bool, error)
}
