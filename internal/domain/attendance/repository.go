package attendance

import (
	"context"
	"time"
)

type AttendanceRepository interface {
	// ListForWindow returns the employee's attendance records with
	// date in [from, to], one row per recorded day.
	ListForWindow(ctx context.Context, employeeID string, from, to time.Time) ([]Attendance, error)
}
