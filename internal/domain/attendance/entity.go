package attendance

import "time"

// Attendance is one recorded working day. HoursWorked may be nil when the
// record was clocked without a duration; such days count as a full 8 hours.
type Attendance struct {
	ID          string
	EmployeeID  string
	Date        time.Time
	HoursWorked *float64
	CreatedAt   time.Time
}

const DefaultDailyHours = 8.0

// Hours returns the recorded hours, defaulting an open record to a full day.
func (a Attendance) Hours() float64 {
	if a.HoursWorked == nil {
		return DefaultDailyHours
	}
	return *a.HoursWorked
}
