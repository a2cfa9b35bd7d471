package employee

import "time"

type Employee struct {
	ID        string
	FullName  string
	Email     string
	JoinDate  time.Time
	IsActive  bool
	CreatedAt time.Time
	UpdatedAt time.Time
}

// MonthsSinceJoin returns whole months between the join date and now.
func (e Employee) MonthsSinceJoin(now time.Time) int {
	years := now.Year() - e.JoinDate.Year()
	months := int(now.Month()) - int(e.JoinDate.Month())

	totalMonths := years*12 + months

	// Adjust if day hasn't passed yet
	if now.Day() < e.JoinDate.Day() {
		totalMonths--
	}

	if totalMonths < 0 {
		totalMonths = 0
	}

	return totalMonths
}

// IsInTraining reports whether the employee is inside the 3-month training
// window, during which no fines accrue.
func (e Employee) IsInTraining(now time.Time) bool {
	return e.MonthsSinceJoin(now) < 3
}
