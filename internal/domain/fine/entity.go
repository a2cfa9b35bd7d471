package fine

import (
	"time"

	"github.com/shopspring/decimal"
)

// Criteria enum
type Criteria string

const (
	// CriteriaDefault applies immediately, once per employee ever.
	CriteriaDefault Criteria = "default_fine"
	// CriteriaLeadNoTask fines lead assignees who created no task for a led
	// project before the daily trigger time.
	CriteriaLeadNoTask Criteria = "lead_assignee_no_task_created"
)

// FineType enum
type FineType string

const (
	TypeOneTime FineType = "one_time"
	TypeDaily   FineType = "daily"
)

// CustomFine is a rule template. Empty EmployeeIDs targets all active
// employees; empty ProjectIDs means every eligible project the employee leads.
type CustomFine struct {
	ID       string
	Name     string
	Criteria Criteria
	FineType FineType

	Points   int
	Currency decimal.Decimal

	// Daily trigger wall-clock time for CriteriaLeadNoTask. The rule becomes
	// actionable once now >= trigger (inclusive).
	TriggerHour   int
	TriggerMinute int

	EmployeeIDs []string
	ProjectIDs  []string

	IsActive  bool
	CreatedAt time.Time
	UpdatedAt time.Time
}

// TargetsProject reports whether the project is in scope for this fine.
func (f CustomFine) TargetsProject(projectID string) bool {
	if len(f.ProjectIDs) == 0 {
		return true
	}
	for _, id := range f.ProjectIDs {
		if id == projectID {
			return true
		}
	}
	return false
}

// CustomFineRecord is one applied instance of a rule. The natural key is
// (FineID, EmployeeID[, ProjectID]) for one-time fines and the same plus Date
// for daily fines; ManuallyDeleted rows do not count toward it.
type CustomFineRecord struct {
	ID         string
	FineID     string
	EmployeeID string
	ProjectID  *string
	Date       time.Time

	Points   int
	Currency decimal.Decimal

	ManuallyDeleted bool
	CreatedAt       time.Time
}
