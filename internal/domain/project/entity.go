package project

import (
	"time"

	"github.com/shopspring/decimal"
)

// ProjectStatus enum
type ProjectStatus string

const (
	ProjectStatusPending    ProjectStatus = "pending"
	ProjectStatusInProgress ProjectStatus = "in_progress"
	ProjectStatusCompleted  ProjectStatus = "completed"
	ProjectStatusCancelled  ProjectStatus = "cancelled"
)

// MemberRole enum. Lead assignees are accountable for the project and are
// subject to the leadership fine/bonus multipliers.
type MemberRole string

const (
	RoleLeadAssignee   MemberRole = "lead_assignee"
	RoleViceAssignee   MemberRole = "vice_assignee"
	RoleUpdateIncharge MemberRole = "update_incharge"
)

type Project struct {
	ID              string
	Name            string
	Status          ProjectStatus
	DeadlineDate    *time.Time
	BonusPoints     int
	BonusCurrency   decimal.Decimal
	PenaltyPoints   int
	PenaltyCurrency decimal.Decimal
	ClientProgress  int
	ClientApproved  bool
	CompletedAt     *time.Time
	CreatedAt       time.Time
	UpdatedAt       time.Time
}

type ProjectMember struct {
	ProjectID  string
	EmployeeID string
	Role       MemberRole
}

// Eligible reports whether the project still counts for the
// lead-assignee-no-task-created fine: anything not closed out.
func (p Project) Eligible() bool {
	return p.Status != ProjectStatusCompleted && p.Status != ProjectStatusCancelled
}
