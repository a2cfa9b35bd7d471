package project

import (
	"context"
	"time"
)

type ProjectRepository interface {
	GetByID(ctx context.Context, id string) (Project, error)
	GetByIDs(ctx context.Context, ids []string) ([]Project, error)

	// ListLedBy returns the projects where the employee is a lead assignee.
	ListLedBy(ctx context.Context, employeeID string) ([]Project, error)
	IsLeadAssignee(ctx context.Context, employeeID string, projectID string) (bool, error)

	// CountCompletedMemberships returns how many distinct projects completed
	// inside [from, to] the employee was a member of (any role), and how many
	// of those as lead assignee.
	CountCompletedMemberships(ctx context.Context, employeeID string, from, to time.Time) (total int, asLead int, err error)

	// CountClientApproved returns the employee's client-approved completed
	// projects inside [from, to].
	CountClientApproved(ctx context.Context, employeeID string, from, to time.Time) (int, error)

	// CountTasksCreatedFor returns how many tasks the employee created for the
	// project inside [from, to]. Backs the no-task-created fine check.
	CountTasksCreatedFor(ctx context.Context, employeeID string, projectID string, from, to time.Time) (int, error)
}
