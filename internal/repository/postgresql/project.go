package postgresql

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/jackc/pgx/v5"

	"github.com/workforcehq/workforce-backend-go/internal/domain/project"
	"github.com/workforcehq/workforce-backend-go/internal/pkg/database"
)

type projectRepository struct {
	db *database.DB
}

func NewProjectRepository(db *database.DB) project.ProjectRepository {
	return &projectRepository{db: db}
}

const projectColumns = `
	id, name, status, deadline_date,
	bonus_points, bonus_currency, penalty_points, penalty_currency,
	client_progress, client_approved, completed_at, created_at, updated_at
`

func scanProject(row pgx.Row) (project.Project, error) {
	var p project.Project
	err := row.Scan(
		&p.ID, &p.Name, &p.Status, &p.DeadlineDate,
		&p.BonusPoints, &p.BonusCurrency, &p.PenaltyPoints, &p.PenaltyCurrency,
		&p.ClientProgress, &p.ClientApproved, &p.CompletedAt, &p.CreatedAt, &p.UpdatedAt,
	)
	return p, err
}

// GetByID implements project.ProjectRepository.
func (r *projectRepository) GetByID(ctx context.Context, id string) (project.Project, error) {
	q := GetQuerier(ctx, r.db)

	query := `SELECT ` + projectColumns + ` FROM projects WHERE id = $1`

	p, err := scanProject(q.QueryRow(ctx, query, id))
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return project.Project{}, project.ErrProjectNotFound
		}
		return project.Project{}, fmt.Errorf("failed to get project: %w", err)
	}

	return p, nil
}

// GetByIDs implements project.ProjectRepository.
func (r *projectRepository) GetByIDs(ctx context.Context, ids []string) ([]project.Project, error) {
	if len(ids) == 0 {
		return nil, nil
	}

	q := GetQuerier(ctx, r.db)

	query := `SELECT ` + projectColumns + ` FROM projects WHERE id = ANY($1)`

	rows, err := q.Query(ctx, query, ids)
	if err != nil {
		return nil, fmt.Errorf("failed to get projects: %w", err)
	}
	defer rows.Close()

	return scanProjects(rows)
}

// ListLedBy implements project.ProjectRepository.
func (r *projectRepository) ListLedBy(ctx context.Context, employeeID string) ([]project.Project, error) {
	q := GetQuerier(ctx, r.db)

	query := `
		SELECT ` + projectColumns + `
		FROM projects p
		JOIN project_members m ON m.project_id = p.id
		WHERE m.employee_id = $1 AND m.role = $2
		ORDER BY p.created_at
	`

	rows, err := q.Query(ctx, query, employeeID, project.RoleLeadAssignee)
	if err != nil {
		return nil, fmt.Errorf("failed to list led projects: %w", err)
	}
	defer rows.Close()

	return scanProjects(rows)
}

// IsLeadAssignee implements project.ProjectRepository.
func (r *projectRepository) IsLeadAssignee(ctx context.Context, employeeID string, projectID string) (bool, error) {
	q := GetQuerier(ctx, r.db)

	var exists bool
	query := `
		SELECT EXISTS (
			SELECT 1 FROM project_members
			WHERE project_id = $1 AND employee_id = $2 AND role = $3
		)
	`
	err := q.QueryRow(ctx, query, projectID, employeeID, project.RoleLeadAssignee).Scan(&exists)
	if err != nil {
		return false, fmt.Errorf("failed to check lead assignee: %w", err)
	}

	return exists, nil
}

// CountCompletedMemberships implements project.ProjectRepository.
func (r *projectRepository) CountCompletedMemberships(ctx context.Context, employeeID string, from, to time.Time) (int, int, error) {
	q := GetQuerier(ctx, r.db)

	query := `
		SELECT COUNT(DISTINCT p.id),
			   COUNT(DISTINCT p.id) FILTER (WHERE m.role = $4)
		FROM projects p
		JOIN project_members m ON m.project_id = p.id
		WHERE m.employee_id = $1
		  AND p.status = $5
		  AND p.completed_at >= $2
		  AND p.completed_at <= $3
	`

	var total, asLead int
	err := q.QueryRow(ctx, query,
		employeeID, from, to, project.RoleLeadAssignee, project.ProjectStatusCompleted,
	).Scan(&total, &asLead)
	if err != nil {
		return 0, 0, fmt.Errorf("failed to count completed memberships: %w", err)
	}

	return total, asLead, nil
}

// CountClientApproved implements project.ProjectRepository.
func (r *projectRepository) CountClientApproved(ctx context.Context, employeeID string, from, to time.Time) (int, error) {
	q := GetQuerier(ctx, r.db)

	query := `
		SELECT COUNT(DISTINCT p.id)
		FROM projects p
		JOIN project_members m ON m.project_id = p.id
		WHERE m.employee_id = $1
		  AND p.status = $4
		  AND p.client_approved = TRUE
		  AND p.completed_at >= $2
		  AND p.completed_at <= $3
	`

	var count int
	err := q.QueryRow(ctx, query, employeeID, from, to, project.ProjectStatusCompleted).Scan(&count)
	if err != nil {
		return 0, fmt.Errorf("failed to count client-approved projects: %w", err)
	}

	return count, nil
}

// CountTasksCreatedFor implements project.ProjectRepository.
func (r *projectRepository) CountTasksCreatedFor(ctx context.Context, employeeID string, projectID string, from, to time.Time) (int, error) {
	q := GetQuerier(ctx, r.db)

	query := `
		SELECT COUNT(*)
		FROM tasks
		WHERE created_by = $1
		  AND project_id = $2
		  AND created_at >= $3
		  AND created_at <= $4
	`

	var count int
	err := q.QueryRow(ctx, query, employeeID, projectID, from, to).Scan(&count)
	if err != nil {
		return 0, fmt.Errorf("failed to count created tasks: %w", err)
	}

	return count, nil
}

func scanProjects(rows pgx.Rows) ([]project.Project, error) {
	var projects []project.Project
	for rows.Next() {
		p, err := scanProject(rows)
		if err != nil {
			return nil, fmt.Errorf("failed to scan project: %w", err)
		}
		projects = append(projects, p)
	}
	return projects, rows.Err()
}
