package postgresql

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"

	"github.com/workforcehq/workforce-backend-go/internal/domain/task"
	"github.com/workforcehq/workforce-backend-go/internal/pkg/database"
)

type taskRepository struct {
	db *database.DB
}

func NewTaskRepository(db *database.DB) task.TaskRepository {
	return &taskRepository{db: db}
}

const taskColumns = `
	id, title, description, kind, status,
	assignee_id, project_id, created_by,
	assigned_date, assigned_time, due_date, due_time, deadline_date, deadline_time,
	bonus_points, bonus_currency, penalty_points, penalty_currency,
	recurrence_spec,
	approval_status, completed_at, completed_by, ticked_at, approved_by, approved_at,
	version, created_at, updated_at
`

func scanTask(row pgx.Row) (task.Task, error) {
	var t task.Task
	err := row.Scan(
		&t.ID, &t.Title, &t.Description, &t.Kind, &t.Status,
		&t.AssigneeID, &t.ProjectID, &t.CreatedBy,
		&t.AssignedDate, &t.AssignedTime, &t.DueDate, &t.DueTime, &t.DeadlineDate, &t.DeadlineTime,
		&t.BonusPoints, &t.BonusCurrency, &t.PenaltyPoints, &t.PenaltyCurrency,
		&t.RecurrenceSpec,
		&t.ApprovalStatus, &t.CompletedAt, &t.CompletedBy, &t.TickedAt, &t.ApprovedBy, &t.ApprovedAt,
		&t.Version, &t.CreatedAt, &t.UpdatedAt,
	)
	return t, err
}

// Create implements task.TaskRepository.
func (r *taskRepository) Create(ctx context.Context, t task.Task) (task.Task, error) {
	q := GetQuerier(ctx, r.db)

	t.ID = uuid.New().String()
	t.Version = 1

	query := `
		INSERT INTO tasks (
			id, title, description, kind, status,
			assignee_id, project_id, created_by,
			assigned_date, assigned_time, due_date, due_time, deadline_date, deadline_time,
			bonus_points, bonus_currency, penalty_points, penalty_currency,
			recurrence_spec, approval_status, version
		) VALUES (
			$1, $2, $3, $4, $5, $6, $7, $8, $9, $10,
			$11, $12, $13, $14, $15, $16, $17, $18, $19, $20, $21
		) RETURNING created_at, updated_at
	`

	err := q.QueryRow(ctx, query,
		t.ID, t.Title, t.Description, t.Kind, t.Status,
		t.AssigneeID, t.ProjectID, t.CreatedBy,
		t.AssignedDate, t.AssignedTime, t.DueDate, t.DueTime, t.DeadlineDate, t.DeadlineTime,
		t.BonusPoints, t.BonusCurrency, t.PenaltyPoints, t.PenaltyCurrency,
		t.RecurrenceSpec, t.ApprovalStatus, t.Version,
	).Scan(&t.CreatedAt, &t.UpdatedAt)

	if err != nil {
		return task.Task{}, fmt.Errorf("failed to create task: %w", err)
	}

	return t, nil
}

// GetByID implements task.TaskRepository.
func (r *taskRepository) GetByID(ctx context.Context, id string) (task.Task, error) {
	q := GetQuerier(ctx, r.db)

	query := `SELECT ` + taskColumns + ` FROM tasks WHERE id = $1`

	t, err := scanTask(q.QueryRow(ctx, query, id))
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return task.Task{}, task.ErrTaskNotFound
		}
		return task.Task{}, fmt.Errorf("failed to get task: %w", err)
	}

	return t, nil
}

// List implements task.TaskRepository.
func (r *taskRepository) List(ctx context.Context, filter task.TaskFilter) ([]task.Task, int64, error) {
	q := GetQuerier(ctx, r.db)

	var conditions []string
	var args []interface{}
	argIdx := 1

	addCondition := func(column string, value interface{}) {
		conditions = append(conditions, fmt.Sprintf("%s = $%d", column, argIdx))
		args = append(args, value)
		argIdx++
	}

	if filter.AssigneeID != nil {
		addCondition("assignee_id", *filter.AssigneeID)
	}
	if filter.ProjectID != nil {
		addCondition("project_id", *filter.ProjectID)
	}
	if filter.Kind != nil {
		addCondition("kind", *filter.Kind)
	}
	if filter.Status != nil {
		addCondition("status", *filter.Status)
	}

	whereClause := ""
	if len(conditions) > 0 {
		whereClause = " WHERE " + strings.Join(conditions, " AND ")
	}

	var total int64
	countQuery := "SELECT COUNT(*) FROM tasks" + whereClause
	if err := q.QueryRow(ctx, countQuery, args...).Scan(&total); err != nil {
		return nil, 0, fmt.Errorf("failed to count tasks: %w", err)
	}

	if filter.Limit <= 0 {
		filter.Limit = 20
	}
	if filter.Page <= 0 {
		filter.Page = 1
	}
	offset := (filter.Page - 1) * filter.Limit

	query := "SELECT " + taskColumns + " FROM tasks" + whereClause +
		fmt.Sprintf(" ORDER BY created_at DESC LIMIT $%d OFFSET $%d", argIdx, argIdx+1)
	args = append(args, filter.Limit, offset)

	rows, err := q.Query(ctx, query, args...)
	if err != nil {
		return nil, 0, fmt.Errorf("failed to list tasks: %w", err)
	}
	defer rows.Close()

	var tasks []task.Task
	for rows.Next() {
		t, err := scanTask(rows)
		if err != nil {
			return nil, 0, fmt.Errorf("failed to scan task: %w", err)
		}
		tasks = append(tasks, t)
	}

	return tasks, total, rows.Err()
}

// UpdateVersioned implements task.TaskRepository. The stored version must
// still match t.Version; the row's version is bumped on success.
func (r *taskRepository) UpdateVersioned(ctx context.Context, t task.Task) (task.Task, error) {
	q := GetQuerier(ctx, r.db)

	query := `
		UPDATE tasks SET
			title = $1, description = $2, kind = $3, status = $4,
			assignee_id = $5, project_id = $6,
			assigned_date = $7, assigned_time = $8,
			due_date = $9, due_time = $10,
			deadline_date = $11, deadline_time = $12,
			bonus_points = $13, bonus_currency = $14,
			penalty_points = $15, penalty_currency = $16,
			recurrence_spec = $17,
			approval_status = $18, completed_at = $19, completed_by = $20,
			ticked_at = $21, approved_by = $22, approved_at = $23,
			version = version + 1, updated_at = NOW()
		WHERE id = $24 AND version = $25
		RETURNING version, updated_at
	`

	err := q.QueryRow(ctx, query,
		t.Title, t.Description, t.Kind, t.Status,
		t.AssigneeID, t.ProjectID,
		t.AssignedDate, t.AssignedTime,
		t.DueDate, t.DueTime,
		t.DeadlineDate, t.DeadlineTime,
		t.BonusPoints, t.BonusCurrency,
		t.PenaltyPoints, t.PenaltyCurrency,
		t.RecurrenceSpec,
		t.ApprovalStatus, t.CompletedAt, t.CompletedBy,
		t.TickedAt, t.ApprovedBy, t.ApprovedAt,
		t.ID, t.Version,
	).Scan(&t.Version, &t.UpdatedAt)

	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			// Either the task is gone or the version moved on. Disambiguate
			// so the caller can retry conflicts but surface missing rows.
			if _, getErr := r.GetByID(ctx, t.ID); getErr != nil {
				return task.Task{}, getErr
			}
			return task.Task{}, task.ErrVersionConflict
		}
		return task.Task{}, fmt.Errorf("failed to update task: %w", err)
	}

	return t, nil
}

// ListRecurring implements task.TaskRepository.
func (r *taskRepository) ListRecurring(ctx context.Context, kind task.TaskKind) ([]task.Task, error) {
	q := GetQuerier(ctx, r.db)

	query := `SELECT ` + taskColumns + ` FROM tasks WHERE kind = $1 AND status != $2 ORDER BY created_at`

	rows, err := q.Query(ctx, query, kind, task.StatusCancelled)
	if err != nil {
		return nil, fmt.Errorf("failed to list recurring tasks: %w", err)
	}
	defer rows.Close()

	var tasks []task.Task
	for rows.Next() {
		t, err := scanTask(rows)
		if err != nil {
			return nil, fmt.Errorf("failed to scan task: %w", err)
		}
		tasks = append(tasks, t)
	}

	return tasks, rows.Err()
}

// ListPendingApproval implements task.TaskRepository.
func (r *taskRepository) ListPendingApproval(ctx context.Context) ([]task.Task, error) {
	q := GetQuerier(ctx, r.db)

	query := `SELECT ` + taskColumns + ` FROM tasks WHERE approval_status = $1 AND status != $2 ORDER BY created_at`

	rows, err := q.Query(ctx, query, task.ApprovalPending, task.StatusCancelled)
	if err != nil {
		return nil, fmt.Errorf("failed to list pending-approval tasks: %w", err)
	}
	defer rows.Close()

	var tasks []task.Task
	for rows.Next() {
		t, err := scanTask(rows)
		if err != nil {
			return nil, fmt.Errorf("failed to scan task: %w", err)
		}
		tasks = append(tasks, t)
	}

	return tasks, rows.Err()
}
