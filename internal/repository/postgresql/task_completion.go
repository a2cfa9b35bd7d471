package postgresql

import (
	"context"
	"fmt"

	"github.com/google/uuid"

	"github.com/workforcehq/workforce-backend-go/internal/domain/task"
	"github.com/workforcehq/workforce-backend-go/internal/pkg/database"
)

type taskCompletionRepository struct {
	db *database.DB
}

func NewTaskCompletionRepository(db *database.DB) task.TaskCompletionRepository {
	return &taskCompletionRepository{db: db}
}

// InsertIfAbsent implements task.TaskCompletionRepository. The unique index
// on (task_id, cycle_date) turns a duplicate insert into a no-op, so a race
// between two sweeps never double-archives a cycle.
func (r *taskCompletionRepository) InsertIfAbsent(ctx context.Context, c task.TaskCompletion) (bool, error) {
	q := GetQuerier(ctx, r.db)

	c.ID = uuid.New().String()

	query := `
		INSERT INTO task_completions (
			id, task_id, cycle_date,
			title, assignee_id, status, approval_status,
			completed_at, completed_by, ticked_at, approved_by, approved_at,
			bonus_points, bonus_currency, penalty_points, penalty_currency,
			outcome_kind, outcome_points, outcome_currency, archived_at
		) VALUES (
			$1, $2, $3, $4, $5, $6, $7, $8, $9, $10,
			$11, $12, $13, $14, $15, $16, $17, $18, $19, $20
		) ON CONFLICT (task_id, cycle_date) DO NOTHING
	`

	_, err := q.Exec(ctx, query,
		c.ID, c.TaskID, c.CycleDate,
		c.Title, c.AssigneeID, c.Status, c.ApprovalStatus,
		c.CompletedAt, c.CompletedBy, c.TickedAt, c.ApprovedBy, c.ApprovedAt,
		c.BonusPoints, c.BonusCurrency, c.PenaltyPoints, c.PenaltyCurrency,
		c.OutcomeKind, c.OutcomePoints, c.OutcomeCurrency, c.ArchivedAt,
	)
	if err != nil {
		return false, fmt.Errorf("failed to insert task completion: %w", err)
	}

	// Confirm a row exists whether this insert won or lost the race.
	var exists bool
	confirm := `SELECT EXISTS (SELECT 1 FROM task_completions WHERE task_id = $1 AND cycle_date = $2)`
	if err := q.QueryRow(ctx, confirm, c.TaskID, c.CycleDate).Scan(&exists); err != nil {
		return false, fmt.Errorf("failed to confirm task completion: %w", err)
	}

	return exists, nil
}

// ListByTask implements task.TaskCompletionRepository.
func (r *taskCompletionRepository) ListByTask(ctx context.Context, taskID string) ([]task.TaskCompletion, error) {
	q := GetQuerier(ctx, r.db)

	query := `
		SELECT id, task_id, cycle_date,
			   title, assignee_id, status, approval_status,
			   completed_at, completed_by, ticked_at, approved_by, approved_at,
			   bonus_points, bonus_currency, penalty_points, penalty_currency,
			   outcome_kind, outcome_points, outcome_currency, archived_at
		FROM task_completions
		WHERE task_id = $1
		ORDER BY cycle_date DESC
	`

	rows, err := q.Query(ctx, query, taskID)
	if err != nil {
		return nil, fmt.Errorf("failed to list task completions: %w", err)
	}
	defer rows.Close()

	var completions []task.TaskCompletion
	for rows.Next() {
		var c task.TaskCompletion
		err := rows.Scan(
			&c.ID, &c.TaskID, &c.CycleDate,
			&c.Title, &c.AssigneeID, &c.Status, &c.ApprovalStatus,
			&c.CompletedAt, &c.CompletedBy, &c.TickedAt, &c.ApprovedBy, &c.ApprovedAt,
			&c.BonusPoints, &c.BonusCurrency, &c.PenaltyPoints, &c.PenaltyCurrency,
			&c.OutcomeKind, &c.OutcomePoints, &c.OutcomeCurrency, &c.ArchivedAt,
		)
		if err != nil {
			return nil, fmt.Errorf("failed to scan task completion: %w", err)
		}
		completions = append(completions, c)
	}

	return completions, rows.Err()
}

type subtaskRepository struct {
	db *database.DB
}

func NewSubtaskRepository(db *database.DB) task.SubtaskRepository {
	return &subtaskRepository{db: db}
}

// ListByTask implements task.SubtaskRepository.
func (r *subtaskRepository) ListByTask(ctx context.Context, taskID string) ([]task.Subtask, error) {
	q := GetQuerier(ctx, r.db)

	query := `
		SELECT id, task_id, title, is_completed, created_at
		FROM subtasks
		WHERE task_id = $1
		ORDER BY created_at
	`

	rows, err := q.Query(ctx, query, taskID)
	if err != nil {
		return nil, fmt.Errorf("failed to list subtasks: %w", err)
	}
	defer rows.Close()

	var subtasks []task.Subtask
	for rows.Next() {
		var s task.Subtask
		if err := rows.Scan(&s.ID, &s.TaskID, &s.Title, &s.IsCompleted, &s.CreatedAt); err != nil {
			return nil, fmt.Errorf("failed to scan subtask: %w", err)
		}
		subtasks = append(subtasks, s)
	}

	return subtasks, rows.Err()
}

// AllCompleted implements task.SubtaskRepository. A task with no subtasks
// counts as all-complete.
func (r *subtaskRepository) AllCompleted(ctx context.Context, taskID string) (bool, error) {
	q := GetQuerier(ctx, r.db)

	var incomplete int
	query := `SELECT COUNT(*) FROM subtasks WHERE task_id = $1 AND is_completed = FALSE`
	if err := q.QueryRow(ctx, query, taskID).Scan(&incomplete); err != nil {
		return false, fmt.Errorf("failed to count open subtasks: %w", err)
	}

	return incomplete == 0, nil
}
