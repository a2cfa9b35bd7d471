package task

import (
	"context"
	"time"

	"github.com/workforcehq/workforce-backend-go/internal/domain/user"
)

// TaskService is the task lifecycle surface: CRUD, the completion/approval
// state machine, the deadline sweep and the recurrence archiver.
type TaskService interface {
	Create(ctx context.Context, actor user.Actor, req CreateTaskRequest) (TaskResponse, error)
	Get(ctx context.Context, id string) (TaskResponse, error)
	List(ctx context.Context, filter TaskFilter) ([]TaskResponse, int64, error)
	Update(ctx context.Context, actor user.Actor, req UpdateTaskRequest) (TaskResponse, error)

	// Transition applies tick/untick/approve/reject with the actor's
	// authorization and returns the saved task.
	Transition(ctx context.Context, actor user.Actor, taskID string, action TransitionAction, now time.Time) (TaskResponse, error)

	// SweepDeadlines marks still-pending tasks past their effective deadline
	// as deadline_passed. Idempotent.
	SweepDeadlines(ctx context.Context, now time.Time) (int, error)

	// ArchiveClosedCycles snapshots the closed cycle of every recurring task
	// of the given kind and resets the live row. Idempotent per cycle.
	ArchiveClosedCycles(ctx context.Context, kind TaskKind, now time.Time) (int, error)

	ListCompletions(ctx context.Context, taskID string) ([]TaskCompletion, error)
	ListSubtasks(ctx context.Context, taskID string) ([]Subtask, error)
}
