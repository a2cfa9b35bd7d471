package task

import (
	"context"
)

type TaskFilter struct {
	AssigneeID *string
	ProjectID  *string
	Kind       *TaskKind
	Status     *TaskStatus
	Page       int
	Limit      int
}

type TaskRepository interface {
	Create(ctx context.Context, t Task) (Task, error)
	GetByID(ctx context.Context, id string) (Task, error)
	List(ctx context.Context, filter TaskFilter) ([]Task, int64, error)

	// UpdateVersioned saves the task only if the stored version still matches
	// t.Version, bumping it on success. Returns ErrVersionConflict otherwise.
	UpdateVersioned(ctx context.Context, t Task) (Task, error)

	// ListRecurring returns live tasks of the given recurring kind.
	ListRecurring(ctx context.Context, kind TaskKind) ([]Task, error)

	// ListPendingApproval returns tasks whose approval is still pending,
	// for the deadline sweep.
	ListPendingApproval(ctx context.Context) ([]Task, error)
}

type TaskCompletionRepository interface {
	// InsertIfAbsent writes the snapshot unless one already exists for
	// (TaskID, CycleDate). Reports whether a row exists after the call,
	// so a lost duplicate race still confirms the archive.
	InsertIfAbsent(ctx context.Context, c TaskCompletion) (bool, error)
	ListByTask(ctx context.Context, taskID string) ([]TaskCompletion, error)
}

type SubtaskRepository interface {
	ListByTask(ctx context.Context, taskID string) ([]Subtask, error)
	AllCompleted(ctx context.Context, taskID string) (bool, error)
}
