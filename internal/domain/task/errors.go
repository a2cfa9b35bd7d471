package task

import "errors"

var (
	ErrTaskNotFound            = errors.New("task not found")
	ErrSubtasksIncomplete      = errors.New("all subtasks must be completed first")
	ErrApprovalNotPending      = errors.New("task approval is not pending")
	ErrApprovalAlreadyResolved = errors.New("task approval already resolved for this cycle")
	ErrVersionConflict         = errors.New("task was modified concurrently, refresh and retry")
	ErrUnknownAction           = errors.New("unknown transition action")
	ErrEditNotAllowed          = errors.New("not authorized to edit this task")
)

// FieldAuthorizationError reports an edit attempt on a field the actor may
// not touch, even when the actor may edit the task otherwise.
type FieldAuthorizationError struct {
	Field string
}

func (e FieldAuthorizationError) Error() string {
	return "not authorized to edit field: " + e.Field
}
