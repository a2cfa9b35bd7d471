package response

import (
	"errors"
	"net/http"

	"github.com/workforcehq/workforce-backend-go/internal/domain/compensation"
	"github.com/workforcehq/workforce-backend-go/internal/domain/employee"
	"github.com/workforcehq/workforce-backend-go/internal/domain/fine"
	"github.com/workforcehq/workforce-backend-go/internal/domain/project"
	"github.com/workforcehq/workforce-backend-go/internal/domain/task"
	"github.com/workforcehq/workforce-backend-go/internal/domain/user"
	"github.com/workforcehq/workforce-backend-go/internal/pkg/validator"
)

// HandleError maps domain errors to HTTP responses
func HandleError(w http.ResponseWriter, err error) {
	// Check if it's a validation error
	var validationErrs validator.ValidationErrors
	if errors.As(err, &validationErrs) {
		ValidationError(w, validationErrs.ToMap())
		return
	}

	// Field-level authorization carries the offending field
	var fieldErr task.FieldAuthorizationError
	if errors.As(err, &fieldErr) {
		Forbidden(w, "Not allowed to edit this field", map[string]string{
			fieldErr.Field: "requires administrator privileges",
		})
		return
	}

	switch {
	// Authorization
	case errors.Is(err, user.ErrAdminPrivilegeRequired):
		Forbidden(w, "Administrator privileges required", nil)
	case errors.Is(err, user.ErrInvalidActorClaims):
		Unauthorized(w, "Invalid token claims")
	case errors.Is(err, task.ErrEditNotAllowed):
		Forbidden(w, "Not allowed to edit this task", nil)

	// Not found
	case errors.Is(err, task.ErrTaskNotFound):
		NotFound(w, "Task not found")
	case errors.Is(err, employee.ErrEmployeeNotFound):
		NotFound(w, "Employee not found")
	case errors.Is(err, project.ErrProjectNotFound):
		NotFound(w, "Project not found")
	case errors.Is(err, fine.ErrFineNotFound):
		NotFound(w, "Custom fine not found")
	case errors.Is(err, fine.ErrFineRecordNotFound):
		NotFound(w, "Fine record not found")
	case errors.Is(err, compensation.ErrRecordNotFound):
		NotFound(w, "Compensation record not found")

	// State conflicts
	case errors.Is(err, task.ErrVersionConflict):
		Conflict(w, "Task was modified concurrently, retry the update")
	case errors.Is(err, task.ErrApprovalNotPending):
		Conflict(w, "Task approval is not pending")
	case errors.Is(err, task.ErrApprovalAlreadyResolved):
		Conflict(w, "Task approval was already resolved")

	// Bad requests
	case errors.Is(err, task.ErrSubtasksIncomplete):
		BadRequest(w, "All subtasks must be completed first", nil)
	case errors.Is(err, task.ErrUnknownAction):
		BadRequest(w, "Unknown transition action", nil)
	case errors.Is(err, fine.ErrFineInactive):
		BadRequest(w, "Custom fine is inactive", nil)
	case errors.Is(err, compensation.ErrInvalidPeriod):
		BadRequest(w, "Period must be 'monthly' or 'weekly'", nil)

	// Default
	default:
		InternalServerError(w, "An unexpected error occurred")
	}
}
