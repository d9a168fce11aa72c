package response

import (
	"encoding/json"
	"errors"
	"io"
	"log/slog"
	"net/http"
	"strconv"

	"github.com/cmlabs-hris/hris-shift-go/internal/domain/auth"
	"github.com/cmlabs-hris/hris-shift-go/internal/domain/employee"
	"github.com/cmlabs-hris/hris-shift-go/internal/domain/shift"
	"github.com/cmlabs-hris/hris-shift-go/internal/domain/user"
	"github.com/cmlabs-hris/hris-shift-go/internal/pkg/validator"
)

// HandleError maps domain errors to HTTP responses
func HandleError(w http.ResponseWriter, err error) {
	// Check if it's a validation error
	var validationErrs validator.ValidationErrors
	if errors.As(err, &validationErrs) {
		ValidationError(w, validationErrs.ToMap())
		return
	}

	// Malformed request bodies
	var syntaxErr *json.SyntaxError
	var typeErr *json.UnmarshalTypeError
	if errors.As(err, &syntaxErr) || errors.As(err, &typeErr) ||
		errors.Is(err, io.EOF) || errors.Is(err, io.ErrUnexpectedEOF) {
		BadRequest(w, "Invalid request body", nil)
		return
	}

	var inUse *shift.ShiftInUseError
	if errors.As(err, &inUse) {
		BadRequest(w, "Shift is still assigned to employees", map[string]string{
			"blocking_assignments": strconv.FormatInt(inUse.Count, 10),
		})
		return
	}

	switch {
	// Auth errors
	case errors.Is(err, auth.ErrInvalidToken):
		Unauthorized(w, "Invalid or expired token")
	case errors.Is(err, auth.ErrTokenExpired):
		Unauthorized(w, "Token expired")
	case errors.Is(err, shift.ErrMissingActor):
		Unauthorized(w, "Missing caller identity")
	case errors.Is(err, user.ErrCompanyIDRequired):
		Forbidden(w, "Company membership required")
	case errors.Is(err, shift.ErrForbidden):
		Forbidden(w, err.Error())

	// Employee domain errors
	case errors.Is(err, employee.ErrEmployeeNotFound):
		NotFound(w, "Employee not found")
	case errors.Is(err, employee.ErrEmployeeNotAssignable):
		BadRequest(w, "Employee is not active", nil)

	// Shift catalog errors
	case errors.Is(err, shift.ErrShiftNotFound):
		NotFound(w, "Shift not found")
	case errors.Is(err, shift.ErrNoDefaultShift):
		NotFound(w, "No default shift configured")
	case errors.Is(err, shift.ErrShiftCodeExists):
		Conflict(w, "Shift code already exists")
	case errors.Is(err, shift.ErrShiftInactive):
		BadRequest(w, "Shift is inactive", nil)

	// Assignment errors
	case errors.Is(err, shift.ErrAssignmentNotFound):
		NotFound(w, "Shift assignment not found")
	case errors.Is(err, shift.ErrNoCurrentAssignment):
		NotFound(w, "No shift assignment in force")
	case errors.Is(err, shift.ErrAssignmentNotPending):
		Conflict(w, "Shift assignment already processed")
	case errors.Is(err, shift.ErrOverlappingAssignment):
		Conflict(w, "Overlapping shift assignment, retry the request")
	case errors.Is(err, shift.ErrIdempotencyKeyConflict):
		Conflict(w, "A request with this Idempotency-Key is still in progress")

	// Default
	default:
		slog.Error("unhandled error", "error", err)
		InternalServerError(w, "An unexpected error occurred")
	}
}
