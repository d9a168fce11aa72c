package shift

import (
	"errors"
	"fmt"
)

var (
	// Shift Errors
	ErrShiftNotFound   = errors.New("shift not found")
	ErrShiftCodeExists = errors.New("shift with this code already exists")
	ErrShiftInactive   = errors.New("shift is inactive")
	ErrShiftInUse      = errors.New("shift is referenced by open assignments")
	ErrNoDefaultShift  = errors.New("no default shift configured")

	// Assignment Errors
	ErrAssignmentNotFound     = errors.New("shift assignment not found")
	ErrNoCurrentAssignment    = errors.New("no shift assignment in force for employee")
	ErrAssignmentNotPending   = errors.New("shift assignment is not pending")
	ErrOverlappingAssignment  = errors.New("overlapping shift assignment detected")
	ErrIdempotencyKeyConflict = errors.New("a request with this idempotency key is still in progress")

	// Actor Errors
	ErrMissingActor = errors.New("actor identity missing from request context")
	ErrForbidden    = errors.New("not allowed to act on this employee's shift")
)

// ShiftInUseError carries the number of assignments blocking a delete.
type ShiftInUseError struct {
	ShiftID string
	Count   int64
}

func (e *ShiftInUseError) Error() string {
	return fmt.Sprintf("shift %s is referenced by %d open assignment(s)", e.ShiftID, e.Count)
}

func (e *ShiftInUseError) Is(target error) bool {
	return target == ErrShiftInUse
}
