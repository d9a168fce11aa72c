package shift

import (
	"context"
	"errors"
	"log/slog"
	"time"

	"github.com/cmlabs-hris/hris-shift-go/internal/domain/employee"
	"github.com/cmlabs-hris/hris-shift-go/internal/domain/shift"
	"github.com/cmlabs-hris/hris-shift-go/internal/domain/user"
	"github.com/cmlabs-hris/hris-shift-go/internal/pkg/validator"
	"golang.org/x/sync/errgroup"
)

const (
	bulkErrNotFound      = "not_found"
	bulkErrValidation    = "validation_error"
	bulkErrConflict      = "conflict"
	bulkErrNotAssignable = "not_assignable"
	bulkErrInternal      = "internal_error"
)

type bulkOutcome struct {
	result *shift.AssignmentResponse
	err    *shift.BulkAssignError
}

// BulkAssign implements shift.ShiftService. Each employee is assigned on its
// own; a failure is reported against that employee and the rest carry on.
func (s *shiftServiceImpl) BulkAssign(ctx context.Context, req shift.BulkAssignRequest) (shift.BulkAssignResponse, error) {
	if err := req.Validate(s.opts.BulkMax); err != nil {
		return shift.BulkAssignResponse{}, err
	}

	actor, err := actorFromContext(ctx)
	if err != nil {
		return shift.BulkAssignResponse{}, err
	}
	if !actor.Can(user.PermissionShiftAssign) {
		return shift.BulkAssignResponse{}, shift.ErrForbidden
	}

	// One cutover for the whole batch, even when it spans the clock tick.
	if req.EffectiveFrom == nil || validator.IsEmpty(*req.EffectiveFrom) {
		cutover := s.now().Format(time.RFC3339Nano)
		req.EffectiveFrom = &cutover
	}

	outcomes := make([]bulkOutcome, len(req.EmployeeIDs))
	seen := make(map[string]int, len(req.EmployeeIDs))

	g := new(errgroup.Group)
	g.SetLimit(s.opts.BulkWorkers)

	for i, employeeID := range req.EmployeeIDs {
		if first, dup := seen[employeeID]; dup {
			outcomes[i].err = &shift.BulkAssignError{
				Index:      i,
				EmployeeID: employeeID,
				Code:       bulkErrValidation,
				Message:    "duplicate employee id, already listed at index " + validator.Itoa(first),
			}
			continue
		}
		seen[employeeID] = i

		g.Go(func() error {
			single := req.ForEmployee(employeeID)
			if err := single.Validate(); err != nil {
				outcomes[i].err = bulkError(i, employeeID, err)
				return nil
			}
			created, err := s.assign(ctx, actor, single, shift.ApprovalApproved)
			if err != nil {
				outcomes[i].err = bulkError(i, employeeID, err)
				return nil
			}
			res := mapAssignmentToResponse(created, s.now())
			outcomes[i].result = &res
			return nil
		})
	}
	// Workers never return an error; failures live in outcomes.
	_ = g.Wait()

	resp := shift.BulkAssignResponse{
		Total:   len(req.EmployeeIDs),
		Results: make([]shift.AssignmentResponse, 0, len(req.EmployeeIDs)),
		Errors:  make([]shift.BulkAssignError, 0),
	}
	for _, o := range outcomes {
		if o.result != nil {
			resp.Results = append(resp.Results, *o.result)
		} else {
			resp.Errors = append(resp.Errors, *o.err)
		}
	}
	resp.Succeeded = len(resp.Results)
	resp.Failed = len(resp.Errors)

	slog.Info("bulk shift assignment finished",
		"company_id", actor.CompanyID,
		"shift_id", req.ShiftID,
		"total", resp.Total,
		"succeeded", resp.Succeeded,
		"failed", resp.Failed,
	)
	return resp, nil
}

func bulkError(index int, employeeID string, err error) *shift.BulkAssignError {
	code := bulkErrInternal
	message := err.Error()

	var validationErrs validator.ValidationErrors
	switch {
	case errors.Is(err, employee.ErrEmployeeNotFound),
		errors.Is(err, shift.ErrShiftNotFound):
		code = bulkErrNotFound
	case errors.Is(err, employee.ErrEmployeeNotAssignable),
		errors.Is(err, shift.ErrShiftInactive):
		code = bulkErrNotAssignable
	case errors.Is(err, shift.ErrOverlappingAssignment):
		code = bulkErrConflict
	case errors.As(err, &validationErrs):
		code = bulkErrValidation
	default:
		slog.Error("bulk shift assignment item failed", "employee_id", employeeID, "error", err)
		message = "failed to assign shift"
	}

	return &shift.BulkAssignError{
		Index:      index,
		EmployeeID: employeeID,
		Code:       code,
		Message:    message,
	}
}
