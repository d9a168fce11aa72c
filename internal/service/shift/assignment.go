package shift

import (
	"context"
	"errors"
	"log/slog"
	"time"

	"github.com/cmlabs-hris/hris-shift-go/internal/domain/employee"
	"github.com/cmlabs-hris/hris-shift-go/internal/domain/shift"
	"github.com/cmlabs-hris/hris-shift-go/internal/domain/user"
	"github.com/cmlabs-hris/hris-shift-go/internal/pkg/idempotency"
	"github.com/cmlabs-hris/hris-shift-go/internal/pkg/validator"
)

// AssignShift implements shift.ShiftService.
func (s *shiftServiceImpl) AssignShift(ctx context.Context, req shift.AssignShiftRequest) (shift.AssignmentResponse, error) {
	if err := req.Validate(); err != nil {
		return shift.AssignmentResponse{}, err
	}

	actor, err := actorFromContext(ctx)
	if err != nil {
		return shift.AssignmentResponse{}, err
	}

	status, err := creationStatus(actor, req.EmployeeID)
	if err != nil {
		return shift.AssignmentResponse{}, err
	}

	if req.IdempotencyKey == "" || s.idempotency == nil {
		created, err := s.assign(ctx, actor, req, status)
		if err != nil {
			return shift.AssignmentResponse{}, err
		}
		return mapAssignmentToResponse(created, s.now()), nil
	}

	key := idempotency.Key("shift-assign", actor.CompanyID, actor.UserID, req.IdempotencyKey)
	existingID, err := s.idempotency.Reserve(ctx, key, s.opts.IdempotencyTTL)
	if err != nil {
		if errors.Is(err, idempotency.ErrInProgress) {
			return shift.AssignmentResponse{}, shift.ErrIdempotencyKeyConflict
		}
		return shift.AssignmentResponse{}, err
	}
	if existingID != "" {
		replayed, err := s.assignmentRepo.GetByID(ctx, existingID, actor.CompanyID)
		if err != nil {
			return shift.AssignmentResponse{}, err
		}
		slog.Info("replayed shift assignment", "assignment_id", existingID, "idempotency_key", req.IdempotencyKey)
		return mapAssignmentToResponse(replayed, s.now()), nil
	}

	created, err := s.assign(ctx, actor, req, status)
	if err != nil {
		if releaseErr := s.idempotency.Release(ctx, key); releaseErr != nil {
			slog.Warn("failed to release idempotency key", "key", key, "error", releaseErr)
		}
		return shift.AssignmentResponse{}, err
	}
	if err := s.idempotency.Complete(ctx, key, created.ID, s.opts.IdempotencyTTL); err != nil {
		slog.Warn("failed to record idempotency key", "key", key, "assignment_id", created.ID, "error", err)
	}
	return mapAssignmentToResponse(created, s.now()), nil
}

// assign runs one validated request. Approved rows are written inside the
// employee's unit of work so the supersede step and the insert are atomic.
func (s *shiftServiceImpl) assign(ctx context.Context, actor user.Actor, req shift.AssignShiftRequest, status shift.ApprovalStatus) (shift.Assignment, error) {
	emp, err := s.employeeRepo.GetByID(ctx, req.EmployeeID, actor.CompanyID)
	if err != nil {
		return shift.Assignment{}, err
	}
	if !emp.IsAssignable() {
		return shift.Assignment{}, employee.ErrEmployeeNotAssignable
	}

	target, err := s.shiftRepo.GetByID(ctx, req.ShiftID, actor.CompanyID)
	if err != nil {
		return shift.Assignment{}, err
	}
	if !target.IsActive {
		return shift.Assignment{}, shift.ErrShiftInactive
	}

	custom := req.ParsedCustomSettings()
	if custom != nil {
		merged := custom.Apply(target)
		if errs := shift.ValidateTiming(merged.StartTime, merged.EndTime, merged.Breaks); len(errs) > 0 {
			return shift.Assignment{}, errs.Prefixed("custom_settings")
		}
	}

	now := s.now()
	from, to := req.Window()
	cutover := now
	if from != nil {
		cutover = *from
	}
	if to != nil && !to.After(cutover) {
		var errs validator.ValidationErrors
		errs.Add("effective_to", "effective_to must be after effective_from")
		return shift.Assignment{}, errs
	}

	newAssignment := shift.Assignment{
		CompanyID:      actor.CompanyID,
		EmployeeID:     emp.ID,
		ShiftID:        target.ID,
		EffectiveFrom:  cutover,
		EffectiveTo:    to,
		CustomSettings: custom,
		ApprovalStatus: status,
		Reason:         shift.AssignmentReason(req.Reason),
		Notes:          req.Notes,
		CreatedBy:      actor.UserID,
	}

	if status == shift.ApprovalPending {
		created, err := s.assignmentRepo.Create(ctx, newAssignment)
		if err != nil {
			return shift.Assignment{}, err
		}
		slog.Info("shift assignment requested",
			"assignment_id", created.ID, "employee_id", emp.ID, "shift_id", target.ID)
		return created, nil
	}

	newAssignment.ApprovedBy = &actor.UserID
	newAssignment.ApprovedAt = &now

	var created shift.Assignment
	err = s.uow.WithinEmployeeLock(ctx, actor.CompanyID, emp.ID, func(ctx context.Context) error {
		end, err := s.supersede(ctx, actor, emp.ID, cutover, newAssignment.EffectiveTo, "")
		if err != nil {
			return err
		}
		newAssignment.EffectiveTo = end

		created, err = s.assignmentRepo.Create(ctx, newAssignment)
		return err
	})
	if err != nil {
		return shift.Assignment{}, err
	}

	slog.Info("shift assigned",
		"assignment_id", created.ID,
		"employee_id", emp.ID,
		"shift_id", target.ID,
		"effective_from", cutover,
		"actor", actor.UserID,
	)
	return created, nil
}

// supersede closes every interval open at cutover and returns the end the
// incoming interval may use: requestedEnd clamped to the next approved start
// so the new row never runs into an already scheduled one. Must run inside
// the employee's unit of work.
func (s *shiftServiceImpl) supersede(ctx context.Context, actor user.Actor, employeeID string, cutover time.Time, requestedEnd *time.Time, excludeID string) (*time.Time, error) {
	open, err := s.assignmentRepo.ListOpenAt(ctx, actor.CompanyID, employeeID, cutover)
	if err != nil {
		return nil, err
	}

	ids := make([]string, 0, len(open))
	for _, a := range open {
		if a.ID != excludeID {
			ids = append(ids, a.ID)
		}
	}
	if len(ids) > 1 {
		slog.Warn("closing more than one open shift assignment",
			"employee_id", employeeID, "assignment_ids", ids, "cutover", cutover)
	}
	if len(ids) > 0 {
		if err := s.assignmentRepo.CloseAt(ctx, actor.CompanyID, ids, cutover, actor.UserID); err != nil {
			return nil, err
		}
	}

	next, err := s.assignmentRepo.NextApprovedStart(ctx, actor.CompanyID, employeeID, cutover, excludeID)
	if err != nil {
		return nil, err
	}
	end := requestedEnd
	if next != nil && (end == nil || next.Before(*end)) {
		end = next
	}
	return end, nil
}

// ApproveAssignment implements shift.ShiftService.
func (s *shiftServiceImpl) ApproveAssignment(ctx context.Context, id string) (shift.AssignmentResponse, error) {
	actor, err := actorFromContext(ctx)
	if err != nil {
		return shift.AssignmentResponse{}, err
	}
	if !actor.Can(user.PermissionShiftApprove) {
		return shift.AssignmentResponse{}, shift.ErrForbidden
	}

	existing, err := s.assignmentRepo.GetByID(ctx, id, actor.CompanyID)
	if err != nil {
		return shift.AssignmentResponse{}, err
	}

	var approved shift.Assignment
	err = s.uow.WithinEmployeeLock(ctx, actor.CompanyID, existing.EmployeeID, func(ctx context.Context) error {
		// Re-read under the lock; a concurrent decision may have landed.
		a, err := s.assignmentRepo.GetByID(ctx, id, actor.CompanyID)
		if err != nil {
			return err
		}
		if a.ApprovalStatus != shift.ApprovalPending {
			return shift.ErrAssignmentNotPending
		}

		emp, err := s.employeeRepo.GetByID(ctx, a.EmployeeID, actor.CompanyID)
		if err != nil {
			return err
		}
		if !emp.IsAssignable() {
			return employee.ErrEmployeeNotAssignable
		}
		target, err := s.shiftRepo.GetByID(ctx, a.ShiftID, actor.CompanyID)
		if err != nil {
			return err
		}
		if !target.IsActive {
			return shift.ErrShiftInactive
		}

		end, err := s.supersede(ctx, actor, a.EmployeeID, a.EffectiveFrom, a.EffectiveTo, a.ID)
		if err != nil {
			return err
		}

		now := s.now()
		a.ApprovalStatus = shift.ApprovalApproved
		a.ApprovedBy = &actor.UserID
		a.ApprovedAt = &now
		a.EffectiveTo = end
		a.UpdatedBy = &actor.UserID

		approved, err = s.assignmentRepo.UpdateDecision(ctx, a)
		return err
	})
	if err != nil {
		return shift.AssignmentResponse{}, err
	}

	slog.Info("shift assignment approved", "assignment_id", approved.ID, "employee_id", approved.EmployeeID, "actor", actor.UserID)
	return mapAssignmentToResponse(approved, s.now()), nil
}

// RejectAssignment implements shift.ShiftService.
func (s *shiftServiceImpl) RejectAssignment(ctx context.Context, req shift.RejectAssignmentRequest) (shift.AssignmentResponse, error) {
	if err := req.Validate(); err != nil {
		return shift.AssignmentResponse{}, err
	}

	actor, err := actorFromContext(ctx)
	if err != nil {
		return shift.AssignmentResponse{}, err
	}
	if !actor.Can(user.PermissionShiftApprove) {
		return shift.AssignmentResponse{}, shift.ErrForbidden
	}

	existing, err := s.assignmentRepo.GetByID(ctx, req.ID, actor.CompanyID)
	if err != nil {
		return shift.AssignmentResponse{}, err
	}

	var rejected shift.Assignment
	err = s.uow.WithinEmployeeLock(ctx, actor.CompanyID, existing.EmployeeID, func(ctx context.Context) error {
		a, err := s.assignmentRepo.GetByID(ctx, req.ID, actor.CompanyID)
		if err != nil {
			return err
		}
		if a.ApprovalStatus != shift.ApprovalPending {
			return shift.ErrAssignmentNotPending
		}

		reason := req.Reason
		a.ApprovalStatus = shift.ApprovalRejected
		a.RejectionReason = &reason
		a.UpdatedBy = &actor.UserID

		rejected, err = s.assignmentRepo.UpdateDecision(ctx, a)
		return err
	})
	if err != nil {
		return shift.AssignmentResponse{}, err
	}

	slog.Info("shift assignment rejected", "assignment_id", rejected.ID, "employee_id", rejected.EmployeeID, "actor", actor.UserID)
	return mapAssignmentToResponse(rejected, s.now()), nil
}
