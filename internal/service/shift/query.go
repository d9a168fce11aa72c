package shift

import (
	"context"
	"errors"
	"log/slog"
	"math"
	"time"

	"github.com/cmlabs-hris/hris-shift-go/internal/domain/shift"
	"github.com/cmlabs-hris/hris-shift-go/internal/domain/user"
)

const (
	sourceAssignment = "assignment"
	sourceDefault    = "default"
)

// GetAssignment implements shift.ShiftService.
func (s *shiftServiceImpl) GetAssignment(ctx context.Context, id string) (shift.AssignmentResponse, error) {
	actor, err := actorFromContext(ctx)
	if err != nil {
		return shift.AssignmentResponse{}, err
	}

	a, err := s.assignmentRepo.GetByID(ctx, id, actor.CompanyID)
	if err != nil {
		return shift.AssignmentResponse{}, err
	}
	if !canView(actor, a.EmployeeID) {
		return shift.AssignmentResponse{}, shift.ErrForbidden
	}
	return mapAssignmentToResponse(a, s.now()), nil
}

// GetCurrentAssignment implements shift.ShiftService.
func (s *shiftServiceImpl) GetCurrentAssignment(ctx context.Context, employeeID string, asOf *string) (shift.AssignmentResponse, error) {
	actor, err := actorFromContext(ctx)
	if err != nil {
		return shift.AssignmentResponse{}, err
	}
	if !canView(actor, employeeID) {
		return shift.AssignmentResponse{}, shift.ErrForbidden
	}

	at, err := shift.ParseAsOf(asOf, s.now())
	if err != nil {
		return shift.AssignmentResponse{}, err
	}

	if _, err := s.employeeRepo.GetByID(ctx, employeeID, actor.CompanyID); err != nil {
		return shift.AssignmentResponse{}, err
	}

	current, err := s.currentAt(ctx, actor.CompanyID, employeeID, at)
	if err != nil {
		return shift.AssignmentResponse{}, err
	}
	return mapAssignmentToResponse(current, at), nil
}

// currentAt resolves the one assignment in force at the instant. Every row
// of the employee is read so legacy rows whose is_active flag contradicts
// their dates get reported even when the dates rule them out.
func (s *shiftServiceImpl) currentAt(ctx context.Context, companyID, employeeID string, at time.Time) (shift.Assignment, error) {
	rows, err := s.assignmentRepo.ListByEmployee(ctx, companyID, employeeID)
	if err != nil {
		return shift.Assignment{}, err
	}

	var open []shift.Assignment
	for _, a := range rows {
		if a.Ambiguous(at) {
			slog.Warn("legacy is_active flag disagrees with effective dates, dates win",
				"employee_id", employeeID,
				"assignment_id", a.ID,
				"is_active", *a.LegacyActive,
				"effective_to", a.EffectiveTo,
				"as_of", at,
			)
		}
		if a.StateAt(at).IsOpen() {
			open = append(open, a)
		}
	}
	return pickCurrent(employeeID, open, at)
}

// pickCurrent chooses among rows open at the same instant. The most recently
// created row wins; more than one candidate means old and new data disagree,
// which is logged rather than hidden.
func pickCurrent(employeeID string, open []shift.Assignment, at time.Time) (shift.Assignment, error) {
	if len(open) == 0 {
		return shift.Assignment{}, shift.ErrNoCurrentAssignment
	}

	winner := open[0]
	for _, a := range open[1:] {
		if a.CreatedAt.After(winner.CreatedAt) {
			winner = a
		}
	}

	if len(open) > 1 {
		ids := make([]string, 0, len(open))
		for _, a := range open {
			ids = append(ids, a.ID)
		}
		slog.Warn("multiple shift assignments in force, newest wins",
			"employee_id", employeeID,
			"as_of", at,
			"candidates", ids,
			"chosen", winner.ID,
		)
	}
	return winner, nil
}

// GetEffectiveShift implements shift.ShiftService. It answers which rules
// apply to the employee at an instant: the assigned shift with any overrides,
// or the company default when nothing is assigned.
func (s *shiftServiceImpl) GetEffectiveShift(ctx context.Context, query shift.EffectiveShiftQuery) (shift.EffectiveShiftResponse, error) {
	if err := query.Validate(); err != nil {
		return shift.EffectiveShiftResponse{}, err
	}

	actor, err := actorFromContext(ctx)
	if err != nil {
		return shift.EffectiveShiftResponse{}, err
	}
	if !canView(actor, query.EmployeeID) {
		return shift.EffectiveShiftResponse{}, shift.ErrForbidden
	}

	at, err := shift.ParseAsOf(query.AsOf, s.now())
	if err != nil {
		return shift.EffectiveShiftResponse{}, err
	}

	if _, err := s.employeeRepo.GetByID(ctx, query.EmployeeID, actor.CompanyID); err != nil {
		return shift.EffectiveShiftResponse{}, err
	}

	resp := shift.EffectiveShiftResponse{
		EmployeeID: query.EmployeeID,
		AsOf:       formatTime(at),
	}

	var effective shift.Shift
	current, err := s.currentAt(ctx, actor.CompanyID, query.EmployeeID, at)
	switch {
	case err == nil:
		assigned, err := s.shiftRepo.GetByID(ctx, current.ShiftID, actor.CompanyID)
		if err != nil {
			return shift.EffectiveShiftResponse{}, err
		}
		if err := s.resolveDefault(ctx, actor.CompanyID, &assigned); err != nil {
			return shift.EffectiveShiftResponse{}, err
		}
		effective = current.CustomSettings.Apply(assigned)
		resp.Source = sourceAssignment
		resp.AssignmentID = &current.ID
	case errors.Is(err, shift.ErrNoCurrentAssignment):
		def, err := s.defaultShift(ctx, actor.CompanyID)
		if err != nil {
			if errors.Is(err, shift.ErrNoDefaultShift) {
				return shift.EffectiveShiftResponse{}, shift.ErrNoCurrentAssignment
			}
			return shift.EffectiveShiftResponse{}, err
		}
		effective = def
		resp.Source = sourceDefault
	default:
		return shift.EffectiveShiftResponse{}, err
	}

	// An overnight window that started yesterday still governs the early
	// hours of today.
	day := time.Date(at.Year(), at.Month(), at.Day(), 0, 0, 0, 0, at.Location())
	if effective.IsOvernight() {
		prevStart, prevEnd := effective.WindowOn(day.AddDate(0, 0, -1))
		if !at.Before(prevStart) && at.Before(prevEnd) {
			day = day.AddDate(0, 0, -1)
		}
	}
	start, end := effective.WindowOn(day)

	resp.Shift = mapShiftToResponse(effective)
	resp.IsWorkingDay = effective.WorksOn(day)
	resp.WindowStart = formatTime(start)
	resp.WindowEnd = formatTime(end)

	if query.Latitude != nil && query.Longitude != nil && effective.Location.Geofence != nil {
		within := effective.Location.Geofence.Contains(*query.Latitude, *query.Longitude)
		resp.WithinGeofence = &within
	}
	return resp, nil
}

// GetAssignmentHistory implements shift.ShiftService.
func (s *shiftServiceImpl) GetAssignmentHistory(ctx context.Context, employeeID string) (shift.AssignmentHistoryResponse, error) {
	actor, err := actorFromContext(ctx)
	if err != nil {
		return shift.AssignmentHistoryResponse{}, err
	}
	if !canView(actor, employeeID) {
		return shift.AssignmentHistoryResponse{}, shift.ErrForbidden
	}

	rows, err := s.assignmentRepo.ListByEmployee(ctx, actor.CompanyID, employeeID)
	if err != nil {
		return shift.AssignmentHistoryResponse{}, err
	}

	return shift.AssignmentHistoryResponse{
		EmployeeID:  employeeID,
		Assignments: mapAssignments(rows, s.now()),
	}, nil
}

// ListAssignments implements shift.ShiftService. Callers without the
// view-all permission only ever see their own rows.
func (s *shiftServiceImpl) ListAssignments(ctx context.Context, filter shift.AssignmentFilter) (shift.ListAssignmentResponse, error) {
	if err := filter.Validate(); err != nil {
		return shift.ListAssignmentResponse{}, err
	}

	actor, err := actorFromContext(ctx)
	if err != nil {
		return shift.ListAssignmentResponse{}, err
	}
	if !actor.Can(user.PermissionShiftViewAll) {
		if !actor.Can(user.PermissionShiftViewOwn) || actor.EmployeeID == nil {
			return shift.ListAssignmentResponse{}, shift.ErrForbidden
		}
		if filter.EmployeeID != nil && *filter.EmployeeID != *actor.EmployeeID {
			return shift.ListAssignmentResponse{}, shift.ErrForbidden
		}
		filter.EmployeeID = actor.EmployeeID
	}

	now := s.now()
	rows, total, err := s.assignmentRepo.List(ctx, actor.CompanyID, filter, now)
	if err != nil {
		return shift.ListAssignmentResponse{}, err
	}

	return shift.ListAssignmentResponse{
		TotalCount:  total,
		Page:        filter.Page,
		Limit:       filter.Limit,
		TotalPages:  int(math.Ceil(float64(total) / float64(filter.Limit))),
		Showing:     calculateShowingText(filter.Page, filter.Limit, total),
		Assignments: mapAssignments(rows, now),
	}, nil
}

// ListEmployeesOnShift implements shift.ShiftService.
func (s *shiftServiceImpl) ListEmployeesOnShift(ctx context.Context, shiftID string, activeOnly bool) (shift.EmployeesOnShiftResponse, error) {
	actor, err := actorFromContext(ctx)
	if err != nil {
		return shift.EmployeesOnShiftResponse{}, err
	}
	if !actor.Can(user.PermissionShiftViewAll) {
		return shift.EmployeesOnShiftResponse{}, shift.ErrForbidden
	}

	if _, err := s.shiftRepo.GetByID(ctx, shiftID, actor.CompanyID); err != nil {
		return shift.EmployeesOnShiftResponse{}, err
	}

	now := s.now()
	rows, err := s.assignmentRepo.ListByShift(ctx, actor.CompanyID, shiftID, activeOnly, now)
	if err != nil {
		return shift.EmployeesOnShiftResponse{}, err
	}

	return shift.EmployeesOnShiftResponse{
		ShiftID:     shiftID,
		ActiveOnly:  activeOnly,
		Count:       len(rows),
		Assignments: mapAssignments(rows, now),
	}, nil
}
