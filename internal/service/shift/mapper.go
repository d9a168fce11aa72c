package shift

import (
	"fmt"
	"time"

	"github.com/cmlabs-hris/hris-shift-go/internal/domain/shift"
)

func formatTime(t time.Time) string {
	return t.UTC().Format(time.RFC3339)
}

func formatTimePtr(t *time.Time) *string {
	if t == nil {
		return nil
	}
	s := formatTime(*t)
	return &s
}

func mapShiftToResponse(s shift.Shift) shift.ShiftResponse {
	breaks := s.Breaks
	if breaks == nil {
		breaks = []shift.Break{}
	}
	days := s.WorkingDays
	if days == nil {
		days = []shift.Weekday{}
	}

	return shift.ShiftResponse{
		ID:                  s.ID,
		CompanyID:           s.CompanyID,
		Code:                s.Code,
		Name:                s.Name,
		Description:         s.Description,
		StartTime:           s.StartTime.String(),
		EndTime:             s.EndTime.String(),
		IsOvernight:         s.IsOvernight(),
		Breaks:              breaks,
		WorkingDays:         days,
		Flexibility:         s.Flexibility,
		Overtime:            s.Overtime,
		Location:            s.Location,
		HolidayPolicy:       s.HolidayPolicy,
		TotalBreakMinutes:   s.TotalBreakMinutes(),
		TotalWorkingMinutes: s.TotalWorkingMinutes(),
		TotalWorkingHours:   s.TotalWorkingHours(),
		IsActive:            s.IsActive,
		IsDefault:           s.IsDefault,
		CreatedBy:           s.CreatedBy,
		UpdatedBy:           s.UpdatedBy,
		CreatedAt:           formatTime(s.CreatedAt),
		UpdatedAt:           formatTime(s.UpdatedAt),
	}
}

// mapAssignmentToResponse renders a row together with its state at asOf.
func mapAssignmentToResponse(a shift.Assignment, asOf time.Time) shift.AssignmentResponse {
	state := a.StateAt(asOf)

	status := a.ApprovalStatus
	if status == "" {
		status = shift.ApprovalApproved
	}

	return shift.AssignmentResponse{
		ID:              a.ID,
		EmployeeID:      a.EmployeeID,
		EmployeeName:    a.EmployeeName,
		EmployeeCode:    a.EmployeeCode,
		ShiftID:         a.ShiftID,
		ShiftCode:       a.ShiftCode,
		ShiftName:       a.ShiftName,
		EffectiveFrom:   formatTime(a.EffectiveFrom),
		EffectiveTo:     formatTimePtr(a.EffectiveTo),
		State:           state.Kind,
		ClosedAt:        formatTimePtr(state.ClosedAt),
		ApprovalStatus:  status,
		ApprovedBy:      a.ApprovedBy,
		ApprovedAt:      formatTimePtr(a.ApprovedAt),
		RejectionReason: a.RejectionReason,
		Reason:          string(a.Reason),
		Notes:           a.Notes,
		CustomSettings:  a.CustomSettings,
		CreatedBy:       a.CreatedBy,
		UpdatedBy:       a.UpdatedBy,
		CreatedAt:       formatTime(a.CreatedAt),
		UpdatedAt:       formatTime(a.UpdatedAt),
	}
}

func mapAssignments(rows []shift.Assignment, asOf time.Time) []shift.AssignmentResponse {
	out := make([]shift.AssignmentResponse, 0, len(rows))
	for _, a := range rows {
		out = append(out, mapAssignmentToResponse(a, asOf))
	}
	return out
}

// calculateShowingText generates the "showing X-Y of Z results" text
func calculateShowingText(page, limit int, total int64) string {
	if total == 0 {
		return "0-0 of 0 results"
	}

	start := (page-1)*limit + 1
	end := start + limit - 1

	if end > int(total) {
		end = int(total)
	}

	return fmt.Sprintf("%d-%d of %d results", start, end, total)
}
