package shift

import "context"

type ShiftService interface {
	// Shift Catalog
	CreateShift(ctx context.Context, req CreateShiftRequest) (ShiftResponse, error)
	UpdateShift(ctx context.Context, req UpdateShiftRequest) (ShiftResponse, error)
	DeleteShift(ctx context.Context, id string) error
	GetShift(ctx context.Context, id string) (ShiftResponse, error)
	ListShifts(ctx context.Context, filter ShiftFilter) (ListShiftResponse, error)
	GetDefaultShift(ctx context.Context) (ShiftResponse, error)
	SeedDefaultShifts(ctx context.Context) ([]ShiftResponse, error)

	// Assignment Lifecycle
	AssignShift(ctx context.Context, req AssignShiftRequest) (AssignmentResponse, error)
	BulkAssign(ctx context.Context, req BulkAssignRequest) (BulkAssignResponse, error)
	ApproveAssignment(ctx context.Context, id string) (AssignmentResponse, error)
	RejectAssignment(ctx context.Context, req RejectAssignmentRequest) (AssignmentResponse, error)

	// Temporal Queries
	GetAssignment(ctx context.Context, id string) (AssignmentResponse, error)
	GetCurrentAssignment(ctx context.Context, employeeID string, asOf *string) (AssignmentResponse, error)
	GetEffectiveShift(ctx context.Context, query EffectiveShiftQuery) (EffectiveShiftResponse, error)
	GetAssignmentHistory(ctx context.Context, employeeID string) (AssignmentHistoryResponse, error)
	ListAssignments(ctx context.Context, filter AssignmentFilter) (ListAssignmentResponse, error)
	ListEmployeesOnShift(ctx context.Context, shiftID string, activeOnly bool) (EmployeesOnShiftResponse, error)
}
