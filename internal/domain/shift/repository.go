package shift

import (
	"context"
	"time"
)

type ShiftRepository interface {
	Create(ctx context.Context, s Shift) (Shift, error)
	GetByID(ctx context.Context, id, companyID string) (Shift, error)
	GetByCode(ctx context.Context, companyID, code string) (Shift, error)
	List(ctx context.Context, companyID string, filter ShiftFilter) ([]Shift, int64, error)
	Update(ctx context.Context, s Shift) (Shift, error)
	SoftDelete(ctx context.Context, id, companyID string) error
}

// SettingsRepository holds the per-company default shift pointer.
type SettingsRepository interface {
	GetDefaultShiftID(ctx context.Context, companyID string) (*string, error)
	SetDefaultShiftID(ctx context.Context, companyID string, shiftID *string, updatedBy string) error
	// ClearDefaultIf unsets the pointer only while it still names shiftID.
	ClearDefaultIf(ctx context.Context, companyID, shiftID, updatedBy string) error
}

type AssignmentRepository interface {
	Create(ctx context.Context, a Assignment) (Assignment, error)
	GetByID(ctx context.Context, id, companyID string) (Assignment, error)

	// ListByEmployee returns every row, newest effective_from first.
	ListByEmployee(ctx context.Context, companyID, employeeID string) ([]Assignment, error)
	// ListOpenAt returns the approved or legacy rows covering at.
	ListOpenAt(ctx context.Context, companyID, employeeID string, at time.Time) ([]Assignment, error)
	// NextApprovedStart is the earliest effective_from strictly after at
	// among approved rows, excluding excludeID.
	NextApprovedStart(ctx context.Context, companyID, employeeID string, at time.Time, excludeID string) (*time.Time, error)
	// CloseAt ends the given rows at at and drops their legacy flag. A row
	// starting at or after at is marked superseded instead, so no stored
	// interval is ever empty.
	CloseAt(ctx context.Context, companyID string, ids []string, at time.Time, updatedBy string) error
	// UpdateDecision persists approval fields and the interval end.
	UpdateDecision(ctx context.Context, a Assignment) (Assignment, error)

	List(ctx context.Context, companyID string, filter AssignmentFilter, asOf time.Time) ([]Assignment, int64, error)
	ListByShift(ctx context.Context, companyID, shiftID string, activeOnly bool, asOf time.Time) ([]Assignment, error)
	CountBlocking(ctx context.Context, companyID, shiftID string, now time.Time) (int64, error)
}

// UnitOfWork serialises work on one employee's assignments. Repository calls
// made with the ctx passed to fn take part in the same unit.
type UnitOfWork interface {
	WithinEmployeeLock(ctx context.Context, companyID, employeeID string, fn func(ctx context.Context) error) error
}
