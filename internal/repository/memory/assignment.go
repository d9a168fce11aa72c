package memory

import (
	"context"
	"time"

	"github.com/cmlabs-hris/hris-shift-go/internal/domain/shift"
)

type assignmentRepositoryImpl struct {
	db *DB
}

func NewAssignmentRepository(db *DB) shift.AssignmentRepository {
	return &assignmentRepositoryImpl{db: db}
}

// Create implements shift.AssignmentRepository.
func (r *assignmentRepositoryImpl) Create(ctx context.Context, a shift.Assignment) (shift.Assignment, error) {
	r.db.mu.Lock()
	defer r.db.mu.Unlock()

	// Mirrors the exclusion constraint, which only covers explicitly
	// approved rows.
	if a.ApprovalStatus == shift.ApprovalApproved {
		for _, other := range r.db.assignments {
			if other.CompanyID == a.CompanyID && other.EmployeeID == a.EmployeeID &&
				other.ApprovalStatus == shift.ApprovalApproved && other.Overlaps(a) {
				return shift.Assignment{}, shift.ErrOverlappingAssignment
			}
		}
	}

	if a.ID == "" {
		a.ID = newID()
	}
	ts := now()
	if a.CreatedAt.IsZero() {
		a.CreatedAt = ts
	}
	a.UpdatedAt = ts
	r.db.track(ctx, a.ID)
	r.db.seq++
	r.db.assignments[a.ID] = storedAssignment{Assignment: a, seq: r.db.seq}
	return r.db.decorate(a), nil
}

// GetByID implements shift.AssignmentRepository.
func (r *assignmentRepositoryImpl) GetByID(ctx context.Context, id, companyID string) (shift.Assignment, error) {
	r.db.mu.RLock()
	defer r.db.mu.RUnlock()

	a, ok := r.db.assignments[id]
	if !ok || a.CompanyID != companyID {
		return shift.Assignment{}, shift.ErrAssignmentNotFound
	}
	return r.db.decorate(a.Assignment), nil
}

func (r *assignmentRepositoryImpl) collect(match func(a storedAssignment) bool) []storedAssignment {
	var rows []storedAssignment
	for _, a := range r.db.assignments {
		if match(a) {
			rows = append(rows, a)
		}
	}
	sortHistory(rows)
	return rows
}

// ListByEmployee implements shift.AssignmentRepository.
func (r *assignmentRepositoryImpl) ListByEmployee(ctx context.Context, companyID, employeeID string) ([]shift.Assignment, error) {
	r.db.mu.RLock()
	defer r.db.mu.RUnlock()

	rows := r.collect(func(a storedAssignment) bool {
		return a.CompanyID == companyID && a.EmployeeID == employeeID
	})
	return r.db.unwrap(rows), nil
}

// ListOpenAt implements shift.AssignmentRepository.
func (r *assignmentRepositoryImpl) ListOpenAt(ctx context.Context, companyID, employeeID string, at time.Time) ([]shift.Assignment, error) {
	r.db.mu.RLock()
	defer r.db.mu.RUnlock()

	rows := r.collect(func(a storedAssignment) bool {
		return a.CompanyID == companyID && a.EmployeeID == employeeID && a.StateAt(at).IsOpen()
	})
	return r.db.unwrap(rows), nil
}

// NextApprovedStart implements shift.AssignmentRepository.
func (r *assignmentRepositoryImpl) NextApprovedStart(ctx context.Context, companyID, employeeID string, at time.Time, excludeID string) (*time.Time, error) {
	r.db.mu.RLock()
	defer r.db.mu.RUnlock()

	var next *time.Time
	for _, a := range r.db.assignments {
		if a.CompanyID != companyID || a.EmployeeID != employeeID || a.ID == excludeID {
			continue
		}
		if !a.IsApproved() || a.IsVoid() || !a.EffectiveFrom.After(at) {
			continue
		}
		if next == nil || a.EffectiveFrom.Before(*next) {
			from := a.EffectiveFrom
			next = &from
		}
	}
	return next, nil
}

// CloseAt implements shift.AssignmentRepository.
func (r *assignmentRepositoryImpl) CloseAt(ctx context.Context, companyID string, ids []string, at time.Time, updatedBy string) error {
	r.db.mu.Lock()
	defer r.db.mu.Unlock()

	ts := now()
	for _, id := range ids {
		a, ok := r.db.assignments[id]
		if !ok || a.CompanyID != companyID {
			return shift.ErrAssignmentNotFound
		}
		r.db.track(ctx, id)
		if a.EffectiveFrom.Before(at) {
			end := at
			a.EffectiveTo = &end
		} else {
			a.ApprovalStatus = shift.ApprovalSuperseded
		}
		a.LegacyActive = nil
		by := updatedBy
		a.UpdatedBy = &by
		a.UpdatedAt = ts
		r.db.assignments[id] = a
	}
	return nil
}

// UpdateDecision implements shift.AssignmentRepository.
func (r *assignmentRepositoryImpl) UpdateDecision(ctx context.Context, a shift.Assignment) (shift.Assignment, error) {
	r.db.mu.Lock()
	defer r.db.mu.Unlock()

	stored, ok := r.db.assignments[a.ID]
	if !ok || stored.CompanyID != a.CompanyID {
		return shift.Assignment{}, shift.ErrAssignmentNotFound
	}

	if a.ApprovalStatus == shift.ApprovalApproved {
		candidate := stored.Assignment
		candidate.EffectiveTo = a.EffectiveTo
		for id, other := range r.db.assignments {
			if id == a.ID || other.CompanyID != a.CompanyID || other.EmployeeID != stored.EmployeeID {
				continue
			}
			if other.ApprovalStatus == shift.ApprovalApproved && other.Overlaps(candidate) {
				return shift.Assignment{}, shift.ErrOverlappingAssignment
			}
		}
	}

	r.db.track(ctx, a.ID)
	stored.ApprovalStatus = a.ApprovalStatus
	stored.ApprovedBy = a.ApprovedBy
	stored.ApprovedAt = a.ApprovedAt
	stored.RejectionReason = a.RejectionReason
	stored.EffectiveTo = a.EffectiveTo
	stored.UpdatedBy = a.UpdatedBy
	stored.UpdatedAt = now()
	r.db.assignments[a.ID] = stored
	return r.db.decorate(stored.Assignment), nil
}

// List implements shift.AssignmentRepository.
func (r *assignmentRepositoryImpl) List(ctx context.Context, companyID string, filter shift.AssignmentFilter, asOf time.Time) ([]shift.Assignment, int64, error) {
	r.db.mu.RLock()
	defer r.db.mu.RUnlock()

	rows := r.collect(func(a storedAssignment) bool {
		if a.CompanyID != companyID {
			return false
		}
		if filter.ActiveOnly && !a.StateAt(asOf).IsOpen() {
			return false
		}
		if filter.ShiftID != nil && a.ShiftID != *filter.ShiftID {
			return false
		}
		if filter.EmployeeID != nil && a.EmployeeID != *filter.EmployeeID {
			return false
		}
		if filter.ApprovalStatus != nil {
			status := a.ApprovalStatus
			if status == "" {
				status = shift.ApprovalApproved
			}
			if string(status) != *filter.ApprovalStatus {
				return false
			}
		}
		if filter.DepartmentID != nil {
			e, ok := r.db.employees[a.EmployeeID]
			if !ok || e.DepartmentID == nil || *e.DepartmentID != *filter.DepartmentID {
				return false
			}
		}
		return true
	})

	total := int64(len(rows))
	return r.db.unwrap(paginate(rows, filter.Page, filter.Limit)), total, nil
}

// ListByShift implements shift.AssignmentRepository.
func (r *assignmentRepositoryImpl) ListByShift(ctx context.Context, companyID, shiftID string, activeOnly bool, asOf time.Time) ([]shift.Assignment, error) {
	r.db.mu.RLock()
	defer r.db.mu.RUnlock()

	rows := r.collect(func(a storedAssignment) bool {
		if a.CompanyID != companyID || a.ShiftID != shiftID {
			return false
		}
		return !activeOnly || a.StateAt(asOf).IsOpen()
	})
	return r.db.unwrap(rows), nil
}

// CountBlocking implements shift.AssignmentRepository.
func (r *assignmentRepositoryImpl) CountBlocking(ctx context.Context, companyID, shiftID string, at time.Time) (int64, error) {
	r.db.mu.RLock()
	defer r.db.mu.RUnlock()

	var n int64
	for _, a := range r.db.assignments {
		if a.CompanyID == companyID && a.ShiftID == shiftID && a.Blocking(at) {
			n++
		}
	}
	return n, nil
}
