package postgresql

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/cmlabs-hris/hris-shift-go/internal/domain/shift"
	"github.com/cmlabs-hris/hris-shift-go/internal/pkg/database"
	"github.com/cmlabs-hris/hris-shift-go/internal/pkg/validator"
	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
)

const assignmentColumns = `
	sa.id, sa.company_id, sa.employee_id, sa.shift_id, sa.effective_from, sa.effective_to,
	sa.custom_settings, COALESCE(sa.approval_status, ''), sa.approved_by, sa.approved_at,
	sa.rejection_reason, sa.reason, sa.notes, sa.created_by, sa.updated_by,
	sa.created_at, sa.updated_at, sa.is_active,
	COALESCE(s.code, ''), COALESCE(s.name, ''),
	COALESCE(e.full_name, ''), COALESCE(e.employee_code, ''), e.department_id`

const assignmentFrom = `
	FROM shift_assignments sa
	LEFT JOIN shifts s ON s.id = sa.shift_id
	LEFT JOIN employees e ON e.id = sa.employee_id`

const assignmentOrder = `ORDER BY sa.effective_from DESC, sa.created_at DESC, sa.id DESC`

// openAt is the SQL form of Assignment.StateAt(at).IsOpen(). Legacy rows
// have a NULL approval_status, and a legacy row switched off via is_active
// closes at its updated_at.
func openAt(argIdx int) string {
	return fmt.Sprintf(`COALESCE(sa.approval_status, 'approved') = 'approved'
		AND sa.effective_from <= $%[1]d
		AND COALESCE(sa.effective_to, CASE WHEN sa.is_active = FALSE THEN sa.updated_at END, 'infinity'::timestamptz) > $%[1]d`, argIdx)
}

type shiftAssignmentRepositoryImpl struct {
	db *database.DB
}

func NewShiftAssignmentRepository(db *database.DB) shift.AssignmentRepository {
	return &shiftAssignmentRepositoryImpl{db: db}
}

func scanAssignment(row pgx.Row) (shift.Assignment, error) {
	var (
		a              shift.Assignment
		status, reason string
	)
	err := row.Scan(
		&a.ID, &a.CompanyID, &a.EmployeeID, &a.ShiftID, &a.EffectiveFrom, &a.EffectiveTo,
		&a.CustomSettings, &status, &a.ApprovedBy, &a.ApprovedAt,
		&a.RejectionReason, &reason, &a.Notes, &a.CreatedBy, &a.UpdatedBy,
		&a.CreatedAt, &a.UpdatedAt, &a.LegacyActive,
		&a.ShiftCode, &a.ShiftName,
		&a.EmployeeName, &a.EmployeeCode, &a.DepartmentID,
	)
	if err != nil {
		return shift.Assignment{}, err
	}
	a.ApprovalStatus = shift.ApprovalStatus(status)
	a.Reason = shift.AssignmentReason(reason)
	return a, nil
}

func collectAssignments(rows pgx.Rows) ([]shift.Assignment, error) {
	defer rows.Close()

	assignments := make([]shift.Assignment, 0)
	for rows.Next() {
		a, err := scanAssignment(rows)
		if err != nil {
			return nil, fmt.Errorf("failed to scan shift assignment: %w", err)
		}
		assignments = append(assignments, a)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	return assignments, nil
}

// Create implements shift.AssignmentRepository.
func (r *shiftAssignmentRepositoryImpl) Create(ctx context.Context, a shift.Assignment) (shift.Assignment, error) {
	q := GetQuerier(ctx, r.db)

	if a.ID == "" {
		id, err := uuid.NewV7()
		if err != nil {
			return shift.Assignment{}, fmt.Errorf("generate assignment id: %w", err)
		}
		a.ID = id.String()
	}

	var status *string
	if a.ApprovalStatus != "" {
		s := string(a.ApprovalStatus)
		status = &s
	}

	query := `
		INSERT INTO shift_assignments (
			id, company_id, employee_id, shift_id, effective_from, effective_to,
			custom_settings, approval_status, approved_by, approved_at, reason, notes,
			is_active, created_by, created_at, updated_at
		) VALUES (
			$1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13, $14, NOW(), NOW()
		)
	`

	_, err := q.Exec(ctx, query,
		a.ID, a.CompanyID, a.EmployeeID, a.ShiftID, a.EffectiveFrom, a.EffectiveTo,
		a.CustomSettings, status, a.ApprovedBy, a.ApprovedAt, string(a.Reason), a.Notes,
		a.LegacyActive, a.CreatedBy,
	)
	if err != nil {
		if pgCode(err) == pgExclusionViolation {
			return shift.Assignment{}, shift.ErrOverlappingAssignment
		}
		return shift.Assignment{}, fmt.Errorf("failed to create shift assignment: %w", err)
	}

	return r.GetByID(ctx, a.ID, a.CompanyID)
}

// GetByID implements shift.AssignmentRepository.
func (r *shiftAssignmentRepositoryImpl) GetByID(ctx context.Context, id, companyID string) (shift.Assignment, error) {
	if !validator.IsUUID(id) {
		return shift.Assignment{}, shift.ErrAssignmentNotFound
	}
	q := GetQuerier(ctx, r.db)

	query := `SELECT ` + assignmentColumns + assignmentFrom + `
		WHERE sa.id = $1 AND sa.company_id = $2
	`

	a, err := scanAssignment(q.QueryRow(ctx, query, id, companyID))
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return shift.Assignment{}, shift.ErrAssignmentNotFound
		}
		return shift.Assignment{}, fmt.Errorf("failed to get shift assignment %s: %w", id, err)
	}
	return a, nil
}

// ListByEmployee implements shift.AssignmentRepository.
func (r *shiftAssignmentRepositoryImpl) ListByEmployee(ctx context.Context, companyID, employeeID string) ([]shift.Assignment, error) {
	if !validator.IsUUID(employeeID) {
		return []shift.Assignment{}, nil
	}
	q := GetQuerier(ctx, r.db)

	query := `SELECT ` + assignmentColumns + assignmentFrom + `
		WHERE sa.company_id = $1 AND sa.employee_id = $2
		` + assignmentOrder

	rows, err := q.Query(ctx, query, companyID, employeeID)
	if err != nil {
		return nil, fmt.Errorf("failed to query assignment history: %w", err)
	}
	return collectAssignments(rows)
}

// ListOpenAt implements shift.AssignmentRepository.
func (r *shiftAssignmentRepositoryImpl) ListOpenAt(ctx context.Context, companyID, employeeID string, at time.Time) ([]shift.Assignment, error) {
	if !validator.IsUUID(employeeID) {
		return []shift.Assignment{}, nil
	}
	q := GetQuerier(ctx, r.db)

	query := `SELECT ` + assignmentColumns + assignmentFrom + `
		WHERE sa.company_id = $1 AND sa.employee_id = $2 AND ` + openAt(3) + `
		ORDER BY sa.created_at DESC, sa.id DESC`

	rows, err := q.Query(ctx, query, companyID, employeeID, at)
	if err != nil {
		return nil, fmt.Errorf("failed to query open assignments: %w", err)
	}
	return collectAssignments(rows)
}

// NextApprovedStart implements shift.AssignmentRepository.
func (r *shiftAssignmentRepositoryImpl) NextApprovedStart(ctx context.Context, companyID, employeeID string, at time.Time, excludeID string) (*time.Time, error) {
	q := GetQuerier(ctx, r.db)

	var exclude *string
	if excludeID != "" {
		exclude = &excludeID
	}

	query := `
		SELECT MIN(sa.effective_from)
		FROM shift_assignments sa
		WHERE sa.company_id = $1 AND sa.employee_id = $2
		  AND COALESCE(sa.approval_status, 'approved') = 'approved'
		  AND sa.effective_from > $3
		  AND (sa.effective_to IS NULL OR sa.effective_to > sa.effective_from)
		  AND ($4::uuid IS NULL OR sa.id <> $4::uuid)
	`

	var next *time.Time
	if err := q.QueryRow(ctx, query, companyID, employeeID, at, exclude).Scan(&next); err != nil {
		return nil, fmt.Errorf("failed to find next assignment start: %w", err)
	}
	return next, nil
}

// CloseAt implements shift.AssignmentRepository.
func (r *shiftAssignmentRepositoryImpl) CloseAt(ctx context.Context, companyID string, ids []string, at time.Time, updatedBy string) error {
	if len(ids) == 0 {
		return nil
	}
	q := GetQuerier(ctx, r.db)

	query := `
		UPDATE shift_assignments
		SET effective_to    = CASE WHEN effective_from < $3 THEN $3 ELSE effective_to END,
		    approval_status = CASE WHEN effective_from < $3 THEN approval_status ELSE 'superseded' END,
		    is_active = NULL, updated_by = $4, updated_at = NOW()
		WHERE company_id = $1 AND id = ANY($2::uuid[])
	`
	commandTag, err := q.Exec(ctx, query, companyID, ids, at, updatedBy)
	if err != nil {
		if pgCode(err) == pgExclusionViolation {
			return shift.ErrOverlappingAssignment
		}
		return fmt.Errorf("failed to close shift assignments: %w", err)
	}
	if commandTag.RowsAffected() != int64(len(ids)) {
		return shift.ErrAssignmentNotFound
	}
	return nil
}

// UpdateDecision implements shift.AssignmentRepository.
func (r *shiftAssignmentRepositoryImpl) UpdateDecision(ctx context.Context, a shift.Assignment) (shift.Assignment, error) {
	if !validator.IsUUID(a.ID) {
		return shift.Assignment{}, shift.ErrAssignmentNotFound
	}
	q := GetQuerier(ctx, r.db)

	query := `
		UPDATE shift_assignments
		SET approval_status = $3, approved_by = $4, approved_at = $5,
			rejection_reason = $6, effective_to = $7, updated_by = $8, updated_at = NOW()
		WHERE id = $1 AND company_id = $2
	`
	commandTag, err := q.Exec(ctx, query,
		a.ID, a.CompanyID, string(a.ApprovalStatus), a.ApprovedBy, a.ApprovedAt,
		a.RejectionReason, a.EffectiveTo, a.UpdatedBy,
	)
	if err != nil {
		if pgCode(err) == pgExclusionViolation {
			return shift.Assignment{}, shift.ErrOverlappingAssignment
		}
		return shift.Assignment{}, fmt.Errorf("failed to update shift assignment %s: %w", a.ID, err)
	}
	if commandTag.RowsAffected() != 1 {
		return shift.Assignment{}, shift.ErrAssignmentNotFound
	}

	return r.GetByID(ctx, a.ID, a.CompanyID)
}

// List implements shift.AssignmentRepository.
func (r *shiftAssignmentRepositoryImpl) List(ctx context.Context, companyID string, filter shift.AssignmentFilter, asOf time.Time) ([]shift.Assignment, int64, error) {
	for _, id := range []*string{filter.ShiftID, filter.EmployeeID, filter.DepartmentID} {
		if id != nil && !validator.IsUUID(*id) {
			return []shift.Assignment{}, 0, nil
		}
	}
	q := GetQuerier(ctx, r.db)

	baseWhere := "sa.company_id = $1"
	args := []interface{}{companyID}
	argIdx := 2

	if filter.ActiveOnly {
		baseWhere += " AND " + openAt(argIdx)
		args = append(args, asOf)
		argIdx++
	}
	if filter.ShiftID != nil {
		baseWhere += fmt.Sprintf(" AND sa.shift_id = $%d", argIdx)
		args = append(args, *filter.ShiftID)
		argIdx++
	}
	if filter.EmployeeID != nil {
		baseWhere += fmt.Sprintf(" AND sa.employee_id = $%d", argIdx)
		args = append(args, *filter.EmployeeID)
		argIdx++
	}
	if filter.DepartmentID != nil {
		baseWhere += fmt.Sprintf(" AND e.department_id = $%d", argIdx)
		args = append(args, *filter.DepartmentID)
		argIdx++
	}
	if filter.ApprovalStatus != nil {
		baseWhere += fmt.Sprintf(" AND COALESCE(sa.approval_status, 'approved') = $%d", argIdx)
		args = append(args, *filter.ApprovalStatus)
		argIdx++
	}

	countQuery := "SELECT COUNT(*)" + assignmentFrom + " WHERE " + baseWhere
	var total int64
	if err := q.QueryRow(ctx, countQuery, args...).Scan(&total); err != nil {
		return nil, 0, fmt.Errorf("failed to count shift assignments: %w", err)
	}

	limit := filter.Limit
	if limit == 0 {
		limit = 20
	}
	offset := (filter.Page - 1) * limit

	selectQuery := fmt.Sprintf(`SELECT %s %s
		WHERE %s
		%s
		LIMIT $%d OFFSET $%d
	`, assignmentColumns, assignmentFrom, baseWhere, assignmentOrder, argIdx, argIdx+1)
	args = append(args, limit, offset)

	rows, err := q.Query(ctx, selectQuery, args...)
	if err != nil {
		return nil, 0, fmt.Errorf("failed to query shift assignments: %w", err)
	}
	assignments, err := collectAssignments(rows)
	if err != nil {
		return nil, 0, err
	}
	return assignments, total, nil
}

// ListByShift implements shift.AssignmentRepository.
func (r *shiftAssignmentRepositoryImpl) ListByShift(ctx context.Context, companyID, shiftID string, activeOnly bool, asOf time.Time) ([]shift.Assignment, error) {
	if !validator.IsUUID(shiftID) {
		return []shift.Assignment{}, nil
	}
	q := GetQuerier(ctx, r.db)

	where := "sa.company_id = $1 AND sa.shift_id = $2"
	args := []interface{}{companyID, shiftID}
	if activeOnly {
		where += " AND " + openAt(3)
		args = append(args, asOf)
	}

	query := `SELECT ` + assignmentColumns + assignmentFrom + ` WHERE ` + where + ` ` + assignmentOrder
	rows, err := q.Query(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("failed to query assignments for shift: %w", err)
	}
	return collectAssignments(rows)
}

// CountBlocking implements shift.AssignmentRepository.
func (r *shiftAssignmentRepositoryImpl) CountBlocking(ctx context.Context, companyID, shiftID string, at time.Time) (int64, error) {
	q := GetQuerier(ctx, r.db)

	query := `
		SELECT COUNT(*)
		FROM shift_assignments sa
		WHERE sa.company_id = $1 AND sa.shift_id = $2
		  AND COALESCE(sa.approval_status, 'approved') NOT IN ('rejected', 'superseded')
		  AND NOT (sa.effective_to IS NOT NULL AND sa.effective_to <= sa.effective_from)
		  AND COALESCE(sa.effective_to, CASE WHEN sa.is_active = FALSE THEN sa.updated_at END, 'infinity'::timestamptz) > $3
	`

	var count int64
	if err := q.QueryRow(ctx, query, companyID, shiftID, at).Scan(&count); err != nil {
		return 0, fmt.Errorf("failed to count blocking assignments: %w", err)
	}
	return count, nil
}
