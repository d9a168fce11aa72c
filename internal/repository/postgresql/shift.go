package postgresql

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/cmlabs-hris/hris-shift-go/internal/domain/shift"
	"github.com/cmlabs-hris/hris-shift-go/internal/pkg/database"
	"github.com/cmlabs-hris/hris-shift-go/internal/pkg/validator"
	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgtype"
)

const shiftColumns = `
	s.id, s.company_id, s.code, s.name, s.description, s.start_time, s.end_time,
	s.breaks, s.working_days, s.flexibility, s.overtime, s.location, s.holiday_policy,
	s.is_active, s.created_by, s.updated_by, s.created_at, s.updated_at, s.deleted_at`

type shiftRepositoryImpl struct {
	db *database.DB
}

func NewShiftRepository(db *database.DB) shift.ShiftRepository {
	return &shiftRepositoryImpl{db: db}
}

func toPgTime(t shift.TimeOfDay) pgtype.Time {
	return pgtype.Time{Microseconds: int64(t) * 60_000_000, Valid: true}
}

func fromPgTime(t pgtype.Time) shift.TimeOfDay {
	return shift.TimeOfDay(t.Microseconds / 60_000_000)
}

func toSmallints(days []shift.Weekday) []int16 {
	out := make([]int16, len(days))
	for i, d := range days {
		out[i] = int16(d)
	}
	return out
}

func fromSmallints(days []int16) []shift.Weekday {
	out := make([]shift.Weekday, len(days))
	for i, d := range days {
		out[i] = shift.Weekday(d)
	}
	return out
}

func scanShift(row pgx.Row) (shift.Shift, error) {
	var (
		s          shift.Shift
		start, end pgtype.Time
		days       []int16
	)
	err := row.Scan(
		&s.ID, &s.CompanyID, &s.Code, &s.Name, &s.Description, &start, &end,
		&s.Breaks, &days, &s.Flexibility, &s.Overtime, &s.Location, &s.HolidayPolicy,
		&s.IsActive, &s.CreatedBy, &s.UpdatedBy, &s.CreatedAt, &s.UpdatedAt, &s.DeletedAt,
	)
	if err != nil {
		return shift.Shift{}, err
	}
	s.StartTime = fromPgTime(start)
	s.EndTime = fromPgTime(end)
	s.WorkingDays = fromSmallints(days)
	return s, nil
}

func breaksOrEmpty(b []shift.Break) []shift.Break {
	if b == nil {
		return []shift.Break{}
	}
	return b
}

// Create implements shift.ShiftRepository.
func (r *shiftRepositoryImpl) Create(ctx context.Context, s shift.Shift) (shift.Shift, error) {
	q := GetQuerier(ctx, r.db)

	if s.ID == "" {
		id, err := uuid.NewV7()
		if err != nil {
			return shift.Shift{}, fmt.Errorf("generate shift id: %w", err)
		}
		s.ID = id.String()
	}

	query := `
		INSERT INTO shifts (
			id, company_id, code, name, description, start_time, end_time,
			breaks, working_days, flexibility, overtime, location, holiday_policy,
			is_active, created_by, created_at, updated_at
		) VALUES (
			$1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13, $14, $15, NOW(), NOW()
		) RETURNING created_at, updated_at
	`

	err := q.QueryRow(ctx, query,
		s.ID, s.CompanyID, s.Code, s.Name, s.Description, toPgTime(s.StartTime), toPgTime(s.EndTime),
		breaksOrEmpty(s.Breaks), toSmallints(s.WorkingDays), s.Flexibility, s.Overtime, s.Location, s.HolidayPolicy,
		s.IsActive, s.CreatedBy,
	).Scan(&s.CreatedAt, &s.UpdatedAt)
	if err != nil {
		if pgCode(err) == pgUniqueViolation {
			return shift.Shift{}, shift.ErrShiftCodeExists
		}
		return shift.Shift{}, fmt.Errorf("failed to create shift: %w", err)
	}

	return s, nil
}

// GetByID implements shift.ShiftRepository.
func (r *shiftRepositoryImpl) GetByID(ctx context.Context, id, companyID string) (shift.Shift, error) {
	if !validator.IsUUID(id) {
		return shift.Shift{}, shift.ErrShiftNotFound
	}
	q := GetQuerier(ctx, r.db)

	query := `SELECT ` + shiftColumns + `
		FROM shifts s
		WHERE s.id = $1 AND s.company_id = $2 AND s.deleted_at IS NULL
	`

	s, err := scanShift(q.QueryRow(ctx, query, id, companyID))
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return shift.Shift{}, shift.ErrShiftNotFound
		}
		return shift.Shift{}, fmt.Errorf("failed to get shift %s: %w", id, err)
	}
	return s, nil
}

// GetByCode implements shift.ShiftRepository.
func (r *shiftRepositoryImpl) GetByCode(ctx context.Context, companyID, code string) (shift.Shift, error) {
	q := GetQuerier(ctx, r.db)

	query := `SELECT ` + shiftColumns + `
		FROM shifts s
		WHERE s.company_id = $1 AND UPPER(s.code) = UPPER($2) AND s.deleted_at IS NULL
	`

	s, err := scanShift(q.QueryRow(ctx, query, companyID, code))
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return shift.Shift{}, shift.ErrShiftNotFound
		}
		return shift.Shift{}, fmt.Errorf("failed to get shift by code: %w", err)
	}
	return s, nil
}

// List implements shift.ShiftRepository.
func (r *shiftRepositoryImpl) List(ctx context.Context, companyID string, filter shift.ShiftFilter) ([]shift.Shift, int64, error) {
	q := GetQuerier(ctx, r.db)

	baseWhere := "s.company_id = $1 AND s.deleted_at IS NULL"
	args := []interface{}{companyID}
	argIdx := 2

	if filter.IsActive != nil {
		baseWhere += fmt.Sprintf(" AND s.is_active = $%d", argIdx)
		args = append(args, *filter.IsActive)
		argIdx++
	}
	if filter.Search != nil && *filter.Search != "" {
		baseWhere += fmt.Sprintf(" AND (s.code ILIKE $%d OR s.name ILIKE $%d)", argIdx, argIdx)
		args = append(args, "%"+*filter.Search+"%")
		argIdx++
	}

	countQuery := "SELECT COUNT(*) FROM shifts s WHERE " + baseWhere
	var total int64
	if err := q.QueryRow(ctx, countQuery, args...).Scan(&total); err != nil {
		return nil, 0, fmt.Errorf("failed to count shifts: %w", err)
	}

	orderByField := "s.code"
	switch filter.SortBy {
	case "name":
		orderByField = "s.name"
	case "start_time":
		orderByField = "s.start_time"
	case "created_at":
		orderByField = "s.created_at"
	}
	sortOrder := "ASC"
	if strings.ToLower(filter.SortOrder) == "desc" {
		sortOrder = "DESC"
	}

	limit := filter.Limit
	if limit == 0 {
		limit = 20
	}
	offset := (filter.Page - 1) * limit

	selectQuery := fmt.Sprintf(`SELECT %s
		FROM shifts s
		WHERE %s
		ORDER BY %s %s, s.id
		LIMIT $%d OFFSET $%d
	`, shiftColumns, baseWhere, orderByField, sortOrder, argIdx, argIdx+1)
	args = append(args, limit, offset)

	rows, err := q.Query(ctx, selectQuery, args...)
	if err != nil {
		return nil, 0, fmt.Errorf("failed to query shifts: %w", err)
	}
	defer rows.Close()

	shifts := make([]shift.Shift, 0)
	for rows.Next() {
		s, err := scanShift(rows)
		if err != nil {
			return nil, 0, fmt.Errorf("failed to scan shift: %w", err)
		}
		shifts = append(shifts, s)
	}
	if err := rows.Err(); err != nil {
		return nil, 0, err
	}

	return shifts, total, nil
}

// Update implements shift.ShiftRepository. The code column is never written.
func (r *shiftRepositoryImpl) Update(ctx context.Context, s shift.Shift) (shift.Shift, error) {
	if !validator.IsUUID(s.ID) {
		return shift.Shift{}, shift.ErrShiftNotFound
	}
	q := GetQuerier(ctx, r.db)

	query := `
		UPDATE shifts s SET
			name = $3, description = $4, start_time = $5, end_time = $6,
			breaks = $7, working_days = $8, flexibility = $9, overtime = $10,
			location = $11, holiday_policy = $12, is_active = $13,
			updated_by = $14, updated_at = NOW()
		WHERE s.id = $1 AND s.company_id = $2 AND s.deleted_at IS NULL
		RETURNING ` + shiftColumns

	updated, err := scanShift(q.QueryRow(ctx, query,
		s.ID, s.CompanyID, s.Name, s.Description, toPgTime(s.StartTime), toPgTime(s.EndTime),
		breaksOrEmpty(s.Breaks), toSmallints(s.WorkingDays), s.Flexibility, s.Overtime,
		s.Location, s.HolidayPolicy, s.IsActive, s.UpdatedBy,
	))
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return shift.Shift{}, shift.ErrShiftNotFound
		}
		return shift.Shift{}, fmt.Errorf("failed to update shift %s: %w", s.ID, err)
	}
	return updated, nil
}

// SoftDelete implements shift.ShiftRepository.
func (r *shiftRepositoryImpl) SoftDelete(ctx context.Context, id, companyID string) error {
	if !validator.IsUUID(id) {
		return shift.ErrShiftNotFound
	}
	q := GetQuerier(ctx, r.db)
	query := `
		UPDATE shifts
		SET deleted_at = NOW(), updated_at = NOW()
		WHERE id = $1 AND company_id = $2 AND deleted_at IS NULL
	`
	commandTag, err := q.Exec(ctx, query, id, companyID)
	if err != nil {
		return fmt.Errorf("failed to soft delete shift: %w", err)
	}
	if commandTag.RowsAffected() != 1 {
		return shift.ErrShiftNotFound
	}
	return nil
}
