package memory

import (
	"context"
	"sort"
	"strings"

	"github.com/cmlabs-hris/hris-shift-go/internal/domain/shift"
)

type shiftRepositoryImpl struct {
	db *DB
}

func NewShiftRepository(db *DB) shift.ShiftRepository {
	return &shiftRepositoryImpl{db: db}
}

func (r *shiftRepositoryImpl) codeTaken(companyID, code, exceptID string) bool {
	for _, s := range r.db.shifts {
		if s.CompanyID == companyID && s.DeletedAt == nil && s.ID != exceptID && strings.EqualFold(s.Code, code) {
			return true
		}
	}
	return false
}

// Create implements shift.ShiftRepository.
func (r *shiftRepositoryImpl) Create(ctx context.Context, s shift.Shift) (shift.Shift, error) {
	r.db.mu.Lock()
	defer r.db.mu.Unlock()

	if r.codeTaken(s.CompanyID, s.Code, "") {
		return shift.Shift{}, shift.ErrShiftCodeExists
	}
	if s.ID == "" {
		s.ID = newID()
	}
	ts := now()
	s.CreatedAt, s.UpdatedAt = ts, ts
	s.IsDefault = false
	r.db.shifts[s.ID] = s
	return s, nil
}

// GetByID implements shift.ShiftRepository.
func (r *shiftRepositoryImpl) GetByID(ctx context.Context, id, companyID string) (shift.Shift, error) {
	r.db.mu.RLock()
	defer r.db.mu.RUnlock()

	s, ok := r.db.shifts[id]
	if !ok || s.CompanyID != companyID || s.DeletedAt != nil {
		return shift.Shift{}, shift.ErrShiftNotFound
	}
	return s, nil
}

// GetByCode implements shift.ShiftRepository.
func (r *shiftRepositoryImpl) GetByCode(ctx context.Context, companyID, code string) (shift.Shift, error) {
	r.db.mu.RLock()
	defer r.db.mu.RUnlock()

	for _, s := range r.db.shifts {
		if s.CompanyID == companyID && s.DeletedAt == nil && strings.EqualFold(s.Code, code) {
			return s, nil
		}
	}
	return shift.Shift{}, shift.ErrShiftNotFound
}

// List implements shift.ShiftRepository.
func (r *shiftRepositoryImpl) List(ctx context.Context, companyID string, filter shift.ShiftFilter) ([]shift.Shift, int64, error) {
	r.db.mu.RLock()
	defer r.db.mu.RUnlock()

	var matched []shift.Shift
	for _, s := range r.db.shifts {
		if s.CompanyID != companyID || s.DeletedAt != nil {
			continue
		}
		if filter.IsActive != nil && s.IsActive != *filter.IsActive {
			continue
		}
		if filter.Search != nil {
			q := strings.ToLower(*filter.Search)
			if !strings.Contains(strings.ToLower(s.Code), q) && !strings.Contains(strings.ToLower(s.Name), q) {
				continue
			}
		}
		matched = append(matched, s)
	}

	desc := filter.SortOrder == "desc"
	sort.SliceStable(matched, func(i, j int) bool {
		a, b := matched[i], matched[j]
		var less bool
		switch filter.SortBy {
		case "name":
			less = a.Name < b.Name
		case "start_time":
			less = a.StartTime < b.StartTime
		case "created_at":
			less = a.CreatedAt.Before(b.CreatedAt)
		default:
			less = a.Code < b.Code
		}
		if desc {
			return !less
		}
		return less
	})

	total := int64(len(matched))
	return paginate(matched, filter.Page, filter.Limit), total, nil
}

// Update implements shift.ShiftRepository.
func (r *shiftRepositoryImpl) Update(ctx context.Context, s shift.Shift) (shift.Shift, error) {
	r.db.mu.Lock()
	defer r.db.mu.Unlock()

	current, ok := r.db.shifts[s.ID]
	if !ok || current.CompanyID != s.CompanyID || current.DeletedAt != nil {
		return shift.Shift{}, shift.ErrShiftNotFound
	}
	s.Code = current.Code
	s.CreatedBy = current.CreatedBy
	s.CreatedAt = current.CreatedAt
	s.UpdatedAt = now()
	s.IsDefault = false
	r.db.shifts[s.ID] = s
	return s, nil
}

// SoftDelete implements shift.ShiftRepository.
func (r *shiftRepositoryImpl) SoftDelete(ctx context.Context, id, companyID string) error {
	r.db.mu.Lock()
	defer r.db.mu.Unlock()

	s, ok := r.db.shifts[id]
	if !ok || s.CompanyID != companyID || s.DeletedAt != nil {
		return shift.ErrShiftNotFound
	}
	ts := now()
	s.DeletedAt = &ts
	s.UpdatedAt = ts
	r.db.shifts[id] = s
	return nil
}

func paginate[T any](rows []T, page, limit int) []T {
	if limit <= 0 {
		return rows
	}
	if page < 1 {
		page = 1
	}
	start := (page - 1) * limit
	if start >= len(rows) {
		return []T{}
	}
	end := start + limit
	if end > len(rows) {
		end = len(rows)
	}
	return rows[start:end]
}
