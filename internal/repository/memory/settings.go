package memory

import (
	"context"

	"github.com/cmlabs-hris/hris-shift-go/internal/domain/shift"
)

type settingsRepositoryImpl struct {
	db *DB
}

func NewSettingsRepository(db *DB) shift.SettingsRepository {
	return &settingsRepositoryImpl{db: db}
}

// GetDefaultShiftID implements shift.SettingsRepository.
func (r *settingsRepositoryImpl) GetDefaultShiftID(ctx context.Context, companyID string) (*string, error) {
	r.db.mu.RLock()
	defer r.db.mu.RUnlock()

	id, ok := r.db.defaults[companyID]
	if !ok {
		return nil, nil
	}
	return &id, nil
}

// SetDefaultShiftID implements shift.SettingsRepository.
func (r *settingsRepositoryImpl) SetDefaultShiftID(ctx context.Context, companyID string, shiftID *string, updatedBy string) error {
	r.db.mu.Lock()
	defer r.db.mu.Unlock()

	if shiftID == nil {
		delete(r.db.defaults, companyID)
		return nil
	}
	r.db.defaults[companyID] = *shiftID
	return nil
}

// ClearDefaultIf implements shift.SettingsRepository.
func (r *settingsRepositoryImpl) ClearDefaultIf(ctx context.Context, companyID, shiftID, updatedBy string) error {
	r.db.mu.Lock()
	defer r.db.mu.Unlock()

	if r.db.defaults[companyID] == shiftID {
		delete(r.db.defaults, companyID)
	}
	return nil
}
