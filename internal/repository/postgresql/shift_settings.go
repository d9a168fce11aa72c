package postgresql

import (
	"context"
	"errors"
	"fmt"

	"github.com/cmlabs-hris/hris-shift-go/internal/domain/shift"
	"github.com/cmlabs-hris/hris-shift-go/internal/pkg/database"
	"github.com/jackc/pgx/v5"
)

type shiftSettingsRepositoryImpl struct {
	db *database.DB
}

func NewShiftSettingsRepository(db *database.DB) shift.SettingsRepository {
	return &shiftSettingsRepositoryImpl{db: db}
}

// GetDefaultShiftID implements shift.SettingsRepository.
func (r *shiftSettingsRepositoryImpl) GetDefaultShiftID(ctx context.Context, companyID string) (*string, error) {
	q := GetQuerier(ctx, r.db)

	var id *string
	err := q.QueryRow(ctx,
		`SELECT default_shift_id FROM shift_settings WHERE company_id = $1`, companyID,
	).Scan(&id)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, nil
		}
		return nil, fmt.Errorf("failed to get default shift: %w", err)
	}
	return id, nil
}

// SetDefaultShiftID implements shift.SettingsRepository.
func (r *shiftSettingsRepositoryImpl) SetDefaultShiftID(ctx context.Context, companyID string, shiftID *string, updatedBy string) error {
	q := GetQuerier(ctx, r.db)

	query := `
		INSERT INTO shift_settings (company_id, default_shift_id, updated_by, updated_at)
		VALUES ($1, $2, $3, NOW())
		ON CONFLICT (company_id) DO UPDATE
		SET default_shift_id = EXCLUDED.default_shift_id,
			updated_by = EXCLUDED.updated_by,
			updated_at = NOW()
	`
	if _, err := q.Exec(ctx, query, companyID, shiftID, updatedBy); err != nil {
		return fmt.Errorf("failed to set default shift: %w", err)
	}
	return nil
}

// ClearDefaultIf implements shift.SettingsRepository.
func (r *shiftSettingsRepositoryImpl) ClearDefaultIf(ctx context.Context, companyID, shiftID, updatedBy string) error {
	q := GetQuerier(ctx, r.db)

	query := `
		UPDATE shift_settings
		SET default_shift_id = NULL, updated_by = $3, updated_at = NOW()
		WHERE company_id = $1 AND default_shift_id = $2
	`
	if _, err := q.Exec(ctx, query, companyID, shiftID, updatedBy); err != nil {
		return fmt.Errorf("failed to clear default shift: %w", err)
	}
	return nil
}
