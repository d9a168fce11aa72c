package shift

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"math"

	"github.com/cmlabs-hris/hris-shift-go/internal/domain/shift"
	"github.com/cmlabs-hris/hris-shift-go/internal/fixtures"
	"github.com/cmlabs-hris/hris-shift-go/internal/pkg/validator"
)

func inactiveDefaultError() error {
	var errs validator.ValidationErrors
	errs.Add("is_default", "an inactive shift cannot be the default")
	return errs
}

// CreateShift implements shift.ShiftService.
func (s *shiftServiceImpl) CreateShift(ctx context.Context, req shift.CreateShiftRequest) (shift.ShiftResponse, error) {
	newShift, err := req.ToShift()
	if err != nil {
		return shift.ShiftResponse{}, err
	}
	if req.IsDefault && !newShift.IsActive {
		return shift.ShiftResponse{}, inactiveDefaultError()
	}

	actor, err := actorFromContext(ctx)
	if err != nil {
		return shift.ShiftResponse{}, err
	}

	newShift.CompanyID = actor.CompanyID
	newShift.CreatedBy = actor.UserID

	created, err := s.shiftRepo.Create(ctx, newShift)
	if err != nil {
		return shift.ShiftResponse{}, err
	}

	if req.IsDefault {
		if err := s.settingsRepo.SetDefaultShiftID(ctx, actor.CompanyID, &created.ID, actor.UserID); err != nil {
			return shift.ShiftResponse{}, fmt.Errorf("failed to set default shift: %w", err)
		}
		created.IsDefault = true
	}

	slog.Info("shift created", "shift_id", created.ID, "code", created.Code, "company_id", actor.CompanyID)
	return mapShiftToResponse(created), nil
}

// UpdateShift implements shift.ShiftService.
func (s *shiftServiceImpl) UpdateShift(ctx context.Context, req shift.UpdateShiftRequest) (shift.ShiftResponse, error) {
	if err := req.Validate(); err != nil {
		return shift.ShiftResponse{}, err
	}

	actor, err := actorFromContext(ctx)
	if err != nil {
		return shift.ShiftResponse{}, err
	}

	current, err := s.shiftRepo.GetByID(ctx, req.ID, actor.CompanyID)
	if err != nil {
		return shift.ShiftResponse{}, err
	}

	merged, err := req.ApplyTo(current)
	if err != nil {
		return shift.ShiftResponse{}, err
	}
	makeDefault := req.IsDefault != nil && *req.IsDefault
	if makeDefault && !merged.IsActive {
		return shift.ShiftResponse{}, inactiveDefaultError()
	}
	merged.UpdatedBy = &actor.UserID

	updated, err := s.shiftRepo.Update(ctx, merged)
	if err != nil {
		return shift.ShiftResponse{}, err
	}

	// The pointer lives in one settings row, so moving it is a single write
	// and setting it twice is a no-op.
	switch {
	case makeDefault:
		if err := s.settingsRepo.SetDefaultShiftID(ctx, actor.CompanyID, &updated.ID, actor.UserID); err != nil {
			return shift.ShiftResponse{}, fmt.Errorf("failed to set default shift: %w", err)
		}
	case req.IsDefault != nil || !updated.IsActive:
		if err := s.settingsRepo.ClearDefaultIf(ctx, actor.CompanyID, updated.ID, actor.UserID); err != nil {
			return shift.ShiftResponse{}, fmt.Errorf("failed to clear default shift: %w", err)
		}
	}

	if err := s.resolveDefault(ctx, actor.CompanyID, &updated); err != nil {
		return shift.ShiftResponse{}, err
	}
	return mapShiftToResponse(updated), nil
}

// DeleteShift implements shift.ShiftService.
func (s *shiftServiceImpl) DeleteShift(ctx context.Context, id string) error {
	actor, err := actorFromContext(ctx)
	if err != nil {
		return err
	}

	if _, err := s.shiftRepo.GetByID(ctx, id, actor.CompanyID); err != nil {
		return err
	}

	count, err := s.assignmentRepo.CountBlocking(ctx, actor.CompanyID, id, s.now())
	if err != nil {
		return err
	}
	if count > 0 {
		return &shift.ShiftInUseError{ShiftID: id, Count: count}
	}

	if err := s.shiftRepo.SoftDelete(ctx, id, actor.CompanyID); err != nil {
		return err
	}
	if err := s.settingsRepo.ClearDefaultIf(ctx, actor.CompanyID, id, actor.UserID); err != nil {
		return fmt.Errorf("failed to clear default shift: %w", err)
	}

	slog.Info("shift deleted", "shift_id", id, "company_id", actor.CompanyID)
	return nil
}

// GetShift implements shift.ShiftService.
func (s *shiftServiceImpl) GetShift(ctx context.Context, id string) (shift.ShiftResponse, error) {
	actor, err := actorFromContext(ctx)
	if err != nil {
		return shift.ShiftResponse{}, err
	}

	found, err := s.shiftRepo.GetByID(ctx, id, actor.CompanyID)
	if err != nil {
		return shift.ShiftResponse{}, err
	}
	if err := s.resolveDefault(ctx, actor.CompanyID, &found); err != nil {
		return shift.ShiftResponse{}, err
	}
	return mapShiftToResponse(found), nil
}

// ListShifts implements shift.ShiftService.
func (s *shiftServiceImpl) ListShifts(ctx context.Context, filter shift.ShiftFilter) (shift.ListShiftResponse, error) {
	if err := filter.Validate(); err != nil {
		return shift.ListShiftResponse{}, err
	}

	actor, err := actorFromContext(ctx)
	if err != nil {
		return shift.ListShiftResponse{}, err
	}

	shifts, total, err := s.shiftRepo.List(ctx, actor.CompanyID, filter)
	if err != nil {
		return shift.ListShiftResponse{}, err
	}

	defaultID, err := s.settingsRepo.GetDefaultShiftID(ctx, actor.CompanyID)
	if err != nil {
		return shift.ListShiftResponse{}, err
	}

	responses := make([]shift.ShiftResponse, 0, len(shifts))
	for _, sh := range shifts {
		sh.IsDefault = defaultID != nil && *defaultID == sh.ID
		responses = append(responses, mapShiftToResponse(sh))
	}

	return shift.ListShiftResponse{
		TotalCount: total,
		Page:       filter.Page,
		Limit:      filter.Limit,
		TotalPages: int(math.Ceil(float64(total) / float64(filter.Limit))),
		Showing:    calculateShowingText(filter.Page, filter.Limit, total),
		Shifts:     responses,
	}, nil
}

// GetDefaultShift implements shift.ShiftService.
func (s *shiftServiceImpl) GetDefaultShift(ctx context.Context) (shift.ShiftResponse, error) {
	actor, err := actorFromContext(ctx)
	if err != nil {
		return shift.ShiftResponse{}, err
	}

	def, err := s.defaultShift(ctx, actor.CompanyID)
	if err != nil {
		return shift.ShiftResponse{}, err
	}
	return mapShiftToResponse(def), nil
}

// SeedDefaultShifts implements shift.ShiftService. Codes that already exist
// are left untouched, so seeding twice is harmless.
func (s *shiftServiceImpl) SeedDefaultShifts(ctx context.Context) ([]shift.ShiftResponse, error) {
	actor, err := actorFromContext(ctx)
	if err != nil {
		return nil, err
	}

	var defaultID string
	seeded := make([]shift.Shift, 0, len(fixtures.GetDefaultShifts()))
	for _, req := range fixtures.GetDefaultShifts() {
		existing, err := s.shiftRepo.GetByCode(ctx, actor.CompanyID, req.Code)
		switch {
		case err == nil:
			seeded = append(seeded, existing)
		case errors.Is(err, shift.ErrShiftNotFound):
			newShift, err := req.ToShift()
			if err != nil {
				return nil, fmt.Errorf("invalid fixture %s: %w", req.Code, err)
			}
			newShift.CompanyID = actor.CompanyID
			newShift.CreatedBy = actor.UserID
			created, err := s.shiftRepo.Create(ctx, newShift)
			if err != nil {
				return nil, fmt.Errorf("failed to seed shift %s: %w", req.Code, err)
			}
			seeded = append(seeded, created)
		default:
			return nil, err
		}
		if req.Code == fixtures.DefaultShiftCode {
			defaultID = seeded[len(seeded)-1].ID
		}
	}

	current, err := s.settingsRepo.GetDefaultShiftID(ctx, actor.CompanyID)
	if err != nil {
		return nil, err
	}
	if current == nil && defaultID != "" {
		if err := s.settingsRepo.SetDefaultShiftID(ctx, actor.CompanyID, &defaultID, actor.UserID); err != nil {
			return nil, fmt.Errorf("failed to set default shift: %w", err)
		}
		current = &defaultID
	}

	responses := make([]shift.ShiftResponse, 0, len(seeded))
	for _, sh := range seeded {
		sh.IsDefault = current != nil && *current == sh.ID
		responses = append(responses, mapShiftToResponse(sh))
	}

	slog.Info("default shifts seeded", "company_id", actor.CompanyID, "count", len(responses))
	return responses, nil
}

// defaultShift resolves the company's default pointer. A pointer to a shift
// that has since been deleted counts as unset.
func (s *shiftServiceImpl) defaultShift(ctx context.Context, companyID string) (shift.Shift, error) {
	id, err := s.settingsRepo.GetDefaultShiftID(ctx, companyID)
	if err != nil {
		return shift.Shift{}, err
	}
	if id == nil {
		return shift.Shift{}, shift.ErrNoDefaultShift
	}

	def, err := s.shiftRepo.GetByID(ctx, *id, companyID)
	if err != nil {
		if errors.Is(err, shift.ErrShiftNotFound) {
			return shift.Shift{}, shift.ErrNoDefaultShift
		}
		return shift.Shift{}, err
	}
	def.IsDefault = true
	return def, nil
}

func (s *shiftServiceImpl) resolveDefault(ctx context.Context, companyID string, sh *shift.Shift) error {
	id, err := s.settingsRepo.GetDefaultShiftID(ctx, companyID)
	if err != nil {
		return err
	}
	sh.IsDefault = id != nil && *id == sh.ID
	return nil
}
