package postgresql_test

import (
	"context"
	"sync"
	"testing"
	"time"

	"github.com/cmlabs-hris/hris-shift-go/internal/domain/shift"
	"github.com/cmlabs-hris/hris-shift-go/internal/domain/user"
	"github.com/cmlabs-hris/hris-shift-go/internal/pkg/idempotency"
	"github.com/cmlabs-hris/hris-shift-go/internal/repository/postgresql"
	shiftservice "github.com/cmlabs-hris/hris-shift-go/internal/service/shift"
	"github.com/go-chi/jwtauth/v5"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func date(y int, m time.Month, d int) time.Time {
	return time.Date(y, m, d, 0, 0, 0, 0, time.UTC)
}

func createShift(t *testing.T, repo shift.ShiftRepository, companyID, code string) shift.Shift {
	t.Helper()
	s, err := repo.Create(context.Background(), shift.Shift{
		CompanyID:   companyID,
		Code:        code,
		Name:        code + " shift",
		StartTime:   shift.MustTimeOfDay("09:00"),
		EndTime:     shift.MustTimeOfDay("18:00"),
		Breaks:      []shift.Break{{Name: "Lunch", DurationMinutes: 60}},
		WorkingDays: []shift.Weekday{shift.Monday, shift.Tuesday, shift.Wednesday},
		Location:    shift.Location{WorkMode: shift.WorkModeOffice},
		IsActive:    true,
		CreatedBy:   newUUID(),
	})
	require.NoError(t, err)
	return s
}

func TestShiftRepository_RoundTrip(t *testing.T) {
	setup := NewTestDatabase(t)
	ctx := context.Background()
	repo := postgresql.NewShiftRepository(setup.DB)
	companyID := newUUID()

	created := createShift(t, repo, companyID, "GEN9")

	got, err := repo.GetByID(ctx, created.ID, companyID)
	require.NoError(t, err)
	assert.Equal(t, shift.MustTimeOfDay("09:00"), got.StartTime)
	assert.Equal(t, shift.MustTimeOfDay("18:00"), got.EndTime)
	assert.Equal(t, []shift.Weekday{shift.Monday, shift.Tuesday, shift.Wednesday}, got.WorkingDays)
	require.Len(t, got.Breaks, 1)
	assert.Equal(t, 480, got.TotalWorkingMinutes())

	byCode, err := repo.GetByCode(ctx, companyID, "gen9")
	require.NoError(t, err)
	assert.Equal(t, created.ID, byCode.ID)

	_, err = repo.Create(ctx, shift.Shift{
		CompanyID: companyID, Code: "GEN9", Name: "dup",
		StartTime: 1, EndTime: 2, WorkingDays: []shift.Weekday{shift.Monday},
		CreatedBy: newUUID(),
	})
	assert.ErrorIs(t, err, shift.ErrShiftCodeExists)

	_, err = repo.GetByID(ctx, "not-a-uuid", companyID)
	assert.ErrorIs(t, err, shift.ErrShiftNotFound)

	require.NoError(t, repo.SoftDelete(ctx, created.ID, companyID))
	_, err = repo.GetByID(ctx, created.ID, companyID)
	assert.ErrorIs(t, err, shift.ErrShiftNotFound)
	createShift(t, repo, companyID, "GEN9")
}

func TestShiftSettingsRepository_DefaultPointer(t *testing.T) {
	setup := NewTestDatabase(t)
	ctx := context.Background()
	shifts := postgresql.NewShiftRepository(setup.DB)
	settings := postgresql.NewShiftSettingsRepository(setup.DB)
	companyID := newUUID()
	actor := newUUID()

	got, err := settings.GetDefaultShiftID(ctx, companyID)
	require.NoError(t, err)
	assert.Nil(t, got)

	a := createShift(t, shifts, companyID, "AAA")
	b := createShift(t, shifts, companyID, "BBB")
	require.NoError(t, settings.SetDefaultShiftID(ctx, companyID, &a.ID, actor))
	require.NoError(t, settings.SetDefaultShiftID(ctx, companyID, &b.ID, actor))

	got, err = settings.GetDefaultShiftID(ctx, companyID)
	require.NoError(t, err)
	require.NotNil(t, got)
	assert.Equal(t, b.ID, *got)

	require.NoError(t, settings.ClearDefaultIf(ctx, companyID, a.ID, actor))
	got, err = settings.GetDefaultShiftID(ctx, companyID)
	require.NoError(t, err)
	require.NotNil(t, got)

	require.NoError(t, settings.ClearDefaultIf(ctx, companyID, b.ID, actor))
	got, err = settings.GetDefaultShiftID(ctx, companyID)
	require.NoError(t, err)
	assert.Nil(t, got)
}

func TestShiftAssignmentRepository_ExclusionAndClose(t *testing.T) {
	setup := NewTestDatabase(t)
	ctx := context.Background()
	shifts := postgresql.NewShiftRepository(setup.DB)
	repo := postgresql.NewShiftAssignmentRepository(setup.DB)
	companyID := newUUID()
	actor := newUUID()
	emp := setup.CreateEmployee(t, companyID, "E1")
	s := createShift(t, shifts, companyID, "GEN9")

	approved := func(from time.Time) shift.Assignment {
		return shift.Assignment{
			CompanyID: companyID, EmployeeID: emp.ID, ShiftID: s.ID,
			EffectiveFrom: from, ApprovalStatus: shift.ApprovalApproved,
			Reason: shift.ReasonInitialAssignment, CreatedBy: actor,
		}
	}

	first, err := repo.Create(ctx, approved(date(2024, 1, 1)))
	require.NoError(t, err)
	assert.Equal(t, "GEN9", first.ShiftCode)
	assert.Equal(t, "Employee E1", first.EmployeeName)

	_, err = repo.Create(ctx, approved(date(2024, 7, 1)))
	assert.ErrorIs(t, err, shift.ErrOverlappingAssignment)

	require.NoError(t, repo.CloseAt(ctx, companyID, []string{first.ID}, date(2024, 7, 1), actor))
	second, err := repo.Create(ctx, approved(date(2024, 7, 1)))
	require.NoError(t, err)

	open, err := repo.ListOpenAt(ctx, companyID, emp.ID, date(2024, 6, 30))
	require.NoError(t, err)
	require.Len(t, open, 1)
	assert.Equal(t, first.ID, open[0].ID)

	next, err := repo.NextApprovedStart(ctx, companyID, emp.ID, date(2024, 3, 1), "")
	require.NoError(t, err)
	require.NotNil(t, next)
	assert.True(t, next.Equal(date(2024, 7, 1)))

	next, err = repo.NextApprovedStart(ctx, companyID, emp.ID, date(2024, 3, 1), second.ID)
	require.NoError(t, err)
	assert.Nil(t, next)

	history, err := repo.ListByEmployee(ctx, companyID, emp.ID)
	require.NoError(t, err)
	require.Len(t, history, 2)
	assert.Equal(t, second.ID, history[0].ID)

	blocking, err := repo.CountBlocking(ctx, companyID, s.ID, date(2024, 9, 1))
	require.NoError(t, err)
	assert.Equal(t, int64(1), blocking)

	// Closing a row at its own start marks it superseded and keeps its dates.
	require.NoError(t, repo.CloseAt(ctx, companyID, []string{second.ID}, date(2024, 7, 1), actor))
	superseded, err := repo.GetByID(ctx, second.ID, companyID)
	require.NoError(t, err)
	assert.Equal(t, shift.ApprovalSuperseded, superseded.ApprovalStatus)
	assert.Nil(t, superseded.EffectiveTo)

	blocking, err = repo.CountBlocking(ctx, companyID, s.ID, date(2024, 9, 1))
	require.NoError(t, err)
	assert.Zero(t, blocking)
}

func TestShiftAssignmentRepository_LegacyRows(t *testing.T) {
	setup := NewTestDatabase(t)
	ctx := context.Background()
	shifts := postgresql.NewShiftRepository(setup.DB)
	repo := postgresql.NewShiftAssignmentRepository(setup.DB)
	companyID := newUUID()
	emp := setup.CreateEmployee(t, companyID, "E1")
	s := createShift(t, shifts, companyID, "GEN9")

	active, inactive := true, false
	legacyOn, err := repo.Create(ctx, shift.Assignment{
		CompanyID: companyID, EmployeeID: emp.ID, ShiftID: s.ID,
		EffectiveFrom: date(2023, 1, 1), LegacyActive: &active,
		Reason: shift.ReasonInitialAssignment, CreatedBy: newUUID(),
	})
	require.NoError(t, err)
	assert.True(t, legacyOn.IsApproved())

	_, err = repo.Create(ctx, shift.Assignment{
		CompanyID: companyID, EmployeeID: emp.ID, ShiftID: s.ID,
		EffectiveFrom: date(2022, 1, 1), LegacyActive: &inactive,
		Reason: shift.ReasonInitialAssignment, CreatedBy: newUUID(),
	})
	require.NoError(t, err)

	open, err := repo.ListOpenAt(ctx, companyID, emp.ID, time.Now().Add(time.Hour))
	require.NoError(t, err)
	require.Len(t, open, 1)
	assert.Equal(t, legacyOn.ID, open[0].ID)

	list, total, err := repo.List(ctx, companyID, shift.AssignmentFilter{
		ActiveOnly: true, Page: 1, Limit: 20,
	}, time.Now().Add(time.Hour))
	require.NoError(t, err)
	assert.Equal(t, int64(1), total)
	require.Len(t, list, 1)
}

func TestShiftService_ConcurrentAssignOnPostgres(t *testing.T) {
	setup := NewTestDatabase(t)
	companyID := newUUID()
	emp := setup.CreateEmployee(t, companyID, "E1")

	shifts := postgresql.NewShiftRepository(setup.DB)
	assignments := postgresql.NewShiftAssignmentRepository(setup.DB)
	svc := shiftservice.NewShiftService(
		postgresql.NewUnitOfWork(setup.DB),
		shifts,
		postgresql.NewShiftSettingsRepository(setup.DB),
		assignments,
		postgresql.NewEmployeeRepository(setup.DB),
		idempotency.NewMemoryStore(),
		shiftservice.Options{},
	)
	s := createShift(t, shifts, companyID, "GEN9")

	token, _, err := jwtauth.New("HS256", []byte("test-secret"), nil).Encode(map[string]interface{}{
		"user_id":    newUUID(),
		"company_id": companyID,
		"role":       string(user.RoleOwner),
	})
	require.NoError(t, err)
	ctx := jwtauth.NewContext(context.Background(), token, nil)

	var wg sync.WaitGroup
	errs := make([]error, 10)
	for i := range errs {
		wg.Add(1)
		go func() {
			defer wg.Done()
			_, errs[i] = svc.AssignShift(ctx, shift.AssignShiftRequest{EmployeeID: emp.ID, ShiftID: s.ID})
		}()
	}
	wg.Wait()
	for _, err := range errs {
		require.NoError(t, err)
	}

	open, err := assignments.ListOpenAt(context.Background(), companyID, emp.ID, time.Now())
	require.NoError(t, err)
	assert.Len(t, open, 1)

	history, err := svc.GetAssignmentHistory(ctx, emp.ID)
	require.NoError(t, err)
	assert.Len(t, history.Assignments, 10)
}
