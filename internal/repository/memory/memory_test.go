package memory

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/cmlabs-hris/hris-shift-go/internal/domain/employee"
	"github.com/cmlabs-hris/hris-shift-go/internal/domain/shift"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const company = "c-1"

func day(m time.Month, d int) time.Time {
	return time.Date(2024, m, d, 0, 0, 0, 0, time.UTC)
}

func TestShiftRepository_CodeUniqueness(t *testing.T) {
	ctx := context.Background()
	repo := NewShiftRepository(NewDB())

	s, err := repo.Create(ctx, shift.Shift{CompanyID: company, Code: "GEN9", Name: "General"})
	require.NoError(t, err)

	_, err = repo.Create(ctx, shift.Shift{CompanyID: company, Code: "gen9", Name: "Copy"})
	assert.ErrorIs(t, err, shift.ErrShiftCodeExists)

	_, err = repo.Create(ctx, shift.Shift{CompanyID: "c-2", Code: "GEN9", Name: "Other tenant"})
	assert.NoError(t, err)

	require.NoError(t, repo.SoftDelete(ctx, s.ID, company))
	_, err = repo.GetByID(ctx, s.ID, company)
	assert.ErrorIs(t, err, shift.ErrShiftNotFound)

	_, err = repo.Create(ctx, shift.Shift{CompanyID: company, Code: "GEN9", Name: "Reuse"})
	assert.NoError(t, err, "deleted codes can be reused")
}

func TestShiftRepository_List(t *testing.T) {
	ctx := context.Background()
	repo := NewShiftRepository(NewDB())
	for _, code := range []string{"C", "A", "B"} {
		_, err := repo.Create(ctx, shift.Shift{CompanyID: company, Code: code, Name: "Shift " + code, IsActive: code != "B"})
		require.NoError(t, err)
	}

	rows, total, err := repo.List(ctx, company, shift.ShiftFilter{Page: 1, Limit: 2, SortBy: "code", SortOrder: "asc"})
	require.NoError(t, err)
	assert.Equal(t, int64(3), total)
	require.Len(t, rows, 2)
	assert.Equal(t, "A", rows[0].Code)
	assert.Equal(t, "B", rows[1].Code)

	active := true
	rows, total, err = repo.List(ctx, company, shift.ShiftFilter{IsActive: &active, Page: 1, Limit: 10, SortOrder: "desc"})
	require.NoError(t, err)
	assert.Equal(t, int64(2), total)
	assert.Equal(t, "C", rows[0].Code)
}

func TestAssignmentRepository_OpenAtAndClose(t *testing.T) {
	ctx := context.Background()
	repo := NewAssignmentRepository(NewDB())

	first, err := repo.Create(ctx, shift.Assignment{
		CompanyID: company, EmployeeID: "e-1", ShiftID: "s-1",
		EffectiveFrom: day(1, 1), ApprovalStatus: shift.ApprovalApproved,
	})
	require.NoError(t, err)

	_, err = repo.Create(ctx, shift.Assignment{
		CompanyID: company, EmployeeID: "e-1", ShiftID: "s-2",
		EffectiveFrom: day(7, 1), ApprovalStatus: shift.ApprovalApproved,
	})
	assert.ErrorIs(t, err, shift.ErrOverlappingAssignment)

	require.NoError(t, repo.CloseAt(ctx, company, []string{first.ID}, day(7, 1), "u-1"))
	second, err := repo.Create(ctx, shift.Assignment{
		CompanyID: company, EmployeeID: "e-1", ShiftID: "s-2",
		EffectiveFrom: day(7, 1), ApprovalStatus: shift.ApprovalApproved,
	})
	require.NoError(t, err)

	open, err := repo.ListOpenAt(ctx, company, "e-1", day(6, 30))
	require.NoError(t, err)
	require.Len(t, open, 1)
	assert.Equal(t, first.ID, open[0].ID)

	open, err = repo.ListOpenAt(ctx, company, "e-1", day(7, 1))
	require.NoError(t, err)
	require.Len(t, open, 1)
	assert.Equal(t, second.ID, open[0].ID)

	next, err := repo.NextApprovedStart(ctx, company, "e-1", day(3, 1), "")
	require.NoError(t, err)
	require.NotNil(t, next)
	assert.Equal(t, day(7, 1), *next)

	history, err := repo.ListByEmployee(ctx, company, "e-1")
	require.NoError(t, err)
	require.Len(t, history, 2)
	assert.Equal(t, second.ID, history[0].ID)
}

func TestAssignmentRepository_CloseAtOwnStartSupersedes(t *testing.T) {
	ctx := context.Background()
	repo := NewAssignmentRepository(NewDB())

	a, err := repo.Create(ctx, shift.Assignment{
		CompanyID: company, EmployeeID: "e-1", ShiftID: "s-1",
		EffectiveFrom: day(5, 1), ApprovalStatus: shift.ApprovalApproved,
	})
	require.NoError(t, err)

	require.NoError(t, repo.CloseAt(ctx, company, []string{a.ID}, day(5, 1), "u-1"))
	got, err := repo.GetByID(ctx, a.ID, company)
	require.NoError(t, err)
	assert.Equal(t, shift.ApprovalSuperseded, got.ApprovalStatus)
	assert.Nil(t, got.EffectiveTo)

	_, err = repo.Create(ctx, shift.Assignment{
		CompanyID: company, EmployeeID: "e-1", ShiftID: "s-2",
		EffectiveFrom: day(5, 1), ApprovalStatus: shift.ApprovalApproved,
	})
	assert.NoError(t, err, "superseded rows leave the overlap check")
}

func TestAssignmentRepository_LegacyRowsSkipOverlapCheck(t *testing.T) {
	ctx := context.Background()
	repo := NewAssignmentRepository(NewDB())
	off := false

	_, err := repo.Create(ctx, shift.Assignment{
		CompanyID: company, EmployeeID: "e-1", ShiftID: "s-1",
		EffectiveFrom: day(1, 1), LegacyActive: &off,
	})
	require.NoError(t, err)

	_, err = repo.Create(ctx, shift.Assignment{
		CompanyID: company, EmployeeID: "e-1", ShiftID: "s-2",
		EffectiveFrom: day(7, 1), ApprovalStatus: shift.ApprovalApproved,
	})
	assert.NoError(t, err)
}

func TestEmployeeRepository(t *testing.T) {
	ctx := context.Background()
	repo := NewEmployeeRepository(NewDB())

	e, err := repo.Create(ctx, employee.Employee{CompanyID: company, EmployeeCode: "E001", FullName: "Dewi"})
	require.NoError(t, err)

	got, err := repo.GetByID(ctx, e.ID, company)
	require.NoError(t, err)
	assert.Equal(t, "Dewi", got.FullName)

	_, err = repo.GetByID(ctx, e.ID, "c-2")
	assert.ErrorIs(t, err, employee.ErrEmployeeNotFound)
}

func TestSettingsRepository_ClearDefaultIf(t *testing.T) {
	ctx := context.Background()
	repo := NewSettingsRepository(NewDB())
	id := "s-1"

	require.NoError(t, repo.SetDefaultShiftID(ctx, company, &id, "u-1"))
	require.NoError(t, repo.ClearDefaultIf(ctx, company, "s-2", "u-1"))
	got, err := repo.GetDefaultShiftID(ctx, company)
	require.NoError(t, err)
	require.NotNil(t, got)
	assert.Equal(t, "s-1", *got)

	require.NoError(t, repo.ClearDefaultIf(ctx, company, "s-1", "u-1"))
	got, err = repo.GetDefaultShiftID(ctx, company)
	require.NoError(t, err)
	assert.Nil(t, got)
}

func TestUnitOfWork_RestoresOnError(t *testing.T) {
	ctx := context.Background()
	db := NewDB()
	repo := NewAssignmentRepository(db)
	uow := NewUnitOfWork(db)

	a, err := repo.Create(ctx, shift.Assignment{
		CompanyID: company, EmployeeID: "e-1", ShiftID: "s-1",
		EffectiveFrom: day(1, 1), ApprovalStatus: shift.ApprovalApproved,
	})
	require.NoError(t, err)

	boom := errors.New("boom")
	err = uow.WithinEmployeeLock(ctx, company, "e-1", func(ctx context.Context) error {
		if err := repo.CloseAt(ctx, company, []string{a.ID}, day(7, 1), "u-1"); err != nil {
			return err
		}
		return boom
	})
	assert.ErrorIs(t, err, boom)

	got, err := repo.GetByID(ctx, a.ID, company)
	require.NoError(t, err)
	assert.Nil(t, got.EffectiveTo)
}

func TestUnitOfWork_RollbackKeepsConcurrentWrites(t *testing.T) {
	ctx := context.Background()
	db := NewDB()
	repo := NewAssignmentRepository(db)
	uow := NewUnitOfWork(db)

	existing, err := repo.Create(ctx, shift.Assignment{
		CompanyID: company, EmployeeID: "e-1", ShiftID: "s-1",
		EffectiveFrom: day(1, 1), ApprovalStatus: shift.ApprovalApproved,
	})
	require.NoError(t, err)

	var pendingID, insideID string
	boom := errors.New("boom")
	err = uow.WithinEmployeeLock(ctx, company, "e-1", func(txCtx context.Context) error {
		if err := repo.CloseAt(txCtx, company, []string{existing.ID}, day(7, 1), "u-1"); err != nil {
			return err
		}
		inside, err := repo.Create(txCtx, shift.Assignment{
			CompanyID: company, EmployeeID: "e-1", ShiftID: "s-2",
			EffectiveFrom: day(7, 1), ApprovalStatus: shift.ApprovalApproved,
		})
		if err != nil {
			return err
		}
		insideID = inside.ID

		// A request filed by the employee while the unit is running.
		var wg sync.WaitGroup
		wg.Add(1)
		go func() {
			defer wg.Done()
			pending, err := repo.Create(ctx, shift.Assignment{
				CompanyID: company, EmployeeID: "e-1", ShiftID: "s-3",
				EffectiveFrom: day(9, 1), ApprovalStatus: shift.ApprovalPending,
			})
			if err == nil {
				pendingID = pending.ID
			}
		}()
		wg.Wait()
		return boom
	})
	assert.ErrorIs(t, err, boom)
	require.NotEmpty(t, pendingID)

	pending, err := repo.GetByID(ctx, pendingID, company)
	require.NoError(t, err)
	assert.Equal(t, shift.ApprovalPending, pending.ApprovalStatus)

	_, err = repo.GetByID(ctx, insideID, company)
	assert.ErrorIs(t, err, shift.ErrAssignmentNotFound)

	restored, err := repo.GetByID(ctx, existing.ID, company)
	require.NoError(t, err)
	assert.Nil(t, restored.EffectiveTo)
}

func TestUnitOfWork_SerialisesPerEmployee(t *testing.T) {
	ctx := context.Background()
	uow := NewUnitOfWork(NewDB())

	var (
		mu      sync.Mutex
		inside  int
		maxSeen int
		wg      sync.WaitGroup
	)
	for i := 0; i < 20; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			_ = uow.WithinEmployeeLock(ctx, company, "e-1", func(ctx context.Context) error {
				mu.Lock()
				inside++
				if inside > maxSeen {
					maxSeen = inside
				}
				mu.Unlock()
				time.Sleep(time.Millisecond)
				mu.Lock()
				inside--
				mu.Unlock()
				return nil
			})
		}()
	}
	wg.Wait()
	assert.Equal(t, 1, maxSeen)
}

func TestUnitOfWork_HonoursContext(t *testing.T) {
	db := NewDB()
	uow := NewUnitOfWork(db)

	unlock, err := db.locks.lock(context.Background(), company+":e-1")
	require.NoError(t, err)
	defer unlock()

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Millisecond)
	defer cancel()
	err = uow.WithinEmployeeLock(ctx, company, "e-1", func(ctx context.Context) error { return nil })
	assert.ErrorIs(t, err, context.DeadlineExceeded)
}
