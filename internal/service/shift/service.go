package shift

import (
	"time"

	"github.com/cmlabs-hris/hris-shift-go/internal/domain/employee"
	"github.com/cmlabs-hris/hris-shift-go/internal/domain/shift"
	"github.com/cmlabs-hris/hris-shift-go/internal/pkg/idempotency"
)

type Options struct {
	// BulkWorkers bounds how many employees a bulk assignment processes at once.
	BulkWorkers int
	// BulkMax caps the number of employee ids per bulk request.
	BulkMax        int
	IdempotencyTTL time.Duration
}

func (o Options) withDefaults() Options {
	if o.BulkWorkers <= 0 {
		o.BulkWorkers = 8
	}
	if o.BulkMax <= 0 {
		o.BulkMax = 500
	}
	if o.IdempotencyTTL <= 0 {
		o.IdempotencyTTL = 24 * time.Hour
	}
	return o
}

type shiftServiceImpl struct {
	uow            shift.UnitOfWork
	shiftRepo      shift.ShiftRepository
	settingsRepo   shift.SettingsRepository
	assignmentRepo shift.AssignmentRepository
	employeeRepo   employee.EmployeeRepository
	idempotency    idempotency.Store
	opts           Options
	now            func() time.Time
}

func NewShiftService(
	uow shift.UnitOfWork,
	shiftRepo shift.ShiftRepository,
	settingsRepo shift.SettingsRepository,
	assignmentRepo shift.AssignmentRepository,
	employeeRepo employee.EmployeeRepository,
	idempotencyStore idempotency.Store,
	opts Options,
) shift.ShiftService {
	return &shiftServiceImpl{
		uow:            uow,
		shiftRepo:      shiftRepo,
		settingsRepo:   settingsRepo,
		assignmentRepo: assignmentRepo,
		employeeRepo:   employeeRepo,
		idempotency:    idempotencyStore,
		opts:           opts.withDefaults(),
		now:            func() time.Time { return time.Now().UTC() },
	}
}
