package memory

import (
	"context"

	"github.com/cmlabs-hris/hris-shift-go/internal/domain/shift"
)

type unitOfWorkImpl struct {
	db *DB
}

func NewUnitOfWork(db *DB) shift.UnitOfWork {
	return &unitOfWorkImpl{db: db}
}

// WithinEmployeeLock implements shift.UnitOfWork. If fn fails, the rows it
// wrote through ctx are put back, so a half-applied supersede never becomes
// visible. Rows written by other callers in the meantime are left alone.
func (u *unitOfWorkImpl) WithinEmployeeLock(ctx context.Context, companyID, employeeID string, fn func(ctx context.Context) error) error {
	unlock, err := u.db.locks.lock(ctx, companyID+":"+employeeID)
	if err != nil {
		return err
	}
	defer unlock()

	j := &journal{prior: make(map[string]*storedAssignment)}
	if err := fn(withJournal(ctx, j)); err != nil {
		u.rollback(j)
		return err
	}
	return nil
}

func (u *unitOfWorkImpl) rollback(j *journal) {
	u.db.mu.Lock()
	defer u.db.mu.Unlock()

	for id, prior := range j.prior {
		if prior == nil {
			delete(u.db.assignments, id)
			continue
		}
		u.db.assignments[id] = *prior
	}
}
