package postgresql

import (
	"context"
	"fmt"

	"github.com/cmlabs-hris/hris-shift-go/internal/domain/shift"
	"github.com/cmlabs-hris/hris-shift-go/internal/pkg/database"
	"github.com/jackc/pgx/v5"
)

type unitOfWorkImpl struct {
	db *database.DB
}

func NewUnitOfWork(db *database.DB) shift.UnitOfWork {
	return &unitOfWorkImpl{db: db}
}

// WithinEmployeeLock implements shift.UnitOfWork. The advisory lock is
// transaction scoped, so it is released on commit or rollback.
func (u *unitOfWorkImpl) WithinEmployeeLock(ctx context.Context, companyID, employeeID string, fn func(ctx context.Context) error) error {
	return WithTransaction(ctx, u.db, func(tx pgx.Tx) error {
		key := "shift-assignment:" + companyID + ":" + employeeID
		if _, err := tx.Exec(ctx, "SELECT pg_advisory_xact_lock(hashtext($1))", key); err != nil {
			return fmt.Errorf("acquire employee lock: %w", err)
		}
		return fn(WithTx(ctx, tx))
	})
}
