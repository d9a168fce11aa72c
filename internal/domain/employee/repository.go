package employee

import "context"

// EmployeeRepository is the directory lookup the shift engine depends on.
// The directory itself is owned by another service.
type EmployeeRepository interface {
	GetByID(ctx context.Context, id string, companyID string) (Employee, error)
	Create(ctx context.Context, newEmployee Employee) (Employee, error)
}
