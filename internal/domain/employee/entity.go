package employee

import "time"

// Employee is the slice of the directory record the shift engine reads.
type Employee struct {
	ID               string
	CompanyID        string
	DepartmentID     *string
	EmployeeCode     string
	FullName         string
	EmploymentStatus EmploymentStatus
	CreatedAt        time.Time
	UpdatedAt        time.Time
	DeletedAt        *time.Time
}

type EmploymentStatus string

const (
	EmploymentStatusActive     EmploymentStatus = "active"
	EmploymentStatusResigned   EmploymentStatus = "resigned"
	EmploymentStatusTerminated EmploymentStatus = "terminated"
)

// IsAssignable reports whether the employee can receive a new shift.
func (e Employee) IsAssignable() bool {
	return e.DeletedAt == nil && e.EmploymentStatus == EmploymentStatusActive
}
