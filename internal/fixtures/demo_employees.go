package fixtures

import "github.com/cmlabs-hris/hris-shift-go/internal/domain/employee"

// DemoCompanyID scopes the directory seeded into the memory driver. Tokens
// minted with cmd/devtoken default to it.
const DemoCompanyID = "0190f3a0-0000-7000-8000-000000000001"

// GetDemoEmployees returns a small directory for STORAGE_DRIVER=memory, where
// no employee service is available to look people up.
func GetDemoEmployees() []employee.Employee {
	engineering := "0190f3a0-0000-7000-8000-0000000000d1"
	operations := "0190f3a0-0000-7000-8000-0000000000d2"

	return []employee.Employee{
		{
			ID:               "0190f3a0-0000-7000-8000-000000000101",
			CompanyID:        DemoCompanyID,
			DepartmentID:     &engineering,
			EmployeeCode:     "EMP001",
			FullName:         "Alya Pratama",
			EmploymentStatus: employee.EmploymentStatusActive,
		},
		{
			ID:               "0190f3a0-0000-7000-8000-000000000102",
			CompanyID:        DemoCompanyID,
			DepartmentID:     &engineering,
			EmployeeCode:     "EMP002",
			FullName:         "Bima Santoso",
			EmploymentStatus: employee.EmploymentStatusActive,
		},
		{
			ID:               "0190f3a0-0000-7000-8000-000000000103",
			CompanyID:        DemoCompanyID,
			DepartmentID:     &operations,
			EmployeeCode:     "EMP003",
			FullName:         "Citra Lestari",
			EmploymentStatus: employee.EmploymentStatusActive,
		},
		{
			ID:               "0190f3a0-0000-7000-8000-000000000104",
			CompanyID:        DemoCompanyID,
			DepartmentID:     &operations,
			EmployeeCode:     "EMP004",
			FullName:         "Dimas Nugroho",
			EmploymentStatus: employee.EmploymentStatusResigned,
		},
	}
}
