package user

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestHasPermission(t *testing.T) {
	tests := []struct {
		role       Role
		permission Permission
		want       bool
	}{
		{RoleOwner, PermissionShiftManage, true},
		{RoleManager, PermissionShiftManage, false},
		{RoleManager, PermissionShiftAssign, true},
		{RoleManager, PermissionShiftApprove, true},
		{RoleEmployee, PermissionShiftAssign, false},
		{RoleEmployee, PermissionShiftRequest, true},
		{RolePending, PermissionShiftView, false},
		{Role("intruder"), PermissionShiftView, false},
	}

	for _, tt := range tests {
		t.Run(string(tt.role)+"/"+string(tt.permission), func(t *testing.T) {
			assert.Equal(t, tt.want, HasPermission(tt.role, tt.permission))
		})
	}
}

func TestActor(t *testing.T) {
	empID := "emp-1"
	a := Actor{UserID: "u-1", CompanyID: "c-1", EmployeeID: &empID, Role: RoleEmployee}

	assert.True(t, a.IsSelf("emp-1"))
	assert.False(t, a.IsSelf("emp-2"))
	assert.False(t, a.IsManager())
	assert.True(t, a.Can(PermissionShiftRequest))
	assert.False(t, a.Can(PermissionShiftApprove))

	noEmployee := Actor{UserID: "u-2", CompanyID: "c-1", Role: RoleOwner}
	assert.False(t, noEmployee.IsSelf(""))
	assert.True(t, noEmployee.IsManager())
}
