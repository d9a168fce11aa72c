package user

type Permission string

const (
	// Shift Catalog
	PermissionShiftView   Permission = "shift.view"
	PermissionShiftManage Permission = "shift.manage"

	// Shift Assignment
	PermissionShiftAssign  Permission = "shift.assign"
	PermissionShiftApprove Permission = "shift.approve"
	PermissionShiftViewAll Permission = "shift.view_all"

	// Self Service
	PermissionShiftViewOwn Permission = "shift.view_own"
	PermissionShiftRequest Permission = "shift.request"
)

// RolePermissions maps roles to their permissions
var RolePermissions = map[Role][]Permission{
	RoleOwner: {
		// Owner has all permissions
		PermissionShiftView,
		PermissionShiftManage,
		PermissionShiftAssign,
		PermissionShiftApprove,
		PermissionShiftViewAll,
		PermissionShiftViewOwn,
		PermissionShiftRequest,
	},
	RoleManager: {
		// Manager runs the roster but does not edit the catalog
		PermissionShiftView,
		PermissionShiftAssign,
		PermissionShiftApprove,
		PermissionShiftViewAll,
		PermissionShiftViewOwn,
		PermissionShiftRequest,
	},
	RoleEmployee: {
		// Employee can see shifts and ask for a change
		PermissionShiftView,
		PermissionShiftViewOwn,
		PermissionShiftRequest,
	},
	RolePending: {
		// Pending role has no permissions
	},
}

// HasPermission checks if a role has a specific permission
func HasPermission(role Role, permission Permission) bool {
	permissions, exists := RolePermissions[role]
	if !exists {
		return false
	}

	for _, p := range permissions {
		if p == permission {
			return true
		}
	}

	return false
}
