package user

type Permission string

const (
	// Payroll
	PermissionPayrollView      Permission = "payroll.view"
	PermissionPayrollCalculate Permission = "payroll.calculate"
	PermissionPayrollFinalize  Permission = "payroll.finalize"

	// Ledger
	PermissionTransactionsManage Permission = "transactions.manage"

	// Statutory rates
	PermissionStatutoryPublish Permission = "statutory.publish"
)

// RolePermissions maps roles to their permissions
var RolePermissions = map[Role][]Permission{
	RoleOwner: {
		// Owner has all permissions
		PermissionPayrollView,
		PermissionPayrollCalculate,
		PermissionPayrollFinalize,
		PermissionTransactionsManage,
		PermissionStatutoryPublish,
	},
	RoleManager: {
		// Manager prepares batches; finalizing stays with the owner
		PermissionPayrollView,
		PermissionPayrollCalculate,
		PermissionTransactionsManage,
	},
	RoleEmployee: {
		// Employee has no payroll administration access
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
