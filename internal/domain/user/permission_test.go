package user

import "testing"

func TestHasPermission(t *testing.T) {
	tests := []struct {
		role       Role
		permission Permission
		want       bool
	}{
		{RoleOwner, PermissionPayrollFinalize, true},
		{RoleOwner, PermissionStatutoryPublish, true},
		{RoleManager, PermissionPayrollCalculate, true},
		{RoleManager, PermissionTransactionsManage, true},
		{RoleManager, PermissionPayrollFinalize, false},
		{RoleManager, PermissionStatutoryPublish, false},
		{RoleEmployee, PermissionPayrollView, false},
		{Role("auditor"), PermissionPayrollView, false},
	}

	for _, tt := range tests {
		if got := HasPermission(tt.role, tt.permission); got != tt.want {
			t.Errorf("HasPermission(%s, %s) = %v, want %v", tt.role, tt.permission, got, tt.want)
		}
	}
}
