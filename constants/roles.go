package constants

// Roles are mutually exclusive. Admin is a superset for visibility
// queries only, never for transition authorization.
const (
	RoleUser     = "user"     // 使用方
	RoleAdmin    = "admin"    // 管理方
	RoleManager  = "manager"  // 承建方-项目经理
	RoleEmployee = "employee" // 承建方-员工
)

func IsValidRole(role string) bool {
	switch role {
	case RoleUser, RoleAdmin, RoleManager, RoleEmployee:
		return true
	}
	return false
}
