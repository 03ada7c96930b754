package authz

const (
	RoleStaff     = 10
	RoleRegistrar = 20
	RoleAdmin     = 50
)

// Permission codenames, kept in the app_label.action_model form.
const (
	PermAddStudent    = "student.add_student"
	PermChangeStudent = "student.change_student"
	PermViewStudent   = "student.view_student"
	PermDeleteStudent = "student.delete_student"

	PermAddUser    = "auth.add_user"
	PermChangeUser = "auth.change_user"
	PermViewUser   = "auth.view_user"
	PermDeleteUser = "auth.delete_user"
)

var rolePerms = map[int]map[string]struct{}{
	RoleStaff: set(
		PermViewStudent,
	),
	RoleRegistrar: set(
		PermAddStudent, PermChangeStudent, PermViewStudent, PermDeleteStudent,
		PermViewUser,
	),
}

func set(perms ...string) map[string]struct{} {
	m := make(map[string]struct{}, len(perms))
	for _, p := range perms {
		m[p] = struct{}{}
	}
	return m
}

func IsValidRole(roleID int) bool {
	return roleID == RoleStaff || roleID == RoleRegistrar || roleID == RoleAdmin
}

// IsSuperuser reports whether the role bypasses permission checks.
func IsSuperuser(roleID int) bool {
	return roleID == RoleAdmin
}

func HasPerm(roleID int, perm string) bool {
	if IsSuperuser(roleID) {
		return true
	}
	_, ok := rolePerms[roleID][perm]
	return ok
}

func HasAnyPerm(roleID int, perms ...string) bool {
	for _, p := range perms {
		if HasPerm(roleID, p) {
			return true
		}
	}
	return false
}

func RoleName(roleID int) string {
	switch roleID {
	case RoleStaff:
		return "staff"
	case RoleRegistrar:
		return "registrar"
	case RoleAdmin:
		return "admin"
	}
	return "unknown"
}

func AllPerms() []string {
	return []string{
		PermAddStudent, PermChangeStudent, PermViewStudent, PermDeleteStudent,
		PermAddUser, PermChangeUser, PermViewUser, PermDeleteUser,
	}
}
