package userdesk

// UserRole is the user's role
type UserRole = string

const (
	// RoleUser is a regular account (i.e. view, edit own profile)
	RoleUser UserRole = "user"
	// RoleRoot is an administrative account (i.e. full user management)
	RoleRoot UserRole = "root"
)

// UserStatus is the lifecycle state of an account
type UserStatus = string

const (
	// UserStatusOther is a catch-all bucket for imported records
	UserStatusOther UserStatus = "other"
	// UserStatusDeleted marks a soft deleted account
	UserStatusDeleted UserStatus = "deleted"
	// UserStatusActive marks an account allowed to authenticate
	UserStatusActive UserStatus = "active"
	// UserStatusInactive marks a dormant account
	UserStatusInactive UserStatus = "inactive"
	// UserStatusPending marks an account awaiting email verification
	UserStatusPending UserStatus = "pending"
	// UserStatusBanned marks an account locked out by an administrator
	UserStatusBanned UserStatus = "banned"
	// UserStatusLimited marks an account with restricted capabilities
	UserStatusLimited UserStatus = "limited"
)

// IsValid checks if the role is one of the predefined valid roles
func IsValidRole(r UserRole) bool {
	switch r {
	case RoleUser, RoleRoot:
		return true
	default:
		return false
	}
}

// ParseRole safely parses a string into a UserRole
func ParseRole(roleStr string) (UserRole, bool) {
	role := UserRole(roleStr)
	return role, IsValidRole(role)
}

// IsValidStatus checks if the status is one of the predefined lifecycle states
func IsValidStatus(s UserStatus) bool {
	switch s {
	case UserStatusOther, UserStatusDeleted, UserStatusActive,
		UserStatusInactive, UserStatusPending, UserStatusBanned,
		UserStatusLimited:
		return true
	default:
		return false
	}
}

// ParseStatus safely parses a string into a UserStatus
func ParseStatus(statusStr string) (UserStatus, bool) {
	status := UserStatus(statusStr)
	return status, IsValidStatus(status)
}

// AllStatuses returns every lifecycle state, filter options for the
// users data table
func AllStatuses() []UserStatus {
	return []UserStatus{
		UserStatusOther,
		UserStatusDeleted,
		UserStatusActive,
		UserStatusInactive,
		UserStatusPending,
		UserStatusBanned,
		UserStatusLimited,
	}
}

// AllRoles returns every role
func AllRoles() []UserRole {
	return []UserRole{RoleUser, RoleRoot}
}
