package models

import "time"

type User struct {
	ID           int        `json:"id"`
	Username     string     `json:"username"`
	FirstName    string     `json:"first_name"`
	LastName     string     `json:"last_name"`
	Email        string     `json:"email"`
	PasswordHash string     `json:"-"`
	RoleID       int        `json:"role_id"`
	IsActive     bool       `json:"is_active"`
	DateJoined   time.Time  `json:"date_joined"`
	LastLogin    *time.Time `json:"last_login,omitempty"`

	RefreshToken     *string    `json:"-"`
	RefreshExpiresAt *time.Time `json:"-"`
	RefreshRevoked   bool       `json:"-"`
}

type LoginRequest struct {
	Username string `json:"username" binding:"required"`
	Password string `json:"password" binding:"required"`
}

// DashboardStats mirrors the counters shown on the landing page.
type DashboardStats struct {
	ActiveAdminUsers   int `json:"active_admin_users"`
	InactiveAdminUsers int `json:"inactive_admin_users"`
	ActiveStaffUsers   int `json:"active_staff_users"`
	InactiveStaffUsers int `json:"inactive_staff_users"`
	ActiveStudents     int `json:"active_students"`
}

type CreateUserRequest struct {
	Username  string `json:"username" binding:"required,max=150"`
	FirstName string `json:"first_name" binding:"max=150"`
	LastName  string `json:"last_name" binding:"max=150"`
	Email     string `json:"email" binding:"required,email,max=254"`
	// Password is optional; a random one is generated and emailed when empty.
	Password string `json:"password" binding:"omitempty,min=8"`
	RoleID   int    `json:"role_id" binding:"required"`
	IsActive *bool  `json:"is_active"`
}

// UserUpdate carries the fields a PUT may change. Nil fields are left untouched.
type UserUpdate struct {
	Username  *string `json:"username" binding:"omitempty,max=150"`
	FirstName *string `json:"first_name" binding:"omitempty,max=150"`
	LastName  *string `json:"last_name" binding:"omitempty,max=150"`
	Email     *string `json:"email" binding:"omitempty,email,max=254"`
	RoleID    *int    `json:"role_id"`
	IsActive  *bool   `json:"is_active"`
}

type PasswordChangeRequest struct {
	OldPassword string `json:"old_password" binding:"required"`
	NewPassword string `json:"new_password" binding:"required,min=8"`
}

type PasswordSetRequest struct {
	NewPassword string `json:"new_password" binding:"required,min=8"`
}
