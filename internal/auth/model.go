package auth

import "time"

type Role string

const (
	RoleStudent Role = "student"
	RoleFaculty Role = "faculty"
	RoleStaff   Role = "staff"
	RoleAdmin   Role = "admin"
)

// SelfServiceRoles are the roles a user may pick at registration. Admin
// accounts come only from the seed file.
var SelfServiceRoles = []Role{RoleStudent, RoleFaculty, RoleStaff}

func (r Role) Valid() bool {
	switch r {
	case RoleStudent, RoleFaculty, RoleStaff, RoleAdmin:
		return true
	}
	return false
}

type User struct {
	ID            int64      `json:"id"`
	Email         string     `json:"email"`
	PasswordHash  string     `json:"-"`
	Role          Role       `json:"role"`
	FullName      string     `json:"full_name"`
	Active        bool       `json:"active"`
	EmailVerified bool       `json:"email_verified"`
	CreatedAt     time.Time  `json:"created_at"`
	LastLoginAt   *time.Time `json:"last_login_at,omitempty"`
}

// FailureReason is the closed set of recorded login-failure causes.
type FailureReason string

const (
	ReasonInvalidDomain FailureReason = "invalid domain"
	ReasonControlChars  FailureReason = "control characters"
	ReasonUserNotFound  FailureReason = "user not found"
	ReasonInactive      FailureReason = "account inactive"
	ReasonUnverified    FailureReason = "email not verified"
	ReasonWrongPassword FailureReason = "wrong password"
	ReasonDatabaseError FailureReason = "database error"
)

type LoginAttempt struct {
	ID            int64          `json:"id"`
	Email         string         `json:"email"`
	Success       bool           `json:"success"`
	UserID        *int64         `json:"user_id,omitempty"`
	FailureReason *FailureReason `json:"failure_reason,omitempty"`
	RemoteAddr    string         `json:"remote_addr"`
	Timestamp     time.Time      `json:"timestamp"`
}
