package domain

import (
	"strings"
	"time"
)

// Role is the single capability set a caller carries.
type Role string

const (
	RoleAdmin   Role = "admin"
	RoleManager Role = "manager"
	RoleUser    Role = "user"
)

// ParseRole normalises a role name. ok is false for unknown values.
func ParseRole(s string) (Role, bool) {
	switch Role(strings.ToLower(strings.TrimSpace(s))) {
	case RoleAdmin:
		return RoleAdmin, true
	case RoleManager:
		return RoleManager, true
	case RoleUser:
		return RoleUser, true
	}
	return "", false
}

// User models an authenticated actor in the system.
type User struct {
	ID           int64
	Username     string
	Email        string
	PasswordHash string
	Role         Role
	CreatedAt    time.Time
}

// UserPatch carries a partial user update. Nil fields keep their stored value.
type UserPatch struct {
	Email *string
	Role  *Role
}

// Principal is the identity extracted from a verified bearer token.
type Principal struct {
	UserID   int64
	Username string
	Role     Role
}

// Authenticated reports whether the principal carries an identity and a role.
func (p Principal) Authenticated() bool {
	return p.UserID > 0 && p.Role != ""
}
