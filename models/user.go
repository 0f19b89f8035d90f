package models

import (
	"time"
)

// Role is the authorization role carried by a user
type Role string

const (
	RoleUser  Role = "user"
	RoleAdmin Role = "admin"
)

// User is an identity reference; authentication lives outside this service
type User struct {
	ID        int64     `db:"id"`
	Username  string    `db:"username"`
	Role      Role      `db:"role"`
	CreatedAt time.Time `db:"created_at"`
}

// IsAdmin reports whether the user holds the admin role
func (u *User) IsAdmin() bool {
	return u.Role == RoleAdmin
}
