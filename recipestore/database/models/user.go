package models

import (
	"time"

	"github.com/uptrace/bun"
)

type User struct {
	bun.BaseModel `bun:"table:users,alias:u"`

	ID        int64  `bun:"id,pk,autoincrement"`
	Username  string `bun:"username,notnull,unique,type:varchar(150)"`
	Email     string `bun:"email,notnull,unique,type:varchar(254)"`
	FirstName string `bun:"first_name,notnull,type:varchar(150)"`
	LastName  string `bun:"last_name,notnull,type:varchar(150)"`
	Password  string `bun:"password,notnull,type:varchar(150)"`
	Role      string `bun:"role,notnull,type:varchar(10),default:'guest'"`

	CreatedAt time.Time `bun:"created_at,notnull,default:current_timestamp"`
	UpdatedAt time.Time `bun:"updated_at,notnull,default:current_timestamp"`
}

// Access levels, lowest to highest.
const (
	RoleGuest      = "guest"
	RoleAuthorized = "authorized"
	RoleAdmin      = "admin"
)

// ValidRole reports whether role is one of the known access levels.
func ValidRole(role string) bool {
	switch role {
	case RoleGuest, RoleAuthorized, RoleAdmin:
		return true
	}
	return false
}

// IsAdmin reports whether the user has admin access.
func (u *User) IsAdmin() bool {
	return u.Role == RoleAdmin
}

// FullName returns "FirstName LastName" for display.
func (u *User) FullName() string {
	if u.FirstName == "" {
		return u.LastName
	}
	if u.LastName == "" {
		return u.FirstName
	}
	return u.FirstName + " " + u.LastName
}
