package models

import "time"

type Role string

const (
	RoleUser       Role = "USER"
	RoleSuperAdmin Role = "SUPER_ADMIN"
)

// User is an account of the authenticated (non-SDK) surface.
type User struct {
	ID           string
	Email        string
	PasswordHash string
	Role         Role
	IsActive     bool
	CreatedAt    time.Time
}

// PublicUser is the user view returned over HTTP.
type PublicUser struct {
	ID    string `json:"id"`
	Email string `json:"email"`
	Role  Role   `json:"role"`
}

func (u User) Public() PublicUser {
	return PublicUser{ID: u.ID, Email: u.Email, Role: u.Role}
}

// CredentialsRequest is the body of login and register calls.
type CredentialsRequest struct {
	Email    string `json:"email" binding:"required,email,max=200"`
	Password string `json:"password" binding:"required,min=1,max=200"`
}
