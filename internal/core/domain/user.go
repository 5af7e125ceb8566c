package domain

import "time"

// User is an account as the backend stores it.
type User struct {
	ID           int64     `json:"id"`
	Name         string    `json:"nombre"`
	Username     string    `json:"usuario"`
	Email        string    `json:"email,omitempty"`
	PasswordHash string    `json:"-"`
	Role         string    `json:"rol"`
	Active       bool      `json:"activo"`
	CreatedAt    time.Time `json:"fecha_creacion"`
	LastAccess   time.Time `json:"ultimo_acceso"`
}

// Snapshot returns the profile a client caches after login.
func (u *User) Snapshot() SessionUser {
	return SessionUser{ID: u.ID, Name: u.Name, Email: u.Email, Role: u.Role}
}
