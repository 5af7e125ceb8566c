package domain

import (
	"encoding/json"
	"strings"
	"unicode"
	"unicode/utf8"
)

const (
	RoleAdmin  = "admin"
	RoleSeller = "vendedor"
)

// Storage keys holding the session pair.
const (
	KeyToken = "token"
	KeyUser  = "user"
)

// Token is the opaque bearer credential issued by the backend at login.
type Token string

// SessionUser is the cached profile of the signed-in user. It is written and
// cleared together with the Token and may be stale until the next login.
type SessionUser struct {
	ID    int64  `json:"id"`
	Name  string `json:"nombre"`
	Email string `json:"email,omitempty"`
	Role  string `json:"rol"`
}

// UnmarshalJSON accepts the name under "nombre", "nombre_completo" or
// "usuario"; the first non-empty one wins.
func (u *SessionUser) UnmarshalJSON(data []byte) error {
	var raw struct {
		ID             int64  `json:"id"`
		Nombre         string `json:"nombre"`
		NombreCompleto string `json:"nombre_completo"`
		Usuario        string `json:"usuario"`
		Email          string `json:"email"`
		Rol            string `json:"rol"`
	}
	if err := json.Unmarshal(data, &raw); err != nil {
		return err
	}

	u.ID = raw.ID
	u.Email = raw.Email
	u.Role = raw.Rol
	u.Name = firstNonEmpty(raw.Nombre, raw.NombreCompleto, raw.Usuario)
	return nil
}

// IsAdmin reports whether the cached role grants full access.
func (u SessionUser) IsAdmin() bool {
	return u.Role == RoleAdmin
}

// RoleLabel is the human label shown next to the user's name.
func (u SessionUser) RoleLabel() string {
	if u.IsAdmin() {
		return "Administrador"
	}
	return "Vendedor"
}

// Initial returns the upper-cased first letter of the display name.
func (u SessionUser) Initial() string {
	r, _ := utf8.DecodeRuneInString(strings.TrimSpace(u.Name))
	if r == utf8.RuneError {
		return ""
	}
	return string(unicode.ToUpper(r))
}

// Valid reports whether the snapshot carries the fields every page relies on.
func (u SessionUser) Valid() bool {
	return u.Role != ""
}

func firstNonEmpty(values ...string) string {
	for _, v := range values {
		if strings.TrimSpace(v) != "" {
			return v
		}
	}
	return ""
}
