package handler

import (
	"time"

	"github.com/distribuidoracarol/panel/internal/core/domain"
)

// --- Request types ---

type loginRequest struct {
	Usuario  string `json:"usuario"  validate:"required"`
	Password string `json:"password" validate:"required"`
}

type changePasswordRequest struct {
	PasswordActual string `json:"password_actual" validate:"required"`
	PasswordNueva  string `json:"password_nueva"  validate:"required"`
}

type createUserRequest struct {
	Nombre   string `json:"nombre"   validate:"required"`
	Usuario  string `json:"usuario"  validate:"required"`
	Email    string `json:"email"    validate:"omitempty,email"`
	Password string `json:"password" validate:"required"`
	Rol      string `json:"rol"      validate:"required"`
}

// --- Response types ---

type userResponse struct {
	ID            int64   `json:"id"`
	Nombre        string  `json:"nombre"`
	Usuario       string  `json:"usuario"`
	Email         string  `json:"email,omitempty"`
	Rol           string  `json:"rol"`
	Activo        bool    `json:"activo"`
	FechaCreacion string  `json:"fecha_creacion,omitempty"`
	UltimoAcceso  *string `json:"ultimo_acceso"`
}

type loginResponse struct {
	Mensaje string       `json:"mensaje"`
	Token   string       `json:"token"`
	Usuario userResponse `json:"usuario"`
}

type profileResponse struct {
	Usuario userResponse `json:"usuario"`
}

type validateTokenResponse struct {
	Valido  bool          `json:"valido"`
	Usuario *userResponse `json:"usuario,omitempty"`
	Error   string        `json:"error,omitempty"`
}

type listUsersResponse struct {
	Usuarios []userResponse `json:"usuarios"`
	Total    int            `json:"total"`
}

type messageResponse struct {
	Mensaje string `json:"mensaje"`
}

// --- Domain → Response ---

func toUserResponse(u *domain.User) userResponse {
	out := userResponse{
		ID:      u.ID,
		Nombre:  u.Name,
		Usuario: u.Username,
		Email:   u.Email,
		Rol:     u.Role,
		Activo:  u.Active,
	}
	if !u.CreatedAt.IsZero() {
		out.FechaCreacion = u.CreatedAt.Format(time.RFC3339)
	}
	if !u.LastAccess.IsZero() {
		s := u.LastAccess.Format(time.RFC3339)
		out.UltimoAcceso = &s
	}
	return out
}

func toUserResponses(users []*domain.User) []userResponse {
	out := make([]userResponse, 0, len(users))
	for _, u := range users {
		out = append(out, toUserResponse(u))
	}
	return out
}
