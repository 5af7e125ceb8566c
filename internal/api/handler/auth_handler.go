package handler

import (
	"errors"
	"net/http"

	"github.com/labstack/echo/v4"

	"github.com/distribuidoracarol/panel/internal/core/domain"
	"github.com/distribuidoracarol/panel/internal/core/ports"
	"github.com/distribuidoracarol/panel/internal/metrics"
)

type AuthHandler struct {
	authService ports.AuthService
}

func NewAuthHandler(authService ports.AuthService) *AuthHandler {
	return &AuthHandler{authService: authService}
}

// Login authenticates a user and returns a JWT token.
//
// @Summary      Iniciar sesión
// @Tags         auth
// @Accept       json
// @Produce      json
// @Param        body  body      loginRequest  true  "Credenciales"
// @Success      200   {object}  loginResponse
// @Failure      400   {object}  map[string]any
// @Failure      401   {object}  map[string]string
// @Failure      403   {object}  map[string]string
// @Failure      404   {object}  map[string]string
// @Failure      429   {object}  map[string]string
// @Router       /auth/login [post]
func (h *AuthHandler) Login(c echo.Context) error {
	var req loginRequest
	if ok, err := bindAndValidate(c, &req); !ok {
		return err
	}

	token, user, err := h.authService.Login(c.Request().Context(), req.Usuario, req.Password)
	if err != nil {
		var (
			status int
			result string
			msg    string
		)
		switch {
		case errors.Is(err, domain.ErrUserNotFound):
			status, result, msg = http.StatusNotFound, "not_found", "Usuario no encontrado"
		case errors.Is(err, domain.ErrUserInactive):
			status, result, msg = http.StatusForbidden, "inactive", "Usuario desactivado. Contacte al administrador"
		case errors.Is(err, domain.ErrInvalidCredentials):
			status, result, msg = http.StatusUnauthorized, "invalid_credentials", "Contraseña incorrecta"
		default:
			return err
		}
		metrics.LoginAttemptsTotal.WithLabelValues(result).Inc()
		return c.JSON(status, map[string]string{"error": msg})
	}

	metrics.LoginAttemptsTotal.WithLabelValues("ok").Inc()
	return c.JSON(http.StatusOK, loginResponse{
		Mensaje: "Inicio de sesión exitoso",
		Token:   token,
		Usuario: toUserResponse(user),
	})
}

// Profile returns the authenticated user.
//
// @Summary      Perfil del usuario autenticado
// @Tags         auth
// @Produce      json
// @Security     BearerAuth
// @Success      200  {object}  profileResponse
// @Failure      401  {object}  map[string]string
// @Failure      404  {object}  map[string]string
// @Router       /auth/perfil [get]
func (h *AuthHandler) Profile(c echo.Context) error {
	id, err := ctxUserID(c)
	if err != nil {
		return err
	}

	user, err := h.authService.Profile(c.Request().Context(), id)
	if err != nil {
		return err
	}
	return c.JSON(http.StatusOK, profileResponse{Usuario: toUserResponse(user)})
}

// ValidateToken reports whether the bearer token still maps to an active user.
//
// @Summary      Validar token
// @Tags         auth
// @Produce      json
// @Security     BearerAuth
// @Success      200  {object}  validateTokenResponse
// @Failure      401  {object}  validateTokenResponse
// @Router       /auth/validar-token [get]
func (h *AuthHandler) ValidateToken(c echo.Context) error {
	id, err := ctxUserID(c)
	if err != nil {
		return err
	}

	user, err := h.authService.Profile(c.Request().Context(), id)
	if err != nil && !errors.Is(err, domain.ErrUserNotFound) {
		return err
	}
	if user == nil || !user.Active {
		return c.JSON(http.StatusUnauthorized, validateTokenResponse{Valido: false, Error: "Token inválido"})
	}

	resp := toUserResponse(user)
	return c.JSON(http.StatusOK, validateTokenResponse{Valido: true, Usuario: &resp})
}

// ChangePassword replaces the authenticated user's password.
//
// @Summary      Cambiar contraseña
// @Tags         auth
// @Accept       json
// @Produce      json
// @Security     BearerAuth
// @Param        body  body      changePasswordRequest  true  "Contraseñas"
// @Success      200   {object}  messageResponse
// @Failure      400   {object}  map[string]string
// @Failure      401   {object}  map[string]string
// @Router       /auth/cambiar-password [put]
func (h *AuthHandler) ChangePassword(c echo.Context) error {
	id, err := ctxUserID(c)
	if err != nil {
		return err
	}

	var req changePasswordRequest
	if ok, err := bindAndValidate(c, &req); !ok {
		return err
	}

	err = h.authService.ChangePassword(c.Request().Context(), id, req.PasswordActual, req.PasswordNueva)
	switch {
	case err == nil:
		return c.JSON(http.StatusOK, messageResponse{Mensaje: "Contraseña cambiada exitosamente"})
	case errors.Is(err, domain.ErrInvalidCredentials):
		// Never 401 here: the client treats any 401 as an expired session.
		return c.JSON(http.StatusBadRequest, map[string]string{"error": "Contraseña actual incorrecta"})
	default:
		return err
	}
}
