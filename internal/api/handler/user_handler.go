package handler

import (
	"errors"
	"net/http"
	"strings"

	"github.com/labstack/echo/v4"

	"github.com/distribuidoracarol/panel/internal/core/domain"
	"github.com/distribuidoracarol/panel/internal/core/ports"
)

// UserHandler serves the admin-only account endpoints.
type UserHandler struct {
	authService ports.AuthService
}

func NewUserHandler(authService ports.AuthService) *UserHandler {
	return &UserHandler{authService: authService}
}

// List returns every account, optionally filtered by activo and rol.
//
// @Summary      Listar usuarios
// @Tags         usuarios
// @Produce      json
// @Security     BearerAuth
// @Param        activo  query     bool    false  "Filtrar por estado"
// @Param        rol     query     string  false  "Filtrar por rol"
// @Success      200     {object}  listUsersResponse
// @Failure      403     {object}  map[string]string
// @Router       /usuarios [get]
func (h *UserHandler) List(c echo.Context) error {
	users, err := h.authService.ListUsers(c.Request().Context())
	if err != nil {
		return err
	}

	activo := strings.ToLower(c.QueryParam("activo"))
	rol := c.QueryParam("rol")
	filtered := users[:0]
	for _, u := range users {
		if activo != "" && u.Active != (activo == "true") {
			continue
		}
		if rol != "" && u.Role != rol {
			continue
		}
		filtered = append(filtered, u)
	}

	return c.JSON(http.StatusOK, listUsersResponse{
		Usuarios: toUserResponses(filtered),
		Total:    len(filtered),
	})
}

// Create registers a new account.
//
// @Summary      Crear usuario
// @Tags         usuarios
// @Accept       json
// @Produce      json
// @Security     BearerAuth
// @Param        body  body      createUserRequest  true  "Datos del usuario"
// @Success      201   {object}  profileResponse
// @Failure      400   {object}  map[string]string
// @Failure      403   {object}  map[string]string
// @Router       /usuarios [post]
func (h *UserHandler) Create(c echo.Context) error {
	var req createUserRequest
	if ok, err := bindAndValidate(c, &req); !ok {
		return err
	}

	user, err := h.authService.Register(c.Request().Context(), ports.RegisterInput{
		Name:     req.Nombre,
		Username: req.Usuario,
		Email:    req.Email,
		Password: req.Password,
		Role:     req.Rol,
	})
	if err != nil {
		var msg string
		switch {
		case errors.Is(err, domain.ErrUserExists):
			msg = "El nombre de usuario ya está en uso"
		case errors.Is(err, domain.ErrWeakPassword):
			msg = "La contraseña debe tener al menos 6 caracteres"
		case errors.Is(err, domain.ErrInvalidRole):
			msg = "Rol inválido. Debe ser admin o vendedor"
		case errors.Is(err, domain.ErrInvalidCredentials):
			msg = "Usuario y contraseña son requeridos"
		default:
			return err
		}
		return c.JSON(http.StatusBadRequest, map[string]string{"error": msg})
	}

	return c.JSON(http.StatusCreated, profileResponse{Usuario: toUserResponse(user)})
}
