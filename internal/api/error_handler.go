package api

import (
	"errors"
	"fmt"
	"net/http"

	"github.com/labstack/echo/v4"
	"github.com/rs/zerolog"

	"github.com/distribuidoracarol/panel/internal/core/domain"
)

type errorResponse struct {
	Error string `json:"error"`
}

type errorMapping struct {
	target error
	code   int
	msg    string
}

// domainErrors is checked in order; the first errors.Is match wins.
var domainErrors = []errorMapping{
	{domain.ErrUserNotFound, http.StatusNotFound, "Usuario no encontrado"},
	{domain.ErrUserInactive, http.StatusForbidden, "Usuario desactivado. Contacte al administrador"},
	{domain.ErrForbidden, http.StatusForbidden, "Acceso denegado"},
	{domain.ErrInvalidCredentials, http.StatusUnauthorized, "Credenciales incorrectas"},
	{domain.ErrUserExists, http.StatusBadRequest, "El nombre de usuario ya está en uso"},
	{domain.ErrWeakPassword, http.StatusBadRequest, "La contraseña debe tener al menos 6 caracteres"},
	{domain.ErrInvalidRole, http.StatusBadRequest, "Rol inválido. Debe ser admin o vendedor"},
}

// echo's default messages for router and binder failures.
var echoMessages = map[int]string{
	http.StatusNotFound:              "Recurso no encontrado",
	http.StatusMethodNotAllowed:      "Método no permitido",
	http.StatusUnsupportedMediaType:  "Tipo de contenido no soportado",
	http.StatusRequestEntityTooLarge: "Solicitud demasiado grande",
}

// NewHTTPErrorHandler renders every error as {"error": msg}. Unknown errors
// are logged and answered with a generic 500.
func NewHTTPErrorHandler(log zerolog.Logger) echo.HTTPErrorHandler {
	return func(err error, c echo.Context) {
		if c.Response().Committed {
			return
		}

		code, msg := resolveError(err)
		if code == http.StatusInternalServerError {
			log.Error().
				Err(err).
				Str("method", c.Request().Method).
				Str("path", c.Path()).
				Str("request_id", c.Response().Header().Get(echo.HeaderXRequestID)).
				Msg("unhandled error")
		}

		if c.Request().Method == http.MethodHead {
			_ = c.NoContent(code)
			return
		}
		_ = c.JSON(code, errorResponse{Error: msg})
	}
}

func resolveError(err error) (int, string) {
	var he *echo.HTTPError
	if errors.As(err, &he) {
		if msg, ok := he.Message.(string); ok && msg != http.StatusText(he.Code) {
			return he.Code, msg
		}
		if msg, ok := echoMessages[he.Code]; ok {
			return he.Code, msg
		}
		return he.Code, fmt.Sprintf("%v", he.Message)
	}

	for _, m := range domainErrors {
		if errors.Is(err, m.target) {
			return m.code, m.msg
		}
	}
	return http.StatusInternalServerError, "Error interno del servidor"
}
