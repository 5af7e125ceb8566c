package handler

import (
	"net/http"

	"github.com/labstack/echo/v4"

	"github.com/distribuidoracarol/panel/internal/api/middleware"
)

// ctxUserID extracts the authenticated user id injected by the Auth
// middleware. A missing id means the route was mounted without Auth.
func ctxUserID(c echo.Context) (int64, error) {
	id, _ := c.Get(middleware.CtxUserID).(int64)
	if id <= 0 {
		return 0, echo.NewHTTPError(http.StatusUnauthorized, "Token inválido o expirado")
	}
	return id, nil
}

// bindAndValidate decodes the JSON body into req and validates it. When it
// reports false the 400 response has already been written.
func bindAndValidate(c echo.Context, req any) (bool, error) {
	if err := c.Bind(req); err != nil {
		return false, c.JSON(http.StatusBadRequest, map[string]string{"error": "No se enviaron datos"})
	}
	if err := c.Validate(req); err != nil {
		if fe, ok := err.(*FieldsError); ok {
			return false, c.JSON(http.StatusBadRequest, map[string]any{"error": fe.Message, "campos": fe.Fields})
		}
		return false, c.JSON(http.StatusBadRequest, map[string]string{"error": err.Error()})
	}
	return true, nil
}
