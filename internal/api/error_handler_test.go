package api

import (
	"errors"
	"fmt"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/labstack/echo/v4"
	"github.com/rs/zerolog"

	"github.com/distribuidoracarol/panel/internal/core/domain"
)

func TestResolveError(t *testing.T) {
	cases := []struct {
		err  error
		code int
		msg  string
	}{
		{fmt.Errorf("login: %w", domain.ErrUserNotFound), http.StatusNotFound, "Usuario no encontrado"},
		{domain.ErrUserInactive, http.StatusForbidden, "Usuario desactivado. Contacte al administrador"},
		{fmt.Errorf("create: %w", domain.ErrUserExists), http.StatusBadRequest, "El nombre de usuario ya está en uso"},
		{domain.ErrInvalidRole, http.StatusBadRequest, "Rol inválido. Debe ser admin o vendedor"},
		{echo.ErrNotFound, http.StatusNotFound, "Recurso no encontrado"},
		{echo.ErrMethodNotAllowed, http.StatusMethodNotAllowed, "Método no permitido"},
		{echo.NewHTTPError(http.StatusUnauthorized, "Token inválido o expirado"), http.StatusUnauthorized, "Token inválido o expirado"},
		{errors.New("boom"), http.StatusInternalServerError, "Error interno del servidor"},
	}
	for _, tc := range cases {
		code, msg := resolveError(tc.err)
		if code != tc.code || msg != tc.msg {
			t.Fatalf("%v: expected %d %q, got %d %q", tc.err, tc.code, tc.msg, code, msg)
		}
	}
}

func TestHTTPErrorHandler_Envelope(t *testing.T) {
	e := echo.New()
	req := httptest.NewRequest(http.MethodGet, "/api/x", nil)
	rec := httptest.NewRecorder()
	c := e.NewContext(req, rec)

	NewHTTPErrorHandler(zerolog.Nop())(errors.New("db down: secret detail"), c)

	if rec.Code != http.StatusInternalServerError {
		t.Fatalf("expected 500, got %d", rec.Code)
	}
	body := rec.Body.String()
	if !strings.Contains(body, `"error":"Error interno del servidor"`) || strings.Contains(body, "secret detail") {
		t.Fatalf("unexpected body: %s", body)
	}
}

func TestHTTPErrorHandler_HeadHasNoBody(t *testing.T) {
	e := echo.New()
	req := httptest.NewRequest(http.MethodHead, "/api/x", nil)
	rec := httptest.NewRecorder()
	c := e.NewContext(req, rec)

	NewHTTPErrorHandler(zerolog.Nop())(echo.ErrNotFound, c)

	if rec.Code != http.StatusNotFound || rec.Body.Len() != 0 {
		t.Fatalf("expected bare 404, got %d %q", rec.Code, rec.Body.String())
	}
}
