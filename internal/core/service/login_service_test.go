package service

import (
	"context"
	"encoding/json"
	"errors"
	"io"
	"net/http"
	"sync"
	"testing"
	"time"

	"github.com/rs/zerolog"

	"github.com/distribuidoracarol/panel/internal/core/domain"
	"github.com/distribuidoracarol/panel/internal/core/ports"
)

// ---------------------------------------------------------------------------
// Stubs
// ---------------------------------------------------------------------------

type call struct {
	path string
	opts ports.RequestOptions
}

type stubGateway struct {
	mu       sync.Mutex
	calls    []call
	response func(path string, opts ports.RequestOptions) domain.Response
}

func (g *stubGateway) Request(_ context.Context, path string, opts ports.RequestOptions) domain.Response {
	g.mu.Lock()
	g.calls = append(g.calls, call{path: path, opts: opts})
	g.mu.Unlock()
	return g.response(path, opts)
}

func (g *stubGateway) Download(_ context.Context, path string, _ io.Writer) domain.Response {
	g.mu.Lock()
	g.calls = append(g.calls, call{path: path})
	g.mu.Unlock()
	return domain.Response{Status: http.StatusNotImplemented, Body: domain.ErrorBody("not implemented")}
}

type stubNavigator struct {
	mu   sync.Mutex
	hops []domain.Surface
}

func (n *stubNavigator) Navigate(_ context.Context, to domain.Surface) {
	n.mu.Lock()
	defer n.mu.Unlock()
	n.hops = append(n.hops, to)
}

func jsonResponse(status int, body any) domain.Response {
	raw, _ := json.Marshal(body)
	return domain.Response{Success: status >= 200 && status < 300, Status: status, Body: raw}
}

// loginBackend answers like the real login endpoint for ana/secret1.
func loginBackend(path string, opts ports.RequestOptions) domain.Response {
	if path != LoginPath {
		return jsonResponse(http.StatusNotFound, map[string]string{"error": "Not Found"})
	}
	form, _ := opts.Body.(loginForm)
	if form.Usuario == "ana" && form.Password == "secret1" {
		return jsonResponse(http.StatusOK, map[string]any{
			"mensaje": "Login exitoso",
			"token":   "abc123",
			"usuario": map[string]any{"id": 7, "nombre": "Ana", "rol": "admin"},
		})
	}
	return jsonResponse(http.StatusUnauthorized, map[string]string{"error": "Credenciales incorrectas"})
}

type loginFixture struct {
	gw       *stubGateway
	nav      *stubNavigator
	store    *faultyStorage
	sessions *SessionService
	notices  *NoticeBoard
	ctrl     *LoginController
}

func newLoginFixture(respond func(string, ports.RequestOptions) domain.Response) *loginFixture {
	f := &loginFixture{
		gw:      &stubGateway{response: respond},
		nav:     &stubNavigator{},
		store:   newFaultyStorage(),
		notices: NewNoticeBoard(nil),
	}
	f.sessions = NewSessionService(f.store, zerolog.Nop())
	f.ctrl = NewLoginController(f.gw, f.sessions, f.nav, f.notices, 0, zerolog.Nop())
	return f
}

// ---------------------------------------------------------------------------
// Tests
// ---------------------------------------------------------------------------

func TestLoginController_Success(t *testing.T) {
	f := newLoginFixture(loginBackend)
	ctx := context.Background()

	out := f.ctrl.Submit(ctx, "  ana ", "secret1")

	if out.State != domain.LoginAuthenticated || out.Message != "¡Bienvenido!" {
		t.Fatalf("unexpected outcome: %+v", out)
	}
	if len(f.gw.calls) != 1 || f.gw.calls[0].opts.Method != http.MethodPost {
		t.Fatalf("expected one POST, got %+v", f.gw.calls)
	}
	tok, ok := f.sessions.Credential(ctx)
	if !ok || tok != "abc123" {
		t.Fatalf("expected stored token, got %q %v", tok, ok)
	}
	u, _ := f.sessions.SessionUser(ctx)
	if u.Name != "Ana" || !u.IsAdmin() {
		t.Fatalf("unexpected stored user: %+v", u)
	}
	if len(f.nav.hops) != 1 || f.nav.hops[0] != domain.SurfaceDashboard {
		t.Fatalf("expected navigation to dashboard, got %v", f.nav.hops)
	}
	if n := f.notices.Current(); n == nil || n.Kind != domain.NoticeSuccess {
		t.Fatalf("expected success notice, got %+v", n)
	}
	if v := f.ctrl.View(); v.SubmitEnabled || v.Loading {
		t.Fatalf("form must stay disabled after success: %+v", v)
	}
}

func TestLoginController_WrongPassword(t *testing.T) {
	f := newLoginFixture(loginBackend)
	ctx := context.Background()

	out := f.ctrl.Submit(ctx, "ana", "nope")

	if out.State != domain.LoginRejected || out.Message != "Credenciales incorrectas" {
		t.Fatalf("unexpected outcome: %+v", out)
	}
	if f.sessions.IsAuthenticated(ctx) {
		t.Fatalf("no session may be stored on rejection")
	}
	if len(f.nav.hops) != 0 {
		t.Fatalf("no navigation expected, got %v", f.nav.hops)
	}
	v := f.ctrl.View()
	if v.State != domain.LoginIdle || !v.SubmitEnabled {
		t.Fatalf("form must be re-enabled: %+v", v)
	}
	if v.Notice == nil || v.Notice.Kind != domain.NoticeError {
		t.Fatalf("expected error notice, got %+v", v.Notice)
	}

	// Retry after a rejection works.
	if out := f.ctrl.Submit(ctx, "ana", "secret1"); out.State != domain.LoginAuthenticated {
		t.Fatalf("retry failed: %+v", out)
	}
}

func TestLoginController_RejectionWithoutMessage(t *testing.T) {
	f := newLoginFixture(func(string, ports.RequestOptions) domain.Response {
		return jsonResponse(http.StatusUnauthorized, map[string]string{})
	})

	out := f.ctrl.Submit(context.Background(), "ana", "x")
	if out.Message != "Credenciales incorrectas" {
		t.Fatalf("expected default message, got %q", out.Message)
	}
}

func TestLoginController_ServerMessagePassedThrough(t *testing.T) {
	f := newLoginFixture(func(string, ports.RequestOptions) domain.Response {
		return jsonResponse(http.StatusForbidden, map[string]string{"error": "Usuario desactivado. Contacte al administrador"})
	})

	out := f.ctrl.Submit(context.Background(), "ana", "secret1")
	if out.State != domain.LoginRejected || out.Message != "Usuario desactivado. Contacte al administrador" {
		t.Fatalf("unexpected outcome: %+v", out)
	}
}

func TestLoginController_ConnectionFailure(t *testing.T) {
	f := newLoginFixture(func(string, ports.RequestOptions) domain.Response {
		return domain.Response{Status: 0, Body: domain.ErrorBody("Error de conexión")}
	})
	ctx := context.Background()

	out := f.ctrl.Submit(ctx, "ana", "secret1")

	if out.State != domain.LoginConnectionFailed || out.Message != "Error de conexión. Intente nuevamente." {
		t.Fatalf("unexpected outcome: %+v", out)
	}
	if f.sessions.IsAuthenticated(ctx) || len(f.nav.hops) != 0 {
		t.Fatalf("connection failure must not sign in or navigate")
	}
	if !f.ctrl.View().SubmitEnabled {
		t.Fatalf("form must be re-enabled")
	}
}

func TestLoginController_StorageFailure(t *testing.T) {
	f := newLoginFixture(loginBackend)
	f.store.failSet[domain.KeyUser] = true
	ctx := context.Background()

	out := f.ctrl.Submit(ctx, "ana", "secret1")

	if out.State != domain.LoginRejected || out.Message != "No se pudo guardar la sesión" {
		t.Fatalf("unexpected outcome: %+v", out)
	}
	if f.sessions.IsAuthenticated(ctx) {
		t.Fatalf("no partial session may remain")
	}
	if len(f.nav.hops) != 0 {
		t.Fatalf("storage failure must not navigate")
	}
}

func TestLoginController_MalformedSuccess(t *testing.T) {
	f := newLoginFixture(func(string, ports.RequestOptions) domain.Response {
		return jsonResponse(http.StatusOK, map[string]string{"mensaje": "ok"})
	})

	out := f.ctrl.Submit(context.Background(), "ana", "secret1")
	if out.State != domain.LoginRejected || out.Message != "Respuesta de inicio de sesión inválida" {
		t.Fatalf("unexpected outcome: %+v", out)
	}
}

func TestLoginController_EmptyFieldsNeverSubmit(t *testing.T) {
	f := newLoginFixture(loginBackend)

	cases := []struct{ usuario, password string }{
		{"", "secret1"},
		{"   ", "secret1"},
		{"ana", ""},
	}
	for _, tc := range cases {
		out := f.ctrl.Submit(context.Background(), tc.usuario, tc.password)
		if out.State != domain.LoginIdle || out.Message == "" {
			t.Fatalf("%q/%q: unexpected outcome %+v", tc.usuario, tc.password, out)
		}
	}
	if len(f.gw.calls) != 0 {
		t.Fatalf("no request expected, got %d", len(f.gw.calls))
	}
}

func TestLoginController_SubmitWhileSubmittingIsIgnored(t *testing.T) {
	release := make(chan struct{})
	entered := make(chan struct{})
	var once sync.Once
	f := newLoginFixture(func(path string, opts ports.RequestOptions) domain.Response {
		once.Do(func() { close(entered) })
		<-release
		return loginBackend(path, opts)
	})

	done := make(chan domain.LoginOutcome)
	go func() { done <- f.ctrl.Submit(context.Background(), "ana", "secret1") }()
	<-entered

	if v := f.ctrl.View(); !v.Loading || v.SubmitEnabled {
		t.Fatalf("expected loading view, got %+v", v)
	}
	second := f.ctrl.Submit(context.Background(), "ana", "secret1")
	if second.State != domain.LoginSubmitting {
		t.Fatalf("expected second submit to be ignored, got %+v", second)
	}

	close(release)
	if out := <-done; out.State != domain.LoginAuthenticated {
		t.Fatalf("unexpected outcome: %+v", out)
	}
	if len(f.gw.calls) != 1 {
		t.Fatalf("expected exactly one request, got %d", len(f.gw.calls))
	}
}

func TestLoginController_RedirectDelay(t *testing.T) {
	f := newLoginFixture(loginBackend)
	f.ctrl = NewLoginController(f.gw, f.sessions, f.nav, f.notices, 30*time.Millisecond, zerolog.Nop())

	start := time.Now()
	f.ctrl.Submit(context.Background(), "ana", "secret1")
	if elapsed := time.Since(start); elapsed < 30*time.Millisecond {
		t.Fatalf("expected redirect to wait, took %v", elapsed)
	}
	if len(f.nav.hops) != 1 {
		t.Fatalf("expected one navigation, got %v", f.nav.hops)
	}
}

func TestLoginController_CancelledBeforeRedirect(t *testing.T) {
	f := newLoginFixture(loginBackend)
	f.ctrl = NewLoginController(f.gw, f.sessions, f.nav, f.notices, time.Hour, zerolog.Nop())

	ctx, cancel := context.WithTimeout(context.Background(), 20*time.Millisecond)
	defer cancel()
	out := f.ctrl.Submit(ctx, "ana", "secret1")

	if out.State != domain.LoginAuthenticated {
		t.Fatalf("unexpected outcome: %+v", out)
	}
	if len(f.nav.hops) != 0 {
		t.Fatalf("cancelled redirect must not navigate")
	}
	if !f.sessions.IsAuthenticated(context.Background()) {
		t.Fatalf("session must be kept")
	}
}

func TestLoginController_Logout(t *testing.T) {
	f := newLoginFixture(loginBackend)
	ctx := context.Background()
	f.ctrl.Submit(ctx, "ana", "secret1")

	if err := f.ctrl.Logout(ctx); err != nil {
		t.Fatalf("Logout: %v", err)
	}
	if f.sessions.IsAuthenticated(ctx) {
		t.Fatalf("expected session cleared")
	}
	if last := f.nav.hops[len(f.nav.hops)-1]; last != domain.SurfaceLogin {
		t.Fatalf("expected navigation to login, got %v", last)
	}
}

func TestLoginController_ProfileRefreshesSnapshot(t *testing.T) {
	f := newLoginFixture(func(path string, opts ports.RequestOptions) domain.Response {
		if path == ProfilePath {
			return jsonResponse(http.StatusOK, map[string]any{
				"usuario": map[string]any{"id": 7, "nombre": "Ana María", "email": "ana@example.com", "rol": "admin"},
			})
		}
		return loginBackend(path, opts)
	})
	ctx := context.Background()
	f.ctrl.Submit(ctx, "ana", "secret1")

	u, err := f.ctrl.Profile(ctx)
	if err != nil {
		t.Fatalf("Profile: %v", err)
	}
	if u.Name != "Ana María" {
		t.Fatalf("unexpected profile: %+v", u)
	}
	cached, _ := f.sessions.SessionUser(ctx)
	if cached.Email != "ana@example.com" {
		t.Fatalf("expected cached user refreshed, got %+v", cached)
	}
	if tok, _ := f.sessions.Credential(ctx); tok != "abc123" {
		t.Fatalf("token must be kept, got %q", tok)
	}
}

func TestLoginController_ProfileError(t *testing.T) {
	f := newLoginFixture(func(string, ports.RequestOptions) domain.Response {
		return jsonResponse(http.StatusUnauthorized, map[string]string{"error": "No autorizado"})
	})

	_, err := f.ctrl.Profile(context.Background())
	if !errors.Is(err, domain.ErrAuthExpired) {
		t.Fatalf("expected ErrAuthExpired, got %v", err)
	}
}

func TestLoginController_UserWithoutRoleIsRejected(t *testing.T) {
	f := newLoginFixture(func(string, ports.RequestOptions) domain.Response {
		return jsonResponse(http.StatusOK, map[string]any{
			"token":   "abc123",
			"usuario": map[string]any{"id": 7, "nombre_completo": "Ana"},
		})
	})
	ctx := context.Background()

	out := f.ctrl.Submit(ctx, "ana", "secret1")

	if out.State != domain.LoginRejected || out.Message != "Respuesta de inicio de sesión inválida" {
		t.Fatalf("unexpected outcome: %+v", out)
	}
	if f.sessions.IsAuthenticated(ctx) || f.store.Len() != 0 {
		t.Fatalf("no session may be written")
	}
	if len(f.nav.hops) != 0 {
		t.Fatalf("expected no navigation, got %v", f.nav.hops)
	}
}

func TestLoginController_ProfileWithoutRoleKeepsSnapshot(t *testing.T) {
	f := newLoginFixture(func(path string, opts ports.RequestOptions) domain.Response {
		if path == ProfilePath {
			return jsonResponse(http.StatusOK, map[string]any{
				"usuario": map[string]any{"id": 7, "nombre": "Ana María"},
			})
		}
		return loginBackend(path, opts)
	})
	ctx := context.Background()
	f.ctrl.Submit(ctx, "ana", "secret1")

	if _, err := f.ctrl.Profile(ctx); !errors.Is(err, domain.ErrServer) {
		t.Fatalf("expected ErrServer, got %v", err)
	}
	cached, ok := f.sessions.SessionUser(ctx)
	if !ok || cached.Name != "Ana" || cached.Role != domain.RoleAdmin {
		t.Fatalf("expected original snapshot kept, got %+v %v", cached, ok)
	}
}
