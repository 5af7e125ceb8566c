package api

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/rs/zerolog"

	"github.com/distribuidoracarol/panel/internal/api/handler"
	"github.com/distribuidoracarol/panel/internal/core/domain"
	"github.com/distribuidoracarol/panel/internal/core/ports"
	"github.com/distribuidoracarol/panel/internal/core/service"
	memrepo "github.com/distribuidoracarol/panel/internal/infrastructure/db/memory"
	"github.com/distribuidoracarol/panel/internal/infrastructure/gateway"
	"github.com/distribuidoracarol/panel/internal/infrastructure/storage/memory"
)

type recordingNavigator struct {
	mu   sync.Mutex
	hops []domain.Surface
}

func (n *recordingNavigator) Navigate(_ context.Context, to domain.Surface) {
	n.mu.Lock()
	defer n.mu.Unlock()
	n.hops = append(n.hops, to)
}

type backend struct {
	srv  *httptest.Server
	auth *service.AuthService
	repo *memrepo.AuthRepository
}

func newBackend(t *testing.T) *backend {
	t.Helper()
	repo := memrepo.NewAuthRepository()
	auth := service.NewAuthService(repo, "secret", time.Hour, zerolog.Nop())
	ctx := context.Background()
	if _, err := auth.Register(ctx, ports.RegisterInput{Name: "Ana", Username: "ana", Password: "secret1", Role: domain.RoleAdmin}); err != nil {
		t.Fatalf("seed ana: %v", err)
	}
	if _, err := auth.Register(ctx, ports.RegisterInput{Name: "Beto", Username: "beto", Password: "secret2", Role: domain.RoleSeller}); err != nil {
		t.Fatalf("seed beto: %v", err)
	}

	e := NewRouter(Deps{
		AuthService:     auth,
		Health:          map[string]handler.Pinger{"users": repo},
		JWTSecret:       "secret",
		LoginRatePerMin: 100,
		Registry:        prometheus.NewRegistry(),
		Log:             zerolog.Nop(),
	})
	srv := httptest.NewServer(WithCORS(e, []string{"http://localhost:3000"}))
	t.Cleanup(srv.Close)
	return &backend{srv: srv, auth: auth, repo: repo}
}

type client struct {
	sessions *service.SessionService
	nav      *recordingNavigator
	gw       *gateway.Client
	login    *service.LoginController
}

func newClient(t *testing.T, origin string) *client {
	t.Helper()
	c := &client{
		sessions: service.NewSessionService(memory.NewStore(), zerolog.Nop()),
		nav:      &recordingNavigator{},
	}
	gw, err := gateway.New(gateway.Config{Origin: origin, Timeout: 5 * time.Second}, c.sessions, c.nav, zerolog.Nop())
	if err != nil {
		t.Fatalf("gateway.New: %v", err)
	}
	c.gw = gw
	c.login = service.NewLoginController(gw, c.sessions, c.nav, service.NewNoticeBoard(nil), 0, zerolog.Nop())
	return c
}

func TestRouter_LoginFlowEndToEnd(t *testing.T) {
	b := newBackend(t)
	cl := newClient(t, b.srv.URL)
	ctx := context.Background()

	out := cl.login.Submit(ctx, "ana", "secret1")
	if out.State != domain.LoginAuthenticated {
		t.Fatalf("unexpected outcome: %+v", out)
	}
	u, ok := cl.sessions.SessionUser(ctx)
	if !ok || u.Name != "Ana" || !u.IsAdmin() {
		t.Fatalf("unexpected cached user: %+v", u)
	}

	resp := cl.gw.Request(ctx, "/usuarios", ports.RequestOptions{})
	if !resp.Success {
		t.Fatalf("admin list failed: %+v", resp)
	}
	var list struct {
		Total int `json:"total"`
	}
	_ = resp.Decode(&list)
	if list.Total != 2 {
		t.Fatalf("expected 2 users, got %d", list.Total)
	}

	profile, err := cl.login.Profile(ctx)
	if err != nil || profile.Name != "Ana" {
		t.Fatalf("profile: %+v %v", profile, err)
	}
}

func TestRouter_WrongPasswordKeepsClientSignedOut(t *testing.T) {
	b := newBackend(t)
	cl := newClient(t, b.srv.URL)

	out := cl.login.Submit(context.Background(), "ana", "wrong")
	if out.State != domain.LoginRejected || out.Message != "Contraseña incorrecta" {
		t.Fatalf("unexpected outcome: %+v", out)
	}
	if cl.sessions.IsAuthenticated(context.Background()) || len(cl.nav.hops) != 0 {
		t.Fatalf("rejected login must not sign in or navigate")
	}
}

func TestRouter_SellerForbiddenFromUsers(t *testing.T) {
	b := newBackend(t)
	cl := newClient(t, b.srv.URL)
	ctx := context.Background()
	cl.login.Submit(ctx, "beto", "secret2")

	resp := cl.gw.Request(ctx, "/usuarios", ports.RequestOptions{})
	if resp.Status != http.StatusForbidden {
		t.Fatalf("expected 403, got %+v", resp)
	}
	if !cl.sessions.IsAuthenticated(ctx) {
		t.Fatalf("403 must not sign the user out")
	}
}

func TestRouter_ForgedTokenSignsOut(t *testing.T) {
	b := newBackend(t)
	cl := newClient(t, b.srv.URL)
	ctx := context.Background()
	_ = cl.sessions.SaveSession(ctx, "forged", domain.SessionUser{ID: 1, Name: "X", Role: domain.RoleAdmin})

	resp := cl.gw.Request(ctx, "/auth/perfil", ports.RequestOptions{})
	if resp.Status != http.StatusUnauthorized {
		t.Fatalf("expected 401, got %+v", resp)
	}
	if cl.sessions.IsAuthenticated(ctx) {
		t.Fatalf("expected session cleared")
	}
	if len(cl.nav.hops) != 1 || cl.nav.hops[0] != domain.SurfaceLogin {
		t.Fatalf("expected one login redirect, got %v", cl.nav.hops)
	}
}

func TestRouter_InactiveUser(t *testing.T) {
	b := newBackend(t)
	ana, _ := b.repo.FindByUsername(context.Background(), "ana")
	b.repo.SetActive(ana.ID, false)
	cl := newClient(t, b.srv.URL)

	out := cl.login.Submit(context.Background(), "ana", "secret1")
	if out.Message != "Usuario desactivado. Contacte al administrador" {
		t.Fatalf("unexpected outcome: %+v", out)
	}
}

func TestRouter_ChangePassword(t *testing.T) {
	b := newBackend(t)
	cl := newClient(t, b.srv.URL)
	ctx := context.Background()
	cl.login.Submit(ctx, "beto", "secret2")

	resp := cl.gw.Request(ctx, "/auth/cambiar-password", ports.RequestOptions{
		Method: http.MethodPut,
		Body:   map[string]string{"password_actual": "secret2", "password_nueva": "nuevo123"},
	})
	if !resp.Success {
		t.Fatalf("change password failed: %+v", resp)
	}
	if _, _, err := b.auth.Login(ctx, "beto", "nuevo123"); err != nil {
		t.Fatalf("new password rejected: %v", err)
	}
}

func TestRouter_OperationalEndpoints(t *testing.T) {
	b := newBackend(t)

	for _, path := range []string{"/health", "/health/ready", "/metrics", "/swagger/doc.json"} {
		resp, err := http.Get(b.srv.URL + path)
		if err != nil {
			t.Fatalf("%s: %v", path, err)
		}
		resp.Body.Close()
		if resp.StatusCode != http.StatusOK {
			t.Fatalf("%s: expected 200, got %d", path, resp.StatusCode)
		}
	}
}

func TestRouter_UnknownRouteUsesErrorEnvelope(t *testing.T) {
	b := newBackend(t)

	resp, err := http.Get(b.srv.URL + "/api/nada")
	if err != nil {
		t.Fatalf("get: %v", err)
	}
	defer resp.Body.Close()
	var body map[string]string
	_ = json.NewDecoder(resp.Body).Decode(&body)
	if resp.StatusCode != http.StatusNotFound || body["error"] == "" {
		t.Fatalf("expected 404 envelope, got %d %+v", resp.StatusCode, body)
	}
}

func TestRouter_CORSPreflight(t *testing.T) {
	b := newBackend(t)

	req, _ := http.NewRequest(http.MethodOptions, b.srv.URL+"/api/auth/login", nil)
	req.Header.Set("Origin", "http://localhost:3000")
	req.Header.Set("Access-Control-Request-Method", http.MethodPost)
	req.Header.Set("Access-Control-Request-Headers", "content-type")
	resp, err := http.DefaultClient.Do(req)
	if err != nil {
		t.Fatalf("preflight: %v", err)
	}
	resp.Body.Close()

	if got := resp.Header.Get("Access-Control-Allow-Origin"); got != "http://localhost:3000" {
		t.Fatalf("unexpected allow-origin %q", got)
	}
	if !strings.Contains(resp.Header.Get("Access-Control-Allow-Methods"), http.MethodPost) {
		t.Fatalf("POST must be allowed")
	}
}
