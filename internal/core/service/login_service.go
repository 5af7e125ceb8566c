package service

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"strings"
	"sync"
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/rs/zerolog"

	"github.com/distribuidoracarol/panel/internal/core/domain"
	"github.com/distribuidoracarol/panel/internal/core/ports"
)

const (
	LoginPath   = "/auth/login"
	ProfilePath = "/auth/perfil"

	DefaultRedirectDelay = 500 * time.Millisecond
)

const (
	msgWelcome         = "¡Bienvenido!"
	msgBadCredentials  = "Credenciales incorrectas"
	msgConnection      = "Error de conexión. Intente nuevamente."
	msgStorage         = "No se pudo guardar la sesión"
	msgInvalidResponse = "Respuesta de inicio de sesión inválida"
)

type loginForm struct {
	Usuario  string `json:"usuario"  validate:"required"`
	Password string `json:"password" validate:"required"`
}

// LoginController drives the login form through
// Idle → Submitting → {Authenticated, Rejected, ConnectionFailed}.
// Rejected and ConnectionFailed fall back to Idle before Submit returns.
type LoginController struct {
	gateway       ports.Gateway
	sessions      ports.SessionStore
	nav           ports.Navigator
	notices       *NoticeBoard
	validate      *validator.Validate
	redirectDelay time.Duration
	log           zerolog.Logger

	mu    sync.Mutex
	state domain.LoginState
}

func NewLoginController(
	gateway ports.Gateway,
	sessions ports.SessionStore,
	nav ports.Navigator,
	notices *NoticeBoard,
	redirectDelay time.Duration,
	log zerolog.Logger,
) *LoginController {
	if redirectDelay < 0 {
		redirectDelay = DefaultRedirectDelay
	}
	return &LoginController{
		gateway:       gateway,
		sessions:      sessions,
		nav:           nav,
		notices:       notices,
		validate:      validator.New(),
		redirectDelay: redirectDelay,
		log:           log,
		state:         domain.LoginIdle,
	}
}

// View returns the data the login form is rendered from.
func (c *LoginController) View() domain.LoginView {
	c.mu.Lock()
	state := c.state
	c.mu.Unlock()

	return domain.LoginView{
		State:         state,
		SubmitEnabled: state == domain.LoginIdle,
		Loading:       state == domain.LoginSubmitting,
		Notice:        c.notices.Current(),
	}
}

// Submit exchanges credentials for a session. Only an Idle form can submit;
// any other state is returned unchanged.
func (c *LoginController) Submit(ctx context.Context, usuario, password string) domain.LoginOutcome {
	form := loginForm{Usuario: strings.TrimSpace(usuario), Password: password}
	if err := c.validate.Struct(form); err != nil {
		msg := formError(err)
		c.notices.Show(domain.NoticeError, msg, domain.MessageTTL)
		return domain.LoginOutcome{State: domain.LoginIdle, Message: msg}
	}

	if err := c.transition(domain.LoginSubmitting); err != nil {
		c.log.Debug().Err(err).Msg("submit ignored")
		return domain.LoginOutcome{State: c.View().State}
	}

	c.log.Info().Str("usuario", form.Usuario).Msg("login attempt")
	resp := c.gateway.Request(ctx, LoginPath, ports.RequestOptions{Method: http.MethodPost, Body: form})

	switch {
	case resp.Status == 0:
		return c.fail(domain.LoginConnectionFailed, msgConnection)
	case !resp.Success:
		msg := resp.Message()
		if msg == "" {
			msg = msgBadCredentials
		}
		return c.fail(domain.LoginRejected, msg)
	}

	var result domain.LoginResult
	if err := resp.Decode(&result); err != nil || result.Token == "" || result.User == nil || !result.User.Valid() {
		c.log.Warn().Err(err).Int("status", resp.Status).Msg("login response without token or user")
		return c.fail(domain.LoginRejected, msgInvalidResponse)
	}

	if err := c.sessions.SaveSession(ctx, result.Token, *result.User); err != nil {
		c.log.Error().Err(err).Msg("persist session")
		return c.fail(domain.LoginRejected, msgStorage)
	}

	_ = c.transition(domain.LoginAuthenticated)
	c.notices.Show(domain.NoticeSuccess, msgWelcome, domain.MessageTTL)
	c.log.Info().Int64("user_id", result.User.ID).Str("rol", result.User.Role).Msg("login succeeded")

	// Navigation to the landing surface waits redirectDelay after the pair is stored.
	if c.redirectDelay > 0 {
		timer := time.NewTimer(c.redirectDelay)
		defer timer.Stop()
		select {
		case <-ctx.Done():
			return domain.LoginOutcome{State: domain.LoginAuthenticated, Message: msgWelcome, User: result.User}
		case <-timer.C:
		}
	}
	c.nav.Navigate(ctx, domain.SurfaceDashboard)

	return domain.LoginOutcome{State: domain.LoginAuthenticated, Message: msgWelcome, User: result.User}
}

// fail records a terminal failure state, shows msg and re-arms the form.
func (c *LoginController) fail(state domain.LoginState, msg string) domain.LoginOutcome {
	_ = c.transition(state)
	c.notices.Show(domain.NoticeError, msg, domain.MessageTTL)
	_ = c.transition(domain.LoginIdle)
	c.log.Info().Str("state", string(state)).Str("message", msg).Msg("login failed")
	return domain.LoginOutcome{State: state, Message: msg}
}

func (c *LoginController) transition(next domain.LoginState) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	if !c.state.CanTransitionTo(next) {
		return fmt.Errorf("login: invalid transition from %s to %s", c.state, next)
	}
	c.state = next
	return nil
}

// Logout destroys the session and returns to the login surface.
func (c *LoginController) Logout(ctx context.Context) error {
	err := c.sessions.ClearSession(ctx)
	c.nav.Navigate(ctx, domain.SurfaceLogin)
	return err
}

// Profile fetches the signed-in user's profile and refreshes the cached
// snapshot when the server returns one.
func (c *LoginController) Profile(ctx context.Context) (*domain.SessionUser, error) {
	resp := c.gateway.Request(ctx, ProfilePath, ports.RequestOptions{})
	if err := resp.Err(); err != nil {
		return nil, fmt.Errorf("profile: %w", err)
	}

	var body struct {
		User *domain.SessionUser `json:"usuario"`
	}
	if err := resp.Decode(&body); err != nil {
		return nil, fmt.Errorf("profile: %w", err)
	}
	if body.User == nil || !body.User.Valid() {
		return nil, fmt.Errorf("profile: %w: missing usuario or rol", domain.ErrServer)
	}

	if token, ok := c.sessions.Credential(ctx); ok {
		if err := c.sessions.SaveSession(ctx, token, *body.User); err != nil {
			c.log.Warn().Err(err).Msg("refresh cached user")
		}
	}
	return body.User, nil
}

// formError turns validator errors into a single user-facing message.
func formError(err error) string {
	var ve validator.ValidationErrors
	if !errors.As(err, &ve) || len(ve) == 0 {
		return err.Error()
	}

	msgs := make([]string, 0, len(ve))
	for _, fe := range ve {
		field := strings.ToLower(fe.Field())
		switch fe.Tag() {
		case "required":
			msgs = append(msgs, "El campo "+field+" es requerido")
		case "min":
			msgs = append(msgs, fmt.Sprintf("El campo %s debe tener al menos %s caracteres", field, fe.Param()))
		default:
			msgs = append(msgs, fmt.Sprintf("El campo %s es inválido (%s)", field, fe.Tag()))
		}
	}
	return strings.Join(msgs, "; ")
}
