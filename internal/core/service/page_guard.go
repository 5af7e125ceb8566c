package service

import (
	"context"

	"github.com/rs/zerolog"

	"github.com/distribuidoracarol/panel/internal/core/domain"
	"github.com/distribuidoracarol/panel/internal/core/ports"
)

const msgAdminOnly = "Acceso denegado. Solo administradores pueden acceder."

// Guard gates every authenticated page load. It consults only the session
// store and never issues API calls.
type Guard struct {
	sessions ports.SessionStore
	nav      ports.Navigator
	notifier ports.Notifier
	log      zerolog.Logger
}

func NewGuard(sessions ports.SessionStore, nav ports.Navigator, notifier ports.Notifier, log zerolog.Logger) *Guard {
	return &Guard{sessions: sessions, nav: nav, notifier: notifier, log: log}
}

// Enter returns the banner view-model when page may be shown. Otherwise it
// navigates away and reports false.
func (g *Guard) Enter(ctx context.Context, page domain.Page) (domain.Header, bool) {
	if !g.sessions.IsAuthenticated(ctx) {
		g.log.Debug().Str("page", page.Name).Msg("no session, redirecting to login")
		g.nav.Navigate(ctx, domain.SurfaceLogin)
		return domain.Header{}, false
	}

	user, ok := g.sessions.SessionUser(ctx)
	if !ok {
		g.nav.Navigate(ctx, domain.SurfaceLogin)
		return domain.Header{}, false
	}

	if page.AdminOnly && !user.IsAdmin() {
		g.log.Info().Str("page", page.Name).Int64("user_id", user.ID).Msg("non-admin denied")
		g.notifier.Show(domain.NoticeError, msgAdminOnly, domain.MessageTTL)
		g.nav.Navigate(ctx, domain.SurfaceDashboard)
		return domain.Header{}, false
	}

	return domain.NewHeader(user), true
}
