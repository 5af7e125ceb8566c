package ports

import (
	"context"

	"github.com/distribuidoracarol/panel/internal/core/domain"
)

// SessionStore owns the persisted Token/SessionUser pair.
type SessionStore interface {
	SaveSession(ctx context.Context, token domain.Token, user domain.SessionUser) error
	Credential(ctx context.Context) (domain.Token, bool)
	SessionUser(ctx context.Context) (domain.SessionUser, bool)
	ClearSession(ctx context.Context) error
	IsAuthenticated(ctx context.Context) bool
}
