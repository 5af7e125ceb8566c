package ports

import (
	"context"
	"time"

	"github.com/distribuidoracarol/panel/internal/core/domain"
)

// AuthRepository defines the interface for user account persistence.
type AuthRepository interface {
	FindByUsername(ctx context.Context, username string) (*domain.User, error)
	FindByID(ctx context.Context, id int64) (*domain.User, error)
	Create(ctx context.Context, user *domain.User) (*domain.User, error)
	List(ctx context.Context) ([]*domain.User, error)
	UpdatePassword(ctx context.Context, id int64, hash string) error
	TouchLastAccess(ctx context.Context, id int64, at time.Time) error
	Ping(ctx context.Context) error
}
