package ports

import (
	"context"

	"github.com/distribuidoracarol/panel/internal/core/domain"
)

// RegisterInput carries the data needed to create an account.
type RegisterInput struct {
	Name     string
	Username string
	Email    string
	Password string
	Role     string
}

type AuthService interface {
	Register(ctx context.Context, in RegisterInput) (*domain.User, error)
	Login(ctx context.Context, username, password string) (string, *domain.User, error)
	Profile(ctx context.Context, id int64) (*domain.User, error)
	ChangePassword(ctx context.Context, id int64, current, next string) error
	ListUsers(ctx context.Context) ([]*domain.User, error)
}
