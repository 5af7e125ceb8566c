package ports

import (
	"context"
	"time"

	"github.com/distribuidoracarol/panel/internal/core/domain"
)

// Navigator moves the user to another surface.
type Navigator interface {
	Navigate(ctx context.Context, to domain.Surface)
}

// Notifier shows a transient message that dismisses itself after ttl.
type Notifier interface {
	Show(kind domain.NoticeKind, message string, ttl time.Duration)
}
