package service

import (
	"sync"
	"time"

	"github.com/distribuidoracarol/panel/internal/core/domain"
)

// NoticeBoard holds at most one notice; showing a new one replaces the
// current one. Expiry is evaluated against the injected clock on read, so no
// timer goroutines are involved.
type NoticeBoard struct {
	mu      sync.Mutex
	now     func() time.Time
	current *domain.Notice
}

func NewNoticeBoard(now func() time.Time) *NoticeBoard {
	if now == nil {
		now = time.Now
	}
	return &NoticeBoard{now: now}
}

func (b *NoticeBoard) Show(kind domain.NoticeKind, message string, ttl time.Duration) {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.current = &domain.Notice{Kind: kind, Message: message, ExpiresAt: b.now().Add(ttl)}
}

// Current returns the live notice, or nil once it has expired.
func (b *NoticeBoard) Current() *domain.Notice {
	b.mu.Lock()
	defer b.mu.Unlock()
	if b.current == nil || b.current.Expired(b.now()) {
		b.current = nil
		return nil
	}
	n := *b.current
	return &n
}

func (b *NoticeBoard) Dismiss() {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.current = nil
}
