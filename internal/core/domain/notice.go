package domain

import "time"

type NoticeKind string

const (
	NoticeSuccess NoticeKind = "success"
	NoticeError   NoticeKind = "error"
	NoticeInfo    NoticeKind = "info"
)

// Auto-dismiss durations.
const (
	AlertTTL   = 5 * time.Second
	MessageTTL = 3 * time.Second
)

// Notice is a transient user-facing message with an explicit expiry.
type Notice struct {
	Kind      NoticeKind
	Message   string
	ExpiresAt time.Time
}

// Expired reports whether the notice should no longer be shown at now.
func (n Notice) Expired(now time.Time) bool {
	return !now.Before(n.ExpiresAt)
}
