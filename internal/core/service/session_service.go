package service

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"

	"github.com/rs/zerolog"

	"github.com/distribuidoracarol/panel/internal/core/domain"
	"github.com/distribuidoracarol/panel/internal/core/ports"
	"github.com/distribuidoracarol/panel/internal/metrics"
)

// SessionService implements ports.SessionStore on top of a key/value Storage.
// The token and user entries are kept as a pair: a save either leaves both
// new values in place or restores the previous pair, and a read that finds
// only one half clears both.
type SessionService struct {
	storage ports.Storage
	log     zerolog.Logger
}

func NewSessionService(storage ports.Storage, log zerolog.Logger) *SessionService {
	return &SessionService{storage: storage, log: log}
}

type snapshot struct {
	token, user       string
	hasToken, hasUser bool
}

func (s *SessionService) SaveSession(ctx context.Context, token domain.Token, user domain.SessionUser) error {
	if token == "" {
		return fmt.Errorf("save session: %w: empty token", domain.ErrStorage)
	}
	// load discards a user without a role, so it is never written.
	if !user.Valid() {
		return fmt.Errorf("save session: %w: user without rol", domain.ErrStorage)
	}
	rawUser, err := json.Marshal(user)
	if err != nil {
		return fmt.Errorf("save session: %w: %v", domain.ErrStorage, err)
	}

	prev, err := s.snapshot(ctx)
	if err != nil {
		return fmt.Errorf("save session: %w: %v", domain.ErrStorage, err)
	}

	if err := s.writePair(ctx, string(token), string(rawUser)); err != nil {
		if rbErr := s.restore(ctx, prev); rbErr != nil {
			s.log.Error().Err(rbErr).Msg("session rollback failed")
			err = errors.Join(err, rbErr)
		}
		metrics.SessionEventsTotal.WithLabelValues("save_failed").Inc()
		return fmt.Errorf("save session: %w: %v", domain.ErrStorage, err)
	}

	metrics.SessionEventsTotal.WithLabelValues("saved").Inc()
	s.log.Debug().Int64("user_id", user.ID).Str("rol", user.Role).Msg("session saved")
	return nil
}

// writePair writes both entries and reads them back.
func (s *SessionService) writePair(ctx context.Context, token, user string) error {
	if err := s.storage.SetItem(ctx, domain.KeyToken, token); err != nil {
		return fmt.Errorf("write token: %w", err)
	}
	if err := s.storage.SetItem(ctx, domain.KeyUser, user); err != nil {
		return fmt.Errorf("write user: %w", err)
	}

	got, err := s.snapshot(ctx)
	if err != nil {
		return fmt.Errorf("read back: %w", err)
	}
	if !got.hasToken || got.token != token || !got.hasUser || got.user != user {
		return errors.New("read back mismatch")
	}
	return nil
}

func (s *SessionService) snapshot(ctx context.Context) (snapshot, error) {
	var snap snapshot
	var err error
	if snap.token, snap.hasToken, err = s.storage.GetItem(ctx, domain.KeyToken); err != nil {
		return snapshot{}, err
	}
	if snap.user, snap.hasUser, err = s.storage.GetItem(ctx, domain.KeyUser); err != nil {
		return snapshot{}, err
	}
	return snap, nil
}

func (s *SessionService) restore(ctx context.Context, snap snapshot) error {
	return errors.Join(
		s.restoreItem(ctx, domain.KeyToken, snap.token, snap.hasToken),
		s.restoreItem(ctx, domain.KeyUser, snap.user, snap.hasUser),
	)
}

func (s *SessionService) restoreItem(ctx context.Context, key, value string, present bool) error {
	if present {
		return s.storage.SetItem(ctx, key, value)
	}
	return s.storage.RemoveItem(ctx, key)
}

// Credential returns the stored token. Read failures and a broken pair are
// reported as absence.
func (s *SessionService) Credential(ctx context.Context) (domain.Token, bool) {
	token, _, ok := s.load(ctx)
	return token, ok
}

// SessionUser returns the cached profile under the same rules as Credential.
func (s *SessionService) SessionUser(ctx context.Context) (domain.SessionUser, bool) {
	_, user, ok := s.load(ctx)
	return user, ok
}

func (s *SessionService) IsAuthenticated(ctx context.Context) bool {
	_, ok := s.Credential(ctx)
	return ok
}

func (s *SessionService) ClearSession(ctx context.Context) error {
	err := errors.Join(
		s.storage.RemoveItem(ctx, domain.KeyToken),
		s.storage.RemoveItem(ctx, domain.KeyUser),
	)
	if err != nil {
		s.log.Error().Err(err).Msg("clear session failed")
		return fmt.Errorf("clear session: %w: %v", domain.ErrStorage, err)
	}
	metrics.SessionEventsTotal.WithLabelValues("cleared").Inc()
	return nil
}

func (s *SessionService) load(ctx context.Context) (domain.Token, domain.SessionUser, bool) {
	snap, err := s.snapshot(ctx)
	if err != nil {
		s.log.Warn().Err(err).Msg("session storage unreadable, treating as signed out")
		return "", domain.SessionUser{}, false
	}
	if !snap.hasToken && !snap.hasUser {
		return "", domain.SessionUser{}, false
	}

	var user domain.SessionUser
	corrupt := !snap.hasToken || snap.token == "" || !snap.hasUser ||
		json.Unmarshal([]byte(snap.user), &user) != nil || !user.Valid()
	if corrupt {
		s.log.Warn().Bool("has_token", snap.hasToken).Bool("has_user", snap.hasUser).Msg("corrupt session discarded")
		metrics.SessionEventsTotal.WithLabelValues("corrupt").Inc()
		_ = s.ClearSession(ctx)
		return "", domain.SessionUser{}, false
	}

	return domain.Token(snap.token), user, true
}
