package service

import (
	"context"
	"errors"
	"strconv"
	"testing"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/rs/zerolog"
	"golang.org/x/crypto/bcrypt"

	"github.com/distribuidoracarol/panel/internal/core/domain"
	"github.com/distribuidoracarol/panel/internal/core/ports"
	memrepo "github.com/distribuidoracarol/panel/internal/infrastructure/db/memory"
)

func newAuthSvc(t *testing.T) (*AuthService, *memrepo.AuthRepository) {
	t.Helper()
	repo := memrepo.NewAuthRepository()
	return NewAuthService(repo, "secret", time.Hour, zerolog.Nop()), repo
}

func registerAna(t *testing.T, svc *AuthService) *domain.User {
	t.Helper()
	u, err := svc.Register(context.Background(), ports.RegisterInput{
		Name: "Ana", Username: "ana", Password: "secret1", Role: domain.RoleAdmin,
	})
	if err != nil {
		t.Fatalf("Register: %v", err)
	}
	return u
}

func TestAuthService_Register_Success(t *testing.T) {
	svc, _ := newAuthSvc(t)
	user := registerAna(t, svc)

	if user.ID == 0 || !user.Active {
		t.Fatalf("unexpected user: %+v", user)
	}
	if err := bcrypt.CompareHashAndPassword([]byte(user.PasswordHash), []byte("secret1")); err != nil {
		t.Fatalf("stored hash does not match password: %v", err)
	}
}

func TestAuthService_Register_Validation(t *testing.T) {
	svc, _ := newAuthSvc(t)
	ctx := context.Background()

	cases := []struct {
		in   ports.RegisterInput
		want error
	}{
		{ports.RegisterInput{Username: "", Password: "secret1", Role: domain.RoleAdmin}, domain.ErrInvalidCredentials},
		{ports.RegisterInput{Username: "eva", Password: "secret1", Role: "cliente"}, domain.ErrInvalidRole},
		{ports.RegisterInput{Username: "eva", Password: "123", Role: domain.RoleSeller}, domain.ErrWeakPassword},
	}
	for _, tc := range cases {
		if _, err := svc.Register(ctx, tc.in); !errors.Is(err, tc.want) {
			t.Fatalf("%+v: expected %v, got %v", tc.in, tc.want, err)
		}
	}

	registerAna(t, svc)
	_, err := svc.Register(ctx, ports.RegisterInput{Username: "ana", Password: "secret1", Role: domain.RoleSeller})
	if !errors.Is(err, domain.ErrUserExists) {
		t.Fatalf("expected ErrUserExists, got %v", err)
	}
}

func TestAuthService_Login_Success(t *testing.T) {
	svc, _ := newAuthSvc(t)
	created := registerAna(t, svc)

	token, user, err := svc.Login(context.Background(), "ana", "secret1")
	if err != nil {
		t.Fatalf("Login: %v", err)
	}
	if user.LastAccess.IsZero() {
		t.Fatalf("expected last access to be recorded")
	}

	claims := jwt.MapClaims{}
	if _, err := jwt.ParseWithClaims(token, claims, func(*jwt.Token) (any, error) { return []byte("secret"), nil }); err != nil {
		t.Fatalf("parse token: %v", err)
	}
	if claims["sub"] != strconv.FormatInt(created.ID, 10) || claims["rol"] != domain.RoleAdmin {
		t.Fatalf("unexpected claims: %+v", claims)
	}
}

func TestAuthService_Login_Failures(t *testing.T) {
	svc, repo := newAuthSvc(t)
	ctx := context.Background()
	u := registerAna(t, svc)

	if _, _, err := svc.Login(ctx, "nadie", "secret1"); !errors.Is(err, domain.ErrUserNotFound) {
		t.Fatalf("expected ErrUserNotFound, got %v", err)
	}
	if _, _, err := svc.Login(ctx, "ana", "wrong"); !errors.Is(err, domain.ErrInvalidCredentials) {
		t.Fatalf("expected ErrInvalidCredentials, got %v", err)
	}

	repo.SetActive(u.ID, false)
	// Inactive wins over a wrong password.
	if _, _, err := svc.Login(ctx, "ana", "wrong"); !errors.Is(err, domain.ErrUserInactive) {
		t.Fatalf("expected ErrUserInactive, got %v", err)
	}
}

func TestAuthService_ChangePassword(t *testing.T) {
	svc, _ := newAuthSvc(t)
	ctx := context.Background()
	u := registerAna(t, svc)

	if err := svc.ChangePassword(ctx, u.ID, "secret1", "123"); !errors.Is(err, domain.ErrWeakPassword) {
		t.Fatalf("expected ErrWeakPassword, got %v", err)
	}
	if err := svc.ChangePassword(ctx, u.ID, "nope", "nuevo123"); !errors.Is(err, domain.ErrInvalidCredentials) {
		t.Fatalf("expected ErrInvalidCredentials, got %v", err)
	}
	if err := svc.ChangePassword(ctx, u.ID, "secret1", "nuevo123"); err != nil {
		t.Fatalf("ChangePassword: %v", err)
	}
	if _, _, err := svc.Login(ctx, "ana", "nuevo123"); err != nil {
		t.Fatalf("login with new password: %v", err)
	}
}

func TestAuthService_EnsureAdminIsIdempotent(t *testing.T) {
	svc, _ := newAuthSvc(t)
	ctx := context.Background()

	for i := 0; i < 2; i++ {
		if err := svc.EnsureAdmin(ctx, "admin", "admin123"); err != nil {
			t.Fatalf("EnsureAdmin #%d: %v", i, err)
		}
	}
	users, _ := svc.ListUsers(ctx)
	if len(users) != 1 || users[0].Role != domain.RoleAdmin {
		t.Fatalf("expected one admin, got %+v", users)
	}
}
