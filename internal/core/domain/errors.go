package domain

import "errors"

// Client-side error taxonomy.
var (
	ErrAuthExpired      = errors.New("session expired")
	ErrValidation       = errors.New("request rejected")
	ErrConnection       = errors.New("connection error")
	ErrStorage          = errors.New("session storage failure")
	ErrNotAuthenticated = errors.New("not authenticated")
	ErrForbidden        = errors.New("access forbidden")
	ErrServer           = errors.New("server error")
)

// Backend errors.
var (
	ErrInvalidCredentials = errors.New("invalid credentials")
	ErrUserNotFound       = errors.New("user not found")
	ErrUserInactive       = errors.New("user inactive")
	ErrUserExists         = errors.New("user already exists")
	ErrWeakPassword       = errors.New("password too short")
	ErrInvalidRole        = errors.New("invalid role")
)
