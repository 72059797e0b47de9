package domain

import "errors"

// Sentinel errors for domain-level error discrimination.
// Services wrap these so handlers can map to HTTP status codes without leaking infrastructure details.
var (
	ErrNotFound     = errors.New("not found")
	ErrConflict     = errors.New("conflict")
	ErrUnauthorized = errors.New("unauthorized")
	ErrForbidden    = errors.New("forbidden")
	ErrBadRequest   = errors.New("bad request")
)

// Identity-flow error kinds. Every failure the verification, signup and
// login flows can produce gets its own sentinel so callers can render a
// specific message instead of a collapsed generic one.
var (
	ErrAccountExists      = errors.New("user with this email already exists")
	ErrNoOTPFound         = errors.New("no verification code found for this email")
	ErrOTPExpired         = errors.New("verification code has expired")
	ErrOTPMismatch        = errors.New("invalid verification code")
	ErrEmailNotVerified   = errors.New("email not verified")
	ErrNoSuchUser         = errors.New("no user found with this email")
	ErrInvalidCredentials = errors.New("incorrect password")
	ErrUnrecognizedRole   = errors.New("user type not recognized")
	ErrDeliveryFailed     = errors.New("verification email could not be delivered")
)
