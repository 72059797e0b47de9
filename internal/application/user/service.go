package user

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/just-ease/justease-api/internal/domain"
	"github.com/just-ease/justease-api/internal/pkg/id"
	"golang.org/x/crypto/bcrypt"
)

// Service creates accounts. An account comes into existence only after the
// email verification workflow left a confirmed record for the address.
type Service interface {
	Signup(ctx context.Context, req domain.SignupRequest) (*domain.User, error)
}

type accountStore interface {
	Create(ctx context.Context, u *domain.User) error
}

type otpStore interface {
	Latest(ctx context.Context, email string) (*domain.EmailOTP, error)
	DeleteAll(ctx context.Context, email string) error
}

type service struct {
	users accountStore
	otps  otpStore
}

func NewService(users accountStore, otps otpStore) Service {
	return &service{users: users, otps: otps}
}

// Signup hashes the password, derives the role from the victim/lawyer flags
// and atomically creates the account. The uniqueness race is closed by the
// store's conditional create, not by a lookup here.
func (s *service) Signup(ctx context.Context, req domain.SignupRequest) (*domain.User, error) {
	rec, err := s.otps.Latest(ctx, req.Email)
	if err != nil {
		if errors.Is(err, domain.ErrNotFound) {
			return nil, fmt.Errorf("signup %s: %w", req.Email, domain.ErrNoOTPFound)
		}
		return nil, err
	}
	if !rec.Verified() {
		return nil, fmt.Errorf("signup %s: %w", req.Email, domain.ErrEmailNotVerified)
	}

	hash, err := bcrypt.GenerateFromPassword([]byte(req.Password), bcrypt.DefaultCost)
	if err != nil {
		return nil, err
	}
	now := time.Now().UTC()
	u := &domain.User{
		UserID:        id.New(),
		Email:         req.Email,
		PasswordHash:  string(hash),
		FirstName:     req.FirstName,
		LastName:      req.LastName,
		EmailVerified: true,
		Role:          req.RoleName(),
		CreatedAt:     now,
		UpdatedAt:     now,
	}
	if err := s.users.Create(ctx, u); err != nil {
		return nil, err
	}

	// The verified state is consumed: signup invalidates the OTP history so
	// a later request for the same (now registered) address starts clean.
	if err := s.otps.DeleteAll(ctx, req.Email); err != nil {
		slog.Warn("failed to purge otp history after signup", "email", req.Email, "err", err)
	}
	return u, nil
}
