package verification

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/just-ease/justease-api/internal/domain"
	"github.com/just-ease/justease-api/internal/infrastructure/smtp"
	"github.com/just-ease/justease-api/internal/pkg/id"
	"github.com/just-ease/justease-api/internal/pkg/otp"
)

const emailSubject = "Just-Ease Email Verification"

// Service drives the pre-signup email verification workflow: issue a code
// to an address, then confirm a submitted code against the latest record.
type Service interface {
	RequestEmailVerification(ctx context.Context, email string) error
	ConfirmEmailOTP(ctx context.Context, email, code string) error
}

type otpStore interface {
	Append(ctx context.Context, o *domain.EmailOTP) error
	Latest(ctx context.Context, email string) (*domain.EmailOTP, error)
	MarkVerified(ctx context.Context, email, otpID string, at time.Time) error
}

type accountStore interface {
	GetByEmail(ctx context.Context, email string) (*domain.User, error)
}

type service struct {
	otps   otpStore
	users  accountStore
	mailer smtp.Mailer
	otpTTL time.Duration
}

type ServiceDeps struct {
	OTPRepo  otpStore
	UserRepo accountStore
	Mailer   smtp.Mailer
	OTPTTL   time.Duration
}

func NewService(deps ServiceDeps) Service {
	return &service{
		otps:   deps.OTPRepo,
		users:  deps.UserRepo,
		mailer: deps.Mailer,
		otpTTL: deps.OTPTTL,
	}
}

// RequestEmailVerification issues a fresh code and emails it. The record is
// persisted before the email goes out: a delivery failure is reported to the
// caller but never rolls the code back, so a retry of the confirm step with
// a code that did arrive keeps working.
func (s *service) RequestEmailVerification(ctx context.Context, email string) error {
	if _, err := s.users.GetByEmail(ctx, email); err == nil {
		return fmt.Errorf("verification requested for registered address: %w", domain.ErrAccountExists)
	} else if !errors.Is(err, domain.ErrNotFound) {
		return err
	}

	code, err := otp.NewCode()
	if err != nil {
		return err
	}
	now := time.Now().UTC()
	rec := &domain.EmailOTP{
		Email:     email,
		OtpID:     id.New(),
		Code:      code,
		CreatedAt: now,
		ExpiresAt: now.Add(s.otpTTL).Unix(),
	}
	if err := s.otps.Append(ctx, rec); err != nil {
		return err
	}

	body := fmt.Sprintf(
		"Thank you for using JustEase.\nYour verification OTP is: %s. It will expire in %d minutes.",
		code, int(s.otpTTL.Minutes()),
	)
	if err := s.mailer.SendEmail(email, emailSubject, body); err != nil {
		slog.Warn("verification email delivery failed", "email", email, "err", err)
		return fmt.Errorf("%w: %w", domain.ErrDeliveryFailed, err)
	}
	return nil
}

// ConfirmEmailOTP checks the submitted code against the most recently issued
// record and persists the outcome as a verified_at marker. Only that marker —
// never the bare existence of a record — satisfies the signup precondition.
func (s *service) ConfirmEmailOTP(ctx context.Context, email, code string) error {
	rec, err := s.otps.Latest(ctx, email)
	if err != nil {
		if errors.Is(err, domain.ErrNotFound) {
			return fmt.Errorf("confirm %s: %w", email, domain.ErrNoOTPFound)
		}
		return err
	}
	if rec.Expired(time.Now()) {
		return fmt.Errorf("confirm %s: %w", email, domain.ErrOTPExpired)
	}
	// Exact string equality, no normalization.
	if rec.Code != code {
		return fmt.Errorf("confirm %s: %w", email, domain.ErrOTPMismatch)
	}
	return s.otps.MarkVerified(ctx, email, rec.OtpID, time.Now().UTC())
}
