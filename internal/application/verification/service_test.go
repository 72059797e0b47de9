package verification

import (
	"context"
	"errors"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"

	"github.com/just-ease/justease-api/internal/domain"
)

type mockOTPStore struct {
	mock.Mock
}

func (m *mockOTPStore) Append(ctx context.Context, o *domain.EmailOTP) error {
	args := m.Called(ctx, o)
	return args.Error(0)
}

func (m *mockOTPStore) Latest(ctx context.Context, email string) (*domain.EmailOTP, error) {
	args := m.Called(ctx, email)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*domain.EmailOTP), args.Error(1)
}

func (m *mockOTPStore) MarkVerified(ctx context.Context, email, otpID string, at time.Time) error {
	args := m.Called(ctx, email, otpID, at)
	return args.Error(0)
}

type mockAccountStore struct {
	mock.Mock
}

func (m *mockAccountStore) GetByEmail(ctx context.Context, email string) (*domain.User, error) {
	args := m.Called(ctx, email)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*domain.User), args.Error(1)
}

type mockMailer struct {
	mock.Mock
}

func (m *mockMailer) SendEmail(to, subject, body string) error {
	args := m.Called(to, subject, body)
	return args.Error(0)
}

func newTestService(otps *mockOTPStore, users *mockAccountStore, mailer *mockMailer) Service {
	return NewService(ServiceDeps{
		OTPRepo:  otps,
		UserRepo: users,
		Mailer:   mailer,
		OTPTTL:   10 * time.Minute,
	})
}

func TestRequestEmailVerification_RegisteredAddress(t *testing.T) {
	otps := new(mockOTPStore)
	users := new(mockAccountStore)
	mailer := new(mockMailer)

	users.On("GetByEmail", mock.Anything, "taken@example.com").
		Return(&domain.User{Email: "taken@example.com"}, nil)

	svc := newTestService(otps, users, mailer)
	err := svc.RequestEmailVerification(context.Background(), "taken@example.com")

	assert.ErrorIs(t, err, domain.ErrAccountExists)
	otps.AssertNotCalled(t, "Append", mock.Anything, mock.Anything)
	mailer.AssertNotCalled(t, "SendEmail", mock.Anything, mock.Anything, mock.Anything)
}

func TestRequestEmailVerification_Success(t *testing.T) {
	otps := new(mockOTPStore)
	users := new(mockAccountStore)
	mailer := new(mockMailer)

	users.On("GetByEmail", mock.Anything, "new@example.com").
		Return(nil, domain.ErrNotFound)

	var appended *domain.EmailOTP
	otps.On("Append", mock.Anything, mock.AnythingOfType("*domain.EmailOTP")).
		Run(func(args mock.Arguments) {
			appended = args.Get(1).(*domain.EmailOTP)
		}).
		Return(nil)

	mailer.On("SendEmail", "new@example.com", "Just-Ease Email Verification", mock.AnythingOfType("string")).
		Return(nil)

	svc := newTestService(otps, users, mailer)
	err := svc.RequestEmailVerification(context.Background(), "new@example.com")

	require.NoError(t, err)
	require.NotNil(t, appended)
	assert.Equal(t, "new@example.com", appended.Email)
	assert.Len(t, appended.Code, 6)
	assert.NotEmpty(t, appended.OtpID)
	assert.Nil(t, appended.VerifiedAt)

	wantExpiry := appended.CreatedAt.Add(10 * time.Minute).Unix()
	assert.Equal(t, wantExpiry, appended.ExpiresAt)

	body := mailer.Calls[0].Arguments.String(2)
	assert.True(t, strings.Contains(body, appended.Code), "email body must carry the issued code")
}

func TestRequestEmailVerification_EveryRequestAppendsAFreshRecord(t *testing.T) {
	otps := new(mockOTPStore)
	users := new(mockAccountStore)
	mailer := new(mockMailer)

	users.On("GetByEmail", mock.Anything, "repeat@example.com").
		Return(nil, domain.ErrNotFound)

	var records []*domain.EmailOTP
	otps.On("Append", mock.Anything, mock.AnythingOfType("*domain.EmailOTP")).
		Run(func(args mock.Arguments) {
			records = append(records, args.Get(1).(*domain.EmailOTP))
		}).
		Return(nil)
	mailer.On("SendEmail", mock.Anything, mock.Anything, mock.Anything).Return(nil)

	svc := newTestService(otps, users, mailer)
	require.NoError(t, svc.RequestEmailVerification(context.Background(), "repeat@example.com"))
	require.NoError(t, svc.RequestEmailVerification(context.Background(), "repeat@example.com"))

	require.Len(t, records, 2)
	assert.NotEqual(t, records[0].OtpID, records[1].OtpID)
}

func TestRequestEmailVerification_DeliveryFailureKeepsTheCode(t *testing.T) {
	otps := new(mockOTPStore)
	users := new(mockAccountStore)
	mailer := new(mockMailer)

	users.On("GetByEmail", mock.Anything, "flaky@example.com").
		Return(nil, domain.ErrNotFound)
	otps.On("Append", mock.Anything, mock.AnythingOfType("*domain.EmailOTP")).Return(nil)
	mailer.On("SendEmail", mock.Anything, mock.Anything, mock.Anything).
		Return(errors.New("smtp: connection refused"))

	svc := newTestService(otps, users, mailer)
	err := svc.RequestEmailVerification(context.Background(), "flaky@example.com")

	assert.ErrorIs(t, err, domain.ErrDeliveryFailed)
	// The record was persisted before the send, so the issued code survives.
	otps.AssertCalled(t, "Append", mock.Anything, mock.AnythingOfType("*domain.EmailOTP"))
}

func TestConfirmEmailOTP_NoRecord(t *testing.T) {
	otps := new(mockOTPStore)
	users := new(mockAccountStore)
	mailer := new(mockMailer)

	otps.On("Latest", mock.Anything, "nobody@example.com").
		Return(nil, domain.ErrNotFound)

	svc := newTestService(otps, users, mailer)
	err := svc.ConfirmEmailOTP(context.Background(), "nobody@example.com", "123456")

	assert.ErrorIs(t, err, domain.ErrNoOTPFound)
}

func TestConfirmEmailOTP_Expired(t *testing.T) {
	otps := new(mockOTPStore)
	users := new(mockAccountStore)
	mailer := new(mockMailer)

	otps.On("Latest", mock.Anything, "late@example.com").
		Return(&domain.EmailOTP{
			Email:     "late@example.com",
			OtpID:     "01HX0000000000000000000001",
			Code:      "654321",
			ExpiresAt: time.Now().Add(-time.Second).Unix(),
		}, nil)

	svc := newTestService(otps, users, mailer)
	err := svc.ConfirmEmailOTP(context.Background(), "late@example.com", "654321")

	assert.ErrorIs(t, err, domain.ErrOTPExpired)
	otps.AssertNotCalled(t, "MarkVerified", mock.Anything, mock.Anything, mock.Anything, mock.Anything)
}

func TestConfirmEmailOTP_ExactExpiryIsExpired(t *testing.T) {
	rec := &domain.EmailOTP{ExpiresAt: time.Now().Unix()}
	assert.True(t, rec.Expired(time.Now()))

	fresh := &domain.EmailOTP{ExpiresAt: time.Now().Add(time.Minute).Unix()}
	assert.False(t, fresh.Expired(time.Now()))
}

func TestConfirmEmailOTP_Mismatch(t *testing.T) {
	otps := new(mockOTPStore)
	users := new(mockAccountStore)
	mailer := new(mockMailer)

	otps.On("Latest", mock.Anything, "typo@example.com").
		Return(&domain.EmailOTP{
			Email:     "typo@example.com",
			OtpID:     "01HX0000000000000000000001",
			Code:      "111111",
			ExpiresAt: time.Now().Add(5 * time.Minute).Unix(),
		}, nil)

	svc := newTestService(otps, users, mailer)
	err := svc.ConfirmEmailOTP(context.Background(), "typo@example.com", "111112")

	assert.ErrorIs(t, err, domain.ErrOTPMismatch)
	otps.AssertNotCalled(t, "MarkVerified", mock.Anything, mock.Anything, mock.Anything, mock.Anything)
}

func TestConfirmEmailOTP_OnlyTheLatestCodeCounts(t *testing.T) {
	otps := new(mockOTPStore)
	users := new(mockAccountStore)
	mailer := new(mockMailer)

	// The store surfaces only the newest record, the earlier code is gone.
	otps.On("Latest", mock.Anything, "resend@example.com").
		Return(&domain.EmailOTP{
			Email:     "resend@example.com",
			OtpID:     "01HX0000000000000000000002",
			Code:      "222222",
			ExpiresAt: time.Now().Add(5 * time.Minute).Unix(),
		}, nil)

	svc := newTestService(otps, users, mailer)

	err := svc.ConfirmEmailOTP(context.Background(), "resend@example.com", "111111")
	assert.ErrorIs(t, err, domain.ErrOTPMismatch)

	otps.On("MarkVerified", mock.Anything, "resend@example.com", "01HX0000000000000000000002", mock.AnythingOfType("time.Time")).
		Return(nil)
	err = svc.ConfirmEmailOTP(context.Background(), "resend@example.com", "222222")
	assert.NoError(t, err)
}

func TestConfirmEmailOTP_Success(t *testing.T) {
	otps := new(mockOTPStore)
	users := new(mockAccountStore)
	mailer := new(mockMailer)

	otps.On("Latest", mock.Anything, "ok@example.com").
		Return(&domain.EmailOTP{
			Email:     "ok@example.com",
			OtpID:     "01HX0000000000000000000003",
			Code:      "333333",
			ExpiresAt: time.Now().Add(5 * time.Minute).Unix(),
		}, nil)
	otps.On("MarkVerified", mock.Anything, "ok@example.com", "01HX0000000000000000000003", mock.AnythingOfType("time.Time")).
		Return(nil)

	svc := newTestService(otps, users, mailer)
	err := svc.ConfirmEmailOTP(context.Background(), "ok@example.com", "333333")

	require.NoError(t, err)
	otps.AssertExpectations(t)
}
