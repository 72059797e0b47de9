package handler_test

import (
	"bytes"
	"context"
	"crypto/rand"
	"crypto/rsa"
	"crypto/x509"
	"encoding/json"
	"encoding/pem"
	"fmt"
	"io"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"regexp"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/just-ease/justease-api/internal/application/attachment"
	"github.com/just-ease/justease-api/internal/application/caseintake"
	"github.com/just-ease/justease-api/internal/application/session"
	"github.com/just-ease/justease-api/internal/application/user"
	"github.com/just-ease/justease-api/internal/application/verification"
	"github.com/just-ease/justease-api/internal/config"
	"github.com/just-ease/justease-api/internal/domain"
	jwtinfra "github.com/just-ease/justease-api/internal/infrastructure/jwt"
	transport "github.com/just-ease/justease-api/internal/transport/http"
	"github.com/just-ease/justease-api/internal/transport/http/handler"
)

// ---- in-memory stores ----

type memUserStore struct {
	users map[string]*domain.User // by email
}

func newMemUserStore() *memUserStore {
	return &memUserStore{users: make(map[string]*domain.User)}
}

func (s *memUserStore) Create(ctx context.Context, u *domain.User) error {
	if _, ok := s.users[u.Email]; ok {
		return fmt.Errorf("create user %s: %w", u.Email, domain.ErrAccountExists)
	}
	s.users[u.Email] = u
	return nil
}

func (s *memUserStore) GetByEmail(ctx context.Context, email string) (*domain.User, error) {
	u, ok := s.users[email]
	if !ok {
		return nil, fmt.Errorf("user %s: %w", email, domain.ErrNotFound)
	}
	return u, nil
}

func (s *memUserStore) GetByID(ctx context.Context, userID string) (*domain.User, error) {
	for _, u := range s.users {
		if u.UserID == userID {
			return u, nil
		}
	}
	return nil, fmt.Errorf("user %s: %w", userID, domain.ErrNotFound)
}

type memOTPStore struct {
	records map[string][]*domain.EmailOTP // by email, append order
}

func newMemOTPStore() *memOTPStore {
	return &memOTPStore{records: make(map[string][]*domain.EmailOTP)}
}

func (s *memOTPStore) Append(ctx context.Context, o *domain.EmailOTP) error {
	s.records[o.Email] = append(s.records[o.Email], o)
	return nil
}

func (s *memOTPStore) Latest(ctx context.Context, email string) (*domain.EmailOTP, error) {
	recs := s.records[email]
	if len(recs) == 0 {
		return nil, fmt.Errorf("otp for %s: %w", email, domain.ErrNotFound)
	}
	return recs[len(recs)-1], nil
}

func (s *memOTPStore) MarkVerified(ctx context.Context, email, otpID string, at time.Time) error {
	for _, r := range s.records[email] {
		if r.OtpID == otpID {
			r.VerifiedAt = &at
			return nil
		}
	}
	return fmt.Errorf("otp %s: %w", otpID, domain.ErrNotFound)
}

func (s *memOTPStore) DeleteAll(ctx context.Context, email string) error {
	delete(s.records, email)
	return nil
}

type memSessionStore struct {
	sessions map[string]*domain.Session
}

func newMemSessionStore() *memSessionStore {
	return &memSessionStore{sessions: make(map[string]*domain.Session)}
}

func (s *memSessionStore) Put(ctx context.Context, sess *domain.Session) error {
	cp := *sess
	s.sessions[sess.SessionID] = &cp
	return nil
}

func (s *memSessionStore) Get(ctx context.Context, sessionID string) (*domain.Session, error) {
	sess, ok := s.sessions[sessionID]
	if !ok {
		return nil, fmt.Errorf("session %s: %w", sessionID, domain.ErrNotFound)
	}
	return sess, nil
}

func (s *memSessionStore) GetByRefreshToken(ctx context.Context, token string) (*domain.Session, error) {
	for _, sess := range s.sessions {
		if sess.RefreshToken == token {
			return sess, nil
		}
	}
	return nil, fmt.Errorf("refresh token: %w", domain.ErrNotFound)
}

func (s *memSessionStore) RotateRefreshToken(ctx context.Context, sessionID, newToken string, newExpiry int64) error {
	sess, ok := s.sessions[sessionID]
	if !ok {
		return fmt.Errorf("session %s: %w", sessionID, domain.ErrNotFound)
	}
	sess.RefreshToken = newToken
	sess.RefreshExpiresAt = newExpiry
	return nil
}

func (s *memSessionStore) Update(ctx context.Context, sessionID string, updates map[string]interface{}) error {
	sess, ok := s.sessions[sessionID]
	if !ok {
		return fmt.Errorf("session %s: %w", sessionID, domain.ErrNotFound)
	}
	if v, ok := updates["enable"].(bool); ok {
		sess.Enable = v
	}
	return nil
}

type memCaseStore struct {
	cases map[string]*domain.Case
}

func newMemCaseStore() *memCaseStore { return &memCaseStore{cases: make(map[string]*domain.Case)} }

func (s *memCaseStore) Put(ctx context.Context, c *domain.Case) error {
	s.cases[c.CaseID] = c
	return nil
}

func (s *memCaseStore) Get(ctx context.Context, caseID string) (*domain.Case, error) {
	c, ok := s.cases[caseID]
	if !ok {
		return nil, fmt.Errorf("case %s: %w", caseID, domain.ErrNotFound)
	}
	return c, nil
}

func (s *memCaseStore) ListByUser(ctx context.Context, userID string) ([]domain.Case, error) {
	var out []domain.Case
	for _, c := range s.cases {
		if c.UserID == userID {
			out = append(out, *c)
		}
	}
	return out, nil
}

func (s *memCaseStore) ListByStatus(ctx context.Context, status string) ([]domain.Case, error) {
	var out []domain.Case
	for _, c := range s.cases {
		if c.Status == status {
			out = append(out, *c)
		}
	}
	return out, nil
}

type memObjectStore struct {
	objects map[string][]byte
}

func newMemObjectStore() *memObjectStore { return &memObjectStore{objects: make(map[string][]byte)} }

func (s *memObjectStore) Upload(ctx context.Context, key string, r io.Reader, contentType string) (string, error) {
	b, err := io.ReadAll(r)
	if err != nil {
		return "", err
	}
	s.objects[key] = b
	return key, nil
}

func (s *memObjectStore) Delete(ctx context.Context, key string) error {
	delete(s.objects, key)
	return nil
}

func (s *memObjectStore) Download(ctx context.Context, key string) (io.ReadCloser, error) {
	b, ok := s.objects[key]
	if !ok {
		return nil, fmt.Errorf("object %s: %w", key, domain.ErrNotFound)
	}
	return io.NopCloser(bytes.NewReader(b)), nil
}

type memAttachmentStore struct {
	attachments map[string]*domain.Attachment
}

func newMemAttachmentStore() *memAttachmentStore {
	return &memAttachmentStore{attachments: make(map[string]*domain.Attachment)}
}

func (s *memAttachmentStore) Put(ctx context.Context, a *domain.Attachment) error {
	s.attachments[a.AttachmentID] = a
	return nil
}

func (s *memAttachmentStore) Get(ctx context.Context, attachmentID string) (*domain.Attachment, error) {
	a, ok := s.attachments[attachmentID]
	if !ok {
		return nil, fmt.Errorf("attachment %s: %w", attachmentID, domain.ErrNotFound)
	}
	return a, nil
}

func (s *memAttachmentStore) ListByCase(ctx context.Context, caseID string) ([]domain.Attachment, error) {
	var out []domain.Attachment
	for _, a := range s.attachments {
		if a.CaseID == caseID {
			out = append(out, *a)
		}
	}
	return out, nil
}

// captureMailer records every email instead of sending it.
type captureMailer struct {
	sent []capturedMail
}

type capturedMail struct {
	To      string
	Subject string
	Body    string
}

func (m *captureMailer) SendEmail(to, subject, body string) error {
	m.sent = append(m.sent, capturedMail{To: to, Subject: subject, Body: body})
	return nil
}

// ---- test harness ----

func testJWTProvider(t *testing.T) *jwtinfra.Provider {
	t.Helper()

	key, err := rsa.GenerateKey(rand.Reader, 2048)
	require.NoError(t, err)

	dir := t.TempDir()
	privPath := filepath.Join(dir, "private_key.pem")
	pubPath := filepath.Join(dir, "public_key.pem")

	privPEM := pem.EncodeToMemory(&pem.Block{
		Type:  "RSA PRIVATE KEY",
		Bytes: x509.MarshalPKCS1PrivateKey(key),
	})
	require.NoError(t, os.WriteFile(privPath, privPEM, 0o600))

	pubDER, err := x509.MarshalPKIXPublicKey(&key.PublicKey)
	require.NoError(t, err)
	pubPEM := pem.EncodeToMemory(&pem.Block{Type: "PUBLIC KEY", Bytes: pubDER})
	require.NoError(t, os.WriteFile(pubPath, pubPEM, 0o600))

	provider, err := jwtinfra.NewProvider(&config.Config{
		JWTPrivateKeyPath: privPath,
		JWTPublicKeyPath:  pubPath,
		JWTExpiry:         15 * time.Minute,
	})
	require.NoError(t, err)
	return provider
}

type testEnv struct {
	router http.Handler
	mailer *captureMailer
}

func newTestEnv(t *testing.T) *testEnv {
	t.Helper()

	cfg := &config.Config{
		AllowedOrigins: []string{"*"},
	}
	provider := testJWTProvider(t)

	users := newMemUserStore()
	otps := newMemOTPStore()
	sessions := newMemSessionStore()
	cases := newMemCaseStore()
	objects := newMemObjectStore()
	attachments := newMemAttachmentStore()
	mailer := &captureMailer{}

	verificationSvc := verification.NewService(verification.ServiceDeps{
		OTPRepo:  otps,
		UserRepo: users,
		Mailer:   mailer,
		OTPTTL:   10 * time.Minute,
	})
	userSvc := user.NewService(users, otps)
	sessionSvc := session.NewService(session.ServiceDeps{
		UserRepo:        users,
		SessionRepo:     sessions,
		JWTProvider:     provider,
		RefreshTokenDur: 30 * 24 * time.Hour,
	})
	caseSvc := caseintake.NewService(cases, nil)
	attachmentSvc := attachment.NewService(objects, attachments, cases)

	router := transport.NewRouter(transport.Deps{
		Config:       cfg,
		JWTProvider:  provider,
		Health:       handler.NewHealthHandler(),
		Verification: handler.NewVerificationHandler(verificationSvc),
		Users:        handler.NewUserHandler(userSvc),
		Sessions:     handler.NewSessionHandler(sessionSvc),
		Cases:        handler.NewCaseHandler(caseSvc),
		Attachments:  handler.NewAttachmentHandler(attachmentSvc),
	})

	return &testEnv{router: router, mailer: mailer}
}

func (e *testEnv) post(t *testing.T, path string, body interface{}, headers map[string]string) *httptest.ResponseRecorder {
	t.Helper()
	b, err := json.Marshal(body)
	require.NoError(t, err)
	req := httptest.NewRequest(http.MethodPost, path, bytes.NewReader(b))
	req.Header.Set("Content-Type", "application/json")
	for k, v := range headers {
		req.Header.Set(k, v)
	}
	rec := httptest.NewRecorder()
	e.router.ServeHTTP(rec, req)
	return rec
}

var otpPattern = regexp.MustCompile(`OTP is: (\d{6})`)

func (e *testEnv) lastEmailedCode(t *testing.T) string {
	t.Helper()
	require.NotEmpty(t, e.mailer.sent)
	m := otpPattern.FindStringSubmatch(e.mailer.sent[len(e.mailer.sent)-1].Body)
	require.Len(t, m, 2, "email body must carry a 6-digit code")
	return m[1]
}

// ---- scenarios ----

func TestIdentityFlow_EndToEnd(t *testing.T) {
	env := newTestEnv(t)
	const email = "ada@example.com"

	// 1. Request a verification code.
	rec := env.post(t, "/v1/users/send-email-verification", map[string]string{"email": email}, nil)
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())
	code := env.lastEmailedCode(t)

	// 2. Confirm it.
	rec = env.post(t, "/v1/users/verify-email-otp", map[string]string{"email": email, "otp": code}, nil)
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())

	// 3. Sign up.
	rec = env.post(t, "/v1/users/signup", map[string]interface{}{
		"email":      email,
		"password":   "correct-horse-battery",
		"first_name": "Ada",
		"last_name":  "Okafor",
		"is_victim":  true,
	}, nil)
	require.Equal(t, http.StatusCreated, rec.Code, rec.Body.String())

	// 4. Log in and receive both tokens.
	rec = env.post(t, "/v1/users/login", map[string]string{
		"email":    email,
		"password": "correct-horse-battery",
	}, nil)
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())

	var loginResp struct {
		Token   string `json:"token"`
		Refresh string `json:"refresh"`
		User    struct {
			Email    string `json:"email"`
			UserType string `json:"user_type"`
		} `json:"user"`
	}
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &loginResp))
	assert.NotEmpty(t, loginResp.Token)
	assert.NotEmpty(t, loginResp.Refresh)
	assert.Equal(t, email, loginResp.User.Email)
	assert.Equal(t, "victim", loginResp.User.UserType)

	// 5. The access token opens authenticated routes.
	req := httptest.NewRequest(http.MethodGet, "/v1/sessions", nil)
	req.Header.Set("Authorization", "Bearer "+loginResp.Token)
	sessRec := httptest.NewRecorder()
	env.router.ServeHTTP(sessRec, req)
	assert.Equal(t, http.StatusOK, sessRec.Code, sessRec.Body.String())
}

func TestIdentityFlow_SignupWithoutVerificationRequest(t *testing.T) {
	env := newTestEnv(t)

	rec := env.post(t, "/v1/users/signup", map[string]interface{}{
		"email":      "cold@example.com",
		"password":   "correct-horse-battery",
		"first_name": "Cold",
		"last_name":  "Call",
		"is_victim":  true,
	}, nil)

	assert.Equal(t, http.StatusBadRequest, rec.Code, rec.Body.String())
	assert.Contains(t, rec.Body.String(), "no verification code")
}

func TestIdentityFlow_SignupWithUnconfirmedCode(t *testing.T) {
	env := newTestEnv(t)
	const email = "pending@example.com"

	rec := env.post(t, "/v1/users/send-email-verification", map[string]string{"email": email}, nil)
	require.Equal(t, http.StatusOK, rec.Code)

	// Skip the confirm step entirely.
	rec = env.post(t, "/v1/users/signup", map[string]interface{}{
		"email":      email,
		"password":   "correct-horse-battery",
		"first_name": "Pen",
		"last_name":  "Ding",
		"is_victim":  true,
	}, nil)

	assert.Equal(t, http.StatusUnauthorized, rec.Code, rec.Body.String())
}

func TestIdentityFlow_OnlyTheLatestCodeVerifies(t *testing.T) {
	env := newTestEnv(t)
	const email = "resend@example.com"

	rec := env.post(t, "/v1/users/send-email-verification", map[string]string{"email": email}, nil)
	require.Equal(t, http.StatusOK, rec.Code)
	firstCode := env.lastEmailedCode(t)

	rec = env.post(t, "/v1/users/send-email-verification", map[string]string{"email": email}, nil)
	require.Equal(t, http.StatusOK, rec.Code)
	secondCode := env.lastEmailedCode(t)

	if firstCode != secondCode {
		rec = env.post(t, "/v1/users/verify-email-otp", map[string]string{"email": email, "otp": firstCode}, nil)
		assert.Equal(t, http.StatusBadRequest, rec.Code, "the superseded code must be rejected")
	}

	rec = env.post(t, "/v1/users/verify-email-otp", map[string]string{"email": email, "otp": secondCode}, nil)
	assert.Equal(t, http.StatusOK, rec.Code, rec.Body.String())
}

func TestIdentityFlow_DuplicateSignupConflicts(t *testing.T) {
	env := newTestEnv(t)
	const email = "dup@example.com"

	signup := func() *httptest.ResponseRecorder {
		return env.post(t, "/v1/users/signup", map[string]interface{}{
			"email":      email,
			"password":   "correct-horse-battery",
			"first_name": "Du",
			"last_name":  "Plicate",
			"is_lawyer":  true,
		}, nil)
	}

	rec := env.post(t, "/v1/users/send-email-verification", map[string]string{"email": email}, nil)
	require.Equal(t, http.StatusOK, rec.Code)
	code := env.lastEmailedCode(t)
	rec = env.post(t, "/v1/users/verify-email-otp", map[string]string{"email": email, "otp": code}, nil)
	require.Equal(t, http.StatusOK, rec.Code)

	require.Equal(t, http.StatusCreated, signup().Code)

	// Signup consumed the verification history, so the retry fails on the
	// missing record rather than reaching the uniqueness check.
	rec = signup()
	assert.Equal(t, http.StatusBadRequest, rec.Code, rec.Body.String())

	// Requesting a fresh code for a registered address is refused outright.
	rec = env.post(t, "/v1/users/send-email-verification", map[string]string{"email": email}, nil)
	assert.Equal(t, http.StatusConflict, rec.Code, rec.Body.String())
}

func TestIdentityFlow_LoginBeforeSignup(t *testing.T) {
	env := newTestEnv(t)

	rec := env.post(t, "/v1/users/login", map[string]string{
		"email":    "ghost@example.com",
		"password": "whatever",
	}, nil)

	assert.Equal(t, http.StatusUnauthorized, rec.Code, rec.Body.String())
}
