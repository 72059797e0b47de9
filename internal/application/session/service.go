package session

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/just-ease/justease-api/internal/domain"
	"github.com/just-ease/justease-api/internal/pkg/id"
	pkgtoken "github.com/just-ease/justease-api/internal/pkg/token"
	"golang.org/x/crypto/bcrypt"
)

type LoginRequest struct {
	Email    string `json:"email" validate:"required,email"`
	Password string `json:"password" validate:"required"`
}

type LoginResult struct {
	AccessToken  string
	RefreshToken string
	Session      *domain.Session
	User         *domain.User
}

// Service authenticates credentials and manages the issued sessions.
type Service interface {
	Login(ctx context.Context, req LoginRequest) (*LoginResult, error)
	Logout(ctx context.Context, sessionID string) error
	GetCurrent(ctx context.Context, sessionID string) (*domain.Session, error)
	Refresh(ctx context.Context, refreshToken string) (accessToken, newRefreshToken string, err error)
}

type accountStore interface {
	GetByEmail(ctx context.Context, email string) (*domain.User, error)
	GetByID(ctx context.Context, userID string) (*domain.User, error)
}

type sessionStore interface {
	Put(ctx context.Context, s *domain.Session) error
	Get(ctx context.Context, sessionID string) (*domain.Session, error)
	GetByRefreshToken(ctx context.Context, token string) (*domain.Session, error)
	RotateRefreshToken(ctx context.Context, sessionID, newToken string, newExpiry int64) error
	Update(ctx context.Context, sessionID string, updates map[string]interface{}) error
}

type tokenSigner interface {
	Sign(userID, role, sessionID string) (string, error)
}

type service struct {
	users           accountStore
	sessions        sessionStore
	signer          tokenSigner
	refreshTokenDur time.Duration
}

type ServiceDeps struct {
	UserRepo        accountStore
	SessionRepo     sessionStore
	JWTProvider     tokenSigner
	RefreshTokenDur time.Duration
}

func NewService(deps ServiceDeps) Service {
	return &service{
		users:           deps.UserRepo,
		sessions:        deps.SessionRepo,
		signer:          deps.JWTProvider,
		refreshTokenDur: deps.RefreshTokenDur,
	}
}

// Login runs the credential checks in a fixed order so each failure keeps
// its own kind: unknown email, unverified account, wrong password, then an
// account whose role never resolved to victim or lawyer. Tokens are minted
// only after every check has passed.
func (s *service) Login(ctx context.Context, req LoginRequest) (*LoginResult, error) {
	u, err := s.users.GetByEmail(ctx, req.Email)
	if err != nil {
		if errors.Is(err, domain.ErrNotFound) {
			return nil, fmt.Errorf("login %s: %w", req.Email, domain.ErrNoSuchUser)
		}
		return nil, err
	}
	if !u.EmailVerified {
		return nil, fmt.Errorf("login %s: %w", req.Email, domain.ErrEmailNotVerified)
	}
	if err := bcrypt.CompareHashAndPassword([]byte(u.PasswordHash), []byte(req.Password)); err != nil {
		return nil, fmt.Errorf("login %s: %w", req.Email, domain.ErrInvalidCredentials)
	}
	switch u.Role {
	case domain.RoleVictim, domain.RoleLawyer:
	default:
		return nil, fmt.Errorf("login %s: %w", req.Email, domain.ErrUnrecognizedRole)
	}

	refreshToken, err := pkgtoken.NewRefreshToken()
	if err != nil {
		return nil, err
	}
	now := time.Now().UTC()
	sess := &domain.Session{
		SessionID:        id.New(),
		UserID:           u.UserID,
		Enable:           true,
		RefreshToken:     refreshToken,
		RefreshExpiresAt: now.Add(s.refreshTokenDur).Unix(),
		CreatedAt:        now,
		UpdatedAt:        now,
	}
	if err := s.sessions.Put(ctx, sess); err != nil {
		return nil, err
	}
	access, err := s.signer.Sign(u.UserID, u.Role, sess.SessionID)
	if err != nil {
		return nil, err
	}
	sess.User = u
	return &LoginResult{AccessToken: access, RefreshToken: refreshToken, Session: sess, User: u}, nil
}

func (s *service) Logout(ctx context.Context, sessionID string) error {
	return s.sessions.Update(ctx, sessionID, map[string]interface{}{"enable": false})
}

func (s *service) GetCurrent(ctx context.Context, sessionID string) (*domain.Session, error) {
	sess, err := s.sessions.Get(ctx, sessionID)
	if err != nil {
		return nil, err
	}
	if !sess.Enable {
		return nil, fmt.Errorf("session disabled: %w", domain.ErrUnauthorized)
	}
	u, err := s.users.GetByID(ctx, sess.UserID)
	if err != nil {
		return nil, err
	}
	sess.User = u
	return sess, nil
}

func (s *service) Refresh(ctx context.Context, refreshToken string) (string, string, error) {
	sess, err := s.sessions.GetByRefreshToken(ctx, refreshToken)
	if err != nil {
		return "", "", fmt.Errorf("invalid refresh token: %w", domain.ErrUnauthorized)
	}
	if !sess.Enable || sess.RefreshExpiresAt < time.Now().Unix() {
		return "", "", fmt.Errorf("refresh token expired: %w", domain.ErrUnauthorized)
	}
	newToken, err := pkgtoken.NewRefreshToken()
	if err != nil {
		return "", "", err
	}
	newExpiry := time.Now().Add(s.refreshTokenDur).Unix()
	if err := s.sessions.RotateRefreshToken(ctx, sess.SessionID, newToken, newExpiry); err != nil {
		return "", "", err
	}
	u, err := s.users.GetByID(ctx, sess.UserID)
	if err != nil {
		return "", "", err
	}
	access, err := s.signer.Sign(u.UserID, u.Role, sess.SessionID)
	if err != nil {
		return "", "", err
	}
	return access, newToken, nil
}
