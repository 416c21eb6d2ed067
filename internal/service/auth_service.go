package service

import (
	"context"
	"errors"
	"fmt"
	apperrors "puntoazul/internal/errors"
	"puntoazul/internal/repository"
	"strings"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"
	"go.uber.org/zap"
)

// Session is an authenticated panel user as seen by the handlers.
type Session struct {
	ID        string    `json:"id"`
	Username  string    `json:"username"`
	ExpiresAt time.Time `json:"expires_at"`

	// Basic token forwarded to WordPress; never serialized.
	BasicToken string `json:"-"`
}

// SessionClaims is the payload of the session JWT; Subject is the session id.
type SessionClaims struct {
	Username string `json:"username"`
	jwt.RegisteredClaims
}

type AuthService interface {
	Login(ctx context.Context, username, appPassword string) (string, *Session, error)
	Logout(ctx context.Context, sessionID string) error
	Authenticate(ctx context.Context, token string) (*Session, error)
}

type authService struct {
	wp     repository.WPAuthRepository
	creds  repository.CredentialProvider
	secret []byte
	ttl    time.Duration
	now    func() time.Time
}

func NewAuthService(wp repository.WPAuthRepository, creds repository.CredentialProvider, secret string, ttl time.Duration) AuthService {
	return &authService{
		wp:     wp,
		creds:  creds,
		secret: []byte(secret),
		ttl:    ttl,
		now:    time.Now,
	}
}

// Login checks the application password against WordPress and opens a session
// that lasts ttl. The returned string is the signed session token.
func (s *authService) Login(ctx context.Context, username, appPassword string) (string, *Session, error) {
	username = strings.TrimSpace(username)
	if username == "" || appPassword == "" {
		return "", nil, apperrors.ErrBadRequest("username and password cannot be empty")
	}

	basic := repository.BasicToken(username, appPassword)
	if _, err := s.wp.Me(ctx, basic); err != nil {
		return "", nil, err
	}

	now := s.now()
	sess := &Session{
		ID:         uuid.NewString(),
		Username:   username,
		ExpiresAt:  now.Add(s.ttl),
		BasicToken: basic,
	}
	cred := repository.Credential{Token: basic, Username: username, ExpiresAt: sess.ExpiresAt}
	if err := s.creds.Set(ctx, sess.ID, cred); err != nil {
		return "", nil, fmt.Errorf("store credential: %w", err)
	}

	claims := SessionClaims{
		Username: username,
		RegisteredClaims: jwt.RegisteredClaims{
			Subject:   sess.ID,
			IssuedAt:  jwt.NewNumericDate(now),
			ExpiresAt: jwt.NewNumericDate(sess.ExpiresAt),
		},
	}
	token, err := jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString(s.secret)
	if err != nil {
		return "", nil, fmt.Errorf("sign session token: %w", err)
	}
	zap.L().Info("Login succeeded", zap.String("user", username), zap.String("session", sess.ID))
	return token, sess, nil
}

func (s *authService) Logout(ctx context.Context, sessionID string) error {
	return s.creds.Clear(ctx, sessionID)
}

// Authenticate resolves a session token. The stored credential is the source of
// truth for expiry: a valid token whose credential is gone is rejected.
func (s *authService) Authenticate(ctx context.Context, token string) (*Session, error) {
	var claims SessionClaims
	_, err := jwt.ParseWithClaims(token, &claims, func(t *jwt.Token) (any, error) {
		return s.secret, nil
	}, jwt.WithValidMethods([]string{jwt.SigningMethodHS256.Alg()}), jwt.WithTimeFunc(s.now))
	if err != nil {
		return nil, apperrors.Auth("session expired or invalid", err)
	}
	if claims.Subject == "" {
		return nil, apperrors.Auth("session expired or invalid", errors.New("token without subject"))
	}

	cred, err := s.creds.Get(ctx, claims.Subject)
	if errors.Is(err, repository.ErrNoCredential) {
		return nil, apperrors.Auth("not authenticated", err)
	}
	if err != nil {
		return nil, fmt.Errorf("load credential: %w", err)
	}
	return &Session{
		ID:         claims.Subject,
		Username:   cred.Username,
		ExpiresAt:  cred.ExpiresAt,
		BasicToken: cred.Token,
	}, nil
}
