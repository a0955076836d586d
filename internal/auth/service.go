package auth

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/sliceline/sliceline/internal/shared"
	"github.com/sliceline/sliceline/internal/users"
)

// Metrics receives the discrete auth counters. Implementations must never
// fail a core operation; a nil Metrics disables reporting.
type Metrics interface {
	LoginSucceeded()
	LoginFailed()
	Logout()
	TokenAuth(ok bool)
}

// Service orchestrates identity: issuing tokens, recording sessions, and
// authenticating bearer headers.
type Service struct {
	codec    *Codec
	sessions SessionRegistry
	users    *users.Service
	metrics  Metrics
	logger   *slog.Logger
}

// NewService constructs a Service.
func NewService(codec *Codec, sessions SessionRegistry, userService *users.Service, metrics Metrics, logger *slog.Logger) *Service {
	return &Service{codec: codec, sessions: sessions, users: userService, metrics: metrics, logger: logger}
}

// Register creates a diner account and logs it in.
func (s *Service) Register(ctx context.Context, name, email, password string) (users.User, Token, error) {
	user, err := s.users.Register(ctx, name, email, password)
	if err != nil {
		return users.User{}, Token{}, err
	}
	token, err := s.issueToken(ctx, user)
	return user, token, err
}

// Login authenticates credentials and issues a fresh token. Every login is an
// independent session; earlier tokens stay valid.
func (s *Service) Login(ctx context.Context, email, password string) (users.User, Token, error) {
	user, err := s.users.Authenticate(ctx, email, password)
	if err != nil {
		if s.metrics != nil {
			s.metrics.LoginFailed()
		}
		return users.User{}, Token{}, err
	}
	token, err := s.issueToken(ctx, user)
	return user, token, err
}

// Logout revokes the token's session. Revoking an already-absent key is a
// no-op here; the token simply stops authenticating.
func (s *Service) Logout(ctx context.Context, token Token) error {
	if s.metrics != nil {
		s.metrics.Logout()
	}
	return s.sessions.RecordLogout(ctx, token.RevocationKey())
}

// AuthenticateBearer establishes identity from a raw Authorization header:
// session liveness first, then signature verification. Every failure mode
// collapses into an authentication error.
func (s *Service) AuthenticateBearer(ctx context.Context, header string) (*Claims, error) {
	claims, err := s.authenticateBearer(ctx, header)
	if s.metrics != nil {
		s.metrics.TokenAuth(err == nil)
	}
	return claims, err
}

func (s *Service) authenticateBearer(ctx context.Context, header string) (*Claims, error) {
	token, ok := FromBearerHeader(header)
	if !ok {
		return nil, fmt.Errorf("%w: missing bearer token", shared.ErrAuthentication)
	}
	active, err := s.sessions.IsActive(ctx, token.RevocationKey())
	if err != nil {
		// Intermediate failures read as "we don't know who you are".
		s.logger.Warn("session check failed", slog.Any("error", err))
		return nil, fmt.Errorf("%w: session check failed", shared.ErrAuthentication)
	}
	if !active {
		return nil, fmt.Errorf("%w: token revoked", shared.ErrAuthentication)
	}
	return s.codec.Verify(token)
}

func (s *Service) issueToken(ctx context.Context, user users.User) (Token, error) {
	token, err := s.codec.Sign(user)
	if err != nil {
		return Token{}, err
	}
	if err := s.sessions.RecordLogin(ctx, user.ID, token.RevocationKey()); err != nil {
		return Token{}, err
	}
	if s.metrics != nil {
		s.metrics.LoginSucceeded()
	}
	return token, nil
}
