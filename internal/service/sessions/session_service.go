package sessions

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/Domenick1991/flightreserve/internal/auth"
	"github.com/Domenick1991/flightreserve/internal/domain"
	"go.uber.org/zap"
)

type SessionUseCase interface {
	Login(ctx context.Context, username, password string) (*Session, error)
	Verify(ctx context.Context, token string) (*auth.Claims, error)
	Logout(ctx context.Context, claims *auth.Claims) error
}

type Authenticator interface {
	Authenticate(ctx context.Context, username, password string) (*domain.User, error)
}

type TokenIssuer interface {
	Issue(user *domain.User) (string, *auth.Claims, error)
	Parse(token string) (*auth.Claims, error)
}

// Store keeps revoked token ids and login failure counters.
type Store interface {
	RevokeSession(ctx context.Context, tokenID string, ttl time.Duration) error
	IsSessionRevoked(ctx context.Context, tokenID string) (bool, error)
	RegisterLoginFailure(ctx context.Context, username string, window time.Duration) (int64, error)
	LoginFailures(ctx context.Context, username string) (int64, error)
	ResetLoginFailures(ctx context.Context, username string) error
}

type Session struct {
	Token     string       `json:"token"`
	ExpiresAt time.Time    `json:"expires_at"`
	User      *domain.User `json:"-"`
}

type SessionService struct {
	users       Authenticator
	tokens      TokenIssuer
	store       Store
	maxAttempts int
	window      time.Duration
	log         *zap.Logger
	now         func() time.Time
}

func NewSessionService(users Authenticator, tokens TokenIssuer, store Store, maxAttempts int, window time.Duration, log *zap.Logger) *SessionService {
	if log == nil {
		log = zap.NewNop()
	}
	return &SessionService{
		users:       users,
		tokens:      tokens,
		store:       store,
		maxAttempts: maxAttempts,
		window:      window,
		log:         log,
		now:         time.Now,
	}
}

func (s *SessionService) Login(ctx context.Context, username, password string) (*Session, error) {
	username = strings.TrimSpace(username)

	// The throttle fails open when the store is unreachable.
	failures, err := s.store.LoginFailures(ctx, username)
	if err != nil {
		s.log.Warn("read login failures", zap.String("username", username), zap.Error(err))
	} else if s.maxAttempts > 0 && failures >= int64(s.maxAttempts) {
		return nil, domain.ErrTooManyAttempts
	}

	user, err := s.users.Authenticate(ctx, username, password)
	if err != nil {
		if errors.Is(err, domain.ErrInvalidCredentials) {
			if _, ferr := s.store.RegisterLoginFailure(ctx, username, s.window); ferr != nil {
				s.log.Warn("register login failure", zap.String("username", username), zap.Error(ferr))
			}
		}
		return nil, err
	}

	if err := s.store.ResetLoginFailures(ctx, username); err != nil {
		s.log.Warn("reset login failures", zap.String("username", username), zap.Error(err))
	}

	token, claims, err := s.tokens.Issue(user)
	if err != nil {
		return nil, err
	}
	s.log.Info("session opened", zap.Int64("user_id", user.ID), zap.String("session_id", claims.ID))
	return &Session{Token: token, ExpiresAt: claims.ExpiresAt.Time, User: user}, nil
}

// Verify parses the token and rejects revoked sessions.
func (s *SessionService) Verify(ctx context.Context, token string) (*auth.Claims, error) {
	claims, err := s.tokens.Parse(token)
	if err != nil {
		return nil, err
	}
	revoked, err := s.store.IsSessionRevoked(ctx, claims.ID)
	if err != nil {
		return nil, fmt.Errorf("check session %s: %w", claims.ID, err)
	}
	if revoked {
		return nil, fmt.Errorf("%w: session revoked", domain.ErrUnauthorized)
	}
	return claims, nil
}

func (s *SessionService) Logout(ctx context.Context, claims *auth.Claims) error {
	if err := s.store.RevokeSession(ctx, claims.ID, claims.Remaining(s.now())); err != nil {
		return err
	}
	s.log.Info("session closed", zap.Int64("user_id", claims.UserID), zap.String("session_id", claims.ID))
	return nil
}

var _ SessionUseCase = (*SessionService)(nil)
