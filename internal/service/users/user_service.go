package users

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"sync"
	"unicode/utf8"

	"github.com/Domenick1991/flightreserve/internal/domain"
	"github.com/Domenick1991/flightreserve/internal/repository"
	"go.uber.org/zap"
)

const (
	minUsernameLen = 3
	maxUsernameLen = 150
	minPasswordLen = 6
)

type UserUseCase interface {
	Register(ctx context.Context, username, password string) (*domain.User, error)
	Authenticate(ctx context.Context, username, password string) (*domain.User, error)
	Update(ctx context.Context, input UpdateInput) (*domain.User, error)
	Delete(ctx context.Context, userID int64) error
	Get(ctx context.Context, userID int64) (*domain.User, error)
}

type PasswordHasher interface {
	Hash(password string) (string, error)
	Compare(hash, password string) (bool, error)
}

// SeatReleaser gives back the seats of a user being deleted.
type SeatReleaser interface {
	ReleaseUserReservations(ctx context.Context, userID int64) ([]domain.Reservation, error)
	AnnounceReleased(ctx context.Context, released []domain.Reservation)
}

type UpdateInput struct {
	UserID   int64
	Username *string
	Password *string
}

type UserService struct {
	tx       repository.Transactor
	repo     repository.UserRepository
	hasher   PasswordHasher
	releaser SeatReleaser
	log      *zap.Logger

	dummyOnce sync.Once
	dummyHash string
}

func NewUserService(tx repository.Transactor, repo repository.UserRepository, hasher PasswordHasher, releaser SeatReleaser, log *zap.Logger) *UserService {
	if log == nil {
		log = zap.NewNop()
	}
	return &UserService{tx: tx, repo: repo, hasher: hasher, releaser: releaser, log: log}
}

func (s *UserService) Register(ctx context.Context, username, password string) (*domain.User, error) {
	username = strings.TrimSpace(username)
	if err := validateUsername(username); err != nil {
		return nil, err
	}
	if err := validatePassword(password); err != nil {
		return nil, err
	}

	hash, err := s.hasher.Hash(password)
	if err != nil {
		return nil, err
	}
	user := &domain.User{Username: username, PasswordHash: hash}
	if err := s.repo.Create(ctx, user); err != nil {
		return nil, err
	}
	s.log.Info("user registered", zap.Int64("user_id", user.ID), zap.String("username", user.Username))
	return user, nil
}

// Authenticate returns ErrInvalidCredentials for an unknown user and for a
// wrong password alike.
func (s *UserService) Authenticate(ctx context.Context, username, password string) (*domain.User, error) {
	user, err := s.repo.GetByUsername(ctx, strings.TrimSpace(username))
	if err != nil {
		if errors.Is(err, domain.ErrNotFound) {
			s.compareDummy(password)
			return nil, domain.ErrInvalidCredentials
		}
		return nil, err
	}

	ok, err := s.hasher.Compare(user.PasswordHash, password)
	if err != nil {
		return nil, err
	}
	if !ok {
		return nil, domain.ErrInvalidCredentials
	}
	return user, nil
}

func (s *UserService) Update(ctx context.Context, input UpdateInput) (*domain.User, error) {
	user, err := s.repo.GetByID(ctx, input.UserID)
	if err != nil {
		return nil, err
	}

	if input.Username != nil {
		username := strings.TrimSpace(*input.Username)
		if err := validateUsername(username); err != nil {
			return nil, err
		}
		user.Username = username
	}
	if input.Password != nil {
		if err := validatePassword(*input.Password); err != nil {
			return nil, err
		}
		hash, err := s.hasher.Hash(*input.Password)
		if err != nil {
			return nil, err
		}
		user.PasswordHash = hash
	}

	if err := s.repo.Update(ctx, user); err != nil {
		return nil, err
	}
	return user, nil
}

// Delete removes the account and returns every seat it held to its flight.
func (s *UserService) Delete(ctx context.Context, userID int64) error {
	var released []domain.Reservation
	err := s.tx.WithinTransaction(ctx, func(ctx context.Context) error {
		if err := s.repo.LockForUpdate(ctx, userID); err != nil {
			return err
		}
		var err error
		released, err = s.releaser.ReleaseUserReservations(ctx, userID)
		if err != nil {
			return err
		}
		return s.repo.Delete(ctx, userID)
	})
	if err != nil {
		return err
	}

	s.log.Info("user deleted", zap.Int64("user_id", userID), zap.Int("released_seats", len(released)))
	s.releaser.AnnounceReleased(ctx, released)
	return nil
}

func (s *UserService) Get(ctx context.Context, userID int64) (*domain.User, error) {
	return s.repo.GetByID(ctx, userID)
}

// compareDummy spends about as long as a real password check.
func (s *UserService) compareDummy(password string) {
	s.dummyOnce.Do(func() {
		hash, err := s.hasher.Hash("dummy-password")
		if err != nil {
			s.log.Warn("build dummy hash", zap.Error(err))
			return
		}
		s.dummyHash = hash
	})
	if s.dummyHash != "" {
		_, _ = s.hasher.Compare(s.dummyHash, password)
	}
}

func validateUsername(username string) error {
	n := utf8.RuneCountInString(username)
	if n < minUsernameLen || n > maxUsernameLen {
		return fmt.Errorf("%w: username must be %d to %d characters", domain.ErrValidation, minUsernameLen, maxUsernameLen)
	}
	return nil
}

func validatePassword(password string) error {
	if utf8.RuneCountInString(password) < minPasswordLen {
		return fmt.Errorf("%w: password must be at least %d characters", domain.ErrValidation, minPasswordLen)
	}
	return nil
}

var _ UserUseCase = (*UserService)(nil)
