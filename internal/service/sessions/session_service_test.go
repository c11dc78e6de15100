package sessions

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/Domenick1991/flightreserve/internal/auth"
	"github.com/Domenick1991/flightreserve/internal/domain"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
)

type MockAuthenticator struct {
	mock.Mock
}

func (m *MockAuthenticator) Authenticate(ctx context.Context, username, password string) (*domain.User, error) {
	args := m.Called(ctx, username, password)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*domain.User), args.Error(1)
}

type MockStore struct {
	mock.Mock
}

func (m *MockStore) RevokeSession(ctx context.Context, tokenID string, ttl time.Duration) error {
	return m.Called(ctx, tokenID, ttl).Error(0)
}

func (m *MockStore) IsSessionRevoked(ctx context.Context, tokenID string) (bool, error) {
	args := m.Called(ctx, tokenID)
	return args.Bool(0), args.Error(1)
}

func (m *MockStore) RegisterLoginFailure(ctx context.Context, username string, window time.Duration) (int64, error) {
	args := m.Called(ctx, username, window)
	return args.Get(0).(int64), args.Error(1)
}

func (m *MockStore) LoginFailures(ctx context.Context, username string) (int64, error) {
	args := m.Called(ctx, username)
	return args.Get(0).(int64), args.Error(1)
}

func (m *MockStore) ResetLoginFailures(ctx context.Context, username string) error {
	return m.Called(ctx, username).Error(0)
}

var alice = &domain.User{ID: 1, Username: "alice"}

func newService(users *MockAuthenticator, store *MockStore) *SessionService {
	return NewSessionService(users, auth.NewTokenIssuer("test-secret", time.Hour), store, 3, 5*time.Minute, nil)
}

func TestSessionService_Login_Success(t *testing.T) {
	users := &MockAuthenticator{}
	store := &MockStore{}
	service := newService(users, store)
	ctx := context.Background()

	store.On("LoginFailures", ctx, "alice").Return(int64(1), nil).Once()
	users.On("Authenticate", ctx, "alice", "secret1").Return(alice, nil).Once()
	store.On("ResetLoginFailures", ctx, "alice").Return(nil).Once()

	session, err := service.Login(ctx, " alice ", "secret1")

	require.NoError(t, err)
	assert.NotEmpty(t, session.Token)
	assert.Equal(t, alice, session.User)
	assert.WithinDuration(t, time.Now().Add(time.Hour), session.ExpiresAt, time.Minute)
	users.AssertExpectations(t)
	store.AssertExpectations(t)
}

func TestSessionService_Login_WrongPassword(t *testing.T) {
	users := &MockAuthenticator{}
	store := &MockStore{}
	service := newService(users, store)
	ctx := context.Background()

	store.On("LoginFailures", ctx, "alice").Return(int64(0), nil).Once()
	users.On("Authenticate", ctx, "alice", "nope").Return(nil, domain.ErrInvalidCredentials).Once()
	store.On("RegisterLoginFailure", ctx, "alice", 5*time.Minute).Return(int64(1), nil).Once()

	session, err := service.Login(ctx, "alice", "nope")

	assert.ErrorIs(t, err, domain.ErrInvalidCredentials)
	assert.Nil(t, session)
	store.AssertExpectations(t)
	store.AssertNotCalled(t, "ResetLoginFailures", mock.Anything, mock.Anything)
}

func TestSessionService_Login_Throttled(t *testing.T) {
	users := &MockAuthenticator{}
	store := &MockStore{}
	service := newService(users, store)
	ctx := context.Background()

	store.On("LoginFailures", ctx, "alice").Return(int64(3), nil).Once()

	_, err := service.Login(ctx, "alice", "secret1")

	assert.ErrorIs(t, err, domain.ErrTooManyAttempts)
	users.AssertNotCalled(t, "Authenticate", mock.Anything, mock.Anything, mock.Anything)
}

func TestSessionService_Login_StoreDown(t *testing.T) {
	users := &MockAuthenticator{}
	store := &MockStore{}
	service := newService(users, store)
	ctx := context.Background()

	store.On("LoginFailures", ctx, "alice").Return(int64(0), errors.New("connection refused")).Once()
	users.On("Authenticate", ctx, "alice", "secret1").Return(alice, nil).Once()
	store.On("ResetLoginFailures", ctx, "alice").Return(errors.New("connection refused")).Once()

	session, err := service.Login(ctx, "alice", "secret1")

	require.NoError(t, err)
	assert.NotEmpty(t, session.Token)
}

func TestSessionService_VerifyAndLogout(t *testing.T) {
	users := &MockAuthenticator{}
	store := &MockStore{}
	service := newService(users, store)
	ctx := context.Background()

	token, issued, err := auth.NewTokenIssuer("test-secret", time.Hour).Issue(alice)
	require.NoError(t, err)

	store.On("IsSessionRevoked", ctx, issued.ID).Return(false, nil).Once()
	claims, err := service.Verify(ctx, token)
	require.NoError(t, err)
	assert.Equal(t, int64(1), claims.UserID)

	store.On("RevokeSession", ctx, issued.ID, mock.MatchedBy(func(ttl time.Duration) bool {
		return ttl > 59*time.Minute && ttl <= time.Hour
	})).Return(nil).Once()
	require.NoError(t, service.Logout(ctx, claims))

	store.On("IsSessionRevoked", ctx, issued.ID).Return(true, nil).Once()
	_, err = service.Verify(ctx, token)
	assert.ErrorIs(t, err, domain.ErrUnauthorized)
	store.AssertExpectations(t)
}

func TestSessionService_Verify_BadToken(t *testing.T) {
	store := &MockStore{}
	service := newService(&MockAuthenticator{}, store)

	_, err := service.Verify(context.Background(), "not-a-token")

	assert.ErrorIs(t, err, domain.ErrUnauthorized)
	store.AssertNotCalled(t, "IsSessionRevoked", mock.Anything, mock.Anything)
}

func TestSessionService_Verify_StoreError(t *testing.T) {
	store := &MockStore{}
	service := newService(&MockAuthenticator{}, store)
	ctx := context.Background()

	token, issued, err := auth.NewTokenIssuer("test-secret", time.Hour).Issue(alice)
	require.NoError(t, err)
	store.On("IsSessionRevoked", ctx, issued.ID).Return(false, errors.New("timeout")).Once()

	_, err = service.Verify(ctx, token)

	assert.Error(t, err)
	assert.NotErrorIs(t, err, domain.ErrUnauthorized)
}
