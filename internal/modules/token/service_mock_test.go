package token

import (
	"context"
	"testing"
	"time"

	"tokenvault/internal/domain"
	jwtsvc "tokenvault/internal/pkg/jwt"
	"tokenvault/internal/repository"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
)

// Mock token repository implementing the interface
type mockTokenRepo struct {
	mock.Mock
}

func (m *mockTokenRepo) Create(ctx context.Context, t *domain.Token) error {
	args := m.Called(ctx, t)
	return args.Error(0)
}

func (m *mockTokenRepo) GetByValue(ctx context.Context, value string, kind domain.TokenKind) (*domain.Token, error) {
	args := m.Called(ctx, value, kind)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*domain.Token), args.Error(1)
}

func (m *mockTokenRepo) Rotate(ctx context.Context, currentID int64, successor *domain.Token) error {
	args := m.Called(ctx, currentID, successor)
	return args.Error(0)
}

func (m *mockTokenRepo) RevokeFamily(ctx context.Context, family, reason string) (int64, error) {
	args := m.Called(ctx, family, reason)
	return args.Get(0).(int64), args.Error(1)
}

func (m *mockTokenRepo) RevokeOne(ctx context.Context, principalID, id int64, reason string) (bool, error) {
	args := m.Called(ctx, principalID, id, reason)
	return args.Bool(0), args.Error(1)
}

func (m *mockTokenRepo) RevokeAllByPrincipal(ctx context.Context, principalID int64, reason string) (int64, error) {
	args := m.Called(ctx, principalID, reason)
	return args.Get(0).(int64), args.Error(1)
}

func (m *mockTokenRepo) RevokeByValue(ctx context.Context, value string, reason string) (bool, error) {
	args := m.Called(ctx, value, reason)
	return args.Bool(0), args.Error(1)
}

func (m *mockTokenRepo) RevokeOldestBeyond(ctx context.Context, principalID int64, max int) (int64, error) {
	args := m.Called(ctx, principalID, max)
	return args.Get(0).(int64), args.Error(1)
}

func (m *mockTokenRepo) List(ctx context.Context, f repository.ListFilter, limit, offset int) ([]domain.Token, error) {
	args := m.Called(ctx, f, limit, offset)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]domain.Token), args.Error(1)
}

func (m *mockTokenRepo) Delete(ctx context.Context, id int64) error {
	args := m.Called(ctx, id)
	return args.Error(0)
}

func (m *mockTokenRepo) DeleteExpiredOrStale(ctx context.Context, now time.Time, retention time.Duration) (int64, error) {
	args := m.Called(ctx, now, retention)
	return args.Get(0).(int64), args.Error(1)
}

// Mock user repository
type mockUserRepo struct {
	mock.Mock
}

func (m *mockUserRepo) Create(ctx context.Context, u *domain.User) error {
	args := m.Called(ctx, u)
	return args.Error(0)
}

func (m *mockUserRepo) GetByEmail(ctx context.Context, email string) (*domain.User, error) {
	args := m.Called(ctx, email)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*domain.User), args.Error(1)
}

func (m *mockUserRepo) GetByProvider(ctx context.Context, provider, providerID string) (*domain.User, error) {
	args := m.Called(ctx, provider, providerID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*domain.User), args.Error(1)
}

func newMockedService(tokens *mockTokenRepo, users *mockUserRepo) *Service {
	codec := jwtsvc.New("test-secret-123", "tokenvault", "tokenvault")
	return NewService(tokens, users, codec,
		testAccessTTL, testRefreshTTL, testRememberTTL, testRetention, testMaxSessions)
}

func TestIssueSession_StoreUnavailablePropagates(t *testing.T) {
	tokens := new(mockTokenRepo)
	users := new(mockUserRepo)

	tokens.On("Create", mock.Anything, mock.Anything).Return(domain.ErrStoreUnavailable)

	svc := newMockedService(tokens, users)
	_, err := svc.IssueSession(context.Background(), 10, SessionContext{})

	assert.ErrorIs(t, err, domain.ErrStoreUnavailable)
	tokens.AssertExpectations(t)
}

func TestRotate_StoreUnavailableReturnsNoPartialPair(t *testing.T) {
	tokens := new(mockTokenRepo)
	users := new(mockUserRepo)
	svc := newMockedService(tokens, users)

	// A real signed refresh token so the codec step passes.
	codec := jwtsvc.New("test-secret-123", "tokenvault", "tokenvault")
	signed, _, err := codec.Issue("10", jwtsvc.KindRefresh, time.Hour)
	require.NoError(t, err)

	fresh := &domain.Token{
		ID:          1,
		PrincipalID: 10,
		TokenValue:  signed,
		Kind:        domain.TokenKindRefresh,
		Family:      "fam-1",
		ExpiresAt:   time.Now().UTC().Add(time.Hour),
	}
	tokens.On("GetByValue", mock.Anything, signed, domain.TokenKindRefresh).Return(fresh, nil)
	tokens.On("Rotate", mock.Anything, int64(1), mock.Anything).Return(domain.ErrStoreUnavailable)

	pair, err := svc.Rotate(context.Background(), signed, SessionContext{})

	assert.ErrorIs(t, err, domain.ErrStoreUnavailable)
	assert.Nil(t, pair)
	tokens.AssertExpectations(t)
}

func TestRotate_FamilyRevocationFailureStillFailsClosed(t *testing.T) {
	tokens := new(mockTokenRepo)
	users := new(mockUserRepo)
	svc := newMockedService(tokens, users)

	codec := jwtsvc.New("test-secret-123", "tokenvault", "tokenvault")
	signed, _, err := codec.Issue("10", jwtsvc.KindRefresh, time.Hour)
	require.NoError(t, err)

	consumed := &domain.Token{
		ID:          1,
		PrincipalID: 10,
		TokenValue:  signed,
		Kind:        domain.TokenKindRefresh,
		Family:      "fam-1",
		UseCount:    1,
		Revoked:     true,
		ExpiresAt:   time.Now().UTC().Add(time.Hour),
	}
	tokens.On("GetByValue", mock.Anything, signed, domain.TokenKindRefresh).Return(consumed, nil)
	tokens.On("RevokeFamily", mock.Anything, "fam-1", domain.RevokeReasonReuse).
		Return(int64(0), domain.ErrStoreUnavailable)

	pair, err := svc.Rotate(context.Background(), signed, SessionContext{})

	assert.ErrorIs(t, err, domain.ErrStoreUnavailable)
	assert.Nil(t, pair)
	tokens.AssertExpectations(t)
}
