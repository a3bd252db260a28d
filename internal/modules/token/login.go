package token

import (
	"context"
	"errors"
	"strings"

	"tokenvault/internal/domain"

	"golang.org/x/crypto/bcrypt"
)

// Login verifies directory credentials and, on success, opens a new session
// (fresh rotation family) for the user.
func (s *Service) Login(ctx context.Context, email, password string, sctx SessionContext) (*domain.User, *TokenPair, error) {
	user, err := s.users.GetByEmail(ctx, strings.ToLower(strings.TrimSpace(email)))
	if err != nil {
		if errors.Is(err, domain.ErrUserNotFound) {
			return nil, nil, ErrInvalidCredentials
		}
		return nil, nil, err
	}

	if err := bcrypt.CompareHashAndPassword([]byte(user.PasswordHash), []byte(password)); err != nil {
		return nil, nil, ErrInvalidCredentials
	}

	pair, err := s.IssueSession(ctx, user.ID, sctx)
	if err != nil {
		return nil, nil, err
	}

	user.PasswordHash = ""
	return user, pair, nil
}

// OAuthLogin opens a session for an externally verified identity,
// provisioning the directory row on first sight. The identity itself is
// opaque input; provider verification happened upstream.
func (s *Service) OAuthLogin(ctx context.Context, identity *Identity, sctx SessionContext) (*domain.User, *TokenPair, error) {
	user, err := s.users.GetByProvider(ctx, identity.Provider, identity.ProviderID)
	if err != nil {
		if !errors.Is(err, domain.ErrUserNotFound) {
			return nil, nil, err
		}
		user = &domain.User{
			Email:      strings.ToLower(strings.TrimSpace(identity.Email)),
			Name:       identity.Name,
			Role:       domain.RoleClient,
			Provider:   identity.Provider,
			ProviderID: identity.ProviderID,
			Avatar:     identity.Avatar,
		}
		if err := s.users.Create(ctx, user); err != nil {
			return nil, nil, err
		}
	}

	pair, err := s.IssueSession(ctx, user.ID, sctx)
	if err != nil {
		return nil, nil, err
	}

	user.PasswordHash = ""
	return user, pair, nil
}
