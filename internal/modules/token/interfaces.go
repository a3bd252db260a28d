package token

import (
	"context"
	"time"

	"tokenvault/internal/domain"
	"tokenvault/internal/pkg/jwt"
	"tokenvault/internal/repository"
)

// TokenRepositoryInterface — only the store operations the service uses.
// Rotation atomicity (conditional consume + successor insert) is a store
// concern, not application logic.
type TokenRepositoryInterface interface {
	Create(ctx context.Context, t *domain.Token) error
	GetByValue(ctx context.Context, value string, kind domain.TokenKind) (*domain.Token, error)
	Rotate(ctx context.Context, currentID int64, successor *domain.Token) error
	RevokeFamily(ctx context.Context, family, reason string) (int64, error)
	RevokeOne(ctx context.Context, principalID, id int64, reason string) (bool, error)
	RevokeAllByPrincipal(ctx context.Context, principalID int64, reason string) (int64, error)
	RevokeByValue(ctx context.Context, value string, reason string) (bool, error)
	RevokeOldestBeyond(ctx context.Context, principalID int64, max int) (int64, error)
	List(ctx context.Context, f repository.ListFilter, limit, offset int) ([]domain.Token, error)
	Delete(ctx context.Context, id int64) error
	DeleteExpiredOrStale(ctx context.Context, now time.Time, retention time.Duration) (int64, error)
}

// UserRepositoryInterface — user directory lookups for the login flows.
type UserRepositoryInterface interface {
	Create(ctx context.Context, u *domain.User) error
	GetByEmail(ctx context.Context, email string) (*domain.User, error)
	GetByProvider(ctx context.Context, provider, providerID string) (*domain.User, error)
}

type credentialCodec interface {
	Issue(subject string, kind jwt.Kind, ttl time.Duration) (string, *jwt.Claims, error)
	Verify(tokenStr string, want jwt.Kind) (*jwt.Claims, error)
}

// Identity is what an external OAuth verifier yields. This service performs
// no provider-specific verification itself.
type Identity struct {
	Provider   string
	ProviderID string
	Email      string
	Name       string
	Avatar     string
}

// IdentityVerifier validates a provider-issued identity token. Implemented
// outside this module (Google/Apple/... glue lives with the caller).
type IdentityVerifier interface {
	Verify(ctx context.Context, provider, idToken string) (*Identity, error)
}
