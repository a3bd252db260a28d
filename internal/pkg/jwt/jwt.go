package jwt

import (
	"errors"
	"time"

	jwtlib "github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"
)

type Kind string

const (
	KindAccess  Kind = "access"
	KindRefresh Kind = "refresh"
)

// Verification failures. Every bad token maps to exactly one of these.
var (
	ErrInvalidSignature = errors.New("invalid token signature")
	ErrExpired          = errors.New("token expired")
	ErrClaimMismatch    = errors.New("token claim mismatch")
)

type Claims struct {
	Kind Kind `json:"type"`
	jwtlib.RegisteredClaims
}

// Service signs and verifies compact credentials with a single symmetric
// secret. The algorithm is pinned to HS256; whatever the token header says
// is never honored.
type Service struct {
	secret   []byte
	issuer   string
	audience string
}

func New(secret, issuer, audience string) *Service {
	return &Service{
		secret:   []byte(secret),
		issuer:   issuer,
		audience: audience,
	}
}

// Issue signs a token of the given kind for subject. The jti is random and
// exists for traceability only; reuse detection is store-driven.
func (s *Service) Issue(subject string, kind Kind, ttl time.Duration) (string, *Claims, error) {
	now := time.Now()
	claims := &Claims{
		Kind: kind,
		RegisteredClaims: jwtlib.RegisteredClaims{
			Subject:   subject,
			ID:        uuid.NewString(),
			Issuer:    s.issuer,
			Audience:  jwtlib.ClaimStrings{s.audience},
			IssuedAt:  jwtlib.NewNumericDate(now),
			ExpiresAt: jwtlib.NewNumericDate(now.Add(ttl)),
		},
	}

	token := jwtlib.NewWithClaims(jwtlib.SigningMethodHS256, claims)
	signed, err := token.SignedString(s.secret)
	if err != nil {
		return "", nil, err
	}
	return signed, claims, nil
}

// Verify checks signature, expiry, issuer, audience and token kind together
// and fails closed with a specific reason.
func (s *Service) Verify(tokenStr string, want Kind) (*Claims, error) {
	token, err := jwtlib.ParseWithClaims(tokenStr, &Claims{}, func(t *jwtlib.Token) (any, error) {
		return s.secret, nil
	},
		jwtlib.WithValidMethods([]string{jwtlib.SigningMethodHS256.Alg()}),
		jwtlib.WithIssuer(s.issuer),
		jwtlib.WithAudience(s.audience),
		jwtlib.WithExpirationRequired(),
	)
	if err != nil {
		switch {
		case errors.Is(err, jwtlib.ErrTokenExpired):
			return nil, ErrExpired
		case errors.Is(err, jwtlib.ErrTokenInvalidIssuer),
			errors.Is(err, jwtlib.ErrTokenInvalidAudience),
			errors.Is(err, jwtlib.ErrTokenRequiredClaimMissing):
			return nil, ErrClaimMismatch
		default:
			return nil, ErrInvalidSignature
		}
	}

	claims, ok := token.Claims.(*Claims)
	if !ok || !token.Valid {
		return nil, ErrInvalidSignature
	}
	if claims.Kind != want {
		return nil, ErrClaimMismatch
	}
	return claims, nil
}
