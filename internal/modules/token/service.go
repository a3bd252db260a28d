package token

import (
	"context"
	"errors"
	"log"
	"strconv"
	"time"

	"tokenvault/internal/domain"
	"tokenvault/internal/pkg/jwt"

	"github.com/google/uuid"
)

// Service owns the refresh token lifecycle: issuance, rotation with reuse
// detection, session listing/revocation and storage cleanup. All state
// lives in the store; nothing is cached across requests, otherwise a stale
// use_count would defeat reuse detection.
type Service struct {
	tokens TokenRepositoryInterface
	users  UserRepositoryInterface
	codec  credentialCodec

	accessTTL          time.Duration
	refreshTTL         time.Duration
	refreshTTLRemember time.Duration
	revokedRetention   time.Duration
	maxSessionsPerUser int
}

func NewService(
	tokens TokenRepositoryInterface,
	users UserRepositoryInterface,
	codec credentialCodec,
	accessTTL time.Duration,
	refreshTTL time.Duration,
	refreshTTLRemember time.Duration,
	revokedRetention time.Duration,
	maxSessionsPerUser int,
) *Service {
	return &Service{
		tokens:             tokens,
		users:              users,
		codec:              codec,
		accessTTL:          accessTTL,
		refreshTTL:         refreshTTL,
		refreshTTLRemember: refreshTTLRemember,
		revokedRetention:   revokedRetention,
		maxSessionsPerUser: maxSessionsPerUser,
	}
}

// IssueSession establishes a fresh rotation family for a principal and
// returns the initial access/refresh pair. The refresh record starts with
// use_count=0 and no predecessor.
func (s *Service) IssueSession(ctx context.Context, principalID int64, sctx SessionContext) (*TokenPair, error) {
	now := time.Now().UTC()
	pair, record, err := s.mintPair(principalID, sctx, uuid.NewString(), nil, now)
	if err != nil {
		return nil, err
	}
	if err := s.tokens.Create(ctx, record); err != nil {
		return nil, err
	}

	// Best effort: trim sessions beyond the per-user cap, oldest first.
	if n, err := s.tokens.RevokeOldestBeyond(ctx, principalID, s.maxSessionsPerUser); err != nil {
		log.Printf("session cap enforcement failed: principal_id=%d err=%v", principalID, err)
	} else if n > 0 {
		log.Printf("session cap enforced: principal_id=%d revoked=%d", principalID, n)
	}

	return pair, nil
}

// Rotate exchanges a still-valid refresh token for a new pair. A consumed
// token presented again is the theft signal: the entire family is revoked
// and the attempt fails. Any failure here means the client must
// re-authenticate; no partial pair is ever returned.
func (s *Service) Rotate(ctx context.Context, refreshValue string, sctx SessionContext) (*TokenPair, error) {
	signedExpired := false
	if _, err := s.codec.Verify(refreshValue, jwt.KindRefresh); err != nil {
		if !errors.Is(err, jwt.ErrExpired) {
			return nil, domain.ErrInvalidToken
		}
		// Signature and claims are fine, only the exp claim has passed.
		// Continue to the store so the expired row gets purged.
		signedExpired = true
	}

	record, err := s.tokens.GetByValue(ctx, refreshValue, domain.TokenKindRefresh)
	if err != nil {
		if errors.Is(err, domain.ErrTokenNotFound) && signedExpired {
			return nil, domain.ErrTokenExpired
		}
		return nil, err
	}

	now := time.Now().UTC()
	if signedExpired || record.IsExpired(now) {
		// Storage hygiene: the row is dead weight, remove it now rather
		// than waiting for the sweeper.
		if err := s.tokens.Delete(ctx, record.ID); err != nil {
			log.Printf("expired token cleanup failed: token_id=%d err=%v", record.ID, err)
		}
		return nil, domain.ErrTokenExpired
	}

	if record.UseCount > 0 {
		revoked, err := s.tokens.RevokeFamily(ctx, record.Family, domain.RevokeReasonReuse)
		if err != nil {
			return nil, err
		}
		log.Printf("SECURITY refresh token reuse detected: principal_id=%d family=%s token_id=%d siblings_revoked=%d",
			record.PrincipalID, record.Family, record.ID, revoked)
		return nil, domain.ErrReuseDetected
	}

	if record.Revoked {
		// Explicitly revoked (logout, user revoke, mass logout) but never
		// consumed. Indistinguishable from an unknown token on purpose.
		return nil, domain.ErrTokenNotFound
	}

	pair, successor, err := s.mintPair(record.PrincipalID, inheritContext(record, sctx), record.Family, &record.ID, now)
	if err != nil {
		return nil, err
	}

	// Conditional consume: if another request rotated this token between
	// our read and now, the store reports zero rows and we lose cleanly.
	if err := s.tokens.Rotate(ctx, record.ID, successor); err != nil {
		return nil, err
	}

	return pair, nil
}

// mintPair signs an access/refresh pair and builds the refresh record. The
// persisted row is the source of truth for refresh expiry; the signed exp
// claim is set to match it, while the access token carries its own TTL.
func (s *Service) mintPair(principalID int64, sctx SessionContext, family string, replaces *int64, now time.Time) (*TokenPair, *domain.Token, error) {
	subject := strconv.FormatInt(principalID, 10)

	refreshTTL := s.refreshTTL
	if sctx.RememberMe {
		refreshTTL = s.refreshTTLRemember
	}

	access, accessClaims, err := s.codec.Issue(subject, jwt.KindAccess, s.accessTTL)
	if err != nil {
		return nil, nil, err
	}
	refresh, _, err := s.codec.Issue(subject, jwt.KindRefresh, refreshTTL)
	if err != nil {
		return nil, nil, err
	}

	expiresAt := now.Add(refreshTTL)
	record := &domain.Token{
		PrincipalID: principalID,
		TokenValue:  refresh,
		Kind:        domain.TokenKindRefresh,
		Family:      family,
		ReplacesID:  replaces,
		UseCount:    0,
		IssuedAt:    now,
		ExpiresAt:   expiresAt,
		RememberMe:  sctx.RememberMe,
		DeviceID:    sctx.DeviceID,
		DeviceName:  sctx.DeviceName,
		UserAgent:   sctx.UserAgent,
		IPAddress:   sctx.IPAddress,
		Metadata:    sctx.Metadata,
	}

	pair := &TokenPair{
		AccessToken:      access,
		AccessExpiresAt:  accessClaims.ExpiresAt.Time,
		RefreshToken:     refresh,
		RefreshExpiresAt: expiresAt,
	}
	return pair, record, nil
}

// inheritContext merges the consumed record's session attributes with the
// current request. Device fields from the current request win when set;
// remember-me and metadata carry over unless overridden.
func inheritContext(prev *domain.Token, cur SessionContext) SessionContext {
	merged := SessionContext{
		DeviceID:   prev.DeviceID,
		DeviceName: prev.DeviceName,
		UserAgent:  prev.UserAgent,
		IPAddress:  prev.IPAddress,
		RememberMe: prev.RememberMe,
		Metadata:   prev.Metadata,
	}
	if cur.DeviceID != "" {
		merged.DeviceID = cur.DeviceID
	}
	if cur.DeviceName != "" {
		merged.DeviceName = cur.DeviceName
	}
	if cur.UserAgent != "" {
		merged.UserAgent = cur.UserAgent
	}
	if cur.IPAddress != "" {
		merged.IPAddress = cur.IPAddress
	}
	if cur.Metadata != nil {
		merged.Metadata = cur.Metadata
	}
	return merged
}
