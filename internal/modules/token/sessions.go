package token

import (
	"context"
	"log"
	"time"

	"tokenvault/internal/domain"
	"tokenvault/internal/repository"
)

const defaultSessionPageSize = 50

// ListSessions returns active session summaries for a principal. The raw
// token value is never included.
func (s *Service) ListSessions(ctx context.Context, principalID int64, limit, offset int) ([]SessionSummary, error) {
	if limit <= 0 || limit > defaultSessionPageSize {
		limit = defaultSessionPageSize
	}
	if offset < 0 {
		offset = 0
	}

	tokens, err := s.tokens.List(ctx, repository.ListFilter{
		PrincipalID: principalID,
		Kind:        domain.TokenKindRefresh,
		ActiveOnly:  true,
	}, limit, offset)
	if err != nil {
		return nil, err
	}

	summaries := make([]SessionSummary, 0, len(tokens))
	for _, t := range tokens {
		summaries = append(summaries, SessionSummary{
			ID:         t.ID,
			Family:     t.Family,
			DeviceID:   t.DeviceID,
			DeviceName: t.DeviceName,
			UserAgent:  t.UserAgent,
			IPAddress:  t.IPAddress,
			RememberMe: t.RememberMe,
			IssuedAt:   t.IssuedAt,
			LastUsedAt: t.LastUsedAt,
			ExpiresAt:  t.ExpiresAt,
		})
	}
	return summaries, nil
}

// RevokeSession revokes a single session owned by the principal. Returns
// false when the session does not exist, is already revoked, or belongs to
// someone else — those cases are indistinguishable to the caller.
func (s *Service) RevokeSession(ctx context.Context, principalID, sessionID int64) (bool, error) {
	return s.tokens.RevokeOne(ctx, principalID, sessionID, domain.RevokeReasonUserRevoked)
}

// RevokeAllSessions is the "log out of all devices" operation.
func (s *Service) RevokeAllSessions(ctx context.Context, principalID int64, reason string) (int64, error) {
	if reason == "" {
		reason = domain.RevokeReasonUserRevoked
	}
	return s.tokens.RevokeAllByPrincipal(ctx, principalID, reason)
}

// RevokeByValue is the logout path: presenting an unknown token is a
// successful no-op, matching how the transport treats logout idempotently.
func (s *Service) RevokeByValue(ctx context.Context, refreshValue string) (bool, error) {
	return s.tokens.RevokeByValue(ctx, refreshValue, domain.RevokeReasonLogout)
}

// CleanupExpired reclaims storage: rows past expiry go immediately, revoked
// rows only after the retention window so reuse evidence survives long
// enough to investigate. Failures are logged, never fatal.
func (s *Service) CleanupExpired(ctx context.Context) (int64, error) {
	deleted, err := s.tokens.DeleteExpiredOrStale(ctx, time.Now().UTC(), s.revokedRetention)
	if err != nil {
		log.Printf("token cleanup failed: err=%v", err)
		return 0, err
	}
	return deleted, nil
}
