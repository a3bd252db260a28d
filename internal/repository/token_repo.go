package repository

import (
	"context"
	"errors"
	"fmt"
	"time"

	"tokenvault/internal/domain"

	"gorm.io/gorm"
)

// TokenRepository provides DB access for refresh token records.
//
// It is the single place where storage errors are decoded: callers only see
// the closed set in internal/domain. Rotation atomicity lives here too — the
// conditional update in Rotate is what guarantees at-most-once consumption
// of a refresh token under concurrent requests.
type TokenRepository struct {
	db *gorm.DB
}

func NewTokenRepository(db *gorm.DB) *TokenRepository {
	return &TokenRepository{db: db}
}

func (r *TokenRepository) Create(ctx context.Context, t *domain.Token) error {
	if err := r.db.WithContext(ctx).Create(t).Error; err != nil {
		return storeErr(err)
	}
	return nil
}

// GetByValue looks up a record by exact token value and kind, with no
// liveness predicate: revoked and consumed rows must still be found so the
// rotation engine can tell reuse apart from an unknown token.
func (r *TokenRepository) GetByValue(ctx context.Context, value string, kind domain.TokenKind) (*domain.Token, error) {
	var t domain.Token
	err := r.db.WithContext(ctx).Where("token_value = ? AND kind = ?", value, kind).First(&t).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, domain.ErrTokenNotFound
		}
		return nil, storeErr(err)
	}
	return &t, nil
}

func (r *TokenRepository) GetByID(ctx context.Context, id int64) (*domain.Token, error) {
	var t domain.Token
	err := r.db.WithContext(ctx).First(&t, id).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, domain.ErrTokenNotFound
		}
		return nil, storeErr(err)
	}
	return &t, nil
}

// Rotate consumes the current record and inserts its successor in one
// transaction. The update only matches while use_count is still 0 and the
// row is not revoked; zero rows affected means another request rotated this
// token first, reported as ErrTokenNotFound (a benign race loser, not
// theft).
func (r *TokenRepository) Rotate(ctx context.Context, currentID int64, successor *domain.Token) error {
	now := time.Now().UTC()
	err := r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		res := tx.Model(&domain.Token{}).
			Where("id = ? AND use_count = 0 AND revoked = ?", currentID, false).
			Updates(map[string]any{
				"use_count":      1,
				"revoked":        true,
				"revoked_at":     now,
				"revoked_reason": domain.RevokeReasonRotated,
				"last_used_at":   now,
			})
		if res.Error != nil {
			return res.Error
		}
		if res.RowsAffected == 0 {
			return domain.ErrTokenNotFound
		}
		return tx.Create(successor).Error
	})
	if err != nil {
		if errors.Is(err, domain.ErrTokenNotFound) {
			return err
		}
		return storeErr(err)
	}
	return nil
}

// RevokeFamily revokes every still-live record sharing the family value.
// Rows already revoked keep their original reason; re-running is a no-op.
func (r *TokenRepository) RevokeFamily(ctx context.Context, family, reason string) (int64, error) {
	now := time.Now().UTC()
	res := r.db.WithContext(ctx).Model(&domain.Token{}).
		Where("family = ? AND revoked = ?", family, false).
		Updates(map[string]any{
			"revoked":        true,
			"revoked_at":     now,
			"revoked_reason": reason,
		})
	if res.Error != nil {
		return 0, storeErr(res.Error)
	}
	return res.RowsAffected, nil
}

// RevokeOne revokes a single record scoped to its owner. The ownership check
// is part of the predicate so a wrong-principal id can never touch another
// user's session.
func (r *TokenRepository) RevokeOne(ctx context.Context, principalID, id int64, reason string) (bool, error) {
	now := time.Now().UTC()
	res := r.db.WithContext(ctx).Model(&domain.Token{}).
		Where("id = ? AND principal_id = ? AND revoked = ?", id, principalID, false).
		Updates(map[string]any{
			"revoked":        true,
			"revoked_at":     now,
			"revoked_reason": reason,
		})
	if res.Error != nil {
		return false, storeErr(res.Error)
	}
	return res.RowsAffected > 0, nil
}

func (r *TokenRepository) RevokeAllByPrincipal(ctx context.Context, principalID int64, reason string) (int64, error) {
	now := time.Now().UTC()
	res := r.db.WithContext(ctx).Model(&domain.Token{}).
		Where("principal_id = ? AND revoked = ?", principalID, false).
		Updates(map[string]any{
			"revoked":        true,
			"revoked_at":     now,
			"revoked_reason": reason,
		})
	if res.Error != nil {
		return 0, storeErr(res.Error)
	}
	return res.RowsAffected, nil
}

// RevokeByValue is the logout path: revoking an unknown or already-revoked
// token is a no-op.
func (r *TokenRepository) RevokeByValue(ctx context.Context, value string, reason string) (bool, error) {
	now := time.Now().UTC()
	res := r.db.WithContext(ctx).Model(&domain.Token{}).
		Where("token_value = ? AND revoked = ?", value, false).
		Updates(map[string]any{
			"revoked":        true,
			"revoked_at":     now,
			"revoked_reason": reason,
		})
	if res.Error != nil {
		return false, storeErr(res.Error)
	}
	return res.RowsAffected > 0, nil
}

type ListFilter struct {
	PrincipalID int64
	Kind        domain.TokenKind // optional, empty matches all
	ActiveOnly  bool
}

func (r *TokenRepository) List(ctx context.Context, f ListFilter, limit, offset int) ([]domain.Token, error) {
	q := r.db.WithContext(ctx).Where("principal_id = ?", f.PrincipalID)
	if f.Kind != "" {
		q = q.Where("kind = ?", f.Kind)
	}
	if f.ActiveOnly {
		q = q.Where("revoked = ? AND expires_at > ?", false, time.Now().UTC())
	}

	var tokens []domain.Token
	err := q.Order("issued_at DESC").Limit(limit).Offset(offset).Find(&tokens).Error
	if err != nil {
		return nil, storeErr(err)
	}
	return tokens, nil
}

func (r *TokenRepository) Delete(ctx context.Context, id int64) error {
	if err := r.db.WithContext(ctx).Delete(&domain.Token{}, id).Error; err != nil {
		return storeErr(err)
	}
	return nil
}

// DeleteExpiredOrStale purges records past their expiry, plus revoked
// records older than the retention window. Recently revoked rows are kept
// on purpose: they are the forensic trail of reuse events.
func (r *TokenRepository) DeleteExpiredOrStale(ctx context.Context, now time.Time, retention time.Duration) (int64, error) {
	cutoff := now.Add(-retention)
	res := r.db.WithContext(ctx).
		Where("expires_at < ? OR (revoked = ? AND revoked_at < ?)", now, true, cutoff).
		Delete(&domain.Token{})
	if res.Error != nil {
		return 0, storeErr(res.Error)
	}
	return res.RowsAffected, nil
}

// RevokeOldestBeyond caps live sessions per principal: everything past the
// newest max live refresh tokens gets revoked.
func (r *TokenRepository) RevokeOldestBeyond(ctx context.Context, principalID int64, max int) (int64, error) {
	now := time.Now().UTC()

	var ids []int64
	err := r.db.WithContext(ctx).Model(&domain.Token{}).
		Where("principal_id = ? AND revoked = ? AND expires_at > ?", principalID, false, now).
		Order("issued_at DESC").
		Pluck("id", &ids).Error
	if err != nil {
		return 0, storeErr(err)
	}
	if len(ids) <= max {
		return 0, nil
	}

	res := r.db.WithContext(ctx).Model(&domain.Token{}).
		Where("id IN ? AND revoked = ?", ids[max:], false).
		Updates(map[string]any{
			"revoked":        true,
			"revoked_at":     now,
			"revoked_reason": domain.RevokeReasonSessionLimit,
		})
	if res.Error != nil {
		return 0, storeErr(res.Error)
	}
	return res.RowsAffected, nil
}

func storeErr(err error) error {
	return fmt.Errorf("%w: %v", domain.ErrStoreUnavailable, err)
}
