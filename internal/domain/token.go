package domain

import "time"

type TokenKind string

const (
	TokenKindAccess  TokenKind = "access"
	TokenKindRefresh TokenKind = "refresh"
)

// Revocation reasons recorded on token rows. "reuse detected" marks a
// family-wide revocation after a consumed token was presented again.
const (
	RevokeReasonRotated      = "rotated"
	RevokeReasonReuse        = "reuse detected"
	RevokeReasonLogout       = "logout"
	RevokeReasonUserRevoked  = "revoked by user"
	RevokeReasonSessionLimit = "session limit"
)

// Token is a persisted refresh credential. Access tokens are never stored;
// only rows with Kind=refresh exist in the table.
//
// Security notes:
// - Rows in one Family form the rotation chain of a single login session.
// - UseCount is 0 until the token is consumed by rotation, then exactly 1.
//   A second presentation of the same value is the theft signal.
// - Rotation revokes the predecessor in the same transaction that creates
//   the successor, so at most one live token exists per chain position.
type Token struct {
	ID int64 `json:"id" gorm:"primaryKey"`

	PrincipalID int64     `json:"principal_id" gorm:"index;not null"`
	TokenValue  string    `json:"-" gorm:"size:1024;uniqueIndex;not null"`
	Kind        TokenKind `json:"kind" gorm:"size:16;index;not null"`

	Family     string `json:"family" gorm:"size:36;index;not null"`
	ReplacesID *int64 `json:"replaces_id" gorm:"index"`
	UseCount   int    `json:"use_count" gorm:"not null;default:0"`

	IssuedAt   time.Time  `json:"issued_at"`
	ExpiresAt  time.Time  `json:"expires_at" gorm:"index;not null"`
	LastUsedAt *time.Time `json:"last_used_at"`

	Revoked       bool       `json:"revoked" gorm:"index;not null;default:false"`
	RevokedAt     *time.Time `json:"revoked_at" gorm:"index"`
	RevokedReason string     `json:"revoked_reason" gorm:"size:64"`

	RememberMe bool `json:"remember_me"`

	DeviceID   string `json:"device_id" gorm:"size:64;index"`
	DeviceName string `json:"device_name" gorm:"size:128"`
	UserAgent  string `json:"user_agent" gorm:"size:512"`
	IPAddress  string `json:"ip_address" gorm:"size:64"`

	// Metadata is an opaque caller-supplied bag (fingerprint, OS, ...);
	// never interpreted here.
	Metadata map[string]string `json:"metadata" gorm:"serializer:json"`
}

func (Token) TableName() string { return "tokens" }

func (t *Token) IsExpired(now time.Time) bool {
	return now.After(t.ExpiresAt)
}

// IsLive reports whether the token can still legitimately rotate.
func (t *Token) IsLive(now time.Time) bool {
	return !t.Revoked && t.UseCount == 0 && !t.IsExpired(now)
}
