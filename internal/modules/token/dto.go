package token

import "time"

// SessionContext carries the device descriptors and policy flags a client
// supplies when establishing or rotating a session. Device fields are
// descriptive only, never used for authorization decisions.
type SessionContext struct {
	DeviceID   string
	DeviceName string
	UserAgent  string
	IPAddress  string
	RememberMe bool
	Metadata   map[string]string
}

// TokenPair is the result of issuance and rotation. Expiries are returned
// explicitly so the transport can mirror them onto cookies.
type TokenPair struct {
	AccessToken      string    `json:"access_token"`
	AccessExpiresAt  time.Time `json:"access_expires_at"`
	RefreshToken     string    `json:"refresh_token"`
	RefreshExpiresAt time.Time `json:"refresh_expires_at"`
}

// SessionSummary describes an active session without ever exposing the raw
// token value.
type SessionSummary struct {
	ID         int64      `json:"id"`
	Family     string     `json:"family"`
	DeviceID   string     `json:"device_id,omitempty"`
	DeviceName string     `json:"device_name,omitempty"`
	UserAgent  string     `json:"user_agent,omitempty"`
	IPAddress  string     `json:"ip_address,omitempty"`
	RememberMe bool       `json:"remember_me"`
	IssuedAt   time.Time  `json:"issued_at"`
	LastUsedAt *time.Time `json:"last_used_at,omitempty"`
	ExpiresAt  time.Time  `json:"expires_at"`
}

type LoginRequest struct {
	Email      string            `json:"email" binding:"required,email"`
	Password   string            `json:"password" binding:"required"`
	RememberMe bool              `json:"remember_me"`
	DeviceID   string            `json:"device_id"`
	DeviceName string            `json:"device_name"`
	Metadata   map[string]string `json:"metadata"`
}

type OAuthLoginRequest struct {
	Provider   string            `json:"provider" binding:"required"`
	IDToken    string            `json:"id_token" binding:"required"`
	RememberMe bool              `json:"remember_me"`
	DeviceID   string            `json:"device_id"`
	DeviceName string            `json:"device_name"`
	Metadata   map[string]string `json:"metadata"`
}

type RefreshRequest struct {
	RefreshToken string            `json:"refresh_token"`
	DeviceID     string            `json:"device_id"`
	DeviceName   string            `json:"device_name"`
	Metadata     map[string]string `json:"metadata"`
}

type LogoutRequest struct {
	RefreshToken string `json:"refresh_token"`
}
