package domain

import "time"

const (
	RoleClient = "client"
	RoleAdmin  = "admin"
)

// User is the minimal directory row this service needs: the access
// validator resolves principals by id, login and OAuth flows look them up
// by email or provider identity.
type User struct {
	ID int64 `json:"id" gorm:"primaryKey"`

	Email string `json:"email" gorm:"size:255;uniqueIndex;not null"`
	Name  string `json:"name" gorm:"size:255"`
	Role  string `json:"role" gorm:"size:32;not null;default:client"`

	PasswordHash string `json:"-" gorm:"size:255"`

	Provider   string `json:"provider" gorm:"size:32;index:idx_users_provider"`
	ProviderID string `json:"provider_id" gorm:"size:255;index:idx_users_provider"`
	Avatar     string `json:"avatar" gorm:"size:512"`

	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
}

func (User) TableName() string { return "users" }
