package models

import (
	"time"

	"github.com/google/uuid"
)

// MicrosoftToken is the persisted OAuth credential pair for one user.
// At most one row exists per user id; upserts replace the whole record.
type MicrosoftToken struct {
	UserID      uuid.UUID `json:"user_id" gorm:"type:uuid;primaryKey;not null"`
	AccessToken string    `json:"access_token" gorm:"not null"`
	// RefreshToken may be empty: the provider does not always return one
	RefreshToken string `json:"refresh_token"`
	// ExpiresAt is NULL when the provider did not report a token lifetime;
	// an absent expiry is treated as "assume not expired"
	ExpiresAt *time.Time `json:"expires_at"`
}

func (MicrosoftToken) TableName() string {
	return "ms_tokens"
}

// Expired reports whether the access token must be treated as invalid at t.
func (m *MicrosoftToken) Expired(t time.Time) bool {
	return m.ExpiresAt != nil && !m.ExpiresAt.After(t)
}
