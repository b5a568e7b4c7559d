package models

import (
	"time"

	"github.com/lib/pq" // pq.StringArray for the whitelist column
)

// Reviewer is an authorization grant of one user for one organization.
type Reviewer struct {
	UserID     string    `gorm:"primaryKey;type:varchar(64)" json:"user_id"`
	OrgID      string    `gorm:"primaryKey;type:varchar(64);index" json:"org_id"`
	VerifiedAt time.Time `json:"verified_at"`
	// ChannelRef is the last known outbound address, nil until the reviewer talks to the bot.
	ChannelRef *string `gorm:"type:varchar(128)" json:"channel_ref"`
}

// AccessCode stores only the argon2id encoding of a shared organization secret.
type AccessCode struct {
	ID        uint       `gorm:"primaryKey" json:"id"`
	OrgID     string     `gorm:"type:varchar(64);not null;index" json:"org_id"`
	CodeHash  string     `gorm:"type:text;not null" json:"-"`
	CreatedAt time.Time  `json:"created_at"`
	ExpiresAt *time.Time `gorm:"index" json:"expires_at"`
}

// Expired reports whether the code can no longer grant access at now.
func (a AccessCode) Expired(now time.Time) bool {
	return a.ExpiresAt != nil && !a.ExpiresAt.After(now)
}

// Organization is a catalog entry reporters can file against.
type Organization struct {
	ID                string         `gorm:"primaryKey;type:varchar(64)" json:"id"`
	Name              string         `gorm:"not null" json:"name"`
	ShortCode         *string        `json:"short_code"`
	IsActive          bool           `gorm:"index" json:"is_active"`
	ReviewerWhitelist pq.StringArray `gorm:"type:text[]" json:"reviewer_whitelist"`
	CreatedAt         time.Time      `json:"created_at"`
}

// Category belongs to one organization, or to every organization when OrgID is empty.
type Category struct {
	ID    string `gorm:"primaryKey;type:varchar(64)" json:"id"`
	OrgID string `gorm:"primaryKey;type:varchar(64)" json:"org_id"`
	Name  string `gorm:"not null" json:"name"`
}
