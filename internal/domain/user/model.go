package user

import (
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

// User is a wallet-keyed account, optionally linked to a GitHub profile.
type User struct {
	ID              string    `gorm:"type:varchar(36);primaryKey" json:"id"`
	WalletAddress   string    `gorm:"size:42;uniqueIndex;not null" json:"walletAddress"`
	GithubID        *string   `gorm:"size:64" json:"githubId"`
	GithubUsername  *string   `gorm:"size:255" json:"githubUsername"`
	GithubEmail     *string   `gorm:"size:512" json:"githubEmail"`
	GithubAvatarURL *string   `gorm:"size:512" json:"githubAvatarUrl"`
	CreatedAt       time.Time `json:"createdAt"`
	UpdatedAt       time.Time `json:"updatedAt"`
}

// TableName pins the table name.
func (User) TableName() string { return "users" }

// BeforeCreate assigns the primary key.
func (u *User) BeforeCreate(*gorm.DB) error {
	if u.ID == "" {
		u.ID = uuid.NewString()
	}
	return nil
}

// Profile is an upsert request. Nil fields are left untouched on update.
type Profile struct {
	WalletAddress   string  `json:"walletAddress"`
	GithubID        *string `json:"githubId,omitempty"`
	GithubUsername  *string `json:"githubUsername,omitempty"`
	GithubEmail     *string `json:"githubEmail,omitempty"`
	GithubAvatarURL *string `json:"githubAvatarUrl,omitempty"`
}

// columns returns the provided fields keyed by column name.
func (p Profile) columns() map[string]*string {
	cols := map[string]*string{}
	if p.GithubID != nil {
		cols["github_id"] = p.GithubID
	}
	if p.GithubUsername != nil {
		cols["github_username"] = p.GithubUsername
	}
	if p.GithubEmail != nil {
		cols["github_email"] = p.GithubEmail
	}
	if p.GithubAvatarURL != nil {
		cols["github_avatar_url"] = p.GithubAvatarURL
	}
	return cols
}
