package models

import "time"

// Profile is the community-facing identity record, one-to-one with User and
// sharing its id. It is provisioned lazily on the user's first community write,
// so code reading profiles must tolerate its absence.
type Profile struct {
	ID            uint      `gorm:"primaryKey;autoIncrement:false" json:"id"`
	Username      string    `gorm:"size:64;uniqueIndex;not null" json:"username"`
	AvatarURL     string    `gorm:"size:512" json:"avatar_url"`
	Role          string    `gorm:"size:32;default:'user'" json:"role"`
	TradingStyles string    `gorm:"size:255" json:"trading_styles"` // comma separated tags
	CreatedAt     time.Time `json:"created_at"`
	UpdatedAt     time.Time `json:"updated_at"`
}

// ProfileBrief is the subset of profile data embedded into posts, comments and
// notification expansions.
type ProfileBrief struct {
	ID        uint   `json:"id"`
	Username  string `json:"username"`
	AvatarURL string `json:"avatar_url"`
}

// Brief returns the embeddable view of the profile.
func (p Profile) Brief() ProfileBrief {
	return ProfileBrief{ID: p.ID, Username: p.Username, AvatarURL: p.AvatarURL}
}
