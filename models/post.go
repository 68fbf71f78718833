package models

import "time"

// Post is a community post. Listings order pinned posts ahead of everything
// else, then by recency. The author profile is not a SQL association: it is
// attached by a follow-up batched lookup and stays nil when the author has no
// profile row.
type Post struct {
	ID        uint      `gorm:"primaryKey" json:"id"`
	UserID    uint      `gorm:"index;not null" json:"user_id"`
	Category  string    `gorm:"size:32;index;not null" json:"category"`
	Title     string    `gorm:"size:255;not null" json:"title"`
	Content   string    `gorm:"type:text;not null" json:"content"`
	Pinned    bool      `gorm:"index;default:false" json:"pinned"`
	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`

	Profile *ProfileBrief `gorm:"-" json:"profile"`
}
