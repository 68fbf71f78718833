package models

import "time"

// Comment is a reply to a post. Author profile is attached the same way as on
// Post: batched lookup, nil when absent.
type Comment struct {
	ID        uint      `gorm:"primaryKey" json:"id"`
	PostID    uint      `gorm:"index;not null" json:"post_id"`
	UserID    uint      `gorm:"index;not null" json:"user_id"`
	Content   string    `gorm:"type:text;not null" json:"content"`
	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`

	Profile *ProfileBrief `gorm:"-" json:"profile"`
}
