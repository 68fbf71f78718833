package models

import "time"

// Notification types produced by this service.
const (
	NotificationTypeComment = "comment"
	NotificationTypeFollow  = "follow"
)

// Notification is addressed to a single recipient and mutated only through its
// is_read flag. RelatedUserID and RelatedPostID are optional references
// expanded on read into RelatedUser and RelatedPost.
type Notification struct {
	ID            uint      `gorm:"primaryKey" json:"id"`
	RecipientID   uint      `gorm:"index;not null" json:"recipient_id"`
	Type          string    `gorm:"size:32;not null" json:"type"`
	IsRead        bool      `gorm:"index;default:false" json:"is_read"`
	RelatedUserID *uint     `gorm:"index" json:"related_user_id"`
	RelatedPostID *uint     `gorm:"index" json:"related_post_id"`
	CreatedAt     time.Time `json:"created_at"`

	RelatedUser *ProfileBrief `gorm:"-" json:"related_user"`
	RelatedPost *PostBrief    `gorm:"-" json:"related_post"`
}

// PostBrief is the subset of post data embedded into notification expansions.
type PostBrief struct {
	ID    uint   `json:"id"`
	Title string `json:"title"`
}
