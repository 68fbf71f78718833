package models

import "time"

// Follow is a directed relation between two users. The composite unique index
// makes repeated follow attempts idempotent at the store level.
type Follow struct {
	ID         uint      `gorm:"primaryKey" json:"id"`
	FollowerID uint      `gorm:"index:idx_follower_followee,unique;not null" json:"follower_id"`
	FolloweeID uint      `gorm:"index;index:idx_follower_followee,unique;not null" json:"followee_id"`
	CreatedAt  time.Time `json:"created_at"`
}
