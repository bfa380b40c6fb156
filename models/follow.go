package models

import "time"

type FollowStatus string

const (
	FollowPending  FollowStatus = "pending"
	FollowAccepted FollowStatus = "accepted"
)

// FollowEdge - directed follow. At most one edge per (FollowerID, FollowedID).
// Rejection and unfollow delete the row; there is no rejected state.
type FollowEdge struct {
	ID         string       `gorm:"primaryKey;size:36" json:"id"`
	FollowerID string       `gorm:"size:64;not null;uniqueIndex:idx_follow_edges_pair,priority:1;index:idx_follow_edges_follower_created,priority:1" json:"follower_id"`
	FollowedID string       `gorm:"size:64;not null;uniqueIndex:idx_follow_edges_pair,priority:2;index:idx_follow_edges_followed_status,priority:1" json:"followed_id"`
	Status     FollowStatus `gorm:"type:varchar(20);not null;index:idx_follow_edges_followed_status,priority:2" json:"status"`
	CreatedAt  time.Time    `gorm:"index:idx_follow_edges_follower_created,priority:2" json:"created_at"`
	UpdatedAt  time.Time    `json:"updated_at"`
}

func (FollowEdge) TableName() string {
	return "follow_edges"
}
