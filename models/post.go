package models

import "time"

// Post - feed entry wrapping a logged workout or a progress picture
type Post struct {
	ID        string      `gorm:"primaryKey;size:36" json:"id"`
	UserID    string      `gorm:"size:64;not null;index:idx_posts_user_created,priority:1" json:"user_id"`
	Kind      ContentKind `gorm:"type:varchar(32);not null" json:"kind"`
	ItemID    string      `gorm:"size:36;not null" json:"item_id"`
	Caption   string      `gorm:"type:text" json:"caption"`
	CreatedAt time.Time   `gorm:"index:idx_posts_user_created,priority:2" json:"created_at"`
}

func (Post) TableName() string {
	return "posts"
}

// FeedResponse - one feed page. Posts may be shorter than the requested limit
// when underlying content was hidden or deleted.
type FeedResponse struct {
	Posts      []Post `json:"posts"`
	HasMore    bool   `json:"has_more"`
	NextCursor string `json:"next_cursor,omitempty"`
}
