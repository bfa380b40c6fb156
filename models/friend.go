package models

import "time"

type FriendRequestStatus string

const (
	FriendRequestPending  FriendRequestStatus = "pending"
	FriendRequestAccepted FriendRequestStatus = "accepted"
	FriendRequestRejected FriendRequestStatus = "rejected"
)

// FriendRequest - one logical request per unordered pair. PairLow/PairHigh hold
// the canonical ordering of {SenderID, ReceiverID} and carry the unique index.
type FriendRequest struct {
	ID         string              `gorm:"primaryKey;size:36" json:"id"`
	SenderID   string              `gorm:"size:64;not null;index" json:"sender_id"`
	ReceiverID string              `gorm:"size:64;not null;index:idx_friend_requests_receiver_status,priority:1" json:"receiver_id"`
	PairLow    string              `gorm:"size:64;not null;uniqueIndex:idx_friend_requests_pair,priority:1" json:"-"`
	PairHigh   string              `gorm:"size:64;not null;uniqueIndex:idx_friend_requests_pair,priority:2" json:"-"`
	Status     FriendRequestStatus `gorm:"type:varchar(20);not null;index:idx_friend_requests_receiver_status,priority:2" json:"status"`
	CreatedAt  time.Time           `json:"created_at"`
	UpdatedAt  time.Time           `json:"updated_at"`
}

func (FriendRequest) TableName() string {
	return "friend_requests"
}

// Friendship - symmetric relation stored once, User1ID < User2ID.
type Friendship struct {
	User1ID   string    `gorm:"primaryKey;size:64;check:user1_id < user2_id" json:"user1_id"`
	User2ID   string    `gorm:"primaryKey;size:64;index" json:"user2_id"`
	CreatedAt time.Time `json:"created_at"`
}

func (Friendship) TableName() string {
	return "friendships"
}

// CanonicalPair orders two user ids lexicographically.
func CanonicalPair(a, b string) (string, string) {
	if a < b {
		return a, b
	}
	return b, a
}

func NewFriendship(a, b string, at time.Time) Friendship {
	low, high := CanonicalPair(a, b)
	return Friendship{User1ID: low, User2ID: high, CreatedAt: at}
}

// Other returns the member of the friendship that is not userID.
func (f Friendship) Other(userID string) string {
	if f.User1ID == userID {
		return f.User2ID
	}
	return f.User1ID
}
