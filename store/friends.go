package store

import (
	"context"
	"time"

	"fitsocial/models"

	"gorm.io/gorm/clause"
)

func (s *Store) GetFriendRequest(ctx context.Context, requestID string) (*models.FriendRequest, error) {
	var request models.FriendRequest
	if err := s.primary(ctx).Where("id = ?", requestID).First(&request).Error; err != nil {
		return nil, err
	}
	return &request, nil
}

// FindFriendRequestByPair finds the request for the unordered pair {a, b}.
func (s *Store) FindFriendRequestByPair(ctx context.Context, a, b string) (*models.FriendRequest, error) {
	low, high := models.CanonicalPair(a, b)
	var request models.FriendRequest
	err := s.primary(ctx).
		Where("pair_low = ? AND pair_high = ?", low, high).
		First(&request).Error
	if err != nil {
		return nil, err
	}
	return &request, nil
}

// InsertFriendRequest fails with gorm.ErrDuplicatedKey when the pair already has a request.
func (s *Store) InsertFriendRequest(ctx context.Context, request *models.FriendRequest) error {
	request.PairLow, request.PairHigh = models.CanonicalPair(request.SenderID, request.ReceiverID)
	return s.writer(ctx).Create(request).Error
}

// ReopenFriendRequest moves a rejected request back to pending, re-addressed
// from senderID to receiverID, keeping the row id.
func (s *Store) ReopenFriendRequest(ctx context.Context, requestID, senderID, receiverID string, at time.Time) (int64, error) {
	result := s.writer(ctx).Model(&models.FriendRequest{}).
		Where("id = ? AND status = ?", requestID, models.FriendRequestRejected).
		Updates(map[string]interface{}{
			"sender_id":   senderID,
			"receiver_id": receiverID,
			"status":      models.FriendRequestPending,
			"created_at":  at,
			"updated_at":  at,
		})
	return result.RowsAffected, result.Error
}

// TransitionFriendRequest is a conditional pending -> to transition guarded by
// the receiver; zero rows affected means the precondition did not hold.
func (s *Store) TransitionFriendRequest(ctx context.Context, requestID, receiverID string, to models.FriendRequestStatus, at time.Time) (int64, error) {
	result := s.writer(ctx).Model(&models.FriendRequest{}).
		Where("id = ? AND receiver_id = ? AND status = ?", requestID, receiverID, models.FriendRequestPending).
		Updates(map[string]interface{}{"status": to, "updated_at": at})
	return result.RowsAffected, result.Error
}

// InsertFriendship is idempotent on the canonical pair.
func (s *Store) InsertFriendship(ctx context.Context, friendship models.Friendship) error {
	return s.writer(ctx).
		Clauses(clause.OnConflict{DoNothing: true}).
		Create(&friendship).Error
}

// DeleteFriendship removes the accepted request behind the friendship and
// then the friendship itself. It returns the number of friendship rows removed.
//
// Without transactions a failure between the two deletes leaves a friendship
// with no accepted request. ListOrphanedAcceptedRequests never reports that
// state, and a repeated call removes the friendship.
func (s *Store) DeleteFriendship(ctx context.Context, a, b string) (int64, error) {
	low, high := models.CanonicalPair(a, b)
	var removed int64
	err := s.RunInTransaction(ctx, func(ctx context.Context) error {
		err := s.writer(ctx).
			Where("pair_low = ? AND pair_high = ? AND status = ?", low, high, models.FriendRequestAccepted).
			Delete(&models.FriendRequest{}).Error
		if err != nil {
			return err
		}
		result := s.writer(ctx).
			Where("user1_id = ? AND user2_id = ?", low, high).
			Delete(&models.Friendship{})
		removed = result.RowsAffected
		return result.Error
	})
	return removed, err
}

func (s *Store) AreFriends(ctx context.Context, a, b string) (bool, error) {
	low, high := models.CanonicalPair(a, b)
	var count int64
	err := s.reader(ctx).Model(&models.Friendship{}).
		Where("user1_id = ? AND user2_id = ?", low, high).
		Count(&count).Error
	return count > 0, err
}

func (s *Store) ListFriendships(ctx context.Context, userID string) ([]models.Friendship, error) {
	var friendships []models.Friendship
	err := s.reader(ctx).
		Where("user1_id = ? OR user2_id = ?", userID, userID).
		Order("created_at DESC").
		Find(&friendships).Error
	return friendships, err
}

func (s *Store) ListPendingFriendRequests(ctx context.Context, receiverID string) ([]models.FriendRequest, error) {
	var requests []models.FriendRequest
	err := s.reader(ctx).
		Where("receiver_id = ? AND status = ?", receiverID, models.FriendRequestPending).
		Order("created_at DESC").
		Find(&requests).Error
	return requests, err
}

// ListOrphanedAcceptedRequests returns accepted requests with no friendship row.
func (s *Store) ListOrphanedAcceptedRequests(ctx context.Context) ([]models.FriendRequest, error) {
	var requests []models.FriendRequest
	err := s.primary(ctx).
		Table("friend_requests AS fr").
		Select("fr.*").
		Joins("LEFT JOIN friendships f ON f.user1_id = fr.pair_low AND f.user2_id = fr.pair_high").
		Where("fr.status = ? AND f.user1_id IS NULL", models.FriendRequestAccepted).
		Find(&requests).Error
	return requests, err
}
