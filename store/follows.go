package store

import (
	"context"
	"time"

	"fitsocial/models"
)

func (s *Store) GetFollowEdge(ctx context.Context, edgeID string) (*models.FollowEdge, error) {
	var edge models.FollowEdge
	if err := s.primary(ctx).Where("id = ?", edgeID).First(&edge).Error; err != nil {
		return nil, err
	}
	return &edge, nil
}

// FindFollowEdge looks the edge up by its composite identity.
func (s *Store) FindFollowEdge(ctx context.Context, followerID, followedID string) (*models.FollowEdge, error) {
	var edge models.FollowEdge
	err := s.primary(ctx).
		Where("follower_id = ? AND followed_id = ?", followerID, followedID).
		First(&edge).Error
	if err != nil {
		return nil, err
	}
	return &edge, nil
}

// InsertFollowEdge fails with gorm.ErrDuplicatedKey when the ordered pair already has an edge.
func (s *Store) InsertFollowEdge(ctx context.Context, edge *models.FollowEdge) error {
	return s.writer(ctx).Create(edge).Error
}

// UpdateFollowStatus overwrites the status of the existing edge for the pair.
func (s *Store) UpdateFollowStatus(ctx context.Context, followerID, followedID string, status models.FollowStatus, at time.Time) (int64, error) {
	result := s.writer(ctx).Model(&models.FollowEdge{}).
		Where("follower_id = ? AND followed_id = ?", followerID, followedID).
		Updates(map[string]interface{}{"status": status, "updated_at": at})
	return result.RowsAffected, result.Error
}

// AcceptFollowEdge is a conditional pending -> accepted transition; zero rows
// affected means the precondition did not hold.
func (s *Store) AcceptFollowEdge(ctx context.Context, edgeID, followedID string, at time.Time) (int64, error) {
	result := s.writer(ctx).Model(&models.FollowEdge{}).
		Where("id = ? AND followed_id = ? AND status = ?", edgeID, followedID, models.FollowPending).
		Updates(map[string]interface{}{"status": models.FollowAccepted, "updated_at": at})
	return result.RowsAffected, result.Error
}

// RejectFollowEdge deletes a pending edge addressed to followedID.
func (s *Store) RejectFollowEdge(ctx context.Context, edgeID, followedID string) (int64, error) {
	result := s.writer(ctx).
		Where("id = ? AND followed_id = ? AND status = ?", edgeID, followedID, models.FollowPending).
		Delete(&models.FollowEdge{})
	return result.RowsAffected, result.Error
}

func (s *Store) DeleteFollowEdge(ctx context.Context, followerID, followedID string) (int64, error) {
	result := s.writer(ctx).
		Where("follower_id = ? AND followed_id = ?", followerID, followedID).
		Delete(&models.FollowEdge{})
	return result.RowsAffected, result.Error
}

// ListFollowEdges returns every edge touching userID, pending included.
func (s *Store) ListFollowEdges(ctx context.Context, userID string) (followers, following []models.FollowEdge, err error) {
	err = s.reader(ctx).
		Where("followed_id = ?", userID).
		Order("created_at DESC").
		Find(&followers).Error
	if err != nil {
		return nil, nil, err
	}
	err = s.reader(ctx).
		Where("follower_id = ?", userID).
		Order("created_at DESC").
		Find(&following).Error
	if err != nil {
		return nil, nil, err
	}
	return followers, following, nil
}

func (s *Store) ListPendingFollowRequests(ctx context.Context, followedID string) ([]models.FollowEdge, error) {
	var edges []models.FollowEdge
	err := s.reader(ctx).
		Where("followed_id = ? AND status = ?", followedID, models.FollowPending).
		Order("created_at DESC").
		Find(&edges).Error
	return edges, err
}

func (s *Store) HasAcceptedFollow(ctx context.Context, followerID, followedID string) (bool, error) {
	var count int64
	err := s.reader(ctx).Model(&models.FollowEdge{}).
		Where("follower_id = ? AND followed_id = ? AND status = ?", followerID, followedID, models.FollowAccepted).
		Count(&count).Error
	return count > 0, err
}

// ListFollowedIDs returns the followed ids of the viewer's most recent accepted edges.
func (s *Store) ListFollowedIDs(ctx context.Context, followerID string, limit int) ([]string, error) {
	var ids []string
	err := s.reader(ctx).Model(&models.FollowEdge{}).
		Where("follower_id = ? AND status = ?", followerID, models.FollowAccepted).
		Order("created_at DESC").
		Limit(limit).
		Pluck("followed_id", &ids).Error
	return ids, err
}

// CountFollowNotifications counts pending requests to userID plus accepted
// edges to userID created at or after since.
func (s *Store) CountFollowNotifications(ctx context.Context, userID string, since time.Time) (int64, error) {
	var count int64
	err := s.reader(ctx).Model(&models.FollowEdge{}).
		Where("followed_id = ?", userID).
		Where("(status = ? OR (status = ? AND created_at >= ?))", models.FollowPending, models.FollowAccepted, since).
		Count(&count).Error
	return count, err
}
