package store

import (
	"context"

	"fitsocial/models"
)

func (s *Store) CreateProfile(ctx context.Context, profile *models.UserProfile) error {
	return s.writer(ctx).Create(profile).Error
}

func (s *Store) GetProfile(ctx context.Context, userID string) (*models.UserProfile, error) {
	var profile models.UserProfile
	err := s.reader(ctx).Where("user_id = ?", userID).First(&profile).Error
	if err != nil {
		return nil, err
	}
	return &profile, nil
}

// GetProfiles returns the profiles that exist among userIDs, in no particular order.
func (s *Store) GetProfiles(ctx context.Context, userIDs []string) ([]models.UserProfile, error) {
	var profiles []models.UserProfile
	if len(userIDs) == 0 {
		return profiles, nil
	}
	err := s.reader(ctx).Where("user_id IN ?", userIDs).Find(&profiles).Error
	return profiles, err
}

func (s *Store) SetPrivacy(ctx context.Context, userID string, private bool) (int64, error) {
	result := s.writer(ctx).Model(&models.UserProfile{}).
		Where("user_id = ?", userID).
		Update("private_account", private)
	return result.RowsAffected, result.Error
}
