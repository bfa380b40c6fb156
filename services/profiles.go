package services

import (
	"context"
	"fmt"
	"regexp"
	"strings"
	"time"

	"fitsocial/logger"
	"fitsocial/models"

	"go.uber.org/zap"
)

var usernamePattern = regexp.MustCompile(`^[A-Za-z0-9_.]{3,30}$`)

type ProfileStore interface {
	CreateProfile(ctx context.Context, profile *models.UserProfile) error
	GetProfile(ctx context.Context, userID string) (*models.UserProfile, error)
	SetPrivacy(ctx context.Context, userID string, private bool) (int64, error)
	GetContentItem(ctx context.Context, kind models.ContentKind, itemID string) (*models.ContentItem, error)
	AddOverlay(ctx context.Context, overlay *models.ContentOverlay) error
	RemoveOverlay(ctx context.Context, ownerID string, kind models.ContentKind, itemID string, mode models.OverlayMode) (int64, error)
}

// ProfileService owns profiles, the privacy flag and the per-owner
// hidden/deleted overlay sets.
type ProfileService struct {
	store ProfileStore
	now   func() time.Time
}

func NewProfileService(store ProfileStore) *ProfileService {
	return &ProfileService{store: store, now: utcNow}
}

func (s *ProfileService) CreateProfile(ctx context.Context, userID, username string, private bool) (*models.UserProfile, error) {
	if err := requireIDs(userID); err != nil {
		return nil, err
	}
	if !usernamePattern.MatchString(username) {
		return nil, fmt.Errorf("%w: username must be 3-30 letters, digits, '_' or '.'", ErrValidation)
	}
	now := s.now()
	profile := &models.UserProfile{
		UserID:         userID,
		Username:       username,
		PrivateAccount: private,
		CreatedAt:      now,
		UpdatedAt:      now,
	}
	if err := s.store.CreateProfile(ctx, profile); err != nil {
		if isDuplicate(err) {
			return nil, fmt.Errorf("%w: profile or username already taken", ErrConflict)
		}
		return nil, storeErr("create profile", err)
	}
	logger.Info("profile created", zap.String("user_id", userID), zap.String("username", username))
	return profile, nil
}

func (s *ProfileService) GetProfile(ctx context.Context, userID string) (*models.UserProfile, error) {
	if err := requireIDs(userID); err != nil {
		return nil, err
	}
	profile, err := s.store.GetProfile(ctx, userID)
	if err != nil {
		if isNotFound(err) {
			return nil, fmt.Errorf("%w: user %s", ErrNotFound, userID)
		}
		return nil, storeErr("get profile", err)
	}
	return profile, nil
}

// SetPrivacy changes the privacy flag. Existing edges keep their status.
func (s *ProfileService) SetPrivacy(ctx context.Context, userID string, private bool) error {
	if err := requireIDs(userID); err != nil {
		return err
	}
	rows, err := s.store.SetPrivacy(ctx, userID, private)
	if err != nil {
		return storeErr("set privacy", err)
	}
	if rows == 0 {
		return fmt.Errorf("%w: user %s", ErrNotFound, userID)
	}
	return nil
}

func (s *ProfileService) ownedItem(ctx context.Context, ownerID string, kind models.ContentKind, itemID string) error {
	if err := requireIDs(ownerID); err != nil {
		return err
	}
	if !kind.Valid() {
		return fmt.Errorf("%w: unknown content kind %q", ErrValidation, kind)
	}
	if strings.TrimSpace(itemID) == "" {
		return fmt.Errorf("%w: item id must not be empty", ErrValidation)
	}
	return requireOwned(ctx, s.store, ownerID, kind, itemID)
}

func (s *ProfileService) addOverlay(ctx context.Context, ownerID string, kind models.ContentKind, itemID string, mode models.OverlayMode) error {
	if err := s.ownedItem(ctx, ownerID, kind, itemID); err != nil {
		return err
	}
	err := s.store.AddOverlay(ctx, &models.ContentOverlay{
		UserID:    ownerID,
		Kind:      kind,
		ItemID:    itemID,
		Mode:      mode,
		CreatedAt: s.now(),
	})
	if err != nil {
		return storeErr("add overlay", err)
	}
	return nil
}

// HideItem hides the item from everyone but its owner.
func (s *ProfileService) HideItem(ctx context.Context, ownerID string, kind models.ContentKind, itemID string) error {
	return s.addOverlay(ctx, ownerID, kind, itemID, models.OverlayHidden)
}

func (s *ProfileService) UnhideItem(ctx context.Context, ownerID string, kind models.ContentKind, itemID string) error {
	if err := s.ownedItem(ctx, ownerID, kind, itemID); err != nil {
		return err
	}
	if _, err := s.store.RemoveOverlay(ctx, ownerID, kind, itemID, models.OverlayHidden); err != nil {
		return storeErr("remove overlay", err)
	}
	return nil
}

// DeleteItem soft-deletes the item for every viewer, the owner included.
// There is no undelete.
func (s *ProfileService) DeleteItem(ctx context.Context, ownerID string, kind models.ContentKind, itemID string) error {
	return s.addOverlay(ctx, ownerID, kind, itemID, models.OverlayDeleted)
}
