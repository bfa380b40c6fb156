package services

import (
	"context"
	"fmt"
	"strings"
	"time"

	"fitsocial/models"

	"github.com/google/uuid"
)

const maxContentListing = 200

type ContentStore interface {
	GetContentItem(ctx context.Context, kind models.ContentKind, itemID string) (*models.ContentItem, error)
	ListContent(ctx context.Context, ownerID string, kind models.ContentKind, limit int) ([]models.ContentItem, error)
	CreateWorkoutTemplate(ctx context.Context, template *models.WorkoutTemplate) error
	CreateWorkout(ctx context.Context, workout *models.Workout) error
	CreateProgressPicture(ctx context.Context, picture *models.ProgressPicture) error
	CreatePost(ctx context.Context, post *models.Post) error
	GetPost(ctx context.Context, postID string) (*models.Post, error)
	DeletePost(ctx context.Context, postID, ownerID string) (int64, error)
}

// ContentService serves content rows through the visibility resolver.
type ContentService struct {
	store    ContentStore
	resolver *Resolver
	now      func() time.Time
}

func NewContentService(store ContentStore, resolver *Resolver) *ContentService {
	return &ContentService{store: store, resolver: resolver, now: utcNow}
}

// ListContent returns the owner's items of kind that viewerID may see, newest first.
func (s *ContentService) ListContent(ctx context.Context, viewerID, ownerID string, kind models.ContentKind, limit int) ([]models.ContentItem, error) {
	if err := requireIDs(viewerID, ownerID); err != nil {
		return nil, err
	}
	if !kind.Valid() {
		return nil, fmt.Errorf("%w: unknown content kind %q", ErrValidation, kind)
	}
	if limit <= 0 || limit > maxContentListing {
		limit = maxContentListing
	}
	items, err := s.store.ListContent(ctx, ownerID, kind, limit)
	if err != nil {
		return nil, storeErr("list content", err)
	}
	if len(items) == 0 {
		// still reports an unknown owner
		if _, err := s.resolver.loadOwner(ctx, ownerID); err != nil {
			return nil, err
		}
		return items, nil
	}
	return s.resolver.FilterItems(ctx, viewerID, ownerID, kind, items)
}

// CreateItem records a content row for ownerID. title is the template or
// workout name, or the picture URL.
func (s *ContentService) CreateItem(ctx context.Context, ownerID string, kind models.ContentKind, title, templateID string) (*models.ContentItem, error) {
	if err := requireIDs(ownerID); err != nil {
		return nil, err
	}
	title = strings.TrimSpace(title)
	if title == "" {
		return nil, fmt.Errorf("%w: title must not be empty", ErrValidation)
	}
	if _, err := s.resolver.loadOwner(ctx, ownerID); err != nil {
		return nil, err
	}
	item := models.ContentItem{ID: uuid.NewString(), OwnerID: ownerID, Kind: kind, Title: title, CreatedAt: s.now()}

	var err error
	switch kind {
	case models.KindWorkoutTemplate:
		err = s.store.CreateWorkoutTemplate(ctx, &models.WorkoutTemplate{ID: item.ID, UserID: ownerID, Name: title, CreatedAt: item.CreatedAt})
	case models.KindWorkout:
		workout := &models.Workout{ID: item.ID, UserID: ownerID, Name: title, CreatedAt: item.CreatedAt}
		if templateID != "" {
			if err := requireOwned(ctx, s.store, ownerID, models.KindWorkoutTemplate, templateID); err != nil {
				return nil, err
			}
			workout.TemplateID = &templateID
		}
		err = s.store.CreateWorkout(ctx, workout)
	case models.KindProgressPicture:
		err = s.store.CreateProgressPicture(ctx, &models.ProgressPicture{ID: item.ID, UserID: ownerID, ImageURL: title, CreatedAt: item.CreatedAt})
	default:
		return nil, fmt.Errorf("%w: unknown content kind %q", ErrValidation, kind)
	}
	if err != nil {
		return nil, storeErr("create content item", err)
	}
	return &item, nil
}

type contentGetter interface {
	GetContentItem(ctx context.Context, kind models.ContentKind, itemID string) (*models.ContentItem, error)
}

// requireOwned checks that itemID of kind exists and belongs to ownerID.
func requireOwned(ctx context.Context, store contentGetter, ownerID string, kind models.ContentKind, itemID string) error {
	item, err := store.GetContentItem(ctx, kind, itemID)
	if err != nil {
		if isNotFound(err) {
			return fmt.Errorf("%w: %s %s", ErrNotFound, kind, itemID)
		}
		return storeErr("get content item", err)
	}
	if item.OwnerID != ownerID {
		return fmt.Errorf("%w: %s %s belongs to another user", ErrForbidden, kind, itemID)
	}
	return nil
}

// CreatePost publishes one of the owner's workouts or progress pictures to the feed.
func (s *ContentService) CreatePost(ctx context.Context, ownerID string, kind models.ContentKind, itemID, caption string) (*models.Post, error) {
	if err := requireIDs(ownerID); err != nil {
		return nil, err
	}
	if !kind.Postable() {
		return nil, fmt.Errorf("%w: posts wrap a workout or a progress picture", ErrValidation)
	}
	if strings.TrimSpace(itemID) == "" {
		return nil, fmt.Errorf("%w: item id must not be empty", ErrValidation)
	}
	if err := requireOwned(ctx, s.store, ownerID, kind, itemID); err != nil {
		return nil, err
	}
	post := &models.Post{
		ID:        uuid.NewString(),
		UserID:    ownerID,
		Kind:      kind,
		ItemID:    itemID,
		Caption:   caption,
		CreatedAt: s.now(),
	}
	if err := s.store.CreatePost(ctx, post); err != nil {
		return nil, storeErr("create post", err)
	}
	return post, nil
}

func (s *ContentService) DeletePost(ctx context.Context, ownerID, postID string) error {
	if err := requireIDs(ownerID); err != nil {
		return err
	}
	post, err := s.store.GetPost(ctx, postID)
	if err != nil {
		if isNotFound(err) {
			return fmt.Errorf("%w: post %s", ErrNotFound, postID)
		}
		return storeErr("get post", err)
	}
	if post.UserID != ownerID {
		return fmt.Errorf("%w: post %s belongs to another user", ErrForbidden, postID)
	}
	if _, err := s.store.DeletePost(ctx, postID, ownerID); err != nil {
		return storeErr("delete post", err)
	}
	return nil
}
