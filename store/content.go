package store

import (
	"context"
	"fmt"
	"time"

	"fitsocial/models"

	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

// AddOverlay puts itemID into the owner's hidden or deleted set; repeat adds are no-ops.
func (s *Store) AddOverlay(ctx context.Context, overlay *models.ContentOverlay) error {
	return s.writer(ctx).
		Clauses(clause.OnConflict{DoNothing: true}).
		Create(overlay).Error
}

func (s *Store) RemoveOverlay(ctx context.Context, ownerID string, kind models.ContentKind, itemID string, mode models.OverlayMode) (int64, error) {
	result := s.writer(ctx).
		Where("user_id = ? AND kind = ? AND item_id = ? AND mode = ?", ownerID, kind, itemID, mode).
		Delete(&models.ContentOverlay{})
	return result.RowsAffected, result.Error
}

// ListOverlays returns the owner's overlay rows for kind restricted to itemIDs.
// A nil itemIDs returns every overlay of the kind.
func (s *Store) ListOverlays(ctx context.Context, ownerID string, kind models.ContentKind, itemIDs []string) ([]models.ContentOverlay, error) {
	var overlays []models.ContentOverlay
	query := s.reader(ctx).Where("user_id = ? AND kind = ?", ownerID, kind)
	if itemIDs != nil {
		if len(itemIDs) == 0 {
			return overlays, nil
		}
		query = query.Where("item_id IN ?", itemIDs)
	}
	err := query.Find(&overlays).Error
	return overlays, err
}

func contentTable(kind models.ContentKind) (string, string, error) {
	switch kind {
	case models.KindWorkoutTemplate:
		return "workout_templates", "name", nil
	case models.KindWorkout:
		return "workouts", "name", nil
	case models.KindProgressPicture:
		return "progress_pictures", "image_url", nil
	}
	return "", "", fmt.Errorf("unknown content kind %q", kind)
}

type contentRow struct {
	ID        string
	UserID    string
	Title     string
	CreatedAt time.Time
}

func (r contentRow) item(kind models.ContentKind) models.ContentItem {
	return models.ContentItem{ID: r.ID, OwnerID: r.UserID, Kind: kind, Title: r.Title, CreatedAt: r.CreatedAt}
}

// GetContentItem loads one content row of the given kind.
func (s *Store) GetContentItem(ctx context.Context, kind models.ContentKind, itemID string) (*models.ContentItem, error) {
	table, titleCol, err := contentTable(kind)
	if err != nil {
		return nil, err
	}
	var rows []contentRow
	err = s.primary(ctx).Table(table).
		Select(fmt.Sprintf("id, user_id, %s AS title, created_at", titleCol)).
		Where("id = ?", itemID).
		Limit(1).
		Scan(&rows).Error
	if err != nil {
		return nil, err
	}
	if len(rows) == 0 {
		return nil, gorm.ErrRecordNotFound
	}
	item := rows[0].item(kind)
	return &item, nil
}

// ListContent returns the owner's raw rows of one kind, newest first.
func (s *Store) ListContent(ctx context.Context, ownerID string, kind models.ContentKind, limit int) ([]models.ContentItem, error) {
	table, titleCol, err := contentTable(kind)
	if err != nil {
		return nil, err
	}
	var rows []contentRow
	err = s.reader(ctx).Table(table).
		Select(fmt.Sprintf("id, user_id, %s AS title, created_at", titleCol)).
		Where("user_id = ?", ownerID).
		Order("created_at DESC, id DESC").
		Limit(limit).
		Scan(&rows).Error
	if err != nil {
		return nil, err
	}
	items := make([]models.ContentItem, 0, len(rows))
	for _, r := range rows {
		items = append(items, r.item(kind))
	}
	return items, nil
}

func (s *Store) CreateWorkoutTemplate(ctx context.Context, template *models.WorkoutTemplate) error {
	return s.writer(ctx).Create(template).Error
}

func (s *Store) CreateWorkout(ctx context.Context, workout *models.Workout) error {
	return s.writer(ctx).Create(workout).Error
}

func (s *Store) CreateProgressPicture(ctx context.Context, picture *models.ProgressPicture) error {
	return s.writer(ctx).Create(picture).Error
}

func (s *Store) CreatePost(ctx context.Context, post *models.Post) error {
	return s.writer(ctx).Create(post).Error
}

func (s *Store) DeletePost(ctx context.Context, postID, ownerID string) (int64, error) {
	result := s.writer(ctx).
		Where("id = ? AND user_id = ?", postID, ownerID).
		Delete(&models.Post{})
	return result.RowsAffected, result.Error
}

func (s *Store) GetPost(ctx context.Context, postID string) (*models.Post, error) {
	var post models.Post
	if err := s.primary(ctx).Where("id = ?", postID).First(&post).Error; err != nil {
		return nil, err
	}
	return &post, nil
}

// FeedCursor positions a page strictly after (CreatedAt, ID) in newest-first order.
type FeedCursor struct {
	CreatedAt time.Time
	ID        string
}

// ListPostsByAuthors pages posts by any of authorIDs, newest first.
func (s *Store) ListPostsByAuthors(ctx context.Context, authorIDs []string, cursor *FeedCursor, limit int) ([]models.Post, error) {
	var posts []models.Post
	if len(authorIDs) == 0 {
		return posts, nil
	}
	query := s.reader(ctx).
		Where("user_id IN ?", authorIDs).
		Order("created_at DESC, id DESC").
		Limit(limit)
	if cursor != nil {
		query = query.Where("(created_at < ? OR (created_at = ? AND id < ?))", cursor.CreatedAt, cursor.CreatedAt, cursor.ID)
	}
	err := query.Find(&posts).Error
	return posts, err
}
