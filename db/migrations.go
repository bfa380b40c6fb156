package db

import (
	"fmt"

	"fitsocial/models"

	"gorm.io/gorm"
)

// Migrate creates the relationship and content tables plus the indexes the
// feed and notification queries lean on.
func Migrate(database *gorm.DB) error {
	err := database.AutoMigrate(
		&models.UserProfile{},
		&models.ContentOverlay{},
		&models.FollowEdge{},
		&models.FriendRequest{},
		&models.Friendship{},
		&models.WorkoutTemplate{},
		&models.Workout{},
		&models.ProgressPicture{},
		&models.Post{},
	)
	if err != nil {
		return fmt.Errorf("failed to migrate: %w", err)
	}

	indexes := []struct {
		name  string
		table string
		cols  string
	}{
		// notification count: followed_id + status + created_at window
		{"idx_follow_edges_followed_status_created", "follow_edges", "followed_id, status, created_at"},
		// feed pagination tie-break
		{"idx_posts_created_id", "posts", "created_at, id"},
		{"idx_workouts_user_created", "workouts", "user_id, created_at"},
		{"idx_progress_pictures_user_created", "progress_pictures", "user_id, created_at"},
	}
	for _, idx := range indexes {
		createIndexSQL := fmt.Sprintf(`CREATE INDEX IF NOT EXISTS %s ON %s (%s);`, idx.name, idx.table, idx.cols)
		if err := database.Exec(createIndexSQL).Error; err != nil {
			return fmt.Errorf("failed to create index %s: %w", idx.name, err)
		}
	}
	return nil
}
