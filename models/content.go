package models

import "time"

// ContentKind names a content type that carries hidden/deleted overlays.
type ContentKind string

const (
	KindWorkoutTemplate ContentKind = "workout_template"
	KindWorkout         ContentKind = "workout"
	KindProgressPicture ContentKind = "progress_picture"
)

func (k ContentKind) Valid() bool {
	switch k {
	case KindWorkoutTemplate, KindWorkout, KindProgressPicture:
		return true
	}
	return false
}

// Postable reports whether a post may wrap an item of this kind.
func (k ContentKind) Postable() bool {
	return k == KindWorkout || k == KindProgressPicture
}

type OverlayMode string

const (
	OverlayHidden  OverlayMode = "hidden"
	OverlayDeleted OverlayMode = "deleted"
)

// ContentOverlay is one member of a per-owner overlay set. Hidden and deleted
// are independent rows, so an item can be in both sets.
type ContentOverlay struct {
	ID        int64       `gorm:"primaryKey;autoIncrement" json:"id"`
	UserID    string      `gorm:"size:64;not null;uniqueIndex:idx_content_overlays_item,priority:1" json:"user_id"`
	Kind      ContentKind `gorm:"type:varchar(32);not null;uniqueIndex:idx_content_overlays_item,priority:2" json:"kind"`
	ItemID    string      `gorm:"size:36;not null;uniqueIndex:idx_content_overlays_item,priority:3" json:"item_id"`
	Mode      OverlayMode `gorm:"type:varchar(16);not null;uniqueIndex:idx_content_overlays_item,priority:4" json:"mode"`
	CreatedAt time.Time   `json:"created_at"`
}

func (ContentOverlay) TableName() string {
	return "content_overlays"
}

type WorkoutTemplate struct {
	ID        string    `gorm:"primaryKey;size:36" json:"id"`
	UserID    string    `gorm:"size:64;not null;index" json:"user_id"`
	Name      string    `gorm:"size:255;not null" json:"name"`
	CreatedAt time.Time `json:"created_at"`
}

func (WorkoutTemplate) TableName() string {
	return "workout_templates"
}

type Workout struct {
	ID         string    `gorm:"primaryKey;size:36" json:"id"`
	UserID     string    `gorm:"size:64;not null;index" json:"user_id"`
	TemplateID *string   `gorm:"size:36" json:"template_id,omitempty"`
	Name       string    `gorm:"size:255;not null" json:"name"`
	CreatedAt  time.Time `json:"created_at"`
}

func (Workout) TableName() string {
	return "workouts"
}

type ProgressPicture struct {
	ID        string    `gorm:"primaryKey;size:36" json:"id"`
	UserID    string    `gorm:"size:64;not null;index" json:"user_id"`
	ImageURL  string    `gorm:"size:512;not null" json:"image_url"`
	CreatedAt time.Time `json:"created_at"`
}

func (ProgressPicture) TableName() string {
	return "progress_pictures"
}

// ContentItem is the kind-independent projection the resolver filters.
type ContentItem struct {
	ID        string      `json:"id"`
	OwnerID   string      `json:"owner_id"`
	Kind      ContentKind `json:"kind"`
	Title     string      `json:"title"`
	CreatedAt time.Time   `json:"created_at"`
}
