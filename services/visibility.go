package services

import (
	"context"
	"fmt"
	"strings"

	"fitsocial/models"
)

type VisibilityStore interface {
	GetProfile(ctx context.Context, userID string) (*models.UserProfile, error)
	AreFriends(ctx context.Context, a, b string) (bool, error)
	HasAcceptedFollow(ctx context.Context, followerID, followedID string) (bool, error)
	ListOverlays(ctx context.Context, ownerID string, kind models.ContentKind, itemIDs []string) ([]models.ContentOverlay, error)
}

// Relationship - how a viewer stands towards a content owner
type Relationship string

const (
	RelationSelf             Relationship = "self"
	RelationFriend           Relationship = "friend"
	RelationAcceptedFollower Relationship = "accepted-follower"
	RelationNone             Relationship = "none"
)

// Verdict - relationship plus the access it grants to non-hidden content
type Verdict struct {
	Relationship   Relationship `json:"relationship"`
	PrivateAccount bool         `json:"private_account"`
	CanViewContent bool         `json:"can_view_content"`
}

// Resolver decides what a viewer may see of an owner's content.
//
// Deleted items are invisible to everyone. The owner sees everything else.
// Other viewers see non-hidden items of public owners, and of private owners
// they are friends with or follow with an accepted edge.
type Resolver struct {
	store VisibilityStore
}

func NewResolver(store VisibilityStore) *Resolver {
	return &Resolver{store: store}
}

func (r *Resolver) loadOwner(ctx context.Context, ownerID string) (*models.UserProfile, error) {
	owner, err := r.store.GetProfile(ctx, ownerID)
	if err != nil {
		if isNotFound(err) {
			return nil, fmt.Errorf("%w: user %s", ErrNotFound, ownerID)
		}
		return nil, storeErr("get profile", err)
	}
	return owner, nil
}

// relationship checks friendship before an accepted follow.
func (r *Resolver) relationship(ctx context.Context, viewerID, ownerID string) (Relationship, error) {
	if viewerID == ownerID {
		return RelationSelf, nil
	}
	friends, err := r.store.AreFriends(ctx, viewerID, ownerID)
	if err != nil {
		return "", storeErr("check friendship", err)
	}
	if friends {
		return RelationFriend, nil
	}
	follows, err := r.store.HasAcceptedFollow(ctx, viewerID, ownerID)
	if err != nil {
		return "", storeErr("check follow", err)
	}
	if follows {
		return RelationAcceptedFollower, nil
	}
	return RelationNone, nil
}

// ResolveRelationship returns the viewer's relationship to the owner and
// whether it grants access to the owner's non-hidden content.
func (r *Resolver) ResolveRelationship(ctx context.Context, viewerID, ownerID string) (*Verdict, error) {
	if err := requireIDs(viewerID, ownerID); err != nil {
		return nil, err
	}
	owner, err := r.loadOwner(ctx, ownerID)
	if err != nil {
		return nil, err
	}
	rel, err := r.relationship(ctx, viewerID, ownerID)
	if err != nil {
		return nil, err
	}
	return &Verdict{
		Relationship:   rel,
		PrivateAccount: owner.PrivateAccount,
		CanViewContent: !owner.PrivateAccount || rel != RelationNone,
	}, nil
}

// CanView decides visibility of a single item.
func (r *Resolver) CanView(ctx context.Context, viewerID, ownerID string, kind models.ContentKind, itemID string) (bool, error) {
	if strings.TrimSpace(itemID) == "" {
		return false, fmt.Errorf("%w: item id must not be empty", ErrValidation)
	}
	visible, err := r.FilterVisible(ctx, viewerID, ownerID, kind, []string{itemID})
	if err != nil {
		return false, err
	}
	return len(visible) == 1, nil
}

// FilterVisible returns the subset of itemIDs the viewer may see, in input
// order. The relationship is resolved once and overlays are loaded in one
// query for the whole batch.
func (r *Resolver) FilterVisible(ctx context.Context, viewerID, ownerID string, kind models.ContentKind, itemIDs []string) ([]string, error) {
	if err := requireIDs(viewerID, ownerID); err != nil {
		return nil, err
	}
	if !kind.Valid() {
		return nil, fmt.Errorf("%w: unknown content kind %q", ErrValidation, kind)
	}
	visible := make([]string, 0, len(itemIDs))
	if len(itemIDs) == 0 {
		return visible, nil
	}

	owner, err := r.loadOwner(ctx, ownerID)
	if err != nil {
		return nil, err
	}
	isOwner := viewerID == ownerID
	granted := isOwner || !owner.PrivateAccount
	if !granted {
		rel, err := r.relationship(ctx, viewerID, ownerID)
		if err != nil {
			return nil, err
		}
		granted = rel != RelationNone
	}

	overlays, err := r.store.ListOverlays(ctx, ownerID, kind, itemIDs)
	if err != nil {
		return nil, storeErr("list overlays", err)
	}
	hidden := make(map[string]bool)
	deleted := make(map[string]bool)
	for _, o := range overlays {
		switch o.Mode {
		case models.OverlayHidden:
			hidden[o.ItemID] = true
		case models.OverlayDeleted:
			deleted[o.ItemID] = true
		}
	}

	for _, id := range itemIDs {
		switch {
		case deleted[id]:
		case isOwner:
			visible = append(visible, id)
		case !granted, hidden[id]:
		default:
			visible = append(visible, id)
		}
	}
	return visible, nil
}

// FilterItems applies FilterVisible to content rows of one owner and kind.
func (r *Resolver) FilterItems(ctx context.Context, viewerID, ownerID string, kind models.ContentKind, items []models.ContentItem) ([]models.ContentItem, error) {
	ids := make([]string, 0, len(items))
	for _, it := range items {
		ids = append(ids, it.ID)
	}
	visibleIDs, err := r.FilterVisible(ctx, viewerID, ownerID, kind, ids)
	if err != nil {
		return nil, err
	}
	keep := make(map[string]bool, len(visibleIDs))
	for _, id := range visibleIDs {
		keep[id] = true
	}
	out := make([]models.ContentItem, 0, len(visibleIDs))
	for _, it := range items {
		if keep[it.ID] {
			out = append(out, it)
		}
	}
	return out, nil
}
