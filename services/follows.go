package services

import (
	"context"
	"fmt"
	"strings"
	"time"

	"fitsocial/logger"
	"fitsocial/models"

	"github.com/google/uuid"
	"go.uber.org/zap"
)

type FollowStore interface {
	GetProfiles(ctx context.Context, userIDs []string) ([]models.UserProfile, error)
	GetFollowEdge(ctx context.Context, edgeID string) (*models.FollowEdge, error)
	FindFollowEdge(ctx context.Context, followerID, followedID string) (*models.FollowEdge, error)
	InsertFollowEdge(ctx context.Context, edge *models.FollowEdge) error
	UpdateFollowStatus(ctx context.Context, followerID, followedID string, status models.FollowStatus, at time.Time) (int64, error)
	AcceptFollowEdge(ctx context.Context, edgeID, followedID string, at time.Time) (int64, error)
	RejectFollowEdge(ctx context.Context, edgeID, followedID string) (int64, error)
	DeleteFollowEdge(ctx context.Context, followerID, followedID string) (int64, error)
	ListFollowEdges(ctx context.Context, userID string) (followers, following []models.FollowEdge, err error)
	ListPendingFollowRequests(ctx context.Context, followedID string) ([]models.FollowEdge, error)
}

// FollowResult - outcome of a follow request
type FollowResult struct {
	EdgeID string              `json:"edge_id"`
	Status models.FollowStatus `json:"status"`
	// Resent is true when an existing edge was overwritten instead of created.
	Resent bool `json:"resent"`
}

// Relationships - follow edges around one user
type Relationships struct {
	Followers      []string            `json:"followers"`
	Following      []string            `json:"following"`
	FollowerEdges  []models.FollowEdge `json:"follower_edges"`
	FollowingEdges []models.FollowEdge `json:"following_edges"`
}

type FollowService struct {
	store  FollowStore
	events EventPublisher
	cache  FeedSourceCache
	now    func() time.Time
}

func NewFollowService(store FollowStore, events EventPublisher, cache FeedSourceCache) *FollowService {
	if events == nil {
		events = NopPublisher{}
	}
	if cache == nil {
		cache = NopFeedSourceCache{}
	}
	return &FollowService{store: store, events: events, cache: cache, now: utcNow}
}

func utcNow() time.Time { return time.Now().UTC() }

func requireIDs(ids ...string) error {
	for _, id := range ids {
		if strings.TrimSpace(id) == "" {
			return fmt.Errorf("%w: user id must not be empty", ErrValidation)
		}
	}
	return nil
}

// SendFollow creates or overwrites the follower -> followed edge. The status is
// accepted for public targets and pending for private ones.
func (s *FollowService) SendFollow(ctx context.Context, followerID, followedID string) (*FollowResult, error) {
	if err := requireIDs(followerID, followedID); err != nil {
		return nil, err
	}
	if followerID == followedID {
		return nil, fmt.Errorf("%w: cannot follow yourself", ErrValidation)
	}

	profiles, err := s.store.GetProfiles(ctx, []string{followerID, followedID})
	if err != nil {
		return nil, storeErr("load profiles", err)
	}
	var target *models.UserProfile
	followerExists := false
	for i := range profiles {
		switch profiles[i].UserID {
		case followedID:
			target = &profiles[i]
		case followerID:
			followerExists = true
		}
	}
	if !followerExists {
		return nil, fmt.Errorf("%w: user %s", ErrNotFound, followerID)
	}
	if target == nil {
		return nil, fmt.Errorf("%w: user %s", ErrNotFound, followedID)
	}

	status := models.FollowAccepted
	if target.PrivateAccount {
		status = models.FollowPending
	}
	now := s.now()

	result, err := s.upsertEdge(ctx, followerID, followedID, status, now)
	if err != nil {
		return nil, err
	}

	s.cache.Invalidate(ctx, followerID)

	eventType := EventFollowed
	if status == models.FollowPending {
		eventType = EventFollowRequested
	}
	publishEvent(ctx, s.events, RelationEvent{
		Type:        eventType,
		RecipientID: followedID,
		ActorID:     followerID,
		SubjectID:   result.EdgeID,
		CreatedAt:   now,
	})

	logger.Debug("follow edge written",
		zap.String("follower_id", followerID),
		zap.String("followed_id", followedID),
		zap.String("status", string(status)),
		zap.Bool("resent", result.Resent))
	return result, nil
}

// upsertEdge keeps one edge per ordered pair: an existing edge gets its status
// overwritten, otherwise a new one is inserted. A concurrent insert that wins
// the unique index turns this call into an overwrite.
func (s *FollowService) upsertEdge(ctx context.Context, followerID, followedID string, status models.FollowStatus, now time.Time) (*FollowResult, error) {
	existing, err := s.store.FindFollowEdge(ctx, followerID, followedID)
	if err != nil && !isNotFound(err) {
		return nil, storeErr("find follow edge", err)
	}
	if existing != nil {
		rows, err := s.store.UpdateFollowStatus(ctx, followerID, followedID, status, now)
		if err != nil {
			return nil, storeErr("update follow edge", err)
		}
		if rows > 0 {
			return &FollowResult{EdgeID: existing.ID, Status: status, Resent: true}, nil
		}
		// the edge vanished between the read and the write
	}

	edge := &models.FollowEdge{
		ID:         uuid.NewString(),
		FollowerID: followerID,
		FollowedID: followedID,
		Status:     status,
		CreatedAt:  now,
		UpdatedAt:  now,
	}
	err = s.store.InsertFollowEdge(ctx, edge)
	if err == nil {
		return &FollowResult{EdgeID: edge.ID, Status: status}, nil
	}
	if !isDuplicate(err) {
		return nil, storeErr("insert follow edge", err)
	}

	if _, err := s.store.UpdateFollowStatus(ctx, followerID, followedID, status, now); err != nil {
		return nil, storeErr("update follow edge", err)
	}
	winner, err := s.store.FindFollowEdge(ctx, followerID, followedID)
	if err != nil {
		return nil, storeErr("find follow edge", err)
	}
	return &FollowResult{EdgeID: winner.ID, Status: status, Resent: true}, nil
}

// loadEdgeFor returns the edge if actingUserID is its followed party.
func (s *FollowService) loadEdgeFor(ctx context.Context, edgeID, actingUserID string) (*models.FollowEdge, error) {
	if strings.TrimSpace(edgeID) == "" {
		return nil, fmt.Errorf("%w: edge id must not be empty", ErrValidation)
	}
	if err := requireIDs(actingUserID); err != nil {
		return nil, err
	}
	edge, err := s.store.GetFollowEdge(ctx, edgeID)
	if err != nil {
		if isNotFound(err) {
			return nil, fmt.Errorf("%w: follow request %s", ErrNotFound, edgeID)
		}
		return nil, storeErr("get follow edge", err)
	}
	if edge.FollowedID != actingUserID {
		return nil, fmt.Errorf("%w: follow request %s is not addressed to %s", ErrForbidden, edgeID, actingUserID)
	}
	return edge, nil
}

// AcceptFollow moves a pending edge to accepted. Only the followed user may do it.
func (s *FollowService) AcceptFollow(ctx context.Context, edgeID, actingUserID string) (*models.FollowEdge, error) {
	edge, err := s.loadEdgeFor(ctx, edgeID, actingUserID)
	if err != nil {
		return nil, err
	}
	now := s.now()
	rows, err := s.store.AcceptFollowEdge(ctx, edgeID, actingUserID, now)
	if err != nil {
		return nil, storeErr("accept follow edge", err)
	}
	if rows == 0 {
		return nil, fmt.Errorf("%w: follow request %s already processed", ErrConflict, edgeID)
	}
	edge.Status = models.FollowAccepted
	edge.UpdatedAt = now

	s.cache.Invalidate(ctx, edge.FollowerID)
	publishEvent(ctx, s.events, RelationEvent{
		Type:        EventFollowAccepted,
		RecipientID: edge.FollowerID,
		ActorID:     actingUserID,
		SubjectID:   edge.ID,
		CreatedAt:   now,
	})
	return edge, nil
}

// RejectFollow deletes a pending edge. Only the followed user may do it.
func (s *FollowService) RejectFollow(ctx context.Context, edgeID, actingUserID string) error {
	edge, err := s.loadEdgeFor(ctx, edgeID, actingUserID)
	if err != nil {
		return err
	}
	rows, err := s.store.RejectFollowEdge(ctx, edgeID, actingUserID)
	if err != nil {
		return storeErr("reject follow edge", err)
	}
	if rows == 0 {
		return fmt.Errorf("%w: follow request %s already processed", ErrConflict, edgeID)
	}
	s.cache.Invalidate(ctx, edge.FollowerID)
	return nil
}

// Unfollow removes the follower -> followed edge in any status. Removing an
// absent edge succeeds.
func (s *FollowService) Unfollow(ctx context.Context, followerID, followedID string) error {
	if err := requireIDs(followerID, followedID); err != nil {
		return err
	}
	if followerID == followedID {
		return fmt.Errorf("%w: cannot unfollow yourself", ErrValidation)
	}
	rows, err := s.store.DeleteFollowEdge(ctx, followerID, followedID)
	if err != nil {
		return storeErr("delete follow edge", err)
	}
	s.cache.Invalidate(ctx, followerID)
	if rows == 0 {
		logger.Debug("unfollow of absent edge",
			zap.String("follower_id", followerID),
			zap.String("followed_id", followedID))
	}
	return nil
}

func (s *FollowService) ListRelationships(ctx context.Context, userID string) (*Relationships, error) {
	if err := s.requireProfile(ctx, userID); err != nil {
		return nil, err
	}
	followers, following, err := s.store.ListFollowEdges(ctx, userID)
	if err != nil {
		return nil, storeErr("list follow edges", err)
	}
	rel := &Relationships{
		Followers:      []string{},
		Following:      []string{},
		FollowerEdges:  followers,
		FollowingEdges: following,
	}
	for _, e := range followers {
		if e.Status == models.FollowAccepted {
			rel.Followers = append(rel.Followers, e.FollowerID)
		}
	}
	for _, e := range following {
		if e.Status == models.FollowAccepted {
			rel.Following = append(rel.Following, e.FollowedID)
		}
	}
	return rel, nil
}

// PendingRequests lists pending follow requests addressed to userID.
func (s *FollowService) PendingRequests(ctx context.Context, userID string) ([]models.FollowEdge, error) {
	if err := requireIDs(userID); err != nil {
		return nil, err
	}
	edges, err := s.store.ListPendingFollowRequests(ctx, userID)
	if err != nil {
		return nil, storeErr("list pending follow requests", err)
	}
	return edges, nil
}

func (s *FollowService) requireProfile(ctx context.Context, userID string) error {
	if err := requireIDs(userID); err != nil {
		return err
	}
	profiles, err := s.store.GetProfiles(ctx, []string{userID})
	if err != nil {
		return storeErr("load profiles", err)
	}
	if len(profiles) == 0 {
		return fmt.Errorf("%w: user %s", ErrNotFound, userID)
	}
	return nil
}
