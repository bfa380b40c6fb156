package services

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"fitsocial/logger"
	"fitsocial/models"

	"github.com/google/uuid"
	"go.uber.org/zap"
)

type FriendStore interface {
	GetProfiles(ctx context.Context, userIDs []string) ([]models.UserProfile, error)
	GetFriendRequest(ctx context.Context, requestID string) (*models.FriendRequest, error)
	FindFriendRequestByPair(ctx context.Context, a, b string) (*models.FriendRequest, error)
	InsertFriendRequest(ctx context.Context, request *models.FriendRequest) error
	ReopenFriendRequest(ctx context.Context, requestID, senderID, receiverID string, at time.Time) (int64, error)
	TransitionFriendRequest(ctx context.Context, requestID, receiverID string, to models.FriendRequestStatus, at time.Time) (int64, error)
	InsertFriendship(ctx context.Context, friendship models.Friendship) error
	DeleteFriendship(ctx context.Context, a, b string) (int64, error)
	ListFriendships(ctx context.Context, userID string) ([]models.Friendship, error)
	ListPendingFriendRequests(ctx context.Context, receiverID string) ([]models.FriendRequest, error)
	ListOrphanedAcceptedRequests(ctx context.Context) ([]models.FriendRequest, error)
	RunInTransaction(ctx context.Context, fn func(ctx context.Context) error) error
	SupportsTransactions() bool
}

type FriendService struct {
	store  FriendStore
	events EventPublisher
	now    func() time.Time
}

func NewFriendService(store FriendStore, events EventPublisher) *FriendService {
	if events == nil {
		events = NopPublisher{}
	}
	return &FriendService{store: store, events: events, now: utcNow}
}

// SendRequest creates a pending request from sender to receiver. A previously
// rejected request for the pair is reopened in the new direction.
func (s *FriendService) SendRequest(ctx context.Context, senderID, receiverID string) (*models.FriendRequest, error) {
	if err := requireIDs(senderID, receiverID); err != nil {
		return nil, err
	}
	if senderID == receiverID {
		return nil, fmt.Errorf("%w: cannot befriend yourself", ErrValidation)
	}
	if err := s.requireProfiles(ctx, senderID, receiverID); err != nil {
		return nil, err
	}

	now := s.now()
	existing, err := s.store.FindFriendRequestByPair(ctx, senderID, receiverID)
	if err != nil && !isNotFound(err) {
		return nil, storeErr("find friend request", err)
	}

	var request *models.FriendRequest
	if existing == nil {
		request = &models.FriendRequest{
			ID:         uuid.NewString(),
			SenderID:   senderID,
			ReceiverID: receiverID,
			Status:     models.FriendRequestPending,
			CreatedAt:  now,
			UpdatedAt:  now,
		}
		if err := s.store.InsertFriendRequest(ctx, request); err != nil {
			if isDuplicate(err) {
				return nil, ErrAlreadyExists
			}
			return nil, storeErr("insert friend request", err)
		}
	} else {
		switch existing.Status {
		case models.FriendRequestPending:
			return nil, ErrAlreadyExists
		case models.FriendRequestAccepted:
			return nil, ErrAlreadyFriends
		}
		rows, err := s.store.ReopenFriendRequest(ctx, existing.ID, senderID, receiverID, now)
		if err != nil {
			return nil, storeErr("reopen friend request", err)
		}
		if rows == 0 {
			return nil, ErrAlreadyExists
		}
		request = existing
		request.SenderID = senderID
		request.ReceiverID = receiverID
		request.Status = models.FriendRequestPending
		request.CreatedAt = now
		request.UpdatedAt = now
	}

	publishEvent(ctx, s.events, RelationEvent{
		Type:        EventFriendRequestSent,
		RecipientID: receiverID,
		ActorID:     senderID,
		SubjectID:   request.ID,
		CreatedAt:   now,
	})
	return request, nil
}

func (s *FriendService) loadRequestFor(ctx context.Context, requestID, actingUserID string) (*models.FriendRequest, error) {
	if strings.TrimSpace(requestID) == "" {
		return nil, fmt.Errorf("%w: request id must not be empty", ErrValidation)
	}
	if err := requireIDs(actingUserID); err != nil {
		return nil, err
	}
	request, err := s.store.GetFriendRequest(ctx, requestID)
	if err != nil {
		if isNotFound(err) {
			return nil, fmt.Errorf("%w: friend request %s", ErrNotFound, requestID)
		}
		return nil, storeErr("get friend request", err)
	}
	if request.ReceiverID != actingUserID {
		return nil, fmt.Errorf("%w: friend request %s is not addressed to %s", ErrForbidden, requestID, actingUserID)
	}
	return request, nil
}

var errRequestProcessed = fmt.Errorf("%w: friend request already processed", ErrConflict)

// AcceptRequest marks the request accepted and creates the friendship.
// Both writes share one transaction when the store supports it. Otherwise a
// failed friendship insert after the status change is reported as an
// inconsistency and left for ReconcileFriendships.
func (s *FriendService) AcceptRequest(ctx context.Context, requestID, actingUserID string) (*models.Friendship, error) {
	request, err := s.loadRequestFor(ctx, requestID, actingUserID)
	if err != nil {
		return nil, err
	}
	now := s.now()
	friendship := models.NewFriendship(request.SenderID, request.ReceiverID, now)
	transactional := s.store.SupportsTransactions()

	err = s.store.RunInTransaction(ctx, func(ctx context.Context) error {
		rows, err := s.store.TransitionFriendRequest(ctx, requestID, actingUserID, models.FriendRequestAccepted, now)
		if err != nil {
			return storeErr("accept friend request", err)
		}
		if rows == 0 {
			return errRequestProcessed
		}
		if err := s.store.InsertFriendship(ctx, friendship); err != nil {
			if transactional {
				return storeErr("insert friendship", err)
			}
			return fmt.Errorf("friend request %s accepted without friendship: %w: %w", requestID, ErrInconsistency, err)
		}
		return nil
	})
	if err != nil {
		if errors.Is(err, ErrInconsistency) {
			logger.Error("friendship missing after accept",
				zap.String("request_id", requestID),
				zap.String("sender_id", request.SenderID),
				zap.String("receiver_id", request.ReceiverID),
				zap.Error(err))
			return nil, err
		}
		if KindOf(err) == KindInternal {
			return nil, storeErr("accept friend request", err)
		}
		return nil, err
	}

	publishEvent(ctx, s.events, RelationEvent{
		Type:        EventFriendRequestAccepted,
		RecipientID: request.SenderID,
		ActorID:     actingUserID,
		SubjectID:   request.ID,
		CreatedAt:   now,
	})
	return &friendship, nil
}

// RejectRequest marks a pending request rejected; the row stays for reuse.
func (s *FriendService) RejectRequest(ctx context.Context, requestID, actingUserID string) error {
	if _, err := s.loadRequestFor(ctx, requestID, actingUserID); err != nil {
		return err
	}
	rows, err := s.store.TransitionFriendRequest(ctx, requestID, actingUserID, models.FriendRequestRejected, s.now())
	if err != nil {
		return storeErr("reject friend request", err)
	}
	if rows == 0 {
		return errRequestProcessed
	}
	return nil
}

// RemoveFriendship ends the friendship between a and b in either argument
// order. Removing an absent friendship succeeds.
func (s *FriendService) RemoveFriendship(ctx context.Context, a, b string) error {
	if err := requireIDs(a, b); err != nil {
		return err
	}
	if a == b {
		return fmt.Errorf("%w: cannot unfriend yourself", ErrValidation)
	}
	if _, err := s.store.DeleteFriendship(ctx, a, b); err != nil {
		return storeErr("delete friendship", err)
	}
	return nil
}

// ListFriends returns the ids of userID's friends, newest friendship first.
func (s *FriendService) ListFriends(ctx context.Context, userID string) ([]string, error) {
	if err := requireIDs(userID); err != nil {
		return nil, err
	}
	friendships, err := s.store.ListFriendships(ctx, userID)
	if err != nil {
		return nil, storeErr("list friendships", err)
	}
	ids := make([]string, 0, len(friendships))
	for _, f := range friendships {
		ids = append(ids, f.Other(userID))
	}
	return ids, nil
}

func (s *FriendService) PendingRequests(ctx context.Context, userID string) ([]models.FriendRequest, error) {
	if err := requireIDs(userID); err != nil {
		return nil, err
	}
	requests, err := s.store.ListPendingFriendRequests(ctx, userID)
	if err != nil {
		return nil, storeErr("list pending friend requests", err)
	}
	return requests, nil
}

// ReconcileFriendships creates the friendship rows missing behind accepted
// requests and returns how many were repaired.
func (s *FriendService) ReconcileFriendships(ctx context.Context) (int, error) {
	orphans, err := s.store.ListOrphanedAcceptedRequests(ctx)
	if err != nil {
		return 0, storeErr("list orphaned requests", err)
	}
	repaired := 0
	for _, r := range orphans {
		if err := s.store.InsertFriendship(ctx, models.NewFriendship(r.SenderID, r.ReceiverID, r.UpdatedAt)); err != nil {
			return repaired, storeErr("insert friendship", err)
		}
		repaired++
	}
	if repaired > 0 {
		logger.Warn("repaired friendships behind accepted requests", zap.Int("count", repaired))
	}
	return repaired, nil
}

func (s *FriendService) requireProfiles(ctx context.Context, userIDs ...string) error {
	profiles, err := s.store.GetProfiles(ctx, userIDs)
	if err != nil {
		return storeErr("load profiles", err)
	}
	found := make(map[string]bool, len(profiles))
	for _, p := range profiles {
		found[p.UserID] = true
	}
	for _, id := range userIDs {
		if !found[id] {
			return fmt.Errorf("%w: user %s", ErrNotFound, id)
		}
	}
	return nil
}
