package services

import (
	"context"
)

// NotificationCount is the number of pending follow requests addressed to
// viewerID plus accepted follows of viewerID created inside the notification
// window. Nothing is persisted; every call recomputes it.
func (s *FeedService) NotificationCount(ctx context.Context, viewerID string) (int64, error) {
	if err := requireIDs(viewerID); err != nil {
		return 0, err
	}
	since := s.now().Add(-s.opts.NotificationWindow)
	count, err := s.store.CountFollowNotifications(ctx, viewerID, since)
	if err != nil {
		return 0, storeErr("count follow notifications", err)
	}
	return count, nil
}
