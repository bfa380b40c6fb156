package store

import (
	"context"
	"errors"
	"fmt"
	"testing"
	"time"

	"fitsocial/db"
	"fitsocial/logger"
	"fitsocial/models"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/gorm"
)

func newTestStore(t *testing.T) *Store {
	t.Helper()
	logger.Nop()
	orm, err := db.OpenSQLite(fmt.Sprintf("file:%s?mode=memory&cache=shared", uuid.NewString()))
	require.NoError(t, err)
	require.NoError(t, db.Migrate(orm))
	t.Cleanup(func() {
		if sqlDB, err := orm.DB(); err == nil {
			sqlDB.Close()
		}
	})
	return New(orm, true)
}

func seedProfiles(t *testing.T, s *Store, ids ...string) {
	t.Helper()
	for _, id := range ids {
		require.NoError(t, s.CreateProfile(context.Background(), &models.UserProfile{UserID: id, Username: id}))
	}
}

func TestProfiles(t *testing.T) {
	s := newTestStore(t)
	ctx := context.Background()
	seedProfiles(t, s, "alice", "bob")

	p, err := s.GetProfile(ctx, "alice")
	require.NoError(t, err)
	assert.False(t, p.PrivateAccount)

	rows, err := s.SetPrivacy(ctx, "alice", true)
	require.NoError(t, err)
	assert.Equal(t, int64(1), rows)
	p, err = s.GetProfile(ctx, "alice")
	require.NoError(t, err)
	assert.True(t, p.PrivateAccount)

	rows, err = s.SetPrivacy(ctx, "nobody", true)
	require.NoError(t, err)
	assert.Zero(t, rows)

	_, err = s.GetProfile(ctx, "nobody")
	assert.True(t, errors.Is(err, gorm.ErrRecordNotFound))

	err = s.CreateProfile(ctx, &models.UserProfile{UserID: "carol", Username: "alice"})
	assert.True(t, errors.Is(err, gorm.ErrDuplicatedKey))

	profiles, err := s.GetProfiles(ctx, []string{"alice", "bob", "nobody"})
	require.NoError(t, err)
	assert.Len(t, profiles, 2)
}

func TestFollowEdgeUniquePerOrderedPair(t *testing.T) {
	s := newTestStore(t)
	ctx := context.Background()
	now := time.Now().UTC()

	edge := &models.FollowEdge{ID: uuid.NewString(), FollowerID: "a", FollowedID: "b", Status: models.FollowPending, CreatedAt: now}
	require.NoError(t, s.InsertFollowEdge(ctx, edge))

	dup := &models.FollowEdge{ID: uuid.NewString(), FollowerID: "a", FollowedID: "b", Status: models.FollowAccepted, CreatedAt: now}
	assert.True(t, errors.Is(s.InsertFollowEdge(ctx, dup), gorm.ErrDuplicatedKey))

	reverse := &models.FollowEdge{ID: uuid.NewString(), FollowerID: "b", FollowedID: "a", Status: models.FollowAccepted, CreatedAt: now}
	assert.NoError(t, s.InsertFollowEdge(ctx, reverse))
}

func TestAcceptFollowEdgeIsConditional(t *testing.T) {
	s := newTestStore(t)
	ctx := context.Background()
	now := time.Now().UTC()
	edge := &models.FollowEdge{ID: uuid.NewString(), FollowerID: "a", FollowedID: "b", Status: models.FollowPending, CreatedAt: now}
	require.NoError(t, s.InsertFollowEdge(ctx, edge))

	rows, err := s.AcceptFollowEdge(ctx, edge.ID, "a", now)
	require.NoError(t, err)
	assert.Zero(t, rows, "only the followed side may accept")

	rows, err = s.AcceptFollowEdge(ctx, edge.ID, "b", now)
	require.NoError(t, err)
	assert.Equal(t, int64(1), rows)

	rows, err = s.AcceptFollowEdge(ctx, edge.ID, "b", now)
	require.NoError(t, err)
	assert.Zero(t, rows, "second accept must lose")

	rows, err = s.RejectFollowEdge(ctx, edge.ID, "b")
	require.NoError(t, err)
	assert.Zero(t, rows, "accepted edges are not rejectable")

	ok, err := s.HasAcceptedFollow(ctx, "a", "b")
	require.NoError(t, err)
	assert.True(t, ok)
}

func TestFriendshipsAreCanonical(t *testing.T) {
	s := newTestStore(t)
	ctx := context.Background()
	now := time.Now().UTC()

	require.NoError(t, s.InsertFriendship(ctx, models.NewFriendship("zed", "amy", now)))
	require.NoError(t, s.InsertFriendship(ctx, models.NewFriendship("amy", "zed", now)), "insert is idempotent")

	var count int64
	require.NoError(t, s.orm.Model(&models.Friendship{}).Count(&count).Error)
	assert.Equal(t, int64(1), count)

	for _, pair := range [][2]string{{"amy", "zed"}, {"zed", "amy"}} {
		ok, err := s.AreFriends(ctx, pair[0], pair[1])
		require.NoError(t, err)
		assert.True(t, ok)
	}

	friendships, err := s.ListFriendships(ctx, "zed")
	require.NoError(t, err)
	require.Len(t, friendships, 1)
	assert.Equal(t, "amy", friendships[0].Other("zed"))

	err = s.orm.Create(&models.Friendship{User1ID: "zed", User2ID: "amy", CreatedAt: now}).Error
	assert.Error(t, err, "non-canonical rows violate the check constraint")
}

func TestFriendRequestPairIsUnordered(t *testing.T) {
	s := newTestStore(t)
	ctx := context.Background()
	now := time.Now().UTC()

	req := &models.FriendRequest{ID: uuid.NewString(), SenderID: "eve", ReceiverID: "frank", Status: models.FriendRequestPending, CreatedAt: now}
	require.NoError(t, s.InsertFriendRequest(ctx, req))

	reverse := &models.FriendRequest{ID: uuid.NewString(), SenderID: "frank", ReceiverID: "eve", Status: models.FriendRequestPending, CreatedAt: now}
	assert.True(t, errors.Is(s.InsertFriendRequest(ctx, reverse), gorm.ErrDuplicatedKey))

	found, err := s.FindFriendRequestByPair(ctx, "frank", "eve")
	require.NoError(t, err)
	assert.Equal(t, req.ID, found.ID)

	rows, err := s.ReopenFriendRequest(ctx, req.ID, "frank", "eve", now)
	require.NoError(t, err)
	assert.Zero(t, rows, "only rejected requests reopen")

	rows, err = s.TransitionFriendRequest(ctx, req.ID, "frank", models.FriendRequestRejected, now)
	require.NoError(t, err)
	assert.Equal(t, int64(1), rows)

	rows, err = s.ReopenFriendRequest(ctx, req.ID, "frank", "eve", now.Add(time.Minute))
	require.NoError(t, err)
	assert.Equal(t, int64(1), rows)

	reopened, err := s.GetFriendRequest(ctx, req.ID)
	require.NoError(t, err)
	assert.Equal(t, "frank", reopened.SenderID)
	assert.Equal(t, "eve", reopened.ReceiverID)
	assert.Equal(t, models.FriendRequestPending, reopened.Status)
}

func TestDeleteFriendshipRemovesAcceptedRequest(t *testing.T) {
	s := newTestStore(t)
	ctx := context.Background()
	now := time.Now().UTC()

	req := &models.FriendRequest{ID: uuid.NewString(), SenderID: "a", ReceiverID: "b", Status: models.FriendRequestAccepted, CreatedAt: now}
	require.NoError(t, s.InsertFriendRequest(ctx, req))
	require.NoError(t, s.InsertFriendship(ctx, models.NewFriendship("a", "b", now)))

	removed, err := s.DeleteFriendship(ctx, "b", "a")
	require.NoError(t, err)
	assert.Equal(t, int64(1), removed)

	_, err = s.GetFriendRequest(ctx, req.ID)
	assert.True(t, errors.Is(err, gorm.ErrRecordNotFound))

	removed, err = s.DeleteFriendship(ctx, "a", "b")
	require.NoError(t, err)
	assert.Zero(t, removed)
}

// failDeletesOn makes every delete against table fail while *enabled is true.
func failDeletesOn(t *testing.T, s *Store, table string, enabled *bool) {
	t.Helper()
	err := s.orm.Callback().Delete().Before("gorm:delete").Register("test:fail_"+table, func(tx *gorm.DB) {
		if *enabled && tx.Statement.Table == table {
			tx.AddError(errors.New("disk full"))
		}
	})
	require.NoError(t, err)
}

func TestDeleteFriendshipPartialFailureLeavesNoOrphan(t *testing.T) {
	for _, table := range []string{"friend_requests", "friendships"} {
		t.Run(table, func(t *testing.T) {
			s := New(newTestStore(t).orm, false)
			ctx := context.Background()
			now := time.Now().UTC()

			req := &models.FriendRequest{ID: uuid.NewString(), SenderID: "a", ReceiverID: "b", Status: models.FriendRequestAccepted, CreatedAt: now}
			require.NoError(t, s.InsertFriendRequest(ctx, req))
			require.NoError(t, s.InsertFriendship(ctx, models.NewFriendship("a", "b", now)))

			failing := true
			failDeletesOn(t, s, table, &failing)

			_, err := s.DeleteFriendship(ctx, "a", "b")
			require.Error(t, err)

			orphans, err := s.ListOrphanedAcceptedRequests(ctx)
			require.NoError(t, err)
			assert.Empty(t, orphans, "a half-done removal must not look like a half-done accept")

			failing = false
			_, err = s.DeleteFriendship(ctx, "a", "b")
			require.NoError(t, err)
			friends, err := s.AreFriends(ctx, "a", "b")
			require.NoError(t, err)
			assert.False(t, friends)
		})
	}
}

func TestListOrphanedAcceptedRequests(t *testing.T) {
	s := newTestStore(t)
	ctx := context.Background()
	now := time.Now().UTC()

	orphan := &models.FriendRequest{ID: uuid.NewString(), SenderID: "a", ReceiverID: "b", Status: models.FriendRequestAccepted, CreatedAt: now}
	healthy := &models.FriendRequest{ID: uuid.NewString(), SenderID: "c", ReceiverID: "d", Status: models.FriendRequestAccepted, CreatedAt: now}
	pending := &models.FriendRequest{ID: uuid.NewString(), SenderID: "e", ReceiverID: "f", Status: models.FriendRequestPending, CreatedAt: now}
	for _, r := range []*models.FriendRequest{orphan, healthy, pending} {
		require.NoError(t, s.InsertFriendRequest(ctx, r))
	}
	require.NoError(t, s.InsertFriendship(ctx, models.NewFriendship("c", "d", now)))

	orphans, err := s.ListOrphanedAcceptedRequests(ctx)
	require.NoError(t, err)
	require.Len(t, orphans, 1)
	assert.Equal(t, orphan.ID, orphans[0].ID)
}

func TestOverlays(t *testing.T) {
	s := newTestStore(t)
	ctx := context.Background()

	hide := &models.ContentOverlay{UserID: "a", Kind: models.KindWorkout, ItemID: "w1", Mode: models.OverlayHidden}
	require.NoError(t, s.AddOverlay(ctx, hide))
	again := &models.ContentOverlay{UserID: "a", Kind: models.KindWorkout, ItemID: "w1", Mode: models.OverlayHidden}
	require.NoError(t, s.AddOverlay(ctx, again), "adding twice is a no-op")
	require.NoError(t, s.AddOverlay(ctx, &models.ContentOverlay{UserID: "a", Kind: models.KindWorkout, ItemID: "w1", Mode: models.OverlayDeleted}))
	require.NoError(t, s.AddOverlay(ctx, &models.ContentOverlay{UserID: "a", Kind: models.KindProgressPicture, ItemID: "w1", Mode: models.OverlayHidden}))

	overlays, err := s.ListOverlays(ctx, "a", models.KindWorkout, []string{"w1", "w2"})
	require.NoError(t, err)
	assert.Len(t, overlays, 2)

	overlays, err = s.ListOverlays(ctx, "a", models.KindWorkout, []string{})
	require.NoError(t, err)
	assert.Empty(t, overlays)

	overlays, err = s.ListOverlays(ctx, "a", models.KindProgressPicture, nil)
	require.NoError(t, err)
	assert.Len(t, overlays, 1)

	rows, err := s.RemoveOverlay(ctx, "a", models.KindWorkout, "w1", models.OverlayHidden)
	require.NoError(t, err)
	assert.Equal(t, int64(1), rows)
}

func TestContentItems(t *testing.T) {
	s := newTestStore(t)
	ctx := context.Background()
	base := time.Now().UTC()

	require.NoError(t, s.CreateWorkout(ctx, &models.Workout{ID: "w1", UserID: "a", Name: "legs", CreatedAt: base}))
	require.NoError(t, s.CreateWorkout(ctx, &models.Workout{ID: "w2", UserID: "a", Name: "push", CreatedAt: base.Add(time.Minute)}))
	require.NoError(t, s.CreateProgressPicture(ctx, &models.ProgressPicture{ID: "p1", UserID: "a", ImageURL: "https://img/1.jpg", CreatedAt: base}))

	item, err := s.GetContentItem(ctx, models.KindProgressPicture, "p1")
	require.NoError(t, err)
	assert.Equal(t, "a", item.OwnerID)
	assert.Equal(t, "https://img/1.jpg", item.Title)

	_, err = s.GetContentItem(ctx, models.KindWorkout, "p1")
	assert.True(t, errors.Is(err, gorm.ErrRecordNotFound))

	items, err := s.ListContent(ctx, "a", models.KindWorkout, 10)
	require.NoError(t, err)
	require.Len(t, items, 2)
	assert.Equal(t, "w2", items[0].ID)

	_, err = s.ListContent(ctx, "a", models.ContentKind("recipe"), 10)
	assert.Error(t, err)
}

func TestListPostsByAuthorsPages(t *testing.T) {
	s := newTestStore(t)
	ctx := context.Background()
	base := time.Date(2024, 1, 1, 12, 0, 0, 0, time.UTC)

	for i := 0; i < 5; i++ {
		require.NoError(t, s.CreatePost(ctx, &models.Post{
			ID:        fmt.Sprintf("post-%d", i),
			UserID:    "a",
			Kind:      models.KindWorkout,
			ItemID:    fmt.Sprintf("w%d", i),
			CreatedAt: base.Add(time.Duration(i) * time.Minute),
		}))
	}
	require.NoError(t, s.CreatePost(ctx, &models.Post{ID: "other", UserID: "z", Kind: models.KindWorkout, ItemID: "wz", CreatedAt: base}))

	page, err := s.ListPostsByAuthors(ctx, []string{"a"}, nil, 3)
	require.NoError(t, err)
	require.Len(t, page, 3)
	assert.Equal(t, []string{"post-4", "post-3", "post-2"}, []string{page[0].ID, page[1].ID, page[2].ID})

	last := page[2]
	page, err = s.ListPostsByAuthors(ctx, []string{"a"}, &FeedCursor{CreatedAt: last.CreatedAt, ID: last.ID}, 3)
	require.NoError(t, err)
	require.Len(t, page, 2)
	assert.Equal(t, "post-1", page[0].ID)
	assert.Equal(t, "post-0", page[1].ID)

	page, err = s.ListPostsByAuthors(ctx, nil, nil, 3)
	require.NoError(t, err)
	assert.Empty(t, page)
}

func TestCountFollowNotifications(t *testing.T) {
	s := newTestStore(t)
	ctx := context.Background()
	now := time.Now().UTC()

	edges := []*models.FollowEdge{
		{FollowerID: "p1", Status: models.FollowPending, CreatedAt: now.Add(-30 * 24 * time.Hour)},
		{FollowerID: "p2", Status: models.FollowPending, CreatedAt: now},
		{FollowerID: "a1", Status: models.FollowAccepted, CreatedAt: now.Add(-time.Hour)},
		{FollowerID: "a2", Status: models.FollowAccepted, CreatedAt: now.Add(-8 * 24 * time.Hour)},
	}
	for _, e := range edges {
		e.ID = uuid.NewString()
		e.FollowedID = "me"
		require.NoError(t, s.InsertFollowEdge(ctx, e))
	}

	count, err := s.CountFollowNotifications(ctx, "me", now.Add(-7*24*time.Hour))
	require.NoError(t, err)
	assert.Equal(t, int64(3), count)

	ids, err := s.ListFollowedIDs(ctx, "a1", 10)
	require.NoError(t, err)
	assert.Equal(t, []string{"me"}, ids)
}

func TestRunInTransactionRollsBack(t *testing.T) {
	s := newTestStore(t)
	ctx := context.Background()
	boom := errors.New("boom")

	err := s.RunInTransaction(ctx, func(ctx context.Context) error {
		require.NoError(t, s.InsertFriendship(ctx, models.NewFriendship("a", "b", time.Now().UTC())))
		return boom
	})
	assert.ErrorIs(t, err, boom)

	ok, err := s.AreFriends(ctx, "a", "b")
	require.NoError(t, err)
	assert.False(t, ok)
}
