package services

import (
	"context"
	"sync"
	"testing"

	"fitsocial/models"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const racers = 8

// race runs fn from n goroutines at once and collects the errors.
func race(n int, fn func() error) []error {
	var (
		wg    sync.WaitGroup
		start = make(chan struct{})
		errs  = make([]error, n)
	)
	for i := 0; i < n; i++ {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			<-start
			errs[i] = fn()
		}(i)
	}
	close(start)
	wg.Wait()
	return errs
}

// winners counts nil errors; every other error must be one of allowed.
func winners(t *testing.T, errs []error, allowed ...ErrorKind) int {
	t.Helper()
	won := 0
	for _, err := range errs {
		if err == nil {
			won++
			continue
		}
		assert.Contains(t, allowed, KindOf(err), err.Error())
	}
	return won
}

func TestConcurrentFriendAcceptsHaveOneWinner(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()
	a := env.user(t, false)
	b := env.user(t, false)
	req, err := env.friends.SendRequest(ctx, a, b)
	require.NoError(t, err)

	errs := race(racers, func() error {
		_, err := env.friends.AcceptRequest(ctx, req.ID, b)
		return err
	})
	assert.Equal(t, 1, winners(t, errs, KindConflict))

	friends, err := env.store.ListFriendships(ctx, a)
	require.NoError(t, err)
	assert.Len(t, friends, 1)
}

func TestConcurrentFollowAcceptsHaveOneWinner(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()
	owner := env.user(t, true)
	follower := env.user(t, false)
	res, err := env.follows.SendFollow(ctx, follower, owner)
	require.NoError(t, err)
	require.Equal(t, models.FollowPending, res.Status)

	errs := race(racers, func() error {
		_, err := env.follows.AcceptFollow(ctx, res.EdgeID, owner)
		return err
	})
	assert.Equal(t, 1, winners(t, errs, KindConflict))

	rel, err := env.follows.ListRelationships(ctx, owner)
	require.NoError(t, err)
	assert.Equal(t, []string{follower}, rel.Followers)
	assert.Len(t, rel.FollowerEdges, 1)
}

func TestFriendAcceptRacingRejectHasOneWinner(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()

	for i := 0; i < 5; i++ {
		a := env.user(t, false)
		b := env.user(t, false)
		req, err := env.friends.SendRequest(ctx, a, b)
		require.NoError(t, err)

		var acceptErr, rejectErr error
		var wg sync.WaitGroup
		wg.Add(2)
		go func() {
			defer wg.Done()
			_, acceptErr = env.friends.AcceptRequest(ctx, req.ID, b)
		}()
		go func() {
			defer wg.Done()
			rejectErr = env.friends.RejectRequest(ctx, req.ID, b)
		}()
		wg.Wait()

		require.Equal(t, 1, winners(t, []error{acceptErr, rejectErr}, KindConflict))
		friends, err := env.store.AreFriends(ctx, a, b)
		require.NoError(t, err)
		assert.Equal(t, acceptErr == nil, friends, "friendship exists only if accept won")

		stored, err := env.store.GetFriendRequest(ctx, req.ID)
		require.NoError(t, err)
		if acceptErr == nil {
			assert.Equal(t, models.FriendRequestAccepted, stored.Status)
		} else {
			assert.Equal(t, models.FriendRequestRejected, stored.Status)
		}
	}
}

func TestFollowAcceptRacingRejectHasOneWinner(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()

	for i := 0; i < 5; i++ {
		owner := env.user(t, true)
		follower := env.user(t, false)
		res, err := env.follows.SendFollow(ctx, follower, owner)
		require.NoError(t, err)

		var acceptErr, rejectErr error
		var wg sync.WaitGroup
		wg.Add(2)
		go func() {
			defer wg.Done()
			_, acceptErr = env.follows.AcceptFollow(ctx, res.EdgeID, owner)
		}()
		go func() {
			defer wg.Done()
			rejectErr = env.follows.RejectFollow(ctx, res.EdgeID, owner)
		}()
		wg.Wait()

		// a rejected edge is deleted, so a late accept sees it as gone
		require.Equal(t, 1, winners(t, []error{acceptErr, rejectErr}, KindConflict, KindNotFound))
		follows, err := env.store.HasAcceptedFollow(ctx, follower, owner)
		require.NoError(t, err)
		assert.Equal(t, acceptErr == nil, follows)
	}
}

func TestConcurrentSendFollowKeepsOneEdge(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()
	follower := env.user(t, false)
	target := env.user(t, true)

	var mu sync.Mutex
	edgeIDs := map[string]bool{}
	errs := race(racers, func() error {
		res, err := env.follows.SendFollow(ctx, follower, target)
		if err == nil {
			mu.Lock()
			edgeIDs[res.EdgeID] = true
			mu.Unlock()
		}
		return err
	})
	assert.Equal(t, racers, winners(t, errs), "every resend succeeds")
	assert.Len(t, edgeIDs, 1, "all callers see the same edge")

	pending, err := env.follows.PendingRequests(ctx, target)
	require.NoError(t, err)
	require.Len(t, pending, 1)
	assert.True(t, edgeIDs[pending[0].ID])
}
