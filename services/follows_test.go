package services

import (
	"context"
	"errors"
	"testing"

	"fitsocial/models"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestSendFollowStatusDependsOnPrivacy(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()
	follower := env.user(t, false)
	public := env.user(t, false)
	private := env.user(t, true)

	res, err := env.follows.SendFollow(ctx, follower, public)
	require.NoError(t, err)
	assert.Equal(t, models.FollowAccepted, res.Status)
	assert.False(t, res.Resent)

	res, err = env.follows.SendFollow(ctx, follower, private)
	require.NoError(t, err)
	assert.Equal(t, models.FollowPending, res.Status)

	assert.Equal(t, []EventType{EventFollowed, EventFollowRequested}, env.events.types())
	assert.Contains(t, env.cache.invalidated, follower)
}

func TestSendFollowValidation(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()
	a := env.user(t, false)

	_, err := env.follows.SendFollow(ctx, a, a)
	assert.Equal(t, KindValidation, KindOf(err))

	_, err = env.follows.SendFollow(ctx, "", a)
	assert.Equal(t, KindValidation, KindOf(err))

	_, err = env.follows.SendFollow(ctx, a, "missing")
	assert.Equal(t, KindNotFound, KindOf(err))
}

func TestResendOverwritesExistingEdge(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()
	follower := env.user(t, false)
	target := env.user(t, false)

	first, err := env.follows.SendFollow(ctx, follower, target)
	require.NoError(t, err)
	require.Equal(t, models.FollowAccepted, first.Status)

	require.NoError(t, env.profiles.SetPrivacy(ctx, target, true))

	// re-sending to a now private target demotes the accepted edge to pending
	second, err := env.follows.SendFollow(ctx, follower, target)
	require.NoError(t, err)
	assert.True(t, second.Resent)
	assert.Equal(t, first.EdgeID, second.EdgeID)
	assert.Equal(t, models.FollowPending, second.Status)

	rel, err := env.follows.ListRelationships(ctx, target)
	require.NoError(t, err)
	assert.Len(t, rel.FollowerEdges, 1, "one edge per ordered pair")
	assert.Empty(t, rel.Followers)
}

func TestPrivateAccountFollowWorkflow(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()
	carol := env.user(t, true)
	dave := env.user(t, false)
	picture := env.item(t, carol, models.KindProgressPicture)

	res, err := env.follows.SendFollow(ctx, dave, carol)
	require.NoError(t, err)
	require.Equal(t, models.FollowPending, res.Status)

	visible, err := env.resolver.CanView(ctx, dave, carol, models.KindProgressPicture, picture)
	require.NoError(t, err)
	assert.False(t, visible, "pending follow grants nothing")

	pending, err := env.follows.PendingRequests(ctx, carol)
	require.NoError(t, err)
	require.Len(t, pending, 1)
	assert.Equal(t, res.EdgeID, pending[0].ID)

	_, err = env.follows.AcceptFollow(ctx, res.EdgeID, dave)
	assert.Equal(t, KindForbidden, KindOf(err), "follower cannot accept its own request")

	edge, err := env.follows.AcceptFollow(ctx, res.EdgeID, carol)
	require.NoError(t, err)
	assert.Equal(t, models.FollowAccepted, edge.Status)

	visible, err = env.resolver.CanView(ctx, dave, carol, models.KindProgressPicture, picture)
	require.NoError(t, err)
	assert.True(t, visible)

	_, err = env.follows.AcceptFollow(ctx, res.EdgeID, carol)
	assert.Equal(t, KindConflict, KindOf(err), "second accept observes already processed")

	assert.Contains(t, env.events.types(), EventFollowAccepted)
}

func TestAcceptUnknownEdge(t *testing.T) {
	env := newTestEnv(t)
	carol := env.user(t, true)

	_, err := env.follows.AcceptFollow(context.Background(), "no-such-edge", carol)
	assert.True(t, errors.Is(err, ErrNotFound))

	err = env.follows.RejectFollow(context.Background(), "", carol)
	assert.True(t, errors.Is(err, ErrValidation))
}

func TestRejectFollowDeletesPendingEdge(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()
	owner := env.user(t, true)
	follower := env.user(t, false)

	res, err := env.follows.SendFollow(ctx, follower, owner)
	require.NoError(t, err)

	err = env.follows.RejectFollow(ctx, res.EdgeID, follower)
	assert.Equal(t, KindForbidden, KindOf(err))

	require.NoError(t, env.follows.RejectFollow(ctx, res.EdgeID, owner))

	_, err = env.follows.AcceptFollow(ctx, res.EdgeID, owner)
	assert.Equal(t, KindNotFound, KindOf(err), "rejected edges are gone")

	again, err := env.follows.SendFollow(ctx, follower, owner)
	require.NoError(t, err)
	assert.False(t, again.Resent)
	assert.NotEqual(t, res.EdgeID, again.EdgeID)
}

func TestUnfollowIsIdempotent(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()
	a := env.user(t, false)
	b := env.user(t, false)

	require.NoError(t, env.follows.Unfollow(ctx, a, b), "absent edge")

	env.follow(t, a, b)
	require.NoError(t, env.follows.Unfollow(ctx, a, b))
	require.NoError(t, env.follows.Unfollow(ctx, a, b))

	rel, err := env.follows.ListRelationships(ctx, a)
	require.NoError(t, err)
	assert.Empty(t, rel.Following)

	assert.Equal(t, KindValidation, KindOf(env.follows.Unfollow(ctx, a, a)))
}

func TestListRelationships(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()
	me := env.user(t, true)
	fan := env.user(t, false)
	asker := env.user(t, false)
	idol := env.user(t, false)

	env.follow(t, fan, me)
	_, err := env.follows.SendFollow(ctx, asker, me)
	require.NoError(t, err)
	env.follow(t, me, idol)

	rel, err := env.follows.ListRelationships(ctx, me)
	require.NoError(t, err)
	assert.Equal(t, []string{fan}, rel.Followers)
	assert.Equal(t, []string{idol}, rel.Following)
	assert.Len(t, rel.FollowerEdges, 2)

	_, err = env.follows.ListRelationships(ctx, "ghost")
	assert.Equal(t, KindNotFound, KindOf(err))
}

func TestPublishFailureDoesNotFailFollow(t *testing.T) {
	env := newTestEnv(t)
	env.events.err = errors.New("broker down")
	a := env.user(t, false)
	b := env.user(t, false)

	_, err := env.follows.SendFollow(context.Background(), a, b)
	assert.NoError(t, err)
}
