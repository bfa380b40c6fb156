package services

import (
	"context"
	"fmt"
	"strings"
	"sync"
	"testing"
	"time"

	"fitsocial/db"
	"fitsocial/logger"
	"fitsocial/models"
	"fitsocial/store"

	"github.com/brianvoe/gofakeit/v6"
	"github.com/google/uuid"
	"github.com/stretchr/testify/require"
)

type recordingPublisher struct {
	mu     sync.Mutex
	events []RelationEvent
	err    error
}

func (p *recordingPublisher) Publish(_ context.Context, event RelationEvent) error {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.events = append(p.events, event)
	return p.err
}

func (p *recordingPublisher) types() []EventType {
	p.mu.Lock()
	defer p.mu.Unlock()
	out := make([]EventType, 0, len(p.events))
	for _, e := range p.events {
		out = append(out, e.Type)
	}
	return out
}

// memoryCache is an in-process FeedSourceCache that records invalidations.
type memoryCache struct {
	mu          sync.Mutex
	entries     map[string][]string
	versions    map[string]int64
	invalidated []string
}

func newMemoryCache() *memoryCache {
	return &memoryCache{entries: map[string][]string{}, versions: map[string]int64{}}
}

func (c *memoryCache) Get(_ context.Context, viewerID string) ([]string, bool) {
	c.mu.Lock()
	defer c.mu.Unlock()
	ids, ok := c.entries[viewerID]
	return ids, ok
}

func (c *memoryCache) Version(_ context.Context, viewerID string) (int64, bool) {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.versions[viewerID], true
}

func (c *memoryCache) Set(_ context.Context, viewerID string, version int64, ids []string) {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.versions[viewerID] != version {
		return
	}
	c.entries[viewerID] = ids
}

func (c *memoryCache) Invalidate(_ context.Context, viewerIDs ...string) {
	c.mu.Lock()
	defer c.mu.Unlock()
	for _, id := range viewerIDs {
		c.versions[id]++
		delete(c.entries, id)
		c.invalidated = append(c.invalidated, id)
	}
}

type testEnv struct {
	store    *store.Store
	events   *recordingPublisher
	cache    *memoryCache
	profiles *ProfileService
	follows  *FollowService
	friends  *FriendService
	resolver *Resolver
	content  *ContentService
	feed     *FeedService
}

func openTestStore(t *testing.T, transactional bool) *store.Store {
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
	return store.New(orm, transactional)
}

func newTestEnv(t *testing.T) *testEnv {
	t.Helper()
	st := openTestStore(t, true)
	env := &testEnv{store: st, events: &recordingPublisher{}, cache: newMemoryCache()}
	env.profiles = NewProfileService(st)
	env.follows = NewFollowService(st, env.events, env.cache)
	env.friends = NewFriendService(st, env.events)
	env.resolver = NewResolver(st)
	env.content = NewContentService(st, env.resolver)
	env.feed = NewFeedService(st, env.resolver, env.cache, DefaultFeedOptions())
	return env
}

// user creates a profile with a fake username and returns its id.
func (e *testEnv) user(t *testing.T, private bool) string {
	t.Helper()
	id := uuid.NewString()
	username := strings.ToLower(gofakeit.Username())
	username = strings.Map(func(r rune) rune {
		if (r >= 'a' && r <= 'z') || (r >= '0' && r <= '9') || r == '_' || r == '.' {
			return r
		}
		return '_'
	}, username)
	if len(username) > 20 {
		username = username[:20]
	}
	username = fmt.Sprintf("%s_%s", username, id[:8])
	_, err := e.profiles.CreateProfile(context.Background(), id, username, private)
	require.NoError(t, err)
	return id
}

func (e *testEnv) item(t *testing.T, owner string, kind models.ContentKind) string {
	t.Helper()
	title := gofakeit.Word()
	if kind == models.KindProgressPicture {
		title = gofakeit.URL()
	}
	item, err := e.content.CreateItem(context.Background(), owner, kind, title, "")
	require.NoError(t, err)
	return item.ID
}

// follow makes follower an accepted follower of followed.
func (e *testEnv) follow(t *testing.T, follower, followed string) {
	t.Helper()
	ctx := context.Background()
	res, err := e.follows.SendFollow(ctx, follower, followed)
	require.NoError(t, err)
	if res.Status == models.FollowPending {
		_, err = e.follows.AcceptFollow(ctx, res.EdgeID, followed)
		require.NoError(t, err)
	}
}

func (e *testEnv) befriend(t *testing.T, a, b string) {
	t.Helper()
	ctx := context.Background()
	req, err := e.friends.SendRequest(ctx, a, b)
	require.NoError(t, err)
	_, err = e.friends.AcceptRequest(ctx, req.ID, b)
	require.NoError(t, err)
}

// clock returns a now func advancing one second per call from start.
func clock(start time.Time) func() time.Time {
	var mu sync.Mutex
	current := start
	return func() time.Time {
		mu.Lock()
		defer mu.Unlock()
		current = current.Add(time.Second)
		return current
	}
}
