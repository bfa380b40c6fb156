package services

import (
	"context"
	"errors"
	"fmt"
	"strconv"
	"strings"
	"time"

	"fitsocial/logger"
	"fitsocial/models"
	"fitsocial/store"

	"go.uber.org/zap"
)

type FeedStore interface {
	ListFollowedIDs(ctx context.Context, followerID string, limit int) ([]string, error)
	ListPostsByAuthors(ctx context.Context, authorIDs []string, cursor *store.FeedCursor, limit int) ([]models.Post, error)
	CountFollowNotifications(ctx context.Context, userID string, since time.Time) (int64, error)
}

// FeedOptions bound the cost of building one feed page.
type FeedOptions struct {
	// SourceLimit caps how many of the most recent accepted follows feed a page.
	SourceLimit     int
	DefaultPageSize int
	MaxPageSize     int
	// NotificationWindow is how far back accepted follows count as notifications.
	NotificationWindow time.Duration
}

func DefaultFeedOptions() FeedOptions {
	return FeedOptions{
		SourceLimit:        500,
		DefaultPageSize:    20,
		MaxPageSize:        100,
		NotificationWindow: 7 * 24 * time.Hour,
	}
}

type FeedService struct {
	store    FeedStore
	resolver *Resolver
	cache    FeedSourceCache
	opts     FeedOptions
	now      func() time.Time
}

func NewFeedService(store FeedStore, resolver *Resolver, cache FeedSourceCache, opts FeedOptions) *FeedService {
	if cache == nil {
		cache = NopFeedSourceCache{}
	}
	defaults := DefaultFeedOptions()
	if opts.SourceLimit <= 0 {
		opts.SourceLimit = defaults.SourceLimit
	}
	if opts.DefaultPageSize <= 0 {
		opts.DefaultPageSize = defaults.DefaultPageSize
	}
	if opts.MaxPageSize <= 0 {
		opts.MaxPageSize = defaults.MaxPageSize
	}
	if opts.NotificationWindow <= 0 {
		opts.NotificationWindow = defaults.NotificationWindow
	}
	return &FeedService{store: store, resolver: resolver, cache: cache, opts: opts, now: utcNow}
}

// EncodeCursor renders the position after post as an opaque page token.
func EncodeCursor(post models.Post) string {
	return strconv.FormatInt(post.CreatedAt.UnixNano(), 10) + "_" + post.ID
}

func DecodeCursor(raw string) (*store.FeedCursor, error) {
	if raw == "" {
		return nil, nil
	}
	nanos, id, ok := strings.Cut(raw, "_")
	if !ok || id == "" {
		return nil, fmt.Errorf("%w: malformed cursor", ErrValidation)
	}
	n, err := strconv.ParseInt(nanos, 10, 64)
	if err != nil {
		return nil, fmt.Errorf("%w: malformed cursor", ErrValidation)
	}
	return &store.FeedCursor{CreatedAt: time.Unix(0, n).UTC(), ID: id}, nil
}

func (s *FeedService) pageSize(limit int) int {
	if limit <= 0 {
		return s.opts.DefaultPageSize
	}
	if limit > s.opts.MaxPageSize {
		return s.opts.MaxPageSize
	}
	return limit
}

// sources returns the viewer plus the followed ids of its most recent accepted edges.
func (s *FeedService) sources(ctx context.Context, viewerID string) ([]string, error) {
	followed, ok := s.cache.Get(ctx, viewerID)
	if !ok {
		version, cacheable := s.cache.Version(ctx, viewerID)
		ids, err := s.store.ListFollowedIDs(ctx, viewerID, s.opts.SourceLimit)
		if err != nil {
			return nil, storeErr("list followed ids", err)
		}
		followed = ids
		if cacheable {
			s.cache.Set(ctx, viewerID, version, followed)
		}
	}
	authors := make([]string, 0, len(followed)+1)
	authors = append(authors, viewerID)
	for _, id := range followed {
		if id != viewerID {
			authors = append(authors, id)
		}
	}
	return authors, nil
}

type postGroup struct {
	owner string
	kind  models.ContentKind
}

// Feed returns one newest-first page of posts by the viewer and the users it
// follows. Posts whose underlying item the viewer may not see are dropped, so
// a page can be shorter than limit while HasMore is still true.
func (s *FeedService) Feed(ctx context.Context, viewerID, cursor string, limit int) (*models.FeedResponse, error) {
	if err := requireIDs(viewerID); err != nil {
		return nil, err
	}
	after, err := DecodeCursor(cursor)
	if err != nil {
		return nil, err
	}
	size := s.pageSize(limit)

	authors, err := s.sources(ctx, viewerID)
	if err != nil {
		return nil, err
	}
	posts, err := s.store.ListPostsByAuthors(ctx, authors, after, size)
	if err != nil {
		return nil, storeErr("list posts", err)
	}

	groups := make(map[postGroup][]string)
	var order []postGroup
	for _, p := range posts {
		g := postGroup{owner: p.UserID, kind: p.Kind}
		if _, seen := groups[g]; !seen {
			order = append(order, g)
		}
		groups[g] = append(groups[g], p.ItemID)
	}

	visible := make(map[postGroup]map[string]bool, len(groups))
	for _, g := range order {
		ids, err := s.resolver.FilterVisible(ctx, viewerID, g.owner, g.kind, groups[g])
		if err != nil {
			if errors.Is(err, ErrNotFound) || errors.Is(err, ErrValidation) {
				logger.Debug("dropping feed posts of unresolvable owner",
					zap.String("owner_id", g.owner),
					zap.String("kind", string(g.kind)),
					zap.Error(err))
				continue
			}
			return nil, err
		}
		set := make(map[string]bool, len(ids))
		for _, id := range ids {
			set[id] = true
		}
		visible[g] = set
	}

	resp := &models.FeedResponse{Posts: make([]models.Post, 0, len(posts))}
	for _, p := range posts {
		if visible[postGroup{owner: p.UserID, kind: p.Kind}][p.ItemID] {
			resp.Posts = append(resp.Posts, p)
		}
	}
	if len(posts) == size {
		resp.HasMore = true
		resp.NextCursor = EncodeCursor(posts[len(posts)-1])
	}
	return resp, nil
}
