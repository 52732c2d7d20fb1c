package pipeline

import (
	"context"
	"time"

	"icpscout/pkg/cache"
	"icpscout/pkg/config"
	"icpscout/pkg/logger"
	"icpscout/pkg/models"
	"icpscout/pkg/ratelimit"
)

// Backend is the slice of the scraping client the pipeline consumes
type Backend interface {
	FetchProfile(ctx context.Context, username string) (*models.Profile, error)
	FetchPosts(ctx context.Context, username string, limit int) ([]models.Post, error)
	FetchComments(ctx context.Context, postID string, limit int) ([]models.Comment, error)
	FetchFollowers(ctx context.Context, username string, limit int) ([]string, error)
	CheckVisibility(ctx context.Context, username string) (models.Visibility, error)
}

// Fetcher is the budgeted, cache-first fetch layer. Every read checks the
// cache before spending; every paid fetch goes through the gate and is
// written back to the cache.
type Fetcher struct {
	backend     Backend
	cache       *cache.Store
	gate        *ratelimit.Gate
	window      time.Duration
	probeWeight int
	clock       func() time.Time
	logger      logger.Logger
}

// NewFetcher creates the fetch layer
func NewFetcher(backend Backend, store *cache.Store, gate *ratelimit.Gate, cfg *config.Config, log logger.Logger) *Fetcher {
	if log == nil {
		log = logger.GetLogger()
	}
	probeWeight := cfg.RateLimit.ProbeWeight
	if probeWeight <= 0 {
		probeWeight = 1
	}
	return &Fetcher{
		backend:     backend,
		cache:       store,
		gate:        gate,
		window:      cfg.Cache.FreshnessWindow,
		probeWeight: probeWeight,
		clock:       time.Now,
		logger:      log,
	}
}

// Gate exposes the underlying budget gate
func (f *Fetcher) Gate() *ratelimit.Gate {
	return f.gate
}

// acquire spends weight at the gate and logs waits long enough to matter
func (f *Fetcher) acquire(ctx context.Context, weight int, entityType string) error {
	start := f.clock()
	if err := f.gate.Acquire(ctx, weight); err != nil {
		return err
	}
	if waited := f.clock().Sub(start); waited > 500*time.Millisecond {
		logger.LogRateLimit(entityType, float64(waited.Milliseconds()))
	}
	return nil
}

func (f *Fetcher) logFetch(id, entityType string, cached bool, err error) {
	fields := map[string]interface{}{
		"entity_id":   id,
		"entity_type": entityType,
		"cached":      cached,
	}
	if err != nil {
		fields["error"] = err.Error()
		f.logger.WarnWithFields("fetch failed", fields)
		return
	}
	f.logger.DebugWithFields("fetch", fields)
}

// CachedProfile returns a fresh cached profile without spending budget
func (f *Fetcher) CachedProfile(ctx context.Context, username string) (*models.Profile, bool) {
	return f.cache.GetProfile(ctx, username, f.clock(), f.window)
}

// Profile returns a profile, from cache when fresh. The cached flag tells
// the caller whether the call was free.
func (f *Fetcher) Profile(ctx context.Context, username string) (*models.Profile, bool, error) {
	now := f.clock()
	if p, ok := f.cache.GetProfile(ctx, username, now, f.window); ok {
		f.logFetch(username, cache.EntityProfile, true, nil)
		return p, true, nil
	}

	if err := f.acquire(ctx, 1, cache.EntityProfile); err != nil {
		return nil, false, err
	}
	p, err := f.backend.FetchProfile(ctx, username)
	f.logFetch(username, cache.EntityProfile, false, err)
	if err != nil {
		return nil, false, err
	}

	if err := f.cache.PutProfile(ctx, p, f.clock()); err != nil {
		f.logger.WarnWithFields("failed to cache profile", map[string]interface{}{
			"username": username,
			"error":    err.Error(),
		})
	}
	return p, false, nil
}

// Posts returns an account's recent posts, from cache when fresh
func (f *Fetcher) Posts(ctx context.Context, username string, limit int) ([]models.Post, bool, error) {
	now := f.clock()
	if posts, ok := f.cache.GetPosts(ctx, username, now, f.window); ok {
		f.logFetch(username, cache.EntityPosts, true, nil)
		return posts, true, nil
	}

	if err := f.acquire(ctx, 1, cache.EntityPosts); err != nil {
		return nil, false, err
	}
	posts, err := f.backend.FetchPosts(ctx, username, limit)
	f.logFetch(username, cache.EntityPosts, false, err)
	if err != nil {
		return nil, false, err
	}

	if err := f.cache.PutPosts(ctx, username, posts, f.clock()); err != nil {
		f.logger.WarnWithFields("failed to cache posts", map[string]interface{}{
			"username": username,
			"error":    err.Error(),
		})
	}
	return posts, false, nil
}

// Comments returns a post's comments, from cache when fresh
func (f *Fetcher) Comments(ctx context.Context, postID string, limit int) ([]models.Comment, bool, error) {
	now := f.clock()
	if comments, ok := f.cache.GetComments(ctx, postID, now, f.window); ok {
		f.logFetch(postID, cache.EntityComments, true, nil)
		return comments, true, nil
	}

	if err := f.acquire(ctx, 1, cache.EntityComments); err != nil {
		return nil, false, err
	}
	comments, err := f.backend.FetchComments(ctx, postID, limit)
	f.logFetch(postID, cache.EntityComments, false, err)
	if err != nil {
		return nil, false, err
	}

	if err := f.cache.PutComments(ctx, postID, comments, f.clock()); err != nil {
		f.logger.WarnWithFields("failed to cache comments", map[string]interface{}{
			"post_id": postID,
			"error":   err.Error(),
		})
	}
	return comments, false, nil
}

// Followers returns an account's follower usernames, from cache when fresh
func (f *Fetcher) Followers(ctx context.Context, username string, limit int) ([]string, bool, error) {
	now := f.clock()
	if followers, ok := f.cache.GetFollowers(ctx, username, now, f.window); ok {
		f.logFetch(username, cache.EntityFollowers, true, nil)
		return followers, true, nil
	}

	if err := f.acquire(ctx, 1, cache.EntityFollowers); err != nil {
		return nil, false, err
	}
	followers, err := f.backend.FetchFollowers(ctx, username, limit)
	f.logFetch(username, cache.EntityFollowers, false, err)
	if err != nil {
		return nil, false, err
	}

	if err := f.cache.PutFollowers(ctx, username, followers, f.clock()); err != nil {
		f.logger.WarnWithFields("failed to cache followers", map[string]interface{}{
			"username": username,
			"error":    err.Error(),
		})
	}
	return followers, false, nil
}

// ProbeVisibility decides whether an account's content is viewable. A
// fresh cached profile decides for free: backend-flagged business accounts
// are treated as public even when marked private, an unset private flag is
// public, and the rest are private. Without cached data a cheap posts
// probe is spent at the probe weight.
func (f *Fetcher) ProbeVisibility(ctx context.Context, username string) (models.Visibility, error) {
	if p, ok := f.cache.GetProfile(ctx, username, f.clock(), f.window); ok {
		return VisibilityFromProfile(p), nil
	}

	if err := f.acquire(ctx, f.probeWeight, cache.EntityPosts); err != nil {
		return models.VisibilityUnknown, err
	}
	return f.backend.CheckVisibility(ctx, username)
}

// VisibilityFromProfile derives visibility from profile flags
func VisibilityFromProfile(p *models.Profile) models.Visibility {
	if p.IsBusinessAccount {
		return models.VisibilityPublic
	}
	if !p.IsPrivate {
		return models.VisibilityPublic
	}
	return models.VisibilityPrivate
}
