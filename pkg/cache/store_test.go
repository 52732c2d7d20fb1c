package cache

import (
	"context"
	"path/filepath"
	"testing"
	"time"

	"icpscout/pkg/models"
)

func newTestStore(t *testing.T) *Store {
	t.Helper()

	s, err := Open(filepath.Join(t.TempDir(), "cache.db"), nil)
	if err != nil {
		t.Fatalf("Failed to open cache: %v", err)
	}
	t.Cleanup(func() { s.Close() })
	return s
}

func TestIsFresh(t *testing.T) {
	now := time.Date(2024, 6, 15, 12, 0, 0, 0, time.UTC)
	window := 24 * time.Hour

	tests := []struct {
		name      string
		fetchedAt time.Time
		want      bool
	}{
		{"just fetched", now, true},
		{"one hour old", now.Add(-time.Hour), true},
		{"just inside window", now.Add(-window + time.Second), true},
		{"exactly at window", now.Add(-window), false},
		{"25 hours old", now.Add(-25 * time.Hour), false},
		{"zero fetch time", time.Time{}, false},
		{"fetched in the future", now.Add(time.Hour), false},
	}

	for _, test := range tests {
		t.Run(test.name, func(t *testing.T) {
			if got := IsFresh(test.fetchedAt, now, window); got != test.want {
				t.Errorf("IsFresh(%v) = %v, want %v", test.fetchedAt, got, test.want)
			}
		})
	}

	if IsFresh(now, now, 0) {
		t.Error("Expected zero window to never be fresh")
	}
}

func TestProfileRoundTrip(t *testing.T) {
	s := newTestStore(t)
	ctx := context.Background()
	now := time.Now()

	profile := &models.Profile{
		Username:       "sourdough_sam",
		Biography:      "home baker, sharing my weekend loaves",
		FollowersCount: 412,
		PostsCount:     87,
	}

	if err := s.PutProfile(ctx, profile, now); err != nil {
		t.Fatalf("Failed to cache profile: %v", err)
	}

	got, ok := s.GetProfile(ctx, "sourdough_sam", now, 24*time.Hour)
	if !ok {
		t.Fatal("Expected a cache hit")
	}
	if got.Username != profile.Username || got.FollowersCount != profile.FollowersCount {
		t.Errorf("Cached profile mismatch: got %+v", got)
	}
}

func TestMissingEntryIsMiss(t *testing.T) {
	s := newTestStore(t)

	if _, ok := s.GetProfile(context.Background(), "nobody", time.Now(), 24*time.Hour); ok {
		t.Error("Expected a miss for an account never cached")
	}
}

func TestStaleEntryIsMiss(t *testing.T) {
	s := newTestStore(t)
	ctx := context.Background()
	now := time.Now()

	profile := &models.Profile{Username: "old_account"}
	if err := s.PutProfile(ctx, profile, now.Add(-25*time.Hour)); err != nil {
		t.Fatalf("Failed to cache profile: %v", err)
	}

	if _, ok := s.GetProfile(ctx, "old_account", now, 24*time.Hour); ok {
		t.Error("Expected a 25 hour old entry to be stale under a 24 hour window")
	}

	// A wider window serves the same entry.
	if _, ok := s.GetProfile(ctx, "old_account", now, 48*time.Hour); !ok {
		t.Error("Expected the entry to be fresh under a 48 hour window")
	}
}

func TestCorruptEntryIsMiss(t *testing.T) {
	s := newTestStore(t)
	ctx := context.Background()
	now := time.Now()

	if err := s.Put(ctx, EntityProfile, "garbled", []byte("{not json"), now); err != nil {
		t.Fatalf("Failed to write entry: %v", err)
	}

	if _, ok := s.GetProfile(ctx, "garbled", now, 24*time.Hour); ok {
		t.Fatal("Expected a corrupt entry to behave as a miss")
	}

	// The corrupt row is dropped so a later fetch can overwrite it.
	payload, _, err := s.Get(ctx, EntityProfile, "garbled")
	if err != nil {
		t.Fatalf("Unexpected error: %v", err)
	}
	if payload != nil {
		t.Error("Expected the corrupt row to be deleted")
	}
}

func TestPutReplacesExisting(t *testing.T) {
	s := newTestStore(t)
	ctx := context.Background()
	now := time.Now()

	if err := s.PutProfile(ctx, &models.Profile{Username: "sam", FollowersCount: 10}, now.Add(-time.Hour)); err != nil {
		t.Fatalf("Failed to cache profile: %v", err)
	}
	if err := s.PutProfile(ctx, &models.Profile{Username: "sam", FollowersCount: 22}, now); err != nil {
		t.Fatalf("Failed to overwrite profile: %v", err)
	}

	got, ok := s.GetProfile(ctx, "sam", now, 24*time.Hour)
	if !ok {
		t.Fatal("Expected a cache hit")
	}
	if got.FollowersCount != 22 {
		t.Errorf("Expected the newer entry, got followers = %d", got.FollowersCount)
	}
}

func TestPostsAndCommentsRoundTrip(t *testing.T) {
	s := newTestStore(t)
	ctx := context.Background()
	now := time.Now()

	posts := []models.Post{
		{ID: "p1", Shortcode: "abc", LikesCount: 40, CommentsCount: 3},
		{ID: "p2", Shortcode: "def", LikesCount: 11},
	}
	if err := s.PutPosts(ctx, "brandco", posts, now); err != nil {
		t.Fatalf("Failed to cache posts: %v", err)
	}

	gotPosts, ok := s.GetPosts(ctx, "brandco", now, time.Hour)
	if !ok || len(gotPosts) != 2 {
		t.Fatalf("Expected 2 cached posts, got %d (hit=%v)", len(gotPosts), ok)
	}

	comments := []models.Comment{
		{ID: "c1", PostID: "p1", OwnerUsername: "fan_one", Text: "love this recipe, trying it this weekend"},
	}
	if err := s.PutComments(ctx, "p1", comments, now); err != nil {
		t.Fatalf("Failed to cache comments: %v", err)
	}

	gotComments, ok := s.GetComments(ctx, "p1", now, time.Hour)
	if !ok || len(gotComments) != 1 {
		t.Fatalf("Expected 1 cached comment, got %d (hit=%v)", len(gotComments), ok)
	}
	if gotComments[0].OwnerUsername != "fan_one" {
		t.Errorf("Comment owner mismatch: %s", gotComments[0].OwnerUsername)
	}
}

func TestFollowersRoundTrip(t *testing.T) {
	s := newTestStore(t)
	ctx := context.Background()
	now := time.Now()

	if err := s.PutFollowers(ctx, "brandco", []string{"fan_one", "fan_two"}, now); err != nil {
		t.Fatalf("Failed to cache followers: %v", err)
	}

	got, ok := s.GetFollowers(ctx, "brandco", now, time.Hour)
	if !ok {
		t.Fatal("Expected a cache hit")
	}
	if len(got) != 2 || got[0] != "fan_one" {
		t.Errorf("Follower list mismatch: %v", got)
	}
}

func TestPrune(t *testing.T) {
	s := newTestStore(t)
	ctx := context.Background()
	now := time.Now()

	if err := s.PutProfile(ctx, &models.Profile{Username: "fresh"}, now); err != nil {
		t.Fatalf("Failed to cache profile: %v", err)
	}
	if err := s.PutProfile(ctx, &models.Profile{Username: "stale"}, now.Add(-48*time.Hour)); err != nil {
		t.Fatalf("Failed to cache profile: %v", err)
	}

	removed, err := s.Prune(ctx, now, 24*time.Hour)
	if err != nil {
		t.Fatalf("Prune failed: %v", err)
	}
	if removed != 1 {
		t.Errorf("Expected 1 pruned entry, got %d", removed)
	}

	if _, ok := s.GetProfile(ctx, "fresh", now, 24*time.Hour); !ok {
		t.Error("Expected the fresh entry to survive pruning")
	}
}
