package cache

import (
	"context"
	"database/sql"
	"encoding/json"
	"time"

	_ "modernc.org/sqlite"

	"icpscout/pkg/logger"
	"icpscout/pkg/models"
)

// Entity types stored in the cache. The key is (entity type, entity id)
// where the id is the account username or post id.
const (
	EntityProfile   = "profile"
	EntityPosts     = "posts"
	EntityComments  = "comments"
	EntityFollowers = "followers"
)

// IsFresh reports whether a cache entry fetched at fetchedAt is still
// usable at now under the given freshness window. A zero fetch time is
// never fresh.
func IsFresh(fetchedAt, now time.Time, window time.Duration) bool {
	if fetchedAt.IsZero() || window <= 0 {
		return false
	}
	age := now.Sub(fetchedAt)
	return age >= 0 && age < window
}

// Store persists fetched entities in a local SQLite database so that
// repeated runs against the same brand do not spend budget re-fetching
// accounts seen recently.
type Store struct {
	db  *sql.DB
	log logger.Logger
}

// Open opens (creating if necessary) the cache database at path
func Open(path string, log logger.Logger) (*Store, error) {
	db, err := sql.Open("sqlite", path)
	if err != nil {
		return nil, err
	}
	if _, err := db.Exec(`PRAGMA journal_mode=WAL; PRAGMA synchronous=NORMAL;`); err != nil {
		db.Close()
		return nil, err
	}

	s := &Store{db: db, log: log}
	if err := s.migrate(); err != nil {
		db.Close()
		return nil, err
	}
	return s, nil
}

// Close closes the underlying database
func (s *Store) Close() error {
	return s.db.Close()
}

func (s *Store) migrate() error {
	_, err := s.db.Exec(`
	CREATE TABLE IF NOT EXISTS entries (
	  entity_type TEXT NOT NULL,
	  entity_id   TEXT NOT NULL,
	  payload     TEXT NOT NULL,
	  fetched_at  INTEGER NOT NULL,
	  PRIMARY KEY (entity_type, entity_id)
	);
	CREATE INDEX IF NOT EXISTS idx_entries_fetched ON entries(fetched_at);
	`)
	return err
}

// Get returns the raw payload and fetch time for a key. A missing entry
// returns a nil payload and no error.
func (s *Store) Get(ctx context.Context, entityType, entityID string) ([]byte, time.Time, error) {
	var payload []byte
	var fetchedAt int64
	err := s.db.QueryRowContext(ctx,
		`SELECT payload, fetched_at FROM entries WHERE entity_type = ? AND entity_id = ?`,
		entityType, entityID).Scan(&payload, &fetchedAt)
	if err == sql.ErrNoRows {
		return nil, time.Time{}, nil
	}
	if err != nil {
		return nil, time.Time{}, err
	}
	return payload, time.Unix(fetchedAt, 0).UTC(), nil
}

// Put stores a payload for a key, replacing any existing entry
func (s *Store) Put(ctx context.Context, entityType, entityID string, payload []byte, fetchedAt time.Time) error {
	_, err := s.db.ExecContext(ctx,
		`INSERT INTO entries(entity_type, entity_id, payload, fetched_at) VALUES(?,?,?,?)
		 ON CONFLICT(entity_type, entity_id) DO UPDATE SET payload = excluded.payload, fetched_at = excluded.fetched_at`,
		entityType, entityID, payload, fetchedAt.Unix())
	return err
}

// Delete removes an entry. Missing entries are not an error.
func (s *Store) Delete(ctx context.Context, entityType, entityID string) error {
	_, err := s.db.ExecContext(ctx,
		`DELETE FROM entries WHERE entity_type = ? AND entity_id = ?`, entityType, entityID)
	return err
}

// Prune removes every entry older than the freshness window
func (s *Store) Prune(ctx context.Context, now time.Time, window time.Duration) (int64, error) {
	res, err := s.db.ExecContext(ctx,
		`DELETE FROM entries WHERE fetched_at < ?`, now.Add(-window).Unix())
	if err != nil {
		return 0, err
	}
	return res.RowsAffected()
}

// get unmarshals a fresh entry into dst. Stale and missing entries are
// misses. An entry that fails to unmarshal is treated as a miss and the
// row is dropped so the next fetch overwrites it.
func (s *Store) get(ctx context.Context, entityType, entityID string, dst interface{}, now time.Time, window time.Duration) bool {
	payload, fetchedAt, err := s.Get(ctx, entityType, entityID)
	if err != nil {
		if s.log != nil {
			s.log.WarnWithFields("cache read failed", map[string]interface{}{
				"entity_type": entityType,
				"entity_id":   entityID,
				"error":       err.Error(),
			})
		}
		return false
	}
	if payload == nil || !IsFresh(fetchedAt, now, window) {
		return false
	}
	if err := json.Unmarshal(payload, dst); err != nil {
		if s.log != nil {
			s.log.DebugWithFields("dropping corrupt cache entry", map[string]interface{}{
				"entity_type": entityType,
				"entity_id":   entityID,
			})
		}
		_ = s.Delete(ctx, entityType, entityID)
		return false
	}
	return true
}

func (s *Store) put(ctx context.Context, entityType, entityID string, v interface{}, fetchedAt time.Time) error {
	payload, err := json.Marshal(v)
	if err != nil {
		return err
	}
	return s.Put(ctx, entityType, entityID, payload, fetchedAt)
}

// GetProfile returns a fresh cached profile, or ok=false on a miss
func (s *Store) GetProfile(ctx context.Context, username string, now time.Time, window time.Duration) (*models.Profile, bool) {
	var p models.Profile
	if !s.get(ctx, EntityProfile, username, &p, now, window) {
		return nil, false
	}
	return &p, true
}

// PutProfile caches a profile
func (s *Store) PutProfile(ctx context.Context, p *models.Profile, fetchedAt time.Time) error {
	return s.put(ctx, EntityProfile, p.Username, p, fetchedAt)
}

// GetPosts returns fresh cached posts for an account, or ok=false on a miss
func (s *Store) GetPosts(ctx context.Context, username string, now time.Time, window time.Duration) ([]models.Post, bool) {
	var posts []models.Post
	if !s.get(ctx, EntityPosts, username, &posts, now, window) {
		return nil, false
	}
	return posts, true
}

// PutPosts caches an account's recent posts
func (s *Store) PutPosts(ctx context.Context, username string, posts []models.Post, fetchedAt time.Time) error {
	return s.put(ctx, EntityPosts, username, posts, fetchedAt)
}

// GetComments returns fresh cached comments for a post, or ok=false on a miss
func (s *Store) GetComments(ctx context.Context, postID string, now time.Time, window time.Duration) ([]models.Comment, bool) {
	var comments []models.Comment
	if !s.get(ctx, EntityComments, postID, &comments, now, window) {
		return nil, false
	}
	return comments, true
}

// PutComments caches a post's comments
func (s *Store) PutComments(ctx context.Context, postID string, comments []models.Comment, fetchedAt time.Time) error {
	return s.put(ctx, EntityComments, postID, comments, fetchedAt)
}

// GetFollowers returns a fresh cached follower list, or ok=false on a miss
func (s *Store) GetFollowers(ctx context.Context, username string, now time.Time, window time.Duration) ([]string, bool) {
	var followers []string
	if !s.get(ctx, EntityFollowers, username, &followers, now, window) {
		return nil, false
	}
	return followers, true
}

// PutFollowers caches an account's follower usernames
func (s *Store) PutFollowers(ctx context.Context, username string, followers []string, fetchedAt time.Time) error {
	return s.put(ctx, EntityFollowers, username, followers, fetchedAt)
}
