// Package cache persists fetched profiles, posts, comments and follower
// lists in a local SQLite database.
//
// Every paid fetch from the scraping backend is written through the cache,
// and every read goes cache-first. An entry is served only while it is
// fresh under the configured window; stale, missing and unreadable entries
// all behave as misses, so a corrupt row can never poison a run.
package cache
