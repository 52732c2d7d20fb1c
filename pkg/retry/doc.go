// Package retry provides exponential backoff and retry logic for transient
// failures when calling the scraping and AI backends.
//
// Features:
//   - Exponential and constant backoff strategies
//   - Jitter to avoid thundering herd problems
//   - Context support for cancellation
//   - Separate backoff tuning for throttling responses
//   - Configurable retry predicates
//
// Basic usage:
//
//	// Simple retry with defaults
//	err := retry.Do(func() error {
//		return client.FetchProfile(ctx, username)
//	}, nil)
//
//	// Custom configuration
//	cfg := &retry.Config{
//		MaxAttempts: 5,
//		Backoff: &retry.ExponentialBackoff{
//			BaseDelay:    2 * time.Second,
//			MaxDelay:     30 * time.Second,
//			Multiplier:   2.0,
//			JitterFactor: 0.1,
//		},
//		RetryIf: retry.DefaultRetryIf,
//		Logger:  logger.GetLogger(),
//	}
//	err := retry.Do(operation, cfg)
//
//	// Fetch-specific retrier with per-failure backoff
//	retrier := retry.NewFetchRetrier(3, logger.GetLogger())
//	err = retrier.Do(ctx, func() error {
//		return client.FetchPosts(ctx, username, 12)
//	})
//
// Only transient fetch failures are retried. Permanent failures, budget
// exhaustion and context cancellation surface immediately.
package retry
