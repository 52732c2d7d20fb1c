// Package ratelimit throttles and budgets paid calls to the scraping backend.
//
// Two independent controls are provided:
//
// Sliding Window:
//   - Tracks admitted call weight within a moving time window
//   - Acquire blocks until room frees up or the context is cancelled
//   - Blocked callers are admitted in arrival order
//
// Budget:
//   - Hard per-run ceiling on total paid calls
//   - Never waits: once spent, every further Spend fails immediately
//
// Gate combines the two. The budget is checked before waiting on the
// window, so an exhausted run fails fast instead of queueing:
//
//	sw := ratelimit.NewSlidingWindow(30, time.Minute)
//	gate := ratelimit.NewGate(sw, ratelimit.NewBudget(200))
//
//	if err := gate.Acquire(ctx, 1); err != nil {
//	    // budget exhausted or ctx cancelled
//	    return err
//	}
//	// Proceed with the paid call
package ratelimit
