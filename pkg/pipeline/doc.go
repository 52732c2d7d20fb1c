// Package pipeline orchestrates a full audience-filtering run.
//
// A run walks a fixed sequence of stages over every candidate gathered
// for a brand account:
//
//  1. Ingest commenters on recent brand posts, then followers
//  2. Deduplicate by username, first occurrence wins
//  3. Cheap filter on already-cached profile data, no paid calls
//  4. Concurrent visibility probe and profile fetch through the
//     budget-gated Fetcher
//  5. Quality scoring and bot/business classification
//  6. Threshold check producing a terminal verdict per candidate
//
// Every candidate that enters a run produces exactly one FilterResult in
// the audit trail. Budget exhaustion degrades the run to partial results
// rather than failing it: candidates that never got their probe are
// rejected for unknown visibility, and the RunResult carries a
// BudgetLimited flag.
//
// The Fetcher is the only path to the scraping backend. It consults the
// cache before spending anything, acquires from the rate-limit gate on
// every miss, and writes fetched entities back so later runs reuse them.
package pipeline
