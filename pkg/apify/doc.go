// Package apify is the HTTP client for the Instagram scraper actors run
// through the Apify API.
//
// Each fetch runs an actor synchronously and decodes its dataset items.
// Failures are mapped onto the pipeline error taxonomy: network errors,
// throttling and 5xx responses are transient and retried with backoff;
// 4xx responses are permanent and surface immediately.
//
// Every call through this package costs money. The client itself does no
// rate limiting or budgeting; the pipeline gates each fetch first.
package apify
