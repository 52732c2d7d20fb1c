package apify

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"time"

	"icpscout/pkg/config"
	errs "icpscout/pkg/errors"
	"icpscout/pkg/logger"
	"icpscout/pkg/models"
	"icpscout/pkg/retry"
)

// Client calls Instagram scraper actors through the Apify API. Every fetch
// is a paid call; callers are expected to gate fetches through the rate
// limiter and budget before reaching the client.
type Client struct {
	httpClient *http.Client
	baseURL    string
	token      string
	retrier    *retry.FetchRetrier
	logger     logger.Logger
}

// NewClient creates an Apify client from configuration
func NewClient(cfg *config.ApifyConfig, log logger.Logger) *Client {
	if log == nil {
		log = logger.GetLogger()
	}

	baseURL := cfg.BaseURL
	if baseURL == "" {
		baseURL = DefaultBaseURL
	}
	timeout := cfg.FetchTimeout
	if timeout <= 0 {
		timeout = 60 * time.Second
	}

	return &Client{
		httpClient: &http.Client{
			Timeout: timeout,
		},
		baseURL: baseURL,
		token:   cfg.APIToken,
		retrier: retry.NewFetchRetrier(cfg.MaxRetries, log),
		logger:  log,
	}
}

// runActor runs an actor synchronously and decodes its dataset items into
// target. Transient failures are retried with backoff; permanent failures
// surface immediately.
func (c *Client) runActor(ctx context.Context, actor string, input interface{}, target interface{}) error {
	body, err := json.Marshal(input)
	if err != nil {
		return errs.Newf(errs.ErrorTypeUnknown, "failed to encode actor input: %v", err)
	}

	url := ActorRunURL(c.baseURL, actor, c.token)

	return c.retrier.Do(ctx, func() error {
		req, err := http.NewRequestWithContext(ctx, http.MethodPost, url, bytes.NewReader(body))
		if err != nil {
			return errs.Newf(errs.ErrorTypeUnknown, "failed to create request: %v", err)
		}
		req.Header.Set("Content-Type", "application/json")

		start := time.Now()
		c.logger.DebugWithFields("running actor", map[string]interface{}{
			"actor": actor,
		})

		resp, err := c.httpClient.Do(req)
		duration := time.Since(start)
		if err != nil {
			if ctx.Err() != nil {
				return ctx.Err()
			}
			c.logger.ErrorWithFields("actor request failed", map[string]interface{}{
				"actor":    actor,
				"error":    err.Error(),
				"duration": duration,
			})
			return errs.Newf(errs.ErrorTypeTransientFetch, "network error: %v", err)
		}
		defer resp.Body.Close()

		logger.LogRequest(http.MethodPost, fmt.Sprintf(RunSyncEndpoint, actor), resp.StatusCode, float64(duration.Milliseconds()))

		if err := c.checkResponseStatus(resp); err != nil {
			return err
		}

		data, err := io.ReadAll(resp.Body)
		if err != nil {
			return errs.Newf(errs.ErrorTypeTransientFetch, "failed to read response body: %v", err)
		}

		if err := json.Unmarshal(data, target); err != nil {
			preview := string(data)
			if len(preview) > 200 {
				preview = preview[:200] + "..."
			}
			c.logger.ErrorWithFields("failed to parse actor response", map[string]interface{}{
				"actor":        actor,
				"status":       resp.StatusCode,
				"error":        err.Error(),
				"body_preview": preview,
			})
			return errs.Newf(errs.ErrorTypeTransientFetch, "failed to parse response: %v", err)
		}

		return nil
	})
}

// checkResponseStatus maps a non-200 response to the error taxonomy
func (c *Client) checkResponseStatus(resp *http.Response) error {
	if resp.StatusCode == http.StatusOK || resp.StatusCode == http.StatusCreated {
		return nil
	}

	message := fmt.Sprintf("unexpected status %d", resp.StatusCode)
	var envelope apiError
	if body, err := io.ReadAll(io.LimitReader(resp.Body, 4096)); err == nil {
		if json.Unmarshal(body, &envelope) == nil && envelope.Error.Message != "" {
			message = envelope.Error.Message
		}
	}

	c.logger.WarnWithFields("actor returned error", map[string]interface{}{
		"status":  resp.StatusCode,
		"message": message,
	})

	return errs.FromStatusCode(resp.StatusCode, message)
}

// FetchProfile fetches a single account profile
func (c *Client) FetchProfile(ctx context.Context, username string) (*models.Profile, error) {
	input := map[string]interface{}{
		"usernames": []string{username},
	}

	var items []profileItem
	if err := c.runActor(ctx, ProfileActor, input, &items); err != nil {
		return nil, err
	}
	if len(items) == 0 {
		return nil, errs.Newf(errs.ErrorTypePermanentFetch, "account %q not found", username)
	}

	profile := items[0].toModel()
	if profile.Username == "" {
		profile.Username = username
	}
	return profile, nil
}

// FetchPosts fetches an account's most recent posts, up to limit
func (c *Client) FetchPosts(ctx context.Context, username string, limit int) ([]models.Post, error) {
	if limit <= 0 {
		limit = DefaultPostLimit
	} else if limit > MaxPostLimit {
		limit = MaxPostLimit
	}

	input := map[string]interface{}{
		"username":     []string{username},
		"resultsLimit": limit,
	}

	var items []postItem
	if err := c.runActor(ctx, PostsActor, input, &items); err != nil {
		return nil, err
	}

	posts := make([]models.Post, 0, len(items))
	for i := range items {
		posts = append(posts, items[i].toModel())
	}
	return posts, nil
}

// FetchComments fetches comments on a post, up to limit
func (c *Client) FetchComments(ctx context.Context, postID string, limit int) ([]models.Comment, error) {
	input := map[string]interface{}{
		"postIds":      []string{postID},
		"resultsLimit": limit,
	}

	var items []commentItem
	if err := c.runActor(ctx, CommentsActor, input, &items); err != nil {
		return nil, err
	}

	comments := make([]models.Comment, 0, len(items))
	for i := range items {
		comments = append(comments, items[i].toModel(postID))
	}
	return comments, nil
}

// FetchFollowers fetches an account's follower usernames, up to limit
func (c *Client) FetchFollowers(ctx context.Context, username string, limit int) ([]string, error) {
	input := map[string]interface{}{
		"username":     username,
		"resultsLimit": limit,
	}

	var items []followerItem
	if err := c.runActor(ctx, FollowersActor, input, &items); err != nil {
		return nil, err
	}

	followers := make([]string, 0, len(items))
	for _, item := range items {
		if item.Username != "" {
			followers = append(followers, item.Username)
		}
	}
	return followers, nil
}

// CheckVisibility probes whether an account's posts are reachable without
// authentication by asking for a single post. Accounts whose content comes
// back are public; an empty result or a blocked fetch means the content is
// not viewable.
func (c *Client) CheckVisibility(ctx context.Context, username string) (models.Visibility, error) {
	posts, err := c.FetchPosts(ctx, username, 1)
	if err != nil {
		if errs.TypeOf(err) == errs.ErrorTypePermanentFetch {
			return models.VisibilityPrivate, nil
		}
		return models.VisibilityUnknown, err
	}
	if len(posts) > 0 {
		return models.VisibilityPublic, nil
	}
	return models.VisibilityPrivate, nil
}
