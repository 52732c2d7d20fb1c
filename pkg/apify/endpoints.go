package apify

import (
	"fmt"
	"net/url"
)

const (
	// DefaultBaseURL is the base URL for the Apify API
	DefaultBaseURL = "https://api.apify.com"

	// RunSyncEndpoint runs an actor and returns its dataset items in one call
	RunSyncEndpoint = "/v2/acts/%s/run-sync-get-dataset-items"

	// Actor identifiers for the Instagram scrapers
	ProfileActor   = "apify~instagram-profile-scraper"
	PostsActor     = "apify~instagram-post-scraper"
	CommentsActor  = "apify~instagram-comment-scraper"
	FollowersActor = "apify~instagram-followers-scraper"

	// DefaultPostLimit is the default number of posts to fetch per request
	DefaultPostLimit = 12

	// MaxPostLimit is the maximum number of posts fetched per request
	MaxPostLimit = 50
)

// ActorRunURL constructs the run-sync URL for an actor
func ActorRunURL(baseURL, actor, token string) string {
	params := url.Values{}
	params.Set("token", token)

	return fmt.Sprintf(baseURL+RunSyncEndpoint+"?%s", actor, params.Encode())
}

// IsValidUsername checks if a username is valid according to Instagram rules
func IsValidUsername(username string) bool {
	if username == "" || len(username) > 30 {
		return false
	}

	// Usernames can only contain letters, numbers, periods, and underscores
	for _, char := range username {
		if !((char >= 'a' && char <= 'z') ||
			(char >= 'A' && char <= 'Z') ||
			(char >= '0' && char <= '9') ||
			char == '.' || char == '_') {
			return false
		}
	}

	return true
}

// SanitizeUsername removes any invalid characters from a username
func SanitizeUsername(username string) string {
	if username == "" {
		return ""
	}

	// Remove @ symbol if present at the beginning
	if username[0] == '@' {
		username = username[1:]
	}

	// Remove any trailing slashes or spaces
	for len(username) > 0 && (username[len(username)-1] == '/' || username[len(username)-1] == ' ') {
		username = username[:len(username)-1]
	}

	return username
}
