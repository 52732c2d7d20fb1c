package ai

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"icpscout/pkg/config"
	errs "icpscout/pkg/errors"
	"icpscout/pkg/logger"
	"icpscout/pkg/models"
)

const systemPrompt = `You judge Instagram accounts from their public metadata. ` +
	`Answer with exactly one of: likely_person, likely_business, likely_bot.`

// Classifier asks an AI backend to judge an account. It is only consulted
// when the rule tier cannot decide.
type Classifier interface {
	Classify(ctx context.Context, profile *models.Profile) (models.Label, error)
}

// Client is a minimal chat-completions client for OpenAI-compatible
// backends. Any failure is reported as classification-unavailable so the
// caller can degrade instead of aborting.
type Client struct {
	httpClient *http.Client
	baseURL    string
	apiKey     string
	model      string
	logger     logger.Logger
}

// NewClient creates an AI client from configuration
func NewClient(cfg *config.AIConfig, log logger.Logger) *Client {
	if log == nil {
		log = logger.GetLogger()
	}

	baseURL := cfg.BaseURL
	if baseURL == "" {
		baseURL = "https://api.openai.com"
	}
	timeout := cfg.Timeout
	if timeout <= 0 {
		timeout = 30 * time.Second
	}

	return &Client{
		httpClient: &http.Client{Timeout: timeout},
		baseURL:    strings.TrimSuffix(baseURL, "/"),
		apiKey:     cfg.APIKey,
		model:      cfg.Model,
		logger:     log,
	}
}

type chatRequest struct {
	Model       string        `json:"model"`
	Messages    []chatMessage `json:"messages"`
	Temperature float64       `json:"temperature"`
	MaxTokens   int           `json:"max_tokens"`
}

type chatMessage struct {
	Role    string `json:"role"`
	Content string `json:"content"`
}

type chatResponse struct {
	Choices []struct {
		Message chatMessage `json:"message"`
	} `json:"choices"`
}

// Classify asks the backend to judge a profile. The answer maps onto the
// classifier labels; an unparseable answer is uncertain.
func (c *Client) Classify(ctx context.Context, profile *models.Profile) (models.Label, error) {
	body, err := json.Marshal(chatRequest{
		Model: c.model,
		Messages: []chatMessage{
			{Role: "system", Content: systemPrompt},
			{Role: "user", Content: buildPrompt(profile)},
		},
		Temperature: 0,
		MaxTokens:   16,
	})
	if err != nil {
		return models.LabelUncertain, errs.Newf(errs.ErrorTypeClassificationUnavailable, "failed to encode request: %v", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.baseURL+"/v1/chat/completions", bytes.NewReader(body))
	if err != nil {
		return models.LabelUncertain, errs.Newf(errs.ErrorTypeClassificationUnavailable, "failed to create request: %v", err)
	}
	req.Header.Set("Authorization", "Bearer "+c.apiKey)
	req.Header.Set("Content-Type", "application/json")

	resp, err := c.httpClient.Do(req)
	if err != nil {
		c.logger.WarnWithFields("AI backend unreachable", map[string]interface{}{
			"username": profile.Username,
			"error":    err.Error(),
		})
		return models.LabelUncertain, errs.Newf(errs.ErrorTypeClassificationUnavailable, "AI backend unreachable: %v", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		c.logger.WarnWithFields("AI backend returned error", map[string]interface{}{
			"username": profile.Username,
			"status":   resp.StatusCode,
		})
		return models.LabelUncertain, errs.Newf(errs.ErrorTypeClassificationUnavailable, "AI backend returned status %d", resp.StatusCode)
	}

	data, err := io.ReadAll(resp.Body)
	if err != nil {
		return models.LabelUncertain, errs.Newf(errs.ErrorTypeClassificationUnavailable, "failed to read response: %v", err)
	}

	var parsed chatResponse
	if err := json.Unmarshal(data, &parsed); err != nil || len(parsed.Choices) == 0 {
		return models.LabelUncertain, errs.New(errs.ErrorTypeClassificationUnavailable, "unparseable AI response")
	}

	label := ParseAnswer(parsed.Choices[0].Message.Content)
	c.logger.DebugWithFields("AI classification", map[string]interface{}{
		"username": profile.Username,
		"label":    string(label),
	})
	return label, nil
}

// buildPrompt summarizes the profile fields the model needs
func buildPrompt(p *models.Profile) string {
	var sb strings.Builder
	fmt.Fprintf(&sb, "Username: %s\n", p.Username)
	if p.FullName != "" {
		fmt.Fprintf(&sb, "Name: %s\n", p.FullName)
	}
	if p.Biography != "" {
		fmt.Fprintf(&sb, "Bio: %s\n", p.Biography)
	}
	fmt.Fprintf(&sb, "Followers: %d, Following: %d, Posts: %d\n",
		p.FollowersCount, p.FollowingCount, p.PostsCount)
	if p.IsBusinessAccount {
		fmt.Fprintf(&sb, "Marked as business account (%s)\n", p.BusinessCategory)
	}
	sb.WriteString("Is this account likely_person, likely_business, or likely_bot?")
	return sb.String()
}

// ParseAnswer maps a model answer onto a classifier label. Answers that
// name none of the expected verdicts are uncertain.
func ParseAnswer(answer string) models.Label {
	answer = strings.ToLower(answer)
	switch {
	case strings.Contains(answer, "likely_person"):
		return models.LabelRealPerson
	case strings.Contains(answer, "likely_business"):
		return models.LabelBusiness
	case strings.Contains(answer, "likely_bot"):
		return models.LabelBot
	default:
		return models.LabelUncertain
	}
}
