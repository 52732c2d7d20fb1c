package classify

import (
	"context"
	"strings"

	"icpscout/pkg/ai"
	"icpscout/pkg/logger"
	"icpscout/pkg/models"
)

// Word lists for the rule tier. Deliberately short: only obvious patterns
// should be decisive without the AI fallback.
var (
	businessWords   = []string{"shop", "store", "official", "boutique", "brand"}
	businessMarkers = []string{"llc", "inc", ".co", "_co"}
	botWords        = []string{"follow4follow", "f4f", "l4l", "followme", "getfollowers"}
)

// Classifier labels candidates as real person, bot or business. Obvious
// cases are decided by rules; the rest go to the AI fallback when one is
// configured, and stay uncertain otherwise.
type Classifier struct {
	ai     ai.Classifier
	logger logger.Logger
}

// New creates a classifier. A nil AI client disables the fallback tier.
func New(aiClient ai.Classifier, log logger.Logger) *Classifier {
	if log == nil {
		log = logger.GetLogger()
	}
	return &Classifier{ai: aiClient, logger: log}
}

// Classify labels a candidate. The rule tier runs first and its decisive
// labels never reach the AI backend. AI failures keep the candidate
// uncertain rather than guessing.
func (c *Classifier) Classify(ctx context.Context, cand *models.Candidate) models.Label {
	label, reason := RuleLabel(cand.Username, cand.Profile)
	if label != models.LabelUncertain {
		c.logger.DebugWithFields("rule classification", map[string]interface{}{
			"username": cand.Username,
			"label":    string(label),
			"reason":   reason,
		})
		return label
	}

	if c.ai == nil {
		return models.LabelUncertain
	}

	profile := cand.Profile
	if profile == nil {
		profile = &models.Profile{Username: cand.Username}
	}

	aiLabel, err := c.ai.Classify(ctx, profile)
	if err != nil {
		c.logger.WarnWithFields("AI fallback unavailable, keeping uncertain", map[string]interface{}{
			"username": cand.Username,
			"error":    err.Error(),
		})
		return models.LabelUncertain
	}
	return aiLabel
}

// RuleLabel applies the heuristic tier to a username and optional profile.
// It returns the label and a short reason for the audit trail. Uncertain
// means the rules could not decide either way.
func RuleLabel(username string, profile *models.Profile) (models.Label, string) {
	lower := strings.ToLower(username)
	bio := ""
	if profile != nil {
		bio = strings.ToLower(profile.Biography)
	}

	// A backend-confirmed business flag is decisive on its own.
	if profile != nil && profile.IsBusinessAccount {
		return models.LabelBusiness, "business account flag set"
	}

	businessIndicators := 0
	if containsAny(lower, businessWords) || containsAny(bio, businessWords) {
		businessIndicators++
	}
	if containsAny(lower, businessMarkers) {
		businessIndicators++
	}

	botIndicators := 0
	if containsAny(lower, botWords) || containsAny(bio, botWords) {
		botIndicators++
	}
	if len(username) > 30 || strings.Count(username, "_") > 3 {
		botIndicators++
	}
	if longestDigitRun(username) >= 5 {
		botIndicators++
	}

	switch {
	case businessIndicators >= 2:
		return models.LabelBusiness, "username and bio match business patterns"
	case botIndicators >= 2:
		return models.LabelBot, "username matches bot patterns"
	case businessIndicators == 0 && botIndicators == 0 && cleanUsername(username):
		return models.LabelRealPerson, "no business or bot indicators"
	default:
		return models.LabelUncertain, "rules could not decide"
	}
}

// cleanUsername reports whether a username looks hand-picked rather than
// generated
func cleanUsername(username string) bool {
	if username == "" || len(username) >= 20 {
		return false
	}
	if strings.Count(username, "_") > 1 {
		return false
	}
	last := username[len(username)-1]
	return last < '0' || last > '9'
}

func containsAny(s string, words []string) bool {
	if s == "" {
		return false
	}
	for _, w := range words {
		if strings.Contains(s, w) {
			return true
		}
	}
	return false
}

func longestDigitRun(s string) int {
	longest, run := 0, 0
	for i := 0; i < len(s); i++ {
		if s[i] >= '0' && s[i] <= '9' {
			run++
			if run > longest {
				longest = run
			}
		} else {
			run = 0
		}
	}
	return longest
}
