package quality

import (
	"strings"
	"unicode"

	"icpscout/pkg/models"
)

// Scoring is a pure weighted sum over text and profile signals, clamped to
// [0,100]. No input ever produces an error; missing fields fall back to a
// neutral sub-score.

const neutralScore = 50

// engagementIndicators mark comments that engage with the content rather
// than drive-by reactions.
var engagementIndicators = []string{
	"?", "what", "how", "when", "why", "where", "who",
	"love", "amazing", "great", "awesome", "thank", "thanks",
	"beautiful", "perfect", "agree", "disagree", "opinion",
	"think", "believe", "feel", "experience", "recommend",
}

// promoPhrases mark call-to-action or promotional comments
var promoPhrases = []string{
	"check out", "link in bio", "follow me", "dm me", "use code",
	"discount", "promo", "shop now", "click the link", "buy now",
}

// ScoreCandidate scores a candidate from whatever signals are available.
// Commenters are scored on their comment text, followers on their profile;
// a candidate with neither gets the neutral score. The username shape
// penalty applies in all cases.
func ScoreCandidate(cand *models.Candidate) int {
	var score int
	switch {
	case cand.CommentText != "":
		score = ScoreText(cand.CommentText)
	case cand.Profile != nil:
		score = ScoreProfile(cand.Profile)
	default:
		score = neutralScore
	}

	score -= UsernameShapePenalty(cand.Username)
	return clamp(score)
}

// ScoreText scores a piece of comment text in [0,100]
func ScoreText(text string) int {
	if strings.TrimSpace(text) == "" {
		return 0
	}

	score := lengthScore(text)
	score += diversityScore(text)
	score += engagementScore(text)
	score -= promoPenalty(text)
	score -= spamPenalty(text)

	return clamp(score)
}

// ScoreProfile scores an account profile in [0,100]
func ScoreProfile(p *models.Profile) int {
	score := lengthScore(p.Biography)
	score += postCountScore(p.PostsCount)
	score += followRatioScore(p.FollowersCount, p.FollowingCount)
	score -= promoPenalty(p.Biography)

	return clamp(score)
}

// lengthScore rewards substantive text, up to 40 points
func lengthScore(text string) int {
	length := len(strings.TrimSpace(text))
	switch {
	case length > 100:
		return 40
	case length > 50:
		return 30
	case length > 20:
		return 20
	case length > 10:
		return 10
	case length > 0:
		return 5
	default:
		return 0
	}
}

// diversityScore rewards varied vocabulary, up to 30 points. Repeating the
// same word over and over scores near zero.
func diversityScore(text string) int {
	words := strings.Fields(strings.ToLower(text))
	if len(words) == 0 {
		return 0
	}

	unique := make(map[string]struct{}, len(words))
	for _, w := range words {
		unique[w] = struct{}{}
	}

	diversity := float64(len(unique)) / float64(len(words))
	score := int(diversity * 30)
	if score > 30 {
		score = 30
	}
	return score
}

// engagementScore rewards questions, sentiment and first-person markers,
// 5 points per indicator up to 30
func engagementScore(text string) int {
	lower := strings.ToLower(text)
	count := 0
	for _, indicator := range engagementIndicators {
		if strings.Contains(lower, indicator) {
			count++
		}
	}
	score := count * 5
	if score > 30 {
		score = 30
	}
	return score
}

// promoPenalty penalizes call-to-action phrasing, 15 points per phrase up
// to 30
func promoPenalty(text string) int {
	lower := strings.ToLower(text)
	penalty := 0
	for _, phrase := range promoPhrases {
		if strings.Contains(lower, phrase) {
			penalty += 15
		}
	}
	if penalty > 30 {
		penalty = 30
	}
	return penalty
}

// spamPenalty penalizes repeated-character spam like "loooooove!!!!!" by
// looking at the ratio of distinct letters to total letters
func spamPenalty(text string) int {
	var total int
	distinct := make(map[rune]struct{})
	for _, r := range strings.ToLower(text) {
		if unicode.IsLetter(r) {
			total++
			distinct[r] = struct{}{}
		}
	}
	if total < 8 {
		return 0
	}
	if float64(len(distinct))/float64(total) < 0.3 {
		return 20
	}
	return 0
}

// postCountScore rewards accounts that actually post, up to 30 points
func postCountScore(posts int) int {
	switch {
	case posts > 50:
		return 30
	case posts > 10:
		return 20
	case posts > 0:
		return 10
	default:
		return 0
	}
}

// followRatioScore rewards balanced follower/following ratios, up to 30
// points. Accounts following thousands while followed by nobody look like
// follow-spam; the inverse looks fine and scores mid-range.
func followRatioScore(followers, following int) int {
	if followers <= 0 || following <= 0 {
		return 10
	}

	ratio := float64(followers) / float64(following)
	switch {
	case ratio >= 0.5 && ratio <= 10:
		return 30
	case ratio >= 0.1:
		return 20
	default:
		return 5
	}
}

// UsernameShapePenalty penalizes usernames shaped like generated handles:
// long trailing digit runs, too many underscores, excessive length
func UsernameShapePenalty(username string) int {
	if username == "" {
		return 0
	}

	penalty := 0
	if len(username) > 30 {
		penalty += 15
	}
	if strings.Count(username, "_") > 3 {
		penalty += 15
	}
	if trailingDigits(username) > 3 {
		penalty += 10
	}
	return penalty
}

func trailingDigits(s string) int {
	count := 0
	for i := len(s) - 1; i >= 0; i-- {
		if s[i] < '0' || s[i] > '9' {
			break
		}
		count++
	}
	return count
}

func clamp(score int) int {
	if score < 0 {
		return 0
	}
	if score > 100 {
		return 100
	}
	return score
}
