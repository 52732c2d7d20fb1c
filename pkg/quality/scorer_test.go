package quality

import (
	"testing"

	"icpscout/pkg/models"
)

func TestScoreTextBounds(t *testing.T) {
	texts := []string{
		"",
		"ok",
		"love love love love love love love love",
		"What a wonderful recipe, I think my family would really enjoy this. How long do you proof the dough?",
		"FOLLOW ME follow me check out my page use code SAVE20 link in bio",
		"loooooooooooooooooooove!!!!!",
	}

	for _, text := range texts {
		score := ScoreText(text)
		if score < 0 || score > 100 {
			t.Errorf("ScoreText(%q) = %d, out of range", text, score)
		}
	}
}

func TestScoreTextDeterminism(t *testing.T) {
	text := "I think this is great, thanks for sharing your experience!"
	first := ScoreText(text)
	for i := 0; i < 10; i++ {
		if got := ScoreText(text); got != first {
			t.Fatalf("ScoreText not deterministic: %d then %d", first, got)
		}
	}
}

func TestScoreTextOrdering(t *testing.T) {
	thoughtful := "What a wonderful recipe, I think my family would really enjoy this. How long do you proof the dough before baking?"
	driveBy := "nice"
	promo := "check out my page, link in bio, use code SAVE20"

	if ScoreText(thoughtful) <= ScoreText(driveBy) {
		t.Errorf("Expected thoughtful comment (%d) to outscore a drive-by reaction (%d)",
			ScoreText(thoughtful), ScoreText(driveBy))
	}
	if ScoreText(thoughtful) <= ScoreText(promo) {
		t.Errorf("Expected thoughtful comment (%d) to outscore a promo comment (%d)",
			ScoreText(thoughtful), ScoreText(promo))
	}
}

func TestScoreTextEmpty(t *testing.T) {
	if got := ScoreText(""); got != 0 {
		t.Errorf("Expected empty text to score 0, got %d", got)
	}
	if got := ScoreText("   "); got != 0 {
		t.Errorf("Expected whitespace text to score 0, got %d", got)
	}
}

func TestRepeatedWordsScoreLow(t *testing.T) {
	varied := "I really think this turned out great, thank you for the detailed walkthrough"
	repeated := "follow follow follow follow follow follow follow follow follow follow follow follow"

	if ScoreText(repeated) >= ScoreText(varied) {
		t.Errorf("Expected repeated words (%d) to score below varied text (%d)",
			ScoreText(repeated), ScoreText(varied))
	}
}

func TestScoreProfile(t *testing.T) {
	person := &models.Profile{
		Username:       "sourdough_sam",
		Biography:      "Home baker in Portland. Weekend loaves, occasional pastry experiments.",
		FollowersCount: 412,
		FollowingCount: 350,
		PostsCount:     87,
	}
	ghost := &models.Profile{
		Username:       "xx_user_xx",
		FollowersCount: 2,
		FollowingCount: 4800,
		PostsCount:     0,
	}

	personScore := ScoreProfile(person)
	ghostScore := ScoreProfile(ghost)

	if personScore <= ghostScore {
		t.Errorf("Expected active person (%d) to outscore ghost follower (%d)", personScore, ghostScore)
	}
	if personScore < 0 || personScore > 100 || ghostScore < 0 || ghostScore > 100 {
		t.Errorf("Scores out of range: %d, %d", personScore, ghostScore)
	}
}

func TestScoreProfileTotalOnEmpty(t *testing.T) {
	// A profile with every field zero must still score, not fail.
	score := ScoreProfile(&models.Profile{})
	if score < 0 || score > 100 {
		t.Errorf("Empty profile scored %d, out of range", score)
	}
}

func TestUsernameShapePenalty(t *testing.T) {
	tests := []struct {
		username string
		want     int
	}{
		{"sourdough_sam", 0},
		{"sam", 0},
		{"", 0},
		{"user_with_many_under_scores_here", 30}, // over 30 chars and over 3 underscores
		{"sam19284756", 10},
		{"a_b_c_d_e", 15},
	}

	for _, test := range tests {
		if got := UsernameShapePenalty(test.username); got != test.want {
			t.Errorf("UsernameShapePenalty(%q) = %d, want %d", test.username, got, test.want)
		}
	}
}

func TestScoreCandidate(t *testing.T) {
	commenter := &models.Candidate{
		Username:    "fan_one",
		Origin:      models.OriginCommenter,
		CommentText: "I think this is such a great idea, how did you come up with it?",
	}
	follower := &models.Candidate{
		Username: "sourdough_sam",
		Origin:   models.OriginFollower,
		Profile: &models.Profile{
			Username:       "sourdough_sam",
			Biography:      "Home baker in Portland. Weekend loaves and pastry experiments.",
			FollowersCount: 412,
			FollowingCount: 350,
			PostsCount:     87,
		},
	}
	bare := &models.Candidate{Username: "mystery"}

	if got := ScoreCandidate(commenter); got <= 0 || got > 100 {
		t.Errorf("Commenter scored %d, out of expected range", got)
	}
	if got := ScoreCandidate(follower); got <= 0 || got > 100 {
		t.Errorf("Follower scored %d, out of expected range", got)
	}
	if got := ScoreCandidate(bare); got != 50 {
		t.Errorf("Candidate with no signals should get the neutral score, got %d", got)
	}
}
