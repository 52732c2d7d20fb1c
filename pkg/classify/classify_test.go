package classify

import (
	"context"
	"errors"
	"sync/atomic"
	"testing"

	"icpscout/pkg/models"
)

// mockAI counts calls and returns a fixed label
type mockAI struct {
	label models.Label
	err   error
	calls int64
}

func (m *mockAI) Classify(ctx context.Context, profile *models.Profile) (models.Label, error) {
	atomic.AddInt64(&m.calls, 1)
	if m.err != nil {
		return models.LabelUncertain, m.err
	}
	return m.label, nil
}

func TestRuleLabel(t *testing.T) {
	tests := []struct {
		name     string
		username string
		profile  *models.Profile
		want     models.Label
	}{
		{"plain person username", "sourdough_sam", nil, models.LabelRealPerson},
		{"short clean username", "sam", nil, models.LabelRealPerson},
		{"business flag is decisive", "sam", &models.Profile{IsBusinessAccount: true}, models.LabelBusiness},
		{"shop plus llc marker", "samshop_llc", nil, models.LabelBusiness},
		{"boutique with co marker", "rose_boutique.co", nil, models.LabelBusiness},
		{"f4f with underscore pile", "f4f_get_more_follows_", nil, models.LabelBot},
		{"follow4follow with digit run", "follow4follow98765", nil, models.LabelBot},
		{"single weak indicator stays uncertain", "samshop", nil, models.LabelUncertain},
		{"trailing digit stays uncertain", "sam1", nil, models.LabelUncertain},
		{"long username stays uncertain", "a_very_long_username_here", nil, models.LabelUncertain},
	}

	for _, test := range tests {
		t.Run(test.name, func(t *testing.T) {
			got, _ := RuleLabel(test.username, test.profile)
			if got != test.want {
				t.Errorf("RuleLabel(%q) = %v, want %v", test.username, got, test.want)
			}
		})
	}
}

func TestBusinessBioWithFlag(t *testing.T) {
	profile := &models.Profile{
		Username:          "roses_by_rosa",
		Biography:         "SHOP NOW \U0001F6CD link in bio",
		IsBusinessAccount: true,
	}

	got, _ := RuleLabel("roses_by_rosa", profile)
	if got != models.LabelBusiness {
		t.Errorf("Expected business, got %v", got)
	}
}

func TestRuleDecidedCandidateSkipsAI(t *testing.T) {
	mock := &mockAI{label: models.LabelRealPerson}
	c := New(mock, nil)

	bot := &models.Candidate{Username: "follow4follow98765"}
	if got := c.Classify(context.Background(), bot); got != models.LabelBot {
		t.Errorf("Expected bot, got %v", got)
	}

	business := &models.Candidate{
		Username: "rosas_flowers",
		Profile:  &models.Profile{IsBusinessAccount: true},
	}
	if got := c.Classify(context.Background(), business); got != models.LabelBusiness {
		t.Errorf("Expected business, got %v", got)
	}

	if calls := atomic.LoadInt64(&mock.calls); calls != 0 {
		t.Errorf("Rule-decided candidates must never reach the AI backend, saw %d calls", calls)
	}
}

func TestUncertainCandidateUsesAI(t *testing.T) {
	mock := &mockAI{label: models.LabelRealPerson}
	c := New(mock, nil)

	cand := &models.Candidate{Username: "sam1"}
	if got := c.Classify(context.Background(), cand); got != models.LabelRealPerson {
		t.Errorf("Expected AI label to be used, got %v", got)
	}
	if calls := atomic.LoadInt64(&mock.calls); calls != 1 {
		t.Errorf("Expected exactly 1 AI call, got %d", calls)
	}
}

func TestAIFailureDegradesToUncertain(t *testing.T) {
	mock := &mockAI{err: errors.New("backend down")}
	c := New(mock, nil)

	cand := &models.Candidate{Username: "sam1"}
	if got := c.Classify(context.Background(), cand); got != models.LabelUncertain {
		t.Errorf("Expected uncertain on AI failure, got %v", got)
	}
}

func TestDisabledAIKeepsUncertain(t *testing.T) {
	c := New(nil, nil)

	cand := &models.Candidate{Username: "sam1"}
	if got := c.Classify(context.Background(), cand); got != models.LabelUncertain {
		t.Errorf("Expected uncertain with AI disabled, got %v", got)
	}
}
