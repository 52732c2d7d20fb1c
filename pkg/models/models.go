package models

import "time"

// Origin describes where a candidate was first observed.
type Origin string

const (
	OriginFollower  Origin = "follower"
	OriginCommenter Origin = "commenter"
)

// Visibility is the probe result for a candidate's profile.
type Visibility string

const (
	VisibilityUnknown Visibility = "unknown"
	VisibilityPublic  Visibility = "public"
	VisibilityPrivate Visibility = "private"
)

// Label is the classifier output for a candidate.
type Label string

const (
	LabelUnclassified Label = "unclassified"
	LabelRealPerson   Label = "real_person"
	LabelBot          Label = "bot"
	LabelBusiness     Label = "business"
	LabelUncertain    Label = "uncertain"
)

// Profile holds the raw profile fields returned by the scraping backend.
type Profile struct {
	Username          string `json:"username"`
	FullName          string `json:"full_name,omitempty"`
	Biography         string `json:"biography,omitempty"`
	FollowersCount    int    `json:"followers_count"`
	FollowingCount    int    `json:"following_count"`
	PostsCount        int    `json:"posts_count"`
	IsPrivate         bool   `json:"is_private"`
	IsBusinessAccount bool   `json:"is_business_account"`
	BusinessCategory  string `json:"business_category,omitempty"`
}

// Candidate is an account under evaluation. Profile fields are populated
// lazily as the candidate passes pipeline stages.
type Candidate struct {
	Username   string     `json:"username"`
	Origin     Origin     `json:"origin"`
	Visibility Visibility `json:"visibility"`
	Profile    *Profile   `json:"profile,omitempty"`
	// CommentText carries the comment that surfaced a commenter candidate.
	CommentText string `json:"comment_text,omitempty"`
	Score       *int   `json:"score,omitempty"`
	Label       Label  `json:"label"`
}

// Comment is a single comment on a brand post, consumed read-only by the
// quality scorer.
type Comment struct {
	ID            string `json:"id"`
	PostID        string `json:"post_id"`
	OwnerUsername string `json:"owner_username"`
	Text          string `json:"text"`
	LikesCount    int    `json:"likes_count"`
}

// Post is a brand post whose comments seed commenter candidates.
type Post struct {
	ID            string    `json:"id"`
	Shortcode     string    `json:"shortcode"`
	Caption       string    `json:"caption,omitempty"`
	LikesCount    int       `json:"likes_count"`
	CommentsCount int       `json:"comments_count"`
	TakenAt       time.Time `json:"taken_at"`
}

// Verdict is the terminal outcome for a candidate that entered the pipeline.
type Verdict string

const (
	VerdictKept                   Verdict = "kept"
	VerdictRejectedVisibility     Verdict = "rejected_visibility"
	VerdictRejectedScore          Verdict = "rejected_score"
	VerdictRejectedClassification Verdict = "rejected_classification"
)

// FilterResult is the audit record for one candidate. Every candidate that
// enters a run produces exactly one.
type FilterResult struct {
	Username string  `json:"username"`
	Origin   Origin  `json:"origin"`
	Verdict  Verdict `json:"verdict"`
	Score    *int    `json:"score,omitempty"`
	Label    Label   `json:"label,omitempty"`
	Reason   string  `json:"reason,omitempty"`
}

// RunResult is the artifact emitted for a completed pipeline run.
type RunResult struct {
	Brand         string         `json:"brand"`
	StartedAt     time.Time      `json:"started_at"`
	FinishedAt    time.Time      `json:"finished_at"`
	Kept          []Candidate    `json:"kept"`
	Audit         []FilterResult `json:"audit"`
	BudgetLimited bool           `json:"budget_limited"`
	CallsMade     int            `json:"calls_made"`
}
