package pipeline

import (
	"context"
	"sort"
	"time"

	"icpscout/pkg/classify"
	"icpscout/pkg/config"
	errs "icpscout/pkg/errors"
	"icpscout/pkg/logger"
	"icpscout/pkg/models"
	"icpscout/pkg/quality"
)

// brandPostLimit is how many recent brand posts are scanned for commenters
const brandPostLimit = 12

// Pipeline drives a filtering run: ingest candidates for a brand, dedupe,
// cheap-filter, probe and fetch under budget, score, classify, threshold,
// and emit the ranked kept set with a full audit trail.
type Pipeline struct {
	fetcher    *Fetcher
	classifier *classify.Classifier
	cfg        *config.Config
	logger     logger.Logger
}

// New creates a pipeline
func New(fetcher *Fetcher, classifier *classify.Classifier, cfg *config.Config, log logger.Logger) *Pipeline {
	if log == nil {
		log = logger.GetLogger()
	}
	return &Pipeline{
		fetcher:    fetcher,
		classifier: classifier,
		cfg:        cfg,
		logger:     log,
	}
}

// Run ingests and filters the audience of one brand. The run always
// produces a result: budget exhaustion and per-candidate failures surface
// in the audit trail, never as a run error. Only context cancellation
// aborts.
func (p *Pipeline) Run(ctx context.Context, brand string) (*models.RunResult, error) {
	started := time.Now().UTC()

	candidates, err := p.Ingest(ctx, brand)
	if err != nil {
		return nil, err
	}

	result := p.Filter(ctx, brand, candidates)
	result.StartedAt = started
	result.FinishedAt = time.Now().UTC()

	p.logger.InfoWithFields("run complete", map[string]interface{}{
		"brand":          brand,
		"candidates":     len(result.Audit),
		"kept":           len(result.Kept),
		"calls_made":     result.CallsMade,
		"budget_limited": result.BudgetLimited,
	})
	return result, nil
}

// Ingest gathers raw candidates for a brand: commenters on its recent
// posts first, then followers. Budget exhaustion mid-ingest keeps whatever
// was gathered; only context cancellation is an error.
func (p *Pipeline) Ingest(ctx context.Context, brand string) ([]models.Candidate, error) {
	var candidates []models.Candidate

	posts, _, err := p.fetcher.Posts(ctx, brand, brandPostLimit)
	if err != nil {
		if ctx.Err() != nil {
			return nil, ctx.Err()
		}
		p.logger.WarnWithFields("could not list brand posts", map[string]interface{}{
			"brand": brand,
			"error": err.Error(),
		})
	}

	for _, post := range posts {
		comments, _, err := p.fetcher.Comments(ctx, post.ID, p.cfg.Filter.CommentLimit)
		if err != nil {
			if ctx.Err() != nil {
				return nil, ctx.Err()
			}
			if errs.IsBudgetExhausted(err) {
				break
			}
			continue
		}
		for _, comment := range comments {
			if comment.OwnerUsername == "" || comment.OwnerUsername == brand {
				continue
			}
			candidates = append(candidates, models.Candidate{
				Username:    comment.OwnerUsername,
				Origin:      models.OriginCommenter,
				Visibility:  models.VisibilityUnknown,
				CommentText: comment.Text,
				Label:       models.LabelUnclassified,
			})
		}
	}

	followers, _, err := p.fetcher.Followers(ctx, brand, p.cfg.Filter.FollowerLimit)
	if err != nil {
		if ctx.Err() != nil {
			return nil, ctx.Err()
		}
		p.logger.WarnWithFields("could not list brand followers", map[string]interface{}{
			"brand": brand,
			"error": err.Error(),
		})
	}
	for _, username := range followers {
		if username == brand {
			continue
		}
		candidates = append(candidates, models.Candidate{
			Username:   username,
			Origin:     models.OriginFollower,
			Visibility: models.VisibilityUnknown,
			Label:      models.LabelUnclassified,
		})
	}

	p.logger.InfoWithFields("ingested candidates", map[string]interface{}{
		"brand": brand,
		"count": len(candidates),
	})
	return candidates, nil
}

// Filter runs the pipeline stages over an ingested candidate list
func (p *Pipeline) Filter(ctx context.Context, brand string, candidates []models.Candidate) *models.RunResult {
	deduped := Dedupe(candidates)

	audit := make([]models.FilterResult, 0, len(deduped))
	var kept []models.Candidate
	budgetLimited := false

	// Cheap filter: a fresh cached profile can disqualify for free.
	survivors := make([]models.Candidate, 0, len(deduped))
	for _, cand := range deduped {
		if profile, ok := p.fetcher.CachedProfile(ctx, cand.Username); ok {
			cand.Profile = profile
			cand.Visibility = VisibilityFromProfile(profile)
			if profile.PostsCount < p.cfg.Filter.MinPosts {
				zero := 0
				cand.Score = &zero
				audit = append(audit, terminal(&cand, models.VerdictRejectedScore, "cached profile below minimum post count"))
				continue
			}
		}
		survivors = append(survivors, cand)
	}

	pool := NewWorkerPool(ctx, p.cfg.Filter.Concurrency, p.processCandidate, p.logger)
	pool.Start()

	go func() {
		defer pool.Stop()
		for _, cand := range survivors {
			if err := pool.Submit(CandidateJob{Candidate: cand}); err != nil {
				return
			}
		}
	}()

	processed := len(audit)
	total := len(deduped)
	for res := range pool.Results() {
		if res.BudgetLimited {
			budgetLimited = true
		}
		audit = append(audit, res.Result)
		if res.Result.Verdict == models.VerdictKept {
			kept = append(kept, res.Candidate)
		}
		processed++
		if processed%25 == 0 {
			logger.LogPipelineProgress(brand, processed, total)
		}
	}

	// Rank by score descending; ties break on username for a stable order.
	sort.Slice(kept, func(i, j int) bool {
		si, sj := 0, 0
		if kept[i].Score != nil {
			si = *kept[i].Score
		}
		if kept[j].Score != nil {
			sj = *kept[j].Score
		}
		if si != sj {
			return si > sj
		}
		return kept[i].Username < kept[j].Username
	})

	gate := p.fetcher.Gate()
	return &models.RunResult{
		Brand:         brand,
		Kept:          kept,
		Audit:         audit,
		BudgetLimited: budgetLimited || gate.Exhausted(),
		CallsMade:     gate.Used(),
	}
}

// processCandidate runs probe, fetch, score, classify and threshold for
// one candidate. It always returns a terminal result.
func (p *Pipeline) processCandidate(ctx context.Context, cand models.Candidate) CandidateResult {
	res := CandidateResult{}

	// Visibility probe. Only public candidates are worth a full fetch.
	if cand.Visibility == models.VisibilityUnknown {
		visibility, err := p.fetcher.ProbeVisibility(ctx, cand.Username)
		if err != nil {
			if errs.IsBudgetExhausted(err) {
				res.BudgetLimited = true
				res.Candidate = cand
				res.Result = terminal(&cand, models.VerdictRejectedVisibility, "call budget exhausted before probe")
				return res
			}
			visibility = models.VisibilityUnknown
		}
		cand.Visibility = visibility
	}
	if cand.Visibility != models.VisibilityPublic {
		res.Candidate = cand
		res.Result = terminal(&cand, models.VerdictRejectedVisibility, "profile not public")
		return res
	}

	// Full fetch, cache-first. Budget exhaustion here is not terminal: the
	// candidate is still scored on whatever signals are already in hand.
	if cand.Profile == nil {
		profile, _, err := p.fetcher.Profile(ctx, cand.Username)
		switch {
		case err == nil:
			cand.Profile = profile
		case errs.IsBudgetExhausted(err):
			res.BudgetLimited = true
		default:
			res.Candidate = cand
			res.Result = terminal(&cand, models.VerdictRejectedVisibility, "profile unreachable: "+err.Error())
			return res
		}
	}

	score := quality.ScoreCandidate(&cand)
	cand.Score = &score

	cand.Label = p.classifier.Classify(ctx, &cand)

	res.Candidate = cand
	switch {
	case score < p.cfg.Filter.QualityThreshold:
		res.Result = terminal(&cand, models.VerdictRejectedScore, "score below threshold")
	case cand.Label == models.LabelRealPerson,
		cand.Label == models.LabelUncertain && p.cfg.Filter.IncludeUncertain:
		res.Result = terminal(&cand, models.VerdictKept, "")
	default:
		res.Result = terminal(&cand, models.VerdictRejectedClassification, "classified as "+string(cand.Label))
	}
	return res
}

// Dedupe collapses candidates by username; the first occurrence wins
func Dedupe(candidates []models.Candidate) []models.Candidate {
	seen := make(map[string]struct{}, len(candidates))
	out := make([]models.Candidate, 0, len(candidates))
	for _, cand := range candidates {
		if _, ok := seen[cand.Username]; ok {
			continue
		}
		seen[cand.Username] = struct{}{}
		out = append(out, cand)
	}
	return out
}

func terminal(cand *models.Candidate, verdict models.Verdict, reason string) models.FilterResult {
	return models.FilterResult{
		Username: cand.Username,
		Origin:   cand.Origin,
		Verdict:  verdict,
		Score:    cand.Score,
		Label:    cand.Label,
		Reason:   reason,
	}
}
