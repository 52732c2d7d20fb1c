package report

import (
	"strings"
	"testing"
	"time"

	"icpscout/pkg/logger"
	"icpscout/pkg/models"
)

func sampleResult(brand string, started time.Time) *models.RunResult {
	score := 85
	return &models.RunResult{
		Brand:      brand,
		StartedAt:  started,
		FinishedAt: started.Add(2 * time.Minute),
		Kept: []models.Candidate{
			{Username: "sourdough_sam", Origin: models.OriginCommenter, Score: &score, Label: models.LabelRealPerson},
		},
		Audit: []models.FilterResult{
			{Username: "sourdough_sam", Verdict: models.VerdictKept, Score: &score},
			{Username: "quiet_qi", Verdict: models.VerdictRejectedVisibility},
		},
		CallsMade: 12,
	}
}

func TestWriteAndLoad(t *testing.T) {
	writer, err := NewWriter(t.TempDir(), logger.NewNopLogger())
	if err != nil {
		t.Fatalf("new writer: %v", err)
	}

	original := sampleResult("glowbrand", time.Date(2026, 3, 14, 9, 30, 0, 0, time.UTC))
	path, err := writer.Write(original)
	if err != nil {
		t.Fatalf("write: %v", err)
	}
	if !strings.HasSuffix(path, "glowbrand_20260314T093000.json") {
		t.Errorf("unexpected artifact path: %s", path)
	}
	if strings.HasSuffix(path, ".tmp") {
		t.Errorf("temporary file returned: %s", path)
	}

	loaded, err := Load(path)
	if err != nil {
		t.Fatalf("load: %v", err)
	}
	if loaded.Brand != "glowbrand" || len(loaded.Kept) != 1 || len(loaded.Audit) != 2 {
		t.Errorf("round trip mismatch: %+v", loaded)
	}
	if loaded.Kept[0].Score == nil || *loaded.Kept[0].Score != 85 {
		t.Errorf("kept score lost in round trip")
	}
}

func TestListNewestFirst(t *testing.T) {
	writer, err := NewWriter(t.TempDir(), logger.NewNopLogger())
	if err != nil {
		t.Fatalf("new writer: %v", err)
	}

	base := time.Date(2026, 3, 14, 9, 0, 0, 0, time.UTC)
	for i := 0; i < 3; i++ {
		if _, err := writer.Write(sampleResult("glowbrand", base.Add(time.Duration(i)*time.Hour))); err != nil {
			t.Fatalf("write %d: %v", i, err)
		}
	}
	if _, err := writer.Write(sampleResult("otherbrand", base)); err != nil {
		t.Fatalf("write other: %v", err)
	}

	paths, err := writer.List("glowbrand")
	if err != nil {
		t.Fatalf("list: %v", err)
	}
	if len(paths) != 3 {
		t.Fatalf("listed %d artifacts, want 3", len(paths))
	}
	if !strings.Contains(paths[0], "20260314T110000") {
		t.Errorf("newest artifact should sort first: %s", paths[0])
	}

	all, err := writer.List("")
	if err != nil {
		t.Fatalf("list all: %v", err)
	}
	if len(all) != 4 {
		t.Errorf("listed %d artifacts, want 4", len(all))
	}
}

func TestSummary(t *testing.T) {
	result := sampleResult("glowbrand", time.Date(2026, 3, 14, 9, 30, 0, 0, time.UTC))
	result.BudgetLimited = true

	summary := Summary(result)
	for _, want := range []string{"glowbrand", "Kept:           1", "sourdough_sam", "partial", "1 visibility"} {
		if !strings.Contains(summary, want) {
			t.Errorf("summary missing %q:\n%s", want, summary)
		}
	}
}
