package report

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strings"
	"time"

	"icpscout/pkg/logger"
	"icpscout/pkg/models"
)

// Writer persists run results as JSON artifacts in a results directory
type Writer struct {
	dir    string
	logger logger.Logger
}

// NewWriter creates a report writer rooted at dir
func NewWriter(dir string, log logger.Logger) (*Writer, error) {
	if log == nil {
		log = logger.GetLogger()
	}
	if err := os.MkdirAll(dir, 0755); err != nil {
		return nil, fmt.Errorf("failed to create results directory: %w", err)
	}
	return &Writer{dir: dir, logger: log}, nil
}

// Write saves a run result atomically and returns the artifact path. The
// filename carries the brand and the run start time so repeated runs never
// overwrite each other.
func (w *Writer) Write(result *models.RunResult) (string, error) {
	filename := fmt.Sprintf("%s_%s.json",
		sanitizeBrand(result.Brand),
		result.StartedAt.UTC().Format("20060102T150405"),
	)
	path := filepath.Join(w.dir, filename)

	tempPath := path + ".tmp"
	file, err := os.Create(tempPath)
	if err != nil {
		return "", fmt.Errorf("failed to create temporary result file: %w", err)
	}

	encoder := json.NewEncoder(file)
	encoder.SetIndent("", "  ")
	if err := encoder.Encode(result); err != nil {
		file.Close()
		os.Remove(tempPath)
		return "", fmt.Errorf("failed to encode result: %w", err)
	}

	if err := file.Sync(); err != nil {
		file.Close()
		os.Remove(tempPath)
		return "", fmt.Errorf("failed to sync result file: %w", err)
	}

	if err := file.Close(); err != nil {
		os.Remove(tempPath)
		return "", fmt.Errorf("failed to close result file: %w", err)
	}

	if err := os.Rename(tempPath, path); err != nil {
		os.Remove(tempPath)
		return "", fmt.Errorf("failed to replace result file: %w", err)
	}

	w.logger.InfoWithFields("Run result saved", map[string]interface{}{
		"brand": result.Brand,
		"path":  path,
		"kept":  len(result.Kept),
	})
	return path, nil
}

// Load reads a previously written run result
func Load(path string) (*models.RunResult, error) {
	file, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("failed to open result file: %w", err)
	}
	defer file.Close()

	var result models.RunResult
	if err := json.NewDecoder(file).Decode(&result); err != nil {
		return nil, fmt.Errorf("failed to decode result: %w", err)
	}
	return &result, nil
}

// List returns the artifact paths for a brand, newest first. An empty
// brand lists everything.
func (w *Writer) List(brand string) ([]string, error) {
	pattern := "*.json"
	if brand != "" {
		pattern = sanitizeBrand(brand) + "_*.json"
	}

	paths, err := filepath.Glob(filepath.Join(w.dir, pattern))
	if err != nil {
		return nil, fmt.Errorf("failed to list results: %w", err)
	}
	sort.Sort(sort.Reverse(sort.StringSlice(paths)))
	return paths, nil
}

// Summary renders a short human-readable digest of a run
func Summary(result *models.RunResult) string {
	var b strings.Builder
	fmt.Fprintf(&b, "Brand:          %s\n", result.Brand)
	fmt.Fprintf(&b, "Duration:       %s\n", result.FinishedAt.Sub(result.StartedAt).Round(time.Second))
	fmt.Fprintf(&b, "Candidates:     %d\n", len(result.Audit))
	fmt.Fprintf(&b, "Kept:           %d\n", len(result.Kept))
	fmt.Fprintf(&b, "Calls made:     %d\n", result.CallsMade)
	if result.BudgetLimited {
		b.WriteString("Budget:         exhausted, results are partial\n")
	}

	counts := make(map[models.Verdict]int)
	for _, fr := range result.Audit {
		counts[fr.Verdict]++
	}
	fmt.Fprintf(&b, "Rejected:       %d visibility, %d score, %d classification\n",
		counts[models.VerdictRejectedVisibility],
		counts[models.VerdictRejectedScore],
		counts[models.VerdictRejectedClassification],
	)

	for i, cand := range result.Kept {
		if i == 0 {
			b.WriteString("\nTop candidates:\n")
		}
		if i >= 10 {
			fmt.Fprintf(&b, "  ... and %d more\n", len(result.Kept)-10)
			break
		}
		score := 0
		if cand.Score != nil {
			score = *cand.Score
		}
		fmt.Fprintf(&b, "  %3d  %s (%s)\n", score, cand.Username, cand.Origin)
	}
	return b.String()
}

// sanitizeBrand keeps artifact filenames safe across platforms
func sanitizeBrand(brand string) string {
	return strings.Map(func(r rune) rune {
		switch {
		case r >= 'a' && r <= 'z', r >= 'A' && r <= 'Z', r >= '0' && r <= '9':
			return r
		case r == '.', r == '-', r == '_':
			return r
		default:
			return '_'
		}
	}, brand)
}
