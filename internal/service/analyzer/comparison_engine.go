package analyzer

import (
	"sort"
	"strings"
	"time"
)

// Engine computes similarity between one candidate submission and the prior
// DONE submissions of the same work. Pure computation: no storage, no I/O,
// deterministic on identical input.
type Engine struct {
	shingleSize    int
	matchThreshold float64
}

type Config struct {
	// ShingleSize is the word count per shingle; texts shorter than one
	// shingle fall back to a token-set comparison.
	ShingleSize int
	// MatchThreshold is the minimum pairwise score, in percent, for a prior
	// to appear in MatchedSubmissions.
	MatchThreshold float64
}

const (
	DefaultShingleSize    = 3
	DefaultMatchThreshold = 75.0
)

func NewEngine(cfg Config) *Engine {
	if cfg.ShingleSize <= 0 {
		cfg.ShingleSize = DefaultShingleSize
	}
	if cfg.MatchThreshold <= 0 {
		cfg.MatchThreshold = DefaultMatchThreshold
	}
	return &Engine{
		shingleSize:    cfg.ShingleSize,
		matchThreshold: cfg.MatchThreshold,
	}
}

// Prior is a comparison target: a submission that was already DONE when the
// candidate was claimed for processing.
type Prior struct {
	SubmissionID string
	CreatedAt    time.Time
	Content      []byte
}

type Match struct {
	SubmissionID      string
	SimilarityPercent float64
}

type Result struct {
	// SimilarityPercent is the maximum pairwise score against any prior;
	// ties at the maximum resolve to the earliest prior by CreatedAt.
	SimilarityPercent float64
	// Matched lists priors scoring at or above the match threshold, in
	// prior creation order. May be empty while SimilarityPercent is
	// positive: a sub-threshold overlap is a distinct outcome, not a match.
	Matched []Match
}

// Compare scores the candidate against every prior and aggregates the
// per-pair scores. Never fails for well-formed content.
func (e *Engine) Compare(candidate []byte, priors []Prior) Result {
	result := Result{Matched: []Match{}}
	if len(priors) == 0 {
		return result
	}

	ordered := make([]Prior, len(priors))
	copy(ordered, priors)
	sort.SliceStable(ordered, func(i, j int) bool {
		return ordered[i].CreatedAt.Before(ordered[j].CreatedAt)
	})

	candidateText := NormalizeText(candidate)

	for _, prior := range ordered {
		score := e.Similarity(candidateText, NormalizeText(prior.Content))

		// strict > keeps the earliest prior on ties at the maximum
		if score > result.SimilarityPercent {
			result.SimilarityPercent = score
		}

		if score >= e.matchThreshold {
			result.Matched = append(result.Matched, Match{
				SubmissionID:      prior.SubmissionID,
				SimilarityPercent: score,
			})
		}
	}

	return result
}

// MatchThreshold reports the configured matching policy.
func (e *Engine) MatchThreshold() float64 {
	return e.matchThreshold
}

// NormalizeText lowercases the content and collapses runs of whitespace so
// trivially-reformatted duplicates still score as identical.
func NormalizeText(content []byte) string {
	text := strings.Join(strings.Fields(string(content)), " ")
	return strings.ToLower(text)
}

// Similarity is the symmetric pairwise score in [0,100]: Jaccard overlap of
// word shingles, scaled to percent. Identical text scores 100, disjoint
// text 0, and the score grows with the shared portion.
func (e *Engine) Similarity(text1, text2 string) float64 {
	if text1 == "" && text2 == "" {
		return 100.0
	}
	if text1 == "" || text2 == "" {
		return 0.0
	}
	if text1 == text2 {
		return 100.0
	}

	tokens1 := strings.Fields(text1)
	tokens2 := strings.Fields(text2)

	n := e.shingleSize
	if len(tokens1) < n || len(tokens2) < n {
		// too short to shingle, compare token sets instead
		n = 1
	}

	set1 := shingleSet(tokens1, n)
	set2 := shingleSet(tokens2, n)

	intersection := 0
	for shingle := range set1 {
		if _, ok := set2[shingle]; ok {
			intersection++
		}
	}

	union := len(set1) + len(set2) - intersection
	if union == 0 {
		return 0.0
	}

	return float64(intersection) / float64(union) * 100.0
}

func shingleSet(tokens []string, n int) map[string]struct{} {
	set := make(map[string]struct{})
	for i := 0; i+n <= len(tokens); i++ {
		set[strings.Join(tokens[i:i+n], " ")] = struct{}{}
	}
	return set
}
