package analyzer

import (
	"testing"
	"time"
)

func newTestEngine() *Engine {
	return NewEngine(Config{ShingleSize: 3, MatchThreshold: 75.0})
}

func TestSimilarityIdenticalContent(t *testing.T) {
	e := newTestEngine()

	text := NormalizeText([]byte("the quick brown fox jumps over the lazy dog"))
	if got := e.Similarity(text, text); got != 100.0 {
		t.Fatalf("identical content: got %v, want 100", got)
	}
}

func TestSimilarityDisjointContent(t *testing.T) {
	e := newTestEngine()

	a := NormalizeText([]byte("alpha beta gamma delta epsilon zeta"))
	b := NormalizeText([]byte("one two three four five six"))
	if got := e.Similarity(a, b); got != 0.0 {
		t.Fatalf("disjoint content: got %v, want 0", got)
	}
}

func TestSimilarityMonotonicInOverlap(t *testing.T) {
	e := newTestEngine()

	base := NormalizeText([]byte("a b c d e f g h i j"))
	small := NormalizeText([]byte("a b c d e x y z w v"))
	large := NormalizeText([]byte("a b c d e f g h x y"))

	lo := e.Similarity(base, small)
	hi := e.Similarity(base, large)
	if hi <= lo {
		t.Fatalf("more overlap must score higher: got %v <= %v", hi, lo)
	}
}

func TestSimilaritySymmetric(t *testing.T) {
	e := newTestEngine()

	a := NormalizeText([]byte("shared words here and some extra padding tokens"))
	b := NormalizeText([]byte("shared words here but different tail entirely now"))
	if e.Similarity(a, b) != e.Similarity(b, a) {
		t.Fatal("similarity must be symmetric")
	}
}

func TestNormalizeTextFoldsFormatting(t *testing.T) {
	e := newTestEngine()

	a := NormalizeText([]byte("Hello   World\n\tThis is FINE"))
	b := NormalizeText([]byte("hello world this is fine"))
	if a != b {
		t.Fatalf("normalization mismatch: %q vs %q", a, b)
	}
	if got := e.Similarity(a, b); got != 100.0 {
		t.Fatalf("reformatted duplicate: got %v, want 100", got)
	}
}

func TestSimilarityShortContentFallback(t *testing.T) {
	e := newTestEngine()

	// below the shingle size, token sets are compared instead
	a := NormalizeText([]byte("hello world"))
	b := NormalizeText([]byte("hello there"))
	got := e.Similarity(a, b)
	if got <= 0 || got >= 100 {
		t.Fatalf("partial short overlap: got %v, want strictly between 0 and 100", got)
	}
}

func TestCompareNoPriors(t *testing.T) {
	e := newTestEngine()

	result := e.Compare([]byte("hello world"), nil)
	if result.SimilarityPercent != 0 {
		t.Fatalf("no priors: similarity %v, want 0", result.SimilarityPercent)
	}
	if len(result.Matched) != 0 {
		t.Fatalf("no priors: matched %v, want empty", result.Matched)
	}
}

func TestCompareIdenticalPriorMatches(t *testing.T) {
	e := newTestEngine()
	content := []byte("the quick brown fox jumps over the lazy dog")

	result := e.Compare(content, []Prior{
		{SubmissionID: "s1", CreatedAt: time.Now(), Content: content},
	})

	if result.SimilarityPercent != 100.0 {
		t.Fatalf("identical prior: similarity %v, want 100", result.SimilarityPercent)
	}
	if len(result.Matched) != 1 || result.Matched[0].SubmissionID != "s1" {
		t.Fatalf("identical prior: matched %v, want [s1]", result.Matched)
	}
}

func TestComparePositiveSimilarityBelowThreshold(t *testing.T) {
	e := NewEngine(Config{ShingleSize: 3, MatchThreshold: 90.0})

	candidate := []byte("a b c d e f g h i j")
	prior := []byte("a b c d e f x y z w")

	result := e.Compare(candidate, []Prior{
		{SubmissionID: "s1", CreatedAt: time.Now(), Content: prior},
	})

	if result.SimilarityPercent <= 0 {
		t.Fatalf("overlapping prior: similarity %v, want > 0", result.SimilarityPercent)
	}
	if len(result.Matched) != 0 {
		t.Fatalf("sub-threshold score must not match: got %v", result.Matched)
	}
}

func TestCompareMatchedKeepsCreationOrder(t *testing.T) {
	e := newTestEngine()
	content := []byte("one two three four five six seven eight")
	now := time.Now()

	// deliberately out of order on input
	result := e.Compare(content, []Prior{
		{SubmissionID: "later", CreatedAt: now.Add(time.Minute), Content: content},
		{SubmissionID: "earlier", CreatedAt: now, Content: content},
	})

	if len(result.Matched) != 2 {
		t.Fatalf("matched count %d, want 2", len(result.Matched))
	}
	if result.Matched[0].SubmissionID != "earlier" || result.Matched[1].SubmissionID != "later" {
		t.Fatalf("matched order %v, want earliest first", result.Matched)
	}
}

func TestCompareHeadlineIsMaxPairwise(t *testing.T) {
	e := NewEngine(Config{ShingleSize: 3, MatchThreshold: 99.0})
	candidate := []byte("a b c d e f g h i j")

	result := e.Compare(candidate, []Prior{
		{SubmissionID: "weak", CreatedAt: time.Now(), Content: []byte("a b c d x y z w v u")},
		{SubmissionID: "strong", CreatedAt: time.Now().Add(time.Second), Content: []byte("a b c d e f g h x y")},
	})

	weak := e.Similarity(NormalizeText(candidate), NormalizeText([]byte("a b c d x y z w v u")))
	strong := e.Similarity(NormalizeText(candidate), NormalizeText([]byte("a b c d e f g h x y")))
	if strong <= weak {
		t.Fatalf("fixture broken: strong %v <= weak %v", strong, weak)
	}
	if result.SimilarityPercent != strong {
		t.Fatalf("headline %v, want max pairwise %v", result.SimilarityPercent, strong)
	}
}

func TestCompareDeterministic(t *testing.T) {
	e := newTestEngine()
	candidate := []byte("some submission text with enough words to shingle properly")
	priors := []Prior{
		{SubmissionID: "s1", CreatedAt: time.Now(), Content: []byte("some submission text with other words to shingle properly")},
	}

	first := e.Compare(candidate, priors)
	for i := 0; i < 10; i++ {
		again := e.Compare(candidate, priors)
		if again.SimilarityPercent != first.SimilarityPercent {
			t.Fatalf("run %d: similarity %v, want %v", i, again.SimilarityPercent, first.SimilarityPercent)
		}
	}
}

func TestSimilarityBounds(t *testing.T) {
	e := newTestEngine()

	cases := [][2]string{
		{"a b c d e f", "a b c x y z"},
		{"x", "x y"},
		{"one two three", "three two one"},
	}
	for _, c := range cases {
		got := e.Similarity(NormalizeText([]byte(c[0])), NormalizeText([]byte(c[1])))
		if got < 0 || got > 100 {
			t.Fatalf("Similarity(%q, %q) = %v, out of [0,100]", c[0], c[1], got)
		}
	}
}
