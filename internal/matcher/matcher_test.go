package matcher

import (
	"math"
	"testing"

	"pixelhunt/internal/domain"
)

func TestEvaluateExactMatchIgnoresCaseAndSpace(t *testing.T) {
	res := Evaluate("  Istanbul ", []string{"İstanbul", "Istanbul", "Boğaz"})
	if !res.IsCorrect || res.IsClose || res.ClosestAnswer != "" {
		t.Fatalf("expected exact match, got %+v", res)
	}
}

func TestEvaluateExactMatchWinsOverCloserCandidates(t *testing.T) {
	// "cat" is 1 edit away from "cats" but "CAT" is exact.
	res := Evaluate("cat", []string{"cats", "CAT"})
	if !res.IsCorrect {
		t.Fatalf("expected exact match to take priority, got %+v", res)
	}
}

func TestEvaluateCloseGuess(t *testing.T) {
	res := Evaluate("Pzza", []string{"Pizza"})
	if res.IsCorrect || !res.IsClose {
		t.Fatalf("expected close guess, got %+v", res)
	}
	if res.ClosestAnswer != "Pizza" {
		t.Fatalf("expected closest answer Pizza, got %q", res.ClosestAnswer)
	}
	if s := Similarity("pzza", "pizza"); math.Abs(s-0.8) > 1e-9 {
		t.Fatalf("expected similarity 0.8, got %v", s)
	}
}

func TestEvaluateThresholdBoundary(t *testing.T) {
	// 1 edit over 4 runes: similarity exactly 0.75.
	res := Evaluate("abcx", []string{"abcd"})
	if !res.IsClose {
		t.Fatalf("expected similarity 0.75 to be close, got %+v", res)
	}

	m := New(0.7500001)
	if res := m.Evaluate("abcx", []string{"abcd"}); res.IsClose {
		t.Fatalf("expected similarity below threshold to be far, got %+v", res)
	}

	// 2 edits over 7 runes: ~0.714.
	if res := Evaluate("abcdeXY", []string{"abcdefg"}); res.IsClose {
		t.Fatalf("expected far guess, got %+v", res)
	}
}

func TestEvaluateTiesKeepFirstAnswer(t *testing.T) {
	// similarity 2/3 is below the default threshold
	res := Evaluate("bat", []string{"cat", "hat", "rat"})
	if res.IsClose {
		t.Fatalf("unexpected close result %+v", res)
	}
	res = New(0.5).Evaluate("bat", []string{"cat", "hat", "rat"})
	if res.ClosestAnswer != "cat" {
		t.Fatalf("expected first-seen answer cat, got %q", res.ClosestAnswer)
	}
}

func TestEvaluateDegenerateInputs(t *testing.T) {
	cases := []struct {
		name     string
		guess    string
		accepted []string
	}{
		{"nil answers", "pizza", nil},
		{"empty answers", "pizza", []string{}},
		{"blank answers", "pizza", []string{"", "   "}},
		{"empty guess", "", []string{"pizza"}},
		{"whitespace guess", "   ", []string{"pizza"}},
		{"both empty", "", []string{""}},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			if res := Evaluate(tc.guess, tc.accepted); res != (domain.GuessResult{}) {
				t.Fatalf("expected non-match, got %+v", res)
			}
		})
	}
}

func TestSimilaritySymmetric(t *testing.T) {
	pairs := [][2]string{
		{"kitten", "sitting"},
		{"", "abc"},
		{"", ""},
		{"boğaz", "bogaz"},
		{"flaw", "lawn"},
		{"a", "ab"},
	}
	for _, p := range pairs {
		if Similarity(p[0], p[1]) != Similarity(p[1], p[0]) {
			t.Fatalf("similarity not symmetric for %q/%q", p[0], p[1])
		}
	}
}

func TestDistance(t *testing.T) {
	cases := []struct {
		a, b string
		want int
	}{
		{"kitten", "sitting", 3},
		{"", "abc", 3},
		{"abc", "", 3},
		{"flaw", "lawn", 2},
		{"boğaz", "bogaz", 1},
		{"same", "same", 0},
	}
	for _, tc := range cases {
		if got := Distance(tc.a, tc.b); got != tc.want {
			t.Fatalf("Distance(%q,%q)=%d want %d", tc.a, tc.b, got, tc.want)
		}
	}
}

func TestSimilarityEmptyStrings(t *testing.T) {
	if Similarity("", "") != 1 {
		t.Fatalf("two empty strings should be identical")
	}
	if Similarity("", "x") != 0 || Similarity("x", "") != 0 {
		t.Fatalf("one empty string should be dissimilar")
	}
}

func TestNewFallsBackToDefaultThreshold(t *testing.T) {
	for _, th := range []float64{0, -0.5} {
		if New(th) != New(DefaultThreshold) {
			t.Fatalf("threshold %v: expected default threshold, got %+v", th, New(th))
		}
	}
	got := New(0).Evaluate("constantinopel", []string{"Constantinople"})
	if !got.IsClose || got.IsCorrect {
		t.Fatalf("expected close guess under default threshold, got %+v", got)
	}
}
