// Package matcher decides whether a free-text guess names an image.
//
// A guess is correct when it equals one of the accepted answers after
// normalization, and close when its normalized Levenshtein similarity to the
// best accepted answer reaches the threshold. Lengths and edits are counted in
// runes.
package matcher

import (
	"strings"

	"pixelhunt/internal/domain"
)

// DefaultThreshold is the similarity at or above which a wrong guess is close.
const DefaultThreshold = 0.75

// Matcher evaluates guesses with a fixed closeness threshold.
// The zero value uses a threshold of 0, so construct it with New.
type Matcher struct {
	threshold float64
}

// New returns a Matcher; a non-positive threshold falls back to DefaultThreshold.
func New(threshold float64) Matcher {
	if threshold <= 0 {
		threshold = DefaultThreshold
	}
	return Matcher{threshold: threshold}
}

// Evaluate classifies guess against accepted using DefaultThreshold.
func Evaluate(guess string, accepted []string) domain.GuessResult {
	return New(DefaultThreshold).Evaluate(guess, accepted)
}

// Evaluate classifies guess against accepted. It never fails: empty guesses
// and empty answer lists simply do not match.
func (m Matcher) Evaluate(guess string, accepted []string) domain.GuessResult {
	g := Normalize(guess)

	for _, answer := range accepted {
		a := Normalize(answer)
		if a != "" && a == g {
			return domain.GuessResult{IsCorrect: true}
		}
	}

	best := -1.0
	closest := ""
	for _, answer := range accepted {
		a := Normalize(answer)
		if a == "" {
			continue
		}
		// strict comparison keeps the first of equally similar answers
		if s := Similarity(g, a); s > best {
			best = s
			closest = answer
		}
	}

	if best >= m.threshold {
		return domain.GuessResult{IsClose: true, ClosestAnswer: closest}
	}
	return domain.GuessResult{}
}

// Normalize trims surrounding whitespace and lower-cases s.
func Normalize(s string) string {
	return strings.ToLower(strings.TrimSpace(s))
}

// Similarity returns 1 - Distance(a,b)/max(len(a),len(b)) in [0,1].
// Two empty strings are identical; one empty string is dissimilar to anything.
func Similarity(a, b string) float64 {
	la, lb := len([]rune(a)), len([]rune(b))
	if la == 0 && lb == 0 {
		return 1
	}
	if la == 0 || lb == 0 {
		return 0
	}
	longest := max(la, lb)
	return 1 - float64(Distance(a, b))/float64(longest)
}

// Distance is the Levenshtein edit distance between a and b, where insertion,
// deletion and substitution each cost 1.
func Distance(a, b string) int {
	ra, rb := []rune(a), []rune(b)
	if len(ra) == 0 {
		return len(rb)
	}
	if len(rb) == 0 {
		return len(ra)
	}

	prev := make([]int, len(rb)+1)
	curr := make([]int, len(rb)+1)
	for j := range prev {
		prev[j] = j
	}
	for i := 1; i <= len(ra); i++ {
		curr[0] = i
		for j := 1; j <= len(rb); j++ {
			cost := 1
			if ra[i-1] == rb[j-1] {
				cost = 0
			}
			curr[j] = min(curr[j-1]+1, prev[j]+1, prev[j-1]+cost)
		}
		prev, curr = curr, prev
	}
	return prev[len(rb)]
}
