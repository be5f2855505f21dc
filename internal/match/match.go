// Package match provides case-insensitive exact substring search (KMP and Boyer-Moore).
//
// Positions reported by this package are rune offsets into the case-folded text,
// not byte offsets. Patterns are compiled once and can be reused across any number
// of texts.
package match

import (
	"errors"
	"fmt"
	"strings"
	"unicode"
)

// ErrInvalidArgument is returned for empty patterns and unknown algorithm names.
var ErrInvalidArgument = errors.New("invalid argument")

// Algorithm identifies an exact matching algorithm.
type Algorithm string

const (
	// AlgorithmKMP is Knuth-Morris-Pratt. Reports overlapping occurrences.
	AlgorithmKMP Algorithm = "kmp"
	// AlgorithmBoyerMoore is Boyer-Moore with the bad-character rule only.
	// Reports non-overlapping occurrences.
	AlgorithmBoyerMoore Algorithm = "bm"
)

// ParseAlgorithm maps a user supplied selector to an Algorithm.
// Accepts "kmp", "bm", "boyer-moore" and "boyermoore" in any case.
func ParseAlgorithm(s string) (Algorithm, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "kmp", "knuth-morris-pratt":
		return AlgorithmKMP, nil
	case "bm", "boyer-moore", "boyermoore", "boyer_moore":
		return AlgorithmBoyerMoore, nil
	default:
		return "", fmt.Errorf("%w: unknown algorithm %q (use kmp or bm)", ErrInvalidArgument, s)
	}
}

// Pattern is a compiled search pattern.
type Pattern interface {
	// Len returns the pattern length in runes.
	Len() int
	// FindAll returns every occurrence start in text. text must already be folded with Fold.
	FindAll(text []rune) []int
}

// Matcher compiles patterns for one algorithm.
type Matcher interface {
	Algorithm() Algorithm
	Compile(pattern string) (Pattern, error)
}

// NewMatcher returns the Matcher for alg.
func NewMatcher(alg Algorithm) (Matcher, error) {
	switch alg {
	case AlgorithmKMP:
		return NewKMP(), nil
	case AlgorithmBoyerMoore:
		return NewBoyerMoore(), nil
	default:
		return nil, fmt.Errorf("%w: unknown algorithm %q", ErrInvalidArgument, alg)
	}
}

// Search compiles pattern with m and returns all occurrence starts in text.
func Search(m Matcher, text, pattern string) ([]int, error) {
	p, err := m.Compile(pattern)
	if err != nil {
		return nil, err
	}
	return p.FindAll(Fold(text)), nil
}

// Count returns the number of occurrences of pattern in text using m.
func Count(m Matcher, text, pattern string) (int, error) {
	positions, err := Search(m, text, pattern)
	if err != nil {
		return 0, err
	}
	return len(positions), nil
}

// Fold returns s as runes with every rune lowercased. The result has exactly one
// rune per input rune, so offsets into it line up with offsets into []rune(s).
func Fold(s string) []rune {
	runes := []rune(s)
	for i, r := range runes {
		runes[i] = unicode.ToLower(r)
	}
	return runes
}

func compileRunes(pattern string) ([]rune, error) {
	if pattern == "" {
		return nil, fmt.Errorf("%w: empty pattern", ErrInvalidArgument)
	}
	return Fold(pattern), nil
}
