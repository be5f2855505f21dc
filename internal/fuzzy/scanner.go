package fuzzy

import (
	"context"
	"fmt"

	"github.com/hyperjump/cvsearch/internal/match"
)

// DefaultMaxDistance is the edit distance a window may have from the keyword and
// still count as a fuzzy match.
const DefaultMaxDistance = 2

// ctxCheckInterval is how many windows are scored between context checks.
const ctxCheckInterval = 1024

// Scanner slides a window as wide as the keyword across a text, one rune at a
// time, and reports the windows whose Distance to the keyword is within maxDistance.
// Windows overlap, so this is window counting, not substring search: with a max
// distance of 0 it counts every window equal to the keyword, including overlapping ones.
type Scanner struct {
	maxDistance int
}

// Option configures a Scanner.
type Option func(*Scanner)

// WithMaxDistance sets the maximum edit distance for a window to qualify.
// Negative values are ignored.
func WithMaxDistance(d int) Option {
	return func(s *Scanner) {
		if d >= 0 {
			s.maxDistance = d
		}
	}
}

// NewScanner returns a Scanner with DefaultMaxDistance unless overridden.
func NewScanner(opts ...Option) *Scanner {
	s := &Scanner{maxDistance: DefaultMaxDistance}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// MaxDistance returns the configured threshold.
func (s *Scanner) MaxDistance() int {
	return s.maxDistance
}

// FindAll returns the start of every qualifying window. text must already be
// folded with match.Fold; pattern is folded here.
func (s *Scanner) FindAll(ctx context.Context, text []rune, pattern string) ([]int, error) {
	if pattern == "" {
		return nil, fmt.Errorf("%w: empty pattern", match.ErrInvalidArgument)
	}
	p := match.Fold(pattern)
	m := len(p)
	if len(text) < m {
		return nil, nil
	}
	var (
		t   table
		out []int
	)
	for i := 0; i+m <= len(text); i++ {
		if i%ctxCheckInterval == 0 {
			if err := ctx.Err(); err != nil {
				return nil, err
			}
		}
		if t.distance(text[i:i+m], p) <= s.maxDistance {
			out = append(out, i)
		}
	}
	return out, nil
}

// Count returns the number of qualifying windows.
func (s *Scanner) Count(ctx context.Context, text []rune, pattern string) (int, error) {
	windows, err := s.FindAll(ctx, text, pattern)
	if err != nil {
		return 0, err
	}
	return len(windows), nil
}

// Count counts the windows of text within maxDistance of pattern.
// An empty pattern or a negative maxDistance is an invalid argument.
func Count(text, pattern string, maxDistance int) (int, error) {
	if maxDistance < 0 {
		return 0, fmt.Errorf("%w: negative max distance %d", match.ErrInvalidArgument, maxDistance)
	}
	s := NewScanner(WithMaxDistance(maxDistance))
	return s.Count(context.Background(), match.Fold(text), pattern)
}
