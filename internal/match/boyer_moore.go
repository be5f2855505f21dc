package match

// BoyerMoore compares the pattern right to left and skips ahead using a
// last-occurrence table (bad-character rule). There is no good-suffix rule, so the
// worst case is O(n*m), but typical keyword searches read far fewer than n runes.
// Occurrences are reported without overlap: after a match the search resumes at
// match+len(pattern).
type BoyerMoore struct{}

// NewBoyerMoore returns a Boyer-Moore matcher.
func NewBoyerMoore() *BoyerMoore {
	return new(BoyerMoore)
}

func (bm *BoyerMoore) String() string {
	return "BOYER-MOORE"
}

// Algorithm implements Matcher.
func (bm *BoyerMoore) Algorithm() Algorithm {
	return AlgorithmBoyerMoore
}

// Compile implements Matcher.
func (bm *BoyerMoore) Compile(pattern string) (Pattern, error) {
	return CompileBoyerMoore(pattern)
}

// Index returns the leftmost occurrence of pattern in text, or -1.
// A text shorter than the pattern is not an error; it yields -1.
func (bm *BoyerMoore) Index(text, pattern string) (int, error) {
	p, err := CompileBoyerMoore(pattern)
	if err != nil {
		return -1, err
	}
	return p.IndexFrom(Fold(text), 0), nil
}

// SearchAll returns the start of every non-overlapping occurrence of pattern in text.
func (bm *BoyerMoore) SearchAll(text, pattern string) ([]int, error) {
	return Search(bm, text, pattern)
}

// BoyerMoorePattern is a folded pattern with its last-occurrence table.
type BoyerMoorePattern struct {
	pattern []rune
	last    map[rune]int
}

// CompileBoyerMoore folds pattern and records the rightmost index of every rune in it.
// Runes that do not appear in the pattern have last occurrence -1.
func CompileBoyerMoore(pattern string) (*BoyerMoorePattern, error) {
	p, err := compileRunes(pattern)
	if err != nil {
		return nil, err
	}
	last := make(map[rune]int, len(p))
	for i, r := range p {
		last[r] = i
	}
	return &BoyerMoorePattern{pattern: p, last: last}, nil
}

// Len implements Pattern.
func (p *BoyerMoorePattern) Len() int {
	return len(p.pattern)
}

func (p *BoyerMoorePattern) lastOccurrence(r rune) int {
	if i, ok := p.last[r]; ok {
		return i
	}
	return -1
}

// IndexFrom returns the first occurrence starting at or after from, or -1.
// text must already be folded.
func (p *BoyerMoorePattern) IndexFrom(text []rune, from int) int {
	m, n := len(p.pattern), len(text)
	if from < 0 {
		from = 0
	}
	if m == 0 || n-from < m {
		return -1
	}
	for s := from; s <= n-m; {
		j := m - 1
		for j >= 0 && p.pattern[j] == text[s+j] {
			j--
		}
		if j < 0 {
			return s
		}
		s += max(1, j-p.lastOccurrence(text[s+j]))
	}
	return -1
}

// FindAll implements Pattern.
func (p *BoyerMoorePattern) FindAll(text []rune) []int {
	m := len(p.pattern)
	var out []int
	for from := 0; len(text)-from >= m; {
		i := p.IndexFrom(text, from)
		if i < 0 {
			break
		}
		out = append(out, i)
		from = i + m
	}
	return out
}
