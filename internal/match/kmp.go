package match

// KMP is the Knuth-Morris-Pratt matcher. It reads every text rune exactly once and
// reports overlapping occurrences ("aa" occurs twice in "aaa").
type KMP struct{}

// NewKMP returns a KMP matcher.
func NewKMP() *KMP {
	return new(KMP)
}

func (k *KMP) String() string {
	return "KNUTH-MORRIS-PRATT"
}

// Algorithm implements Matcher.
func (k *KMP) Algorithm() Algorithm {
	return AlgorithmKMP
}

// Compile implements Matcher.
func (k *KMP) Compile(pattern string) (Pattern, error) {
	return CompileKMP(pattern)
}

// Search returns the start of every occurrence of pattern in text.
func (k *KMP) Search(text, pattern string) ([]int, error) {
	return Search(k, text, pattern)
}

// KMPPattern is a folded pattern with its failure table.
type KMPPattern struct {
	pattern []rune
	// failure[i] is the length of the longest proper prefix of pattern[:i+1]
	// that is also a suffix of it.
	failure []int
}

// CompileKMP folds pattern and builds its failure table in O(len(pattern)).
func CompileKMP(pattern string) (*KMPPattern, error) {
	p, err := compileRunes(pattern)
	if err != nil {
		return nil, err
	}
	return &KMPPattern{pattern: p, failure: failureTable(p)}, nil
}

func failureTable(p []rune) []int {
	failure := make([]int, len(p))
	k := 0
	for i := 1; i < len(p); i++ {
		for k > 0 && p[i] != p[k] {
			k = failure[k-1]
		}
		if p[i] == p[k] {
			k++
		}
		failure[i] = k
	}
	return failure
}

// Len implements Pattern.
func (p *KMPPattern) Len() int {
	return len(p.pattern)
}

// FindAll implements Pattern.
func (p *KMPPattern) FindAll(text []rune) []int {
	m := len(p.pattern)
	if m == 0 || len(text) < m {
		return nil
	}
	var out []int
	j := 0
	for i, c := range text {
		for j > 0 && c != p.pattern[j] {
			j = p.failure[j-1]
		}
		if c == p.pattern[j] {
			j++
		}
		if j == m {
			out = append(out, i-m+1)
			j = p.failure[j-1]
		}
	}
	return out
}
