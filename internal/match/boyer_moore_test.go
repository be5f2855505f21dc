package match

import (
	"errors"
	"reflect"
	"testing"
)

func TestBoyerMooreIndex(t *testing.T) {
	tests := []struct {
		name    string
		text    string
		pattern string
	}{
		{"textbook", "bbacabbadcabacabaababb", "abacab"},
		{"not found", "bbacabbadcabacabaababb", "zzz"},
		{"text shorter than pattern", "ab", "abc"},
		{"mixed case", "Senior GOLANG Engineer", "golang"},
		{"digits and punctuation", "Python3.11, Node.js 20", "node.js"},
		{"unicode", "Ingénieur logiciel", "génieur"},
		{"match at end", "skills: go", "go"},
	}
	bm := NewBoyerMoore()
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			want := -1
			if oracle := bruteForce(tt.text, tt.pattern); len(oracle) > 0 {
				want = oracle[0]
			}
			got, err := bm.Index(tt.text, tt.pattern)
			if err != nil {
				t.Fatalf("Index: %v", err)
			}
			if got != want {
				t.Errorf("Index(%q, %q) = %d, want %d", tt.text, tt.pattern, got, want)
			}
		})
	}
}

func TestBoyerMooreIndex_emptyPattern(t *testing.T) {
	got, err := NewBoyerMoore().Index("text", "")
	if !errors.Is(err, ErrInvalidArgument) {
		t.Errorf("err = %v, want ErrInvalidArgument", err)
	}
	if got != -1 {
		t.Errorf("Index = %d, want -1", got)
	}
}

func TestBoyerMooreSearchAll(t *testing.T) {
	tests := []struct {
		name    string
		text    string
		pattern string
		want    []int
	}{
		{"repeated", "python, Python and PYTHON", "python", []int{0, 8, 19}},
		{"non-overlapping", "aaaaa", "aa", []int{0, 2}},
		{"adjacent", "abcabc", "abc", []int{0, 3}},
		{"none", "java developer", "rust", nil},
		{"empty text", "", "rust", nil},
	}
	bm := NewBoyerMoore()
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := bm.SearchAll(tt.text, tt.pattern)
			if err != nil {
				t.Fatalf("SearchAll: %v", err)
			}
			if !reflect.DeepEqual(got, tt.want) {
				t.Errorf("SearchAll(%q, %q) = %v, want %v", tt.text, tt.pattern, got, tt.want)
			}
		})
	}
}

func TestBoyerMoorePattern_lastOccurrence(t *testing.T) {
	p, err := CompileBoyerMoore("AbacAb")
	if err != nil {
		t.Fatal(err)
	}
	cases := map[rune]int{'a': 4, 'b': 5, 'c': 3, 'z': -1, '#': -1, 'A': -1}
	for r, want := range cases {
		if got := p.lastOccurrence(r); got != want {
			t.Errorf("lastOccurrence(%q) = %d, want %d", r, got, want)
		}
	}
}

func TestBoyerMoorePattern_IndexFrom(t *testing.T) {
	p, _ := CompileBoyerMoore("go")
	text := Fold("go go go")
	if got := p.IndexFrom(text, 1); got != 3 {
		t.Errorf("IndexFrom(1) = %d, want 3", got)
	}
	if got := p.IndexFrom(text, 7); got != -1 {
		t.Errorf("IndexFrom(7) = %d, want -1", got)
	}
	if got := p.IndexFrom(text, -4); got != 0 {
		t.Errorf("IndexFrom(-4) = %d, want 0", got)
	}
}

func BenchmarkBoyerMoore(b *testing.B) {
	p, _ := CompileBoyerMoore("kubernetes")
	text := Fold("Experienced engineer with Go, Docker, Terraform and Kubernetes in production. ")
	for i := 0; i < b.N; i++ {
		p.FindAll(text)
	}
}
