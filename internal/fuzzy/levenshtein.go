// Package fuzzy provides case-insensitive Levenshtein distance and a sliding-window
// approximate keyword scanner.
package fuzzy

import "github.com/hyperjump/cvsearch/internal/match"

// Distance returns the minimum number of single-rune insertions, deletions or
// substitutions needed to turn a into b. Runes that are equal after lowercasing
// cost nothing, so Distance("Go", "gO") == 0.
func Distance(a, b string) int {
	var t table
	return t.distance(match.Fold(a), match.Fold(b))
}

// table is a reusable (len(a)+1) x (len(b)+1) DP matrix stored row-major.
// The scanner keeps one per scan so every window reuses the same backing slice.
type table struct {
	cells []int
}

// distance fills the full DP matrix for already folded a and b and returns the
// bottom-right cell.
func (t *table) distance(a, b []rune) int {
	rows, cols := len(a)+1, len(b)+1
	if need := rows * cols; cap(t.cells) < need {
		t.cells = make([]int, need)
	} else {
		t.cells = t.cells[:need]
	}
	d := t.cells
	at := func(i, j int) int { return i*cols + j }

	for i := 0; i < rows; i++ {
		d[at(i, 0)] = i
	}
	for j := 0; j < cols; j++ {
		d[at(0, j)] = j
	}
	for i := 1; i < rows; i++ {
		for j := 1; j < cols; j++ {
			cost := 1
			if a[i-1] == b[j-1] {
				cost = 0
			}
			d[at(i, j)] = min3(
				d[at(i-1, j)]+1,      // deletion
				d[at(i, j-1)]+1,      // insertion
				d[at(i-1, j-1)]+cost, // substitution
			)
		}
	}
	return d[at(rows-1, cols-1)]
}

func min3(a, b, c int) int {
	if a <= b && a <= c {
		return a
	}
	if b <= c {
		return b
	}
	return c
}
