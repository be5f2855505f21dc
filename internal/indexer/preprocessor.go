package indexer

import (
	"crypto/sha256"
	"encoding/hex"
	"strings"

	"github.com/hyperjump/cvsearch/internal/extract"
)

// Preprocess trims text and drops trailing spaces on every line, keeping line breaks
// so section headers stay recognisable.
func Preprocess(text string) string {
	lines := strings.Split(strings.TrimSpace(text), "\n")
	for i, l := range lines {
		lines[i] = strings.TrimRightFunc(l, isSpace)
	}
	return strings.Join(lines, "\n")
}

func isSpace(r rune) bool {
	return r == ' ' || r == '\t' || r == '\r' || r == '\f' || r == '\v'
}

// prepareText returns the raw text kept for section extraction and the text the
// search engine scans. With clean set the search text is extract.CleanText(raw).
func prepareText(text string, clean bool) (raw, search string) {
	raw = Preprocess(text)
	if clean {
		return raw, extract.CleanText(raw)
	}
	return raw, raw
}

func contentHash(text string) string {
	sum := sha256.Sum256([]byte(text))
	return hex.EncodeToString(sum[:])
}
