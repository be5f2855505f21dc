// Package cvinfo splits raw CV text into a title and the usual CV sections
// (skills, summary, highlights, accomplishments, experience, education).
//
// A section starts at a line that consists only of a header such as "Skills",
// "Technical Skills:" or "Work History", and runs until the next header line.
package cvinfo

import (
	"regexp"
	"strings"

	"golang.org/x/text/cases"
	"golang.org/x/text/language"
)

// Section names a CV section.
type Section string

const (
	Skills          Section = "skills"
	Summary         Section = "summary"
	Highlights      Section = "highlights"
	Accomplishments Section = "accomplishments"
	Experience      Section = "experience"
	Education       Section = "education"
)

// Order is the order sections are matched and reported in.
var Order = []Section{Skills, Summary, Highlights, Accomplishments, Experience, Education}

// titleScanLines is how many non-empty lines from the top are considered for the title.
const titleScanLines = 10

// titleMaxWords rejects sentences that happen to consist of letters only.
const titleMaxWords = 4

var headers = map[Section]*regexp.Regexp{
	Skills:          header(`skills?`),
	Summary:         header(`summary?|profile?`),
	Highlights:      header(`highlights?`),
	Accomplishments: header(`accomplishments?`),
	Experience:      header(`experience?|work\s+history?`),
	Education:       header(`education?`),
}

// header builds a whole-line matcher: an optional qualifying word, the header word, optional colon.
func header(words string) *regexp.Regexp {
	return regexp.MustCompile(`(?i)^\s*(?:\w+\s+)?(?:` + words + `)\s*:?\s*$`)
}

var titleLine = regexp.MustCompile(`^[A-Za-z]{2,}(?:\s+[A-Za-z]{2,})*$`)

// Info is the structured view of one CV.
type Info struct {
	Title    string               `json:"title"`
	Sections map[Section][]string `json:"sections"`
}

// Lines returns the content lines of s, or nil when the CV has no such section.
func (i *Info) Lines(s Section) []string {
	return i.Sections[s]
}

// Extract parses text. Lines are trimmed and empty lines dropped.
// When a header appears twice, the first occurrence wins.
func Extract(text string) *Info {
	lines := strings.Split(strings.ReplaceAll(text, "\r\n", "\n"), "\n")
	info := &Info{Sections: make(map[Section][]string, len(Order))}

	type boundary struct {
		section Section
		line    int
	}
	var bounds []boundary
	for n, line := range lines {
		if s, ok := headerOf(line); ok {
			// Every header line ends the previous section, even a repeated one.
			bounds = append(bounds, boundary{section: s, line: n})
		}
	}

	used := make(map[Section]bool, len(Order))
	for i, b := range bounds {
		if used[b.section] {
			continue
		}
		used[b.section] = true
		end := len(lines)
		if i+1 < len(bounds) {
			end = bounds[i+1].line
		}
		content := make([]string, 0, end-b.line-1)
		for _, line := range lines[b.line+1 : end] {
			if line = strings.TrimSpace(line); line != "" {
				content = append(content, line)
			}
		}
		info.Sections[b.section] = content
	}

	info.Title = extractTitle(lines)
	return info
}

// headerOf reports which section line is a header for, checking sections in Order.
func headerOf(line string) (Section, bool) {
	line = strings.TrimSpace(line)
	if line == "" {
		return "", false
	}
	for _, s := range Order {
		if headers[s].MatchString(line) {
			return s, true
		}
	}
	return "", false
}

// extractTitle returns the first short letters-only line near the top, title-cased.
// Scanning stops at the first section header.
func extractTitle(lines []string) string {
	scanned := 0
	for _, line := range lines {
		line = strings.TrimSpace(line)
		if line == "" {
			continue
		}
		if scanned == titleScanLines {
			break
		}
		scanned++
		if _, ok := headerOf(line); ok {
			break
		}
		if len(strings.Fields(line)) > titleMaxWords {
			continue
		}
		if titleLine.MatchString(line) {
			return cases.Title(language.English).String(line)
		}
	}
	return ""
}
