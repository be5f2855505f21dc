// Package cli renders search results, applicant summaries and store status for the terminal.
package cli

import (
	"encoding/json"
	"fmt"
	"io"
	"strings"

	"github.com/hyperjump/cvsearch/internal/cvinfo"
	"github.com/hyperjump/cvsearch/internal/models"
	"github.com/hyperjump/cvsearch/pkg/utils"
)

// SearchOutputFormat is the format for search result output.
type SearchOutputFormat string

const (
	// OutputText is human-readable text (default).
	OutputText SearchOutputFormat = "text"
	// OutputCompact prints one line per ranked CV.
	OutputCompact SearchOutputFormat = "compact"
	// OutputJSON is structured JSON for machine consumption.
	OutputJSON SearchOutputFormat = "json"
)

// maxLineLen bounds section lines in text summaries.
const maxLineLen = 120

// ParseOutputFormat accepts text, compact or json (case-insensitive). Empty means text.
func ParseOutputFormat(s string) (SearchOutputFormat, error) {
	switch f := SearchOutputFormat(strings.ToLower(strings.TrimSpace(s))); f {
	case "":
		return OutputText, nil
	case OutputText, OutputCompact, OutputJSON:
		return f, nil
	}
	return "", fmt.Errorf("unknown output format %q (use text, compact or json)", s)
}

// WriteSearchResults writes search results to w in the given format.
// Use OutputJSON for parseable output consumable by other apps.
func WriteSearchResults(w io.Writer, response *models.SearchResponse, format SearchOutputFormat) error {
	switch format {
	case OutputJSON:
		return writeJSON(w, response)
	case OutputCompact:
		writeSearchResultsCompact(w, response)
		return nil
	default:
		writeSearchResultsText(w, response)
		return nil
	}
}

func writeJSON(w io.Writer, v any) error {
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	return enc.Encode(v)
}

func writeSearchResultsText(w io.Writer, response *models.SearchResponse) {
	fmt.Fprintf(w, "\n%s matched %q using %s (%s scanned) in %dms\n",
		utils.Plural(response.Total, "CV"), strings.Join(response.Keywords, ", "),
		strings.ToUpper(response.Algorithm), utils.Plural(response.Scanned, "CV"), response.QueryTime)
	fmt.Fprintf(w, "Exact matching: %dms | Fuzzy matching: %dms\n\n", response.ExactTime, response.FuzzyTime)
	if response.Total == 0 {
		fmt.Fprintln(w, "No matching CVs.")
		return
	}
	for _, result := range response.Results {
		writeOneResult(w, result)
	}
}

func writeOneResult(w io.Writer, result *models.DocumentResult) {
	fmt.Fprintf(w, "─────────────────────────────────────────────────────────\n")
	fmt.Fprintf(w, "Rank: %d | %s | Matches: %d\n", result.Rank, displayName(result), result.TotalMatches)
	if result.CVPath != "" {
		fmt.Fprintf(w, "CV: %s\n", result.CVPath)
	}
	fmt.Fprintf(w, "ID: %s\n", result.DocumentID)
	for _, km := range result.KeywordMatches {
		if km.Count == 0 {
			continue
		}
		kind := "exact"
		if km.IsFuzzy {
			kind = "fuzzy"
		}
		fmt.Fprintf(w, "  %s: %d (%s)\n", km.Keyword, km.Count, kind)
	}
	fmt.Fprintln(w)
}

func writeSearchResultsCompact(w io.Writer, response *models.SearchResponse) {
	for _, result := range response.Results {
		var parts []string
		for _, km := range result.KeywordMatches {
			if km.Count == 0 {
				continue
			}
			sep := "="
			if km.IsFuzzy {
				sep = "~"
			}
			parts = append(parts, fmt.Sprintf("%s%s%d", km.Keyword, sep, km.Count))
		}
		fmt.Fprintf(w, "%d\t%d\t%s\t%s\t%s\n", result.Rank, result.TotalMatches,
			displayName(result), strings.Join(parts, " "), result.CVPath)
	}
}

func displayName(result *models.DocumentResult) string {
	if result.Name != "" {
		return result.Name
	}
	return result.ApplicantID
}

// WriteSummary writes an applicant's CV summaries as text, or JSON when format is OutputJSON.
func WriteSummary(w io.Writer, summary *models.ApplicantSummary, format SearchOutputFormat) error {
	if format == OutputJSON {
		return writeJSON(w, summary)
	}
	a := summary.Applicant
	fmt.Fprintf(w, "%s (%s)\n", a.FullName(), a.ID)
	for _, field := range []struct{ label, value string }{
		{"Date of birth", a.DateOfBirth},
		{"Address", a.Address},
		{"Phone", a.PhoneNumber},
	} {
		if field.value != "" {
			fmt.Fprintf(w, "%s: %s\n", field.label, field.value)
		}
	}
	if len(summary.CVs) == 0 {
		fmt.Fprintln(w, "\nNo CVs stored.")
		return nil
	}
	for _, cv := range summary.CVs {
		fmt.Fprintf(w, "\n─── %s", cv.DetailID)
		if cv.Role != "" {
			fmt.Fprintf(w, " | %s", cv.Role)
		}
		fmt.Fprintln(w)
		if cv.CVPath != "" {
			fmt.Fprintf(w, "CV: %s\n", cv.CVPath)
		}
		if cv.Title != "" {
			fmt.Fprintf(w, "Title: %s\n", cv.Title)
		}
		for _, s := range cvinfo.Order {
			lines, ok := cv.Sections[string(s)]
			if !ok {
				continue
			}
			fmt.Fprintf(w, "\n%s:\n", strings.ToUpper(string(s)))
			if len(lines) == 0 {
				fmt.Fprintln(w, "  (empty)")
			}
			for _, line := range lines {
				fmt.Fprintf(w, "  %s\n", utils.Truncate(line, maxLineLen))
			}
		}
	}
	return nil
}

// WriteApplicants writes one applicant per line (id, name, phone), or JSON when format is OutputJSON.
func WriteApplicants(w io.Writer, applicants []*models.Applicant, format SearchOutputFormat) error {
	if format == OutputJSON {
		return writeJSON(w, applicants)
	}
	if len(applicants) == 0 {
		fmt.Fprintln(w, "No applicants.")
		return nil
	}
	for _, a := range applicants {
		fmt.Fprintf(w, "%s\t%s\t%s\n", a.ID, a.FullName(), a.PhoneNumber)
	}
	return nil
}

// WriteStatus writes store counts and search settings as text, or JSON when format is OutputJSON.
func WriteStatus(w io.Writer, status *models.Status, format SearchOutputFormat) error {
	if format == OutputJSON {
		return writeJSON(w, status)
	}
	fmt.Fprintf(w, "Applicants: %d\n", status.Applicants)
	fmt.Fprintf(w, "CVs:        %d\n", status.CVs)
	fmt.Fprintf(w, "Database:   %s (%s)\n", status.DatabasePath, formatBytes(status.DiskUsageBytes))
	fmt.Fprintf(w, "Search:     %s, top %d, max distance %d\n",
		strings.ToUpper(status.Algorithm), status.DefaultTopN, status.MaxDistance)
	return nil
}

func formatBytes(n int64) string {
	const unit = 1024
	if n < unit {
		return fmt.Sprintf("%d B", n)
	}
	div, exp := int64(unit), 0
	for m := n / unit; m >= unit; m /= unit {
		div *= unit
		exp++
	}
	return fmt.Sprintf("%.1f %ciB", float64(n)/float64(div), "KMGTPE"[exp])
}
