package models

// KeywordMatch is the count recorded for one keyword in one document.
// IsFuzzy is set only when the exact count was zero and the fuzzy count is what was recorded.
type KeywordMatch struct {
	Keyword string `json:"keyword"`
	Count   int    `json:"count"`
	IsFuzzy bool   `json:"is_fuzzy"`
}

// DocumentResult is one ranked CV in a search response.
type DocumentResult struct {
	DocumentID     string         `json:"document_id"`
	ApplicantID    string         `json:"applicant_id"`
	Name           string         `json:"name"`
	CVPath         string         `json:"cv_path"`
	TotalMatches   int            `json:"total_matches"`
	KeywordMatches []KeywordMatch `json:"keyword_matches"`
	UsedFuzzy      bool           `json:"used_fuzzy"`
	Rank           int            `json:"rank"`
}

// SearchResponse is the response for a search request.
type SearchResponse struct {
	Results   []*DocumentResult `json:"results"`
	Total     int               `json:"total"`
	QueryTime int64             `json:"query_time_ms"`
	Query     string            `json:"query"`
	Keywords  []string          `json:"keywords"`
	Algorithm string            `json:"algorithm"`
	// ExactTime and FuzzyTime are summed across workers, so together they can exceed QueryTime.
	ExactTime int64 `json:"exact_time_ms"`
	FuzzyTime int64 `json:"fuzzy_time_ms"`
	Scanned   int   `json:"scanned"`
}
