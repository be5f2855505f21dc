package models

// ApplicantRecord is an applicant together with every CV stored for them.
type ApplicantRecord struct {
	*Applicant
	Details []*ApplicationDetail `json:"details"`
}

// CVSummary is the title and sections extracted from one stored CV.
type CVSummary struct {
	DetailID string              `json:"detail_id"`
	Role     string              `json:"role,omitempty"`
	CVPath   string              `json:"cv_path,omitempty"`
	Title    string              `json:"title"`
	Sections map[string][]string `json:"sections"`
}

// ApplicantSummary is the structured view of all CVs of an applicant.
type ApplicantSummary struct {
	Applicant *Applicant  `json:"applicant"`
	CVs       []CVSummary `json:"cvs"`
}

// Status reports store size and the effective search settings.
type Status struct {
	Applicants     int64  `json:"applicants"`
	CVs            int64  `json:"cvs"`
	DatabasePath   string `json:"database_path"`
	DiskUsageBytes int64  `json:"disk_usage_bytes"`
	Algorithm      string `json:"default_algorithm"`
	DefaultTopN    int    `json:"default_top_n"`
	MaxDistance    int    `json:"max_distance"`
}
