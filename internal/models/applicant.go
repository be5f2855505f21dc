// Package models defines core data structures for applicants, queries, and search results.
package models

import "time"

// Applicant is a stored applicant profile.
type Applicant struct {
	ID          string    `json:"id" db:"applicant_id"`
	FirstName   string    `json:"first_name" db:"first_name"`
	LastName    string    `json:"last_name" db:"last_name"`
	DateOfBirth string    `json:"date_of_birth,omitempty" db:"date_of_birth"`
	Address     string    `json:"address,omitempty" db:"address"`
	PhoneNumber string    `json:"phone_number,omitempty" db:"phone_number"`
	CreatedAt   time.Time `json:"created_at" db:"created_at"`
	UpdatedAt   time.Time `json:"updated_at" db:"updated_at"`
}

// FullName joins first and last name with a single space.
func (a *Applicant) FullName() string {
	switch {
	case a.FirstName == "":
		return a.LastName
	case a.LastName == "":
		return a.FirstName
	}
	return a.FirstName + " " + a.LastName
}

// ApplicationDetail is one CV submitted by an applicant for a role.
// An applicant may have several details; each one is searched as its own document.
type ApplicationDetail struct {
	ID          string    `json:"id" db:"detail_id"`
	ApplicantID string    `json:"applicant_id" db:"applicant_id"`
	Role        string    `json:"role" db:"applicant_role"`
	CVPath      string    `json:"cv_path" db:"cv_path"`
	CVText      string    `json:"-" db:"cv_text"`
	RawText     string    `json:"-" db:"raw_text"`
	ContentHash string    `json:"content_hash,omitempty" db:"content_hash"`
	ModTime     int64     `json:"-" db:"mtime"`
	Size        int64     `json:"-" db:"size"`
	CreatedAt   time.Time `json:"created_at" db:"created_at"`
}

// ApplicantInput is the input for registering an applicant together with a CV.
// Either CVPath or CVText must be set; when both are, CVText wins and CVPath is stored for reference.
type ApplicantInput struct {
	ID          string `json:"id,omitempty"`
	FirstName   string `json:"first_name"`
	LastName    string `json:"last_name"`
	DateOfBirth string `json:"date_of_birth,omitempty"`
	Address     string `json:"address,omitempty"`
	PhoneNumber string `json:"phone_number,omitempty"`
	Role        string `json:"role,omitempty"`
	CVPath      string `json:"cv_path,omitempty"`
	CVText      string `json:"cv_text,omitempty"`
}

// CorpusDocument is the search engine's view of one CV: an identifier, display data and the text to scan.
type CorpusDocument struct {
	ID          string `json:"id"`
	ApplicantID string `json:"applicant_id"`
	Name        string `json:"name"`
	CVPath      string `json:"cv_path"`
	Text        string `json:"-"`
}
