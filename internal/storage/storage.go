// Package storage defines the persistence interface for applicants and their CVs.
package storage

import (
	"context"
	"errors"

	"github.com/hyperjump/cvsearch/internal/models"
)

// ErrNotFound is wrapped by lookups that match no row.
var ErrNotFound = errors.New("not found")

// Storage defines applicant and application detail persistence operations.
type Storage interface {
	// Applicant operations
	CreateApplicant(ctx context.Context, a *models.Applicant) error
	GetApplicant(ctx context.Context, id string) (*models.Applicant, error)
	UpdateApplicant(ctx context.Context, a *models.Applicant) error
	DeleteApplicant(ctx context.Context, id string) error
	ListApplicants(ctx context.Context, offset, limit int) ([]*models.Applicant, error)

	// Application detail operations
	CreateDetail(ctx context.Context, d *models.ApplicationDetail) error
	UpdateDetail(ctx context.Context, d *models.ApplicationDetail) error
	GetDetail(ctx context.Context, id string) (*models.ApplicationDetail, error)
	GetDetailByPath(ctx context.Context, cvPath string) (*models.ApplicationDetail, error)
	GetDetailsByApplicantID(ctx context.Context, applicantID string) ([]*models.ApplicationDetail, error)
	DeleteDetail(ctx context.Context, id string) error

	// ListCorpus returns every stored CV in insertion order, ready for searching.
	ListCorpus(ctx context.Context) ([]*models.CorpusDocument, error)

	// Stats
	CountApplicants(ctx context.Context) (int64, error)
	CountDetails(ctx context.Context) (int64, error)

	Close() error
}
