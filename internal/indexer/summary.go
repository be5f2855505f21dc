package indexer

import (
	"context"

	"github.com/hyperjump/cvsearch/internal/cvinfo"
	"github.com/hyperjump/cvsearch/internal/models"
)

// Summary extracts the title and sections of every CV stored for an applicant.
// Sections are read from the raw text since cleaning removes the line structure.
func (idx *Indexer) Summary(ctx context.Context, applicantID string) (*models.ApplicantSummary, error) {
	a, err := idx.storage.GetApplicant(ctx, applicantID)
	if err != nil {
		return nil, err
	}
	details, err := idx.storage.GetDetailsByApplicantID(ctx, applicantID)
	if err != nil {
		return nil, err
	}
	summary := &models.ApplicantSummary{Applicant: a, CVs: make([]models.CVSummary, 0, len(details))}
	for _, d := range details {
		text := d.RawText
		if text == "" {
			text = d.CVText
		}
		info := cvinfo.Extract(text)
		sections := make(map[string][]string, len(info.Sections))
		for s, lines := range info.Sections {
			sections[string(s)] = lines
		}
		summary.CVs = append(summary.CVs, models.CVSummary{
			DetailID: d.ID,
			Role:     d.Role,
			CVPath:   d.CVPath,
			Title:    info.Title,
			Sections: sections,
		})
	}
	return summary, nil
}
