// Package indexer ingests CVs into the applicant store: it extracts text from CV files,
// derives applicant records and keeps stored text in sync with files on disk.
package indexer

import (
	"context"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/google/uuid"
	"go.uber.org/zap"
	"golang.org/x/text/cases"
	"golang.org/x/text/language"

	"github.com/hyperjump/cvsearch/internal/config"
	"github.com/hyperjump/cvsearch/internal/extract"
	"github.com/hyperjump/cvsearch/internal/fileid"
	"github.com/hyperjump/cvsearch/internal/models"
	"github.com/hyperjump/cvsearch/internal/storage"
)

// ErrInvalidInput is wrapped when an applicant registration is missing required data.
var ErrInvalidInput = errors.New("invalid input")

// Indexer stores applicants and their CV text.
type Indexer struct {
	storage   storage.Storage
	extractor *extract.Extractor
	config    *config.IngestConfig
	logger    *zap.Logger // optional; when set, logs debug events
}

// IndexerOption configures an Indexer.
type IndexerOption func(*Indexer)

// WithLogger sets a logger for debug output (file ingested, applicant deleted, etc.).
func WithLogger(l *zap.Logger) IndexerOption {
	return func(idx *Indexer) { idx.logger = l }
}

// NewIndexer creates an indexer with the given dependencies.
// extractor may be nil; when nil, files are read as plain text. A nil cfg uses the ingest defaults.
func NewIndexer(store storage.Storage, extractor *extract.Extractor, cfg *config.IngestConfig, opts ...IndexerOption) *Indexer {
	if cfg == nil {
		var c config.Config
		config.ApplyDefaults(&c)
		cfg = &c.Ingest
	}
	idx := &Indexer{
		storage:   store,
		extractor: extractor,
		config:    cfg,
	}
	for _, opt := range opts {
		opt(idx)
	}
	return idx
}

// RegisterApplicant stores an applicant together with one CV. The CV comes from input.CVText
// when set, otherwise it is extracted from input.CVPath, whose extension must be in the
// configured list. An existing applicant with the same ID gets the CV attached and any
// non-empty profile fields updated. Registering an already stored CV path without an ID
// updates that CV for its current applicant; with a different ID the CV moves to that
// applicant, and the previous applicant is deleted once it has no CV left.
func (idx *Indexer) RegisterApplicant(ctx context.Context, input *models.ApplicantInput) (*models.Applicant, *models.ApplicationDetail, error) {
	if input.CVText == "" && input.CVPath == "" {
		return nil, nil, fmt.Errorf("%w: cv_text or cv_path is required", ErrInvalidInput)
	}
	text := input.CVText
	var (
		cvPath   string
		info     os.FileInfo
		previous *models.ApplicationDetail
	)
	if input.CVPath != "" {
		abs, err := filepath.Abs(input.CVPath)
		if err != nil {
			return nil, nil, fmt.Errorf("absolute path: %w", err)
		}
		if !extract.Supported(abs, idx.config.Extensions) {
			return nil, nil, fmt.Errorf("%w: extension %q not in allowed list", ErrInvalidInput, filepath.Ext(abs))
		}
		cvPath = abs
		if text == "" {
			if info, err = regularFile(abs); err != nil {
				return nil, nil, err
			}
			if text, err = idx.extractContent(abs); err != nil {
				return nil, nil, fmt.Errorf("extract content: %w", err)
			}
		}
		previous, err = idx.storage.GetDetailByPath(ctx, abs)
		if err != nil && !errors.Is(err, storage.ErrNotFound) {
			return nil, nil, err
		}
	}

	applicant := &models.Applicant{
		ID:          input.ID,
		FirstName:   input.FirstName,
		LastName:    input.LastName,
		DateOfBirth: input.DateOfBirth,
		Address:     input.Address,
		PhoneNumber: input.PhoneNumber,
	}
	role := input.Role
	if previous != nil {
		if applicant.ID == "" {
			applicant.ID = previous.ApplicantID
		}
		if role == "" {
			role = previous.Role
		}
	}
	applicant, err := idx.upsertApplicant(ctx, applicant, cvPath)
	if err != nil {
		return nil, nil, err
	}

	detailID := uuid.New().String()
	if previous != nil {
		detailID = previous.ID
	} else if cvPath != "" {
		detailID = fileid.FromPath(cvPath)
	}
	raw, search := prepareText(text, idx.config.CleanTextOrDefault())
	detail := &models.ApplicationDetail{
		ID:          detailID,
		ApplicantID: applicant.ID,
		Role:        role,
		CVPath:      cvPath,
		CVText:      search,
		RawText:     raw,
		ContentHash: contentHash(raw),
	}
	if info != nil {
		detail.ModTime = info.ModTime().UnixNano()
		detail.Size = info.Size()
	}
	if err := idx.saveDetail(ctx, detail); err != nil {
		return nil, nil, err
	}
	if previous != nil && previous.ApplicantID != applicant.ID {
		idx.debug("indexer cv moved", zap.String("detail_id", detail.ID),
			zap.String("from", previous.ApplicantID), zap.String("to", applicant.ID))
		if err := idx.deleteIfOrphaned(ctx, previous.ApplicantID); err != nil {
			return nil, nil, err
		}
	}
	idx.debug("indexer applicant registered", zap.String("applicant_id", applicant.ID), zap.String("detail_id", detail.ID))
	return applicant, detail, nil
}

// upsertApplicant merges the non-empty fields of a into the stored applicant with the same ID,
// or creates a. A new applicant without a name is named after cvPath.
func (idx *Indexer) upsertApplicant(ctx context.Context, a *models.Applicant, cvPath string) (*models.Applicant, error) {
	if a.ID == "" {
		a.ID = uuid.New().String()
	} else if existing, err := idx.storage.GetApplicant(ctx, a.ID); err == nil {
		mergeApplicant(existing, a)
		if err := idx.storage.UpdateApplicant(ctx, existing); err != nil {
			return nil, fmt.Errorf("failed to update applicant: %w", err)
		}
		return existing, nil
	} else if !errors.Is(err, storage.ErrNotFound) {
		return nil, err
	}
	if a.FirstName == "" && a.LastName == "" && cvPath != "" {
		a.FirstName, a.LastName = NameFromPath(cvPath)
	}
	if err := idx.storage.CreateApplicant(ctx, a); err != nil {
		return nil, fmt.Errorf("failed to store applicant: %w", err)
	}
	return a, nil
}

func mergeApplicant(dst, src *models.Applicant) {
	set := func(d *string, s string) {
		if s != "" {
			*d = s
		}
	}
	set(&dst.FirstName, src.FirstName)
	set(&dst.LastName, src.LastName)
	set(&dst.DateOfBirth, src.DateOfBirth)
	set(&dst.Address, src.Address)
	set(&dst.PhoneNumber, src.PhoneNumber)
}

// saveDetail updates the stored detail with the same ID, or creates it.
func (idx *Indexer) saveDetail(ctx context.Context, d *models.ApplicationDetail) error {
	if _, err := idx.storage.GetDetail(ctx, d.ID); err == nil {
		if err := idx.storage.UpdateDetail(ctx, d); err != nil {
			return fmt.Errorf("failed to update application detail: %w", err)
		}
		return nil
	} else if !errors.Is(err, storage.ErrNotFound) {
		return err
	}
	if err := idx.storage.CreateDetail(ctx, d); err != nil {
		return fmt.Errorf("failed to store application detail: %w", err)
	}
	return nil
}

// IndexFile ingests one CV file. The detail ID is derived from the absolute path so
// re-ingesting updates the same record; the applicant is created from the file name the
// first time. If the file's extension is not in the configured list it is rejected.
// Skips the file if it is already stored with the same mtime and size.
func (idx *Indexer) IndexFile(ctx context.Context, path string) error {
	idx.debug("indexer indexing file", zap.String("path", path))
	absPath, err := filepath.Abs(path)
	if err != nil {
		return fmt.Errorf("absolute path: %w", err)
	}
	if !extract.Supported(absPath, idx.config.Extensions) {
		return fmt.Errorf("%w: extension %q not in allowed list", ErrInvalidInput, filepath.Ext(absPath))
	}
	info, err := regularFile(absPath)
	if err != nil {
		return err
	}

	input := &models.ApplicantInput{CVPath: absPath}
	existing, err := idx.storage.GetDetailByPath(ctx, absPath)
	switch {
	case err == nil:
		if existing.ModTime == info.ModTime().UnixNano() && existing.Size == info.Size() {
			idx.debug("indexer skipping unchanged file", zap.String("path", absPath))
			return nil
		}
	case errors.Is(err, storage.ErrNotFound):
	default:
		return err
	}

	_, detail, err := idx.RegisterApplicant(ctx, input)
	if err != nil {
		return err
	}
	idx.debug("indexer file indexed", zap.String("path", absPath), zap.String("detail_id", detail.ID))
	return nil
}

// IndexDirectory walks dir and ingests each regular file with an allowed extension,
// descending into subdirectories when the ingest config is recursive. A failing file is
// logged and skipped. Returns the number of files processed and the joined per-file errors.
func (idx *Indexer) IndexDirectory(ctx context.Context, dir string) (int, error) {
	absDir, err := filepath.Abs(dir)
	if err != nil {
		return 0, fmt.Errorf("absolute path: %w", err)
	}
	info, err := os.Stat(absDir)
	if err != nil {
		return 0, fmt.Errorf("stat directory: %w", err)
	}
	if !info.IsDir() {
		return 0, fmt.Errorf("not a directory: %s", absDir)
	}
	recursive := idx.config.RecursiveOrDefault()

	var (
		n    int
		errs []error
	)
	walkErr := filepath.WalkDir(absDir, func(path string, d os.DirEntry, walkErr error) error {
		if walkErr != nil {
			return walkErr
		}
		if err := ctx.Err(); err != nil {
			return err
		}
		if d.IsDir() {
			if path != absDir && !recursive {
				return filepath.SkipDir
			}
			return nil
		}
		if !extract.Supported(path, idx.config.Extensions) {
			return nil
		}
		// Resolve symlinks so we only index regular files
		if finfo, statErr := os.Stat(path); statErr != nil || !finfo.Mode().IsRegular() {
			return nil
		}
		if indexErr := idx.IndexFile(ctx, path); indexErr != nil {
			if idx.logger != nil {
				idx.logger.Warn("indexer failed to ingest file", zap.String("path", path), zap.Error(indexErr))
			}
			errs = append(errs, fmt.Errorf("%s: %w", path, indexErr))
			return nil
		}
		n++
		return nil
	})
	if walkErr != nil {
		errs = append(errs, walkErr)
	}
	return n, errors.Join(errs...)
}

// RemoveFile deletes the CV ingested from path. An applicant left without any CV is deleted too.
// Removing a path that was never ingested is not an error.
func (idx *Indexer) RemoveFile(ctx context.Context, path string) error {
	absPath, err := filepath.Abs(path)
	if err != nil {
		return fmt.Errorf("absolute path: %w", err)
	}
	detail, err := idx.storage.GetDetailByPath(ctx, absPath)
	if errors.Is(err, storage.ErrNotFound) {
		return nil
	}
	if err != nil {
		return err
	}
	if err := idx.storage.DeleteDetail(ctx, detail.ID); err != nil {
		return fmt.Errorf("failed to delete application detail: %w", err)
	}
	if err := idx.deleteIfOrphaned(ctx, detail.ApplicantID); err != nil {
		return err
	}
	idx.debug("indexer file removed", zap.String("path", absPath), zap.String("detail_id", detail.ID))
	return nil
}

// deleteIfOrphaned deletes the applicant when no CV of theirs is left.
func (idx *Indexer) deleteIfOrphaned(ctx context.Context, applicantID string) error {
	remaining, err := idx.storage.GetDetailsByApplicantID(ctx, applicantID)
	if err != nil {
		return err
	}
	if len(remaining) > 0 {
		return nil
	}
	if err := idx.storage.DeleteApplicant(ctx, applicantID); err != nil && !errors.Is(err, storage.ErrNotFound) {
		return fmt.Errorf("failed to delete applicant: %w", err)
	}
	return nil
}

// DeleteApplicant removes an applicant and all of their CVs.
func (idx *Indexer) DeleteApplicant(ctx context.Context, id string) error {
	idx.debug("indexer deleting applicant", zap.String("id", id))
	if err := idx.storage.DeleteApplicant(ctx, id); err != nil {
		return fmt.Errorf("failed to delete applicant: %w", err)
	}
	return nil
}

func (idx *Indexer) extractContent(path string) (string, error) {
	if idx.extractor != nil {
		return idx.extractor.Extract(path)
	}
	content, err := os.ReadFile(path)
	if err != nil {
		return "", err
	}
	return string(content), nil
}

func (idx *Indexer) debug(msg string, fields ...zap.Field) {
	if idx.logger != nil {
		idx.logger.Debug(msg, fields...)
	}
}

func regularFile(path string) (os.FileInfo, error) {
	info, err := os.Stat(path)
	if err != nil {
		return nil, fmt.Errorf("stat file: %w", err)
	}
	if !info.Mode().IsRegular() {
		return nil, fmt.Errorf("not a regular file: %s", path)
	}
	return info, nil
}

// NameFromPath guesses first and last name from a CV file name such as
// "ada_lovelace.pdf" or "Alan-Mathison-Turing_CV.docx". A trailing "cv" or "resume" word is dropped.
func NameFromPath(path string) (first, last string) {
	base := strings.TrimSuffix(filepath.Base(path), filepath.Ext(path))
	words := strings.FieldsFunc(base, func(r rune) bool {
		return r == '_' || r == '-' || r == '.' || r == ' '
	})
	if n := len(words); n > 1 {
		switch strings.ToLower(words[n-1]) {
		case "cv", "resume":
			words = words[:n-1]
		}
	}
	if len(words) == 0 {
		return "", ""
	}
	caser := cases.Title(language.English)
	for i, w := range words {
		words[i] = caser.String(w)
	}
	return words[0], strings.Join(words[1:], " ")
}
