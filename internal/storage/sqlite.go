// Package storage provides SQLite implementation of the Storage interface.
package storage

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"time"

	_ "github.com/mattn/go-sqlite3"

	"github.com/hyperjump/cvsearch/internal/models"
)

const memoryPath = ":memory:"

// SQLiteStorage implements Storage using SQLite.
type SQLiteStorage struct {
	db   *sql.DB
	path string
}

// NewSQLiteStorage opens or creates a SQLite database at dbPath and initializes the schema.
// Parent directories are created if they do not exist.
func NewSQLiteStorage(dbPath string) (*SQLiteStorage, error) {
	if dir := filepath.Dir(dbPath); dbPath != memoryPath && dir != "." {
		if err := os.MkdirAll(dir, 0755); err != nil {
			return nil, fmt.Errorf("failed to create database directory: %w", err)
		}
	}
	// foreign_keys is per connection; the DSN applies it to every pooled connection.
	db, err := sql.Open("sqlite3", dbPath+"?_foreign_keys=on")
	if err != nil {
		return nil, fmt.Errorf("failed to open database: %w", err)
	}
	if dbPath == memoryPath {
		// Every connection to :memory: is a separate database.
		db.SetMaxOpenConns(1)
	}

	if _, err := db.Exec("PRAGMA journal_mode=WAL"); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("failed to enable WAL: %w", err)
	}

	if err := initSchema(db); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("failed to initialize schema: %w", err)
	}

	return &SQLiteStorage{db: db, path: dbPath}, nil
}

func initSchema(db *sql.DB) error {
	schema := `
	CREATE TABLE IF NOT EXISTS applicant_profiles (
		applicant_id TEXT PRIMARY KEY,
		first_name TEXT NOT NULL DEFAULT '',
		last_name TEXT NOT NULL DEFAULT '',
		date_of_birth TEXT,
		address TEXT,
		phone_number TEXT,
		created_at TIMESTAMP DEFAULT CURRENT_TIMESTAMP,
		updated_at TIMESTAMP DEFAULT CURRENT_TIMESTAMP
	);

	CREATE TABLE IF NOT EXISTS applicant_details (
		detail_id TEXT PRIMARY KEY,
		applicant_id TEXT NOT NULL,
		applicant_role TEXT,
		cv_path TEXT,
		cv_text TEXT NOT NULL,
		raw_text TEXT,
		content_hash TEXT,
		mtime INTEGER NOT NULL DEFAULT 0,
		size INTEGER NOT NULL DEFAULT 0,
		created_at TIMESTAMP DEFAULT CURRENT_TIMESTAMP,
		FOREIGN KEY (applicant_id) REFERENCES applicant_profiles(applicant_id) ON DELETE CASCADE
	);

	CREATE INDEX IF NOT EXISTS idx_details_applicant_id ON applicant_details(applicant_id);
	CREATE INDEX IF NOT EXISTS idx_details_cv_path ON applicant_details(cv_path);
	`
	_, err := db.Exec(schema)
	return err
}

// Path returns the database path the store was opened with.
func (s *SQLiteStorage) Path() string {
	return s.path
}

// CreateApplicant inserts an applicant profile.
func (s *SQLiteStorage) CreateApplicant(ctx context.Context, a *models.Applicant) error {
	now := time.Now()
	a.CreatedAt = now
	a.UpdatedAt = now

	_, err := s.db.ExecContext(ctx,
		`INSERT INTO applicant_profiles (applicant_id, first_name, last_name, date_of_birth, address, phone_number, created_at, updated_at)
		 VALUES (?, ?, ?, ?, ?, ?, ?, ?)`,
		a.ID, a.FirstName, a.LastName, a.DateOfBirth, a.Address, a.PhoneNumber, a.CreatedAt, a.UpdatedAt,
	)
	return err
}

// GetApplicant returns an applicant by ID.
func (s *SQLiteStorage) GetApplicant(ctx context.Context, id string) (*models.Applicant, error) {
	var (
		a                models.Applicant
		dob, addr, phone sql.NullString
	)
	err := s.db.QueryRowContext(ctx,
		`SELECT applicant_id, first_name, last_name, date_of_birth, address, phone_number, created_at, updated_at
		 FROM applicant_profiles WHERE applicant_id = ?`, id,
	).Scan(&a.ID, &a.FirstName, &a.LastName, &dob, &addr, &phone, &a.CreatedAt, &a.UpdatedAt)

	if errors.Is(err, sql.ErrNoRows) {
		return nil, fmt.Errorf("applicant %w: %s", ErrNotFound, id)
	}
	if err != nil {
		return nil, err
	}
	a.DateOfBirth, a.Address, a.PhoneNumber = dob.String, addr.String, phone.String
	return &a, nil
}

// UpdateApplicant updates an existing applicant profile.
func (s *SQLiteStorage) UpdateApplicant(ctx context.Context, a *models.Applicant) error {
	a.UpdatedAt = time.Now()

	result, err := s.db.ExecContext(ctx,
		`UPDATE applicant_profiles SET first_name = ?, last_name = ?, date_of_birth = ?, address = ?, phone_number = ?, updated_at = ?
		 WHERE applicant_id = ?`,
		a.FirstName, a.LastName, a.DateOfBirth, a.Address, a.PhoneNumber, a.UpdatedAt, a.ID,
	)
	if err != nil {
		return err
	}
	n, _ := result.RowsAffected()
	if n == 0 {
		return fmt.Errorf("applicant %w: %s", ErrNotFound, a.ID)
	}
	return nil
}

// DeleteApplicant removes an applicant and all of their application details in one transaction.
func (s *SQLiteStorage) DeleteApplicant(ctx context.Context, id string) error {
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return err
	}
	defer tx.Rollback()

	if _, err := tx.ExecContext(ctx, `DELETE FROM applicant_details WHERE applicant_id = ?`, id); err != nil {
		return err
	}
	result, err := tx.ExecContext(ctx, `DELETE FROM applicant_profiles WHERE applicant_id = ?`, id)
	if err != nil {
		return err
	}
	n, _ := result.RowsAffected()
	if n == 0 {
		return fmt.Errorf("applicant %w: %s", ErrNotFound, id)
	}
	return tx.Commit()
}

// ListApplicants returns applicants with offset and limit, oldest first.
func (s *SQLiteStorage) ListApplicants(ctx context.Context, offset, limit int) ([]*models.Applicant, error) {
	rows, err := s.db.QueryContext(ctx,
		`SELECT applicant_id, first_name, last_name, date_of_birth, address, phone_number, created_at, updated_at
		 FROM applicant_profiles ORDER BY rowid LIMIT ? OFFSET ?`,
		limit, offset,
	)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var applicants []*models.Applicant
	for rows.Next() {
		var (
			a                models.Applicant
			dob, addr, phone sql.NullString
		)
		if err := rows.Scan(&a.ID, &a.FirstName, &a.LastName, &dob, &addr, &phone, &a.CreatedAt, &a.UpdatedAt); err != nil {
			return nil, err
		}
		a.DateOfBirth, a.Address, a.PhoneNumber = dob.String, addr.String, phone.String
		applicants = append(applicants, &a)
	}
	return applicants, rows.Err()
}

const detailColumns = `detail_id, applicant_id, applicant_role, cv_path, cv_text, raw_text, content_hash, mtime, size, created_at`

func scanDetail(scan func(dest ...any) error) (*models.ApplicationDetail, error) {
	var (
		d                     models.ApplicationDetail
		role, path, raw, hash sql.NullString
	)
	if err := scan(&d.ID, &d.ApplicantID, &role, &path, &d.CVText, &raw, &hash, &d.ModTime, &d.Size, &d.CreatedAt); err != nil {
		return nil, err
	}
	d.Role, d.CVPath, d.RawText, d.ContentHash = role.String, path.String, raw.String, hash.String
	return &d, nil
}

// CreateDetail inserts an application detail. The applicant must already exist.
func (s *SQLiteStorage) CreateDetail(ctx context.Context, d *models.ApplicationDetail) error {
	d.CreatedAt = time.Now()
	_, err := s.db.ExecContext(ctx,
		`INSERT INTO applicant_details (`+detailColumns+`)
		 VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`,
		d.ID, d.ApplicantID, d.Role, d.CVPath, d.CVText, d.RawText, d.ContentHash, d.ModTime, d.Size, d.CreatedAt,
	)
	return err
}

// UpdateDetail replaces the owner, text and file state of an existing application detail.
func (s *SQLiteStorage) UpdateDetail(ctx context.Context, d *models.ApplicationDetail) error {
	result, err := s.db.ExecContext(ctx,
		`UPDATE applicant_details SET applicant_id = ?, applicant_role = ?, cv_path = ?, cv_text = ?, raw_text = ?, content_hash = ?, mtime = ?, size = ?
		 WHERE detail_id = ?`,
		d.ApplicantID, d.Role, d.CVPath, d.CVText, d.RawText, d.ContentHash, d.ModTime, d.Size, d.ID,
	)
	if err != nil {
		return err
	}
	n, _ := result.RowsAffected()
	if n == 0 {
		return fmt.Errorf("application detail %w: %s", ErrNotFound, d.ID)
	}
	return nil
}

// GetDetail returns an application detail by ID.
func (s *SQLiteStorage) GetDetail(ctx context.Context, id string) (*models.ApplicationDetail, error) {
	d, err := scanDetail(s.db.QueryRowContext(ctx,
		`SELECT `+detailColumns+` FROM applicant_details WHERE detail_id = ?`, id,
	).Scan)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, fmt.Errorf("application detail %w: %s", ErrNotFound, id)
	}
	return d, err
}

// GetDetailByPath returns the application detail ingested from cvPath.
func (s *SQLiteStorage) GetDetailByPath(ctx context.Context, cvPath string) (*models.ApplicationDetail, error) {
	d, err := scanDetail(s.db.QueryRowContext(ctx,
		`SELECT `+detailColumns+` FROM applicant_details WHERE cv_path = ? ORDER BY rowid LIMIT 1`, cvPath,
	).Scan)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, fmt.Errorf("application detail %w: %s", ErrNotFound, cvPath)
	}
	return d, err
}

// GetDetailsByApplicantID returns all application details of an applicant in insertion order.
func (s *SQLiteStorage) GetDetailsByApplicantID(ctx context.Context, applicantID string) ([]*models.ApplicationDetail, error) {
	rows, err := s.db.QueryContext(ctx,
		`SELECT `+detailColumns+` FROM applicant_details WHERE applicant_id = ? ORDER BY rowid`,
		applicantID,
	)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var details []*models.ApplicationDetail
	for rows.Next() {
		d, err := scanDetail(rows.Scan)
		if err != nil {
			return nil, err
		}
		details = append(details, d)
	}
	return details, rows.Err()
}

// DeleteDetail removes an application detail by ID.
func (s *SQLiteStorage) DeleteDetail(ctx context.Context, id string) error {
	_, err := s.db.ExecContext(ctx, `DELETE FROM applicant_details WHERE detail_id = ?`, id)
	return err
}

// ListCorpus returns every stored CV joined with its applicant's name, in insertion order.
func (s *SQLiteStorage) ListCorpus(ctx context.Context) ([]*models.CorpusDocument, error) {
	rows, err := s.db.QueryContext(ctx,
		`SELECT d.detail_id, d.applicant_id, p.first_name, p.last_name, d.cv_path, d.cv_text
		 FROM applicant_details d
		 JOIN applicant_profiles p ON p.applicant_id = d.applicant_id
		 ORDER BY d.rowid`,
	)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var docs []*models.CorpusDocument
	for rows.Next() {
		var (
			doc  models.CorpusDocument
			a    models.Applicant
			path sql.NullString
		)
		if err := rows.Scan(&doc.ID, &doc.ApplicantID, &a.FirstName, &a.LastName, &path, &doc.Text); err != nil {
			return nil, err
		}
		doc.Name = a.FullName()
		doc.CVPath = path.String
		docs = append(docs, &doc)
	}
	return docs, rows.Err()
}

// CountApplicants returns the total number of applicants.
func (s *SQLiteStorage) CountApplicants(ctx context.Context) (int64, error) {
	var count int64
	err := s.db.QueryRowContext(ctx, `SELECT COUNT(*) FROM applicant_profiles`).Scan(&count)
	return count, err
}

// CountDetails returns the total number of stored CVs.
func (s *SQLiteStorage) CountDetails(ctx context.Context) (int64, error) {
	var count int64
	err := s.db.QueryRowContext(ctx, `SELECT COUNT(*) FROM applicant_details`).Scan(&count)
	return count, err
}

// Close closes the database connection.
func (s *SQLiteStorage) Close() error {
	return s.db.Close()
}
