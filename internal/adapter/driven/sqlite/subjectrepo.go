package sqlite

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/reviewdeck/reviewdeck/internal/domain/apperr"
	"github.com/reviewdeck/reviewdeck/internal/domain/model"
	"github.com/reviewdeck/reviewdeck/internal/domain/port/driven"
)

// Compile-time interface satisfaction check.
var _ driven.SubjectStore = (*SubjectRepo)(nil)

// SubjectRepo is the SQLite implementation of the SubjectStore port interface.
type SubjectRepo struct {
	db *DB
}

// NewSubjectRepo creates a new SubjectRepo backed by the given DB.
func NewSubjectRepo(db *DB) *SubjectRepo {
	return &SubjectRepo{db: db}
}

// Add registers a subject and returns it with the database-assigned ID.
// A duplicate repo/number pair is reported as a conflict.
func (r *SubjectRepo) Add(ctx context.Context, subject model.Subject) (*model.Subject, error) {
	const query = `
		INSERT INTO subjects (
			repo_full_name, number, title, author, head_sha, url,
			additions, deletions, changed_files, registered_at
		) VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?)
	`

	res, err := r.db.Writer.ExecContext(ctx, query,
		subject.RepoFullName, subject.Number, subject.Title, subject.Author,
		subject.HeadSHA, subject.URL, subject.Additions, subject.Deletions,
		subject.ChangedFiles, formatTime(subject.RegisteredAt),
	)
	if err != nil {
		if isUniqueViolation(err) {
			return nil, apperr.Conflict("subject %s#%d already registered", subject.RepoFullName, subject.Number)
		}
		return nil, fmt.Errorf("insert subject %s#%d: %w", subject.RepoFullName, subject.Number, err)
	}

	id, err := res.LastInsertId()
	if err != nil {
		return nil, fmt.Errorf("subject insert id: %w", err)
	}

	subject.ID = id
	return &subject, nil
}

// Get returns the subject with the given ID, or a not-found error.
func (r *SubjectRepo) Get(ctx context.Context, subjectID int64) (*model.Subject, error) {
	const query = `
		SELECT id, repo_full_name, number, title, author, head_sha, url,
		       additions, deletions, changed_files, registered_at
		FROM subjects
		WHERE id = ?
	`

	subject, err := scanSubject(r.db.Reader.QueryRowContext(ctx, query, subjectID))
	if errors.Is(err, sql.ErrNoRows) {
		return nil, apperr.NotFound("subject", subjectID)
	}
	if err != nil {
		return nil, fmt.Errorf("get subject %d: %w", subjectID, err)
	}

	return subject, nil
}

// ListAll returns all registered subjects ordered by registration time.
func (r *SubjectRepo) ListAll(ctx context.Context) ([]model.Subject, error) {
	const query = `
		SELECT id, repo_full_name, number, title, author, head_sha, url,
		       additions, deletions, changed_files, registered_at
		FROM subjects
		ORDER BY registered_at, id
	`

	rows, err := r.db.Reader.QueryContext(ctx, query)
	if err != nil {
		return nil, fmt.Errorf("query subjects: %w", err)
	}
	defer rows.Close()

	var subjects []model.Subject
	for rows.Next() {
		subject, err := scanSubject(rows)
		if err != nil {
			return nil, fmt.Errorf("scan subject: %w", err)
		}
		subjects = append(subjects, *subject)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate subjects: %w", err)
	}

	return subjects, nil
}

func scanSubject(s scanner) (*model.Subject, error) {
	var subject model.Subject
	var registeredAt string

	err := s.Scan(
		&subject.ID, &subject.RepoFullName, &subject.Number, &subject.Title,
		&subject.Author, &subject.HeadSHA, &subject.URL, &subject.Additions,
		&subject.Deletions, &subject.ChangedFiles, &registeredAt,
	)
	if err != nil {
		return nil, err
	}

	subject.RegisteredAt, err = parseTime(registeredAt)
	if err != nil {
		return nil, fmt.Errorf("parse registered_at: %w", err)
	}

	return &subject, nil
}

// scanner abstracts *sql.Row and *sql.Rows for the scan helpers.
type scanner interface {
	Scan(dest ...any) error
}

// formatTime stores timestamps as UTC RFC3339Nano strings so reads are
// deterministic across driver versions.
func formatTime(t time.Time) string {
	return t.UTC().Format(time.RFC3339Nano)
}

// parseTime tries multiple SQLite datetime formats.
func parseTime(s string) (time.Time, error) {
	formats := []string{
		time.RFC3339Nano,
		time.RFC3339,
		"2006-01-02T15:04:05Z",
		"2006-01-02 15:04:05",
		"2006-01-02T15:04:05",
		"2006-01-02 15:04:05.000",
	}

	for _, format := range formats {
		if t, err := time.Parse(format, s); err == nil {
			return t, nil
		}
	}

	return time.Time{}, fmt.Errorf("unrecognized time format: %s", s)
}

// isUniqueViolation detects a SQLite unique constraint failure. The modernc
// driver does not export a typed error for this, so the message is matched.
func isUniqueViolation(err error) bool {
	return err != nil && strings.Contains(err.Error(), "UNIQUE constraint")
}
