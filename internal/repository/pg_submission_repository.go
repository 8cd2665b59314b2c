package repository

import (
	"context"
	"errors"
	"fmt"
	"strconv"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"

	"github.com/citehub/citation-service/internal/domain"
)

// Compile-time interface verification.
var _ SubmissionRepository = (*PgSubmissionRepository)(nil)

// PgSubmissionRepository is a PostgreSQL implementation of
// SubmissionRepository. Citations live in their own table with a cascading
// foreign key to submissions, so deleting a submission removes its citations
// in the same statement.
type PgSubmissionRepository struct {
	db DBTX
}

// NewPgSubmissionRepository creates a new PostgreSQL submission repository.
func NewPgSubmissionRepository(db DBTX) *PgSubmissionRepository {
	return &PgSubmissionRepository{db: db}
}

// Create inserts a new submission and returns it with its assigned ID.
// Citations attached in memory are persisted in the same call.
func (r *PgSubmissionRepository) Create(ctx context.Context, sub *domain.Submission) (*domain.Submission, error) {
	if sub == nil {
		return nil, domain.NewValidationError("submission", "submission cannot be nil")
	}
	if err := sub.Validate(); err != nil {
		return nil, err
	}
	for i := range sub.Citations {
		if err := sub.Citations[i].Validate(); err != nil {
			return nil, err
		}
	}

	now := time.Now().UTC()

	query := `
		INSERT INTO submissions (user_id, date, format, created_at, updated_at)
		VALUES ($1, $2, $3, $4, $4)
		RETURNING id, created_at, updated_at`

	err := r.db.QueryRow(ctx, query, sub.UserID, sub.Date, sub.Format, now).
		Scan(&sub.ID, &sub.CreatedAt, &sub.UpdatedAt)
	if err != nil {
		var pgErr *pgconn.PgError
		if errors.As(err, &pgErr) && pgErr.Code == "23503" {
			return nil, domain.NewNotFoundError("user", strconv.FormatInt(sub.UserID, 10))
		}
		return nil, fmt.Errorf("failed to insert submission: %w", err)
	}

	for i := range sub.Citations {
		sub.Citations[i].SubmissionID = sub.ID
		if _, err := r.insertCitation(ctx, &sub.Citations[i]); err != nil {
			return nil, err
		}
	}

	return sub, nil
}

// GetByID retrieves a submission with its citations loaded in insertion
// order.
func (r *PgSubmissionRepository) GetByID(ctx context.Context, id int64) (*domain.Submission, error) {
	query := `
		SELECT id, user_id, date, format, created_at, updated_at
		FROM submissions
		WHERE id = $1`

	var sub domain.Submission
	err := r.db.QueryRow(ctx, query, id).
		Scan(&sub.ID, &sub.UserID, &sub.Date, &sub.Format, &sub.CreatedAt, &sub.UpdatedAt)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, domain.NewNotFoundError("submission", strconv.FormatInt(id, 10))
		}
		return nil, fmt.Errorf("failed to get submission by ID: %w", err)
	}

	citations, err := r.loadCitations(ctx, id)
	if err != nil {
		return nil, err
	}
	sub.Citations = citations

	return &sub, nil
}

// ListByUser retrieves a user's submissions with their total count.
// Citations are loaded for each returned submission.
func (r *PgSubmissionRepository) ListByUser(ctx context.Context, userID int64, limit, offset int) ([]*domain.Submission, int64, error) {
	applyPaginationDefaults(&limit, &offset)

	var total int64
	if err := r.db.QueryRow(ctx, `SELECT COUNT(*) FROM submissions WHERE user_id = $1`, userID).Scan(&total); err != nil {
		return nil, 0, fmt.Errorf("failed to count submissions: %w", err)
	}

	query := `
		SELECT id, user_id, date, format, created_at, updated_at
		FROM submissions
		WHERE user_id = $1
		ORDER BY id
		LIMIT $2 OFFSET $3`

	rows, err := r.db.Query(ctx, query, userID, limit, offset)
	if err != nil {
		return nil, 0, fmt.Errorf("failed to list submissions: %w", err)
	}
	defer rows.Close()

	var subs []*domain.Submission
	for rows.Next() {
		var sub domain.Submission
		if err := rows.Scan(&sub.ID, &sub.UserID, &sub.Date, &sub.Format, &sub.CreatedAt, &sub.UpdatedAt); err != nil {
			return nil, 0, fmt.Errorf("failed to scan submission: %w", err)
		}
		subs = append(subs, &sub)
	}
	if err := rows.Err(); err != nil {
		return nil, 0, fmt.Errorf("failed to iterate submissions: %w", err)
	}

	for _, sub := range subs {
		citations, err := r.loadCitations(ctx, sub.ID)
		if err != nil {
			return nil, 0, err
		}
		sub.Citations = citations
	}

	return subs, total, nil
}

// Delete removes a submission and, by cascade, its citations.
func (r *PgSubmissionRepository) Delete(ctx context.Context, id int64) error {
	result, err := r.db.Exec(ctx, `DELETE FROM submissions WHERE id = $1`, id)
	if err != nil {
		return fmt.Errorf("failed to delete submission: %w", err)
	}
	if result.RowsAffected() == 0 {
		return domain.NewNotFoundError("submission", strconv.FormatInt(id, 10))
	}
	return nil
}

// AddCitation attaches a citation to the submission and returns it with its
// assigned ID. The ownership rules live in Submission.Attach; ownership
// never transfers.
func (r *PgSubmissionRepository) AddCitation(ctx context.Context, submissionID int64, c *domain.Citation) (*domain.Citation, error) {
	owner := domain.Submission{ID: submissionID}
	if err := owner.Attach(c); err != nil {
		return nil, err
	}
	return r.insertCitation(ctx, c)
}

// RemoveCitation detaches and deletes a citation from the submission.
func (r *PgSubmissionRepository) RemoveCitation(ctx context.Context, submissionID, citationID int64) error {
	result, err := r.db.Exec(ctx,
		`DELETE FROM citations WHERE id = $1 AND submission_id = $2`,
		citationID, submissionID)
	if err != nil {
		return fmt.Errorf("failed to remove citation: %w", err)
	}
	if result.RowsAffected() == 0 {
		return domain.NewNotFoundError("citation", strconv.FormatInt(citationID, 10))
	}
	return nil
}

// insertCitation persists a single citation row.
func (r *PgSubmissionRepository) insertCitation(ctx context.Context, c *domain.Citation) (*domain.Citation, error) {
	query := `
		INSERT INTO citations (submission_id, media_id, media_type, user_input_metadata, created_at)
		VALUES ($1, $2, $3, $4, $5)
		RETURNING id, created_at`

	now := time.Now().UTC()
	err := r.db.QueryRow(ctx, query, c.SubmissionID, c.MediaID, c.MediaType, c.UserInputMetaData, now).
		Scan(&c.ID, &c.CreatedAt)
	if err != nil {
		var pgErr *pgconn.PgError
		if errors.As(err, &pgErr) && pgErr.Code == "23503" {
			return nil, domain.NewNotFoundError("submission", strconv.FormatInt(c.SubmissionID, 10))
		}
		return nil, fmt.Errorf("failed to insert citation: %w", err)
	}

	return c, nil
}

// loadCitations fetches a submission's citations in insertion order.
func (r *PgSubmissionRepository) loadCitations(ctx context.Context, submissionID int64) ([]domain.Citation, error) {
	query := `
		SELECT id, submission_id, media_id, media_type, user_input_metadata, created_at
		FROM citations
		WHERE submission_id = $1
		ORDER BY id`

	rows, err := r.db.Query(ctx, query, submissionID)
	if err != nil {
		return nil, fmt.Errorf("failed to load citations: %w", err)
	}
	defer rows.Close()

	var citations []domain.Citation
	for rows.Next() {
		var c domain.Citation
		if err := rows.Scan(&c.ID, &c.SubmissionID, &c.MediaID, &c.MediaType, &c.UserInputMetaData, &c.CreatedAt); err != nil {
			return nil, fmt.Errorf("failed to scan citation: %w", err)
		}
		citations = append(citations, c)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("failed to iterate citations: %w", err)
	}

	return citations, nil
}
