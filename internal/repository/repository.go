// Package repository provides data access interfaces and implementations
// for the citation service.
//
// Repository interfaces abstract persistence from the citation engine and
// the HTTP layer. The PostgreSQL implementations accept a DBTX so they work
// with both a connection pool and a transaction, and all methods return
// domain errors (domain.ErrNotFound, domain.ErrAlreadyExists,
// domain.ErrInvalidInput) wrapped with context via %w.
package repository

import (
	"context"

	"github.com/citehub/citation-service/internal/database"
	"github.com/citehub/citation-service/internal/domain"
)

// DBTX is the database interface supporting both pool and transaction
// contexts.
type DBTX = database.DBTX

// Pagination defaults and limits for list queries.
const (
	defaultListLimit = 50
	maxListLimit     = 500
)

// applyPaginationDefaults clamps limit to [1, maxListLimit] and ensures
// offset >= 0.
func applyPaginationDefaults(limit, offset *int) {
	if *limit <= 0 {
		*limit = defaultListLimit
	}
	if *limit > maxListLimit {
		*limit = maxListLimit
	}
	if *offset < 0 {
		*offset = 0
	}
}

// SourceFilter specifies criteria for listing sources.
type SourceFilter struct {
	// MediaType restricts results to a single variant (optional).
	MediaType *domain.MediaType

	// Author restricts results to sources with this exact author string
	// (optional).
	Author *string

	// Limit is the maximum number of sources to return.
	Limit int

	// Offset is the starting position for paginated results.
	Offset int
}

// SourceRepository handles bibliographic source persistence. Sources of all
// variants share one table with a media_type discriminator; the variant
// determines which nullable columns are populated.
type SourceRepository interface {
	// Create inserts a new source and returns it with its assigned ID.
	// The source must already be validated.
	Create(ctx context.Context, src *domain.Source) (*domain.Source, error)

	// GetByID retrieves a source by id and variant.
	// Returns domain.ErrNotFound if no matching source exists.
	GetByID(ctx context.Context, id int64, mediaType domain.MediaType) (*domain.Source, error)

	// FindByTitleAuthor searches for a source by exact title, author, and
	// variant, for deduplication during ingestion.
	// Returns domain.ErrNotFound if no matching source exists.
	FindByTitleAuthor(ctx context.Context, title, author string, mediaType domain.MediaType) (*domain.Source, error)

	// Update replaces the stored fields of an existing source.
	// Returns domain.ErrNotFound if the source does not exist.
	Update(ctx context.Context, src *domain.Source) (*domain.Source, error)

	// Delete removes a source by id and variant.
	// Returns domain.ErrNotFound if the source does not exist.
	Delete(ctx context.Context, id int64, mediaType domain.MediaType) error

	// List retrieves sources matching the filter criteria along with the
	// total count for pagination.
	List(ctx context.Context, filter SourceFilter) ([]*domain.Source, int64, error)
}

// SubmissionRepository handles submissions and their owned citations.
// A submission exclusively owns its citations: deleting the submission
// cascades to them, and a citation can never be re-parented.
type SubmissionRepository interface {
	// Create inserts a new submission and returns it with its assigned ID.
	Create(ctx context.Context, sub *domain.Submission) (*domain.Submission, error)

	// GetByID retrieves a submission with its citations loaded in
	// insertion order.
	// Returns domain.ErrNotFound if no matching submission exists.
	GetByID(ctx context.Context, id int64) (*domain.Submission, error)

	// ListByUser retrieves a user's submissions with their total count.
	ListByUser(ctx context.Context, userID int64, limit, offset int) ([]*domain.Submission, int64, error)

	// Delete removes a submission and, by cascade, its citations.
	// Returns domain.ErrNotFound if the submission does not exist.
	Delete(ctx context.Context, id int64) error

	// AddCitation attaches a citation to the submission and returns it with
	// its assigned ID. Returns domain.ErrNotFound if the submission does not
	// exist and domain.ErrInvalidInput if the citation is already owned by a
	// different submission.
	AddCitation(ctx context.Context, submissionID int64, c *domain.Citation) (*domain.Citation, error)

	// RemoveCitation detaches and deletes a citation from the submission.
	// Returns domain.ErrNotFound if the citation is not part of the
	// submission.
	RemoveCitation(ctx context.Context, submissionID, citationID int64) error
}

// UserRepository handles user accounts.
type UserRepository interface {
	// Create inserts a new user and returns it with its assigned ID.
	// Returns domain.ErrAlreadyExists if the username is taken.
	Create(ctx context.Context, u *domain.User) (*domain.User, error)

	// GetByID retrieves a user by id.
	// Returns domain.ErrNotFound if no matching user exists.
	GetByID(ctx context.Context, id int64) (*domain.User, error)

	// GetByUsername retrieves a user by unique username.
	// Returns domain.ErrNotFound if no matching user exists.
	GetByUsername(ctx context.Context, username string) (*domain.User, error)

	// Delete removes a user and, by cascade, their submissions.
	// Returns domain.ErrNotFound if the user does not exist.
	Delete(ctx context.Context, id int64) error
}
