package repository

import (
	"context"
	"errors"
	"fmt"
	"strconv"
	"strings"
	"time"

	"github.com/jackc/pgx/v5"

	"github.com/citehub/citation-service/internal/domain"
)

// Compile-time interface verification.
var _ SourceRepository = (*PgSourceRepository)(nil)

// PgSourceRepository is a PostgreSQL implementation of SourceRepository.
// All variants share the sources table; the media_type column selects which
// nullable columns carry data.
type PgSourceRepository struct {
	db DBTX
}

// NewPgSourceRepository creates a new PostgreSQL source repository.
func NewPgSourceRepository(db DBTX) *PgSourceRepository {
	return &PgSourceRepository{db: db}
}

// sourceColumns is the column list shared by all source queries.
const sourceColumns = `id, media_type, title, author,
	publisher, publication_year, city, edition, isbn,
	director, duration_seconds, platform, url, release_year,
	journal, volume, issue, pages, doi,
	created_at, updated_at`

// Create inserts a new source and returns it with its assigned ID.
func (r *PgSourceRepository) Create(ctx context.Context, src *domain.Source) (*domain.Source, error) {
	if src == nil {
		return nil, domain.NewValidationError("source", "source cannot be nil")
	}
	if err := src.Validate(); err != nil {
		return nil, err
	}

	cols := flattenSource(src)
	now := time.Now().UTC()

	query := `
		INSERT INTO sources (
			media_type, title, author,
			publisher, publication_year, city, edition, isbn,
			director, duration_seconds, platform, url, release_year,
			journal, volume, issue, pages, doi,
			created_at, updated_at
		) VALUES (
			$1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13, $14, $15, $16, $17, $18, $19, $19
		)
		RETURNING id, created_at, updated_at`

	err := r.db.QueryRow(ctx, query,
		src.Type, src.Title, src.Author,
		cols.publisher, cols.publicationYear, cols.city, cols.edition, cols.isbn,
		cols.director, cols.durationSeconds, cols.platform, cols.url, cols.releaseYear,
		cols.journal, cols.volume, cols.issue, cols.pages, cols.doi,
		now,
	).Scan(&src.ID, &src.CreatedAt, &src.UpdatedAt)
	if err != nil {
		return nil, fmt.Errorf("failed to insert source: %w", err)
	}

	return src, nil
}

// GetByID retrieves a source by id and variant.
func (r *PgSourceRepository) GetByID(ctx context.Context, id int64, mediaType domain.MediaType) (*domain.Source, error) {
	if !domain.IsValidMediaType(mediaType) {
		return nil, &domain.UnsupportedMediaTypeError{Value: string(mediaType)}
	}

	query := `
		SELECT ` + sourceColumns + `
		FROM sources
		WHERE id = $1 AND media_type = $2`

	row := r.db.QueryRow(ctx, query, id, mediaType)
	src, err := scanSource(row)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, domain.NewNotFoundError("source", strconv.FormatInt(id, 10))
		}
		return nil, fmt.Errorf("failed to get source by ID: %w", err)
	}

	return src, nil
}

// FindByTitleAuthor searches for a source by exact title, author, and variant.
func (r *PgSourceRepository) FindByTitleAuthor(ctx context.Context, title, author string, mediaType domain.MediaType) (*domain.Source, error) {
	if title == "" {
		return nil, domain.NewValidationError("title", "title is required")
	}
	if author == "" {
		return nil, domain.NewValidationError("author", "author is required")
	}

	query := `
		SELECT ` + sourceColumns + `
		FROM sources
		WHERE title = $1 AND author = $2 AND media_type = $3
		ORDER BY id
		LIMIT 1`

	row := r.db.QueryRow(ctx, query, title, author, mediaType)
	src, err := scanSource(row)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, domain.NewNotFoundError("source", title)
		}
		return nil, fmt.Errorf("failed to find source by title and author: %w", err)
	}

	return src, nil
}

// Update replaces the stored fields of an existing source. The media type of
// a stored source never changes.
func (r *PgSourceRepository) Update(ctx context.Context, src *domain.Source) (*domain.Source, error) {
	if src == nil {
		return nil, domain.NewValidationError("source", "source cannot be nil")
	}
	if err := src.Validate(); err != nil {
		return nil, err
	}

	cols := flattenSource(src)

	query := `
		UPDATE sources SET
			title = $1, author = $2,
			publisher = $3, publication_year = $4, city = $5, edition = $6, isbn = $7,
			director = $8, duration_seconds = $9, platform = $10, url = $11, release_year = $12,
			journal = $13, volume = $14, issue = $15, pages = $16, doi = $17,
			updated_at = NOW()
		WHERE id = $18 AND media_type = $19
		RETURNING created_at, updated_at`

	err := r.db.QueryRow(ctx, query,
		src.Title, src.Author,
		cols.publisher, cols.publicationYear, cols.city, cols.edition, cols.isbn,
		cols.director, cols.durationSeconds, cols.platform, cols.url, cols.releaseYear,
		cols.journal, cols.volume, cols.issue, cols.pages, cols.doi,
		src.ID, src.Type,
	).Scan(&src.CreatedAt, &src.UpdatedAt)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, domain.NewNotFoundError("source", strconv.FormatInt(src.ID, 10))
		}
		return nil, fmt.Errorf("failed to update source: %w", err)
	}

	return src, nil
}

// Delete removes a source by id and variant.
func (r *PgSourceRepository) Delete(ctx context.Context, id int64, mediaType domain.MediaType) error {
	result, err := r.db.Exec(ctx, `DELETE FROM sources WHERE id = $1 AND media_type = $2`, id, mediaType)
	if err != nil {
		return fmt.Errorf("failed to delete source: %w", err)
	}
	if result.RowsAffected() == 0 {
		return domain.NewNotFoundError("source", strconv.FormatInt(id, 10))
	}
	return nil
}

// List retrieves sources matching the filter along with the total count.
func (r *PgSourceRepository) List(ctx context.Context, filter SourceFilter) ([]*domain.Source, int64, error) {
	applyPaginationDefaults(&filter.Limit, &filter.Offset)

	var conditions []string
	var args []interface{}

	if filter.MediaType != nil {
		args = append(args, *filter.MediaType)
		conditions = append(conditions, fmt.Sprintf("media_type = $%d", len(args)))
	}
	if filter.Author != nil {
		args = append(args, *filter.Author)
		conditions = append(conditions, fmt.Sprintf("author = $%d", len(args)))
	}

	where := ""
	if len(conditions) > 0 {
		where = " WHERE " + strings.Join(conditions, " AND ")
	}

	var total int64
	countQuery := `SELECT COUNT(*) FROM sources` + where
	if err := r.db.QueryRow(ctx, countQuery, args...).Scan(&total); err != nil {
		return nil, 0, fmt.Errorf("failed to count sources: %w", err)
	}

	args = append(args, filter.Limit, filter.Offset)
	listQuery := fmt.Sprintf(`
		SELECT `+sourceColumns+`
		FROM sources%s
		ORDER BY id
		LIMIT $%d OFFSET $%d`, where, len(args)-1, len(args))

	rows, err := r.db.Query(ctx, listQuery, args...)
	if err != nil {
		return nil, 0, fmt.Errorf("failed to list sources: %w", err)
	}
	defer rows.Close()

	var sources []*domain.Source
	for rows.Next() {
		src, err := scanSourceFromRows(rows)
		if err != nil {
			return nil, 0, fmt.Errorf("failed to scan source: %w", err)
		}
		sources = append(sources, src)
	}
	if err := rows.Err(); err != nil {
		return nil, 0, fmt.Errorf("failed to iterate sources: %w", err)
	}

	return sources, total, nil
}

// sourceColumnValues holds the variant columns flattened for storage.
// Exactly one variant's fields are non-nil.
type sourceColumnValues struct {
	publisher       *string
	publicationYear *int
	city            *string
	edition         *string
	isbn            *string
	director        *string
	durationSeconds *int
	platform        *string
	url             *string
	releaseYear     *int
	journal         *string
	volume          *string
	issue           *string
	pages           *string
	doi             *string
}

// flattenSource spreads the populated variant struct across the shared
// column set. Articles and videos both use the url column; their media_type
// disambiguates.
func flattenSource(src *domain.Source) sourceColumnValues {
	var cols sourceColumnValues
	switch src.Type {
	case domain.MediaTypeBook:
		if b := src.Book; b != nil {
			cols.publisher = b.Publisher
			cols.publicationYear = b.PublicationYear
			cols.city = b.City
			cols.edition = b.Edition
			cols.isbn = b.ISBN
		}
	case domain.MediaTypeVideo:
		if v := src.Video; v != nil {
			cols.director = v.Director
			cols.durationSeconds = v.DurationSeconds
			cols.platform = v.Platform
			cols.url = v.URL
			cols.releaseYear = v.ReleaseYear
		}
	case domain.MediaTypeArticle:
		if a := src.Article; a != nil {
			cols.journal = a.Journal
			cols.volume = a.Volume
			cols.issue = a.Issue
			cols.pages = a.Pages
			cols.doi = a.DOI
			cols.url = a.URL
			cols.publicationYear = a.PublicationYear
		}
	}
	return cols
}

// sourceScanDest holds the destination pointers for scanning a source row.
type sourceScanDest struct {
	src  domain.Source
	cols sourceColumnValues
}

// destinations returns the slice of pointers for Scan operations.
func (d *sourceScanDest) destinations() []interface{} {
	return []interface{}{
		&d.src.ID, &d.src.Type, &d.src.Title, &d.src.Author,
		&d.cols.publisher, &d.cols.publicationYear, &d.cols.city, &d.cols.edition, &d.cols.isbn,
		&d.cols.director, &d.cols.durationSeconds, &d.cols.platform, &d.cols.url, &d.cols.releaseYear,
		&d.cols.journal, &d.cols.volume, &d.cols.issue, &d.cols.pages, &d.cols.doi,
		&d.src.CreatedAt, &d.src.UpdatedAt,
	}
}

// finalize rebuilds the variant struct matching the scanned media type.
func (d *sourceScanDest) finalize() (*domain.Source, error) {
	switch d.src.Type {
	case domain.MediaTypeBook:
		d.src.Book = &domain.BookFields{
			Publisher:       d.cols.publisher,
			PublicationYear: d.cols.publicationYear,
			City:            d.cols.city,
			Edition:         d.cols.edition,
			ISBN:            d.cols.isbn,
		}
	case domain.MediaTypeVideo:
		d.src.Video = &domain.VideoFields{
			Director:        d.cols.director,
			DurationSeconds: d.cols.durationSeconds,
			Platform:        d.cols.platform,
			URL:             d.cols.url,
			ReleaseYear:     d.cols.releaseYear,
		}
	case domain.MediaTypeArticle:
		d.src.Article = &domain.ArticleFields{
			Journal:         d.cols.journal,
			Volume:          d.cols.volume,
			Issue:           d.cols.issue,
			Pages:           d.cols.pages,
			DOI:             d.cols.doi,
			URL:             d.cols.url,
			PublicationYear: d.cols.publicationYear,
		}
	default:
		return nil, &domain.UnsupportedMediaTypeError{Value: string(d.src.Type)}
	}
	return &d.src, nil
}

// scanSource scans a single row into a Source.
func scanSource(row pgx.Row) (*domain.Source, error) {
	var dest sourceScanDest
	if err := row.Scan(dest.destinations()...); err != nil {
		return nil, err
	}
	return dest.finalize()
}

// scanSourceFromRows scans the current row from pgx.Rows into a Source.
func scanSourceFromRows(rows pgx.Rows) (*domain.Source, error) {
	var dest sourceScanDest
	if err := rows.Scan(dest.destinations()...); err != nil {
		return nil, err
	}
	return dest.finalize()
}
