package citation

import (
	"context"
	"errors"
	"strconv"
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/citehub/citation-service/internal/domain"
	"github.com/citehub/citation-service/internal/observability"
	"github.com/citehub/citation-service/internal/repository"
)

type sourceKey struct {
	id        int64
	mediaType domain.MediaType
}

// fakeSourceRepo serves sources from a map, returning fresh copies the way
// a row scan would.
type fakeSourceRepo struct {
	sources map[sourceKey]*domain.Source
	updates int
}

var _ repository.SourceRepository = (*fakeSourceRepo)(nil)

func newFakeSourceRepo(sources ...*domain.Source) *fakeSourceRepo {
	r := &fakeSourceRepo{sources: make(map[sourceKey]*domain.Source)}
	for _, s := range sources {
		r.sources[sourceKey{s.ID, s.Type}] = s
	}
	return r
}

func cloneSource(s *domain.Source) *domain.Source {
	out := *s
	if s.Book != nil {
		b := *s.Book
		out.Book = &b
	}
	if s.Video != nil {
		v := *s.Video
		out.Video = &v
	}
	if s.Article != nil {
		a := *s.Article
		out.Article = &a
	}
	return &out
}

func (r *fakeSourceRepo) Create(_ context.Context, src *domain.Source) (*domain.Source, error) {
	return src, nil
}

func (r *fakeSourceRepo) GetByID(_ context.Context, id int64, mediaType domain.MediaType) (*domain.Source, error) {
	s, ok := r.sources[sourceKey{id, mediaType}]
	if !ok {
		return nil, domain.NewNotFoundError("source", strconv.FormatInt(id, 10))
	}
	return cloneSource(s), nil
}

func (r *fakeSourceRepo) FindByTitleAuthor(_ context.Context, _, _ string, _ domain.MediaType) (*domain.Source, error) {
	return nil, domain.ErrNotFound
}

func (r *fakeSourceRepo) Update(_ context.Context, src *domain.Source) (*domain.Source, error) {
	r.updates++
	return src, nil
}

func (r *fakeSourceRepo) Delete(_ context.Context, _ int64, _ domain.MediaType) error {
	return nil
}

func (r *fakeSourceRepo) List(_ context.Context, _ repository.SourceFilter) ([]*domain.Source, int64, error) {
	return nil, 0, nil
}

type fakeSubmissionRepo struct {
	subs map[int64]*domain.Submission
}

var _ repository.SubmissionRepository = (*fakeSubmissionRepo)(nil)

func (r *fakeSubmissionRepo) Create(_ context.Context, sub *domain.Submission) (*domain.Submission, error) {
	return sub, nil
}

func (r *fakeSubmissionRepo) GetByID(_ context.Context, id int64) (*domain.Submission, error) {
	sub, ok := r.subs[id]
	if !ok {
		return nil, domain.NewNotFoundError("submission", strconv.FormatInt(id, 10))
	}
	return sub, nil
}

func (r *fakeSubmissionRepo) ListByUser(_ context.Context, _ int64, _, _ int) ([]*domain.Submission, int64, error) {
	return nil, 0, nil
}

func (r *fakeSubmissionRepo) Delete(_ context.Context, _ int64) error {
	return nil
}

func (r *fakeSubmissionRepo) AddCitation(_ context.Context, _ int64, c *domain.Citation) (*domain.Citation, error) {
	return c, nil
}

func (r *fakeSubmissionRepo) RemoveCitation(_ context.Context, _, _ int64) error {
	return nil
}

type fakeBookLookup struct {
	result *domain.Source
	err    error
	calls  int
	isbns  []string
}

func (l *fakeBookLookup) FetchByISBN(_ context.Context, isbn string) (*domain.Source, error) {
	l.calls++
	l.isbns = append(l.isbns, isbn)
	return l.result, l.err
}

type fakeArticleLookup struct {
	result *domain.Source
	err    error
	calls  int
}

func (l *fakeArticleLookup) FetchByDOI(_ context.Context, _ string) (*domain.Source, error) {
	l.calls++
	return l.result, l.err
}

func newTestResolver(sources *fakeSourceRepo, subs *fakeSubmissionRepo, books BookLookup, articles ArticleLookup, metrics *observability.Metrics) *Resolver {
	return NewResolver(sources, subs, books, articles, ResolverConfig{
		LookupTimeout: time.Second,
		MaxParallel:   2,
	}, zerolog.Nop(), metrics)
}

func incompleteBook() *domain.Source {
	return &domain.Source{
		ID:     1,
		Type:   domain.MediaTypeBook,
		Title:  "The Book Title",
		Author: "John Doe",
		Book:   &domain.BookFields{ISBN: strPtr("0140449116")},
	}
}

func TestResolveSourceWithoutBackfill(t *testing.T) {
	books := &fakeBookLookup{}
	r := newTestResolver(newFakeSourceRepo(incompleteBook()), nil, books, nil, nil)

	got, err := r.ResolveSource(context.Background(), 1, domain.MediaTypeBook, domain.StyleMLA, false)
	require.NoError(t, err)
	assert.Equal(t, "Doe, John. _The Book Title_.", got)
	assert.Zero(t, books.calls)
}

func TestResolveSourceBackfillMergesMissingFields(t *testing.T) {
	books := &fakeBookLookup{
		result: &domain.Source{
			Type:   domain.MediaTypeBook,
			Title:  "The Book Title",
			Author: "John Doe",
			Book: &domain.BookFields{
				Publisher:       strPtr("The Publisher"),
				PublicationYear: intPtr(2023),
				ISBN:            strPtr("0140449116"),
			},
		},
	}
	repo := newFakeSourceRepo(incompleteBook())
	r := newTestResolver(repo, nil, books, nil, nil)

	got, err := r.ResolveSource(context.Background(), 1, domain.MediaTypeBook, domain.StyleMLA, true)
	require.NoError(t, err)
	assert.Equal(t, "Doe, John. _The Book Title_. The Publisher, 2023.", got)
	assert.Equal(t, 1, books.calls)
	assert.Equal(t, []string{"0140449116"}, books.isbns)

	// Enrichment touches the in-memory copy only.
	assert.Zero(t, repo.updates)
	stored := repo.sources[sourceKey{1, domain.MediaTypeBook}]
	assert.Nil(t, stored.Book.Publisher)
}

func TestResolveSourceBackfillNeverOverwrites(t *testing.T) {
	books := &fakeBookLookup{
		result: &domain.Source{
			Type:   domain.MediaTypeBook,
			Title:  "The Book Title",
			Author: "John Doe",
			Book: &domain.BookFields{
				Publisher:       strPtr("Catalog Publisher"),
				PublicationYear: intPtr(1999),
			},
		},
	}
	stored := incompleteBook()
	stored.Book.Publisher = strPtr("The Publisher")
	r := newTestResolver(newFakeSourceRepo(stored), nil, books, nil, nil)

	got, err := r.ResolveSource(context.Background(), 1, domain.MediaTypeBook, domain.StyleMLA, true)
	require.NoError(t, err)
	assert.Equal(t, "Doe, John. _The Book Title_. The Publisher, 1999.", got)
}

func TestResolveSourceBackfillSkipsCompleteSource(t *testing.T) {
	books := &fakeBookLookup{}
	stored := incompleteBook()
	stored.Book.Publisher = strPtr("The Publisher")
	stored.Book.PublicationYear = intPtr(2023)
	r := newTestResolver(newFakeSourceRepo(stored), nil, books, nil, nil)

	_, err := r.ResolveSource(context.Background(), 1, domain.MediaTypeBook, domain.StyleMLA, true)
	require.NoError(t, err)
	assert.Zero(t, books.calls)
}

func TestResolveSourceBackfillSkipsWithoutISBN(t *testing.T) {
	books := &fakeBookLookup{}
	stored := incompleteBook()
	stored.Book.ISBN = nil
	r := newTestResolver(newFakeSourceRepo(stored), nil, books, nil, nil)

	got, err := r.ResolveSource(context.Background(), 1, domain.MediaTypeBook, domain.StyleMLA, true)
	require.NoError(t, err)
	assert.Equal(t, "Doe, John. _The Book Title_.", got)
	assert.Zero(t, books.calls)
}

func TestResolveSourceLookupErrorDegradesToStoredData(t *testing.T) {
	metrics := observability.NewMetrics("test_resolver_lookup_error")
	books := &fakeBookLookup{err: errors.New("connection refused")}
	r := newTestResolver(newFakeSourceRepo(incompleteBook()), nil, books, nil, metrics)

	got, err := r.ResolveSource(context.Background(), 1, domain.MediaTypeBook, domain.StyleMLA, true)
	require.NoError(t, err)
	assert.Equal(t, "Doe, John. _The Book Title_.", got)

	assert.Equal(t, float64(1), testutil.ToFloat64(metrics.LookupErrors.WithLabelValues("google_books")))
	assert.Equal(t, float64(1), testutil.ToFloat64(metrics.CitationsGenerated.WithLabelValues("MLA")))
}

func TestResolveSourceLookupMiss(t *testing.T) {
	metrics := observability.NewMetrics("test_resolver_lookup_miss")
	books := &fakeBookLookup{result: nil}
	r := newTestResolver(newFakeSourceRepo(incompleteBook()), nil, books, nil, metrics)

	got, err := r.ResolveSource(context.Background(), 1, domain.MediaTypeBook, domain.StyleMLA, true)
	require.NoError(t, err)
	assert.Equal(t, "Doe, John. _The Book Title_.", got)
	assert.Equal(t, 1, books.calls)
	assert.Equal(t, float64(1), testutil.ToFloat64(metrics.LookupMisses.WithLabelValues("google_books")))
}

func TestResolveSourceArticleBackfill(t *testing.T) {
	articles := &fakeArticleLookup{
		result: &domain.Source{
			Type:   domain.MediaTypeArticle,
			Title:  "The Article Title",
			Author: "John Doe",
			Article: &domain.ArticleFields{
				Journal:         strPtr("The Journal"),
				Volume:          strPtr("1"),
				Issue:           strPtr("2"),
				PublicationYear: intPtr(2023),
			},
		},
	}
	stored := &domain.Source{
		ID:      4,
		Type:    domain.MediaTypeArticle,
		Title:   "The Article Title",
		Author:  "John Doe",
		Article: &domain.ArticleFields{DOI: strPtr("10.1038/nature12373")},
	}
	r := newTestResolver(newFakeSourceRepo(stored), nil, nil, articles, nil)

	got, err := r.ResolveSource(context.Background(), 4, domain.MediaTypeArticle, domain.StyleChicago, true)
	require.NoError(t, err)
	assert.Equal(t, `Doe, John. "The Article Title." The Journal 1, no. 2 (2023).`, got)
	assert.Equal(t, 1, articles.calls)
}

func TestResolveSourceNotFound(t *testing.T) {
	r := newTestResolver(newFakeSourceRepo(), nil, nil, nil, nil)

	_, err := r.ResolveSource(context.Background(), 99, domain.MediaTypeBook, domain.StyleMLA, false)
	require.Error(t, err)
	assert.ErrorIs(t, err, domain.ErrNotFound)
}

func TestResolveSubmission(t *testing.T) {
	book := &domain.Source{
		ID:     1,
		Type:   domain.MediaTypeBook,
		Title:  "The Book Title",
		Author: "John Doe, Jane Smith",
		Book: &domain.BookFields{
			Publisher:       strPtr("The Publisher"),
			PublicationYear: intPtr(2023),
		},
	}
	video := &domain.Source{
		ID:     2,
		Type:   domain.MediaTypeVideo,
		Title:  "The Video Title",
		Author: "John Doe",
		Video: &domain.VideoFields{
			Platform:    strPtr("StreamCo"),
			ReleaseYear: intPtr(2020),
		},
	}
	sub := &domain.Submission{
		ID:     10,
		UserID: 3,
		Date:   time.Now().Add(-time.Hour),
		Format: "MLA",
		Citations: []domain.Citation{
			{ID: 101, SubmissionID: 10, MediaID: 1, MediaType: domain.MediaTypeBook},
			{ID: 102, SubmissionID: 10, MediaID: 2, MediaType: domain.MediaTypeVideo},
			{ID: 103, SubmissionID: 10, MediaID: 99, MediaType: domain.MediaTypeBook},
		},
	}
	subs := &fakeSubmissionRepo{subs: map[int64]*domain.Submission{10: sub}}

	t.Run("partial failure reported per citation", func(t *testing.T) {
		r := newTestResolver(newFakeSourceRepo(book, video), subs, nil, nil, nil)

		result, err := r.ResolveSubmission(context.Background(), 10, nil, false)
		require.NoError(t, err)

		assert.Equal(t, map[int64]string{
			101: "Doe, John and Smith, Jane. _The Book Title_. The Publisher, 2023.",
			102: "Doe, John. _The Video Title_. StreamCo, 2020.",
		}, result.Citations)
		require.Contains(t, result.Failures, int64(103))
		assert.Contains(t, result.Failures[103], "not found")
	})

	t.Run("style override", func(t *testing.T) {
		r := newTestResolver(newFakeSourceRepo(book, video), subs, nil, nil, nil)

		style := domain.StyleAPA
		result, err := r.ResolveSubmission(context.Background(), 10, &style, false)
		require.NoError(t, err)
		assert.Equal(t, "Doe, J. & Smith, J. (2023). The Book Title. The Publisher.", result.Citations[101])
	})

	t.Run("submission not found", func(t *testing.T) {
		r := newTestResolver(newFakeSourceRepo(), subs, nil, nil, nil)

		_, err := r.ResolveSubmission(context.Background(), 404, nil, false)
		require.Error(t, err)
		assert.ErrorIs(t, err, domain.ErrNotFound)
	})
}

func TestResolverConfigDefaults(t *testing.T) {
	r := NewResolver(newFakeSourceRepo(), nil, nil, nil, ResolverConfig{}, zerolog.Nop(), nil)
	assert.Equal(t, DefaultLookupTimeout, r.config.LookupTimeout)
	assert.Equal(t, DefaultMaxParallel, r.config.MaxParallel)
}
