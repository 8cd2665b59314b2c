package citation

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/rs/zerolog"
	"golang.org/x/sync/errgroup"

	"github.com/citehub/citation-service/internal/domain"
	"github.com/citehub/citation-service/internal/observability"
	"github.com/citehub/citation-service/internal/repository"
)

// Resolver configuration defaults.
const (
	// DefaultLookupTimeout bounds a single catalog lookup.
	DefaultLookupTimeout = 10 * time.Second

	// DefaultMaxParallel bounds concurrent lookups during group resolution.
	DefaultMaxParallel = 4
)

// BookLookup fetches book metadata from an external catalog by ISBN.
// A nil source with a nil error means the catalog has no matching record.
type BookLookup interface {
	FetchByISBN(ctx context.Context, isbn string) (*domain.Source, error)
}

// ArticleLookup fetches article metadata from an external catalog by DOI.
// A nil source with a nil error means the catalog has no matching record.
type ArticleLookup interface {
	FetchByDOI(ctx context.Context, doi string) (*domain.Source, error)
}

// GroupResult holds the outcome of resolving a submission's citation group.
// Each citation lands in exactly one of the two maps, keyed by citation ID.
type GroupResult struct {
	// Style is the style the group was rendered in, after any override.
	Style string `json:"style"`

	// Citations maps citation ID to its rendered citation string.
	Citations map[int64]string `json:"citations"`

	// Failures maps citation ID to a human-readable failure message.
	Failures map[int64]string `json:"failures,omitempty"`
}

// ResolverConfig contains tunables for citation resolution.
type ResolverConfig struct {
	// LookupTimeout bounds each external catalog lookup.
	LookupTimeout time.Duration

	// MaxParallel bounds concurrent source resolutions within a group.
	MaxParallel int
}

// DefaultResolverConfig returns a ResolverConfig with sensible defaults.
func DefaultResolverConfig() ResolverConfig {
	return ResolverConfig{
		LookupTimeout: DefaultLookupTimeout,
		MaxParallel:   DefaultMaxParallel,
	}
}

// Resolver loads stored sources, optionally backfills missing fields from
// external catalogs, and renders citation strings. Catalog data is merged
// into in-memory copies only; stored sources are never modified by
// resolution.
type Resolver struct {
	sources     repository.SourceRepository
	submissions repository.SubmissionRepository
	books       BookLookup
	articles    ArticleLookup
	config      ResolverConfig
	logger      zerolog.Logger
	metrics     *observability.Metrics
}

// NewResolver creates a citation resolver. The books and articles lookups
// may be nil, in which case backfill is skipped for that variant.
func NewResolver(
	sources repository.SourceRepository,
	submissions repository.SubmissionRepository,
	books BookLookup,
	articles ArticleLookup,
	cfg ResolverConfig,
	logger zerolog.Logger,
	metrics *observability.Metrics,
) *Resolver {
	if cfg.LookupTimeout <= 0 {
		cfg.LookupTimeout = DefaultLookupTimeout
	}
	if cfg.MaxParallel <= 0 {
		cfg.MaxParallel = DefaultMaxParallel
	}
	return &Resolver{
		sources:     sources,
		submissions: submissions,
		books:       books,
		articles:    articles,
		config:      cfg,
		logger:      logger.With().Str("component", "citation_resolver").Logger(),
		metrics:     metrics,
	}
}

// ResolveSource renders a citation for a stored source. When backfill is
// true and the source is missing fields an external catalog can supply,
// the catalog is consulted and its data merged into fields that are unset;
// caller-provided values are never overwritten. Lookup failures downgrade
// to a render of the stored data alone.
func (r *Resolver) ResolveSource(ctx context.Context, id int64, mediaType domain.MediaType, style domain.Style, backfill bool) (string, error) {
	start := time.Now()

	src, err := r.sources.GetByID(ctx, id, mediaType)
	if err != nil {
		if r.metrics != nil {
			r.metrics.CitationFailures.WithLabelValues(string(style)).Inc()
		}
		return "", err
	}

	if backfill {
		r.enrich(ctx, src)
	}

	rendered, err := Generate(src, style)
	if r.metrics != nil {
		if err != nil {
			r.metrics.CitationFailures.WithLabelValues(string(style)).Inc()
		} else {
			r.metrics.CitationsGenerated.WithLabelValues(string(style)).Inc()
			r.metrics.CitationDuration.Observe(time.Since(start).Seconds())
		}
	}
	return rendered, err
}

// ResolveSubmission renders every citation attached to a submission in the
// submission's format, or in styleOverride when non-nil. Individual failures
// do not abort the group; each failed citation is reported in
// GroupResult.Failures instead.
func (r *Resolver) ResolveSubmission(ctx context.Context, submissionID int64, styleOverride *domain.Style, backfill bool) (*GroupResult, error) {
	sub, err := r.submissions.GetByID(ctx, submissionID)
	if err != nil {
		return nil, err
	}

	var style domain.Style
	if styleOverride != nil {
		style = *styleOverride
	} else {
		style, err = sub.Style()
		if err != nil {
			return nil, err
		}
	}

	result := &GroupResult{
		Style:     string(style),
		Citations: make(map[int64]string, len(sub.Citations)),
		Failures:  make(map[int64]string),
	}
	if r.metrics != nil {
		r.metrics.GroupCitationSize.Observe(float64(len(sub.Citations)))
	}

	var mu sync.Mutex
	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(r.config.MaxParallel)

	for _, c := range sub.Citations {
		c := c
		g.Go(func() error {
			rendered, err := r.ResolveSource(gctx, c.MediaID, c.MediaType, style, backfill)
			mu.Lock()
			defer mu.Unlock()
			if err != nil {
				result.Failures[c.ID] = fmt.Sprintf("citation %d (%s %d): %v", c.ID, c.MediaType, c.MediaID, err)
				return nil
			}
			result.Citations[c.ID] = rendered
			return nil
		})
	}

	if err := g.Wait(); err != nil {
		return nil, err
	}
	return result, nil
}

// enrich backfills missing fields on src from the matching catalog. Errors
// and misses leave src untouched.
func (r *Resolver) enrich(ctx context.Context, src *domain.Source) {
	switch src.Type {
	case domain.MediaTypeBook:
		if r.books == nil || src.Book == nil || src.Book.ISBN == nil || !needsBookEnrichment(src.Book) {
			return
		}
		fetched := r.lookup(ctx, "google_books", *src.Book.ISBN, r.books.FetchByISBN)
		if fetched != nil {
			mergeSource(src, fetched)
		}
	case domain.MediaTypeArticle:
		if r.articles == nil || src.Article == nil || src.Article.DOI == nil || !needsArticleEnrichment(src.Article) {
			return
		}
		fetched := r.lookup(ctx, "crossref", *src.Article.DOI, r.articles.FetchByDOI)
		if fetched != nil {
			mergeSource(src, fetched)
		}
	}
}

// lookup runs a single catalog fetch with timeout and metrics. Errors are
// logged and reported as misses so resolution can proceed on stored data.
func (r *Resolver) lookup(ctx context.Context, catalog, identifier string, fetch func(context.Context, string) (*domain.Source, error)) *domain.Source {
	lctx, cancel := context.WithTimeout(ctx, r.config.LookupTimeout)
	defer cancel()

	start := time.Now()
	if r.metrics != nil {
		r.metrics.LookupRequests.WithLabelValues(catalog).Inc()
	}

	fetched, err := fetch(lctx, identifier)
	if r.metrics != nil {
		r.metrics.LookupDuration.WithLabelValues(catalog).Observe(time.Since(start).Seconds())
	}
	if err != nil {
		if r.metrics != nil {
			r.metrics.LookupErrors.WithLabelValues(catalog).Inc()
		}
		r.logger.Debug().
			Err(err).
			Str("catalog", catalog).
			Str("identifier", identifier).
			Msg("catalog lookup failed, rendering stored data only")
		return nil
	}
	if fetched == nil {
		if r.metrics != nil {
			r.metrics.LookupMisses.WithLabelValues(catalog).Inc()
		}
		return nil
	}
	return fetched
}

// needsBookEnrichment reports whether a catalog lookup could still add
// information to the book.
func needsBookEnrichment(b *domain.BookFields) bool {
	return b.Publisher == nil || b.PublicationYear == nil
}

// needsArticleEnrichment reports whether a catalog lookup could still add
// information to the article.
func needsArticleEnrichment(a *domain.ArticleFields) bool {
	return a.Journal == nil || a.Volume == nil || a.Issue == nil ||
		a.Pages == nil || a.URL == nil || a.PublicationYear == nil
}

// mergeSource copies fetched values into dst fields that are unset. Values
// already present on dst always win.
func mergeSource(dst, fetched *domain.Source) {
	if dst.Title == "" && fetched.Title != "" {
		dst.Title = fetched.Title
	}
	if dst.Author == "" && fetched.Author != "" {
		dst.Author = fetched.Author
	}
	if dst.Book != nil && fetched.Book != nil {
		mergeBook(dst.Book, fetched.Book)
	}
	if dst.Article != nil && fetched.Article != nil {
		mergeArticle(dst.Article, fetched.Article)
	}
}

func mergeBook(dst, fetched *domain.BookFields) {
	if dst.Publisher == nil {
		dst.Publisher = fetched.Publisher
	}
	if dst.PublicationYear == nil {
		dst.PublicationYear = fetched.PublicationYear
	}
	if dst.City == nil {
		dst.City = fetched.City
	}
	if dst.Edition == nil {
		dst.Edition = fetched.Edition
	}
	if dst.ISBN == nil {
		dst.ISBN = fetched.ISBN
	}
}

func mergeArticle(dst, fetched *domain.ArticleFields) {
	if dst.Journal == nil {
		dst.Journal = fetched.Journal
	}
	if dst.Volume == nil {
		dst.Volume = fetched.Volume
	}
	if dst.Issue == nil {
		dst.Issue = fetched.Issue
	}
	if dst.Pages == nil {
		dst.Pages = fetched.Pages
	}
	if dst.DOI == nil {
		dst.DOI = fetched.DOI
	}
	if dst.URL == nil {
		dst.URL = fetched.URL
	}
	if dst.PublicationYear == nil {
		dst.PublicationYear = fetched.PublicationYear
	}
}
