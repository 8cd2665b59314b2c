// Package crossref provides a client for the Crossref works API, used to
// backfill article metadata by DOI.
package crossref

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/citehub/citation-service/internal/catalogs"
	"github.com/citehub/citation-service/internal/domain"
)

const (
	// DefaultBaseURL is the default Crossref API base URL.
	DefaultBaseURL = "https://api.crossref.org"

	// DefaultRateLimit is the default rate limit for requests per second.
	// Crossref's polite pool (with mailto) allows sustained traffic.
	DefaultRateLimit = 5.0

	// DefaultBurstSize is the default burst size for rate limiting.
	DefaultBurstSize = 5

	// DefaultTimeout is the default request timeout.
	DefaultTimeout = 10 * time.Second

	// doiURLPrefix builds the canonical resolver URL for a DOI.
	doiURLPrefix = "https://doi.org/"

	// catalogName identifies this catalog in errors and logs.
	catalogName = "Crossref"
)

// Config holds configuration for the Crossref client.
type Config struct {
	// BaseURL is the Crossref API base URL.
	// Defaults to https://api.crossref.org
	BaseURL string

	// Email is the contact email for the polite pool.
	// See: https://api.crossref.org/swagger-ui/index.html
	Email string

	// Timeout is the request timeout.
	// Defaults to 10 seconds.
	Timeout time.Duration

	// RateLimit is the maximum requests per second.
	// Defaults to 5 req/sec.
	RateLimit float64

	// BurstSize is the maximum burst of requests allowed.
	// Defaults to 5.
	BurstSize int

	// Enabled indicates whether DOI backfill is enabled.
	Enabled bool
}

// applyDefaults sets default values for unset configuration fields.
func (c *Config) applyDefaults() {
	if c.BaseURL == "" {
		c.BaseURL = DefaultBaseURL
	}
	if c.Timeout == 0 {
		c.Timeout = DefaultTimeout
	}
	if c.RateLimit == 0 {
		c.RateLimit = DefaultRateLimit
	}
	if c.BurstSize == 0 {
		c.BurstSize = DefaultBurstSize
	}
}

// Client queries the Crossref works endpoint.
type Client struct {
	config     Config
	httpClient *catalogs.HTTPClient
}

// New creates a new Crossref client with the given configuration.
func New(cfg Config) *Client {
	cfg.applyDefaults()

	userAgent := "CiteHub-CitationService/1.0"
	if cfg.Email != "" {
		userAgent += " (mailto:" + cfg.Email + ")"
	}

	httpClient := catalogs.NewHTTPClient(catalogs.HTTPClientConfig{
		Timeout:   cfg.Timeout,
		RateLimit: cfg.RateLimit,
		BurstSize: cfg.BurstSize,
		UserAgent: userAgent,
	})

	return &Client{
		config:     cfg,
		httpClient: httpClient,
	}
}

// NewWithHTTPClient creates a new Crossref client with a custom HTTP client.
// This is useful for testing with mock servers.
func NewWithHTTPClient(cfg Config, httpClient *catalogs.HTTPClient) *Client {
	cfg.applyDefaults()

	return &Client{
		config:     cfg,
		httpClient: httpClient,
	}
}

// FetchByDOI looks up an article by DOI. A nil source with a nil error means
// the catalog has no record for the DOI. The returned source carries the
// queried DOI, not whatever casing the catalog echoes back.
func (c *Client) FetchByDOI(ctx context.Context, doi string) (*domain.Source, error) {
	fetchURL := c.config.BaseURL + "/works/" + url.PathEscape(doi)

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, fetchURL, nil)
	if err != nil {
		return nil, fmt.Errorf("creating request: %w", err)
	}

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("executing request: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode == http.StatusNotFound {
		return nil, nil
	}
	if resp.StatusCode != http.StatusOK {
		body, _ := io.ReadAll(io.LimitReader(resp.Body, 1<<20))
		return nil, domain.NewExternalAPIError(catalogName, resp.StatusCode, string(body), nil)
	}

	var works WorksResponse
	if err := json.NewDecoder(io.LimitReader(resp.Body, 10<<20)).Decode(&works); err != nil {
		return nil, fmt.Errorf("decoding response: %w", err)
	}

	return c.workToSource(&works.Message, doi), nil
}

// workToSource converts a Crossref work into an article source. A work
// without a title is treated as a miss.
func (c *Client) workToSource(w *Work, doi string) *domain.Source {
	if len(w.Title) == 0 || w.Title[0] == "" {
		return nil
	}

	src := &domain.Source{
		Type:   domain.MediaTypeArticle,
		Title:  w.Title[0],
		Author: formatAuthors(w.Author),
		Article: &domain.ArticleFields{
			DOI: &doi,
		},
	}

	if len(w.ContainerTitle) > 0 {
		journal := w.ContainerTitle[0]
		src.Article.Journal = &journal
	}
	if w.Volume != "" {
		volume := w.Volume
		src.Article.Volume = &volume
	}
	if w.Issue != "" {
		issue := w.Issue
		src.Article.Issue = &issue
	}
	if w.Page != "" {
		pages := w.Page
		src.Article.Pages = &pages
	}

	if year := publicationYear(w); year != 0 {
		src.Article.PublicationYear = &year
	}

	articleURL := w.URL
	if articleURL == "" {
		articleURL = doiURLPrefix + doi
	}
	src.Article.URL = &articleURL

	return src
}

// publicationYear picks the year by date precedence: online publication,
// then print publication, then the issued date.
func publicationYear(w *Work) int {
	if year := w.PublishedOnline.Year(); year != 0 {
		return year
	}
	if year := w.PublishedPrint.Year(); year != 0 {
		return year
	}
	return w.Issued.Year()
}

// formatAuthors joins contributors as comma-separated "Given Family" names.
func formatAuthors(authors []Author) string {
	names := make([]string, 0, len(authors))
	for _, a := range authors {
		name := strings.TrimSpace(strings.TrimSpace(a.Given) + " " + strings.TrimSpace(a.Family))
		if name != "" {
			names = append(names, name)
		}
	}
	return strings.Join(names, ", ")
}
