// Package googlebooks provides a client for the Google Books volumes API,
// used to backfill book metadata by ISBN.
package googlebooks

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strconv"
	"strings"
	"time"

	"github.com/citehub/citation-service/internal/catalogs"
	"github.com/citehub/citation-service/internal/domain"
)

const (
	// DefaultBaseURL is the default Google Books API base URL.
	DefaultBaseURL = "https://www.googleapis.com"

	// DefaultRateLimit is the default rate limit for requests per second.
	DefaultRateLimit = 5.0

	// DefaultBurstSize is the default burst size for rate limiting.
	DefaultBurstSize = 5

	// DefaultTimeout is the default request timeout.
	DefaultTimeout = 10 * time.Second

	// catalogName identifies this catalog in errors and logs.
	catalogName = "GoogleBooks"
)

// Config holds configuration for the Google Books client.
type Config struct {
	// BaseURL is the Google Books API base URL.
	// Defaults to https://www.googleapis.com
	BaseURL string

	// APIKey is an optional API key appended to requests.
	// Anonymous access works for volume lookups at reduced quota.
	APIKey string

	// Timeout is the request timeout.
	// Defaults to 10 seconds.
	Timeout time.Duration

	// RateLimit is the maximum requests per second.
	// Defaults to 5 req/sec.
	RateLimit float64

	// BurstSize is the maximum burst of requests allowed.
	// Defaults to 5.
	BurstSize int

	// Enabled indicates whether ISBN backfill is enabled.
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

// Client queries the Google Books volumes endpoint.
type Client struct {
	config     Config
	httpClient *catalogs.HTTPClient
}

// New creates a new Google Books client with the given configuration.
func New(cfg Config) *Client {
	cfg.applyDefaults()

	httpClient := catalogs.NewHTTPClient(catalogs.HTTPClientConfig{
		Timeout:   cfg.Timeout,
		RateLimit: cfg.RateLimit,
		BurstSize: cfg.BurstSize,
	})

	return &Client{
		config:     cfg,
		httpClient: httpClient,
	}
}

// NewWithHTTPClient creates a new Google Books client with a custom HTTP
// client. This is useful for testing with mock servers.
func NewWithHTTPClient(cfg Config, httpClient *catalogs.HTTPClient) *Client {
	cfg.applyDefaults()

	return &Client{
		config:     cfg,
		httpClient: httpClient,
	}
}

// FetchByISBN looks up a book by ISBN. A nil source with a nil error means
// the catalog has no record for the ISBN. The returned source carries the
// queried ISBN, not whatever identifier the catalog echoes back.
func (c *Client) FetchByISBN(ctx context.Context, isbn string) (*domain.Source, error) {
	lookupURL, err := c.buildLookupURL(isbn)
	if err != nil {
		return nil, fmt.Errorf("building lookup URL: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, lookupURL, nil)
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

	var volumes VolumesResponse
	if err := json.NewDecoder(io.LimitReader(resp.Body, 10<<20)).Decode(&volumes); err != nil {
		return nil, fmt.Errorf("decoding response: %w", err)
	}

	if volumes.TotalItems == 0 || len(volumes.Items) == 0 {
		return nil, nil
	}

	return c.volumeToSource(&volumes.Items[0], isbn), nil
}

// buildLookupURL constructs the volumes query URL for an ISBN.
func (c *Client) buildLookupURL(isbn string) (string, error) {
	u, err := url.Parse(c.config.BaseURL + "/books/v1/volumes")
	if err != nil {
		return "", err
	}

	q := u.Query()
	q.Set("q", "isbn:"+isbn)
	if c.config.APIKey != "" {
		q.Set("key", c.config.APIKey)
	}
	u.RawQuery = q.Encode()

	return u.String(), nil
}

// volumeToSource converts the first matching volume into a book source.
// A volume without a title is treated as a miss.
func (c *Client) volumeToSource(v *Volume, isbn string) *domain.Source {
	info := v.VolumeInfo
	if info.Title == "" {
		return nil
	}

	src := &domain.Source{
		Type:   domain.MediaTypeBook,
		Title:  info.Title,
		Author: strings.Join(info.Authors, ", "),
		Book: &domain.BookFields{
			ISBN: &isbn,
		},
	}

	if info.Publisher != "" {
		publisher := info.Publisher
		src.Book.Publisher = &publisher
	}
	if year, ok := parseYear(info.PublishedDate); ok {
		src.Book.PublicationYear = &year
	}

	return src
}

// parseYear extracts the year from a "YYYY", "YYYY-MM", or "YYYY-MM-DD"
// published date.
func parseYear(published string) (int, bool) {
	if len(published) < 4 {
		return 0, false
	}
	year, err := strconv.Atoi(published[:4])
	if err != nil {
		return 0, false
	}
	return year, true
}
