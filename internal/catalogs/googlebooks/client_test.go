package googlebooks

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/citehub/citation-service/internal/catalogs"
	"github.com/citehub/citation-service/internal/domain"
)

// newTestClient creates a client configured for testing with the given server URL.
func newTestClient(serverURL string) *Client {
	cfg := Config{
		BaseURL:   serverURL,
		Timeout:   5 * time.Second,
		RateLimit: 100,
		BurstSize: 100,
		Enabled:   true,
	}

	httpClient := catalogs.NewHTTPClient(catalogs.HTTPClientConfig{
		Timeout:   cfg.Timeout,
		RateLimit: cfg.RateLimit,
		BurstSize: cfg.BurstSize,
		UserAgent: "TestClient/1.0",
	})

	return NewWithHTTPClient(cfg, httpClient)
}

func sampleVolumesResponse() VolumesResponse {
	return VolumesResponse{
		TotalItems: 1,
		Items: []Volume{
			{
				ID: "zyTCAlFPjgYC",
				VolumeInfo: VolumeInfo{
					Title:         "The Odyssey",
					Authors:       []string{"Homer", "Robert Fagles"},
					Publisher:     "Penguin Classics",
					PublishedDate: "1996-11-01",
					IndustryIdentifiers: []IndustryIdentifier{
						{Type: "ISBN_10", Identifier: "0140268863"},
					},
				},
			},
		},
	}
}

func TestFetchByISBN(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/books/v1/volumes", r.URL.Path)
		assert.Equal(t, "isbn:0140268863", r.URL.Query().Get("q"))

		w.Header().Set("Content-Type", "application/json")
		require.NoError(t, json.NewEncoder(w).Encode(sampleVolumesResponse()))
	}))
	defer server.Close()

	client := newTestClient(server.URL)
	src, err := client.FetchByISBN(context.Background(), "0140268863")
	require.NoError(t, err)
	require.NotNil(t, src)

	assert.Equal(t, domain.MediaTypeBook, src.Type)
	assert.Equal(t, "The Odyssey", src.Title)
	assert.Equal(t, "Homer, Robert Fagles", src.Author)
	require.NotNil(t, src.Book)
	require.NotNil(t, src.Book.Publisher)
	assert.Equal(t, "Penguin Classics", *src.Book.Publisher)
	require.NotNil(t, src.Book.PublicationYear)
	assert.Equal(t, 1996, *src.Book.PublicationYear)

	// The queried ISBN is stamped onto the result.
	require.NotNil(t, src.Book.ISBN)
	assert.Equal(t, "0140268863", *src.Book.ISBN)
}

func TestFetchByISBNNoMatch(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		require.NoError(t, json.NewEncoder(w).Encode(VolumesResponse{TotalItems: 0}))
	}))
	defer server.Close()

	client := newTestClient(server.URL)
	src, err := client.FetchByISBN(context.Background(), "0140449116")
	require.NoError(t, err)
	assert.Nil(t, src)
}

func TestFetchByISBNMissingTitle(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		resp := VolumesResponse{
			TotalItems: 1,
			Items: []Volume{
				{VolumeInfo: VolumeInfo{Authors: []string{"Homer"}, Publisher: "Penguin Classics"}},
			},
		}
		w.Header().Set("Content-Type", "application/json")
		require.NoError(t, json.NewEncoder(w).Encode(resp))
	}))
	defer server.Close()

	client := newTestClient(server.URL)
	src, err := client.FetchByISBN(context.Background(), "0140449116")
	require.NoError(t, err)
	assert.Nil(t, src)
}

func TestFetchByISBNNotFoundStatus(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusNotFound)
	}))
	defer server.Close()

	client := newTestClient(server.URL)
	src, err := client.FetchByISBN(context.Background(), "0140449116")
	require.NoError(t, err)
	assert.Nil(t, src)
}

func TestFetchByISBNAPIError(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusForbidden)
		_, _ = w.Write([]byte(`{"error": {"message": "quota exceeded"}}`))
	}))
	defer server.Close()

	client := newTestClient(server.URL)
	_, err := client.FetchByISBN(context.Background(), "0140449116")
	require.Error(t, err)

	var apiErr *domain.ExternalAPIError
	require.ErrorAs(t, err, &apiErr)
	assert.Equal(t, "GoogleBooks", apiErr.Catalog)
	assert.Equal(t, http.StatusForbidden, apiErr.StatusCode)
}

func TestFetchByISBNPartialRecord(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		resp := VolumesResponse{
			TotalItems: 1,
			Items: []Volume{
				{VolumeInfo: VolumeInfo{Title: "Untracked Title", PublishedDate: "19"}},
			},
		}
		w.Header().Set("Content-Type", "application/json")
		require.NoError(t, json.NewEncoder(w).Encode(resp))
	}))
	defer server.Close()

	client := newTestClient(server.URL)
	src, err := client.FetchByISBN(context.Background(), "0140449116")
	require.NoError(t, err)
	require.NotNil(t, src)

	assert.Equal(t, "Untracked Title", src.Title)
	assert.Empty(t, src.Author)
	assert.Nil(t, src.Book.Publisher)
	assert.Nil(t, src.Book.PublicationYear)
}

func TestParseYear(t *testing.T) {
	tests := []struct {
		input  string
		want   int
		wantOK bool
	}{
		{"1996", 1996, true},
		{"1996-11", 1996, true},
		{"1996-11-01", 1996, true},
		{"19", 0, false},
		{"", 0, false},
		{"abcd-01", 0, false},
	}

	for _, tt := range tests {
		got, ok := parseYear(tt.input)
		assert.Equal(t, tt.wantOK, ok, "input %q", tt.input)
		assert.Equal(t, tt.want, got, "input %q", tt.input)
	}
}
