package httpserver

import (
	"errors"
	"fmt"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"

	"github.com/citehub/citation-service/internal/domain"
	"github.com/citehub/citation-service/internal/repository"
)

// sourceRequest is the JSON request body for creating or updating a source.
// Only the fields matching media_type are stored; the domain layer validates
// the variant payload.
type sourceRequest struct {
	MediaType string `json:"media_type" validate:"required"`
	Title     string `json:"title" validate:"required"`
	Author    string `json:"author" validate:"required"`

	// Book fields
	Publisher       *string `json:"publisher,omitempty"`
	PublicationYear *int    `json:"publication_year,omitempty"`
	City            *string `json:"city,omitempty"`
	Edition         *string `json:"edition,omitempty"`
	ISBN            *string `json:"isbn,omitempty"`

	// Video fields
	Director        *string `json:"director,omitempty"`
	DurationSeconds *int    `json:"duration_seconds,omitempty"`
	Platform        *string `json:"platform,omitempty"`
	URL             *string `json:"url,omitempty"`
	ReleaseYear     *int    `json:"release_year,omitempty"`

	// Article fields
	Journal *string `json:"journal,omitempty"`
	Volume  *string `json:"volume,omitempty"`
	Issue   *string `json:"issue,omitempty"`
	Pages   *string `json:"pages,omitempty"`
	DOI     *string `json:"doi,omitempty"`
}

// toDomain builds an unvalidated domain source from the request body.
func (req *sourceRequest) toDomain() (*domain.Source, error) {
	mediaType, err := domain.ParseMediaType(req.MediaType)
	if err != nil {
		return nil, err
	}

	src := &domain.Source{
		Type:   mediaType,
		Title:  req.Title,
		Author: req.Author,
	}

	switch mediaType {
	case domain.MediaTypeBook:
		src.Book = &domain.BookFields{
			Publisher:       req.Publisher,
			PublicationYear: req.PublicationYear,
			City:            req.City,
			Edition:         req.Edition,
			ISBN:            req.ISBN,
		}
	case domain.MediaTypeVideo:
		src.Video = &domain.VideoFields{
			Director:        req.Director,
			DurationSeconds: req.DurationSeconds,
			Platform:        req.Platform,
			URL:             req.URL,
			ReleaseYear:     req.ReleaseYear,
		}
	case domain.MediaTypeArticle:
		src.Article = &domain.ArticleFields{
			Journal:         req.Journal,
			Volume:          req.Volume,
			Issue:           req.Issue,
			Pages:           req.Pages,
			DOI:             req.DOI,
			URL:             req.URL,
			PublicationYear: req.PublicationYear,
		}
	}

	return src, nil
}

// sourceResponse is the outward representation of a source, with the variant
// fields flattened alongside the shared ones.
type sourceResponse struct {
	ID        int64  `json:"id"`
	MediaType string `json:"media_type"`
	Title     string `json:"title"`
	Author    string `json:"author"`

	Publisher       *string `json:"publisher,omitempty"`
	PublicationYear *int    `json:"publication_year,omitempty"`
	City            *string `json:"city,omitempty"`
	Edition         *string `json:"edition,omitempty"`
	ISBN            *string `json:"isbn,omitempty"`

	Director        *string `json:"director,omitempty"`
	DurationSeconds *int    `json:"duration_seconds,omitempty"`
	Platform        *string `json:"platform,omitempty"`
	URL             *string `json:"url,omitempty"`
	ReleaseYear     *int    `json:"release_year,omitempty"`

	Journal *string `json:"journal,omitempty"`
	Volume  *string `json:"volume,omitempty"`
	Issue   *string `json:"issue,omitempty"`
	Pages   *string `json:"pages,omitempty"`
	DOI     *string `json:"doi,omitempty"`

	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
}

func domainSourceToResponse(src *domain.Source) sourceResponse {
	resp := sourceResponse{
		ID:        src.ID,
		MediaType: string(src.Type),
		Title:     src.Title,
		Author:    src.Author,
		CreatedAt: src.CreatedAt,
		UpdatedAt: src.UpdatedAt,
	}
	switch {
	case src.Book != nil:
		resp.Publisher = src.Book.Publisher
		resp.PublicationYear = src.Book.PublicationYear
		resp.City = src.Book.City
		resp.Edition = src.Book.Edition
		resp.ISBN = src.Book.ISBN
	case src.Video != nil:
		resp.Director = src.Video.Director
		resp.DurationSeconds = src.Video.DurationSeconds
		resp.Platform = src.Video.Platform
		resp.URL = src.Video.URL
		resp.ReleaseYear = src.Video.ReleaseYear
	case src.Article != nil:
		resp.Journal = src.Article.Journal
		resp.Volume = src.Article.Volume
		resp.Issue = src.Article.Issue
		resp.Pages = src.Article.Pages
		resp.DOI = src.Article.DOI
		resp.URL = src.Article.URL
		resp.PublicationYear = src.Article.PublicationYear
	}
	return resp
}

// listSourcesResponse is the paginated source listing.
type listSourcesResponse struct {
	Sources       []sourceResponse `json:"sources"`
	NextPageToken string           `json:"next_page_token,omitempty"`
	TotalCount    int              `json:"total_count"`
}

// citationResponse is the rendered citation for a single source.
type citationResponse struct {
	SourceID  int64  `json:"source_id"`
	MediaType string `json:"media_type"`
	Style     string `json:"style"`
	Citation  string `json:"citation"`
}

// createSource handles POST /sources. A source with the same title, author,
// and media type as an existing one is not duplicated; the stored record is
// returned instead.
func (s *Server) createSource(w http.ResponseWriter, r *http.Request) {
	var req sourceRequest
	if !decodeJSON(w, r, &req) {
		return
	}

	src, err := req.toDomain()
	if err != nil {
		writeDomainError(w, err)
		return
	}

	existing, err := s.sources.FindByTitleAuthor(r.Context(), src.Title, src.Author, src.Type)
	if err == nil {
		if s.metrics != nil {
			s.metrics.SourcesDeduplicated.Inc()
		}
		writeJSON(w, http.StatusOK, domainSourceToResponse(existing))
		return
	}
	if !errors.Is(err, domain.ErrNotFound) {
		writeDomainError(w, err)
		return
	}

	created, err := s.sources.Create(r.Context(), src)
	if err != nil {
		writeDomainError(w, err)
		return
	}

	if s.metrics != nil {
		s.metrics.SourcesCreated.WithLabelValues(string(created.Type)).Inc()
	}
	s.logger.Info().
		Int64("source_id", created.ID).
		Str("media_type", string(created.Type)).
		Msg("source created")
	writeJSON(w, http.StatusCreated, domainSourceToResponse(created))
}

// getSource handles GET /sources/{mediaType}/{sourceID}.
func (s *Server) getSource(w http.ResponseWriter, r *http.Request) {
	mediaType, ok := parseMediaTypeParam(w, chi.URLParam(r, "mediaType"))
	if !ok {
		return
	}
	sourceID, ok := parseID(w, chi.URLParam(r, "sourceID"), "source_id")
	if !ok {
		return
	}

	src, err := s.sources.GetByID(r.Context(), sourceID, mediaType)
	if err != nil {
		writeDomainError(w, err)
		return
	}

	writeJSON(w, http.StatusOK, domainSourceToResponse(src))
}

// updateSource handles PUT /sources/{mediaType}/{sourceID}. The media type
// of a stored source never changes.
func (s *Server) updateSource(w http.ResponseWriter, r *http.Request) {
	mediaType, ok := parseMediaTypeParam(w, chi.URLParam(r, "mediaType"))
	if !ok {
		return
	}
	sourceID, ok := parseID(w, chi.URLParam(r, "sourceID"), "source_id")
	if !ok {
		return
	}

	var req sourceRequest
	if !decodeJSON(w, r, &req) {
		return
	}

	src, err := req.toDomain()
	if err != nil {
		writeDomainError(w, err)
		return
	}
	if src.Type != mediaType {
		writeError(w, http.StatusBadRequest, "media_type of a stored source cannot change")
		return
	}
	src.ID = sourceID

	updated, err := s.sources.Update(r.Context(), src)
	if err != nil {
		writeDomainError(w, err)
		return
	}

	writeJSON(w, http.StatusOK, domainSourceToResponse(updated))
}

// deleteSource handles DELETE /sources/{mediaType}/{sourceID}.
func (s *Server) deleteSource(w http.ResponseWriter, r *http.Request) {
	mediaType, ok := parseMediaTypeParam(w, chi.URLParam(r, "mediaType"))
	if !ok {
		return
	}
	sourceID, ok := parseID(w, chi.URLParam(r, "sourceID"), "source_id")
	if !ok {
		return
	}

	if err := s.sources.Delete(r.Context(), sourceID, mediaType); err != nil {
		writeDomainError(w, err)
		return
	}

	w.WriteHeader(http.StatusNoContent)
}

// listSources handles GET /sources with optional media_type and author
// filters.
func (s *Server) listSources(w http.ResponseWriter, r *http.Request) {
	limit, offset := parsePaginationParams(r)

	filter := repository.SourceFilter{
		Limit:  limit,
		Offset: offset,
	}

	if mediaTypeParam := r.URL.Query().Get("media_type"); mediaTypeParam != "" {
		mediaType, err := domain.ParseMediaType(mediaTypeParam)
		if err != nil {
			writeError(w, http.StatusBadRequest, fmt.Sprintf("unsupported media type: %q", mediaTypeParam))
			return
		}
		filter.MediaType = &mediaType
	}
	if author := r.URL.Query().Get("author"); author != "" {
		filter.Author = &author
	}

	sources, totalCount, err := s.sources.List(r.Context(), filter)
	if err != nil {
		writeDomainError(w, err)
		return
	}

	responses := make([]sourceResponse, len(sources))
	for i, src := range sources {
		responses[i] = domainSourceToResponse(src)
	}

	writeJSON(w, http.StatusOK, listSourcesResponse{
		Sources:       responses,
		NextPageToken: encodePageToken(offset, limit, int(totalCount)),
		TotalCount:    int(totalCount),
	})
}

// getSourceCitation handles GET /sources/{mediaType}/{sourceID}/citation.
// The style query parameter selects the citation style; backfill=true
// consults external catalogs for missing fields before rendering.
func (s *Server) getSourceCitation(w http.ResponseWriter, r *http.Request) {
	mediaType, ok := parseMediaTypeParam(w, chi.URLParam(r, "mediaType"))
	if !ok {
		return
	}
	sourceID, ok := parseID(w, chi.URLParam(r, "sourceID"), "source_id")
	if !ok {
		return
	}

	styleParam := r.URL.Query().Get("style")
	if styleParam == "" {
		writeError(w, http.StatusBadRequest, "style query parameter is required")
		return
	}
	style, err := domain.ParseStyle(styleParam)
	if err != nil {
		writeDomainError(w, err)
		return
	}

	rendered, err := s.resolver.ResolveSource(r.Context(), sourceID, mediaType, style, parseBackfillParam(r))
	if err != nil {
		writeDomainError(w, err)
		return
	}

	writeJSON(w, http.StatusOK, citationResponse{
		SourceID:  sourceID,
		MediaType: string(mediaType),
		Style:     string(style),
		Citation:  rendered,
	})
}
