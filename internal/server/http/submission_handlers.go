package httpserver

import (
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"

	"github.com/citehub/citation-service/internal/citation"
	"github.com/citehub/citation-service/internal/domain"
)

// citationRequest is the JSON request body for attaching a citation to a
// submission. The (media_id, media_type) pair references a stored source.
type citationRequest struct {
	MediaID           int64  `json:"media_id" validate:"required,gt=0"`
	MediaType         string `json:"media_type" validate:"required"`
	UserInputMetaData string `json:"user_input_metadata,omitempty"`
}

func (req *citationRequest) toDomain() (*domain.Citation, error) {
	mediaType, err := domain.ParseMediaType(req.MediaType)
	if err != nil {
		return nil, err
	}
	return &domain.Citation{
		MediaID:           req.MediaID,
		MediaType:         mediaType,
		UserInputMetaData: req.UserInputMetaData,
	}, nil
}

// createSubmissionRequest is the JSON request body for creating a
// submission. An absent date defaults to the current time.
type createSubmissionRequest struct {
	Date      *time.Time        `json:"date,omitempty"`
	Format    string            `json:"format" validate:"required"`
	Citations []citationRequest `json:"citations,omitempty" validate:"omitempty,dive"`
}

// citationItemResponse is the outward representation of a citation.
type citationItemResponse struct {
	ID                int64     `json:"id"`
	SubmissionID      int64     `json:"submission_id"`
	MediaID           int64     `json:"media_id"`
	MediaType         string    `json:"media_type"`
	UserInputMetaData string    `json:"user_input_metadata,omitempty"`
	CreatedAt         time.Time `json:"created_at"`
}

// submissionResponse is the outward representation of a submission with its
// citations in insertion order.
type submissionResponse struct {
	ID        int64                  `json:"id"`
	UserID    int64                  `json:"user_id"`
	Date      time.Time              `json:"date"`
	Format    string                 `json:"format"`
	Citations []citationItemResponse `json:"citations"`
	CreatedAt time.Time              `json:"created_at"`
	UpdatedAt time.Time              `json:"updated_at"`
}

// listSubmissionsResponse is the paginated submission listing.
type listSubmissionsResponse struct {
	Submissions   []submissionResponse `json:"submissions"`
	NextPageToken string               `json:"next_page_token,omitempty"`
	TotalCount    int                  `json:"total_count"`
}

// formattedCitationsResponse carries the group resolution outcome: rendered
// strings for citations that resolved and messages for those that did not.
type formattedCitationsResponse struct {
	SubmissionID int64            `json:"submission_id"`
	Style        string           `json:"style"`
	Citations    map[int64]string `json:"citations"`
	Failures     map[int64]string `json:"failures,omitempty"`
}

func domainCitationToResponse(c *domain.Citation) citationItemResponse {
	return citationItemResponse{
		ID:                c.ID,
		SubmissionID:      c.SubmissionID,
		MediaID:           c.MediaID,
		MediaType:         string(c.MediaType),
		UserInputMetaData: c.UserInputMetaData,
		CreatedAt:         c.CreatedAt,
	}
}

func domainSubmissionToResponse(sub *domain.Submission) submissionResponse {
	citations := make([]citationItemResponse, len(sub.Citations))
	for i := range sub.Citations {
		citations[i] = domainCitationToResponse(&sub.Citations[i])
	}
	return submissionResponse{
		ID:        sub.ID,
		UserID:    sub.UserID,
		Date:      sub.Date,
		Format:    sub.Format,
		Citations: citations,
		CreatedAt: sub.CreatedAt,
		UpdatedAt: sub.UpdatedAt,
	}
}

// createSubmission handles POST /users/{userID}/submissions. Citations in
// the request body are attached in order as part of the same creation.
func (s *Server) createSubmission(w http.ResponseWriter, r *http.Request) {
	userID, ok := parseID(w, chi.URLParam(r, "userID"), "user_id")
	if !ok {
		return
	}

	var req createSubmissionRequest
	if !decodeJSON(w, r, &req) {
		return
	}

	date := time.Now().UTC()
	if req.Date != nil {
		date = *req.Date
	}

	sub := &domain.Submission{
		UserID: userID,
		Date:   date,
		Format: req.Format,
	}
	for i := range req.Citations {
		c, err := req.Citations[i].toDomain()
		if err != nil {
			writeDomainError(w, err)
			return
		}
		if err := sub.Attach(c); err != nil {
			writeDomainError(w, err)
			return
		}
	}

	created, err := s.submissions.Create(r.Context(), sub)
	if err != nil {
		writeDomainError(w, err)
		return
	}

	if s.metrics != nil {
		s.metrics.SubmissionsCreated.Inc()
	}
	s.logger.Info().
		Int64("submission_id", created.ID).
		Int64("user_id", userID).
		Int("citations", len(created.Citations)).
		Msg("submission created")
	writeJSON(w, http.StatusCreated, domainSubmissionToResponse(created))
}

// listUserSubmissions handles GET /users/{userID}/submissions.
func (s *Server) listUserSubmissions(w http.ResponseWriter, r *http.Request) {
	userID, ok := parseID(w, chi.URLParam(r, "userID"), "user_id")
	if !ok {
		return
	}

	limit, offset := parsePaginationParams(r)

	subs, totalCount, err := s.submissions.ListByUser(r.Context(), userID, limit, offset)
	if err != nil {
		writeDomainError(w, err)
		return
	}

	responses := make([]submissionResponse, len(subs))
	for i, sub := range subs {
		responses[i] = domainSubmissionToResponse(sub)
	}

	writeJSON(w, http.StatusOK, listSubmissionsResponse{
		Submissions:   responses,
		NextPageToken: encodePageToken(offset, limit, int(totalCount)),
		TotalCount:    int(totalCount),
	})
}

// getSubmission handles GET /submissions/{submissionID}.
func (s *Server) getSubmission(w http.ResponseWriter, r *http.Request) {
	submissionID, ok := parseID(w, chi.URLParam(r, "submissionID"), "submission_id")
	if !ok {
		return
	}

	sub, err := s.submissions.GetByID(r.Context(), submissionID)
	if err != nil {
		writeDomainError(w, err)
		return
	}

	writeJSON(w, http.StatusOK, domainSubmissionToResponse(sub))
}

// deleteSubmission handles DELETE /submissions/{submissionID}. Citations
// are removed by cascade.
func (s *Server) deleteSubmission(w http.ResponseWriter, r *http.Request) {
	submissionID, ok := parseID(w, chi.URLParam(r, "submissionID"), "submission_id")
	if !ok {
		return
	}

	if err := s.submissions.Delete(r.Context(), submissionID); err != nil {
		writeDomainError(w, err)
		return
	}

	w.WriteHeader(http.StatusNoContent)
}

// addCitation handles POST /submissions/{submissionID}/citations.
func (s *Server) addCitation(w http.ResponseWriter, r *http.Request) {
	submissionID, ok := parseID(w, chi.URLParam(r, "submissionID"), "submission_id")
	if !ok {
		return
	}

	var req citationRequest
	if !decodeJSON(w, r, &req) {
		return
	}

	c, err := req.toDomain()
	if err != nil {
		writeDomainError(w, err)
		return
	}

	attached, err := s.submissions.AddCitation(r.Context(), submissionID, c)
	if err != nil {
		writeDomainError(w, err)
		return
	}

	if s.metrics != nil {
		s.metrics.CitationsAttached.Inc()
	}
	writeJSON(w, http.StatusCreated, domainCitationToResponse(attached))
}

// removeCitation handles DELETE /submissions/{submissionID}/citations/{citationID}.
func (s *Server) removeCitation(w http.ResponseWriter, r *http.Request) {
	submissionID, ok := parseID(w, chi.URLParam(r, "submissionID"), "submission_id")
	if !ok {
		return
	}
	citationID, ok := parseID(w, chi.URLParam(r, "citationID"), "citation_id")
	if !ok {
		return
	}

	if err := s.submissions.RemoveCitation(r.Context(), submissionID, citationID); err != nil {
		writeDomainError(w, err)
		return
	}

	w.WriteHeader(http.StatusNoContent)
}

// getFormattedCitations handles GET /submissions/{submissionID}/citations/formatted.
// The submission's own format is used unless a style query parameter
// overrides it. Citations that fail to resolve are reported individually
// without failing the whole group.
func (s *Server) getFormattedCitations(w http.ResponseWriter, r *http.Request) {
	submissionID, ok := parseID(w, chi.URLParam(r, "submissionID"), "submission_id")
	if !ok {
		return
	}

	var styleOverride *domain.Style
	if styleParam := r.URL.Query().Get("style"); styleParam != "" {
		style, err := domain.ParseStyle(styleParam)
		if err != nil {
			writeDomainError(w, err)
			return
		}
		styleOverride = &style
	}

	result, err := s.resolver.ResolveSubmission(r.Context(), submissionID, styleOverride, parseBackfillParam(r))
	if err != nil {
		writeDomainError(w, err)
		return
	}

	writeJSON(w, http.StatusOK, groupResultToResponse(submissionID, styleOverride, result))
}

// groupResultToResponse assembles the formatted-citations payload. When the
// style was not overridden the submission's stored format is reported.
func groupResultToResponse(submissionID int64, styleOverride *domain.Style, result *citation.GroupResult) formattedCitationsResponse {
	resp := formattedCitationsResponse{
		SubmissionID: submissionID,
		Citations:    result.Citations,
		Failures:     result.Failures,
	}
	if styleOverride != nil {
		resp.Style = string(*styleOverride)
	} else {
		resp.Style = result.Style
	}
	return resp
}
