package httpserver

import (
	"context"
	"net/http"
	"net/http/httptest"
	"strconv"
	"strings"
	"testing"
	"time"

	"github.com/citehub/citation-service/internal/domain"
)

// newStoredSubmission returns a submission with two citations, one book and
// one article, referencing media IDs 1 and 2.
func newStoredSubmission(id int64) *domain.Submission {
	now := time.Now().UTC()
	return &domain.Submission{
		ID:     id,
		UserID: 7,
		Date:   time.Date(2024, 5, 10, 0, 0, 0, 0, time.UTC),
		Format: "MLA",
		Citations: []domain.Citation{
			{ID: 11, SubmissionID: id, MediaID: 1, MediaType: domain.MediaTypeBook, UserInputMetaData: "chapter 3", CreatedAt: now},
			{ID: 12, SubmissionID: id, MediaID: 2, MediaType: domain.MediaTypeArticle, CreatedAt: now},
		},
		CreatedAt: now,
		UpdatedAt: now,
	}
}

// ---------------------------------------------------------------------------
// Tests: createSubmission
// ---------------------------------------------------------------------------

func TestCreateSubmission_Success(t *testing.T) {
	var createdSub *domain.Submission
	submissions := &mockSubmissionRepo{
		createFn: func(_ context.Context, sub *domain.Submission) (*domain.Submission, error) {
			createdSub = sub
			created := *sub
			created.ID = 5
			return &created, nil
		},
	}
	srv := newTestHTTPServer(&mockUserRepo{}, &mockSourceRepo{}, submissions)

	body := `{"date":"2024-05-10T00:00:00Z","format":"MLA"}`
	rr := serveHTTP(srv, postJSON("/api/v1/users/7/submissions", body))

	if rr.Code != http.StatusCreated {
		t.Fatalf("expected status 201, got %d: %s", rr.Code, rr.Body.String())
	}

	var resp submissionResponse
	decodeBody(t, rr, &resp)
	if resp.ID != 5 {
		t.Errorf("expected id 5, got %d", resp.ID)
	}
	if resp.UserID != 7 {
		t.Errorf("expected user_id 7, got %d", resp.UserID)
	}
	if resp.Format != "MLA" {
		t.Errorf("expected format MLA, got %s", resp.Format)
	}

	if createdSub == nil {
		t.Fatal("expected createFn to be called")
	}
	if createdSub.UserID != 7 {
		t.Errorf("expected created submission user_id 7, got %d", createdSub.UserID)
	}
	if !createdSub.Date.Equal(time.Date(2024, 5, 10, 0, 0, 0, 0, time.UTC)) {
		t.Errorf("expected date 2024-05-10, got %s", createdSub.Date)
	}
}

func TestCreateSubmission_WithCitations(t *testing.T) {
	var createdSub *domain.Submission
	submissions := &mockSubmissionRepo{
		createFn: func(_ context.Context, sub *domain.Submission) (*domain.Submission, error) {
			createdSub = sub
			created := *sub
			created.ID = 5
			for i := range created.Citations {
				created.Citations[i].ID = int64(11 + i)
				created.Citations[i].SubmissionID = 5
			}
			return &created, nil
		},
	}
	srv := newTestHTTPServer(&mockUserRepo{}, &mockSourceRepo{}, submissions)

	body := `{
		"date": "2024-05-10T00:00:00Z",
		"format": "APA",
		"citations": [
			{"media_id": 1, "media_type": "book", "user_input_metadata": "chapter 3"},
			{"media_id": 2, "media_type": "article"}
		]
	}`
	rr := serveHTTP(srv, postJSON("/api/v1/users/7/submissions", body))

	if rr.Code != http.StatusCreated {
		t.Fatalf("expected status 201, got %d: %s", rr.Code, rr.Body.String())
	}

	if createdSub == nil {
		t.Fatal("expected createFn to be called")
	}
	if len(createdSub.Citations) != 2 {
		t.Fatalf("expected 2 citations, got %d", len(createdSub.Citations))
	}
	if createdSub.Citations[0].MediaType != domain.MediaTypeBook {
		t.Errorf("expected first citation media_type book, got %s", createdSub.Citations[0].MediaType)
	}
	if createdSub.Citations[0].UserInputMetaData != "chapter 3" {
		t.Errorf("expected user_input_metadata to be carried, got %q", createdSub.Citations[0].UserInputMetaData)
	}

	var resp submissionResponse
	decodeBody(t, rr, &resp)
	if len(resp.Citations) != 2 {
		t.Fatalf("expected 2 citations in response, got %d", len(resp.Citations))
	}
	if resp.Citations[0].SubmissionID != 5 {
		t.Errorf("expected citation submission_id 5, got %d", resp.Citations[0].SubmissionID)
	}
}

func TestCreateSubmission_DefaultsDateToNow(t *testing.T) {
	var createdSub *domain.Submission
	submissions := &mockSubmissionRepo{
		createFn: func(_ context.Context, sub *domain.Submission) (*domain.Submission, error) {
			createdSub = sub
			created := *sub
			created.ID = 5
			return &created, nil
		},
	}
	srv := newTestHTTPServer(&mockUserRepo{}, &mockSourceRepo{}, submissions)

	rr := serveHTTP(srv, postJSON("/api/v1/users/7/submissions", `{"format":"Chicago"}`))

	if rr.Code != http.StatusCreated {
		t.Fatalf("expected status 201, got %d: %s", rr.Code, rr.Body.String())
	}
	if createdSub == nil {
		t.Fatal("expected createFn to be called")
	}
	if time.Since(createdSub.Date) > time.Minute {
		t.Errorf("expected date to default to now, got %s", createdSub.Date)
	}
}

func TestCreateSubmission_MissingFormat(t *testing.T) {
	srv := newTestHTTPServer(&mockUserRepo{}, &mockSourceRepo{}, &mockSubmissionRepo{})

	rr := serveHTTP(srv, postJSON("/api/v1/users/7/submissions", `{"date":"2024-05-10T00:00:00Z"}`))

	if rr.Code != http.StatusBadRequest {
		t.Fatalf("expected status 400, got %d: %s", rr.Code, rr.Body.String())
	}
}

func TestCreateSubmission_UnsupportedFormat(t *testing.T) {
	submissions := &mockSubmissionRepo{
		createFn: func(_ context.Context, sub *domain.Submission) (*domain.Submission, error) {
			return nil, sub.Validate()
		},
	}
	srv := newTestHTTPServer(&mockUserRepo{}, &mockSourceRepo{}, submissions)

	rr := serveHTTP(srv, postJSON("/api/v1/users/7/submissions", `{"format":"Harvard"}`))

	if rr.Code != http.StatusBadRequest {
		t.Fatalf("expected status 400, got %d: %s", rr.Code, rr.Body.String())
	}
}

func TestCreateSubmission_UnsupportedCitationMediaType(t *testing.T) {
	srv := newTestHTTPServer(&mockUserRepo{}, &mockSourceRepo{}, &mockSubmissionRepo{})

	body := `{"format":"MLA","citations":[{"media_id":1,"media_type":"podcast"}]}`
	rr := serveHTTP(srv, postJSON("/api/v1/users/7/submissions", body))

	if rr.Code != http.StatusBadRequest {
		t.Fatalf("expected status 400, got %d: %s", rr.Code, rr.Body.String())
	}
}

func TestCreateSubmission_InvalidCitationMediaID(t *testing.T) {
	srv := newTestHTTPServer(&mockUserRepo{}, &mockSourceRepo{}, &mockSubmissionRepo{})

	body := `{"format":"MLA","citations":[{"media_id":0,"media_type":"book"}]}`
	rr := serveHTTP(srv, postJSON("/api/v1/users/7/submissions", body))

	if rr.Code != http.StatusBadRequest {
		t.Fatalf("expected status 400, got %d: %s", rr.Code, rr.Body.String())
	}
}

func TestCreateSubmission_UserNotFound(t *testing.T) {
	submissions := &mockSubmissionRepo{
		createFn: func(_ context.Context, sub *domain.Submission) (*domain.Submission, error) {
			return nil, domain.NewNotFoundError("user", strconv.FormatInt(sub.UserID, 10))
		},
	}
	srv := newTestHTTPServer(&mockUserRepo{}, &mockSourceRepo{}, submissions)

	rr := serveHTTP(srv, postJSON("/api/v1/users/99/submissions", `{"format":"MLA"}`))

	if rr.Code != http.StatusNotFound {
		t.Fatalf("expected status 404, got %d: %s", rr.Code, rr.Body.String())
	}
}

// ---------------------------------------------------------------------------
// Tests: listUserSubmissions
// ---------------------------------------------------------------------------

func TestListUserSubmissions_Success(t *testing.T) {
	var capturedUserID int64
	submissions := &mockSubmissionRepo{
		listByUserFn: func(_ context.Context, userID int64, limit, offset int) ([]*domain.Submission, int64, error) {
			capturedUserID = userID
			if limit != defaultPageSize || offset != 0 {
				t.Errorf("expected default pagination, got limit=%d offset=%d", limit, offset)
			}
			return []*domain.Submission{newStoredSubmission(5), newStoredSubmission(6)}, 2, nil
		},
	}
	srv := newTestHTTPServer(&mockUserRepo{}, &mockSourceRepo{}, submissions)

	rr := serveHTTP(srv, httptest.NewRequest(http.MethodGet, "/api/v1/users/7/submissions", nil))

	if rr.Code != http.StatusOK {
		t.Fatalf("expected status 200, got %d: %s", rr.Code, rr.Body.String())
	}
	if capturedUserID != 7 {
		t.Errorf("expected list for user 7, got %d", capturedUserID)
	}

	var resp listSubmissionsResponse
	decodeBody(t, rr, &resp)
	if len(resp.Submissions) != 2 {
		t.Fatalf("expected 2 submissions, got %d", len(resp.Submissions))
	}
	if resp.TotalCount != 2 {
		t.Errorf("expected total_count 2, got %d", resp.TotalCount)
	}
	if len(resp.Submissions[0].Citations) != 2 {
		t.Errorf("expected citations to be included, got %d", len(resp.Submissions[0].Citations))
	}
}

func TestListUserSubmissions_Empty(t *testing.T) {
	srv := newTestHTTPServer(&mockUserRepo{}, &mockSourceRepo{}, &mockSubmissionRepo{})

	rr := serveHTTP(srv, httptest.NewRequest(http.MethodGet, "/api/v1/users/7/submissions", nil))

	if rr.Code != http.StatusOK {
		t.Fatalf("expected status 200, got %d: %s", rr.Code, rr.Body.String())
	}

	var resp listSubmissionsResponse
	decodeBody(t, rr, &resp)
	if resp.TotalCount != 0 {
		t.Errorf("expected total_count 0, got %d", resp.TotalCount)
	}
}

// ---------------------------------------------------------------------------
// Tests: getSubmission / deleteSubmission
// ---------------------------------------------------------------------------

func TestGetSubmission_Success(t *testing.T) {
	submissions := &mockSubmissionRepo{
		getByIDFn: func(_ context.Context, id int64) (*domain.Submission, error) {
			return newStoredSubmission(id), nil
		},
	}
	srv := newTestHTTPServer(&mockUserRepo{}, &mockSourceRepo{}, submissions)

	rr := serveHTTP(srv, httptest.NewRequest(http.MethodGet, "/api/v1/submissions/5", nil))

	if rr.Code != http.StatusOK {
		t.Fatalf("expected status 200, got %d: %s", rr.Code, rr.Body.String())
	}

	var resp submissionResponse
	decodeBody(t, rr, &resp)
	if resp.ID != 5 {
		t.Errorf("expected id 5, got %d", resp.ID)
	}
	if len(resp.Citations) != 2 {
		t.Fatalf("expected 2 citations, got %d", len(resp.Citations))
	}
	if resp.Citations[0].ID != 11 || resp.Citations[1].ID != 12 {
		t.Errorf("expected citations in insertion order, got %d then %d", resp.Citations[0].ID, resp.Citations[1].ID)
	}
	if resp.Citations[0].UserInputMetaData != "chapter 3" {
		t.Errorf("expected user_input_metadata, got %q", resp.Citations[0].UserInputMetaData)
	}
}

func TestGetSubmission_NotFound(t *testing.T) {
	srv := newTestHTTPServer(&mockUserRepo{}, &mockSourceRepo{}, &mockSubmissionRepo{})

	rr := serveHTTP(srv, httptest.NewRequest(http.MethodGet, "/api/v1/submissions/99", nil))

	if rr.Code != http.StatusNotFound {
		t.Fatalf("expected status 404, got %d: %s", rr.Code, rr.Body.String())
	}
}

func TestGetSubmission_InvalidID(t *testing.T) {
	srv := newTestHTTPServer(&mockUserRepo{}, &mockSourceRepo{}, &mockSubmissionRepo{})

	rr := serveHTTP(srv, httptest.NewRequest(http.MethodGet, "/api/v1/submissions/abc", nil))

	if rr.Code != http.StatusBadRequest {
		t.Fatalf("expected status 400, got %d: %s", rr.Code, rr.Body.String())
	}
}

func TestDeleteSubmission_Success(t *testing.T) {
	var deletedID int64
	submissions := &mockSubmissionRepo{
		deleteFn: func(_ context.Context, id int64) error {
			deletedID = id
			return nil
		},
	}
	srv := newTestHTTPServer(&mockUserRepo{}, &mockSourceRepo{}, submissions)

	rr := serveHTTP(srv, httptest.NewRequest(http.MethodDelete, "/api/v1/submissions/5", nil))

	if rr.Code != http.StatusNoContent {
		t.Fatalf("expected status 204, got %d: %s", rr.Code, rr.Body.String())
	}
	if deletedID != 5 {
		t.Errorf("expected delete of submission 5, got %d", deletedID)
	}
}

func TestDeleteSubmission_NotFound(t *testing.T) {
	submissions := &mockSubmissionRepo{
		deleteFn: func(_ context.Context, id int64) error {
			return domain.NewNotFoundError("submission", strconv.FormatInt(id, 10))
		},
	}
	srv := newTestHTTPServer(&mockUserRepo{}, &mockSourceRepo{}, submissions)

	rr := serveHTTP(srv, httptest.NewRequest(http.MethodDelete, "/api/v1/submissions/99", nil))

	if rr.Code != http.StatusNotFound {
		t.Fatalf("expected status 404, got %d: %s", rr.Code, rr.Body.String())
	}
}

// ---------------------------------------------------------------------------
// Tests: addCitation / removeCitation
// ---------------------------------------------------------------------------

func TestAddCitation_Success(t *testing.T) {
	var capturedSubmissionID int64
	submissions := &mockSubmissionRepo{
		addCitationFn: func(_ context.Context, submissionID int64, c *domain.Citation) (*domain.Citation, error) {
			capturedSubmissionID = submissionID
			attached := *c
			attached.ID = 13
			attached.SubmissionID = submissionID
			attached.CreatedAt = time.Now().UTC()
			return &attached, nil
		},
	}
	srv := newTestHTTPServer(&mockUserRepo{}, &mockSourceRepo{}, submissions)

	body := `{"media_id":3,"media_type":"video","user_input_metadata":"first 20 minutes"}`
	rr := serveHTTP(srv, postJSON("/api/v1/submissions/5/citations", body))

	if rr.Code != http.StatusCreated {
		t.Fatalf("expected status 201, got %d: %s", rr.Code, rr.Body.String())
	}
	if capturedSubmissionID != 5 {
		t.Errorf("expected citation added to submission 5, got %d", capturedSubmissionID)
	}

	var resp citationItemResponse
	decodeBody(t, rr, &resp)
	if resp.ID != 13 {
		t.Errorf("expected id 13, got %d", resp.ID)
	}
	if resp.SubmissionID != 5 {
		t.Errorf("expected submission_id 5, got %d", resp.SubmissionID)
	}
	if resp.MediaID != 3 || resp.MediaType != "video" {
		t.Errorf("expected video 3, got %s %d", resp.MediaType, resp.MediaID)
	}
}

func TestAddCitation_MissingMediaID(t *testing.T) {
	srv := newTestHTTPServer(&mockUserRepo{}, &mockSourceRepo{}, &mockSubmissionRepo{})

	rr := serveHTTP(srv, postJSON("/api/v1/submissions/5/citations", `{"media_type":"book"}`))

	if rr.Code != http.StatusBadRequest {
		t.Fatalf("expected status 400, got %d: %s", rr.Code, rr.Body.String())
	}
}

func TestAddCitation_SubmissionNotFound(t *testing.T) {
	submissions := &mockSubmissionRepo{
		addCitationFn: func(_ context.Context, submissionID int64, _ *domain.Citation) (*domain.Citation, error) {
			return nil, domain.NewNotFoundError("submission", strconv.FormatInt(submissionID, 10))
		},
	}
	srv := newTestHTTPServer(&mockUserRepo{}, &mockSourceRepo{}, submissions)

	rr := serveHTTP(srv, postJSON("/api/v1/submissions/99/citations", `{"media_id":1,"media_type":"book"}`))

	if rr.Code != http.StatusNotFound {
		t.Fatalf("expected status 404, got %d: %s", rr.Code, rr.Body.String())
	}
}

func TestRemoveCitation_Success(t *testing.T) {
	var removedSubmissionID, removedCitationID int64
	submissions := &mockSubmissionRepo{
		removeCitationFn: func(_ context.Context, submissionID, citationID int64) error {
			removedSubmissionID = submissionID
			removedCitationID = citationID
			return nil
		},
	}
	srv := newTestHTTPServer(&mockUserRepo{}, &mockSourceRepo{}, submissions)

	rr := serveHTTP(srv, httptest.NewRequest(http.MethodDelete, "/api/v1/submissions/5/citations/11", nil))

	if rr.Code != http.StatusNoContent {
		t.Fatalf("expected status 204, got %d: %s", rr.Code, rr.Body.String())
	}
	if removedSubmissionID != 5 || removedCitationID != 11 {
		t.Errorf("expected removal of citation 11 from submission 5, got %d/%d", removedSubmissionID, removedCitationID)
	}
}

func TestRemoveCitation_NotFound(t *testing.T) {
	submissions := &mockSubmissionRepo{
		removeCitationFn: func(_ context.Context, _, citationID int64) error {
			return domain.NewNotFoundError("citation", strconv.FormatInt(citationID, 10))
		},
	}
	srv := newTestHTTPServer(&mockUserRepo{}, &mockSourceRepo{}, submissions)

	rr := serveHTTP(srv, httptest.NewRequest(http.MethodDelete, "/api/v1/submissions/5/citations/99", nil))

	if rr.Code != http.StatusNotFound {
		t.Fatalf("expected status 404, got %d: %s", rr.Code, rr.Body.String())
	}
}

// ---------------------------------------------------------------------------
// Tests: getFormattedCitations
// ---------------------------------------------------------------------------

// formattedCitationSources resolves media 1 to a book and media 2 to an
// article, as referenced by newStoredSubmission.
func formattedCitationSources() *mockSourceRepo {
	return &mockSourceRepo{
		getByIDFn: func(_ context.Context, id int64, mediaType domain.MediaType) (*domain.Source, error) {
			switch mediaType {
			case domain.MediaTypeBook:
				return bookSource(id), nil
			case domain.MediaTypeArticle:
				return articleSource(id), nil
			}
			return nil, domain.NewNotFoundError("source", strconv.FormatInt(id, 10))
		},
	}
}

func TestGetFormattedCitations_Success(t *testing.T) {
	submissions := &mockSubmissionRepo{
		getByIDFn: func(_ context.Context, id int64) (*domain.Submission, error) {
			return newStoredSubmission(id), nil
		},
	}
	srv := newTestHTTPServer(&mockUserRepo{}, formattedCitationSources(), submissions)

	rr := serveHTTP(srv, httptest.NewRequest(http.MethodGet, "/api/v1/submissions/5/citations/formatted", nil))

	if rr.Code != http.StatusOK {
		t.Fatalf("expected status 200, got %d: %s", rr.Code, rr.Body.String())
	}

	var resp formattedCitationsResponse
	decodeBody(t, rr, &resp)
	if resp.SubmissionID != 5 {
		t.Errorf("expected submission_id 5, got %d", resp.SubmissionID)
	}
	if resp.Style != string(domain.StyleMLA) {
		t.Errorf("expected style MLA from the submission format, got %s", resp.Style)
	}
	if len(resp.Citations) != 2 {
		t.Fatalf("expected 2 rendered citations, got %d", len(resp.Citations))
	}
	if len(resp.Failures) != 0 {
		t.Errorf("expected no failures, got %v", resp.Failures)
	}
	if !strings.Contains(resp.Citations[11], "The Odyssey") {
		t.Errorf("expected book citation for id 11, got %q", resp.Citations[11])
	}
	if !strings.Contains(resp.Citations[12], "Nature") {
		t.Errorf("expected article citation for id 12, got %q", resp.Citations[12])
	}
}

func TestGetFormattedCitations_StyleOverride(t *testing.T) {
	submissions := &mockSubmissionRepo{
		getByIDFn: func(_ context.Context, id int64) (*domain.Submission, error) {
			return newStoredSubmission(id), nil
		},
	}
	srv := newTestHTTPServer(&mockUserRepo{}, formattedCitationSources(), submissions)

	rr := serveHTTP(srv, httptest.NewRequest(http.MethodGet, "/api/v1/submissions/5/citations/formatted?style=apa", nil))

	if rr.Code != http.StatusOK {
		t.Fatalf("expected status 200, got %d: %s", rr.Code, rr.Body.String())
	}

	var resp formattedCitationsResponse
	decodeBody(t, rr, &resp)
	if resp.Style != string(domain.StyleAPA) {
		t.Errorf("expected style APA from the override, got %s", resp.Style)
	}
	if len(resp.Citations) != 2 {
		t.Fatalf("expected 2 rendered citations, got %d", len(resp.Citations))
	}
}

func TestGetFormattedCitations_PartialFailure(t *testing.T) {
	submissions := &mockSubmissionRepo{
		getByIDFn: func(_ context.Context, id int64) (*domain.Submission, error) {
			return newStoredSubmission(id), nil
		},
	}
	sources := &mockSourceRepo{
		getByIDFn: func(_ context.Context, id int64, mediaType domain.MediaType) (*domain.Source, error) {
			if mediaType == domain.MediaTypeBook {
				return bookSource(id), nil
			}
			return nil, domain.NewNotFoundError("source", strconv.FormatInt(id, 10))
		},
	}
	srv := newTestHTTPServer(&mockUserRepo{}, sources, submissions)

	rr := serveHTTP(srv, httptest.NewRequest(http.MethodGet, "/api/v1/submissions/5/citations/formatted", nil))

	if rr.Code != http.StatusOK {
		t.Fatalf("expected status 200 despite partial failure, got %d: %s", rr.Code, rr.Body.String())
	}

	var resp formattedCitationsResponse
	decodeBody(t, rr, &resp)
	if len(resp.Citations) != 1 {
		t.Fatalf("expected 1 rendered citation, got %d", len(resp.Citations))
	}
	if _, ok := resp.Citations[11]; !ok {
		t.Error("expected citation 11 to resolve")
	}
	if _, ok := resp.Failures[12]; !ok {
		t.Error("expected citation 12 to be reported as a failure")
	}
}

func TestGetFormattedCitations_SubmissionNotFound(t *testing.T) {
	srv := newTestHTTPServer(&mockUserRepo{}, &mockSourceRepo{}, &mockSubmissionRepo{})

	rr := serveHTTP(srv, httptest.NewRequest(http.MethodGet, "/api/v1/submissions/99/citations/formatted", nil))

	if rr.Code != http.StatusNotFound {
		t.Fatalf("expected status 404, got %d: %s", rr.Code, rr.Body.String())
	}
}

func TestGetFormattedCitations_UnsupportedStyle(t *testing.T) {
	srv := newTestHTTPServer(&mockUserRepo{}, &mockSourceRepo{}, &mockSubmissionRepo{})

	rr := serveHTTP(srv, httptest.NewRequest(http.MethodGet, "/api/v1/submissions/5/citations/formatted?style=harvard", nil))

	if rr.Code != http.StatusBadRequest {
		t.Fatalf("expected status 400, got %d: %s", rr.Code, rr.Body.String())
	}
}
