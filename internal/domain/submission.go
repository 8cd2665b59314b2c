package domain

import (
	"strconv"
	"time"
)

// Citation references exactly one source by its (MediaID, MediaType) lookup
// key. It does not own the source; the key is resolved against source
// storage at read time. A citation belongs to exactly one submission.
type Citation struct {
	// ID is the persisted identifier; zero until the citation is stored.
	ID int64

	// SubmissionID is the owning submission. Zero means unattached.
	SubmissionID int64

	// MediaID and MediaType identify the referenced source.
	MediaID   int64
	MediaType MediaType

	// UserInputMetaData is optional free text supplied by the user.
	UserInputMetaData string

	CreatedAt time.Time
}

// Validate checks the citation's source reference.
func (c *Citation) Validate() error {
	if c.MediaID <= 0 {
		return NewValidationError("media_id", "media_id must be a positive identifier")
	}
	if !IsValidMediaType(c.MediaType) {
		return &UnsupportedMediaTypeError{Value: string(c.MediaType)}
	}
	return nil
}

// Submission is an ordered collection of citations owned by a user.
// The citation collection cascades on delete.
type Submission struct {
	// ID is the persisted identifier; zero until the submission is stored.
	ID int64

	// UserID is the owning user.
	UserID int64

	// Date is the creation date; never zero or in the future.
	Date time.Time

	// Format is the requested citation style. The input's case is preserved
	// but the value is validated case-insensitively against MLA/APA/Chicago.
	Format string

	// Citations holds the submission's citations in insertion order.
	Citations []Citation

	CreatedAt time.Time
	UpdatedAt time.Time
}

// Validate checks the submission's ownership, date, and format fields.
func (s *Submission) Validate() error {
	if s.UserID <= 0 {
		return NewValidationError("user_id", "user_id must be a positive identifier")
	}
	if s.Date.IsZero() {
		return NewValidationError("date", "date must not be null")
	}
	if s.Date.After(time.Now().UTC()) {
		return NewValidationError("date", "date must not be in the future")
	}
	if _, err := ParseStyle(s.Format); err != nil {
		return NewValidationError("format", "format must be one of MLA, APA, Chicago")
	}
	return nil
}

// Style returns the canonical citation style for the submission's format.
// Validate must have accepted the format first.
func (s *Submission) Style() (Style, error) {
	return ParseStyle(s.Format)
}

// Attach adds a citation to the submission and sets its back-reference.
// A citation already owned by a different submission is rejected; pairing
// the add with the back-reference keeps membership and ownership consistent.
func (s *Submission) Attach(c *Citation) error {
	if c == nil {
		return NewValidationError("citation", "citation must not be nil")
	}
	if err := c.Validate(); err != nil {
		return err
	}
	if c.SubmissionID != 0 && c.SubmissionID != s.ID {
		return NewValidationError("citation", "citation already belongs to another submission")
	}
	for i := range s.Citations {
		if c.ID != 0 && s.Citations[i].ID == c.ID {
			return NewAlreadyExistsError("citation", itoa64(c.ID))
		}
	}
	c.SubmissionID = s.ID
	s.Citations = append(s.Citations, *c)
	return nil
}

// Detach removes the citation with the given id from the submission and
// clears its back-reference. Returns the detached citation.
func (s *Submission) Detach(citationID int64) (*Citation, error) {
	for i := range s.Citations {
		if s.Citations[i].ID == citationID {
			c := s.Citations[i]
			s.Citations = append(s.Citations[:i], s.Citations[i+1:]...)
			c.SubmissionID = 0
			return &c, nil
		}
	}
	return nil, NewNotFoundError("citation", itoa64(citationID))
}

func itoa64(v int64) string {
	return strconv.FormatInt(v, 10)
}
