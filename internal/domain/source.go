// Package domain provides domain models and business logic for the citation service.
package domain

import (
	"strings"
	"time"
)

// MediaType identifies the source variant. These values must match the
// database enum media_type.
type MediaType string

const (
	MediaTypeBook    MediaType = "book"
	MediaTypeVideo   MediaType = "video"
	MediaTypeArticle MediaType = "article"
)

// IsValidMediaType reports whether t is a known media type.
func IsValidMediaType(t MediaType) bool {
	switch t {
	case MediaTypeBook, MediaTypeVideo, MediaTypeArticle:
		return true
	default:
		return false
	}
}

// ParseMediaType parses a media type value case-insensitively.
// Returns an UnsupportedMediaTypeError for unknown values.
func ParseMediaType(s string) (MediaType, error) {
	t := MediaType(strings.ToLower(strings.TrimSpace(s)))
	if !IsValidMediaType(t) {
		return "", &UnsupportedMediaTypeError{Value: s}
	}
	return t, nil
}

// Style identifies a citation style: a named set of formatting rules for
// rendering a source as a citation string.
type Style string

const (
	StyleMLA     Style = "MLA"
	StyleAPA     Style = "APA"
	StyleChicago Style = "Chicago"
)

// ParseStyle parses a style value case-insensitively, returning the
// canonical form. Unknown values yield a ValidationError naming the input.
func ParseStyle(s string) (Style, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "mla":
		return StyleMLA, nil
	case "apa":
		return StyleAPA, nil
	case "chicago":
		return StyleChicago, nil
	default:
		return "", NewValidationError("style", "unsupported citation style: "+s)
	}
}

// Source is a bibliographic source record. Exactly one of the variant field
// structs is non-nil, matching Type. Optional fields are pointers; nil means
// the field is absent.
type Source struct {
	// ID is the persisted identifier; zero until the source is stored.
	ID int64

	// Type selects which variant field struct is populated.
	Type MediaType

	// Title is required and never blank after validation.
	Title string

	// Author is required and never blank after validation. It may encode
	// multiple comma-separated "First Last" names.
	Author string

	Book    *BookFields
	Video   *VideoFields
	Article *ArticleFields

	CreatedAt time.Time
	UpdatedAt time.Time
}

// BookFields holds the book-specific fields of a source.
type BookFields struct {
	Publisher       *string
	PublicationYear *int
	City            *string
	Edition         *string
	ISBN            *string
}

// VideoFields holds the video-specific fields of a source.
type VideoFields struct {
	Director        *string
	DurationSeconds *int
	Platform        *string
	URL             *string
	ReleaseYear     *int
}

// ArticleFields holds the article-specific fields of a source.
type ArticleFields struct {
	Journal         *string
	Volume          *string
	Issue           *string
	Pages           *string
	DOI             *string
	URL             *string
	PublicationYear *int
}

// NewBook builds a validated book source.
func NewBook(title, author string, fields BookFields) (*Source, error) {
	s := &Source{
		Type:   MediaTypeBook,
		Title:  title,
		Author: author,
		Book:   &fields,
	}
	if err := s.Validate(); err != nil {
		return nil, err
	}
	return s, nil
}

// NewVideo builds a validated video source.
func NewVideo(title, author string, fields VideoFields) (*Source, error) {
	s := &Source{
		Type:   MediaTypeVideo,
		Title:  title,
		Author: author,
		Video:  &fields,
	}
	if err := s.Validate(); err != nil {
		return nil, err
	}
	return s, nil
}

// NewArticle builds a validated article source.
func NewArticle(title, author string, fields ArticleFields) (*Source, error) {
	s := &Source{
		Type:    MediaTypeArticle,
		Title:   title,
		Author:  author,
		Article: &fields,
	}
	if err := s.Validate(); err != nil {
		return nil, err
	}
	return s, nil
}

// Validate checks the common fields and the variant fields matching Type.
// It returns the first violation found as a ValidationError.
func (s *Source) Validate() error {
	if err := ValidateRequiredText("title", s.Title); err != nil {
		return err
	}
	if err := ValidateRequiredText("author", s.Author); err != nil {
		return err
	}
	if !IsValidMediaType(s.Type) {
		return &UnsupportedMediaTypeError{Value: string(s.Type)}
	}

	switch s.Type {
	case MediaTypeBook:
		if s.Book == nil || s.Video != nil || s.Article != nil {
			return NewValidationError("type", "book source must carry exactly the book fields")
		}
		return s.Book.validate()
	case MediaTypeVideo:
		if s.Video == nil || s.Book != nil || s.Article != nil {
			return NewValidationError("type", "video source must carry exactly the video fields")
		}
		return s.Video.validate()
	case MediaTypeArticle:
		if s.Article == nil || s.Book != nil || s.Video != nil {
			return NewValidationError("type", "article source must carry exactly the article fields")
		}
		return s.Article.validate()
	}
	return nil
}

func (f *BookFields) validate() error {
	if err := ValidateOptionalText("publisher", f.Publisher); err != nil {
		return err
	}
	if err := ValidateYearRange("publication_year", f.PublicationYear, MinPublicationYear, MaxYear()); err != nil {
		return err
	}
	if err := ValidateOptionalText("city", f.City); err != nil {
		return err
	}
	if err := ValidateOptionalText("edition", f.Edition); err != nil {
		return err
	}
	return ValidateISBN(f.ISBN)
}

func (f *VideoFields) validate() error {
	if err := ValidateOptionalText("director", f.Director); err != nil {
		return err
	}
	if err := ValidatePositiveInt("duration_seconds", f.DurationSeconds); err != nil {
		return err
	}
	if err := ValidateOptionalText("platform", f.Platform); err != nil {
		return err
	}
	if err := ValidateURL("url", f.URL); err != nil {
		return err
	}
	return ValidateYearRange("release_year", f.ReleaseYear, MinReleaseYear, MaxYear())
}

func (f *ArticleFields) validate() error {
	if err := ValidateOptionalText("journal", f.Journal); err != nil {
		return err
	}
	if err := ValidateOptionalText("volume", f.Volume); err != nil {
		return err
	}
	if err := ValidateOptionalText("issue", f.Issue); err != nil {
		return err
	}
	if err := ValidateOptionalText("pages", f.Pages); err != nil {
		return err
	}
	if err := ValidateDOI(f.DOI); err != nil {
		return err
	}
	if err := ValidateURL("url", f.URL); err != nil {
		return err
	}
	return ValidateYearRange("publication_year", f.PublicationYear, MinPublicationYear, MaxYear())
}
