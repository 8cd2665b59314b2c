package citation

import (
	"strconv"
	"strings"

	"github.com/citehub/citation-service/internal/domain"
)

// Generate renders the source as a citation string under the given style.
// Absent fields are omitted entirely; the literal separators are the
// externally observable contract. Formatting is deterministic: the same
// source and style always yield the same string.
func Generate(src *domain.Source, style domain.Style) (string, error) {
	if src == nil {
		return "", domain.NewValidationError("source", "source must not be nil")
	}

	switch style {
	case domain.StyleMLA:
		return formatMLA(src)
	case domain.StyleAPA:
		return formatAPA(src)
	case domain.StyleChicago:
		return formatChicago(src)
	default:
		return "", domain.NewValidationError("style", "unsupported citation style: "+string(style))
	}
}

func formatMLA(src *domain.Source) (string, error) {
	author := formatAuthorsMLA(src.Author)

	switch src.Type {
	case domain.MediaTypeBook:
		var b strings.Builder
		b.WriteString(author)
		b.WriteString(". _")
		b.WriteString(src.Title)
		b.WriteString("_.")
		writeTrailer(&b, src.Book.Publisher, src.Book.PublicationYear)
		return b.String(), nil

	case domain.MediaTypeVideo:
		var b strings.Builder
		b.WriteString(author)
		b.WriteString(". _")
		b.WriteString(src.Title)
		b.WriteString("_.")
		writeTrailer(&b, src.Video.Platform, src.Video.ReleaseYear)
		return b.String(), nil

	case domain.MediaTypeArticle:
		var b strings.Builder
		b.WriteString(author)
		b.WriteString(`. "`)
		b.WriteString(src.Title)
		b.WriteString(`."`)

		a := src.Article
		var parts []string
		if a.Journal != nil {
			parts = append(parts, *a.Journal)
		}
		if a.Volume != nil {
			parts = append(parts, "vol. "+*a.Volume)
		}
		if a.Issue != nil {
			parts = append(parts, "no. "+*a.Issue)
		}
		if a.PublicationYear != nil {
			parts = append(parts, strconv.Itoa(*a.PublicationYear))
		}
		if len(parts) > 0 {
			b.WriteString(" ")
			b.WriteString(strings.Join(parts, ", "))
			b.WriteString(".")
		}
		return b.String(), nil
	}
	return "", &domain.UnsupportedMediaTypeError{Value: string(src.Type)}
}

func formatAPA(src *domain.Source) (string, error) {
	author := formatAuthorsAPA(src.Author)

	switch src.Type {
	case domain.MediaTypeBook:
		var b strings.Builder
		b.WriteString(author)
		writeAPAYear(&b, src.Book.PublicationYear)
		b.WriteString(" ")
		b.WriteString(src.Title)
		b.WriteString(".")
		if src.Book.Publisher != nil {
			b.WriteString(" ")
			b.WriteString(*src.Book.Publisher)
			b.WriteString(".")
		}
		return b.String(), nil

	case domain.MediaTypeVideo:
		var b strings.Builder
		b.WriteString(author)
		writeAPAYear(&b, src.Video.ReleaseYear)
		b.WriteString(" ")
		b.WriteString(src.Title)
		b.WriteString(" [Video].")
		if src.Video.Platform != nil {
			b.WriteString(" ")
			b.WriteString(*src.Video.Platform)
			b.WriteString(".")
		}
		return b.String(), nil

	case domain.MediaTypeArticle:
		var b strings.Builder
		b.WriteString(author)
		writeAPAYear(&b, src.Article.PublicationYear)
		b.WriteString(" ")
		b.WriteString(src.Title)
		b.WriteString(".")

		a := src.Article
		if a.Journal != nil {
			b.WriteString(" ")
			b.WriteString(*a.Journal)
			if a.Volume != nil {
				b.WriteString(", ")
				b.WriteString(*a.Volume)
			}
			if a.Issue != nil {
				b.WriteString("(")
				b.WriteString(*a.Issue)
				b.WriteString(")")
			}
			b.WriteString(".")
		}
		return b.String(), nil
	}
	return "", &domain.UnsupportedMediaTypeError{Value: string(src.Type)}
}

func formatChicago(src *domain.Source) (string, error) {
	author := formatAuthorsChicago(src.Author)

	switch src.Type {
	case domain.MediaTypeBook:
		var b strings.Builder
		b.WriteString(author)
		b.WriteString(`. "`)
		b.WriteString(src.Title)
		b.WriteString(`."`)

		k := src.Book
		imprint := ""
		switch {
		case k.City != nil && k.Publisher != nil:
			imprint = *k.City + ": " + *k.Publisher
		case k.City != nil:
			imprint = *k.City
		case k.Publisher != nil:
			imprint = *k.Publisher
		}
		if k.PublicationYear != nil {
			if imprint != "" {
				imprint += ", "
			}
			imprint += strconv.Itoa(*k.PublicationYear)
		}
		if imprint != "" {
			b.WriteString(" ")
			b.WriteString(imprint)
			b.WriteString(".")
		}
		return b.String(), nil

	case domain.MediaTypeVideo:
		var b strings.Builder
		b.WriteString(author)
		b.WriteString(`. "`)
		b.WriteString(src.Title)
		b.WriteString(`."`)
		writeTrailer(&b, src.Video.Platform, src.Video.ReleaseYear)
		return b.String(), nil

	case domain.MediaTypeArticle:
		var b strings.Builder
		b.WriteString(author)
		b.WriteString(`. "`)
		b.WriteString(src.Title)
		b.WriteString(`."`)

		a := src.Article
		seg := ""
		if a.Journal != nil {
			seg = *a.Journal
		}
		if a.Volume != nil {
			if seg != "" {
				seg += " "
			}
			seg += *a.Volume
		}
		if a.Issue != nil {
			if seg != "" {
				seg += ", "
			}
			seg += "no. " + *a.Issue
		}
		if a.PublicationYear != nil {
			if seg != "" {
				seg += " "
			}
			seg += "(" + strconv.Itoa(*a.PublicationYear) + ")"
		}
		if seg != "" {
			b.WriteString(" ")
			b.WriteString(seg)
			b.WriteString(".")
		}
		return b.String(), nil
	}
	return "", &domain.UnsupportedMediaTypeError{Value: string(src.Type)}
}

// writeTrailer appends a "Name, Year." trailer, joining the name to the year
// with ", " only when the year follows, and closing whichever fields are
// present with a period. Nothing is written when both are absent.
func writeTrailer(b *strings.Builder, name *string, year *int) {
	switch {
	case name != nil && year != nil:
		b.WriteString(" ")
		b.WriteString(*name)
		b.WriteString(", ")
		b.WriteString(strconv.Itoa(*year))
		b.WriteString(".")
	case name != nil:
		b.WriteString(" ")
		b.WriteString(*name)
		b.WriteString(".")
	case year != nil:
		b.WriteString(" ")
		b.WriteString(strconv.Itoa(*year))
		b.WriteString(".")
	}
}

// writeAPAYear appends the parenthesized APA year segment, or nothing when
// the year is absent.
func writeAPAYear(b *strings.Builder, year *int) {
	if year == nil {
		return
	}
	b.WriteString(" (")
	b.WriteString(strconv.Itoa(*year))
	b.WriteString(").")
}
