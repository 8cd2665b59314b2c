// Package citation renders bibliographic sources as formatted citation
// strings under the MLA, APA, and Chicago style grammars.
package citation

import (
	"strings"

	"github.com/citehub/citation-service/internal/domain"
)

// splitAuthors splits a raw author field into individual name tokens.
// The field encodes one or more "First Last" names separated by commas.
func splitAuthors(raw string) []string {
	parts := strings.Split(raw, ",")
	names := make([]string, 0, len(parts))
	for _, p := range parts {
		if name := strings.TrimSpace(p); name != "" {
			names = append(names, name)
		}
	}
	return names
}

// invertName renders "First Middle Last" as "Last, First Middle".
// A token with fewer than two words is returned unchanged; there is nothing
// to invert.
func invertName(name string) string {
	words := strings.Fields(name)
	if len(words) < 2 {
		return name
	}
	last := words[len(words)-1]
	first := strings.Join(words[:len(words)-1], " ")
	return last + ", " + first
}

// initialName renders "First Middle Last" as "Last, F." using only the first
// initial. A token with fewer than two words is returned unchanged.
func initialName(name string) string {
	words := strings.Fields(name)
	if len(words) < 2 {
		return name
	}
	last := words[len(words)-1]
	initial := string([]rune(words[0])[0])
	return last + ", " + initial + "."
}

// formatAuthorsMLA renders the author list in MLA form: every author
// inverted, commas between all but the last pair, and " and " before the
// final author.
func formatAuthorsMLA(raw string) string {
	names := splitAuthors(raw)
	if len(names) == 0 {
		return ""
	}

	rendered := make([]string, len(names))
	for i, name := range names {
		rendered[i] = invertName(name)
	}

	switch len(rendered) {
	case 1:
		return rendered[0]
	case 2:
		return rendered[0] + " and " + rendered[1]
	default:
		return strings.Join(rendered[:len(rendered)-1], ", ") + " and " + rendered[len(rendered)-1]
	}
}

// formatAuthorsAPA renders the author list in APA form: every author as
// "Last, F.", two authors joined with " & ", three or more joined with
// commas and a final " & " before the last author.
func formatAuthorsAPA(raw string) string {
	names := splitAuthors(raw)
	if len(names) == 0 {
		return ""
	}

	rendered := make([]string, len(names))
	for i, name := range names {
		rendered[i] = initialName(name)
	}

	switch len(rendered) {
	case 1:
		return rendered[0]
	case 2:
		return rendered[0] + " & " + rendered[1]
	default:
		return strings.Join(rendered[:len(rendered)-1], ", ") + " & " + rendered[len(rendered)-1]
	}
}

// formatAuthorsChicago renders the author list in Chicago form, which reuses
// the MLA rendering.
func formatAuthorsChicago(raw string) string {
	return formatAuthorsMLA(raw)
}

// FormatAuthors renders the raw author field under the given style.
func FormatAuthors(raw string, style domain.Style) (string, error) {
	switch style {
	case domain.StyleMLA:
		return formatAuthorsMLA(raw), nil
	case domain.StyleAPA:
		return formatAuthorsAPA(raw), nil
	case domain.StyleChicago:
		return formatAuthorsChicago(raw), nil
	default:
		return "", domain.NewValidationError("style", "unsupported citation style: "+string(style))
	}
}
