package domain

import (
	"fmt"
	"regexp"
	"strings"
	"time"
)

// Year bounds for publication and release years. The upper bound is always
// the current year plus YearSlack to allow forthcoming works.
const (
	// MinPublicationYear is the earliest accepted year for books and articles.
	MinPublicationYear = 1000

	// MinReleaseYear is the earliest accepted year for videos (the earliest
	// known motion-picture year).
	MinReleaseYear = 1888

	// YearSlack is added to the current year to form the upper bound.
	YearSlack = 10
)

var (
	isbn10Re   = regexp.MustCompile(`^[0-9]{9}[0-9X]$`)
	isbn13Re   = regexp.MustCompile(`^[0-9]{13}$`)
	doiRe      = regexp.MustCompile(`^10\.\d{4,}/\S+$`)
	isbnStrip  = strings.NewReplacer("-", "", " ", "", "\t", "")
	usernameRe = regexp.MustCompile(`^[A-Za-z0-9_-]+$`)
)

// MaxYear returns the upper bound for year validation: current year + YearSlack.
func MaxYear() int {
	return time.Now().UTC().Year() + YearSlack
}

// ValidateISBN checks that the value is a valid ISBN-10 or ISBN-13, after
// stripping hyphens and spaces. A nil value is accepted as absent.
func ValidateISBN(isbn *string) error {
	if isbn == nil {
		return nil
	}
	s := isbnStrip.Replace(*isbn)
	switch len(s) {
	case 10:
		if isbn10Re.MatchString(s) && isbn10ChecksumOK(s) {
			return nil
		}
	case 13:
		if isbn13Re.MatchString(s) && isbn13ChecksumOK(s) {
			return nil
		}
	}
	return NewValidationError("isbn", "ISBN must be a valid ISBN-10 or ISBN-13 format")
}

// isbn10ChecksumOK verifies the ISBN-10 check character. The weighted digit
// sum mod 11 must equal the value of the tenth character, where X counts as 10.
func isbn10ChecksumOK(s string) bool {
	sum := 0
	for i := 0; i < 9; i++ {
		sum += (i + 1) * int(s[i]-'0')
	}
	check := 0
	if s[9] == 'X' {
		check = 10
	} else {
		check = int(s[9] - '0')
	}
	return sum%11 == check
}

// isbn13ChecksumOK verifies the ISBN-13 check digit using alternating
// 1 and 3 weights over the first twelve digits.
func isbn13ChecksumOK(s string) bool {
	sum := 0
	for i := 0; i < 12; i++ {
		weight := 1
		if i%2 == 1 {
			weight = 3
		}
		sum += weight * int(s[i]-'0')
	}
	return (10-sum%10)%10 == int(s[12]-'0')
}

// ValidateDOI checks that the value matches the DOI syntax: the "10." prefix,
// a registrant code of at least four digits, a slash, and a non-blank suffix.
// A nil value is accepted as absent.
func ValidateDOI(doi *string) error {
	if doi == nil {
		return nil
	}
	if !doiRe.MatchString(*doi) {
		return NewValidationError("doi", "DOI must match the format 10.NNNN/suffix")
	}
	return nil
}

// ValidateURL checks that the value starts with http:// or https:// and
// contains no embedded whitespace. A nil value is accepted as absent.
func ValidateURL(field string, raw *string) error {
	if raw == nil {
		return nil
	}
	u := *raw
	if !strings.HasPrefix(u, "http://") && !strings.HasPrefix(u, "https://") {
		return NewValidationError(field, "URL must start with http:// or https://")
	}
	if strings.ContainsAny(u, " \t\n\r") {
		return NewValidationError(field, "URL must not contain whitespace")
	}
	return nil
}

// ValidateYearRange checks that the value lies within [min, max].
// A nil value is accepted as unspecified.
func ValidateYearRange(field string, year *int, min, max int) error {
	if year == nil {
		return nil
	}
	if *year < min || *year > max {
		return NewValidationError(field, fmt.Sprintf("year must be between %d and %d", min, max))
	}
	return nil
}

// ValidateRequiredText checks that the value is neither empty nor all
// whitespace. Used for fields that are mandatory on every source.
func ValidateRequiredText(field, value string) error {
	if strings.TrimSpace(value) == "" {
		return NewValidationError(field, field+" must not be blank")
	}
	return nil
}

// ValidateOptionalText checks that a provided value is not all whitespace.
// A nil value is accepted as absent; once provided, the value must be
// meaningful.
func ValidateOptionalText(field string, value *string) error {
	if value == nil {
		return nil
	}
	if strings.TrimSpace(*value) == "" {
		return NewValidationError(field, field+" must not be blank when provided")
	}
	return nil
}

// ValidatePositiveInt checks that a provided value is at least one.
// A nil value is accepted as absent.
func ValidatePositiveInt(field string, value *int) error {
	if value == nil {
		return nil
	}
	if *value < 1 {
		return NewValidationError(field, field+" must be at least 1")
	}
	return nil
}
