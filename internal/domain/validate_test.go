package domain

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func strPtr(s string) *string { return &s }
func intPtr(i int) *int       { return &i }

func TestValidateISBN(t *testing.T) {
	t.Run("nil is accepted as absent", func(t *testing.T) {
		assert.NoError(t, ValidateISBN(nil))
	})

	t.Run("valid ISBN-10", func(t *testing.T) {
		valid := []string{
			"0140449116",
			"0-14-044911-6",
			"0 14 044911 6",
			"043942089X",
		}
		for _, isbn := range valid {
			assert.NoError(t, ValidateISBN(&isbn), isbn)
		}
	})

	t.Run("invalid ISBN-10 checksum", func(t *testing.T) {
		invalid := "0140449115"
		assert.Error(t, ValidateISBN(&invalid))
	})

	t.Run("flipping a single digit fails", func(t *testing.T) {
		base := "0140449116"
		for i := 0; i < len(base); i++ {
			flipped := []byte(base)
			flipped[i] = '0' + (flipped[i]-'0'+1)%10
			s := string(flipped)
			assert.Error(t, ValidateISBN(&s), "digit %d flipped: %s", i, s)
		}
	})

	t.Run("valid ISBN-13", func(t *testing.T) {
		valid := []string{
			"9780140449112",
			"978-0-14-044911-2",
		}
		for _, isbn := range valid {
			assert.NoError(t, ValidateISBN(&isbn), isbn)
		}
	})

	t.Run("invalid ISBN-13 check digit", func(t *testing.T) {
		invalid := "9780140449113"
		assert.Error(t, ValidateISBN(&invalid))
	})

	t.Run("rejects wrong lengths and characters", func(t *testing.T) {
		invalid := []string{
			"",
			"   ",
			"12345",
			"123456789012",
			"abcdefghij",
			"978014044911",
			"X140449116",
		}
		for _, isbn := range invalid {
			isbn := isbn
			assert.Error(t, ValidateISBN(&isbn), "%q", isbn)
		}
	})

	t.Run("error message names the field", func(t *testing.T) {
		invalid := "not-an-isbn"
		err := ValidateISBN(&invalid)
		require.Error(t, err)
		var ve *ValidationError
		require.ErrorAs(t, err, &ve)
		assert.Equal(t, "isbn", ve.Field)
		assert.Contains(t, ve.Message, "ISBN-10 or ISBN-13")
	})
}

func TestValidateDOI(t *testing.T) {
	t.Run("nil is accepted as absent", func(t *testing.T) {
		assert.NoError(t, ValidateDOI(nil))
	})

	t.Run("valid DOIs", func(t *testing.T) {
		valid := []string{
			"10.1038/nature12373",
			"10.1000/xyz123",
			"10.123456/some.suffix-1",
		}
		for _, doi := range valid {
			doi := doi
			assert.NoError(t, ValidateDOI(&doi), doi)
		}
	})

	t.Run("invalid DOIs", func(t *testing.T) {
		invalid := []string{
			"10.123/test",
			"invalid-doi",
			"10.1038/",
			"11.1038/nature12373",
			"10.1038/with space",
			"",
		}
		for _, doi := range invalid {
			doi := doi
			assert.Error(t, ValidateDOI(&doi), "%q", doi)
		}
	})
}

func TestValidateURL(t *testing.T) {
	t.Run("nil is accepted as absent", func(t *testing.T) {
		assert.NoError(t, ValidateURL("url", nil))
	})

	t.Run("valid URLs", func(t *testing.T) {
		valid := []string{
			"http://example.com",
			"https://example.com/path?query=1",
		}
		for _, u := range valid {
			u := u
			assert.NoError(t, ValidateURL("url", &u), u)
		}
	})

	t.Run("invalid URLs", func(t *testing.T) {
		invalid := []string{
			"ftp://example.com",
			"example.com",
			"https://example.com/with space",
			"",
			"   ",
		}
		for _, u := range invalid {
			u := u
			assert.Error(t, ValidateURL("url", &u), "%q", u)
		}
	})
}

func TestValidateYearRange(t *testing.T) {
	maxYear := time.Now().UTC().Year() + YearSlack

	t.Run("nil is accepted as unspecified", func(t *testing.T) {
		assert.NoError(t, ValidateYearRange("publication_year", nil, MinPublicationYear, maxYear))
	})

	t.Run("publication year boundaries", func(t *testing.T) {
		assert.NoError(t, ValidateYearRange("publication_year", intPtr(1000), MinPublicationYear, maxYear))
		assert.NoError(t, ValidateYearRange("publication_year", intPtr(maxYear), MinPublicationYear, maxYear))
		assert.Error(t, ValidateYearRange("publication_year", intPtr(999), MinPublicationYear, maxYear))
		assert.Error(t, ValidateYearRange("publication_year", intPtr(maxYear+1), MinPublicationYear, maxYear))
	})

	t.Run("release year honors the motion picture bound", func(t *testing.T) {
		assert.NoError(t, ValidateYearRange("release_year", intPtr(1888), MinReleaseYear, maxYear))
		assert.Error(t, ValidateYearRange("release_year", intPtr(1887), MinReleaseYear, maxYear))
	})
}

func TestValidateText(t *testing.T) {
	t.Run("required text rejects blank values", func(t *testing.T) {
		assert.NoError(t, ValidateRequiredText("title", "The Title"))
		assert.Error(t, ValidateRequiredText("title", ""))
		assert.Error(t, ValidateRequiredText("title", "   \t"))
	})

	t.Run("optional text accepts nil but rejects blank", func(t *testing.T) {
		assert.NoError(t, ValidateOptionalText("publisher", nil))
		assert.NoError(t, ValidateOptionalText("publisher", strPtr("The Publisher")))
		assert.Error(t, ValidateOptionalText("publisher", strPtr("  ")))
	})

	t.Run("positive int accepts nil but rejects zero", func(t *testing.T) {
		assert.NoError(t, ValidatePositiveInt("duration_seconds", nil))
		assert.NoError(t, ValidatePositiveInt("duration_seconds", intPtr(1)))
		assert.Error(t, ValidatePositiveInt("duration_seconds", intPtr(0)))
		assert.Error(t, ValidatePositiveInt("duration_seconds", intPtr(-5)))
	})
}
