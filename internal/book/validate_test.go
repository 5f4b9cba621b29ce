package book

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestValidate(t *testing.T) {
	tests := []struct {
		name       string
		book       Book
		violations []Violation
	}{
		{
			name: "valid",
			book: Book{Title: "title", Year: 2020, Author: Author{Name: "author"}},
		},
		{
			name: "blank title",
			book: Book{Title: "   ", Year: 2020, Author: Author{Name: "author"}},
			violations: []Violation{
				{Field: "title", Message: "must not be blank"},
			},
		},
		{
			name: "missing author name",
			book: Book{Title: "title", Year: 2020},
			violations: []Violation{
				{Field: "author.name", Message: "must not be blank"},
			},
		},
		{
			name: "title too long",
			book: Book{Title: strings.Repeat("x", 256), Year: 2020, Author: Author{Name: "author"}},
			violations: []Violation{
				{Field: "title", Message: "size must be at most 255"},
			},
		},
		{
			name: "year out of range",
			book: Book{Title: "title", Year: 10000, Author: Author{Name: "author"}},
			violations: []Violation{
				{Field: "year", Message: "must be less than or equal to 9999"},
			},
		},
		{
			name: "negative year and blank author",
			book: Book{Title: "title", Year: -1, Author: Author{Name: " "}},
			violations: []Violation{
				{Field: "year", Message: "must be greater than or equal to 0"},
				{Field: "author.name", Message: "must not be blank"},
			},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := Validate(tt.book)
			if tt.violations == nil {
				assert.NoError(t, err)
				return
			}
			var verr *ValidationError
			require.ErrorAs(t, err, &verr)
			assert.Equal(t, "book", verr.Object)
			assert.Equal(t, tt.violations, verr.Violations)
		})
	}
}

func TestValidationError_Error(t *testing.T) {
	err := &ValidationError{Object: "book", Violations: []Violation{
		{Field: "title", Message: "must not be blank"},
		{Field: "year", Message: "must be greater than or equal to 0"},
	}}
	assert.Equal(t,
		"Field error in object 'book' on field 'title': must not be blank; Field error in object 'book' on field 'year': must be greater than or equal to 0",
		err.Error())
}
