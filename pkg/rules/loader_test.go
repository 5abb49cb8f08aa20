// SPDX-License-Identifier: Apache-2.0

package rules

import (
	"errors"
	"testing"

	"github.com/stretchr/testify/require"
)

type mockResolver struct {
	HasFn                func(name string) bool
	ConventionalColumnFn func(name string) (string, bool)
}

func (m *mockResolver) Has(name string) bool {
	if m.HasFn == nil {
		return true
	}
	return m.HasFn(name)
}

func (m *mockResolver) ConventionalColumn(name string) (string, bool) {
	if m.ConventionalColumnFn == nil {
		return "", false
	}
	return m.ConventionalColumnFn(name)
}

const booksRulesYAML = `
ranges:
  - col: num_pages
    min: 1
    max: 10000
  - col: average_rating
    min: 0.0
    max: 5.0
  - col: ratings_count
    min: 0
  - col: text_reviews_count
    min: 0
  - col: publication_date
    type: date_not_future
regex:
  - col: language_code
    pattern: "^[a-z]{2,3}$"
  - col: isbn
    pattern: "^[0-9]{10}$"
  - col: isbn13
    pattern: "^[0-9]{13}$"
custom_checks:
  - col: isbn
    udf: validate_isbn10_checksum
  - col: isbn13
    udf: validate_isbn13_checksum
mappings:
  publisher_fix:
    "Scholastic Inc.": "Scholastic"
    "Penguin Books Ltd": "Penguin Books"
defaults:
  average_rating: 0.0
`

func TestLoader_ParseYAML(t *testing.T) {
	t.Parallel()

	loader := NewLoader(&mockResolver{})
	spec, err := loader.ParseYAML([]byte(booksRulesYAML))
	require.NoError(t, err)

	require.Len(t, spec.Ranges, 5)
	require.Equal(t, "num_pages", spec.Ranges[0].Column)
	require.Equal(t, 1.0, *spec.Ranges[0].Min)
	require.Equal(t, 10000.0, *spec.Ranges[0].Max)
	require.Equal(t, DateModeNone, spec.Ranges[0].DateMode)

	// unbounded above
	require.Equal(t, "ratings_count", spec.Ranges[2].Column)
	require.Nil(t, spec.Ranges[2].Max)
	require.Equal(t, 0.0, *spec.Ranges[2].Min)

	// temporal variant carries no numeric bounds
	require.Equal(t, "publication_date", spec.Ranges[4].Column)
	require.Equal(t, DateModeNotFuture, spec.Ranges[4].DateMode)
	require.Nil(t, spec.Ranges[4].Min)
	require.Nil(t, spec.Ranges[4].Max)

	require.Len(t, spec.Regexes, 3)
	require.Equal(t, "^[a-z]{2,3}$", spec.Regexes[0].Pattern)
	require.NotNil(t, spec.Regexes[0].Compiled)

	require.Len(t, spec.CustomChecks, 2)
	require.Equal(t, CustomCheckRule{Column: "isbn", Check: "validate_isbn10_checksum"}, spec.CustomChecks[0])

	mapping, found := spec.MappingForColumn("publisher")
	require.True(t, found)
	require.Equal(t, "Scholastic", mapping["Scholastic Inc."])

	require.Equal(t, "0", spec.Defaults["average_rating"])
}

func TestLoader_ParseJSON(t *testing.T) {
	t.Parallel()

	data := []byte(`{
		"ranges": [{"col": "num_pages", "min": 1, "max": 10000}],
		"regex": [{"col": "isbn13", "pattern": "^[0-9]{13}$"}],
		"custom_checks": [{"col": "isbn13", "udf": "validate_isbn13_checksum"}],
		"mappings": {"publisher_fix": {"Scholastic Inc.": "Scholastic"}},
		"defaults": {"average_rating": 0.0}
	}`)

	loader := NewLoader(&mockResolver{})
	spec, err := loader.ParseJSON(data)
	require.NoError(t, err)

	require.Len(t, spec.Ranges, 1)
	require.Len(t, spec.Regexes, 1)
	require.Len(t, spec.CustomChecks, 1)
	require.Equal(t, "0", spec.Defaults["average_rating"])
}

func TestLoader_build_errors(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name string
		yaml string

		wantErr error
	}{
		{
			name: "range rule without column",
			yaml: "ranges:\n  - min: 1\n",

			wantErr: ErrMissingColumn,
		},
		{
			name: "range rule without constraints",
			yaml: "ranges:\n  - col: num_pages\n",

			wantErr: ErrNoConstraint,
		},
		{
			name: "range rule min above max",
			yaml: "ranges:\n  - col: num_pages\n    min: 10\n    max: 1\n",

			wantErr: ErrInvalidBounds,
		},
		{
			name: "range rule unknown date mode",
			yaml: "ranges:\n  - col: publication_date\n    type: date_not_past\n",

			wantErr: ErrUnknownDateMode,
		},
		{
			name: "regex rule with invalid pattern",
			yaml: "regex:\n  - col: isbn\n    pattern: \"^[0-9{10}$\"\n",

			wantErr: ErrInvalidPattern,
		},
		{
			name: "custom check without name",
			yaml: "custom_checks:\n  - col: isbn\n",

			wantErr: ErrMissingCheck,
		},
	}

	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			t.Parallel()

			loader := NewLoader(&mockResolver{})
			_, err := loader.ParseYAML([]byte(tc.yaml))
			require.ErrorIs(t, err, tc.wantErr)

			specErr := &SpecError{}
			require.ErrorAs(t, err, &specErr)
		})
	}
}

func TestLoader_build_unresolvedCheck(t *testing.T) {
	t.Parallel()

	loader := NewLoader(&mockResolver{
		HasFn: func(name string) bool { return false },
	})
	_, err := loader.ParseYAML([]byte("custom_checks:\n  - col: isbn\n    udf: validate_isbn10_checksum\n"))
	require.ErrorIs(t, err, ErrUnresolvedCheck)
}

// a valid min==max range is a degenerate but legal interval
func TestLoader_build_pointRange(t *testing.T) {
	t.Parallel()

	loader := NewLoader(nil)
	spec, err := loader.ParseYAML([]byte("ranges:\n  - col: num_pages\n    min: 5\n    max: 5\n"))
	require.NoError(t, err)
	require.Len(t, spec.Ranges, 1)
}

func TestSpec_MappingForColumn(t *testing.T) {
	t.Parallel()

	spec := &Spec{Mappings: map[string]map[string]string{
		"publisher_fix": {"Scholastic Inc.": "Scholastic"},
		"language_code": {"en-US": "en"},
	}}

	m, found := spec.MappingForColumn("publisher")
	require.True(t, found)
	require.Equal(t, "Scholastic", m["Scholastic Inc."])

	// exact-name fallback when no _fix mapping exists
	m, found = spec.MappingForColumn("language_code")
	require.True(t, found)
	require.Equal(t, "en", m["en-US"])

	_, found = spec.MappingForColumn("title")
	require.False(t, found)
}

func TestSpec_RuledColumns(t *testing.T) {
	t.Parallel()

	loader := NewLoader(&mockResolver{})
	spec, err := loader.ParseYAML([]byte(booksRulesYAML))
	require.NoError(t, err)

	require.Equal(t, []string{
		"num_pages", "average_rating", "ratings_count", "text_reviews_count",
		"publication_date", "language_code", "isbn", "isbn13",
	}, spec.RuledColumns())
}

func TestSpecError_Unwrap(t *testing.T) {
	t.Parallel()

	err := specError("ranges", "num_pages", ErrInvalidBounds)
	require.True(t, errors.Is(err, ErrInvalidBounds))
	require.Contains(t, err.Error(), "num_pages")
	require.Contains(t, err.Error(), "ranges")
}
