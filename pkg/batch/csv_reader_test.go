// SPDX-License-Identifier: Apache-2.0

package batch

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/require"
)

func TestReader_Read(t *testing.T) {
	t.Parallel()

	input := strings.Join([]string{
		"bookID, title ,average_rating",
		`1,The Hunger Games,4.34`,
		`2,"Brown, Margaret Wise",4.25`,
		`3,Missing Rating Book`,
		`4,The Road,3.97,extra-field`,
		`5,,0`,
	}, "\n")

	b, err := NewReader().Read(strings.NewReader(input))
	require.NoError(t, err)

	require.Equal(t, []string{"bookID", "title", "average_rating"}, b.Header)
	require.Len(t, b.Records, 3)
	require.Equal(t, 2, b.SkippedLines)

	require.Equal(t, "The Hunger Games", b.Records[0].Get("title").Raw())
	// quoted commas stay inside one field
	require.Equal(t, "Brown, Margaret Wise", b.Records[1].Get("title").Raw())
	// empty fields parse as absent, not as empty strings
	require.True(t, b.Records[2].Get("title").IsAbsent())

	require.Equal(t, []string{
		"1,The Hunger Games,4.34",
		`2,"Brown, Margaret Wise",4.25`,
		"5,,0",
	}, b.Rows)
}

// rows whose cells differ must never canonicalize to the same string, or the
// manifest gate would treat a changed batch as already processed
func TestReader_Read_rowsKeepCellBoundaries(t *testing.T) {
	t.Parallel()

	first, err := NewReader().Read(strings.NewReader("author,publisher\n\"a,b\",c\n"))
	require.NoError(t, err)
	second, err := NewReader().Read(strings.NewReader("author,publisher\na,\"b,c\"\n"))
	require.NoError(t, err)

	require.Len(t, first.Rows, 1)
	require.Len(t, second.Rows, 1)
	require.NotEqual(t, first.Rows[0], second.Rows[0])

	// same cells round-trip to the same canonical row
	again, err := NewReader().Read(strings.NewReader("author,publisher\n\"a,b\",\"c\"\n"))
	require.NoError(t, err)
	require.Equal(t, first.Rows[0], again.Rows[0])
}

func TestReader_Read_emptyInput(t *testing.T) {
	t.Parallel()

	_, err := NewReader().Read(strings.NewReader(""))
	require.ErrorIs(t, err, ErrEmptyBatch)
}

func TestReader_Read_headerOnly(t *testing.T) {
	t.Parallel()

	b, err := NewReader().Read(strings.NewReader("bookID,title\n"))
	require.NoError(t, err)
	require.Equal(t, []string{"bookID", "title"}, b.Header)
	require.Empty(t, b.Records)
	require.Empty(t, b.Rows)
	require.Zero(t, b.SkippedLines)
}
