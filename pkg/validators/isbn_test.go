// SPDX-License-Identifier: Apache-2.0

package validators

import (
	"testing"

	"github.com/stretchr/testify/require"
)

func TestISBN10Checksum(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name string
		val  string

		want bool
	}{
		{
			name: "ok - valid checksum",
			val:  "0439023483",

			want: true,
		},
		{
			name: "ok - another valid checksum",
			val:  "0306406152",

			want: true,
		},
		{
			name: "single digit mutated",
			val:  "0439023484",

			want: false,
		},
		{
			name: "leading digit mutated",
			val:  "1439023483",

			want: false,
		},
		{
			name: "too short",
			val:  "043902348",

			want: false,
		},
		{
			name: "too long",
			val:  "04390234831",

			want: false,
		},
		{
			name: "non digit content",
			val:  "043902348X",

			want: false,
		},
		{
			name: "empty",
			val:  "",

			want: false,
		},
	}

	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			t.Parallel()
			require.Equal(t, tc.want, ISBN10Checksum(tc.val))
		})
	}
}

func TestISBN10Checksum_singleDigitMutations(t *testing.T) {
	t.Parallel()

	const valid = "0439023483"
	for i := 0; i < len(valid); i++ {
		for d := byte('0'); d <= '9'; d++ {
			if valid[i] == d {
				continue
			}
			mutated := valid[:i] + string(d) + valid[i+1:]
			require.False(t, ISBN10Checksum(mutated), "mutation %s should fail", mutated)
		}
	}
}

func TestISBN13Checksum(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name string
		val  string

		want bool
	}{
		{
			name: "ok - valid checksum",
			val:  "9780439023481",

			want: true,
		},
		{
			name: "ok - another valid checksum",
			val:  "9780306406157",

			want: true,
		},
		{
			name: "ok - valid checksum with 3-weighted final position",
			val:  "9781861972712",

			want: true,
		},
		{
			name: "single digit mutated",
			val:  "9780439023480",

			want: false,
		},
		{
			name: "too short",
			val:  "978043902348",

			want: false,
		},
		{
			name: "not a digit string",
			val:  "978043902348x",

			want: false,
		},
		{
			name: "empty",
			val:  "",

			want: false,
		},
	}

	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			t.Parallel()
			require.Equal(t, tc.want, ISBN13Checksum(tc.val))
		})
	}
}

func TestISBN13Checksum_singleDigitMutations(t *testing.T) {
	t.Parallel()

	const valid = "9780439023481"
	for i := 0; i < len(valid); i++ {
		for d := byte('0'); d <= '9'; d++ {
			if valid[i] == d {
				continue
			}
			mutated := valid[:i] + string(d) + valid[i+1:]
			require.False(t, ISBN13Checksum(mutated), "mutation %s should fail", mutated)
		}
	}
}
