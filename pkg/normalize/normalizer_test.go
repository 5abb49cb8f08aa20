// SPDX-License-Identifier: Apache-2.0

package normalize

import (
	"slices"
	"testing"

	"github.com/stretchr/testify/require"
	"pgregory.net/rapid"

	"github.com/lakesift/lakesift/pkg/record"
	"github.com/lakesift/lakesift/pkg/rules"
)

func testSpec() *rules.Spec {
	return &rules.Spec{
		Mappings: map[string]map[string]string{
			"publisher_fix": {
				"Scholastic Inc.":   "Scholastic",
				"Penguin Books Ltd": "Penguin Books",
			},
		},
		Defaults: map[string]string{
			"average_rating": "0.0",
		},
	}
}

func TestNormalizer_Normalize(t *testing.T) {
	t.Parallel()

	header := []string{"publisher", "average_rating", "title"}

	tests := []struct {
		name   string
		fields []string

		wantPublisher string
		wantRating    string
		wantTitle     string
	}{
		{
			name:   "ok - mapping applied",
			fields: []string{"Scholastic Inc.", "4.34", "The Hunger Games"},

			wantPublisher: "Scholastic",
			wantRating:    "4.34",
			wantTitle:     "The Hunger Games",
		},
		{
			name:   "ok - unmapped value passes through",
			fields: []string{"Orbit", "4.34", "The Hunger Games"},

			wantPublisher: "Orbit",
			wantRating:    "4.34",
			wantTitle:     "The Hunger Games",
		},
		{
			name:   "ok - default fills missing rating",
			fields: []string{"Scholastic", "", "The Hunger Games"},

			wantPublisher: "Scholastic",
			wantRating:    "0.0",
			wantTitle:     "The Hunger Games",
		},
		{
			name:   "mapping is case-sensitive",
			fields: []string{"scholastic inc.", "4.34", "The Hunger Games"},

			wantPublisher: "scholastic inc.",
			wantRating:    "4.34",
			wantTitle:     "The Hunger Games",
		},
	}

	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			t.Parallel()

			n := New(testSpec())
			got := n.Normalize(record.FromRow(header, tc.fields))
			require.Equal(t, tc.wantPublisher, got.Get("publisher").Raw())
			require.Equal(t, tc.wantRating, got.Get("average_rating").Raw())
			require.Equal(t, tc.wantTitle, got.Get("title").Raw())
		})
	}
}

// mapping is a projection: normalizing its own image is a no-op
func TestNormalizer_Normalize_idempotent(t *testing.T) {
	t.Parallel()

	n := New(testSpec())
	rec := record.FromRow([]string{"publisher"}, []string{"Scholastic Inc."})

	once := n.Normalize(rec)
	require.Equal(t, "Scholastic", once.Get("publisher").Raw())

	twice := n.Normalize(once)
	require.Equal(t, "Scholastic", twice.Get("publisher").Raw())
}

// the mapping's image is disjoint from its domain, so normalization must be
// idempotent whatever the input values are
func TestNormalizer_Normalize_idempotentForAnyInput(t *testing.T) {
	t.Parallel()

	header := []string{"publisher", "average_rating", "title"}
	n := New(testSpec())

	rapid.Check(t, func(rt *rapid.T) {
		fields := []string{
			rapid.String().Draw(rt, "publisher"),
			rapid.String().Draw(rt, "average_rating"),
			rapid.String().Draw(rt, "title"),
		}

		once := n.Normalize(record.FromRow(header, fields))
		twice := n.Normalize(once)
		if !slices.Equal(once.Fields(), twice.Fields()) {
			rt.Fatalf("normalizing twice changed the record: %q vs %q", once.Fields(), twice.Fields())
		}
	})
}

func TestNormalizer_Normalize_absentWithoutDefault(t *testing.T) {
	t.Parallel()

	n := New(testSpec())
	got := n.Normalize(record.FromRow([]string{"publisher", "title"}, []string{"", ""}))

	require.True(t, got.Get("publisher").IsAbsent())
	require.True(t, got.Get("title").IsAbsent())
}

func TestNormalizer_Normalize_doesNotMutateInput(t *testing.T) {
	t.Parallel()

	n := New(testSpec())
	rec := record.FromRow([]string{"publisher", "average_rating"}, []string{"Scholastic Inc.", ""})

	_ = n.Normalize(rec)

	require.Equal(t, "Scholastic Inc.", rec.Get("publisher").Raw())
	require.True(t, rec.Get("average_rating").IsAbsent())
}
