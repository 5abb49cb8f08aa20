// SPDX-License-Identifier: Apache-2.0

package validators

import (
	"testing"

	"github.com/stretchr/testify/require"
)

func TestRegistry_builtins(t *testing.T) {
	t.Parallel()

	registry := NewRegistry()

	for _, name := range []string{CheckISBN10, CheckISBN13} {
		require.True(t, registry.Has(name))
		check, err := registry.Resolve(name)
		require.NoError(t, err)
		require.NotNil(t, check)
	}

	col, found := registry.ConventionalColumn(CheckISBN10)
	require.True(t, found)
	require.Equal(t, "isbn", col)

	col, found = registry.ConventionalColumn(CheckISBN13)
	require.True(t, found)
	require.Equal(t, "isbn13", col)
}

func TestRegistry_Register(t *testing.T) {
	t.Parallel()

	registry := NewRegistry()

	err := registry.Register("validate_upc_checksum", func(string) bool { return true })
	require.NoError(t, err)
	require.True(t, registry.Has("validate_upc_checksum"))

	_, found := registry.ConventionalColumn("validate_upc_checksum")
	require.False(t, found)

	t.Run("duplicate name", func(t *testing.T) {
		err := registry.Register("validate_upc_checksum", func(string) bool { return false })
		require.ErrorIs(t, err, ErrDuplicateCheck)
	})

	t.Run("built-in name collision", func(t *testing.T) {
		err := registry.Register(CheckISBN10, func(string) bool { return true })
		require.ErrorIs(t, err, ErrDuplicateCheck)
	})

	t.Run("nil check function", func(t *testing.T) {
		err := registry.Register("validate_nil_check", nil)
		require.Error(t, err)
		require.False(t, registry.Has("validate_nil_check"))
	})
}

func TestRegistry_Resolve_unknown(t *testing.T) {
	t.Parallel()

	registry := NewRegistry()
	_, err := registry.Resolve("validate_ean8_checksum")
	require.ErrorIs(t, err, ErrUnknownCheck)
}
