// SPDX-License-Identifier: Apache-2.0

package config

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/spf13/viper"
	"github.com/stretchr/testify/require"
)

func TestLoadFile(t *testing.T) {
	dir := t.TempDir()

	t.Run("yaml config file", func(t *testing.T) {
		viper.Reset()

		path := filepath.Join(dir, "lakesift.yaml")
		require.NoError(t, os.WriteFile(path, []byte("validation:\n  rules_file: books_rules.yaml\n"), 0o600))

		require.NoError(t, LoadFile(path))
		require.Equal(t, "books_rules.yaml", RulesFile())
	})

	t.Run("file without extension does not panic", func(t *testing.T) {
		viper.Reset()

		path := filepath.Join(dir, "lakesift-config")
		require.NoError(t, os.WriteFile(path, []byte("validation:\n  rules_file: books_rules.yaml\n"), 0o600))

		// viper cannot infer the format, which must surface as an error,
		// not a crash
		require.Error(t, LoadFile(path))
	})

	t.Run("no file configured", func(t *testing.T) {
		viper.Reset()
		require.NoError(t, LoadFile(""))
	})
}
