// SPDX-License-Identifier: Apache-2.0

package config

import (
	"fmt"
	"path/filepath"
	"strings"

	"github.com/spf13/viper"
)

func Load() error {
	return LoadFile(viper.GetString("config"))
}

func LoadFile(file string) error {
	if file != "" {
		viper.SetConfigFile(file)
		if ext := filepath.Ext(file); ext != "" {
			viper.SetConfigType(ext[1:])
		}
		if err := viper.ReadInConfig(); err != nil {
			return fmt.Errorf("reading config: %w", err)
		}
	}
	return nil
}

func LogLevel() string {
	return viper.GetString("LAKESIFT_LOG_LEVEL")
}

func RulesFile() string {
	switch {
	case viper.GetString("rules") != "":
		// CLI argument
		return viper.GetString("rules")
	case viper.GetString("validation.rules_file") != "":
		// yaml config
		return viper.GetString("validation.rules_file")
	default:
		// env config
		return viper.GetString("LAKESIFT_RULES_FILE")
	}
}

func SchemaFile() string {
	switch {
	case viper.GetString("schema") != "":
		return viper.GetString("schema")
	case viper.GetString("validation.schema_file") != "":
		return viper.GetString("validation.schema_file")
	default:
		return viper.GetString("LAKESIFT_SCHEMA_FILE")
	}
}

func SchemaTable() string {
	switch {
	case viper.GetString("table") != "":
		return viper.GetString("table")
	case viper.GetString("validation.table") != "":
		return viper.GetString("validation.table")
	default:
		return viper.GetString("LAKESIFT_SCHEMA_TABLE")
	}
}

func InputFile() string {
	return viper.GetString("input")
}

// BatchID returns the manifest identifier for the input batch, defaulting to
// the input file's base name.
func BatchID() string {
	if id := viper.GetString("batch-id"); id != "" {
		return id
	}
	input := InputFile()
	if input == "" {
		return ""
	}
	return strings.TrimSuffix(filepath.Base(input), filepath.Ext(input))
}

func ManifestFile() string {
	switch {
	case viper.GetString("manifest") != "":
		return viper.GetString("manifest")
	case viper.GetString("manifest_store.file") != "":
		return viper.GetString("manifest_store.file")
	case viper.GetString("LAKESIFT_MANIFEST_FILE") != "":
		return viper.GetString("LAKESIFT_MANIFEST_FILE")
	default:
		return "manifests/manifest.jsonl"
	}
}

func ManifestPostgresURL() string {
	switch {
	case viper.GetString("manifest-url") != "":
		return viper.GetString("manifest-url")
	case viper.GetString("manifest_store.postgres.url") != "":
		return viper.GetString("manifest_store.postgres.url")
	default:
		return viper.GetString("LAKESIFT_MANIFEST_POSTGRES_URL")
	}
}

func OutputDir() string {
	return viper.GetString("output")
}

func Workers() int {
	return viper.GetInt("workers")
}

func SkipManifest() bool {
	return viper.GetBool("skip-manifest")
}
