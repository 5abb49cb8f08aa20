// SPDX-License-Identifier: Apache-2.0

package engine

import (
	"encoding/csv"
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"

	"gopkg.in/yaml.v3"

	"github.com/lakesift/lakesift/pkg/record"
)

// ColumnType is the declared storage type of a schema column.
type ColumnType string

const (
	TypeInt    ColumnType = "int"
	TypeFloat  ColumnType = "float"
	TypeDate   ColumnType = "date"
	TypeString ColumnType = "string"
)

type Column struct {
	Name        string
	Type        ColumnType
	PK          bool
	NonNullable bool
	Unique      bool
}

// Schema is the structural metadata for a batch: key columns, nullability and
// declared types. It drives the screening phase that runs before rule
// evaluation.
type Schema struct {
	Table   string
	Columns []Column
}

func (s *Schema) PKColumns() []string {
	return s.columnsWhere(func(c Column) bool { return c.PK })
}

func (s *Schema) NonNullableColumns() []string {
	return s.columnsWhere(func(c Column) bool { return c.NonNullable })
}

func (s *Schema) UniqueColumns() []string {
	return s.columnsWhere(func(c Column) bool { return c.Unique })
}

func (s *Schema) columnsWhere(keep func(Column) bool) []string {
	cols := make([]string, 0, len(s.Columns))
	for _, c := range s.Columns {
		if keep(c) {
			cols = append(cols, c.Name)
		}
	}
	return cols
}

var ErrTableNotInSchema = errors.New("no schema metadata found for table")

// LoadSchema reads structural metadata from a file, dispatching on extension:
// .yaml/.yml documents use the native format, everything else is treated as the
// upstream CSV metadata format.
func LoadSchema(path, table string) (*Schema, error) {
	switch filepath.Ext(path) {
	case ".yaml", ".yml":
		return LoadSchemaYAML(path, table)
	default:
		return LoadSchemaCSV(path, table)
	}
}

type fileSchema struct {
	Tables []struct {
		Name    string `yaml:"name"`
		Columns []struct {
			Name        string `yaml:"name"`
			Type        string `yaml:"type"`
			PK          bool   `yaml:"pk"`
			NonNullable bool   `yaml:"non_nullable"`
			Unique      bool   `yaml:"unique"`
		} `yaml:"columns"`
	} `yaml:"tables"`
}

// LoadSchemaYAML reads structural metadata from a yaml document holding one
// entry per table.
func LoadSchemaYAML(path, table string) (*Schema, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("reading schema metadata: %w", err)
	}
	fs := &fileSchema{}
	if err := yaml.Unmarshal(data, fs); err != nil {
		return nil, fmt.Errorf("unmarshaling schema metadata: %w", err)
	}

	for _, t := range fs.Tables {
		if t.Name != table {
			continue
		}
		schema := &Schema{Table: table}
		for _, c := range t.Columns {
			schema.Columns = append(schema.Columns, Column{
				Name:        c.Name,
				Type:        normalizeType(c.Type),
				PK:          c.PK,
				NonNullable: c.NonNullable,
				Unique:      c.Unique,
			})
		}
		return schema, nil
	}
	return nil, fmt.Errorf("%w: %q", ErrTableNotInSchema, table)
}

// LoadSchemaCSV reads structural metadata from the upstream metadata format: a
// CSV with table_name, column_name, dtype, PK, NON_NULLABLE and UNIQUE
// columns, flags encoded as 0/1.
func LoadSchemaCSV(path, table string) (*Schema, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("opening schema metadata: %w", err)
	}
	defer f.Close()

	cr := csv.NewReader(f)
	header, err := cr.Read()
	if err != nil {
		return nil, fmt.Errorf("reading schema metadata header: %w", err)
	}
	idx := make(map[string]int, len(header))
	for i, name := range header {
		idx[strings.TrimSpace(name)] = i
	}
	for _, required := range []string{"table_name", "column_name", "dtype"} {
		if _, found := idx[required]; !found {
			return nil, fmt.Errorf("schema metadata is missing the %q column", required)
		}
	}

	schema := &Schema{Table: table}
	for {
		row, err := cr.Read()
		if errors.Is(err, io.EOF) {
			break
		}
		if err != nil {
			return nil, fmt.Errorf("reading schema metadata row: %w", err)
		}
		if row[idx["table_name"]] != table {
			continue
		}
		schema.Columns = append(schema.Columns, Column{
			Name:        strings.TrimSpace(row[idx["column_name"]]),
			Type:        normalizeType(row[idx["dtype"]]),
			PK:          flagSet(row, idx, "PK"),
			NonNullable: flagSet(row, idx, "NON_NULLABLE"),
			Unique:      flagSet(row, idx, "UNIQUE"),
		})
	}
	if len(schema.Columns) == 0 {
		return nil, fmt.Errorf("%w: %q", ErrTableNotInSchema, table)
	}
	return schema, nil
}

func normalizeType(dtype string) ColumnType {
	switch strings.ToLower(strings.TrimSpace(dtype)) {
	case "int", "integer":
		return TypeInt
	case "float", "double":
		return TypeFloat
	case "date", "datetime":
		return TypeDate
	default:
		return TypeString
	}
}

func flagSet(row []string, idx map[string]int, name string) bool {
	i, found := idx[name]
	if !found || i >= len(row) {
		return false
	}
	return strings.TrimSpace(row[i]) == "1"
}

// coerce retypes a present value according to the column's declared type.
func coerce(v record.Value, typ ColumnType) (record.Value, error) {
	switch typ {
	case TypeInt, TypeFloat:
		return v.CoerceNumber()
	case TypeDate:
		return v.CoerceDate()
	default:
		return v, nil
	}
}
