// SPDX-License-Identifier: Apache-2.0

package record

import (
	"maps"
	"slices"
)

// Record is an ordered mapping from column name to value. Column order is the
// order of the source header, preserved so reports and exports stay stable.
type Record struct {
	columns []string
	values  map[string]Value
}

func New(columns []string) Record {
	return Record{
		columns: slices.Clone(columns),
		values:  make(map[string]Value, len(columns)),
	}
}

// FromRow builds a record from a raw tabular row. Extra fields beyond the
// header are ignored; missing trailing fields are absent.
func FromRow(header, fields []string) Record {
	rec := New(header)
	for i, col := range header {
		if i >= len(fields) {
			rec.values[col] = Absent()
			continue
		}
		rec.values[col] = NewString(fields[i])
	}
	return rec
}

func (r Record) Columns() []string {
	return slices.Clone(r.columns)
}

func (r Record) Get(column string) Value {
	v, found := r.values[column]
	if !found {
		return Absent()
	}
	return v
}

func (r Record) Has(column string) bool {
	_, found := r.values[column]
	return found
}

// Set returns a copy of the record with the column set to the given value.
// Records are treated as immutable by the engine, so mutation always copies.
func (r Record) Set(column string, v Value) Record {
	out := r.clone()
	if _, found := out.values[column]; !found {
		out.columns = append(out.columns, column)
	}
	out.values[column] = v
	return out
}

// Fields returns the raw string form of every column in header order, suitable
// for CSV export.
func (r Record) Fields() []string {
	fields := make([]string, 0, len(r.columns))
	for _, col := range r.columns {
		fields = append(fields, r.values[col].Raw())
	}
	return fields
}

func (r Record) clone() Record {
	return Record{
		columns: slices.Clone(r.columns),
		values:  maps.Clone(r.values),
	}
}
