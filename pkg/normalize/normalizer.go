// SPDX-License-Identifier: Apache-2.0

package normalize

import (
	"github.com/lakesift/lakesift/pkg/record"
	"github.com/lakesift/lakesift/pkg/rules"
)

// Normalizer applies mapping substitutions and defaults to records before
// validation. Normalization never fails: unmapped values and undeclared
// defaults pass through untouched.
type Normalizer struct {
	spec *rules.Spec
}

func New(spec *rules.Spec) *Normalizer {
	return &Normalizer{spec: spec}
}

// Normalize returns a normalized copy of the record. Per field, strictly in
// order: (1) exact, case-sensitive mapping substitution; (2) default fill when
// the field is absent or empty after mapping; (3) otherwise unchanged. Fields
// left absent with no declared default stay absent and are skipped by rule
// evaluation downstream.
func (n *Normalizer) Normalize(rec record.Record) record.Record {
	out := rec
	for _, col := range rec.Columns() {
		v := out.Get(col)

		if mapping, found := n.spec.MappingForColumn(col); found && v.Kind() == record.KindString {
			if canonical, mapped := mapping[v.Raw()]; mapped {
				v = record.NewString(canonical)
				out = out.Set(col, v)
			}
		}

		if v.IsAbsent() {
			if def, found := n.spec.Defaults[col]; found {
				out = out.Set(col, record.NewString(def))
			}
		}
	}
	return out
}
