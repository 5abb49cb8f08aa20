// SPDX-License-Identifier: Apache-2.0

package rules

import (
	"errors"
	"fmt"
	"regexp"
)

// DateMode is the temporal variant of a range rule. Range rules either carry
// numeric bounds or a date mode, never both.
type DateMode string

const (
	DateModeNone      DateMode = ""
	DateModeNotFuture DateMode = "date_not_future"
)

// mappingSuffix is the naming convention binding a mapping table to a column:
// a mapping named "publisher_fix" applies to the "publisher" column.
const mappingSuffix = "_fix"

type RangeRule struct {
	Column   string
	Min      *float64
	Max      *float64
	DateMode DateMode
}

type RegexRule struct {
	Column  string
	Pattern string
	// Compiled holds the pattern exactly as declared. Full-match semantics
	// are applied at evaluation time without rewriting the pattern.
	Compiled *regexp.Regexp
}

type CustomCheckRule struct {
	Column string
	Check  string
}

// Spec is the parsed rule specification. It is immutable after load and owned
// by the engine for the duration of one validation run. Rule slices preserve
// declaration order, which fixes the order of diagnostic reasons.
type Spec struct {
	Ranges       []RangeRule
	Regexes      []RegexRule
	CustomChecks []CustomCheckRule
	Mappings     map[string]map[string]string
	Defaults     map[string]string
}

// MappingForColumn resolves the mapping table that applies to a column,
// honouring the "<column>_fix" convention with a fallback to an exact name
// match.
func (s *Spec) MappingForColumn(column string) (map[string]string, bool) {
	if m, found := s.Mappings[column+mappingSuffix]; found {
		return m, true
	}
	m, found := s.Mappings[column]
	return m, found
}

// RegexForColumn returns the regex rule declared for a column, if any. Custom
// checks are gated on it.
func (s *Spec) RegexForColumn(column string) (*RegexRule, bool) {
	for i := range s.Regexes {
		if s.Regexes[i].Column == column {
			return &s.Regexes[i], true
		}
	}
	return nil, false
}

// RuledColumns returns every column referenced by at least one rule, in spec
// declaration order (ranges, then regexes, then custom checks).
func (s *Spec) RuledColumns() []string {
	seen := make(map[string]struct{})
	cols := make([]string, 0)
	add := func(col string) {
		if _, found := seen[col]; found {
			return
		}
		seen[col] = struct{}{}
		cols = append(cols, col)
	}
	for _, r := range s.Ranges {
		add(r.Column)
	}
	for _, r := range s.Regexes {
		add(r.Column)
	}
	for _, r := range s.CustomChecks {
		add(r.Column)
	}
	return cols
}

var (
	ErrMissingColumn   = errors.New("rule is missing a column name")
	ErrNoConstraint    = errors.New("range rule declares no bounds and no date mode")
	ErrInvalidBounds   = errors.New("range rule min must not exceed max")
	ErrUnknownDateMode = errors.New("unknown range rule type")
	ErrInvalidPattern  = errors.New("regex rule pattern does not compile")
	ErrMissingCheck    = errors.New("custom check rule is missing a check name")
	ErrUnresolvedCheck = errors.New("custom check name is not registered")
)

// SpecError is the fatal load-time error for a malformed or self-contradictory
// rule specification. It carries enough context to locate the offending rule.
type SpecError struct {
	Section string
	Column  string
	Err     error
}

func (e *SpecError) Error() string {
	if e.Column == "" {
		return fmt.Sprintf("rule spec: %s: %v", e.Section, e.Err)
	}
	return fmt.Sprintf("rule spec: %s rule for column %q: %v", e.Section, e.Column, e.Err)
}

func (e *SpecError) Unwrap() error {
	return e.Err
}

func specError(section, column string, err error) *SpecError {
	return &SpecError{Section: section, Column: column, Err: err}
}
