// SPDX-License-Identifier: Apache-2.0

package record

import (
	"errors"
	"strconv"
	"strings"
	"time"
)

// Kind identifies the variant held by a Value. Raw input starts out as either
// Absent or String; Number and Date appear once a value has been coerced
// against the batch schema.
type Kind uint8

const (
	KindAbsent Kind = iota
	KindString
	KindNumber
	KindDate
)

func (k Kind) String() string {
	switch k {
	case KindAbsent:
		return "absent"
	case KindString:
		return "string"
	case KindNumber:
		return "number"
	case KindDate:
		return "date"
	default:
		return "unknown"
	}
}

var (
	ErrNotNumeric = errors.New("value is not numeric")
	ErrNotADate   = errors.New("value is not a parseable date")
)

// dateLayouts covers the formats batches have been observed to carry. The
// month-first layouts come before ISO so "9/16/2006" style exports win.
var dateLayouts = []string{
	"1/2/2006",
	"01/02/2006",
	"2006-01-02",
	time.RFC3339,
}

type Value struct {
	kind Kind
	raw  string
	num  float64
	date time.Time
}

func Absent() Value {
	return Value{kind: KindAbsent}
}

// NewString builds a value from raw input. Empty or whitespace-only input is
// treated as absent.
func NewString(s string) Value {
	if strings.TrimSpace(s) == "" {
		return Absent()
	}
	return Value{kind: KindString, raw: s}
}

func NewNumber(f float64) Value {
	return Value{kind: KindNumber, raw: formatNumber(f), num: f}
}

func NewDate(t time.Time, raw string) Value {
	if raw == "" {
		raw = t.Format("2006-01-02")
	}
	return Value{kind: KindDate, raw: raw, date: t}
}

func (v Value) Kind() Kind     { return v.kind }
func (v Value) IsAbsent() bool { return v.kind == KindAbsent }

// Raw returns the canonical string form of the value, used for regex matching
// and checksum validation.
func (v Value) Raw() string { return v.raw }

// Float returns the numeric form of the value, parsing the raw string when the
// value has not been coerced yet.
func (v Value) Float() (float64, error) {
	switch v.kind {
	case KindNumber:
		return v.num, nil
	case KindString:
		f, err := strconv.ParseFloat(strings.TrimSpace(v.raw), 64)
		if err != nil {
			return 0, ErrNotNumeric
		}
		return f, nil
	default:
		return 0, ErrNotNumeric
	}
}

// Time returns the date form of the value, parsing the raw string when the
// value has not been coerced yet.
func (v Value) Time() (time.Time, error) {
	switch v.kind {
	case KindDate:
		return v.date, nil
	case KindString:
		return ParseDate(v.raw)
	default:
		return time.Time{}, ErrNotADate
	}
}

// CoerceNumber returns the value retyped as a number, or an error when the raw
// form does not parse.
func (v Value) CoerceNumber() (Value, error) {
	f, err := v.Float()
	if err != nil {
		return v, err
	}
	return Value{kind: KindNumber, raw: v.raw, num: f}, nil
}

// CoerceDate returns the value retyped as a date, or an error when the raw
// form does not parse.
func (v Value) CoerceDate() (Value, error) {
	t, err := v.Time()
	if err != nil {
		return v, err
	}
	return Value{kind: KindDate, raw: v.raw, date: t}, nil
}

func ParseDate(s string) (time.Time, error) {
	s = strings.TrimSpace(s)
	for _, layout := range dateLayouts {
		if t, err := time.Parse(layout, s); err == nil {
			return t, nil
		}
	}
	return time.Time{}, ErrNotADate
}

func formatNumber(f float64) string {
	return strconv.FormatFloat(f, 'f', -1, 64)
}
