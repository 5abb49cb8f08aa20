// SPDX-License-Identifier: Apache-2.0

package validators

import "regexp"

// Built-in check names. These are a stable external contract and must not
// change: existing rule specs reference them by name.
const (
	CheckISBN10 = "validate_isbn10_checksum"
	CheckISBN13 = "validate_isbn13_checksum"
)

var (
	isbn10Format = regexp.MustCompile(`^[0-9]{10}$`)
	isbn13Format = regexp.MustCompile(`^[0-9]{13}$`)
)

// ISBN10Checksum reports whether val is a 10-digit string with a valid ISBN-10
// check digit: the weighted sum of the first nine digits mod 11, where a
// checksum value of 10 is written as 'X'. The format requirement is a
// precondition of the checksum, not a replacement for the column's regex rule.
func ISBN10Checksum(val string) bool {
	if !isbn10Format.MatchString(val) {
		return false
	}
	total := 0
	for i := 0; i < 9; i++ {
		total += (10 - i) * int(val[i]-'0')
	}
	check := (11 - total%11) % 11
	if check == 10 {
		return val[9] == 'X'
	}
	return int(val[9]-'0') == check
}

// ISBN13Checksum reports whether val is a 13-digit string with a valid ISBN-13
// check digit: alternating 1/3 weights over the first twelve digits, mod 10.
func ISBN13Checksum(val string) bool {
	if !isbn13Format.MatchString(val) {
		return false
	}
	total := 0
	for i := 0; i < 12; i++ {
		weight := 1
		if i%2 == 1 {
			weight = 3
		}
		total += weight * int(val[i]-'0')
	}
	check := (10 - total%10) % 10
	return int(val[12]-'0') == check
}
