// SPDX-License-Identifier: Apache-2.0

package validators

// RuleKind identifies the rule family a verdict came from.
type RuleKind string

const (
	RuleKindSchema      RuleKind = "schema"
	RuleKindRange       RuleKind = "range"
	RuleKindRegex       RuleKind = "regex"
	RuleKindCustomCheck RuleKind = "custom_check"
)

// Reason codes carried by failing verdicts. They are part of the diagnostic
// report contract, so downstream consumers can key on them.
const (
	ReasonOutOfRange       = "out_of_range"
	ReasonNotNumeric       = "not_numeric"
	ReasonUnparseableDate  = "unparseable_date"
	ReasonPatternMismatch  = "pattern_mismatch"
	ReasonNotStringifiable = "not_stringifiable"
	ReasonChecksumFailed   = "checksum_failed"
	ReasonNullViolation    = "null_violation"
	ReasonDuplicateKey     = "duplicate_key"
	ReasonDuplicateValue   = "duplicate_value"
	ReasonTypeMismatch     = "type_mismatch"
)

// Verdict is the outcome of evaluating one rule against one field of one
// record. A record's overall verdict is the conjunction of all its verdicts.
type Verdict struct {
	Column   string   `json:"column"`
	RuleKind RuleKind `json:"rule_kind"`
	Passed   bool     `json:"passed"`
	Reason   string   `json:"reason,omitempty"`
}

func pass(column string, kind RuleKind) Verdict {
	return Verdict{Column: column, RuleKind: kind, Passed: true}
}

func fail(column string, kind RuleKind, reason string) Verdict {
	return Verdict{Column: column, RuleKind: kind, Reason: reason}
}

// Fail builds a failing verdict. Exposed for callers outside the package that
// report rule-equivalent failures, such as schema screening.
func Fail(column string, kind RuleKind, reason string) Verdict {
	return fail(column, kind, reason)
}
