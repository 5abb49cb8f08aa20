// SPDX-License-Identifier: Apache-2.0

package validators

import (
	"regexp"
	"time"

	"github.com/jonboulle/clockwork"

	"github.com/lakesift/lakesift/pkg/record"
	"github.com/lakesift/lakesift/pkg/rules"
)

// Validator evaluates a single field value against a single rule. Validators
// are total: they always return a verdict and never panic on well-typed input.
type Validator interface {
	Validate(v record.Value) Verdict
}

type RangeValidator struct {
	rule  rules.RangeRule
	clock clockwork.Clock
}

func NewRangeValidator(rule rules.RangeRule, clock clockwork.Clock) *RangeValidator {
	if clock == nil {
		clock = clockwork.NewRealClock()
	}
	return &RangeValidator{rule: rule, clock: clock}
}

func (rv *RangeValidator) Validate(v record.Value) Verdict {
	if rv.rule.DateMode == rules.DateModeNotFuture {
		return rv.validateDate(v)
	}
	return rv.validateNumeric(v)
}

func (rv *RangeValidator) validateNumeric(v record.Value) Verdict {
	f, err := v.Float()
	if err != nil {
		return fail(rv.rule.Column, RuleKindRange, ReasonNotNumeric)
	}
	if rv.rule.Min != nil && f < *rv.rule.Min {
		return fail(rv.rule.Column, RuleKindRange, ReasonOutOfRange)
	}
	if rv.rule.Max != nil && f > *rv.rule.Max {
		return fail(rv.rule.Column, RuleKindRange, ReasonOutOfRange)
	}
	return pass(rv.rule.Column, RuleKindRange)
}

func (rv *RangeValidator) validateDate(v record.Value) Verdict {
	t, err := v.Time()
	if err != nil {
		return fail(rv.rule.Column, RuleKindRange, ReasonUnparseableDate)
	}
	if t.After(endOfToday(rv.clock.Now())) {
		return fail(rv.rule.Column, RuleKindRange, ReasonOutOfRange)
	}
	return pass(rv.rule.Column, RuleKindRange)
}

// endOfToday normalizes the processing instant to the last moment of the
// calendar day, so a date equal to the processing date is not in the future.
func endOfToday(now time.Time) time.Time {
	y, m, d := now.UTC().Date()
	return time.Date(y, m, d, 23, 59, 59, int(time.Second-time.Nanosecond), time.UTC)
}

type RegexValidator struct {
	rule    rules.RegexRule
	matcher *regexp.Regexp
}

// NewRegexValidator compiles an anchored form of the rule's pattern, so full
// match semantics hold even for unanchored alternations where the leftmost
// match would not cover the whole value. The rule keeps its literal pattern
// as declared; the loader has already proven it compiles.
func NewRegexValidator(rule rules.RegexRule) *RegexValidator {
	return &RegexValidator{
		rule:    rule,
		matcher: regexp.MustCompile(`\A(?:` + rule.Pattern + `)\z`),
	}
}

func (rv *RegexValidator) Validate(v record.Value) Verdict {
	s := v.Raw()
	if s == "" && v.Kind() != record.KindString {
		return fail(rv.rule.Column, RuleKindRegex, ReasonNotStringifiable)
	}
	if !rv.matcher.MatchString(s) {
		return fail(rv.rule.Column, RuleKindRegex, ReasonPatternMismatch)
	}
	return pass(rv.rule.Column, RuleKindRegex)
}

type CustomCheckValidator struct {
	rule  rules.CustomCheckRule
	check CheckFn
}

// NewCustomCheckValidator resolves the named check eagerly, so a rule spec
// referencing an unregistered check fails before any record is processed.
func NewCustomCheckValidator(rule rules.CustomCheckRule, registry *Registry) (*CustomCheckValidator, error) {
	check, err := registry.Resolve(rule.Check)
	if err != nil {
		return nil, err
	}
	return &CustomCheckValidator{rule: rule, check: check}, nil
}

func (cv *CustomCheckValidator) Validate(v record.Value) Verdict {
	if !cv.check(v.Raw()) {
		return fail(cv.rule.Column, RuleKindCustomCheck, ReasonChecksumFailed)
	}
	return pass(cv.rule.Column, RuleKindCustomCheck)
}
