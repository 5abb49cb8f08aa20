// SPDX-License-Identifier: Apache-2.0

package engine

import (
	"context"
	"runtime"
	"strings"

	"github.com/jonboulle/clockwork"
	"github.com/rs/xid"
	"golang.org/x/sync/errgroup"

	"github.com/lakesift/lakesift/internal/progress"
	loglib "github.com/lakesift/lakesift/pkg/log"
	"github.com/lakesift/lakesift/pkg/normalize"
	"github.com/lakesift/lakesift/pkg/record"
	"github.com/lakesift/lakesift/pkg/rules"
	"github.com/lakesift/lakesift/pkg/validators"
)

// Engine runs the normalize+validate pass over a record batch. Rule
// evaluation order per record follows the spec section order (ranges, then
// regexes, then custom checks), which also fixes the order of reasons in a
// rejection's diagnostic list.
type Engine struct {
	spec       *rules.Spec
	normalizer *normalize.Normalizer
	schema     *Schema
	ruleChain  []columnRule
	clock      clockwork.Clock
	logger     loglib.Logger
	workers    int
	newBar     func(total int) progress.Bar
}

type columnRule struct {
	column    string
	kind      validators.RuleKind
	validator validators.Validator
}

type Option func(*Engine)

// New compiles the rule spec into per-column validators. Custom check names
// are resolved eagerly: an unregistered check fails here, before any record
// is processed.
func New(spec *rules.Spec, registry *validators.Registry, opts ...Option) (*Engine, error) {
	e := &Engine{
		spec:       spec,
		normalizer: normalize.New(spec),
		clock:      clockwork.NewRealClock(),
		logger:     loglib.NewNoopLogger(),
		workers:    runtime.GOMAXPROCS(0),
		newBar:     func(int) progress.Bar { return progress.NoopBar{} },
	}
	for _, opt := range opts {
		opt(e)
	}

	for _, rule := range spec.Ranges {
		e.ruleChain = append(e.ruleChain, columnRule{
			column:    rule.Column,
			kind:      validators.RuleKindRange,
			validator: validators.NewRangeValidator(rule, e.clock),
		})
	}
	for _, rule := range spec.Regexes {
		e.ruleChain = append(e.ruleChain, columnRule{
			column:    rule.Column,
			kind:      validators.RuleKindRegex,
			validator: validators.NewRegexValidator(rule),
		})
	}
	for _, rule := range spec.CustomChecks {
		v, err := validators.NewCustomCheckValidator(rule, registry)
		if err != nil {
			return nil, err
		}
		// an ungated check runs on values of arbitrary shape
		if _, gated := spec.RegexForColumn(rule.Column); !gated {
			e.logger.Warn(nil, "custom check has no regex rule gating its column", loglib.Fields{
				"check":  rule.Check,
				"column": rule.Column,
			})
		}
		e.ruleChain = append(e.ruleChain, columnRule{
			column:    rule.Column,
			kind:      validators.RuleKindCustomCheck,
			validator: v,
		})
	}

	return e, nil
}

func WithSchema(schema *Schema) Option {
	return func(e *Engine) {
		e.schema = schema
	}
}

func WithClock(clock clockwork.Clock) Option {
	return func(e *Engine) {
		e.clock = clock
	}
}

func WithLogger(logger loglib.Logger) Option {
	return func(e *Engine) {
		e.logger = loglib.NewLogger(logger).WithFields(loglib.Fields{
			loglib.ModuleField: "engine",
		})
	}
}

func WithWorkers(count int) Option {
	return func(e *Engine) {
		if count > 0 {
			e.workers = count
		}
	}
}

// WithProgress renders a progress bar sized to the batch while validating.
func WithProgress() Option {
	return func(e *Engine) {
		e.newBar = func(total int) progress.Bar {
			return progress.NewRecordsBar(total, "validating records")
		}
	}
}

// outcome is the per-record result slot. Slots are indexed by original batch
// position so the merged output preserves input order regardless of worker
// scheduling.
type outcome struct {
	record   record.Record
	verdicts []validators.Verdict
	rejected bool
}

// Validate partitions the batch into accepted and rejected records. Input
// records and the rule spec are never mutated; rejected records carry the
// failing verdicts in rule declaration order.
func (e *Engine) Validate(ctx context.Context, batch []record.Record) (*Result, error) {
	runID := xid.New().String()
	logger := e.logger.WithFields(loglib.Fields{"run_id": runID})
	logger.Info("starting validation run", loglib.Fields{"records": len(batch), "workers": e.workers})

	outcomes := make([]outcome, len(batch))
	pending := e.screen(batch, outcomes)

	bar := e.newBar(len(batch))
	defer bar.Close()
	if skipped := len(batch) - len(pending); skipped > 0 {
		_ = bar.Add(skipped)
	}

	g, ctx := errgroup.WithContext(ctx)
	g.SetLimit(e.workers)
	for _, idx := range pending {
		g.Go(func() error {
			if err := ctx.Err(); err != nil {
				return err
			}
			outcomes[idx] = e.evaluate(batch[idx])
			_ = bar.Add(1)
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return nil, err
	}

	result := &Result{RunID: runID, Total: len(batch)}
	for i, out := range outcomes {
		if out.rejected {
			result.Rejected = append(result.Rejected, Rejection{
				Index:    i,
				Record:   out.record,
				Verdicts: out.verdicts,
			})
			logger.Debug("record rejected", loglib.Fields{
				"index":   i,
				"reasons": reasonSummary(out.verdicts),
			})
			continue
		}
		result.Accepted = append(result.Accepted, out.record)
	}

	logger.Info("validation run finished", loglib.Fields{
		"accepted": len(result.Accepted),
		"rejected": len(result.Rejected),
	})
	return result, nil
}

// screen applies the structural schema contract (primary keys, non-nullable
// columns, uniqueness) before rule evaluation. It runs sequentially since
// duplicate detection is a cross-record concern; on duplicates the first
// occurrence wins. Returns the indices still pending rule evaluation.
func (e *Engine) screen(batch []record.Record, outcomes []outcome) []int {
	pending := make([]int, 0, len(batch))
	if e.schema == nil {
		for i := range batch {
			pending = append(pending, i)
		}
		return pending
	}

	pkCols := e.schema.PKColumns()
	nnCols := e.schema.NonNullableColumns()
	uniqueCols := e.schema.UniqueColumns()

	seenPK := make(map[string]struct{})
	seenUnique := make(map[string]map[string]struct{}, len(uniqueCols))
	for _, col := range uniqueCols {
		seenUnique[col] = make(map[string]struct{})
	}

	for i, rec := range batch {
		var verdicts []validators.Verdict

		// pk columns are implicitly non-nullable; flag each column once
		nullFlagged := make(map[string]struct{})
		for _, col := range append(append([]string{}, pkCols...), nnCols...) {
			if _, done := nullFlagged[col]; done {
				continue
			}
			if rec.Get(col).IsAbsent() {
				verdicts = append(verdicts, validators.Fail(col, validators.RuleKindSchema, validators.ReasonNullViolation))
				nullFlagged[col] = struct{}{}
			}
		}

		if len(verdicts) == 0 && len(pkCols) > 0 {
			key := compositeKey(rec, pkCols)
			if _, dup := seenPK[key]; dup {
				verdicts = append(verdicts, validators.Fail(strings.Join(pkCols, ","), validators.RuleKindSchema, validators.ReasonDuplicateKey))
			} else {
				seenPK[key] = struct{}{}
			}
		}

		if len(verdicts) == 0 {
			for _, col := range uniqueCols {
				v := rec.Get(col)
				if v.IsAbsent() {
					continue
				}
				if _, dup := seenUnique[col][v.Raw()]; dup {
					verdicts = append(verdicts, validators.Fail(col, validators.RuleKindSchema, validators.ReasonDuplicateValue))
					continue
				}
				seenUnique[col][v.Raw()] = struct{}{}
			}
		}

		if len(verdicts) > 0 {
			outcomes[i] = outcome{record: rec, verdicts: verdicts, rejected: true}
			continue
		}
		pending = append(pending, i)
	}
	return pending
}

// evaluate normalizes one record, coerces it against the schema types, and
// runs the compiled rule chain. A custom check is gated on its column's regex
// rule: when the regex failed, the check is not evaluated.
func (e *Engine) evaluate(rec record.Record) outcome {
	out := e.normalizer.Normalize(rec)

	var verdicts []validators.Verdict
	regexFailed := make(map[string]bool)

	if e.schema != nil {
		for _, col := range e.schema.Columns {
			v := out.Get(col.Name)
			if v.IsAbsent() {
				continue
			}
			coerced, err := coerce(v, col.Type)
			if err != nil {
				verdicts = append(verdicts, validators.Fail(col.Name, validators.RuleKindSchema, validators.ReasonTypeMismatch))
				continue
			}
			out = out.Set(col.Name, coerced)
		}
	}

	for _, cr := range e.ruleChain {
		v := out.Get(cr.column)
		// absence is not a validation failure: fields with no value and
		// no declared default are excluded from rule evaluation
		if v.IsAbsent() {
			continue
		}
		if cr.kind == validators.RuleKindCustomCheck && regexFailed[cr.column] {
			continue
		}
		verdict := cr.validator.Validate(v)
		if !verdict.Passed {
			verdicts = append(verdicts, verdict)
			if cr.kind == validators.RuleKindRegex {
				regexFailed[cr.column] = true
			}
		}
	}

	return outcome{record: out, verdicts: verdicts, rejected: len(verdicts) > 0}
}

func compositeKey(rec record.Record, cols []string) string {
	parts := make([]string, 0, len(cols))
	for _, col := range cols {
		parts = append(parts, rec.Get(col).Raw())
	}
	return strings.Join(parts, "\x1f")
}

func reasonSummary(verdicts []validators.Verdict) []string {
	reasons := make([]string, 0, len(verdicts))
	for _, v := range verdicts {
		reasons = append(reasons, v.Column+":"+v.Reason)
	}
	return reasons
}
