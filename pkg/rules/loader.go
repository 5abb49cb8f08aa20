// SPDX-License-Identifier: Apache-2.0

package rules

import (
	"fmt"
	"os"
	"path/filepath"
	"regexp"
	"strconv"

	"gopkg.in/yaml.v3"

	jsonlib "github.com/lakesift/lakesift/internal/json"
	loglib "github.com/lakesift/lakesift/pkg/log"
)

// CheckResolver is implemented by the custom check registry. The loader uses
// it to fail fast on check names that have no registered predicate, and to
// warn when a check is bound to an unconventional column.
type CheckResolver interface {
	Has(name string) bool
	ConventionalColumn(name string) (string, bool)
}

type Loader struct {
	resolver CheckResolver
	logger   loglib.Logger
}

type LoaderOption func(*Loader)

func NewLoader(resolver CheckResolver, opts ...LoaderOption) *Loader {
	l := &Loader{
		resolver: resolver,
		logger:   loglib.NewNoopLogger(),
	}
	for _, opt := range opts {
		opt(l)
	}
	return l
}

func WithLogger(logger loglib.Logger) LoaderOption {
	return func(l *Loader) {
		l.logger = loglib.NewLogger(logger).WithFields(loglib.Fields{
			loglib.ModuleField: "rules_loader",
		})
	}
}

// fileSpec mirrors the on-disk rule document. Key names match the original
// rule files, so existing specs stay portable.
type fileSpec struct {
	Ranges       []fileRangeRule              `yaml:"ranges" json:"ranges"`
	Regexes      []fileRegexRule              `yaml:"regex" json:"regex"`
	CustomChecks []fileCustomCheckRule        `yaml:"custom_checks" json:"custom_checks"`
	Mappings     map[string]map[string]string `yaml:"mappings" json:"mappings"`
	Defaults     map[string]any               `yaml:"defaults" json:"defaults"`
}

type fileRangeRule struct {
	Column string   `yaml:"col" json:"col"`
	Min    *float64 `yaml:"min" json:"min"`
	Max    *float64 `yaml:"max" json:"max"`
	Type   string   `yaml:"type" json:"type"`
}

type fileRegexRule struct {
	Column  string `yaml:"col" json:"col"`
	Pattern string `yaml:"pattern" json:"pattern"`
}

type fileCustomCheckRule struct {
	Column string `yaml:"col" json:"col"`
	Check  string `yaml:"udf" json:"udf"`
}

// Load reads and parses a rule specification file. The format is selected by
// extension: .json documents go through the json codec, everything else is
// treated as YAML.
func (l *Loader) Load(path string) (*Spec, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("reading rule spec from file: %w", err)
	}

	switch filepath.Ext(path) {
	case ".json":
		return l.ParseJSON(data)
	default:
		return l.ParseYAML(data)
	}
}

func (l *Loader) ParseYAML(data []byte) (*Spec, error) {
	fs := &fileSpec{}
	if err := yaml.Unmarshal(data, fs); err != nil {
		return nil, fmt.Errorf("unmarshaling yaml rule spec: %w", err)
	}
	return l.build(fs)
}

func (l *Loader) ParseJSON(data []byte) (*Spec, error) {
	fs := &fileSpec{}
	if err := jsonlib.Unmarshal(data, fs); err != nil {
		return nil, fmt.Errorf("unmarshaling json rule spec: %w", err)
	}
	return l.build(fs)
}

func (l *Loader) build(fs *fileSpec) (*Spec, error) {
	spec := &Spec{
		Ranges:       make([]RangeRule, 0, len(fs.Ranges)),
		Regexes:      make([]RegexRule, 0, len(fs.Regexes)),
		CustomChecks: make([]CustomCheckRule, 0, len(fs.CustomChecks)),
		Mappings:     fs.Mappings,
		Defaults:     make(map[string]string, len(fs.Defaults)),
	}
	if spec.Mappings == nil {
		spec.Mappings = map[string]map[string]string{}
	}

	for _, r := range fs.Ranges {
		rule, err := l.buildRangeRule(r)
		if err != nil {
			return nil, err
		}
		spec.Ranges = append(spec.Ranges, rule)
	}

	for _, r := range fs.Regexes {
		if r.Column == "" {
			return nil, specError("regex", "", ErrMissingColumn)
		}
		compiled, err := regexp.Compile(r.Pattern)
		if err != nil {
			return nil, specError("regex", r.Column, fmt.Errorf("%w: %v", ErrInvalidPattern, err))
		}
		spec.Regexes = append(spec.Regexes, RegexRule{
			Column:   r.Column,
			Pattern:  r.Pattern,
			Compiled: compiled,
		})
	}

	for _, r := range fs.CustomChecks {
		rule, err := l.buildCustomCheckRule(r)
		if err != nil {
			return nil, err
		}
		spec.CustomChecks = append(spec.CustomChecks, rule)
	}

	for col, val := range fs.Defaults {
		spec.Defaults[col] = defaultToString(val)
	}

	return spec, nil
}

func (l *Loader) buildRangeRule(r fileRangeRule) (RangeRule, error) {
	if r.Column == "" {
		return RangeRule{}, specError("ranges", "", ErrMissingColumn)
	}

	// a range rule is either temporal or numeric, selected by the presence
	// of the type key
	if r.Type != "" {
		if DateMode(r.Type) != DateModeNotFuture {
			return RangeRule{}, specError("ranges", r.Column, fmt.Errorf("%w: %q", ErrUnknownDateMode, r.Type))
		}
		return RangeRule{Column: r.Column, DateMode: DateModeNotFuture}, nil
	}

	if r.Min == nil && r.Max == nil {
		return RangeRule{}, specError("ranges", r.Column, ErrNoConstraint)
	}
	if r.Min != nil && r.Max != nil && *r.Min > *r.Max {
		return RangeRule{}, specError("ranges", r.Column, ErrInvalidBounds)
	}
	return RangeRule{Column: r.Column, Min: r.Min, Max: r.Max}, nil
}

func (l *Loader) buildCustomCheckRule(r fileCustomCheckRule) (CustomCheckRule, error) {
	if r.Column == "" {
		return CustomCheckRule{}, specError("custom_checks", "", ErrMissingColumn)
	}
	if r.Check == "" {
		return CustomCheckRule{}, specError("custom_checks", r.Column, ErrMissingCheck)
	}
	if l.resolver != nil {
		if !l.resolver.Has(r.Check) {
			return CustomCheckRule{}, specError("custom_checks", r.Column, fmt.Errorf("%w: %q", ErrUnresolvedCheck, r.Check))
		}
		// checks bind to columns, not semantics, so an unconventional
		// binding is allowed but worth surfacing
		if conventional, found := l.resolver.ConventionalColumn(r.Check); found && conventional != r.Column {
			l.logger.Warn(nil, "custom check bound to unconventional column", loglib.Fields{
				"check":               r.Check,
				"column":              r.Column,
				"conventional_column": conventional,
			})
		}
	}
	return CustomCheckRule{Column: r.Column, Check: r.Check}, nil
}

func defaultToString(val any) string {
	switch v := val.(type) {
	case string:
		return v
	case float64:
		return strconv.FormatFloat(v, 'f', -1, 64)
	case int:
		return strconv.Itoa(v)
	case int64:
		return strconv.FormatInt(v, 10)
	case bool:
		return strconv.FormatBool(v)
	default:
		return fmt.Sprintf("%v", v)
	}
}
