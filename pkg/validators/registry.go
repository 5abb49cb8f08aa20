// SPDX-License-Identifier: Apache-2.0

package validators

import (
	"errors"
	"fmt"

	synclib "github.com/lakesift/lakesift/internal/sync"
)

// CheckFn is a named predicate over the canonical string form of a field
// value. Checks are referenced by name from rule specs.
type CheckFn func(value string) bool

var (
	ErrUnknownCheck = errors.New("no custom check registered under this name")
	// re-registration is rejected to prevent silent override of a
	// validated checksum routine
	ErrDuplicateCheck = errors.New("a custom check is already registered under this name")
)

type registeredCheck struct {
	fn CheckFn
	// conventional column the check is expected to bind to, empty when the
	// check has no convention
	column string
}

// Registry maps check names to predicates. It is read-mostly after startup
// and safe to share across validation workers; registration must complete
// before a run starts.
type Registry struct {
	checks *synclib.Map[string, registeredCheck]
}

// NewRegistry returns a registry pre-populated with the built-in checks.
// The built-in names are a stable external contract: rule specs written
// against other engine implementations reference them verbatim.
func NewRegistry() *Registry {
	r := &Registry{checks: synclib.NewMap[string, registeredCheck]()}
	r.checks.Set(CheckISBN10, registeredCheck{fn: ISBN10Checksum, column: "isbn"})
	r.checks.Set(CheckISBN13, registeredCheck{fn: ISBN13Checksum, column: "isbn13"})
	return r
}

func (r *Registry) Register(name string, fn CheckFn) error {
	return r.RegisterForColumn(name, "", fn)
}

// RegisterForColumn registers a check along with the column name it
// conventionally applies to.
func (r *Registry) RegisterForColumn(name, column string, fn CheckFn) error {
	if fn == nil {
		return fmt.Errorf("registering custom check %q: nil check function", name)
	}
	if !r.checks.SetIfAbsent(name, registeredCheck{fn: fn, column: column}) {
		return fmt.Errorf("%w: %q", ErrDuplicateCheck, name)
	}
	return nil
}

func (r *Registry) Resolve(name string) (CheckFn, error) {
	check, found := r.checks.Get(name)
	if !found {
		return nil, fmt.Errorf("%w: %q", ErrUnknownCheck, name)
	}
	return check.fn, nil
}

func (r *Registry) Has(name string) bool {
	_, found := r.checks.Get(name)
	return found
}

func (r *Registry) ConventionalColumn(name string) (string, bool) {
	check, found := r.checks.Get(name)
	if !found || check.column == "" {
		return "", false
	}
	return check.column, true
}
