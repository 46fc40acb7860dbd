// Package scope implements variable binding and rule-status memoization
// for one evaluation run. A Scope resolves `let` bindings lazily (a
// bound name may be a pending query that hasn't been walked yet, or an
// already-resolved set of located values) and remembers each rule's
// status the first time it's computed, so a rule referenced from
// multiple clauses is evaluated exactly once.
package scope

import (
	"github.com/samber/oops"

	"github.com/openguard-dsl/guard/internal/query"
	"github.com/openguard-dsl/guard/internal/status"
)

// binding is either a pending query (not yet walked) or an already-
// resolved value set — resolved lazily and cached on first use.
// inFlight marks this specific binding instance as mid-resolution, so a
// `let a = %b` / `let b = %a` cycle is caught per-binding rather than
// per-name: a nested block's own `%x` shadowing an outer `%x` is a
// distinct binding and must not be mistaken for a self-reference of the
// outer one.
type binding struct {
	resolved []*query.Located
	done     bool
	inFlight bool
	resolve  func() ([]*query.Located, error)
}

// Scope is one nested level of variable bindings and rule memoization,
// chained to its parent so a nested block's `let` can shadow an outer
// one without mutating it.
type Scope struct {
	parent   *Scope
	vars     map[string]*binding
	ruleMemo map[string]status.Status
	inFlight map[string]bool
}

// New creates a root scope with no parent, used for one top-level
// RulesFile evaluation.
func New() *Scope {
	return &Scope{
		vars:     map[string]*binding{},
		ruleMemo: map[string]status.Status{},
		inFlight: map[string]bool{},
	}
}

// Child creates a nested scope (for a rule body, a when-block, or a
// scope-clause body) that shares its parent's rule memoization and
// cycle-tracking state but has its own variable bindings.
func (s *Scope) Child() *Scope {
	return &Scope{
		parent:   s,
		vars:     map[string]*binding{},
		ruleMemo: s.ruleMemo,
		inFlight: s.inFlight,
	}
}

// Bind registers name as resolving lazily via resolve, shadowing any
// binding of the same name from an ancestor scope.
func (s *Scope) Bind(name string, resolve func() ([]*query.Located, error)) {
	s.vars[name] = &binding{resolve: resolve}
}

// Lookup implements query.VarLookup: it resolves (and memoizes) the
// named binding, searching this scope and then its ancestors. Resolving
// a binding that is already mid-resolution (directly or transitively
// self-referential, e.g. `let a = %b` with `let b = %a`) returns a
// BindingCycle error per spec.md §4.3/§7 instead of recursing forever.
func (s *Scope) Lookup(name string) ([]*query.Located, error) {
	for sc := s; sc != nil; sc = sc.parent {
		b, ok := sc.vars[name]
		if !ok {
			continue
		}
		if !b.done {
			if b.inFlight {
				return nil, oops.Code("BINDING_CYCLE").With("name", name).
					Errorf("cyclic variable binding %q", name)
			}
			b.inFlight = true
			resolved, err := b.resolve()
			b.inFlight = false
			if err != nil {
				return nil, err
			}
			b.resolved = resolved
			b.done = true
		}
		return b.resolved, nil
	}
	return nil, oops.Code("MISSING_VARIABLE").With("name", name).
		Errorf("undefined variable %q", name)
}

// RuleStatus returns a memoized rule status and true if it has already
// been computed. BeginRule/EndRule bracket the actual computation for
// cycle detection.
func (s *Scope) RuleStatus(name string) (status.Status, bool) {
	st, ok := s.ruleMemo[name]
	return st, ok
}

// BeginRule marks name as currently being evaluated, returning true if
// it already is — a direct or transitive self-reference, which the
// evaluator resolves to SKIP rather than an error or infinite loop.
func (s *Scope) BeginRule(name string) (alreadyInFlight bool) {
	if s.inFlight[name] {
		return true
	}
	s.inFlight[name] = true
	return false
}

// EndRule records name's final status and clears its in-flight marker.
func (s *Scope) EndRule(name string, st status.Status) {
	delete(s.inFlight, name)
	s.ruleMemo[name] = st
}
