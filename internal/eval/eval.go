// Package eval is the Guard evaluator (spec component C5): a top-down,
// recursive walker that turns a parsed RulesFile and a decoded document
// into a PASS/FAIL/SKIP status per rule, emitting a balanced sequence of
// report.Observer events as it goes. The evaluator itself never logs,
// never touches a file or network, and returns plain errors — it is
// meant to be callable as a pure function from any caller, CLI or not.
package eval

import (
	"fmt"
	"regexp"
	"strings"

	"github.com/samber/oops"

	"github.com/openguard-dsl/guard/internal/dsl"
	"github.com/openguard-dsl/guard/internal/query"
	"github.com/openguard-dsl/guard/internal/report"
	"github.com/openguard-dsl/guard/internal/scope"
	"github.com/openguard-dsl/guard/internal/status"
	"github.com/openguard-dsl/guard/internal/value"
)

type evaluator struct {
	rulesByName map[string]*dsl.Rule
	obs         report.Observer
}

// Evaluate runs every top-level guard rule in rf against root, returning
// each rule's final status keyed by name. obs may be nil, in which case
// events are discarded.
func Evaluate(rf *dsl.RulesFile, root *value.Value, obs report.Observer) (map[string]status.Status, error) {
	if obs == nil {
		obs = report.NullObserver{}
	}
	e := &evaluator{rulesByName: map[string]*dsl.Rule{}, obs: obs}
	for _, r := range rf.GuardRules {
		e.rulesByName[r.Name] = r
	}
	for _, r := range rf.ParameterizedRules {
		e.rulesByName[r.Name] = r
	}

	sc := scope.New()
	if attacher, ok := obs.(interface{ Attach(*scope.Scope) }); ok {
		attacher.Attach(sc)
	}
	for _, a := range rf.Assignments {
		e.bindAssignment(sc, root, a)
	}

	results := make(map[string]status.Status, len(rf.GuardRules))
	for _, r := range rf.GuardRules {
		st, err := e.evalRule(sc, root, r, nil)
		if err != nil {
			// evalRule already absorbs every non-Internal error into a
			// FAIL status for the rule it occurred in; anything still
			// propagating here is Internal (spec.md §7: "never silently
			// swallowed") and aborts the whole evaluation. This check is
			// kept at the call site too, defensively, rather than trusted
			// entirely to evalRule's bookkeeping.
			if isInternalError(err) {
				return nil, err
			}
			st = status.Fail
			sc.EndRule(r.Name, status.Fail)
		}
		results[r.Name] = st
	}
	return results, nil
}

// isInternalError reports whether err carries the "INTERNAL" oops code,
// the only error kind spec.md §7 treats as fatal. Every other kind this
// package raises (MissingVariable, BindingCycle, TypeMismatch) is
// per-rule recoverable: the offending rule resolves to FAIL and
// evaluation of its siblings continues. An error with no oops code at
// all is treated as Internal — it doesn't match any documented
// recoverable kind, so it's safer to fail loud than to let it masquerade
// as an ordinary rule failure.
func isInternalError(err error) bool {
	oopsErr, ok := oops.AsOops(err)
	if !ok {
		return true
	}
	return oopsErr.Code() == "INTERNAL"
}

func (e *evaluator) bindAssignment(sc *scope.Scope, root *value.Value, a *dsl.Assignment) {
	sc.Bind(a.Name, func() ([]*query.Located, error) {
		return e.resolveExpression(sc, root, a.Value)
	})
}

func (e *evaluator) resolveExpression(sc *scope.Scope, root *value.Value, expr *dsl.Expression) ([]*query.Located, error) {
	if expr.Query != nil {
		return e.resolveQuery(sc, root, expr.Query)
	}
	return []*query.Located{{Value: literalToValue(expr.Literal, root.Path)}}, nil
}

func (e *evaluator) resolveQuery(sc *scope.Scope, root *value.Value, q *dsl.Query) ([]*query.Located, error) {
	return query.Resolve(root, q, sc.Lookup, e.filterEval(sc))
}

func (e *evaluator) filterEval(sc *scope.Scope) query.FilterEval {
	return func(candidate *value.Value, block *dsl.Block) (bool, error) {
		child := sc.Child()
		st, err := e.evalBlock(child, candidate, block)
		if err != nil {
			return false, err
		}
		return st == status.Pass, nil
	}
}

// evalRule evaluates r against root. Zero-parameter rules are memoized
// by name (so a rule referenced from multiple clauses runs once) and
// guarded against cycles, which resolve to SKIP per spec. Parameterized
// rules bind args to r.Params in a fresh child scope on every call and
// are never memoized, since different call sites may pass different
// arguments.
func (e *evaluator) evalRule(sc *scope.Scope, root *value.Value, r *dsl.Rule, args []*dsl.Expression) (status.Status, error) {
	if len(r.Params) == 0 {
		if st, ok := sc.RuleStatus(r.Name); ok {
			return st, nil
		}
		if alreadyInFlight := sc.BeginRule(r.Name); alreadyInFlight {
			return status.Skip, nil
		}
		e.obs.StartEvaluation("rule", r.Name, root.Path)
		st, err := e.evalRuleBody(sc.Child(), root, r)
		if err != nil {
			if isInternalError(err) {
				e.obs.EndEvaluation(status.Skip, err.Error(), nil, nil)
				sc.EndRule(r.Name, status.Skip)
				return status.Skip, err
			}
			// Per spec.md §7, a recoverable evaluation error (missing
			// variable, binding cycle, type mismatch) fails only the
			// rule it occurred in; the error itself is absorbed here so
			// callers — including another rule referencing this one by
			// name — see a plain FAIL status rather than a propagating
			// error.
			e.obs.EndEvaluation(status.Fail, err.Error(), nil, nil)
			sc.EndRule(r.Name, status.Fail)
			return status.Fail, nil
		}
		e.obs.EndEvaluation(st, "", nil, nil)
		sc.EndRule(r.Name, st)
		return st, nil
	}

	child := sc.Child()
	for i, p := range r.Params {
		if i >= len(args) {
			break
		}
		param, argExpr := p, args[i]
		child.Bind(param, func() ([]*query.Located, error) {
			return e.resolveExpression(sc, root, argExpr)
		})
	}
	e.obs.StartEvaluation("rule", r.Name, root.Path)
	st, err := e.evalRuleBody(child, root, r)
	if err != nil {
		if isInternalError(err) {
			e.obs.EndEvaluation(status.Skip, err.Error(), nil, nil)
			return status.Skip, err
		}
		e.obs.EndEvaluation(status.Fail, err.Error(), nil, nil)
		return status.Fail, nil
	}
	e.obs.EndEvaluation(st, "", nil, nil)
	return st, nil
}

func (e *evaluator) evalRuleBody(sc *scope.Scope, root *value.Value, r *dsl.Rule) (status.Status, error) {
	if r.Conditions != nil {
		condSt, err := e.evalConditionList(sc, root, r.Conditions)
		if err != nil {
			return status.Skip, err
		}
		if condSt != status.Pass {
			return status.Skip, nil
		}
	}
	return e.evalBlock(sc, root, r.Body)
}

func (e *evaluator) evalConditionList(sc *scope.Scope, root *value.Value, cl *dsl.ConditionList) (status.Status, error) {
	result := status.Skip
	for _, conj := range cl.Conjunctions {
		st, err := e.evalConjunction(sc, root, conj)
		if err != nil {
			return status.Skip, err
		}
		result = status.And(result, st)
	}
	return result, nil
}

func (e *evaluator) evalBlock(sc *scope.Scope, root *value.Value, b *dsl.Block) (status.Status, error) {
	if b == nil {
		return status.Skip, nil
	}
	child := sc.Child()
	for _, a := range b.Assignments {
		e.bindAssignment(child, root, a)
	}
	result := status.Skip
	for _, conj := range b.Conjunctions {
		st, err := e.evalConjunction(child, root, conj)
		if err != nil {
			return status.Skip, err
		}
		result = status.And(result, st)
	}
	return result, nil
}

func (e *evaluator) evalConjunction(sc *scope.Scope, root *value.Value, conj *dsl.Conjunction) (status.Status, error) {
	e.obs.StartEvaluation("conjunction", "", root.Path)
	result := status.Skip
	for _, cl := range conj.Clauses {
		st, err := e.evalClause(sc, root, cl)
		if err != nil {
			e.obs.EndEvaluation(status.Skip, err.Error(), nil, nil)
			return status.Skip, err
		}
		result = status.Or(result, st)
	}
	e.obs.EndEvaluation(result, "", nil, nil)
	return result, nil
}

func (e *evaluator) evalClause(sc *scope.Scope, root *value.Value, cl *dsl.Clause) (status.Status, error) {
	var (
		st                   status.Status
		err                  error
		from, to             *query.Located
		kind, label, message string
	)

	switch {
	case cl.Access != nil:
		kind, label = "access_clause", queryLabel(cl.Access.Query)
		e.obs.StartEvaluation(kind, label, root.Path)
		st, from, to, err = e.evalAccessClause(sc, root, cl.Access)
		if err == nil && st == status.Fail && cl.Access.Message != nil {
			message = *cl.Access.Message
		}
	case cl.NamedRule != nil:
		kind, label = "named_rule", cl.NamedRule.RuleName
		e.obs.StartEvaluation(kind, label, root.Path)
		st, err = e.evalNamedRuleClause(sc, root, cl.NamedRule)
	case cl.Block != nil:
		kind, label = "block_clause", queryLabel(cl.Block.Query)
		e.obs.StartEvaluation(kind, label, root.Path)
		st, err = e.evalBlockClause(sc, root, cl.Block)
	case cl.When != nil:
		kind, label = "when_block", ""
		e.obs.StartEvaluation(kind, label, root.Path)
		st, err = e.evalWhenClause(sc, root, cl.When)
	default:
		return status.Skip, oops.Code("INTERNAL").Errorf("clause with no alternative set")
	}

	if err != nil {
		e.obs.EndEvaluation(status.Skip, err.Error(), nil, nil)
		return status.Skip, err
	}
	if cl.Negation {
		st = status.Not(st)
	}
	e.obs.EndEvaluation(st, message, from, to)
	return st, nil
}

func (e *evaluator) evalNamedRuleClause(sc *scope.Scope, root *value.Value, nr *dsl.GuardNamedRuleClause) (status.Status, error) {
	rule, ok := e.rulesByName[nr.RuleName]
	if !ok {
		return status.Skip, oops.Code("TYPE_MISMATCH").With("rule", nr.RuleName).
			Errorf("reference to undefined rule %q", nr.RuleName)
	}
	return e.evalRule(sc, root, rule, nr.Args)
}

func (e *evaluator) evalBlockClause(sc *scope.Scope, root *value.Value, bc *dsl.BlockClause) (status.Status, error) {
	located, err := e.resolveQuery(sc, root, bc.Query)
	if err != nil {
		return status.Skip, err
	}
	if len(located) == 0 {
		return status.Skip, nil
	}
	matchAll := bc.Query.MatchAll()
	result := status.Skip
	for _, l := range located {
		st, err := e.evalBlock(sc.Child(), l.Value, bc.Body)
		if err != nil {
			return status.Skip, err
		}
		if matchAll {
			result = status.And(result, st)
		} else {
			result = status.Or(result, st)
		}
	}
	return result, nil
}

func (e *evaluator) evalWhenClause(sc *scope.Scope, root *value.Value, wb *dsl.WhenBlock) (status.Status, error) {
	condSt, err := e.evalConditionList(sc, root, wb.Conditions)
	if err != nil {
		return status.Skip, err
	}
	if condSt != status.Pass {
		return status.Skip, nil
	}
	return e.evalBlock(sc, root, wb.Body)
}

// evalAccessClause evaluates a.Query against root and compares every
// matched value against the RHS per a.Comparator. Besides the clause's
// status, it returns the located LHS/RHS pair the reporter cites in its
// "from:"/"to:" lines (spec.md §4.5/§6) — the first matched LHS value
// and first RHS value, representative rather than exhaustive when the
// query or comparator matches more than one pair.
func (e *evaluator) evalAccessClause(sc *scope.Scope, root *value.Value, a *dsl.AccessClause) (status.Status, *query.Located, *query.Located, error) {
	located, err := e.resolveQuery(sc, root, a.Query)
	if err != nil {
		return status.Skip, nil, nil, err
	}

	kind, inverted := a.Comparator.Kind()

	var from *query.Located
	if len(located) > 0 {
		from = located[0]
	}

	if kind == dsl.CmpExists {
		return boolToStatus(withInversion(len(located) > 0, inverted)), from, nil, nil
	}
	if kind == dsl.CmpEmpty && len(located) == 0 {
		// Spec.md §4.5: Empty passes "iff LHS is an empty container or
		// resolved to zero values" — a query with no matches satisfies
		// `empty` directly, rather than falling through to SKIP like
		// the binary and is_* comparators do on an empty result set.
		return boolToStatus(withInversion(true, inverted)), from, nil, nil
	}
	if len(located) == 0 {
		return status.Skip, from, nil, nil
	}

	rhsLocated, err := e.rhsValues(sc, root, a.Rhs)
	if err != nil {
		return status.Skip, from, nil, err
	}
	var to *query.Located
	if len(rhsLocated) > 0 {
		to = rhsLocated[0]
	}
	rhsVals := make([]*value.Value, len(rhsLocated))
	for i, l := range rhsLocated {
		rhsVals[i] = l.Value
	}

	matchAll := a.Query.MatchAll()
	result := status.Skip
	for _, l := range located {
		ok, err := testComparator(kind, l.Value, rhsVals)
		if err != nil {
			return status.Skip, from, to, err
		}
		ok = withInversion(ok, inverted)
		st := boolToStatus(ok)
		if matchAll {
			result = status.And(result, st)
		} else {
			result = status.Or(result, st)
		}
	}
	return result, from, to, nil
}

// rhsValues resolves a comparator's RHS expression to located values: a
// query resolves through the scope like any other query, and a literal
// is wrapped as a singleton located at the clause's own document
// position, so both cases can feed the reporter's "to:" line uniformly.
func (e *evaluator) rhsValues(sc *scope.Scope, root *value.Value, rhs *dsl.Expression) ([]*query.Located, error) {
	if rhs == nil {
		return nil, nil
	}
	if rhs.Query != nil {
		return e.resolveQuery(sc, root, rhs.Query)
	}
	lit := literalToValue(rhs.Literal, root.Path)
	return []*query.Located{{Value: lit, Path: lit.Path}}, nil
}

func withInversion(ok, inverted bool) bool {
	if inverted {
		return !ok
	}
	return ok
}

func boolToStatus(ok bool) status.Status {
	if ok {
		return status.Pass
	}
	return status.Fail
}

func testComparator(kind string, lhs *value.Value, rhsVals []*value.Value) (bool, error) {
	switch kind {
	case dsl.CmpEmpty:
		return isEmptyValue(lhs), nil
	case dsl.CmpIsStr:
		return lhs.Kind == value.KindString, nil
	case dsl.CmpIsList:
		return lhs.Kind == value.KindList, nil
	case dsl.CmpIsMap:
		return lhs.Kind == value.KindMap, nil
	case dsl.CmpIsInt:
		return lhs.Kind == value.KindInt, nil
	case dsl.CmpIsFloat:
		return lhs.Kind == value.KindFloat, nil
	case dsl.CmpIsBool:
		return lhs.Kind == value.KindBool, nil
	case dsl.CmpIsNull:
		return lhs.Kind == value.KindNull, nil
	case dsl.CmpEq:
		for _, r := range rhsVals {
			if r.Kind == value.KindRegex && lhs.Kind == value.KindString {
				if r.Regex != nil && r.Regex.MatchString(lhs.Str) {
					return true, nil
				}
				continue
			}
			if lhs.Equal(r) {
				return true, nil
			}
		}
		return false, nil
	case dsl.CmpIn:
		for _, r := range rhsVals {
			if r.Kind == value.KindList {
				for _, item := range r.List {
					if lhs.Equal(item) {
						return true, nil
					}
				}
				continue
			}
			if lhs.Equal(r) {
				return true, nil
			}
		}
		return false, nil
	case dsl.CmpLt, dsl.CmpLe, dsl.CmpGt, dsl.CmpGe:
		for _, r := range rhsVals {
			cmp, ok := lhs.Compare(r)
			if !ok {
				continue
			}
			switch kind {
			case dsl.CmpLt:
				if cmp < 0 {
					return true, nil
				}
			case dsl.CmpLe:
				if cmp <= 0 {
					return true, nil
				}
			case dsl.CmpGt:
				if cmp > 0 {
					return true, nil
				}
			case dsl.CmpGe:
				if cmp >= 0 {
					return true, nil
				}
			}
		}
		return false, nil
	}
	return false, oops.Code("TYPE_MISMATCH").With("comparator", kind).
		Errorf("unsupported comparator %q for value kind %s", kind, lhs.Kind)
}

func isEmptyValue(v *value.Value) bool {
	switch v.Kind {
	case value.KindNull:
		return true
	case value.KindString:
		return v.Str == ""
	case value.KindList:
		return len(v.List) == 0
	case value.KindMap:
		return len(v.Keys) == 0
	default:
		return false
	}
}

func literalToValue(lit *dsl.Literal, path string) *value.Value {
	switch {
	case lit.Null:
		return &value.Value{Kind: value.KindNull, Path: path}
	case lit.Bool != nil:
		return &value.Value{Kind: value.KindBool, Bool: *lit.Bool, Path: path}
	case lit.Str != nil:
		return &value.Value{Kind: value.KindString, Str: *lit.Str, Path: path}
	case lit.Regex != nil:
		v := &value.Value{Kind: value.KindRegex, Str: *lit.Regex, Path: path}
		if re, err := regexp.Compile(*lit.Regex); err == nil {
			v.Regex = re
		}
		return v
	case lit.Number != nil:
		f := *lit.Number
		if f == float64(int64(f)) {
			return &value.Value{Kind: value.KindInt, Int: int64(f), Path: path}
		}
		return &value.Value{Kind: value.KindFloat, Float: f, Path: path}
	case lit.List != nil:
		items := make([]*value.Value, len(lit.List.Items))
		for i, it := range lit.List.Items {
			items[i] = literalToValue(it, path)
		}
		return &value.Value{Kind: value.KindList, List: items, Path: path}
	case lit.Map != nil:
		keys := make([]string, len(lit.Map.Entries))
		m := make(map[string]*value.Value, len(lit.Map.Entries))
		for i, entry := range lit.Map.Entries {
			keys[i] = entry.Key
			m[entry.Key] = literalToValue(entry.Value, path)
		}
		return &value.Value{Kind: value.KindMap, Keys: keys, Map: m, Path: path}
	default:
		return &value.Value{Kind: value.KindNull, Path: path}
	}
}

// queryLabel renders a query back to dotted-path source text for
// reporter labels and rulegen output.
func queryLabel(q *dsl.Query) string {
	var b strings.Builder
	if q.Some {
		b.WriteString("some ")
	}
	writeHead(&b, q.Head)
	for _, s := range q.Tail {
		writeStep(&b, s)
	}
	return b.String()
}

func writeHead(b *strings.Builder, s *dsl.PathStep) {
	switch {
	case s.Key != nil:
		b.WriteString(*s.Key)
	case s.Variable != nil:
		fmt.Fprintf(b, "%%%s", *s.Variable)
	}
}

func writeStep(b *strings.Builder, s *dsl.PathStep) {
	switch {
	case s.Key != nil:
		fmt.Fprintf(b, ".%s", *s.Key)
	case s.Variable != nil:
		fmt.Fprintf(b, ".%%%s", *s.Variable)
	case s.AllValues:
		b.WriteString(".*")
	case s.Index != nil:
		fmt.Fprintf(b, "[%d]", *s.Index)
	case s.AllIndices:
		b.WriteString("[*]")
	case s.Filter != nil:
		b.WriteString("[ ... ]")
	case s.MapKeyFilter != nil:
		b.WriteString("{ ... }")
	}
}
