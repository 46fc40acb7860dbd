// Package query resolves Guard path expressions (dsl.Query) against a
// decoded document (value.Value), producing the set of located values
// the expression matches. Filter and MapKeyFilter steps embed a nested
// Guard block that must itself be evaluated against each candidate; to
// avoid an import cycle with the evaluator, that predicate is injected
// by the caller rather than implemented here.
package query

import (
	"strconv"

	"github.com/samber/oops"

	"github.com/openguard-dsl/guard/internal/dsl"
	"github.com/openguard-dsl/guard/internal/value"
)

// Located pairs a resolved value with the path that reached it, so a
// reporter can cite exactly where in the document a match (or
// non-match) occurred.
type Located struct {
	Value *value.Value
	Path  string
}

// FilterEval evaluates a Filter/MapKeyFilter block's conditions against
// one candidate, returning whether the candidate passes.
type FilterEval func(candidate *value.Value, block *dsl.Block) (bool, error)

// VarLookup resolves a `%name` query step to the values currently bound
// to that variable in scope. It returns an error directly — rather than
// a bare "not found" bool — so the caller (internal/scope) can surface
// MissingVariable and BindingCycle as distinct, already-classified
// errors instead of this package re-deriving them from an ok flag.
type VarLookup func(name string) ([]*Located, error)

// Resolve walks q against root, returning every located value the query
// matches. A step that matches nothing ends the walk with an empty
// result, never an error, whether or not q.MatchAll() is set: Resolve
// does not consult MatchAll itself. The evaluator applies MatchAll when
// combining per-value statuses and decides what an empty resolution
// means for SKIP/FAIL.
func Resolve(root *value.Value, q *dsl.Query, vars VarLookup, filter FilterEval) ([]*Located, error) {
	current, err := resolveHead(root, q.Head, vars)
	if err != nil {
		return nil, err
	}
	for _, step := range q.Tail {
		current, err = resolveStep(current, step, vars, filter)
		if err != nil {
			return nil, err
		}
		if len(current) == 0 {
			break
		}
	}
	return current, nil
}

func resolveHead(root *value.Value, step *dsl.PathStep, vars VarLookup) ([]*Located, error) {
	switch {
	case step.Variable != nil:
		return vars(*step.Variable)
	case step.Key != nil:
		child := root.Get(*step.Key)
		if child == nil {
			return nil, nil
		}
		return []*Located{{Value: child, Path: child.Path}}, nil
	}
	return nil, oops.Code("INTERNAL").Errorf("query head must be a key or variable")
}

func resolveStep(current []*Located, step *dsl.PathStep, vars VarLookup, filter FilterEval) ([]*Located, error) {
	switch {
	case step.Key != nil:
		return mapOverEach(current, func(v *value.Value) []*Located {
			child := v.Get(*step.Key)
			if child == nil {
				return nil
			}
			return []*Located{{Value: child, Path: child.Path}}
		}), nil

	case step.AllValues:
		return mapOverEach(current, func(v *value.Value) []*Located {
			if v != nil && v.Kind == value.KindList {
				out := make([]*Located, 0, len(v.List))
				for _, c := range v.List {
					out = append(out, &Located{Value: c, Path: c.Path})
				}
				return out
			}
			if v == nil || v.Kind != value.KindMap {
				return nil
			}
			out := make([]*Located, 0, len(v.Keys))
			for _, k := range v.Keys {
				c := v.Map[k]
				out = append(out, &Located{Value: c, Path: c.Path})
			}
			return out
		}), nil

	case step.Index != nil:
		idx := step.IndexInt()
		return mapOverEach(current, func(v *value.Value) []*Located {
			c := v.At(idx)
			if c == nil {
				return nil
			}
			return []*Located{{Value: c, Path: c.Path}}
		}), nil

	case step.AllIndices:
		return mapOverEach(current, func(v *value.Value) []*Located {
			if v == nil || v.Kind != value.KindList {
				return nil
			}
			out := make([]*Located, 0, len(v.List))
			for _, c := range v.List {
				out = append(out, &Located{Value: c, Path: c.Path})
			}
			return out
		}), nil

	case step.Variable != nil:
		return vars(*step.Variable)

	case step.Filter != nil:
		if filter == nil {
			return nil, oops.Code("INTERNAL").Errorf("filter step with no filter evaluator")
		}
		// A list is filtered element-wise; any other value is tested whole.
		var out []*Located
		for _, l := range current {
			candidates := []*Located{l}
			if l.Value != nil && l.Value.Kind == value.KindList {
				candidates = make([]*Located, 0, len(l.Value.List))
				for _, c := range l.Value.List {
					candidates = append(candidates, &Located{Value: c, Path: c.Path})
				}
			}
			for _, c := range candidates {
				ok, err := filter(c.Value, step.Filter)
				if err != nil {
					return nil, err
				}
				if ok {
					out = append(out, c)
				}
			}
		}
		return out, nil

	case step.MapKeyFilter != nil:
		if filter == nil {
			return nil, oops.Code("INTERNAL").Errorf("map-key filter step with no filter evaluator")
		}
		var out []*Located
		for _, l := range current {
			if l.Value == nil || l.Value.Kind != value.KindMap {
				continue
			}
			for _, k := range l.Value.Keys {
				entryVal := l.Value.Map[k]
				synthetic := &value.Value{
					Kind: value.KindMap,
					Path: entryVal.Path,
					Keys: []string{"KEY", "VALUE"},
					Map: map[string]*value.Value{
						"KEY":   {Kind: value.KindString, Str: k, Path: entryVal.Path},
						"VALUE": entryVal,
					},
				}
				ok, err := filter(synthetic, step.MapKeyFilter)
				if err != nil {
					return nil, err
				}
				if ok {
					out = append(out, &Located{Value: entryVal, Path: entryVal.Path})
				}
			}
		}
		return out, nil
	}
	return nil, oops.Code("INTERNAL").Errorf("unrecognized query step")
}

func mapOverEach(current []*Located, f func(*value.Value) []*Located) []*Located {
	var out []*Located
	for _, l := range current {
		out = append(out, f(l.Value)...)
	}
	return out
}

// IndexKey renders an int index the way a path wants it, for callers
// building synthetic paths outside this package.
func IndexKey(i int) string { return strconv.Itoa(i) }
