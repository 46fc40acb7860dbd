// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 HoloMUSH Contributors

package scope_test

import (
	"errors"
	"testing"

	"github.com/samber/oops"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/openguard-dsl/guard/internal/query"
	"github.com/openguard-dsl/guard/internal/scope"
	"github.com/openguard-dsl/guard/internal/status"
	"github.com/openguard-dsl/guard/internal/value"
)

func TestScope_BindAndLookup(t *testing.T) {
	s := scope.New()
	calls := 0
	s.Bind("x", func() ([]*query.Located, error) {
		calls++
		return []*query.Located{{Value: &value.Value{Kind: value.KindInt, Int: 5}}}, nil
	})

	located, err := s.Lookup("x")
	require.NoError(t, err)
	assert.Equal(t, int64(5), located[0].Value.Int)

	// A second lookup must reuse the cached resolution, not re-resolve.
	_, err = s.Lookup("x")
	require.NoError(t, err)
	assert.Equal(t, 1, calls)
}

func TestScope_LookupUnbound(t *testing.T) {
	s := scope.New()
	_, err := s.Lookup("missing")
	require.Error(t, err)
	oopsErr, ok := oops.AsOops(err)
	require.True(t, ok)
	assert.Equal(t, "MISSING_VARIABLE", oopsErr.Code())
}

func TestScope_LookupResolveError(t *testing.T) {
	s := scope.New()
	s.Bind("bad", func() ([]*query.Located, error) {
		return nil, errors.New("boom")
	})
	_, err := s.Lookup("bad")
	require.Error(t, err)
}

func TestScope_LookupDetectsBindingCycle(t *testing.T) {
	s := scope.New()
	var lookupA func() ([]*query.Located, error)
	lookupA = func() ([]*query.Located, error) { return s.Lookup("a") }
	s.Bind("a", func() ([]*query.Located, error) { return s.Lookup("b") })
	s.Bind("b", lookupA)

	_, err := s.Lookup("a")
	require.Error(t, err)
	oopsErr, ok := oops.AsOops(err)
	require.True(t, ok)
	assert.Equal(t, "BINDING_CYCLE", oopsErr.Code())
}

func TestScope_LookupDoesNotFalselyFlagShadowedNameAsCycle(t *testing.T) {
	// A nested scope's own binding of "x" is a distinct binding from an
	// outer "x"; resolving one must never be mistaken for a
	// self-reference of the other just because they share a name.
	parent := scope.New()
	parent.Bind("x", func() ([]*query.Located, error) {
		child := parent.Child()
		child.Bind("x", func() ([]*query.Located, error) {
			return []*query.Located{{Value: &value.Value{Kind: value.KindInt, Int: 9}}}, nil
		})
		return child.Lookup("x")
	})

	located, err := parent.Lookup("x")
	require.NoError(t, err)
	assert.Equal(t, int64(9), located[0].Value.Int)
}

func TestScope_ChildShadowsParent(t *testing.T) {
	parent := scope.New()
	parent.Bind("x", func() ([]*query.Located, error) {
		return []*query.Located{{Value: &value.Value{Kind: value.KindInt, Int: 1}}}, nil
	})

	child := parent.Child()
	child.Bind("x", func() ([]*query.Located, error) {
		return []*query.Located{{Value: &value.Value{Kind: value.KindInt, Int: 2}}}, nil
	})

	located, err := child.Lookup("x")
	require.NoError(t, err)
	assert.Equal(t, int64(2), located[0].Value.Int)

	located, err = parent.Lookup("x")
	require.NoError(t, err)
	assert.Equal(t, int64(1), located[0].Value.Int)
}

func TestScope_ChildInheritsUnshadowedBinding(t *testing.T) {
	parent := scope.New()
	parent.Bind("y", func() ([]*query.Located, error) {
		return []*query.Located{{Value: &value.Value{Kind: value.KindInt, Int: 7}}}, nil
	})

	child := parent.Child()
	located, err := child.Lookup("y")
	require.NoError(t, err)
	assert.Equal(t, int64(7), located[0].Value.Int)
}

func TestScope_RuleMemoization(t *testing.T) {
	s := scope.New()
	_, ok := s.RuleStatus("r")
	assert.False(t, ok)

	s.EndRule("r", status.Pass)
	st, ok := s.RuleStatus("r")
	require.True(t, ok)
	assert.Equal(t, status.Pass, st)
}

func TestScope_RuleMemoizationSharedAcrossChildren(t *testing.T) {
	parent := scope.New()
	child := parent.Child()

	child.EndRule("shared", status.Fail)

	st, ok := parent.RuleStatus("shared")
	require.True(t, ok)
	assert.Equal(t, status.Fail, st)
}

func TestScope_BeginRuleDetectsCycle(t *testing.T) {
	s := scope.New()
	alreadyInFlight := s.BeginRule("r")
	assert.False(t, alreadyInFlight)

	alreadyInFlight = s.BeginRule("r")
	assert.True(t, alreadyInFlight)

	s.EndRule("r", status.Skip)
	alreadyInFlight = s.BeginRule("r")
	assert.False(t, alreadyInFlight)
}
