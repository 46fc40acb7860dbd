// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 HoloMUSH Contributors

package report_test

import (
	"bytes"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/openguard-dsl/guard/internal/query"
	"github.com/openguard-dsl/guard/internal/report"
	"github.com/openguard-dsl/guard/internal/scope"
	"github.com/openguard-dsl/guard/internal/status"
	"github.com/openguard-dsl/guard/internal/value"
)

func TestTreeBuilder_NestsChildrenUnderParent(t *testing.T) {
	b := report.NewTreeBuilder()
	b.StartEvaluation("rule", "r", "/")
	b.StartEvaluation("conjunction", "", "/")
	b.StartEvaluation("access_clause", "Properties.Size", "/Properties/Size")
	b.EndEvaluation(status.Pass, "", nil, nil)
	b.EndEvaluation(status.Pass, "", nil, nil)
	b.EndEvaluation(status.Pass, "", nil, nil)

	roots := b.Roots()
	require.Len(t, roots, 1)
	assert.Equal(t, "rule", roots[0].Kind)
	require.Len(t, roots[0].Children, 1)
	assert.Equal(t, "conjunction", roots[0].Children[0].Kind)
	require.Len(t, roots[0].Children[0].Children, 1)
	assert.Equal(t, "access_clause", roots[0].Children[0].Children[0].Kind)
}

func TestTreeBuilder_MultipleRootsAreSiblings(t *testing.T) {
	b := report.NewTreeBuilder()
	b.StartEvaluation("rule", "a", "/")
	b.EndEvaluation(status.Pass, "", nil, nil)
	b.StartEvaluation("rule", "b", "/")
	b.EndEvaluation(status.Fail, "", nil, nil)

	roots := b.Roots()
	require.Len(t, roots, 2)
	assert.Equal(t, "a", roots[0].Label)
	assert.Equal(t, status.Pass, roots[0].Status)
	assert.Equal(t, "b", roots[1].Label)
	assert.Equal(t, status.Fail, roots[1].Status)
}

func TestTreeBuilder_EndEvaluationRecordsFromTo(t *testing.T) {
	b := report.NewTreeBuilder()
	from := &query.Located{Value: &value.Value{Kind: value.KindInt, Int: 10}, Path: "/Properties/Size"}
	to := &query.Located{Value: &value.Value{Kind: value.KindInt, Int: 10}, Path: "/Properties/Size"}

	b.StartEvaluation("access_clause", "Properties.Size", "/")
	b.EndEvaluation(status.Pass, "", from, to)

	roots := b.Roots()
	require.Len(t, roots, 1)
	assert.Same(t, from, roots[0].From)
	assert.Same(t, to, roots[0].To)
}

func TestTreeBuilder_UnbalancedEndIsNoop(t *testing.T) {
	b := report.NewTreeBuilder()
	assert.NotPanics(t, func() {
		b.EndEvaluation(status.Pass, "", nil, nil)
	})
	assert.Empty(t, b.Roots())
}

func TestTreeBuilder_DelegatesToAttachedScope(t *testing.T) {
	b := report.NewTreeBuilder()
	sc := scope.New()
	sc.Bind("x", func() ([]*query.Located, error) {
		return []*query.Located{{Value: &value.Value{Kind: value.KindInt, Int: 5}}}, nil
	})
	sc.EndRule("some_rule", status.Pass)

	b.Attach(sc)

	located, err := b.ResolveVariable("x")
	require.NoError(t, err)
	assert.Equal(t, int64(5), located[0].Value.Int)

	st, ok := b.RuleStatus("some_rule")
	require.True(t, ok)
	assert.Equal(t, status.Pass, st)
}

func TestTreeBuilder_UnattachedResolveVariableErrors(t *testing.T) {
	b := report.NewTreeBuilder()
	_, err := b.ResolveVariable("x")
	assert.Error(t, err)

	_, ok := b.RuleStatus("x")
	assert.False(t, ok)
}

func TestNullObserver_DiscardsEverything(t *testing.T) {
	var obs report.Observer = report.NullObserver{}
	assert.NotPanics(t, func() {
		obs.StartEvaluation("rule", "r", "/")
		obs.EndEvaluation(status.Pass, "", nil, nil)
	})
	located, err := obs.ResolveVariable("anything")
	assert.NoError(t, err)
	assert.Nil(t, located)
	_, ok := obs.RuleStatus("anything")
	assert.False(t, ok)
}

func TestRenderSummary_OneLinePerRoot(t *testing.T) {
	b := report.NewTreeBuilder()
	b.StartEvaluation("rule", "a", "/")
	b.EndEvaluation(status.Pass, "", nil, nil)
	b.StartEvaluation("rule", "b", "/")
	b.EndEvaluation(status.Fail, "", nil, nil)

	var buf bytes.Buffer
	report.RenderSummary(&buf, b.Roots())
	assert.Equal(t, "PASS a\nFAIL b\n", buf.String())
}

func TestRenderVerbose_PrintsFromAndToLines(t *testing.T) {
	b := report.NewTreeBuilder()
	from := &query.Located{Value: &value.Value{Kind: value.KindInt, Int: 10}, Path: "/Properties/Size"}
	to := &query.Located{Value: &value.Value{Kind: value.KindInt, Int: 10}, Path: "/Properties/Size"}

	b.StartEvaluation("rule", "r", "/")
	b.StartEvaluation("access_clause", "Properties.Size", "/")
	b.EndEvaluation(status.Pass, "", from, to)
	b.EndEvaluation(status.Pass, "", nil, nil)

	var buf bytes.Buffer
	report.RenderVerbose(&buf, b.Roots())
	out := buf.String()
	assert.Contains(t, out, "from: /Properties/Size = 10")
	assert.Contains(t, out, "to: /Properties/Size = 10")
}

func TestRenderVerbose_IncludesMessageOnFail(t *testing.T) {
	b := report.NewTreeBuilder()
	b.StartEvaluation("access_clause", "Properties.Size", "/")
	b.EndEvaluation(status.Fail, "bucket must be encrypted", nil, nil)

	var buf bytes.Buffer
	report.RenderVerbose(&buf, b.Roots())
	assert.Contains(t, buf.String(), "bucket must be encrypted")
}
