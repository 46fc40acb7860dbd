// Package report implements the evaluation observer hook: a Start/End
// pair the evaluator calls around every clause, rule, and block it
// evaluates. Tree construction (pure data) is kept separate from
// rendering (console text) so a caller can consume the structured tree
// without ever touching a writer — the evaluator itself only ever talks
// to the Observer interface, never to a terminal.
package report

import (
	"fmt"
	"io"
	"strings"

	"github.com/samber/oops"

	"github.com/openguard-dsl/guard/internal/query"
	"github.com/openguard-dsl/guard/internal/scope"
	"github.com/openguard-dsl/guard/internal/status"
	"github.com/openguard-dsl/guard/internal/value"
)

// Observer receives balanced evaluation events, plus on-demand access to
// the scope driving them, per spec.md §4.6's four required operations.
// Every StartEvaluation call is matched by exactly one EndEvaluation
// call, in LIFO order — nested evaluations start and end strictly inside
// their parent's span. from/to are populated only for access-clause
// evaluations: from is the LHS located value, to is the RHS located
// value (if any); every other kind passes nil for both.
type Observer interface {
	StartEvaluation(kind, label, path string)
	EndEvaluation(st status.Status, message string, from, to *query.Located)
	ResolveVariable(name string) ([]*query.Located, error)
	RuleStatus(name string) (status.Status, bool)
}

// NullObserver discards every event; used when a caller only wants the
// final per-rule statuses and has no use for the evaluation tree.
type NullObserver struct{}

func (NullObserver) StartEvaluation(string, string, string) {}
func (NullObserver) EndEvaluation(status.Status, string, *query.Located, *query.Located) {
}
func (NullObserver) ResolveVariable(string) ([]*query.Located, error) { return nil, nil }
func (NullObserver) RuleStatus(string) (status.Status, bool)          { return status.Skip, false }

// Node is one span of the evaluation tree: pure data, no rendering
// concerns attached.
type Node struct {
	Kind     string
	Label    string
	Path     string
	Status   status.Status
	Message  string
	From     *query.Located
	To       *query.Located
	Children []*Node
}

// TreeBuilder is an Observer that reconstructs the evaluation tree from
// balanced Start/End events. ResolveVariable and RuleStatus delegate to
// whatever scope is Attach-ed to it, so a consumer composing on top of a
// TreeBuilder (a console summary, a JSON tree emitter) can still reach
// live binding/rule state without needing its own reference to the
// evaluator's internals.
type TreeBuilder struct {
	roots []*Node
	stack []*Node
	sc    *scope.Scope
}

// NewTreeBuilder creates an empty TreeBuilder.
func NewTreeBuilder() *TreeBuilder {
	return &TreeBuilder{}
}

// Attach wires sc as the scope ResolveVariable/RuleStatus delegate to.
// eval.Evaluate calls this once it constructs the root scope, before
// evaluating any rule.
func (b *TreeBuilder) Attach(sc *scope.Scope) {
	b.sc = sc
}

// ResolveVariable delegates to the attached scope's Lookup.
func (b *TreeBuilder) ResolveVariable(name string) ([]*query.Located, error) {
	if b.sc == nil {
		return nil, oops.Code("MISSING_VARIABLE").With("name", name).
			Errorf("no scope attached to resolve %q", name)
	}
	return b.sc.Lookup(name)
}

// RuleStatus delegates to the attached scope's memoized rule statuses.
func (b *TreeBuilder) RuleStatus(name string) (status.Status, bool) {
	if b.sc == nil {
		return status.Skip, false
	}
	return b.sc.RuleStatus(name)
}

// StartEvaluation pushes a new node, nested under the current top of
// stack if one exists.
func (b *TreeBuilder) StartEvaluation(kind, label, path string) {
	n := &Node{Kind: kind, Label: label, Path: path}
	if len(b.stack) > 0 {
		top := b.stack[len(b.stack)-1]
		top.Children = append(top.Children, n)
	} else {
		b.roots = append(b.roots, n)
	}
	b.stack = append(b.stack, n)
}

// EndEvaluation pops the current node and records its final status.
// Calling it with an empty stack is a caller bug (unbalanced events)
// and is a no-op rather than a panic, so a malformed evaluator can't
// crash reporting.
func (b *TreeBuilder) EndEvaluation(st status.Status, message string, from, to *query.Located) {
	if len(b.stack) == 0 {
		return
	}
	n := b.stack[len(b.stack)-1]
	b.stack = b.stack[:len(b.stack)-1]
	n.Status = st
	n.Message = message
	n.From = from
	n.To = to
}

// Roots returns the completed top-level nodes. Valid only after every
// StartEvaluation has been matched by an EndEvaluation.
func (b *TreeBuilder) Roots() []*Node {
	return b.roots
}

// RenderSummary writes a one-line-per-rule summary: "<status> <label>".
func RenderSummary(w io.Writer, roots []*Node) {
	for _, n := range roots {
		fmt.Fprintf(w, "%s %s\n", n.Status, n.Label)
	}
}

// RenderVerbose writes the full evaluation tree indented 4 spaces per
// depth, including any custom clause message recorded alongside a FAIL
// and, for access clauses, the "from:"/"to:" located-value lines spec.md
// §6 documents for verbose output.
func RenderVerbose(w io.Writer, roots []*Node) {
	for _, n := range roots {
		renderNode(w, n, 0)
	}
}

func renderNode(w io.Writer, n *Node, depth int) {
	indent := strings.Repeat("    ", depth)
	if n.Message != "" {
		fmt.Fprintf(w, "%s%s %s %s — %s\n", indent, n.Status, n.Kind, n.Label, n.Message)
	} else {
		fmt.Fprintf(w, "%s%s %s %s\n", indent, n.Status, n.Kind, n.Label)
	}
	childIndent := strings.Repeat("    ", depth+1)
	if n.From != nil {
		fmt.Fprintf(w, "%sfrom: %s\n", childIndent, describeLocated(n.From))
	}
	if n.To != nil {
		fmt.Fprintf(w, "%sto: %s\n", childIndent, describeLocated(n.To))
	}
	for _, c := range n.Children {
		renderNode(w, c, depth+1)
	}
}

// describeLocated renders a located value as "<path> = <scalar>" for
// scalars, or "<path> (<kind>)" for containers, since printing an entire
// nested document inline would overwhelm the verbose trace.
func describeLocated(l *query.Located) string {
	v := l.Value
	if v == nil {
		return l.Path
	}
	switch v.Kind {
	case value.KindList, value.KindMap:
		return fmt.Sprintf("%s (%s)", l.Path, v.Kind)
	default:
		return fmt.Sprintf("%s = %s", l.Path, value.Scalar(v))
	}
}
