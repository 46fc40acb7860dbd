// Package engine is the single pure-function entry point of the guard
// tool: rules source text plus one raw JSON/YAML document in, a verdict tree
// and a per-rule status map out. It never performs I/O itself — callers
// own reading files and writing results — mirroring the teacher's
// policy/engine.go orchestration shape (step-commented, oops-wrapped,
// metrics recorded on the way out) adapted to a stateless document
// evaluator instead of a request-scoped access check.
package engine

import (
	"time"

	"github.com/oklog/ulid/v2"
	"github.com/samber/oops"

	"github.com/openguard-dsl/guard/internal/dsl"
	"github.com/openguard-dsl/guard/internal/eval"
	"github.com/openguard-dsl/guard/internal/metrics"
	"github.com/openguard-dsl/guard/internal/report"
	"github.com/openguard-dsl/guard/internal/status"
	"github.com/openguard-dsl/guard/internal/value"
)

// Outcome is the result of one Evaluate call.
type Outcome struct {
	// TraceID is a ULID minted once per call. It is attached to any error
	// Evaluate returns and is not passed to metrics or the reporter tree.
	TraceID string
	// RuleStatuses holds the final status of every top-level guard rule,
	// keyed by rule name.
	RuleStatuses map[string]status.Status
	// RuleNames lists the keys of RuleStatuses in document order, since
	// map iteration order is randomized and the CLI's summary output
	// must be reproducible run to run.
	RuleNames []string
	// Roots is the evaluation tree, one root node per top-level rule,
	// populated only when Evaluate was called with Verbose set.
	Roots []*report.Node
}

// Request bundles the inputs to one evaluation.
type Request struct {
	RulesFilename string
	RulesText     string
	Data          []byte
	Verbose       bool
}

// Evaluate parses req.RulesText, decodes req.Data, and evaluates every
// rule in the parsed file against the decoded document.
func Evaluate(req Request) (*Outcome, error) {
	start := time.Now()
	traceID := ulid.Make().String()

	// Step 1: parse the rules source into an AST.
	rf, err := dsl.Parse(req.RulesFilename, req.RulesText)
	if err != nil {
		return nil, oops.Code("PARSE_ERROR").With("trace_id", traceID).
			Wrapf(err, "parsing rules file %s", req.RulesFilename)
	}

	// Step 2: decode the data document into a path-aware value tree.
	root, err := value.Decode(req.Data)
	if err != nil {
		return nil, oops.Code("VALUE_ERROR").With("trace_id", traceID).
			Wrapf(err, "decoding data document")
	}

	// Step 3: evaluate every rule, optionally reconstructing the tree.
	var obs report.Observer = report.NullObserver{}
	var builder *report.TreeBuilder
	if req.Verbose {
		builder = report.NewTreeBuilder()
		obs = builder
	}

	results, err := eval.Evaluate(rf, root, obs)
	if err != nil {
		return nil, oops.Code("INTERNAL").With("trace_id", traceID).
			Wrapf(err, "evaluating rules file %s", req.RulesFilename)
	}

	// Step 4: record metrics, one observation per rule, each carrying the
	// time elapsed since the call started. No separate whole-file
	// observation is recorded.
	ruleNames := make([]string, 0, len(rf.GuardRules))
	for _, r := range rf.GuardRules {
		ruleNames = append(ruleNames, r.Name)
	}

	overall := status.Skip
	for _, name := range ruleNames {
		st := results[name]
		overall = status.And(overall, st)
		metrics.RecordEvaluation(time.Since(start), st.String())
	}

	out := &Outcome{TraceID: traceID, RuleStatuses: results, RuleNames: ruleNames}
	if builder != nil {
		out.Roots = builder.Roots()
	}
	return out, nil
}
