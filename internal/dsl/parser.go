package dsl

import (
	"fmt"

	"github.com/alecthomas/participle/v2"
	"github.com/samber/oops"
)

// ParseError carries the source location of a syntax or validation error
// alongside the underlying message, mirroring the teacher's own
// line/column-annotated parse errors.
type ParseError struct {
	Line    int
	Column  int
	Message string
}

func (e *ParseError) Error() string {
	return fmt.Sprintf("%d:%d: %s", e.Line, e.Column, e.Message)
}

// "whitespace" and "comment" are elided automatically by participle
// since their lexer rule names start lowercase; no explicit Elide call
// is needed, matching the teacher's own lexer setup.
var guardParser = participle.MustBuild[RulesFile](
	participle.Lexer(guardLexer),
	participle.Unquote("String"),
	participle.UseLookahead(participle.MaxLookahead),
)

// Parse compiles Guard source into a RulesFile, bucketing each definition
// into GuardRules or ParameterizedRules and running the validation pass
// that catches errors the grammar itself can't (undefined rule
// references, binary comparators missing a right-hand side, and so on).
func Parse(filename, source string) (*RulesFile, error) {
	rf, err := guardParser.ParseString(filename, source)
	if err != nil {
		if perr, ok := err.(participle.Error); ok {
			pos := perr.Position()
			return nil, &ParseError{Line: pos.Line, Column: pos.Column, Message: perr.Message()}
		}
		return nil, oops.Code("PARSE_ERROR").
			With("filename", filename).
			Wrapf(err, "parsing guard source")
	}

	for _, r := range rf.Rules {
		if len(r.Params) > 0 {
			rf.ParameterizedRules = append(rf.ParameterizedRules, r)
		} else {
			rf.GuardRules = append(rf.GuardRules, r)
		}
	}

	if err := validate(rf); err != nil {
		return nil, err
	}
	return rf, nil
}

// validate runs the semantic checks the grammar cannot express: every
// named-rule reference must resolve to a declared rule (in scope for
// this file), and every non-unary comparator must carry a right-hand
// side while every unary one must not.
func validate(rf *RulesFile) error {
	names := make(map[string]bool, len(rf.GuardRules)+len(rf.ParameterizedRules))
	for _, r := range rf.GuardRules {
		names[r.Name] = true
	}
	for _, r := range rf.ParameterizedRules {
		names[r.Name] = true
	}

	var walkBlock func(b *Block) error
	var walkConditions func(c *ConditionList) error
	var walkClause func(cl *Clause) error

	walkClause = func(cl *Clause) error {
		switch {
		case cl.Access != nil:
			a := cl.Access
			if a.Comparator.IsUnary() && a.Rhs != nil {
				return &ParseError{Line: a.Pos.Line, Column: a.Pos.Column,
					Message: fmt.Sprintf("comparator %q takes no right-hand side", a.Comparator.Op)}
			}
			if !a.Comparator.IsUnary() && a.Rhs == nil {
				return &ParseError{Line: a.Pos.Line, Column: a.Pos.Column,
					Message: fmt.Sprintf("comparator %q requires a right-hand side", a.Comparator.Op)}
			}
		case cl.NamedRule != nil:
			if !names[cl.NamedRule.RuleName] {
				return &ParseError{Line: cl.NamedRule.Pos.Line, Column: cl.NamedRule.Pos.Column,
					Message: fmt.Sprintf("reference to undefined rule %q", cl.NamedRule.RuleName)}
			}
		case cl.Block != nil:
			if err := walkBlock(cl.Block.Body); err != nil {
				return err
			}
		case cl.When != nil:
			if err := walkConditions(cl.When.Conditions); err != nil {
				return err
			}
			if err := walkBlock(cl.When.Body); err != nil {
				return err
			}
		}
		return nil
	}

	walkConditions = func(c *ConditionList) error {
		if c == nil {
			return nil
		}
		for _, conj := range c.Conjunctions {
			for _, cl := range conj.Clauses {
				if err := walkClause(cl); err != nil {
					return err
				}
			}
		}
		return nil
	}

	walkBlock = func(b *Block) error {
		if b == nil {
			return nil
		}
		for _, conj := range b.Conjunctions {
			for _, cl := range conj.Clauses {
				if err := walkClause(cl); err != nil {
					return err
				}
			}
		}
		return nil
	}

	for _, r := range append(append([]*Rule{}, rf.GuardRules...), rf.ParameterizedRules...) {
		if err := walkConditions(r.Conditions); err != nil {
			return err
		}
		if err := walkBlock(r.Body); err != nil {
			return err
		}
	}
	return nil
}
