package dsl

import (
	"github.com/alecthomas/participle/v2/lexer"
)

// Position is a 1-based source location, kept for error messages only —
// it is intentionally absent from the JSON/YAML parse-tree encoding since
// the round-trip invariant holds modulo location metadata. It is
// participle's own lexer.Position, auto-populated on every node tagged
// with an empty `parser:""`.
type Position = lexer.Position

// RulesFile is the root of a parsed Guard document: an ordered sequence
// of assignments followed by rule definitions. The grammar captures every
// definition into Rules; Parse buckets each into GuardRules or
// ParameterizedRules by whether it declares parameters (see parser.go).
type RulesFile struct {
	Pos         Position      `parser:""`
	Assignments []*Assignment `parser:"@@*"`
	Rules       []*Rule       `parser:"@@*"`

	GuardRules         []*Rule `parser:"-"`
	ParameterizedRules []*Rule `parser:"-"`
}

// Assignment is a top-level or block-local `let name = expr` binding.
type Assignment struct {
	Pos   Position    `parser:""`
	Name  string      `parser:"'let' @Ident '='"`
	Value *Expression `parser:"@@"`
}

// Rule is a single `rule name(params...) when conditions { block }`
// definition. It is a parameterized rule definition when Params is
// non-empty, a plain guard rule otherwise — both are the same grammar
// production, bucketed by the caller.
type Rule struct {
	Pos        Position       `parser:""`
	Name       string         `parser:"'rule' @Ident"`
	Params     []string       `parser:"('(' (@Ident (',' @Ident)*)? ')')?"`
	Conditions *ConditionList `parser:"('when' @@)?"`
	Body       *Block         `parser:"'{' @@ '}'"`
}

// ConditionList is an implicit AND of conjunctions used by `when` clauses
// — identical shape to a Block's conjunction sequence, without
// assignments or braces.
type ConditionList struct {
	Pos          Position      `parser:""`
	Conjunctions []*Conjunction `parser:"@@*"`
}

// Block is `assignment* conjunction*`: local bindings followed by the
// CNF body of the rule, scope clause, or when-block.
type Block struct {
	Pos          Position       `parser:""`
	Assignments  []*Assignment  `parser:"@@*"`
	Conjunctions []*Conjunction `parser:"@@*"`
}

// Conjunction is one AND-term: a disjunction ("or"-chain) of clauses,
// with an optional trailing `;`.
type Conjunction struct {
	Pos     Position  `parser:""`
	Clauses []*Clause `parser:"@@ ('or' @@)* ';'?"`
}

// Clause is `'not'? (when_block | block_clause | access_clause | named_rule)`.
// Alternatives are tried in this order — most structurally distinctive
// first (the `when`/scope-query forms can't be confused with anything
// else), access clauses next (they require a full comparator to match),
// and a bare rule-name reference last as the fallback a plain identifier
// with nothing else parseable after it falls through to.
type Clause struct {
	Pos       Position              `parser:""`
	Negation  bool                  `parser:"@'not'?"`
	When      *WhenBlock            `parser:"(  @@"`
	Block     *BlockClause          `parser:" | @@"`
	Access    *AccessClause         `parser:" | @@"`
	NamedRule *GuardNamedRuleClause `parser:" | @@ )"`
}

// WhenBlock: a condition list guarding a nested body block, evaluated
// only when the conditions hold.
type WhenBlock struct {
	Pos        Position       `parser:"'when'"`
	Conditions *ConditionList `parser:"@@"`
	Body       *Block         `parser:"'{' @@ '}'"`
}

// BlockClause: a scope-selecting query paired with a nested body block,
// evaluated once per element the query resolves to.
type BlockClause struct {
	Pos   Position `parser:""`
	Query *Query   `parser:"@@"`
	Body  *Block   `parser:"'{' @@ '}'"`
}

// AccessClause: a query, a comparator, an optional right-hand side
// (literal or query) and an optional custom `<< message >>`.
type AccessClause struct {
	Pos        Position    `parser:""`
	Query      *Query      `parser:"@@"`
	Comparator *Comparator `parser:"@@"`
	Rhs        *Expression `parser:"@@?"`
	Message    *string     `parser:"('<<' @String '>>')?"`
}

// GuardNamedRuleClause references another rule (optionally a
// parameterized one, with a call argument list) by name. Its truth is
// that rule's evaluated status.
type GuardNamedRuleClause struct {
	Pos      Position      `parser:""`
	RuleName string        `parser:"@Ident"`
	Args     []*Expression `parser:"('(' (@@ (',' @@)*)? ')')?"`
}

// Expression is the right-hand side of a `let` binding or an
// AccessClause: either a query or a literal value.
type Expression struct {
	Pos     Position `parser:""`
	Query   *Query   `parser:"  @@"`
	Literal *Literal `parser:"| @@"`
}

// Comparator. Not combines with Op to express "not in" / "not exists"
// etc. The "!=" spelling is its own token (CmpNe), which Kind folds into
// Eq+inverted.
type Comparator struct {
	Pos Position `parser:""`
	Not bool     `parser:"@'not'?"`
	Op  string   `parser:"@(OpEq|OpNe|OpLe|OpGe|OpLt|OpGt|'in'|'exists'|'empty'|'is_string'|'is_list'|'is_map'|'is_int'|'is_float'|'is_bool'|'is_null')"`
}

// Kind values for Comparator.Op, normalized ("!=" folds into Eq+inverted).
const (
	CmpEq      = "=="
	CmpLt      = "<"
	CmpLe      = "<="
	CmpGt      = ">"
	CmpGe      = ">="
	CmpIn      = "in"
	CmpExists  = "exists"
	CmpEmpty   = "empty"
	CmpIsStr   = "is_string"
	CmpIsList  = "is_list"
	CmpIsMap   = "is_map"
	CmpIsInt   = "is_int"
	CmpIsFloat = "is_float"
	CmpIsBool  = "is_bool"
	CmpIsNull  = "is_null"
)

// Kind returns the normalized comparator kind and whether the test is
// inverted (via a leading `not` or the `!=` spelling of Eq).
func (c *Comparator) Kind() (kind string, inverted bool) {
	if c.Op == CmpNe {
		return CmpEq, !c.Not
	}
	return c.Op, c.Not
}

// CmpNe is the raw "!=" spelling, folded into CmpEq+inverted by Kind.
const CmpNe = "!="

// IsUnary reports whether this comparator never takes a right-hand side.
func (c *Comparator) IsUnary() bool {
	switch c.Op {
	case CmpExists, CmpEmpty, CmpIsStr, CmpIsList, CmpIsMap, CmpIsInt, CmpIsFloat, CmpIsBool, CmpIsNull:
		return true
	}
	return false
}

// Query is a path expression: a head step plus zero or more continuation
// steps. MatchAll is true unless a leading `some` keyword is present, in
// which case the query is satisfied by the first element that matches
// rather than requiring every resolved element to.
type Query struct {
	Pos      Position    `parser:""`
	Some     bool        `parser:"@'some'?"`
	Head     *PathStep   `parser:"@@"`
	Tail     []*PathStep `parser:"@@*"`
}

// MatchAll reports the effective match-all semantics of the query.
func (q *Query) MatchAll() bool { return !q.Some }

// PathStep is a single step of a query. Exactly one field is set.
// Head steps are Key or Variable; Tail steps may additionally be
// AllValues, Index, AllIndices, Filter, or MapKeyFilter.
type PathStep struct {
	Pos          Position `parser:""`
	Key          *string  `parser:"(  '.'? @Ident"`
	Variable     *string  `parser:" | '.'? '%' @Ident"`
	AllValues    bool     `parser:" | '.' @'*'"`
	Index        *int64   `parser:" | '[' @Number ']'"`
	AllIndices   bool     `parser:" | '[' @'*' ']'"`
	Filter       *Block   `parser:" | '[' @@ ']'"`
	MapKeyFilter *Block   `parser:" | '{' @@ '}' )"`
}

// IndexInt returns Index as a plain int, for callers that don't want to
// deal with the int64 the Number token forces on the grammar.
func (s *PathStep) IndexInt() int {
	if s.Index == nil {
		return 0
	}
	return int(*s.Index)
}

// Literal is a JSON-like value embedded directly in Guard source: a
// scalar, a regex, or a recursively nested list/map of literals.
type Literal struct {
	Pos    Position     `parser:""`
	Null   bool         `parser:"(  @'null'"`
	Bool   *bool        `parser:" | @('true'|'false')"`
	Str    *string      `parser:" | @String"`
	Regex  *string      `parser:" | @Regex"`
	Number *float64     `parser:" | @Number"`
	List   *ListLiteral `parser:" | @@"`
	Map    *MapLiteral  `parser:" | @@ )"`
}

// ListLiteral is a bracketed, comma-separated list of literals.
type ListLiteral struct {
	Pos   Position   `parser:"'['"`
	Items []*Literal `parser:"(@@ (',' @@)*)? ']'"`
}

// MapLiteral is a braced, comma-separated set of string-keyed entries.
type MapLiteral struct {
	Pos     Position    `parser:"'{'"`
	Entries []*MapEntry `parser:"(@@ (',' @@)*)? '}'"`
}

// MapEntry is one `"key": literal` pair of a MapLiteral.
type MapEntry struct {
	Pos   Position `parser:""`
	Key   string   `parser:"@String ':'"`
	Value *Literal `parser:"@@"`
}
