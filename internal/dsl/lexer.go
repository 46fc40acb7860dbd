// Package dsl implements the Guard policy language: lexer, grammar, AST,
// and the ordered JSON/YAML parse-tree serialization.
package dsl

import (
	"github.com/alecthomas/participle/v2/lexer"
)

// guardLexer tokenizes Guard source. Longer punctuation patterns are
// listed before their single-character prefixes so the lexer's longest
// rule still picks the two-character form first.
// Rule names starting with a lowercase letter are elided automatically
// by participle — "comment" and "whitespace" never reach the grammar.
var guardLexer = lexer.MustSimple([]lexer.SimpleRule{
	{Name: "comment", Pattern: `#[^\n]*`},
	{Name: "whitespace", Pattern: `[ \t\r\n]+`},
	{Name: "String", Pattern: `"(\\.|[^"\\])*"`},
	{Name: "Regex", Pattern: `/(\\.|[^/\\\n])*/`},
	{Name: "Number", Pattern: `-?[0-9]+(\.[0-9]+)?`},
	{Name: "LMsg", Pattern: `<<`},
	{Name: "RMsg", Pattern: `>>`},
	{Name: "OpLe", Pattern: `<=`},
	{Name: "OpGe", Pattern: `>=`},
	{Name: "OpEq", Pattern: `==`},
	{Name: "OpNe", Pattern: `!=`},
	{Name: "OpLt", Pattern: `<`},
	{Name: "OpGt", Pattern: `>`},
	{Name: "Ident", Pattern: `[A-Za-z_][A-Za-z0-9_-]*`},
	{Name: "Punct", Pattern: `[(){}\[\]%.,;=*:]`},
})
