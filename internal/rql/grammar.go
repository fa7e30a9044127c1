package rql

import (
	"github.com/alecthomas/participle/v2"
	"github.com/alecthomas/participle/v2/lexer"
)

// rqlLexer tokenizes RQL source. Order matters: the simple lexer tries
// rules in sequence and keeps the first one that matches at the current
// offset. Keyword precedes Ident so "and" is never lexed as an identifier;
// its \b bounds keep "android" from matching it at all. Bare precedes
// Ident but only matches a run that starts with a digit or contains a
// character outside [A-Za-z0-9_], so "main.go" or "Handle*" stay one
// token while a plain word such as a predicate key lexes as Ident.
var rqlLexer = lexer.MustSimple([]lexer.SimpleRule{
	{Name: "Whitespace", Pattern: `\s+`},
	{Name: "Keyword", Pattern: `(?i)\b(and|or|not)\b`},
	{Name: "LParen", Pattern: `\(`},
	{Name: "RParen", Pattern: `\)`},
	{Name: "Colon", Pattern: `:`},
	{Name: "SymOp", Pattern: `[&|!]`},
	{Name: "String", Pattern: `'(?:[^'\\]|\\.)*'|"(?:[^"\\]|\\.)*"`},
	{Name: "Bare", Pattern: `[A-Za-z0-9_]*[^\s()&|!:A-Za-z0-9_][^\s()&|!:]*|[0-9][^\s()&|!:]*`},
	{Name: "Ident", Pattern: `[A-Za-z][A-Za-z0-9_]*`},
})

// queryAST is the top-level grammar production: query = expr.
type queryAST struct {
	Expr *orAST `parser:"@@"`
}

// orAST: expr = term { ("|" | "or") term }
type orAST struct {
	Left *andAST   `parser:"@@"`
	Rest []*orTail `parser:"@@*"`
}

type orTail struct {
	Term *andAST `parser:"(\"|\" | \"or\") @@"`
}

// andAST: term = factor { ("&" | "and") factor }
type andAST struct {
	Left *notAST    `parser:"@@"`
	Rest []*andTail `parser:"@@*"`
}

type andTail struct {
	Term *notAST `parser:"(\"&\" | \"and\") @@"`
}

// notAST: factor = ("!" | "not") factor | "(" expr ")" | predicate
type notAST struct {
	Negated *notAST  `parser:"(\"!\" | \"not\") @@"`
	Group   *orAST   `parser:"| \"(\" @@ \")\""`
	Pred    *predAST `parser:"| @@"`
}

// predAST: predicate = key ":" value
type predAST struct {
	Pos lexer.Position
	Key string `parser:"@Ident"`
	Raw string `parser:"\":\" ( @String | @Bare | @Ident )"`
}

var rqlParser = participle.MustBuild[queryAST](
	participle.Lexer(rqlLexer),
	participle.CaseInsensitive("Keyword"),
	participle.Elide("Whitespace"),
	participle.UseLookahead(2),
)
