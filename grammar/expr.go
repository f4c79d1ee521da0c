package grammar

import "github.com/alecthomas/participle/v2/lexer"

// Expr is the contract-expression entry point: implication binds
// weakest, then quantifiers, then the usual C-like precedence chain
// down to PostfixExpr.
type Expr struct {
	Pos        lexer.Position
	Quantifier *QuantifierExpr `  @@`
	Implies    *ImpliesExpr    `| @@`
}

type QuantifierExpr struct {
	Pos  lexer.Position
	Kind string `@("forall" | "exists")`
	Var  string `@Ident "in"`
	Low  *Expr  `@@ ".."`
	High *Expr  `@@ ":"`
	Body *Expr  `@@`
}

type ImpliesExpr struct {
	Pos        lexer.Position
	Left       *TernaryExpr `@@`
	Consequent *Expr        `[ "=>" @@ ]`
}

type TernaryExpr struct {
	Pos  lexer.Position
	Cond *OrExpr `@@`
	Then *Expr   `[ "?" @@`
	Else *Expr   `":" @@ ]`
}

type OrExpr struct {
	Pos  lexer.Position
	Left *AndExpr   `@@`
	Rest []*AndExpr `( "||" @@ )*`
}

type AndExpr struct {
	Pos  lexer.Position
	Left *EqExpr   `@@`
	Rest []*EqExpr `( "&&" @@ )*`
}

type EqExpr struct {
	Pos   lexer.Position
	Left  *RelExpr `@@`
	Op    *string  `[ @("==" | "!=")`
	Right *EqExpr  `  @@ ]`
}

type RelExpr struct {
	Pos   lexer.Position
	Left  *NullCoalesceExpr `@@`
	Op    *string           `[ @("<=" | ">=" | "<" | ">")`
	Right *RelExpr          `  @@ ]`
}

type NullCoalesceExpr struct {
	Pos   lexer.Position
	Left  *AddExpr          `@@`
	Right *NullCoalesceExpr `[ "??" @@ ]`
}

type AddExpr struct {
	Pos  lexer.Position
	Left *MulExpr   `@@`
	Rest []*AddTerm `@@*`
}

type AddTerm struct {
	Pos   lexer.Position
	Op    string   `@("+" | "-")`
	Right *MulExpr `@@`
}

type MulExpr struct {
	Pos  lexer.Position
	Left *UnaryExpr `@@`
	Rest []*MulTerm `@@*`
}

type MulTerm struct {
	Pos   lexer.Position
	Op    string     `@("*" | "/" | "%")`
	Right *UnaryExpr `@@`
}

type UnaryExpr struct {
	Pos     lexer.Position
	Op      *string      `[ @("!" | "-") ]`
	Operand *PostfixExpr `@@`
}

type PostfixExpr struct {
	Pos     lexer.Position
	Primary *PrimaryExpr `@@`
	Suffix  []*Postfix   `@@*`
}

// Postfix covers field access and method-style calls (`.name`,
// `.name(args)` — the latter used for `.contains(elem)`), null-conditional
// access (`?.name`), array indexing (`[expr]`), and array
// length/collection count (`.length`/`.count`, folded by the builder
// from a plain Field with no Call suffix).
type Postfix struct {
	Pos          lexer.Position
	Field        *string     `  "." @Ident`
	Call         *CallSuffix `  [ @@ ]`
	NullCondName *string     `| "?." @Ident`
	Index        *Expr       `| "[" @@ "]"`
}

type CallSuffix struct {
	Pos  lexer.Position
	Args []*Expr `"(" [ @@ { "," @@ } ] ")"`
}

type PrimaryExpr struct {
	Pos     lexer.Position
	Old     *Expr     `  "old" "(" @@ ")"`
	Some    *Expr     `| "Some" "(" @@ ")"`
	None    *string   `| @"None"`
	Ok      *Expr     `| "Ok" "(" @@ ")"`
	Err     *Expr     `| "Err" "(" @@ ")"`
	Result  *string   `| @"result"`
	Float   *float64  `| @Float`
	Int     *string   `| @Integer`
	Bool    *string   `| @("true" | "false")`
	String  *string   `| @String`
	Decimal *string   `| @Decimal`
	Call    *CallExpr `| @@`
	Ident   *string   `| @Ident`
	Paren   *Expr     `| "(" @@ ")"`
}

type CallExpr struct {
	Pos  lexer.Position
	Name string  `@Ident "("`
	Args []*Expr `[ @@ { "," @@ } ] ")"`
}
