package grammar

import "github.com/alecthomas/participle/v2/lexer"

// CovenantLexer tokenizes covenant source. Ident doubles as the keyword
// token (participle matches literal string alternatives like "module" or
// "requires" against Ident text), following the teacher grammar's lexer
// shape.
var CovenantLexer = lexer.MustStateful(lexer.Rules{
	"Root": {
		{"DocComment", `///[^\n]*`, nil},
		{"Comment", `//[^\n]*`, nil},
		{"Ident", `[a-zA-Z_][a-zA-Z0-9_]*`, nil},
		{"Float", `[0-9]+\.[0-9]+[fF]`, nil},
		{"Decimal", `[0-9]+\.[0-9]+[mM]`, nil},
		{"Integer", `0x[0-9a-fA-F]+|[0-9]+`, nil},
		{"String", `"(\\.|[^"\\])*"`, nil},
		{"Operator", `(\|\||&&|==|!=|<=|>=|\+=|-=|\*=|/=|%=|=>|\?\?|\?\.|\.\.|=|[-+*/%<>?!])`, nil},
		{"Punctuation", `[{}()\[\].,:;]`, nil},
		{"Whitespace", `[ \t\r\n]+`, nil},
	},
})
