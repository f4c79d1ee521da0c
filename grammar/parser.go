package grammar

import (
	"fmt"
	"os"
	"strings"

	"github.com/alecthomas/participle/v2"
	"github.com/fatih/color"
)

// ParseFile reads and parses a covenant source file into its concrete
// syntax tree.
func ParseFile(path string) (*Program, error) {
	source, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read file: %w", err)
	}
	return ParseString(path, string(source))
}

// ParseString parses source text attributed to filename (used for error
// positions).
func ParseString(filename, source string) (*Program, error) {
	parser, err := participle.Build[Program](
		participle.Lexer(CovenantLexer),
		participle.Elide("Whitespace", "Comment", "DocComment"),
		participle.UseLookahead(4),
	)
	if err != nil {
		return nil, fmt.Errorf("failed to build parser: %w", err)
	}

	program, err := parser.ParseString(filename, source)
	if err != nil {
		reportParseError(source, err)
		return nil, err
	}
	return program, nil
}

// reportParseError prints a caret-style parse error, matching the
// teacher grammar's diagnostic style for malformed input.
func reportParseError(src string, err error) {
	pe, ok := err.(participle.Error)
	if !ok {
		color.Red("unexpected error: %s", err)
		return
	}

	pos := pe.Position()
	lines := strings.Split(src, "\n")
	if pos.Line <= 0 || pos.Line > len(lines) {
		color.Red("syntax error at unknown location: %s", err)
		return
	}

	line := lines[pos.Line-1]
	caret := strings.Repeat(" ", pos.Column-1) + "^"

	color.Red("syntax error in %s at line %d, column %d:", pos.Filename, pos.Line, pos.Column)
	fmt.Println(line)
	color.HiRed(caret)
	fmt.Printf("-> %s\n", pe.Message())
}
