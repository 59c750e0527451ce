package token

import "fmt"

// Type defines the type of a token produced by the lexer.
type Type int

const (
	EOF Type = iota
	Ident
	String
	Number
	LBrace    // '{'
	RBrace    // '}'
	LBracket  // '['
	RBracket  // ']'
	Assign    // '='
	Semicolon // ';'
)

func (t Type) String() string {
	switch t {
	case EOF:
		return "EOF"
	case Ident:
		return "Ident"
	case String:
		return "String"
	case Number:
		return "Number"
	case LBrace:
		return "'{'"
	case RBrace:
		return "'}'"
	case LBracket:
		return "'['"
	case RBracket:
		return "']'"
	case Assign:
		return "'='"
	case Semicolon:
		return "';'"
	default:
		return "Unknown"
	}
}

// Position is a location in the original input.
type Position struct {
	Offset int // byte offset, starting at 0
	Line   int // line number, starting at 1
	Column int // column number in bytes, starting at 1
}

func (p Position) String() string {
	return fmt.Sprintf("%d:%d", p.Line, p.Column)
}

// Token represents a single lexical token.
// For String tokens Text holds the decoded value with quotes stripped and
// escape sequences resolved; for every other type it is the raw source text.
type Token struct {
	Type Type
	Text string
	Pos  Position
}
