package lexer

import (
	"fmt"
	"strings"

	"github.com/entforge/entkit/internal/token"
)

// Error is a lexing failure at a known position.
type Error struct {
	Pos token.Position
	Msg string
}

func (e *Error) Error() string {
	return fmt.Sprintf("line %d col %d: %s", e.Pos.Line, e.Pos.Column, e.Msg)
}

// Position returns the position of the malformed input.
func (e *Error) Position() token.Position { return e.Pos }

// Lexer scans the input string and produces tokens. Comments are stripped
// during scanning and never reach the token stream.
type Lexer struct {
	input  string
	pos    int
	line   int
	col    int
	tokens []token.Token
}

// New returns a Lexer over the given input.
func New(input string) *Lexer {
	return &Lexer{
		input:  input,
		line:   1,
		col:    1,
		tokens: make([]token.Token, 0, 64),
	}
}

// Tokenize scans the whole input and returns the token list, terminated by
// an EOF token.
func Tokenize(input string) ([]token.Token, error) {
	return New(input).Tokenize()
}

// Tokenize processes the entire input and produces the list of tokens.
func (l *Lexer) Tokenize() ([]token.Token, error) {
	for l.pos < len(l.input) {
		c := l.input[l.pos]
		switch {
		case c == ' ' || c == '\t' || c == '\r' || c == '\n':
			l.advance()

		case c == '/' && l.peekByte(1) == '/':
			l.skipLineComment()

		case c == '/' && l.peekByte(1) == '*':
			if err := l.skipBlockComment(); err != nil {
				return nil, err
			}

		case c == '{':
			l.addToken(token.LBrace, "{")
			l.advance()
		case c == '}':
			l.addToken(token.RBrace, "}")
			l.advance()
		case c == '[':
			l.addToken(token.LBracket, "[")
			l.advance()
		case c == ']':
			l.addToken(token.RBracket, "]")
			l.advance()
		case c == '=':
			l.addToken(token.Assign, "=")
			l.advance()
		case c == ';':
			l.addToken(token.Semicolon, ";")
			l.advance()

		case c == '"':
			if err := l.lexString(); err != nil {
				return nil, err
			}

		case isDigit(c) || ((c == '-' || c == '+') && isDigit(l.peekByte(1))):
			if err := l.lexNumber(); err != nil {
				return nil, err
			}

		case isIdentStart(c):
			l.lexIdent()

		default:
			return nil, &Error{
				Pos: l.position(),
				Msg: fmt.Sprintf("unexpected character %q", c),
			}
		}
	}

	l.addToken(token.EOF, "")
	return l.tokens, nil
}

// skipLineComment consumes a // comment up to, but not including, the newline.
func (l *Lexer) skipLineComment() {
	for l.pos < len(l.input) && l.input[l.pos] != '\n' {
		l.advance()
	}
}

// skipBlockComment consumes a /* ... */ comment, failing when the closing
// marker is missing.
func (l *Lexer) skipBlockComment() error {
	start := l.position()
	l.advance() // '/'
	l.advance() // '*'
	for l.pos < len(l.input) {
		if l.input[l.pos] == '*' && l.peekByte(1) == '/' {
			l.advance()
			l.advance()
			return nil
		}
		l.advance()
	}
	return &Error{Pos: start, Msg: "unterminated block comment"}
}

// lexString scans a quoted string literal, resolving escape sequences.
// An unknown escape keeps the backslash and the following character as-is.
func (l *Lexer) lexString() error {
	start := l.position()
	l.advance() // opening quote

	var sb strings.Builder
	for l.pos < len(l.input) {
		c := l.input[l.pos]
		switch c {
		case '"':
			l.advance()
			l.tokens = append(l.tokens, token.Token{Type: token.String, Text: sb.String(), Pos: start})
			return nil
		case '\\':
			if l.pos+1 >= len(l.input) {
				return &Error{Pos: start, Msg: "unterminated string literal"}
			}
			next := l.input[l.pos+1]
			switch next {
			case '"', '\\':
				sb.WriteByte(next)
			case 'n':
				sb.WriteByte('\n')
			case 't':
				sb.WriteByte('\t')
			case 'r':
				sb.WriteByte('\r')
			default:
				sb.WriteByte('\\')
				sb.WriteByte(next)
			}
			l.advance()
			l.advance()
		default:
			sb.WriteByte(c)
			l.advance()
		}
	}
	return &Error{Pos: start, Msg: "unterminated string literal"}
}

// lexNumber scans a numeric literal: optional sign, digits, optional
// fraction, optional exponent.
func (l *Lexer) lexNumber() error {
	start := l.position()
	begin := l.pos

	if c := l.input[l.pos]; c == '-' || c == '+' {
		l.advance()
	}
	for l.pos < len(l.input) && isDigit(l.input[l.pos]) {
		l.advance()
	}
	if l.pos < len(l.input) && l.input[l.pos] == '.' {
		l.advance()
		for l.pos < len(l.input) && isDigit(l.input[l.pos]) {
			l.advance()
		}
	}
	if l.pos < len(l.input) && (l.input[l.pos] == 'e' || l.input[l.pos] == 'E') {
		l.advance()
		if l.pos < len(l.input) && (l.input[l.pos] == '-' || l.input[l.pos] == '+') {
			l.advance()
		}
		if l.pos >= len(l.input) || !isDigit(l.input[l.pos]) {
			return &Error{Pos: start, Msg: "malformed number: missing exponent digits"}
		}
		for l.pos < len(l.input) && isDigit(l.input[l.pos]) {
			l.advance()
		}
	}

	l.tokens = append(l.tokens, token.Token{Type: token.Number, Text: l.input[begin:l.pos], Pos: start})
	return nil
}

// lexIdent scans a bare identifier such as entityDef, true or spawnPosition.
func (l *Lexer) lexIdent() {
	start := l.position()
	begin := l.pos
	for l.pos < len(l.input) && isIdentChar(l.input[l.pos]) {
		l.advance()
	}
	l.tokens = append(l.tokens, token.Token{Type: token.Ident, Text: l.input[begin:l.pos], Pos: start})
}

// advance moves past the current byte, tracking line and column.
func (l *Lexer) advance() {
	if l.input[l.pos] == '\n' {
		l.line++
		l.col = 1
	} else {
		l.col++
	}
	l.pos++
}

func (l *Lexer) peekByte(ahead int) byte {
	if l.pos+ahead >= len(l.input) {
		return 0
	}
	return l.input[l.pos+ahead]
}

func (l *Lexer) position() token.Position {
	return token.Position{Offset: l.pos, Line: l.line, Column: l.col}
}

func (l *Lexer) addToken(typ token.Type, text string) {
	l.tokens = append(l.tokens, token.Token{Type: typ, Text: text, Pos: l.position()})
}

func isDigit(c byte) bool {
	return c >= '0' && c <= '9'
}

func isIdentStart(c byte) bool {
	return c == '_' || (c >= 'a' && c <= 'z') || (c >= 'A' && c <= 'Z')
}

func isIdentChar(c byte) bool {
	return isIdentStart(c) || isDigit(c)
}
